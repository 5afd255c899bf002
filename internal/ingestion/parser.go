package ingestion

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/guttosm/sireview/internal/domain/models"
	"github.com/guttosm/sireview/internal/period"
)

// Trade feed columns, matched case-insensitively.
const (
	colISIN           = "ISIN"
	colIssuer         = "ISSUER"
	colIssuerFullName = "ISSUER_FULLNAME"
	colCounterpart    = "COUNTERPART"
	colTradeDate      = "M_TRN_DATE"
	colSplit          = "M_SPLIT_INI"
)

// Reference feed columns.
const (
	colCalcFromDate = "CALCULATION FROM DATE"
	colTransactions = "TOTAL NUMBER OF TRANSACTIONS EXECUTED IN THE EU"
)

// requiredTradeColumns must be present in every trade feed header.
// ISSUER_FULLNAME and M_SPLIT_INI are optional.
var requiredTradeColumns = []string{colISIN, colIssuer, colCounterpart, colTradeDate}

var requiredReferenceColumns = []string{colISIN, colCalcFromDate, colTransactions}

// parseTradeFile reads one trade feed (csv or xlsx).
//
// It fails on:
//   - a header missing a required column (SchemaError)
//   - unrecoverable I/O errors and context cancellation
//
// It tolerates:
//   - ragged and blank rows (missing cells read as empty)
//   - unparseable dates (the trade gets no period; counted and logged once)
//   - non-numeric split indicators (treated as absent)
//
// Parameters:
//   - ctx:  context for cancellation.
//   - feed: feed name recorded in each row reference.
//   - path: file path.
//   - log:  component logger.
func parseTradeFile(ctx context.Context, feed, path string, log zerolog.Logger) ([]models.TradeRecord, error) {
	rows, err := openRows(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Next()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h := indexHeader(cols)
	if err := h.require(feed, path, requiredTradeColumns...); err != nil {
		return nil, err
	}

	var out []models.TradeRecord
	lineNumber := 1 // header already read
	badDates := 0

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec, err := rows.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("read line after %d: %w", lineNumber, err)
		}
		lineNumber++
		if blank(rec) {
			continue
		}

		tr := recordToTrade(h, rec, rows.SerialDates())
		tr.Source = models.RowRef{Feed: feed, Line: lineNumber}
		if tr.TradeDate.IsZero() && h.get(rec, colTradeDate) != "" {
			badDates++
			log.Debug().Str("feed", feed).Int("line", lineNumber).Str("value", h.get(rec, colTradeDate)).Msg("unparseable trade date")
		}
		out = append(out, tr)
	}

	if badDates > 0 {
		log.Warn().Str("feed", feed).Int("rows", badDates).Msg("trade dates could not be parsed; rows have no period")
	}
	return out, nil
}

// recordToTrade maps one row onto a TradeRecord by column name.
//
//	ISIN            → InstrumentID
//	ISSUER          → IssuerCode
//	ISSUER_FULLNAME → IssuerFullName (optional)
//	COUNTERPART     → CounterpartyCode
//	M_TRN_DATE      → TradeDate (dd/mm/yyyy, ISO, or Excel serial in workbooks)
//	M_SPLIT_INI     → SplitIndicator (optional, NaN when absent)
func recordToTrade(h header, rec []string, serials bool) models.TradeRecord {
	return models.TradeRecord{
		InstrumentID:     strings.ToUpper(h.get(rec, colISIN)),
		IssuerCode:       strings.ToUpper(h.get(rec, colIssuer)),
		IssuerFullName:   h.get(rec, colIssuerFullName),
		CounterpartyCode: h.get(rec, colCounterpart),
		TradeDate:        parseDate(h.get(rec, colTradeDate), serials),
		SplitIndicator:   parseSplit(h.get(rec, colSplit)),
	}
}

// parseReferenceTable reads a tabular reference statistics feed (csv or xlsx).
func parseReferenceTable(ctx context.Context, path string) ([]models.ReferenceStatRecord, error) {
	rows, err := openRows(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Next()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h := indexHeader(cols)
	if err := h.require(models.FeedReference, path, requiredReferenceColumns...); err != nil {
		return nil, err
	}

	var out []models.ReferenceStatRecord
	lineNumber := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := rows.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("read line after %d: %w", lineNumber, err)
		}
		lineNumber++
		if blank(rec) {
			continue
		}
		out = append(out, models.ReferenceStatRecord{
			InstrumentID:         strings.ToUpper(h.get(rec, colISIN)),
			PeriodStartDate:      parseDate(h.get(rec, colCalcFromDate), rows.SerialDates()),
			TransactionsExecuted: h.get(rec, colTransactions),
			Source:               models.RowRef{Feed: models.FeedReference, Line: lineNumber},
		})
	}
	return out, nil
}

// maxExcelSerial is 31/12/9999, the last date Excel can represent.
const maxExcelSerial = 2958465

// parseDate accepts the textual layouts of period.ParseDate and, when
// serials is set (raw xlsx cells), Excel date serials. Anything else yields
// the zero time.
func parseDate(s string, serials bool) time.Time {
	if t, ok := period.ParseDate(s); ok {
		return t
	}
	if !serials {
		return time.Time{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 || f > maxExcelSerial {
		return time.Time{}
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseSplit parses M_SPLIT_INI; comma decimals are accepted.
// Empty or non-numeric cells yield NaN so they are never mistaken for 0.
func parseSplit(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
