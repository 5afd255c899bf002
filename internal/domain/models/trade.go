package models

import (
	"time"

	"github.com/guttosm/sireview/internal/period"
)

// Feed names used in RowRef and in log/error context.
const (
	FeedTrades       = "trades"
	FeedIssuerMaster = "issuer_master"
	FeedReference    = "reference"
)

// RowRef points back to the feed row a record was read from.
// Line is 1-based and counts the header row.
type RowRef struct {
	Feed string
	Line int
}

// Less orders row references by feed name, then line.
func (r RowRef) Less(o RowRef) bool {
	if r.Feed != o.Feed {
		return r.Feed < o.Feed
	}
	return r.Line < o.Line
}

// TradeRecord represents a single execution row of a trade feed.
//
// Column mapping:
//   - ISIN            → InstrumentID (trimmed, upper-cased)
//   - ISSUER          → IssuerCode
//   - ISSUER_FULLNAME → IssuerFullName
//   - COUNTERPART     → CounterpartyCode
//   - M_TRN_DATE      → TradeDate (zero when empty or unparseable)
//   - M_SPLIT_INI     → SplitIndicator (NaN when the column or cell is absent)
//
// A SplitIndicator equal to 0 marks a row that is not a real trade.
type TradeRecord struct {
	InstrumentID     string
	IssuerCode       string
	IssuerFullName   string
	CounterpartyCode string
	TradeDate        time.Time
	SplitIndicator   float64
	Source           RowRef
}

// ClassifiedTrade is a TradeRecord annotated with its exemption scope and period.
type ClassifiedTrade struct {
	TradeRecord
	InScope           bool
	MarketMakerExempt bool
	RegulatorExempt   bool
	ReviewInScope     bool
	IsAuction         bool
	Period            period.Label
	HasPeriod         bool
}

// ReferenceStatRecord is one row of the regulator's published transaction statistics.
// TransactionsExecuted keeps the raw cell text; it is coerced during review.
type ReferenceStatRecord struct {
	InstrumentID         string
	PeriodStartDate      time.Time
	TransactionsExecuted string
	Source               RowRef
}
