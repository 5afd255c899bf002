package ingestion

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/guttosm/sireview/internal/domain/models"
)

// esmaRecord is one NonEqtyTrnsprncyData element of the regulator's
// non-equity transparency file. Tags are matched by local name, so the
// namespace of the published files is irrelevant.
type esmaRecord struct {
	ISIN         string `xml:"Id>ISINAndSubClss>ISIN"`
	FromDate     string `xml:"RptgPrd>FrDtToDt>FrDt"`
	Transactions string `xml:"Sttstcs>TtlNbOfTxsExctd"`
}

const esmaRecordElement = "NonEqtyTrnsprncyData"

// parseESMAFile streams one XML file and decodes every transparency record.
// Records live under Pyld/Document/FinInstrmRptgNonEqtyTradgActvtyRslt; the
// decoder picks them up at any depth.
func parseESMAFile(ctx context.Context, path string) ([]models.ReferenceStatRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec := xml.NewDecoder(f)
	var out []models.ReferenceStatRecord
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid XML in %s: %w", path, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != esmaRecordElement {
			continue
		}
		var rec esmaRecord
		if err := dec.DecodeElement(&rec, &se); err != nil {
			return nil, fmt.Errorf("decode %s #%d in %s: %w", esmaRecordElement, n+1, path, err)
		}
		n++
		out = append(out, models.ReferenceStatRecord{
			InstrumentID:         strings.ToUpper(strings.TrimSpace(rec.ISIN)),
			PeriodStartDate:      parseDate(strings.TrimSpace(rec.FromDate), false),
			TransactionsExecuted: strings.TrimSpace(rec.Transactions),
			Source:               models.RowRef{Feed: models.FeedReference, Line: n},
		})
	}
	return out, nil
}

// listXMLFiles returns the .xml files of dir in name order.
func listXMLFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no XML files found in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}
