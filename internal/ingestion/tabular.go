package ingestion

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// rowReader yields the raw cells of a tabular feed, header first.
// Next returns io.EOF after the last row. SerialDates reports whether
// numeric date cells are Excel serials.
type rowReader interface {
	Next() ([]string, error)
	SerialDates() bool
	Close() error
}

// openRows picks a reader from the file extension.
func openRows(path string) (rowReader, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		return openCSV(path)
	case ".xlsx", ".xlsm":
		return openXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
}

type csvRows struct {
	f *os.File
	r *csv.Reader
}

func openCSV(path string) (*csvRows, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	br := bufio.NewReaderSize(f, 64*1024)
	head, _ := br.Peek(64 * 1024) // short files return what is there

	r := csv.NewReader(br)
	r.Comma = sniffDelimiter(head)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1 // ragged rows are padded by header lookups
	return &csvRows{f: f, r: r}, nil
}

func (c *csvRows) Next() ([]string, error) { return c.r.Read() }
func (c *csvRows) SerialDates() bool       { return false }
func (c *csvRows) Close() error            { return c.f.Close() }

// sniffDelimiter returns ';' when the header line has more semicolons than
// commas, ',' otherwise.
func sniffDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		return ';'
	}
	return ','
}

type xlsxRows struct {
	f    *excelize.File
	rows *excelize.Rows
}

// openXLSX streams the first sheet of a workbook with raw cell values,
// so dates arrive as Excel serial numbers rather than display strings.
func openXLSX(path string) (*xlsxRows, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return &xlsxRows{f: f, rows: rows}, nil
}

func (x *xlsxRows) Next() ([]string, error) {
	if !x.rows.Next() {
		if err := x.rows.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return x.rows.Columns(excelize.Options{RawCellValue: true})
}

func (x *xlsxRows) SerialDates() bool { return true }

func (x *xlsxRows) Close() error {
	_ = x.rows.Close()
	return x.f.Close()
}

// header maps upper-cased column names to their index.
type header map[string]int

func indexHeader(cols []string) header {
	h := make(header, len(cols))
	for i, c := range cols {
		name := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(c, "\ufeff")))
		if _, dup := h[name]; !dup && name != "" {
			h[name] = i
		}
	}
	return h
}

// require fails with a SchemaError on the first missing column.
func (h header) require(feed, path string, names ...string) error {
	for _, n := range names {
		if _, ok := h[n]; !ok {
			return &SchemaError{Feed: feed, Path: path, Field: n}
		}
	}
	return nil
}

// get returns the trimmed cell of column name, "" when the column or cell is absent.
func (h header) get(rec []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
