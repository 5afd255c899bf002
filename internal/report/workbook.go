package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/guttosm/sireview/internal/domain/models"
)

// Output file names written by Stage.
const (
	WorkbookFile = "si_review.xlsx"
	SummaryFile  = "si_review_summary.txt"
)

// WriteWorkbook writes the review to an xlsx file with the sheets
// "Review by ISIN", "Review by Issuer" and "Classified trades", plus
// "Classified issuer master" when the run had an issuer master feed.
// Sheets are streamed, so the classified sheets can hold large feeds.
func WriteWorkbook(path string, res *models.ReviewResult) error {
	byISIN, byIssuer := BuildTables(res)
	tables := []Table{byISIN, byIssuer, ClassifiedTable(res.Classified)}
	if res.ClassifiedIssuerMaster != nil {
		tables = append(tables, ClassifiedMasterTable(res.ClassifiedIssuerMaster))
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.Name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("new sheet %q: %w", t.Name, err)
		}
		if err := writeSheet(f, t, bold); err != nil {
			return fmt.Errorf("sheet %q: %w", t.Name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, t Table, headerStyle int) error {
	sw, err := f.NewStreamWriter(t.Name)
	if err != nil {
		return err
	}
	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := sw.SetRow("A1", header, excelize.RowOpts{StyleID: headerStyle}); err != nil {
		return err
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	return sw.Flush()
}

// Staged is a complete set of run outputs written to a scratch directory
// inside the output dir. Commit moves it into place; Discard drops it.
type Staged struct {
	tmp    string
	files  []string
	finals []string
	done   bool
}

// Stage writes the workbook and the text summary into a fresh scratch
// directory under dir, creating dir if needed. Files already in dir are not
// touched until Commit.
//
// Returns:
//   - *Staged: the written set; the caller must Commit or Discard it.
//   - error: directory creation or write failure (nothing is left behind).
func Stage(dir string, res *models.ReviewResult) (*Staged, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.MkdirTemp(dir, ".staging-")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	st := &Staged{
		tmp:    tmp,
		files:  []string{filepath.Join(tmp, WorkbookFile), filepath.Join(tmp, SummaryFile)},
		finals: []string{filepath.Join(dir, WorkbookFile), filepath.Join(dir, SummaryFile)},
	}

	if err := WriteWorkbook(st.files[0], res); err != nil {
		st.Discard()
		return nil, err
	}
	if err := os.WriteFile(st.files[1], []byte(Summary(res, st.finals)), 0o644); err != nil {
		st.Discard()
		return nil, fmt.Errorf("write summary: %w", err)
	}
	return st, nil
}

// Files returns the staged paths, workbook first. They are valid until
// Commit or Discard.
func (s *Staged) Files() []string { return s.files }

// Outputs returns the final paths the files get on Commit.
func (s *Staged) Outputs() []string { return s.finals }

// Commit renames the staged files over their final paths and removes the
// scratch directory.
func (s *Staged) Commit() error {
	if s.done {
		return nil
	}
	for i, f := range s.files {
		if err := os.Rename(f, s.finals[i]); err != nil {
			s.Discard()
			return fmt.Errorf("commit %s: %w", filepath.Base(f), err)
		}
	}
	s.done = true
	_ = os.RemoveAll(s.tmp)
	return nil
}

// Discard removes the scratch directory. It is a no-op after Commit.
func (s *Staged) Discard() {
	if s.done {
		return
	}
	s.done = true
	_ = os.RemoveAll(s.tmp)
}
