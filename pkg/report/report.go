// pkg/report/report.go - writes the per-machine summary to a single-sheet xlsx workbook.

package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/windowsadmins/wasetupreport/pkg/config"
	"github.com/windowsadmins/wasetupreport/pkg/logging"
	"github.com/windowsadmins/wasetupreport/pkg/summary"
)

// ErrOutputLocked is returned when an existing report cannot be replaced,
// typically because a spreadsheet application holds it open.
var ErrOutputLocked = errors.New("output file is locked")

// ErrOutputIsDirectory is returned when the output path names a directory.
var ErrOutputIsDirectory = errors.New("output path is a directory")

// removeFile deletes the previous report. Tests replace it to simulate a held file.
var removeFile = os.Remove

// defaultSheet is the name excelize gives the first sheet of a new workbook.
const defaultSheet = "Sheet1"

// Writer serializes summary rows to an xlsx file.
type Writer struct {
	Path    string
	Sheet   string
	Columns []string
}

// NewWriter builds a Writer from the configuration.
func NewWriter(cfg *config.Configuration) *Writer {
	return &Writer{
		Path:    cfg.OutputFile,
		Sheet:   cfg.SheetName,
		Columns: cfg.SummaryColumns,
	}
}

// Header returns the header row: Machine, each column, Total.
func (w *Writer) Header() []string {
	h := make([]string, 0, len(w.Columns)+2)
	h = append(h, "Machine")
	h = append(h, w.Columns...)
	return append(h, "Total")
}

// Write replaces the report at w.Path with rows. If an existing file cannot
// be removed nothing is written and the error wraps ErrOutputLocked.
func (w *Writer) Write(rows []summary.Row) error {
	if info, err := os.Stat(w.Path); err == nil && info.IsDir() {
		return fmt.Errorf("%w: %s", ErrOutputIsDirectory, w.Path)
	}
	if err := removeFile(w.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s: %v", ErrOutputLocked, w.Path, err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close workbook", "error", err)
		}
	}()

	sheet := w.Sheet
	if sheet == "" {
		sheet = defaultSheet
	}
	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return fmt.Errorf("naming sheet %q: %w", sheet, err)
		}
	}

	for i, title := range w.Header() {
		if err := setCell(f, sheet, i+1, 1, title); err != nil {
			return err
		}
	}

	for r, row := range rows {
		line := r + 2
		if err := setCell(f, sheet, 1, line, row.Machine); err != nil {
			return err
		}
		for c, v := range row.Values {
			if v == nil {
				continue
			}
			if err := setCell(f, sheet, c+2, line, *v); err != nil {
				return err
			}
		}
		if row.Total != nil {
			if err := setCell(f, sheet, len(w.Columns)+2, line, *row.Total); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(w.Path); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: %s: %v", ErrOutputLocked, w.Path, err)
		}
		return fmt.Errorf("saving report %s: %w", w.Path, err)
	}

	logging.Info("Report written", "path", w.Path, "sheet", sheet, "rows", len(rows))
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("setting cell %s: %w", cell, err)
	}
	return nil
}
