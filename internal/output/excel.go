// internal/output/excel.go
package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/valpere/SocialScrapexter/pkg/types"
)

const excelSheet = "Posts"

// ExcelWriter accumulates posts and writes one workbook on Close.
type ExcelWriter struct {
	filename string
	file     *excelize.File
	row      int
}

// NewExcelWriter creates an Excel writer targeting filename.
func NewExcelWriter(filename string) (*ExcelWriter, error) {
	if filename == "" {
		return nil, fmt.Errorf("excel output requires a filename")
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(excelSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	w := &ExcelWriter{filename: filename, file: f, row: 1}
	if err := w.writeRow(postColumns); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *ExcelWriter) writeRow(values []string) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, w.row)
		if err != nil {
			return fmt.Errorf("failed to compute cell: %w", err)
		}
		if err := w.file.SetCellValue(excelSheet, cell, value); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}
	w.row++
	return nil
}

func (w *ExcelWriter) Write(posts []types.Post) error {
	for _, post := range posts {
		if err := w.writeRow(postRow(post)); err != nil {
			return err
		}
	}
	return nil
}

// Close saves the workbook.
func (w *ExcelWriter) Close() error {
	if err := w.file.SaveAs(w.filename); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return w.file.Close()
}
