// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package tabular

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Workbook is an opened .xlsx file.
type Workbook struct {
	file *excelize.File
}

// OpenWorkbook parses an .xlsx body.
func OpenWorkbook(body []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return &Workbook{file: f}, nil
}

// Sheets returns the sheet names in workbook order.
func (w *Workbook) Sheets() []string {
	return w.file.GetSheetList()
}

// Rows returns every row of sheet with raw cell values. Dates therefore
// come back as serial numbers rather than formatted strings. Trailing empty
// cells are not included, so rows may be shorter than the header.
func (w *Workbook) Rows(sheet string) ([][]string, error) {
	rows, err := w.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	return w.file.Close()
}
