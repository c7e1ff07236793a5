package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Report"

// WriteXLSX writes a dataset as a single-sheet workbook with a bold header
// row and auto-fitted columns.
func WriteXLSX(w io.Writer, ds Dataset) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	if err := f.SetCellValue(sheetName, "A1", ds.Title); err != nil {
		return err
	}
	if err := f.SetCellValue(sheetName, "A2",
		"Generated "+ds.GeneratedAt.Format("2006-01-02 15:04")); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	const headerRow = 4
	for col, name := range ds.Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, headerRow)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for i, row := range ds.Rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, headerRow+1+i)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
	}

	for col := range ds.Columns {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		width := columnWidth(ds, col)
		if err := f.SetColWidth(sheetName, name, name, width); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func columnWidth(ds Dataset, col int) float64 {
	widest := len(ds.Columns[col])
	for _, row := range ds.Rows {
		if col < len(row) && len(row[col]) > widest {
			widest = len(row[col])
		}
	}
	if widest < 10 {
		widest = 10
	}
	if widest > 60 {
		widest = 60
	}
	return float64(widest) + 2
}
