package export

import (
	"fmt"
	"io"

	"github.com/david/artify/internal/models"
	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet of the spreadsheet export.
const SheetName = "Convocatorias"

// WriteXLSX writes a workbook with the CSV columns plus difficulty.
func WriteXLSX(w io.Writer, opps []models.Opportunity) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	headers := make([]any, 0, len(Columns)+1)
	for _, c := range Columns {
		headers = append(headers, c)
	}
	headers = append(headers, "difficulty")
	if err := f.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}

	for i, o := range opps {
		fields := Row(o)
		row := make([]any, 0, len(fields)+1)
		for _, v := range fields {
			row = append(row, v)
		}
		row = append(row, o.Difficulty)

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("xlsx row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 48) // title
	_ = f.SetColWidth(SheetName, "B", "B", 40) // url
	_ = f.SetColWidth(SheetName, "C", "F", 16)
	_ = f.SetColWidth(SheetName, "G", "H", 12) // dates
	_ = f.SetColWidth(SheetName, "L", "L", 60) // summary

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
