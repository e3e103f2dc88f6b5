package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/hochbau-digital/gaeb-lv-tools/internal/document"
)

// xlsxSheetName is the sheet the workbook export writes to and the XLSX
// extractor reads back by default.
const xlsxSheetName = "LV"

// WriteXLSX serializes the document as a workbook with one position per row.
// The column layout matches the CSV export so both round-trip through the
// tabular extractors.
func WriteXLSX(w io.Writer, lv *document.LV) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(xlsxSheetName)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("dropping default sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(xlsxSheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range Flatten(lv) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row.Values()
		cells := make([]interface{}, len(values))
		for j, v := range values {
			cells[j] = v
		}
		if err := f.SetSheetRow(xlsxSheetName, cell, &cells); err != nil {
			return fmt.Errorf("writing row %s: %w", row.OZ, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
