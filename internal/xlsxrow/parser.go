// =============================================================================
// GAEB LV Tools - XLSX Row Extractor
// =============================================================================
//
// This module reads tabular bill-of-quantities exports from XLSX workbooks
// and produces the same typed row sequence as the CSV extractor. Spreadsheet
// exports from Excel-based takeoff tools carry the same columns as their CSV
// counterparts, so the column contract (which header may carry which value,
// in which priority order) is shared with internal/csvrow.
//
// Only the first visible sheet is read unless a sheet name is configured.
// Formula cells are read as their cached calculated values.
//
// =============================================================================

package xlsxrow

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hochbau-digital/gaeb-lv-tools/internal/csvrow"
	"github.com/hochbau-digital/gaeb-lv-tools/internal/document"
)

// ErrUnreadableFile is returned when the workbook cannot be opened or has no
// usable sheet. It aliases the shared document sentinel so callers match one
// error regardless of source format.
var ErrUnreadableFile = document.ErrUnreadableInput

// Settings controls how the workbook is read.
type Settings struct {
	// SheetName selects the sheet to read. Empty means the first sheet.
	SheetName string

	// HeaderRows is the number of leading rows that form the column
	// headers. Multi-row headers are merged with a space, like the CSV
	// extractor does. Default: 1.
	HeaderRows int

	// DataStartRow is the 1-based row where data begins.
	// Default: HeaderRows + 1.
	DataStartRow int
}

func (s Settings) withDefaults() Settings {
	if s.HeaderRows <= 0 {
		s.HeaderRows = 1
	}
	if s.DataStartRow <= 0 {
		s.DataStartRow = s.HeaderRows + 1
	}
	return s
}

// Extraction holds the rows pulled from a workbook plus document-level
// metadata found alongside them.
type Extraction struct {
	Project string
	Rows    []document.Row
}

// Extract reads an XLSX workbook and returns its rows in sheet order.
// Empty rows are skipped; rows without an order number are kept here and
// filtered later by the document builder, so callers see the same behavior
// for both tabular formats.
func Extract(path string, settings Settings) (*Extraction, error) {
	settings = settings.withDefaults()

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	sheet := settings.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadableFile)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: reading sheet %q: %v", ErrUnreadableFile, sheet, err)
	}
	if len(rows) < settings.HeaderRows {
		return nil, fmt.Errorf("%w: sheet %q has no header row", ErrUnreadableFile, sheet)
	}

	headers := mergeHeaders(rows[:settings.HeaderRows])

	ex := &Extraction{}
	for i := settings.DataStartRow - 1; i < len(rows); i++ {
		if isRowEmpty(rows[i]) {
			continue
		}
		record := csvrow.ToRecord(headers, rows[i])
		if ex.Project == "" {
			ex.Project = document.CleanText(csvrow.First(record, "Projekt", "Project"))
		}
		ex.Rows = append(ex.Rows, csvrow.RowFromRecord(record))
	}
	return ex, nil
}

// mergeHeaders joins stacked header rows cell by cell. Cells that stay empty
// across all header rows get a positional fallback name so ToRecord never
// collides two columns on the empty string.
func mergeHeaders(headerRows [][]string) []string {
	width := 0
	for _, row := range headerRows {
		if len(row) > width {
			width = len(row)
		}
	}
	headers := make([]string, width)
	for col := 0; col < width; col++ {
		var parts []string
		for _, row := range headerRows {
			if col < len(row) {
				if cell := strings.TrimSpace(row[col]); cell != "" {
					parts = append(parts, cell)
				}
			}
		}
		name := strings.Join(parts, " ")
		if name == "" {
			name = fmt.Sprintf("Column_%d", col+1)
		}
		headers[col] = name
	}
	return headers
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
