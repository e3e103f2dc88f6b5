package xlsxrow

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/hochbau-digital/gaeb-lv-tools/internal/document"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// writeWorkbook creates an XLSX file whose first sheet holds the given rows.
func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}

	path := filepath.Join(t.TempDir(), "export.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func TestExtractWorkbook(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Projekt", "Gewerk", "Untergewerk", "OZ", "Kurztext", "Menge", "Einheit", "Einheitspreis"},
		{"Halle 7", "Rohbau", "Erdarbeiten", "01.01.0001", "Boden abtragen", "12,5", "m3", "4,20"},
		{"", "Rohbau", "Erdarbeiten", "01.01.0002", "Boden entsorgen", "12,5", "m3", ""},
		{"", "", "", "", "", "", "", ""},
	})

	ex, err := Extract(path, Settings{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if ex.Project != "Halle 7" {
		t.Errorf("Project = %q, want %q", ex.Project, "Halle 7")
	}
	if len(ex.Rows) != 2 {
		t.Fatalf("got %d rows, want 2 (blank row skipped)", len(ex.Rows))
	}

	r := ex.Rows[0]
	if r.TopSection != "Rohbau" || r.SubSection != "Erdarbeiten" {
		t.Errorf("sections = %q/%q", r.TopSection, r.SubSection)
	}
	if r.OZ != "01.01.0001" {
		t.Errorf("OZ = %q", r.OZ)
	}
	if !r.Quantity.Equal(dec("12.5")) {
		t.Errorf("Quantity = %s, want 12.5", r.Quantity)
	}
	if r.UnitLabel != "m3" {
		t.Errorf("UnitLabel = %q", r.UnitLabel)
	}
	if !r.UnitPriceNet.Valid || !r.UnitPriceNet.Decimal.Equal(dec("4.20")) {
		t.Errorf("UnitPriceNet = %+v, want 4.20", r.UnitPriceNet)
	}
	if ex.Rows[1].UnitPriceNet.Valid {
		t.Errorf("row 2 unit price should be unset")
	}
}

func TestExtractIdentifierColumns(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"OZ", "GAEB_ID", "RNoPart", "UP", "IT", "Qty"},
		{"01.0010", "a3f0", "0010", "4,00", "30,00", "7,5"},
	})

	ex, err := Extract(path, Settings{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(ex.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(ex.Rows))
	}
	r := ex.Rows[0]
	if r.ItemID != "a3f0" {
		t.Errorf("ItemID = %q", r.ItemID)
	}
	if r.RefNo != "0010" {
		t.Errorf("RefNo = %q", r.RefNo)
	}
	if !r.TotalPriceNet.Valid || !r.TotalPriceNet.Decimal.Equal(dec("30.00")) {
		t.Errorf("TotalPriceNet = %+v, want 30.00", r.TotalPriceNet)
	}
}

func TestExtractNamedSheetAndPreamble(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "LV Export"
	if _, err := f.NewSheet(sheet); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	rows := [][]interface{}{
		{"Export vom 03.07.2026"},
		{"OZ", "Kurztext", "Menge"},
		{"01.0010", "Schalung", "3,0"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "named.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}

	ex, err := Extract(path, Settings{SheetName: sheet, HeaderRows: 1, DataStartRow: 3})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	// The preamble row lands before DataStartRow and must not show up.
	if len(ex.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(ex.Rows))
	}
	if ex.Rows[0].OZ != "01.0010" {
		t.Errorf("OZ = %q", ex.Rows[0].OZ)
	}
	if ex.Rows[0].ShortText != "Schalung" {
		t.Errorf("ShortText = %q", ex.Rows[0].ShortText)
	}
}

func TestExtractMissingFile(t *testing.T) {
	_, err := Extract(filepath.Join(t.TempDir(), "nope.xlsx"), Settings{})
	if !errors.Is(err, document.ErrUnreadableInput) {
		t.Fatalf("err = %v, want ErrUnreadableInput", err)
	}
}
