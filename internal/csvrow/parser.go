// =============================================================================
// GAEB LV Tools - CSV Row Extractor
// =============================================================================
//
// Some tendering tools deliver the bill of quantities not as GAEB XML but as
// a flat CSV export with named columns. This module parses such files into
// the same typed row sequence the GAEB extractor produces, so both feed the
// identical tree builder.
//
// FEATURES:
//   - Configurable delimiter (comma, semicolon, pipe, tab)
//   - Multi-line headers merged into single column names
//   - Custom data start rows for files with metadata preambles
//   - Lenient quoting for exports that do not follow strict CSV rules
//
// COLUMN CONTRACT:
//   Column names follow the conventional German GAEB export layout (Gewerk,
//   Untergewerk, OZ, Kurztext, Langtext, Qty, QU, ...). Every value has an
//   explicit, ordered list of candidate column names; all of that fallback
//   logic lives in RowFromRecord and nowhere else.
//
// =============================================================================

package csvrow

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/hochbau-digital/gaeb-lv-tools/internal/document"
)

// ErrUnreadableFile aliases the shared extractor sentinel for structurally
// unreadable input.
var ErrUnreadableFile = document.ErrUnreadableInput

// Settings controls how a CSV export is parsed.
type Settings struct {
	// Delimiter separates fields. Accepts a literal character or the names
	// "tab", "pipe", "semicolon". Default: ";" (the common German export).
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows; multi-row headers are merged
	// column-wise. Default: 1.
	HeaderRows int `yaml:"header_rows"`

	// DataStartRow is the 1-indexed row where data begins. Default: directly
	// after the headers.
	DataStartRow int `yaml:"data_start_row"`
}

func (s Settings) withDefaults() Settings {
	if s.Delimiter == "" {
		s.Delimiter = ";"
	}
	if s.HeaderRows <= 0 {
		s.HeaderRows = 1
	}
	if s.DataStartRow <= 0 {
		s.DataStartRow = s.HeaderRows + 1
	}
	return s
}

// Extraction is the extractor output shared with the GAEB XML extractor.
type Extraction struct {
	Project string
	Rows    []document.Row
}

// Extract parses a CSV export into position rows.
func Extract(path string, settings Settings) (*Extraction, error) {
	settings = settings.withDefaults()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReader(file))
	configureReader(reader, settings)

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	if len(allRows) < settings.HeaderRows {
		return nil, fmt.Errorf("%w: file has fewer rows than headers", ErrUnreadableFile)
	}

	headers := mergeHeaders(allRows[:settings.HeaderRows])

	ex := &Extraction{}
	for i := settings.DataStartRow - 1; i < len(allRows); i++ {
		if i < 0 || isRowEmpty(allRows[i]) {
			continue
		}
		record := ToRecord(headers, allRows[i])
		if ex.Project == "" {
			ex.Project = document.CleanText(First(record, "Projekt", "Project"))
		}
		ex.Rows = append(ex.Rows, RowFromRecord(record))
	}

	return ex, nil
}

// configureReader applies the delimiter and the leniency settings the legacy
// exports require.
func configureReader(reader *csv.Reader, settings Settings) {
	switch settings.Delimiter {
	case "\\t", "tab":
		reader.Comma = '\t'
	case "|", "pipe":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		reader.Comma = rune(settings.Delimiter[0])
	}

	// Exports vary in column counts and quoting discipline.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// mergeHeaders merges one or more header rows into final column names by
// joining the non-empty cells of each column top to bottom.
func mergeHeaders(headerRows [][]string) []string {
	maxCols := 0
	for _, row := range headerRows {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		var parts []string
		for _, row := range headerRows {
			if col < len(row) {
				if v := strings.TrimSpace(row[col]); v != "" {
					parts = append(parts, v)
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

// ToRecord zips a header slice with a raw row into a name-keyed record.
// Short rows leave trailing columns empty, long rows drop the overflow.
func ToRecord(headers []string, row []string) map[string]string {
	record := make(map[string]string, len(headers))
	for i, header := range headers {
		if i < len(row) {
			record[header] = strings.TrimSpace(row[i])
		} else {
			record[header] = ""
		}
	}
	return record
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// First returns the first non-empty value among the candidate columns.
func First(record map[string]string, candidates ...string) string {
	for _, name := range candidates {
		if v := record[name]; v != "" {
			return v
		}
	}
	return ""
}

// RowFromRecord maps a record to the typed row contract. This is the one
// place that knows which column names may carry which value, in priority
// order; the XLSX extractor reuses it so both tabular formats share a
// single column contract.
func RowFromRecord(record map[string]string) document.Row {
	return document.Row{
		TopSection:    First(record, "Gewerk"),
		SubSection:    First(record, "Untergewerk"),
		OZ:            First(record, "OZ"),
		ShortText:     First(record, "Kurztext"),
		LongText:      First(record, "Langtext"),
		Quantity:      document.ParseQuantity(First(record, "Qty", "Menge")),
		UnitLabel:     First(record, "QU", "Einheit"),
		ItemID:        First(record, "ID", "GAEB_ID", "ItemID", "ItemId"),
		RefNo:         First(record, "RNoPart", "RNo"),
		UnitPriceNet:  document.ParseDecimal(First(record, "UP", "Einheitspreis")),
		TotalPriceNet: document.ParseDecimal(First(record, "IT", "Gesamtbetrag")),
	}
}
