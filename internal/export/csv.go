package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/hochbau-digital/gaeb-lv-tools/internal/document"
)

// WriteCSV serializes the document as a flat CSV table, one position per
// line, semicolon separated like the German spreadsheet exports this tool
// reads back in.
func WriteCSV(w io.Writer, lv *document.LV) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range Flatten(lv) {
		if err := cw.Write(row.Values()); err != nil {
			return fmt.Errorf("writing row %s: %w", row.OZ, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
