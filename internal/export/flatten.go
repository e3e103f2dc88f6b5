// =============================================================================
// GAEB LV Tools - Export Module
// =============================================================================
//
// This module turns a bill-of-quantities document back into flat, serializable
// form. Downstream consumers (estimators, controlling spreadsheets, ad-hoc
// analysis) want one row per position with the section context denormalized
// onto it, so Flatten walks the document tree in order and emits exactly
// that. The CSV, XLSX and XML writers all feed from the same flattened rows
// or from the document itself.
//
// All numeric values are carried as decimal strings. Prices that were never
// set stay empty rather than becoming "0".
//
// =============================================================================

package export

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hochbau-digital/gaeb-lv-tools/internal/document"
)

// Row is one flattened position, ready for serialization.
type Row struct {
	Phase         string
	Project       string
	ItemID        string
	OZ            string
	OZPath        string
	TopSection    string
	SubSection    string
	ShortText     string
	LongText      string
	Unit          string
	Quantity      string
	UnitPriceNet  string
	TotalPriceNet string
}

// Header lists the column names in serialization order.
var Header = []string{
	"phase", "project", "gaeb_id", "oz", "oz_path",
	"gewerk", "untergewerk", "short_text", "long_text",
	"unit", "quantity", "unit_price_net", "total_price_net",
}

// Values returns the row's fields in Header order.
func (r Row) Values() []string {
	return []string{
		r.Phase, r.Project, r.ItemID, r.OZ, r.OZPath,
		r.TopSection, r.SubSection, r.ShortText, r.LongText,
		r.Unit, r.Quantity, r.UnitPriceNet, r.TotalPriceNet,
	}
}

// Flatten emits one row per position in document order. Section names are
// denormalized from the first two title levels; deeper titles inherit them.
func Flatten(lv *document.LV) []Row {
	var rows []Row

	w := lv.Walk(lv.Root())
	for {
		id, ok := w.Next()
		if !ok {
			break
		}
		title := lv.Title(id)
		top, sub := sectionNames(lv, id)
		for _, pid := range title.Positions {
			pos := lv.Position(pid)
			rows = append(rows, Row{
				Phase:         string(lv.Phase),
				Project:       lv.Project,
				ItemID:        pos.ItemID,
				OZ:            pos.OZ,
				OZPath:        pos.Code.String(),
				TopSection:    top,
				SubSection:    sub,
				ShortText:     pos.ShortText,
				LongText:      strings.ReplaceAll(pos.LongText, "\n", " "),
				Unit:          string(pos.Unit),
				Quantity:      pos.Quantity.String(),
				UnitPriceNet:  nullString(pos.UnitPriceNet),
				TotalPriceNet: nullString(pos.TotalPriceNet()),
			})
		}
	}
	return rows
}

// nullString renders an optional decimal, keeping unset values empty.
func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// sectionNames climbs from a title to the root and returns the names of the
// first and second level below it. The root itself contributes nothing.
func sectionNames(lv *document.LV, id document.TitleID) (top, sub string) {
	var chain []string
	for id != lv.Root() && id != document.NoTitle {
		chain = append(chain, lv.Title(id).Name)
		id = lv.Title(id).Parent
	}
	// chain is leaf-first; the top section is the last entry.
	if n := len(chain); n > 0 {
		top = chain[n-1]
		if n > 1 {
			sub = chain[n-2]
		}
	}
	return top, sub
}
