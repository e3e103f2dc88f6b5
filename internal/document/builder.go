// =============================================================================
// GAEB LV Tools - Tree Builder
// =============================================================================
//
// The builder turns the flat, ordered row sequence delivered by an extractor
// (GAEB XML, CSV or XLSX) into the two-level section hierarchy of an LV:
//
//   root -> Gewerk (top section) -> Untergewerk (sub section) -> positions
//
// Sections are created on first encounter and reused on repeat; section
// identity is the case-preserved, whitespace-normalized display name pair.
// Rows without an order code are headings or remarks, not billable items, and
// are skipped. After all rows are consumed the tree is sorted once by order
// code.
//
// The Row type is the single typed contract between extractors and the core.
// All "read whichever field exists" fallbacks live in the extractors; by the
// time a Row reaches the builder every field is populated or deliberately
// empty, and BuildOptions supplies the remaining defaults exactly once.
//
// =============================================================================

package document

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hochbau-digital/gaeb-lv-tools/internal/unit"
)

// Placeholder section names for rows that carry no Gewerk/Untergewerk label,
// mirroring the labels used in legacy GAEB imports.
const (
	UnnamedTopSection = "(Gewerklos)"
	UnnamedSubSection = "(Untergewerklos)"
)

// Row is the strongly typed record an extractor delivers per source line.
type Row struct {
	// TopSection and SubSection are the section labels (Gewerk/Untergewerk).
	TopSection string
	SubSection string

	// OZ is the order code string. Rows with an empty OZ are skipped.
	OZ string

	// TopSectionOZ and SubSectionOZ are the order number blocks of the
	// enclosing sections (category RNoPart). Extractors that do not see
	// them leave both empty; the builder then derives them from the
	// leading OZ segments.
	TopSectionOZ string
	SubSectionOZ string

	ShortText string
	LongText  string

	// Quantity is the exact decimal quantity; extractors map empty input to
	// zero, never to an error.
	Quantity decimal.Decimal

	// UnitLabel is the raw unit text from the source (QU field).
	UnitLabel string

	// ItemID is the document-native line identifier, when present.
	ItemID string

	// RefNo is the reference number (RNoPart/RNo) used for order-segment
	// price matching, when present.
	RefNo string

	// UnitPriceNet and TotalPriceNet are populated for priced documents only.
	UnitPriceNet  decimal.NullDecimal
	TotalPriceNet decimal.NullDecimal
}

// BuildOptions configures a build. Zero values fall back to sensible
// defaults; withDefaults is applied exactly once at the start of Build so the
// rest of the pipeline never re-checks.
type BuildOptions struct {
	Phase    Phase
	Project  string
	Currency string

	// DefaultUnit applies when a row's unit label cannot be resolved.
	DefaultUnit unit.Unit

	// DefaultVATRate is the flat VAT fraction for all positions.
	DefaultVATRate decimal.NullDecimal

	// Meta is merged into the document's provenance mapping.
	Meta map[string]string
}

func (o BuildOptions) withDefaults() BuildOptions {
	if o.Phase == "" {
		o.Phase = PhaseQuantity
	}
	if o.Currency == "" {
		o.Currency = "EUR"
	}
	if o.DefaultUnit == "" {
		o.DefaultUnit = unit.C62
	}
	if !o.DefaultVATRate.Valid {
		o.DefaultVATRate = decimal.NullDecimal{Decimal: DefaultVATRate, Valid: true}
	}
	return o
}

// Build constructs a sorted LV from an extractor's row sequence.
func Build(rows []Row, opts BuildOptions) *LV {
	opts = opts.withDefaults()

	lv := New(opts.Phase)
	lv.Currency = opts.Currency
	lv.DefaultVATRate = opts.DefaultVATRate.Decimal
	for k, v := range opts.Meta {
		lv.Meta[k] = v
	}
	if project := CleanText(opts.Project); project != "" {
		lv.Project = project
		lv.Title(lv.Root()).Name = project
	}

	// Section cache: (top, sub) display name pair -> sub-section title.
	type sectionKey struct{ top, sub string }
	sections := make(map[sectionKey]TitleID)

	// A section's order block comes from the first row that carries one.
	setSectionOZ := func(id TitleID, oz string) {
		if oz != "" && lv.Title(id).OZ == "" {
			lv.SetTitleOZ(id, oz)
		}
	}

	ensureSection := func(top, sub, topOZ, subOZ string) TitleID {
		key := sectionKey{top, sub}
		if id, ok := sections[key]; ok {
			setSectionOZ(lv.Title(id).Parent, topOZ)
			setSectionOZ(id, subOZ)
			return id
		}

		// Level 1: reuse an existing top section with the same name.
		var t1 TitleID = NoTitle
		for _, cid := range lv.Title(lv.Root()).Children {
			if lv.Title(cid).Name == top {
				t1 = cid
				break
			}
		}
		if t1 == NoTitle {
			name := top
			if name == "" {
				name = UnnamedTopSection
			}
			t1 = lv.AddTitle(lv.Root(), name, topOZ)
		} else {
			setSectionOZ(t1, topOZ)
		}

		// Level 2 under it.
		var t2 TitleID = NoTitle
		for _, cid := range lv.Title(t1).Children {
			if lv.Title(cid).Name == sub {
				t2 = cid
				break
			}
		}
		if t2 == NoTitle {
			name := sub
			if name == "" {
				name = UnnamedSubSection
			}
			t2 = lv.AddTitle(t1, name, subOZ)
		} else {
			setSectionOZ(t2, subOZ)
		}

		sections[key] = t2
		return t2
	}

	for _, row := range rows {
		oz := CleanText(row.OZ)
		if oz == "" {
			continue
		}

		topOZ, subOZ := sectionCodes(row)
		parent := ensureSection(CleanText(row.TopSection), CleanText(row.SubSection), topOZ, subOZ)
		lv.AddPosition(parent, PositionSpec{
			OZ:            oz,
			ShortText:     CleanText(row.ShortText),
			LongText:      CleanText(row.LongText),
			Unit:          unit.Normalize(row.UnitLabel, opts.DefaultUnit),
			Quantity:      row.Quantity,
			UnitPriceNet:  row.UnitPriceNet,
			TotalPriceNet: row.TotalPriceNet,
			ItemID:        CleanText(row.ItemID),
			RefNo:         CleanText(row.RefNo),
		})
	}

	lv.SortByOrderCode()
	return lv
}

// sectionCodes yields the order number blocks of a row's sections: the
// explicit ones when the extractor saw them, otherwise the leading segments
// of the position's own order code.
func sectionCodes(row Row) (topOZ, subOZ string) {
	topOZ = CleanText(row.TopSectionOZ)
	subOZ = CleanText(row.SubSectionOZ)
	if topOZ != "" || subOZ != "" {
		return topOZ, subOZ
	}
	segments := strings.Split(CleanText(row.OZ), ".")
	if len(segments) >= 2 {
		topOZ = segments[0]
	}
	if len(segments) >= 3 {
		subOZ = segments[1]
	}
	return topOZ, subOZ
}

// CleanText normalizes whitespace: narrow/no-break spaces become plain ones
// and runs of whitespace collapse to a single space. Case is preserved.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}

// ParseDecimal converts a numeric source field to an exact decimal. German
// decimal commas are accepted; an empty or unparseable value is unset, never
// an error.
func ParseDecimal(s string) decimal.NullDecimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// ParseQuantity is ParseDecimal with the quantity rule from the extractor
// contract: empty input is zero.
func ParseQuantity(s string) decimal.Decimal {
	if d := ParseDecimal(s); d.Valid {
		return d.Decimal
	}
	return decimal.Zero
}
