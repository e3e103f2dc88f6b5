// =============================================================================
// GAEB LV Tools - Price Reconciliation Engine
// =============================================================================
//
// A priced issue (X84) re-states the line items of the quantity issue (X83)
// with price columns filled in - frequently with different text, and with
// order codes formatted differently (padded vs. unpadded, with or without the
// section prefix). The engine attaches the priced issue's prices to the
// quantity issue's positions without ever fabricating a false positive match.
//
// MATCHING PRECEDENCE (first match wins, per position):
//   1. Document-native line item identifier (GAEB Item ID).
//   2. The position's primary order key (reference number if the row carried
//      one, else its order code string), matched verbatim.
//   3. Last-segment heuristic: the final block of the order code, looked up
//      zero-padded to four digits first, then as written. This recovers
//      matches when the priced document numbers final-level items
//      independently of the section prefix ("01.01.0001" vs. "0001").
//
// An unmatched position is not an error; it simply keeps its unpriced state.
// The caller receives aggregate match counts, nothing else.
//
// =============================================================================

package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/hochbau-digital/gaeb-lv-tools/internal/document"
	"github.com/hochbau-digital/gaeb-lv-tools/internal/money"
	"github.com/hochbau-digital/gaeb-lv-tools/internal/ordercode"
)

// segmentPadWidth is the zero-pad width of the last-segment fallback lookup.
// Reference numbers in GAEB price tables are conventionally four digits.
const segmentPadWidth = 4

// Entry is one priced line: unit price and/or line total, either of which
// may be unset.
type Entry struct {
	UnitPrice decimal.NullDecimal
	Total     decimal.NullDecimal
}

// Index is the price lookup built from a priced document.
type Index struct {
	// byIdentifier maps the document-native item id to its prices.
	byIdentifier map[string]Entry

	// byOrderSegment maps the raw order key of the priced line (reference
	// number preferred, else order code) to its prices.
	byOrderSegment map[string]Entry
}

// Stats reports the outcome of a merge. Zero matches is a legal outcome, not
// an error.
type Stats struct {
	// Positions is the number of quantity-document positions visited.
	Positions int

	// ByIdentifier, ByOrderKey and BySegment count matches per rule.
	ByIdentifier int
	ByOrderKey   int
	BySegment    int

	// Unmatched positions keep their prior price fields untouched.
	Unmatched int
}

// Matched is the total number of positions that received a price source.
func (s Stats) Matched() int {
	return s.ByIdentifier + s.ByOrderKey + s.BySegment
}

// =============================================================================
// INDEX CONSTRUCTION
// =============================================================================

// BuildIndex walks the priced document's full position sequence and builds
// the two price mappings. For every line, whichever of unit price and total
// is missing is derived from the other and the quantity when the divisor is
// present and non-zero; lines where neither price is known contribute to
// neither mapping. The first occurrence of a key wins - later duplicates are
// deliberately ignored.
func BuildIndex(priced *document.LV) *Index {
	idx := &Index{
		byIdentifier:   make(map[string]Entry),
		byOrderSegment: make(map[string]Entry),
	}

	for _, pid := range priced.AllPositions() {
		pos := priced.Position(pid)

		up := pos.UnitPriceNet
		total := pos.TotalNet
		up, total = deriveMissing(up, total, pos.Quantity)

		if !up.Valid && !total.Valid {
			continue
		}

		entry := Entry{UnitPrice: up, Total: total}

		if pos.ItemID != "" {
			if _, seen := idx.byIdentifier[pos.ItemID]; !seen {
				idx.byIdentifier[pos.ItemID] = entry
			}
		}
		if key := pos.PrimaryOrderKey(); key != "" {
			if _, seen := idx.byOrderSegment[key]; !seen {
				idx.byOrderSegment[key] = entry
			}
		}
	}

	return idx
}

// deriveMissing fills in whichever of (unit price, total) is absent when the
// arithmetic is well-defined. A zero or unknown divisor leaves the value
// unset; no division fault may propagate from here.
func deriveMissing(up, total decimal.NullDecimal, qty decimal.Decimal) (decimal.NullDecimal, decimal.NullDecimal) {
	if !up.Valid && total.Valid && !qty.IsZero() {
		up = decimal.NullDecimal{Decimal: total.Decimal.Div(qty), Valid: true}
	}
	if !total.Valid && up.Valid && !qty.IsZero() {
		total = decimal.NullDecimal{Decimal: up.Decimal.Mul(qty), Valid: true}
	}
	return up, total
}

// Size reports how many distinct keys the index holds, for logging.
func (idx *Index) Size() (identifiers, orderSegments int) {
	return len(idx.byIdentifier), len(idx.byOrderSegment)
}

// =============================================================================
// MERGE
// =============================================================================

// Merge attaches prices from the index onto the quantity document's
// positions, following the precedence order documented above. Price fields
// are applied with coalesce semantics: a matched value wins, an absent
// matched value preserves whatever the position already had. The matched
// total is preferred; without one the total is recomputed from quantity and
// the resulting unit price when both are known.
func Merge(quantity *document.LV, idx *Index) Stats {
	var stats Stats

	for _, pid := range quantity.AllPositions() {
		pos := quantity.Position(pid)
		stats.Positions++

		entry, rule := idx.lookup(pos)
		if rule == matchNone {
			stats.Unmatched++
			continue
		}

		switch rule {
		case matchIdentifier:
			stats.ByIdentifier++
		case matchOrderKey:
			stats.ByOrderKey++
		case matchSegment:
			stats.BySegment++
		}

		apply(pos, entry)
	}

	return stats
}

type matchRule int

const (
	matchNone matchRule = iota
	matchIdentifier
	matchOrderKey
	matchSegment
)

func (idx *Index) lookup(pos *document.Position) (Entry, matchRule) {
	// 1. Document-native identifier.
	if pos.ItemID != "" {
		if entry, ok := idx.byIdentifier[pos.ItemID]; ok {
			return entry, matchIdentifier
		}
	}

	// 2. Primary order key, verbatim.
	key := pos.PrimaryOrderKey()
	if key != "" {
		if entry, ok := idx.byOrderSegment[key]; ok {
			return entry, matchOrderKey
		}

		// 3. Last segment of the key, padded first, then as written.
		padded, plain := ordercode.LastSegment(key, segmentPadWidth)
		if padded != key {
			if entry, ok := idx.byOrderSegment[padded]; ok {
				return entry, matchSegment
			}
		}
		if plain != key && plain != padded {
			if entry, ok := idx.byOrderSegment[plain]; ok {
				return entry, matchSegment
			}
		}
	}

	return Entry{}, matchNone
}

// apply writes a matched entry onto a position. Matched values win; absent
// ones leave the prior value in place.
func apply(pos *document.Position, entry Entry) {
	if entry.UnitPrice.Valid {
		pos.UnitPriceNet = entry.UnitPrice
	}

	switch {
	case entry.Total.Valid:
		pos.TotalNet = entry.Total
	case pos.UnitPriceNet.Valid:
		total := money.Round(pos.UnitPriceNet.Decimal.Mul(pos.Quantity))
		pos.TotalNet = decimal.NullDecimal{Decimal: total, Valid: true}
	}
}
