// =============================================================================
// GAEB LV Tools - Document Model
// =============================================================================
//
// This package holds the in-memory model of a bill of quantities (LV): a tree
// of section nodes (Title) carrying billable line items (Position). The tree
// is built once during ingestion, sorted once by order code, and is then read
// only by downstream consumers (reconciliation, export, persistence).
//
// OWNERSHIP:
//   All Title and Position records live in flat arenas owned by the LV.
//   Parent/child and title/position links are stable integer ids (TitleID,
//   PositionID) resolved through the LV, never pointers used as map keys.
//   This keeps the tree trivially serializable and makes node identity
//   explicit when mapping the tree to storage.
//
// ORDERING:
//   Children and positions of a title are kept in insertion order until
//   SortByOrderCode is called, which recursively re-orders every sibling list
//   by parsed order code. Sorting is stable and therefore idempotent.
//
// =============================================================================

package document

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hochbau-digital/gaeb-lv-tools/internal/money"
	"github.com/hochbau-digital/gaeb-lv-tools/internal/ordercode"
	"github.com/hochbau-digital/gaeb-lv-tools/internal/unit"
)

// Phase identifies which issue of the document this is: the unpriced
// quantity issue (X83) or the priced issue (X84) covering the same items.
type Phase string

const (
	// PhaseQuantity is the unpriced bill of quantities (GAEB X83).
	PhaseQuantity Phase = "X83"
	// PhasePriced is the priced issue (GAEB X84).
	PhasePriced Phase = "X84"
)

// TitleID indexes a Title in the LV's title arena.
type TitleID int

// PositionID indexes a Position in the LV's position arena.
type PositionID int

// NoTitle is the parent id of the root title.
const NoTitle TitleID = -1

// DefaultVATRate is the flat German VAT rate applied when a line carries none.
var DefaultVATRate = decimal.NewFromFloat(0.19)

// =============================================================================
// NODE TYPES
// =============================================================================

// Title is a section node grouping child sections and/or line items.
// A title may carry both children and positions at once.
type Title struct {
	// ID is the stable identity of this node, assigned at creation.
	ID uuid.UUID

	// Name is the case-preserved, whitespace-normalized display name.
	Name string

	// OZ is the section's order code string, empty for synthetic sections.
	OZ string

	// Code is the parsed form of OZ, the sole sibling sort key.
	Code ordercode.Code

	// Parent links back to the owning title, NoTitle for the root.
	Parent TitleID

	// Children and Positions are the ordered id lists owned by this title.
	Children  []TitleID
	Positions []PositionID
}

// Position is a billable line item.
type Position struct {
	ID uuid.UUID

	// OZ is the full order code string as written in the source document,
	// Code its parsed form.
	OZ   string
	Code ordercode.Code

	ShortText string
	LongText  string

	Unit     unit.Unit
	Quantity decimal.Decimal

	// UnitPriceNet is unset until the priced issue has been reconciled in.
	UnitPriceNet decimal.NullDecimal

	// TotalNet is an explicitly supplied total (from a priced line). When it
	// is unset the total is derived from unit price and quantity instead.
	TotalNet decimal.NullDecimal

	// VATRate is a decimal fraction, e.g. 0.19.
	VATRate decimal.Decimal

	// ItemID is the document-native line item identifier (GAEB Item ID),
	// distinct from the order code. Empty when the source carries none.
	ItemID string

	// RefNo is the reference-number field some documents carry alongside the
	// order code (RNoPart/RNo). It is the primary key for order-based price
	// matching; empty falls back to OZ.
	RefNo string
}

// TotalPriceNet returns the line's net total: the stored total when one was
// supplied, else round(unit price x quantity) when the unit price is known.
// The result is unset when neither is available - an unpriced line has no
// total, it is not zero.
func (p *Position) TotalPriceNet() decimal.NullDecimal {
	if p.TotalNet.Valid {
		return money.RoundNull(p.TotalNet)
	}
	if !p.UnitPriceNet.Valid {
		return decimal.NullDecimal{}
	}
	total := money.Round(p.UnitPriceNet.Decimal.Mul(p.Quantity))
	return decimal.NullDecimal{Decimal: total, Valid: true}
}

// TotalPriceGross returns the net total plus VAT, unset when the net total is.
func (p *Position) TotalPriceGross() decimal.NullDecimal {
	net := p.TotalPriceNet()
	if !net.Valid {
		return decimal.NullDecimal{}
	}
	factor := decimal.NewFromInt(1).Add(p.VATRate)
	gross := money.Round(net.Decimal.Mul(factor))
	return decimal.NullDecimal{Decimal: gross, Valid: true}
}

// PrimaryOrderKey is the key used for order-based price matching: the
// reference number when the source row carried one, else the order code.
func (p *Position) PrimaryOrderKey() string {
	if p.RefNo != "" {
		return p.RefNo
	}
	return p.OZ
}

// =============================================================================
// LV DOCUMENT
// =============================================================================

// LV is one issue of a bill-of-quantities document. It exclusively owns its
// node arenas and, through them, the whole tree under Root.
type LV struct {
	ID        uuid.UUID
	Phase     Phase
	Project   string
	Currency  string
	CreatedAt time.Time

	// DefaultVATRate applies to positions added without an explicit rate.
	DefaultVATRate decimal.Decimal

	// Meta carries free-form provenance, e.g. the source file name.
	Meta map[string]string

	titles    []Title
	positions []Position
	root      TitleID
}

// New creates an empty LV with an anonymous root title.
func New(phase Phase) *LV {
	lv := &LV{
		ID:             uuid.New(),
		Phase:          phase,
		Currency:       "EUR",
		CreatedAt:      time.Now().UTC(),
		DefaultVATRate: DefaultVATRate,
		Meta:           make(map[string]string),
	}
	lv.root = lv.newTitle("LV", "", NoTitle)
	return lv
}

// Root returns the id of the root title.
func (lv *LV) Root() TitleID { return lv.root }

// Title resolves a title id. The pointer stays valid until the next AddTitle.
func (lv *LV) Title(id TitleID) *Title { return &lv.titles[id] }

// Position resolves a position id. The pointer stays valid until the next
// AddPosition.
func (lv *LV) Position(id PositionID) *Position { return &lv.positions[id] }

// TitleCount reports the number of titles in the arena, root included.
func (lv *LV) TitleCount() int { return len(lv.titles) }

// PositionCount reports the number of positions in the arena.
func (lv *LV) PositionCount() int { return len(lv.positions) }

func (lv *LV) newTitle(name, oz string, parent TitleID) TitleID {
	id := TitleID(len(lv.titles))
	lv.titles = append(lv.titles, Title{
		ID:     uuid.New(),
		Name:   name,
		OZ:     oz,
		Code:   ordercode.Parse(oz),
		Parent: parent,
	})
	return id
}

// AddTitle appends a new child section to parent and returns its id.
func (lv *LV) AddTitle(parent TitleID, name, oz string) TitleID {
	id := lv.newTitle(name, oz, parent)
	p := lv.Title(parent)
	p.Children = append(p.Children, id)
	return id
}

// SetTitleOZ assigns a section's order number block and reparses its code.
func (lv *LV) SetTitleOZ(id TitleID, oz string) {
	t := lv.Title(id)
	t.OZ = oz
	t.Code = ordercode.Parse(oz)
}

// PositionSpec carries the fields of a new position. Unset VATRate falls back
// to the document default; everything else is taken as given - callers are
// expected to have run raw extractor values through the ingestion defaults
// first, the model does not guess.
type PositionSpec struct {
	OZ            string
	ShortText     string
	LongText      string
	Unit          unit.Unit
	Quantity      decimal.Decimal
	UnitPriceNet  decimal.NullDecimal
	TotalPriceNet decimal.NullDecimal
	VATRate       decimal.NullDecimal
	ItemID        string
	RefNo         string
}

// AddPosition appends a new line item under parent and returns its id.
func (lv *LV) AddPosition(parent TitleID, spec PositionSpec) PositionID {
	vat := lv.DefaultVATRate
	if spec.VATRate.Valid {
		vat = spec.VATRate.Decimal
	}

	id := PositionID(len(lv.positions))
	lv.positions = append(lv.positions, Position{
		ID:           uuid.New(),
		OZ:           spec.OZ,
		Code:         ordercode.Parse(spec.OZ),
		ShortText:    spec.ShortText,
		LongText:     spec.LongText,
		Unit:         spec.Unit,
		Quantity:     spec.Quantity,
		UnitPriceNet: spec.UnitPriceNet,
		TotalNet:     spec.TotalPriceNet,
		VATRate:      vat,
		ItemID:       spec.ItemID,
		RefNo:        spec.RefNo,
	})
	t := lv.Title(parent)
	t.Positions = append(t.Positions, id)
	return id
}

// =============================================================================
// SORTING & AGGREGATION
// =============================================================================

// SortByOrderCode recursively re-orders every title's children and positions
// by their parsed order codes. Run this once after ingestion; ordering-
// sensitive consumers (exports, reconciliation reports) rely on it. The sort
// is stable, so applying it to an already sorted tree changes nothing.
func (lv *LV) SortByOrderCode() {
	for i := range lv.titles {
		t := &lv.titles[i]
		slices.SortStableFunc(t.Children, func(a, b TitleID) int {
			return ordercode.Compare(lv.titles[a].Code, lv.titles[b].Code)
		})
		slices.SortStableFunc(t.Positions, func(a, b PositionID) int {
			return ordercode.Compare(lv.positions[a].Code, lv.positions[b].Code)
		})
	}
}

// SumNet returns the half-up-rounded sum of the net totals of every position
// under the given title, itself included. Positions without a known price do
// not contribute; they are skipped, not counted as zero.
func (lv *LV) SumNet(id TitleID) decimal.Decimal {
	total := decimal.Zero
	for _, pid := range lv.PositionsUnder(id) {
		if net := lv.Position(pid).TotalPriceNet(); net.Valid {
			total = total.Add(net.Decimal)
		}
	}
	return money.Round(total)
}

// SumGross is SumNet over the gross totals.
func (lv *LV) SumGross(id TitleID) decimal.Decimal {
	total := decimal.Zero
	for _, pid := range lv.PositionsUnder(id) {
		if gross := lv.Position(pid).TotalPriceGross(); gross.Valid {
			total = total.Add(gross.Decimal)
		}
	}
	return money.Round(total)
}
