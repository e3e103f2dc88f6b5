// =============================================================================
// GAEB LV Tools - Tree Traversal
// =============================================================================
//
// Pre-order traversal over the title tree, implemented iteratively with an
// explicit stack. The ordering guarantee is part of the contract: a parent is
// produced before its children, and children appear in their current sibling
// order (insertion order, or order-code order after SortByOrderCode).
//
// =============================================================================

package document

import "github.com/hochbau-digital/gaeb-lv-tools/internal/ordercode"

// Walker produces the titles of a subtree in pre-order. It is a finite,
// restartable producer: create a fresh one with Walk to traverse again.
//
//	w := lv.Walk(lv.Root())
//	for id, ok := w.Next(); ok; id, ok = w.Next() {
//	    t := lv.Title(id)
//	    ...
//	}
type Walker struct {
	lv    *LV
	stack []TitleID
}

// Walk returns a new Walker over the subtree rooted at start.
func (lv *LV) Walk(start TitleID) *Walker {
	return &Walker{lv: lv, stack: []TitleID{start}}
}

// Next pops the next title in pre-order. The second result is false once the
// subtree is exhausted.
func (w *Walker) Next() (TitleID, bool) {
	if len(w.stack) == 0 {
		return NoTitle, false
	}
	id := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]

	// Push children reversed so the first child is popped first.
	children := w.lv.Title(id).Children
	for i := len(children) - 1; i >= 0; i-- {
		w.stack = append(w.stack, children[i])
	}
	return id, true
}

// PositionsUnder collects the position ids of the subtree rooted at start in
// document order: each title's positions in sibling order, titles in
// pre-order.
func (lv *LV) PositionsUnder(start TitleID) []PositionID {
	var out []PositionID
	w := lv.Walk(start)
	for id, ok := w.Next(); ok; id, ok = w.Next() {
		out = append(out, lv.Title(id).Positions...)
	}
	return out
}

// AllPositions is PositionsUnder(Root).
func (lv *LV) AllPositions() []PositionID {
	return lv.PositionsUnder(lv.root)
}

// FindTitleByCode returns the first title in pre-order whose parsed order
// code equals the given code string, or NoTitle.
func (lv *LV) FindTitleByCode(code string) TitleID {
	target := ordercode.Parse(code)
	if len(target) == 0 {
		return NoTitle
	}
	w := lv.Walk(lv.root)
	for id, ok := w.Next(); ok; id, ok = w.Next() {
		if ordercode.Compare(lv.Title(id).Code, target) == 0 {
			return id
		}
	}
	return NoTitle
}
