package document

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/hochbau-digital/gaeb-lv-tools/internal/unit"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func nd(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

func TestNewLVHasAnonymousRoot(t *testing.T) {
	lv := New(PhaseQuantity)

	if lv.TitleCount() != 1 {
		t.Fatalf("TitleCount = %d, want 1", lv.TitleCount())
	}
	root := lv.Title(lv.Root())
	if root.Parent != NoTitle {
		t.Errorf("root parent = %v, want NoTitle", root.Parent)
	}
	if lv.Currency != "EUR" {
		t.Errorf("Currency = %q, want EUR", lv.Currency)
	}
	if !lv.DefaultVATRate.Equal(dec("0.19")) {
		t.Errorf("DefaultVATRate = %s, want 0.19", lv.DefaultVATRate)
	}
}

func TestAddPositionAppliesDefaultVAT(t *testing.T) {
	lv := New(PhaseQuantity)
	pid := lv.AddPosition(lv.Root(), PositionSpec{OZ: "1.1", Quantity: dec("1")})
	if got := lv.Position(pid).VATRate; !got.Equal(dec("0.19")) {
		t.Errorf("VATRate = %s, want document default 0.19", got)
	}

	pid = lv.AddPosition(lv.Root(), PositionSpec{OZ: "1.2", VATRate: nd("0.07")})
	if got := lv.Position(pid).VATRate; !got.Equal(dec("0.07")) {
		t.Errorf("VATRate = %s, want explicit 0.07", got)
	}
}

func TestTotalPriceDerivation(t *testing.T) {
	p := Position{Quantity: dec("3"), VATRate: dec("0.19")}

	if p.TotalPriceNet().Valid {
		t.Fatal("total of unpriced position should be unset")
	}
	if p.TotalPriceGross().Valid {
		t.Fatal("gross of unpriced position should be unset")
	}

	p.UnitPriceNet = nd("10.335")
	net := p.TotalPriceNet()
	if !net.Valid || !net.Decimal.Equal(dec("31.01")) { // 31.005 rounds half up
		t.Fatalf("TotalPriceNet = %v, want 31.01", net)
	}
	gross := p.TotalPriceGross()
	if !gross.Valid || !gross.Decimal.Equal(dec("36.90")) { // 31.01 * 1.19 = 36.9019
		t.Fatalf("TotalPriceGross = %v, want 36.90", gross)
	}

	// An explicit total wins over the derived one.
	p.TotalNet = nd("100")
	if got := p.TotalPriceNet(); !got.Decimal.Equal(dec("100")) {
		t.Fatalf("TotalPriceNet with override = %v, want 100", got)
	}
}

func TestPrimaryOrderKey(t *testing.T) {
	p := Position{OZ: "01.01.0001"}
	if got := p.PrimaryOrderKey(); got != "01.01.0001" {
		t.Errorf("PrimaryOrderKey = %q, want OZ fallback", got)
	}
	p.RefNo = "0001"
	if got := p.PrimaryOrderKey(); got != "0001" {
		t.Errorf("PrimaryOrderKey = %q, want RefNo", got)
	}
}

func TestSortByOrderCodeRecursiveAndIdempotent(t *testing.T) {
	lv := New(PhaseQuantity)
	a := lv.AddTitle(lv.Root(), "B", "2")
	b := lv.AddTitle(lv.Root(), "A", "1")
	lv.AddPosition(a, PositionSpec{OZ: "2.10"})
	lv.AddPosition(a, PositionSpec{OZ: "2.9"})
	lv.AddPosition(b, PositionSpec{OZ: "1.1"})

	lv.SortByOrderCode()

	snapshot := func() []string {
		var out []string
		w := lv.Walk(lv.Root())
		for id, ok := w.Next(); ok; id, ok = w.Next() {
			out = append(out, lv.Title(id).Name)
			for _, pid := range lv.Title(id).Positions {
				out = append(out, lv.Position(pid).OZ)
			}
		}
		return out
	}

	first := snapshot()
	want := []string{"LV", "A", "1.1", "B", "2.9", "2.10"}
	if len(first) != len(want) {
		t.Fatalf("traversal = %v, want %v", first, want)
	}
	for i := range want {
		if first[i] != want[i] {
			t.Fatalf("traversal[%d] = %q, want %q (full: %v)", i, first[i], want[i], first)
		}
	}

	// Sorting again must not change the structure.
	lv.SortByOrderCode()
	second := snapshot()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("sort not idempotent at %d: %q != %q", i, first[i], second[i])
		}
	}
}

func TestWalkerIsRestartable(t *testing.T) {
	lv := New(PhaseQuantity)
	lv.AddTitle(lv.Root(), "A", "1")
	lv.AddTitle(lv.Root(), "B", "2")

	count := func() int {
		n := 0
		w := lv.Walk(lv.Root())
		for _, ok := w.Next(); ok; _, ok = w.Next() {
			n++
		}
		return n
	}

	if first, second := count(), count(); first != 3 || second != 3 {
		t.Fatalf("walker counts = %d, %d, want 3, 3", first, second)
	}
}

func TestSumNetSkipsUnpricedPositions(t *testing.T) {
	lv := New(PhaseQuantity)
	sec := lv.AddTitle(lv.Root(), "Rohbau", "1")
	lv.AddPosition(sec, PositionSpec{OZ: "1.1", Quantity: dec("2"), UnitPriceNet: nd("10.00")})
	lv.AddPosition(sec, PositionSpec{OZ: "1.2", Quantity: dec("1")}) // no price

	if got := lv.SumNet(sec); !got.Equal(dec("20.00")) {
		t.Errorf("SumNet = %s, want 20.00 (unpriced position skipped, not zeroed)", got)
	}
	if got := lv.SumGross(sec); !got.Equal(dec("23.80")) {
		t.Errorf("SumGross = %s, want 23.80", got)
	}

	// Root aggregates the whole tree.
	if got := lv.SumNet(lv.Root()); !got.Equal(dec("20.00")) {
		t.Errorf("SumNet(root) = %s, want 20.00", got)
	}
}

func TestFindTitleByCode(t *testing.T) {
	lv := New(PhaseQuantity)
	sec := lv.AddTitle(lv.Root(), "Rohbau", "01")
	sub := lv.AddTitle(sec, "Beton", "01.02")

	if got := lv.FindTitleByCode("1.2"); got != sub {
		t.Errorf("FindTitleByCode(1.2) = %v, want %v", got, sub)
	}
	if got := lv.FindTitleByCode("9.9"); got != NoTitle {
		t.Errorf("FindTitleByCode(9.9) = %v, want NoTitle", got)
	}
	if got := lv.FindTitleByCode(""); got != NoTitle {
		t.Errorf("FindTitleByCode(\"\") = %v, want NoTitle", got)
	}
}

func TestUnitFieldDefaults(t *testing.T) {
	lv := New(PhaseQuantity)
	pid := lv.AddPosition(lv.Root(), PositionSpec{OZ: "1", Unit: unit.MTK})
	if lv.Position(pid).Unit != unit.MTK {
		t.Errorf("Unit = %v, want MTK", lv.Position(pid).Unit)
	}
}
