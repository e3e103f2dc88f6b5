package store

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hochbau-digital/gaeb-lv-tools/internal/document"
	"github.com/hochbau-digital/gaeb-lv-tools/internal/unit"
)

func setupTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&LV{}, &Title{}, &Position{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nd(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

func sampleLV() *document.LV {
	lv := document.New(document.PhasePriced)
	lv.Project = "Neubau Halle 7"
	lv.Meta = map[string]string{"source": "angebot.x84"}

	rohbau := lv.AddTitle(lv.Root(), "Rohbau", "01")
	erd := lv.AddTitle(rohbau, "Erdarbeiten", "01")

	lv.AddPosition(erd, document.PositionSpec{
		OZ:           "01.01.0010",
		ShortText:    "Boden abtragen",
		Unit:         unit.MTQ,
		Quantity:     dec("12.5"),
		UnitPriceNet: nd("4.20"),
		ItemID:       "a3f0",
	})
	lv.AddPosition(erd, document.PositionSpec{
		OZ:        "01.01.0020",
		ShortText: "Boden entsorgen",
		Unit:      unit.MTQ,
		Quantity:  dec("12.5"),
	})
	lv.SortByOrderCode()
	return lv
}

func TestSaveLV(t *testing.T) {
	db := setupTestDB(t, t.Name())

	result, err := SaveLV(db, sampleLV(), "upload-42")
	if err != nil {
		t.Fatalf("SaveLV: %v", err)
	}
	if result.LVID == 0 {
		t.Fatalf("LVID not set")
	}
	if result.Titles != 2 || result.Positions != 2 {
		t.Errorf("counts = %d titles / %d positions, want 2/2", result.Titles, result.Positions)
	}

	var lvRow LV
	if err := db.First(&lvRow, result.LVID).Error; err != nil {
		t.Fatalf("load lv: %v", err)
	}
	if lvRow.Phase != "X84" || lvRow.ProjectName != "Neubau Halle 7" {
		t.Errorf("lv row = %+v", lvRow)
	}
	if lvRow.ExternalRef != "upload-42" {
		t.Errorf("external ref = %q", lvRow.ExternalRef)
	}
	if lvRow.Meta == "" {
		t.Errorf("meta not serialized")
	}
}

func TestSaveLVTitleTree(t *testing.T) {
	db := setupTestDB(t, t.Name())

	result, err := SaveLV(db, sampleLV(), "")
	if err != nil {
		t.Fatalf("SaveLV: %v", err)
	}

	var titles []Title
	if err := db.Where("lv_id = ?", result.LVID).Order("id").Find(&titles).Error; err != nil {
		t.Fatalf("load titles: %v", err)
	}
	if len(titles) != 2 {
		t.Fatalf("got %d titles, want 2", len(titles))
	}

	rohbau, erd := titles[0], titles[1]
	if rohbau.Name != "Rohbau" || rohbau.Level != 1 || rohbau.ParentID != nil {
		t.Errorf("top title = %+v", rohbau)
	}
	if erd.Name != "Erdarbeiten" || erd.Level != 2 {
		t.Errorf("sub title = %+v", erd)
	}
	if erd.ParentID == nil || *erd.ParentID != rohbau.ID {
		t.Errorf("sub title parent = %v, want %d", erd.ParentID, rohbau.ID)
	}
	if erd.GewerkName != "Rohbau" || erd.UntergewerkName != "Erdarbeiten" {
		t.Errorf("denormalized names = %q/%q", erd.GewerkName, erd.UntergewerkName)
	}
}

func TestSaveLVPositions(t *testing.T) {
	db := setupTestDB(t, t.Name())

	result, err := SaveLV(db, sampleLV(), "")
	if err != nil {
		t.Fatalf("SaveLV: %v", err)
	}

	var positions []Position
	if err := db.Where("lv_id = ?", result.LVID).Order("oz").Find(&positions).Error; err != nil {
		t.Fatalf("load positions: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("got %d positions, want 2", len(positions))
	}

	p := positions[0]
	if p.OZ != "01.01.0010" || p.GaebID != "a3f0" {
		t.Errorf("position = %+v", p)
	}
	if !p.Quantity.Equal(dec("12.5")) {
		t.Errorf("quantity = %s", p.Quantity)
	}
	if !p.UnitPriceNet.Valid || !p.UnitPriceNet.Decimal.Equal(dec("4.20")) {
		t.Errorf("unit price = %+v", p.UnitPriceNet)
	}
	// Derived at save time: 4.20 * 12.5.
	if !p.TotalPriceNet.Valid || !p.TotalPriceNet.Decimal.Equal(dec("52.50")) {
		t.Errorf("total = %+v", p.TotalPriceNet)
	}
	if p.GewerkName != "Rohbau" || p.UntergewerkName != "Erdarbeiten" {
		t.Errorf("denormalized names = %q/%q", p.GewerkName, p.UntergewerkName)
	}

	if positions[1].UnitPriceNet.Valid || positions[1].TotalPriceNet.Valid {
		t.Errorf("unpriced position came back priced: %+v", positions[1])
	}

	var erd Title
	if err := db.Where("lv_id = ? AND name = ?", result.LVID, "Erdarbeiten").First(&erd).Error; err != nil {
		t.Fatalf("load title: %v", err)
	}
	if p.TitleID == nil || *p.TitleID != erd.ID {
		t.Errorf("title link = %v, want %d", p.TitleID, erd.ID)
	}
}

func TestSaveLVRootLevelPosition(t *testing.T) {
	db := setupTestDB(t, t.Name())

	// The model allows positions directly under the root; they must not
	// point at a title row that was never stored.
	lv := document.New(document.PhaseQuantity)
	lv.AddPosition(lv.Root(), document.PositionSpec{
		OZ:        "0001",
		ShortText: "Baustelleneinrichtung",
		Unit:      unit.C62,
		Quantity:  dec("1"),
	})

	result, err := SaveLV(db, lv, "")
	if err != nil {
		t.Fatalf("SaveLV: %v", err)
	}
	if result.Titles != 0 || result.Positions != 1 {
		t.Errorf("counts = %d titles / %d positions, want 0/1", result.Titles, result.Positions)
	}

	var p Position
	if err := db.Where("lv_id = ?", result.LVID).First(&p).Error; err != nil {
		t.Fatalf("load position: %v", err)
	}
	if p.TitleID != nil {
		t.Errorf("root-level position title link = %d, want null", *p.TitleID)
	}
}

func TestNormalizeTarget(t *testing.T) {
	cases := []struct {
		in   string
		want Target
		ok   bool
	}{
		{"", Development, true},
		{"dev", Development, true},
		{"development", Development, true},
		{"PROD", Production, true},
		{"production", Production, true},
		{"staging", "", false},
	}
	for _, c := range cases {
		got, err := NormalizeTarget(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Errorf("NormalizeTarget(%q) = %v, %v; want %v", c.in, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Errorf("NormalizeTarget(%q) should fail", c.in)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv(EnvTarget, "dev")
	t.Setenv(EnvDSNDevelopment, "lv.db")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Target != Development || cfg.DSN != "lv.db" {
		t.Errorf("cfg = %+v", cfg)
	}

	t.Setenv(EnvTarget, "prod")
	if _, err := LoadConfig(); err == nil {
		t.Errorf("expected error when production DSN is missing")
	}
}

func TestIsPostgresDSN(t *testing.T) {
	if !isPostgresDSN("postgres://user:pw@localhost/gaeb") {
		t.Errorf("postgres URL not recognized")
	}
	if !isPostgresDSN("host=localhost user=gaeb dbname=gaeb") {
		t.Errorf("keyword DSN not recognized")
	}
	if isPostgresDSN("imports.db") || isPostgresDSN("sqlite://imports.db") {
		t.Errorf("sqlite path misclassified")
	}
}
