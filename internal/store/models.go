// =============================================================================
// GAEB LV Tools - Import Store
// =============================================================================
//
// Relational persistence for ingested documents. The schema keeps the title
// tree (self-referencing parent key) and denormalizes the first two section
// levels onto both titles and positions so downstream queries can filter by
// trade without walking the tree.
//
// Numeric columns hold exact decimals. SQLite stores them as TEXT through
// the same value interface, which is fine for the development target.
//
// =============================================================================

package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// LV is one ingested document.
type LV struct {
	ID          uint   `gorm:"primaryKey"`
	Phase       string `gorm:"size:3;not null"`
	ProjectName string
	Currency    string `gorm:"size:3"`

	// ExternalRef links the import to an upload, client or case number.
	ExternalRef string `gorm:"index"`

	// Meta carries source details as a JSON object, serialized by SaveLV.
	Meta string

	CreatedAt time.Time

	Titles    []Title    `gorm:"constraint:OnDelete:CASCADE"`
	Positions []Position `gorm:"constraint:OnDelete:CASCADE"`
}

// Title is one section of the document tree.
type Title struct {
	ID   uint `gorm:"primaryKey"`
	LVID uint `gorm:"not null;index"`

	ParentID *uint `gorm:"index"`

	Name  string `gorm:"not null"`
	Level int    `gorm:"not null;default:1"`

	// Denormalized for fast filters.
	GewerkName      string
	UntergewerkName string

	// SortIndex is the section's order code block, e.g. "01".
	SortIndex string
}

// Position is one line item.
type Position struct {
	ID   uint `gorm:"primaryKey"`
	LVID uint `gorm:"not null;index"`

	// TitleID is null for positions attached directly to the document root.
	TitleID *uint `gorm:"index"`

	OZ     string `gorm:"not null;index"`
	GaebID string `gorm:"index"`
	RefNo  string

	ShortText string `gorm:"not null"`
	LongText  string

	Quantity decimal.Decimal `gorm:"type:numeric(18,6);not null"`
	Unit     string          `gorm:"size:8;not null"`

	UnitPriceNet  decimal.NullDecimal `gorm:"type:numeric(18,6)"`
	TotalPriceNet decimal.NullDecimal `gorm:"type:numeric(18,2)"`

	VATRate decimal.Decimal `gorm:"type:numeric(5,2)"`

	GewerkName      string
	UntergewerkName string

	CreatedAt time.Time
}
