package store

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/hochbau-digital/gaeb-lv-tools/internal/document"
)

// ImportResult reports what one SaveLV call wrote.
type ImportResult struct {
	LVID      uint
	Titles    int
	Positions int
}

// SaveLV persists a document in one transaction: the LV row first, then the
// title tree in walk order so every parent exists before its children, then
// the positions. The document itself is not modified.
func SaveLV(db *gorm.DB, lv *document.LV, externalRef string) (*ImportResult, error) {
	result := &ImportResult{}

	err := db.Transaction(func(tx *gorm.DB) error {
		meta := ""
		if len(lv.Meta) > 0 {
			raw, err := json.Marshal(lv.Meta)
			if err != nil {
				return fmt.Errorf("serializing meta: %w", err)
			}
			meta = string(raw)
		}

		row := LV{
			Phase:       string(lv.Phase),
			ProjectName: lv.Project,
			Currency:    lv.Currency,
			ExternalRef: externalRef,
			Meta:        meta,
			CreatedAt:   lv.CreatedAt,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("inserting lv: %w", err)
		}
		result.LVID = row.ID

		// Walk order guarantees parents precede children.
		ids := make(map[document.TitleID]uint)
		levels := make(map[document.TitleID]int)

		w := lv.Walk(lv.Root())
		for {
			id, ok := w.Next()
			if !ok {
				break
			}
			title := lv.Title(id)

			if id == lv.Root() {
				levels[id] = 0
				continue
			}
			levels[id] = levels[title.Parent] + 1
			gewerk, untergewerk := sectionNames(lv, id)

			rec := Title{
				LVID:            row.ID,
				Name:            title.Name,
				Level:           levels[id],
				GewerkName:      gewerk,
				UntergewerkName: untergewerk,
				SortIndex:       title.OZ,
			}
			if parentID, ok := ids[title.Parent]; ok {
				rec.ParentID = &parentID
			}
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("inserting title %q: %w", title.Name, err)
			}
			ids[id] = rec.ID
			result.Titles++
		}

		w = lv.Walk(lv.Root())
		for {
			id, ok := w.Next()
			if !ok {
				break
			}
			title := lv.Title(id)
			gewerk, untergewerk := sectionNames(lv, id)
			for _, pid := range title.Positions {
				pos := lv.Position(pid)
				rec := Position{
					LVID:            row.ID,
					OZ:              pos.OZ,
					GaebID:          pos.ItemID,
					RefNo:           pos.RefNo,
					ShortText:       pos.ShortText,
					LongText:        pos.LongText,
					Quantity:        pos.Quantity,
					Unit:            string(pos.Unit),
					UnitPriceNet:    pos.UnitPriceNet,
					TotalPriceNet:   pos.TotalPriceNet(),
					VATRate:         pos.VATRate,
					GewerkName:      gewerk,
					UntergewerkName: untergewerk,
					CreatedAt:       lv.CreatedAt,
				}
				// Root-level positions have no stored title row.
				if titleID, ok := ids[id]; ok {
					rec.TitleID = &titleID
				}
				if err := tx.Create(&rec).Error; err != nil {
					return fmt.Errorf("inserting position %s: %w", pos.OZ, err)
				}
				result.Positions++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// sectionNames resolves the top and second section level for a title.
func sectionNames(lv *document.LV, id document.TitleID) (gewerk, untergewerk string) {
	var chain []string
	for id != lv.Root() && id != document.NoTitle {
		chain = append(chain, lv.Title(id).Name)
		id = lv.Title(id).Parent
	}
	if n := len(chain); n > 0 {
		gewerk = chain[n-1]
		if n > 1 {
			untergewerk = chain[n-2]
		}
	}
	return gewerk, untergewerk
}
