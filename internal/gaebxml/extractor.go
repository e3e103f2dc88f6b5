// =============================================================================
// GAEB LV Tools - GAEB XML Extractor
// =============================================================================
//
// This module extracts flat position rows from GAEB DA XML files (X83
// quantity issue, X84 priced issue). It deliberately covers only the slice of
// the GAEB schema the core consumes: the category hierarchy (BoQCtgy) for
// section labels, and the item list with order parts, texts, quantity, unit
// and - in priced files - unit price (UP) and item total (IT).
//
// TOLERANCE:
//   GAEB files exist in several schema revisions with different default
//   namespaces. Element matching is by local name, so files with and without
//   a namespace decode identically. Formatted texts (p/span markup) are
//   flattened to plain strings.
//
// ERRORS:
//   An unreadable file or one without any bill-of-quantities body is a
//   structural failure and surfaces as ErrUnreadableDocument - unlike the
//   degrade-in-place heuristics elsewhere, this must never silently produce
//   an empty tree. A readable BoQ with zero items is NOT an error; it simply
//   yields no rows.
//
// =============================================================================

package gaebxml

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"github.com/hochbau-digital/gaeb-lv-tools/internal/document"
)

// ErrUnreadableDocument marks input that could not be parsed as a GAEB
// document at all. Callers distinguish this from "parsed, but nothing priced
// matched", which is never an error. It aliases the shared extractor
// sentinel, so errors.Is(err, document.ErrUnreadableInput) holds as well.
var ErrUnreadableDocument = document.ErrUnreadableInput

// Extraction is the extractor's output: provenance plus the flat row
// sequence in document order.
type Extraction struct {
	// Project is the project name from PrjInfo or the BoQ label, if any.
	Project string

	// Rows are the extracted positions, one per GAEB item.
	Rows []document.Row
}

// ExtractFile reads and extracts a GAEB XML file from disk.
func ExtractFile(path string) (*Extraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	return Extract(data)
}

// Extract parses GAEB XML bytes into an Extraction.
func Extract(data []byte) (*Extraction, error) {
	var file gaebFile
	if err := xml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	body := file.boqBody()
	if body == nil {
		return nil, fmt.Errorf("%w: no BoQ body found", ErrUnreadableDocument)
	}

	ex := &Extraction{Project: file.projectName()}
	collectRows(body, nil, "", "", &ex.Rows)
	return ex, nil
}

// =============================================================================
// XML SHAPES
// =============================================================================

// gaebFile mirrors the slices of the GAEB DA XML schema we read. Field tags
// carry no namespace, so decoding matches any schema revision's local names.
type gaebFile struct {
	PrjInfo struct {
		Name  string `xml:"Name"`
		LblTx flatText `xml:"LblTx"`
	} `xml:"PrjInfo"`
	Award struct {
		BoQ *boq `xml:"BoQ"`
	} `xml:"Award"`
	// Some files carry the BoQ at the top level, outside an Award envelope.
	BoQ *boq `xml:"BoQ"`
}

type boq struct {
	Info struct {
		Name string `xml:"Name"`
	} `xml:"BoQInfo"`
	Body *boqBody `xml:"BoQBody"`
}

type boqBody struct {
	Categories []boqCtgy `xml:"BoQCtgy"`
	Items      []boqItem `xml:"Itemlist>Item"`
}

type boqCtgy struct {
	RNoPart string   `xml:"RNoPart,attr"`
	Label   flatText `xml:"LblTx"`
	Body    *boqBody `xml:"BoQBody"`
}

type boqItem struct {
	ID      string   `xml:"ID,attr"`
	RNoPart string   `xml:"RNoPart,attr"`
	RNo     string   `xml:"RNo,attr"`
	Qty     string   `xml:"Qty"`
	QU      string   `xml:"QU"`
	UP      string   `xml:"UP"`
	IT      string   `xml:"IT"`
	Short   flatText `xml:"Description>CompleteText>OutlineText>OutlTxt>TextOutlTxt"`
	Long    flatText `xml:"Description>CompleteText>DetailTxt>Text"`
}

func (f *gaebFile) boqBody() *boqBody {
	if f.Award.BoQ != nil && f.Award.BoQ.Body != nil {
		return f.Award.BoQ.Body
	}
	if f.BoQ != nil && f.BoQ.Body != nil {
		return f.BoQ.Body
	}
	return nil
}

// projectName reads the project label with an explicit candidate order:
// project info name, project info label, BoQ info name.
func (f *gaebFile) projectName() string {
	for _, candidate := range []string{
		f.PrjInfo.Name,
		string(f.PrjInfo.LblTx),
		f.boqInfoName(),
	} {
		if cleaned := document.CleanText(candidate); cleaned != "" {
			return cleaned
		}
	}
	return ""
}

func (f *gaebFile) boqInfoName() string {
	if f.Award.BoQ != nil {
		return f.Award.BoQ.Info.Name
	}
	if f.BoQ != nil {
		return f.BoQ.Info.Name
	}
	return ""
}

// flatText flattens GAEB formatted text (nested p/span markup) into a plain
// whitespace-normalized string.
type flatText string

func (t *flatText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch v := tok.(type) {
		case xml.CharData:
			b.Write(v)
			b.WriteByte(' ')
		case xml.EndElement:
			if v.Name == start.Name {
				*t = flatText(document.CleanText(b.String()))
				return nil
			}
		}
	}
}

// =============================================================================
// ROW COLLECTION
// =============================================================================

// collectRows walks the category tree depth-first. ozPath accumulates the
// RNoPart blocks of the enclosing categories; the first two category levels
// supply the section labels, deeper levels inherit them.
func collectRows(body *boqBody, ozPath []string, top, sub string, out *[]document.Row) {
	for i := range body.Items {
		*out = append(*out, itemRow(&body.Items[i], ozPath, top, sub))
	}

	for i := range body.Categories {
		ctgy := &body.Categories[i]
		label := document.CleanText(string(ctgy.Label))

		childTop, childSub := top, sub
		switch len(ozPath) {
		case 0:
			childTop = label
		case 1:
			childSub = label
		}

		if ctgy.Body != nil {
			childPath := append(append([]string(nil), ozPath...), ctgy.RNoPart)
			collectRows(ctgy.Body, childPath, childTop, childSub, out)
		}
	}
}

// itemRow maps one GAEB item to the typed row contract. All "whichever field
// exists" fallbacks live here: the order block prefers RNoPart over RNo, the
// reference number records the raw block before prefixing.
func itemRow(item *boqItem, ozPath []string, top, sub string) document.Row {
	block := item.RNoPart
	if block == "" {
		block = item.RNo
	}

	oz := strings.Join(append(append([]string(nil), ozPath...), block), ".")
	if block == "" {
		// Item without its own number: the category path alone is no OZ.
		oz = ""
	}

	var topOZ, subOZ string
	if len(ozPath) >= 1 {
		topOZ = ozPath[0]
	}
	if len(ozPath) >= 2 {
		subOZ = ozPath[1]
	}

	return document.Row{
		TopSection:    top,
		SubSection:    sub,
		TopSectionOZ:  topOZ,
		SubSectionOZ:  subOZ,
		OZ:            oz,
		ShortText:     string(item.Short),
		LongText:      string(item.Long),
		Quantity:      document.ParseQuantity(item.Qty),
		UnitLabel:     strings.TrimSpace(item.QU),
		ItemID:        strings.TrimSpace(item.ID),
		RefNo:         strings.TrimSpace(block),
		UnitPriceNet:  document.ParseDecimal(item.UP),
		TotalPriceNet: document.ParseDecimal(item.IT),
	}
}
