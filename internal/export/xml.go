// =============================================================================
// GAEB LV Tools - GAEB XML Writer
// =============================================================================
//
// Serializes a document back into GAEB DA XML. The output carries the subset
// of the exchange format this tool reads: project info, the category tree
// with labels and order number parts, and one Item per position with
// quantity, unit, prices and both text blocks. A document written here and
// re-extracted by internal/gaebxml comes back with the same rows.
//
// Marshaling is done over a small generic element tree instead of struct
// tags because the nesting depth varies with the title tree.
//
// =============================================================================

package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/hochbau-digital/gaeb-lv-tools/internal/document"
)

const xmlIndent = "  "

// element is a generic XML node with ordered children.
type element struct {
	name     string
	attrs    []attr
	text     string
	children []element
}

type attr struct {
	name  string
	value string
}

func el(name string, children ...element) element {
	return element{name: name, children: children}
}

func textEl(name, text string) element {
	return element{name: name, text: text}
}

// WriteXML serializes the document as GAEB DA XML.
func WriteXML(w io.Writer, lv *document.LV) error {
	var buf bytes.Buffer
	buf.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")

	root := buildGAEB(lv)
	writeElement(&buf, root, 0)

	_, err := w.Write(buf.Bytes())
	return err
}

// buildGAEB constructs the document tree.
func buildGAEB(lv *document.LV) element {
	phaseDigits := strings.TrimPrefix(string(lv.Phase), "X")

	body := buildBody(lv, lv.Root())

	return element{
		name: "GAEB",
		children: []element{
			el("GAEBInfo",
				textEl("Version", "3.2"),
				textEl("VersDate", lv.CreatedAt.Format("2006-01")),
			),
			el("PrjInfo",
				textEl("Name", lv.Project),
				textEl("Cur", lv.Currency),
			),
			el("Award",
				textEl("DP", phaseDigits),
				el("BoQ", body),
			),
		},
	}
}

// buildBody emits the BoQBody for one title: child categories first, then
// the title's own positions as an Itemlist.
func buildBody(lv *document.LV, id document.TitleID) element {
	body := element{name: "BoQBody"}

	title := lv.Title(id)
	for _, child := range title.Children {
		ct := lv.Title(child)
		ctgy := element{
			name:  "BoQCtgy",
			attrs: []attr{{name: "RNoPart", value: ct.OZ}},
			children: []element{
				textEl("LblTx", ct.Name),
				buildBody(lv, child),
			},
		}
		body.children = append(body.children, ctgy)
	}

	if len(title.Positions) > 0 {
		list := element{name: "Itemlist"}
		for _, pid := range title.Positions {
			list.children = append(list.children, buildItem(lv.Position(pid)))
		}
		body.children = append(body.children, list)
	}

	return body
}

func buildItem(pos *document.Position) element {
	item := element{
		name: "Item",
		attrs: []attr{
			{name: "ID", value: pos.ItemID},
			{name: "RNoPart", value: itemBlock(pos)},
		},
	}

	item.children = append(item.children,
		textEl("Qty", pos.Quantity.String()),
		textEl("QU", string(pos.Unit)),
	)
	if s := nullString(pos.UnitPriceNet); s != "" {
		item.children = append(item.children, textEl("UP", s))
	}
	if s := totalString(pos); s != "" {
		item.children = append(item.children, textEl("IT", s))
	}

	complete := el("CompleteText",
		el("OutlineText", el("OutlTxt", textEl("TextOutlTxt", pos.ShortText))),
	)
	if pos.LongText != "" {
		complete.children = append(complete.children,
			el("DetailTxt", textEl("Text", pos.LongText)))
	}
	item.children = append(item.children, el("Description", complete))

	return item
}

// itemBlock yields the item's own order number block: the reference number
// when the source carried one, otherwise the last segment of the OZ.
func itemBlock(pos *document.Position) string {
	if pos.RefNo != "" {
		return pos.RefNo
	}
	if i := strings.LastIndex(pos.OZ, "."); i >= 0 {
		return pos.OZ[i+1:]
	}
	return pos.OZ
}

// totalString renders the effective net total, explicit or derived.
func totalString(pos *document.Position) string {
	if t := pos.TotalPriceNet(); t.Valid {
		return t.Decimal.String()
	}
	return ""
}

func writeElement(buf *bytes.Buffer, e element, level int) {
	indent := strings.Repeat(xmlIndent, level)

	buf.WriteString(indent)
	buf.WriteString("<")
	buf.WriteString(e.name)
	for _, a := range e.attrs {
		if a.value == "" {
			continue
		}
		fmt.Fprintf(buf, " %s=\"%s\"", a.name, escapeXML(a.value))
	}

	if len(e.children) == 0 && e.text == "" {
		buf.WriteString("/>\n")
		return
	}
	buf.WriteString(">")

	if e.text != "" {
		buf.WriteString(escapeXML(e.text))
	} else {
		buf.WriteString("\n")
		for _, child := range e.children {
			writeElement(buf, child, level+1)
		}
		buf.WriteString(indent)
	}

	buf.WriteString("</")
	buf.WriteString(e.name)
	buf.WriteString(">\n")
}

func escapeXML(s string) string {
	var buf strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&apos;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
