package gaebxml

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

const x83Sample = `<?xml version="1.0" encoding="UTF-8"?>
<GAEB xmlns="http://www.gaeb.de/GAEB_DA_XML/DA83/3.2">
  <PrjInfo><Name>Neubau Halle 7</Name></PrjInfo>
  <Award>
    <BoQ>
      <BoQInfo><Name>LV Rohbau</Name></BoQInfo>
      <BoQBody>
        <BoQCtgy RNoPart="01">
          <LblTx><p><span>Rohbau</span></p></LblTx>
          <BoQBody>
            <BoQCtgy RNoPart="01">
              <LblTx><p><span>Erdarbeiten</span></p></LblTx>
              <BoQBody>
                <Itemlist>
                  <Item ID="IT-001" RNoPart="0001">
                    <Qty>12.500</Qty>
                    <QU>m3</QU>
                    <Description>
                      <CompleteText>
                        <DetailTxt><Text><p><span>Boden abtragen und</span> <span>seitlich lagern</span></p></Text></DetailTxt>
                        <OutlineText><OutlTxt><TextOutlTxt><p><span>Aushub</span></p></TextOutlTxt></OutlTxt></OutlineText>
                      </CompleteText>
                    </Description>
                  </Item>
                  <Item ID="IT-002" RNoPart="0002">
                    <Qty>3</Qty>
                    <QU>Stk</QU>
                    <Description>
                      <CompleteText>
                        <OutlineText><OutlTxt><TextOutlTxt><p><span>Probe</span></p></TextOutlTxt></OutlTxt></OutlineText>
                      </CompleteText>
                    </Description>
                  </Item>
                </Itemlist>
              </BoQBody>
            </BoQCtgy>
          </BoQBody>
        </BoQCtgy>
      </BoQBody>
    </BoQ>
  </Award>
</GAEB>`

const x84Sample = `<?xml version="1.0" encoding="UTF-8"?>
<GAEB>
  <Award>
    <BoQ>
      <BoQBody>
        <BoQCtgy RNoPart="01">
          <LblTx>Rohbau</LblTx>
          <BoQBody>
            <Itemlist>
              <Item ID="IT-001" RNoPart="0001">
                <Qty>12.5</Qty>
                <QU>m3</QU>
                <UP>4,00</UP>
              </Item>
              <Item RNo="0002">
                <Qty>3</Qty>
                <IT>30.00</IT>
              </Item>
            </Itemlist>
          </BoQBody>
        </BoQCtgy>
      </BoQBody>
    </BoQ>
  </Award>
</GAEB>`

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestExtractQuantityIssue(t *testing.T) {
	ex, err := Extract([]byte(x83Sample))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if ex.Project != "Neubau Halle 7" {
		t.Errorf("Project = %q", ex.Project)
	}
	if len(ex.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(ex.Rows))
	}

	row := ex.Rows[0]
	if row.OZ != "01.01.0001" {
		t.Errorf("OZ = %q, want category path + item block", row.OZ)
	}
	if row.TopSection != "Rohbau" || row.SubSection != "Erdarbeiten" {
		t.Errorf("sections = %q / %q", row.TopSection, row.SubSection)
	}
	if row.TopSectionOZ != "01" || row.SubSectionOZ != "01" {
		t.Errorf("section blocks = %q / %q, want the category RNoParts", row.TopSectionOZ, row.SubSectionOZ)
	}
	if row.ShortText != "Aushub" {
		t.Errorf("ShortText = %q", row.ShortText)
	}
	if row.LongText != "Boden abtragen und seitlich lagern" {
		t.Errorf("LongText = %q", row.LongText)
	}
	if !row.Quantity.Equal(dec("12.5")) {
		t.Errorf("Quantity = %s", row.Quantity)
	}
	if row.UnitLabel != "m3" {
		t.Errorf("UnitLabel = %q", row.UnitLabel)
	}
	if row.ItemID != "IT-001" || row.RefNo != "0001" {
		t.Errorf("ids = %q / %q", row.ItemID, row.RefNo)
	}
	if row.UnitPriceNet.Valid || row.TotalPriceNet.Valid {
		t.Error("quantity issue must not carry prices")
	}
}

func TestExtractPricedIssueWithoutNamespace(t *testing.T) {
	ex, err := Extract([]byte(x84Sample))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(ex.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(ex.Rows))
	}

	first := ex.Rows[0]
	if !first.UnitPriceNet.Valid || !first.UnitPriceNet.Decimal.Equal(dec("4.00")) {
		t.Errorf("UnitPriceNet = %v, want 4.00 (decimal comma accepted)", first.UnitPriceNet)
	}

	// Second item has no RNoPart; RNo is the fallback order block.
	second := ex.Rows[1]
	if second.OZ != "01.0002" || second.RefNo != "0002" {
		t.Errorf("OZ/RefNo = %q / %q", second.OZ, second.RefNo)
	}
	if !second.TotalPriceNet.Valid || !second.TotalPriceNet.Decimal.Equal(dec("30.00")) {
		t.Errorf("TotalPriceNet = %v", second.TotalPriceNet)
	}
}

func TestExtractUnreadableInput(t *testing.T) {
	for name, data := range map[string]string{
		"not xml":     "definitely; not, xml",
		"no boq body": `<GAEB><PrjInfo><Name>x</Name></PrjInfo></GAEB>`,
	} {
		_, err := Extract([]byte(data))
		if !errors.Is(err, ErrUnreadableDocument) {
			t.Errorf("%s: err = %v, want ErrUnreadableDocument", name, err)
		}
	}
}

func TestExtractEmptyItemListIsNotAnError(t *testing.T) {
	ex, err := Extract([]byte(`<GAEB><Award><BoQ><BoQBody><Itemlist></Itemlist></BoQBody></BoQ></Award></GAEB>`))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(ex.Rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(ex.Rows))
	}
}

func TestExtractFileMissing(t *testing.T) {
	if _, err := ExtractFile("/nonexistent/file.x83"); !errors.Is(err, ErrUnreadableDocument) {
		t.Fatalf("err = %v, want ErrUnreadableDocument", err)
	}
}
