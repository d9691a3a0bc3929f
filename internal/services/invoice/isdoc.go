package invoice

import (
	"context"
	"encoding/xml"
	"fmt"

	"eshop/internal/models"

	"github.com/shopspring/decimal"
)

const (
	isdocNamespace = "urn:cz:isdoc:invoice:1"
	cbcNamespace   = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	cacNamespace   = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"

	supplierCountry = "Česká republika"
	emptyLineText   = "Bez položiek"
)

type Amount struct {
	CurrencyID string `xml:"currencyID,attr"`
	Value      string `xml:",chardata"`
}

type Quantity struct {
	UnitCode string `xml:"unitCode,attr"`
	Value    int    `xml:",chardata"`
}

type isdocInvoice struct {
	XMLName  xml.Name `xml:"Invoice"`
	Xmlns    string   `xml:"xmlns,attr"`
	XmlnsCbc string   `xml:"xmlns:cbc,attr"`
	XmlnsCac string   `xml:"xmlns:cac,attr"`

	ID                   string `xml:"cbc:ID"`
	UUID                 string `xml:"cbc:UUID"`
	IssueDate            string `xml:"cbc:IssueDate"`
	DueDate              string `xml:"cbc:DueDate"`
	TaxPointDate         string `xml:"cbc:TaxPointDate"`
	DocumentCurrencyCode string `xml:"cbc:DocumentCurrencyCode"`
	Note                 string `xml:"cbc:Note"`

	Supplier struct {
		Party isdocParty `xml:"cac:Party"`
	} `xml:"cac:AccountingSupplierParty"`
	Customer struct {
		Party isdocParty `xml:"cac:Party"`
	} `xml:"cac:AccountingCustomerParty"`

	TaxTotal struct {
		TaxAmount   Amount `xml:"cbc:TaxAmount"`
		TaxSubtotal struct {
			TaxableAmount Amount `xml:"cbc:TaxableAmount"`
			TaxAmount     Amount `xml:"cbc:TaxAmount"`
			Percent       string `xml:"cac:TaxCategory>cbc:Percent"`
		} `xml:"cac:TaxSubtotal"`
	} `xml:"cac:TaxTotal"`

	LegalMonetaryTotal struct {
		LineExtensionAmount Amount `xml:"cbc:LineExtensionAmount"`
		TaxExclusiveAmount  Amount `xml:"cbc:TaxExclusiveAmount"`
		TaxInclusiveAmount  Amount `xml:"cbc:TaxInclusiveAmount"`
		PayableAmount       Amount `xml:"cbc:PayableAmount"`
	} `xml:"cac:LegalMonetaryTotal"`

	Lines []isdocLine `xml:"InvoiceLine"`
}

type isdocParty struct {
	Name                string        `xml:"cbc:Name"`
	CompanyID           string        `xml:"cac:CompanyID"`
	ID                  string        `xml:"cbc:ID"`
	AdditionalAccountID *string       `xml:"cbc:AdditionalAccountID"`
	PostalAddress       *isdocAddress `xml:"cac:PostalAddress"`
}

type isdocAddress struct {
	StreetName string `xml:"cbc:StreetName"`
	Country    string `xml:"cbc:Country"`
}

type isdocLine struct {
	ID                  int      `xml:"cbc:ID"`
	InvoicedQuantity    Quantity `xml:"cbc:InvoicedQuantity"`
	LineExtensionAmount Amount   `xml:"cbc:LineExtensionAmount"`
	Description         string   `xml:"cac:Item>cbc:Description"`
	PriceAmount         Amount   `xml:"cac:Price>cbc:PriceAmount"`
}

// Document renders the stored invoice as an ISDOC file.
func (s *Service) Document(ctx context.Context, number string) ([]byte, error) {
	inv, err := s.Get(ctx, number)
	if err != nil {
		return nil, err
	}
	template, err := s.Template(ctx)
	if err != nil {
		return nil, err
	}
	return RenderISDOC(inv, template)
}

// RenderISDOC builds the ISDOC XML for inv. Supplier data comes from the
// invoice itself, phrases from template.
func RenderISDOC(inv *models.Invoice, template Template) ([]byte, error) {
	money := func(value decimal.Decimal) Amount {
		return Amount{CurrencyID: inv.Currency, Value: value.StringFixed(2)}
	}

	doc := isdocInvoice{
		Xmlns:                isdocNamespace,
		XmlnsCbc:             cbcNamespace,
		XmlnsCac:             cacNamespace,
		ID:                   inv.InvoiceNumber,
		UUID:                 inv.VariableSymbol,
		IssueDate:            inv.IssueDate.Format(dateLayout),
		DueDate:              inv.DueDate.Format(dateLayout),
		TaxPointDate:         inv.SupplyDate.Format(dateLayout),
		DocumentCurrencyCode: inv.Currency,
		Note:                 template.Phrases.LegalNote,
	}
	if doc.UUID == "" {
		doc.UUID = inv.InvoiceNumber
	}
	if inv.SupplyDate.IsZero() {
		doc.TaxPointDate = doc.IssueDate
	}

	vatID := inv.SupplierVatID
	doc.Supplier.Party = isdocParty{
		Name:                inv.SupplierName,
		CompanyID:           inv.SupplierICO,
		ID:                  inv.SupplierDIC,
		AdditionalAccountID: &vatID,
		PostalAddress: &isdocAddress{
			StreetName: inv.SupplierAddress,
			Country:    supplierCountry,
		},
	}
	doc.Customer.Party = isdocParty{
		Name:      inv.CustomerName,
		CompanyID: deref(inv.CustomerICO),
		ID:        deref(inv.CustomerDIC),
	}

	doc.TaxTotal.TaxAmount = money(inv.VatValue)
	doc.TaxTotal.TaxSubtotal.TaxableAmount = money(inv.BasePrice)
	doc.TaxTotal.TaxSubtotal.TaxAmount = money(inv.VatValue)
	doc.TaxTotal.TaxSubtotal.Percent = inv.VatRate.Mul(decimal.NewFromInt(100)).StringFixed(2)

	doc.LegalMonetaryTotal.LineExtensionAmount = money(inv.BasePrice)
	doc.LegalMonetaryTotal.TaxExclusiveAmount = money(inv.BasePrice)
	doc.LegalMonetaryTotal.TaxInclusiveAmount = money(inv.TotalPrice)
	doc.LegalMonetaryTotal.PayableAmount = money(inv.TotalPrice)

	if inv.Order != nil {
		for i, item := range inv.Order.Items {
			doc.Lines = append(doc.Lines, isdocLine{
				ID:                  i + 1,
				InvoicedQuantity:    Quantity{UnitCode: "EA", Value: item.Quantity},
				LineExtensionAmount: money(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))),
				Description:         item.Name,
				PriceAmount:         money(item.Price),
			})
		}
	}
	if len(doc.Lines) == 0 {
		doc.Lines = []isdocLine{{
			ID:                  1,
			InvoicedQuantity:    Quantity{UnitCode: "EA"},
			LineExtensionAmount: money(decimal.Zero),
			Description:         emptyLineText,
			PriceAmount:         money(decimal.Zero),
		}}
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode isdoc: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// ContentDisposition is the attachment header of an ISDOC download.
func ContentDisposition(number string) string {
	return fmt.Sprintf(`attachment; filename="%s.isdoc"`, number)
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
