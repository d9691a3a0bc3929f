package invoice

import (
	"context"
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"eshop/internal/configstore"
	"eshop/internal/events"
	"eshop/internal/logger"
	"eshop/internal/models"
	"eshop/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newService(t *testing.T) (*Service, *gorm.DB, *events.Recorder) {
	db := testutil.NewDB(t)
	recorder := &events.Recorder{}
	svc := NewService(db, configstore.New(db, logger.NewNop(), t.TempDir()), recorder, logger.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 5, 20, 14, 30, 0, 0, time.UTC) }
	return svc, db, recorder
}

func createOrder(t *testing.T, db *gorm.DB, externalID string, companyID *string) *models.Order {
	order := models.Order{
		ExternalID:   externalID,
		CustomerName: "ACME s.r.o.",
		Email:        "buyer@acme.cz",
		CompanyID:    companyID,
		Status:       models.OrderStatusNew,
		Total:        decimal.RequireFromString("1000.50"),
		Items: []models.OrderItem{
			{Name: "Hosting <Pro>", Quantity: 2, Price: decimal.RequireFromString("400.25")},
			{Name: "Doména", Quantity: 1, Price: decimal.RequireFromString("200")},
		},
	}
	require.NoError(t, db.Create(&order).Error)
	return &order
}

func TestCalculateVat(t *testing.T) {
	vat, total := CalculateVat(decimal.RequireFromString("1000.50"), decimal.RequireFromString("0.21"))
	assert.Equal(t, "210.11", vat.StringFixed(2))
	assert.Equal(t, "1210.61", total.StringFixed(2))

	vat, total = CalculateVat(decimal.RequireFromString("99.99"), decimal.Zero)
	assert.True(t, vat.IsZero())
	assert.Equal(t, "99.99", total.StringFixed(2))
}

func TestVariableSymbol(t *testing.T) {
	assert.Equal(t, "202405", VariableSymbol("ORD-202405-ABCDEF", "FA-2024-00001"))
	assert.Equal(t, "1234567890", VariableSymbol("ORD-123456789012", "FA-2024-00001"))
	assert.Equal(t, "202400001", VariableSymbol("ORD-ABC", "FA-2024-00001"))
	assert.Equal(t, "FA-2024-00042", FormatNumber(2024, 42))
}

func TestTemplateDefaultsAndSave(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	template, err := svc.Template(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2Pnet s.r.o.", template.Supplier.Name)
	assert.Equal(t, 14, template.Defaults.DueDays)

	_, err = svc.SaveTemplate(ctx, []byte(`{"supplier":{"name":"Nová firma"}}`))
	assert.ErrorIs(t, err, ErrInvalidTemplate)

	saved, err := svc.SaveTemplate(ctx, []byte(`{"supplier":{"name":"Nová firma","ico":"123"},"defaults":{"dueDays":30}}`))
	require.NoError(t, err)
	assert.Equal(t, "Nová firma", saved.Supplier.Name)
	assert.Equal(t, "FIOBCZPPXXX", saved.Supplier.Swift)
	assert.Equal(t, 30, saved.Defaults.DueDays)
	assert.Equal(t, "CZK", saved.Defaults.Currency)

	reloaded, err := svc.Template(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, reloaded)
}

func TestGenerate(t *testing.T) {
	svc, db, recorder := newService(t)
	ctx := context.Background()
	company := "CZ12345678"
	order := createOrder(t, db, "ORD-202405-ABC123", &company)

	_, _, err := svc.Generate(ctx, "missing", "")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	inv, _, err := svc.Generate(ctx, order.ExternalID, "")
	require.NoError(t, err)
	assert.Equal(t, "FA-2024-00001", inv.InvoiceNumber)
	assert.Equal(t, "202405123", inv.VariableSymbol)
	assert.Equal(t, "2024-05-20", inv.IssueDate.Format(dateLayout))
	assert.Equal(t, "2024-06-03", inv.DueDate.Format(dateLayout))
	assert.Equal(t, "2024-05-20", inv.SupplyDate.Format(dateLayout))
	assert.Equal(t, "210.11", inv.VatValue.StringFixed(2))
	assert.Equal(t, "1210.61", inv.TotalPrice.StringFixed(2))
	assert.Equal(t, "CZK", inv.Currency)
	assert.Equal(t, "default", inv.TemplateVersion)
	require.NotNil(t, inv.CustomerVatID)
	assert.Equal(t, company, *inv.CustomerVatID)

	var stored models.Order
	require.NoError(t, db.First(&stored, "id = ?", order.ID).Error)
	require.NotNil(t, stored.InvoiceNumber)
	assert.Equal(t, inv.InvoiceNumber, *stored.InvoiceNumber)

	second, _, err := svc.Generate(ctx, order.ID, "v2")
	require.NoError(t, err)
	assert.Equal(t, "FA-2024-00002", second.InvoiceNumber)

	published := recorder.OfType(events.InvoiceCreated)
	require.Len(t, published, 2)
	assert.Equal(t, "FA-2024-00001", published[0].String("invoiceNumber"))
}

func TestGenerateWithoutCzechVatID(t *testing.T) {
	svc, db, _ := newService(t)
	company := "SK2020123456"
	order := createOrder(t, db, "ORD-1", &company)

	inv, _, err := svc.Generate(context.Background(), order.ID, "")
	require.NoError(t, err)
	assert.Nil(t, inv.CustomerVatID)
	assert.Equal(t, company, *inv.CustomerICO)
}

func TestList(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()
	order := createOrder(t, db, "ORD-202405-XYZ", nil)

	_, _, err := svc.Generate(ctx, order.ID, "")
	require.NoError(t, err)

	records, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ORD-202405-XYZ", records[0].OrderID)
	assert.Equal(t, "2024-05-20", records[0].IssueDate)
	assert.Equal(t, "ACME s.r.o.", records[0].Customer)
}

func TestDocument(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()
	order := createOrder(t, db, "ORD-202405-ABC123", nil)

	_, err := svc.Document(ctx, "FA-2024-99999")
	assert.ErrorIs(t, err, ErrInvoiceNotFound)

	inv, _, err := svc.Generate(ctx, order.ID, "")
	require.NoError(t, err)

	doc, err := svc.Document(ctx, inv.InvoiceNumber)
	require.NoError(t, err)

	text := string(doc)
	assert.True(t, strings.HasPrefix(text, xml.Header))
	assert.Contains(t, text, `xmlns="urn:cz:isdoc:invoice:1"`)
	assert.Contains(t, text, `xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"`)
	assert.Contains(t, text, "<cbc:ID>FA-2024-00001</cbc:ID>")
	assert.Contains(t, text, "<cbc:Country>Česká republika</cbc:Country>")
	assert.Contains(t, text, "<cbc:Percent>21.00</cbc:Percent>")
	assert.Contains(t, text, `<cbc:PayableAmount currencyID="CZK">1210.61</cbc:PayableAmount>`)
	assert.Contains(t, text, `<cbc:InvoicedQuantity unitCode="EA">2</cbc:InvoicedQuantity>`)
	assert.Contains(t, text, `<cbc:LineExtensionAmount currencyID="CZK">800.50</cbc:LineExtensionAmount>`)
	assert.Contains(t, text, "Hosting &lt;Pro&gt;")

	var parsed struct {
		XMLName xml.Name
		ID      string `xml:"ID"`
	}
	require.NoError(t, xml.Unmarshal(doc, &parsed))
	assert.Equal(t, "Invoice", parsed.XMLName.Local)
	assert.Equal(t, "FA-2024-00001", parsed.ID)
}

func TestRenderISDOCWithoutItems(t *testing.T) {
	inv := &models.Invoice{
		InvoiceNumber: "FA-2024-00007",
		Currency:      "EUR",
		IssueDate:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC),
		VatRate:       decimal.RequireFromString("0.2"),
	}

	doc, err := RenderISDOC(inv, DefaultTemplate())
	require.NoError(t, err)

	text := string(doc)
	assert.Contains(t, text, "<cbc:Description>Bez položiek</cbc:Description>")
	assert.Contains(t, text, "<cbc:UUID>FA-2024-00007</cbc:UUID>")
	assert.Contains(t, text, "<cbc:TaxPointDate>2024-01-02</cbc:TaxPointDate>")
	assert.Contains(t, text, "<cbc:Percent>20.00</cbc:Percent>")
	assert.Equal(t, `attachment; filename="FA-2024-00007.isdoc"`, ContentDisposition(inv.InvoiceNumber))
}

func TestGenerateContinuesPastFiveDigits(t *testing.T) {
	svc, db, _ := newService(t)
	for _, number := range []string{"FA-2024-99999", "FA-2024-100000", "FA-2023-100005"} {
		require.NoError(t, db.Create(&models.Invoice{InvoiceNumber: number, IssueDate: time.Now()}).Error)
	}
	order := createOrder(t, db, "ORD-202405-ROLL01", nil)

	inv, _, err := svc.Generate(context.Background(), order.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "FA-2024-100001", inv.InvoiceNumber)
}

func TestGenerateRetriesTakenNumber(t *testing.T) {
	svc, db, _ := newService(t)
	order := createOrder(t, db, "ORD-202405-RETRY1", nil)

	conflicts := 0
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:taken_number", func(tx *gorm.DB) {
		if tx.Statement.Table == "invoices" && conflicts == 0 {
			conflicts++
			tx.AddError(errors.New("UNIQUE constraint failed: invoices.invoice_number"))
		}
	}))

	inv, _, err := svc.Generate(context.Background(), order.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, "FA-2024-00001", inv.InvoiceNumber)

	var count int64
	require.NoError(t, db.Model(&models.Invoice{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
