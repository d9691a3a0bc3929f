// Package flexibee exports issued invoices to the FlexiBee accounting system.
package flexibee

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"eshop/internal/config"
	"eshop/internal/configstore"
	"eshop/internal/logger"
	"eshop/internal/models"
	"eshop/internal/services/invoice"

	"github.com/shopspring/decimal"
)

const importNote = "Automaticky importované z 2Pnet e-shopu"

var (
	ErrNotConfigured = errors.New("flexibee access is not configured")
	ErrAPI           = errors.New("flexibee API error")
)

type Service struct {
	store      *configstore.Store
	invoices   *invoice.Service
	env        config.FlexibeeConfig
	httpClient *http.Client
	logger     *logger.Logger
}

func NewService(store *configstore.Store, invoices *invoice.Service, env config.FlexibeeConfig, logger *logger.Logger) *Service {
	return &Service{
		store:    store,
		invoices: invoices,
		env:      env,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

type invoiceItem struct {
	NazPol string  `json:"nazPol"`
	MnozMj int     `json:"mnozMj"`
	SumZkl float64 `json:"sumZkl"`
	CenaMj float64 `json:"cenaMj"`
}

type invoiceParty struct {
	NazFirmy string `json:"nazFirmy"`
	ICO      string `json:"ico"`
	DIC      string `json:"dic"`
	Email    string `json:"email"`
}

type issuedInvoice struct {
	Kod            string        `json:"kod"`
	VarSym         string        `json:"varSym"`
	Vystaveno      string        `json:"vystaveno"`
	DatSplat       string        `json:"datSplat"`
	SumCelkem      float64       `json:"sumCelkem"`
	Mena           string        `json:"mena"`
	Text           string        `json:"text"`
	OsvobDph       bool          `json:"osvobDph"`
	Odbm           invoiceParty  `json:"odbm"`
	PolozkyFaktury []invoiceItem `json:"polozkyFaktury"`
}

type importRequest struct {
	Winstrom struct {
		Invoices []issuedInvoice `json:"faktura-vydana"`
	} `json:"winstrom"`
}

// buildPayload maps a stored invoice to the FlexiBee import document.
func buildPayload(inv *models.Invoice) importRequest {
	doc := issuedInvoice{
		Kod:            inv.InvoiceNumber,
		VarSym:         inv.VariableSymbol,
		Vystaveno:      inv.IssueDate.Format("2006-01-02"),
		DatSplat:       inv.DueDate.Format("2006-01-02"),
		SumCelkem:      inv.TotalPrice.Round(2).InexactFloat64(),
		Mena:           inv.Currency,
		Text:           importNote,
		Odbm:           invoiceParty{NazFirmy: inv.CustomerName},
		PolozkyFaktury: []invoiceItem{},
	}
	if doc.VarSym == "" {
		doc.VarSym = invoice.VariableSymbol(inv.InvoiceNumber, "")
	}
	if inv.CustomerICO != nil {
		doc.Odbm.ICO = *inv.CustomerICO
	}
	if inv.CustomerDIC != nil {
		doc.Odbm.DIC = *inv.CustomerDIC
	}

	if inv.Order != nil {
		doc.Odbm.Email = inv.Order.Email
		for _, item := range inv.Order.Items {
			doc.PolozkyFaktury = append(doc.PolozkyFaktury, invoiceItem{
				NazPol: item.Name,
				MnozMj: item.Quantity,
				SumZkl: item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2).InexactFloat64(),
				CenaMj: item.Price.Round(2).InexactFloat64(),
			})
		}
	}

	var req importRequest
	req.Winstrom.Invoices = []issuedInvoice{doc}
	return req
}

// SendInvoice posts the invoice to FlexiBee and returns the API response.
func (s *Service) SendInvoice(ctx context.Context, number string) (map[string]interface{}, error) {
	cfg, err := s.config(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := s.invoices.Get(ctx, number)
	if err != nil {
		return nil, err
	}

	jsonData, err := json.Marshal(buildPayload(inv))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal invoice: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/faktura-vydana.json", cfg.URL, cfg.Company)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(cfg.Username, cfg.Password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	data := map[string]interface{}{}
	_ = json.Unmarshal(body, &data)

	if message := apiErrorMessage(data); message != "" {
		return nil, fmt.Errorf("%w: %s", ErrAPI, message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d - %s", ErrAPI, resp.StatusCode, string(body))
	}

	s.logger.Info("Invoice %s exported to FlexiBee", number)
	return data, nil
}

// TestConnection lists one issued invoice to verify access.
func (s *Service) TestConnection(ctx context.Context) error {
	cfg, err := s.config(ctx)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/%s/faktura-vydana.json?limit=1", cfg.URL, cfg.Company)
	resp, err := s.get(ctx, cfg, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: test failed with status %d", ErrAPI, resp.StatusCode)
	}
	return nil
}

// DownloadISDOC fetches the ISDOC export FlexiBee generates for an invoice.
func (s *Service) DownloadISDOC(ctx context.Context, number string) ([]byte, error) {
	cfg, err := s.config(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s/faktura-vydana/%s.isdoc", cfg.URL, cfg.Company, url.PathEscape(number))
	resp, err := s.get(ctx, cfg, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: isdoc export failed with status %d", ErrAPI, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read isdoc: %w", err)
	}
	return body, nil
}

func (s *Service) get(ctx context.Context, cfg Settings, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(cfg.Username, cfg.Password)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	return resp, nil
}

// apiErrorMessage reads winstrom.error.message or error.message.
func apiErrorMessage(data map[string]interface{}) string {
	for _, root := range []interface{}{data["winstrom"], data} {
		container, ok := root.(map[string]interface{})
		if !ok {
			continue
		}
		if apiErr, ok := container["error"].(map[string]interface{}); ok {
			if message, ok := apiErr["message"].(string); ok && message != "" {
				return message
			}
		}
	}
	return ""
}
