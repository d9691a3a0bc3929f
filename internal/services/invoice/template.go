package invoice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"eshop/internal/configstore"
)

type Supplier struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	ICO         string `json:"ico"`
	DIC         string `json:"dic"`
	VatID       string `json:"vatId"`
	BankAccount string `json:"bankAccount"`
	IBAN        string `json:"iban"`
	Swift       string `json:"swift"`
}

type Defaults struct {
	Currency         string  `json:"currency"`
	VatRate          float64 `json:"vatRate"`
	DueDays          int     `json:"dueDays"`
	SupplyDaysOffset int     `json:"supplyDaysOffset"`
}

type Phrases struct {
	FooterNote          string `json:"footerNote"`
	LegalNote           string `json:"legalNote"`
	PaymentInstructions string `json:"paymentInstructions"`
}

type Template struct {
	Supplier Supplier `json:"supplier"`
	Defaults Defaults `json:"defaults"`
	Phrases  Phrases  `json:"phrases"`
}

func DefaultTemplate() Template {
	return Template{
		Supplier: Supplier{
			Name:        "2Pnet s.r.o.",
			Address:     "Štefánikova 802, 293 01 Mladá Boleslav",
			ICO:         "03599861",
			DIC:         "CZ03599861",
			VatID:       "CZ03599861",
			BankAccount: "2101234567/2010",
			IBAN:        "CZ29 2010 0000 0021 0123 4567",
			Swift:       "FIOBCZPPXXX",
		},
		Defaults: Defaults{
			Currency: "CZK",
			VatRate:  0.21,
			DueDays:  14,
		},
		Phrases: Phrases{
			FooterNote:          "Ďakujeme za spoluprácu. V prípade dotazov kontaktujte billing@2pnet.cz.",
			LegalNote:           "Dodávateľ je platcom DPH. Faktúra bola vystavená v súlade so zákonom o DPH.",
			PaymentInstructions: "Uhrazujte prosím bankovým prevodom na účet uvedený vyššie. Variabilný symbol = číslo faktúry.",
		},
	}
}

func (s *Service) Template(ctx context.Context) (Template, error) {
	template, err := configstore.ReadMerged(ctx, s.store, configstore.KeyInvoiceTemplate, DefaultTemplate)
	if err != nil {
		return template, fmt.Errorf("failed to read invoice template: %w", err)
	}
	return template, nil
}

// SaveTemplate stores payload merged over the defaults, section by section.
func (s *Service) SaveTemplate(ctx context.Context, payload []byte) (Template, error) {
	template := DefaultTemplate()
	if err := json.Unmarshal(payload, &template); err != nil {
		return template, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	var required struct {
		Supplier struct {
			Name string `json:"name"`
			ICO  string `json:"ico"`
		} `json:"supplier"`
	}
	_ = json.Unmarshal(payload, &required)
	if strings.TrimSpace(required.Supplier.Name) == "" || strings.TrimSpace(required.Supplier.ICO) == "" {
		return template, fmt.Errorf("%w: supplier name and ico are required", ErrInvalidTemplate)
	}

	if err := configstore.Write(ctx, s.store, configstore.KeyInvoiceTemplate, template); err != nil {
		return template, err
	}
	return template, nil
}
