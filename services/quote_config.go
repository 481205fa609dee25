package services

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"quoter/config"
)

// TaxMode selects how sales tax is applied.
type TaxMode string

const (
	TaxPercentage TaxMode = "percentage"
	TaxFlat       TaxMode = "flat"
)

// Default quote values.
const (
	DefaultMarkupPercent = 10.0
	DefaultValidDays     = config.DefaultValidDays
)

// Logo MIME types the PDF renderer can embed.
const (
	LogoPNG  = "image/png"
	LogoJPEG = "image/jpeg"
)

// QuoteConfig holds the caller-supplied values for one quote. It is passed by
// value and never modified once the pipeline starts.
type QuoteConfig struct {
	MarkupPercent    float64 `json:"markup_percentage"`
	DiscountFlat     float64 `json:"discount_flat"`
	TaxMode          TaxMode `json:"tax_type"`
	SalesTaxPct      float64 `json:"sales_tax_percentage"`
	SalesTaxFlat     float64 `json:"sales_tax_flat"`
	SenderName       string  `json:"sender_name"`
	SenderEmail      string  `json:"sender_email"`
	SenderPhone      string  `json:"sender_phone"`
	SenderAddress    string  `json:"sender_address"`
	RecipientName    string  `json:"recipient_name"`
	RecipientContact string  `json:"recipient_contact"`
	RecipientAddress string  `json:"recipient_address"`
	JobDescription   string  `json:"job_description"`
	SignerName       string  `json:"signature_name"`
	ValidDays        int     `json:"valid_days"`
	Logo             []byte  `json:"logo,omitempty"`
	LogoMIME         string  `json:"logo_mime,omitempty"`
}

// DefaultQuoteConfig returns a config with 10% markup, percentage tax mode
// and a 14 day validity window.
func DefaultQuoteConfig() QuoteConfig {
	return QuoteConfig{
		MarkupPercent: DefaultMarkupPercent,
		TaxMode:       TaxPercentage,
		ValidDays:     DefaultValidDays,
	}
}

// Validate checks ranges and enumerations. Identity fields are free text.
func (c QuoteConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MarkupPercent, validation.Min(0.0)),
		validation.Field(&c.DiscountFlat, validation.Min(0.0)),
		validation.Field(&c.TaxMode, validation.Required, validation.In(TaxPercentage, TaxFlat)),
		validation.Field(&c.SalesTaxPct, validation.Min(0.0)),
		validation.Field(&c.SalesTaxFlat, validation.Min(0.0)),
		validation.Field(&c.ValidDays, validation.Min(0)),
		validation.Field(&c.LogoMIME,
			validation.When(len(c.Logo) > 0, validation.Required, validation.In(LogoPNG, LogoJPEG))),
	)
}

// Normalized fills unset tax mode and validity with their defaults and maps
// the labels shown by the web form ("Percentage (%)", "Flat Amount ($)")
// to tax modes.
func (c QuoteConfig) Normalized() QuoteConfig {
	mode := strings.ToLower(strings.TrimSpace(string(c.TaxMode)))
	switch {
	case mode == "":
		c.TaxMode = TaxPercentage
	case strings.HasPrefix(mode, "percent"):
		c.TaxMode = TaxPercentage
	case strings.HasPrefix(mode, "flat"):
		c.TaxMode = TaxFlat
	}
	if c.ValidDays == 0 {
		c.ValidDays = DefaultValidDays
	}
	return c
}

// TaxApplies reports whether the config produces a non-zero tax line.
func (c QuoteConfig) TaxApplies() bool {
	switch c.TaxMode {
	case TaxPercentage:
		return c.SalesTaxPct > 0
	case TaxFlat:
		return c.SalesTaxFlat > 0
	}
	return false
}

// TaxLabel is the spreadsheet label of the tax row, e.g. "SALES TAX (8.25%)".
func (c QuoteConfig) TaxLabel() string {
	if c.TaxMode == TaxFlat {
		return "SALES TAX (Flat)"
	}
	return "SALES TAX (" + formatPercent(c.SalesTaxPct) + "%)"
}

// splitLines returns the non-blank lines of a multi-line field, trimmed.
func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
