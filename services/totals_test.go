package services

import (
	"math"
	"testing"
)

func withTax(mode TaxMode, pct, flat, discount, markup float64) QuoteConfig {
	cfg := DefaultQuoteConfig()
	cfg.TaxMode = mode
	cfg.SalesTaxPct = pct
	cfg.SalesTaxFlat = flat
	cfg.DiscountFlat = discount
	cfg.MarkupPercent = markup
	return cfg
}

func TestCalcTotalsFromSubtotal(t *testing.T) {
	tests := []struct {
		name     string
		subtotal float64
		cfg      QuoteConfig
		want     QuoteTotals
	}{
		{
			name:     "tax on discounted base",
			subtotal: 100,
			cfg:      withTax(TaxPercentage, 10, 0, 20, 0),
			want:     QuoteTotals{Subtotal: 100, Discount: 20, Running: 80, Tax: 8, GrandTotal: 88},
		},
		{
			name:     "discount exceeding subtotal clamps to zero",
			subtotal: 50,
			cfg:      withTax(TaxPercentage, 10, 0, 80, 0),
			want:     QuoteTotals{Subtotal: 50, Discount: 80, Running: 0, Tax: 0, GrandTotal: 0},
		},
		{
			name:     "flat tax",
			subtotal: 200,
			cfg:      withTax(TaxFlat, 10, 15, 0, 0),
			want:     QuoteTotals{Subtotal: 200, Running: 200, Tax: 15, GrandTotal: 215},
		},
		{
			name:     "flat tax ignores percentage",
			subtotal: 200,
			cfg:      withTax(TaxFlat, 10, 0, 0, 0),
			want:     QuoteTotals{Subtotal: 200, Running: 200, GrandTotal: 200},
		},
		{
			name:     "percentage mode ignores flat amount",
			subtotal: 200,
			cfg:      withTax(TaxPercentage, 0, 30, 0, 0),
			want:     QuoteTotals{Subtotal: 200, Running: 200, GrandTotal: 200},
		},
		{
			name:     "markup amount backed out exactly",
			subtotal: 110,
			cfg:      withTax(TaxPercentage, 0, 0, 0, 10),
			want:     QuoteTotals{Subtotal: 110, Running: 110, GrandTotal: 110, MarkupAmount: 10},
		},
		{
			name:     "zero markup has no markup amount",
			subtotal: 110,
			cfg:      withTax(TaxPercentage, 0, 0, 0, 0),
			want:     QuoteTotals{Subtotal: 110, Running: 110, GrandTotal: 110},
		},
		{
			name:     "flat tax still applies when discount wipes the subtotal",
			subtotal: 10,
			cfg:      withTax(TaxFlat, 0, 5, 25, 0),
			want:     QuoteTotals{Subtotal: 10, Discount: 25, Running: 0, Tax: 5, GrandTotal: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalcTotalsFromSubtotal(tt.subtotal, tt.cfg)
			if got != tt.want {
				t.Errorf("CalcTotalsFromSubtotal(%v) =\n  %+v\nwant\n  %+v", tt.subtotal, got, tt.want)
			}
		})
	}
}

func TestCalcQuoteTotals_SumsTotalColumnAcrossTables(t *testing.T) {
	tables := []Table{
		NewTable(CanonicalColumns, [][]any{
			{"Widget", "2", "$5.00", "$12.00"},
			{"Shipping", "", "", "$25.00"},
			{"Note", "", "", "call us"},
		}),
		NewTable(CanonicalColumns, [][]any{
			{"Labor", "1", "$1,000.00", "$1,100.00"},
		}),
		NewTable([]string{"Ref", "Notes"}, [][]any{{"x", "999"}}),
	}
	cfg := withTax(TaxPercentage, 8.25, 0, 37, 10)

	got := CalcQuoteTotals(tables, cfg)

	if got.Subtotal != 1137 {
		t.Fatalf("Subtotal = %v, want 1137", got.Subtotal)
	}
	if got.Running != 1100 {
		t.Errorf("Running = %v, want 1100", got.Running)
	}
	if got.Tax != 90.75 {
		t.Errorf("Tax = %v, want 90.75", got.Tax)
	}
	if got.GrandTotal != 1190.75 {
		t.Errorf("GrandTotal = %v, want 1190.75", got.GrandTotal)
	}
	if math.Abs(got.MarkupAmount-103.363636) > 1e-6 {
		t.Errorf("MarkupAmount = %v, want ~103.36", got.MarkupAmount)
	}
}

func TestCalcQuoteTotals_GrandTotalNeverNegative(t *testing.T) {
	for _, discount := range []float64{0, 1, 49.99, 50, 50.01, 1e6} {
		cfg := withTax(TaxPercentage, 7, 0, discount, 10)
		got := CalcTotalsFromSubtotal(50, cfg)
		if got.Running < 0 || got.GrandTotal < 0 || got.Tax < 0 {
			t.Errorf("discount %v produced negative totals: %+v", discount, got)
		}
	}
}

func TestSumTotalColumn_AvoidsFloatDrift(t *testing.T) {
	tables := []Table{NewTable([]string{ColTotal}, [][]any{{0.1}, {0.2}})}

	if got := SumTotalColumn(tables); got != 0.3 {
		t.Errorf("SumTotalColumn = %v, want 0.3", got)
	}
}
