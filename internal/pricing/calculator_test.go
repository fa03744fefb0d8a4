package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/petalworks/petalworks-backend/pkg/config"
)

func defaultCalculator(t *testing.T) *Calculator {
	t.Helper()
	calc, err := NewCalculator(config.PricingConfig{
		FreeDeliveryAbove: "199",
		DeliveryFee:       "40",
		TaxRate:           "0.05",
	})
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}
	return calc
}

func TestPriceBreakdown(t *testing.T) {
	t.Parallel()

	calc := defaultCalculator(t)

	cases := []struct {
		name     string
		subtotal string
		wrap     string
		fee      string
		tax      string
		total    string
	}{
		{name: "under threshold pays delivery", subtotal: "150", wrap: "0", fee: "40", tax: "7.5", total: "197.5"},
		{name: "wrap pushes over threshold", subtotal: "250", wrap: "50", fee: "0", tax: "15", total: "315"},
		{name: "exactly at threshold still pays", subtotal: "199", wrap: "0", fee: "40", tax: "9.95", total: "248.95"},
		{name: "just over threshold is free", subtotal: "199.01", wrap: "0", fee: "0", tax: "9.95", total: "208.96"},
		{name: "empty cart", subtotal: "0", wrap: "0", fee: "40", tax: "0", total: "40"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			subtotal := decimal.RequireFromString(tc.subtotal)
			wrap := decimal.RequireFromString(tc.wrap)
			got := calc.Price(subtotal, wrap)

			if !got.DeliveryFee.Equal(decimal.RequireFromString(tc.fee)) {
				t.Fatalf("delivery fee: expected %s, got %s", tc.fee, got.DeliveryFee)
			}
			if !got.Tax.Equal(decimal.RequireFromString(tc.tax)) {
				t.Fatalf("tax: expected %s, got %s", tc.tax, got.Tax)
			}
			if !got.Total.Equal(decimal.RequireFromString(tc.total)) {
				t.Fatalf("total: expected %s, got %s", tc.total, got.Total)
			}

			recomputed := got.Subtotal.Add(got.GiftWrapFee).Add(got.DeliveryFee).Add(got.Tax)
			if !got.Total.Equal(recomputed) {
				t.Fatalf("total %s does not equal component sum %s", got.Total, recomputed)
			}
		})
	}
}

func TestTaxRoundsToTwoDecimals(t *testing.T) {
	t.Parallel()

	calc := defaultCalculator(t)
	got := calc.Price(decimal.RequireFromString("33.33"), decimal.Zero)

	// 33.33 * 0.05 = 1.6665 → 1.67
	if !got.Tax.Equal(decimal.RequireFromString("1.67")) {
		t.Fatalf("expected tax 1.67, got %s", got.Tax)
	}
	if got.Tax.Exponent() < -2 {
		t.Fatalf("tax has more than two decimal places: %s", got.Tax)
	}
}

func TestSubtotalSumsLines(t *testing.T) {
	t.Parallel()

	lines := []Line{
		{UnitPrice: decimal.RequireFromString("49.50"), Qty: 2},
		{UnitPrice: decimal.RequireFromString("12.25"), Qty: 4},
	}
	got := Subtotal(lines)
	if !got.Equal(decimal.RequireFromString("148")) {
		t.Fatalf("expected subtotal 148, got %s", got)
	}

	if !Subtotal(nil).Equal(decimal.Zero) {
		t.Fatalf("expected zero subtotal for no lines")
	}
}

func TestNewCalculatorRejectsBadConstants(t *testing.T) {
	t.Parallel()

	_, err := NewCalculator(config.PricingConfig{
		FreeDeliveryAbove: "lots",
		DeliveryFee:       "40",
		TaxRate:           "0.05",
	})
	if err == nil {
		t.Fatalf("expected parse error")
	}
}
