package pricing_test

import (
	"testing"

	"github.com/smallbiznis/hostbill/internal/pricing"
	"github.com/stretchr/testify/require"
)

func TestBuildQuoteMonthlyWithAddOns(t *testing.T) {
	quote, err := pricing.BuildQuote([]pricing.Item{
		{Kind: pricing.LinePlan, Description: "Business Hosting", MonthlyCents: 1999},
		{Kind: pricing.LineAddOn, Description: "Daily Backups", MonthlyCents: 200},
		{Kind: pricing.LineAddOn, Description: "Dedicated IP", MonthlyCents: 300},
	}, pricing.CycleMonthly, 1600, "mxn")
	require.NoError(t, err)

	require.Equal(t, int64(2499), quote.SubtotalCents)
	require.Equal(t, int64(400), quote.TaxCents)
	require.Equal(t, int64(2899), quote.TotalCents)
	require.Equal(t, "MXN", quote.Currency)
	require.Len(t, quote.Lines, 3)
	require.Equal(t, int64(1999), quote.Lines[0].AmountCents)
}

func TestBuildQuoteAnnualMultipliesLines(t *testing.T) {
	quote, err := pricing.BuildQuote([]pricing.Item{
		{Kind: pricing.LinePlan, Description: "Starter", MonthlyCents: 1000},
		{Kind: pricing.LineAddOn, Description: "SSL", MonthlyCents: 250},
	}, pricing.CycleAnnually, 1600, "MXN")
	require.NoError(t, err)

	require.Equal(t, int64(15000), quote.SubtotalCents)
	require.Equal(t, int64(12000), quote.Lines[0].AmountCents)
	require.Equal(t, int64(3000), quote.Lines[1].AmountCents)
	require.Equal(t, quote.SubtotalCents+quote.TaxCents, quote.TotalCents)
}

func TestBuildQuoteRejectsUnknownCycle(t *testing.T) {
	_, err := pricing.BuildQuote([]pricing.Item{
		{Kind: pricing.LinePlan, Description: "Starter", MonthlyCents: 1000},
	}, pricing.BillingCycle("weekly"), 1600, "MXN")
	require.ErrorIs(t, err, pricing.ErrInvalidCycle)
}

func TestComputeTaxRoundsHalfUp(t *testing.T) {
	cases := []struct {
		name     string
		subtotal int64
		rateBps  int64
		want     int64
	}{
		{"sixteen_percent", 2499, 1600, 400},
		{"rounds_up", 1235, 1600, 198},   // 197.60 -> 198
		{"rounds_down", 1253, 1600, 200}, // 200.48 -> 200
		{"exact", 1200, 1600, 192},
		{"zero_rate", 2499, 0, 0},
		{"zero_subtotal", 0, 1600, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, pricing.ComputeTax(tc.subtotal, tc.rateBps))
		})
	}
}

func TestBuildQuoteQuarterly(t *testing.T) {
	quote, err := pricing.BuildQuote([]pricing.Item{
		{Kind: pricing.LinePlan, Description: "Pro", MonthlyCents: 4999},
	}, pricing.CycleQuarterly, 1600, "MXN")
	require.NoError(t, err)
	require.Equal(t, int64(14997), quote.SubtotalCents)
	require.Equal(t, int64(2400), quote.TaxCents)
	require.Equal(t, int64(17397), quote.TotalCents)
}
