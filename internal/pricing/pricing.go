// Package pricing computes order quotes. All amounts are integer cents;
// rounding happens once, at the tax step.
package pricing

import (
	"errors"
	"strings"
)

// BillingCycle is the contract term selected at order time.
type BillingCycle string

const (
	CycleMonthly   BillingCycle = "monthly"
	CycleQuarterly BillingCycle = "quarterly"
	CycleAnnually  BillingCycle = "annually"
)

var cycleMonths = map[BillingCycle]int64{
	CycleMonthly:   1,
	CycleQuarterly: 3,
	CycleAnnually:  12,
}

var (
	ErrInvalidCycle    = errors.New("invalid_billing_cycle")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidTaxRate  = errors.New("invalid_tax_rate")
	ErrInvalidCurrency = errors.New("invalid_currency")
)

// LineKind distinguishes the plan line from add-on lines on a quote.
type LineKind string

const (
	LinePlan  LineKind = "plan"
	LineAddOn LineKind = "addon"
)

// Line is one net line of a quote. UnitCents is the monthly price,
// AmountCents the price over the whole cycle.
type Line struct {
	Kind        LineKind `json:"kind"`
	Description string   `json:"description"`
	Quantity    int64    `json:"quantity"`
	UnitCents   int64    `json:"unit_cents"`
	AmountCents int64    `json:"amount_cents"`
}

// Quote is the priced order: net lines, subtotal, tax and grand total.
type Quote struct {
	Lines         []Line `json:"lines"`
	SubtotalCents int64  `json:"subtotal_cents"`
	TaxRateBps    int64  `json:"tax_rate_bps"`
	TaxCents      int64  `json:"tax_cents"`
	TotalCents    int64  `json:"total_cents"`
	Currency      string `json:"currency"`
}

// Item is a priced input: the plan itself or one selected add-on.
type Item struct {
	Kind         LineKind
	Description  string
	MonthlyCents int64
}

// CycleMonths returns the multiplier for a billing cycle.
func CycleMonths(cycle BillingCycle) (int64, error) {
	months, ok := cycleMonths[cycle]
	if !ok {
		return 0, ErrInvalidCycle
	}
	return months, nil
}

// ComputeTax applies a basis-point rate to a net subtotal, rounding half up.
func ComputeTax(subtotalCents, rateBps int64) int64 {
	if subtotalCents <= 0 || rateBps <= 0 {
		return 0
	}
	return (subtotalCents*rateBps + 5000) / 10000
}

// BuildQuote prices a plan plus selected add-ons over one billing cycle.
// The first item must be the plan line.
func BuildQuote(items []Item, cycle BillingCycle, taxRateBps int64, currency string) (Quote, error) {
	months, err := CycleMonths(cycle)
	if err != nil {
		return Quote{}, err
	}
	if taxRateBps < 0 || taxRateBps > 10000 {
		return Quote{}, ErrInvalidTaxRate
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return Quote{}, ErrInvalidCurrency
	}

	lines := make([]Line, 0, len(items))
	var subtotal int64
	for _, item := range items {
		if item.MonthlyCents < 0 {
			return Quote{}, ErrInvalidAmount
		}
		amount := item.MonthlyCents * months
		lines = append(lines, Line{
			Kind:        item.Kind,
			Description: item.Description,
			Quantity:    1,
			UnitCents:   item.MonthlyCents,
			AmountCents: amount,
		})
		subtotal += amount
	}

	tax := ComputeTax(subtotal, taxRateBps)
	return Quote{
		Lines:         lines,
		SubtotalCents: subtotal,
		TaxRateBps:    taxRateBps,
		TaxCents:      tax,
		TotalCents:    subtotal + tax,
		Currency:      currency,
	}, nil
}
