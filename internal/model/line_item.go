package model

import (
	"github.com/shopspring/decimal"

	money "github.com/rezonia/afip-bill/internal/decimal"
)

// DefaultTaxRate is the IVA percentage applied to line items without a rate
var DefaultTaxRate = decimal.NewFromInt(21)

// LineItem represents a bill line item. Amounts are computed exactly;
// rounding is left to display.
type LineItem struct {
	Name      string           `json:"name"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	TaxRate   *decimal.Decimal `json:"tax_rate,omitempty"`
}

// NewLineItem creates a line item taxed at the default rate
func NewLineItem(name string, quantity, unitPrice decimal.Decimal) LineItem {
	return LineItem{
		Name:      name,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}
}

// WithTaxRate returns a copy taxed at rate
func (li LineItem) WithTaxRate(rate decimal.Decimal) LineItem {
	li.TaxRate = &rate
	return li
}

// WithDefaultRate returns a copy whose missing rate is replaced by rate
func (li LineItem) WithDefaultRate(rate decimal.Decimal) LineItem {
	if li.TaxRate != nil {
		return li
	}
	return li.WithTaxRate(rate)
}

// EffectiveTaxRate returns the rate used for tax computation
func (li LineItem) EffectiveTaxRate() decimal.Decimal {
	if li.TaxRate != nil {
		return *li.TaxRate
	}
	return DefaultTaxRate
}

// LineTotal = Quantity * UnitPrice
func (li LineItem) LineTotal() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

// TaxAmount = LineTotal * rate / 100
func (li LineItem) TaxAmount() decimal.Decimal {
	return money.Percent(li.LineTotal(), li.EffectiveTaxRate())
}

// TotalWithTax = LineTotal + TaxAmount
func (li LineItem) TotalWithTax() decimal.Decimal {
	return li.LineTotal().Add(li.TaxAmount())
}

// Totals aggregates line items
type Totals struct {
	Net   decimal.Decimal `json:"net"`
	Tax   decimal.Decimal `json:"tax"`
	Total decimal.Decimal `json:"total"`
}

// CalculateTotals sums the line items
func CalculateTotals(items []LineItem) Totals {
	totals := Totals{Net: decimal.Zero, Tax: decimal.Zero, Total: decimal.Zero}
	for _, li := range items {
		totals.Net = totals.Net.Add(li.LineTotal())
		totals.Tax = totals.Tax.Add(li.TaxAmount())
	}
	totals.Total = totals.Net.Add(totals.Tax)
	return totals
}
