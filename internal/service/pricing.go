package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PricingPolicy derives tax and shipping from an order subtotal.
type PricingPolicy interface {
	Assess(subtotal decimal.Decimal) (tax, shipping decimal.Decimal)
}

type zeroPolicy struct{}

func (zeroPolicy) Assess(decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	return decimal.Zero, decimal.Zero
}

// ZeroPolicy charges no tax and no shipping.
func ZeroPolicy() PricingPolicy {
	return zeroPolicy{}
}

// FlatPolicy applies a proportional tax rate and a flat shipping fee.
type FlatPolicy struct {
	TaxRate     decimal.Decimal
	ShippingFee decimal.Decimal
}

func (p FlatPolicy) Assess(subtotal decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	return subtotal.Mul(p.TaxRate).Round(2), p.ShippingFee
}

// NewFlatPolicy builds a FlatPolicy from decimal strings, typically straight
// from config. Returns ZeroPolicy when both are zero.
func NewFlatPolicy(taxRate, shippingFee string) (PricingPolicy, error) {
	rate, err := decimal.NewFromString(taxRate)
	if err != nil {
		return nil, fmt.Errorf("invalid tax rate %q: %w", taxRate, err)
	}
	fee, err := decimal.NewFromString(shippingFee)
	if err != nil {
		return nil, fmt.Errorf("invalid shipping fee %q: %w", shippingFee, err)
	}
	if rate.IsZero() && fee.IsZero() {
		return ZeroPolicy(), nil
	}
	return FlatPolicy{TaxRate: rate, ShippingFee: fee}, nil
}

// PricedItem pairs an authoritative unit price with a requested quantity.
type PricedItem struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals holds the monetary breakdown of an order.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// CalculateTotals computes subtotal = Σ(price × quantity) in exact decimal
// arithmetic, then applies the policy. Quantities must already be validated
// positive; a non-positive quantity here fails with ErrInvalidQuantity.
func CalculateTotals(items []PricedItem, policy PricingPolicy) (Totals, error) {
	if policy == nil {
		policy = ZeroPolicy()
	}

	subtotal := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 {
			return Totals{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, item.Quantity)
		}
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	tax, shipping := policy.Assess(subtotal)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}, nil
}
