package orders

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-ledger/pkg/db/models"
	"github.com/angelmondragon/storefront-ledger/pkg/money"
)

// Totals are the aggregate monetary fields owned by an order.
type Totals struct {
	Subtotal decimal.Decimal
	Total    decimal.Decimal
}

// LineItemTotal is unit_price * quantity - discount, floored at zero.
func LineItemTotal(unitPrice decimal.Decimal, quantity int, discount decimal.Decimal) decimal.Decimal {
	return money.ClampNonNegative(money.Sub(money.Mul(unitPrice, quantity), discount))
}

// ComputeTotals sums the stored total_price of every item and applies the
// order level tax, shipping and discount. Both results are floored at zero.
func ComputeTotals(order *models.Order, items []models.OrderLineItem) Totals {
	subtotal := money.Zero
	for _, item := range items {
		subtotal = money.Add(subtotal, item.TotalPrice)
	}
	subtotal = money.ClampNonNegative(subtotal)

	total := money.Sub(money.Add(subtotal, order.TaxAmount, order.ShippingAmount), order.DiscountAmount)
	return Totals{
		Subtotal: subtotal,
		Total:    money.ClampNonNegative(total),
	}
}

// Matches reports whether the order already carries these totals.
func (t Totals) Matches(order *models.Order) bool {
	return order.Subtotal.Equal(t.Subtotal) && order.Total.Equal(t.Total)
}

func (t Totals) updates() map[string]any {
	return map[string]any{
		"subtotal": t.Subtotal,
		"total":    t.Total,
	}
}

func (t Totals) apply(order *models.Order) {
	order.Subtotal = t.Subtotal
	order.Total = t.Total
}
