package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-ledger/pkg/enums"
)

// LineItemInput describes a line item to attach to an order.
type LineItemInput struct {
	ProductID      *uuid.UUID
	SKU            *string
	Name           string
	UnitPrice      decimal.Decimal
	Quantity       int
	DiscountAmount decimal.Decimal
	Status         enums.LineItemStatus
}

// CreateOrderInput carries a new order and its initial items.
type CreateOrderInput struct {
	StoreID        uuid.UUID
	ExternalID     *string
	OrderNumber    string
	Status         enums.OrderStatus
	PaymentStatus  enums.PaymentStatus
	TaxAmount      decimal.Decimal
	ShippingAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	CurrencyCode   string
	Items          []LineItemInput
}

// UpdateOrderInput patches an order. Nil fields are left untouched.
type UpdateOrderInput struct {
	OrderID        uuid.UUID
	Status         *enums.OrderStatus
	PaymentStatus  *enums.PaymentStatus
	TaxAmount      *decimal.Decimal
	ShippingAmount *decimal.Decimal
	DiscountAmount *decimal.Decimal
}

// AddLineItemInput attaches one item to an existing order.
type AddLineItemInput struct {
	OrderID uuid.UUID
	Item    LineItemInput
}

// UpdateLineItemInput patches a line item. Nil fields are left untouched.
type UpdateLineItemInput struct {
	LineItemID     uuid.UUID
	Name           *string
	UnitPrice      *decimal.Decimal
	Quantity       *int
	DiscountAmount *decimal.Decimal
	Status         *enums.LineItemStatus
}
