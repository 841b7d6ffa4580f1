package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-ledger/pkg/enums"
)

// OrderLineItem is a single product line on an order. TotalPrice is derived
// from UnitPrice, Quantity and DiscountAmount.
type OrderLineItem struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID            `gorm:"column:order_id;type:uuid;not null"`
	StoreID        uuid.UUID            `gorm:"column:store_id;type:uuid;not null"`
	ProductID      *uuid.UUID           `gorm:"column:product_id;type:uuid"`
	SKU            *string              `gorm:"column:sku"`
	Name           string               `gorm:"column:name;not null"`
	UnitPrice      decimal.Decimal      `gorm:"column:unit_price;type:numeric(14,2);not null"`
	Quantity       int                  `gorm:"column:quantity;not null"`
	DiscountAmount decimal.Decimal      `gorm:"column:discount_amount;type:numeric(14,2);not null;default:0"`
	TotalPrice     decimal.Decimal      `gorm:"column:total_price;type:numeric(14,2);not null"`
	Status         enums.LineItemStatus `gorm:"column:status;type:line_item_status;not null;default:'pending'"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *OrderLineItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
