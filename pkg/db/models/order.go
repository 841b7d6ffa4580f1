package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-ledger/pkg/enums"
)

// Order is a storefront order synchronized from the commerce platform.
// Subtotal and Total are aggregate fields maintained by the orders service.
type Order struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID        uuid.UUID           `gorm:"column:store_id;type:uuid;not null"`
	ExternalID     *string             `gorm:"column:external_id"`
	OrderNumber    string              `gorm:"column:order_number;not null"`
	Status         enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentStatus  enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	Subtotal       decimal.Decimal     `gorm:"column:subtotal;type:numeric(14,2);not null;default:0"`
	TaxAmount      decimal.Decimal     `gorm:"column:tax_amount;type:numeric(14,2);not null;default:0"`
	ShippingAmount decimal.Decimal     `gorm:"column:shipping_amount;type:numeric(14,2);not null;default:0"`
	DiscountAmount decimal.Decimal     `gorm:"column:discount_amount;type:numeric(14,2);not null;default:0"`
	Total          decimal.Decimal     `gorm:"column:total;type:numeric(14,2);not null;default:0"`
	CurrencyCode   string              `gorm:"column:currency_code;type:char(3);not null;default:'USD'"`
	PaymentDate    *time.Time          `gorm:"column:payment_date"`
	ShippedDate    *time.Time          `gorm:"column:shipped_date"`
	DeliveredDate  *time.Time          `gorm:"column:delivered_date"`
	CancelledDate  *time.Time          `gorm:"column:cancelled_date"`
	Items          []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
