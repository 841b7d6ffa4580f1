package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-ledger/pkg/enums"
)

// Transaction records a money movement for a store, optionally tied to an order.
type Transaction struct {
	ID           uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID      uuid.UUID               `gorm:"column:store_id;type:uuid;not null"`
	OrderID      *uuid.UUID              `gorm:"column:order_id;type:uuid"`
	ExternalID   *string                 `gorm:"column:external_id"`
	Type         enums.TransactionType   `gorm:"column:type;type:transaction_type;not null"`
	Status       enums.TransactionStatus `gorm:"column:status;type:transaction_status;not null;default:'pending'"`
	Amount       decimal.Decimal         `gorm:"column:amount;type:numeric(14,2);not null"`
	GatewayFee   decimal.Decimal         `gorm:"column:gateway_fee;type:numeric(14,2);not null;default:0"`
	PlatformFee  decimal.Decimal         `gorm:"column:platform_fee;type:numeric(14,2);not null;default:0"`
	TaxAmount    decimal.Decimal         `gorm:"column:tax_amount;type:numeric(14,2);not null;default:0"`
	NetAmount    decimal.Decimal         `gorm:"column:net_amount;type:numeric(14,2);not null"`
	CurrencyCode string                  `gorm:"column:currency_code;type:char(3);not null;default:'USD'"`
	Gateway      *string                 `gorm:"column:gateway"`
	ProcessedAt  *time.Time              `gorm:"column:processed_at"`
	IsReconciled bool                    `gorm:"column:is_reconciled;not null;default:false"`
	ReconciledAt *time.Time              `gorm:"column:reconciled_at"`
	CreatedAt    time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
