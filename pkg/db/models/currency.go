package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-ledger/pkg/types"
)

// Currency is a store-scoped currency with its exchange rate relative to the
// store's base currency.
type Currency struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID        uuid.UUID         `gorm:"column:store_id;type:uuid;not null"`
	Code           string            `gorm:"column:code;type:char(3);not null"`
	Name           string            `gorm:"column:name;not null"`
	Symbol         *string           `gorm:"column:symbol"`
	DecimalPlaces  int               `gorm:"column:decimal_places;not null"`
	ExchangeRate   decimal.Decimal   `gorm:"column:exchange_rate;type:numeric(20,8);not null;default:1"`
	RateSource     *string           `gorm:"column:rate_source"`
	RateProvider   *string           `gorm:"column:rate_provider"`
	LastRateUpdate *time.Time        `gorm:"column:last_rate_update"`
	RateHistory    types.RateHistory `gorm:"column:rate_history;type:jsonb;not null;default:'[]'"`
	IsActive       bool              `gorm:"column:is_active;not null"`
	IsDefault      bool              `gorm:"column:is_default;not null;default:false"`
	IsBaseCurrency bool              `gorm:"column:is_base_currency;not null;default:false"`
	ActivatedAt    *time.Time        `gorm:"column:activated_at"`
	DeactivatedAt  *time.Time        `gorm:"column:deactivated_at"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Currency) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
