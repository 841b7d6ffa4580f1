package currencies

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCurrencyInput describes a new store currency. IsActive defaults to true
// and DecimalPlaces to money.DefaultScale.
type CreateCurrencyInput struct {
	StoreID        uuid.UUID       `json:"store_id"`
	Code           string          `json:"code" validate:"required,iso4217"`
	Name           string          `json:"name" validate:"required,max=64"`
	Symbol         *string         `json:"symbol" validate:"omitempty,max=8"`
	DecimalPlaces  *int            `json:"decimal_places" validate:"omitempty,scale"`
	ExchangeRate   decimal.Decimal `json:"exchange_rate"`
	RateSource     *string         `json:"rate_source"`
	RateProvider   *string         `json:"rate_provider"`
	IsActive       *bool           `json:"is_active"`
	IsDefault      bool            `json:"is_default"`
	IsBaseCurrency bool            `json:"is_base_currency"`
}

// UpdateCurrencyInput patches a currency. Nil fields keep their stored value.
type UpdateCurrencyInput struct {
	CurrencyID     uuid.UUID        `json:"id"`
	Name           *string          `json:"name" validate:"omitempty,min=1,max=64"`
	Symbol         *string          `json:"symbol" validate:"omitempty,max=8"`
	DecimalPlaces  *int             `json:"decimal_places" validate:"omitempty,scale"`
	ExchangeRate   *decimal.Decimal `json:"exchange_rate"`
	RateSource     *string          `json:"rate_source"`
	RateProvider   *string          `json:"rate_provider"`
	IsActive       *bool            `json:"is_active"`
	IsDefault      *bool            `json:"is_default"`
	IsBaseCurrency *bool            `json:"is_base_currency"`
}

// ConvertInput asks for amount in From to be expressed in To within a store.
type ConvertInput struct {
	StoreID uuid.UUID       `json:"store_id"`
	Amount  decimal.Decimal `json:"amount"`
	From    string          `json:"from" validate:"required,iso4217"`
	To      string          `json:"to" validate:"required,iso4217"`
}

// Conversion is the result of Convert. Amount is rounded to the target
// currency's decimal places.
type Conversion struct {
	Amount   decimal.Decimal
	From     string
	To       string
	FromRate decimal.Decimal
	ToRate   decimal.Decimal
}

// RateUpdate is one entry of a bulk rate refresh.
type RateUpdate struct {
	Code     string
	Rate     decimal.Decimal
	Source   *string
	Provider *string
}

// PruneResult summarizes a retention pass.
type PruneResult struct {
	Stores     int
	Currencies int
	Entries    int
}
