package transactions

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-ledger/pkg/enums"
	"github.com/angelmondragon/storefront-ledger/pkg/money"
)

// NetAmount is the settlement left after gateway fee, platform fee and tax.
// It is not clamped: a refund can settle below zero.
func NetAmount(amount, gatewayFee, platformFee, tax decimal.Decimal) decimal.Decimal {
	return money.Sub(amount, gatewayFee, platformFee, tax)
}

// EntersCompleted reports whether a write moves a transaction into completed.
// An empty prev stands for a transaction that did not exist yet.
func EntersCompleted(prev, next enums.TransactionStatus) bool {
	return prev != enums.TransactionStatusCompleted && next == enums.TransactionStatusCompleted
}
