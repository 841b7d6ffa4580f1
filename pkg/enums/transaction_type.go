package enums

import "fmt"

// TransactionType classifies a money movement recorded against a store.
type TransactionType string

const (
	TransactionTypePayment       TransactionType = "payment"
	TransactionTypeRefund        TransactionType = "refund"
	TransactionTypePartialRefund TransactionType = "partial_refund"
	TransactionTypeChargeback    TransactionType = "chargeback"
	TransactionTypeFee           TransactionType = "fee"
	TransactionTypeCommission    TransactionType = "commission"
	TransactionTypeAdjustment    TransactionType = "adjustment"
	TransactionTypeTransfer      TransactionType = "transfer"
	TransactionTypeWithdrawal    TransactionType = "withdrawal"
)

var validTransactionTypes = []TransactionType{
	TransactionTypePayment,
	TransactionTypeRefund,
	TransactionTypePartialRefund,
	TransactionTypeChargeback,
	TransactionTypeFee,
	TransactionTypeCommission,
	TransactionTypeAdjustment,
	TransactionTypeTransfer,
	TransactionTypeWithdrawal,
}

// String implements fmt.Stringer.
func (t TransactionType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TransactionType.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionType converts raw input into a TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
