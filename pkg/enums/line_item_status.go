package enums

import "fmt"

// LineItemStatus tracks fulfillment for a single order line.
type LineItemStatus string

const (
	LineItemStatusPending    LineItemStatus = "pending"
	LineItemStatusProcessing LineItemStatus = "processing"
	LineItemStatusFulfilled  LineItemStatus = "fulfilled"
	LineItemStatusCancelled  LineItemStatus = "cancelled"
	LineItemStatusRefunded   LineItemStatus = "refunded"
	LineItemStatusReturned   LineItemStatus = "returned"
)

var validLineItemStatuses = []LineItemStatus{
	LineItemStatusPending,
	LineItemStatusProcessing,
	LineItemStatusFulfilled,
	LineItemStatusCancelled,
	LineItemStatusRefunded,
	LineItemStatusReturned,
}

// String implements fmt.Stringer.
func (l LineItemStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LineItemStatus.
func (l LineItemStatus) IsValid() bool {
	for _, candidate := range validLineItemStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLineItemStatus converts raw input into a LineItemStatus.
func ParseLineItemStatus(value string) (LineItemStatus, error) {
	for _, candidate := range validLineItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid line item status %q", value)
}
