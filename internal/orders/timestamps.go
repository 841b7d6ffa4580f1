package orders

import (
	"time"

	"github.com/angelmondragon/storefront-ledger/pkg/db/models"
	"github.com/angelmondragon/storefront-ledger/pkg/enums"
)

// StampTransitions sets the date field for every watched status edge that
// next enters relative to prev. A nil prev means the order is being created.
// An edge fires only when the field moves into its target value, so a
// re-entry overwrites the earlier stamp and leaving a status never clears it.
// The returned column names are the ones that were stamped.
func StampTransitions(prev, next *models.Order, now time.Time) []string {
	if next == nil {
		return nil
	}

	var prevStatus enums.OrderStatus
	var prevPayment enums.PaymentStatus
	if prev != nil {
		prevStatus = prev.Status
		prevPayment = prev.PaymentStatus
	}

	at := now.UTC()
	var stamped []string

	if entered(string(prevPayment), string(next.PaymentStatus), string(enums.PaymentStatusPaid)) {
		next.PaymentDate = timePtr(at)
		stamped = append(stamped, "payment_date")
	}
	if entered(string(prevStatus), string(next.Status), string(enums.OrderStatusShipped)) {
		next.ShippedDate = timePtr(at)
		stamped = append(stamped, "shipped_date")
	}
	if entered(string(prevStatus), string(next.Status), string(enums.OrderStatusDelivered)) {
		next.DeliveredDate = timePtr(at)
		stamped = append(stamped, "delivered_date")
	}
	if entered(string(prevStatus), string(next.Status), string(enums.OrderStatusCancelled)) {
		next.CancelledDate = timePtr(at)
		stamped = append(stamped, "cancelled_date")
	}
	return stamped
}

func entered(from, to, target string) bool {
	return from != target && to == target
}

func timePtr(t time.Time) *time.Time {
	return &t
}
