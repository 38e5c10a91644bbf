package enums

import "fmt"

// PaymentStatus tracks the payment state attached to an order. It moves
// independently of OrderStatus; a refunded payment does not by itself
// cancel fulfillment.
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

var paymentStatuses = map[PaymentStatus]struct{}{
	PaymentStatusPending:           {},
	PaymentStatusPaid:              {},
	PaymentStatusFailed:            {},
	PaymentStatusRefunded:          {},
	PaymentStatusPartiallyRefunded: {},
}

func (p PaymentStatus) String() string { return string(p) }

func (p PaymentStatus) IsValid() bool {
	_, ok := paymentStatuses[p]
	return ok
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	status := PaymentStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid payment status %q", value)
	}
	return status, nil
}
