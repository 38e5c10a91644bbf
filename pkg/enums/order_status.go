package enums

import "fmt"

// OrderStatus tracks an order through fulfillment, from pending at checkout
// through delivery, cancellation, or refund.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

var orderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:    {},
	OrderStatusConfirmed:  {},
	OrderStatusProcessing: {},
	OrderStatusShipped:    {},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
}

func (o OrderStatus) String() string { return string(o) }

func (o OrderStatus) IsValid() bool {
	_, ok := orderStatuses[o]
	return ok
}

// IsCancellable reports whether a customer may still cancel an order in this
// status. Once an order ships it is past the point of no return.
func (o OrderStatus) IsCancellable() bool {
	switch o {
	case OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return false
	}
	return true
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	status := OrderStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid order status %q", value)
	}
	return status, nil
}
