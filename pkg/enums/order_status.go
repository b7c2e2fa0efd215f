package enums

import "fmt"

// OrderStatus tracks the lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPendingPayment   OrderStatus = "PENDING_PAYMENT"
	OrderStatusPaymentCompleted OrderStatus = "PAYMENT_COMPLETED"
	OrderStatusProcessing       OrderStatus = "PROCESSING"
	OrderStatusShipped          OrderStatus = "SHIPPED"
	OrderStatusDelivered        OrderStatus = "DELIVERED"
	OrderStatusCancelled        OrderStatus = "CANCELLED"
	OrderStatusRefunded         OrderStatus = "REFUNDED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPendingPayment,
	OrderStatusPaymentCompleted,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsPaidOrLater reports whether the status reflects a settled payment.
func (o OrderStatus) IsPaidOrLater() bool {
	switch o {
	case OrderStatusPaymentCompleted, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is permitted.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusCancelled || o == OrderStatusRefunded
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
