package enums

import "fmt"

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationTypeOrderCreated       NotificationType = "ORDER_CREATED"
	NotificationTypeOrderStatusUpdated NotificationType = "ORDER_STATUS_UPDATED"
	NotificationTypeListingSold        NotificationType = "LISTING_SOLD"
	NotificationTypePaymentReceived    NotificationType = "PAYMENT_RECEIVED"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderCreated,
	NotificationTypeOrderStatusUpdated,
	NotificationTypeListingSold,
	NotificationTypePaymentReceived,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
