package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mathotech/autopartshub-backend/pkg/db/models"
	"github.com/mathotech/autopartshub-backend/pkg/enums"
)

// ItemInput is one (listing, quantity) pair of a placement request.
type ItemInput struct {
	ListingID uuid.UUID
	Quantity  int
}

// CreateInput carries everything needed to place an order.
type CreateInput struct {
	BuyerID         uuid.UUID
	Items           []ItemInput
	ShippingAddress string
	ShippingCity    string
	ShippingRegion  *string
	ShippingPostal  *string
	ContactPhone    *string
	ContactEmail    string
}

// UpdateStatusInput carries a requested transition plus the acting identity.
type UpdateStatusInput struct {
	OrderID        uuid.UUID
	Target         enums.OrderStatus
	TrackingNumber *string
	Actor          Actor
}

// ListFilters describe the inputs supported by the order lists.
type ListFilters struct {
	Status   *enums.OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// Summary exposes the aggregated fields returned in order lists.
type Summary struct {
	ID          uuid.UUID         `json:"id"`
	OrderNumber string            `json:"order_number"`
	Status      enums.OrderStatus `json:"status"`
	Total       decimal.Decimal   `json:"total"`
	TotalItems  int               `json:"total_items"`
	CreatedAt   time.Time         `json:"created_at"`
}

// List wraps the paginated orders plus the next page cursor.
type List struct {
	Orders     []Summary `json:"orders"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// PaymentOutcome reports what CompletePayment did with the order.
type PaymentOutcome string

const (
	// PaymentApplied means the order moved to PAYMENT_COMPLETED.
	PaymentApplied PaymentOutcome = "applied"
	// PaymentAlreadyApplied means the order already reflected the payment.
	PaymentAlreadyApplied PaymentOutcome = "already_applied"
	// PaymentOrderClosed means money arrived for a cancelled/refunded order.
	PaymentOrderClosed PaymentOutcome = "order_closed"
)

func summarize(order models.Order) Summary {
	totalItems := 0
	for _, item := range order.Items {
		totalItems += item.Quantity
	}
	return Summary{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Total:       order.Total,
		TotalItems:  totalItems,
		CreatedAt:   order.CreatedAt,
	}
}
