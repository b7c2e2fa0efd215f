package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mathotech/autopartshub-backend/pkg/db/models"
	"github.com/mathotech/autopartshub-backend/pkg/enums"
	pkgerrors "github.com/mathotech/autopartshub-backend/pkg/errors"
	"github.com/mathotech/autopartshub-backend/pkg/logger"
)

// Sink persists order lifecycle notifications. Every method is
// fire-and-forget: the triggering transaction has already committed, so
// failures are logged and swallowed rather than surfaced.
type Sink struct {
	repo   Repository
	logger *logger.Logger
}

// NewSink builds the notification sink.
func NewSink(repo Repository, logg *logger.Logger) (*Sink, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &Sink{repo: repo, logger: logg}, nil
}

// OrderCreated notifies the buyer that their order was placed.
func (s *Sink) OrderCreated(ctx context.Context, order *models.Order) {
	s.create(ctx, order.BuyerID, enums.NotificationTypeOrderCreated,
		"Order placed",
		fmt.Sprintf("Order %s was placed and is awaiting payment.", order.OrderNumber),
		orderLink(order))
}

// ListingSold notifies a seller that one of their listings is in a new order.
func (s *Sink) ListingSold(ctx context.Context, sellerID uuid.UUID, order *models.Order) {
	s.create(ctx, sellerID, enums.NotificationTypeListingSold,
		"New order received",
		fmt.Sprintf("Order %s contains one of your listings.", order.OrderNumber),
		orderLink(order))
}

// OrderStatusUpdated notifies the buyer that the order moved to a new status.
func (s *Sink) OrderStatusUpdated(ctx context.Context, order *models.Order) {
	s.create(ctx, order.BuyerID, enums.NotificationTypeOrderStatusUpdated,
		"Order status updated",
		fmt.Sprintf("Order %s is now %s.", order.OrderNumber, order.Status),
		orderLink(order))
}

// PaymentReceived notifies the buyer that their payment cleared.
func (s *Sink) PaymentReceived(ctx context.Context, order *models.Order) {
	s.create(ctx, order.BuyerID, enums.NotificationTypePaymentReceived,
		"Payment received",
		fmt.Sprintf("Payment for order %s was received.", order.OrderNumber),
		orderLink(order))
}

func (s *Sink) create(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string, link *string) {
	notification := &models.Notification{
		ID:      uuid.New(),
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
		Link:    link,
	}
	if err := s.repo.Create(ctx, notification); err != nil && s.logger != nil {
		s.logger.Error(ctx, "writing notification", err)
	}
}

func orderLink(order *models.Order) *string {
	link := "/orders/" + order.ID.String()
	return &link
}
