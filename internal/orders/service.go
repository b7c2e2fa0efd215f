package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/mathotech/autopartshub-backend/internal/inventory"
	"github.com/mathotech/autopartshub-backend/pkg/config"
	"github.com/mathotech/autopartshub-backend/pkg/db/models"
	"github.com/mathotech/autopartshub-backend/pkg/enums"
	pkgerrors "github.com/mathotech/autopartshub-backend/pkg/errors"
	"github.com/mathotech/autopartshub-backend/pkg/logger"
	"github.com/mathotech/autopartshub-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// NotificationSink receives fire-and-forget order events. Implementations
// must swallow and log their own failures; the order transaction has already
// committed by the time these run.
type NotificationSink interface {
	OrderCreated(ctx context.Context, order *models.Order)
	ListingSold(ctx context.Context, sellerID uuid.UUID, order *models.Order)
	OrderStatusUpdated(ctx context.Context, order *models.Order)
	PaymentReceived(ctx context.Context, order *models.Order)
}

// Service defines the order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error)
	List(ctx context.Context, actor Actor, params pagination.Params, filters ListFilters) (*List, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	CompletePayment(ctx context.Context, orderID uuid.UUID, paymentRef string) (PaymentOutcome, *models.Order, error)
	ExpirePending(ctx context.Context, olderThan time.Duration) (int, error)
}

type service struct {
	repo        Repository
	tx          txRunner
	sink        NotificationSink
	logger      *logger.Logger
	taxRate     decimal.Decimal
	shippingFee decimal.Decimal
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, sink NotificationSink, cfg config.OrdersConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if sink == nil {
		return nil, fmt.Errorf("notification sink required")
	}
	taxRate, err := cfg.TaxRate()
	if err != nil {
		return nil, err
	}
	shippingFee, err := cfg.ShippingFee()
	if err != nil {
		return nil, err
	}
	return &service{
		repo:        repo,
		tx:          tx,
		sink:        sink,
		logger:      logg,
		taxRate:     taxRate,
		shippingFee: shippingFee,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	if strings.TrimSpace(input.ShippingAddress) == "" || strings.TrimSpace(input.ShippingCity) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address and city are required")
	}
	if strings.TrimSpace(input.ContactEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact email is required")
	}

	requests := make([]inventory.Request, 0, len(input.Items))
	for _, item := range input.Items {
		requests = append(requests, inventory.Request{ListingID: item.ListingID, Qty: item.Quantity})
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		reservations, err := inventory.Reserve(ctx, tx, requests)
		if err != nil {
			return err
		}

		subtotal := decimal.Zero
		items := make([]models.OrderItem, 0, len(reservations))
		for _, res := range reservations {
			line := res.UnitPrice.Mul(decimal.NewFromInt(int64(res.Qty)))
			subtotal = subtotal.Add(line)
			items = append(items, models.OrderItem{
				ID:           uuid.New(),
				ListingID:    res.ListingID,
				SellerID:     res.SellerID,
				ListingTitle: res.Title,
				Quantity:     res.Qty,
				UnitPrice:    res.UnitPrice,
				TotalPrice:   line,
			})
		}

		tax := subtotal.Mul(s.taxRate).Round(2)
		total := subtotal.Add(s.shippingFee).Add(tax)

		order = &models.Order{
			ID:              uuid.New(),
			OrderNumber:     newOrderNumber(),
			BuyerID:         input.BuyerID,
			Status:          enums.OrderStatusPendingPayment,
			Subtotal:        subtotal,
			ShippingFee:     s.shippingFee,
			TaxAmount:       tax,
			Total:           total,
			ShippingAddress: input.ShippingAddress,
			ShippingCity:    input.ShippingCity,
			ShippingRegion:  input.ShippingRegion,
			ShippingPostal:  input.ShippingPostal,
			ContactPhone:    input.ContactPhone,
			ContactEmail:    input.ContactEmail,
			Items:           items,
		}
		_, err = s.repo.WithTx(tx).CreateOrder(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sink.OrderCreated(ctx, order)
	for _, sellerID := range distinctSellers(order.Items) {
		s.sink.ListingSold(ctx, sellerID, order)
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	if !canView(actor, order) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to actor")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, actor Actor, params pagination.Params, filters ListFilters) (*List, error) {
	switch {
	case actor.IsSystem(), actor.Role == enums.UserRoleAdmin:
		return s.repo.ListAll(ctx, params, filters)
	case actor.Role == enums.UserRoleSeller:
		return s.repo.ListBySeller(ctx, actor.UserID, params, filters)
	case actor.Role == enums.UserRoleBuyer:
		return s.repo.ListByBuyer(ctx, actor.UserID, params, filters)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown actor role")
	}
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", input.Target))
	}

	var (
		order   *models.Order
		changed bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindForUpdate(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
		}
		order = loaded

		if err := Authorize(input.Actor, order, input.Target); err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("order is closed in status %s", order.Status))
		}
		if order.Status == input.Target {
			return nil
		}
		if !CanTransition(order.Status, input.Target) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot transition from %s to %s", order.Status, input.Target))
		}

		changed = true
		return applyTransition(ctx, tx, repo, order, input.Target, input.TrackingNumber, "")
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.sink.OrderStatusUpdated(ctx, order)
	}
	return order, nil
}

func (s *service) CompletePayment(ctx context.Context, orderID uuid.UUID, paymentRef string) (PaymentOutcome, *models.Order, error) {
	if orderID == uuid.Nil {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if strings.TrimSpace(paymentRef) == "" {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}

	var (
		order   *models.Order
		outcome PaymentOutcome
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
		}
		order = loaded

		// Re-checked under the row lock: a concurrent delivery of the same
		// payment event resolves here even if both passed earlier guards.
		if order.Status.IsPaidOrLater() {
			outcome = PaymentAlreadyApplied
			return nil
		}
		if order.Status.IsTerminal() {
			outcome = PaymentOrderClosed
			return nil
		}

		actor := PaymentSystemActor()
		if err := Authorize(actor, order, enums.OrderStatusPaymentCompleted); err != nil {
			return err
		}
		if !CanTransition(order.Status, enums.OrderStatusPaymentCompleted) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot complete payment from %s", order.Status))
		}

		outcome = PaymentApplied
		return applyTransition(ctx, tx, repo, order, enums.OrderStatusPaymentCompleted, nil, paymentRef)
	})
	if err != nil {
		return "", nil, err
	}

	if outcome == PaymentApplied {
		s.sink.PaymentReceived(ctx, order)
		s.sink.OrderStatusUpdated(ctx, order)
	}
	return outcome, order, nil
}

func (s *service) ExpirePending(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	stale, err := s.repo.FindPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing stale pending orders")
	}

	expired := 0
	var errs []error
	for _, candidate := range stale {
		_, err := s.UpdateStatus(ctx, UpdateStatusInput{
			OrderID: candidate.ID,
			Target:  enums.OrderStatusCancelled,
			Actor:   SystemActor(),
		})
		if err != nil {
			// An order paid between the scan and the cancel is expected to
			// fail the transition; skip it and keep going. Anything else is
			// surfaced after the sweep finishes.
			if pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition) || pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
				if s.logger != nil {
					s.logger.Warn(s.logger.WithOrderID(ctx, candidate.ID.String()), "skipping stale order cancel: "+err.Error())
				}
				continue
			}
			errs = append(errs, fmt.Errorf("cancel order %s: %w", candidate.ID, err))
			continue
		}
		expired++
	}
	return expired, multierr.Combine(errs...)
}

// applyTransition stamps the target status and its side effects onto the
// order inside the caller's transaction. The caller has already checked
// graph legality and authority.
func applyTransition(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, target enums.OrderStatus, trackingNumber *string, paymentRef string) error {
	now := time.Now().UTC()
	updates := map[string]any{"status": target}

	switch target {
	case enums.OrderStatusPaymentCompleted:
		updates["payment_at"] = now
		order.PaymentAt = &now
		if paymentRef != "" {
			updates["payment_transaction_id"] = paymentRef
			order.PaymentRef = &paymentRef
		}
	case enums.OrderStatusShipped:
		updates["shipped_at"] = now
		order.ShippedAt = &now
		if trackingNumber != nil {
			updates["tracking_number"] = *trackingNumber
			order.TrackingNumber = trackingNumber
		}
	case enums.OrderStatusDelivered:
		updates["delivered_at"] = now
		order.DeliveredAt = &now
	case enums.OrderStatusCancelled:
		updates["cancelled_at"] = now
		order.CancelledAt = &now
		for _, item := range order.Items {
			if err := inventory.Release(ctx, tx, item.ListingID, item.Quantity); err != nil {
				return err
			}
		}
	}

	if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order status")
	}
	order.Status = target
	return nil
}

func canView(actor Actor, order *models.Order) bool {
	if actor.IsSystem() || actor.Role == enums.UserRoleAdmin {
		return true
	}
	if actor.Role == enums.UserRoleBuyer {
		return buyerOwns(actor, order)
	}
	if actor.Role == enums.UserRoleSeller {
		return sellerHasItem(actor, order)
	}
	return false
}

func distinctSellers(items []models.OrderItem) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(items))
	sellers := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if seen[item.SellerID] {
			continue
		}
		seen[item.SellerID] = true
		sellers = append(sellers, item.SellerID)
	}
	return sellers
}

func newOrderNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "APH-" + strings.ToUpper(raw[:12])
}
