package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mathotech/autopartshub-backend/internal/orders"
	"github.com/mathotech/autopartshub-backend/internal/users"
	"github.com/mathotech/autopartshub-backend/pkg/config"
	"github.com/mathotech/autopartshub-backend/pkg/enums"
	pkgerrors "github.com/mathotech/autopartshub-backend/pkg/errors"
	"github.com/mathotech/autopartshub-backend/pkg/logger"
)

// GatewayClient is the payment gateway surface the payment flows depend on.
// *payfast.Client satisfies it.
type GatewayClient interface {
	MerchantID() string
	MerchantKey() string
	Passphrase() string
	BuildRedirect(params map[string]string) (string, error)
	Verify(ctx context.Context, params map[string]string) (bool, error)
}

// Callback paths appended to the service base URL for the gateway redirects.
const (
	ReturnPath = "/api/payments/return"
	CancelPath = "/api/payments/cancel"
	NotifyPath = "/api/webhooks/payfast"
)

// Service builds signed gateway redirects for pending orders.
type Service struct {
	ordersRepo orders.Repository
	usersRepo  users.Repository
	gateway    GatewayClient
	baseURL    string
	logger     *logger.Logger
}

// NewService builds the payment initiation service.
func NewService(ordersRepo orders.Repository, usersRepo users.Repository, gateway GatewayClient, app config.AppConfig, logg *logger.Logger) (*Service, error) {
	if ordersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if usersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway client required")
	}
	if strings.TrimSpace(app.BaseURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "service base url required")
	}
	return &Service{
		ordersRepo: ordersRepo,
		usersRepo:  usersRepo,
		gateway:    gateway,
		baseURL:    strings.TrimRight(app.BaseURL, "/"),
		logger:     logg,
	}, nil
}

// Initiate validates ownership and state, then returns the signed redirect
// the buyer should follow. Order status is never mutated here; only the
// webhook reconciler moves an order to PAYMENT_COMPLETED.
func (s *Service) Initiate(ctx context.Context, input InitiateInput) (*Redirect, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}

	order, err := s.ordersRepo.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	if order.BuyerID != input.BuyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to buyer")
	}
	if order.Status != enums.OrderStatusPendingPayment {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition,
			fmt.Sprintf("order is not awaiting payment, status is %s", order.Status))
	}

	buyer, err := s.usersRepo.FindByID(ctx, input.BuyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "buyer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading buyer")
	}

	params := map[string]string{
		fieldMerchantID:  s.gateway.MerchantID(),
		fieldMerchantKey: s.gateway.MerchantKey(),
		"return_url":     s.baseURL + ReturnPath,
		"cancel_url":     s.baseURL + CancelPath,
		"notify_url":     s.baseURL + NotifyPath,
		fieldOrderID:     order.ID.String(),
		"amount":         order.Total.StringFixed(2),
		"item_name":      "Order " + order.OrderNumber,
		"name_first":     buyer.FirstName,
		"name_last":      buyer.LastName,
		"email_address":  order.ContactEmail,
		"custom_str1":    order.ID.String(),
	}

	redirectURL, err := s.gateway.BuildRedirect(params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "building gateway redirect")
	}

	if s.logger != nil {
		s.logger.Info(s.logger.WithOrderID(ctx, order.ID.String()), "payment redirect issued")
	}
	return &Redirect{PaymentURL: redirectURL, PaymentID: order.ID.String()}, nil
}
