package orders

import (
	"testing"

	"github.com/google/uuid"

	"github.com/mathotech/autopartshub-backend/pkg/db/models"
	"github.com/mathotech/autopartshub-backend/pkg/enums"
	pkgerrors "github.com/mathotech/autopartshub-backend/pkg/errors"
)

var allStatuses = []enums.OrderStatus{
	enums.OrderStatusPendingPayment,
	enums.OrderStatusPaymentCompleted,
	enums.OrderStatusProcessing,
	enums.OrderStatusShipped,
	enums.OrderStatusDelivered,
	enums.OrderStatusCancelled,
	enums.OrderStatusRefunded,
}

func TestTransitionGraph(t *testing.T) {
	t.Parallel()

	legal := map[[2]enums.OrderStatus]bool{
		{enums.OrderStatusPendingPayment, enums.OrderStatusPaymentCompleted}:   true,
		{enums.OrderStatusPendingPayment, enums.OrderStatusCancelled}:          true,
		{enums.OrderStatusPaymentCompleted, enums.OrderStatusProcessing}:       true,
		{enums.OrderStatusPaymentCompleted, enums.OrderStatusCancelled}:        true,
		{enums.OrderStatusPaymentCompleted, enums.OrderStatusRefunded}:         true,
		{enums.OrderStatusProcessing, enums.OrderStatusShipped}:                true,
		{enums.OrderStatusProcessing, enums.OrderStatusRefunded}:               true,
		{enums.OrderStatusShipped, enums.OrderStatusDelivered}:                 true,
		{enums.OrderStatusShipped, enums.OrderStatusRefunded}:                  true,
		{enums.OrderStatusDelivered, enums.OrderStatusRefunded}:                true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := legal[[2]enums.OrderStatus{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTransitionGraph_TerminalStates(t *testing.T) {
	t.Parallel()

	for _, from := range []enums.OrderStatus{enums.OrderStatusCancelled, enums.OrderStatusRefunded} {
		for _, to := range allStatuses {
			if CanTransition(from, to) {
				t.Errorf("expected no transition out of %s, but %s allowed", from, to)
			}
		}
	}
}

func TestAuthorize_Buyer(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	order := &models.Order{BuyerID: buyerID}
	buyer := UserActor(buyerID, enums.UserRoleBuyer)

	if err := Authorize(buyer, order, enums.OrderStatusCancelled); err != nil {
		t.Fatalf("buyer should cancel own order: %v", err)
	}
	if err := Authorize(buyer, order, enums.OrderStatusShipped); !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("buyer should not ship, got %v", err)
	}
	if err := Authorize(buyer, order, enums.OrderStatusPaymentCompleted); !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("buyer should not complete payment, got %v", err)
	}

	stranger := UserActor(uuid.New(), enums.UserRoleBuyer)
	if err := Authorize(stranger, order, enums.OrderStatusCancelled); !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("stranger should not cancel, got %v", err)
	}
}

func TestAuthorize_Seller(t *testing.T) {
	t.Parallel()

	sellerID := uuid.New()
	order := &models.Order{
		BuyerID: uuid.New(),
		Items:   []models.OrderItem{{SellerID: sellerID}},
	}
	seller := UserActor(sellerID, enums.UserRoleSeller)

	for _, target := range []enums.OrderStatus{enums.OrderStatusProcessing, enums.OrderStatusShipped, enums.OrderStatusDelivered} {
		if err := Authorize(seller, order, target); err != nil {
			t.Fatalf("seller should request %s: %v", target, err)
		}
	}
	if err := Authorize(seller, order, enums.OrderStatusCancelled); !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("seller should not cancel, got %v", err)
	}

	otherSeller := UserActor(uuid.New(), enums.UserRoleSeller)
	if err := Authorize(otherSeller, order, enums.OrderStatusProcessing); !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("uninvolved seller should be rejected, got %v", err)
	}
}

func TestAuthorize_AdminAndSystem(t *testing.T) {
	t.Parallel()

	order := &models.Order{BuyerID: uuid.New()}
	admin := UserActor(uuid.New(), enums.UserRoleAdmin)
	for _, target := range allStatuses[1:] {
		if err := Authorize(admin, order, target); err != nil {
			t.Fatalf("admin should request %s: %v", target, err)
		}
	}

	system := SystemActor()
	if err := Authorize(system, order, enums.OrderStatusCancelled); err != nil {
		t.Fatalf("system actor should be unrestricted: %v", err)
	}
}

func TestAuthorize_PaymentSystem(t *testing.T) {
	t.Parallel()

	order := &models.Order{BuyerID: uuid.New()}
	actor := PaymentSystemActor()

	if err := Authorize(actor, order, enums.OrderStatusPaymentCompleted); err != nil {
		t.Fatalf("payment system should complete payments: %v", err)
	}
	for _, target := range []enums.OrderStatus{enums.OrderStatusCancelled, enums.OrderStatusShipped, enums.OrderStatusRefunded} {
		if err := Authorize(actor, order, target); !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
			t.Fatalf("payment system should not request %s, got %v", target, err)
		}
	}
}

func TestAuthorize_UnknownRole(t *testing.T) {
	t.Parallel()

	order := &models.Order{BuyerID: uuid.New()}
	ghost := UserActor(uuid.New(), enums.UserRole("GHOST"))
	if err := Authorize(ghost, order, enums.OrderStatusCancelled); !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("unknown role should be unauthorized, got %v", err)
	}
}
