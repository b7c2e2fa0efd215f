package orders

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mathotech/autopartshub-backend/pkg/db/models"
	"github.com/mathotech/autopartshub-backend/pkg/enums"
	pkgerrors "github.com/mathotech/autopartshub-backend/pkg/errors"
)

// Actor identifies who is requesting a transition. The system and
// payment-system capabilities can only be obtained through the constructors
// below, so external callers cannot forge them from request data.
type Actor struct {
	UserID        uuid.UUID
	Role          enums.UserRole
	system        bool
	paymentSystem bool
}

// UserActor builds an actor for an authenticated marketplace user.
func UserActor(userID uuid.UUID, role enums.UserRole) Actor {
	return Actor{UserID: userID, Role: role}
}

// SystemActor builds the internal maintenance identity. It bypasses role
// authority but remains bound to the transition graph.
func SystemActor() Actor {
	return Actor{system: true}
}

// PaymentSystemActor builds the reconciler's identity. It may only request
// PAYMENT_COMPLETED.
func PaymentSystemActor() Actor {
	return Actor{paymentSystem: true}
}

// IsSystem reports whether the actor carries the internal capability.
func (a Actor) IsSystem() bool {
	return a.system
}

// IsPaymentSystem reports whether the actor is the payment reconciler.
func (a Actor) IsPaymentSystem() bool {
	return a.paymentSystem
}

// transitionGraph is the static adjacency table of legal status moves.
var transitionGraph = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPendingPayment:   {enums.OrderStatusPaymentCompleted, enums.OrderStatusCancelled},
	enums.OrderStatusPaymentCompleted: {enums.OrderStatusProcessing, enums.OrderStatusCancelled, enums.OrderStatusRefunded},
	enums.OrderStatusProcessing:       {enums.OrderStatusShipped, enums.OrderStatusRefunded},
	enums.OrderStatusShipped:          {enums.OrderStatusDelivered, enums.OrderStatusRefunded},
	enums.OrderStatusDelivered:        {enums.OrderStatusRefunded},
	enums.OrderStatusCancelled:        {},
	enums.OrderStatusRefunded:         {},
}

// CanTransition reports whether the graph allows moving from one status to
// another. Requesting the current status is not a graph edge; callers treat
// it as a no-op before consulting the graph.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, allowed := range transitionGraph[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ownership decides whether the actor's relationship to the order satisfies
// the rule. Checked only for role-scoped actors.
type ownership func(actor Actor, order *models.Order) bool

func buyerOwns(actor Actor, order *models.Order) bool {
	return order.BuyerID == actor.UserID
}

func sellerHasItem(actor Actor, order *models.Order) bool {
	for _, item := range order.Items {
		if item.SellerID == actor.UserID {
			return true
		}
	}
	return false
}

func anyOrder(Actor, *models.Order) bool {
	return true
}

type authorityRule struct {
	targets map[enums.OrderStatus]bool
	owns    ownership
}

func targetSet(statuses ...enums.OrderStatus) map[enums.OrderStatus]bool {
	set := make(map[enums.OrderStatus]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return set
}

// roleAuthority is the data-driven authorization table keyed by actor role.
// PAYMENT_COMPLETED is deliberately absent from every role's target set; it
// is reachable only through the payment-system capability or admin.
var roleAuthority = map[enums.UserRole]authorityRule{
	enums.UserRoleBuyer: {
		targets: targetSet(enums.OrderStatusCancelled),
		owns:    buyerOwns,
	},
	enums.UserRoleSeller: {
		targets: targetSet(enums.OrderStatusProcessing, enums.OrderStatusShipped, enums.OrderStatusDelivered),
		owns:    sellerHasItem,
	},
	enums.UserRoleAdmin: {
		targets: targetSet(
			enums.OrderStatusPaymentCompleted,
			enums.OrderStatusProcessing,
			enums.OrderStatusShipped,
			enums.OrderStatusDelivered,
			enums.OrderStatusCancelled,
			enums.OrderStatusRefunded,
		),
		owns: anyOrder,
	},
}

// Authorize checks whether the actor may request the target status on this
// order. Graph legality is checked separately via CanTransition.
func Authorize(actor Actor, order *models.Order, target enums.OrderStatus) error {
	if actor.system {
		return nil
	}
	if actor.paymentSystem {
		if target != enums.OrderStatusPaymentCompleted {
			return pkgerrors.New(pkgerrors.CodeForbidden, "payment system may only complete payments")
		}
		return nil
	}

	rule, ok := roleAuthority[actor.Role]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown actor role")
	}
	if !rule.targets[target] {
		return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("role %s may not request status %s", actor.Role, target))
	}
	if !rule.owns(actor, order) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to actor")
	}
	return nil
}
