package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mathotech/autopartshub-backend/internal/orders"
	pkgerrors "github.com/mathotech/autopartshub-backend/pkg/errors"
	"github.com/mathotech/autopartshub-backend/pkg/logger"
	"github.com/mathotech/autopartshub-backend/pkg/metrics"
	"github.com/mathotech/autopartshub-backend/pkg/payfast"
)

// amountTolerance absorbs rounding drift between the gateway's gross amount
// and the stored order total. Anything beyond one cent is a mismatch.
var amountTolerance = decimal.New(1, -2)

// ReconcilerParams collects the reconciler dependencies.
type ReconcilerParams struct {
	Orders     orders.Service
	OrdersRepo orders.Repository
	Gateway    GatewayClient
	Guard      *IdempotencyGuard
	Metrics    *metrics.WebhookMetrics
	AllowedIPs []string
}

// Reconciler turns untrusted gateway notifications into order transitions.
// Every inbound notification walks an ordered guard chain; the first failing
// guard rejects without mutating anything.
type Reconciler struct {
	orders     orders.Service
	ordersRepo orders.Repository
	gateway    GatewayClient
	guard      *IdempotencyGuard
	metrics    *metrics.WebhookMetrics
	allowedIPs map[string]struct{}
	logger     *logger.Logger
}

// NewReconciler validates dependencies and returns a ready reconciler. An
// empty IP allow-list is accepted as an explicit degraded mode and logged.
func NewReconciler(params ReconcilerParams, logg *logger.Logger) (*Reconciler, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders service required")
	}
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway client required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "idempotency guard required")
	}

	allowed := make(map[string]struct{}, len(params.AllowedIPs))
	for _, ip := range params.AllowedIPs {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			allowed[ip] = struct{}{}
		}
	}
	if len(allowed) == 0 && logg != nil {
		logg.Warn(context.Background(), "payment notifier ip allow-list is empty, accepting notifications from any origin")
	}

	return &Reconciler{
		orders:     params.Orders,
		ordersRepo: params.OrdersRepo,
		gateway:    params.Gateway,
		guard:      params.Guard,
		metrics:    params.Metrics,
		allowedIPs: allowed,
		logger:     logg,
	}, nil
}

// Process runs the notification through the guard chain and reports whether
// it was acknowledged. A false return tells the transport layer to answer
// non-2xx so the gateway retries; rejections never mutate order state.
func (r *Reconciler) Process(ctx context.Context, clientIP string, fields map[string]string) bool {
	paymentID := strings.TrimSpace(fields[fieldPaymentID])
	orderRef := strings.TrimSpace(fields[fieldOrderID])
	if orderRef == "" {
		orderRef = strings.TrimSpace(fields["custom_str1"])
	}
	ctx = r.scope(ctx, paymentID, orderRef)

	if len(r.allowedIPs) > 0 {
		if _, ok := r.allowedIPs[clientIP]; !ok {
			return r.reject(ctx, "ip", fmt.Sprintf("notification from disallowed origin %s", clientIP))
		}
	}

	merchantID := strings.TrimSpace(fields[fieldMerchantID])
	amountRaw := strings.TrimSpace(fields[fieldAmountGross])
	if paymentID == "" || orderRef == "" || merchantID == "" || amountRaw == "" {
		return r.reject(ctx, "fields", "notification is missing required fields")
	}

	if merchantID != r.gateway.MerchantID() {
		return r.reject(ctx, "merchant", fmt.Sprintf("merchant id %s does not match configuration", merchantID))
	}

	if signature := strings.TrimSpace(fields[fieldSignature]); signature != "" {
		if !payfast.VerifySignature(fields, r.gateway.Passphrase(), signature) {
			return r.rejectErr(ctx, "signature",
				pkgerrors.New(pkgerrors.CodeVerificationFailed, "notification signature mismatch"))
		}
	}

	verified, err := r.gateway.Verify(ctx, map[string]string{
		fieldMerchantID:  r.gateway.MerchantID(),
		fieldMerchantKey: r.gateway.MerchantKey(),
		fieldPaymentID:   paymentID,
		fieldOrderID:     orderRef,
		fieldAmountGross: amountRaw,
	})
	if err != nil {
		if r.logger != nil {
			r.logger.Error(ctx, "gateway verification call failed", err)
		}
		return r.reject(ctx, "verify", "gateway verification unavailable")
	}
	if !verified {
		return r.rejectErr(ctx, "verify",
			pkgerrors.New(pkgerrors.CodeVerificationFailed, "gateway did not confirm the notification"))
	}

	orderID, err := uuid.Parse(orderRef)
	if err != nil {
		return r.reject(ctx, "order", fmt.Sprintf("order reference %q is not a valid id", orderRef))
	}
	order, err := r.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.reject(ctx, "order", "order does not exist")
		}
		if r.logger != nil {
			r.logger.Error(ctx, "loading order for reconciliation", err)
		}
		return r.reject(ctx, "order", "order lookup failed")
	}

	claimed, err := decimal.NewFromString(amountRaw)
	if err != nil {
		return r.reject(ctx, "amount", fmt.Sprintf("gross amount %q is not a number", amountRaw))
	}
	if claimed.Sub(order.Total).Abs().GreaterThan(amountTolerance) {
		return r.rejectErr(ctx, "amount", pkgerrors.New(pkgerrors.CodeAmountMismatch,
			fmt.Sprintf("gross amount %s differs from order total %s", claimed.StringFixed(2), order.Total.StringFixed(2))))
	}

	status := strings.ToUpper(strings.TrimSpace(fields[fieldStatus]))
	switch status {
	case StatusComplete:
		return r.applyComplete(ctx, orderID, paymentID)
	case StatusFailed:
		// A failed payment is not an order cancellation; the order stays in
		// PENDING_PAYMENT until the buyer retries or the expiry job reaps it.
		r.accept(ctx, status, "payment failure acknowledged without order mutation")
		return true
	default:
		r.accept(ctx, status, "unhandled payment status acknowledged without order mutation")
		return true
	}
}

func (r *Reconciler) applyComplete(ctx context.Context, orderID uuid.UUID, paymentID string) bool {
	duplicate, err := r.guard.CheckAndMark(ctx, paymentID)
	if err != nil {
		// The order service re-checks payment state under a row lock, so a
		// guard outage degrades to that slower path instead of rejecting.
		if r.logger != nil {
			r.logger.Error(ctx, "idempotency guard unavailable, relying on order state", err)
		}
		duplicate = false
	}
	if duplicate {
		// The mark alone does not prove the payment landed: a retry can
		// arrive while the first delivery is still in flight, or after it
		// failed and unmarked. Only a paid order earns the fast ack;
		// otherwise fall through to the row-locked path, which applies or
		// no-ops safely.
		order, loadErr := r.ordersRepo.FindByID(ctx, orderID)
		if loadErr == nil && order.Status.IsPaidOrLater() {
			r.accept(ctx, StatusComplete, "duplicate delivery acknowledged")
			return true
		}
	}

	outcome, _, err := r.orders.CompletePayment(ctx, orderID, paymentID)
	if err != nil {
		r.unmark(ctx, paymentID)
		if r.logger != nil {
			r.logger.Error(ctx, "applying payment completion", err)
		}
		return r.reject(ctx, "apply", "payment completion failed")
	}

	switch outcome {
	case orders.PaymentOrderClosed:
		// Money arrived for an order the system already closed. Keep
		// rejecting so the gateway keeps retrying and the case stays visible
		// for manual reconciliation.
		r.unmark(ctx, paymentID)
		return r.reject(ctx, "terminal", "payment received for a closed order")
	case orders.PaymentAlreadyApplied:
		r.accept(ctx, StatusComplete, "payment already reflected on order")
		return true
	default:
		r.accept(ctx, StatusComplete, "payment applied")
		return true
	}
}

func (r *Reconciler) accept(ctx context.Context, status, msg string) {
	r.metrics.IncAccepted(status)
	if r.logger != nil {
		r.logger.Info(ctx, msg)
	}
}

func (r *Reconciler) reject(ctx context.Context, stage, msg string) bool {
	r.metrics.IncRejected(stage)
	if r.logger != nil {
		r.logger.Warn(r.logger.WithField(ctx, "stage", stage), msg)
	}
	return false
}

// rejectErr is reject for the trust-boundary guards, carrying a typed error
// so the code lands in the log record.
func (r *Reconciler) rejectErr(ctx context.Context, stage string, err error) bool {
	r.metrics.IncRejected(stage)
	if r.logger != nil {
		r.logger.Error(r.logger.WithField(ctx, "stage", stage), "notification rejected", err)
	}
	return false
}

func (r *Reconciler) unmark(ctx context.Context, paymentID string) {
	if err := r.guard.Delete(ctx, paymentID); err != nil && r.logger != nil {
		r.logger.Error(ctx, "clearing idempotency mark", err)
	}
}

func (r *Reconciler) scope(ctx context.Context, paymentID, orderRef string) context.Context {
	if r.logger == nil {
		return ctx
	}
	fields := map[string]any{}
	if paymentID != "" {
		fields["payment_id"] = paymentID
	}
	if orderRef != "" {
		fields["order_id"] = orderRef
	}
	if len(fields) == 0 {
		return ctx
	}
	return r.logger.WithFields(ctx, fields)
}
