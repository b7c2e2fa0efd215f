package payments

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mathotech/autopartshub-backend/api/middleware"
	"github.com/mathotech/autopartshub-backend/api/responses"
	internalpayments "github.com/mathotech/autopartshub-backend/internal/payments"
	pkgerrors "github.com/mathotech/autopartshub-backend/pkg/errors"
	"github.com/mathotech/autopartshub-backend/pkg/logger"
)

// Initiate returns a signed gateway redirect for the buyer's pending order.
func Initiate(svc *internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		rawUser := middleware.UserIDFromContext(r.Context())
		if rawUser == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}
		buyerID, err := uuid.Parse(rawUser)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		rawOrderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
		if rawOrderID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}
		orderID, err := uuid.Parse(rawOrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		redirect, err := svc.Initiate(r.Context(), internalpayments.InitiateInput{
			OrderID: orderID,
			BuyerID: buyerID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, redirect)
	}
}

// Return acknowledges the buyer landing back from the gateway after payment.
// Informational only: order state changes exclusively through the webhook.
func Return(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if logg != nil {
			logg.Info(r.Context(), "buyer returned from payment gateway")
		}
		responses.WriteSuccess(w, map[string]string{
			"message": "Payment is being processed. Your order will update once the gateway confirms it.",
		})
	}
}

// Cancel acknowledges the buyer aborting payment at the gateway. The order
// stays in PENDING_PAYMENT; the buyer can retry or the expiry job reaps it.
func Cancel(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if logg != nil {
			logg.Info(r.Context(), "buyer cancelled at payment gateway")
		}
		responses.WriteSuccess(w, map[string]string{
			"message": "Payment was cancelled. Your order is still awaiting payment.",
		})
	}
}
