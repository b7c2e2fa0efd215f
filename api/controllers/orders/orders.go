package orders

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mathotech/autopartshub-backend/api/middleware"
	"github.com/mathotech/autopartshub-backend/api/responses"
	"github.com/mathotech/autopartshub-backend/api/validators"
	internalorders "github.com/mathotech/autopartshub-backend/internal/orders"
	"github.com/mathotech/autopartshub-backend/pkg/enums"
	pkgerrors "github.com/mathotech/autopartshub-backend/pkg/errors"
	"github.com/mathotech/autopartshub-backend/pkg/logger"
	"github.com/mathotech/autopartshub-backend/pkg/pagination"
)

// Create places a new order for the authenticated buyer.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]internalorders.ItemInput, 0, len(payload.Items))
		for _, item := range payload.Items {
			listingID, err := uuid.Parse(strings.TrimSpace(item.ListingID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing id"))
				return
			}
			items = append(items, internalorders.ItemInput{ListingID: listingID, Quantity: item.Quantity})
		}

		order, err := svc.Create(r.Context(), internalorders.CreateInput{
			BuyerID:         actor.UserID,
			Items:           items,
			ShippingAddress: payload.ShippingAddress,
			ShippingCity:    payload.ShippingCity,
			ShippingRegion:  payload.ShippingRegion,
			ShippingPostal:  payload.ShippingPostal,
			ContactPhone:    payload.ContactPhone,
			ContactEmail:    payload.ContactEmail,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// Detail returns the full order after checking the actor may view it.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// List returns the actor's order page: buyers see their own orders, sellers
// see orders containing their listings, admins see everything.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		filters, err := buildFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), actor, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// UpdateStatus requests a state transition on the order. Authority and graph
// legality are enforced by the order service.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid status %q", payload.Status)))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), internalorders.UpdateStatusInput{
			OrderID:        orderID,
			Target:         target,
			TrackingNumber: payload.TrackingNumber,
			Actor:          actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type createOrderRequest struct {
	Items           []createOrderItem `json:"items" validate:"required,min=1,dive"`
	ShippingAddress string            `json:"shipping_address" validate:"required"`
	ShippingCity    string            `json:"shipping_city" validate:"required"`
	ShippingRegion  *string           `json:"shipping_region,omitempty"`
	ShippingPostal  *string           `json:"shipping_postal,omitempty"`
	ContactPhone    *string           `json:"contact_phone,omitempty"`
	ContactEmail    string            `json:"contact_email" validate:"required,email"`
}

type createOrderItem struct {
	ListingID string `json:"listing_id" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type updateStatusRequest struct {
	Status         string  `json:"status" validate:"required"`
	TrackingNumber *string `json:"tracking_number,omitempty"`
}

func actorFromContext(r *http.Request) (internalorders.Actor, error) {
	rawUser := middleware.UserIDFromContext(r.Context())
	if rawUser == "" {
		return internalorders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(rawUser)
	if err != nil {
		return internalorders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return internalorders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor role")
	}
	return internalorders.UserActor(userID, role), nil
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return orderID, nil
}

func buildFilters(r *http.Request) (internalorders.ListFilters, error) {
	var filters internalorders.ListFilters

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid status %q", raw))
		}
		filters.Status = &status
	}

	dateFrom, err := parseDateParam(r.URL.Query().Get("date_from"), "date_from")
	if err != nil {
		return filters, err
	}
	filters.DateFrom = dateFrom

	dateTo, err := parseDateParam(r.URL.Query().Get("date_to"), "date_to")
	if err != nil {
		return filters, err
	}
	filters.DateTo = dateTo

	return filters, nil
}

func parseDateParam(value, field string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		t, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid %s", field))
		}
	}
	return &t, nil
}
