package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mathotech/autopartshub-backend/api/controllers"
	ordercontrollers "github.com/mathotech/autopartshub-backend/api/controllers/orders"
	paymentcontrollers "github.com/mathotech/autopartshub-backend/api/controllers/payments"
	webhookcontrollers "github.com/mathotech/autopartshub-backend/api/controllers/webhooks"
	"github.com/mathotech/autopartshub-backend/api/middleware"
	"github.com/mathotech/autopartshub-backend/internal/notifications"
	"github.com/mathotech/autopartshub-backend/internal/orders"
	"github.com/mathotech/autopartshub-backend/internal/payments"
	"github.com/mathotech/autopartshub-backend/pkg/config"
	"github.com/mathotech/autopartshub-backend/pkg/db"
	"github.com/mathotech/autopartshub-backend/pkg/enums"
	"github.com/mathotech/autopartshub-backend/pkg/logger"
	"github.com/mathotech/autopartshub-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config               *config.Config
	Logger               *logger.Logger
	DB                   db.Pinger
	Redis                *redis.Client
	OrdersService        orders.Service
	PaymentsService      *payments.Service
	Reconciler           *payments.Reconciler
	NotificationsService notifications.Service
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DB, params.Redis))
	})

	// Unauthenticated gateway surface: trust is established inside the
	// reconciliation pipeline, not by auth middleware.
	r.Route("/api/webhooks", func(r chi.Router) {
		r.Post("/payfast", webhookcontrollers.PayFast(params.Reconciler, logg))
	})
	r.Route("/api/payments", func(r chi.Router) {
		r.Get("/return", paymentcontrollers.Return(logg))
		r.Get("/cancel", paymentcontrollers.Cancel(logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(params.OrdersService, logg))
			r.Get("/", ordercontrollers.List(params.OrdersService, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(params.OrdersService, logg))
			r.Patch("/{orderId}/status", ordercontrollers.UpdateStatus(params.OrdersService, logg))
			r.Post("/{orderId}/pay", paymentcontrollers.Initiate(params.PaymentsService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
			r.Get("/orders", ordercontrollers.List(params.OrdersService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(params.NotificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(params.NotificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(params.NotificationsService, logg))
		})
	})

	return r
}
