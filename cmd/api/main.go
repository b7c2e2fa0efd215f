package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mathotech/autopartshub-backend/api/routes"
	"github.com/mathotech/autopartshub-backend/internal/notifications"
	"github.com/mathotech/autopartshub-backend/internal/orders"
	"github.com/mathotech/autopartshub-backend/internal/payments"
	"github.com/mathotech/autopartshub-backend/internal/users"
	"github.com/mathotech/autopartshub-backend/pkg/config"
	"github.com/mathotech/autopartshub-backend/pkg/db"
	"github.com/mathotech/autopartshub-backend/pkg/logger"
	"github.com/mathotech/autopartshub-backend/pkg/metrics"
	"github.com/mathotech/autopartshub-backend/pkg/migrate"
	"github.com/mathotech/autopartshub-backend/pkg/payfast"
	"github.com/mathotech/autopartshub-backend/pkg/redis"
)

const idempotencyScope = "payfast"

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	ordersRepo := orders.NewRepository(dbClient.DB())
	usersRepo := users.NewRepository(dbClient.DB())

	notificationsRepo := notifications.NewRepository(dbClient.DB())
	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	sink, err := notifications.NewSink(notificationsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification sink", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo, dbClient, sink, cfg.Orders, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	gateway, err := payfast.NewClient(cfg.PayFast, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway client", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(ordersRepo, usersRepo, gateway, cfg.App, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	guard, err := payments.NewIdempotencyGuard(redisClient, cfg.Orders.PendingPaymentTTL, idempotencyScope)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency guard", err)
		os.Exit(1)
	}

	reconciler, err := payments.NewReconciler(payments.ReconcilerParams{
		Orders:     ordersService,
		OrdersRepo: ordersRepo,
		Gateway:    gateway,
		Guard:      guard,
		Metrics:    metrics.NewWebhookMetrics(prometheus.DefaultRegisterer),
		AllowedIPs: cfg.PayFast.AllowedIPs,
	}, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment reconciler", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:               cfg,
			Logger:               logg,
			DB:                   dbClient,
			Redis:                redisClient,
			OrdersService:        ordersService,
			PaymentsService:      paymentsService,
			Reconciler:           reconciler,
			NotificationsService: notificationsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
