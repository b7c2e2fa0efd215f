package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mathotech/autopartshub-backend/pkg/logger"
)

const defaultPendingPaymentTTL = 72 * time.Hour

// pendingExpirer is the slice of the order service this job needs.
type pendingExpirer interface {
	ExpirePending(ctx context.Context, olderThan time.Duration) (int, error)
}

// ExpirePendingJob cancels orders stuck in PENDING_PAYMENT beyond the TTL.
// A failed or abandoned payment leaves the order pending and its stock
// reserved; this job returns that stock through the normal cancel transition.
type ExpirePendingJob struct {
	orders pendingExpirer
	ttl    time.Duration
	logg   *logger.Logger
}

// NewExpirePendingJob builds the reaper job.
func NewExpirePendingJob(orders pendingExpirer, ttl time.Duration, logg *logger.Logger) (*ExpirePendingJob, error) {
	if orders == nil {
		return nil, errors.New("orders service required")
	}
	if ttl <= 0 {
		ttl = defaultPendingPaymentTTL
	}
	return &ExpirePendingJob{orders: orders, ttl: ttl, logg: logg}, nil
}

// Name implements Job.
func (j *ExpirePendingJob) Name() string {
	return "expire_pending_orders"
}

// Run implements Job.
func (j *ExpirePendingJob) Run(ctx context.Context) error {
	expired, err := j.orders.ExpirePending(ctx, j.ttl)
	if err != nil {
		return fmt.Errorf("expiring pending orders: %w", err)
	}
	if j.logg != nil {
		j.logg.Info(j.logg.WithField(ctx, "expired", expired), "stale pending orders cancelled")
	}
	return nil
}
