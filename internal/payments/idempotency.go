package payments

import (
	"context"
	"strings"
	"time"

	pkgerrors "github.com/mathotech/autopartshub-backend/pkg/errors"
	"github.com/mathotech/autopartshub-backend/pkg/redis"
)

// IdempotencyGuard deduplicates gateway notifications by payment event id so
// retried deliveries short-circuit before touching the order row.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
}

// NewIdempotencyGuard builds a guard backed by the shared redis store.
func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration, scope string) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "idempotency store required")
	}
	if ttl <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency ttl must be positive")
	}
	if strings.TrimSpace(scope) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency scope required")
	}
	return &IdempotencyGuard{store: store, ttl: ttl, scope: scope}, nil
}

// CheckAndMark records the event id and reports whether it was already seen.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if strings.TrimSpace(eventID) == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	set, err := g.store.SetNX(ctx, g.store.IdempotencyKey(g.scope, eventID), "1", g.ttl)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking event id")
	}
	return !set, nil
}

// Delete clears the mark so a failed application can be retried by the gateway.
func (g *IdempotencyGuard) Delete(ctx context.Context, eventID string) error {
	if strings.TrimSpace(eventID) == "" {
		return nil
	}
	if err := g.store.Del(ctx, g.store.IdempotencyKey(g.scope, eventID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing event id")
	}
	return nil
}
