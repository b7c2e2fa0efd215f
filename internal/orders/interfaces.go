package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mathotech/autopartshub-backend/pkg/db/models"
	"github.com/mathotech/autopartshub-backend/pkg/pagination"
)

// Repository defines persistence operations for the order aggregate.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters ListFilters) (*List, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters ListFilters) (*List, error)
	ListAll(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error)
	FindPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
}
