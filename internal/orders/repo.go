package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mathotech/autopartshub-backend/pkg/db/models"
	"github.com/mathotech/autopartshub-backend/pkg/enums"
	"github.com/mathotech/autopartshub-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindForUpdate loads the order with its items under a row lock so
// concurrent transitions on the same order serialize. SQLite has no
// FOR UPDATE; its writer lock serializes transactions instead.
func (r *repository) FindForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var order models.Order
	if err := q.Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters ListFilters) (*List, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).Where("buyer_id = ?", buyerID)
	return r.list(ctx, q, params, filters)
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters ListFilters) (*List, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id IN (?)", r.db.Model(&models.OrderItem{}).
			Select("order_id").
			Where("seller_id = ?", sellerID))
	return r.list(ctx, q, params, filters)
}

func (r *repository) ListAll(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	return r.list(ctx, q, params, filters)
}

func (r *repository) list(ctx context.Context, q *gorm.DB, params pagination.Params, filters ListFilters) (*List, error) {
	if filters.Status != nil {
		q = q.Where("status = ?", *filters.Status)
	}
	if filters.DateFrom != nil {
		q = q.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		q = q.Where("created_at <= ?", *filters.DateTo)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.Order
	err = q.Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &List{Orders: make([]Summary, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for _, row := range rows {
		list.Orders = append(list.Orders, summarize(row))
	}
	if hasMore {
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

func (r *repository) FindPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ? AND created_at < ?", enums.OrderStatusPendingPayment, cutoff).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
