package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem captures the snapshot of each listing within an order.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ListingID    uuid.UUID       `gorm:"column:listing_id;type:uuid;not null"`
	SellerID     uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index"`
	ListingTitle string          `gorm:"column:listing_title;not null"`
	Quantity     int             `gorm:"column:quantity;not null"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice   decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
