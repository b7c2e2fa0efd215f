package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Listing represents a seller's sale offer for a part.
type Listing struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SellerID    uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index"`
	Title       string          `gorm:"column:title;not null"`
	Description *string         `gorm:"column:description"`
	PartNumber  *string         `gorm:"column:part_number"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity    int             `gorm:"column:quantity;not null;default:0"`
	IsActive    bool            `gorm:"column:is_active;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
