package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mathotech/autopartshub-backend/pkg/enums"
)

// Order represents a buyer purchase spanning one or more listings.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber string            `gorm:"column:order_number;not null;uniqueIndex"`
	BuyerID     uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null;index"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null;default:'PENDING_PAYMENT'"`

	Subtotal    decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ShippingFee decimal.Decimal `gorm:"column:shipping_fee;type:numeric(12,2);not null"`
	TaxAmount   decimal.Decimal `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	Total       decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`

	ShippingAddress string  `gorm:"column:shipping_address;not null"`
	ShippingCity    string  `gorm:"column:shipping_city;not null"`
	ShippingRegion  *string `gorm:"column:shipping_region"`
	ShippingPostal  *string `gorm:"column:shipping_postal"`
	ContactPhone    *string `gorm:"column:contact_phone"`
	ContactEmail    string  `gorm:"column:contact_email;not null"`

	PaymentRef     *string    `gorm:"column:payment_transaction_id;uniqueIndex"`
	TrackingNumber *string    `gorm:"column:tracking_number"`
	PaymentAt      *time.Time `gorm:"column:payment_at"`
	ShippedAt      *time.Time `gorm:"column:shipped_at"`
	DeliveredAt    *time.Time `gorm:"column:delivered_at"`
	CancelledAt    *time.Time `gorm:"column:cancelled_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
