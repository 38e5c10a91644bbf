package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/miguelsandoval/storefront-backend/pkg/enums"
	"github.com/miguelsandoval/storefront-backend/pkg/types"
)

// Order is the immutable record produced when a cart is checked out. Item
// lines snapshot product data so later catalog edits never rewrite history.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber      string              `gorm:"column:order_number;not null;uniqueIndex"`
	UserID           uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status           enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	PaymentStatus    enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	Subtotal         decimal.Decimal     `gorm:"column:subtotal;type:numeric(10,2);not null"`
	TaxAmount        decimal.Decimal     `gorm:"column:tax_amount;type:numeric(10,2);not null"`
	ShippingAmount   decimal.Decimal     `gorm:"column:shipping_amount;type:numeric(10,2);not null"`
	DiscountAmount   decimal.Decimal     `gorm:"column:discount_amount;type:numeric(10,2);not null;default:0"`
	TotalAmount      decimal.Decimal     `gorm:"column:total_amount;type:numeric(10,2);not null"`
	ShippingAddress  types.Address       `gorm:"embedded;embeddedPrefix:shipping_"`
	BillingAddress   types.Address       `gorm:"embedded;embeddedPrefix:billing_"`
	CustomerName     string              `gorm:"column:customer_name;not null"`
	CustomerEmail    string              `gorm:"column:customer_email;not null"`
	CustomerPhone    *string             `gorm:"column:customer_phone"`
	PaymentMethod    *string             `gorm:"column:payment_method"`
	PaymentReference *string             `gorm:"column:payment_reference"`
	ShippingMethod   *string             `gorm:"column:shipping_method"`
	TrackingNumber   *string             `gorm:"column:tracking_number"`
	Notes            *string             `gorm:"column:notes"`
	AdminNotes       *string             `gorm:"column:admin_notes"`
	ShippedAt        *time.Time          `gorm:"column:shipped_at"`
	DeliveredAt      *time.Time          `gorm:"column:delivered_at"`
	Items            []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
