package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one product line in a cart. UnitPrice snapshots the product
// price at the time the line was added; Options distinguishes variants of
// the same product (size, color) as an opaque string.
type CartItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID    uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_items_dedupe,priority:1"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_items_dedupe,priority:2"`
	Product   *Product        `gorm:"foreignKey:ProductID"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Options   *string         `gorm:"column:options;uniqueIndex:idx_cart_items_dedupe,priority:3"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// LineSubtotal is the unit price times quantity.
func (i CartItem) LineSubtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
