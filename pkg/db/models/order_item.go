package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem snapshots one purchased line. ProductName, ProductSKU and
// UnitPrice are copied from the product at checkout time; ProductID is kept
// only as a pointer back to the catalog.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName string          `gorm:"column:product_name;not null"`
	ProductSKU  string          `gorm:"column:product_sku;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Options     *string         `gorm:"column:options"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// Subtotal is the unit price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
