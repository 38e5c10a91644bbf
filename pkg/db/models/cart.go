package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/miguelsandoval/storefront-backend/pkg/enums"
)

// Cart is the live shopping cart for a user or a guest session. Exactly one
// of UserID and SessionToken is set. Totals are derived from the items and
// never persisted.
type Cart struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       *uuid.UUID       `gorm:"column:user_id;type:uuid"`
	SessionToken *string          `gorm:"column:session_token"`
	Status       enums.CartStatus `gorm:"column:status;not null;default:'active'"`
	Items        []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// TotalAmount sums the loaded line subtotals.
func (c Cart) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineSubtotal())
	}
	return total
}

// TotalItems sums the loaded line quantities.
func (c Cart) TotalItems() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the cart holds no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
