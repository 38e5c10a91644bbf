package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product represents a storefront listing with its live stock counters.
type Product struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU               string           `gorm:"column:sku;not null;uniqueIndex"`
	Name              string           `gorm:"column:name;not null"`
	Description       *string          `gorm:"column:description"`
	CategoryID        *uuid.UUID       `gorm:"column:category_id;type:uuid"`
	Category          *Category        `gorm:"foreignKey:CategoryID"`
	Price             decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	CompareAtPrice    *decimal.Decimal `gorm:"column:compare_at_price;type:numeric(10,2)"`
	StockQuantity     int              `gorm:"column:stock_quantity;not null;default:0"`
	LowStockThreshold int              `gorm:"column:low_stock_threshold;not null;default:10"`
	TrackInventory    bool             `gorm:"column:track_inventory;not null;default:true"`
	AllowBackorder    bool             `gorm:"column:allow_backorder;not null;default:false"`
	Tags              pq.StringArray   `gorm:"column:tags;type:text[]"`
	IsActive          bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// IsLowStock reports whether the live counter has fallen to the threshold.
func (p Product) IsLowStock() bool {
	return p.TrackInventory && p.StockQuantity <= p.LowStockThreshold
}
