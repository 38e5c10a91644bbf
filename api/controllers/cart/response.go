package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/miguelsandoval/storefront-backend/pkg/db/models"
)

// CartResponse exposes the active cart with totals derived at read time.
type CartResponse struct {
	ID          uuid.UUID          `json:"id"`
	Status      string             `json:"status"`
	Items       []CartItemResponse `json:"items"`
	TotalItems  int                `json:"total_items"`
	TotalAmount string             `json:"total_amount"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type CartItemResponse struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	ProductSKU  string    `json:"product_sku,omitempty"`
	Quantity    int       `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	Options     *string   `json:"options,omitempty"`
	Subtotal    string    `json:"subtotal"`
}

func newCartResponse(record *models.Cart) CartResponse {
	items := make([]CartItemResponse, 0, len(record.Items))
	for _, line := range record.Items {
		item := CartItemResponse{
			ID:        line.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.StringFixed(2),
			Options:   line.Options,
			Subtotal:  line.LineSubtotal().StringFixed(2),
		}
		if line.Product != nil {
			item.ProductName = line.Product.Name
			item.ProductSKU = line.Product.SKU
		}
		items = append(items, item)
	}
	return CartResponse{
		ID:          record.ID,
		Status:      record.Status.String(),
		Items:       items,
		TotalItems:  record.TotalItems(),
		TotalAmount: record.TotalAmount().StringFixed(2),
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}
