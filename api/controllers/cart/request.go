package cart

import (
	"github.com/google/uuid"

	cartsvc "github.com/miguelsandoval/storefront-backend/internal/cart"
)

// AddItemRequest is the payload for POST /cart/items.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
	Options   *string   `json:"options" validate:"omitempty,max=500"`
}

// UpdateItemRequest sets the absolute quantity on a line.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

func toAddItemInput(payload AddItemRequest) cartsvc.AddItemInput {
	return cartsvc.AddItemInput{
		ProductID: payload.ProductID,
		Quantity:  payload.Quantity,
		Options:   payload.Options,
	}
}
