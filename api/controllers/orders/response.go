package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/miguelsandoval/storefront-backend/pkg/db/models"
	"github.com/miguelsandoval/storefront-backend/pkg/pagination"
	"github.com/miguelsandoval/storefront-backend/pkg/types"
)

// OrderResponse is the public view of an order.
type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	Status          string              `json:"status"`
	PaymentStatus   string              `json:"payment_status"`
	Subtotal        string              `json:"subtotal"`
	TaxAmount       string              `json:"tax_amount"`
	ShippingAmount  string              `json:"shipping_amount"`
	DiscountAmount  string              `json:"discount_amount"`
	TotalAmount     string              `json:"total_amount"`
	ShippingAddress AddressResponse     `json:"shipping_address"`
	BillingAddress  AddressResponse     `json:"billing_address"`
	CustomerName    string              `json:"customer_name"`
	CustomerEmail   string              `json:"customer_email"`
	CustomerPhone   *string             `json:"customer_phone,omitempty"`
	PaymentMethod   *string             `json:"payment_method,omitempty"`
	ShippingMethod  *string             `json:"shipping_method,omitempty"`
	TrackingNumber  *string             `json:"tracking_number,omitempty"`
	Notes           *string             `json:"notes,omitempty"`
	ShippedAt       *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time          `json:"delivered_at,omitempty"`
	Items           []OrderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
}

type AddressResponse struct {
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

type OrderItemResponse struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	ProductSKU  string    `json:"product_sku"`
	Quantity    int       `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	Options     *string   `json:"options,omitempty"`
	Subtotal    string    `json:"subtotal"`
}

// OrderPage wraps a paginated listing.
type OrderPage struct {
	Items  []OrderResponse `json:"items"`
	Total  int64           `json:"total"`
	Offset int             `json:"offset"`
	Limit  int             `json:"limit"`
}

// NewOrderResponse maps an order record to its public shape.
func NewOrderResponse(record *models.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(record.Items))
	for _, line := range record.Items {
		items = append(items, OrderItemResponse{
			ID:          line.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			ProductSKU:  line.ProductSKU,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice.StringFixed(2),
			Options:     line.Options,
			Subtotal:    line.Subtotal().StringFixed(2),
		})
	}
	return OrderResponse{
		ID:              record.ID,
		OrderNumber:     record.OrderNumber,
		Status:          record.Status.String(),
		PaymentStatus:   record.PaymentStatus.String(),
		Subtotal:        record.Subtotal.StringFixed(2),
		TaxAmount:       record.TaxAmount.StringFixed(2),
		ShippingAmount:  record.ShippingAmount.StringFixed(2),
		DiscountAmount:  record.DiscountAmount.StringFixed(2),
		TotalAmount:     record.TotalAmount.StringFixed(2),
		ShippingAddress: newAddressResponse(record.ShippingAddress),
		BillingAddress:  newAddressResponse(record.BillingAddress),
		CustomerName:    record.CustomerName,
		CustomerEmail:   record.CustomerEmail,
		CustomerPhone:   record.CustomerPhone,
		PaymentMethod:   record.PaymentMethod,
		ShippingMethod:  record.ShippingMethod,
		TrackingNumber:  record.TrackingNumber,
		Notes:           record.Notes,
		ShippedAt:       record.ShippedAt,
		DeliveredAt:     record.DeliveredAt,
		Items:           items,
		CreatedAt:       record.CreatedAt,
	}
}

// NewOrderPage maps a pagination page of orders.
func NewOrderPage(page *pagination.Page[models.Order]) OrderPage {
	items := make([]OrderResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, NewOrderResponse(&page.Items[i]))
	}
	return OrderPage{
		Items:  items,
		Total:  page.Total,
		Offset: page.Offset,
		Limit:  page.Limit,
	}
}

func newAddressResponse(addr types.Address) AddressResponse {
	return AddressResponse{
		Line1:      addr.Line1,
		Line2:      addr.Line2,
		City:       addr.City,
		State:      addr.State,
		PostalCode: addr.PostalCode,
		Country:    addr.Country,
	}
}
