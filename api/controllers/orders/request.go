package orders

import (
	"github.com/miguelsandoval/storefront-backend/internal/checkout"
	"github.com/miguelsandoval/storefront-backend/pkg/types"
)

// AddressRequest carries one shipping or billing address.
type AddressRequest struct {
	Line1      string  `json:"line1" validate:"required,max=200"`
	Line2      *string `json:"line2" validate:"omitempty,max=200"`
	City       string  `json:"city" validate:"required,max=100"`
	State      string  `json:"state" validate:"required,max=100"`
	PostalCode string  `json:"postal_code" validate:"required,max=20"`
	Country    string  `json:"country" validate:"omitempty,len=2"`
}

// CreateOrderRequest is the payload for POST /orders.
type CreateOrderRequest struct {
	ShippingAddress AddressRequest `json:"shipping_address" validate:"required"`
	BillingAddress  AddressRequest `json:"billing_address" validate:"required"`
	CustomerName    string         `json:"customer_name" validate:"required,max=200"`
	CustomerEmail   string         `json:"customer_email" validate:"required,email"`
	CustomerPhone   *string        `json:"customer_phone" validate:"omitempty,max=30"`
	PaymentMethod   *string        `json:"payment_method" validate:"omitempty,max=50"`
	ShippingMethod  *string        `json:"shipping_method" validate:"omitempty,max=50"`
	Notes           *string        `json:"notes" validate:"omitempty,max=1000"`
}

func toAddress(payload AddressRequest) types.Address {
	return types.Address{
		Line1:      payload.Line1,
		Line2:      payload.Line2,
		City:       payload.City,
		State:      payload.State,
		PostalCode: payload.PostalCode,
		Country:    payload.Country,
	}
}

func toCreateOrderInput(payload CreateOrderRequest) checkout.CreateOrderInput {
	return checkout.CreateOrderInput{
		ShippingAddress: toAddress(payload.ShippingAddress),
		BillingAddress:  toAddress(payload.BillingAddress),
		CustomerName:    payload.CustomerName,
		CustomerEmail:   payload.CustomerEmail,
		CustomerPhone:   payload.CustomerPhone,
		PaymentMethod:   payload.PaymentMethod,
		ShippingMethod:  payload.ShippingMethod,
		Notes:           payload.Notes,
	}
}
