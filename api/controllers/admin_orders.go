package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	ordersctl "github.com/miguelsandoval/storefront-backend/api/controllers/orders"
	"github.com/miguelsandoval/storefront-backend/api/responses"
	"github.com/miguelsandoval/storefront-backend/api/validators"
	internalorders "github.com/miguelsandoval/storefront-backend/internal/orders"
	"github.com/miguelsandoval/storefront-backend/pkg/enums"
	pkgerrors "github.com/miguelsandoval/storefront-backend/pkg/errors"
	"github.com/miguelsandoval/storefront-backend/pkg/logger"
	"github.com/miguelsandoval/storefront-backend/pkg/pagination"
)

// AdminStatusRequest is the back-office order status payload.
type AdminStatusRequest struct {
	Status         string  `json:"status" validate:"required"`
	PaymentStatus  *string `json:"payment_status" validate:"omitempty"`
	TrackingNumber *string `json:"tracking_number" validate:"omitempty,max=100"`
	AdminNotes     *string `json:"admin_notes" validate:"omitempty,max=1000"`
}

// AdminListOrders returns every order, optionally filtered by status.
func AdminListOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filter internalorders.AdminFilter
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filter.Status = &status
		}

		page, err := svc.AdminList(r.Context(), filter, pagination.Params{Offset: offset, Limit: limit})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ordersctl.NewOrderPage(page))
	}
}

// AdminGetOrder returns any order by id, regardless of owner.
func AdminGetOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		record, err := svc.AdminGet(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ordersctl.NewOrderResponse(record))
	}
}

// AdminSetOrderStatus applies an operator status update to any order.
func AdminSetOrderStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		var payload AdminStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		input := internalorders.AdminStatusInput{
			Status:         status,
			TrackingNumber: payload.TrackingNumber,
			AdminNotes:     payload.AdminNotes,
		}
		if payload.PaymentStatus != nil {
			paymentStatus, err := enums.ParsePaymentStatus(*payload.PaymentStatus)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status"))
				return
			}
			input.PaymentStatus = &paymentStatus
		}

		record, err := svc.AdminSetStatus(r.Context(), orderID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ordersctl.NewOrderResponse(record))
	}
}
