package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/miguelsandoval/storefront-backend/api/middleware"
	"github.com/miguelsandoval/storefront-backend/api/responses"
	"github.com/miguelsandoval/storefront-backend/api/validators"
	cartsvc "github.com/miguelsandoval/storefront-backend/internal/cart"
	"github.com/miguelsandoval/storefront-backend/internal/identity"
	pkgerrors "github.com/miguelsandoval/storefront-backend/pkg/errors"
	"github.com/miguelsandoval/storefront-backend/pkg/logger"
)

// Fetch returns the caller's active cart, creating one on first touch.
func Fetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetOrCreateActive(r.Context(), caller)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// AddItem adds or merges a product line on the caller's cart.
func AddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.AddItem(r.Context(), caller, toAddItemInput(payload))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(record))
	}
}

// UpdateItem sets the absolute quantity on an existing line.
func UpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload UpdateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.UpdateItemQuantity(r.Context(), caller, itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// RemoveItem deletes one line from the caller's cart.
func RemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.RemoveItem(r.Context(), caller, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// Clear removes every line from the caller's cart.
func Clear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Clear(r.Context(), caller)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record))
	}
}

func callerFromRequest(r *http.Request) (identity.Caller, error) {
	caller := middleware.CallerFromContext(r.Context())
	if !caller.IsValid() {
		return identity.Caller{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity missing")
	}
	return caller, nil
}

func parseItemID(r *http.Request) (uuid.UUID, error) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id")
	}
	return itemID, nil
}
