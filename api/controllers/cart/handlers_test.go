package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miguelsandoval/storefront-backend/api/middleware"
	cartsvc "github.com/miguelsandoval/storefront-backend/internal/cart"
	"github.com/miguelsandoval/storefront-backend/internal/identity"
	"github.com/miguelsandoval/storefront-backend/pkg/db/models"
	"github.com/miguelsandoval/storefront-backend/pkg/enums"
	pkgerrors "github.com/miguelsandoval/storefront-backend/pkg/errors"
	"github.com/miguelsandoval/storefront-backend/pkg/types"
)

type stubCartService struct {
	cart       *models.Cart
	err        error
	lastCaller identity.Caller
	lastInput  cartsvc.AddItemInput
	lastItemID uuid.UUID
	lastQty    int
}

func (s *stubCartService) GetOrCreateActive(_ context.Context, caller identity.Caller) (*models.Cart, error) {
	s.lastCaller = caller
	return s.cart, s.err
}

func (s *stubCartService) AddItem(_ context.Context, caller identity.Caller, input cartsvc.AddItemInput) (*models.Cart, error) {
	s.lastCaller = caller
	s.lastInput = input
	return s.cart, s.err
}

func (s *stubCartService) UpdateItemQuantity(_ context.Context, caller identity.Caller, itemID uuid.UUID, quantity int) (*models.Cart, error) {
	s.lastCaller = caller
	s.lastItemID = itemID
	s.lastQty = quantity
	return s.cart, s.err
}

func (s *stubCartService) RemoveItem(_ context.Context, caller identity.Caller, itemID uuid.UUID) (*models.Cart, error) {
	s.lastCaller = caller
	s.lastItemID = itemID
	return s.cart, s.err
}

func (s *stubCartService) Clear(_ context.Context, caller identity.Caller) (*models.Cart, error) {
	s.lastCaller = caller
	return s.cart, s.err
}

func newRouter(svc cartsvc.Service) http.Handler {
	r := chi.NewRouter()
	r.Get("/cart", Fetch(svc, nil))
	r.Post("/cart/items", AddItem(svc, nil))
	r.Put("/cart/items/{itemId}", UpdateItem(svc, nil))
	r.Delete("/cart/items/{itemId}", RemoveItem(svc, nil))
	r.Delete("/cart", Clear(svc, nil))
	return r
}

func sampleCart() *models.Cart {
	options := "size=M"
	return &models.Cart{
		ID:     uuid.New(),
		Status: enums.CartStatusActive,
		Items: []models.CartItem{
			{
				ID:        uuid.New(),
				ProductID: uuid.New(),
				Quantity:  2,
				UnitPrice: decimal.RequireFromString("19.99"),
				Options:   &options,
				Product:   &models.Product{Name: "Trail Mug", SKU: "MUG-01"},
			},
		},
	}
}

func decodeCart(t *testing.T, body *bytes.Buffer) CartResponse {
	t.Helper()
	var envelope struct {
		Data CartResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&envelope))
	return envelope.Data
}

func TestFetchReturnsCallerCart(t *testing.T) {
	svc := &stubCartService{cart: sampleCart()}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req = req.WithContext(middleware.WithSessionToken(req.Context(), "guest-token"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	got := decodeCart(t, w.Body)
	assert.Equal(t, svc.cart.ID, got.ID)
	assert.Equal(t, "active", got.Status)
	assert.Equal(t, 2, got.TotalItems)
	assert.Equal(t, "39.98", got.TotalAmount)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Trail Mug", got.Items[0].ProductName)
	assert.Equal(t, "19.99", got.Items[0].UnitPrice)

	require.NotNil(t, svc.lastCaller.SessionToken)
	assert.Equal(t, "guest-token", *svc.lastCaller.SessionToken)
}

func TestFetchRejectsMissingIdentity(t *testing.T) {
	router := newRouter(&stubCartService{cart: sampleCart()})

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAddItemCreatesLine(t *testing.T) {
	svc := &stubCartService{cart: sampleCart()}
	router := newRouter(svc)
	userID := uuid.New()
	productID := uuid.New()

	payload := fmt.Sprintf(`{"product_id":%q,"quantity":3}`, productID)
	req := httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewBufferString(payload))
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, productID, svc.lastInput.ProductID)
	assert.Equal(t, 3, svc.lastInput.Quantity)
	require.NotNil(t, svc.lastCaller.UserID)
	assert.Equal(t, userID, *svc.lastCaller.UserID)
}

func TestAddItemRejectsInvalidPayload(t *testing.T) {
	router := newRouter(&stubCartService{cart: sampleCart()})

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"product_id":`},
		{name: "missing product", body: `{"quantity":1}`},
		{name: "zero quantity", body: fmt.Sprintf(`{"product_id":%q,"quantity":0}`, uuid.New())},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewBufferString(tc.body))
			req = req.WithContext(middleware.WithSessionToken(req.Context(), "guest-token"))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusBadRequest, w.Code)

			var envelope types.ErrorEnvelope
			require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
			assert.Equal(t, string(pkgerrors.CodeValidation), envelope.Error.Code)
		})
	}
}

func TestUpdateItemParsesPathAndBody(t *testing.T) {
	svc := &stubCartService{cart: sampleCart()}
	router := newRouter(svc)
	itemID := uuid.New()

	req := httptest.NewRequest(http.MethodPut, "/cart/items/"+itemID.String(), bytes.NewBufferString(`{"quantity":5}`))
	req = req.WithContext(middleware.WithSessionToken(req.Context(), "guest-token"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, itemID, svc.lastItemID)
	assert.Equal(t, 5, svc.lastQty)
}

func TestUpdateItemRejectsBadItemID(t *testing.T) {
	router := newRouter(&stubCartService{cart: sampleCart()})

	req := httptest.NewRequest(http.MethodPut, "/cart/items/not-a-uuid", bytes.NewBufferString(`{"quantity":5}`))
	req = req.WithContext(middleware.WithSessionToken(req.Context(), "guest-token"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemoveItemMapsServiceNotFound(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/cart/items/"+uuid.NewString(), nil)
	req = req.WithContext(middleware.WithSessionToken(req.Context(), "guest-token"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	assert.Equal(t, "cart item not found", envelope.Error.Message)
}

func TestClearEmptiesCart(t *testing.T) {
	empty := &models.Cart{ID: uuid.New(), Status: enums.CartStatusActive}
	svc := &stubCartService{cart: empty}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/cart", nil)
	req = req.WithContext(middleware.WithSessionToken(req.Context(), "guest-token"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	got := decodeCart(t, w.Body)
	assert.Equal(t, 0, got.TotalItems)
	assert.Equal(t, "0.00", got.TotalAmount)
	assert.Empty(t, got.Items)
}
