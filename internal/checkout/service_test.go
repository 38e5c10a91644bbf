package checkout

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/miguelsandoval/storefront-backend/internal/cart"
	"github.com/miguelsandoval/storefront-backend/internal/inventory"
	"github.com/miguelsandoval/storefront-backend/internal/orders"
	"github.com/miguelsandoval/storefront-backend/pkg/config"
	"github.com/miguelsandoval/storefront-backend/pkg/db"
	"github.com/miguelsandoval/storefront-backend/pkg/db/models"
	"github.com/miguelsandoval/storefront-backend/pkg/enums"
	pkgerrors "github.com/miguelsandoval/storefront-backend/pkg/errors"
	"github.com/miguelsandoval/storefront-backend/pkg/types"
)

var testSchema = []string{`
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  sku TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  description TEXT,
  category_id TEXT,
  price NUMERIC NOT NULL,
  compare_at_price NUMERIC,
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  low_stock_threshold INTEGER NOT NULL DEFAULT 10,
  track_inventory INTEGER NOT NULL DEFAULT 1,
  allow_backorder INTEGER NOT NULL DEFAULT 0,
  tags TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  session_token TEXT,
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  options TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  subtotal NUMERIC NOT NULL,
  tax_amount NUMERIC NOT NULL,
  shipping_amount NUMERIC NOT NULL,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  total_amount NUMERIC NOT NULL,
  shipping_line1 TEXT,
  shipping_line2 TEXT,
  shipping_city TEXT,
  shipping_state TEXT,
  shipping_postal_code TEXT,
  shipping_country TEXT,
  billing_line1 TEXT,
  billing_line2 TEXT,
  billing_city TEXT,
  billing_state TEXT,
  billing_postal_code TEXT,
  billing_country TEXT,
  customer_name TEXT NOT NULL,
  customer_email TEXT NOT NULL,
  customer_phone TEXT,
  payment_method TEXT,
  payment_reference TEXT,
  shipping_method TEXT,
  tracking_number TEXT,
  notes TEXT,
  admin_notes TEXT,
  shipped_at DATETIME,
  delivered_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  product_sku TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  options TEXT,
  created_at DATETIME
);`}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	for _, ddl := range testSchema {
		if err := conn.Exec(ddl).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	pricing, err := PricingFromConfig(config.CheckoutConfig{
		TaxRate:               "0.10",
		ShippingFlat:          "10.00",
		FreeShippingThreshold: "100.00",
		OrderNumberAttempts:   5,
	})
	if err != nil {
		t.Fatalf("pricing: %v", err)
	}
	svc, err := NewService(
		db.NewWithConn(conn),
		cart.NewRepository(conn),
		orders.NewRepository(conn),
		inventory.NewLedger(nil),
		pricing,
		nil,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedProduct(t *testing.T, conn *gorm.DB, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:                uuid.New(),
		SKU:               "SKU-" + uuid.NewString()[:8],
		Name:              "Widget",
		Price:             decimal.RequireFromString(price),
		StockQuantity:     stock,
		LowStockThreshold: 2,
		TrackInventory:    true,
		IsActive:          true,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func seedCartWithLine(t *testing.T, conn *gorm.DB, userID uuid.UUID, product *models.Product, qty int) *models.Cart {
	t.Helper()
	cartRow := &models.Cart{ID: uuid.New(), UserID: &userID, Status: enums.CartStatusActive}
	if err := conn.Create(cartRow).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	line := &models.CartItem{
		ID:        uuid.New(),
		CartID:    cartRow.ID,
		ProductID: product.ID,
		Quantity:  qty,
		UnitPrice: product.Price,
	}
	if err := conn.Create(line).Error; err != nil {
		t.Fatalf("seed cart line: %v", err)
	}
	return cartRow
}

func loadStock(t *testing.T, conn *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var product models.Product
	if err := conn.First(&product, "id = ?", id).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return product.StockQuantity
}

func loadCartStatus(t *testing.T, conn *gorm.DB, id uuid.UUID) enums.CartStatus {
	t.Helper()
	var cartRow models.Cart
	if err := conn.First(&cartRow, "id = ?", id).Error; err != nil {
		t.Fatalf("load cart: %v", err)
	}
	return cartRow.Status
}

func testAddress() types.Address {
	return types.Address{
		Line1:      "1 Main St",
		City:       "Springfield",
		State:      "CA",
		PostalCode: "94000",
	}
}

func testInput() CreateOrderInput {
	return CreateOrderInput{
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
		CustomerName:    "Ada Lovelace",
		CustomerEmail:   "ada@example.com",
	}
}

func TestCreateOrderEmptyCart(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	userID := uuid.New()

	// no cart at all
	_, err := svc.CreateOrder(ctx, userID, testInput())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeEmptyCart {
		t.Fatalf("unexpected error: %v", err)
	}

	// cart exists but has no lines
	if err := conn.Create(&models.Cart{ID: uuid.New(), UserID: &userID, Status: enums.CartStatusActive}).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	_, err = svc.CreateOrder(ctx, userID, testInput())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeEmptyCart {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	userID := uuid.New()
	product := seedProduct(t, conn, "10.00", 5)
	cartRow := seedCartWithLine(t, conn, userID, product, 6)

	_, err := svc.CreateOrder(ctx, userID, testInput())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok || details["available"] != 5 || details["requested"] != 6 {
		t.Fatalf("unexpected details: %+v", typed.Details())
	}

	// nothing committed: stock intact, no orders, cart still active
	if got := loadStock(t, conn, product.ID); got != 5 {
		t.Fatalf("expected stock 5, got %d", got)
	}
	var orderCount int64
	if err := conn.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected no orders, got %d", orderCount)
	}
	if got := loadCartStatus(t, conn, cartRow.ID); got != enums.CartStatusActive {
		t.Fatalf("cart must stay active, got %s", got)
	}
}

func TestCreateOrderSuccess(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	userID := uuid.New()
	product := seedProduct(t, conn, "10.00", 10)
	cartRow := seedCartWithLine(t, conn, userID, product, 3)

	order, err := svc.CreateOrder(ctx, userID, testInput())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if order.Status != enums.OrderStatusPending || order.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("unexpected initial statuses: %s/%s", order.Status, order.PaymentStatus)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(order.Items))
	}
	item := order.Items[0]
	if item.ProductName != product.Name || item.ProductSKU != product.SKU || item.Quantity != 3 {
		t.Fatalf("bad snapshot: %+v", item)
	}
	if !item.UnitPrice.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("bad snapshot price: %s", item.UnitPrice)
	}

	if got := loadStock(t, conn, product.ID); got != 7 {
		t.Fatalf("expected stock 7, got %d", got)
	}
	if got := loadCartStatus(t, conn, cartRow.ID); got != enums.CartStatusConverted {
		t.Fatalf("expected converted cart, got %s", got)
	}
}

func TestCreateOrderPricing(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		price        string
		qty          int
		wantSubtotal string
		wantTax      string
		wantShipping string
		wantTotal    string
	}{
		{"free shipping at threshold", "75.00", 2, "150", "15", "0", "165"},
		{"flat shipping below threshold", "40.00", 2, "80", "8", "10", "98"},
		{"boundary hits threshold exactly", "100.00", 1, "100", "10", "0", "110"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			conn := newTestDB(t)
			svc := newTestService(t, conn)
			userID := uuid.New()
			product := seedProduct(t, conn, tc.price, 100)
			seedCartWithLine(t, conn, userID, product, tc.qty)

			order, err := svc.CreateOrder(context.Background(), userID, testInput())
			if err != nil {
				t.Fatalf("create order: %v", err)
			}

			if !order.Subtotal.Equal(decimal.RequireFromString(tc.wantSubtotal)) {
				t.Fatalf("subtotal: want %s, got %s", tc.wantSubtotal, order.Subtotal)
			}
			if !order.TaxAmount.Equal(decimal.RequireFromString(tc.wantTax)) {
				t.Fatalf("tax: want %s, got %s", tc.wantTax, order.TaxAmount)
			}
			if !order.ShippingAmount.Equal(decimal.RequireFromString(tc.wantShipping)) {
				t.Fatalf("shipping: want %s, got %s", tc.wantShipping, order.ShippingAmount)
			}
			if !order.DiscountAmount.Equal(decimal.Zero) {
				t.Fatalf("discount must be zero, got %s", order.DiscountAmount)
			}
			if !order.TotalAmount.Equal(decimal.RequireFromString(tc.wantTotal)) {
				t.Fatalf("total: want %s, got %s", tc.wantTotal, order.TotalAmount)
			}
		})
	}
}

func TestOrderNumberFormat(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	pattern := regexp.MustCompile(`^ORD-20260314150926-[0-9A-F]{8}$`)

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		number := orderNumber(now)
		if !pattern.MatchString(number) {
			t.Fatalf("bad order number %q", number)
		}
		if _, dup := seen[number]; dup {
			t.Fatalf("duplicate order number %q", number)
		}
		seen[number] = struct{}{}
	}
}

func TestConcurrentCheckoutSingleWinner(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	ledger := inventory.NewLedger(nil)
	product := seedProduct(t, conn, "10.00", 1)

	// two buyers race for the last unit; the conditional update inside the
	// transaction lets exactly one of them through
	wins, losses := 0, 0
	for i := 0; i < 2; i++ {
		err := conn.Transaction(func(tx *gorm.DB) error {
			return ledger.Decrement(ctx, tx, product, 1)
		})
		switch {
		case err == nil:
			wins++
		case pkgerrors.As(err) != nil && pkgerrors.As(err).Code() == pkgerrors.CodeInsufficientStock:
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("expected exactly one winner, got wins=%d losses=%d", wins, losses)
	}

	if got := loadStock(t, conn, product.ID); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}
}
