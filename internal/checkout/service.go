package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/miguelsandoval/storefront-backend/internal/cart"
	"github.com/miguelsandoval/storefront-backend/internal/identity"
	"github.com/miguelsandoval/storefront-backend/internal/orders"
	"github.com/miguelsandoval/storefront-backend/pkg/config"
	"github.com/miguelsandoval/storefront-backend/pkg/db"
	"github.com/miguelsandoval/storefront-backend/pkg/db/models"
	"github.com/miguelsandoval/storefront-backend/pkg/enums"
	pkgerrors "github.com/miguelsandoval/storefront-backend/pkg/errors"
	"github.com/miguelsandoval/storefront-backend/pkg/logger"
	"github.com/miguelsandoval/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockDecrementer interface {
	Decrement(ctx context.Context, tx *gorm.DB, product *models.Product, qty int) error
}

// Pricing carries the injected checkout policy, parsed once at wiring time.
type Pricing struct {
	TaxRate               decimal.Decimal
	ShippingFlat          decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	OrderNumberAttempts   int
}

// PricingFromConfig parses the checkout config into exact decimals.
func PricingFromConfig(cfg config.CheckoutConfig) (Pricing, error) {
	taxRate, err := cfg.TaxRateDecimal()
	if err != nil {
		return Pricing{}, fmt.Errorf("tax rate: %w", err)
	}
	shippingFlat, err := cfg.ShippingFlatDecimal()
	if err != nil {
		return Pricing{}, fmt.Errorf("shipping flat: %w", err)
	}
	threshold, err := cfg.FreeShippingThresholdDecimal()
	if err != nil {
		return Pricing{}, fmt.Errorf("free shipping threshold: %w", err)
	}
	attempts := cfg.OrderNumberAttempts
	if attempts < 1 {
		attempts = 1
	}
	return Pricing{
		TaxRate:               taxRate,
		ShippingFlat:          shippingFlat,
		FreeShippingThreshold: threshold,
		OrderNumberAttempts:   attempts,
	}, nil
}

// Service converts the caller's active cart into an order.
type Service interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*models.Order, error)
}

type service struct {
	tx         txRunner
	cartRepo   *cart.Repository
	ordersRepo *orders.Repository
	stock      stockDecrementer
	pricing    Pricing
	logg       *logger.Logger
	now        func() time.Time
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	cartRepo *cart.Repository,
	ordersRepo *orders.Repository,
	stock stockDecrementer,
	pricing Pricing,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock decrementer required")
	}
	if pricing.OrderNumberAttempts < 1 {
		return nil, fmt.Errorf("order number attempts must be at least 1")
	}
	return &service{
		tx:         tx,
		cartRepo:   cartRepo,
		ordersRepo: ordersRepo,
		stock:      stock,
		pricing:    pricing,
		logg:       logg,
		now:        time.Now,
	}, nil
}

// CreateOrderInput captures the checkout payload.
type CreateOrderInput struct {
	ShippingAddress types.Address
	BillingAddress  types.Address
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   *string
	PaymentMethod   *string
	ShippingMethod  *string
	Notes           *string
}

// CreateOrder runs the whole conversion in one transaction: load the active
// cart, take stock line by line, price the order, persist the snapshots, and
// mark the cart converted. Any failure rolls the whole thing back.
func (s *service) CreateOrder(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	input.ShippingAddress.Normalize()
	input.BillingAddress.Normalize()

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		active, err := cartRepo.FindActiveByOwner(ctx, identity.ForUser(userID))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
		}
		if active.IsEmpty() {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}

		items := make([]models.OrderItem, 0, len(active.Items))
		for _, line := range active.Items {
			product := line.Product
			if product == nil {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product no longer available")
			}
			// conditional decrement doubles as the availability check;
			// the first shortfall aborts the transaction
			if err := s.stock.Decrement(ctx, tx, product, line.Quantity); err != nil {
				return err
			}
			items = append(items, models.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				ProductSKU:  product.SKU,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				Options:     line.Options,
			})
		}

		subtotal := active.TotalAmount()
		tax := subtotal.Mul(s.pricing.TaxRate).Round(2)
		shipping := s.pricing.ShippingFlat
		if subtotal.GreaterThanOrEqual(s.pricing.FreeShippingThreshold) {
			shipping = decimal.Zero
		}
		discount := decimal.Zero
		total := subtotal.Add(tax).Add(shipping).Sub(discount)

		number, err := s.claimOrderNumber(ctx, ordersRepo)
		if err != nil {
			return err
		}

		order := &models.Order{
			OrderNumber:     number,
			UserID:          userID,
			Status:          enums.OrderStatusPending,
			PaymentStatus:   enums.PaymentStatusPending,
			Subtotal:        subtotal,
			TaxAmount:       tax,
			ShippingAmount:  shipping,
			DiscountAmount:  discount,
			TotalAmount:     total,
			ShippingAddress: input.ShippingAddress,
			BillingAddress:  input.BillingAddress,
			CustomerName:    input.CustomerName,
			CustomerEmail:   input.CustomerEmail,
			CustomerPhone:   input.CustomerPhone,
			PaymentMethod:   input.PaymentMethod,
			ShippingMethod:  input.ShippingMethod,
			Notes:           input.Notes,
			Items:           items,
		}
		if _, err := ordersRepo.Create(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number already claimed")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		converted, err := cartRepo.MarkConverted(ctx, active.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "convert cart")
		}
		if !converted {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart was modified concurrently")
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"order_id":     created.ID.String(),
			"order_number": created.OrderNumber,
			"total_amount": created.TotalAmount.String(),
		})
		s.logg.Info(ctx, "order created")
	}
	return created, nil
}

func (s *service) claimOrderNumber(ctx context.Context, repo *orders.Repository) (string, error) {
	for attempt := 0; attempt < s.pricing.OrderNumberAttempts; attempt++ {
		candidate := orderNumber(s.now())
		exists, err := repo.ExistsByNumber(ctx, candidate)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order number")
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique order number")
}
