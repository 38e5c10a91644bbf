package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/miguelsandoval/storefront-backend/internal/identity"
	"github.com/miguelsandoval/storefront-backend/internal/inventory"
	"github.com/miguelsandoval/storefront-backend/pkg/db"
	"github.com/miguelsandoval/storefront-backend/pkg/db/models"
	pkgerrors "github.com/miguelsandoval/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type availabilityChecker interface {
	CheckAvailability(ctx context.Context, db *gorm.DB, productID uuid.UUID, qty int) (inventory.Availability, error)
}

// Service exposes cart operations for users and guest sessions.
type Service interface {
	GetOrCreateActive(ctx context.Context, caller identity.Caller) (*models.Cart, error)
	AddItem(ctx context.Context, caller identity.Caller, input AddItemInput) (*models.Cart, error)
	UpdateItemQuantity(ctx context.Context, caller identity.Caller, itemID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, caller identity.Caller, itemID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, caller identity.Caller) (*models.Cart, error)
}

type service struct {
	repo     *Repository
	tx       txRunner
	products productLoader
	stock    availabilityChecker
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, tx txRunner, products productLoader, stock availabilityChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if stock == nil {
		return nil, fmt.Errorf("availability checker required")
	}
	return &service{repo: repo, tx: tx, products: products, stock: stock}, nil
}

// AddItemInput is the payload for adding a product line.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Options   *string
}

// GetOrCreateActive returns the caller's active cart, creating an empty one on
// first touch. A concurrent create for the same owner loses against the
// partial unique index and falls back to the winner's row.
func (s *service) GetOrCreateActive(ctx context.Context, caller identity.Caller) (*models.Cart, error) {
	if !caller.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}

	cart, err := s.repo.FindActiveByOwner(ctx, caller)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
	}

	fresh := &models.Cart{UserID: caller.UserID, SessionToken: caller.SessionToken}
	if _, err := s.repo.Create(ctx, fresh); err != nil {
		if db.IsUniqueViolation(err, "") {
			cart, findErr := s.repo.FindActiveByOwner(ctx, caller)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load active cart after conflict")
			}
			return cart, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return s.repo.Reload(ctx, fresh.ID)
}

// AddItem appends or merges a product line. Lines dedupe on
// (product_id, options); the resulting quantity must clear availability or
// the cart stays untouched.
func (s *service) AddItem(ctx context.Context, caller identity.Caller, input AddItemInput) (*models.Cart, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	input.Options = normalizeOptions(input.Options)

	cart, err := s.GetOrCreateActive(ctx, caller)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindActiveByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindLine(ctx, cart.ID, product.ID, input.Options)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}

		resulting := input.Quantity
		if existing != nil {
			resulting += existing.Quantity
		}
		if err := s.ensureAvailable(ctx, tx, product, resulting); err != nil {
			return err
		}

		if existing != nil {
			if err := repo.UpdateLineQuantity(ctx, existing.ID, resulting); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart line")
			}
		} else {
			line := &models.CartItem{
				CartID:    cart.ID,
				ProductID: product.ID,
				Quantity:  input.Quantity,
				UnitPrice: product.Price,
				Options:   input.Options,
			}
			if err := repo.CreateLine(ctx, line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
			}
		}
		return repo.Touch(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, cart.ID)
}

// UpdateItemQuantity sets the absolute quantity on an existing line.
func (s *service) UpdateItemQuantity(ctx context.Context, caller identity.Caller, itemID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	cart, err := s.requireActive(ctx, caller)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindLineByID(ctx, cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}

	product, err := s.products.FindActiveByID(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.ensureAvailable(ctx, tx, product, quantity); err != nil {
			return err
		}
		if err := repo.UpdateLineQuantity(ctx, item.ID, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
		}
		return repo.Touch(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, cart.ID)
}

// RemoveItem deletes one line from the caller's cart.
func (s *service) RemoveItem(ctx context.Context, caller identity.Caller, itemID uuid.UUID) (*models.Cart, error) {
	cart, err := s.requireActive(ctx, caller)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindLineByID(ctx, cart.ID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteLine(ctx, itemID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
		}
		return repo.Touch(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, cart.ID)
}

// Clear removes every line, keeping the cart itself.
func (s *service) Clear(ctx context.Context, caller identity.Caller) (*models.Cart, error) {
	cart, err := s.requireActive(ctx, caller)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteLines(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return repo.Touch(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, cart.ID)
}

func (s *service) requireActive(ctx context.Context, caller identity.Caller) (*models.Cart, error) {
	if !caller.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	cart, err := s.repo.FindActiveByOwner(ctx, caller)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "active cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
	}
	return cart, nil
}

func (s *service) ensureAvailable(ctx context.Context, tx *gorm.DB, product *models.Product, qty int) error {
	avail, err := s.stock.CheckAvailability(ctx, tx, product.ID, qty)
	if err != nil {
		return err
	}
	if !avail.Sufficient {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for "+product.Name).WithDetails(map[string]any{
			"product_id":   product.ID.String(),
			"product_name": product.Name,
			"available":    avail.Available,
			"requested":    qty,
		})
	}
	return nil
}

func (s *service) reload(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.Reload(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return cart, nil
}

func normalizeOptions(options *string) *string {
	if options == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*options)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
