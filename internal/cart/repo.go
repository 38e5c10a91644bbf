package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/miguelsandoval/storefront-backend/internal/identity"
	"github.com/miguelsandoval/storefront-backend/pkg/db/models"
	"github.com/miguelsandoval/storefront-backend/pkg/enums"
)

// Repository exposes persistence operations for carts and cart lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new cart.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	if cart.Status == "" {
		cart.Status = enums.CartStatusActive
	}
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// FindActiveByOwner loads the caller's active cart with its lines and products.
// Returns gorm.ErrRecordNotFound when the caller has no active cart.
func (r *Repository) FindActiveByOwner(ctx context.Context, caller identity.Caller) (*models.Cart, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Where("status = ?", enums.CartStatusActive)
	if caller.UserID != nil {
		query = query.Where("user_id = ?", *caller.UserID)
	} else {
		query = query.Where("session_token = ?", *caller.SessionToken)
	}

	var cart models.Cart
	if err := query.Order("created_at DESC").First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// Reload fetches the cart by id with lines and products.
func (r *Repository) Reload(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		First(&cart, "id = ?", cartID).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindLine loads the dedupe line for (cart, product, options) if one exists.
func (r *Repository) FindLine(ctx context.Context, cartID, productID uuid.UUID, options *string) (*models.CartItem, error) {
	query := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID)
	if options == nil {
		query = query.Where("options IS NULL")
	} else {
		query = query.Where("options = ?", *options)
	}

	var item models.CartItem
	if err := query.First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// FindLineByID loads a line scoped to the cart.
func (r *Repository) FindLineByID(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		First(&item, "id = ? AND cart_id = ?", itemID, cartID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateLine inserts a cart line.
func (r *Repository) CreateLine(ctx context.Context, item *models.CartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateLineQuantity sets the absolute quantity on a line.
func (r *Repository) UpdateLineQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{"quantity": quantity, "updated_at": time.Now().UTC()}).Error
}

// DeleteLine removes one line.
func (r *Repository) DeleteLine(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, "id = ?", itemID).Error
}

// DeleteLines removes every line in the cart.
func (r *Repository) DeleteLines(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, "cart_id = ?", cartID).Error
}

// Touch bumps the cart's updated_at so the sweeper sees recent activity.
func (r *Repository) Touch(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("updated_at", time.Now().UTC()).Error
}

// MarkConverted flips an active cart to converted. Zero rows means the cart
// was concurrently converted or swept.
func (r *Repository) MarkConverted(ctx context.Context, cartID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND status = ?", cartID, enums.CartStatusActive).
		Updates(map[string]any{"status": enums.CartStatusConverted, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SweepAbandoned marks active carts idle since before cutoff as abandoned and
// returns how many rows changed. Running it twice with the same cutoff is a
// no-op the second time.
func (r *Repository) SweepAbandoned(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("status = ? AND updated_at < ?", enums.CartStatusActive, cutoff).
		Update("status", enums.CartStatusAbandoned)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
