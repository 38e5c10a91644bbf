package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/miguelsandoval/storefront-backend/pkg/db/models"
	"github.com/miguelsandoval/storefront-backend/pkg/enums"
	pkgerrors "github.com/miguelsandoval/storefront-backend/pkg/errors"
	"github.com/miguelsandoval/storefront-backend/pkg/pagination"
)

// Repository exposes persistence operations for orders.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an orders repository bound to the provided DB.
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

// Create inserts the order with its item snapshots.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// ExistsByNumber reports whether an order already claimed the number.
func (r *Repository) ExistsByNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByID loads an order with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return &order, nil
}

// FindByIDForUser loads an order scoped to its owner. Orders belonging to
// someone else read as not found.
func (r *Repository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return &order, nil
}

// FindByNumberForUser loads an order by its public number, owner scoped.
func (r *Repository) FindByNumberForUser(ctx context.Context, orderNumber string, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "order_number = ? AND user_id = ?", orderNumber, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return &order, nil
}

// ListForUser returns the caller's orders newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, int64, error) {
	params = params.Normalize()

	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}

	var results []models.Order
	err := query.
		Preload("Items").
		Order("created_at DESC").
		Offset(params.Offset).
		Limit(params.Limit).
		Find(&results).Error
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return results, total, nil
}

// AdminFilter narrows AdminList results.
type AdminFilter struct {
	Status *enums.OrderStatus
}

// AdminList returns every order, optionally filtered by status.
func (r *Repository) AdminList(ctx context.Context, filter AdminFilter, params pagination.Params) ([]models.Order, int64, error) {
	params = params.Normalize()

	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}

	var results []models.Order
	err := query.
		Preload("Items").
		Order("created_at DESC").
		Offset(params.Offset).
		Limit(params.Limit).
		Find(&results).Error
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return results, total, nil
}

// Save persists in-place field changes on the order row.
func (r *Repository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Omit("Items").
		Save(order).Error
}
