package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/miguelsandoval/storefront-backend/pkg/db/models"
	pkgerrors "github.com/miguelsandoval/storefront-backend/pkg/errors"
	"github.com/miguelsandoval/storefront-backend/pkg/logger"
)

// Availability is the read-only answer to "can this quantity be sold?".
type Availability struct {
	Sufficient bool
	Available  int
}

// Ledger owns every stock mutation. Decrements are conditional single-row
// updates so two concurrent checkouts can never both win the last unit.
type Ledger struct {
	logg *logger.Logger
}

// NewLedger wires the stock ledger.
func NewLedger(logg *logger.Logger) *Ledger {
	return &Ledger{logg: logg}
}

// CheckAvailability reports whether qty units of the product can currently be
// sold. The answer is advisory: only Decrement is authoritative under
// concurrency.
func (l *Ledger) CheckAvailability(ctx context.Context, db *gorm.DB, productID uuid.UUID, qty int) (Availability, error) {
	if qty <= 0 {
		return Availability{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var product models.Product
	if err := db.WithContext(ctx).First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Availability{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return Availability{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product stock")
	}

	if !product.TrackInventory || product.AllowBackorder {
		return Availability{Sufficient: true, Available: product.StockQuantity}, nil
	}
	return Availability{
		Sufficient: product.StockQuantity >= qty,
		Available:  product.StockQuantity,
	}, nil
}

// Decrement atomically takes qty units from the product's stock inside the
// caller's transaction. The guard rides in the UPDATE itself; zero rows
// affected means another writer drained the stock first.
func (l *Ledger) Decrement(ctx context.Context, tx *gorm.DB, product *models.Product, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock decrement")
	}
	if !product.TrackInventory {
		return nil
	}

	var res *gorm.DB
	if product.AllowBackorder {
		res = tx.WithContext(ctx).Exec(`
			UPDATE products
			SET stock_quantity = stock_quantity - ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, qty, product.ID)
	} else {
		res = tx.WithContext(ctx).Exec(`
			UPDATE products
			SET stock_quantity = stock_quantity - ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND stock_quantity >= ?
		`, qty, product.ID, qty)
	}
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock")
	}
	if res.RowsAffected == 0 {
		return l.insufficient(ctx, tx, product, qty)
	}

	l.warnIfLow(ctx, tx, product)
	return nil
}

// Restore gives qty units back to a tracked product, e.g. on cancellation.
// Untracked products are skipped by the WHERE clause.
func (l *Ledger) Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock restore")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET stock_quantity = stock_quantity + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND track_inventory
	`, qty, productID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restore stock")
	}
	return nil
}

func (l *Ledger) insufficient(ctx context.Context, tx *gorm.DB, product *models.Product, qty int) error {
	available := 0
	var current models.Product
	if err := tx.WithContext(ctx).Select("stock_quantity").First(&current, "id = ?", product.ID).Error; err == nil {
		available = current.StockQuantity
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for "+product.Name).WithDetails(map[string]any{
		"product_id":   product.ID.String(),
		"product_name": product.Name,
		"available":    available,
		"requested":    qty,
	})
}

func (l *Ledger) warnIfLow(ctx context.Context, tx *gorm.DB, product *models.Product) {
	if l.logg == nil {
		return
	}
	var current models.Product
	if err := tx.WithContext(ctx).Select("stock_quantity", "low_stock_threshold", "track_inventory").
		First(&current, "id = ?", product.ID).Error; err != nil {
		return
	}
	if current.IsLowStock() {
		ctx = l.logg.WithFields(ctx, map[string]any{
			"product_id":     product.ID.String(),
			"stock_quantity": current.StockQuantity,
			"threshold":      current.LowStockThreshold,
		})
		l.logg.Warn(ctx, "product stock at or below threshold")
	}
}
