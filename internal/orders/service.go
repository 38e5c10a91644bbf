package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/miguelsandoval/storefront-backend/pkg/db/models"
	"github.com/miguelsandoval/storefront-backend/pkg/enums"
	pkgerrors "github.com/miguelsandoval/storefront-backend/pkg/errors"
	"github.com/miguelsandoval/storefront-backend/pkg/logger"
	"github.com/miguelsandoval/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockRestorer interface {
	Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// Service exposes order lifecycle operations after checkout.
type Service interface {
	GetByID(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	GetByNumber(ctx context.Context, orderNumber string, userID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[models.Order], error)
	Cancel(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)

	AdminGet(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	AdminList(ctx context.Context, filter AdminFilter, params pagination.Params) (*pagination.Page[models.Order], error)
	AdminSetStatus(ctx context.Context, orderID uuid.UUID, input AdminStatusInput) (*models.Order, error)
}

type service struct {
	tx    txRunner
	repo  *Repository
	stock stockRestorer
	logg  *logger.Logger
	now   func() time.Time
}

func NewService(tx txRunner, repo *Repository, stock stockRestorer, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock restorer required")
	}
	return &service{
		tx:    tx,
		repo:  repo,
		stock: stock,
		logg:  logg,
		now:   time.Now,
	}, nil
}

func (s *service) GetByID(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	return s.repo.FindByIDForUser(ctx, orderID, userID)
}

func (s *service) GetByNumber(ctx context.Context, orderNumber string, userID uuid.UUID) (*models.Order, error) {
	return s.repo.FindByNumberForUser(ctx, orderNumber, userID)
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[models.Order], error) {
	params = params.Normalize()
	items, total, err := s.repo.ListForUser(ctx, userID, params)
	if err != nil {
		return nil, err
	}
	return &pagination.Page[models.Order]{
		Items:  items,
		Total:  total,
		Offset: params.Offset,
		Limit:  params.Limit,
	}, nil
}

// Cancel moves an owner's order to cancelled and puts the tracked stock back.
// Orders already shipped, delivered, or cancelled refuse the transition.
func (s *service) Cancel(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := repo.FindByIDForUser(ctx, orderID, userID)
		if err != nil {
			return err
		}
		if !loaded.Status.IsCancellable() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order in status %s cannot be cancelled", loaded.Status))
		}

		for _, item := range loaded.Items {
			if err := s.stock.Restore(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		loaded.Status = enums.OrderStatusCancelled
		if err := repo.Save(ctx, loaded); err != nil {
			return err
		}
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
		})
		s.logg.Info(ctx, "order cancelled")
	}
	return order, nil
}

func (s *service) AdminGet(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.repo.FindByID(ctx, orderID)
}

func (s *service) AdminList(ctx context.Context, filter AdminFilter, params pagination.Params) (*pagination.Page[models.Order], error) {
	params = params.Normalize()
	items, total, err := s.repo.AdminList(ctx, filter, params)
	if err != nil {
		return nil, err
	}
	return &pagination.Page[models.Order]{
		Items:  items,
		Total:  total,
		Offset: params.Offset,
		Limit:  params.Limit,
	}, nil
}

// AdminStatusInput carries a back-office status update.
type AdminStatusInput struct {
	Status         enums.OrderStatus
	PaymentStatus  *enums.PaymentStatus
	TrackingNumber *string
	AdminNotes     *string
}

// AdminSetStatus applies any status an operator picks. Fulfilment timestamps
// are stamped on the way through shipped and delivered; stock is never
// restored here, an operator cancelling a paid order handles the refund and
// restock out of band.
func (s *service) AdminSetStatus(ctx context.Context, orderID uuid.UUID, input AdminStatusInput) (*models.Order, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid order status %q", input.Status))
	}
	if input.PaymentStatus != nil && !input.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid payment status %q", *input.PaymentStatus))
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}

		loaded.Status = input.Status
		if input.PaymentStatus != nil {
			loaded.PaymentStatus = *input.PaymentStatus
		}
		if input.TrackingNumber != nil {
			loaded.TrackingNumber = input.TrackingNumber
		}
		if input.AdminNotes != nil {
			loaded.AdminNotes = input.AdminNotes
		}

		now := s.now().UTC()
		if input.Status == enums.OrderStatusShipped && loaded.ShippedAt == nil {
			loaded.ShippedAt = &now
		}
		if input.Status == enums.OrderStatusDelivered && loaded.DeliveredAt == nil {
			loaded.DeliveredAt = &now
		}

		if err := repo.Save(ctx, loaded); err != nil {
			return err
		}
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
			"status":       order.Status.String(),
		})
		s.logg.Info(ctx, "order status updated")
	}
	return order, nil
}
