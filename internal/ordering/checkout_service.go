package ordering

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/partdepot/partdepot/internal/domain"
	"github.com/partdepot/partdepot/internal/inventory"
	"github.com/partdepot/partdepot/pkg/common"
)

// TopicOrderCreated is published after a checkout commits.
const TopicOrderCreated = "order.created"

// CheckoutService turns a user's cart into an order in one transaction:
// either the order, its item snapshots, the stock decrements and the cart
// cleanup all commit, or none of them do.
type CheckoutService struct {
	db  *gorm.DB
	inv *inventory.Service
	bus inventory.Bus
}

func NewCheckoutService(db *gorm.DB, inv *inventory.Service, bus inventory.Bus) *CheckoutService {
	return &CheckoutService{db: db, inv: inv, bus: bus}
}

// Checkout creates an order from the user's cart lines. Stock is
// re-validated per line against the part aggregate under the part's row
// lock; parts are locked in ascending part id order so concurrent checkouts
// acquire locks in the same total order. Checkout is not idempotent:
// resubmitting creates a new order.
func (s *CheckoutService) Checkout(ctx context.Context, userID int64, shippingAddress string) (*domain.Order, error) {
	var order *domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lines []domain.CartLine
		if err := tx.Where("user_id = ?", userID).
			Order("part_id ASC").
			Find(&lines).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}

		now := time.Now()
		order = &domain.Order{
			ID:              common.UUIDint64(),
			OrderNumber:     uuid.NewString(),
			UserID:          userID,
			Status:          domain.OrderStatusPending,
			ShippingAddress: shippingAddress,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		var total float64
		for _, line := range lines {
			part, err := s.inv.LockAndGetPart(tx, line.PartID)
			if err != nil {
				return err
			}
			if part.StockTotal < line.Quantity {
				return &domain.InsufficientStockError{
					PartID:    part.ID,
					Requested: line.Quantity,
					Available: part.StockTotal,
				}
			}
			if _, err := s.inv.Deplete(tx, part, line.Quantity); err != nil {
				return err
			}

			item := domain.OrderItem{
				ID:        common.UUIDint64(),
				OrderID:   order.ID,
				PartID:    part.ID,
				Quantity:  line.Quantity,
				UnitPrice: part.Price,
				CreatedAt: now,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			order.Items = append(order.Items, item)
			total += part.Price * float64(line.Quantity)
		}

		order.TotalAmount = total
		if err := tx.Model(&domain.Order{}).
			Where("id = ?", order.ID).
			Update("total_amount", total).Error; err != nil {
			return err
		}

		return tx.Where("user_id = ?", userID).Delete(&domain.CartLine{}).Error
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("order created",
		zap.Int64("user_id", userID),
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Float64("total_amount", order.TotalAmount),
		zap.Int("items", len(order.Items)))
	if s.bus != nil {
		s.bus.Publish(TopicOrderCreated, *order)
	}
	return order, nil
}

// GetOrder returns one of the user's orders with its item snapshots.
func (s *CheckoutService) GetOrder(ctx context.Context, userID, orderID int64) (*domain.Order, error) {
	var order domain.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns the user's orders, newest first.
func (s *CheckoutService) ListOrders(ctx context.Context, userID int64, page, pageSize int) ([]domain.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 20
	}

	q := s.db.WithContext(ctx).Model(&domain.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []domain.Order
	err := q.Preload("Items").
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error
	return orders, total, err
}
