// Package ordering covers the pre-purchase cart and the cart-to-order
// checkout transition.
package ordering

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/partdepot/partdepot/internal/domain"
	"github.com/partdepot/partdepot/pkg/common"
)

// CartLineView is a cart line joined with the part's live name and price.
type CartLineView struct {
	PartID     int64   `json:"part_id,string"`
	PartName   string  `json:"part_name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}

// CartSummary is the user's whole cart with per-line and overall totals. An
// empty cart is a valid summary, not an error.
type CartSummary struct {
	Lines []CartLineView `json:"cart"`
	Total float64        `json:"total"`
}

// CartService maintains per-user cart lines, validated against the part's
// current stock aggregate.
type CartService struct {
	db *gorm.DB
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// AddToCart merges qty into the user's line for the part, or creates the
// line. The merged quantity may not exceed the part's current stock total.
func (s *CartService) AddToCart(ctx context.Context, userID, partID int64, qty int) (*domain.CartLine, error) {
	if qty <= 0 {
		return nil, domain.ErrNonPositiveQuantity
	}

	var line *domain.CartLine
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var part domain.Part
		if err := tx.Where("id = ?", partID).First(&part).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrPartNotFound
			}
			return err
		}

		var existing domain.CartLine
		err := tx.Where("user_id = ? AND part_id = ?", userID, partID).First(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		requested := existing.Quantity + qty
		if requested > part.StockTotal {
			return &domain.InsufficientStockError{
				PartID:    partID,
				Requested: requested,
				Available: part.StockTotal,
			}
		}

		if existing.ID != 0 {
			existing.Quantity = requested
			existing.UpdatedAt = time.Now()
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			line = &existing
			return nil
		}

		line = &domain.CartLine{
			ID:       common.UUIDint64(),
			UserID:   userID,
			PartID:   partID,
			Quantity: qty,
		}
		return tx.Create(line).Error
	})
	if err != nil {
		return nil, err
	}

	zap.L().Debug("cart line upserted",
		zap.Int64("user_id", userID),
		zap.Int64("part_id", partID),
		zap.Int("quantity", line.Quantity))
	return line, nil
}

// ViewCart returns the user's cart lines with live prices and totals.
func (s *CartService) ViewCart(ctx context.Context, userID int64) (*CartSummary, error) {
	var lines []domain.CartLine
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("part_id ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}

	summary := &CartSummary{Lines: make([]CartLineView, 0, len(lines))}
	for _, l := range lines {
		var part domain.Part
		if err := s.db.WithContext(ctx).Where("id = ?", l.PartID).First(&part).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrPartNotFound
			}
			return nil, err
		}
		view := CartLineView{
			PartID:     l.PartID,
			PartName:   part.Name,
			Quantity:   l.Quantity,
			UnitPrice:  part.Price,
			TotalPrice: part.Price * float64(l.Quantity),
		}
		summary.Lines = append(summary.Lines, view)
		summary.Total += view.TotalPrice
	}
	return summary, nil
}

// RemoveFromCart deletes the user's line for the part.
func (s *CartService) RemoveFromCart(ctx context.Context, userID, partID int64) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND part_id = ?", userID, partID).
		Delete(&domain.CartLine{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrCartLineNotFound
	}
	return nil
}
