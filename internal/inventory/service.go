// Package inventory implements the per-warehouse stock ledger and keeps the
// derived part aggregate (part.stock_total) consistent with it.
//
// Every mutation follows the same discipline: lock the part row, touch the
// warehouse_stock rows, recompute the aggregate from the rows, commit. The
// aggregate is never adjusted with incremental arithmetic; recomputeTotal is
// the single write path, which keeps the cached total from drifting away
// from its sources.
package inventory

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/partdepot/partdepot/internal/domain"
)

// Event topics published by the service after a successful commit.
const (
	TopicStockChanged = "stock.changed"
)

// Bus is the subset of the event bus the service publishes on.
type Bus interface {
	Publish(topic string, args ...interface{})
}

// StockChange describes the outcome of a stock mutation.
type StockChange struct {
	WarehouseID int64 `json:"warehouse_id,string"`
	PartID      int64 `json:"part_id,string"`
	// Quantity is the warehouse row quantity after the operation.
	Quantity int `json:"quantity"`
	// Removed is the quantity dropped by RemoveStockRow, zero otherwise.
	Removed int `json:"removed,omitempty"`
	// Total is the part aggregate after the operation.
	Total int `json:"total_in_stock"`
}

// Service mutates warehouse stock rows and the part aggregate.
type Service struct {
	db   *gorm.DB
	repo StockRepository
	bus  Bus
}

func NewService(db *gorm.DB, repo StockRepository, bus Bus) *Service {
	return &Service{db: db, repo: repo, bus: bus}
}

// AddStock adds qty units of a part to a warehouse, creating the stock row
// on first addition, and returns the new row quantity and aggregate.
func (s *Service) AddStock(ctx context.Context, warehouseID, partID int64, qty int) (*StockChange, error) {
	if qty <= 0 {
		return nil, domain.ErrNonPositiveQuantity
	}

	change := &StockChange{WarehouseID: warehouseID, PartID: partID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.GetWarehouse(tx, warehouseID); err != nil {
			return err
		}
		if _, err := s.repo.LockPart(tx, partID); err != nil {
			return err
		}

		row, err := s.repo.GetStockRow(tx, warehouseID, partID)
		if err != nil {
			return err
		}
		if row == nil {
			change.Quantity = qty
			if err := s.repo.CreateStockRow(tx, &domain.WarehouseStock{
				WarehouseID: warehouseID,
				PartID:      partID,
				Quantity:    qty,
			}); err != nil {
				return errors.Wrap(err, "create stock row")
			}
		} else {
			change.Quantity = row.Quantity + qty
			if err := s.repo.UpdateStockQuantity(tx, warehouseID, partID, change.Quantity); err != nil {
				return errors.Wrap(err, "increment stock row")
			}
		}

		change.Total, err = s.recomputeTotal(tx, partID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishChange("add", change)
	return change, nil
}

// DecreaseStock removes qty units of a part from a warehouse. A decrease
// beyond the row quantity fails with InsufficientStockError and leaves all
// state unchanged.
func (s *Service) DecreaseStock(ctx context.Context, warehouseID, partID int64, qty int) (*StockChange, error) {
	if qty <= 0 {
		return nil, domain.ErrNonPositiveQuantity
	}

	change := &StockChange{WarehouseID: warehouseID, PartID: partID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.GetWarehouse(tx, warehouseID); err != nil {
			return err
		}
		if _, err := s.repo.LockPart(tx, partID); err != nil {
			return err
		}

		row, err := s.repo.GetStockRow(tx, warehouseID, partID)
		if err != nil {
			return err
		}
		if row == nil {
			return domain.ErrStockRowNotFound
		}
		if qty > row.Quantity {
			return &domain.InsufficientStockError{
				PartID:    partID,
				Requested: qty,
				Available: row.Quantity,
			}
		}

		change.Quantity = row.Quantity - qty
		if err := s.repo.UpdateStockQuantity(tx, warehouseID, partID, change.Quantity); err != nil {
			return errors.Wrap(err, "decrement stock row")
		}

		change.Total, err = s.recomputeTotal(tx, partID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishChange("decrease", change)
	return change, nil
}

// RemoveStockRow deletes the (warehouse, part) association entirely and
// reports the removed quantity.
func (s *Service) RemoveStockRow(ctx context.Context, warehouseID, partID int64) (*StockChange, error) {
	change := &StockChange{WarehouseID: warehouseID, PartID: partID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.GetWarehouse(tx, warehouseID); err != nil {
			return err
		}
		if _, err := s.repo.LockPart(tx, partID); err != nil {
			return err
		}

		row, err := s.repo.GetStockRow(tx, warehouseID, partID)
		if err != nil {
			return err
		}
		if row == nil {
			return domain.ErrStockRowNotFound
		}
		change.Removed = row.Quantity

		if _, err := s.repo.DeleteStockRow(tx, warehouseID, partID); err != nil {
			return errors.Wrap(err, "delete stock row")
		}

		change.Total, err = s.recomputeTotal(tx, partID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishChange("remove", change)
	return change, nil
}

// Deplete consumes qty units of an already-locked part inside the caller's
// transaction, draining the warehouse rows holding the most stock first
// (ties broken by warehouse id). Rows drained to zero are kept; only an
// explicit RemoveStockRow deletes them.
func (s *Service) Deplete(tx *gorm.DB, part *domain.Part, qty int) (int, error) {
	if qty <= 0 {
		return 0, domain.ErrNonPositiveQuantity
	}

	rows, err := s.repo.ListStockRows(tx, part.ID)
	if err != nil {
		return 0, err
	}

	remain := qty
	for _, row := range rows {
		if remain == 0 {
			break
		}
		take := row.Quantity
		if take > remain {
			take = remain
		}
		if take == 0 {
			continue
		}
		if err := s.repo.UpdateStockQuantity(tx, row.WarehouseID, part.ID, row.Quantity-take); err != nil {
			return 0, errors.Wrap(err, "deplete stock row")
		}
		remain -= take
	}
	if remain > 0 {
		return 0, &domain.InsufficientStockError{
			PartID:    part.ID,
			Requested: qty,
			Available: qty - remain,
		}
	}

	return s.recomputeTotal(tx, part.ID)
}

// RepairAggregate re-derives a part's aggregate under its lock and rewrites
// it when it no longer matches the ledger. It returns the drift that was
// repaired (zero when the invariant already held).
func (s *Service) RepairAggregate(ctx context.Context, partID int64) (int, error) {
	var drift int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		part, err := s.repo.LockPart(tx, partID)
		if err != nil {
			return err
		}
		sum, err := s.repo.SumQuantities(tx, partID)
		if err != nil {
			return err
		}
		drift = sum - part.StockTotal
		if drift == 0 {
			return nil
		}
		zap.L().Warn("stock aggregate drift repaired",
			zap.Int64("part_id", partID),
			zap.Int("stored", part.StockTotal),
			zap.Int("derived", sum))
		return s.repo.SetStockTotal(tx, partID, sum)
	})
	return drift, err
}

// LockAndGetPart exposes the locked part read for services that orchestrate
// their own transactions (checkout).
func (s *Service) LockAndGetPart(tx *gorm.DB, partID int64) (*domain.Part, error) {
	return s.repo.LockPart(tx, partID)
}

func (s *Service) recomputeTotal(tx *gorm.DB, partID int64) (int, error) {
	sum, err := s.repo.SumQuantities(tx, partID)
	if err != nil {
		return 0, errors.Wrap(err, "sum stock rows")
	}
	if err := s.repo.SetStockTotal(tx, partID, sum); err != nil {
		return 0, errors.Wrap(err, "write stock total")
	}
	return sum, nil
}

func (s *Service) publishChange(op string, change *StockChange) {
	zap.L().Info("stock changed",
		zap.String("op", op),
		zap.Int64("warehouse_id", change.WarehouseID),
		zap.Int64("part_id", change.PartID),
		zap.Int("quantity", change.Quantity),
		zap.Int("total", change.Total))
	if s.bus != nil {
		s.bus.Publish(TopicStockChanged, op, *change)
	}
}
