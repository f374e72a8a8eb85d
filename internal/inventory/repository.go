package inventory

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/partdepot/partdepot/internal/domain"
)

// StockRepository provides row-level access to parts, warehouses and the
// warehouse_stock ledger. Every method operates on the caller's transaction
// handle so the lock discipline — part row first, then its stock rows — is
// decided by the service, not here.
type StockRepository interface {
	// LockPart reads the part row under an exclusive row lock.
	LockPart(tx *gorm.DB, partID int64) (*domain.Part, error)

	GetWarehouse(tx *gorm.DB, warehouseID int64) (*domain.Warehouse, error)

	// GetStockRow returns the (warehouse, part) row, or nil when absent.
	GetStockRow(tx *gorm.DB, warehouseID, partID int64) (*domain.WarehouseStock, error)

	// ListStockRows returns all stock rows of a part ordered by quantity
	// descending, warehouse id ascending.
	ListStockRows(tx *gorm.DB, partID int64) ([]domain.WarehouseStock, error)

	CreateStockRow(tx *gorm.DB, row *domain.WarehouseStock) error
	UpdateStockQuantity(tx *gorm.DB, warehouseID, partID int64, quantity int) error

	// DeleteStockRow removes the row and reports whether it existed.
	DeleteStockRow(tx *gorm.DB, warehouseID, partID int64) (bool, error)

	// SumQuantities recomputes the aggregate from the ledger rows.
	SumQuantities(tx *gorm.DB, partID int64) (int, error)

	SetStockTotal(tx *gorm.DB, partID int64, total int) error
}

// GormStockRepository is the gorm implementation of StockRepository.
type GormStockRepository struct {
	lockWait time.Duration
}

var _ StockRepository = (*GormStockRepository)(nil)

// NewGormStockRepository creates a stock repository whose locked reads wait
// at most lockWait before failing with domain.ErrLockTimeout.
func NewGormStockRepository(lockWait time.Duration) *GormStockRepository {
	if lockWait <= 0 {
		lockWait = 3 * time.Second
	}
	return &GormStockRepository{lockWait: lockWait}
}

func (r *GormStockRepository) LockPart(tx *gorm.DB, partID int64) (*domain.Part, error) {
	if tx.Dialector.Name() == "postgres" {
		// SET LOCAL scopes the bound wait to the current transaction.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockWait.Milliseconds())
		if err := tx.Exec(stmt).Error; err != nil {
			return nil, err
		}
	}

	q := tx
	if tx.Dialector.Name() != "sqlite" {
		// sqlite has no row locks; its writers are serialized per database.
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var part domain.Part
	err := q.Where("id = ?", partID).First(&part).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, domain.ErrPartNotFound
	case isLockTimeout(err):
		return nil, domain.ErrLockTimeout
	case err != nil:
		return nil, err
	}
	return &part, nil
}

func (r *GormStockRepository) GetWarehouse(tx *gorm.DB, warehouseID int64) (*domain.Warehouse, error) {
	var wh domain.Warehouse
	err := tx.Where("id = ?", warehouseID).First(&wh).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrWarehouseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wh, nil
}

func (r *GormStockRepository) GetStockRow(tx *gorm.DB, warehouseID, partID int64) (*domain.WarehouseStock, error) {
	var row domain.WarehouseStock
	err := tx.Where("warehouse_id = ? AND part_id = ?", warehouseID, partID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *GormStockRepository) ListStockRows(tx *gorm.DB, partID int64) ([]domain.WarehouseStock, error) {
	var rows []domain.WarehouseStock
	err := tx.Where("part_id = ?", partID).
		Order("quantity DESC, warehouse_id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *GormStockRepository) CreateStockRow(tx *gorm.DB, row *domain.WarehouseStock) error {
	now := time.Now()
	row.CreatedAt = now
	row.UpdatedAt = now
	return tx.Create(row).Error
}

func (r *GormStockRepository) UpdateStockQuantity(tx *gorm.DB, warehouseID, partID int64, quantity int) error {
	return tx.Model(&domain.WarehouseStock{}).
		Where("warehouse_id = ? AND part_id = ?", warehouseID, partID).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": time.Now(),
		}).Error
}

func (r *GormStockRepository) DeleteStockRow(tx *gorm.DB, warehouseID, partID int64) (bool, error) {
	res := tx.Where("warehouse_id = ? AND part_id = ?", warehouseID, partID).
		Delete(&domain.WarehouseStock{})
	return res.RowsAffected > 0, res.Error
}

func (r *GormStockRepository) SumQuantities(tx *gorm.DB, partID int64) (int, error) {
	var total int
	err := tx.Model(&domain.WarehouseStock{}).
		Where("part_id = ?", partID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return total, err
}

func (r *GormStockRepository) SetStockTotal(tx *gorm.DB, partID int64, total int) error {
	return tx.Model(&domain.Part{}).
		Where("id = ?", partID).
		Updates(map[string]interface{}{
			"stock_total": total,
			"updated_at":  time.Now(),
		}).Error
}

// isLockTimeout recognizes the postgres lock_not_available failure (55P03)
// raised when lock_timeout expires.
func isLockTimeout(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "55P03") ||
		strings.Contains(strings.ToLower(msg), "lock timeout")
}
