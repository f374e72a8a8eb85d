package inventory

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/partdepot/partdepot/internal/domain"
	"github.com/partdepot/partdepot/pkg/common"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	return db
}

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	return NewService(db, NewGormStockRepository(3*time.Second), nil)
}

func createPart(t *testing.T, db *gorm.DB, name string, price float64) *domain.Part {
	t.Helper()
	part := &domain.Part{
		ID:                     common.UUIDint64(),
		Name:                   name,
		PartNumber:             "PN-" + name,
		ManufacturerPartNumber: "MPN-" + name,
		Price:                  price,
	}
	require.NoError(t, db.Create(part).Error)
	return part
}

func createWarehouse(t *testing.T, db *gorm.DB, name string) *domain.Warehouse {
	t.Helper()
	wh := &domain.Warehouse{
		ID:       common.UUIDint64(),
		Name:     name,
		Location: name + " street",
	}
	require.NoError(t, db.Create(wh).Error)
	return wh
}

func partTotal(t *testing.T, db *gorm.DB, partID int64) int {
	t.Helper()
	var part domain.Part
	require.NoError(t, db.First(&part, partID).Error)
	return part.StockTotal
}

func TestAddStock_TwoWarehouses(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	part := createPart(t, db, "brake-pad", 25)
	w1 := createWarehouse(t, db, "north")
	w2 := createWarehouse(t, db, "south")

	change, err := svc.AddStock(ctx, w1.ID, part.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, change.Quantity)
	assert.Equal(t, 10, change.Total)

	change, err = svc.AddStock(ctx, w2.ID, part.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, change.Quantity)
	assert.Equal(t, 15, change.Total)

	assert.Equal(t, 15, partTotal(t, db, part.ID))
}

func TestAddStock_MergesIntoExistingRow(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	part := createPart(t, db, "oil-filter", 8)
	wh := createWarehouse(t, db, "main")

	_, err := svc.AddStock(ctx, wh.ID, part.ID, 4)
	require.NoError(t, err)
	change, err := svc.AddStock(ctx, wh.ID, part.ID, 6)
	require.NoError(t, err)
	assert.Equal(t, 10, change.Quantity)
	assert.Equal(t, 10, change.Total)

	var count int64
	require.NoError(t, db.Model(&domain.WarehouseStock{}).
		Where("part_id = ?", part.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAddStock_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	part := createPart(t, db, "spark-plug", 3)
	wh := createWarehouse(t, db, "main")

	_, err := svc.AddStock(ctx, wh.ID, part.ID, 0)
	assert.ErrorIs(t, err, domain.ErrNonPositiveQuantity)
	_, err = svc.AddStock(ctx, wh.ID, part.ID, -2)
	assert.ErrorIs(t, err, domain.ErrNonPositiveQuantity)

	_, err = svc.AddStock(ctx, wh.ID+1, part.ID, 1)
	assert.ErrorIs(t, err, domain.ErrWarehouseNotFound)
	_, err = svc.AddStock(ctx, wh.ID, part.ID+1, 1)
	assert.ErrorIs(t, err, domain.ErrPartNotFound)
}

func TestDecreaseStock(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	part := createPart(t, db, "wiper", 12)
	wh := createWarehouse(t, db, "main")

	_, err := svc.AddStock(ctx, wh.ID, part.ID, 10)
	require.NoError(t, err)

	change, err := svc.DecreaseStock(ctx, wh.ID, part.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, change.Quantity)
	assert.Equal(t, 7, change.Total)
}

func TestDecreaseStock_MissingRow(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	part := createPart(t, db, "alternator", 150)
	wh := createWarehouse(t, db, "main")

	_, err := svc.DecreaseStock(ctx, wh.ID, part.ID, 1)
	assert.ErrorIs(t, err, domain.ErrStockRowNotFound)
}

func TestDecreaseStock_InsufficientLeavesStateUnchanged(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	part := createPart(t, db, "radiator", 90)
	wh := createWarehouse(t, db, "main")

	_, err := svc.AddStock(ctx, wh.ID, part.ID, 5)
	require.NoError(t, err)

	_, err = svc.DecreaseStock(ctx, wh.ID, part.ID, 8)
	require.Error(t, err)

	ise, ok := domain.IsInsufficientStock(err)
	require.True(t, ok)
	assert.Equal(t, part.ID, ise.PartID)
	assert.Equal(t, 8, ise.Requested)
	assert.Equal(t, 5, ise.Available)

	row := &domain.WarehouseStock{}
	require.NoError(t, db.Where("warehouse_id = ? AND part_id = ?", wh.ID, part.ID).First(row).Error)
	assert.Equal(t, 5, row.Quantity)
	assert.Equal(t, 5, partTotal(t, db, part.ID))
}

func TestRemoveStockRow(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	part := createPart(t, db, "clutch", 210)
	w1 := createWarehouse(t, db, "north")
	w2 := createWarehouse(t, db, "south")

	_, err := svc.AddStock(ctx, w1.ID, part.ID, 6)
	require.NoError(t, err)
	_, err = svc.AddStock(ctx, w2.ID, part.ID, 4)
	require.NoError(t, err)

	change, err := svc.RemoveStockRow(ctx, w1.ID, part.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, change.Removed)
	assert.Equal(t, 4, change.Total)

	row, err := NewGormStockRepository(time.Second).GetStockRow(db, w1.ID, part.ID)
	require.NoError(t, err)
	assert.Nil(t, row)

	_, err = svc.RemoveStockRow(ctx, w1.ID, part.ID)
	assert.ErrorIs(t, err, domain.ErrStockRowNotFound)
}

func TestAggregateInvariantAfterMixedOperations(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	part := createPart(t, db, "headlamp", 60)
	w1 := createWarehouse(t, db, "north")
	w2 := createWarehouse(t, db, "south")
	w3 := createWarehouse(t, db, "east")

	_, err := svc.AddStock(ctx, w1.ID, part.ID, 12)
	require.NoError(t, err)
	_, err = svc.AddStock(ctx, w2.ID, part.ID, 7)
	require.NoError(t, err)
	_, err = svc.AddStock(ctx, w3.ID, part.ID, 1)
	require.NoError(t, err)
	_, err = svc.DecreaseStock(ctx, w1.ID, part.ID, 5)
	require.NoError(t, err)
	_, err = svc.RemoveStockRow(ctx, w3.ID, part.ID)
	require.NoError(t, err)

	repo := NewGormStockRepository(time.Second)
	sum, err := repo.SumQuantities(db, part.ID)
	require.NoError(t, err)
	assert.Equal(t, sum, partTotal(t, db, part.ID))
	assert.Equal(t, 14, sum)

	// Nothing went negative along the way.
	var negative int64
	require.NoError(t, db.Model(&domain.WarehouseStock{}).
		Where("quantity < 0").Count(&negative).Error)
	assert.EqualValues(t, 0, negative)
}

func TestRepairAggregate(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	part := createPart(t, db, "gasket", 4)
	wh := createWarehouse(t, db, "main")

	_, err := svc.AddStock(ctx, wh.ID, part.ID, 9)
	require.NoError(t, err)

	// Corrupt the aggregate behind the service's back.
	require.NoError(t, db.Model(&domain.Part{}).
		Where("id = ?", part.ID).Update("stock_total", 42).Error)

	drift, err := svc.RepairAggregate(ctx, part.ID)
	require.NoError(t, err)
	assert.Equal(t, 9-42, drift)
	assert.Equal(t, 9, partTotal(t, db, part.ID))

	drift, err = svc.RepairAggregate(ctx, part.ID)
	require.NoError(t, err)
	assert.Zero(t, drift)
}

func TestConcurrentAddStockConverges(t *testing.T) {
	// File-backed db: BEGIN IMMEDIATE plus a generous busy timeout makes
	// concurrent writers queue instead of failing.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_txlock=immediate",
		filepath.Join(t.TempDir(), "stock.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))

	svc := newTestService(t, db)
	ctx := context.Background()

	part := createPart(t, db, "turbo", 900)
	w1 := createWarehouse(t, db, "north")
	w2 := createWarehouse(t, db, "south")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = svc.AddStock(ctx, w1.ID, part.ID, 5)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = svc.AddStock(ctx, w2.ID, part.ID, 3)
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 8, partTotal(t, db, part.ID))
}

func TestLockTimeoutDetection(t *testing.T) {
	assert.True(t, isLockTimeout(errors.New(`ERROR: canceling statement due to lock timeout (SQLSTATE 55P03)`)))
	assert.False(t, isLockTimeout(nil))
	assert.False(t, isLockTimeout(errors.New("duplicate key value")))
}
