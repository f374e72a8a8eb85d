package category

import (
	"context"
	"testing"

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
	require.NoError(t, db.AutoMigrate(&domain.Category{}, &domain.Part{}))
	return db
}

func TestCreate(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	root, err := svc.Create(ctx, "Engine", nil)
	require.NoError(t, err)
	assert.Nil(t, root.ParentID)

	child, err := svc.Create(ctx, "Pistons", &root.ID)
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, root.ID, *child.ParentID)
}

func TestCreate_DuplicateName(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, "Brakes", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "Brakes", nil)
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
}

func TestCreate_ParentNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	missing := int64(12345)
	_, err := svc.Create(context.Background(), "Suspension", &missing)
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestUpdate_CycleDetected(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	a, err := svc.Create(ctx, "A", nil)
	require.NoError(t, err)
	b, err := svc.Create(ctx, "B", &a.ID)
	require.NoError(t, err)

	_, err = svc.Update(ctx, a.ID, UpdateRequest{ParentID: &b.ID})
	assert.ErrorIs(t, err, domain.ErrCycleDetected)

	// Both rows keep their parents.
	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)
	got, err = svc.Get(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, a.ID, *got.ParentID)
}

func TestUpdate_DeepCycleDetected(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	a, _ := svc.Create(ctx, "A", nil)
	b, _ := svc.Create(ctx, "B", &a.ID)
	c, _ := svc.Create(ctx, "C", &b.ID)

	_, err := svc.Update(ctx, a.ID, UpdateRequest{ParentID: &c.ID})
	assert.ErrorIs(t, err, domain.ErrCycleDetected)
}

func TestUpdate_SelfParent(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	a, err := svc.Create(ctx, "A", nil)
	require.NoError(t, err)

	_, err = svc.Update(ctx, a.ID, UpdateRequest{ParentID: &a.ID})
	assert.ErrorIs(t, err, domain.ErrSelfParent)
}

func TestUpdate_RenameAndMove(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	a, _ := svc.Create(ctx, "Electrics", nil)
	b, _ := svc.Create(ctx, "Lighting", nil)

	name := "Lamps"
	got, err := svc.Update(ctx, b.ID, UpdateRequest{Name: &name, ParentID: &a.ID})
	require.NoError(t, err)
	assert.Equal(t, "Lamps", got.Name)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, a.ID, *got.ParentID)
}

func TestUpdate_DuplicateNameExcludesSelf(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	a, _ := svc.Create(ctx, "Filters", nil)
	_, err := svc.Create(ctx, "Belts", nil)
	require.NoError(t, err)

	// Re-submitting its own name is fine.
	same := "Filters"
	_, err = svc.Update(ctx, a.ID, UpdateRequest{Name: &same})
	require.NoError(t, err)

	// Taking another category's name is not.
	taken := "Belts"
	_, err = svc.Update(ctx, a.ID, UpdateRequest{Name: &taken})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
}

func TestDelete_Guards(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	a, _ := svc.Create(ctx, "Exhaust", nil)
	b, _ := svc.Create(ctx, "Mufflers", &a.ID)

	err := svc.Delete(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrHasSubcategories)

	require.NoError(t, db.Create(&domain.Part{
		ID:                     common.UUIDint64(),
		Name:                   "muffler-x",
		ManufacturerPartNumber: "MPN-muffler-x",
		CategoryID:             &b.ID,
	}).Error)
	err = svc.Delete(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrHasParts)

	require.NoError(t, db.Where("category_id = ?", b.ID).Delete(&domain.Part{}).Error)
	require.NoError(t, svc.Delete(ctx, b.ID))
	require.NoError(t, svc.Delete(ctx, a.ID))

	err = svc.Delete(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestTree(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	a, _ := svc.Create(ctx, "Engine", nil)
	b, _ := svc.Create(ctx, "Brakes", nil)
	c, _ := svc.Create(ctx, "Pistons", &a.ID)
	d, _ := svc.Create(ctx, "Rings", &c.ID)

	tree, err := svc.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 2)

	// Snowflake ids are monotonic, so creation order is id order.
	assert.Equal(t, a.ID, tree[0].ID)
	assert.Equal(t, b.ID, tree[1].ID)
	require.Len(t, tree[0].Subcategories, 1)
	assert.Equal(t, c.ID, tree[0].Subcategories[0].ID)
	require.Len(t, tree[0].Subcategories[0].Subcategories, 1)
	assert.Equal(t, d.ID, tree[0].Subcategories[0].Subcategories[0].ID)
	assert.Empty(t, tree[1].Subcategories)
}

func TestCheckNoCycle_CorruptChainTerminates(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	// Build x <-> y corruption directly, bypassing the service guards.
	x := &domain.Category{ID: common.UUIDint64(), Name: "X"}
	y := &domain.Category{ID: common.UUIDint64(), Name: "Y"}
	require.NoError(t, db.Create(x).Error)
	require.NoError(t, db.Create(y).Error)
	require.NoError(t, db.Model(x).Update("parent_id", y.ID).Error)
	require.NoError(t, db.Model(y).Update("parent_id", x.ID).Error)

	z, err := svc.Create(ctx, "Z", nil)
	require.NoError(t, err)

	// Moving Z under the corrupt chain must fail, not hang.
	_, err = svc.Update(ctx, z.ID, UpdateRequest{ParentID: &x.ID})
	assert.ErrorIs(t, err, domain.ErrCycleDetected)
}
