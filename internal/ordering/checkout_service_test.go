package ordering

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/partdepot/partdepot/internal/domain"
	"github.com/partdepot/partdepot/pkg/common"
)

func newCheckoutFixture(t *testing.T) (*gorm.DB, *CartService, *CheckoutService) {
	t.Helper()
	db := newTestDB(t)
	return db, NewCartService(db), NewCheckoutService(db, newInventoryService(db), nil)
}

func TestCheckout(t *testing.T) {
	db, cart, checkout := newCheckoutFixture(t)
	ctx := context.Background()
	userID := common.UUIDint64()

	part := createStockedPart(t, db, "fuel-injector", 10, 20)
	_, err := cart.AddToCart(ctx, userID, part.ID, 3)
	require.NoError(t, err)

	order, err := checkout.Checkout(ctx, userID, "12 Depot街")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, 30.0, order.TotalAmount)
	assert.NotEmpty(t, order.OrderNumber)
	require.Len(t, order.Items, 1)
	assert.Equal(t, part.ID, order.Items[0].PartID)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, 10.0, order.Items[0].UnitPrice)

	// Stock reduced through the warehouse ledger, aggregate recomputed.
	var got domain.Part
	require.NoError(t, db.First(&got, part.ID).Error)
	assert.Equal(t, 17, got.StockTotal)

	var sum int
	require.NoError(t, db.Model(&domain.WarehouseStock{}).
		Where("part_id = ?", part.ID).
		Select("COALESCE(SUM(quantity), 0)").Scan(&sum).Error)
	assert.Equal(t, 17, sum)

	// Cart is empty afterwards.
	summary, err := cart.ViewCart(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, summary.Lines)
}

func TestCheckout_EmptyCart(t *testing.T) {
	_, _, checkout := newCheckoutFixture(t)

	_, err := checkout.Checkout(context.Background(), common.UUIDint64(), "nowhere")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestCheckout_InsufficientStockRollsBackEverything(t *testing.T) {
	db, cart, checkout := newCheckoutFixture(t)
	ctx := context.Background()
	userID := common.UUIDint64()

	p1 := createStockedPart(t, db, "coil", 5, 10)
	p2 := createStockedPart(t, db, "sensor", 30, 10)

	_, err := cart.AddToCart(ctx, userID, p1.ID, 4)
	require.NoError(t, err)
	_, err = cart.AddToCart(ctx, userID, p2.ID, 8)
	require.NoError(t, err)

	// Someone buys most sensors between add-to-cart and checkout.
	require.NoError(t, db.Model(&domain.WarehouseStock{}).
		Where("part_id = ?", p2.ID).Update("quantity", 2).Error)
	require.NoError(t, db.Model(&domain.Part{}).
		Where("id = ?", p2.ID).Update("stock_total", 2).Error)

	_, err = checkout.Checkout(ctx, userID, "addr")
	ise, ok := domain.IsInsufficientStock(err)
	require.True(t, ok)
	assert.Equal(t, p2.ID, ise.PartID)
	assert.Equal(t, 8, ise.Requested)
	assert.Equal(t, 2, ise.Available)

	// No order, no items, cart intact, stock untouched.
	var orders int64
	require.NoError(t, db.Model(&domain.Order{}).Where("user_id = ?", userID).Count(&orders).Error)
	assert.Zero(t, orders)
	var items int64
	require.NoError(t, db.Model(&domain.OrderItem{}).Count(&items).Error)
	assert.Zero(t, items)

	summary, err := cart.ViewCart(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, summary.Lines, 2)

	var got domain.Part
	require.NoError(t, db.First(&got, p1.ID).Error)
	assert.Equal(t, 10, got.StockTotal)
}

func TestCheckout_PartDeletedMidFlight(t *testing.T) {
	db, cart, checkout := newCheckoutFixture(t)
	ctx := context.Background()
	userID := common.UUIDint64()

	part := createStockedPart(t, db, "bearing", 7, 5)
	_, err := cart.AddToCart(ctx, userID, part.ID, 2)
	require.NoError(t, err)

	require.NoError(t, db.Delete(&domain.Part{}, part.ID).Error)

	_, err = checkout.Checkout(ctx, userID, "addr")
	assert.ErrorIs(t, err, domain.ErrPartNotFound)

	var orders int64
	require.NoError(t, db.Model(&domain.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
}

func TestCheckout_SnapshotsPriceAtPurchase(t *testing.T) {
	db, cart, checkout := newCheckoutFixture(t)
	ctx := context.Background()
	userID := common.UUIDint64()

	part := createStockedPart(t, db, "shock", 100, 10)
	_, err := cart.AddToCart(ctx, userID, part.ID, 1)
	require.NoError(t, err)

	// Price changes after the line was added; checkout uses the new price.
	require.NoError(t, db.Model(&domain.Part{}).
		Where("id = ?", part.ID).Update("price", 80).Error)

	order, err := checkout.Checkout(ctx, userID, "addr")
	require.NoError(t, err)
	assert.Equal(t, 80.0, order.Items[0].UnitPrice)
	assert.Equal(t, 80.0, order.TotalAmount)

	// A later price change no longer affects the snapshot.
	require.NoError(t, db.Model(&domain.Part{}).
		Where("id = ?", part.ID).Update("price", 999).Error)
	got, err := checkout.GetOrder(ctx, userID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 80.0, got.Items[0].UnitPrice)
}

func TestCheckout_NotIdempotent(t *testing.T) {
	db, cart, checkout := newCheckoutFixture(t)
	ctx := context.Background()
	userID := common.UUIDint64()

	part := createStockedPart(t, db, "strut", 20, 50)

	_, err := cart.AddToCart(ctx, userID, part.ID, 1)
	require.NoError(t, err)
	first, err := checkout.Checkout(ctx, userID, "addr")
	require.NoError(t, err)

	_, err = cart.AddToCart(ctx, userID, part.ID, 1)
	require.NoError(t, err)
	second, err := checkout.Checkout(ctx, userID, "addr")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.OrderNumber, second.OrderNumber)
}

func TestCheckout_DepletesLargestWarehouseFirst(t *testing.T) {
	db, cart, checkout := newCheckoutFixture(t)
	ctx := context.Background()
	userID := common.UUIDint64()

	part := createStockedPart(t, db, "axle", 60, 0)
	small := &domain.Warehouse{ID: common.UUIDint64(), Name: "small", Location: "a"}
	big := &domain.Warehouse{ID: common.UUIDint64(), Name: "big", Location: "b"}
	require.NoError(t, db.Create(small).Error)
	require.NoError(t, db.Create(big).Error)

	inv := newInventoryService(db)
	_, err := inv.AddStock(ctx, small.ID, part.ID, 2)
	require.NoError(t, err)
	_, err = inv.AddStock(ctx, big.ID, part.ID, 9)
	require.NoError(t, err)

	_, err = cart.AddToCart(ctx, userID, part.ID, 10)
	require.NoError(t, err)
	_, err = checkout.Checkout(ctx, userID, "addr")
	require.NoError(t, err)

	// 9 from the bigger row, the remaining 1 from the smaller.
	var bigRow, smallRow domain.WarehouseStock
	require.NoError(t, db.Where("warehouse_id = ? AND part_id = ?", big.ID, part.ID).First(&bigRow).Error)
	require.NoError(t, db.Where("warehouse_id = ? AND part_id = ?", small.ID, part.ID).First(&smallRow).Error)
	assert.Equal(t, 0, bigRow.Quantity)
	assert.Equal(t, 1, smallRow.Quantity)

	var got domain.Part
	require.NoError(t, db.First(&got, part.ID).Error)
	assert.Equal(t, 1, got.StockTotal)
}

func TestListOrders(t *testing.T) {
	db, cart, checkout := newCheckoutFixture(t)
	ctx := context.Background()
	userID := common.UUIDint64()

	part := createStockedPart(t, db, "mirror", 15, 30)
	for i := 0; i < 3; i++ {
		_, err := cart.AddToCart(ctx, userID, part.ID, 1)
		require.NoError(t, err)
		_, err = checkout.Checkout(ctx, userID, "addr")
		require.NoError(t, err)
	}

	orders, total, err := checkout.ListOrders(ctx, userID, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, orders, 2)
	assert.Greater(t, orders[0].ID, orders[1].ID)

	_, err = checkout.GetOrder(ctx, userID, 424242)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	// Another user cannot read these orders.
	_, err = checkout.GetOrder(ctx, userID+1, orders[0].ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
