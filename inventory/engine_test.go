package inventory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/stock-ledger/inventory"
	memstore "github.com/warp/stock-ledger/inventory/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestEngine(t *testing.T) (*inventory.Engine, *memstore.Memory) {
	t.Helper()

	store := memstore.NewMemory()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	engine := inventory.NewEngine(store, logger)
	require.NoError(t, engine.ReloadCache(context.Background()))
	return engine, store
}

func createItem(t *testing.T, e *inventory.Engine, sku, name string, qty, minStock int) inventory.Item {
	t.Helper()
	it, err := e.Create(context.Background(), inventory.ItemDraft{
		SKU:      sku,
		Name:     name,
		Price:    decimal.RequireFromString("9.99"),
		Quantity: qty,
		MinStock: minStock,
	})
	require.NoError(t, err)
	return it
}

// =============================================================================
// CROSSING DETECTION
// =============================================================================

func TestChangeStock_CrossingFiresOnceOnTransition(t *testing.T) {
	// GIVEN: Item with quantity 12, minStock 10
	// WHEN: Dispatching 3 (-> 9), then 1 more (-> 8)
	// THEN: The first change reports a crossing, the second does not

	engine, _ := newTestEngine(t)
	ctx := context.Background()
	it := createItem(t, engine, "SKU-1", "Widget", 12, 10)

	crossed, err := engine.ChangeStock(ctx, it.ID, -3, inventory.KindDispatch, "")
	require.NoError(t, err)
	assert.True(t, crossed, "12 -> 9 with minStock 10 is a fresh crossing")
	assert.Equal(t, 9, engine.FindByID(it.ID).Quantity)

	crossed, err = engine.ChangeStock(ctx, it.ID, -1, inventory.KindDispatch, "")
	require.NoError(t, err)
	assert.False(t, crossed, "already below threshold, not a new crossing")
	assert.Equal(t, 8, engine.FindByID(it.ID).Quantity)
}

func TestChangeStock_RecoveryRearmsSynchronousCheck(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	it := createItem(t, engine, "SKU-1", "Widget", 12, 10)

	crossed, err := engine.ChangeStock(ctx, it.ID, -5, inventory.KindDispatch, "")
	require.NoError(t, err)
	assert.True(t, crossed)

	// Restock above threshold, then dip again: a second crossing.
	crossed, err = engine.ChangeStock(ctx, it.ID, +10, inventory.KindReceive, "restock")
	require.NoError(t, err)
	assert.False(t, crossed)

	crossed, err = engine.ChangeStock(ctx, it.ID, -8, inventory.KindDispatch, "")
	require.NoError(t, err)
	assert.True(t, crossed, "crossing after recovery must fire again")
}

func TestChangeStock_SynchronousCrossingSuppressesSweep(t *testing.T) {
	// GIVEN: A crossing reported synchronously by ChangeStock
	// WHEN: The periodic poll runs afterwards
	// THEN: The same crossing is not reported again (shared alert state)

	engine, _ := newTestEngine(t)
	ctx := context.Background()
	it := createItem(t, engine, "SKU-1", "Widget", 12, 10)

	crossed, err := engine.ChangeStock(ctx, it.ID, -3, inventory.KindDispatch, "")
	require.NoError(t, err)
	require.True(t, crossed)

	assert.Empty(t, engine.PollNewLowStock(), "poll must not repeat a crossing the caller already saw")
}

// =============================================================================
// NON-NEGATIVITY
// =============================================================================

func TestChangeStock_InsufficientStockLeavesQuantityUnchanged(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	it := createItem(t, engine, "SKU-1", "Widget", 5, 0)

	_, err := engine.ChangeStock(ctx, it.ID, -6, inventory.KindDispatch, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	var stockErr *inventory.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 6, stockErr.Requested)

	// Neither store nor cache moved.
	stored, err := store.GetItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Quantity)
	assert.Equal(t, 5, engine.FindByID(it.ID).Quantity)

	// And no movement was recorded for the failed attempt.
	movements, err := store.ListMovements(ctx, it.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestChangeStock_ExactDepletionToZeroSucceeds(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	it := createItem(t, engine, "SKU-1", "Widget", 5, 0)

	_, err := engine.ChangeStock(ctx, it.ID, -5, inventory.KindDispatch, "")
	require.NoError(t, err)
	assert.Equal(t, 0, engine.FindByID(it.ID).Quantity)
}

// =============================================================================
// CACHE COHERENCE
// =============================================================================

func TestEngine_CacheMatchesStoreAfterEveryMutation(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	// Create
	it := createItem(t, engine, "SKU-1", "Widget", 10, 2)
	stored, _ := store.GetItem(ctx, it.ID)
	assert.Equal(t, *stored, *engine.FindByID(it.ID))

	// Update
	it.Name = "Widget Mk2"
	it.MinStock = 4
	updated, err := engine.Update(ctx, it)
	require.NoError(t, err)
	stored, _ = store.GetItem(ctx, it.ID)
	assert.Equal(t, *stored, updated)
	assert.Equal(t, *stored, *engine.FindByID(it.ID))

	// ChangeStock
	_, err = engine.ChangeStock(ctx, it.ID, -3, inventory.KindDispatch, "")
	require.NoError(t, err)
	stored, _ = store.GetItem(ctx, it.ID)
	assert.Equal(t, *stored, *engine.FindByID(it.ID))

	// Delete
	require.NoError(t, engine.Delete(ctx, it.ID))
	stored, _ = store.GetItem(ctx, it.ID)
	assert.Nil(t, stored)
	assert.Nil(t, engine.FindByID(it.ID))
}

func TestEngine_DeleteClearsAlertState(t *testing.T) {
	// GIVEN: An item that has alerted
	// WHEN: It is deleted and a new low item with a fresh id appears
	// THEN: No stale state remains for the deleted id

	engine, _ := newTestEngine(t)
	ctx := context.Background()
	it := createItem(t, engine, "SKU-1", "Widget", 1, 10)

	low := engine.PollNewLowStock()
	require.Len(t, low, 1)

	require.NoError(t, engine.Delete(ctx, it.ID))
	assert.Empty(t, engine.PollNewLowStock())
	assert.Empty(t, engine.LowStock())
}

func TestChangeStock_ColdCacheTreatedAsNeverLow(t *testing.T) {
	// GIVEN: An item present in the store but missing from the cache
	// WHEN: A change lands it at/under threshold
	// THEN: The crossing fires (old quantity is the never-low sentinel)

	engine, store := newTestEngine(t)
	ctx := context.Background()

	stored, err := store.CreateItem(ctx, inventory.ItemDraft{
		SKU: "SKU-COLD", Name: "Cold", Price: decimal.Zero, Quantity: 8, MinStock: 10,
	})
	require.NoError(t, err)

	crossed, err := engine.ChangeStock(ctx, stored.ID, -1, inventory.KindDispatch, "")
	require.NoError(t, err)
	assert.True(t, crossed)

	// The change also warmed the cache with the committed row.
	assert.Equal(t, 7, engine.FindByID(stored.ID).Quantity)
}

// =============================================================================
// VALIDATION & UNIQUENESS
// =============================================================================

func TestCreate_ValidationRejectedBeforeStoreAccess(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	cases := []inventory.ItemDraft{
		{SKU: "", Name: "No SKU", Price: decimal.Zero},
		{SKU: "SKU-1", Name: "   ", Price: decimal.Zero},
		{SKU: "SKU-1", Name: "Bad Price", Price: decimal.RequireFromString("-1")},
		{SKU: "SKU-1", Name: "Bad Qty", Price: decimal.Zero, Quantity: -1},
		{SKU: "SKU-1", Name: "Bad Min", Price: decimal.Zero, MinStock: -1},
	}

	for _, d := range cases {
		_, err := engine.Create(ctx, d)
		assert.ErrorIs(t, err, inventory.ErrValidation)
	}

	items, err := store.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items, "nothing may reach the store on validation failure")
}

func TestCreate_DuplicateSKURejected(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	createItem(t, engine, "SKU-1", "Widget", 10, 2)

	_, err := engine.Create(ctx, inventory.ItemDraft{
		SKU: "SKU-1", Name: "Other", Price: decimal.Zero,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, inventory.ErrDuplicateSKU)
	assert.Len(t, engine.List(), 1, "no row inserted for the duplicate")
}

func TestChangeStock_UnknownItem(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.ChangeStock(context.Background(), 12345, -1, inventory.KindDispatch, "")
	assert.ErrorIs(t, err, inventory.ErrNotFound)
}

// =============================================================================
// QUERIES
// =============================================================================

func TestEngine_SearchAndFindBySKU(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	createItem(t, engine, "BLT-100", "Hex Bolts", 50, 10)
	createItem(t, engine, "NUT-200", "Hex Nuts", 30, 10)

	assert.Len(t, engine.Search("HEX"), 2)
	assert.Len(t, engine.Search("blt"), 1)

	found, err := engine.FindBySKU(ctx, "NUT-200")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Hex Nuts", found.Name)

	missing, err := engine.FindBySKU(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestEngine_MovementsNewestFirst(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	it := createItem(t, engine, "SKU-1", "Widget", 10, 0)

	_, err := engine.ChangeStock(ctx, it.ID, +5, inventory.KindReceive, "first")
	require.NoError(t, err)
	_, err = engine.ChangeStock(ctx, it.ID, -2, inventory.KindDispatch, "second")
	require.NoError(t, err)

	movements, err := engine.Movements(ctx, it.ID, 0)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, -2, movements[0].Delta)
	assert.Equal(t, +5, movements[1].Delta)

	limited, err := engine.Movements(ctx, it.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
