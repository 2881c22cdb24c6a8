package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/stock-ledger/inventory"
)

func item(id int64, sku string, qty, minStock int) inventory.Item {
	return inventory.Item{
		ID:       id,
		SKU:      sku,
		Name:     sku,
		Quantity: qty,
		MinStock: minStock,
	}
}

// =============================================================================
// EDGE DETECTION TESTS
// =============================================================================

func TestAlertTracker_ScanNew_ReportsOncePerCrossing(t *testing.T) {
	// GIVEN: An item at quantity 5 with minStock 10
	// WHEN: Scanning twice with unchanged input
	// THEN: The item is reported once, then not again

	tracker := inventory.NewAlertTracker()
	items := []inventory.Item{item(1, "SKU-1", 5, 10)}

	first := tracker.ScanNew(items)
	assert.Len(t, first, 1)
	assert.Equal(t, int64(1), first[0].ID)

	second := tracker.ScanNew(items)
	assert.Empty(t, second, "second scan with unchanged input must be empty")
}

func TestAlertTracker_ScanNew_RecoveryRearmsAlert(t *testing.T) {
	// GIVEN: An item that already alerted at quantity 5 (minStock 10)
	// WHEN: Stock rises to 11, then falls back to 9
	// THEN: The fall back under threshold alerts again

	tracker := inventory.NewAlertTracker()

	low := tracker.ScanNew([]inventory.Item{item(1, "SKU-1", 5, 10)})
	assert.Len(t, low, 1)

	recovered := tracker.ScanNew([]inventory.Item{item(1, "SKU-1", 11, 10)})
	assert.Empty(t, recovered, "recovered item must not alert")

	lowAgain := tracker.ScanNew([]inventory.Item{item(1, "SKU-1", 9, 10)})
	assert.Len(t, lowAgain, 1, "a fresh crossing after recovery must alert again")
}

func TestAlertTracker_ScanNew_OrderedByID(t *testing.T) {
	// Output order is deterministic regardless of input order.
	tracker := inventory.NewAlertTracker()

	items := []inventory.Item{
		item(3, "SKU-3", 0, 5),
		item(1, "SKU-1", 2, 5),
		item(2, "SKU-2", 100, 5),
	}

	result := tracker.ScanNew(items)
	assert.Len(t, result, 2)
	assert.Equal(t, int64(1), result[0].ID)
	assert.Equal(t, int64(3), result[1].ID)
}

func TestAlertTracker_ScanAll_IgnoresDedupState(t *testing.T) {
	// GIVEN: An item already marked as alerted
	// WHEN: Asking for the full low-stock list
	// THEN: The item is still included every time

	tracker := inventory.NewAlertTracker()
	items := []inventory.Item{item(1, "SKU-1", 5, 10), item(2, "SKU-2", 20, 10)}

	tracker.ScanNew(items)

	all := tracker.ScanAll(items)
	assert.Len(t, all, 1)
	assert.Equal(t, int64(1), all[0].ID)

	// And again - no dedup on the full list.
	assert.Len(t, tracker.ScanAll(items), 1)
}

func TestAlertTracker_AtThresholdCountsAsLow(t *testing.T) {
	// Quantity equal to minStock is low, not "still fine".
	tracker := inventory.NewAlertTracker()

	result := tracker.ScanNew([]inventory.Item{item(1, "SKU-1", 10, 10)})
	assert.Len(t, result, 1)
}

func TestAlertTracker_MarkAlerted_SuppressesNextScan(t *testing.T) {
	// GIVEN: A crossing already reported synchronously by ChangeStock
	// WHEN: The next sweep scans the same low item
	// THEN: It is not reported a second time

	tracker := inventory.NewAlertTracker()
	tracker.MarkAlerted(1)

	result := tracker.ScanNew([]inventory.Item{item(1, "SKU-1", 3, 10)})
	assert.Empty(t, result)
}

func TestAlertTracker_Forget_DropsState(t *testing.T) {
	tracker := inventory.NewAlertTracker()
	tracker.MarkAlerted(1)
	tracker.Forget(1)

	// With state forgotten, the same low item alerts again.
	result := tracker.ScanNew([]inventory.Item{item(1, "SKU-1", 3, 10)})
	assert.Len(t, result, 1)
}
