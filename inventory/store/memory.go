// Package store provides Store implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warp/stock-ledger/inventory"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements inventory.Store without a database. It mirrors the
// durable store's semantics: atomic delta+movement, sku uniqueness,
// name-ordered listing, movements retained after item deletion.
type Memory struct {
	mu        sync.RWMutex
	nextID    int64
	items     map[int64]inventory.Item
	movements []inventory.Movement
}

func NewMemory() *Memory {
	return &Memory{
		nextID: 1,
		items:  make(map[int64]inventory.Item),
	}
}

func (m *Memory) CreateItem(_ context.Context, draft inventory.ItemDraft) (inventory.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, it := range m.items {
		if it.SKU == draft.SKU {
			return inventory.Item{}, &inventory.DuplicateSKUError{SKU: draft.SKU}
		}
	}

	now := time.Now().UTC()
	item := inventory.Item{
		ID:          m.nextID,
		SKU:         draft.SKU,
		Name:        draft.Name,
		Description: draft.Description,
		Price:       draft.Price,
		Quantity:    draft.Quantity,
		MinStock:    draft.MinStock,
		SupplierID:  draft.SupplierID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.nextID++
	m.items[item.ID] = item
	return item, nil
}

func (m *Memory) GetItem(_ context.Context, id int64) (*inventory.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (m *Memory) GetItemBySKU(_ context.Context, sku string) (*inventory.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, it := range m.items {
		if it.SKU == sku {
			it := it
			return &it, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListItems(_ context.Context) ([]inventory.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]inventory.Item, 0, len(m.items))
	for _, it := range m.items {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name == items[j].Name {
			return items[i].ID < items[j].ID
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

func (m *Memory) UpdateItem(_ context.Context, item inventory.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.items[item.ID]
	if !ok {
		return inventory.ErrNotFound
	}
	for _, it := range m.items {
		if it.SKU == item.SKU && it.ID != item.ID {
			return &inventory.DuplicateSKUError{SKU: item.SKU}
		}
	}

	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = time.Now().UTC()
	m.items[item.ID] = item
	return nil
}

func (m *Memory) DeleteItem(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return inventory.ErrNotFound
	}
	// Movements are kept: the ledger outlives the row.
	delete(m.items, id)
	return nil
}

func (m *Memory) ApplyQuantityDelta(_ context.Context, id int64, delta int, kind inventory.MovementKind, note string) (inventory.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return inventory.Item{}, inventory.ErrNotFound
	}

	updated := item.Quantity + delta
	if updated < 0 {
		return inventory.Item{}, &inventory.InsufficientStockError{
			ItemID:    id,
			Available: item.Quantity,
			Requested: -delta,
		}
	}

	now := time.Now().UTC()
	item.Quantity = updated
	item.UpdatedAt = now
	m.items[id] = item

	m.movements = append(m.movements, inventory.Movement{
		ID:        fmt.Sprintf("mov-%d-%d", id, len(m.movements)+1),
		ItemID:    id,
		Delta:     delta,
		Kind:      kind,
		Note:      note,
		CreatedAt: now,
	})
	return item, nil
}

func (m *Memory) ListMovements(_ context.Context, itemID int64, limit int) ([]inventory.Movement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []inventory.Movement
	for i := len(m.movements) - 1; i >= 0; i-- {
		if m.movements[i].ItemID != itemID {
			continue
		}
		result = append(result, m.movements[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}
