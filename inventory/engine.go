/*
engine.go - Stock transaction engine

PURPOSE:
  Thin orchestration over the store, the cache, and the alert tracker.
  Every mutation goes store-first: the cache is only updated after the
  store write commits, and stock changes additionally run the low-stock
  edge check so the caller learns about a crossing synchronously.

FAILURE POLICY:
  InsufficientStock and NotFound are reported to the caller, never
  silently clamped; no automatic retry. On NotFound the recommended
  recovery is ReloadCache.

SEE ALSO:
  - cache.go: Coherence rules
  - alerts.go: Crossing dedup shared with the background sweep
*/
package inventory

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"
)

// Engine exposes the command and query surface of the stock ledger.
type Engine struct {
	store  Store
	cache  *Cache
	alerts *AlertTracker
	logger *logrus.Logger
}

// NewEngine wires the engine. The cache starts cold; call ReloadCache
// before serving reads.
func NewEngine(store Store, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{
		store:  store,
		cache:  NewCache(),
		alerts: NewAlertTracker(),
		logger: logger,
	}
}

// ReloadCache rebuilds the cache from the store. Called at startup and
// to recover from suspected drift.
func (e *Engine) ReloadCache(ctx context.Context) error {
	if err := e.cache.Reload(ctx, e.store); err != nil {
		return err
	}
	e.logger.WithField("items", e.cache.Len()).Info("cache reloaded")
	return nil
}

// =============================================================================
// QUERIES - served from the cache
// =============================================================================

// List returns all items ordered by name.
func (e *Engine) List() []Item {
	return e.cache.List()
}

// FindByID returns the cached item, or nil if absent.
func (e *Engine) FindByID(id int64) *Item {
	return e.cache.Get(id)
}

// FindBySKU returns the item with the given sku from the store,
// or nil if absent.
func (e *Engine) FindBySKU(ctx context.Context, sku string) (*Item, error) {
	return e.store.GetItemBySKU(ctx, sku)
}

// Search returns items whose name or sku contains the query,
// case-insensitive.
func (e *Engine) Search(query string) []Item {
	return e.cache.Search(query)
}

// Movements returns the most recent movements for an item, newest
// first.
func (e *Engine) Movements(ctx context.Context, itemID int64, limit int) ([]Movement, error) {
	return e.store.ListMovements(ctx, itemID, limit)
}

// LowStock returns every item currently at/under its threshold,
// independent of alert state.
func (e *Engine) LowStock() []Item {
	return e.alerts.ScanAll(e.cache.List())
}

// PollNewLowStock returns items newly at/under threshold since the last
// observation. Invoked by the periodic sweep.
func (e *Engine) PollNewLowStock() []Item {
	return e.alerts.ScanNew(e.cache.List())
}

// =============================================================================
// COMMANDS - store first, then cache
// =============================================================================

// Create validates the draft, persists it, and caches the stored row.
func (e *Engine) Create(ctx context.Context, draft ItemDraft) (Item, error) {
	if err := draft.Validate(); err != nil {
		return Item{}, err
	}

	item, err := e.store.CreateItem(ctx, draft)
	if err != nil {
		return Item{}, err
	}
	e.cache.Put(item)

	e.logger.WithFields(logrus.Fields{
		"item_id": item.ID,
		"sku":     item.SKU,
	}).Info("item created")
	return item, nil
}

// Update replaces the full row and refreshes the cache entry.
func (e *Engine) Update(ctx context.Context, item Item) (Item, error) {
	if err := item.Validate(); err != nil {
		return Item{}, err
	}

	if err := e.store.UpdateItem(ctx, item); err != nil {
		return Item{}, err
	}

	stored, err := e.store.GetItem(ctx, item.ID)
	if err != nil {
		return Item{}, err
	}
	if stored == nil {
		return Item{}, ErrNotFound
	}
	e.cache.Put(*stored)
	return *stored, nil
}

// Delete removes the item, its cache entry, and its alert state.
// The movement ledger is retained.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	if err := e.store.DeleteItem(ctx, id); err != nil {
		return err
	}
	e.cache.Remove(id)
	e.alerts.Forget(id)

	e.logger.WithField("item_id", id).Info("item deleted")
	return nil
}

// ChangeStock applies a signed delta to one item and reports whether
// the change crossed the low-stock threshold. The crossing fires only
// on the transition from above to at-or-below; a change that keeps the
// item below threshold returns false.
func (e *Engine) ChangeStock(ctx context.Context, id int64, delta int, kind MovementKind, note string) (bool, error) {
	// Quantity before the call, from the cache. An item the cache has
	// never seen is treated as never-low, so landing at/under the
	// threshold counts as a fresh crossing.
	oldQty := math.MaxInt
	if before := e.cache.Get(id); before != nil {
		oldQty = before.Quantity
	}

	updated, err := e.store.ApplyQuantityDelta(ctx, id, delta, kind, note)
	if err != nil {
		return false, err
	}
	e.cache.Put(updated)

	crossed := oldQty > updated.MinStock && updated.Quantity <= updated.MinStock
	if crossed {
		// The caller sees this crossing now; keep the sweep from
		// reporting it again.
		e.alerts.MarkAlerted(id)
	} else if updated.Quantity > updated.MinStock {
		e.alerts.Clear(id)
	}

	e.logger.WithFields(logrus.Fields{
		"item_id":      id,
		"delta":        delta,
		"kind":         kind,
		"new_quantity": updated.Quantity,
		"crossed_low":  crossed,
	}).Info("stock changed")
	return crossed, nil
}
