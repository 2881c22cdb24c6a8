/*
store.go - Persistence contract for items and stock movements

PURPOSE:
  Defines the interface between the engine and the database. The store
  is the single source of truth; the cache only ever mirrors what the
  store has committed.

ATOMICITY CONTRACT:
  ApplyQuantityDelta is the heart of the ledger: the quantity update and
  the movement append happen as ONE unit. A crash between the two writes
  must never be observable. Implementations use a database transaction
  (or equivalent) to make the pair indivisible.

MOVEMENT LEDGER:
  Movements are append-only. No Update, no Delete. Deleting an item does
  NOT delete its movements - the audit trail outlives the row.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - inventory/store: in-memory store for tests and dev mode

SEE ALSO:
  - engine.go: The only caller that mutates through this interface
*/
package inventory

import "context"

// Store handles durable persistence of items and their movement ledger.
type Store interface {
	// CreateItem assigns a new id and persists the row in one
	// transaction. Fails with DuplicateSKUError if the sku is taken.
	CreateItem(ctx context.Context, draft ItemDraft) (Item, error)

	// GetItem returns the item, or nil if absent.
	GetItem(ctx context.Context, id int64) (*Item, error)

	// GetItemBySKU returns the item with the given sku, or nil if absent.
	GetItemBySKU(ctx context.Context, sku string) (*Item, error)

	// ListItems returns all items ordered by name.
	ListItems(ctx context.Context) ([]Item, error)

	// UpdateItem replaces the full row identified by item.ID.
	// Fails with ErrNotFound or DuplicateSKUError.
	UpdateItem(ctx context.Context, item Item) error

	// DeleteItem removes the item row. Movements referencing the item
	// are retained. Fails with ErrNotFound.
	DeleteItem(ctx context.Context, id int64) error

	// ApplyQuantityDelta atomically applies a signed delta to one
	// item's quantity and appends exactly one movement recording it,
	// committing both or neither. Fails with InsufficientStockError if
	// the result would be negative (no partial write) or ErrNotFound.
	// Returns the updated row as read inside the same transaction.
	ApplyQuantityDelta(ctx context.Context, id int64, delta int, kind MovementKind, note string) (Item, error)

	// ListMovements returns the most recent movements for an item,
	// newest first. A limit <= 0 means no limit.
	ListMovements(ctx context.Context, itemID int64, limit int) ([]Movement, error)
}
