/*
Package sqlite provides the SQLite-backed implementation of the
inventory store.

PURPOSE:
  Implements inventory.Store using SQLite. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  items:     Current authoritative row per item (quantity lives here)
  movements: Immutable append-only ledger of every stock change

ATOMICITY:
  ApplyQuantityDelta runs the quantity check, the quantity update, and
  the movement insert inside ONE sql.Tx. Either both writes commit or
  neither does; a crash between them is never observable.

APPEND-ONLY ENFORCEMENT:
  No UPDATE or DELETE statements exist for the movements table. Deleting
  an item keeps its movements - the audit trail outlives the row, which
  is why movements carry no foreign key to items.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety: one writer at a time, so two
  concurrent deltas on the same item can never validate against the
  same "current quantity". Readers proceed in parallel.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/warehouse.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - inventory/store.go: Interface definition
  - inventory/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/stock-ledger/inventory"
)

// Store implements inventory.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One pooled connection: SQLite allows a single writer anyway, and
	// a ":memory:" database exists per-connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Items (current authoritative state)
	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sku TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 0),
		min_stock INTEGER NOT NULL DEFAULT 0,
		supplier_id INTEGER,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_name ON items(name);

	-- Movements (append-only ledger)
	-- Deliberately no FK to items: the ledger outlives deleted rows.
	CREATE TABLE IF NOT EXISTS movements (
		id TEXT PRIMARY KEY,
		item_id INTEGER NOT NULL,
		delta INTEGER NOT NULL,
		kind TEXT NOT NULL,
		note TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_movements_item
		ON movements(item_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_movements_kind
		ON movements(kind);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ITEM CRUD
// =============================================================================

// CreateItem assigns a new id and persists the draft in one transaction.
func (s *Store) CreateItem(ctx context.Context, draft inventory.ItemDraft) (inventory.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO items (sku, name, description, price, quantity, min_stock, supplier_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		draft.SKU, draft.Name, draft.Description, draft.Price.String(),
		draft.Quantity, draft.MinStock, nullInt64(draft.SupplierID),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return inventory.Item{}, &inventory.DuplicateSKUError{SKU: draft.SKU}
		}
		return inventory.Item{}, storeErr("insert item", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return inventory.Item{}, storeErr("read generated id", err)
	}

	return inventory.Item{
		ID:          id,
		SKU:         draft.SKU,
		Name:        draft.Name,
		Description: draft.Description,
		Price:       draft.Price,
		Quantity:    draft.Quantity,
		MinStock:    draft.MinStock,
		SupplierID:  draft.SupplierID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// GetItem returns the item, or nil if absent.
func (s *Store) GetItem(ctx context.Context, id int64) (*inventory.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getItem(ctx, s.db, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) getItem(ctx context.Context, db querier, id int64) (*inventory.Item, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, sku, name, description, price, quantity, min_stock, supplier_id, created_at, updated_at
		FROM items WHERE id = ?`, id)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("query item", err)
	}
	return item, nil
}

// GetItemBySKU returns the item with the given sku, or nil if absent.
func (s *Store) GetItemBySKU(ctx context.Context, sku string) (*inventory.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, sku, name, description, price, quantity, min_stock, supplier_id, created_at, updated_at
		FROM items WHERE sku = ?`, sku)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("query item by sku", err)
	}
	return item, nil
}

// ListItems returns all items ordered by name.
func (s *Store) ListItems(ctx context.Context) ([]inventory.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sku, name, description, price, quantity, min_stock, supplier_id, created_at, updated_at
		FROM items ORDER BY name, id`)
	if err != nil {
		return nil, storeErr("list items", err)
	}
	defer rows.Close()

	var items []inventory.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, storeErr("scan item", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem replaces the full row identified by item.ID.
func (s *Store) UpdateItem(ctx context.Context, item inventory.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET sku = ?, name = ?, description = ?, price = ?, quantity = ?, min_stock = ?, supplier_id = ?, updated_at = ?
		WHERE id = ?`,
		item.SKU, item.Name, item.Description, item.Price.String(),
		item.Quantity, item.MinStock, nullInt64(item.SupplierID),
		time.Now().UTC().Format(time.RFC3339), item.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &inventory.DuplicateSKUError{SKU: item.SKU}
		}
		return storeErr("update item", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("update item", err)
	}
	if n == 0 {
		return inventory.ErrNotFound
	}
	return nil
}

// DeleteItem removes the item row. Movements are retained.
func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return storeErr("delete item", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("delete item", err)
	}
	if n == 0 {
		return inventory.ErrNotFound
	}
	return nil
}

// =============================================================================
// QUANTITY DELTA - the atomic pair
// =============================================================================

// ApplyQuantityDelta applies a signed delta and appends one movement as
// a single transaction. The read-check-write runs under the store's
// write lock, so concurrent deltas on the same item serialize and can
// never both validate against the same quantity.
func (s *Store) ApplyQuantityDelta(ctx context.Context, id int64, delta int, kind inventory.MovementKind, note string) (inventory.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return inventory.Item{}, storeErr("begin tx", err)
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRowContext(ctx, "SELECT quantity FROM items WHERE id = ?", id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.Item{}, inventory.ErrNotFound
	}
	if err != nil {
		return inventory.Item{}, storeErr("read quantity", err)
	}

	updated := current + delta
	if updated < 0 {
		return inventory.Item{}, &inventory.InsufficientStockError{
			ItemID:    id,
			Available: current,
			Requested: -delta,
		}
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		"UPDATE items SET quantity = ?, updated_at = ? WHERE id = ?",
		updated, now.Format(time.RFC3339), id,
	); err != nil {
		return inventory.Item{}, storeErr("update quantity", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO movements (id, item_id, delta, kind, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), id, delta, string(kind), nullString(note),
		now.Format(time.RFC3339),
	); err != nil {
		return inventory.Item{}, storeErr("append movement", err)
	}

	item, err := s.getItem(ctx, tx, id)
	if err != nil {
		return inventory.Item{}, err
	}
	if item == nil {
		return inventory.Item{}, inventory.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return inventory.Item{}, storeErr("commit", err)
	}
	return *item, nil
}

// =============================================================================
// MOVEMENT LEDGER (read-only; writes happen inside ApplyQuantityDelta)
// =============================================================================

// ListMovements returns the most recent movements for an item, newest
// first. A limit <= 0 means no limit.
func (s *Store) ListMovements(ctx context.Context, itemID int64, limit int) ([]inventory.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, item_id, delta, kind, note, created_at
		FROM movements
		WHERE item_id = ?
		ORDER BY created_at DESC, rowid DESC`
	args := []any{itemID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list movements", err)
	}
	defer rows.Close()

	var movements []inventory.Movement
	for rows.Next() {
		var (
			m         inventory.Movement
			kind      string
			note      sql.NullString
			createdAt string
		)
		if err := rows.Scan(&m.ID, &m.ItemID, &m.Delta, &kind, &note, &createdAt); err != nil {
			return nil, storeErr("scan movement", err)
		}
		m.Kind = inventory.MovementKind(kind)
		m.Note = note.String
		m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// =============================================================================
// ROW MAPPING & HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

// scanItem is the single row-to-Item conversion. Both *sql.Row and
// *sql.Rows satisfy rowScanner.
func scanItem(row rowScanner) (*inventory.Item, error) {
	var (
		item       inventory.Item
		price      string
		supplierID sql.NullInt64
		createdAt  string
		updatedAt  string
	)

	err := row.Scan(&item.ID, &item.SKU, &item.Name, &item.Description,
		&price, &item.Quantity, &item.MinStock, &supplierID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	item.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("malformed price %q: %w", price, err)
	}
	if supplierID.Valid {
		v := supplierID.Int64
		item.SupplierID = &v
	}
	item.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	item.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &item, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, inventory.ErrStoreUnavailable, err)
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
