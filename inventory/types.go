/*
Package inventory provides the core stock ledger engine.

PURPOSE:
  This package contains the domain types and orchestration logic for
  tracking stocked items: the store contract (durable ledger), the
  coherent in-memory cache, the low-stock edge detector, and the engine
  that ties them together.

KEY CONCEPTS IN THIS FILE (types.go):
  - Item: A stocked product identified by a unique SKU
  - ItemDraft: Unvalidated input for item creation
  - Movement: An immutable ledger entry recording one stock change

DESIGN PRINCIPLES:
  1. Immutability: Movements are never modified or deleted
  2. Precision: Uses decimal.Decimal for prices to avoid float errors
  3. Single source of truth: The durable store owns item state; the
     cache is a mirror refreshed only after a committed write

SEE ALSO:
  - store.go: Persistence contract
  - engine.go: Command/query orchestration
  - alerts.go: Low-stock crossing detection
*/
package inventory

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ITEM - A stocked product
// =============================================================================

// Item is one stocked product. The id is assigned by the store on
// creation and is immutable thereafter. SKU is unique across all items.
type Item struct {
	ID          int64           `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	MinStock    int             `json:"min_stock"`
	SupplierID  *int64          `json:"supplier_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// LowStock reports whether the item is at or under its minimum-stock
// threshold.
func (i Item) LowStock() bool {
	return i.Quantity <= i.MinStock
}

// ItemDraft carries the caller-supplied fields for creating an item.
// The store assigns the id.
type ItemDraft struct {
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
	MinStock    int
	SupplierID  *int64
}

// Validate checks the draft before any store access.
func (d ItemDraft) Validate() error {
	if strings.TrimSpace(d.SKU) == "" {
		return &ValidationError{Field: "sku", Message: "sku is required"}
	}
	if strings.TrimSpace(d.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if d.Price.IsNegative() {
		return &ValidationError{Field: "price", Message: "price must not be negative"}
	}
	if d.Quantity < 0 {
		return &ValidationError{Field: "quantity", Message: "quantity must not be negative"}
	}
	if d.MinStock < 0 {
		return &ValidationError{Field: "min_stock", Message: "min_stock must not be negative"}
	}
	return nil
}

// Validate checks a full item row before an update.
func (i Item) Validate() error {
	return ItemDraft{
		SKU:      i.SKU,
		Name:     i.Name,
		Price:    i.Price,
		Quantity: i.Quantity,
		MinStock: i.MinStock,
	}.Validate()
}

// =============================================================================
// MOVEMENT - Atomic change to an item's stock level
// =============================================================================

// MovementKind tags a stock movement. Free-form; the constants below
// cover the common cases.
type MovementKind string

const (
	KindReceive    MovementKind = "receive"    // Inbound stock (positive delta)
	KindDispatch   MovementKind = "dispatch"   // Outbound stock (negative delta)
	KindAdjustment MovementKind = "adjustment" // Manual correction
)

// Movement is one append-only ledger entry. Once written it is never
// updated or deleted, even if the referenced item is removed.
type Movement struct {
	ID        string       `json:"id"`
	ItemID    int64        `json:"item_id"`
	Delta     int          `json:"delta"`
	Kind      MovementKind `json:"kind"`
	Note      string       `json:"note,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
