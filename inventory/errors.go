/*
errors.go - Centralized error types for the inventory engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers classify with errors.Is / errors.As; the structured types
  carry enough context to render a useful message.

ERROR CATEGORIES:
  1. Validation errors - Malformed input, rejected before store access
  2. Conflict errors   - SKU collisions, insufficient stock
  3. Store errors      - Connection/transaction failures

USAGE:
  if errors.Is(err, inventory.ErrInsufficientStock) {
      // re-prompt the user; nothing was written
  }
*/
package inventory

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when the referenced item does not exist.
	// Usually indicates a stale cache or stale caller selection; the
	// recommended recovery is a cache reload.
	ErrNotFound = errors.New("item not found")

	// ErrDuplicateSKU is returned when a write would violate SKU
	// uniqueness. The caller must choose a different code.
	ErrDuplicateSKU = errors.New("duplicate sku")

	// ErrInsufficientStock is returned when a delta would drive an
	// item's quantity negative. Nothing is written; the quantity is
	// never clamped.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrValidation is returned for malformed input, before any store
	// access.
	ErrValidation = errors.New("validation failed")

	// ErrStoreUnavailable is returned when the store cannot complete a
	// transaction. Fatal to the operation, not to the process; the
	// operation's effects are guaranteed not to have partially applied.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// DuplicateSKUError reports which SKU collided.
type DuplicateSKUError struct {
	SKU string
}

func (e *DuplicateSKUError) Error() string {
	return fmt.Sprintf("sku %q already exists", e.SKU)
}

func (e *DuplicateSKUError) Unwrap() error { return ErrDuplicateSKU }

// InsufficientStockError provides details about a stock shortage.
type InsufficientStockError struct {
	ItemID    int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d: available %d, requested %d",
		e.ItemID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// rather than a store failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrDuplicateSKU) ||
		errors.Is(err, ErrInsufficientStock)
}

// IsNotFound returns true if the error indicates a missing item.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
