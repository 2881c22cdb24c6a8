/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Structural parsing (numbers, decimals) happens here; business
  validation lives in the inventory package.
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/stock-ledger/inventory"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ItemDTO represents an item in API responses.
type ItemDTO struct {
	ID          int64  `json:"id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantity"`
	MinStock    int    `json:"min_stock"`
	SupplierID  *int64 `json:"supplier_id,omitempty"`
	LowStock    bool   `json:"low_stock"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

func itemDTO(it inventory.Item) ItemDTO {
	return ItemDTO{
		ID:          it.ID,
		SKU:         it.SKU,
		Name:        it.Name,
		Description: it.Description,
		Price:       it.Price.String(),
		Quantity:    it.Quantity,
		MinStock:    it.MinStock,
		SupplierID:  it.SupplierID,
		LowStock:    it.LowStock(),
		CreatedAt:   it.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   it.UpdatedAt.Format(time.RFC3339),
	}
}

func itemDTOs(items []inventory.Item) []ItemDTO {
	dtos := make([]ItemDTO, len(items))
	for i, it := range items {
		dtos[i] = itemDTO(it)
	}
	return dtos
}

// ItemRequest is the request body for creating or updating an item.
type ItemRequest struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantity"`
	MinStock    int    `json:"min_stock"`
	SupplierID  *int64 `json:"supplier_id"`
}

// Draft converts the request into a domain draft. An empty price means
// zero; a malformed price is a validation error.
func (r ItemRequest) Draft() (inventory.ItemDraft, error) {
	price := decimal.Zero
	if r.Price != "" {
		var err error
		price, err = decimal.NewFromString(r.Price)
		if err != nil {
			return inventory.ItemDraft{}, &inventory.ValidationError{
				Field: "price", Message: "must be a decimal number",
			}
		}
	}
	return inventory.ItemDraft{
		SKU:         r.SKU,
		Name:        r.Name,
		Description: r.Description,
		Price:       price,
		Quantity:    r.Quantity,
		MinStock:    r.MinStock,
		SupplierID:  r.SupplierID,
	}, nil
}

// ChangeStockRequest applies a signed delta to one item.
type ChangeStockRequest struct {
	Delta int    `json:"delta"`
	Kind  string `json:"kind"`
	Note  string `json:"note"`
}

// ChangeStockResponse reports the result of a stock change.
type ChangeStockResponse struct {
	Item              ItemDTO `json:"item"`
	LowStockTriggered bool    `json:"low_stock_triggered"`
}

// MovementDTO represents one ledger entry in API responses.
type MovementDTO struct {
	ID        string `json:"id"`
	ItemID    int64  `json:"item_id"`
	Delta     int    `json:"delta"`
	Kind      string `json:"kind"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
