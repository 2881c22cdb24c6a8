/*
handlers.go - HTTP API handlers for the stock ledger

PURPOSE:
  Exposes the inventory engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Items:
    GET    /api/items                 List all items (?q= for search)
    POST   /api/items                 Create item
    GET    /api/items/{id}            Get item
    PUT    /api/items/{id}            Update item (full row)
    DELETE /api/items/{id}            Delete item (ledger retained)
    GET    /api/items/{id}/movements  Movement history (?limit=)
    POST   /api/items/{id}/stock      Apply a signed stock delta

  Alerts:
    GET    /api/alerts/low-stock      All items at/under threshold
    POST   /api/alerts/poll           Only NEW low-stock items (dedup)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Item not found
  - 409: Duplicate SKU, insufficient stock
  - 500: Store failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/stock-ledger/inventory"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *inventory.Engine
}

// NewHandler creates a new handler backed by the given engine.
func NewHandler(engine *inventory.Engine) *Handler {
	return &Handler{Engine: engine}
}

// =============================================================================
// ITEM HANDLERS
// =============================================================================

// ListItems returns all items, or the search results when ?q= is set.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	var items []inventory.Item
	if q != "" {
		items = h.Engine.Search(q)
	} else {
		items = h.Engine.List()
	}
	writeJSON(w, http.StatusOK, itemDTOs(items))
}

// CreateItem creates a new item.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	draft, err := req.Draft()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	item, err := h.Engine.Create(r.Context(), draft)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemDTO(item))
}

// GetItem returns a single item.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item := h.Engine.FindByID(id)
	if item == nil {
		writeError(w, http.StatusNotFound, "Item not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, itemDTO(*item))
}

// UpdateItem replaces the full item row.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	draft, err := req.Draft()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	item, err := h.Engine.Update(r.Context(), inventory.Item{
		ID:          id,
		SKU:         draft.SKU,
		Name:        draft.Name,
		Description: draft.Description,
		Price:       draft.Price,
		Quantity:    draft.Quantity,
		MinStock:    draft.MinStock,
		SupplierID:  draft.SupplierID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemDTO(item))
}

// DeleteItem removes an item. Its movement ledger is retained.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	if err := h.Engine.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetMovements returns the item's movement history, newest first.
func (h *Handler) GetMovements(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	movements, err := h.Engine.Movements(r.Context(), id, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]MovementDTO, len(movements))
	for i, m := range movements {
		dtos[i] = MovementDTO{
			ID:        m.ID,
			ItemID:    m.ItemID,
			Delta:     m.Delta,
			Kind:      string(m.Kind),
			Note:      m.Note,
			CreatedAt: m.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ChangeStock applies a signed delta and reports whether the change
// crossed the low-stock threshold.
func (h *Handler) ChangeStock(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req ChangeStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	kind := inventory.MovementKind(req.Kind)
	if kind == "" {
		kind = inventory.KindAdjustment
	}

	crossed, err := h.Engine.ChangeStock(r.Context(), id, req.Delta, kind, req.Note)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	item := h.Engine.FindByID(id)
	if item == nil {
		writeError(w, http.StatusInternalServerError, "Item vanished after stock change", nil)
		return
	}
	writeJSON(w, http.StatusOK, ChangeStockResponse{
		Item:              itemDTO(*item),
		LowStockTriggered: crossed,
	})
}

// =============================================================================
// ALERT HANDLERS
// =============================================================================

// ListLowStock returns every item currently at/under its threshold.
func (h *Handler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, itemDTOs(h.Engine.LowStock()))
}

// PollNewLowStock returns only items newly at/under threshold since the
// last poll. Consuming this endpoint marks the items as alerted.
func (h *Handler) PollNewLowStock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, itemDTOs(h.Engine.PollNewLowStock()))
}

// =============================================================================
// HELPERS
// =============================================================================

func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid item id", err)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, inventory.ErrValidation):
		writeError(w, http.StatusBadRequest, "Validation failed", err)
	case errors.Is(err, inventory.ErrNotFound):
		writeError(w, http.StatusNotFound, "Item not found", err)
	case errors.Is(err, inventory.ErrDuplicateSKU):
		writeError(w, http.StatusConflict, "SKU already exists", err)
	case errors.Is(err, inventory.ErrInsufficientStock):
		writeError(w, http.StatusConflict, "Insufficient stock", err)
	default:
		writeError(w, http.StatusInternalServerError, "Operation failed", err)
	}
}
