/*
alerts.go - Low-stock crossing detection with deduplication

PURPOSE:
  An edge detector over item state: reports an item the first time its
  quantity is observed at or under its minimum-stock threshold, then
  stays quiet until the stock recovers above the threshold, which
  re-arms the alert.

SHARED STATE:
  Both the periodic sweep and the synchronous post-mutation check in the
  engine mark and clear the same set, so a crossing is reported exactly
  once no matter which path observes it first.

PERSISTENCE:
  The set is process-local and not persisted. After a restart, items
  still at/under threshold will alert once more. Accepted behavior.
*/
package inventory

import (
	"sort"
	"sync"
)

// AlertTracker remembers which items have already triggered a low-stock
// alert.
type AlertTracker struct {
	mu      sync.Mutex
	alerted map[int64]struct{}
}

// NewAlertTracker returns a tracker with no alerts armed.
func NewAlertTracker() *AlertTracker {
	return &AlertTracker{alerted: make(map[int64]struct{})}
}

// ScanNew returns the items newly at/under their threshold, marking
// them so they are not reported again. Items back above threshold are
// unmarked, re-arming future alerts. Output is ordered by item id so
// one scan is deterministic regardless of input order.
//
// Calling ScanNew twice with unchanged input yields an empty second
// result.
func (t *AlertTracker) ScanNew(items []Item) []Item {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	t.mu.Lock()
	defer t.mu.Unlock()

	var result []Item
	for _, it := range sorted {
		if it.LowStock() {
			if _, seen := t.alerted[it.ID]; !seen {
				t.alerted[it.ID] = struct{}{}
				result = append(result, it)
			}
		} else {
			delete(t.alerted, it.ID)
		}
	}
	return result
}

// ScanAll returns every item currently at/under threshold, independent
// of alert state. No dedup. Output ordered by item id.
func (t *AlertTracker) ScanAll(items []Item) []Item {
	var result []Item
	for _, it := range items {
		if it.LowStock() {
			result = append(result, it)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// MarkAlerted records that a crossing for this item was already
// reported to a caller. Used by the engine's synchronous check so the
// next sweep does not repeat it.
func (t *AlertTracker) MarkAlerted(id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.alerted[id] = struct{}{}
}

// Clear re-arms the alert for an item whose stock recovered.
func (t *AlertTracker) Clear(id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.alerted, id)
}

// Forget drops all state for a deleted item.
func (t *AlertTracker) Forget(id int64) {
	t.Clear(id)
}
