package executor

import (
	"sync"

	"github.com/wardenhq/warden/internal/capability"
)

// History is a bounded in-memory record of execution attempts. When full,
// appending evicts the oldest entry. Process-scoped; the audit sink covers
// durability.
type History struct {
	mu      sync.Mutex
	max     int
	records []capability.ExecutionRecord
}

// NewHistory creates a history bounded to max entries. A non-positive max
// falls back to 100.
func NewHistory(max int) *History {
	if max <= 0 {
		max = 100
	}
	return &History{max: max}
}

// Append records one execution attempt, evicting the oldest entry if the
// history is full.
func (h *History) Append(rec capability.ExecutionRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.records) == h.max {
		copy(h.records, h.records[1:])
		h.records = h.records[:h.max-1]
	}
	h.records = append(h.records, rec)
}

// Records returns a copy of all entries, oldest first.
func (h *History) Records() []capability.ExecutionRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]capability.ExecutionRecord(nil), h.records...)
}

// Recent returns a copy of the newest n entries, oldest first. n <= 0 or
// n greater than the length returns everything.
func (h *History) Recent(n int) []capability.ExecutionRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n <= 0 || n > len(h.records) {
		n = len(h.records)
	}
	return append([]capability.ExecutionRecord(nil), h.records[len(h.records)-n:]...)
}

// Len returns the current entry count.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

// Clear drops all entries.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = nil
}
