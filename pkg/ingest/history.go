package ingest

import (
	"sync"

	"github.com/sguter90/airsentinel/pkg/models"
)

// DefaultHistorySize is the number of recent values kept per metric
const DefaultHistorySize = 30

// ring is a fixed-capacity buffer that overwrites its oldest value
type ring struct {
	values []float64
	next   int
	full   bool
}

func newRing(capacity int) *ring {
	return &ring{values: make([]float64, capacity)}
}

func (r *ring) push(v float64) {
	r.values[r.next] = v
	r.next = (r.next + 1) % len(r.values)
	if r.next == 0 {
		r.full = true
	}
}

func (r *ring) len() int {
	if r.full {
		return len(r.values)
	}
	return r.next
}

// snapshot returns the held values, oldest first
func (r *ring) snapshot() []float64 {
	out := make([]float64, 0, r.len())
	if r.full {
		out = append(out, r.values[r.next:]...)
	}
	return append(out, r.values[:r.next]...)
}

// History keeps the most recent valid values of every metric
type History struct {
	mu       sync.RWMutex
	capacity int
	rings    map[models.Metric]*ring
}

// NewHistory creates a history holding up to capacity values per metric
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = DefaultHistorySize
	}
	h := &History{
		capacity: capacity,
		rings:    make(map[models.Metric]*ring, len(models.Metrics)),
	}
	for _, m := range models.Metrics {
		h.rings[m] = newRing(capacity)
	}
	return h
}

// Capacity returns the per-metric capacity
func (h *History) Capacity() int {
	return h.capacity
}

// Values returns a copy of the recent values of a metric, oldest first
func (h *History) Values(m models.Metric) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	r, ok := h.rings[m]
	if !ok {
		return nil
	}
	return r.snapshot()
}

// Len returns the number of values held for a metric
func (h *History) Len(m models.Metric) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if r, ok := h.rings[m]; ok {
		return r.len()
	}
	return 0
}

// Record pushes every present metric of the reading
func (h *History) Record(reading models.Reading) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, m := range models.Metrics {
		if v, ok := reading.Value(m).Get(); ok {
			h.rings[m].push(v)
		}
	}
}

// Load replaces a metric's history with values ordered oldest first.
// Only the newest capacity values are kept.
func (h *History) Load(m models.Metric, values []float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r := newRing(h.capacity)
	if len(values) > h.capacity {
		values = values[len(values)-h.capacity:]
	}
	for _, v := range values {
		r.push(v)
	}
	h.rings[m] = r
}
