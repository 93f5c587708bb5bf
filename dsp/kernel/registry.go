package kernel

import (
	"sync"

	"github.com/davidste/openbts-multi-arfcn/internal/cpu"
)

// SingleFunc computes one convolution output sample: the dot product of a
// taps-length window of complex input against a real-valued, time-reversed
// tap vector.
type SingleFunc func(window []complex64, taps []float32) complex64

// OpEntry is one registered kernel implementation, specialized for a fixed
// tap count (or TapLenAny for the generic fallback).
type OpEntry struct {
	Name      string
	SIMDLevel cpu.SIMDLevel
	Priority  int
	TapLen    int
	Single    SingleFunc
}

// TapLenAny marks an entry as a generic fallback usable for any tap count.
const TapLenAny = 0

// OpRegistry manages registered kernel variants, mirroring the dispatch
// pattern used by the block-arithmetic op registry this package's SIMD
// selection is grounded on.
type OpRegistry struct {
	mu      sync.RWMutex
	entries []OpEntry
	sorted  bool
}

// Global is the default registry used by kernel dispatch.
var Global = &OpRegistry{}

// Register adds an implementation variant. Called from init() functions in
// architecture-specific files.
func (r *OpRegistry) Register(entry OpEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	r.sorted = false
}

// Lookup returns the highest-priority entry matching tapLen (falling back to
// TapLenAny entries) compatible with features, or nil if none is registered.
func (r *OpRegistry) Lookup(tapLen int, features cpu.Features) *OpEntry {
	r.mu.Lock()
	if !r.sorted {
		r.sortByPriority()
		r.sorted = true
	}
	r.mu.Unlock()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.entries {
		entry := &r.entries[i]
		if entry.TapLen != tapLen && entry.TapLen != TapLenAny {
			continue
		}

		if cpu.Supports(features, entry.SIMDLevel) {
			return entry
		}
	}

	return nil
}

func (r *OpRegistry) sortByPriority() {
	for i := 1; i < len(r.entries); i++ {
		key := r.entries[i]
		j := i - 1

		for j >= 0 && r.entries[j].Priority < key.Priority {
			r.entries[j+1] = r.entries[j]
			j--
		}

		r.entries[j+1] = key
	}
}

// ListEntries returns a priority-sorted copy of all registered entries, for
// tests and diagnostics.
func (r *OpRegistry) ListEntries() []OpEntry {
	r.mu.Lock()
	if !r.sorted {
		r.sortByPriority()
		r.sorted = true
	}
	r.mu.Unlock()

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]OpEntry, len(r.entries))
	copy(entries, r.entries)

	return entries
}

// Reset clears all registered entries. Intended for tests only.
func (r *OpRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	r.sorted = false
}
