// Package tally provides an insertion-ordered frequency table.
package tally

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrCountOverflow is returned when a count would exceed math.MaxInt64.
	ErrCountOverflow = errors.New("count overflow")

	// ErrNegativeCount is returned when Add is called with n < 0.
	ErrNegativeCount = errors.New("negative count")
)

// Entry is a single key and its occurrence count.
type Entry struct {
	Key   string `json:"key" yaml:"key"`
	Count int64  `json:"count" yaml:"count"`
}

// Map maps keys to counts, remembering the order in which keys were first seen.
// The zero value is not usable; call New.
type Map struct {
	index   map[string]int // key -> position in entries
	entries []Entry
}

// New creates an empty Map.
func New() *Map {
	return &Map{index: make(map[string]int)}
}

// FromEntries builds a Map by adding each entry in order.
// Repeated keys are summed.
func FromEntries(entries ...Entry) (*Map, error) {
	m := New()
	for _, e := range entries {
		if err := m.Add(e.Key, e.Count); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe increments the count for key by one.
func (m *Map) Observe(key string) {
	if i, ok := m.index[key]; ok {
		if m.entries[i].Count < math.MaxInt64 {
			m.entries[i].Count++
		}
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, Entry{Key: key, Count: 1})
}

// Add increases the count for key by n. Adding zero registers the key
// without changing any count.
func (m *Map) Add(key string, n int64) error {
	if n < 0 {
		return fmt.Errorf("%w: %q by %d", ErrNegativeCount, key, n)
	}
	i, ok := m.index[key]
	if !ok {
		m.index[key] = len(m.entries)
		m.entries = append(m.entries, Entry{Key: key, Count: n})
		return nil
	}
	if m.entries[i].Count > math.MaxInt64-n {
		return fmt.Errorf("%w: %q at %d + %d", ErrCountOverflow, key, m.entries[i].Count, n)
	}
	m.entries[i].Count += n
	return nil
}

// Size returns the number of distinct keys.
func (m *Map) Size() int {
	return len(m.entries)
}

// Count returns the count for key, or 0 if it was never seen.
func (m *Map) Count(key string) int64 {
	if i, ok := m.index[key]; ok {
		return m.entries[i].Count
	}
	return 0
}

// Has reports whether key has been registered.
func (m *Map) Has(key string) bool {
	_, ok := m.index[key]
	return ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of the entries in insertion order.
func (m *Map) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Each calls fn for every entry in insertion order, stopping at the first error.
func (m *Map) Each(fn func(key string, count int64) error) error {
	for _, e := range m.entries {
		if err := fn(e.Key, e.Count); err != nil {
			return err
		}
	}
	return nil
}

// Total returns the sum of all counts, saturating at math.MaxInt64.
func (m *Map) Total() int64 {
	var total int64
	for _, e := range m.entries {
		if total > math.MaxInt64-e.Count {
			return math.MaxInt64
		}
		total += e.Count
	}
	return total
}

// Clone returns an independent copy of m.
func (m *Map) Clone() *Map {
	c := &Map{
		index:   make(map[string]int, len(m.index)),
		entries: m.Entries(),
	}
	for k, v := range m.index {
		c.index[k] = v
	}
	return c
}

// Equal reports whether m and other hold the same (key, count) pairs.
// Insertion order is ignored.
func (m *Map) Equal(other *Map) bool {
	if m.Size() != other.Size() {
		return false
	}
	for _, e := range m.entries {
		if !other.Has(e.Key) || other.Count(e.Key) != e.Count {
			return false
		}
	}
	return true
}

// Top returns up to n entries ordered by count descending.
// Equal counts keep their insertion order.
func (m *Map) Top(n int) []Entry {
	sorted := m.Entries()
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})
	if n < 0 {
		n = 0
	}
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// Merge returns a new Map holding, for every key in a or b, the sum of its
// counts in both. Keys of a come first in their order, followed by the keys
// only b has, in b's order. Neither input is modified.
func Merge(a, b *Map) (*Map, error) {
	out := a.Clone()
	for _, e := range b.entries {
		if err := out.Add(e.Key, e.Count); err != nil {
			return nil, err
		}
	}
	return out, nil
}
