package disclosure

import "sort"

// Map tracks per-record expanded state. Ids never interact: several items may
// be open at once. The zero value is ready to use.
type Map struct {
	open map[string]bool
}

// New creates an empty map.
func New() *Map {
	return &Map{open: make(map[string]bool)}
}

// Toggle flips the state of id (absent ids start closed) and returns the new state.
func (m *Map) Toggle(id string) bool {
	if m.open == nil {
		m.open = make(map[string]bool)
	}
	next := !m.open[id]
	if next {
		m.open[id] = true
	} else {
		delete(m.open, id)
	}
	return next
}

// IsOpen reports the current state of id; unseen ids are closed.
func (m *Map) IsOpen(id string) bool {
	return m.open[id]
}

// OpenIDs returns the open ids in lexical order.
func (m *Map) OpenIDs() []string {
	ids := make([]string, 0, len(m.open))
	for id := range m.open {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of open ids.
func (m *Map) Len() int { return len(m.open) }

// Reset closes every id.
func (m *Map) Reset() {
	m.open = make(map[string]bool)
}

// Clone returns an independent copy of m.
func (m *Map) Clone() *Map {
	c := New()
	for id := range m.open {
		c.open[id] = true
	}
	return c
}
