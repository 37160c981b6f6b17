// Package selection tracks which viewports commands apply to.
package selection

import "slices"

// Mode is derived from the "selection active" and "multi-select" toggles.
type Mode int

const (
	None Mode = iota
	Single
	Multiple
)

func (m Mode) String() string {
	switch m {
	case Single:
		return "single"
	case Multiple:
		return "multiple"
	}
	return "none"
}

// Model is the selection state. Indices keep click order so the most recent
// pick is last. Every mutator takes the current collection length and
// re-establishes the mode invariants before returning.
type Model struct {
	active   bool
	multiple bool
	mode     Mode
	indices  []int
}

// New returns a model in None mode with nothing selected.
func New() *Model {
	return &Model{}
}

func (m *Model) Mode() Mode     { return m.mode }
func (m *Model) Active() bool   { return m.active }
func (m *Model) Multiple() bool { return m.multiple }

// Indices returns a copy of the selected indices in click order.
func (m *Model) Indices() []int {
	return slices.Clone(m.indices)
}

// Selected reports whether i is in the selection.
func (m *Model) Selected(i int) bool {
	return slices.Contains(m.indices, i)
}

// SetActive turns selection on or off.
func (m *Model) SetActive(on bool, n int) {
	m.active = on
	m.applyMode()
	m.Correct(n)
}

// SetMultiple switches between single and multiple selection.
func (m *Model) SetMultiple(on bool, n int) {
	m.multiple = on
	m.applyMode()
	m.Correct(n)
}

func (m *Model) applyMode() {
	switch {
	case !m.active:
		m.mode = None
	case m.multiple:
		m.mode = Multiple
	default:
		m.mode = Single
	}
}

// Click handles a click on viewport i. It returns the indices that left the
// selection.
func (m *Model) Click(i, n int) []int {
	if i < 0 || i >= n {
		return nil
	}
	before := slices.Clone(m.indices)
	switch m.mode {
	case Single:
		m.indices = []int{i}
	case Multiple:
		if j := slices.Index(m.indices, i); j >= 0 {
			m.indices = slices.Delete(m.indices, j, j+1)
		} else {
			m.indices = append(m.indices, i)
		}
	default:
		return nil
	}
	m.Correct(n)
	return removed(before, m.indices)
}

// SelectAll switches to multi-select and selects every viewport.
func (m *Model) SelectAll(n int) {
	m.multiple = true
	m.applyMode()
	m.indices = all(n)
	m.Correct(n)
}

// Clear empties the selection.
func (m *Model) Clear() {
	m.indices = nil
}

// Correct drops indices at or past n and restores the mode invariants:
// Single holds exactly one index, None and Multiple never hold zero. An
// empty collection leaves the selection alone.
func (m *Model) Correct(n int) {
	m.indices = slices.DeleteFunc(m.indices, func(i int) bool { return i < 0 || i >= n })
	if n == 0 {
		return
	}
	switch {
	case m.mode == Single && len(m.indices) != 1:
		m.indices = []int{0}
	case m.mode != Single && len(m.indices) == 0:
		m.indices = all(n)
	}
}

// Removed updates indices after viewport i was removed; n is the new
// length. Removing the last viewport clears the selection.
func (m *Model) Removed(i, n int) {
	out := m.indices[:0]
	for _, j := range m.indices {
		switch {
		case j == i:
		case j > i:
			out = append(out, j-1)
		default:
			out = append(out, j)
		}
	}
	m.indices = out
	if n == 0 {
		m.Clear()
		return
	}
	m.Correct(n)
}

// Moved remaps indices after the viewport at from was moved to to.
func (m *Model) Moved(from, to, n int) {
	for k, j := range m.indices {
		switch {
		case j == from:
			m.indices[k] = to
		case from < to && j > from && j <= to:
			m.indices[k] = j - 1
		case to < from && j >= to && j < from:
			m.indices[k] = j + 1
		}
	}
	m.Correct(n)
}

// Target is the single viewport a command applies to: the last selected
// one, or the last viewport when nothing is explicitly selected. It returns
// -1 for an empty collection.
func (m *Model) Target(n int) int {
	if n == 0 {
		return -1
	}
	if m.mode == None || len(m.indices) == 0 {
		return n - 1
	}
	return m.indices[len(m.indices)-1]
}

// Targets are the viewports a broadcastable command applies to.
func (m *Model) Targets(n int) []int {
	if m.mode == None || len(m.indices) == 0 {
		return all(n)
	}
	return slices.Clone(m.indices)
}

func all(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func removed(before, after []int) []int {
	var out []int
	for _, i := range before {
		if !slices.Contains(after, i) {
			out = append(out, i)
		}
	}
	return out
}
