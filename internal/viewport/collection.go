package viewport

import (
	"fmt"
	"slices"
)

// Collection is the ordered list of instances. Slice order is display order.
type Collection struct {
	items       []*Instance
	newRenderer func() Renderer
}

// NewCollection creates an empty collection. newRenderer builds the renderer
// for each new instance; nil means instances draw nothing.
func NewCollection(newRenderer func() Renderer) *Collection {
	return &Collection{newRenderer: newRenderer}
}

func (c *Collection) Len() int { return len(c.items) }

// At returns the instance at i.
func (c *Collection) At(i int) (*Instance, error) {
	if i < 0 || i >= len(c.items) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(c.items))
	}
	return c.items[i], nil
}

// All returns the instances in display order. The slice is a copy.
func (c *Collection) All() []*Instance {
	return slices.Clone(c.items)
}

// Index returns the current position of key, or -1.
func (c *Collection) Index(key Key) int {
	return slices.IndexFunc(c.items, func(in *Instance) bool { return in.Key == key })
}

// Grow appends n new instances and returns them.
func (c *Collection) Grow(n int) []*Instance {
	added := make([]*Instance, 0, max(n, 0))
	for range max(n, 0) {
		var r Renderer
		if c.newRenderer != nil {
			r = c.newRenderer()
		}
		in := NewInstance(r)
		c.items = append(c.items, in)
		added = append(added, in)
	}
	return added
}

// Claim returns the first instance still waiting for a payload, growing the
// collection by one when there is none.
func (c *Collection) Claim() *Instance {
	for _, in := range c.items {
		if in.IsNew {
			return in
		}
	}
	return c.Grow(1)[0]
}

// Remove closes and removes the instance at i.
func (c *Collection) Remove(i int) (*Instance, error) {
	in, err := c.At(i)
	if err != nil {
		return nil, err
	}
	c.items = slices.Delete(c.items, i, i+1)
	return in, in.Close()
}

// Move takes the instance at from out of the list and reinserts it at to.
func (c *Collection) Move(from, to int) error {
	in, err := c.At(from)
	if err != nil {
		return err
	}
	if _, err := c.At(to); err != nil {
		return err
	}
	c.items = slices.Delete(c.items, from, from+1)
	c.items = slices.Insert(c.items, to, in)
	return nil
}

// Loaded returns the indices of instances that finished loading.
func (c *Collection) Loaded() []int {
	var out []int
	for i, in := range c.items {
		if in.Loaded {
			out = append(out, i)
		}
	}
	return out
}

// Close releases every instance.
func (c *Collection) Close() error {
	var first error
	for _, in := range c.items {
		if err := in.Close(); err != nil && first == nil {
			first = err
		}
	}
	c.items = nil
	return first
}
