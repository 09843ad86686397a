package lazy

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
)

// Map is a concurrent map of single-flight slots. The first Get for a key
// installs a slot; concurrent and later Gets for the key share it until the
// slot is removed.
type Map[K comparable, V any] struct {
	slots *xsync.MapOf[K, *Value[V]]
}

// NewMap returns an empty Map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{slots: xsync.NewMapOf[K, *Value[V]]()}
}

// Get returns the value for key, installing a slot that runs fn if none
// exists. fn runs at most once per installed slot. The slot is returned so
// callers can later remove exactly that slot with DeleteSlot.
func (m *Map[K, V]) Get(ctx context.Context, key K, fn Func[V]) (V, *Value[V], error) {
	slot, _ := m.slots.LoadOrCompute(key, func() *Value[V] {
		return New(fn)
	})
	val, err := slot.Get(ctx)
	return val, slot, err
}

// Load returns the slot installed for key, if any.
func (m *Map[K, V]) Load(key K) (*Value[V], bool) {
	return m.slots.Load(key)
}

// DeleteSlot removes key only if it still maps to slot. It reports whether
// an entry was removed.
func (m *Map[K, V]) DeleteSlot(key K, slot *Value[V]) bool {
	removed := false
	m.slots.Compute(key, func(old *Value[V], loaded bool) (*Value[V], bool) {
		if !loaded {
			return nil, true
		}
		if old != slot {
			return old, false
		}
		removed = true
		return nil, true
	})
	return removed
}

// Range calls f for every installed slot until f returns false.
func (m *Map[K, V]) Range(f func(key K, slot *Value[V]) bool) {
	m.slots.Range(f)
}

// Len returns the number of installed slots.
func (m *Map[K, V]) Len() int {
	return m.slots.Size()
}

// Clear removes every slot. Slots already handed out keep working.
func (m *Map[K, V]) Clear() {
	m.slots.Clear()
}
