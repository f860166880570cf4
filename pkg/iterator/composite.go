package iterator

import "reflect"

// CompositeIterator drains a list of sources one after another, in the order
// they were added. Sources may only be added before the first call to HasNext
// or Next; from then on the list is fixed.
//
// A CompositeIterator is not safe for concurrent use. It does not own its
// sources, which must stay valid until iteration is finished.
type CompositeIterator[V any] struct {
	sources []Source[V]
	idx     int
	inUse   bool
}

var _ Source[int] = (*CompositeIterator[int])(nil)

func NewCompositeIterator[V any]() *CompositeIterator[V] {
	return &CompositeIterator[V]{}
}

// Add appends src to the end of the source list.
//
// It fails with ErrInUse once iteration has started, and with
// ErrDuplicateSource if src itself (not an equal copy) was already added.
// A composite cannot be added to itself, directly or through another
// composite.
func (c *CompositeIterator[V]) Add(src Source[V]) error {
	if c.inUse {
		return ErrInUse
	}
	if isNil(src) {
		return ErrNilSource
	}
	if nested, ok := src.(*CompositeIterator[V]); ok && nested.reaches(c) {
		return ErrDuplicateSource
	}

	for _, s := range c.sources {
		if sameSource(s, src) {
			return ErrDuplicateSource
		}
	}

	c.sources = append(c.sources, src)
	return nil
}

func (c *CompositeIterator[V]) NumSources() int {
	return len(c.sources)
}

func (c *CompositeIterator[V]) HasNext() bool {
	c.inUse = true

	for c.idx < len(c.sources) {
		if c.sources[c.idx].HasNext() {
			return true
		}

		c.idx++
	}

	return false
}

func (c *CompositeIterator[V]) Next() (V, error) {
	if !c.HasNext() {
		return *new(V), ErrExhausted
	}

	return c.sources[c.idx].Next()
}

// reaches reports whether target is c or is nested somewhere below it.
func (c *CompositeIterator[V]) reaches(target *CompositeIterator[V]) bool {
	if c == target {
		return true
	}

	for _, s := range c.sources {
		if nested, ok := s.(*CompositeIterator[V]); ok && nested.reaches(target) {
			return true
		}
	}
	return false
}

func isNil[V any](src Source[V]) bool {
	if src == nil {
		return true
	}

	v := reflect.ValueOf(src)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func:
		return v.IsNil()
	}
	return false
}

// sameSource reports whether a and b are the same source. Values of a
// non-comparable dynamic type never match, so they can always be added.
func sameSource[V any](a, b Source[V]) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}

	return a == b
}
