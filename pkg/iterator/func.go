package iterator

import (
	"errors"
	"iter"
)

func Map[T, U any](src Source[T], f func(T) (U, error)) Source[U] {
	return &mapSource[T, U]{src: src, f: f}
}

type mapSource[T, U any] struct {
	src Source[T]
	f   func(T) (U, error)
}

func (m *mapSource[T, U]) HasNext() bool {
	return m.src.HasNext()
}

func (m *mapSource[T, U]) Next() (U, error) {
	v, err := m.src.Next()
	if err != nil {
		return *new(U), err
	}

	return m.f(v)
}

// Where yields the values of src for which pred is true. A predicate error is
// returned by the following call to Next and does not stop iteration.
func Where[V any](src Source[V], pred func(V) (bool, error)) Source[V] {
	return &whereSource[V]{src: src, pred: pred}
}

type whereSource[V any] struct {
	src  Source[V]
	pred func(V) (bool, error)

	next   V
	err    error
	peeked bool
}

func (w *whereSource[V]) HasNext() bool {
	if w.peeked {
		return true
	}

	for w.src.HasNext() {
		v, err := w.src.Next()
		if err == nil {
			var ok bool
			ok, err = w.pred(v)
			if err == nil && !ok {
				continue
			}
		}

		w.next, w.err, w.peeked = v, err, true
		return true
	}

	return false
}

func (w *whereSource[V]) Next() (V, error) {
	if !w.HasNext() {
		return *new(V), ErrExhausted
	}

	v, err := w.next, w.err
	w.next, w.err, w.peeked = *new(V), nil, false
	if err != nil {
		return *new(V), err
	}
	return v, nil
}

// Take yields at most n values from src.
func Take[V any](src Source[V], n int) Source[V] {
	return &takeSource[V]{src: src, n: n}
}

type takeSource[V any] struct {
	src Source[V]
	n   int
	idx int
}

func (t *takeSource[V]) HasNext() bool {
	return t.idx < t.n && t.src.HasNext()
}

func (t *takeSource[V]) Next() (V, error) {
	if t.idx >= t.n {
		return *new(V), ErrExhausted
	}

	t.idx++
	return t.src.Next()
}

// Collect drains src into a slice. On error it returns the values read so
// far along with the error.
func Collect[V any](src Source[V]) ([]V, error) {
	var list []V
	for src.HasNext() {
		v, err := src.Next()
		if err != nil {
			return list, err
		}
		list = append(list, v)
	}

	return list, nil
}

// All adapts src for use in a range loop. Iteration ends after the first
// error, which is yielded with the zero value.
func All[V any](src Source[V]) iter.Seq2[V, error] {
	return func(yield func(V, error) bool) {
		for src.HasNext() {
			v, err := src.Next()
			if err != nil {
				if !errors.Is(err, ErrExhausted) {
					yield(*new(V), err)
				}
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}
