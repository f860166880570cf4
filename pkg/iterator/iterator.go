package iterator

// Iterator is a pull iterator. Move returns the next value and true, or the
// zero value and false once the iterator is drained.
type Iterator[V any] interface {
	Move() (V, bool)
}

// Source is a single pass sequence that can report whether another value is
// available before it is taken.
//
// Next returns ErrExhausted when HasNext would report false.
type Source[V any] interface {
	HasNext() bool
	Next() (V, error)
}
