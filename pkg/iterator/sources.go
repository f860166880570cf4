package iterator

import "iter"

type EmptySource[V any] struct{}

func NewEmptySource[V any]() *EmptySource[V] {
	return &EmptySource[V]{}
}

func (*EmptySource[V]) HasNext() bool {
	return false
}

func (*EmptySource[V]) Next() (V, error) {
	return *new(V), ErrExhausted
}

// SliceSource yields the elements of a slice in index order. The slice is
// not copied.
type SliceSource[V any] struct {
	slice []V
	idx   int
}

func NewSliceSource[V any](slice []V) *SliceSource[V] {
	return &SliceSource[V]{slice: slice}
}

func (s *SliceSource[V]) HasNext() bool {
	return s.idx < len(s.slice)
}

func (s *SliceSource[V]) Next() (V, error) {
	if s.idx >= len(s.slice) {
		return *new(V), ErrExhausted
	}

	v := s.slice[s.idx]
	s.idx++
	return v, nil
}

// GeneratorSource yields generator(0) through generator(length-1).
type GeneratorSource[V any] struct {
	generator func(idx int) V
	length    int
	idx       int
}

func NewGeneratorSource[V any](generator func(idx int) V, length int) *GeneratorSource[V] {
	return &GeneratorSource[V]{
		generator: generator,
		length:    length,
	}
}

func (g *GeneratorSource[V]) HasNext() bool {
	return g.idx < g.length
}

func (g *GeneratorSource[V]) Next() (V, error) {
	if g.idx >= g.length {
		return *new(V), ErrExhausted
	}

	v := g.generator(g.idx)
	g.idx++
	return v, nil
}

// PeekSource turns a Move-style Iterator into a Source by holding at most one
// value that has been moved past but not yet returned.
type PeekSource[V any] struct {
	it      Iterator[V]
	next    V
	peeked  bool
	drained bool
}

func FromIterator[V any](it Iterator[V]) *PeekSource[V] {
	return &PeekSource[V]{it: it}
}

func (p *PeekSource[V]) HasNext() bool {
	if p.peeked {
		return true
	}
	if p.drained {
		return false
	}

	v, ok := p.it.Move()
	if !ok {
		p.drained = true
		return false
	}

	p.next, p.peeked = v, true
	return true
}

func (p *PeekSource[V]) Next() (V, error) {
	if !p.HasNext() {
		return *new(V), ErrExhausted
	}

	v := p.next
	p.next, p.peeked = *new(V), false
	return v, nil
}

// SeqSource pulls values from an iter.Seq. Call Stop to release the sequence
// early; it is released automatically once drained.
type SeqSource[V any] struct {
	pull    func() (V, bool)
	stop    func()
	next    V
	peeked  bool
	stopped bool
}

func FromSeq[V any](seq iter.Seq[V]) *SeqSource[V] {
	pull, stop := iter.Pull(seq)
	return &SeqSource[V]{pull: pull, stop: stop}
}

func (s *SeqSource[V]) HasNext() bool {
	if s.peeked {
		return true
	}
	if s.stopped {
		return false
	}

	v, ok := s.pull()
	if !ok {
		s.Stop()
		return false
	}

	s.next, s.peeked = v, true
	return true
}

func (s *SeqSource[V]) Next() (V, error) {
	if !s.HasNext() {
		return *new(V), ErrExhausted
	}

	v := s.next
	s.next, s.peeked = *new(V), false
	return v, nil
}

// Stop releases the underlying sequence. Values already pulled but not
// returned are dropped. Stop is idempotent.
func (s *SeqSource[V]) Stop() {
	if s.stopped {
		return
	}

	s.stopped = true
	s.next, s.peeked = *new(V), false
	s.stop()
}
