package iterator

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCompositeIterator_NoSources(t *testing.T) {
	it := NewCompositeIterator[any]()

	assert.False(t, it.HasNext())
	_, err := it.Next()
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestCompositeIterator_SingleSource(t *testing.T) {
	it := NewCompositeIterator[string]()
	require.NoError(t, it.Add(NewSliceSource([]string{"0", "1"})))

	for i := 0; i < 2; i++ {
		require.True(t, it.HasNext())
		got, err := it.Next()
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(i), got)
	}

	assert.False(t, it.HasNext())
	_, err := it.Next()
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestCompositeIterator_MultipleSources(t *testing.T) {
	it := NewCompositeIterator[string]()
	require.NoError(t, it.Add(NewSliceSource([]string{"0", "1"})))
	require.NoError(t, it.Add(NewSliceSource([]string{"2"})))
	require.NoError(t, it.Add(NewSliceSource([]string{"3", "4"})))
	assert.Equal(t, 3, it.NumSources())

	for i := 0; i < 5; i++ {
		require.True(t, it.HasNext())
		got, err := it.Next()
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(i), got)
	}

	assert.False(t, it.HasNext())
	_, err := it.Next()
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestCompositeIterator_NextWithoutHasNext(t *testing.T) {
	it := NewCompositeIterator[int]()
	require.NoError(t, it.Add(NewEmptySource[int]()))
	require.NoError(t, it.Add(NewSliceSource([]int{1})))
	require.NoError(t, it.Add(NewEmptySource[int]()))
	require.NoError(t, it.Add(NewSliceSource([]int{2, 3})))

	var got []int
	for {
		v, err := it.Next()
		if errors.Is(err, ErrExhausted) {
			break
		}
		require.NoError(t, err)
		got = append(got, v)
	}

	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestCompositeIterator_InUse(t *testing.T) {
	list := []string{"0", "1"}

	t.Run("HasNext", func(t *testing.T) {
		it := NewCompositeIterator[string]()
		require.NoError(t, it.Add(NewSliceSource(list)))

		it.HasNext()
		assert.ErrorIs(t, it.Add(NewSliceSource(list)), ErrInUse)
	})

	t.Run("Next", func(t *testing.T) {
		it := NewCompositeIterator[string]()
		require.NoError(t, it.Add(NewSliceSource(list)))

		_, err := it.Next()
		require.NoError(t, err)
		assert.ErrorIs(t, it.Add(NewSliceSource(list)), ErrInUse)
	})

	t.Run("Empty", func(t *testing.T) {
		it := NewCompositeIterator[string]()
		assert.False(t, it.HasNext())
		assert.ErrorIs(t, it.Add(NewSliceSource(list)), ErrInUse)
	})

	t.Run("CheckedBeforeDuplicate", func(t *testing.T) {
		src := NewSliceSource(list)
		it := NewCompositeIterator[string]()
		require.NoError(t, it.Add(src))

		it.HasNext()
		assert.ErrorIs(t, it.Add(src), ErrInUse)
	})
}

func TestCompositeIterator_DuplicateSources(t *testing.T) {
	list := []string{"0", "1"}
	src := NewSliceSource(list)

	it := NewCompositeIterator[string]()
	require.NoError(t, it.Add(src))
	require.NoError(t, it.Add(NewSliceSource(list)))
	assert.ErrorIs(t, it.Add(src), ErrDuplicateSource)

	got, err := Collect[string](it)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "0", "1"}, got)
}

func TestCompositeIterator_NilSource(t *testing.T) {
	it := NewCompositeIterator[int]()
	assert.ErrorIs(t, it.Add(nil), ErrNilSource)
	assert.Zero(t, it.NumSources())
}

func TestCompositeIterator_TypedNilSource(t *testing.T) {
	it := NewCompositeIterator[int]()
	assert.ErrorIs(t, it.Add((*SliceSource[int])(nil)), ErrNilSource)
	assert.ErrorIs(t, it.Add(funcSource(nil)), ErrNilSource)
	assert.Zero(t, it.NumSources())

	assert.NotPanics(t, func() {
		assert.False(t, it.HasNext())
	})
}

func TestCompositeIterator_Cycle(t *testing.T) {
	t.Run("Self", func(t *testing.T) {
		it := NewCompositeIterator[int]()
		assert.ErrorIs(t, it.Add(it), ErrDuplicateSource)
		assert.Zero(t, it.NumSources())
	})

	t.Run("Nested", func(t *testing.T) {
		outer := NewCompositeIterator[int]()
		inner := NewCompositeIterator[int]()
		require.NoError(t, inner.Add(NewSliceSource([]int{1})))
		require.NoError(t, outer.Add(inner))

		assert.ErrorIs(t, inner.Add(outer), ErrDuplicateSource)

		got, err := Collect[int](outer)
		require.NoError(t, err)
		assert.Equal(t, []int{1}, got)
	})
}

// funcSource has a non-comparable dynamic type.
type funcSource func() (int, bool)

func (f funcSource) HasNext() bool {
	_, ok := f()
	return ok
}

func (f funcSource) Next() (int, error) {
	return 0, ErrExhausted
}

func TestCompositeIterator_NonComparableSource(t *testing.T) {
	src := funcSource(func() (int, bool) { return 0, false })

	it := NewCompositeIterator[int]()
	require.NoError(t, it.Add(src))
	assert.NotPanics(t, func() {
		assert.NoError(t, it.Add(src))
	})
}

func TestCompositeIterator_AfterExhaustion(t *testing.T) {
	it := NewCompositeIterator[string]()
	require.NoError(t, it.Add(NewSliceSource([]string{"a"})))

	_, err := it.Next()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.False(t, it.HasNext())
		_, err := it.Next()
		assert.ErrorIs(t, err, ErrExhausted)
	}
}

// countingSource records how often HasNext is called.
type countingSource struct {
	SliceSource[int]

	calls int
}

func (c *countingSource) HasNext() bool {
	c.calls++
	return c.SliceSource.HasNext()
}

func TestCompositeIterator_DrainedSourcesNotRevisited(t *testing.T) {
	first := &countingSource{SliceSource: SliceSource[int]{slice: []int{1}}}
	second := &countingSource{SliceSource: SliceSource[int]{slice: []int{2}}}

	it := NewCompositeIterator[int]()
	require.NoError(t, it.Add(first))
	require.NoError(t, it.Add(second))

	got, err := Collect[int](it)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)

	calls := first.calls
	assert.False(t, it.HasNext())
	assert.False(t, it.HasNext())
	assert.Equal(t, calls, first.calls, "drained source was queried again")
}

func TestCompositeIterator_SourceError(t *testing.T) {
	failure := errors.New("great sadness")
	src := Map(NewSliceSource([]int{1, 2}), func(v int) (int, error) {
		if v == 2 {
			return 0, failure
		}
		return v, nil
	})

	it := NewCompositeIterator[int]()
	require.NoError(t, it.Add(src))
	require.NoError(t, it.Add(NewSliceSource([]int{3})))

	got, err := Collect[int](it)
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, []int{1}, got)

	v, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestCompositeIterator_Nested(t *testing.T) {
	inner := NewCompositeIterator[int]()
	require.NoError(t, inner.Add(NewSliceSource([]int{2, 3})))

	outer := NewCompositeIterator[int]()
	require.NoError(t, outer.Add(NewSliceSource([]int{1})))
	require.NoError(t, outer.Add(inner))
	require.NoError(t, outer.Add(NewSliceSource([]int{4})))

	got, err := Collect[int](outer)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, got)
}

func TestCompositeIterator_Concatenates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		parts := rapid.SliceOf(rapid.SliceOf(rapid.Int())).Draw(t, "parts")

		it := NewCompositeIterator[int]()
		var want []int
		for _, part := range parts {
			want = append(want, part...)
			if err := it.Add(NewSliceSource(part)); err != nil {
				t.Fatalf("add: %v", err)
			}
		}

		got, err := Collect[int](it)
		if err != nil {
			t.Fatalf("collect: %v", err)
		}
		assert.Equal(t, len(want), len(got))
		for i := range want {
			assert.Equal(t, want[i], got[i], "index %d", i)
		}

		if it.HasNext() {
			t.Fatalf("HasNext after exhaustion")
		}
		if err := it.Add(NewEmptySource[int]()); !errors.Is(err, ErrInUse) {
			t.Fatalf("add after exhaustion: %v", err)
		}
	})
}
