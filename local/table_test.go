package local

import (
	"sync"
	"testing"

	"github.com/moontrade/threadid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocate(t *testing.T) {
	cases := []struct {
		id             threadid.LiveID
		bucket, offset int
	}{
		{0, 0, 0},
		{1, 1, 0},
		{2, 1, 1},
		{3, 2, 0},
		{6, 2, 3},
		{7, 3, 0},
		{100, 6, 37},
	}
	for _, c := range cases {
		b, off := locate(c.id)
		assert.Equal(t, c.bucket, b, "id %d", c.id)
		assert.Equal(t, c.offset, off, "id %d", c.id)
	}
}

func TestTable_PerThreadValues(t *testing.T) {
	const n = 16
	var (
		d       = threadid.NewDomain()
		tb      = New[int](d, nil)
		ready   sync.WaitGroup
		release = make(chan struct{})
		handles = make([]*threadid.Handle, n)
	)
	for i := 0; i < n; i++ {
		i := i
		ready.Add(1)
		handles[i] = d.Go(func(th *threadid.Thread) {
			v, err := tb.Get(th)
			if assert.NoError(t, err) {
				*v = i
				again, _ := tb.Get(th)
				assert.Same(t, v, again)
			}
			ready.Done()
			<-release
		})
	}
	ready.Wait()

	assert.Equal(t, n, tb.Len())
	seen := make(map[int]bool, n)
	prev := -1
	tb.Range(func(id threadid.LiveID, v *int) bool {
		assert.Greater(t, id.Index(), prev, "range visits ids in order")
		prev = id.Index()
		seen[*v] = true
		return true
	})
	assert.Len(t, seen, n)

	close(release)
	for _, h := range handles {
		require.NoError(t, h.Join())
	}
	assert.Zero(t, tb.Len(), "values are dropped when their thread detaches")
}

func TestTable_ReusedIDStartsFresh(t *testing.T) {
	var (
		d       = threadid.NewDomain()
		created int
		tb      = New(d, func() *string {
			created++
			s := "fresh"
			return &s
		})
		first threadid.LiveID
	)
	require.NoError(t, d.Go(func(th *threadid.Thread) {
		v, err := tb.Get(th)
		require.NoError(t, err)
		*v = "dirty"
		first, _ = th.LiveID()
	}).Join())

	_, ok := tb.Lookup(first)
	assert.False(t, ok)

	require.NoError(t, d.Go(func(th *threadid.Thread) {
		id, _ := th.LiveID()
		assert.Equal(t, first, id)
		v, err := tb.Get(th)
		require.NoError(t, err)
		assert.Equal(t, "fresh", *v)

		got, ok := tb.Lookup(id)
		assert.True(t, ok)
		assert.Same(t, v, got)
	}).Join())
	assert.Equal(t, 2, created)
}

func TestTable_Detached(t *testing.T) {
	d := threadid.NewDomain()
	tb := New[int](d, nil)
	require.NoError(t, d.Run(func(th *threadid.Thread) {
		th.Detach()
		_, err := tb.Get(th)
		assert.True(t, errors.Is(err, threadid.ErrDetached))
	}))
	_, ok := tb.Lookup(1 << 20)
	assert.False(t, ok)
}

func TestTable_ForeignDomain(t *testing.T) {
	var (
		a  = threadid.NewDomain()
		b  = threadid.NewDomain()
		tb = New[int](a, nil)
	)
	assert.Same(t, a, tb.Domain())
	require.NoError(t, a.Go(func(th *threadid.Thread) {
		v, err := tb.Get(th)
		require.NoError(t, err)
		*v = 1
		id, _ := th.LiveID()
		assert.Equal(t, threadid.LiveID(0), id)

		// A thread of b holding the same live id gets no access to the slot.
		require.NoError(t, b.Go(func(other *threadid.Thread) {
			otherID, _ := other.LiveID()
			assert.Equal(t, id, otherID)
			v, err := tb.Get(other)
			assert.Nil(t, v)
			assert.True(t, errors.Is(err, ErrForeignDomain))
		}).Join())

		got, ok := tb.Lookup(id)
		require.True(t, ok)
		assert.Equal(t, 1, *got)
	}).Join())

	assert.Same(t, threadid.Default(), New[int](nil, nil).Domain())
}

func TestTable_RangeStops(t *testing.T) {
	d := threadid.NewDomain()
	tb := New[int](d, nil)
	release := make(chan struct{})
	var ready sync.WaitGroup
	handles := make([]*threadid.Handle, 3)
	for i := range handles {
		ready.Add(1)
		handles[i] = d.Go(func(th *threadid.Thread) {
			_, err := tb.Get(th)
			assert.NoError(t, err)
			ready.Done()
			<-release
		})
	}
	ready.Wait()
	visits := 0
	tb.Range(func(threadid.LiveID, *int) bool {
		visits++
		return false
	})
	assert.Equal(t, 1, visits)
	close(release)
	for _, h := range handles {
		require.NoError(t, h.Join())
	}
}

func BenchmarkTable_Get(b *testing.B) {
	d := threadid.NewDomain()
	tb := New[int](d, nil)
	_ = d.Run(func(th *threadid.Thread) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			v, _ := tb.Get(th)
			*v++
		}
	})
}
