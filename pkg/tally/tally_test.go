package tally

import (
	"errors"
	"math"
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustMap(t *testing.T, entries ...Entry) *Map {
	t.Helper()
	m, err := FromEntries(entries...)
	require.NoError(t, err)
	return m
}

// randomMap builds a map over a small key space so that generated maps overlap.
func randomMap(r *rand.Rand) *Map {
	m := New()
	n := r.IntN(12)
	for i := 0; i < n; i++ {
		key := "k" + strconv.Itoa(r.IntN(8))
		_ = m.Add(key, int64(r.IntN(1000)))
	}
	return m
}

func TestObservePreservesFirstSeenOrder(t *testing.T) {
	m := New()
	for _, k := range []string{"bob", "alice", "bob", "carol", "alice", "bob"} {
		m.Observe(k)
	}

	require.Equal(t, 3, m.Size())
	require.Equal(t, []string{"bob", "alice", "carol"}, m.Keys())
	require.Equal(t, int64(3), m.Count("bob"))
	require.Equal(t, int64(2), m.Count("alice"))
	require.Equal(t, int64(1), m.Count("carol"))
	require.Equal(t, int64(0), m.Count("dave"))
	require.Equal(t, int64(6), m.Total())
}

func TestAdd(t *testing.T) {
	tests := []struct {
		name    string
		start   int64
		add     int64
		want    int64
		wantErr error
	}{
		{name: "zero registers key", start: 0, add: 0, want: 0},
		{name: "plain sum", start: 3, add: 4, want: 7},
		{name: "up to max", start: math.MaxInt64 - 1, add: 1, want: math.MaxInt64},
		{name: "overflow", start: math.MaxInt64, add: 1, want: math.MaxInt64, wantErr: ErrCountOverflow},
		{name: "negative", start: 5, add: -1, want: 5, wantErr: ErrNegativeCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			require.NoError(t, m.Add("k", tt.start))
			err := m.Add("k", tt.add)
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				require.NoError(t, err)
			}
			require.True(t, m.Has("k"))
			require.Equal(t, tt.want, m.Count("k"))
		})
	}
}

func TestMergeOrderAndCounts(t *testing.T) {
	a := mustMap(t, Entry{"foo", 3}, Entry{"bar", 1})
	b := mustMap(t, Entry{"bar", 4}, Entry{"baz", 2})

	ab, err := Merge(a, b)
	require.NoError(t, err)
	require.Equal(t, []Entry{{"foo", 3}, {"bar", 5}, {"baz", 2}}, ab.Entries())

	ba, err := Merge(b, a)
	require.NoError(t, err)
	require.Equal(t, []Entry{{"bar", 5}, {"baz", 2}, {"foo", 3}}, ba.Entries())

	require.True(t, ab.Equal(ba))

	// inputs are untouched
	require.Equal(t, []Entry{{"foo", 3}, {"bar", 1}}, a.Entries())
	require.Equal(t, []Entry{{"bar", 4}, {"baz", 2}}, b.Entries())
}

func TestMergeCommutative(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		a, b := randomMap(r), randomMap(r)

		ab, err := Merge(a, b)
		require.NoError(t, err)
		ba, err := Merge(b, a)
		require.NoError(t, err)

		require.True(t, ab.Equal(ba))
		for _, k := range append(a.Keys(), b.Keys()...) {
			require.Equal(t, a.Count(k)+b.Count(k), ab.Count(k), "key %s", k)
		}
	}
}

func TestMergeAssociative(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 200; i++ {
		a, b, c := randomMap(r), randomMap(r), randomMap(r)

		ab, err := Merge(a, b)
		require.NoError(t, err)
		left, err := Merge(ab, c)
		require.NoError(t, err)

		bc, err := Merge(b, c)
		require.NoError(t, err)
		right, err := Merge(a, bc)
		require.NoError(t, err)

		require.True(t, left.Equal(right))
	}
}

func TestMergeWithEmptyIsIdentity(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	for i := 0; i < 50; i++ {
		a := randomMap(r)

		got, err := Merge(a, New())
		require.NoError(t, err)
		require.Equal(t, a.Entries(), got.Entries())

		got, err = Merge(New(), a)
		require.NoError(t, err)
		require.True(t, a.Equal(got))
	}
}

func TestMergeOverflow(t *testing.T) {
	a := mustMap(t, Entry{"k", math.MaxInt64})
	b := mustMap(t, Entry{"k", 1})

	_, err := Merge(a, b)
	require.ErrorIs(t, err, ErrCountOverflow)
}

func TestEqualIgnoresOrder(t *testing.T) {
	a := mustMap(t, Entry{"x", 1}, Entry{"y", 2})
	b := mustMap(t, Entry{"y", 2}, Entry{"x", 1})
	c := mustMap(t, Entry{"y", 2}, Entry{"x", 0})

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
	require.False(t, a.Equal(New()))
}

func TestTopKeepsInsertionOrderOnTies(t *testing.T) {
	m := mustMap(t, Entry{"a", 1}, Entry{"b", 5}, Entry{"c", 1}, Entry{"d", 5})

	require.Equal(t, []Entry{{"b", 5}, {"d", 5}, {"a", 1}}, m.Top(3))
	require.Len(t, m.Top(10), 4)
	require.Empty(t, m.Top(-1))
}

func TestCloneIsIndependent(t *testing.T) {
	m := mustMap(t, Entry{"a", 1})
	c := m.Clone()
	c.Observe("a")
	c.Observe("b")

	require.Equal(t, int64(1), m.Count("a"))
	require.False(t, m.Has("b"))
	require.Equal(t, int64(2), c.Count("a"))
}
