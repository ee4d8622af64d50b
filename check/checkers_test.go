package check

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInAnyOrder(t *testing.T) {
	require.True(t, Match([]int{1, 2, 3}, InAnyOrder([]int{3, 1, 2})))
	require.True(t, Match([]int{}, InAnyOrder([]int{})))
	require.True(t, Match([]interface{}{1, "a"}, InAnyOrder([]interface{}{"a", 1})))

	// Duplicate-count mismatches fail even though the sets of distinct
	// elements agree.
	require.False(t, Match([]int{3, 3, 1, 2}, InAnyOrder([]int{1, 2, 3})))
	require.False(t, Match([]int{1, 2, 3}, InAnyOrder([]int{3, 3, 1, 2})))
	require.False(t, Match([]int{1, 1, 2}, InAnyOrder([]int{1, 2, 2})))

	require.False(t, Match([]int{1, 2}, InAnyOrder([]int{1, 2, 3})))
	require.False(t, Match([]int{1, 2, 3}, InAnyOrder([]int{1, 2})))
	require.False(t, Match(42, InAnyOrder([]int{42})))
	require.False(t, Match([]int{42}, InAnyOrder(42)))

	// 1 and "1" count separately.
	require.False(t, Match([]interface{}{1, "1"}, InAnyOrder([]interface{}{1, 1})))
}

func TestExactly(t *testing.T) {
	f := func(n int) int { return n + 1 }
	g := func(n int) int { return n + 1 } // behaviorally identical, distinct value
	require.True(t, Exactly(f).Matches(f))
	require.False(t, Exactly(f).Matches(g))

	p := &struct{ n int }{n: 1}
	q := &struct{ n int }{n: 1}
	require.True(t, Exactly(p).Matches(p))
	require.False(t, Exactly(p).Matches(q))

	require.True(t, Exactly(42).Matches(42))
	require.False(t, Exactly(42).Matches(43))
	require.True(t, Exactly(nil).Matches(nil))
	require.False(t, Exactly(nil).Matches(0))

	s := []int{1, 2}
	require.True(t, Exactly(s).Matches(s))
	require.False(t, Exactly(s).Matches([]int{1, 2}))
}

func TestAnything(t *testing.T) {
	for _, v := range []interface{}{nil, false, 0, "", []int(nil), func() {}} {
		require.True(t, Anything.Matches(v))
	}
}

func TestEqualTo(t *testing.T) {
	require.True(t, EqualTo(42).Matches(42))
	require.False(t, EqualTo(42).Matches(43))
	require.True(t, EqualTo([]int{1, 2}).Matches([]int{1, 2}))

	// Function values never match structurally.
	f := func() {}
	require.False(t, EqualTo(f).Matches(f))
}

func TestSatisfies(t *testing.T) {
	even := Satisfies("even?", func(v interface{}) bool {
		n, ok := v.(int)
		return ok && n%2 == 0
	})
	require.True(t, even.Matches(4))
	require.False(t, even.Matches(3))
	require.False(t, even.Matches("4"))
	require.Equal(t, "even?", even.String())
}

func TestCoerce(t *testing.T) {
	require.Same(t, Anything, Coerce(Anything).(Checker))

	odd := Coerce(func(n int) bool { return n%2 == 1 })
	require.True(t, odd.Matches(1))
	require.False(t, odd.Matches(2))

	literal := Coerce(42)
	require.True(t, literal.Matches(42))
	require.False(t, literal.Matches(41))
}

func TestRegistry(t *testing.T) {
	c, err := New("in-any-order", []interface{}{3, 1, 2})
	require.NoError(t, err)
	require.True(t, c.Matches([]interface{}{1, 2, 3}))

	_, err = New("in-any-order")
	require.Error(t, err)

	_, err = New("no-such-checker")
	require.Error(t, err)

	Register("always", func(args ...interface{}) (Checker, error) {
		return Anything, nil
	})
	c, err = New("always")
	require.NoError(t, err)
	require.True(t, c.Matches(nil))

	require.Contains(t, Names(), "truthy")
	require.Contains(t, Names(), "exactly")
}
