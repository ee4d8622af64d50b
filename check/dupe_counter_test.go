package check

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	alist     = []interface{}{"a"}
	emptylist = []interface{}{}
)

func maker() map[string]interface{} {
	return map[string]interface{}{"a": []interface{}{"b", "c"}}
}

func TestDupeCounterContains(t *testing.T) {
	d := newDuplicateCounter() // {}
	require.False(t, d.Contains("a"))
	require.False(t, d.Contains("b"))

	d.Increment("a") // {'a': 1}
	require.True(t, d.Contains("a"))
	require.False(t, d.Contains("b"))

	d.Decrement("a") // {}
	require.False(t, d.Contains("a"))
	require.False(t, d.Contains("b"))
}

func TestDupeCounterLen(t *testing.T) {
	d := newDuplicateCounter()
	require.True(t, d.Empty())
	d.Increment("a")
	require.Equal(t, 1, d.Len())
	d.Increment(alist)
	require.Equal(t, 2, d.Len())
}

func TestDupeCounterEverything(t *testing.T) {
	d := newDuplicateCounter() // {}
	require.True(t, d.Empty())
	require.Equal(t, ``, d.String())

	d.Increment("a") // {'a': 1}
	require.Equal(t, 1, d.Len())
	require.Equal(t, `"a"`, d.String())

	d.Increment("a") // {'a': 2}
	require.Equal(t, 1, d.Len())
	require.Equal(t, `"a" [2 copies]`, d.String())
	require.True(t, d.HasDupes())

	d.Increment("b") // {'a': 2, 'b': 1}
	require.Equal(t, 2, d.Len())
	require.Equal(t, `"a" [2 copies], "b"`, d.String())
	require.Equal(t, `"a" [2 copies]`, d.Dupes())

	d.Decrement("a") // {'a': 1, 'b': 1}
	require.Equal(t, 2, d.Len())
	require.Equal(t, `"a", "b"`, d.String())
	require.False(t, d.HasDupes())

	d.Decrement("a") // {'b': 1}
	require.Equal(t, 1, d.Len())
	require.Equal(t, `"b"`, d.String())

	d.Increment("a") // {'b': 1, 'a': 1}
	require.Equal(t, 2, d.Len())
	require.Equal(t, `"b", "a"`, d.String())

	d.Decrement("a") // {'b': 1}
	require.Equal(t, 1, d.Len())
	require.Equal(t, `"b"`, d.String())

	d.Decrement("b") // {}
	require.True(t, d.Empty())
	require.Equal(t, ``, d.String())

	d.Decrement("a") // {}
	require.True(t, d.Empty())
	require.Equal(t, ``, d.String())
}

func TestDupeCounterUnhashableKeys(t *testing.T) {
	d := newDuplicateCounter() // {}
	require.False(t, d.Contains(emptylist))

	d.Increment(alist) // {['a']: 1}
	require.True(t, d.Contains(alist))
	require.Equal(t, 1, d.Len())
	require.Equal(t, `["a"]`, d.String())

	d.Decrement(alist) // {}
	require.False(t, d.Contains(alist))
	require.True(t, d.Empty())
	require.Equal(t, ``, d.String())
}

func TestDupeCounterIncrementEquivalentMaps(t *testing.T) {
	d := newDuplicateCounter()
	d.Increment(maker())
	d.Increment(maker())
	d.Increment(maker())
	d.Increment(maker())
	require.Equal(t, 1, d.Len())
	require.Equal(t, `{"a": ["b", "c"]} [4 copies]`, d.String())
}

func TestDupeCounterDecrementEquivalentMaps(t *testing.T) {
	d := newDuplicateCounter()
	d.Increment(maker())
	d.Increment(maker())
	require.Equal(t, 1, d.Len())
	d.Decrement(maker())
	require.Equal(t, 1, d.Len())
	d.Decrement(maker())
	require.True(t, d.Empty())
	d.Decrement(maker())
	require.True(t, d.Empty())
}
