package check

import (
	"fmt"
	"strings"
)

var _ fmt.Stringer = (*duplicateCounter)(nil)

// duplicateCounter is an insertion-ordered collection of counters used by
// the multiset comparison. Counts change only through Increment and
// Decrement, each by 1; an item whose count reaches 0 is expunged, and
// decrementing an absent item has no effect, so counts are never negative.
//
// Items are keyed by their Render representation, so 1 and "1" count
// separately while unhashable values (slices, maps) are still countable.
// Insertion order is preserved so failure messages list expected values
// in declaration order.
type duplicateCounter struct {
	m map[string]uint
	s []string
	d uint
}

func newDuplicateCounter() *duplicateCounter {
	return &duplicateCounter{
		m: make(map[string]uint),
	}
}

// HasDupes indicates whether any item appears more than once.
func (dc *duplicateCounter) HasDupes() bool { return dc.d != 0 }

func (dc *duplicateCounter) Empty() bool { return len(dc.m) == 0 }

func (dc *duplicateCounter) Len() int { return len(dc.m) }

func (dc *duplicateCounter) Contains(v interface{}) bool {
	_, ok := dc.m[Render(v)]
	return ok
}

// Increment adds 1 to v's count, inserting it if absent.
func (dc *duplicateCounter) Increment(v interface{}) {
	key := Render(v)
	if _, ok := dc.m[key]; !ok {
		dc.m[key] = 0
		dc.s = append(dc.s, key)
	}
	dc.m[key]++
	if dc.m[key] == 2 {
		dc.d++
	}
}

// Decrement subtracts 1 from v's count, expunging it at 0.
func (dc *duplicateCounter) Decrement(v interface{}) {
	key := Render(v)
	count, ok := dc.m[key]
	if !ok {
		return
	}
	if count != 1 {
		dc.m[key]--
		if dc.m[key] == 1 {
			dc.d--
		}
		return
	}
	delete(dc.m, key)
	for i, kk := range dc.s {
		if kk == key {
			dc.s = append(dc.s[:i], dc.s[i+1:]...)
			break
		}
	}
}

// String lists the counted items in insertion order. Items occurring more
// than once carry their count; a count of 1 is implied. For example:
// `2, 3 [4 copies], "abc"`.
func (dc *duplicateCounter) String() string {
	var b strings.Builder
	for i, key := range dc.s {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteString(key)
		if count := dc.m[key]; count != 1 {
			fmt.Fprintf(&b, " [%d copies]", count)
		}
	}
	return b.String()
}

// Dupes lists only the items whose count exceeds 1.
func (dc *duplicateCounter) Dupes() string {
	var b strings.Builder
	first := true
	for _, key := range dc.s {
		if count := dc.m[key]; count != 1 {
			if !first {
				b.WriteString(", ")
			}
			first = false
			fmt.Fprintf(&b, "%s [%d copies]", key, count)
		}
	}
	return b.String()
}
