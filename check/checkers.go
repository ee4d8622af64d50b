package check

import (
	"fmt"
	"reflect"
)

// checkerFunc is the common carrier for the built-in checkers.
type checkerFunc struct {
	desc string
	fn   func(interface{}) bool
}

var _ Checker = checkerFunc{}

func (c checkerFunc) Matches(actual interface{}) bool { return c.fn(actual) }
func (c checkerFunc) String() string                  { return c.desc }

// Anything matches every value, including nil.
var Anything Checker = checkerFunc{
	desc: "anything",
	fn:   func(interface{}) bool { return true },
}

// IsTruthy matches any value other than boolean false or nil.
var IsTruthy Checker = checkerFunc{
	desc: "truthy",
	fn:   Truthy,
}

// EqualTo matches values structurally equal to want. Function values
// never match structurally; use Exactly for those.
func EqualTo(want interface{}) Checker {
	return checkerFunc{
		desc: fmt.Sprintf("equal-to(%s)", Render(want)),
		fn: func(actual interface{}) bool {
			if isFunc(want) || isFunc(actual) {
				return false
			}
			return structurallyEqual(actual, want)
		},
	}
}

func isFunc(v interface{}) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}

// Exactly matches only a value reference-identical to want. This is the
// sole way to match a function value: a distinct function with identical
// behavior does not match.
func Exactly(want interface{}) Checker {
	return checkerFunc{
		desc: fmt.Sprintf("exactly(%s)", Render(want)),
		fn:   func(actual interface{}) bool { return identical(actual, want) },
	}
}

// Satisfies matches values accepted by pred, described by name in reports.
func Satisfies(name string, pred func(interface{}) bool) Checker {
	return checkerFunc{desc: name, fn: pred}
}

// InAnyOrder matches a sequence having exactly the same element
// multiplicities as want, regardless of order. Duplicate-count mismatches
// fail even when the sets of distinct elements agree.
func InAnyOrder(want interface{}) Checker {
	expected, expectedOK := sequence(want)
	return checkerFunc{
		desc: fmt.Sprintf("in-any-order(%s)", Render(want)),
		fn: func(actual interface{}) bool {
			if !expectedOK {
				return false
			}
			got, ok := sequence(actual)
			if !ok {
				return false
			}
			return sameMultiset(got, expected)
		},
	}
}

// sameMultiset compares element multiplicities of two sequences.
func sameMultiset(got, want []interface{}) bool {
	if len(got) != len(want) {
		return false
	}
	counter := newDuplicateCounter()
	for _, v := range want {
		counter.Increment(v)
	}
	for _, v := range got {
		if !counter.Contains(v) {
			return false
		}
		counter.Decrement(v)
	}
	return counter.Empty()
}

// sequence flattens a slice or array value into []interface{}.
func sequence(v interface{}) ([]interface{}, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if k := rv.Kind(); k != reflect.Slice && k != reflect.Array {
		return nil, false
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Coerce converts an argument-matcher spec into a Checker: a Checker is
// returned as is, a function value becomes a named predicate, and any
// other value matches by structural equality.
func Coerce(spec interface{}) Checker {
	if c, ok := spec.(Checker); ok {
		return c
	}
	if spec != nil && reflect.TypeOf(spec).Kind() == reflect.Func {
		fn := spec
		return checkerFunc{
			desc: funcName(fn),
			fn:   func(actual interface{}) bool { return applyPredicate(fn, actual) },
		}
	}
	return EqualTo(spec)
}
