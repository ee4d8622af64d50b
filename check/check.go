// Package check defines checkers: reusable predicates that judge whether
// an actual value satisfies an expectation.
//
// A single matching algorithm, Match, serves two call sites: comparing a
// fact's actual result against its expected spec, and comparing a recorded
// call argument against a declared argument matcher. The expected side of a
// match may be:
//
//   - a Checker, which is consulted directly;
//   - a function value, which is invoked with the actual value as a
//     predicate (any result other than False or nil counts as a match);
//   - any other value, which is compared structurally.
//
// Function values on the actual side never match structurally: two distinct
// functions may be behaviorally indistinguishable yet must be treated as
// distinct, so only Exactly (reference identity) can match them.
package check

import (
	"reflect"

	"github.com/google/go-cmp/cmp"
)

// A Checker reports whether a value satisfies some expectation.
// String describes the expectation for failure messages.
//
// This interface is compatible with the matcher shape used by gomock,
// so existing matcher implementations may be used directly.
type Checker interface {
	Matches(actual interface{}) bool
	String() string
}

// Match reports whether actual satisfies expected, applying the rules
// described in the package documentation.
func Match(actual, expected interface{}) bool {
	if c, ok := expected.(Checker); ok {
		return c.Matches(actual)
	}
	if expected != nil && reflect.TypeOf(expected).Kind() == reflect.Func {
		return applyPredicate(expected, actual)
	}
	if actual != nil && reflect.TypeOf(actual).Kind() == reflect.Func {
		// Structural equality of functions is undefined; see Exactly.
		return false
	}
	return structurallyEqual(actual, expected)
}

// Describe renders the expected side of a match for reports:
// a Checker's own description, a predicate's name, or the value itself.
func Describe(expected interface{}) string {
	if c, ok := expected.(Checker); ok {
		return c.String()
	}
	if expected != nil && reflect.TypeOf(expected).Kind() == reflect.Func {
		return funcName(expected)
	}
	return Render(expected)
}

// Truthy reports whether v is anything other than boolean false or
// the nil/absent sentinel. Note that 0 and "" are truthy.
func Truthy(v interface{}) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// applyPredicate invokes fn, a single-argument function value, with actual.
// The call's first result is judged with Truthy. A predicate that cannot
// accept actual's type, returns a non-nil trailing error, or panics is a
// non-match rather than an error: an inapplicable predicate rejects.
func applyPredicate(fn, actual interface{}) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.NumIn() != 1 || ft.IsVariadic() || ft.NumOut() == 0 {
		return false
	}

	in := ft.In(0)
	var av reflect.Value
	if actual == nil {
		switch in.Kind() {
		case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
			av = reflect.Zero(in)
		default:
			return false
		}
	} else {
		av = reflect.ValueOf(actual)
		if !av.Type().AssignableTo(in) {
			return false
		}
	}

	out := fv.Call([]reflect.Value{av})
	if n := len(out); n > 1 {
		if err, isErr := out[n-1].Interface().(error); isErr && err != nil {
			return false
		}
	}
	return Truthy(out[0].Interface())
}

// structurallyEqual compares two non-function values. go-cmp honors
// Equal methods (notably identity-only types such as metavariables);
// values it cannot walk fall back to reflect.DeepEqual.
func structurallyEqual(actual, expected interface{}) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = reflect.DeepEqual(actual, expected)
		}
	}()
	return cmp.Equal(actual, expected)
}

// identical reports reference identity: pointer equality for reference
// kinds (notably functions), Go equality for comparable scalars.
func identical(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if av.Type() != bv.Type() {
		return false
	}
	switch av.Kind() {
	case reflect.Func, reflect.Ptr, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return av.Pointer() == bv.Pointer()
	case reflect.Slice:
		return av.Pointer() == bv.Pointer() && av.Len() == bv.Len()
	}
	if !av.Comparable() {
		return false
	}
	return a == b
}
