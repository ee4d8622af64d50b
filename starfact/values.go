package starfact

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/aspineon/factual/check"
	"github.com/aspineon/factual/fact"
)

// starFunc adapts a Starlark callable into a predicate checker: applied
// to a converted actual value, any result other than False or None
// counts as a match. A call error or an inconvertible actual value is a
// non-match.
type starFunc struct {
	thread *starlark.Thread
	fn     starlark.Callable
}

var _ check.Checker = (*starFunc)(nil)

func (f *starFunc) Matches(actual interface{}) bool {
	av, err := toStarlark(actual)
	if err != nil {
		return false
	}
	out, err := starlark.Call(f.thread, f.fn, starlark.Tuple{av}, nil)
	if err != nil {
		return false
	}
	return out != starlark.False && out != starlark.None
}

func (f *starFunc) String() string { return f.fn.Name() }

// checkerValue wraps an engine checker as a Starlark value.
type checkerValue struct {
	c check.Checker
}

var _ starlark.Value = (*checkerValue)(nil)

func (v *checkerValue) String() string        { return v.c.String() }
func (v *checkerValue) Type() string          { return "checker" }
func (v *checkerValue) Freeze()               {}
func (v *checkerValue) Truth() starlark.Bool  { return true }
func (v *checkerValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: checker") }

// metavarValue wraps a metavariable. Two wrappers compare equal exactly
// when they carry the same binding, preserving identity semantics across
// the conversion boundary.
type metavarValue struct {
	m *fact.Metavar
}

var (
	_ starlark.Value      = (*metavarValue)(nil)
	_ starlark.Comparable = (*metavarValue)(nil)
)

func (v *metavarValue) String() string        { return v.m.String() }
func (v *metavarValue) Type() string          { return "metavar" }
func (v *metavarValue) Freeze()               {}
func (v *metavarValue) Truth() starlark.Bool  { return true }
func (v *metavarValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: metavar") }

func (v *metavarValue) CompareSameType(op syntax.Token, y starlark.Value, depth int) (bool, error) {
	o := y.(*metavarValue)
	switch op {
	case syntax.EQL:
		return v.m == o.m, nil
	case syntax.NEQ:
		return v.m != o.m, nil
	}
	return false, fmt.Errorf("metavar %s metavar not implemented", op)
}

// clauseValue is a declared provided clause awaiting attachment to a
// fact.
type clauseValue struct {
	p fact.Provided
}

var _ starlark.Value = (*clauseValue)(nil)

func (v *clauseValue) String() string {
	return fmt.Sprintf("clause(%s/%d)", v.p.ID, len(v.p.Args))
}
func (v *clauseValue) Type() string          { return "clause" }
func (v *clauseValue) Freeze()               {}
func (v *clauseValue) Truth() starlark.Bool  { return true }
func (v *clauseValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: clause") }

// runValue is the value handed to a fact body: the in-progress
// evaluation, with collaborator calls, checks, metavariables, and
// nested facts as methods.
type runValue struct {
	thread *starlark.Thread
	run    *fact.Run
}

var (
	_ starlark.Value    = (*runValue)(nil)
	_ starlark.HasAttrs = (*runValue)(nil)
)

func (v *runValue) String() string        { return "<fact run>" }
func (v *runValue) Type() string          { return "run" }
func (v *runValue) Freeze()               {}
func (v *runValue) Truth() starlark.Bool  { return true }
func (v *runValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: run") }

var runAttrNames = []string{"call", "check", "fact", "metavar"}

func (v *runValue) AttrNames() []string { return runAttrNames }

func (v *runValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "call":
		return starlark.NewBuiltin("call", v.call), nil
	case "check":
		return starlark.NewBuiltin("check", v.check), nil
	case "metavar":
		return starlark.NewBuiltin("metavar", v.metavar), nil
	case "fact":
		return starlark.NewBuiltin("fact", v.nestedFact), nil
	}
	return nil, nil // no such method
}

// call(id, *args) routes a collaborator call through the fact's mock
// scope and returns its value. Unexpected and undefined calls surface
// as evaluation errors and abort the fact.
func (v *runValue) call(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	if len(args) < 1 {
		return nil, fmt.Errorf("%s: missing function identifier", b.Name())
	}
	id, ok := starlark.AsString(args[0])
	if !ok {
		return nil, fmt.Errorf("%s: identifier must be a string, got %s", b.Name(), args[0].Type())
	}
	callArgs := make([]interface{}, len(args)-1)
	for i, a := range args[1:] {
		ga, err := fromStarlark(thread, a)
		if err != nil {
			return nil, err
		}
		callArgs[i] = ga
	}
	out, err := v.run.Call(id, callArgs...)
	if err != nil {
		return nil, err
	}
	return toStarlark(out)
}

// check(actual, expected) records one assertion and returns its verdict.
func (v *runValue) check(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var actualV, expectedV starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &actualV, &expectedV); err != nil {
		return nil, err
	}
	actual, err := fromStarlark(thread, actualV)
	if err != nil {
		return nil, err
	}
	expected, err := fromStarlark(thread, expectedV)
	if err != nil {
		return nil, err
	}
	return starlark.Bool(v.run.Check(actual, expected)), nil
}

// metavar(name) binds an opaque placeholder, memoized per name within
// this evaluation.
func (v *runValue) metavar(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
		return nil, err
	}
	return &metavarValue{m: v.run.Metavar(name)}, nil
}

// fact(name, body, provided=..., unfinished=...) evaluates a nested
// fact sharing this fact's mock scope; it returns whether it passed.
func (v *runValue) nestedFact(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	def, err := unpackDefinition(thread, b, args, kwargs)
	if err != nil {
		return nil, err
	}
	res := v.run.Fact(def)
	reportResult(thread, res)
	return starlark.Bool(res.Passed()), nil
}
