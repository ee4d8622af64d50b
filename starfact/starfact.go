// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package starfact lets facts be written as Starlark scripts.
//
// A script declares facts with the predeclared builtins and hands each
// body a run value:
//
//	def _body(f):
//	    f.check(f.call("g_adder", 2, 3), 11)
//
//	fact("sums through its collaborator", _body,
//	    provided = [
//	        clause("g", 2, returns = 4),
//	        clause("g", 3, returns = 7),
//	    ])
//
// Matcher positions accept literals, checkers (truthy, anything,
// exactly(x), in_any_order(xs), equal_to(x), or checker(name, ...) for
// anything registered), and plain Starlark functions, which act as
// predicates.
//
// Fact results are reported to the reporter associated with the thread
// via SetReporter; *testing.T satisfies the Reporter interface. Each
// thread carries its own evaluator and reporter, so concurrently
// executing scripts never share mock state.
package starfact

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/aspineon/factual/check"
	"github.com/aspineon/factual/fact"
)

const (
	reporterKey  = "factual:reporter"
	evaluatorKey = "factual:evaluator"
)

// A Reporter is a value to which failures may be reported.
// It is satisfied by *testing.T.
type Reporter interface {
	Error(args ...interface{})
}

// SetReporter associates a failure reporter with the thread so that
// fact results evaluated on it have somewhere to go.
func SetReporter(thread *starlark.Thread, r Reporter) {
	thread.SetLocal(reporterKey, r)
}

// SetEvaluator associates an evaluator with the thread; facts evaluated
// on the thread share its collaborator registry. Without one, a fresh
// evaluator is installed on first use.
func SetEvaluator(thread *starlark.Thread, ev *fact.Evaluator) {
	thread.SetLocal(evaluatorKey, ev)
}

func evaluator(thread *starlark.Thread) *fact.Evaluator {
	if ev, ok := thread.Local(evaluatorKey).(*fact.Evaluator); ok {
		return ev
	}
	ev := fact.NewEvaluator()
	thread.SetLocal(evaluatorKey, ev)
	return ev
}

func reportResult(thread *starlark.Thread, res *fact.Result) {
	r, ok := thread.Local(reporterKey).(Reporter)
	if !ok {
		return
	}
	for _, msg := range res.Failures() {
		r.Error(msg)
	}
}

// Predeclared returns the builtins a fact script may use.
func Predeclared() starlark.StringDict {
	return starlark.StringDict{
		"fact":         starlark.NewBuiltin("fact", factBuiltin),
		"clause":       starlark.NewBuiltin("clause", clauseBuiltin),
		"define":       starlark.NewBuiltin("define", defineBuiltin),
		"checker":      starlark.NewBuiltin("checker", checkerBuiltin),
		"exactly":      starlark.NewBuiltin("exactly", exactlyBuiltin),
		"in_any_order": checkerCtor("in_any_order", "in-any-order"),
		"equal_to":     checkerCtor("equal_to", "equal-to"),
		"anything":     &checkerValue{c: check.Anything},
		"truthy":       &checkerValue{c: check.IsTruthy},
	}
}

// ExecFile executes a fact script with the package's builtins
// predeclared. Results go to the thread's reporter.
func ExecFile(thread *starlark.Thread, filename string, src interface{}) (starlark.StringDict, error) {
	return starlark.ExecFile(thread, filename, src, Predeclared())
}

// fact(name, body, provided=..., unfinished=...) evaluates one fact and
// returns whether it passed. Failures also go to the thread's reporter.
func factBuiltin(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	def, err := unpackDefinition(thread, b, args, kwargs)
	if err != nil {
		return nil, err
	}
	res := evaluator(thread).Evaluate(def)
	reportResult(thread, res)
	return starlark.Bool(res.Passed()), nil
}

func unpackDefinition(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (*fact.Definition, error) {
	var (
		name       string
		body       starlark.Callable
		provided   *starlark.List
		unfinished *starlark.List
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"name", &name, "body", &body, "provided?", &provided, "unfinished?", &unfinished); err != nil {
		return nil, err
	}

	def := fact.New(name)
	def.Body = func(r *fact.Run) error {
		_, err := starlark.Call(thread, body, starlark.Tuple{&runValue{thread: thread, run: r}}, nil)
		return err
	}

	if provided != nil {
		for i := 0; i < provided.Len(); i++ {
			cv, ok := provided.Index(i).(*clauseValue)
			if !ok {
				return nil, fmt.Errorf("%s: provided[%d] is %s, want clause",
					b.Name(), i, provided.Index(i).Type())
			}
			def.Clauses = append(def.Clauses, cv.p)
		}
	}
	if unfinished != nil {
		for i := 0; i < unfinished.Len(); i++ {
			id, ok := starlark.AsString(unfinished.Index(i))
			if !ok {
				return nil, fmt.Errorf("%s: unfinished[%d] is %s, want string",
					b.Name(), i, unfinished.Index(i).Type())
			}
			def.Placeholders = append(def.Placeholders, id)
		}
	}
	return def, nil
}

// clause(id, *matchers, returns=value) declares one provided clause.
func clauseBuiltin(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("%s: missing function identifier", b.Name())
	}
	id, ok := starlark.AsString(args[0])
	if !ok {
		return nil, fmt.Errorf("%s: identifier must be a string, got %s", b.Name(), args[0].Type())
	}

	var returns starlark.Value = starlark.None
	for _, kv := range kwargs {
		if k, _ := starlark.AsString(kv[0]); k != "returns" {
			return nil, fmt.Errorf("%s: unexpected keyword argument %s", b.Name(), kv[0])
		}
		returns = kv[1]
	}

	specs := make([]interface{}, len(args)-1)
	for i, a := range args[1:] {
		spec, err := fromStarlark(thread, a)
		if err != nil {
			return nil, err
		}
		specs[i] = spec
	}
	ret, err := fromStarlark(thread, returns)
	if err != nil {
		return nil, err
	}
	return &clauseValue{p: fact.Provided{ID: id, Args: specs, Returns: ret}}, nil
}

// define(id, fn) registers fn as the real implementation of a
// collaborator on the thread's evaluator.
func defineBuiltin(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var id string
	var fn starlark.Callable
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "id", &id, "impl", &fn); err != nil {
		return nil, err
	}
	evaluator(thread).Define(id, func(callArgs ...interface{}) (interface{}, error) {
		sargs := make(starlark.Tuple, len(callArgs))
		for i, a := range callArgs {
			sv, err := toStarlark(a)
			if err != nil {
				return nil, err
			}
			sargs[i] = sv
		}
		out, err := starlark.Call(thread, fn, sargs, nil)
		if err != nil {
			return nil, err
		}
		return fromStarlark(thread, out)
	})
	return starlark.None, nil
}

// checker(name, *args) constructs any checker registered in the open
// checker registry.
func checkerBuiltin(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	if len(args) < 1 {
		return nil, fmt.Errorf("%s: missing checker name", b.Name())
	}
	name, ok := starlark.AsString(args[0])
	if !ok {
		return nil, fmt.Errorf("%s: name must be a string, got %s", b.Name(), args[0].Type())
	}
	ctorArgs := make([]interface{}, len(args)-1)
	for i, a := range args[1:] {
		ga, err := fromStarlark(thread, a)
		if err != nil {
			return nil, err
		}
		ctorArgs[i] = ga
	}
	c, err := check.New(name, ctorArgs...)
	if err != nil {
		return nil, err
	}
	return &checkerValue{c: c}, nil
}

// exactly(x) matches only the reference-identical value. For callables
// identity is the function value itself, so a behaviorally identical
// function does not match.
func exactlyBuiltin(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var target starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &target); err != nil {
		return nil, err
	}
	if fn, ok := target.(starlark.Callable); ok {
		return &checkerValue{c: exactStarFunc{fn: fn}}, nil
	}
	ga, err := fromStarlark(thread, target)
	if err != nil {
		return nil, err
	}
	return &checkerValue{c: check.Exactly(ga)}, nil
}

// exactStarFunc matches the one Starlark callable it wraps, by identity.
type exactStarFunc struct {
	fn starlark.Callable
}

var _ check.Checker = exactStarFunc{}

func (c exactStarFunc) Matches(actual interface{}) bool {
	sf, ok := actual.(*starFunc)
	return ok && sf.fn == c.fn
}

func (c exactStarFunc) String() string {
	return fmt.Sprintf("exactly(%s)", c.fn.Name())
}

func checkerCtor(name, registered string) *starlark.Builtin {
	impl := func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if len(kwargs) > 0 {
			return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
		}
		ctorArgs := make([]interface{}, len(args))
		for i, a := range args {
			ga, err := fromStarlark(thread, a)
			if err != nil {
				return nil, err
			}
			ctorArgs[i] = ga
		}
		c, err := check.New(registered, ctorArgs...)
		if err != nil {
			return nil, err
		}
		return &checkerValue{c: c}, nil
	}
	return starlark.NewBuiltin(name, impl)
}
