// Package fact evaluates executable specifications: facts.
//
// A fact combines assertions, which compare an actual value against an
// expected spec, with provided clauses, which temporarily substitute
// named collaborator functions with call-recording stand-ins. Evaluating
// a fact binds its metavariables, installs its mocks, executes its body,
// checks its results, verifies that every declared expectation was
// exercised, restores all bindings, and reports a structured Result.
//
// Definitions are plain data built either as struct literals or through
// the fluent methods:
//
//	def := fact.New("adds via its collaborator").
//		Provided("g", fact.Args(2), 4).
//		Provided("g", fact.Args(3), 7).
//		Assert(func(r *fact.Run) (interface{}, error) {
//			return r.Call("g-adder", 2, 3)
//		}, 11)
//
// A Definition is inert; each call to Evaluate is an independent
// evaluation with its own mock scope and metavariables.
package fact

// An Assertion pairs an actual-value expression with an expected spec.
// Expected may be a literal, a predicate function, or a check.Checker.
type Assertion struct {
	Actual   func(*Run) (interface{}, error)
	Expected interface{}
}

// A Provided clause declares a stand-in behavior for a collaborator:
// when id is called with arguments matched by Args, Returns is produced.
// The clause is satisfied once at least one such call occurs.
type Provided struct {
	ID      string
	Args    []interface{}
	Returns interface{}
}

// A Definition is one fact: what to run, what to expect, and which
// collaborator interactions must occur.
type Definition struct {
	Name string

	// Body, if set, runs before the declared assertions, inside the
	// fact's mock scope. It may record further checks via Run.Check.
	Body func(*Run) error

	Assertions []Assertion
	Clauses    []Provided

	// Placeholders lists collaborators that are intentionally
	// unimplemented for this fact: any call not shadowed by a clause
	// fails with UndefinedFunctionError.
	Placeholders []string
}

// New starts a fact definition.
func New(name string) *Definition {
	return &Definition{Name: name}
}

// Args collects argument matchers for a Provided clause.
func Args(specs ...interface{}) []interface{} { return specs }

// WithBody sets the fact's body.
func (d *Definition) WithBody(body func(*Run) error) *Definition {
	d.Body = body
	return d
}

// Assert appends an assertion. Assertions execute top to bottom, all
// within the fact's single mock scope, and each records its own pass or
// fail independently.
func (d *Definition) Assert(actual func(*Run) (interface{}, error), expected interface{}) *Definition {
	d.Assertions = append(d.Assertions, Assertion{Actual: actual, Expected: expected})
	return d
}

// AssertCall is shorthand for asserting on the result of a single
// collaborator call.
func (d *Definition) AssertCall(expected interface{}, id string, args ...interface{}) *Definition {
	return d.Assert(func(r *Run) (interface{}, error) {
		return r.Call(id, args...)
	}, expected)
}

// Provided appends an expectation clause for id. Matcher specs may be
// literals, predicate functions, or check.Checkers; use Args to build
// the slice in place.
func (d *Definition) Provided(id string, args []interface{}, returns interface{}) *Definition {
	d.Clauses = append(d.Clauses, Provided{ID: id, Args: args, Returns: returns})
	return d
}

// Unfinished declares intentionally unimplemented collaborators.
func (d *Definition) Unfinished(ids ...string) *Definition {
	d.Placeholders = append(d.Placeholders, ids...)
	return d
}
