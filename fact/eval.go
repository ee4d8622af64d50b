package fact

import (
	"errors"
	"fmt"

	"github.com/aspineon/factual/check"
	"github.com/aspineon/factual/mock"
)

// Evaluation phases, in order. A fatal error short-circuits from
// whatever phase it arose in directly to restoration and reporting.
const (
	phaseInit                 = "Init"
	phaseMetavarsBound        = "MetavarsBound"
	phaseMocksInstalled       = "MocksInstalled"
	phaseBodyExecuting        = "BodyExecuting"
	phaseResultsChecked       = "ResultsChecked"
	phaseExpectationsVerified = "ExpectationsVerified"
	phaseMocksRestored        = "MocksRestored"
	phaseReported             = "Reported"
)

// An Evaluator owns the collaborator registry shared by the facts it
// evaluates. Each evaluation derives a private mock context from the
// registry, so an Evaluator may evaluate facts from multiple goroutines
// once its collaborators are defined.
type Evaluator struct {
	reg *mock.Registry
}

// NewEvaluator returns an Evaluator with no collaborators defined.
func NewEvaluator() *Evaluator {
	return &Evaluator{reg: mock.NewRegistry()}
}

// Define registers the real implementation of a collaborator.
func (e *Evaluator) Define(id string, impl mock.Func) {
	e.reg.Define(id, impl)
}

// Placeholder registers collaborators that have no implementation at
// all; facts must mock them to call them.
func (e *Evaluator) Placeholder(ids ...string) {
	for _, id := range ids {
		e.reg.Placeholder(id)
	}
}

// Evaluate runs one fact and returns its structured result. Fatal
// errors, including panics in the fact's own closures, are caught here
// and reported in the Result; mock bindings are restored on every exit
// path first.
func (e *Evaluator) Evaluate(def *Definition) *Result {
	r := &Run{
		eval:     e,
		ctx:      e.reg.NewContext(),
		res:      &Result{Name: def.Name},
		metavars: make(map[string]*Metavar),
	}
	r.evaluate(def)
	return r.res
}

// Evaluate runs one fact against a fresh, empty collaborator registry.
func Evaluate(def *Definition) *Result {
	return NewEvaluator().Evaluate(def)
}

// A Run is one fact evaluation in progress. It is handed to the fact's
// body and assertion closures and carries the evaluation's mock context
// and metavariable bindings.
type Run struct {
	eval     *Evaluator
	ctx      *mock.Context
	res      *Result
	metavars map[string]*Metavar
	phase    string
}

// Call routes a collaborator invocation through the current mock scope.
func (r *Run) Call(id string, args ...interface{}) (interface{}, error) {
	return r.ctx.Call(id, args...)
}

// MustCall is Call for fact bodies that want plain value expressions:
// a collaborator error aborts the current assertion via panic, which the
// evaluator catches and classifies.
func (r *Run) MustCall(id string, args ...interface{}) interface{} {
	v, err := r.ctx.Call(id, args...)
	if err != nil {
		panic(&abortError{err: err})
	}
	return v
}

// Func returns the current binding of id as a callable, for handing to
// code under test that takes its collaborator as a parameter.
func (r *Run) Func(id string) mock.Func {
	return r.ctx.Func(id)
}

// Check records one assertion outcome immediately: actual against
// expected under the standard matching rules. It reports the verdict so
// bodies can branch on it, though most should not.
func (r *Run) Check(actual, expected interface{}) bool {
	ok := check.Match(actual, expected)
	r.res.Assertions = append(r.res.Assertions, AssertionResult{
		Passed:             ok,
		Expected:           expected,
		Actual:             actual,
		CheckerDescription: check.Describe(expected),
	})
	return ok
}

// Metavar binds an opaque placeholder value, memoized per name for the
// duration of this evaluation: repeated mentions of one name resolve to
// the same value, and no other evaluation ever observes it.
func (r *Run) Metavar(name string) *Metavar {
	if m, ok := r.metavars[name]; ok {
		return m
	}
	m := &Metavar{name: name}
	r.metavars[name] = m
	return m
}

// Fact evaluates a nested fact within this evaluation's mock scope.
// The nested fact's stubs stack over the outer bindings and are popped
// when it completes, in LIFO order matching the structural nesting. Its
// result is recorded under the parent and returned; a fatal error in a
// nested fact does not abort the parent.
func (r *Run) Fact(def *Definition) *Result {
	child := &Run{
		eval:     r.eval,
		ctx:      r.ctx,
		res:      &Result{Name: def.Name},
		metavars: make(map[string]*Metavar),
	}
	child.evaluate(def)
	r.res.Nested = append(r.res.Nested, child.res)
	return child.res
}

func (r *Run) evaluate(def *Definition) {
	r.phase = phaseInit
	if err := validate(def); err != nil {
		r.res.Fatal = &Failure{Kind: KindMalformedDeclaration, Err: err, Phase: r.phase}
		return
	}
	// Metavariables bind lazily on first mention within the evaluation.
	r.phase = phaseMetavarsBound

	var handles []*mock.Handle
	defer func() {
		// Restoration is unconditional: normal completion and aborts
		// alike pass through here before control returns.
		r.phase = phaseMocksRestored
		for i := len(handles) - 1; i >= 0; i-- {
			handles[i].Release()
		}
		r.phase = phaseReported
	}()

	for _, id := range def.Placeholders {
		handles = append(handles, r.ctx.Mask(id))
	}
	for _, g := range groupClauses(def.Clauses) {
		h, err := r.ctx.Install(g.id, g.clauses)
		if err != nil {
			r.res.Fatal = &Failure{Kind: KindMalformedDeclaration, Err: err, Phase: r.phase}
			return
		}
		handles = append(handles, h)
	}
	r.phase = phaseMocksInstalled

	r.phase = phaseBodyExecuting
	if def.Body != nil {
		if err := r.invokeBody(def.Body); err != nil {
			if f := r.classify(err); f != nil {
				r.res.Fatal = f
			} else {
				r.res.Assertions = append(r.res.Assertions, AssertionResult{
					Passed:             false,
					Actual:             err,
					CheckerDescription: "body runs without error",
				})
			}
		}
	}
	for _, a := range def.Assertions {
		if r.res.Fatal != nil {
			// An abort skips the remaining assertions of this fact.
			break
		}
		r.runAssertion(a)
	}
	r.phase = phaseResultsChecked

	if r.res.Fatal == nil {
		for _, h := range handles {
			for _, cl := range h.Clauses() {
				r.res.Expectations = append(r.res.Expectations, ExpectationResult{
					FuncID:    cl.ID,
					Triggered: cl.Triggered(),
					Matchers:  cl.MatcherDescriptions(),
				})
			}
		}
		r.phase = phaseExpectationsVerified
	}
}

func (r *Run) runAssertion(a Assertion) {
	actual, err := r.invokeActual(a.Actual)
	if err != nil {
		if f := r.classify(err); f != nil {
			r.res.Fatal = f
			return
		}
		// A recoverable error from the actual-value expression is a
		// failed assertion, not an abort.
		r.res.Assertions = append(r.res.Assertions, AssertionResult{
			Passed:             false,
			Expected:           a.Expected,
			Actual:             err,
			CheckerDescription: check.Describe(a.Expected),
		})
		return
	}
	r.Check(actual, a.Expected)
}

func (r *Run) invokeActual(fn func(*Run) (interface{}, error)) (v interface{}, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = asError(p)
		}
	}()
	return fn(r)
}

func (r *Run) invokeBody(fn func(*Run) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = asError(p)
		}
	}()
	return fn(r)
}

// classify maps an error to the fatal failure it represents, or nil if
// it is recoverable within the fact.
func (r *Run) classify(err error) *Failure {
	var (
		unexpected *mock.UnexpectedCallError
		undefined  mock.UndefinedFunctionError
		malformed  *mock.MalformedClauseError
		panicked   *panicError
	)
	switch {
	case errors.As(err, &unexpected):
		return &Failure{Kind: KindUnexpectedCall, Err: err, Phase: r.phase}
	case errors.As(err, &undefined):
		return &Failure{Kind: KindUndefinedFunction, Err: err, Phase: r.phase}
	case errors.As(err, &malformed):
		return &Failure{Kind: KindMalformedDeclaration, Err: err, Phase: r.phase}
	case errors.As(err, &panicked):
		return &Failure{Kind: KindPanic, Err: err, Phase: r.phase}
	}
	return nil
}

// abortError carries a collaborator error out of a MustCall.
type abortError struct {
	err error
}

func (e *abortError) Error() string { return e.err.Error() }
func (e *abortError) Unwrap() error { return e.err }

// panicError wraps a non-engine panic value from a fact closure.
type panicError struct {
	value interface{}
}

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.value) }

func asError(p interface{}) error {
	if ab, ok := p.(*abortError); ok {
		return ab.err
	}
	return &panicError{value: p}
}

func validate(def *Definition) error {
	for i, a := range def.Assertions {
		if a.Actual == nil {
			return fmt.Errorf("assertion %d has no actual-value expression", i+1)
		}
	}
	for _, id := range def.Placeholders {
		if id == "" {
			return errors.New("placeholder with empty identifier")
		}
	}
	for _, p := range def.Clauses {
		if p.ID == "" {
			return &mock.MalformedClauseError{Reason: "empty function identifier"}
		}
	}
	return nil
}

type clauseGroup struct {
	id      string
	clauses []*mock.Clause
}

// groupClauses gathers a definition's provided clauses by identifier,
// preserving both the identifiers' first-appearance order and each
// group's declaration order (clause selection is first match wins).
// Fresh mock.Clause values are built per evaluation so trigger counts
// never leak between evaluations of one Definition.
func groupClauses(provided []Provided) []clauseGroup {
	var order []string
	byID := make(map[string][]*mock.Clause)
	for _, p := range provided {
		if _, ok := byID[p.ID]; !ok {
			order = append(order, p.ID)
		}
		byID[p.ID] = append(byID[p.ID], &mock.Clause{
			ID:      p.ID,
			Args:    p.Args,
			Returns: p.Returns,
		})
	}
	groups := make([]clauseGroup, len(order))
	for i, id := range order {
		groups[i] = clauseGroup{id: id, clauses: byID[id]}
	}
	return groups
}
