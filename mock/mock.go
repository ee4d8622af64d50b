// Package mock provides scoped substitution of named collaborator
// functions with call-recording stand-ins.
//
// A Registry holds the real implementations of collaborators, keyed by
// identifier. Each fact evaluation derives its own Context from the
// Registry, so concurrently evaluated facts mocking the same identifier
// never observe each other's bindings. Within a Context, Install pushes a
// stub over the current binding and the returned Handle's Release pops it,
// in strict LIFO order matching structural nesting of facts.
//
// A stub routes each call to the first declared clause whose argument
// matchers all accept; the clause's trigger counter increments and its
// configured return value is produced. A call matching no clause is an
// UnexpectedCallError, and a call to an identifier with neither stub nor
// implementation is an UndefinedFunctionError; both are fatal to the
// enclosing fact.
package mock

import (
	"sync"

	"github.com/aspineon/factual/check"
)

// Func is the shape of a collaborator implementation.
type Func func(args ...interface{}) (interface{}, error)

// A Clause is one declared expectation: when the mocked collaborator is
// called with arguments accepted by Args, Returns is produced. Args
// entries may be literal values, predicate functions, or check.Checkers.
type Clause struct {
	ID      string
	Args    []interface{}
	Returns interface{}

	matchers []check.Checker
	count    int
}

// Triggered reports whether at least one call matched this clause.
func (c *Clause) Triggered() bool { return c.count > 0 }

// Count returns the number of calls that matched this clause.
func (c *Clause) Count() int { return c.count }

// MatcherDescriptions renders the clause's argument matchers for reports.
func (c *Clause) MatcherDescriptions() []string {
	descs := make([]string, len(c.matchers))
	for i, m := range c.matchers {
		descs[i] = m.String()
	}
	return descs
}

// compile validates the clause and coerces its argument specs into
// checkers. A structurally invalid clause is a MalformedClauseError.
func (c *Clause) compile() error {
	if c == nil {
		return &MalformedClauseError{Reason: "clause is nil"}
	}
	if c.ID == "" {
		return &MalformedClauseError{Reason: "empty function identifier"}
	}
	c.matchers = make([]check.Checker, len(c.Args))
	for i, spec := range c.Args {
		c.matchers[i] = check.Coerce(spec)
	}
	return nil
}

// accepts reports whether the call's argument tuple is matched by this
// clause. Arity must equal the declared matcher count to be eligible.
func (c *Clause) accepts(args []interface{}) bool {
	if len(args) != len(c.matchers) {
		return false
	}
	for i, m := range c.matchers {
		if !m.Matches(args[i]) {
			return false
		}
	}
	return true
}

// A Registry maps collaborator identifiers to their real implementations.
// It is safe for concurrent use; mutation happens through Define and
// Placeholder, and each evaluation reads through its own Context.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Func
}

// NewRegistry returns an empty collaborator registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Func)}
}

// Define registers the real implementation of a collaborator.
func (r *Registry) Define(id string, impl Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[id] = impl
}

// Placeholder registers an intentionally unimplemented collaborator.
// Invoking it outside an active stub scope fails with
// UndefinedFunctionError; a placeholder only ever runs when shadowed by
// an installed stub. This is the same substitution mechanism as any other
// binding, just with no implementation behind it.
func (r *Registry) Placeholder(id string) {
	r.Define(id, nil)
}

func (r *Registry) lookup(id string) Func {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defs[id]
}

// NewContext derives a fresh, unshared binding context for one fact
// evaluation. The context reads real implementations through the registry
// but keeps all stub state to itself.
func (r *Registry) NewContext() *Context {
	return &Context{reg: r, stacks: make(map[string][]*stub)}
}

// A Context holds the identifier-to-stub binding stacks for a single
// logical thread of fact evaluation. It is not safe for concurrent use;
// concurrent facts must each derive their own Context.
type Context struct {
	reg    *Registry
	stacks map[string][]*stub
}

type stub struct {
	id          string
	clauses     []*Clause
	placeholder bool
	released    bool
}

// A Handle undoes one stub installation. Release restores the
// immediately-prior binding and is idempotent, so it may be deferred
// unconditionally and still be called again on early exits.
type Handle struct {
	ctx *Context
	s   *stub
}

// Install pushes a stub for id over the current binding, built from the
// given clauses in declaration order. The clauses are validated first;
// a structurally invalid clause fails with MalformedClauseError and
// installs nothing.
func (c *Context) Install(id string, clauses []*Clause) (*Handle, error) {
	for _, cl := range clauses {
		if cl == nil {
			return nil, &MalformedClauseError{ID: id, Reason: "clause is nil"}
		}
		if cl.ID == "" {
			cl.ID = id
		}
		if err := cl.compile(); err != nil {
			return nil, err
		}
	}
	s := &stub{id: id, clauses: clauses}
	c.stacks[id] = append(c.stacks[id], s)
	return &Handle{ctx: c, s: s}, nil
}

// Mask pushes a placeholder binding for id: a zero-clause entry in the
// same substitution mechanism as Install, whose invocation always fails
// with UndefinedFunctionError unless shadowed by a later stub. It hides
// any real implementation for the life of the returned handle.
func (c *Context) Mask(id string) *Handle {
	s := &stub{id: id, placeholder: true}
	c.stacks[id] = append(c.stacks[id], s)
	return &Handle{ctx: c, s: s}
}

// Release pops this handle's stub, restoring the prior binding. Stubs
// must be released in reverse installation order; releasing a stub that
// is not the top of its identifier's stack only marks it dead so that a
// deferred outer release still leaves the stacks consistent.
func (h *Handle) Release() {
	if h == nil || h.s.released {
		return
	}
	h.s.released = true
	stack := h.ctx.stacks[h.s.id]
	// Pop released stubs off the top; out-of-order releases resolve
	// once the intervening stubs are themselves released.
	for len(stack) > 0 && stack[len(stack)-1].released {
		stack = stack[:len(stack)-1]
	}
	if len(stack) == 0 {
		delete(h.ctx.stacks, h.s.id)
	} else {
		h.ctx.stacks[h.s.id] = stack
	}
}

// Verify returns one UnsatisfiedExpectation per clause of this handle's
// stub that no call ever triggered. The satisfaction policy is "at least
// one matching call"; no upper bound is enforced.
func (h *Handle) Verify() []*UnsatisfiedExpectation {
	var unsat []*UnsatisfiedExpectation
	for _, cl := range h.s.clauses {
		if !cl.Triggered() {
			unsat = append(unsat, &UnsatisfiedExpectation{
				ID:       cl.ID,
				Matchers: cl.MatcherDescriptions(),
			})
		}
	}
	return unsat
}

// Clauses exposes the handle's clauses for result reporting.
func (h *Handle) Clauses() []*Clause { return h.s.clauses }

// Call routes a collaborator invocation through the current binding for
// id: the topmost live stub if one is installed, otherwise the real
// implementation from the registry. A stub fully shadows outer bindings;
// a call matching none of its clauses does not fall through.
func (c *Context) Call(id string, args ...interface{}) (interface{}, error) {
	if stack := c.stacks[id]; len(stack) > 0 {
		s := stack[len(stack)-1]
		if s.placeholder {
			return nil, UndefinedFunctionError(id)
		}
		for _, cl := range s.clauses {
			if cl.accepts(args) {
				cl.count++
				return cl.Returns, nil
			}
		}
		return nil, &UnexpectedCallError{ID: id, Args: args}
	}
	if impl := c.reg.lookup(id); impl != nil {
		return impl(args...)
	}
	return nil, UndefinedFunctionError(id)
}

// Func returns the current binding of id as a callable, for handing a
// collaborator to code under test.
func (c *Context) Func(id string) Func {
	return func(args ...interface{}) (interface{}, error) {
		return c.Call(id, args...)
	}
}
