package fact

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/aspineon/factual/check"
)

// FailureKind classifies a fact's fatal error.
type FailureKind int

const (
	// KindMalformedDeclaration: a structurally invalid expectation
	// clause or assertion; the fact never began executing.
	KindMalformedDeclaration FailureKind = iota
	// KindUnexpectedCall: a mocked collaborator was called with
	// arguments matching no declared clause.
	KindUnexpectedCall
	// KindUndefinedFunction: an unimplemented collaborator was called
	// with no mock in scope.
	KindUndefinedFunction
	// KindPanic: the fact's body panicked.
	KindPanic
)

func (k FailureKind) String() string {
	switch k {
	case KindMalformedDeclaration:
		return "malformed declaration"
	case KindUnexpectedCall:
		return "unexpected call"
	case KindUndefinedFunction:
		return "undefined function called"
	case KindPanic:
		return "panic"
	}
	return fmt.Sprintf("failure kind %d", int(k))
}

// A Failure describes the fatal error that aborted a fact. Fatal errors
// are caught at the evaluator boundary and surfaced here; they never
// propagate to crash the run, and mock restoration has already occurred
// by the time the caller sees one.
type Failure struct {
	Kind  FailureKind
	Err   error
	Phase string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s (%s): %s", f.Kind, f.Phase, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// An AssertionResult records one assertion's outcome.
type AssertionResult struct {
	Passed             bool
	Expected           interface{}
	Actual             interface{}
	CheckerDescription string
}

// Message phrases a failed assertion. Multiline string mismatches are
// shown as a context diff.
func (a AssertionResult) Message() string {
	if a.Passed {
		return ""
	}
	if diff := a.stringDiff(); diff != "" {
		return fmt.Sprintf("Not true that actual matches %s, found diff:\n%s",
			a.CheckerDescription, diff)
	}
	return fmt.Sprintf("Not true that <%s> matches %s.",
		check.Render(a.Actual), a.CheckerDescription)
}

func (a AssertionResult) stringDiff() string {
	got, ok1 := a.Actual.(string)
	want, ok2 := a.Expected.(string)
	if !ok1 || !ok2 || !strings.Contains(got, "\n") || !strings.Contains(want, "\n") {
		return ""
	}
	diff := difflib.ContextDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "Expected",
		ToFile:   "Actual",
		Context:  3,
		Eol:      "\n",
	}
	pretty, err := difflib.GetContextDiffString(diff)
	if err != nil {
		return ""
	}
	return pretty
}

// An ExpectationResult records whether one provided clause was
// triggered during the fact's execution.
type ExpectationResult struct {
	FuncID    string
	Triggered bool
	Matchers  []string
}

// Message phrases an unsatisfied expectation.
func (e ExpectationResult) Message() string {
	if e.Triggered {
		return ""
	}
	return fmt.Sprintf("Expected at least one call (%s %s) but none matched.",
		e.FuncID, strings.Join(e.Matchers, ", "))
}

// A Result is the structured outcome of one fact evaluation.
type Result struct {
	Name         string
	Assertions   []AssertionResult
	Expectations []ExpectationResult
	Nested       []*Result
	Fatal        *Failure
}

// Passed reports whether the fact and all its nested facts completed
// with every assertion satisfied, every expectation triggered, and no
// fatal error.
func (r *Result) Passed() bool {
	if r.Fatal != nil {
		return false
	}
	for _, a := range r.Assertions {
		if !a.Passed {
			return false
		}
	}
	for _, e := range r.Expectations {
		if !e.Triggered {
			return false
		}
	}
	for _, n := range r.Nested {
		if !n.Passed() {
			return false
		}
	}
	return true
}

// Failures collects the messages of everything that went wrong, nested
// facts included, each prefixed with the owning fact's name.
func (r *Result) Failures() []string {
	var msgs []string
	prefix := ""
	if r.Name != "" {
		prefix = r.Name + ": "
	}
	if r.Fatal != nil {
		msgs = append(msgs, prefix+r.Fatal.Error())
	}
	for _, a := range r.Assertions {
		if !a.Passed {
			msgs = append(msgs, prefix+a.Message())
		}
	}
	for _, e := range r.Expectations {
		if !e.Triggered {
			msgs = append(msgs, prefix+e.Message())
		}
	}
	for _, n := range r.Nested {
		msgs = append(msgs, n.Failures()...)
	}
	return msgs
}
