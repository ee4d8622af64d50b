package mock

import (
	"fmt"
	"strings"

	"github.com/aspineon/factual/check"
)

// UndefinedFunctionError signifies that a placeholder collaborator was
// invoked with no active stub: the author forgot to declare its expected
// behavior for the current fact. Fatal to the enclosing fact.
type UndefinedFunctionError string

var _ error = UndefinedFunctionError("")

func (e UndefinedFunctionError) Error() string {
	return fmt.Sprintf("%s has no implementation, but it was called with no mock in scope", string(e))
}

// UnexpectedCallError signifies that a mocked collaborator was invoked
// with arguments matching none of its declared clauses: an untested
// interaction. Fatal to the enclosing fact.
type UnexpectedCallError struct {
	ID   string
	Args []interface{}
}

var _ error = (*UnexpectedCallError)(nil)

func (e *UnexpectedCallError) Error() string {
	return fmt.Sprintf("unexpected call (%s %s): no declared clause matches",
		e.ID, check.RenderAll(e.Args))
}

// MalformedClauseError signifies a structurally invalid expectation
// clause. It is reported before the fact's body ever executes.
type MalformedClauseError struct {
	ID     string
	Reason string
}

var _ error = (*MalformedClauseError)(nil)

func (e *MalformedClauseError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("malformed expectation clause: %s", e.Reason)
	}
	return fmt.Sprintf("malformed expectation clause for %s: %s", e.ID, e.Reason)
}

// UnsatisfiedExpectation reports a declared expectation clause that was
// never triggered during the fact's execution.
type UnsatisfiedExpectation struct {
	ID       string
	Matchers []string
}

var _ error = (*UnsatisfiedExpectation)(nil)

func (e *UnsatisfiedExpectation) Error() string {
	return fmt.Sprintf("expectation never satisfied: (%s %s)",
		e.ID, strings.Join(e.Matchers, ", "))
}
