package fact

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aspineon/factual/check"
	"github.com/aspineon/factual/mock"
)

// sums g(2) and g(3) through the run's mock scope.
func gAdder(r *Run) (interface{}, error) {
	a, err := r.Call("g", 2)
	if err != nil {
		return nil, err
	}
	b, err := r.Call("g", 3)
	if err != nil {
		return nil, err
	}
	return a.(int) + b.(int), nil
}

func TestEvaluatePassingFact(t *testing.T) {
	def := New("adds via its collaborator").
		Provided("g", Args(2), 4).
		Provided("g", Args(3), 7).
		Assert(gAdder, 11)

	res := Evaluate(def)
	require.True(t, res.Passed())
	require.Nil(t, res.Fatal)
	require.Empty(t, res.Failures())

	require.Len(t, res.Assertions, 1)
	require.True(t, res.Assertions[0].Passed)
	require.Equal(t, 11, res.Assertions[0].Actual)

	require.Len(t, res.Expectations, 2)
	for _, e := range res.Expectations {
		require.Equal(t, "g", e.FuncID)
		require.True(t, e.Triggered)
	}
}

func TestEvaluateFailedAssertion(t *testing.T) {
	odd := check.Satisfies("odd?", func(v interface{}) bool {
		n, ok := v.(int)
		return ok && n%2 == 1
	})
	def := New("four is odd").
		Assert(func(r *Run) (interface{}, error) { return 4, nil }, odd)

	res := Evaluate(def)
	require.False(t, res.Passed())
	require.Nil(t, res.Fatal)

	require.Len(t, res.Assertions, 1)
	a := res.Assertions[0]
	require.False(t, a.Passed)
	require.Equal(t, 4, a.Actual)
	require.Equal(t, "odd?", a.CheckerDescription)
	require.Equal(t, "Not true that <4> matches odd?.", a.Message())
	require.Equal(t, []string{"four is odd: Not true that <4> matches odd?."}, res.Failures())
}

func TestEvaluateUnsatisfiedExpectation(t *testing.T) {
	def := New("declares more than it uses").
		Provided("g", Args(1), 10).
		Provided("g", Args(2), 20).
		AssertCall(10, "g", 1)

	res := Evaluate(def)
	require.False(t, res.Passed())
	require.Nil(t, res.Fatal)
	require.True(t, res.Assertions[0].Passed)

	require.Len(t, res.Expectations, 2)
	require.True(t, res.Expectations[0].Triggered)
	require.False(t, res.Expectations[1].Triggered)
	require.Equal(t, "Expected at least one call (g equal-to(2)) but none matched.",
		res.Expectations[1].Message())
}

func TestEvaluateUnexpectedCallIsFatal(t *testing.T) {
	def := New("calls outside its declarations").
		Provided("g", Args(1), 10).
		AssertCall(10, "g", 99)

	res := Evaluate(def)
	require.False(t, res.Passed())
	require.NotNil(t, res.Fatal)
	require.Equal(t, KindUnexpectedCall, res.Fatal.Kind)
	// Verification is skipped on abort.
	require.Empty(t, res.Expectations)
}

func TestEvaluateUndefinedFunctionIsFatal(t *testing.T) {
	def := New("leans on an unwritten collaborator").
		Unfinished("h").
		AssertCall(1, "h", 1)

	res := Evaluate(def)
	require.NotNil(t, res.Fatal)
	require.Equal(t, KindUndefinedFunction, res.Fatal.Kind)
}

func TestAbortSkipsRemainingAssertions(t *testing.T) {
	ran := false
	def := New("aborts early").
		AssertCall(1, "missing", 1).
		Assert(func(r *Run) (interface{}, error) {
			ran = true
			return 1, nil
		}, 1)

	res := Evaluate(def)
	require.NotNil(t, res.Fatal)
	require.Equal(t, KindUndefinedFunction, res.Fatal.Kind)
	require.False(t, ran)
	require.Empty(t, res.Assertions)
}

func TestRestorationAfterNormalCompletion(t *testing.T) {
	ev := NewEvaluator()
	ev.Define("g", func(args ...interface{}) (interface{}, error) {
		return "real", nil
	})

	res := ev.Evaluate(New("stubs g").
		Provided("g", Args(check.Anything), "stubbed").
		AssertCall("stubbed", "g", 1))
	require.True(t, res.Passed())

	res = ev.Evaluate(New("sees the real g again").
		AssertCall("real", "g", 1))
	require.True(t, res.Passed())
}

func TestRestorationAfterFatal(t *testing.T) {
	ev := NewEvaluator()
	ev.Define("g", func(args ...interface{}) (interface{}, error) {
		return "real", nil
	})

	res := ev.Evaluate(New("blows up mid-fact").
		Provided("g", Args(1), "stubbed").
		Assert(func(r *Run) (interface{}, error) { panic("boom") }, 1))
	require.NotNil(t, res.Fatal)
	require.Equal(t, KindPanic, res.Fatal.Kind)

	res = ev.Evaluate(New("still sees the real g").
		AssertCall("real", "g", 1))
	require.True(t, res.Passed())
}

func TestFirstDeclaredClauseWins(t *testing.T) {
	oddInt := func(n int) bool { return n%2 == 1 }
	def := New("routes by declaration order").
		Provided("g", Args(oddInt), "odd").
		Provided("g", Args(check.Anything), "fallback").
		AssertCall("odd", "g", 1).
		AssertCall("fallback", "g", 2)

	res := Evaluate(def)
	require.True(t, res.Passed())
}

func TestBodyRunsBeforeAssertions(t *testing.T) {
	var order []string
	def := New("body first").
		WithBody(func(r *Run) error {
			order = append(order, "body")
			r.Check(r.MustCall("g", 2), 4)
			return nil
		}).
		Provided("g", Args(2), 4).
		Assert(func(r *Run) (interface{}, error) {
			order = append(order, "assertion")
			return 1, nil
		}, 1)

	res := Evaluate(def)
	require.True(t, res.Passed())
	require.Equal(t, []string{"body", "assertion"}, order)
	require.Len(t, res.Assertions, 2)
}

func TestBodyErrorIsRecordedNotFatal(t *testing.T) {
	def := New("body misbehaves recoverably").
		WithBody(func(r *Run) error {
			return errTest
		}).
		Assert(func(r *Run) (interface{}, error) { return 1, nil }, 1)

	res := Evaluate(def)
	require.False(t, res.Passed())
	require.Nil(t, res.Fatal)
	require.Len(t, res.Assertions, 2)
	require.False(t, res.Assertions[0].Passed)
	require.Equal(t, "body runs without error", res.Assertions[0].CheckerDescription)
	require.True(t, res.Assertions[1].Passed)
}

var errTest = &testError{}

type testError struct{}

func (*testError) Error() string { return "synthetic failure" }

func TestMalformedDeclarationNeverRunsBody(t *testing.T) {
	ran := false
	def := New("declares a clause with no identifier").
		WithBody(func(r *Run) error {
			ran = true
			return nil
		}).
		Provided("", Args(1), 2)

	res := Evaluate(def)
	require.NotNil(t, res.Fatal)
	require.Equal(t, KindMalformedDeclaration, res.Fatal.Kind)
	require.False(t, ran)
}

func TestNilActualIsMalformed(t *testing.T) {
	res := Evaluate(&Definition{
		Name:       "assertion without an actual",
		Assertions: []Assertion{{Expected: 1}},
	})
	require.NotNil(t, res.Fatal)
	require.Equal(t, KindMalformedDeclaration, res.Fatal.Kind)
}

func TestNestedFactsStackAndRestore(t *testing.T) {
	ev := NewEvaluator()
	ev.Define("g", func(args ...interface{}) (interface{}, error) {
		return "real", nil
	})

	def := New("outer").
		Provided("g", Args(check.Anything), "outer").
		WithBody(func(r *Run) error {
			r.Check(r.MustCall("g", 1), "outer")

			inner := r.Fact(New("inner").
				Provided("g", Args(check.Anything), "inner").
				AssertCall("inner", "g", 1))
			if !inner.Passed() {
				t.Error("inner fact failed")
			}

			// The inner stub popped; the outer one governs again.
			r.Check(r.MustCall("g", 1), "outer")
			return nil
		})

	res := ev.Evaluate(def)
	require.True(t, res.Passed())
	require.Len(t, res.Nested, 1)
	require.Equal(t, "inner", res.Nested[0].Name)

	res = ev.Evaluate(New("after both").AssertCall("real", "g", 1))
	require.True(t, res.Passed())
}

func TestNestedFatalDoesNotAbortParent(t *testing.T) {
	def := New("outer survives").
		WithBody(func(r *Run) error {
			inner := r.Fact(New("inner dies").AssertCall(1, "missing"))
			r.Check(inner.Fatal != nil, true)
			return nil
		})

	res := Evaluate(def)
	require.Nil(t, res.Fatal)
	require.False(t, res.Passed()) // the nested failure propagates to the verdict
	require.Equal(t, KindUndefinedFunction, res.Nested[0].Fatal.Kind)
}

func TestMetavarIdentity(t *testing.T) {
	def := New("threads a metavariable through g").
		WithBody(func(r *Run) error {
			x := r.Metavar("x")
			r.Check(r.Metavar("x"), check.Exactly(x))
			r.Check(r.MustCall("g", x), "ok")
			return nil
		}).
		Provided("g", Args(check.Anything), "ok")

	res := Evaluate(def)
	require.True(t, res.Passed())
}

func TestMetavarsMatchOnlyThemselves(t *testing.T) {
	var x, y *Metavar
	def := New("distinct names, distinct values").
		WithBody(func(r *Run) error {
			x = r.Metavar("x")
			y = r.Metavar("y")
			return nil
		})
	require.True(t, Evaluate(def).Passed())

	require.True(t, check.Match(x, x))
	require.False(t, check.Match(x, y))
	require.Equal(t, "...x...", x.String())

	// A second evaluation binds a fresh value even for the same name.
	var x2 *Metavar
	def2 := New("rebinds x").
		WithBody(func(r *Run) error {
			x2 = r.Metavar("x")
			return nil
		})
	require.True(t, Evaluate(def2).Passed())
	require.False(t, check.Match(x, x2))
}

func TestRunFunc(t *testing.T) {
	// Code under test that takes its collaborator as a parameter.
	sumWith := func(g mock.Func, a, b int) (int, error) {
		x, err := g(a)
		if err != nil {
			return 0, err
		}
		y, err := g(b)
		if err != nil {
			return 0, err
		}
		return x.(int) + y.(int), nil
	}

	def := New("hands g to the code under test").
		Provided("g", Args(2), 4).
		Provided("g", Args(3), 7).
		Assert(func(r *Run) (interface{}, error) {
			return sumWith(r.Func("g"), 2, 3)
		}, 11)

	res := Evaluate(def)
	require.True(t, res.Passed())
}

func TestConcurrentEvaluationsAreIsolated(t *testing.T) {
	ev := NewEvaluator()
	ev.Define("g", func(args ...interface{}) (interface{}, error) {
		return "real", nil
	})

	// Two goroutines repeatedly mock the same identifier with different
	// behaviors; each evaluation must only ever observe its own stub.
	var wg sync.WaitGroup
	for _, want := range []string{"alpha", "beta"} {
		want := want
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				res := ev.Evaluate(New("mocks g as "+want).
					Provided("g", Args(1), want).
					AssertCall(want, "g", 1).
					AssertCall(want, "g", 1))
				if !res.Passed() {
					t.Errorf("%s: %v", want, res.Failures())
					return
				}
			}
		}()
	}
	wg.Wait()

	res := ev.Evaluate(New("real g survives the stampede").AssertCall("real", "g", 1))
	require.True(t, res.Passed())
}

func TestFreshClausesPerEvaluation(t *testing.T) {
	def := New("reusable definition").
		Provided("g", Args(1), 10).
		AssertCall(10, "g", 1)

	require.True(t, Evaluate(def).Passed())
	// Trigger counts must not leak into a second evaluation.
	res := Evaluate(def)
	require.True(t, res.Passed())
	require.True(t, res.Expectations[0].Triggered)
}

func TestFailureMessageDiffsMultilineStrings(t *testing.T) {
	def := New("compares documents").
		Assert(func(r *Run) (interface{}, error) {
			return "line one\nline 2\nline three\n", nil
		}, "line one\nline two\nline three\n")

	res := Evaluate(def)
	require.False(t, res.Passed())
	msg := res.Assertions[0].Message()
	require.Contains(t, msg, "found diff")
	require.Contains(t, msg, "line two")
	require.Contains(t, msg, "line 2")
}
