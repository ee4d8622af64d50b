// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package factest reports fact evaluation results to a Go test.
//
// Clients build fact.Definitions as usual and hand them to Run, which
// evaluates each one and reports every failure to the testing.T. Only
// structured results cross the boundary; formatting lives here, not in
// the engine.
package factest

import (
	"github.com/aspineon/factual/fact"
)

// A Reporter is a value to which failures may be reported.
// It is satisfied by *testing.T.
type Reporter interface {
	Error(args ...interface{})
}

// Report writes each failure in res to r. It returns whether the fact
// passed.
func Report(r Reporter, res *fact.Result) bool {
	for _, msg := range res.Failures() {
		r.Error(msg)
	}
	return res.Passed()
}

// Run evaluates each definition against ev and reports failures to r.
// A nil ev means a fresh evaluator with no collaborators defined.
func Run(r Reporter, ev *fact.Evaluator, defs ...*fact.Definition) {
	if ev == nil {
		ev = fact.NewEvaluator()
	}
	for _, def := range defs {
		Report(r, ev.Evaluate(def))
	}
}
