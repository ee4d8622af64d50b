// Package repl provides a read/eval/print loop for writing facts
// interactively.
//
// It supports readline-style command editing, and interrupts through
// Control-C. The fact, clause, and checker builtins are predeclared, so
// a session can define collaborators and evaluate facts directly:
//
//	fact> define("g", lambda n: n * 2)
//	fact> fact("doubles", lambda f: f.check(f.call("g", 3), 6))
//	True
//
// If an input line can be parsed as an expression, the REPL parses and
// evaluates it and prints its result. Otherwise the REPL reads lines
// until a blank line, then tries again to parse the multi-line input as
// an expression, and failing that executes it as a list of statements
// for side effects.
package repl

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/chzyer/readline"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/aspineon/factual/starfact"
)

var interrupted = make(chan os.Signal, 1)

// REPL executes a read, eval, print loop with the starfact builtins
// predeclared alongside globals.
//
// Before evaluating each item it sets the thread-local variable named
// "context" to a context.Context cancelled by SIGINT (Control-C), so
// client-supplied global functions may make long-running operations
// interruptable.
func REPL(thread *starlark.Thread, globals starlark.StringDict) {
	signal.Notify(interrupted, os.Interrupt)
	defer signal.Stop(interrupted)

	rl, err := readline.New("fact> ")
	if err != nil {
		PrintError(err)
		return
	}
	defer rl.Close()

	env := starfact.Predeclared()
	for k, v := range globals {
		env[k] = v
	}

	for {
		if err := rep(rl, thread, env); err != nil {
			if err == readline.ErrInterrupt {
				fmt.Println(err)
				continue
			}
			break
		}
	}
	fmt.Println()
}

// rep reads, evaluates, and prints one item.
//
// It returns an error (possibly readline.ErrInterrupt) only if readline
// failed. Evaluation errors are printed.
func rep(rl *readline.Instance, thread *starlark.Thread, env starlark.StringDict) error {
	// Each item gets its own context, cancelled by a SIGINT.
	//
	// Note: during Readline calls, Control-C causes Readline to return
	// ErrInterrupt but does not generate a SIGINT.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-interrupted:
			cancel()
		case <-ctx.Done():
		}
	}()

	thread.SetLocal("context", ctx)

	eof := false

	// readline returns EOF, ErrInterrupted, or a line including "\n".
	rl.SetPrompt("fact> ")
	readline := func() ([]byte, error) {
		line, err := rl.Readline()
		rl.SetPrompt(" ...> ")
		if err != nil {
			if err == io.EOF {
				eof = true
			}
			return nil, err
		}
		return []byte(line + "\n"), nil
	}

	f, err := syntax.ParseCompoundStmt("<stdin>", readline)
	if err != nil {
		if eof {
			return io.EOF
		}
		PrintError(err)
		return nil
	}

	if expr := soleExpr(f); expr != nil {
		v, err := starlark.EvalExpr(thread, expr, env)
		if err != nil {
			PrintError(err)
			return nil
		}
		if v != starlark.None {
			fmt.Println(v)
		}
	} else if err := starlark.ExecREPLChunk(f, thread, env); err != nil {
		PrintError(err)
		return nil
	}

	return nil
}

func soleExpr(f *syntax.File) syntax.Expr {
	if len(f.Stmts) == 1 {
		if stmt, ok := f.Stmts[0].(*syntax.ExprStmt); ok {
			return stmt.X
		}
	}
	return nil
}

// PrintError prints the error to stderr, or its backtrace if it is a
// Starlark evaluation error.
func PrintError(err error) {
	if evalErr, ok := err.(*starlark.EvalError); ok {
		fmt.Fprintln(os.Stderr, evalErr.Backtrace())
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
}
