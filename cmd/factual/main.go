// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The factual command evaluates fact scripts.
// With no arguments, it starts a read-eval-print loop (REPL).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.starlark.net/starlark"
	"golang.org/x/term"

	"github.com/aspineon/factual/repl"
	"github.com/aspineon/factual/starfact"
)

// flags
var (
	execprog = flag.String("c", "", "execute program `prog`")
)

func main() {
	os.Exit(doMain())
}

func doMain() int {
	log.SetPrefix("factual: ")
	log.SetFlags(0)
	flag.Parse()

	reporter := &consoleReporter{
		color: term.IsTerminal(int(os.Stdout.Fd())),
	}
	thread := &starlark.Thread{Name: "main"}
	starfact.SetReporter(thread, reporter)

	switch {
	case flag.NArg() > 0 || *execprog != "":
		var files []nameSrc
		if *execprog != "" {
			files = append(files, nameSrc{"cmdline", *execprog})
		}
		for _, arg := range flag.Args() {
			files = append(files, nameSrc{arg, nil})
		}
		for _, f := range files {
			thread.Name = "exec " + f.name
			if _, err := starfact.ExecFile(thread, f.name, f.src); err != nil {
				repl.PrintError(err)
				reporter.failures++
			}
		}
	default:
		fmt.Println("Welcome to factual (github.com/aspineon/factual)")
		thread.Name = "REPL"
		repl.REPL(thread, nil)
	}

	if reporter.failures > 0 {
		fmt.Printf("%s: %d failure(s)\n", reporter.label("FAIL"), reporter.failures)
		return 1
	}
	fmt.Println(reporter.label("PASS"))
	return 0
}

type nameSrc struct {
	name string
	src  interface{}
}

// consoleReporter prints each failure as it arrives and counts them.
type consoleReporter struct {
	color    bool
	failures int
}

func (r *consoleReporter) Error(args ...interface{}) {
	r.failures++
	fmt.Printf("%s: %s\n", r.label("FAIL"), fmt.Sprint(args...))
}

const (
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiReset = "\x1b[0m"
)

func (r *consoleReporter) label(s string) string {
	if !r.color {
		return s
	}
	if s == "PASS" {
		return ansiGreen + s + ansiReset
	}
	return ansiRed + s + ansiReset
}
