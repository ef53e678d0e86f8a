// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package repl provides a read/compile/run loop for CPM.
//
// It supports readline-style command editing,
// and interrupts through Control-C.
//
// The REPL reads lines until they form a complete namespace
// declaration, then compiles it, runs its entry point, and prints the
// result. A blank line abandons an incomplete input.
package repl // import "go.cpmlang.net/repl"

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/chzyer/readline"

	"go.cpmlang.net/codegen"
	"go.cpmlang.net/internal/compile"
	"go.cpmlang.net/syntax"
	"go.cpmlang.net/types"
	"go.cpmlang.net/vm"
)

var interrupted = make(chan os.Signal, 1)

// REPL executes a read, compile, run loop.
//
// Each program runs on a new thread, which a SIGINT (Control-C) cancels.
func REPL() {
	signal.Notify(interrupted, os.Interrupt)
	defer signal.Stop(interrupted)

	rl, err := readline.New(">>> ")
	if err != nil {
		PrintError(err)
		return
	}
	defer rl.Close()
	for {
		if err := rep(rl); err != nil {
			if err == readline.ErrInterrupt {
				fmt.Println(err)
				continue
			}
			break
		}
	}
	fmt.Println()
}

// rep reads, compiles, runs, and prints one program.
//
// It returns an error (possibly readline.ErrInterrupt)
// only if readline failed. CPM errors are printed.
func rep(rl *readline.Instance) error {
	// Note: during Readline calls, Control-C causes Readline to return
	// ErrInterrupt but does not generate a SIGINT.
	rl.SetPrompt(">>> ")
	var src strings.Builder
	for {
		line, err := rl.Readline()
		rl.SetPrompt("... ")
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			if src.Len() == 0 {
				return nil
			}
			PrintError(errors.New("incomplete input discarded"))
			return nil
		}
		src.WriteString(line)
		src.WriteString("\n")

		root, err := syntax.Parse("<stdin>", src.String())
		if err != nil {
			if Incomplete(err) {
				continue
			}
			PrintError(err)
			return nil
		}

		thread := &vm.Thread{Name: "<stdin>"}
		done := make(chan struct{})
		go func() {
			select {
			case <-interrupted:
				thread.Cancel("interrupted")
			case <-done:
			}
		}()
		v, err := Run(thread, root)
		close(done)
		if err != nil {
			PrintError(err)
		} else if v != vm.None {
			fmt.Println(v)
		}
		return nil
	}
}

// Incomplete reports whether err is a syntax error caused by input that
// ended too soon, so that more lines could complete it.
func Incomplete(err error) bool {
	var serr syntax.Error
	return errors.As(err, &serr) && strings.HasPrefix(serr.Msg, "got end of file")
}

// Run compiles the namespace root and runs its entry point on thread.
func Run(thread *vm.Thread, root *syntax.NamespaceDecl) (vm.Value, error) {
	mod := compile.NewModule(root.Name.Name)
	if err := codegen.Generate(mod, types.System(), root); err != nil {
		return nil, err
	}
	return vm.Run(thread, mod.Program())
}

// PrintError prints the error to stderr,
// or its backtrace if it is a CPM evaluation error.
func PrintError(err error) {
	if evalErr, ok := err.(*vm.EvalError); ok {
		fmt.Fprintln(os.Stderr, evalErr.Backtrace())
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
}
