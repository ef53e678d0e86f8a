// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cpmtest defines utilities for testing the CPM compiler:
// locating test data, compiling source text to a program image, and
// running it.
package cpmtest // import "go.cpmlang.net/internal/cpmtest"

import (
	"errors"
	"path/filepath"
	"runtime"

	"go.cpmlang.net/codegen"
	"go.cpmlang.net/internal/compile"
	"go.cpmlang.net/syntax"
	"go.cpmlang.net/types"
	"go.cpmlang.net/vm"
)

// A Reporter is a value to which errors may be reported.
// It is satisfied by *testing.T.
type Reporter interface {
	Error(args ...interface{})
}

// DataFile returns the effective filename of the specified
// test data resource, relative to the root of the module.
var DataFile = func(pkgdir, filename string) string {
	_, file, _, _ := runtime.Caller(0)
	root := filepath.Join(filepath.Dir(file), "..", "..")
	return filepath.Join(root, pkgdir, filename)
}

// Compile parses src and generates a program image from it.
// The program takes the name of the source's namespace.
// The filename and src parameters are as for syntax.Parse.
func Compile(filename string, src interface{}) (*compile.Program, error) {
	root, err := syntax.Parse(filename, src)
	if err != nil {
		return nil, err
	}
	mod := compile.NewModule(root.Name.Name)
	if err := codegen.Generate(mod, types.System(), root); err != nil {
		return nil, err
	}
	return mod.Program(), nil
}

// Exec compiles src and runs it on a new thread, returning the result
// of the entry point.
func Exec(filename string, src interface{}) (vm.Value, error) {
	prog, err := Compile(filename, src)
	if err != nil {
		return nil, err
	}
	return vm.Run(new(vm.Thread), prog)
}

// ErrorPosition returns the source position reported by a syntax or
// code generation error, if any.
func ErrorPosition(err error) (syntax.Position, bool) {
	var serr syntax.Error
	if errors.As(err, &serr) {
		return serr.Pos, true
	}
	var cerr *codegen.Error
	if errors.As(err, &cerr) {
		return cerr.Pos, true
	}
	return syntax.Position{}, false
}

// Check reports err to r unless it is nil.
func Check(r Reporter, err error) {
	if err != nil {
		if evalErr, ok := err.(*vm.EvalError); ok {
			r.Error(evalErr.Backtrace())
		} else {
			r.Error(err)
		}
	}
}
