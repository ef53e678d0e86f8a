// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"fmt"

	"go.cpmlang.net/syntax"
)

// An Error describes the failure of a compilation run.
// Err is the typed cause; use errors.As to inspect it.
type Error struct {
	Pos syntax.Position
	Err error
}

func (e *Error) Error() string { return e.Pos.String() + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// An InvalidLValueError reports an assignment whose target cannot be
// stored to, such as a literal or the result of an operator.
type InvalidLValueError struct {
	Target string // description of the target
}

func (e *InvalidLValueError) Error() string {
	return "cannot assign to " + e.Target
}

// An UnsupportedLiteralError reports a constant with no encoding in the
// instruction set.
type UnsupportedLiteralError struct {
	Raw   string
	Value interface{}
}

func (e *UnsupportedLiteralError) Error() string {
	return fmt.Sprintf("unsupported literal %s of type %T", e.Raw, e.Value)
}

// A NotAMethodError reports a call through a name bound to something
// other than a method.
type NotAMethodError struct {
	Name string
}

func (e *NotAMethodError) Error() string {
	return "cannot call non-method " + e.Name
}

// A NotImplementedError reports a construct that is recognized but for
// which no code can yet be generated.
type NotImplementedError struct {
	What string
}

func (e *NotImplementedError) Error() string {
	return e.What + " not implemented"
}

// An ArgumentCountError reports a call with the wrong number of arguments.
type ArgumentCountError struct {
	Method    string
	Want, Got int
}

func (e *ArgumentCountError) Error() string {
	return fmt.Sprintf("call of %s has %d arguments, want %d", e.Method, e.Got, e.Want)
}

// A VoidValueError reports the use of an expression that produces no
// value where a value is required.
type VoidValueError struct {
	Expr string
}

func (e *VoidValueError) Error() string {
	return e.Expr + " (no value) used as value"
}

// A MissingReturnError reports a method with a result whose body may end
// without a return statement.
type MissingReturnError struct {
	Method string
}

func (e *MissingReturnError) Error() string {
	return "missing return at end of " + e.Method
}
