// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vm

import (
	"fmt"
	"strconv"

	"go.cpmlang.net/types"
)

// A Value is a CPM runtime value.
type Value interface {
	// String returns the string representation of the value.
	String() string

	// Type returns a short string describing the value's type.
	Type() string
}

type (
	Int32    int32
	Int64    int64
	Float32  float32
	Float64  float64
	String   string
	Bool     bool
	NoneType struct{}
)

// None is the value of a void method call and of unset object fields.
var None = NoneType{}

func (v Int32) String() string   { return strconv.FormatInt(int64(v), 10) }
func (v Int64) String() string   { return strconv.FormatInt(int64(v), 10) }
func (v Float32) String() string { return strconv.FormatFloat(float64(v), 'g', -1, 32) }
func (v Float64) String() string { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v String) String() string  { return strconv.Quote(string(v)) }
func (v Bool) String() string    { return strconv.FormatBool(bool(v)) }
func (NoneType) String() string  { return "None" }

func (Int32) Type() string    { return "int32" }
func (Int64) Type() string    { return "int64" }
func (Float32) Type() string  { return "float32" }
func (Float64) Type() string  { return "float64" }
func (String) Type() string   { return "string" }
func (Bool) Type() string     { return "bool" }
func (NoneType) Type() string { return "NoneType" }

// Zero returns the initial value of a location of type t.
func Zero(t *types.Type) Value {
	switch t.Kind() {
	case types.Int32:
		return Int32(0)
	case types.Int64:
		return Int64(0)
	case types.Float32:
		return Float32(0)
	case types.Float64:
		return Float64(0)
	case types.String:
		return String("")
	case types.Boolean:
		return Bool(false)
	}
	return None
}

// rank orders the numeric values by promotion; 0 means non-numeric.
func rank(v Value) int {
	switch v.(type) {
	case Int32:
		return 1
	case Int64:
		return 2
	case Float32:
		return 3
	case Float64:
		return 4
	}
	return 0
}

func asInt64(v Value) int64 {
	switch v := v.(type) {
	case Int32:
		return int64(v)
	case Int64:
		return int64(v)
	case Float32:
		return int64(v)
	case Float64:
		return int64(v)
	}
	panic(fmt.Sprintf("not a number: %s", v.Type()))
}

func asFloat64(v Value) float64 {
	switch v := v.(type) {
	case Int32:
		return float64(v)
	case Int64:
		return float64(v)
	case Float32:
		return float64(v)
	case Float64:
		return float64(v)
	}
	panic(fmt.Sprintf("not a number: %s", v.Type()))
}

// promote returns the rank of the result of a binary operation on
// operands of ranks rx and ry.
func promote(rx, ry int) int {
	if min(rx, ry) <= 2 && max(rx, ry) >= 3 {
		return 4
	}
	return max(rx, ry)
}

// convert returns v converted to the numeric type of rank r.
func convert(v Value, r int) Value {
	switch r {
	case 1:
		return Int32(asInt64(v))
	case 2:
		return Int64(asInt64(v))
	case 3:
		return Float32(asFloat64(v))
	}
	return Float64(asFloat64(v))
}

// Binary applies an arithmetic operator ("+", "-", "*" or "/") to x and
// y, first promoting both to the wider of their types. An integral and a
// floating operand meet at Float64, whatever their widths.
// Integer division by zero is an error; integer arithmetic wraps.
func Binary(op string, x, y Value) (Value, error) {
	rx, ry := rank(x), rank(y)
	if rx == 0 || ry == 0 {
		return nil, fmt.Errorf("unknown binary op: %s %s %s", x.Type(), op, y.Type())
	}
	r := promote(rx, ry)
	if r <= 2 {
		a, b := asInt64(x), asInt64(y)
		var z int64
		switch op {
		case "+":
			z = a + b
		case "-":
			z = a - b
		case "*":
			z = a * b
		case "/":
			if b == 0 {
				return nil, fmt.Errorf("integer division by zero")
			}
			if r == 1 {
				z = int64(int32(a) / int32(b))
			} else {
				z = a / b
			}
		default:
			return nil, fmt.Errorf("unknown binary op: %s", op)
		}
		return convert(Int64(z), r), nil
	}
	a, b := asFloat64(x), asFloat64(y)
	var z float64
	switch op {
	case "+":
		z = a + b
	case "-":
		z = a - b
	case "*":
		z = a * b
	case "/":
		z = a / b
	default:
		return nil, fmt.Errorf("unknown binary op: %s", op)
	}
	return convert(Float64(z), r), nil
}

// ExitCode returns the process exit status denoted by the result of a
// program's entry point: the value of an integer result, or 0.
func ExitCode(v Value) int {
	switch v := v.(type) {
	case Int32:
		return int(v)
	case Int64:
		return int(v)
	}
	return 0
}
