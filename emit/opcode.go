// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emit

import (
	"fmt"

	"go.cpmlang.net/types"
)

// An Opcode is a stack-machine instruction.
type Opcode uint8

// "x DUP x x" is a "stack picture" that describes the state of the
// stack before and after execution of the instruction.
//
// OP<index> indicates an immediate operand that is an index into the
// specified table: locals, arguments, constants, fields, methods.
const (
	NOP Opcode = iota // - NOP -
	POP               // x POP -

	ADD // x y ADD z
	SUB // x y SUB z
	MUL // x y MUL z
	DIV // x y DIV z
	RET // [x] RET -

	CONV_I4 // x CONV_I4 int32
	CONV_I8 // x CONV_I8 int64
	CONV_R4 // x CONV_R4 float32
	CONV_R8 // x CONV_R8 float64

	// --- opcodes with an argument must go below this line ---

	LDC_I4 //      - LDC_I4<constant> int32
	LDC_R8 //      - LDC_R8<constant> float64
	LDSTR  //      - LDSTR<constant>  string
	LDARG  //      - LDARG<arg>       value
	STARG  //  value STARG<arg>       -
	LDLOC  //      - LDLOC<local>     value
	STLOC  //  value STLOC<local>     -
	LDSFLD //      - LDSFLD<field>    value
	STSFLD //  value STSFLD<field>    -
	CALL   // args CALL<method>     [result]

	OpcodeArgMin = LDC_I4
	OpcodeMax    = CALL
)

var opcodeNames = [...]string{
	NOP:     "nop",
	POP:     "pop",
	ADD:     "add",
	SUB:     "sub",
	MUL:     "mul",
	DIV:     "div",
	RET:     "ret",
	CONV_I4: "conv.i4",
	CONV_I8: "conv.i8",
	CONV_R4: "conv.r4",
	CONV_R8: "conv.r8",
	LDC_I4:  "ldc.i4",
	LDC_R8:  "ldc.r8",
	LDSTR:   "ldstr",
	LDARG:   "ldarg",
	STARG:   "starg",
	LDLOC:   "ldloc",
	STLOC:   "stloc",
	LDSFLD:  "ldsfld",
	STSFLD:  "stsfld",
	CALL:    "call",
}

func (op Opcode) String() string {
	if op <= OpcodeMax {
		if name := opcodeNames[op]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("illegal op (%d)", op)
}

// HasArg reports whether the opcode takes an immediate operand.
func (op Opcode) HasArg() bool { return op >= OpcodeArgMin }

// An OperandError reports an opcode emitted with the wrong kind of operand.
type OperandError struct {
	Op      Opcode
	Operand string // kind of operand supplied
}

func (e *OperandError) Error() string {
	return fmt.Sprintf("opcode %s does not take a %s operand", e.Op, e.Operand)
}

// CheckOperand returns an *OperandError if op does not take an operand
// of the given kind: "", "int32", "float64", "string", "index", "local",
// "field" or "method".
func CheckOperand(op Opcode, operand string) error {
	var want string
	switch op {
	case LDC_I4:
		want = "int32"
	case LDC_R8:
		want = "float64"
	case LDSTR:
		want = "string"
	case LDARG, STARG:
		want = "index"
	case LDLOC, STLOC:
		want = "local"
	case LDSFLD, STSFLD:
		want = "field"
	case CALL:
		want = "method"
	}
	if op > OpcodeMax || want != operand {
		if operand == "" {
			operand = "missing"
		}
		return &OperandError{Op: op, Operand: operand}
	}
	return nil
}

// ConvFor returns the conversion opcode producing a value of kind k, and
// whether one exists.
func ConvFor(k types.Kind) (Opcode, bool) {
	switch k {
	case types.Int32:
		return CONV_I4, true
	case types.Int64:
		return CONV_I8, true
	case types.Float32:
		return CONV_R4, true
	case types.Float64:
		return CONV_R8, true
	}
	return NOP, false
}
