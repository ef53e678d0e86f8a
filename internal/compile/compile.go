// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compile defines the in-memory program image produced by the
// CPM code generator: types, fields, methods, their byte-coded bodies and
// a constant pool.
//
// A Module implements emit.Module and builds a Program. The resulting
// Program may be disassembled, serialized with Encode and restored with
// DecodeProgram, and executed by package vm.
//
// Method bodies are sequences of instructions. Each instruction is one
// opcode byte, followed for opcodes with an argument by a varint operand
// that is an index into the relevant table: the program's constants,
// fields or methods, or the method's arguments or locals.
package compile // import "go.cpmlang.net/internal/compile"

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"go.cpmlang.net/emit"
	"go.cpmlang.net/types"
)

// Disassemble causes the assembly code for each method to be printed
// to the log as its type is finalized.
var Disassemble = false

// TypeInitializerName is the name of each type's static initializer.
const TypeInitializerName = ".cctor"

// A Program is a compiled CPM program.
//
// Programs are immutable once their module is finalized, and may be
// executed concurrently by several threads.
type Program struct {
	Name      string
	Types     []*Type
	Fields    []*Field      // all fields, indexed by LDSFLD and STSFLD operands
	Methods   []*Method     // all methods, indexed by CALL operands
	Constants []interface{} // = int32 | float64 | string
	Entry     *Method       // nil if the program has no entry point
}

// A Type is a class of a Program.
type Type struct {
	Prog    *Program
	Name    string
	Fields  []*Field
	Methods []*Method
	Init    *Method // static initializer, or nil

	finalized bool
}

// A Field is a field of a Type.
type Field struct {
	Owner  *Type
	Name   string
	Type   *types.Type
	Static bool
	Index  int // index within Program.Fields
}

// QualifiedName returns the name of the field prefixed by its type's.
func (f *Field) QualifiedName() string { return f.Owner.Name + "." + f.Name }

// A Method is a method of a Type, including its body.
type Method struct {
	Owner  *Type
	Name   string
	Static bool
	Result *types.Type   // System.Void for methods without a value
	Params []*types.Type // declared parameters, excluding the receiver
	Locals []*types.Type
	Code   []byte
	Index  int // index within Program.Methods
}

// QualifiedName returns the name of the method prefixed by its type's.
func (m *Method) QualifiedName() string { return m.Owner.Name + "." + m.Name }

// NumArgs returns the number of argument slots of the method,
// including the receiver of an instance method.
func (m *Method) NumArgs() int {
	if m.Static {
		return len(m.Params)
	}
	return len(m.Params) + 1
}

// An Insn is a decoded instruction.
type Insn struct {
	PC  int // offset of the opcode within the method's code
	Op  emit.Opcode
	Arg uint32
}

// Decode returns the instructions of a method body.
// It reports an error if the code is truncated or contains an illegal
// opcode, but does not validate operands.
func Decode(code []byte) ([]Insn, error) {
	var insns []Insn
	for pc := 0; pc < len(code); {
		insn := Insn{PC: pc, Op: emit.Opcode(code[pc])}
		if insn.Op > emit.OpcodeMax {
			return nil, fmt.Errorf("illegal opcode %d at pc %d", code[pc], pc)
		}
		pc++
		if insn.Op.HasArg() {
			arg, n := protowire.ConsumeVarint(code[pc:])
			if n < 0 {
				return nil, fmt.Errorf("truncated operand of %s at pc %d", insn.Op, insn.PC)
			}
			insn.Arg = uint32(arg)
			pc += n
		}
		insns = append(insns, insn)
	}
	return insns, nil
}

func (prog *Program) lookupType(name string) *Type {
	for _, t := range prog.Types {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Method returns the method of the named type, or nil.
func (prog *Program) Method(typeName, name string) *Method {
	if t := prog.lookupType(typeName); t != nil {
		for _, m := range t.Methods {
			if m.Name == name {
				return m
			}
		}
	}
	return nil
}
