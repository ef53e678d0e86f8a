// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package emit defines the contract between the CPM code generator and
// a target that can construct types, fields and methods and accept a
// stack-machine instruction stream for each method body.
//
// A Module is one emission session. Its use is order sensitive: define a
// type, declare its members, emit method bodies, then Finalize the type.
// Implementations need not be safe for concurrent use.
package emit // import "go.cpmlang.net/emit"

import "go.cpmlang.net/types"

// A Module is a program under construction.
type Module interface {
	// Name returns the program name given when the module was created.
	Name() string

	// DefineType begins the definition of a new type.
	DefineType(name string) (TypeBuilder, error)

	// SetEntryPoint designates the method at which execution starts.
	SetEntryPoint(m Method) error
}

// FieldAttributes describe the storage of a field.
type FieldAttributes uint8

const (
	FieldPublic FieldAttributes = 1 << iota
	FieldStatic
)

// MethodAttributes describe the visibility and dispatch of a method.
type MethodAttributes uint8

const (
	MethodPublic MethodAttributes = 1 << iota
	MethodStatic
)

// A TypeBuilder defines the members of one type.
type TypeBuilder interface {
	// Name returns the type's name.
	Name() string

	// DefineField declares a field of the given type.
	DefineField(name string, typ *types.Type, attrs FieldAttributes) (Field, error)

	// DefineMethod declares a method signature. The body is emitted
	// later through the returned builder's Code.
	DefineMethod(name string, attrs MethodAttributes, result *types.Type, params []*types.Type) (MethodBuilder, error)

	// DefineTypeInitializer returns the static initializer of the type,
	// creating it on first use. It runs once, before the entry point.
	DefineTypeInitializer() (MethodBuilder, error)

	// Finalize completes the type. No further members or code may be
	// added to a finalized type.
	Finalize() error
}

// A Field is a handle to a declared field.
type Field interface {
	Name() string
	DeclaringType() string
	Type() *types.Type
	IsStatic() bool
}

// A Method is a handle to a declared method.
type Method interface {
	Name() string
	DeclaringType() string
	Result() *types.Type
	Params() []*types.Type
	IsStatic() bool
}

// A MethodBuilder is a declared method whose body is being emitted.
type MethodBuilder interface {
	Method
	Code() CodeBuilder
}

// A Local is a handle to a method-local storage slot.
type Local interface {
	Index() int
	Type() *types.Type
}

// A CodeBuilder appends instructions to one method body.
//
// Each Emit method checks that the operand kind suits the opcode.
// Errors are sticky: once an emission fails, later calls are ignored
// and Err reports the first failure.
type CodeBuilder interface {
	// DeclareLocal allocates a new local slot of the given type.
	DeclareLocal(typ *types.Type) Local

	Emit(op Opcode)                   // operand-free instructions
	EmitInt32(op Opcode, v int32)     // ldc.i4
	EmitFloat64(op Opcode, v float64) // ldc.r8
	EmitString(op Opcode, s string)   // ldstr
	EmitIndex(op Opcode, i int)       // ldarg, starg
	EmitLocal(op Opcode, l Local)     // ldloc, stloc
	EmitField(op Opcode, f Field)     // ldsfld, stsfld
	EmitCall(op Opcode, m Method)     // call

	// Len returns the number of instructions emitted so far.
	Len() int

	// Last returns the opcode of the most recent instruction, or NOP if
	// none has been emitted.
	Last() Opcode

	// Err returns the first emission error, if any.
	Err() error
}
