// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import (
	"fmt"
	"log"

	"google.golang.org/protobuf/encoding/protowire"

	"go.cpmlang.net/emit"
	"go.cpmlang.net/types"
)

// A Module builds a Program. It implements emit.Module.
type Module struct {
	prog      *Program
	constants map[interface{}]uint32
}

var _ emit.Module = (*Module)(nil)

// NewModule returns a module that builds a program of the given name.
func NewModule(name string) *Module {
	return &Module{
		prog:      &Program{Name: name},
		constants: make(map[interface{}]uint32),
	}
}

// Name returns the name of the program under construction.
func (mod *Module) Name() string { return mod.prog.Name }

// Program returns the program under construction.
func (mod *Module) Program() *Program { return mod.prog }

// A ModuleError reports a misuse of the emitter contract.
type ModuleError struct {
	Op  string
	Msg string
}

func (e *ModuleError) Error() string { return e.Op + ": " + e.Msg }

func (mod *Module) DefineType(name string) (emit.TypeBuilder, error) {
	if mod.prog.lookupType(name) != nil {
		return nil, &ModuleError{"define type", fmt.Sprintf("type %s already defined", name)}
	}
	t := &Type{Prog: mod.prog, Name: name}
	mod.prog.Types = append(mod.prog.Types, t)
	return &typeBuilder{mod: mod, t: t}, nil
}

func (mod *Module) SetEntryPoint(m emit.Method) error {
	method, ok := m.(methodHandle)
	if !ok || method.method().Owner.Prog != mod.prog {
		return &ModuleError{"set entry point", fmt.Sprintf("method %s does not belong to program %s", m.Name(), mod.prog.Name)}
	}
	if !method.method().Static {
		return &ModuleError{"set entry point", fmt.Sprintf("method %s is not static", m.Name())}
	}
	mod.prog.Entry = method.method()
	return nil
}

// constantIndex returns the index of the specified constant within
// the program's constant pool, adding it if necessary.
func (mod *Module) constantIndex(v interface{}) uint32 {
	index, ok := mod.constants[v]
	if !ok {
		index = uint32(len(mod.prog.Constants))
		mod.constants[v] = index
		mod.prog.Constants = append(mod.prog.Constants, v)
	}
	return index
}

type typeBuilder struct {
	mod  *Module
	t    *Type
	init *methodBuilder
}

func (tb *typeBuilder) Name() string { return tb.t.Name }

func (tb *typeBuilder) check(op string) error {
	if tb.t.finalized {
		return &ModuleError{op, fmt.Sprintf("type %s is finalized", tb.t.Name)}
	}
	return nil
}

func (tb *typeBuilder) DefineField(name string, typ *types.Type, attrs emit.FieldAttributes) (emit.Field, error) {
	if err := tb.check("define field"); err != nil {
		return nil, err
	}
	for _, f := range tb.t.Fields {
		if f.Name == name {
			return nil, &ModuleError{"define field", fmt.Sprintf("field %s.%s already defined", tb.t.Name, name)}
		}
	}
	prog := tb.t.Prog
	f := &Field{
		Owner:  tb.t,
		Name:   name,
		Type:   typ,
		Static: attrs&emit.FieldStatic != 0,
		Index:  len(prog.Fields),
	}
	prog.Fields = append(prog.Fields, f)
	tb.t.Fields = append(tb.t.Fields, f)
	return fieldRef{f}, nil
}

func (tb *typeBuilder) DefineMethod(name string, attrs emit.MethodAttributes, result *types.Type, params []*types.Type) (emit.MethodBuilder, error) {
	if err := tb.check("define method"); err != nil {
		return nil, err
	}
	for _, m := range tb.t.Methods {
		if m.Name == name {
			return nil, &ModuleError{"define method", fmt.Sprintf("method %s.%s already defined", tb.t.Name, name)}
		}
	}
	m := tb.newMethod(name, attrs&emit.MethodStatic != 0, result, params)
	tb.t.Methods = append(tb.t.Methods, m)
	return &methodBuilder{methodRef{m}, &codeBuilder{mod: tb.mod, m: m}}, nil
}

func (tb *typeBuilder) DefineTypeInitializer() (emit.MethodBuilder, error) {
	if err := tb.check("define type initializer"); err != nil {
		return nil, err
	}
	if tb.init == nil {
		void := types.MustLookup(types.System(), types.VoidName)
		tb.t.Init = tb.newMethod(TypeInitializerName, true, void, nil)
		tb.init = &methodBuilder{methodRef{tb.t.Init}, &codeBuilder{mod: tb.mod, m: tb.t.Init}}
	}
	return tb.init, nil
}

func (tb *typeBuilder) newMethod(name string, static bool, result *types.Type, params []*types.Type) *Method {
	prog := tb.t.Prog
	m := &Method{
		Owner:  tb.t,
		Name:   name,
		Static: static,
		Result: result,
		Params: append([]*types.Type(nil), params...),
		Index:  len(prog.Methods),
	}
	prog.Methods = append(prog.Methods, m)
	return m
}

func (tb *typeBuilder) Finalize() error {
	if err := tb.check("finalize"); err != nil {
		return err
	}
	tb.t.finalized = true
	if Disassemble {
		if tb.t.Init != nil {
			log.Printf("%s: %s", tb.t.Init.QualifiedName(), DisassembleMethod(tb.t.Init))
		}
		for _, m := range tb.t.Methods {
			log.Printf("%s: %s", m.QualifiedName(), DisassembleMethod(m))
		}
	}
	return nil
}

// Handles returned to the code generator.

type fieldHandle interface {
	emit.Field
	field() *Field
}

type methodHandle interface {
	emit.Method
	method() *Method
}

type fieldRef struct{ f *Field }

func (r fieldRef) field() *Field         { return r.f }
func (r fieldRef) Name() string          { return r.f.Name }
func (r fieldRef) DeclaringType() string { return r.f.Owner.Name }
func (r fieldRef) Type() *types.Type     { return r.f.Type }
func (r fieldRef) IsStatic() bool        { return r.f.Static }

type methodRef struct{ m *Method }

func (r methodRef) method() *Method       { return r.m }
func (r methodRef) Name() string          { return r.m.Name }
func (r methodRef) DeclaringType() string { return r.m.Owner.Name }
func (r methodRef) Result() *types.Type   { return r.m.Result }
func (r methodRef) Params() []*types.Type { return r.m.Params }
func (r methodRef) IsStatic() bool        { return r.m.Static }

type methodBuilder struct {
	methodRef
	code *codeBuilder
}

func (mb *methodBuilder) Code() emit.CodeBuilder { return mb.code }

type localRef struct {
	m     *Method
	index int
}

func (l localRef) Index() int        { return l.index }
func (l localRef) Type() *types.Type { return l.m.Locals[l.index] }

type codeBuilder struct {
	mod  *Module
	m    *Method
	n    int
	last emit.Opcode
	err  error
}

func (c *codeBuilder) DeclareLocal(typ *types.Type) emit.Local {
	c.m.Locals = append(c.m.Locals, typ)
	return localRef{c.m, len(c.m.Locals) - 1}
}

func (c *codeBuilder) Len() int          { return c.n }
func (c *codeBuilder) Last() emit.Opcode { return c.last }
func (c *codeBuilder) Err() error        { return c.err }

func (c *codeBuilder) fail(op emit.Opcode, format string, args ...interface{}) {
	if c.err == nil {
		c.err = &ModuleError{"emit " + op.String(), fmt.Sprintf(format, args...)}
	}
}

// emit appends an instruction after checking the operand kind and the
// state of the enclosing type.
func (c *codeBuilder) emit(op emit.Opcode, operand string, arg uint32) {
	if c.err != nil {
		return
	}
	if c.m.Owner.finalized {
		c.fail(op, "type %s is finalized", c.m.Owner.Name)
		return
	}
	if err := emit.CheckOperand(op, operand); err != nil {
		c.err = err
		return
	}
	c.m.Code = append(c.m.Code, byte(op))
	if op.HasArg() {
		c.m.Code = protowire.AppendVarint(c.m.Code, uint64(arg))
	}
	c.n++
	c.last = op
}

func (c *codeBuilder) Emit(op emit.Opcode) { c.emit(op, "", 0) }

func (c *codeBuilder) EmitInt32(op emit.Opcode, v int32) {
	c.emit(op, "int32", c.mod.constantIndex(v))
}

func (c *codeBuilder) EmitFloat64(op emit.Opcode, v float64) {
	c.emit(op, "float64", c.mod.constantIndex(v))
}

func (c *codeBuilder) EmitString(op emit.Opcode, s string) {
	c.emit(op, "string", c.mod.constantIndex(s))
}

func (c *codeBuilder) EmitIndex(op emit.Opcode, i int) {
	if i < 0 || i >= c.m.NumArgs() {
		c.fail(op, "argument index %d out of range for %s", i, c.m.QualifiedName())
		return
	}
	c.emit(op, "index", uint32(i))
}

func (c *codeBuilder) EmitLocal(op emit.Opcode, l emit.Local) {
	ref, ok := l.(localRef)
	if !ok || ref.m != c.m {
		c.fail(op, "local does not belong to %s", c.m.QualifiedName())
		return
	}
	c.emit(op, "local", uint32(ref.index))
}

func (c *codeBuilder) EmitField(op emit.Opcode, f emit.Field) {
	ref, ok := f.(fieldHandle)
	if !ok || ref.field().Owner.Prog != c.mod.prog {
		c.fail(op, "field %s does not belong to program %s", f.Name(), c.mod.prog.Name)
		return
	}
	c.emit(op, "field", uint32(ref.field().Index))
}

func (c *codeBuilder) EmitCall(op emit.Opcode, m emit.Method) {
	ref, ok := m.(methodHandle)
	if !ok || ref.method().Owner.Prog != c.mod.prog {
		c.fail(op, "method %s does not belong to program %s", m.Name(), c.mod.prog.Name)
		return
	}
	c.emit(op, "method", uint32(ref.method().Index))
}
