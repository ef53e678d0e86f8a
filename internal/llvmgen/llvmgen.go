// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package llvmgen implements the emitter interface by translating
// instructions to LLVM IR.
//
// Each type becomes a set of functions and globals named by qualified
// member name: a static field x of type Program is the global
// @Program.x, and its methods are functions such as @Program.main.
// The evaluation stack of the instruction set exists only at
// translation time; each instruction's operands are the SSA values
// produced by earlier instructions.
//
// Once a program with an entry point is complete, the module contains a
// C-style main function that runs the type initializers in definition
// order, calls the entry point, and returns its integer result as the
// exit status.
package llvmgen // import "go.cpmlang.net/internal/llvmgen"

import (
	"fmt"
	"io"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"go.cpmlang.net/emit"
	cpmtypes "go.cpmlang.net/types"
)

// A Module builds an LLVM module. It implements emit.Module.
type Module struct {
	name    string
	m       *ir.Module
	types   []*typeBuilder
	entry   *methodBuilder
	strings map[string]constant.Constant
	main    *ir.Func
}

var _ emit.Module = (*Module)(nil)

// NewModule returns a module that builds an LLVM module of the given name.
func NewModule(name string) *Module {
	m := ir.NewModule()
	m.SourceFilename = name
	return &Module{
		name:    name,
		m:       m,
		strings: make(map[string]constant.Constant),
	}
}

func (mod *Module) Name() string { return mod.name }

// A ModuleError reports a misuse of the emitter contract or an
// instruction sequence that has no LLVM translation.
type ModuleError struct {
	Op  string
	Msg string
}

func (e *ModuleError) Error() string { return e.Op + ": " + e.Msg }

func (mod *Module) DefineType(name string) (emit.TypeBuilder, error) {
	for _, tb := range mod.types {
		if tb.name == name {
			return nil, &ModuleError{"define type", fmt.Sprintf("type %s already defined", name)}
		}
	}
	tb := &typeBuilder{mod: mod, name: name}
	mod.types = append(mod.types, tb)
	return tb, nil
}

func (mod *Module) SetEntryPoint(m emit.Method) error {
	mb, ok := m.(*methodBuilder)
	if !ok || mb.owner.mod != mod {
		return &ModuleError{"set entry point", fmt.Sprintf("method %s does not belong to module %s", m.Name(), mod.name)}
	}
	if !mb.static {
		return &ModuleError{"set entry point", fmt.Sprintf("method %s is not static", m.Name())}
	}
	mod.entry = mb
	return nil
}

// IR returns the completed LLVM module. All types must be finalized.
// If an entry point was set, the module gains a main function the first
// time IR is called.
func (mod *Module) IR() (*ir.Module, error) {
	for _, tb := range mod.types {
		if !tb.finalized {
			return nil, &ModuleError{"generate module", fmt.Sprintf("type %s is not finalized", tb.name)}
		}
	}
	if mod.entry != nil && mod.main == nil {
		mod.main = mod.m.NewFunc("main", types.I32)
		b := mod.main.NewBlock("entry")
		for _, tb := range mod.types {
			if tb.init != nil {
				b.NewCall(tb.init.fn)
			}
		}
		result := b.NewCall(mod.entry.fn)
		switch t := mod.entry.fn.Sig.RetType.(type) {
		case *types.IntType:
			if t.BitSize > 32 {
				b.NewRet(b.NewTrunc(result, types.I32))
			} else if t.BitSize < 32 {
				b.NewRet(b.NewSExt(result, types.I32))
			} else {
				b.NewRet(result)
			}
		default:
			b.NewRet(constant.NewInt(types.I32, 0))
		}
	}
	return mod.m, nil
}

// Write writes the textual LLVM IR of the completed module to w.
func (mod *Module) Write(w io.Writer) error {
	m, err := mod.IR()
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, m.String())
	return err
}

// stringConstant returns a pointer to the first byte of a NUL-terminated
// global copy of s. Identical strings share a global.
func (mod *Module) stringConstant(s string) constant.Constant {
	if ptr, ok := mod.strings[s]; ok {
		return ptr
	}
	data := constant.NewCharArrayFromString(s + "\x00")
	g := mod.m.NewGlobalDef(fmt.Sprintf("str.%d", len(mod.strings)), data)
	g.Immutable = true
	zero := constant.NewInt(types.I64, 0)
	ptr := constant.NewGetElementPtr(data.Typ, g, zero, zero)
	mod.strings[s] = ptr
	return ptr
}

// irType returns the LLVM type of values of a host type. Reference
// types are represented as untyped pointers.
func irType(t *cpmtypes.Type) types.Type {
	switch t.Kind() {
	case cpmtypes.Void:
		return types.Void
	case cpmtypes.Boolean:
		return types.I1
	case cpmtypes.Int32:
		return types.I32
	case cpmtypes.Int64:
		return types.I64
	case cpmtypes.Float32:
		return types.Float
	case cpmtypes.Float64:
		return types.Double
	}
	return types.I8Ptr
}

// zero returns the initial value of a global of the given type.
func zero(t types.Type) constant.Constant {
	switch t := t.(type) {
	case *types.IntType:
		return constant.NewInt(t, 0)
	case *types.FloatType:
		return constant.NewFloat(t, 0)
	case *types.PointerType:
		return constant.NewNull(t)
	}
	return constant.NewZeroInitializer(t)
}

type typeBuilder struct {
	mod       *Module
	name      string
	fields    []*field
	methods   []*methodBuilder
	init      *methodBuilder
	finalized bool
}

func (tb *typeBuilder) Name() string { return tb.name }

func (tb *typeBuilder) check(op string) error {
	if tb.finalized {
		return &ModuleError{op, fmt.Sprintf("type %s is finalized", tb.name)}
	}
	return nil
}

func (tb *typeBuilder) DefineField(name string, typ *cpmtypes.Type, attrs emit.FieldAttributes) (emit.Field, error) {
	if err := tb.check("define field"); err != nil {
		return nil, err
	}
	for _, f := range tb.fields {
		if f.name == name {
			return nil, &ModuleError{"define field", fmt.Sprintf("field %s.%s already defined", tb.name, name)}
		}
	}
	f := &field{owner: tb, name: name, typ: typ, static: attrs&emit.FieldStatic != 0}
	if f.static {
		f.global = tb.mod.m.NewGlobalDef(tb.name+"."+name, zero(irType(typ)))
	}
	tb.fields = append(tb.fields, f)
	return f, nil
}

func (tb *typeBuilder) DefineMethod(name string, attrs emit.MethodAttributes, result *cpmtypes.Type, params []*cpmtypes.Type) (emit.MethodBuilder, error) {
	if err := tb.check("define method"); err != nil {
		return nil, err
	}
	for _, m := range tb.methods {
		if m.name == name {
			return nil, &ModuleError{"define method", fmt.Sprintf("method %s.%s already defined", tb.name, name)}
		}
	}
	mb := tb.newMethod(name, attrs&emit.MethodStatic != 0, result, params)
	tb.methods = append(tb.methods, mb)
	return mb, nil
}

func (tb *typeBuilder) DefineTypeInitializer() (emit.MethodBuilder, error) {
	if err := tb.check("define type initializer"); err != nil {
		return nil, err
	}
	if tb.init == nil {
		void := cpmtypes.MustLookup(cpmtypes.System(), cpmtypes.VoidName)
		tb.init = tb.newMethod(".cctor", true, void, nil)
	}
	return tb.init, nil
}

// newMethod declares the function of a method. Its entry block holds a
// stack slot for each argument; code is emitted into the body block.
func (tb *typeBuilder) newMethod(name string, static bool, result *cpmtypes.Type, params []*cpmtypes.Type) *methodBuilder {
	mb := &methodBuilder{
		owner:  tb,
		name:   name,
		static: static,
		result: result,
		params: append([]*cpmtypes.Type(nil), params...),
	}
	var irParams []*ir.Param
	if !static {
		irParams = append(irParams, ir.NewParam("this", types.I8Ptr))
	}
	for i, p := range params {
		irParams = append(irParams, ir.NewParam(fmt.Sprintf("a%d", i), irType(p)))
	}
	mb.fn = tb.mod.m.NewFunc(tb.name+"."+name, irType(result), irParams...)
	mb.entry = mb.fn.NewBlock("entry")
	for i, p := range mb.fn.Params {
		slot := mb.alloca(p.Typ, fmt.Sprintf("arg%d", i))
		mb.entry.NewStore(p, slot)
		mb.args = append(mb.args, slot)
	}
	mb.code = &codeBuilder{mb: mb, block: mb.fn.NewBlock("body")}
	return mb
}

func (tb *typeBuilder) Finalize() error {
	if err := tb.check("finalize"); err != nil {
		return err
	}
	all := tb.methods
	if tb.init != nil {
		all = append([]*methodBuilder{tb.init}, all...)
	}
	for _, mb := range all {
		if err := mb.code.finish(); err != nil {
			return err
		}
	}
	tb.finalized = true
	return nil
}

type field struct {
	owner  *typeBuilder
	name   string
	typ    *cpmtypes.Type
	static bool
	global *ir.Global // nil for instance fields
}

func (f *field) Name() string          { return f.name }
func (f *field) DeclaringType() string { return f.owner.name }
func (f *field) Type() *cpmtypes.Type  { return f.typ }
func (f *field) IsStatic() bool        { return f.static }

type methodBuilder struct {
	owner  *typeBuilder
	name   string
	static bool
	result *cpmtypes.Type
	params []*cpmtypes.Type

	fn     *ir.Func
	entry  *ir.Block
	args   []*ir.InstAlloca
	locals []*local
	code   *codeBuilder
}

func (mb *methodBuilder) Name() string             { return mb.name }
func (mb *methodBuilder) DeclaringType() string    { return mb.owner.name }
func (mb *methodBuilder) Result() *cpmtypes.Type   { return mb.result }
func (mb *methodBuilder) Params() []*cpmtypes.Type { return mb.params }
func (mb *methodBuilder) IsStatic() bool           { return mb.static }
func (mb *methodBuilder) Code() emit.CodeBuilder   { return mb.code }

// alloca adds a named stack slot to the entry block.
func (mb *methodBuilder) alloca(t types.Type, name string) *ir.InstAlloca {
	slot := mb.entry.NewAlloca(t)
	slot.SetName(name)
	return slot
}

type local struct {
	mb    *methodBuilder
	index int
	typ   *cpmtypes.Type
	slot  *ir.InstAlloca
}

func (l *local) Index() int           { return l.index }
func (l *local) Type() *cpmtypes.Type { return l.typ }
