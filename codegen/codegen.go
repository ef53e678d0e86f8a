// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package codegen lowers a CPM syntax tree to stack-machine code through
// an emit.Module.
//
// Generation is a single depth-first traversal. Each class is compiled
// in two passes: first every field and method is declared, so that
// method bodies may refer to members declared later in the class; then
// the field initializers and method bodies are generated.
//
// The first error aborts the run. Every error returned by Generate is
// an *Error whose Err field holds the typed cause.
package codegen // import "go.cpmlang.net/codegen"

import (
	"errors"

	"go.cpmlang.net/emit"
	"go.cpmlang.net/resolve"
	"go.cpmlang.net/syntax"
	"go.cpmlang.net/types"
)

// Generator options.
var (
	AllowBlockScope = false  // compound statements open a new scope for locals
	EntryPointName  = "main" // name of the implicitly static entry point method
)

// Generate compiles the namespace root into mod, resolving declared
// type names in ns.
func Generate(mod emit.Module, ns types.Namespace, root *syntax.NamespaceDecl) error {
	return NewContext(mod, ns).Generate(root)
}

// Generate compiles the namespace root.
func (c *Context) Generate(root *syntax.NamespaceDecl) error {
	if c.state != Idle {
		return &Error{Pos: root.Namespace, Err: errors.New("compilation context already used")}
	}
	c.state = DefiningNamespace
	for _, class := range root.Classes {
		if err := c.namespaceClass(class); err != nil {
			return err
		}
	}
	c.state = Finalized
	return nil
}

func (c *Context) namespaceClass(class *syntax.ClassDecl) error {
	defer c.pushLocals()()
	return c.class(class)
}

func (c *Context) class(class *syntax.ClassDecl) error {
	defer c.setState(DefiningClass)()
	if err := c.classes.Declare(class.Name.Name, class); err != nil {
		return errorAt(class.Name, err)
	}
	tb, err := c.mod.DefineType(class.Name.Name)
	if err != nil {
		return errorAt(class.Name, err)
	}
	defer c.pushType(tb)()
	defer c.pushMembers()()

	c.state = DeclaringMembers
	for _, field := range class.Fields {
		if err := c.declareField(field); err != nil {
			return err
		}
	}
	for _, method := range class.Methods {
		if err := c.declareMethod(method); err != nil {
			return err
		}
	}

	c.state = GeneratingMethodBodies
	if err := c.typeInitializer(class); err != nil {
		return err
	}
	for _, method := range class.Methods {
		if err := c.methodBody(method); err != nil {
			return err
		}
	}

	if err := tb.Finalize(); err != nil {
		return errorAt(class.Rbrace, err)
	}
	return nil
}

func (c *Context) declareField(field *syntax.FieldDecl) error {
	typ, err := c.resolveTypeName(field.Type)
	if err != nil {
		return err
	}
	if typ.IsVoid() {
		return errorAt(field.Type, &VoidValueError{Expr: "field " + field.Name.Name})
	}
	if err := c.checkUnique(field.Name); err != nil {
		return err
	}
	attrs := emit.FieldPublic
	if field.Static {
		attrs |= emit.FieldStatic
	}
	f, err := c.typ.DefineField(field.Name.Name, typ, attrs)
	if err != nil {
		return errorAt(field.Name, err)
	}
	if err := c.fields.Declare(field.Name.Name, f); err != nil {
		return errorAt(field.Name, err)
	}
	if err := c.locals.Declare(field.Name.Name, &FieldBinding{Decl: field, Field: f}); err != nil {
		return errorAt(field.Name, err)
	}
	return nil
}

func (c *Context) declareMethod(method *syntax.MethodDecl) error {
	result := c.void
	if method.Result != nil {
		var err error
		if result, err = c.resolveTypeName(method.Result); err != nil {
			return err
		}
	}
	params := make([]*types.Type, len(method.Params))
	for i, param := range method.Params {
		typ, err := c.resolveTypeName(param.Type)
		if err != nil {
			return err
		}
		if typ.IsVoid() {
			return errorAt(param.Type, &VoidValueError{Expr: "parameter " + param.Name.Name})
		}
		params[i] = typ
	}

	if err := c.checkUnique(method.Name); err != nil {
		return err
	}
	name := method.Name.Name
	isEntry := name == EntryPointName
	attrs := emit.MethodPublic
	if method.Static || isEntry {
		attrs |= emit.MethodStatic
	}
	mb, err := c.typ.DefineMethod(name, attrs, result, params)
	if err != nil {
		return errorAt(method.Name, err)
	}
	if err := c.methods.Declare(name, mb); err != nil {
		return errorAt(method.Name, err)
	}
	if err := c.locals.Declare(name, &MethodBinding{Decl: method, Method: mb}); err != nil {
		return errorAt(method.Name, err)
	}
	if isEntry {
		if err := c.mod.SetEntryPoint(mb); err != nil {
			return errorAt(method.Name, err)
		}
		c.entry = mb
	}
	return nil
}

// checkUnique reports a member name already declared in the class.
func (c *Context) checkUnique(id *syntax.Ident) error {
	if _, ok := c.locals.LookupLocal(id.Name); ok {
		return errorAt(id, &resolve.DuplicateDeclarationError{Name: id.Name})
	}
	return nil
}

// typeInitializer compiles the initializers of the class's static fields
// into the type initializer, in declaration order.
func (c *Context) typeInitializer(class *syntax.ClassDecl) error {
	var mb emit.MethodBuilder
	for _, field := range class.Fields {
		if field.Init == nil {
			continue
		}
		if !field.Static {
			return errorAt(field.Init, &NotImplementedError{What: "initializer of instance field " + field.Name.Name})
		}
		if mb == nil {
			var err error
			if mb, err = c.typ.DefineTypeInitializer(); err != nil {
				return errorAt(field.Name, err)
			}
		}
		f, err := c.fields.Lookup(field.Name.Name)
		if err != nil {
			return errorAt(field.Name, err)
		}
		if err := c.initField(mb, f, field.Init); err != nil {
			return err
		}
	}
	if mb != nil {
		mb.Code().Emit(emit.RET)
		if err := mb.Code().Err(); err != nil {
			return errorAt(class.Name, err)
		}
	}
	return nil
}

func (c *Context) initField(mb emit.MethodBuilder, f emit.Field, init syntax.Expr) error {
	defer c.pushMethod(mb)()
	defer c.pushLocals()()
	if err := c.valueAs(f.Type(), init, "initialization"); err != nil {
		return err
	}
	c.code().EmitField(emit.STSFLD, f)
	return nil
}

func (c *Context) methodBody(method *syntax.MethodDecl) error {
	mb, err := c.methods.Lookup(method.Name.Name)
	if err != nil {
		return errorAt(method.Name, err)
	}
	defer c.pushMethod(mb)()
	defer c.pushLocals()()

	for i, param := range method.Params {
		b := &ParamBinding{Name: param.Name.Name, Type: mb.Params()[i], Index: i}
		if err := c.locals.Declare(param.Name.Name, b); err != nil {
			return errorAt(param.Name, err)
		}
	}
	if err := c.stmt(method.Body); err != nil {
		return err
	}

	code := c.code()
	if code.Last() != emit.RET {
		if !mb.Result().IsVoid() {
			return errorAt(syntax.End(method.Body), &MissingReturnError{Method: method.Name.Name})
		}
		code.Emit(emit.RET)
	}
	if err := code.Err(); err != nil {
		return errorAt(method.Name, err)
	}
	return nil
}

func (c *Context) stmt(stmt syntax.Stmt) error {
	switch stmt := stmt.(type) {
	case *syntax.CompoundStmt:
		if AllowBlockScope {
			defer c.pushLocals()()
		}
		for _, s := range stmt.Stmts {
			if err := c.stmt(s); err != nil {
				return err
			}
		}

	case *syntax.VarDecl:
		typ, err := c.resolveTypeName(stmt.Type)
		if err != nil {
			return err
		}
		if typ.IsVoid() {
			return errorAt(stmt.Type, &VoidValueError{Expr: "variable " + stmt.Name.Name})
		}
		local := c.code().DeclareLocal(typ)
		if err := c.locals.Declare(stmt.Name.Name, &LocalBinding{Name: stmt.Name.Name, Local: local}); err != nil {
			return errorAt(stmt.Name, err)
		}
		if stmt.Init != nil {
			if err := c.valueAs(typ, stmt.Init, "initialization"); err != nil {
				return err
			}
			c.code().EmitLocal(emit.STLOC, local)
		}

	case *syntax.ExprStmt:
		typ, err := c.typeOf(stmt.X)
		if err != nil {
			return err
		}
		if err := c.expr(stmt.X); err != nil {
			return err
		}
		if !typ.IsVoid() {
			c.code().Emit(emit.POP)
		}

	case *syntax.ReturnStmt:
		result := c.method.Result()
		if stmt.Result == nil {
			if !result.IsVoid() {
				return errorAt(stmt, &types.IncompatibleTypesError{X: result, Y: c.void, Op: "return"})
			}
		} else {
			if result.IsVoid() {
				typ, err := c.typeOf(stmt.Result)
				if err != nil {
					return err
				}
				return errorAt(stmt.Result, &types.IncompatibleTypesError{X: result, Y: typ, Op: "return"})
			}
			if err := c.valueAs(result, stmt.Result, "return"); err != nil {
				return err
			}
		}
		c.code().Emit(emit.RET)

	case *syntax.IfStmt:
		return errorAt(stmt, &NotImplementedError{What: "if statement"})

	default:
		panic("unexpected statement")
	}
	return nil
}

// valueAs generates e as a value stored to a location of type dst,
// converting numeric values as needed.
func (c *Context) valueAs(dst *types.Type, e syntax.Expr, op string) error {
	src, err := c.value(e)
	if err != nil {
		return err
	}
	return c.convert(e, dst, src, op)
}

// value generates e, which must produce a value, and returns its type.
func (c *Context) value(e syntax.Expr) (*types.Type, error) {
	typ, err := c.typeOf(e)
	if err != nil {
		return nil, err
	}
	if typ.IsVoid() {
		return nil, errorAt(e, &VoidValueError{Expr: describe(e)})
	}
	if err := c.expr(e); err != nil {
		return nil, err
	}
	return typ, nil
}

// convert emits the conversion of the value on top of the stack from src
// to dst, or reports that none exists.
func (c *Context) convert(e syntax.Expr, dst, src *types.Type, op string) error {
	if !types.ImplicitlyConvertible(dst, src) {
		return errorAt(e, &types.IncompatibleTypesError{X: dst, Y: src, Op: op})
	}
	if dst.Kind() != src.Kind() {
		if conv, ok := emit.ConvFor(dst.Kind()); ok {
			c.code().Emit(conv)
		}
	}
	return nil
}

var arithmetic = map[syntax.Token]emit.Opcode{
	syntax.PLUS:  emit.ADD,
	syntax.MINUS: emit.SUB,
	syntax.STAR:  emit.MUL,
	syntax.SLASH: emit.DIV,
}

// expr generates the code of an expression.
func (c *Context) expr(e syntax.Expr) error {
	switch e := e.(type) {
	case *syntax.Literal:
		code := c.code()
		switch v := e.Value.(type) {
		case int32:
			code.EmitInt32(emit.LDC_I4, v)
		case float64:
			code.EmitFloat64(emit.LDC_R8, v)
		case string:
			code.EmitString(emit.LDSTR, v)
		default:
			return errorAt(e, &UnsupportedLiteralError{Raw: e.Raw, Value: e.Value})
		}

	case *syntax.Ident:
		b, err := c.locals.Lookup(e.Name)
		if err != nil {
			return errorAt(e, err)
		}
		return c.access(e, b)

	case *syntax.BinaryExpr:
		if _, err := c.typeOf(e); err != nil {
			return err
		}
		if _, err := c.value(e.X); err != nil {
			return err
		}
		if _, err := c.value(e.Y); err != nil {
			return err
		}
		c.code().Emit(arithmetic[e.Op])

	case *syntax.AssignExpr:
		lv, err := c.asLValue(e.LHS)
		if err != nil {
			return err
		}
		dst, err := bindingType(lv)
		if err != nil {
			return errorAt(e.LHS, err)
		}
		if err := c.valueAs(dst, e.RHS, "assignment"); err != nil {
			return err
		}
		return c.access(e.LHS, lv)

	case *syntax.CallExpr:
		m, err := c.callee(e)
		if err != nil {
			return err
		}
		params := m.Params()
		if len(e.Args) != len(params) {
			return errorAt(e.Lparen, &ArgumentCountError{Method: m.Name(), Want: len(params), Got: len(e.Args)})
		}
		if !m.IsStatic() {
			if c.method.IsStatic() {
				return errorAt(e, &NotImplementedError{What: "call of instance method " + m.Name() + " from static context"})
			}
			c.code().EmitIndex(emit.LDARG, 0)
		}
		for i, arg := range e.Args {
			if err := c.valueAs(params[i], arg, "argument"); err != nil {
				return err
			}
		}
		c.code().EmitCall(emit.CALL, m)

	default:
		panic("unexpected expression")
	}
	return nil
}

// access emits a load or store of b, according to its mode.
func (c *Context) access(n syntax.Node, b Binding) error {
	code := c.code()
	switch b := b.(type) {
	case *FieldBinding:
		if !b.Field.IsStatic() {
			return errorAt(n, &NotImplementedError{What: "access to instance member " + b.Field.Name()})
		}
		if b.Mode == Store {
			code.EmitField(emit.STSFLD, b.Field)
		} else {
			code.EmitField(emit.LDSFLD, b.Field)
		}

	case *ParamBinding:
		index := b.Index
		if !c.method.IsStatic() {
			index++ // receiver
		}
		if b.Mode == Store {
			code.EmitIndex(emit.STARG, index)
		} else {
			code.EmitIndex(emit.LDARG, index)
		}

	case *LocalBinding:
		if b.Mode == Store {
			code.EmitLocal(emit.STLOC, b.Local)
		} else {
			code.EmitLocal(emit.LDLOC, b.Local)
		}

	case *MethodBinding:
		return errorAt(n, &NotImplementedError{What: "method value " + b.Method.Name()})
	}
	return nil
}

// callee returns the declared handle of the method named by a call.
func (c *Context) callee(call *syntax.CallExpr) (emit.Method, error) {
	id, ok := call.Fn.(*syntax.Ident)
	if !ok {
		return nil, errorAt(call.Fn, &NotImplementedError{What: "call of " + describe(call.Fn)})
	}
	b, err := c.locals.Lookup(id.Name)
	if err != nil {
		return nil, errorAt(id, err)
	}
	if _, ok := b.(*MethodBinding); !ok {
		return nil, errorAt(id, &NotAMethodError{Name: id.Name})
	}
	m, err := c.methods.Lookup(id.Name)
	if err != nil {
		return nil, errorAt(id, err)
	}
	return m, nil
}

// typeOf returns the static type of an expression without generating it.
func (c *Context) typeOf(e syntax.Expr) (*types.Type, error) {
	switch e := e.(type) {
	case *syntax.Literal:
		var name string
		switch e.Value.(type) {
		case int32:
			name = types.Int32Name
		case float64:
			name = types.DoubleName
		case string:
			name = types.StringName
		default:
			return nil, errorAt(e, &UnsupportedLiteralError{Raw: e.Raw, Value: e.Value})
		}
		return types.MustLookup(c.ns, name), nil

	case *syntax.Ident:
		b, err := c.locals.Lookup(e.Name)
		if err != nil {
			return nil, errorAt(e, err)
		}
		typ, err := bindingType(b)
		if err != nil {
			return nil, errorAt(e, err)
		}
		return typ, nil

	case *syntax.BinaryExpr:
		x, err := c.typeOf(e.X)
		if err != nil {
			return nil, err
		}
		y, err := c.typeOf(e.Y)
		if err != nil {
			return nil, err
		}
		if x.IsVoid() {
			return nil, errorAt(e.X, &VoidValueError{Expr: describe(e.X)})
		}
		if y.IsVoid() {
			return nil, errorAt(e.Y, &VoidValueError{Expr: describe(e.Y)})
		}
		typ, err := types.CommonType(c.ns, x, y)
		if err != nil {
			if incompat, ok := err.(*types.IncompatibleTypesError); ok {
				incompat.Op = e.Op.String()
			}
			return nil, errorAt(e, err)
		}
		if !typ.IsNumeric() {
			return nil, errorAt(e, &types.IncompatibleTypesError{X: typ, Op: e.Op.String()})
		}
		return typ, nil

	case *syntax.AssignExpr:
		return c.void, nil

	case *syntax.CallExpr:
		m, err := c.callee(e)
		if err != nil {
			return nil, err
		}
		return m.Result(), nil
	}
	panic("unexpected expression")
}

// IsLValue reports whether e denotes a location that may be assigned.
func (c *Context) IsLValue(e syntax.Expr) bool {
	_, err := c.asLValue(e)
	return err == nil
}

// asLValue returns the store view of the location e denotes.
func (c *Context) asLValue(e syntax.Expr) (Binding, error) {
	switch e := e.(type) {
	case *syntax.Ident:
		b, err := c.locals.Lookup(e.Name)
		if err != nil {
			return nil, errorAt(e, err)
		}
		lv, ok := b.AsLValue()
		if !ok {
			return nil, errorAt(e, &InvalidLValueError{Target: describe(e)})
		}
		return lv, nil
	case *syntax.Literal, *syntax.BinaryExpr, *syntax.CallExpr, *syntax.AssignExpr:
		return nil, errorAt(e, &InvalidLValueError{Target: describe(e)})
	}
	panic("unexpected expression")
}

func (c *Context) resolveTypeName(name *syntax.TypeName) (*types.Type, error) {
	typ, err := types.Resolve(c.ns, name.Names())
	if err != nil {
		return nil, errorAt(name, err)
	}
	return typ, nil
}

// describe returns a short description of an expression for use in
// error messages.
func describe(e syntax.Expr) string {
	switch e := e.(type) {
	case *syntax.Ident:
		return e.Name
	case *syntax.Literal:
		return "literal " + e.Raw
	case *syntax.BinaryExpr:
		return e.Op.String() + " expression"
	case *syntax.CallExpr:
		if id, ok := e.Fn.(*syntax.Ident); ok {
			return "call of " + id.Name
		}
		return "call expression"
	case *syntax.AssignExpr:
		return "assignment"
	}
	return "expression"
}

// errorAt wraps err with the start position of x, which is a syntax
// node or a position. Errors that already carry a position are returned
// unchanged.
func errorAt(x interface{}, err error) error {
	if e, ok := err.(*Error); ok {
		return e
	}
	var pos syntax.Position
	switch x := x.(type) {
	case syntax.Position:
		pos = x
	case syntax.Node:
		pos = syntax.Start(x)
	}
	return &Error{Pos: pos, Err: err}
}
