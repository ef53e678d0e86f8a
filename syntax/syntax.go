// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package syntax provides a CPM parser and abstract syntax tree.
//
// The node set is closed: every Stmt and Expr implementation lives in
// this package, so clients (the printer, the code generator) may switch
// over node types exhaustively.
package syntax

import "strings"

// A Node is a node in a CPM syntax tree.
type Node interface {
	// Span returns the start and end position of the node.
	Span() (start, end Position)
}

// Start returns the start position of the node.
func Start(n Node) Position {
	start, _ := n.Span()
	return start
}

// End returns the end position of the node.
func End(n Node) Position {
	_, end := n.Span()
	return end
}

// A NamespaceDecl is the root of a CPM program:
// namespace Name { Classes }.
type NamespaceDecl struct {
	Namespace Position
	Name      *Ident
	Classes   []*ClassDecl
	Rbrace    Position
}

func (x *NamespaceDecl) Span() (start, end Position) {
	return x.Namespace, x.Rbrace.add("}")
}

// A ClassDecl declares a class and its members:
// class Name { Fields Methods }.
type ClassDecl struct {
	Class   Position
	Name    *Ident
	Fields  []*FieldDecl
	Methods []*MethodDecl
	Rbrace  Position
}

func (x *ClassDecl) Span() (start, end Position) {
	return x.Class, x.Rbrace.add("}")
}

// A FieldDecl declares a class field:
// [static] let Name: Type [= Init];
type FieldDecl struct {
	Let    Position // position of STATIC, if present, else LET
	Static bool
	Name   *Ident
	Type   *TypeName
	Init   Expr // may be nil
}

func (x *FieldDecl) Span() (start, end Position) {
	if x.Init != nil {
		return x.Let, End(x.Init)
	}
	return x.Let, End(x.Type)
}

// A MethodDecl declares a method:
// [static] fn Name(Params) [: Result] = Body.
type MethodDecl struct {
	Fn     Position // position of STATIC, if present, else FN
	Static bool
	Name   *Ident
	Params []*ParamDecl
	Result *TypeName // nil for a method returning nothing
	Body   Stmt
}

func (x *MethodDecl) Span() (start, end Position) {
	return x.Fn, End(x.Body)
}

// A ParamDecl declares a method parameter: Name: Type.
type ParamDecl struct {
	Name *Ident
	Type *TypeName
}

func (x *ParamDecl) Span() (start, end Position) {
	return Start(x.Name), End(x.Type)
}

// A TypeName is a dotted chain of identifiers naming a host type,
// such as System.Int32.
type TypeName struct {
	Parts []*Ident
}

func (x *TypeName) Span() (start, end Position) {
	return Start(x.Parts[0]), End(x.Parts[len(x.Parts)-1])
}

// Names returns the identifiers of the chain, in order.
func (x *TypeName) Names() []string {
	names := make([]string, len(x.Parts))
	for i, id := range x.Parts {
		names[i] = id.Name
	}
	return names
}

func (x *TypeName) String() string { return strings.Join(x.Names(), ".") }

// A Stmt is a CPM statement.
type Stmt interface {
	Node
	stmt()
}

func (*CompoundStmt) stmt() {}
func (*ExprStmt) stmt()     {}
func (*IfStmt) stmt()       {}
func (*ReturnStmt) stmt()   {}
func (*VarDecl) stmt()      {}

// A VarDecl declares a method-local variable:
// let Name: Type [= Init];
type VarDecl struct {
	Let  Position
	Name *Ident
	Type *TypeName
	Init Expr // may be nil
}

func (x *VarDecl) Span() (start, end Position) {
	if x.Init != nil {
		return x.Let, End(x.Init)
	}
	return x.Let, End(x.Type)
}

// An ExprStmt is an expression evaluated for side effects.
type ExprStmt struct {
	X Expr
}

func (x *ExprStmt) Span() (start, end Position) {
	return x.X.Span()
}

// A CompoundStmt is a brace-delimited statement list.
type CompoundStmt struct {
	Lbrace Position
	Stmts  []Stmt
	Rbrace Position
}

func (x *CompoundStmt) Span() (start, end Position) {
	return x.Lbrace, x.Rbrace.add("}")
}

// An IfStmt is a conditional:
// if (Cond) Then {else if (Cond) Then} [else Else].
type IfStmt struct {
	If      Position
	Cond    Expr
	Then    Stmt
	ElseIfs []*ElseIf
	Else    Stmt // may be nil
}

func (x *IfStmt) Span() (start, end Position) {
	switch {
	case x.Else != nil:
		end = End(x.Else)
	case len(x.ElseIfs) > 0:
		end = End(x.ElseIfs[len(x.ElseIfs)-1].Then)
	default:
		end = End(x.Then)
	}
	return x.If, end
}

// An ElseIf is one 'else if' clause of an IfStmt.
type ElseIf struct {
	Else Position
	Cond Expr
	Then Stmt
}

func (x *ElseIf) Span() (start, end Position) {
	return x.Else, End(x.Then)
}

// A ReturnStmt returns from a method.
type ReturnStmt struct {
	Return Position
	Result Expr // may be nil
}

func (x *ReturnStmt) Span() (start, end Position) {
	if x.Result == nil {
		return x.Return, x.Return.add("return")
	}
	return x.Return, End(x.Result)
}

// An Expr is a CPM expression.
type Expr interface {
	Node
	expr()
}

func (*AssignExpr) expr() {}
func (*BinaryExpr) expr() {}
func (*CallExpr) expr()   {}
func (*Ident) expr()      {}
func (*Literal) expr()    {}

// An Ident represents an identifier.
type Ident struct {
	NamePos Position
	Name    string
}

func (x *Ident) Span() (start, end Position) {
	return x.NamePos, x.NamePos.add(x.Name)
}

// A Literal represents a literal constant.
type Literal struct {
	Token    Token // = STRING | INT | FLOAT
	TokenPos Position
	Raw      string      // uninterpreted text
	Value    interface{} // = string | int32 | int64 | float64
}

func (x *Literal) Span() (start, end Position) {
	return x.TokenPos, x.TokenPos.add(x.Raw)
}

// A BinaryExpr represents an arithmetic expression: X Op Y.
type BinaryExpr struct {
	X     Expr
	OpPos Position
	Op    Token // = PLUS | MINUS | STAR | SLASH
	Y     Expr
}

func (x *BinaryExpr) Span() (start, end Position) {
	start, _ = x.X.Span()
	_, end = x.Y.Span()
	return start, end
}

// A CallExpr represents a function call expression: Fn(Args).
type CallExpr struct {
	Fn     Expr
	Lparen Position
	Args   []Expr
	Rparen Position
}

func (x *CallExpr) Span() (start, end Position) {
	start, _ = x.Fn.Span()
	return start, x.Rparen.add(")")
}

// An AssignExpr stores the value of RHS into LHS: LHS <- RHS.
type AssignExpr struct {
	LHS   Expr
	OpPos Position
	RHS   Expr
}

func (x *AssignExpr) Span() (start, end Position) {
	start, _ = x.LHS.Span()
	_, end = x.RHS.Span()
	return start, end
}
