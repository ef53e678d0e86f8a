// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

// Walk traverses a syntax tree in depth-first order.
// It starts by calling f(n); n must not be nil.
// If f returns true, Walk calls itself
// recursively for each non-nil child of n.
// Walk then calls f(nil).
func Walk(n Node, f func(Node) bool) {
	if n == nil {
		panic("nil")
	}
	if !f(n) {
		return
	}

	switch n := n.(type) {
	case *NamespaceDecl:
		Walk(n.Name, f)
		for _, class := range n.Classes {
			Walk(class, f)
		}

	case *ClassDecl:
		Walk(n.Name, f)
		for _, field := range n.Fields {
			Walk(field, f)
		}
		for _, method := range n.Methods {
			Walk(method, f)
		}

	case *FieldDecl:
		Walk(n.Name, f)
		Walk(n.Type, f)
		if n.Init != nil {
			Walk(n.Init, f)
		}

	case *MethodDecl:
		Walk(n.Name, f)
		for _, param := range n.Params {
			Walk(param, f)
		}
		if n.Result != nil {
			Walk(n.Result, f)
		}
		Walk(n.Body, f)

	case *ParamDecl:
		Walk(n.Name, f)
		Walk(n.Type, f)

	case *TypeName:
		for _, id := range n.Parts {
			Walk(id, f)
		}

	case *VarDecl:
		Walk(n.Name, f)
		Walk(n.Type, f)
		if n.Init != nil {
			Walk(n.Init, f)
		}

	case *ExprStmt:
		Walk(n.X, f)

	case *CompoundStmt:
		for _, stmt := range n.Stmts {
			Walk(stmt, f)
		}

	case *IfStmt:
		Walk(n.Cond, f)
		Walk(n.Then, f)
		for _, elif := range n.ElseIfs {
			Walk(elif, f)
		}
		if n.Else != nil {
			Walk(n.Else, f)
		}

	case *ElseIf:
		Walk(n.Cond, f)
		Walk(n.Then, f)

	case *ReturnStmt:
		if n.Result != nil {
			Walk(n.Result, f)
		}

	case *Ident, *Literal:
		// no-op

	case *BinaryExpr:
		Walk(n.X, f)
		Walk(n.Y, f)

	case *CallExpr:
		Walk(n.Fn, f)
		for _, arg := range n.Args {
			Walk(arg, f)
		}

	case *AssignExpr:
		Walk(n.LHS, f)
		Walk(n.RHS, f)

	default:
		panic(n)
	}

	f(nil)
}
