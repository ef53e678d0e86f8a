// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

// This file defines the diagnostic rendering of syntax trees.
// Printing never touches the state used by code generation.

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// A Printer writes indented text. The indentation depth is an explicit
// counter changed by PushIndent and PopIndent; indentation is written
// at most once per physical line, before its first text.
//
// Write errors are sticky: after the first failure the Printer discards
// output and Err reports the failure.
type Printer struct {
	out       io.Writer
	tab       string
	indent    int
	breakLine bool
	err       error
}

// NewPrinter returns a Printer writing to out, indenting each level by tab.
func NewPrinter(out io.Writer, tab string) *Printer {
	return &Printer{out: out, tab: tab}
}

// PushIndent increases the indentation depth of subsequent lines.
func (p *Printer) PushIndent() { p.indent++ }

// PopIndent decreases the indentation depth of subsequent lines.
func (p *Printer) PopIndent() {
	if p.indent > 0 {
		p.indent--
	}
}

// Depth returns the current indentation depth.
func (p *Printer) Depth() int { return p.indent }

// Err returns the first error encountered while writing, if any.
func (p *Printer) Err() error { return p.err }

func (p *Printer) emit(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.out, s)
}

func (p *Printer) startLine() {
	if p.breakLine {
		p.emit(strings.Repeat(p.tab, p.indent))
		p.breakLine = false
	}
}

// Write writes s on the current line.
func (p *Printer) Write(s string) {
	if s == "" {
		return
	}
	p.startLine()
	p.emit(s)
}

// Writef formats according to a format specifier and writes the result
// on the current line.
func (p *Printer) Writef(format string, args ...interface{}) {
	p.Write(fmt.Sprintf(format, args...))
}

// WriteLine writes s and terminates the current line.
// A line that is entirely empty carries no indentation.
func (p *Printer) WriteLine(s string) {
	if s != "" {
		p.startLine()
	}
	p.emit(s)
	p.emit("\n")
	p.breakLine = true
}

// Print writes the diagnostic form of n to out, indenting with two spaces.
func Print(out io.Writer, n Node) error {
	p := NewPrinter(out, "  ")
	p.Node(n)
	return p.Err()
}

// Node writes the diagnostic form of n.
func (p *Printer) Node(n Node) {
	switch n := n.(type) {
	case *NamespaceDecl:
		p.Write("namespace ")
		p.Node(n.Name)
		p.WriteLine("{")
		p.WriteLine("classes:")
		p.PushIndent()
		for _, class := range n.Classes {
			p.Node(class)
		}
		p.PopIndent()
		p.WriteLine("}")

	case *ClassDecl:
		p.Write("class ")
		p.Node(n.Name)
		p.WriteLine("{")
		p.WriteLine("variables:")
		p.PushIndent()
		for _, field := range n.Fields {
			p.Node(field)
		}
		p.WriteLine("")
		p.PopIndent()
		p.WriteLine("methods:")
		p.PushIndent()
		for _, method := range n.Methods {
			p.Node(method)
		}
		p.PopIndent()
		p.WriteLine("}")

	case *FieldDecl:
		if n.Static {
			p.Write("static ")
		}
		p.variable(n.Name, n.Type, n.Init)

	case *VarDecl:
		p.variable(n.Name, n.Type, n.Init)

	case *MethodDecl:
		if n.Static {
			p.Write("static ")
		}
		p.Write("fn ")
		p.Node(n.Name)
		p.Write("(")
		for i, param := range n.Params {
			if i > 0 {
				p.Write(",")
			}
			p.Node(param)
		}
		p.Write(")")
		if n.Result != nil {
			p.Write(":")
			p.Node(n.Result)
		}
		p.WriteLine(" = ")
		p.Node(n.Body)

	case *ParamDecl:
		p.Node(n.Name)
		p.Write(":")
		p.Node(n.Type)

	case *TypeName:
		for i, id := range n.Parts {
			if i > 0 {
				p.Write(".")
			}
			p.Node(id)
		}

	case *ExprStmt:
		p.Node(n.X)
		p.WriteLine(";")

	case *CompoundStmt:
		p.WriteLine("{")
		p.PushIndent()
		for _, stmt := range n.Stmts {
			p.Node(stmt)
		}
		p.PopIndent()
		p.WriteLine("}")

	case *IfStmt:
		p.Write("if(")
		p.Node(n.Cond)
		p.WriteLine(") then")
		p.Node(n.Then)
		for _, elif := range n.ElseIfs {
			p.Write("else if(")
			p.Node(elif.Cond)
			p.WriteLine(") then")
			p.Node(elif.Then)
		}
		if n.Else != nil {
			p.WriteLine("else")
			p.Node(n.Else)
		}

	case *ReturnStmt:
		p.Write("return")
		if n.Result != nil {
			p.Write(" ")
			p.Node(n.Result)
		}
		p.WriteLine(";")

	case *BinaryExpr:
		p.Write("(")
		p.Node(n.X)
		p.Write(n.Op.String())
		p.Node(n.Y)
		p.Write(")")

	case *Literal:
		p.Write("<")
		if s, ok := n.Value.(string); ok {
			p.Write(strconv.Quote(s))
		} else {
			p.Writef("%v", n.Value)
		}
		p.Write(">")

	case *Ident:
		p.Write("|" + n.Name + "|")

	case *CallExpr:
		p.Node(n.Fn)
		p.Write("(")
		for i, arg := range n.Args {
			if i > 0 {
				p.Write(",")
			}
			p.Node(arg)
		}
		p.Write(")")

	case *AssignExpr:
		p.Node(n.LHS)
		p.Write(" <- ")
		p.Node(n.RHS)

	default:
		panic(fmt.Sprintf("unexpected node %T", n))
	}
}

func (p *Printer) variable(name *Ident, typ *TypeName, init Expr) {
	p.Write("let ")
	p.Node(name)
	p.Write(":")
	p.Node(typ)
	if init != nil {
		p.Write(" = ")
		p.Node(init)
	}
	p.WriteLine(";")
}
