// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

// This file defines a recursive-descent parser for CPM.
// The LL(1) grammar of CPM and the names of many productions follow
// the surface syntax of the language:
//
//   namespace N { class K { static let x:System.Int32 = 2; fn f() = ... } }

import (
	"fmt"
	"math"
)

// Parse parses the input data and returns the namespace declaration
// at the root of the program.
//
// The filename and src values are used as in readSource: if src is nil,
// the file is read from the named file.
func Parse(filename string, src interface{}) (ns *NamespaceDecl, err error) {
	in, err := newScanner(filename, src)
	if err != nil {
		return nil, err
	}
	p := parser{in: in}
	defer p.in.recover(&err)

	p.nextToken() // read first lookahead token
	ns = p.parseNamespace()
	if p.tok != EOF {
		p.in.errorf(p.tokval.pos, "got %#v after namespace, want end of file", p.tok)
	}
	return ns, nil
}

// ParseExpr parses a CPM expression.
func ParseExpr(filename string, src interface{}) (expr Expr, err error) {
	in, err := newScanner(filename, src)
	if err != nil {
		return nil, err
	}
	p := parser{in: in}
	defer p.in.recover(&err)

	p.nextToken()
	expr = p.parseExpr()
	if p.tok != EOF {
		p.in.errorf(p.tokval.pos, "got %#v after expression, want end of file", p.tok)
	}
	return expr, nil
}

// ParseStmt parses a single CPM statement, as found in a method body.
func ParseStmt(filename string, src interface{}) (stmt Stmt, err error) {
	in, err := newScanner(filename, src)
	if err != nil {
		return nil, err
	}
	p := parser{in: in}
	defer p.in.recover(&err)

	p.nextToken()
	stmt = p.parseStmt()
	if p.tok != EOF {
		p.in.errorf(p.tokval.pos, "got %#v after statement, want end of file", p.tok)
	}
	return stmt, nil
}

type parser struct {
	in     *scanner
	tok    Token
	tokval tokenValue
}

// nextToken advances the scanner and returns the position of the
// previous token.
func (p *parser) nextToken() Position {
	oldpos := p.tokval.pos
	p.tok = p.in.nextToken(&p.tokval)
	return oldpos
}

// consume consumes a token of the specified type and returns its position.
func (p *parser) consume(t Token) Position {
	if p.tok != t {
		p.in.errorf(p.tokval.pos, "got %s, want %#v", p.describe(), t)
	}
	return p.nextToken()
}

// describe names the current token for use in error messages.
func (p *parser) describe() string {
	if p.tok == IDENT {
		return quoteIdent(p.tokval.raw)
	}
	return fmt.Sprintf("%#v", p.tok)
}

// namespace = 'namespace' IDENT '{' class* '}'
func (p *parser) parseNamespace() *NamespaceDecl {
	pos := p.consume(NAMESPACE)
	name := p.parseIdent()
	p.consume(LBRACE)
	var classes []*ClassDecl
	for p.tok != RBRACE && p.tok != EOF {
		classes = append(classes, p.parseClass())
	}
	rbrace := p.consume(RBRACE)
	return &NamespaceDecl{
		Namespace: pos,
		Name:      name,
		Classes:   classes,
		Rbrace:    rbrace,
	}
}

// class = 'class' IDENT '{' member* '}'
func (p *parser) parseClass() *ClassDecl {
	pos := p.consume(CLASS)
	class := &ClassDecl{Class: pos, Name: p.parseIdent()}
	p.consume(LBRACE)
	for p.tok != RBRACE && p.tok != EOF {
		p.parseMember(class)
	}
	class.Rbrace = p.consume(RBRACE)
	return class
}

// member = ['static'] 'let' IDENT ':' typename ['=' expr] ';'
//        | ['static'] 'fn' IDENT '(' params ')' [':' typename] '=' stmt
func (p *parser) parseMember(class *ClassDecl) {
	start := p.tokval.pos
	static := false
	if p.tok == STATIC {
		static = true
		p.nextToken()
	}
	switch p.tok {
	case LET:
		p.nextToken()
		name := p.parseIdent()
		p.consume(COLON)
		typ := p.parseTypeName()
		var init Expr
		if p.tok == EQ {
			p.nextToken()
			init = p.parseExpr()
		}
		p.consume(SEMI)
		class.Fields = append(class.Fields, &FieldDecl{
			Let:    start,
			Static: static,
			Name:   name,
			Type:   typ,
			Init:   init,
		})
	case FN:
		p.nextToken()
		name := p.parseIdent()
		p.consume(LPAREN)
		var params []*ParamDecl
		for p.tok != RPAREN && p.tok != EOF {
			if len(params) > 0 {
				p.consume(COMMA)
			}
			pname := p.parseIdent()
			p.consume(COLON)
			params = append(params, &ParamDecl{Name: pname, Type: p.parseTypeName()})
		}
		p.consume(RPAREN)
		var result *TypeName
		if p.tok == COLON {
			p.nextToken()
			result = p.parseTypeName()
		}
		p.consume(EQ)
		body := p.parseStmt()
		class.Methods = append(class.Methods, &MethodDecl{
			Fn:     start,
			Static: static,
			Name:   name,
			Params: params,
			Result: result,
			Body:   body,
		})
	default:
		p.in.errorf(p.tokval.pos, "got %s, want class member ('let' or 'fn')", p.describe())
	}
}

// typename = IDENT {'.' IDENT}
func (p *parser) parseTypeName() *TypeName {
	t := &TypeName{Parts: []*Ident{p.parseIdent()}}
	for p.tok == DOT {
		p.nextToken()
		t.Parts = append(t.Parts, p.parseIdent())
	}
	return t
}

func (p *parser) parseIdent() *Ident {
	if p.tok != IDENT {
		p.in.errorf(p.tokval.pos, "got %s, want identifier", p.describe())
	}
	id := &Ident{
		NamePos: p.tokval.pos,
		Name:    p.tokval.raw,
	}
	p.nextToken()
	return id
}

// stmt = '{' stmt* '}'
//      | 'let' IDENT ':' typename ['=' expr] ';'
//      | 'return' [expr] ';'
//      | 'if' '(' expr ')' stmt {'else' 'if' '(' expr ')' stmt} ['else' stmt]
//      | expr ';'
func (p *parser) parseStmt() Stmt {
	switch p.tok {
	case LBRACE:
		lbrace := p.nextToken()
		var stmts []Stmt
		for p.tok != RBRACE && p.tok != EOF {
			stmts = append(stmts, p.parseStmt())
		}
		rbrace := p.consume(RBRACE)
		return &CompoundStmt{Lbrace: lbrace, Stmts: stmts, Rbrace: rbrace}

	case LET:
		pos := p.nextToken()
		name := p.parseIdent()
		p.consume(COLON)
		typ := p.parseTypeName()
		var init Expr
		if p.tok == EQ {
			p.nextToken()
			init = p.parseExpr()
		}
		p.consume(SEMI)
		return &VarDecl{Let: pos, Name: name, Type: typ, Init: init}

	case RETURN:
		pos := p.nextToken()
		var result Expr
		if p.tok != SEMI {
			result = p.parseExpr()
		}
		p.consume(SEMI)
		return &ReturnStmt{Return: pos, Result: result}

	case IF:
		pos := p.nextToken()
		p.consume(LPAREN)
		cond := p.parseExpr()
		p.consume(RPAREN)
		stmt := &IfStmt{If: pos, Cond: cond, Then: p.parseStmt()}
		for p.tok == ELSE {
			elsepos := p.nextToken()
			if p.tok != IF {
				stmt.Else = p.parseStmt()
				break
			}
			p.nextToken()
			p.consume(LPAREN)
			cond := p.parseExpr()
			p.consume(RPAREN)
			stmt.ElseIfs = append(stmt.ElseIfs, &ElseIf{Else: elsepos, Cond: cond, Then: p.parseStmt()})
		}
		return stmt
	}

	x := p.parseExpr()
	p.consume(SEMI)
	return &ExprStmt{X: x}
}

// expr = additive ['<-' expr]
func (p *parser) parseExpr() Expr {
	x := p.parseBinary(0)
	if p.tok == LARROW {
		pos := p.nextToken()
		return &AssignExpr{LHS: x, OpPos: pos, RHS: p.parseExpr()}
	}
	return x
}

// preclevels groups operators of equal precedence.
// Comparisons are not part of the language.
var preclevels = [...][]Token{
	{PLUS, MINUS},
	{STAR, SLASH},
}

// precedence maps each operator to its precedence, or -1 for other tokens.
var precedence [maxToken]int8

func init() {
	for i := range precedence {
		precedence[i] = -1
	}
	for level, tokens := range preclevels {
		for _, tok := range tokens {
			precedence[tok] = int8(level)
		}
	}
}

// parseBinary parses a left-associative binary expression
// whose operators have precedence at least prec.
func (p *parser) parseBinary(prec int) Expr {
	x := p.parsePrimary()
	for {
		opprec := int(precedence[p.tok])
		if opprec < prec {
			return x
		}
		op := p.tok
		pos := p.nextToken()
		y := p.parseBinary(opprec + 1)
		x = &BinaryExpr{X: x, OpPos: pos, Op: op, Y: y}
	}
}

// primary = INT | FLOAT | STRING
//         | IDENT ['(' [expr {',' expr}] ')']
//         | '(' expr ')'
func (p *parser) parsePrimary() Expr {
	switch p.tok {
	case INT:
		tok, val := p.tok, p.tokval
		p.nextToken()
		lit := &Literal{Token: tok, TokenPos: val.pos, Raw: val.raw}
		if val.int >= math.MinInt32 && val.int <= math.MaxInt32 {
			lit.Value = int32(val.int)
		} else {
			lit.Value = val.int
		}
		return lit

	case FLOAT:
		tok, val := p.tok, p.tokval
		p.nextToken()
		return &Literal{Token: tok, TokenPos: val.pos, Raw: val.raw, Value: val.float}

	case STRING:
		tok, val := p.tok, p.tokval
		p.nextToken()
		return &Literal{Token: tok, TokenPos: val.pos, Raw: val.raw, Value: val.string}

	case IDENT:
		id := p.parseIdent()
		if p.tok != LPAREN {
			return id
		}
		return p.parseCallSuffix(id)

	case LPAREN:
		p.nextToken()
		x := p.parseExpr()
		p.consume(RPAREN)
		return x
	}
	p.in.errorf(p.tokval.pos, "got %s, want primary expression", p.describe())
	panic("unreachable")
}

// parseCallSuffix parses the argument list of a call to fn.
func (p *parser) parseCallSuffix(fn Expr) Expr {
	lparen := p.consume(LPAREN)
	var args []Expr
	for p.tok != RPAREN && p.tok != EOF {
		if len(args) > 0 {
			p.consume(COMMA)
		}
		args = append(args, p.parseExpr())
	}
	rparen := p.consume(RPAREN)
	return &CallExpr{Fn: fn, Lparen: lparen, Args: args, Rparen: rparen}
}
