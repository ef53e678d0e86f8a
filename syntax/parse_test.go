// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax_test

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"go.cpmlang.net/internal/chunkedfile"
	"go.cpmlang.net/syntax"
)

func TestExprParseTrees(t *testing.T) {
	for _, test := range []struct {
		input, want string
	}{
		{`f(1)`,
			`(CallExpr Fn=f Args=(1))`},
		{`x + 1`,
			`(BinaryExpr X=x Op=+ Y=1)`},
		{`x+y*z`,
			`(BinaryExpr X=x Op=+ Y=(BinaryExpr X=y Op=* Y=z))`},
		{`x/y-z`,
			`(BinaryExpr X=(BinaryExpr X=x Op=/ Y=y) Op=- Y=z)`},
		{`a - b - c`,
			`(BinaryExpr X=(BinaryExpr X=a Op=- Y=b) Op=- Y=c)`},
		{`(a - b) * c`,
			`(BinaryExpr X=(BinaryExpr X=a Op=- Y=b) Op=* Y=c)`},
		{`2 + 3.5`,
			`(BinaryExpr X=2 Op=+ Y=3.5)`},
		{`"foo"`,
			`"foo"`},
		{`x <- 42`,
			`(AssignExpr LHS=x RHS=42)`},
		{`x <- y <- 1 + 2`,
			`(AssignExpr LHS=x RHS=(AssignExpr LHS=y RHS=(BinaryExpr X=1 Op=+ Y=2)))`},
		{`f()`,
			`(CallExpr Fn=f)`},
		{`f(a, g(b), 1 * 2)`,
			`(CallExpr Fn=f Args=(a (CallExpr Fn=g Args=(b)) (BinaryExpr X=1 Op=* Y=2)))`},
		{`f(a,)`,
			`got ')', want primary expression`},
		{`1 +`,
			`got end of file, want primary expression`},
		{`a b`,
			`got identifier after expression, want end of file`},
	} {
		e, err := syntax.ParseExpr("foo.cpm", test.input)
		var got string
		if err != nil {
			got = stripPos(err)
		} else {
			got = treeString(e)
		}
		if test.want != got {
			t.Errorf("parse `%s` = %s, want %s", test.input, got, test.want)
		}
	}
}

func TestStmtParseTrees(t *testing.T) {
	for _, test := range []struct {
		input, want string
	}{
		{`f(1);`,
			`(ExprStmt X=(CallExpr Fn=f Args=(1)))`},
		{`return 1;`,
			`(ReturnStmt Result=1)`},
		{`return;`,
			`(ReturnStmt)`},
		{`let val:System.Int32 = 56;`,
			`(VarDecl Name=val Type=(TypeName Parts=(System Int32)) Init=56)`},
		{`let s:System.String;`,
			`(VarDecl Name=s Type=(TypeName Parts=(System String)))`},
		{`{ x <- 1; return x; }`,
			`(CompoundStmt Stmts=((ExprStmt X=(AssignExpr LHS=x RHS=1)) (ReturnStmt Result=x)))`},
		{`{}`,
			`(CompoundStmt)`},
		{`if (a) {} else {}`,
			`(IfStmt Cond=a Then=(CompoundStmt) Else=(CompoundStmt))`},
		{`if (a) f(); else if (b) g(); else if (c) {} else h();`,
			`(IfStmt Cond=a Then=(ExprStmt X=(CallExpr Fn=f)) ElseIfs=((ElseIf Cond=b Then=(ExprStmt X=(CallExpr Fn=g))) (ElseIf Cond=c Then=(CompoundStmt))) Else=(ExprStmt X=(CallExpr Fn=h)))`},
		{`if (a) {}`,
			`(IfStmt Cond=a Then=(CompoundStmt))`},
		{`x <- 1`,
			`got end of file, want ';'`},
		{`let x = 1;`,
			`got '=', want ':'`},
	} {
		stmt, err := syntax.ParseStmt("foo.cpm", test.input)
		var got string
		if err != nil {
			got = stripPos(err)
		} else {
			got = treeString(stmt)
		}
		if test.want != got {
			t.Errorf("parse `%s` = %s, want %s", test.input, got, test.want)
		}
	}
}

// TestFileParseTrees tests whole programs, including member order and comments.
func TestFileParseTrees(t *testing.T) {
	for _, test := range []struct {
		input, want string
	}{
		{`namespace N {}`,
			`(NamespaceDecl Name=N)`},
		{`namespace TestProgram{
    // A comment.
    class Klass{
        static let x:System.Int32 = 2;
        let y:System.Double;
        static fn main():System.Int32 = {
            x <- 42;
            return x;
        }
        fn add(a:System.Int32, b:System.Int32):System.Int32 = return a + b;
    }
}`,
			`(NamespaceDecl Name=TestProgram Classes=((ClassDecl Name=Klass ` +
				`Fields=((FieldDecl Static Name=x Type=(TypeName Parts=(System Int32)) Init=2) ` +
				`(FieldDecl Name=y Type=(TypeName Parts=(System Double)))) ` +
				`Methods=((MethodDecl Static Name=main Result=(TypeName Parts=(System Int32)) ` +
				`Body=(CompoundStmt Stmts=((ExprStmt X=(AssignExpr LHS=x RHS=42)) (ReturnStmt Result=x)))) ` +
				`(MethodDecl Name=add Params=((ParamDecl Name=a Type=(TypeName Parts=(System Int32))) ` +
				`(ParamDecl Name=b Type=(TypeName Parts=(System Int32)))) ` +
				`Result=(TypeName Parts=(System Int32)) ` +
				`Body=(ReturnStmt Result=(BinaryExpr X=a Op=+ Y=b)))))))`},
	} {
		ns, err := syntax.Parse("foo.cpm", test.input)
		if err != nil {
			t.Errorf("parse `%s` failed: %v", test.input, stripPos(err))
			continue
		}
		if got := treeString(ns); test.want != got {
			t.Errorf("parse `%s` = %s, want %s", test.input, got, test.want)
		}
	}
}

func TestLiteralValues(t *testing.T) {
	for _, test := range []struct {
		input string
		want  interface{}
	}{
		{`42`, int32(42)},
		{`2147483647`, int32(2147483647)},
		{`2147483648`, int64(2147483648)},
		{`3.5`, 3.5},
		{`1e3`, 1000.0},
		{`"a\tb"`, "a\tb"},
	} {
		e, err := syntax.ParseExpr("foo.cpm", test.input)
		if err != nil {
			t.Errorf("parse `%s` failed: %v", test.input, err)
			continue
		}
		lit, ok := e.(*syntax.Literal)
		if !ok {
			t.Errorf("parse `%s` = %T, want *syntax.Literal", test.input, e)
			continue
		}
		if lit.Value != test.want {
			t.Errorf("parse `%s` = %#v, want %#v", test.input, lit.Value, test.want)
		}
	}
}

func TestSpans(t *testing.T) {
	const src = "namespace N {\n  class K {\n    static fn f() = return 1 + 22;\n  }\n}"
	ns, err := syntax.Parse("foo.cpm", src)
	if err != nil {
		t.Fatal(err)
	}
	method := ns.Classes[0].Methods[0]
	if got, want := fmt.Sprint(method.Span()), "foo.cpm:3:5 foo.cpm:3:34"; got != want {
		t.Errorf("method span = %s, want %s", got, want)
	}
	ret := method.Body.(*syntax.ReturnStmt)
	if got, want := fmt.Sprint(ret.Result.Span()), "foo.cpm:3:28 foo.cpm:3:34"; got != want {
		t.Errorf("result span = %s, want %s", got, want)
	}
}

func stripPos(err error) string {
	s := err.Error()
	if i := strings.Index(s, ": "); i >= 0 {
		s = s[i+len(": "):] // strip file:line:col
	}
	return s
}

// treeString prints a syntax node as a parenthesized tree.
// Idents are printed as foo and Literals as "foo" or 42.
// Structs are printed as (type name=value ...).
// Only non-empty fields are shown.
func treeString(n syntax.Node) string {
	var buf bytes.Buffer
	writeTree(&buf, reflect.ValueOf(n))
	return buf.String()
}

func writeTree(out *bytes.Buffer, x reflect.Value) {
	switch x.Kind() {
	case reflect.String, reflect.Int, reflect.Bool:
		fmt.Fprintf(out, "%v", x.Interface())
	case reflect.Ptr, reflect.Interface:
		if elem := x.Elem(); elem.Kind() == 0 {
			out.WriteString("nil")
		} else {
			writeTree(out, elem)
		}
	case reflect.Struct:
		switch v := x.Interface().(type) {
		case syntax.Literal:
			switch v.Token {
			case syntax.STRING:
				fmt.Fprintf(out, "%q", v.Value)
			default:
				fmt.Fprintf(out, "%v", v.Value)
			}
			return
		case syntax.Ident:
			out.WriteString(v.Name)
			return
		}
		fmt.Fprintf(out, "(%s", strings.TrimPrefix(x.Type().String(), "syntax."))
		for i, n := 0, x.NumField(); i < n; i++ {
			f := x.Field(i)
			if f.Type() == reflect.TypeOf(syntax.Position{}) {
				continue // skip positions
			}
			name := x.Type().Field(i).Name
			if f.Type() == reflect.TypeOf(syntax.Token(0)) {
				fmt.Fprintf(out, " %s=%s", name, f.Interface())
				continue
			}

			switch f.Kind() {
			case reflect.Slice:
				if n := f.Len(); n > 0 {
					fmt.Fprintf(out, " %s=(", name)
					for i := 0; i < n; i++ {
						if i > 0 {
							out.WriteByte(' ')
						}
						writeTree(out, f.Index(i))
					}
					out.WriteByte(')')
				}
				continue
			case reflect.Ptr, reflect.Interface:
				if f.IsNil() {
					continue
				}
			case reflect.Bool:
				if f.Bool() {
					fmt.Fprintf(out, " %s", name)
				}
				continue
			}
			fmt.Fprintf(out, " %s=", name)
			writeTree(out, f)
		}
		fmt.Fprintf(out, ")")
	default:
		fmt.Fprintf(out, "%T", x.Interface())
	}
}

func TestParseErrors(t *testing.T) {
	filename := "testdata/errors.cpm"
	for _, chunk := range chunkedfile.Read(filename, t) {
		_, err := syntax.Parse(filename, chunk.Source)
		switch err := err.(type) {
		case nil:
			// ok
		case syntax.Error:
			chunk.GotError(int(err.Pos.Line), err.Msg)
		default:
			t.Error(err)
		}
		chunk.Done()
	}
}
