// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

import (
	"bytes"
	"fmt"
	"testing"
)

func scan(src interface{}) (tokens string, err error) {
	sc, err := newScanner("foo.cpm", src)
	if err != nil {
		return "", err
	}

	defer sc.recover(&err)

	var buf bytes.Buffer
	var val tokenValue
	for {
		tok := sc.nextToken(&val)

		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		switch tok {
		case EOF:
			buf.WriteString("EOF")
		case IDENT:
			buf.WriteString(val.raw)
		case INT:
			fmt.Fprintf(&buf, "%d", val.int)
		case FLOAT:
			fmt.Fprintf(&buf, "%e", val.float)
		case STRING:
			fmt.Fprintf(&buf, "%q", val.string)
		default:
			buf.WriteString(tok.String())
		}
		if tok == EOF {
			break
		}
	}
	return buf.String(), nil
}

func TestScanner(t *testing.T) {
	for _, test := range []struct {
		input, want string
	}{
		{``, "EOF"},
		{`123`, "123 EOF"},
		{`x.y`, "x . y EOF"},
		{`System.Int32`, "System . Int32 EOF"},
		{`x <- 1`, "x <- 1 EOF"},
		{`x<-1`, "x <- 1 EOF"},
		{`a+b-c*d/e`, "a + b - c * d / e EOF"},
		{`f(a, b);`, "f ( a , b ) ; EOF"},
		{`{ } : =`, "{ } : = EOF"},
		{`namespace class static fn let if else return`, "namespace class static fn let if else return EOF"},
		{`classes`, "classes EOF"},
		{`3.5`, "3.500000e+00 EOF"},
		{`1e10`, "1.000000e+10 EOF"},
		{`1.5E-3`, "1.500000e-03 EOF"},
		{`"hello"`, `"hello" EOF`},
		{`"a\"b"`, `"a\"b" EOF`},
		{"x // comment\ny", "x y EOF"},
		{"// only a comment", "EOF"},
		{"x\r\ny", "x y EOF"},
		{`1.x`, "1 . x EOF"},
		{`12a`, "foo.cpm:1:1: invalid character 'a' in number literal"},
		{`1e`, "foo.cpm:1:1: invalid float literal"},
		{`x < y`, "foo.cpm:1:3: unexpected input character '<'"},
		{`#`, "foo.cpm:1:1: unexpected input character '#'"},
		{`"abc`, "foo.cpm:1:1: unexpected EOF in string"},
		{"\"abc\ndef\"", "foo.cpm:1:1: unexpected newline in string"},
	} {
		got, err := scan(test.input)
		if err != nil {
			got = err.(Error).Error()
		}
		if test.want != got {
			t.Errorf("scan `%s` = [%s], want [%s]", test.input, got, test.want)
		}
	}
}

func TestPositions(t *testing.T) {
	sc, err := newScanner("foo.cpm", "let x\n  <- 2;")
	if err != nil {
		t.Fatal(err)
	}
	var val tokenValue
	var got []string
	for tok := sc.nextToken(&val); tok != EOF; tok = sc.nextToken(&val) {
		got = append(got, fmt.Sprintf("%s@%d:%d", tok, val.pos.Line, val.pos.Col))
	}
	want := []string{"let@1:1", "identifier@1:5", "<-@2:3", "int literal@2:6", ";@2:7"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("positions = %v, want %v", got, want)
	}
}
