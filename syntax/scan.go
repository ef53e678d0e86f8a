// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

// A lexical scanner for CPM.

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// A scanner represents a single input file being parsed.
type scanner struct {
	rest  []byte   // rest of input
	token []byte   // token being scanned
	pos   Position // current input position
}

// tokenValue records the position and value associated with each token.
type tokenValue struct {
	raw    string   // raw text of token
	int    int64    // decoded int
	float  float64  // decoded float
	string string   // decoded string
	pos    Position // start position of token
}

func newScanner(filename string, src interface{}) (*scanner, error) {
	data, err := readSource(filename, src)
	if err != nil {
		return nil, err
	}
	return &scanner{
		rest: data,
		pos:  MakePosition(&filename, 1, 1),
	}, nil
}

func readSource(filename string, src interface{}) ([]byte, error) {
	switch src := src.(type) {
	case string:
		return []byte(src), nil
	case []byte:
		return src, nil
	case io.Reader:
		data, err := io.ReadAll(src)
		if err != nil {
			err = &os.PathError{Op: "read", Path: filename, Err: err}
			return nil, err
		}
		return data, nil
	case nil:
		return os.ReadFile(filename)
	default:
		return nil, fmt.Errorf("invalid source: %T", src)
	}
}

// An error is reported by panicking with an Error;
// recover converts it back to an ordinary return value.
func (sc *scanner) error(pos Position, s string) {
	panic(Error{pos, s})
}

func (sc *scanner) errorf(pos Position, format string, args ...interface{}) {
	sc.error(pos, fmt.Sprintf(format, args...))
}

func (sc *scanner) recover(err *error) {
	switch e := recover().(type) {
	case nil:
		// no panic
	case Error:
		*err = e
	default:
		panic(e)
	}
}

// eof reports whether the input has reached end of file.
func (sc *scanner) eof() bool {
	return len(sc.rest) == 0
}

// peekRune returns the next rune in the input without consuming it.
func (sc *scanner) peekRune() rune {
	if len(sc.rest) == 0 {
		return 0
	}
	if b := sc.rest[0]; b < utf8.RuneSelf {
		if b == '\r' {
			return '\n'
		}
		return rune(b)
	}
	r, _ := utf8.DecodeRune(sc.rest)
	return r
}

// readRune consumes and returns the next rune in the input.
// Newlines in Unix, DOS, or Mac format are treated as one rune, '\n'.
func (sc *scanner) readRune() rune {
	if len(sc.rest) == 0 {
		sc.error(sc.pos, "internal scanner error: readRune at EOF")
		return 0
	}
	var r rune
	if b := sc.rest[0]; b < utf8.RuneSelf {
		r = rune(b)
		sc.rest = sc.rest[1:]
		if r == '\r' {
			if len(sc.rest) > 0 && sc.rest[0] == '\n' {
				sc.rest = sc.rest[1:]
			}
			r = '\n'
		}
	} else {
		var n int
		r, n = utf8.DecodeRune(sc.rest)
		sc.rest = sc.rest[n:]
	}
	if r == '\n' {
		sc.pos.Line++
		sc.pos.Col = 1
	} else {
		sc.pos.Col++
	}
	return r
}

func (sc *scanner) startToken(val *tokenValue) {
	sc.token = sc.rest
	val.raw = ""
	val.pos = sc.pos
}

func (sc *scanner) endToken(val *tokenValue) {
	if val.raw == "" {
		val.raw = string(sc.token[:len(sc.token)-len(sc.rest)])
	}
}

// nextToken is called by the parser to obtain the next input token.
// It returns the token value and sets val to the data associated with
// the token.
func (sc *scanner) nextToken(val *tokenValue) Token {
	// Skip spaces and comments.
	for {
		c := sc.peekRune()
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			sc.readRune()
			continue
		case c == '/' && len(sc.rest) > 1 && sc.rest[1] == '/':
			for !sc.eof() && sc.peekRune() != '\n' {
				sc.readRune()
			}
			continue
		}
		break
	}

	sc.startToken(val)
	defer sc.endToken(val)

	if sc.eof() {
		return EOF
	}

	c := sc.peekRune()

	// identifier or keyword
	if isIdentStart(c) {
		for isIdent(sc.peekRune()) {
			sc.readRune()
		}
		sc.endToken(val)
		if k, ok := keywordToken[val.raw]; ok {
			return k
		}
		return IDENT
	}

	// number
	if isdigit(c) {
		return sc.scanNumber(val)
	}

	// string literal
	if c == '"' {
		return sc.scanString(val)
	}

	// punctuation
	sc.readRune()
	switch c {
	case '+':
		return PLUS
	case '-':
		return MINUS
	case '*':
		return STAR
	case '/':
		return SLASH
	case '.':
		return DOT
	case ',':
		return COMMA
	case ':':
		return COLON
	case ';':
		return SEMI
	case '=':
		return EQ
	case '(':
		return LPAREN
	case ')':
		return RPAREN
	case '{':
		return LBRACE
	case '}':
		return RBRACE
	case '<':
		if sc.peekRune() == '-' {
			sc.readRune()
			return LARROW
		}
	}
	sc.errorf(val.pos, "unexpected input character %#q", c)
	panic("unreachable")
}

func (sc *scanner) scanNumber(val *tokenValue) Token {
	start := sc.pos
	fraction := false
	for isdigit(sc.peekRune()) {
		sc.readRune()
	}
	if sc.peekRune() == '.' && len(sc.rest) > 1 && isdigit(rune(sc.rest[1])) {
		fraction = true
		sc.readRune()
		for isdigit(sc.peekRune()) {
			sc.readRune()
		}
	}
	if c := sc.peekRune(); c == 'e' || c == 'E' {
		fraction = true
		sc.readRune()
		if c := sc.peekRune(); c == '+' || c == '-' {
			sc.readRune()
		}
		if !isdigit(sc.peekRune()) {
			sc.error(start, "invalid float literal")
		}
		for isdigit(sc.peekRune()) {
			sc.readRune()
		}
	}
	if isIdent(sc.peekRune()) {
		sc.errorf(start, "invalid character %#q in number literal", sc.peekRune())
	}

	sc.endToken(val)
	s := val.raw
	if fraction {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) {
			sc.error(start, "invalid float literal")
		}
		val.float = f
		return FLOAT
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		sc.error(start, "integer literal out of range")
	}
	val.int = i
	return INT
}

func (sc *scanner) scanString(val *tokenValue) Token {
	start := sc.pos
	sc.readRune() // opening quote
	for {
		if sc.eof() {
			sc.error(start, "unexpected EOF in string")
		}
		c := sc.readRune()
		if c == '"' {
			break
		}
		if c == '\n' {
			sc.error(start, "unexpected newline in string")
		}
		if c == '\\' {
			if sc.eof() {
				sc.error(start, "unexpected EOF in string")
			}
			sc.readRune()
		}
	}
	sc.endToken(val)
	s, err := strconv.Unquote(val.raw)
	if err != nil {
		sc.error(start, err.Error())
	}
	val.string = s
	return STRING
}

func isdigit(c rune) bool { return '0' <= c && c <= '9' }

func isIdentStart(c rune) bool {
	return 'a' <= c && c <= 'z' ||
		'A' <= c && c <= 'Z' ||
		c == '_' ||
		c >= utf8.RuneSelf && unicode.IsLetter(c)
}

func isIdent(c rune) bool {
	return isdigit(c) || isIdentStart(c)
}

// quoteIdent is used by error messages naming unexpected identifiers.
func quoteIdent(s string) string {
	if strings.ContainsAny(s, " \t") {
		return strconv.Quote(s)
	}
	return s
}
