// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chunkedfile provides utilities for testing that source code
// errors are reported in the appropriate places, and that programs
// which compile produce the expected result.
//
// A chunked file consists of several chunks of input text separated by
// "---" lines. Each chunk is an input to the program under test, such
// as the code generator. Lines containing "###" are interpreted as
// expectations of failure: the following text is a Go string literal
// denoting a regular expression that should match the failure message.
// A line containing "=>" followed by a Go string literal states the
// expected result of running the chunk.
//
// Example:
//
//	namespace N { class C {
//	  fn main():System.Int32 = return foo(); // ### "undefined: foo"
//	}}
//	---
//	namespace N { class C {
//	  fn main():System.Int32 = return 6 * 7; // => "42"
//	}}
//
// A client test feeds each chunk of text into the program under test,
// then calls chunk.GotError for each error that actually occurred. Any
// discrepancy between the actual and expected errors is reported using
// the client's reporter, which is typically a testing.T.
package chunkedfile // import "go.cpmlang.net/internal/chunkedfile"

import (
	"os"
	"regexp"
	"strconv"
	"strings"
)

// A Chunk is a portion of a source file.
// It contains a set of expected errors and possibly an expected result.
type Chunk struct {
	Source   string
	Line     int // line of the chunk's first line within the file
	filename string
	report   Reporter
	wantErrs map[int]*regexp.Regexp
	want     *string
}

// Reporter is implemented by *testing.T.
type Reporter interface {
	Errorf(format string, args ...interface{})
}

// Read parses a chunked file and returns its chunks.
// It reports failures using the reporter.
//
// Error messages of the form "file.cpm:line:col: ..." are prefixed
// by a newline so that the Go source position added by (*testing.T).Errorf
// appears on a separate line so as not to confuse editors.
func Read(filename string, report Reporter) (chunks []Chunk) {
	data, err := os.ReadFile(filename)
	if err != nil {
		report.Errorf("%s", err)
		return
	}
	return readBytes(filename, data, report)
}

func readBytes(filename string, data []byte, report Reporter) (chunks []Chunk) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	linenum := 1
	for _, chunk := range strings.Split(text, "\n---\n") {
		// Pad with newlines so the line numbers match the original file.
		src := strings.Repeat("\n", linenum-1) + chunk
		c := Chunk{
			Source:   src,
			Line:     linenum,
			filename: filename,
			report:   report,
			wantErrs: make(map[int]*regexp.Regexp),
		}

		for _, line := range strings.Split(chunk, "\n") {
			if i := strings.Index(line, "###"); i >= 0 {
				rest := strings.TrimSpace(line[i+len("###"):])
				pattern, err := strconv.Unquote(rest)
				if err != nil {
					report.Errorf("\n%s:%d: not a quoted regexp: %s", filename, linenum, rest)
				} else if rx, err := regexp.Compile(pattern); err != nil {
					report.Errorf("\n%s:%d: %v", filename, linenum, err)
				} else {
					c.wantErrs[linenum] = rx
				}
			} else if i := strings.Index(line, "=>"); i >= 0 && strings.Contains(line[:i], "//") {
				rest := strings.TrimSpace(line[i+len("=>"):])
				want, err := strconv.Unquote(rest)
				if err != nil {
					report.Errorf("\n%s:%d: not a quoted result: %s", filename, linenum, rest)
				} else {
					c.want = &want
				}
			}
			linenum++
		}
		linenum++ // the "---" separator

		chunks = append(chunks, c)
	}
	return chunks
}

// Want returns the expected result of running the chunk, if stated.
func (chunk *Chunk) Want() (string, bool) {
	if chunk.want == nil {
		return "", false
	}
	return *chunk.want, true
}

// WantsError reports whether the chunk expects any error.
func (chunk *Chunk) WantsError() bool { return len(chunk.wantErrs) > 0 }

// GotError should be called by the client to report an error at a particular line.
// GotError reports unexpected errors to the chunk's reporter.
func (chunk *Chunk) GotError(linenum int, msg string) {
	if rx, ok := chunk.wantErrs[linenum]; ok {
		delete(chunk.wantErrs, linenum)
		if !rx.MatchString(msg) {
			chunk.report.Errorf("\n%s:%d: error %q does not match pattern %q", chunk.filename, linenum, msg, rx)
		}
	} else {
		chunk.report.Errorf("\n%s:%d: unexpected error: %v", chunk.filename, linenum, msg)
	}
}

// GotResult should be called by the client to report the result of
// running the chunk. It reports a result that differs from the expected one.
func (chunk *Chunk) GotResult(result string) {
	if want, ok := chunk.Want(); ok && want != result {
		chunk.report.Errorf("\n%s:%d: got result %q, want %q", chunk.filename, chunk.Line, result, want)
	}
	chunk.want = nil
}

// Done should be called by the client to indicate that the chunk has no more errors.
// Done reports expected errors and results that did not occur to the chunk's reporter.
func (chunk *Chunk) Done() {
	for linenum, rx := range chunk.wantErrs {
		chunk.report.Errorf("\n%s:%d: expected error matching %q", chunk.filename, linenum, rx)
	}
	if want, ok := chunk.Want(); ok {
		chunk.report.Errorf("\n%s:%d: expected result %q", chunk.filename, chunk.Line, want)
	}
}
