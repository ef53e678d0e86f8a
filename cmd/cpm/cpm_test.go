// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"strings"
	"testing"
)

func TestPrintLines(t *testing.T) {
	var src strings.Builder
	for i := 0; i < 10; i++ {
		src.WriteString("x\n")
	}
	src.WriteString("  return;")
	var buf strings.Builder
	printLines(&buf, []byte(src.String()))
	lines := strings.Split(buf.String(), "\n")
	if got, want := lines[0], "01 x"; got != want {
		t.Errorf("first line = %q, want %q", got, want)
	}
	if got, want := lines[10], "11   return;"; got != want {
		t.Errorf("last line = %q, want %q", got, want)
	}
}
