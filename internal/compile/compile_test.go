// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.cpmlang.net/internal/compile"
	"go.cpmlang.net/internal/cpmtest"
	"go.cpmlang.net/vm"
)

// TestSerialization verifies that a serialized program can be loaded,
// deserialized, and executed.
func TestSerialization(t *testing.T) {
	const src = `namespace Demo { class Program {
  static let greeting:System.String = "hi";
  static let base:System.Int64 = 40;
  static fn scale(x:System.Double):System.Double = return x * 0.5;
  fn main():System.Int64 = {
    let n:System.Int32 = 2;
    scale(n);
    return base + n;
  }
} }`
	oldProg, err := cpmtest.Compile("mul.cpm", src)
	if err != nil {
		t.Fatal(err)
	}

	buf := new(bytes.Buffer)
	if err := oldProg.Write(buf); err != nil {
		t.Fatalf("oldProg.Write: %v", err)
	}

	newProg, err := compile.ReadProgram(buf)
	if err != nil {
		t.Fatalf("ReadProgram: %v", err)
	}
	if diff := cmp.Diff(compile.DisassembleProgram(oldProg), compile.DisassembleProgram(newProg)); diff != "" {
		t.Errorf("program changed by serialization (-old +new):\n%s", diff)
	}
	if diff := cmp.Diff(oldProg.Constants, newProg.Constants); diff != "" {
		t.Errorf("constants changed by serialization (-old +new):\n%s", diff)
	}

	thread := new(vm.Thread)
	v, err := vm.Run(thread, newProg)
	cpmtest.Check(t, err)
	if got, want := v, vm.Value(vm.Int64(42)); got != want {
		t.Errorf("result was %s, want %s", got, want)
	}
	if got, want := thread.Static(newProg.Fields[0]), vm.Value(vm.String("hi")); got != want {
		t.Errorf("greeting was %s, want %s", got, want)
	}
}

func TestGarbage(t *testing.T) {
	const garbage = "This is not a compiled CPM program."
	_, err := compile.ReadProgram(strings.NewReader(garbage))
	if err == nil {
		t.Fatalf("ReadProgram did not report an error when decoding garbage")
	}
	if !strings.Contains(err.Error(), "not a compiled module") {
		t.Fatalf("ReadProgram reported the wrong error when decoding garbage: %v", err)
	}
}

func TestTruncatedImage(t *testing.T) {
	prog, err := cpmtest.Compile("t.cpm", `namespace N { class P { fn main() = return; } }`)
	if err != nil {
		t.Fatal(err)
	}
	data := prog.Encode()
	// Prefixes ending on a record boundary decode to smaller programs;
	// the others must fail without panicking.
	for n := 0; n < len(data); n++ {
		compile.DecodeProgram(data[:n])
	}
	if _, err := compile.DecodeProgram(append(data[:4:4], 0x7f)); err == nil || !strings.Contains(err.Error(), "version") {
		t.Errorf("future version: got %v", err)
	}
}
