// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vm_test

import (
	"errors"
	"testing"

	"go.cpmlang.net/emit"
	"go.cpmlang.net/internal/compile"
	"go.cpmlang.net/internal/cpmtest"
	"go.cpmlang.net/types"
	"go.cpmlang.net/vm"
)

func TestBinary(t *testing.T) {
	for _, test := range []struct {
		op   string
		x, y vm.Value
		want string
	}{
		{"+", vm.Int32(40), vm.Int32(2), "42"},
		{"-", vm.Int32(2), vm.Int32(5), "-3"},
		{"*", vm.Int32(6), vm.Int64(7), "42"},
		{"/", vm.Int32(7), vm.Int32(2), "3"},
		{"/", vm.Int32(-7), vm.Int32(2), "-3"},
		{"+", vm.Int32(2), vm.Float64(3.5), "5.5"},
		{"+", vm.Float64(3.5), vm.Int32(2), "5.5"},
		{"/", vm.Float64(1), vm.Int32(4), "0.25"},
		{"*", vm.Float32(1.5), vm.Int64(2), "3"},
		{"+", vm.Float32(16777216), vm.Int32(1), "1.6777217e+07"},
		{"+", vm.Int32(2147483647), vm.Int32(1), "-2147483648"},
		{"+", vm.Int64(2147483647), vm.Int32(1), "2147483648"},
		{"/", vm.Int32(1), vm.Int32(0), "integer division by zero"},
		{"/", vm.Int64(1), vm.Int64(0), "integer division by zero"},
		{"+", vm.String("a"), vm.Int32(1), "unknown binary op: string + int32"},
		{"%", vm.Int32(1), vm.Int32(1), "unknown binary op: %"},
	} {
		z, err := vm.Binary(test.op, test.x, test.y)
		var got string
		if err != nil {
			got = err.Error()
		} else {
			got = z.String()
		}
		if got != test.want {
			t.Errorf("%s %s %s = %s, want %s", test.x, test.op, test.y, got, test.want)
		}
	}
}

func TestBinaryResultType(t *testing.T) {
	for _, test := range []struct {
		x, y vm.Value
		want string
	}{
		{vm.Int32(1), vm.Int32(1), "int32"},
		{vm.Int32(1), vm.Int64(1), "int64"},
		{vm.Int64(1), vm.Float32(1), "float64"},
		{vm.Float32(1), vm.Int32(1), "float64"},
		{vm.Float32(1), vm.Float32(1), "float32"},
		{vm.Float32(1), vm.Float64(1), "float64"},
	} {
		z, err := vm.Binary("+", test.x, test.y)
		if err != nil {
			t.Fatal(err)
		}
		if got := z.Type(); got != test.want {
			t.Errorf("%s + %s has type %s, want %s", test.x.Type(), test.y.Type(), got, test.want)
		}
	}
}

func TestExitCode(t *testing.T) {
	for _, test := range []struct {
		v    vm.Value
		want int
	}{
		{vm.Int32(42), 42},
		{vm.Int64(7), 7},
		{vm.Float64(3.9), 0},
		{vm.String("1"), 0},
		{vm.None, 0},
	} {
		if got := vm.ExitCode(test.v); got != test.want {
			t.Errorf("ExitCode(%s) = %d, want %d", test.v, got, test.want)
		}
	}
}

func TestZero(t *testing.T) {
	ns := types.System()
	for name, want := range map[string]vm.Value{
		types.Int32Name:   vm.Int32(0),
		types.Int64Name:   vm.Int64(0),
		types.SingleName:  vm.Float32(0),
		types.DoubleName:  vm.Float64(0),
		types.StringName:  vm.String(""),
		types.BooleanName: vm.Bool(false),
		types.ObjectName:  vm.None,
	} {
		if got := vm.Zero(types.MustLookup(ns, name)); got != want {
			t.Errorf("Zero(%s) = %v, want %v", name, got, want)
		}
	}
}

func TestRun(t *testing.T) {
	v, err := cpmtest.Exec("test.cpm", `namespace Demo { class Program {
  static let x:System.Int32 = 2;
  fn main():System.Int32 = { x <- 42; return x; }
} }`)
	cpmtest.Check(t, err)
	if v != vm.Int32(42) {
		t.Errorf("got %v, want 42", v)
	}
}

func TestStatics(t *testing.T) {
	prog, err := cpmtest.Compile("test.cpm", `namespace Demo { class Program {
  static let a:System.Int32 = 40;
  static let b:System.Double;
  static let c:System.Int64 = a + 2;
} }`)
	if err != nil {
		t.Fatal(err)
	}
	thread := new(vm.Thread)
	if err := vm.Init(thread, prog); err != nil {
		t.Fatal(err)
	}
	for i, want := range []vm.Value{vm.Int32(40), vm.Float64(0), vm.Int64(42)} {
		if got := thread.Static(prog.Fields[i]); got != want {
			t.Errorf("%s = %v (%s), want %v", prog.Fields[i].QualifiedName(), got, got.Type(), want)
		}
	}
}

func TestBacktrace(t *testing.T) {
	_, err := cpmtest.Exec("test.cpm", `namespace Demo { class Program {
  static fn f():System.Int32 = return 1 / 0;
  fn main():System.Int32 = return f();
} }`)
	var evalErr *vm.EvalError
	if !errors.As(err, &evalErr) {
		t.Fatalf("got %v, want *vm.EvalError", err)
	}
	const want = `Traceback (most recent call last):
  pc 0: in Program.main
  pc 4: in Program.f
Error: integer division by zero`
	if got := evalErr.Backtrace(); got != want {
		t.Errorf("Backtrace:\n%s\nwant:\n%s", got, want)
	}
	stack := evalErr.Stack()
	if len(stack) != 2 || stack[0].Method() != "Program.f" || stack[1].Parent() != nil {
		t.Errorf("unexpected stack %v", stack)
	}
}

func TestMaxDepth(t *testing.T) {
	prog, err := cpmtest.Compile("test.cpm", `namespace Demo { class Program {
  fn main():System.Int32 = return main();
} }`)
	if err != nil {
		t.Fatal(err)
	}
	thread := &vm.Thread{MaxDepth: 10}
	_, err = vm.Run(thread, prog)
	if err == nil || err.Error() != "call stack exceeds maximum depth 10" {
		t.Errorf("got %v", err)
	}
	if thread.Caller() != nil {
		t.Errorf("frames left on stack after error: %s", thread.Caller().Method())
	}
}

func TestCancel(t *testing.T) {
	prog, err := cpmtest.Compile("test.cpm", `namespace Demo { class Program {
  fn main():System.Int32 = return 42;
} }`)
	if err != nil {
		t.Fatal(err)
	}
	thread := new(vm.Thread)
	thread.Cancel("stop")
	thread.Cancel("ignored")
	_, err = vm.Run(thread, prog)
	if err == nil || err.Error() != "CPM computation cancelled: stop" {
		t.Errorf("got %v", err)
	}
	if got := thread.Steps(); got != 1 {
		t.Errorf("Steps = %d, want 1", got)
	}
}

func TestNoValue(t *testing.T) {
	int32T := types.MustLookup(types.System(), types.Int32Name)
	mod := compile.NewModule("Raw")
	tb, err := mod.DefineType("Program")
	if err != nil {
		t.Fatal(err)
	}
	main, err := tb.DefineMethod("main", emit.MethodPublic|emit.MethodStatic, int32T, nil)
	if err != nil {
		t.Fatal(err)
	}
	main.Code().Emit(emit.NOP)
	if err := mod.SetEntryPoint(main); err != nil {
		t.Fatal(err)
	}
	if err := tb.Finalize(); err != nil {
		t.Fatal(err)
	}
	_, err = vm.Run(new(vm.Thread), mod.Program())
	if err == nil || err.Error() != "Program.main returned no value" {
		t.Errorf("got %v", err)
	}
}

func TestCallForeignMethod(t *testing.T) {
	src := `namespace Demo { class Program { fn main():System.Int32 = return 1; } }`
	p1, err := cpmtest.Compile("a.cpm", src)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := cpmtest.Compile("b.cpm", src)
	if err != nil {
		t.Fatal(err)
	}
	thread := new(vm.Thread)
	if err := vm.Init(thread, p1); err != nil {
		t.Fatal(err)
	}
	if _, err := vm.Call(thread, p2.Entry, nil); err == nil {
		t.Error("call of another program's method succeeded")
	}
	if _, err := vm.Call(thread, p1.Entry, []vm.Value{vm.Int32(1)}); err == nil {
		t.Error("call with extra argument succeeded")
	}
}
