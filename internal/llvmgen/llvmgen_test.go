// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package llvmgen_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.cpmlang.net/codegen"
	"go.cpmlang.net/emit"
	"go.cpmlang.net/internal/llvmgen"
	"go.cpmlang.net/syntax"
	"go.cpmlang.net/types"
)

// generate compiles src to LLVM IR text.
func generate(t *testing.T, src string) string {
	t.Helper()
	root, err := syntax.Parse("test.cpm", src)
	require.NoError(t, err)
	mod := llvmgen.NewModule(root.Name.Name)
	require.NoError(t, codegen.Generate(mod, types.System(), root))
	var buf strings.Builder
	require.NoError(t, mod.Write(&buf))
	return buf.String()
}

func TestProgram(t *testing.T) {
	out := generate(t, `namespace Demo { class Program {
  static let x:System.Int32 = 2;
  static let greeting:System.String = "hi";
  fn main():System.Int32 = { x <- 42; return x; }
} }`)
	for _, want := range []string{
		"@Program.x = global i32 0",
		`c"hi\00"`,
		"define void @Program..cctor()",
		"store i32 2, i32* @Program.x",
		"define i32 @Program.main()",
		"store i32 42, i32* @Program.x",
		"load i32, i32* @Program.x",
		"define i32 @main()",
		"call void @Program..cctor()",
		"call i32 @Program.main()",
	} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "call void @Program..cctor()"), strings.Index(out, "call i32 @Program.main()"),
		"type initializer must run before the entry point")
}

func TestArithmetic(t *testing.T) {
	out := generate(t, `namespace N { class P {
  static fn f():System.Double = return 2 + 3.5;
  static fn g(a:System.Int64, b:System.Int32):System.Int64 = return a / b;
  static fn h(a:System.Double):System.Double = return a * 2;
} }`)
	for _, want := range []string{
		"sitofp i32 2 to double",
		"fadd double",
		"sext i32",
		"sdiv i64",
		"fmul double",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "define i32 @main()", "no entry point")
}

func TestMixedArithmetic(t *testing.T) {
	out := generate(t, `namespace N { class P {
  static fn f(s:System.Single):System.Double = return s + 1;
  static fn g(s:System.Single, d:System.Double):System.Double = return s * d;
  static fn h(a:System.Single, b:System.Single):System.Single = return a - b;
} }`)
	for _, want := range []string{
		"define double @P.f(float %a0)",
		"fpext float",
		"sitofp i32 1 to double",
		"fadd double",
		"fmul double",
		"fsub float",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "fadd float")

	f := out[strings.Index(out, "define double @P.f("):]
	f = f[:strings.Index(f, "\n}")]
	assert.Contains(t, f, "ret double")
	assert.NotContains(t, f, "ret float")
}

func TestLocalsAndArguments(t *testing.T) {
	out := generate(t, `namespace N { class P {
  static fn inc(n:System.Int32):System.Int32 = { n <- n + 1; return n; }
  fn main():System.Int64 = {
    let r:System.Int64 = inc(41);
    return r;
  }
} }`)
	for _, want := range []string{
		"define i32 @P.inc(i32 %a0)",
		"%arg0 = alloca i32",
		"store i32 %a0, i32* %arg0",
		"%loc0 = alloca i64",
		"call i32 @P.inc(i32 41)",
		"trunc i64",
	} {
		assert.Contains(t, out, want)
	}
}

func TestCodeAfterReturn(t *testing.T) {
	out := generate(t, `namespace N { class P {
  static fn f():System.Int32 = { return 1; return 2; }
} }`)
	assert.Contains(t, out, "dead1:")
	assert.Contains(t, out, "ret i32 2")
}

func TestEmitterErrors(t *testing.T) {
	int32T := types.MustLookup(types.System(), types.Int32Name)
	voidT := types.MustLookup(types.System(), types.VoidName)

	mod := llvmgen.NewModule("Errors")
	tb, err := mod.DefineType("P")
	require.NoError(t, err)
	_, err = mod.DefineType("P")
	require.Error(t, err)

	inst, err := tb.DefineMethod("inst", emit.MethodPublic, voidT, nil)
	require.NoError(t, err)
	require.Error(t, mod.SetEntryPoint(inst), "instance entry point")

	f, err := tb.DefineMethod("f", emit.MethodPublic|emit.MethodStatic, int32T, nil)
	require.NoError(t, err)
	code := f.Code()
	code.Emit(emit.ADD)
	require.EqualError(t, code.Err(), "emit add: operand stack underflow in P.f")

	g, err := tb.DefineMethod("g", emit.MethodPublic|emit.MethodStatic, int32T, nil)
	require.NoError(t, err)
	g.Code().EmitInt32(emit.LDSTR, 1)
	require.Error(t, g.Code().Err())

	_, err = mod.IR()
	require.Error(t, err, "IR of unfinalized module")
	require.Error(t, tb.Finalize())
}

func TestMissingRet(t *testing.T) {
	int32T := types.MustLookup(types.System(), types.Int32Name)
	mod := llvmgen.NewModule("M")
	tb, err := mod.DefineType("P")
	require.NoError(t, err)
	f, err := tb.DefineMethod("f", emit.MethodStatic, int32T, nil)
	require.NoError(t, err)
	f.Code().EmitInt32(emit.LDC_I4, 1)
	require.EqualError(t, tb.Finalize(), "finalize: method P.f does not end with ret")
}
