// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.cpmlang.net/emit"
	"go.cpmlang.net/types"
)

var (
	int32T  = types.MustLookup(types.System(), types.Int32Name)
	doubleT = types.MustLookup(types.System(), types.DoubleName)
	voidT   = types.MustLookup(types.System(), types.VoidName)
)

// TestEmitAndDisassemble checks the encoding of each operand kind.
func TestEmitAndDisassemble(t *testing.T) {
	mod := NewModule("Test")
	tb, err := mod.DefineType("Program")
	if err != nil {
		t.Fatal(err)
	}
	x, err := tb.DefineField("x", int32T, emit.FieldPublic|emit.FieldStatic)
	if err != nil {
		t.Fatal(err)
	}
	f, err := tb.DefineMethod("f", emit.MethodPublic|emit.MethodStatic, doubleT, []*types.Type{int32T})
	if err != nil {
		t.Fatal(err)
	}
	main, err := tb.DefineMethod("main", emit.MethodPublic|emit.MethodStatic, int32T, nil)
	if err != nil {
		t.Fatal(err)
	}

	code := f.Code()
	code.EmitIndex(emit.LDARG, 0)
	code.Emit(emit.CONV_R8)
	code.EmitFloat64(emit.LDC_R8, 3.5)
	code.Emit(emit.ADD)
	code.Emit(emit.RET)

	code = main.Code()
	tmp := code.DeclareLocal(int32T)
	code.EmitInt32(emit.LDC_I4, 200)
	code.EmitLocal(emit.STLOC, tmp)
	code.EmitLocal(emit.LDLOC, tmp)
	code.EmitField(emit.STSFLD, x)
	code.EmitField(emit.LDSFLD, x)
	code.EmitCall(emit.CALL, f)
	code.Emit(emit.POP)
	code.EmitString(emit.LDSTR, "hi\n")
	code.Emit(emit.POP)
	code.EmitInt32(emit.LDC_I4, 200) // constant is shared
	code.Emit(emit.RET)
	if err := code.Err(); err != nil {
		t.Fatal(err)
	}
	if got, want := code.Len(), 11; got != want {
		t.Errorf("Len = %d, want %d", got, want)
	}
	if got := code.Last(); got != emit.RET {
		t.Errorf("Last = %s, want ret", got)
	}
	if err := mod.SetEntryPoint(main); err != nil {
		t.Fatal(err)
	}
	if err := tb.Finalize(); err != nil {
		t.Fatal(err)
	}

	prog := mod.Program()
	if got, want := len(prog.Constants), 3; got != want {
		t.Errorf("got %d constants, want %d: %v", got, want, prog.Constants)
	}
	want := `Program.f: ldarg 0; conv.r8; ldc.r8 3.5; add; ret
Program.main: ldc.i4 200; stloc 0; ldloc 0; stsfld Program.x; ldsfld Program.x; call Program.f; pop; ldstr "hi\n"; pop; ldc.i4 200; ret
entry: Program.main
`
	if diff := cmp.Diff(want, DisassembleProgram(prog)); diff != "" {
		t.Errorf("disassembly mismatch (-want +got):\n%s", diff)
	}
}

func TestTypeInitializer(t *testing.T) {
	mod := NewModule("Test")
	tb, _ := mod.DefineType("Program")
	x, _ := tb.DefineField("x", int32T, emit.FieldStatic)
	init1, err := tb.DefineTypeInitializer()
	if err != nil {
		t.Fatal(err)
	}
	init1.Code().EmitInt32(emit.LDC_I4, 2)
	init2, _ := tb.DefineTypeInitializer()
	init2.Code().EmitField(emit.STSFLD, x)
	init2.Code().Emit(emit.RET)
	if err := tb.Finalize(); err != nil {
		t.Fatal(err)
	}
	typ := mod.Program().Types[0]
	if typ.Init == nil {
		t.Fatal("no type initializer")
	}
	if got, want := DisassembleMethod(typ.Init), "ldc.i4 2; stsfld Program.x; ret"; got != want {
		t.Errorf("initializer = %q, want %q", got, want)
	}
	if len(typ.Methods) != 0 {
		t.Errorf("initializer listed among methods: %v", typ.Methods)
	}
	if typ.Init.Name != TypeInitializerName || !typ.Init.Static || typ.Init.Result != voidT {
		t.Errorf("bad initializer signature: %+v", typ.Init)
	}
}

func TestEmitErrors(t *testing.T) {
	mod := NewModule("Test")
	tb, _ := mod.DefineType("Program")
	if _, err := mod.DefineType("Program"); err == nil {
		t.Error("duplicate type accepted")
	}
	tb.DefineField("x", int32T, emit.FieldStatic)
	if _, err := tb.DefineField("x", int32T, emit.FieldStatic); err == nil {
		t.Error("duplicate field accepted")
	}
	m, _ := tb.DefineMethod("m", emit.MethodStatic, voidT, []*types.Type{int32T})
	inst, _ := tb.DefineMethod("i", 0, voidT, nil)

	for _, test := range []struct {
		emit func(c emit.CodeBuilder)
		want string
	}{
		{func(c emit.CodeBuilder) { c.EmitIndex(emit.LDARG, 1) }, "argument index 1 out of range"},
		{func(c emit.CodeBuilder) { c.EmitInt32(emit.LDC_R8, 1) }, "does not take a int32 operand"},
		{func(c emit.CodeBuilder) { c.Emit(emit.CALL) }, "does not take a missing operand"},
		{func(c emit.CodeBuilder) { c.EmitLocal(emit.LDLOC, inst.Code().DeclareLocal(int32T)) }, "local does not belong"},
	} {
		mb, _ := tb.DefineMethod("t"+string(rune('a'+len(mod.Program().Methods))), emit.MethodStatic, voidT, nil)
		c := mb.Code()
		test.emit(c)
		if c.Err() == nil || !strings.Contains(c.Err().Error(), test.want) {
			t.Errorf("got error %v, want %q", c.Err(), test.want)
		}
		// errors are sticky
		c.Emit(emit.RET)
		if c.Len() != 0 {
			t.Errorf("emission continued after error")
		}
	}

	// Instance methods have a receiver slot.
	inst.Code().EmitIndex(emit.LDARG, 0)
	if err := inst.Code().Err(); err != nil {
		t.Errorf("ldarg 0 in instance method: %v", err)
	}
	if err := mod.SetEntryPoint(inst); err == nil {
		t.Error("instance method accepted as entry point")
	}

	other := NewModule("Other")
	otb, _ := other.DefineType("Program")
	om, _ := otb.DefineMethod("m", emit.MethodStatic, voidT, nil)
	if err := mod.SetEntryPoint(om); err == nil {
		t.Error("foreign method accepted as entry point")
	}
	m.Code().EmitCall(emit.CALL, om)
	if m.Code().Err() == nil {
		t.Error("call to foreign method accepted")
	}

	if err := tb.Finalize(); err != nil {
		t.Fatal(err)
	}
	var merr *ModuleError
	if err := tb.Finalize(); !errors.As(err, &merr) {
		t.Errorf("second Finalize returned %v, want *ModuleError", err)
	}
	if _, err := tb.DefineMethod("late", emit.MethodStatic, voidT, nil); err == nil {
		t.Error("method defined on finalized type")
	}
	c := inst.Code()
	c.Emit(emit.RET)
	if c.Err() == nil || !strings.Contains(c.Err().Error(), "finalized") {
		t.Errorf("emission into finalized type: got %v", c.Err())
	}
}

func TestDecodeTruncated(t *testing.T) {
	if _, err := Decode([]byte{byte(emit.LDC_I4), 0x80}); err == nil {
		t.Error("truncated operand not reported")
	}
	if _, err := Decode([]byte{byte(emit.OpcodeMax + 1)}); err == nil {
		t.Error("illegal opcode not reported")
	}
	insns, err := Decode([]byte{byte(emit.LDC_I4), 0x81, 0x01, byte(emit.RET)})
	if err != nil {
		t.Fatal(err)
	}
	want := []Insn{{PC: 0, Op: emit.LDC_I4, Arg: 129}, {PC: 3, Op: emit.RET}}
	if diff := cmp.Diff(want, insns); diff != "" {
		t.Errorf("Decode mismatch (-want +got):\n%s", diff)
	}
}
