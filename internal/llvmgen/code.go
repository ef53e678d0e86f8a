// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package llvmgen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"go.cpmlang.net/emit"
	cpmtypes "go.cpmlang.net/types"
)

// A codeBuilder translates the instructions of one method.
// The operand stack holds SSA values rather than runtime values.
type codeBuilder struct {
	mb    *methodBuilder
	block *ir.Block // current block; nil after a ret
	stack []value.Value
	dead  int // number of blocks opened after a ret
	n     int
	last  emit.Opcode
	err   error
}

func (c *codeBuilder) DeclareLocal(typ *cpmtypes.Type) emit.Local {
	mb := c.mb
	l := &local{
		mb:    mb,
		index: len(mb.locals),
		typ:   typ,
		slot:  mb.alloca(irType(typ), fmt.Sprintf("loc%d", len(mb.locals))),
	}
	mb.locals = append(mb.locals, l)
	return l
}

func (c *codeBuilder) Len() int          { return c.n }
func (c *codeBuilder) Last() emit.Opcode { return c.last }
func (c *codeBuilder) Err() error        { return c.err }

func (c *codeBuilder) fail(op emit.Opcode, format string, args ...interface{}) {
	if c.err == nil {
		c.err = &ModuleError{"emit " + op.String(), fmt.Sprintf(format, args...)}
	}
}

// begin checks an instruction before translation and returns the block
// that receives it. Code following a ret goes into a fresh unreachable
// block.
func (c *codeBuilder) begin(op emit.Opcode, operand string) *ir.Block {
	if c.err != nil {
		return nil
	}
	if c.mb.owner.finalized {
		c.fail(op, "type %s is finalized", c.mb.owner.name)
		return nil
	}
	if err := emit.CheckOperand(op, operand); err != nil {
		c.err = err
		return nil
	}
	if c.block == nil {
		c.dead++
		c.block = c.mb.fn.NewBlock(fmt.Sprintf("dead%d", c.dead))
		c.stack = nil
	}
	c.n++
	c.last = op
	return c.block
}

func (c *codeBuilder) push(v value.Value) { c.stack = append(c.stack, v) }

func (c *codeBuilder) pop(op emit.Opcode) (value.Value, bool) {
	if len(c.stack) == 0 {
		c.fail(op, "operand stack underflow in %s.%s", c.mb.owner.name, c.mb.name)
		return nil, false
	}
	v := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return v, true
}

// finish closes the method body. The entry block falls through to the
// body, which must end in ret.
func (c *codeBuilder) finish() error {
	if c.err != nil {
		return c.err
	}
	mb := c.mb
	mb.entry.NewBr(mb.fn.Blocks[1])
	if c.block != nil {
		return &ModuleError{"finalize", fmt.Sprintf("method %s.%s does not end with ret", mb.owner.name, mb.name)}
	}
	return nil
}

func (c *codeBuilder) Emit(op emit.Opcode) {
	b := c.begin(op, "")
	if b == nil {
		return
	}
	switch op {
	case emit.NOP:

	case emit.POP:
		c.pop(op)

	case emit.ADD, emit.SUB, emit.MUL, emit.DIV:
		y, ok1 := c.pop(op)
		x, ok2 := c.pop(op)
		if !ok1 || !ok2 {
			return
		}
		z, err := arith(b, op, x, y)
		if err != nil {
			c.fail(op, "%v", err)
			return
		}
		c.push(z)

	case emit.RET:
		if c.mb.result.IsVoid() {
			b.NewRet(nil)
		} else if v, ok := c.pop(op); ok {
			b.NewRet(v)
		} else {
			return
		}
		c.block = nil

	case emit.CONV_I4, emit.CONV_I8, emit.CONV_R4, emit.CONV_R8:
		x, ok := c.pop(op)
		if !ok {
			return
		}
		to := [...]types.Type{types.I32, types.I64, types.Float, types.Double}[op-emit.CONV_I4]
		z, err := convert(b, x, to)
		if err != nil {
			c.fail(op, "%v", err)
			return
		}
		c.push(z)

	default:
		c.fail(op, "unexpected opcode")
	}
}

func (c *codeBuilder) EmitInt32(op emit.Opcode, v int32) {
	if c.begin(op, "int32") != nil {
		c.push(constant.NewInt(types.I32, int64(v)))
	}
}

func (c *codeBuilder) EmitFloat64(op emit.Opcode, v float64) {
	if c.begin(op, "float64") != nil {
		c.push(constant.NewFloat(types.Double, v))
	}
}

func (c *codeBuilder) EmitString(op emit.Opcode, s string) {
	if c.begin(op, "string") != nil {
		c.push(c.mb.owner.mod.stringConstant(s))
	}
}

func (c *codeBuilder) EmitIndex(op emit.Opcode, i int) {
	if i < 0 || i >= len(c.mb.args) {
		c.fail(op, "argument index %d out of range for %s.%s", i, c.mb.owner.name, c.mb.name)
		return
	}
	if b := c.begin(op, "index"); b != nil {
		c.access(b, op, op == emit.LDARG, c.mb.args[i].ElemType, c.mb.args[i])
	}
}

func (c *codeBuilder) EmitLocal(op emit.Opcode, l emit.Local) {
	ref, ok := l.(*local)
	if !ok || ref.mb != c.mb {
		c.fail(op, "local does not belong to %s.%s", c.mb.owner.name, c.mb.name)
		return
	}
	if b := c.begin(op, "local"); b != nil {
		c.access(b, op, op == emit.LDLOC, ref.slot.ElemType, ref.slot)
	}
}

func (c *codeBuilder) EmitField(op emit.Opcode, f emit.Field) {
	ref, ok := f.(*field)
	if !ok || ref.owner.mod != c.mb.owner.mod {
		c.fail(op, "field %s does not belong to module %s", f.Name(), c.mb.owner.mod.name)
		return
	}
	if ref.global == nil {
		c.fail(op, "field %s.%s is not static", ref.owner.name, ref.name)
		return
	}
	if b := c.begin(op, "field"); b != nil {
		c.access(b, op, op == emit.LDSFLD, ref.global.ContentType, ref.global)
	}
}

// access loads from or stores to a memory location of type t.
func (c *codeBuilder) access(b *ir.Block, op emit.Opcode, load bool, t types.Type, addr value.Value) {
	if load {
		c.push(b.NewLoad(t, addr))
		return
	}
	if v, ok := c.pop(op); ok {
		b.NewStore(v, addr)
	}
}

func (c *codeBuilder) EmitCall(op emit.Opcode, m emit.Method) {
	callee, ok := m.(*methodBuilder)
	if !ok || callee.owner.mod != c.mb.owner.mod {
		c.fail(op, "method %s does not belong to module %s", m.Name(), c.mb.owner.mod.name)
		return
	}
	b := c.begin(op, "method")
	if b == nil {
		return
	}
	n := len(callee.fn.Params)
	if len(c.stack) < n {
		c.fail(op, "operand stack underflow in call of %s.%s", callee.owner.name, callee.name)
		return
	}
	args := append([]value.Value(nil), c.stack[len(c.stack)-n:]...)
	c.stack = c.stack[:len(c.stack)-n]
	call := b.NewCall(callee.fn, args...)
	if !callee.result.IsVoid() {
		c.push(call)
	}
}

// rank orders the arithmetic types by promotion; 0 means not arithmetic.
func rank(t types.Type) int {
	switch {
	case t.Equal(types.I32):
		return 1
	case t.Equal(types.I64):
		return 2
	case t.Equal(types.Float):
		return 3
	case t.Equal(types.Double):
		return 4
	}
	return 0
}

var rankTypes = [...]types.Type{1: types.I32, 2: types.I64, 3: types.Float, 4: types.Double}

// arith emits a binary arithmetic instruction after promoting both
// operands to the wider of their types. An integer and a floating
// operand are both promoted to double.
func arith(b *ir.Block, op emit.Opcode, x, y value.Value) (value.Value, error) {
	rx, ry := rank(x.Type()), rank(y.Type())
	if rx == 0 || ry == 0 {
		return nil, fmt.Errorf("operands of %s have types %s and %s", op, x.Type(), y.Type())
	}
	r := max(rx, ry)
	if min(rx, ry) <= 2 && r >= 3 {
		r = 4
	}
	t := rankTypes[r]
	x, _ = convert(b, x, t)
	y, _ = convert(b, y, t)
	if r <= 2 {
		switch op {
		case emit.ADD:
			return b.NewAdd(x, y), nil
		case emit.SUB:
			return b.NewSub(x, y), nil
		case emit.MUL:
			return b.NewMul(x, y), nil
		}
		return b.NewSDiv(x, y), nil
	}
	switch op {
	case emit.ADD:
		return b.NewFAdd(x, y), nil
	case emit.SUB:
		return b.NewFSub(x, y), nil
	case emit.MUL:
		return b.NewFMul(x, y), nil
	}
	return b.NewFDiv(x, y), nil
}

// convert emits the conversion of an arithmetic value to type to.
func convert(b *ir.Block, x value.Value, to types.Type) (value.Value, error) {
	from, dst := rank(x.Type()), rank(to)
	switch {
	case from == 0 || dst == 0:
		return nil, fmt.Errorf("cannot convert %s to %s", x.Type(), to)
	case from == dst:
		return x, nil
	case from <= 2 && dst <= 2:
		if dst > from {
			return b.NewSExt(x, to), nil
		}
		return b.NewTrunc(x, to), nil
	case from <= 2:
		return b.NewSIToFP(x, to), nil
	case dst <= 2:
		return b.NewFPToSI(x, to), nil
	case dst > from:
		return b.NewFPExt(x, to), nil
	}
	return b.NewFPTrunc(x, to), nil
}
