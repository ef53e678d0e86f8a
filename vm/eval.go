// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vm executes compiled CPM programs.
//
// A program runs on a Thread. Run initializes the program's static
// fields, runs each type initializer in definition order, then calls
// the entry point and returns its result.
package vm // import "go.cpmlang.net/vm"

import (
	"bytes"
	"fmt"
	"sync/atomic"

	"go.cpmlang.net/emit"
	"go.cpmlang.net/internal/compile"
)

// DefaultMaxDepth is the call depth limit of a Thread whose MaxDepth is zero.
const DefaultMaxDepth = 1000

// A Thread contains the state of a CPM thread:
// its call stack and the static fields of the program it runs.
type Thread struct {
	// Name is an optional name that describes the thread, for debugging.
	Name string

	// MaxDepth limits the depth of the call stack.
	// If zero, DefaultMaxDepth is used.
	MaxDepth int

	prog    *compile.Program
	statics []Value
	code    map[*compile.Method][]compile.Insn
	frame   *Frame // innermost frame
	depth   int
	steps   uint64
	cancel  atomic.Pointer[string]
}

// Cancel causes execution of the thread to fail with an error at the
// next instruction. It may be called from any goroutine.
func (thread *Thread) Cancel(reason string) {
	thread.cancel.CompareAndSwap(nil, &reason)
}

// Steps returns the number of instructions the thread has executed.
func (thread *Thread) Steps() uint64 { return thread.steps }

// Caller returns the innermost frame, or nil if the thread is idle.
func (thread *Thread) Caller() *Frame { return thread.frame }

// A Frame holds the execution state of a single method call.
type Frame struct {
	parent *Frame
	method *compile.Method
	pc     int // offset of the current instruction
}

// Method returns the qualified name of the frame's method.
func (fr *Frame) Method() string { return fr.method.QualifiedName() }

// PC returns the code offset of the current instruction of the frame.
func (fr *Frame) PC() int { return fr.pc }

// Parent returns the frame of the calling method, if any.
func (fr *Frame) Parent() *Frame { return fr.parent }

// An EvalError is a CPM evaluation error and its associated call stack.
type EvalError struct {
	Msg   string
	Frame *Frame
}

func (e *EvalError) Error() string { return e.Msg }

// Backtrace returns a user-friendly error message describing the stack
// of calls that led to this error.
func (e *EvalError) Backtrace() string {
	var buf bytes.Buffer
	e.Frame.WriteBacktrace(&buf)
	fmt.Fprintf(&buf, "Error: %s", e.Msg)
	return buf.String()
}

// WriteBacktrace writes a user-friendly description of the stack to buf.
func (fr *Frame) WriteBacktrace(out *bytes.Buffer) {
	fmt.Fprintf(out, "Traceback (most recent call last):\n")
	var print func(fr *Frame)
	print = func(fr *Frame) {
		if fr != nil {
			print(fr.parent)
			fmt.Fprintf(out, "  pc %d: in %s\n", fr.pc, fr.Method())
		}
	}
	print(fr)
}

// Stack returns the stack of frames, innermost first.
func (e *EvalError) Stack() []*Frame {
	var stack []*Frame
	for fr := e.Frame; fr != nil; fr = fr.parent {
		stack = append(stack, fr)
	}
	return stack
}

// Run executes prog on the thread: it runs the type initializers, then
// calls the entry point with no arguments and returns its result.
// Evaluation errors are reported as *EvalError.
func Run(thread *Thread, prog *compile.Program) (Value, error) {
	if err := Init(thread, prog); err != nil {
		return nil, err
	}
	if prog.Entry == nil {
		return nil, fmt.Errorf("program %s has no entry point", prog.Name)
	}
	return Call(thread, prog.Entry, nil)
}

// Init prepares the thread to execute prog: it sets every static field
// to the zero value of its type and runs the type initializers in
// definition order.
func Init(thread *Thread, prog *compile.Program) error {
	thread.prog = prog
	thread.code = make(map[*compile.Method][]compile.Insn)
	thread.statics = make([]Value, len(prog.Fields))
	for i, f := range prog.Fields {
		thread.statics[i] = Zero(f.Type)
	}
	for _, t := range prog.Types {
		if t.Init != nil {
			if _, err := Call(thread, t.Init, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// Static returns the current value of a static field of the program the
// thread is running.
func (thread *Thread) Static(f *compile.Field) Value { return thread.statics[f.Index] }

// Call calls method m of the thread's program with the given arguments,
// including the receiver of an instance method.
func Call(thread *Thread, m *compile.Method, args []Value) (Value, error) {
	if thread.prog == nil || m.Owner.Prog != thread.prog {
		return nil, fmt.Errorf("method %s does not belong to the thread's program", m.QualifiedName())
	}
	if len(args) != m.NumArgs() {
		return nil, fmt.Errorf("%s: got %d arguments, want %d", m.QualifiedName(), len(args), m.NumArgs())
	}
	limit := thread.MaxDepth
	if limit == 0 {
		limit = DefaultMaxDepth
	}
	if thread.depth >= limit {
		return nil, &EvalError{Msg: fmt.Sprintf("call stack exceeds maximum depth %d", limit), Frame: thread.frame}
	}

	fr := &Frame{parent: thread.frame, method: m}
	thread.frame = fr
	thread.depth++
	defer func() {
		thread.frame = fr.parent
		thread.depth--
	}()

	result, err := interpret(thread, fr, args)
	if err != nil {
		if _, ok := err.(*EvalError); !ok {
			err = &EvalError{Msg: err.Error(), Frame: fr}
		}
	}
	return result, err
}

var binaryOps = [...]string{
	emit.ADD: "+",
	emit.SUB: "-",
	emit.MUL: "*",
	emit.DIV: "/",
}

func interpret(thread *Thread, fr *Frame, args []Value) (Value, error) {
	m := fr.method
	insns, ok := thread.code[m]
	if !ok {
		var err error
		if insns, err = compile.Decode(m.Code); err != nil {
			return nil, err
		}
		thread.code[m] = insns
	}
	prog := thread.prog
	locals := make([]Value, len(m.Locals))
	for i, t := range m.Locals {
		locals[i] = Zero(t)
	}
	var stack []Value
	pop := func() (Value, error) {
		if len(stack) == 0 {
			return nil, fmt.Errorf("stack underflow")
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}

	for _, insn := range insns {
		fr.pc = insn.PC
		thread.steps++
		if reason := thread.cancel.Load(); reason != nil {
			return nil, fmt.Errorf("CPM computation cancelled: %s", *reason)
		}

		switch insn.Op {
		case emit.NOP:

		case emit.POP:
			if _, err := pop(); err != nil {
				return nil, err
			}

		case emit.ADD, emit.SUB, emit.MUL, emit.DIV:
			y, err := pop()
			if err != nil {
				return nil, err
			}
			x, err := pop()
			if err != nil {
				return nil, err
			}
			z, err := Binary(binaryOps[insn.Op], x, y)
			if err != nil {
				return nil, err
			}
			stack = append(stack, z)

		case emit.RET:
			if m.Result.IsVoid() {
				return None, nil
			}
			return pop()

		case emit.CONV_I4, emit.CONV_I8, emit.CONV_R4, emit.CONV_R8:
			x, err := pop()
			if err != nil {
				return nil, err
			}
			if rank(x) == 0 {
				return nil, fmt.Errorf("cannot convert %s with %s", x.Type(), insn.Op)
			}
			stack = append(stack, convert(x, int(insn.Op-emit.CONV_I4)+1))

		case emit.LDC_I4, emit.LDC_R8, emit.LDSTR:
			if int(insn.Arg) >= len(prog.Constants) {
				return nil, fmt.Errorf("constant index %d out of range", insn.Arg)
			}
			var v Value
			switch c := prog.Constants[insn.Arg].(type) {
			case int32:
				v = Int32(c)
			case float64:
				v = Float64(c)
			case string:
				v = String(c)
			}
			stack = append(stack, v)

		case emit.LDARG, emit.STARG:
			if int(insn.Arg) >= len(args) {
				return nil, fmt.Errorf("argument index %d out of range", insn.Arg)
			}
			if insn.Op == emit.LDARG {
				stack = append(stack, args[insn.Arg])
			} else {
				v, err := pop()
				if err != nil {
					return nil, err
				}
				args[insn.Arg] = v
			}

		case emit.LDLOC, emit.STLOC:
			if int(insn.Arg) >= len(locals) {
				return nil, fmt.Errorf("local index %d out of range", insn.Arg)
			}
			if insn.Op == emit.LDLOC {
				stack = append(stack, locals[insn.Arg])
			} else {
				v, err := pop()
				if err != nil {
					return nil, err
				}
				locals[insn.Arg] = v
			}

		case emit.LDSFLD, emit.STSFLD:
			if int(insn.Arg) >= len(thread.statics) {
				return nil, fmt.Errorf("field index %d out of range", insn.Arg)
			}
			if insn.Op == emit.LDSFLD {
				stack = append(stack, thread.statics[insn.Arg])
			} else {
				v, err := pop()
				if err != nil {
					return nil, err
				}
				thread.statics[insn.Arg] = v
			}

		case emit.CALL:
			if int(insn.Arg) >= len(prog.Methods) {
				return nil, fmt.Errorf("method index %d out of range", insn.Arg)
			}
			callee := prog.Methods[insn.Arg]
			n := callee.NumArgs()
			if len(stack) < n {
				return nil, fmt.Errorf("stack underflow")
			}
			calleeArgs := append([]Value(nil), stack[len(stack)-n:]...)
			stack = stack[:len(stack)-n]
			result, err := Call(thread, callee, calleeArgs)
			if err != nil {
				return nil, err
			}
			if !callee.Result.IsVoid() {
				stack = append(stack, result)
			}

		default:
			return nil, fmt.Errorf("illegal op (%d)", insn.Op)
		}
	}

	if m.Result.IsVoid() {
		return None, nil
	}
	return nil, fmt.Errorf("%s returned no value", m.QualifiedName())
}
