// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"fmt"

	"go.cpmlang.net/emit"
	"go.cpmlang.net/resolve"
	"go.cpmlang.net/syntax"
	"go.cpmlang.net/types"
)

// A State is the phase of a compilation run.
type State uint8

const (
	Idle State = iota
	DefiningNamespace
	DefiningClass
	DeclaringMembers
	GeneratingMethodBodies
	Finalized
)

var stateNames = [...]string{
	Idle:                   "idle",
	DefiningNamespace:      "defining namespace",
	DefiningClass:          "defining class",
	DeclaringMembers:       "declaring members",
	GeneratingMethodBodies: "generating method bodies",
	Finalized:              "finalized",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// A Context holds the state of one compilation run: the emitter session,
// the host type namespace, and the type, method and scopes currently
// being compiled.
//
// Each change to the current type, method or scopes is made by a push
// method that returns the function restoring the enclosing value; callers
// defer it, so the enclosing value is restored on every exit path.
//
// A Context must not be used concurrently.
type Context struct {
	mod emit.Module
	ns  types.Namespace

	state   State
	classes *resolve.Scope[*syntax.ClassDecl]
	typ     emit.TypeBuilder
	method  emit.MethodBuilder
	locals  *resolve.Scope[Binding]
	fields  *resolve.Scope[emit.Field]
	methods *resolve.Scope[emit.MethodBuilder]
	entry   emit.Method

	void *types.Type
}

// NewContext returns a Context that emits into mod and resolves type
// names in ns. The namespace must provide the System host types.
func NewContext(mod emit.Module, ns types.Namespace) *Context {
	return &Context{
		mod:     mod,
		ns:      ns,
		classes: resolve.NewScope[*syntax.ClassDecl](),
		locals:  resolve.NewScope[Binding](),
		fields:  resolve.NewScope[emit.Field](),
		methods: resolve.NewScope[emit.MethodBuilder](),
		void:    types.MustLookup(ns, types.VoidName),
	}
}

// State returns the phase of the run.
func (c *Context) State() State { return c.state }

// EntryPoint returns the method designated as the program's entry
// point, or nil if none has been generated.
func (c *Context) EntryPoint() emit.Method { return c.entry }

func (c *Context) setState(s State) func() {
	saved := c.state
	c.state = s
	return func() { c.state = saved }
}

func (c *Context) pushType(tb emit.TypeBuilder) func() {
	saved := c.typ
	c.typ = tb
	return func() { c.typ = saved }
}

func (c *Context) pushMethod(mb emit.MethodBuilder) func() {
	saved := c.method
	c.method = mb
	return func() { c.method = saved }
}

func (c *Context) pushLocals() func() {
	saved := c.locals
	c.locals = saved.CreateChild()
	return func() { c.locals = saved }
}

// pushMembers opens the declared-field and declared-method tables of a
// class.
func (c *Context) pushMembers() func() {
	savedFields, savedMethods := c.fields, c.methods
	c.fields = savedFields.CreateChild()
	c.methods = savedMethods.CreateChild()
	return func() {
		c.fields = savedFields
		c.methods = savedMethods
	}
}

// code returns the instruction stream of the current method.
func (c *Context) code() emit.CodeBuilder { return c.method.Code() }
