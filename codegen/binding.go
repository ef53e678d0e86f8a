// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"go.cpmlang.net/emit"
	"go.cpmlang.net/syntax"
	"go.cpmlang.net/types"
)

// An AccessMode says whether an access to a binding reads or writes it.
type AccessMode uint8

const (
	Load AccessMode = iota
	Store
)

func (m AccessMode) String() string {
	if m == Store {
		return "store"
	}
	return "load"
}

// A Binding is the storage location or method an identifier denotes.
//
// Bindings are shared by every reference to a name. An assignment
// target obtains its store view through AsLValue, which returns a copy
// and leaves the shared binding untouched.
type Binding interface {
	// AsLValue returns a copy of the binding tagged Store, or false if
	// the binding cannot be assigned.
	AsLValue() (Binding, bool)
	binding()
}

// A FieldBinding binds a field of the class being compiled.
type FieldBinding struct {
	Decl  *syntax.FieldDecl
	Field emit.Field
	Mode  AccessMode
}

// A ParamBinding binds a method parameter.
// Index is the parameter's position in the declaration, not counting
// the receiver of an instance method.
type ParamBinding struct {
	Name  string
	Type  *types.Type
	Index int
	Mode  AccessMode
}

// A LocalBinding binds a local variable.
type LocalBinding struct {
	Name  string
	Local emit.Local
	Mode  AccessMode
}

// A MethodBinding binds a method of the class being compiled.
type MethodBinding struct {
	Decl   *syntax.MethodDecl
	Method emit.Method
}

func (*FieldBinding) binding()  {}
func (*ParamBinding) binding()  {}
func (*LocalBinding) binding()  {}
func (*MethodBinding) binding() {}

func (b *FieldBinding) AsLValue() (Binding, bool) {
	lv := *b
	lv.Mode = Store
	return &lv, true
}

func (b *ParamBinding) AsLValue() (Binding, bool) {
	lv := *b
	lv.Mode = Store
	return &lv, true
}

func (b *LocalBinding) AsLValue() (Binding, bool) {
	lv := *b
	lv.Mode = Store
	return &lv, true
}

func (b *MethodBinding) AsLValue() (Binding, bool) { return nil, false }

// bindingType returns the static type of the value a binding holds.
func bindingType(b Binding) (*types.Type, error) {
	switch b := b.(type) {
	case *FieldBinding:
		return b.Field.Type(), nil
	case *ParamBinding:
		return b.Type, nil
	case *LocalBinding:
		return b.Local.Type(), nil
	case *MethodBinding:
		return nil, &NotImplementedError{What: "method value " + b.Method.Name()}
	}
	panic("unreachable")
}
