// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package types defines handles to the host platform's types, the
// namespace through which dotted type names are resolved, and the
// operand unification rule used by arithmetic.
package types // import "go.cpmlang.net/types"

import (
	"fmt"
	"sort"
	"strings"

	"go.cpmlang.net/resolve"
)

// A Kind classifies a Type for the purposes of numeric promotion and
// code generation.
type Kind uint8

const (
	Invalid Kind = iota
	Void
	Boolean
	Int32
	Int64
	Float32
	Float64
	String
	Object
)

var kindNames = [...]string{
	Invalid: "invalid",
	Void:    "void",
	Boolean: "bool",
	Int32:   "int32",
	Int64:   "int64",
	Float32: "float32",
	Float64: "float64",
	String:  "string",
	Object:  "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// A Type is an opaque handle to a host type.
// Types are compared by identity: each namespace creates each type once.
type Type struct {
	name string
	kind Kind
	base *Type // nominal supertype; nil for roots
}

// New returns a new type handle. Types with a nil base derive from nothing;
// host namespaces pass their Object type as base.
func New(name string, kind Kind, base *Type) *Type {
	return &Type{name: name, kind: kind, base: base}
}

// Name returns the fully qualified name of the type, such as System.Int32.
func (t *Type) Name() string { return t.name }

// Kind returns the type's kind.
func (t *Type) Kind() Kind { return t.kind }

// Base returns the nominal supertype of t, or nil.
func (t *Type) Base() *Type { return t.base }

func (t *Type) String() string { return t.name }

// IsIntegral reports whether t is a signed integer type.
func (t *Type) IsIntegral() bool { return t.kind == Int32 || t.kind == Int64 }

// IsFloating reports whether t is a floating-point type.
func (t *Type) IsFloating() bool { return t.kind == Float32 || t.kind == Float64 }

// IsNumeric reports whether t is integral or floating.
func (t *Type) IsNumeric() bool { return t.IsIntegral() || t.IsFloating() }

// IsVoid reports whether t denotes the absence of a value.
func (t *Type) IsVoid() bool { return t.kind == Void }

// AssignableFrom reports whether a value of type src may be stored in a
// location of type dst without conversion: the types are identical, or
// dst is a nominal supertype of src.
func AssignableFrom(dst, src *Type) bool {
	for t := src; t != nil; t = t.base {
		if t == dst {
			return true
		}
	}
	return false
}

// ImplicitlyConvertible reports whether a value of type src may be stored
// in a location of type dst, either by assignment or by numeric widening.
func ImplicitlyConvertible(dst, src *Type) bool {
	if AssignableFrom(dst, src) {
		return true
	}
	return rank(src.kind) > 0 && rank(dst.kind) > rank(src.kind)
}

// rank orders the numeric kinds by widening; 0 means non-numeric.
func rank(k Kind) int {
	switch k {
	case Int32:
		return 1
	case Int64:
		return 2
	case Float32:
		return 3
	case Float64:
		return 4
	}
	return 0
}

// CommonType returns the type to which both operands of a binary
// operator are unified.
//
// If either type is assignable from the other, that type is the result
// (t1 is tried first). A mix of integral and floating operands, in either
// order, unifies to the namespace's 64-bit floating type; two distinct
// integral types unify to its 64-bit integer type. Any other pair has no
// common type.
func CommonType(ns Namespace, t1, t2 *Type) (*Type, error) {
	var target string
	switch {
	case AssignableFrom(t1, t2):
		return t1, nil
	case AssignableFrom(t2, t1):
		return t2, nil
	case t1.IsNumeric() && t2.IsNumeric() && (t1.IsFloating() || t2.IsFloating()):
		target = DoubleName
	case t1.IsIntegral() && t2.IsIntegral():
		target = Int64Name
	}
	if target != "" {
		if t, ok := ns.Lookup(target); ok {
			return t, nil
		}
	}
	return nil, &IncompatibleTypesError{X: t1, Y: t2}
}

// A Namespace resolves fully qualified type names to type handles.
type Namespace interface {
	// Lookup returns the type with the given fully qualified name.
	Lookup(name string) (*Type, bool)
	// Names returns the names of all types in the namespace.
	Names() []string
}

// Resolve returns the type named by a dotted identifier chain such as
// [System Int32].
func Resolve(ns Namespace, parts []string) (*Type, error) {
	name := strings.Join(parts, ".")
	if t, ok := ns.Lookup(name); ok {
		return t, nil
	}
	return nil, &UnknownTypeError{Name: name, Suggestion: resolve.Nearest(name, ns.Names())}
}

// A MapNamespace is a Namespace backed by a map.
type MapNamespace map[string]*Type

// NewNamespace returns a namespace containing the given types.
func NewNamespace(types ...*Type) MapNamespace {
	ns := make(MapNamespace, len(types))
	for _, t := range types {
		ns[t.name] = t
	}
	return ns
}

func (ns MapNamespace) Lookup(name string) (*Type, bool) {
	t, ok := ns[name]
	return t, ok
}

func (ns MapNamespace) Names() []string {
	names := make([]string, 0, len(ns))
	for name := range ns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Names of the host types every namespace is expected to provide.
const (
	ObjectName  = "System.Object"
	VoidName    = "System.Void"
	BooleanName = "System.Boolean"
	Int32Name   = "System.Int32"
	Int64Name   = "System.Int64"
	SingleName  = "System.Single"
	DoubleName  = "System.Double"
	StringName  = "System.String"
)

var system = func() MapNamespace {
	object := New(ObjectName, Object, nil)
	return NewNamespace(
		object,
		New(VoidName, Void, nil),
		New(BooleanName, Boolean, object),
		New(Int32Name, Int32, object),
		New(Int64Name, Int64, object),
		New(SingleName, Float32, object),
		New(DoubleName, Float64, object),
		New(StringName, String, object),
	)
}()

// System returns the host type namespace.
// The returned namespace must not be modified.
func System() Namespace { return system }

// MustLookup returns the named type of ns, panicking if it is absent.
// It is intended for the fixed host type names above.
func MustLookup(ns Namespace, name string) *Type {
	t, ok := ns.Lookup(name)
	if !ok {
		panic("types: namespace lacks " + name)
	}
	return t
}

// An IncompatibleTypesError reports operand types with no common type.
type IncompatibleTypesError struct {
	X, Y *Type
	Op   string // operator, if known
}

func (e *IncompatibleTypesError) Error() string {
	if e.Y == nil {
		return fmt.Sprintf("operator %s not defined on %s", e.Op, e.X)
	}
	if e.Op != "" {
		return fmt.Sprintf("incompatible types %s and %s for %s", e.X, e.Y, e.Op)
	}
	return fmt.Sprintf("incompatible types %s and %s", e.X, e.Y)
}

// An UnknownTypeError reports a type name that the namespace cannot resolve.
type UnknownTypeError struct {
	Name       string
	Suggestion string
}

func (e *UnknownTypeError) Error() string {
	if e.Suggestion != "" {
		return "unknown type " + e.Name + " (did you mean " + e.Suggestion + "?)"
	}
	return "unknown type " + e.Name
}
