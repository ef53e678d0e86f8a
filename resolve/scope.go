// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resolve defines the lexically nested scopes used to resolve
// CPM identifiers to their bindings.
//
// A scope chain mirrors the lexical nesting of the program:
// namespace, class, method, and (optionally) block. Lookup walks from
// the innermost scope outward and returns the first match, so an inner
// declaration shadows an outer one. Declaration always targets the
// innermost scope, and redeclaring a name within one scope is an error.
package resolve // import "go.cpmlang.net/resolve"

import "sort"

// A Scope maps identifiers to bindings of type B.
// The zero Scope is not usable; call NewScope.
type Scope[B any] struct {
	parent   *Scope[B]
	bindings map[string]B
}

// NewScope returns a new root scope.
func NewScope[B any]() *Scope[B] {
	return &Scope[B]{bindings: make(map[string]B)}
}

// CreateChild returns a new, empty scope enclosed by s.
func (s *Scope[B]) CreateChild() *Scope[B] {
	return &Scope[B]{parent: s, bindings: make(map[string]B)}
}

// Parent returns the enclosing scope, or nil if s is a root.
func (s *Scope[B]) Parent() *Scope[B] { return s.parent }

// Depth returns the number of scopes enclosing s.
func (s *Scope[B]) Depth() int {
	n := 0
	for p := s.parent; p != nil; p = p.parent {
		n++
	}
	return n
}

// Lookup returns the innermost binding of name visible from s.
// If no enclosing scope binds name, it returns an *UnresolvedNameError.
func (s *Scope[B]) Lookup(name string) (B, error) {
	for sc := s; sc != nil; sc = sc.parent {
		if b, ok := sc.bindings[name]; ok {
			return b, nil
		}
	}
	var zero B
	return zero, &UnresolvedNameError{Name: name, Suggestion: Nearest(name, s.Names())}
}

// LookupLocal returns the binding of name in s itself, ignoring
// enclosing scopes.
func (s *Scope[B]) LookupLocal(name string) (B, bool) {
	b, ok := s.bindings[name]
	return b, ok
}

// Declare binds name to b in s.
// It returns a *DuplicateDeclarationError if s already binds name;
// bindings of enclosing scopes are not consulted.
func (s *Scope[B]) Declare(name string, b B) error {
	if _, ok := s.bindings[name]; ok {
		return &DuplicateDeclarationError{Name: name}
	}
	s.bindings[name] = b
	return nil
}

// Names returns the sorted set of names visible from s.
func (s *Scope[B]) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for sc := s; sc != nil; sc = sc.parent {
		for name := range sc.bindings {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// An UnresolvedNameError reports a reference to a name that no
// enclosing scope declares.
type UnresolvedNameError struct {
	Name       string
	Suggestion string // nearest visible name, if any
}

func (e *UnresolvedNameError) Error() string {
	if e.Suggestion != "" {
		return "undefined: " + e.Name + " (did you mean " + e.Suggestion + "?)"
	}
	return "undefined: " + e.Name
}

// A DuplicateDeclarationError reports a second declaration of a name
// within a single scope.
type DuplicateDeclarationError struct {
	Name string
}

func (e *DuplicateDeclarationError) Error() string {
	return "already declared in this scope: " + e.Name
}
