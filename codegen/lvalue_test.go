// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"testing"

	"go.cpmlang.net/internal/compile"
	"go.cpmlang.net/syntax"
	"go.cpmlang.net/types"
)

func TestIsLValue(t *testing.T) {
	c := NewContext(compile.NewModule("N"), types.System())
	param := &ParamBinding{Name: "p", Type: types.MustLookup(types.System(), types.Int32Name)}
	for name, b := range map[string]Binding{
		"f": &FieldBinding{},
		"p": param,
		"l": &LocalBinding{Name: "l"},
		"m": &MethodBinding{},
	} {
		if err := c.locals.Declare(name, b); err != nil {
			t.Fatal(err)
		}
	}

	for _, test := range []struct {
		src  string
		want bool
	}{
		{`1`, false},
		{`2.5`, false},
		{`"s"`, false},
		{`1 + 2`, false},
		{`f + 1`, false},
		{`m()`, false},
		{`l <- 1`, false},
		{`f`, true},
		{`p`, true},
		{`l`, true},
		{`m`, false},
		{`undefined`, false},
	} {
		e, err := syntax.ParseExpr("test.cpm", test.src)
		if err != nil {
			t.Errorf("%s: %v", test.src, err)
			continue
		}
		if got := c.IsLValue(e); got != test.want {
			t.Errorf("IsLValue(%s) = %t, want %t", test.src, got, test.want)
		}
	}
	if param.Mode != Load {
		t.Errorf("IsLValue changed the shared binding to %s", param.Mode)
	}
}
