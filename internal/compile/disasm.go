// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import (
	"bytes"
	"fmt"
	"strconv"

	"go.cpmlang.net/emit"
)

// DisassembleMethod returns the instructions of m in a compact one-line
// form such as "ldc.i4 2; ldc.r8 3.5; add; ret".
// Operands are shown as constant values, slot numbers, or the qualified
// names of fields and methods.
func DisassembleMethod(m *Method) string {
	insns, err := Decode(m.Code)
	if err != nil {
		return "<" + err.Error() + ">"
	}
	prog := m.Owner.Prog
	out := new(bytes.Buffer)
	for _, insn := range insns {
		if out.Len() > 0 {
			out.WriteString("; ")
		}
		out.WriteString(insn.Op.String())
		if !insn.Op.HasArg() {
			continue
		}
		out.WriteByte(' ')
		switch insn.Op {
		case emit.LDC_I4, emit.LDC_R8, emit.LDSTR:
			if int(insn.Arg) >= len(prog.Constants) {
				fmt.Fprintf(out, "<%d>", insn.Arg)
				break
			}
			switch c := prog.Constants[insn.Arg].(type) {
			case string:
				out.WriteString(strconv.Quote(c))
			case float64:
				out.WriteString(strconv.FormatFloat(c, 'g', -1, 64))
			default:
				fmt.Fprint(out, c)
			}
		case emit.LDSFLD, emit.STSFLD:
			if int(insn.Arg) < len(prog.Fields) {
				out.WriteString(prog.Fields[insn.Arg].QualifiedName())
			} else {
				fmt.Fprintf(out, "<%d>", insn.Arg)
			}
		case emit.CALL:
			if int(insn.Arg) < len(prog.Methods) {
				out.WriteString(prog.Methods[insn.Arg].QualifiedName())
			} else {
				fmt.Fprintf(out, "<%d>", insn.Arg)
			}
		default:
			fmt.Fprintf(out, "%d", insn.Arg)
		}
	}
	return out.String()
}

// DisassembleProgram returns a multi-line listing of every method of the
// program, one per line, in definition order.
func DisassembleProgram(prog *Program) string {
	out := new(bytes.Buffer)
	for _, t := range prog.Types {
		if t.Init != nil {
			fmt.Fprintf(out, "%s: %s\n", t.Init.QualifiedName(), DisassembleMethod(t.Init))
		}
		for _, m := range t.Methods {
			fmt.Fprintf(out, "%s: %s\n", m.QualifiedName(), DisassembleMethod(m))
		}
	}
	if prog.Entry != nil {
		fmt.Fprintf(out, "entry: %s\n", prog.Entry.QualifiedName())
	}
	return out.String()
}
