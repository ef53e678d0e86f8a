// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

// This file defines functions to read and write a compiled program
// using the protocol buffer wire format, without a generated schema.
//
// Encoding:
//
// program:
//	"cpm!"    [4]byte  magic number
//	version   varint   must match Version
//	message   protobuf fields:
//	    1 name      string
//	    2 type      message {1 name string}
//	    3 field     message {1 name, 2 owner varint, 3 type string, 4 static bool}
//	    4 method    message {1 name, 2 owner varint, 3 static bool,
//	                         4 result string, 5 param string (repeated),
//	                         6 local string (repeated), 7 code bytes,
//	                         8 initializer bool}
//	    5 constant  message {1 int32 zigzag | 2 float64 fixed64 | 3 string}
//	    6 entry     varint   method index + 1
//
// Types are named by their fully qualified host names and are resolved
// against the host namespace when a program is decoded.

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"go.cpmlang.net/types"
)

const magic = "cpm!"

// Version is incremented whenever the encoding changes.
const Version = 1

// Field numbers of the encoding.
const (
	progName     protowire.Number = 1
	progType     protowire.Number = 2
	progField    protowire.Number = 3
	progMethod   protowire.Number = 4
	progConstant protowire.Number = 5
	progEntry    protowire.Number = 6
)

// Encode encodes a compiled program.
func (prog *Program) Encode() []byte {
	b := []byte(magic)
	b = protowire.AppendVarint(b, Version)

	b = protowire.AppendTag(b, progName, protowire.BytesType)
	b = protowire.AppendString(b, prog.Name)

	typeIndex := make(map[*Type]uint64, len(prog.Types))
	for i, t := range prog.Types {
		typeIndex[t] = uint64(i)
		var msg []byte
		msg = appendString(msg, 1, t.Name)
		b = appendMessage(b, progType, msg)
	}
	for _, f := range prog.Fields {
		var msg []byte
		msg = appendString(msg, 1, f.Name)
		msg = appendVarint(msg, 2, typeIndex[f.Owner])
		msg = appendString(msg, 3, f.Type.Name())
		msg = appendVarint(msg, 4, protowire.EncodeBool(f.Static))
		b = appendMessage(b, progField, msg)
	}
	for _, m := range prog.Methods {
		var msg []byte
		msg = appendString(msg, 1, m.Name)
		msg = appendVarint(msg, 2, typeIndex[m.Owner])
		msg = appendVarint(msg, 3, protowire.EncodeBool(m.Static))
		msg = appendString(msg, 4, m.Result.Name())
		for _, p := range m.Params {
			msg = appendString(msg, 5, p.Name())
		}
		for _, l := range m.Locals {
			msg = appendString(msg, 6, l.Name())
		}
		msg = protowire.AppendTag(msg, 7, protowire.BytesType)
		msg = protowire.AppendBytes(msg, m.Code)
		msg = appendVarint(msg, 8, protowire.EncodeBool(m.Owner.Init == m))
		b = appendMessage(b, progMethod, msg)
	}
	for _, c := range prog.Constants {
		var msg []byte
		switch c := c.(type) {
		case int32:
			msg = appendVarint(msg, 1, protowire.EncodeZigZag(int64(c)))
		case float64:
			msg = protowire.AppendTag(msg, 2, protowire.Fixed64Type)
			msg = protowire.AppendFixed64(msg, math.Float64bits(c))
		case string:
			msg = appendString(msg, 3, c)
		default:
			panic(fmt.Sprintf("unexpected constant %T", c))
		}
		b = appendMessage(b, progConstant, msg)
	}
	if prog.Entry != nil {
		b = appendVarint(b, progEntry, uint64(prog.Entry.Index)+1)
	}
	return b
}

// Write writes the encoded program to w.
func (prog *Program) Write(w io.Writer) error {
	_, err := w.Write(prog.Encode())
	return err
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendVarint(b []byte, num protowire.Number, x uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, x)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

// ReadProgram reads and decodes a compiled program.
func ReadProgram(r io.Reader) (*Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeProgram(data)
}

// DecodeProgram decodes a compiled program from its binary form.
func DecodeProgram(data []byte) (*Program, error) {
	if !bytes.HasPrefix(data, []byte(magic)) {
		return nil, fmt.Errorf("not a compiled module: no magic number")
	}
	data = data[len(magic):]
	version, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return nil, fmt.Errorf("not a compiled module: %v", protowire.ParseError(n))
	}
	if version != Version {
		return nil, fmt.Errorf("incompatible program version %d; want %d", version, Version)
	}
	data = data[n:]

	// Records are gathered first since fields and methods
	// refer to types by index.
	prog := new(Program)
	var typeMsgs, fieldMsgs, methodMsgs, constMsgs [][]byte
	var entry uint64
	err := forEachField(data, func(num protowire.Number, v []byte, x uint64) error {
		switch num {
		case progName:
			prog.Name = string(v)
		case progType:
			typeMsgs = append(typeMsgs, v)
		case progField:
			fieldMsgs = append(fieldMsgs, v)
		case progMethod:
			methodMsgs = append(methodMsgs, v)
		case progConstant:
			constMsgs = append(constMsgs, v)
		case progEntry:
			entry = x
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("not a compiled module: %v", err)
	}

	ns := types.System()
	lookup := func(name string) (*types.Type, error) {
		if t, ok := ns.Lookup(name); ok {
			return t, nil
		}
		return nil, fmt.Errorf("unknown type %s", name)
	}
	owner := func(i uint64) (*Type, error) {
		if i >= uint64(len(prog.Types)) {
			return nil, fmt.Errorf("type index %d out of range", i)
		}
		return prog.Types[i], nil
	}

	for _, msg := range typeMsgs {
		t := &Type{Prog: prog, finalized: true}
		if err := forEachField(msg, func(num protowire.Number, v []byte, x uint64) error {
			if num == 1 {
				t.Name = string(v)
			}
			return nil
		}); err != nil {
			return nil, err
		}
		prog.Types = append(prog.Types, t)
	}

	for _, msg := range fieldMsgs {
		f := &Field{Index: len(prog.Fields)}
		if err := forEachField(msg, func(num protowire.Number, v []byte, x uint64) (err error) {
			switch num {
			case 1:
				f.Name = string(v)
			case 2:
				f.Owner, err = owner(x)
			case 3:
				f.Type, err = lookup(string(v))
			case 4:
				f.Static = protowire.DecodeBool(x)
			}
			return err
		}); err != nil {
			return nil, err
		}
		if f.Owner == nil || f.Type == nil {
			return nil, fmt.Errorf("incomplete field %q", f.Name)
		}
		f.Owner.Fields = append(f.Owner.Fields, f)
		prog.Fields = append(prog.Fields, f)
	}

	for _, msg := range methodMsgs {
		m := &Method{Index: len(prog.Methods)}
		var init bool
		if err := forEachField(msg, func(num protowire.Number, v []byte, x uint64) (err error) {
			var t *types.Type
			switch num {
			case 1:
				m.Name = string(v)
			case 2:
				m.Owner, err = owner(x)
			case 3:
				m.Static = protowire.DecodeBool(x)
			case 4:
				m.Result, err = lookup(string(v))
			case 5:
				t, err = lookup(string(v))
				m.Params = append(m.Params, t)
			case 6:
				t, err = lookup(string(v))
				m.Locals = append(m.Locals, t)
			case 7:
				m.Code = append([]byte(nil), v...)
			case 8:
				init = protowire.DecodeBool(x)
			}
			return err
		}); err != nil {
			return nil, err
		}
		if m.Owner == nil || m.Result == nil {
			return nil, fmt.Errorf("incomplete method %q", m.Name)
		}
		if _, err := Decode(m.Code); err != nil {
			return nil, fmt.Errorf("method %s: %v", m.QualifiedName(), err)
		}
		if init {
			m.Owner.Init = m
		} else {
			m.Owner.Methods = append(m.Owner.Methods, m)
		}
		prog.Methods = append(prog.Methods, m)
	}

	for _, msg := range constMsgs {
		var c interface{}
		if err := forEachField(msg, func(num protowire.Number, v []byte, x uint64) error {
			switch num {
			case 1:
				c = int32(protowire.DecodeZigZag(x))
			case 2:
				c = math.Float64frombits(x)
			case 3:
				c = string(v)
			}
			return nil
		}); err != nil {
			return nil, err
		}
		if c == nil {
			return nil, fmt.Errorf("empty constant")
		}
		prog.Constants = append(prog.Constants, c)
	}

	if entry > 0 {
		if entry > uint64(len(prog.Methods)) {
			return nil, fmt.Errorf("entry point %d out of range", entry-1)
		}
		prog.Entry = prog.Methods[entry-1]
	}
	return prog, nil
}

// forEachField calls f for each field of the protobuf message b.
// For fields of bytes type, v holds the value; for varint and fixed64
// fields, x does. Other wire types are skipped.
func forEachField(b []byte, f func(num protowire.Number, v []byte, x uint64) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		var (
			v []byte
			x uint64
		)
		switch typ {
		case protowire.VarintType:
			x, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			x, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			v, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		if err := f(num, v, x); err != nil {
			return err
		}
	}
	return nil
}
