// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package tvm

import (
	"fmt"

	"tapir.run/tvm/err"
	"tapir.run/tvm/val"
	"tapir.run/tvm/xpr"
)

// assign commits v into the location lhs resolves to. Which forms are
// assignable was settled at construction; this dispatch only performs
// the runtime half of the protocol.
func (m *VM) assign(lhs xpr.Expression, f Frame, v val.Value) err.Error {
	switch lhs := lhs.(type) {

	case *xpr.Ref:
		return m.assign(lhs.Operand, f, v)

	case *xpr.Name:
		f.Assign(lhs.Ident, v)
		return nil

	case *xpr.Field:
		root, e := m.Eval(lhs.Root, f)
		if e != nil || root == nil {
			return e
		}
		rv, ok := root.(*val.Record)
		if !ok {
			return m.runtimeError(lhs, "field assignment on non-record value")
		}
		rv.Assign(lhs.Pos, v)
		return nil

	case *xpr.Index:
		return m.assignIndex(lhs, f, v)

	case *xpr.List:
		lv, ok := v.(val.List)
		if !ok || len(lhs.Exprs) != len(lv) {
			return m.runtimeError(lhs, "mismatch in list lengths")
		}
		for i, t := range lhs.Exprs {
			if e := m.assign(t, f, lv[i]); e != nil {
				return e
			}
		}
		return nil
	}

	panic(fmt.Sprintf("unhandled lvalue: %T", lhs))
}

func (m *VM) assignIndex(lhs *xpr.Index, f Frame, v val.Value) err.Error {
	root, e := m.Eval(lhs.Root, f)
	if e != nil || root == nil {
		return e
	}

	switch root := root.(type) {

	case *val.Table:
		index, e := m.evalIndexArgs(lhs, f)
		if e != nil {
			return e
		}
		if !root.Assign(index, v) {
			return m.runtimeError(lhs, "bad table assignment")
		}
		return nil

	case *val.Vector:
		if lhs.Slice {
			repl, ok := v.(*val.Vector)
			if !ok {
				return m.runtimeError(lhs, "slice assignment requires a vector value")
			}
			first, last, e := m.evalSliceRange(lhs, f, root.Len())
			if e != nil {
				return e
			}
			root.Splice(first, last, repl)
			return nil
		}
		iv, e := m.Eval(lhs.Args[0], f)
		if e != nil {
			return e
		}
		i := intIndex(iv)
		if i < 0 {
			return m.runtimeError(lhs, "bad vector index")
		}
		root.Assign(i, v)
		return nil

	case val.String:
		return m.runtimeError(lhs, "assignment via string index accessor not allowed")
	}

	return m.runtimeError(lhs, "bad index assignment")
}

// evalIndexArgs evaluates an index argument list into the value a table
// is keyed by: the single value itself, or a List for composite keys.
func (m *VM) evalIndexArgs(x *xpr.Index, f Frame) (val.Value, err.Error) {
	if len(x.Args) == 1 {
		return m.Eval(x.Args[0], f)
	}
	out := make(val.List, len(x.Args))
	for i, a := range x.Args {
		v, e := m.Eval(a, f)
		if e != nil {
			return nil, e
		}
		out[i] = v
	}
	return out, nil
}

// evalSliceRange evaluates both slice endpoints and clamps them into
// [0,length]: endpoints beyond the length clamp to 0 or length by sign,
// negative endpoints count back from the end.
func (m *VM) evalSliceRange(x *xpr.Index, f Frame, length int) (first, last int, e err.Error) {
	fv, e := m.Eval(x.Args[0], f)
	if e != nil {
		return 0, 0, e
	}
	lv, e := m.Eval(x.Args[1], f)
	if e != nil {
		return 0, 0, e
	}
	first = val.SliceIndex(sliceEndpoint(fv), length)
	last = val.SliceIndex(sliceEndpoint(lv), length)
	if last < first {
		last = first
	}
	return first, last, nil
}

func sliceEndpoint(v val.Value) int {
	switch v := normalize(v).(type) {
	case val.Int:
		return int(v)
	case val.Count:
		return int(v)
	}
	panic(fmt.Sprintf("unhandled slice endpoint: %T", v))
}
