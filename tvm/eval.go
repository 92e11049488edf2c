// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package tvm

import (
	"fmt"
	"time"

	"tapir.run/tvm/err"
	"tapir.run/tvm/typ"
	"tapir.run/tvm/val"
	"tapir.run/tvm/xpr"
)

// Eval walks the tree top-down against the frame. A nil result with a
// nil error means "no value": erroneous nodes, failed children, events.
// Operand evaluation is strictly left to right; the order is observable
// through side effects and is part of the semantics.
func (m *VM) Eval(x xpr.Expression, f Frame) (val.Value, err.Error) {
	if x.IsError() {
		return nil, nil
	}

	switch x := x.(type) {

	case *xpr.Constant:
		return x.Value, nil

	case *xpr.Name:
		if x.Const != nil {
			return x.Const, nil
		}
		return f.Lookup(x.Ident), nil

	case *xpr.Ref:
		return m.Eval(x.Operand, f)

	case *xpr.Unary:
		return m.evalUnary(x, f)

	case *xpr.Binary:
		return m.evalBinary(x, f)

	case *xpr.Cond:
		return m.evalCond(x, f)

	case *xpr.Assign:
		v, e := m.Eval(x.Rhs, f)
		if e != nil || v == nil {
			return nil, e
		}
		if e := m.assign(x.Lhs, f, v); e != nil {
			return nil, e
		}
		return v, nil

	case *xpr.Index:
		return m.evalIndex(x, f)

	case *xpr.Field:
		root, e := m.Eval(x.Root, f)
		if e != nil || root == nil {
			return nil, e
		}
		rv, ok := root.(*val.Record)
		if !ok {
			return nil, m.runtimeError(x, "field access on non-record value")
		}
		v := rv.Lookup(x.Pos)
		if v == nil {
			v = x.Default
		}
		if v == nil {
			return nil, m.runtimeError(x, "field value missing")
		}
		return v, nil

	case *xpr.HasField:
		root, e := m.Eval(x.Root, f)
		if e != nil || root == nil {
			return nil, e
		}
		rv, ok := root.(*val.Record)
		if !ok {
			return nil, m.runtimeError(x, "field access on non-record value")
		}
		return val.Bool(rv.Lookup(x.Pos) != nil), nil

	case *xpr.List:
		out := make(val.List, len(x.Exprs))
		for i, c := range x.Exprs {
			v, e := m.Eval(c, f)
			if e != nil {
				return nil, e
			}
			out[i] = v
		}
		return out, nil

	case *xpr.FieldAssign:
		return m.Eval(x.Value, f)

	case *xpr.RecordCtor:
		names := make([]string, len(x.Fields))
		for i, fa := range x.Fields {
			names[i] = fa.Name
		}
		out := val.NewRecord(names)
		for i, fa := range x.Fields {
			v, e := m.Eval(fa.Value, f)
			if e != nil || v == nil {
				return nil, e
			}
			out.Assign(i, v)
		}
		return out, nil

	case *xpr.TableCtor:
		out := val.NewTable(len(x.Entries))
		for _, entry := range x.Entries {
			var index val.Value
			if len(entry.Index) == 1 {
				v, e := m.Eval(entry.Index[0], f)
				if e != nil || v == nil {
					return nil, e
				}
				index = v
			} else {
				tuple := make(val.List, len(entry.Index))
				for i, ix := range entry.Index {
					v, e := m.Eval(ix, f)
					if e != nil || v == nil {
						return nil, e
					}
					tuple[i] = v
				}
				index = tuple
			}
			yield, e := m.Eval(entry.Yield, f)
			if e != nil || yield == nil {
				return nil, e
			}
			out.Assign(index, yield)
		}
		return out, nil

	case *xpr.SetCtor:
		out := val.NewTable(len(x.Elems))
		for _, c := range x.Elems {
			v, e := m.Eval(c, f)
			if e != nil || v == nil {
				return nil, e
			}
			out.Assign(v, nil)
		}
		return out, nil

	case *xpr.VectorCtor:
		out := val.NewVector(len(x.Elems))
		for _, c := range x.Elems {
			v, e := m.Eval(c, f)
			if e != nil {
				return nil, e
			}
			out.Append(v)
		}
		return out, nil

	case *xpr.ArithCoerce:
		v, e := m.Eval(x.Operand, f)
		if e != nil || v == nil {
			return nil, e
		}
		return m.coerceArith(x, v)

	case *xpr.RecordCoerce:
		v, e := m.Eval(x.Operand, f)
		if e != nil || v == nil {
			return nil, e
		}
		rv, ok := v.(*val.Record)
		if !ok {
			return nil, m.runtimeError(x, "record coercion on non-record value")
		}
		return m.coerceRecord(x, rv)

	case *xpr.TableCoerce:
		v, e := m.Eval(x.Operand, f)
		if e != nil || v == nil {
			return nil, e
		}
		tv, ok := v.(*val.Table)
		if !ok {
			return nil, m.runtimeError(x, "table coercion on non-table value")
		}
		return m.coerceTable(x, tv)

	case *xpr.VectorCoerce:
		v, e := m.Eval(x.Operand, f)
		if e != nil || v == nil {
			return nil, e
		}
		vv, ok := v.(*val.Vector)
		if !ok {
			return nil, m.runtimeError(x, "vector coercion on non-vector value")
		}
		return m.coerceVector(x, vv)

	case *xpr.Is:
		v, e := m.Eval(x.Operand, f)
		if e != nil || v == nil {
			return nil, e
		}
		return val.Bool(v.Type() == x.Target.ValueType()), nil

	case *xpr.Call:
		return m.evalCall(x, f)

	case *xpr.Event:
		args, e := m.evalArgs(x.Args, f)
		if e != nil || args == nil {
			return nil, e
		}
		m.Events.Enqueue(x.Name, args)
		return nil, nil

	case *xpr.Schedule:
		return m.evalSchedule(x, f)

	case *xpr.Lambda:
		return val.Func{Name: "<lambda>", Impl: x}, nil
	}

	panic(fmt.Sprintf("unhandled expression: %T", x))
}

func (m *VM) evalUnary(x *xpr.Unary, f Frame) (val.Value, err.Error) {
	if x.Op == xpr.OpIncr || x.Op == xpr.OpDecr {
		v, e := m.Eval(x.Operand, f)
		if e != nil || v == nil {
			return nil, e
		}
		w, e := m.step(x, x.Op, v)
		if e != nil {
			return nil, e
		}
		if e := m.assign(x.Operand, f, w); e != nil {
			return nil, e
		}
		return w, nil
	}
	v, e := m.Eval(x.Operand, f)
	if e != nil || v == nil {
		return nil, e
	}
	// size and clone apply to the aggregate itself, never elementwise
	if x.Op == xpr.OpSize || x.Op == xpr.OpClone {
		return m.foldUnary(x, x.Op, v)
	}
	return m.broadcastUnary(x, x.Op, v)
}

func (m *VM) evalBinary(x *xpr.Binary, f Frame) (val.Value, err.Error) {
	if x.Op == xpr.OpAndAnd || x.Op == xpr.OpOrOr {
		return m.evalBool(x, f)
	}

	l, e := m.Eval(x.Left, f)
	if e != nil || l == nil {
		return nil, e
	}
	r, e := m.Eval(x.Right, f)
	if e != nil || r == nil {
		return nil, e
	}

	// set operators delegate to the container
	if lt, ok := l.(*val.Table); ok {
		if rt, ok := r.(*val.Table); ok {
			switch x.Op {
			case xpr.OpBitAnd:
				return lt.Intersect(rt), nil
			case xpr.OpBitOr:
				return lt.Union(rt), nil
			case xpr.OpSub:
				return lt.Difference(rt), nil
			}
		}
	}

	return m.broadcastBinary(x, x.Op, l, r)
}

// evalBool implements short-circuit and/or. Scalar pairs short-circuit
// on the left value; vector shapes evaluate both sides because length
// must be discovered. A forcing scalar fills the result, a non-forcing
// one reuses the vector's values.
func (m *VM) evalBool(x *xpr.Binary, f Frame) (val.Value, err.Error) {
	and := x.Op == xpr.OpAndAnd

	if !typ.IsVector(x.Type()) {
		l, e := m.Eval(x.Left, f)
		if e != nil || l == nil {
			return nil, e
		}
		if and == val.IsZero(l) {
			return l, nil
		}
		return m.Eval(x.Right, f)
	}

	l, e := m.Eval(x.Left, f)
	if e != nil || l == nil {
		return nil, e
	}
	r, e := m.Eval(x.Right, f)
	if e != nil || r == nil {
		return nil, e
	}

	lv, lok := l.(*val.Vector)
	rv, rok := r.(*val.Vector)

	if lok && rok {
		if lv.Len() != rv.Len() {
			return nil, m.runtimeError(x, "vector operands are of different sizes")
		}
		out := val.NewVector(lv.Len())
		for i, n := 0, lv.Len(); i < n; i++ {
			a, b := lv.Lookup(i), rv.Lookup(i)
			if a == nil || b == nil {
				out.Append(nil)
				continue
			}
			if and {
				out.Append(val.Bool(!val.IsZero(a) && !val.IsZero(b)))
			} else {
				out.Append(val.Bool(!val.IsZero(a) || !val.IsZero(b)))
			}
		}
		return out, nil
	}

	scalar, vec := l, rv
	if lok {
		scalar, vec = r, lv
	}
	forcing := and == val.IsZero(scalar)
	out := val.NewVector(vec.Len())
	for i, n := 0, vec.Len(); i < n; i++ {
		w := vec.Lookup(i)
		if forcing {
			out.Append(val.Bool(!and))
			continue
		}
		if w == nil {
			out.Append(nil)
			continue
		}
		out.Append(val.Bool(!val.IsZero(w)))
	}
	return out, nil
}

func (m *VM) evalCond(x *xpr.Cond, f Frame) (val.Value, err.Error) {
	if typ.IsVector(x.Cond.Type()) {
		c, e := m.Eval(x.Cond, f)
		if e != nil || c == nil {
			return nil, e
		}
		t, e := m.Eval(x.Then, f)
		if e != nil || t == nil {
			return nil, e
		}
		el, e := m.Eval(x.Else, f)
		if e != nil || el == nil {
			return nil, e
		}
		cv, ok1 := c.(*val.Vector)
		tv, ok2 := t.(*val.Vector)
		ev, ok3 := el.(*val.Vector)
		if !ok1 || !ok2 || !ok3 {
			return nil, m.runtimeError(x, "vector conditional requires vector operands")
		}
		return m.condVectors(x, cv, tv, ev)
	}
	c, e := m.Eval(x.Cond, f)
	if e != nil || c == nil {
		return nil, e
	}
	if !val.IsZero(c) {
		return m.Eval(x.Then, f)
	}
	return m.Eval(x.Else, f)
}

func (m *VM) evalIndex(x *xpr.Index, f Frame) (val.Value, err.Error) {
	root, e := m.Eval(x.Root, f)
	if e != nil || root == nil {
		return nil, e
	}

	switch root := root.(type) {

	case *val.Vector:
		if x.Slice {
			first, last, e := m.evalSliceRange(x, f, root.Len())
			if e != nil {
				return nil, e
			}
			out := val.NewVector(last - first)
			for i := first; i < last; i++ {
				out.Append(root.Lookup(i))
			}
			return out, nil
		}
		iv, e := m.Eval(x.Args[0], f)
		if e != nil || iv == nil {
			return nil, e
		}
		if index, ok := iv.(*val.Vector); ok {
			if typ.Base(x.Args[0].Type()) == val.TypeBool {
				return m.compactVector(x, root, index)
			}
			return m.gatherVector(x, root, index)
		}
		i := intIndex(iv)
		if i < 0 {
			i += root.Len()
		}
		if i < 0 || i >= root.Len() {
			return nil, m.runtimeError(x, "index out of range")
		}
		return root.Lookup(i), nil

	case *val.Table:
		index, e := m.evalIndexArgs(x, f)
		if e != nil || index == nil {
			return nil, e
		}
		if _, ok := x.Root.Type().(typ.Table); ok && x.Root.Type().(typ.Table).IsSet() {
			return val.Bool(root.Contains(index)), nil
		}
		v, ok := root.Get(index)
		if !ok {
			return nil, m.runtimeError(x, "no such index")
		}
		return v, nil

	case val.String:
		if x.Slice {
			first, last, e := m.evalSliceRange(x, f, len(root))
			if e != nil {
				return nil, e
			}
			return root[first:last], nil
		}
		iv, e := m.Eval(x.Args[0], f)
		if e != nil || iv == nil {
			return nil, e
		}
		i := intIndex(iv)
		if i < 0 {
			i += len(root)
		}
		if i < 0 || i >= len(root) {
			return nil, m.runtimeError(x, "index out of range")
		}
		return root[i : i+1], nil
	}

	return nil, m.runtimeError(x, "bad index expression")
}

func (m *VM) evalCall(x *xpr.Call, f Frame) (val.Value, err.Error) {
	// re-entry inside an asynchronous condition reuses completed calls
	if c := f.Deferred(); c != nil {
		if v, ok := c.Lookup(x); ok {
			return v, nil
		}
	}

	fv, e := m.Eval(x.Fn, f)
	if e != nil || fv == nil {
		return nil, e
	}
	fn, ok := fv.(val.Func)
	if !ok {
		return nil, m.runtimeError(x, "call of non-function value")
	}

	args, e := m.evalArgs(x.Args, f)
	if e != nil || args == nil {
		return nil, e
	}

	v, e := m.Calls.Call(fn, args, f)
	if e != nil {
		return nil, e
	}
	if c := f.Deferred(); c != nil && v != nil {
		c.Store(x, v)
	}
	return v, nil
}

// evalArgs evaluates an argument list left to right, aborting with no
// value as soon as any argument yields none.
func (m *VM) evalArgs(xs []xpr.Expression, f Frame) ([]val.Value, err.Error) {
	out := make([]val.Value, len(xs))
	for i, a := range xs {
		v, e := m.Eval(a, f)
		if e != nil || v == nil {
			return nil, e
		}
		out[i] = v
	}
	return out, nil
}

func (m *VM) evalSchedule(x *xpr.Schedule, f Frame) (val.Value, err.Error) {
	if m.terminating {
		return nil, nil
	}
	w, e := m.Eval(x.When, f)
	if e != nil || w == nil {
		return nil, e
	}
	fire := time.Time{}
	switch w := w.(type) {
	case val.Time:
		fire = w.Time
	case val.Interval:
		fire = m.now().Add(time.Duration(w))
	default:
		return nil, m.runtimeError(x, "schedule requires a time or interval")
	}
	args, e := m.evalArgs(x.Ev.Args, f)
	if e != nil || args == nil {
		return nil, e
	}
	m.Timers.Schedule(fire, x.Ev.Name, args)
	return nil, nil
}

// runtimeError reports a diagnostic with the node's source location and
// returns the error for propagation; the failing subexpression yields
// no value and every caller fails soft in turn.
func (m *VM) runtimeError(x xpr.Expression, format string, args ...interface{}) err.Error {
	e := err.ExecutionError{
		Problem: fmt.Sprintf(format, args...),
		Loc:     x.Loc(),
	}
	m.Report.ReportRuntime(e)
	return e
}
