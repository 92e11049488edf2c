// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package tvm

import (
	"tapir.run/tvm/err"
	"tapir.run/tvm/val"
	"tapir.run/tvm/xpr"
)

// broadcastBinary applies a scalar fold across vector operands. Shapes:
// vector∘vector folds elementwise and requires equal lengths,
// vector∘scalar folds the scalar against every defined element.
// Undefined elements propagate as undefined, at any position.
func (m *VM) broadcastBinary(x xpr.Expression, op xpr.Op, l, r val.Value) (val.Value, err.Error) {
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
			w, e := m.foldBinary(x, op, a, b)
			if e != nil {
				return nil, e
			}
			out.Append(w)
		}
		return out, nil
	}

	if lok {
		out := val.NewVector(lv.Len())
		for i, n := 0, lv.Len(); i < n; i++ {
			a := lv.Lookup(i)
			if a == nil {
				out.Append(nil)
				continue
			}
			w, e := m.foldBinary(x, op, a, r)
			if e != nil {
				return nil, e
			}
			out.Append(w)
		}
		return out, nil
	}

	if rok {
		out := val.NewVector(rv.Len())
		for i, n := 0, rv.Len(); i < n; i++ {
			b := rv.Lookup(i)
			if b == nil {
				out.Append(nil)
				continue
			}
			w, e := m.foldBinary(x, op, l, b)
			if e != nil {
				return nil, e
			}
			out.Append(w)
		}
		return out, nil
	}

	return m.foldBinary(x, op, l, r)
}

func (m *VM) broadcastUnary(x xpr.Expression, op xpr.Op, v val.Value) (val.Value, err.Error) {
	vec, ok := v.(*val.Vector)
	if !ok {
		return m.foldUnary(x, op, v)
	}
	out := val.NewVector(vec.Len())
	for i, n := 0, vec.Len(); i < n; i++ {
		a := vec.Lookup(i)
		if a == nil {
			out.Append(nil)
			continue
		}
		w, e := m.foldUnary(x, op, a)
		if e != nil {
			return nil, e
		}
		out.Append(w)
	}
	return out, nil
}

// gatherVector implements index-by-integer-vector: referenced elements
// in the index vector's order.
func (m *VM) gatherVector(x xpr.Expression, base, index *val.Vector) (val.Value, err.Error) {
	out := val.NewVector(index.Len())
	for i, n := 0, index.Len(); i < n; i++ {
		w := index.Lookup(i)
		if w == nil {
			out.Append(nil)
			continue
		}
		out.Append(base.Lookup(intIndex(w)))
	}
	return out, nil
}

// compactVector implements index-by-boolean-vector: surviving elements,
// compacted rather than masked in place.
func (m *VM) compactVector(x xpr.Expression, base, index *val.Vector) (val.Value, err.Error) {
	if base.Len() != index.Len() {
		return nil, m.runtimeError(x, "size mismatch, boolean index and vector")
	}
	out := val.NewVector(0)
	for i, n := 0, base.Len(); i < n; i++ {
		if w, ok := index.Lookup(i).(val.Bool); ok && bool(w) {
			out.Append(base.Lookup(i))
		}
	}
	return out, nil
}

// condVectors evaluates the vector conditional: three equal-length
// vectors, selecting per element; an undefined condition element yields
// an undefined result element.
func (m *VM) condVectors(x xpr.Expression, cond, then, els *val.Vector) (val.Value, err.Error) {
	if cond.Len() != then.Len() || cond.Len() != els.Len() {
		return nil, m.runtimeError(x, "vector operands are of different sizes")
	}
	out := val.NewVector(cond.Len())
	for i, n := 0, cond.Len(); i < n; i++ {
		c := cond.Lookup(i)
		if c == nil {
			out.Append(nil)
			continue
		}
		if !val.IsZero(c) {
			out.Append(then.Lookup(i))
		} else {
			out.Append(els.Lookup(i))
		}
	}
	return out, nil
}

func intIndex(v val.Value) int {
	switch v := normalize(v).(type) {
	case val.Int:
		return int(v)
	case val.Count:
		return int(v)
	}
	return -1
}
