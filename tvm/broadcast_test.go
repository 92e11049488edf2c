// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package tvm_test

import (
	"testing"

	"tapir.run/tvm"
	"tapir.run/tvm/typ"
	"tapir.run/tvm/val"
	"tapir.run/tvm/xpr"
)

func TestVectorVectorAdd(t *testing.T) {
	h := newHarness()
	b := h.bld
	l := b.Constant(val.VectorOf(val.Int(1), val.Int(2), val.Int(3)), loc)
	r := b.Constant(val.VectorOf(val.Int(10), val.Int(20), val.Int(30)), loc)
	n := b.Binary(xpr.OpAdd, l, r, loc)
	if !n.Type().Equals(typ.Vector{Yield: typ.Int{}}) {
		t.Fatalf("%v\n", n.Type())
	}
	out := h.eval(t, n).(*val.Vector)
	for i, want := range []val.Int{11, 22, 33} {
		if out.Lookup(i) != want {
			t.Fatalf("element %d: %#v\n", i, out.Lookup(i))
		}
	}
}

func TestVectorUndefinedElementPropagates(t *testing.T) {
	h := newHarness()
	b := h.bld
	l := b.Constant(val.VectorOf(val.Int(1), nil, val.Int(3)), loc)
	r := b.Constant(val.VectorOf(val.Int(10), val.Int(20), val.Int(30)), loc)
	n := b.Binary(xpr.OpAdd, l, r, loc)
	out := h.eval(t, n).(*val.Vector)
	if out.Len() != 3 {
		t.Fatalf("%#v\n", out)
	}
	if out.Lookup(0) != val.Int(11) || out.Lookup(1) != nil || out.Lookup(2) != val.Int(33) {
		t.Fatalf("%#v\n", out)
	}
}

func TestVectorSizeMismatch(t *testing.T) {
	h := newHarness()
	b := h.bld
	l := b.Constant(val.VectorOf(val.Int(1), val.Int(2), val.Int(3)), loc)
	r := b.Constant(val.VectorOf(val.Int(1), val.Int(2), val.Int(3), val.Int(4)), loc)
	n := b.Binary(xpr.OpAdd, l, r, loc)
	e := h.evalErr(t, n)
	if err2(t, e).Problem != "vector operands are of different sizes" {
		t.Fatalf("%#v\n", e)
	}
}

func TestVectorScalarBroadcast(t *testing.T) {
	h := newHarness()
	b := h.bld
	l := b.Constant(val.VectorOf(val.Double(1), val.Double(2)), loc)
	n := b.Binary(xpr.OpMul, l, b.Constant(val.Double(2.5), loc), loc)
	out := h.eval(t, n).(*val.Vector)
	if out.Lookup(0) != val.Double(2.5) || out.Lookup(1) != val.Double(5) {
		t.Fatalf("%#v\n", out)
	}

	// scalar on the left broadcasts too
	n = b.Binary(xpr.OpSub, b.Constant(val.Int(10), loc), b.Constant(val.VectorOf(val.Int(1), val.Int(2)), loc), loc)
	out = h.eval(t, n).(*val.Vector)
	if out.Lookup(0) != val.Int(9) || out.Lookup(1) != val.Int(8) {
		t.Fatalf("%#v\n", out)
	}
}

func TestVectorUnary(t *testing.T) {
	h := newHarness()
	b := h.bld
	n := b.Unary(xpr.OpNeg, b.Constant(val.VectorOf(val.Int(1), nil, val.Int(-2)), loc), loc)
	out := h.eval(t, n).(*val.Vector)
	if out.Lookup(0) != val.Int(-1) || out.Lookup(1) != nil || out.Lookup(2) != val.Int(2) {
		t.Fatalf("%#v\n", out)
	}
}

func TestBoolVectorIndexCompacts(t *testing.T) {
	h := newHarness()
	b := h.bld
	root := b.Constant(val.VectorOf(val.Int(10), val.Int(20), val.Int(30)), loc)
	mask := b.Constant(val.VectorOf(val.Bool(true), val.Bool(false), val.Bool(true)), loc)
	n := b.Index(root, []xpr.Expression{mask}, false, loc)
	out := h.eval(t, n).(*val.Vector)
	if out.Len() != 2 || out.Lookup(0) != val.Int(10) || out.Lookup(1) != val.Int(30) {
		t.Fatalf("%#v\n", out)
	}
}

func TestBoolVectorIndexSizeMismatch(t *testing.T) {
	h := newHarness()
	b := h.bld
	root := b.Constant(val.VectorOf(val.Int(10), val.Int(20), val.Int(30)), loc)
	mask := b.Constant(val.VectorOf(val.Bool(true), val.Bool(false)), loc)
	n := b.Index(root, []xpr.Expression{mask}, false, loc)
	e := h.evalErr(t, n)
	if err2(t, e).Problem != "size mismatch, boolean index and vector" {
		t.Fatalf("%#v\n", e)
	}
}

func TestIntVectorIndexGathers(t *testing.T) {
	h := newHarness()
	b := h.bld
	root := b.Constant(val.VectorOf(val.String("a"), val.String("b"), val.String("c")), loc)
	idx := b.Constant(val.VectorOf(val.Count(2), val.Count(0), val.Count(2)), loc)
	n := b.Index(root, []xpr.Expression{idx}, false, loc)
	out := h.eval(t, n).(*val.Vector)
	if out.Len() != 3 || out.Lookup(0) != val.String("c") || out.Lookup(1) != val.String("a") || out.Lookup(2) != val.String("c") {
		t.Fatalf("%#v\n", out)
	}
}

func TestVectorCond(t *testing.T) {
	h := newHarness()
	b := h.bld
	n := b.Cond(
		b.Constant(val.VectorOf(val.Bool(true), val.Bool(false), val.Bool(true)), loc),
		b.Constant(val.VectorOf(val.Int(1), val.Int(2), val.Int(3)), loc),
		b.Constant(val.VectorOf(val.Int(-1), val.Int(-2), val.Int(-3)), loc),
		loc,
	)
	out := h.eval(t, n).(*val.Vector)
	if out.Lookup(0) != val.Int(1) || out.Lookup(1) != val.Int(-2) || out.Lookup(2) != val.Int(3) {
		t.Fatalf("%#v\n", out)
	}
}

func TestVectorBoolEvaluatesBothSides(t *testing.T) {
	h := newHarness()
	b := h.bld
	h.bld.Scope.Define("probe", tvm.Decl{
		Type:  typ.Func{Params: []typ.Type{}, Yield: typ.Vector{Yield: typ.Bool{}}},
		Const: val.Func{Name: "probe"},
	})
	h.calls.fns["probe"] = func([]val.Value) val.Value {
		return val.VectorOf(val.Bool(true), val.Bool(false))
	}

	// a forcing scalar would short-circuit in the scalar world, but any
	// vector shape evaluates both operands
	n := b.Binary(xpr.OpAndAnd,
		b.Constant(val.Bool(false), loc),
		b.Call(b.Name("probe", loc), nil, loc),
		loc)
	out := h.eval(t, n).(*val.Vector)
	if h.calls.invoked["probe"] != 1 {
		t.Fatalf("vector bool must evaluate both sides, ran %d times", h.calls.invoked["probe"])
	}
	if out.Len() != 2 || out.Lookup(0) != val.Bool(false) || out.Lookup(1) != val.Bool(false) {
		t.Fatalf("%#v\n", out)
	}

	n = b.Binary(xpr.OpOrOr,
		b.Constant(val.Bool(true), loc),
		b.Call(b.Name("probe", loc), nil, loc),
		loc)
	out = h.eval(t, n).(*val.Vector)
	if out.Lookup(0) != val.Bool(true) || out.Lookup(1) != val.Bool(true) {
		t.Fatalf("%#v\n", out)
	}
}

func TestVectorBoolElementwise(t *testing.T) {
	h := newHarness()
	b := h.bld
	l := b.Constant(val.VectorOf(val.Bool(true), val.Bool(true), nil), loc)
	r := b.Constant(val.VectorOf(val.Bool(true), val.Bool(false), val.Bool(true)), loc)
	n := b.Binary(xpr.OpAndAnd, l, r, loc)
	out := h.eval(t, n).(*val.Vector)
	if out.Lookup(0) != val.Bool(true) || out.Lookup(1) != val.Bool(false) || out.Lookup(2) != nil {
		t.Fatalf("%#v\n", out)
	}
}

func TestVectorSlice(t *testing.T) {
	h := newHarness()
	b := h.bld
	root := b.Constant(val.VectorOf(val.Int(0), val.Int(1), val.Int(2), val.Int(3), val.Int(4)), loc)
	n := b.Index(root, []xpr.Expression{
		b.Constant(val.Int(1), loc),
		b.Constant(val.Int(3), loc),
	}, true, loc)
	out := h.eval(t, n).(*val.Vector)
	if out.Len() != 2 || out.Lookup(0) != val.Int(1) || out.Lookup(1) != val.Int(2) {
		t.Fatalf("%#v\n", out)
	}
}

func TestVectorScalarIndex(t *testing.T) {
	h := newHarness()
	b := h.bld
	root := b.Constant(val.VectorOf(val.Int(10), val.Int(20), val.Int(30)), loc)

	n := b.Index(root, []xpr.Expression{b.Constant(val.Int(-1), loc)}, false, loc)
	if v := h.eval(t, n); v != val.Int(30) {
		t.Fatalf("%#v\n", v)
	}

	n = b.Index(root, []xpr.Expression{b.Constant(val.Int(3), loc)}, false, loc)
	e := h.evalErr(t, n)
	if err2(t, e).Problem != "index out of range" {
		t.Fatalf("%#v\n", e)
	}
}
