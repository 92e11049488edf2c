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

func defineVector(h *harness, name string, vs ...val.Value) {
	h.bld.Scope.Define(name, tvm.Decl{Type: typ.Vector{Yield: typ.Int{}}})
	h.frame.Assign(name, val.VectorOf(vs...))
}

func TestNameAssignment(t *testing.T) {
	h := newHarness()
	b := h.bld
	h.bld.Scope.Define("x", tvm.Decl{Type: typ.Int{}})

	n := b.Assign(b.Name("x", loc), b.Constant(val.Int(42), loc), false, loc)
	out := h.eval(t, n)
	if out != val.Int(42) {
		t.Fatalf("assignment yields the assigned value, got %#v\n", out)
	}
	if h.frame.Lookup("x") != val.Int(42) {
		t.Fatalf("%#v\n", h.frame.Lookup("x"))
	}
}

func TestAssignmentPromotes(t *testing.T) {
	h := newHarness()
	b := h.bld
	h.bld.Scope.Define("d", tvm.Decl{Type: typ.Double{}})

	n := b.Assign(b.Name("d", loc), b.Constant(val.Count(3), loc), false, loc)
	h.eval(t, n)
	if h.frame.Lookup("d") != val.Double(3) {
		t.Fatalf("count must widen to double on assignment, got %#v\n", h.frame.Lookup("d"))
	}
}

func TestSliceAssignment(t *testing.T) {
	h := newHarness()
	b := h.bld
	defineVector(h, "v", val.Int(0), val.Int(1), val.Int(2), val.Int(3), val.Int(4))

	lhs := b.Index(b.Name("v", loc), []xpr.Expression{
		b.Constant(val.Int(1), loc),
		b.Constant(val.Int(3), loc),
	}, true, loc)
	rhs := b.Constant(val.VectorOf(val.Int(10), val.Int(11)), loc)
	h.eval(t, b.Assign(lhs, rhs, false, loc))

	out := h.frame.Lookup("v").(*val.Vector)
	want := []val.Int{0, 10, 11, 3, 4}
	if out.Len() != len(want) {
		t.Fatalf("%#v\n", out)
	}
	for i, w := range want {
		if out.Lookup(i) != w {
			t.Fatalf("element %d: %#v\n", i, out.Lookup(i))
		}
	}
}

func TestSliceAssignmentResizes(t *testing.T) {
	h := newHarness()
	b := h.bld
	defineVector(h, "v", val.Int(0), val.Int(1), val.Int(2), val.Int(3))

	// replacing two elements with one shrinks the vector
	lhs := b.Index(b.Name("v", loc), []xpr.Expression{
		b.Constant(val.Int(1), loc),
		b.Constant(val.Int(3), loc),
	}, true, loc)
	rhs := b.Constant(val.VectorOf(val.Int(9)), loc)
	h.eval(t, b.Assign(lhs, rhs, false, loc))

	out := h.frame.Lookup("v").(*val.Vector)
	if out.Len() != 3 || out.Lookup(0) != val.Int(0) || out.Lookup(1) != val.Int(9) || out.Lookup(2) != val.Int(3) {
		t.Fatalf("%#v\n", out)
	}
}

func TestSliceNegativeEndpoints(t *testing.T) {
	h := newHarness()
	b := h.bld
	defineVector(h, "v", val.Int(0), val.Int(1), val.Int(2), val.Int(3), val.Int(4))

	// -1 resolves to position 4, -7 is past the front and clamps to 0
	lhs := b.Index(b.Name("v", loc), []xpr.Expression{
		b.Constant(val.Int(-7), loc),
		b.Constant(val.Int(-1), loc),
	}, true, loc)
	rhs := b.Constant(val.VectorOf(val.Int(8)), loc)
	h.eval(t, b.Assign(lhs, rhs, false, loc))

	out := h.frame.Lookup("v").(*val.Vector)
	if out.Len() != 2 || out.Lookup(0) != val.Int(8) || out.Lookup(1) != val.Int(4) {
		t.Fatalf("%#v\n", out)
	}
}

func TestDestructuringAssignment(t *testing.T) {
	h := newHarness()
	b := h.bld
	h.bld.Scope.Define("a", tvm.Decl{Type: typ.Int{}})
	h.bld.Scope.Define("c", tvm.Decl{Type: typ.String{}})

	lhs := b.List([]xpr.Expression{b.Name("a", loc), b.Name("c", loc)}, loc)
	rhs := b.List([]xpr.Expression{
		b.Constant(val.Int(1), loc),
		b.Constant(val.String("two"), loc),
	}, loc)
	h.eval(t, b.Assign(lhs, rhs, false, loc))

	if h.frame.Lookup("a") != val.Int(1) || h.frame.Lookup("c") != val.String("two") {
		t.Fatalf("%#v %#v\n", h.frame.Lookup("a"), h.frame.Lookup("c"))
	}
}

func TestDestructuringLengthMismatch(t *testing.T) {
	h := newHarness()
	b := h.bld
	h.bld.Scope.Define("a", tvm.Decl{Type: typ.Int{}})
	h.bld.Scope.Define("c", tvm.Decl{Type: typ.Int{}})

	lhs := b.List([]xpr.Expression{b.Name("a", loc), b.Name("c", loc)}, loc)
	rhs := b.List([]xpr.Expression{
		b.Constant(val.Int(1), loc),
		b.Constant(val.Int(2), loc),
		b.Constant(val.Int(3), loc),
	}, loc)
	e := h.evalErr(t, b.Assign(lhs, rhs, false, loc))
	if err2(t, e).Problem != "mismatch in list lengths" {
		t.Fatalf("%#v\n", e)
	}
}

func TestStringIndexNotAssignable(t *testing.T) {
	h := newHarness()
	b := h.bld
	h.bld.Scope.Define("s", tvm.Decl{Type: typ.String{}})

	idx := b.Index(b.Name("s", loc), []xpr.Expression{b.Constant(val.Count(0), loc)}, false, loc)
	lv := b.MakeLvalue(idx, false)
	if !lv.IsError() {
		t.Fatal("string index expression must not be assignable")
	}
	if len(h.report.Static) != 1 {
		t.Fatalf("%#v\n", h.report.Static)
	}
	if errExpr(t, h.report.Static[0]).Problem != "cannot assign to string index expression" {
		t.Fatalf("%#v\n", h.report.Static[0])
	}
}

func TestTableIndexAssignment(t *testing.T) {
	h := newHarness()
	b := h.bld
	h.bld.Scope.Define("t", tvm.Decl{Type: typ.Table{Index: []typ.Type{typ.String{}}, Yield: typ.Count{}}})
	tbl := val.NewTable(0)
	tbl.Assign(val.String("old"), val.Count(1))
	h.frame.Assign("t", tbl)

	lhs := b.Index(b.Name("t", loc), []xpr.Expression{b.Constant(val.String("new"), loc)}, false, loc)
	h.eval(t, b.Assign(lhs, b.Constant(val.Count(7), loc), false, loc))

	if got, ok := tbl.Get(val.String("new")); !ok || got != val.Count(7) {
		t.Fatalf("%#v\n", tbl)
	}
	if got, _ := tbl.Get(val.String("old")); got != val.Count(1) {
		t.Fatalf("%#v\n", tbl)
	}
}

func TestVectorElementAssignment(t *testing.T) {
	h := newHarness()
	b := h.bld
	defineVector(h, "v", val.Int(1), val.Int(2))

	lhs := b.Index(b.Name("v", loc), []xpr.Expression{b.Constant(val.Count(3), loc)}, false, loc)
	h.eval(t, b.Assign(lhs, b.Constant(val.Int(9), loc), false, loc))

	// writing past the end extends the vector, leaving a hole
	out := h.frame.Lookup("v").(*val.Vector)
	if out.Len() != 4 || out.Lookup(2) != nil || out.Lookup(3) != val.Int(9) {
		t.Fatalf("%#v\n", out)
	}
}

func TestIncrDecr(t *testing.T) {
	h := newHarness()
	b := h.bld
	h.bld.Scope.Define("n", tvm.Decl{Type: typ.Count{}})
	h.frame.Assign("n", val.Count(1))

	out := h.eval(t, b.Unary(xpr.OpIncr, b.Name("n", loc), loc))
	if out != val.Count(2) || h.frame.Lookup("n") != val.Count(2) {
		t.Fatalf("%#v %#v\n", out, h.frame.Lookup("n"))
	}

	h.eval(t, b.Unary(xpr.OpDecr, b.Name("n", loc), loc))
	h.eval(t, b.Unary(xpr.OpDecr, b.Name("n", loc), loc))
	e := h.evalErr(t, b.Unary(xpr.OpDecr, b.Name("n", loc), loc))
	if err2(t, e).Problem != "count underflow" {
		t.Fatalf("%#v\n", e)
	}
	if h.frame.Lookup("n") != val.Count(0) {
		t.Fatalf("failed decrement must not write back, got %#v\n", h.frame.Lookup("n"))
	}
}

func TestAssignmentBaseWithoutValue(t *testing.T) {
	h := newHarness()
	b := h.bld
	h.bld.Scope.Define("lookup", tvm.Decl{
		Type:  typ.Func{Params: []typ.Type{}, Yield: connType},
		Const: val.Func{Name: "lookup"},
	})
	h.bld.Scope.Define("mkvec", tvm.Decl{
		Type:  typ.Func{Params: []typ.Type{}, Yield: typ.Vector{Yield: typ.Int{}}},
		Const: val.Func{Name: "mkvec"},
	})
	// neither name has an implementation, so both calls yield no value

	n := b.Assign(
		b.Field(b.Call(b.Name("lookup", loc), nil, loc), "hits", loc),
		b.Constant(val.Count(1), loc), false, loc)
	h.eval(t, n)

	n = b.Assign(
		b.Index(b.Call(b.Name("mkvec", loc), nil, loc), []xpr.Expression{b.Constant(val.Int(0), loc)}, false, loc),
		b.Constant(val.Int(9), loc), false, loc)
	h.eval(t, n)

	if len(h.report.Runtime) != 0 {
		t.Fatalf("a valueless base must fail soft, got %#v\n", h.report.Runtime)
	}
}

func TestConstNotAssignable(t *testing.T) {
	h := newHarness()
	b := h.bld
	h.bld.Scope.Define("pi", tvm.Decl{Type: typ.Double{}, Const: val.Double(3.14)})

	n := b.Assign(b.Name("pi", loc), b.Constant(val.Double(3), loc), false, loc)
	if !n.IsError() || len(h.report.Static) != 1 {
		t.Fatalf("%#v\n", h.report.Static)
	}
}

func TestOptionAssignableOnlyAtInit(t *testing.T) {
	h := newHarness()
	b := h.bld
	h.bld.Scope.Define("threshold", tvm.Decl{Type: typ.Count{}, Option: true})

	n := b.Assign(b.Name("threshold", loc), b.Constant(val.Count(10), loc), true, loc)
	if n.IsError() {
		t.Fatalf("%#v\n", h.report.Static)
	}
	n = b.Assign(b.Name("threshold", loc), b.Constant(val.Count(20), loc), false, loc)
	if !n.IsError() {
		t.Fatal("option must reject reassignment outside initialization")
	}
}
