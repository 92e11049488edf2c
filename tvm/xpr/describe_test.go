// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package xpr_test

import (
	"testing"

	"tapir.run/tvm/val"
	"tapir.run/tvm/xpr"
)

func num(n int64) *xpr.Constant {
	return &xpr.Constant{Value: val.Int(n)}
}

func ident(s string) *xpr.Name {
	return &xpr.Name{Ident: s}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		x    xpr.Expression
		want string
	}{
		{
			&xpr.Binary{Op: xpr.OpAdd, Left: ident("x"), Right: num(1)},
			"(x + 1)",
		},
		{
			&xpr.Unary{Op: xpr.OpSize, Operand: ident("conns")},
			"|conns|",
		},
		{
			&xpr.Unary{Op: xpr.OpNot, Operand: ident("ok")},
			"!ok",
		},
		{
			&xpr.Field{Root: ident("c"), Name: "host"},
			"c$host",
		},
		{
			&xpr.HasField{Root: ident("c"), Name: "host"},
			"c?$host",
		},
		{
			&xpr.Index{Root: ident("v"), Args: []xpr.Expression{num(1), num(3)}, Slice: true},
			"v[1:3]",
		},
		{
			&xpr.Cond{Cond: ident("p"), Then: num(1), Else: num(2)},
			"(p ? 1 : 2)",
		},
		{
			&xpr.Call{Fn: ident("f"), Args: []xpr.Expression{num(1), ident("x")}},
			"f(1, x)",
		},
		{
			&xpr.Event{Name: "tick", Args: []xpr.Expression{num(1)}},
			"event tick(1)",
		},
		{
			&xpr.Constant{Value: val.Bool(true)},
			"T",
		},
		{
			&xpr.Constant{Value: val.String("hi")},
			`"hi"`,
		},
		{
			&xpr.Constant{Value: nil},
			"<no value>",
		},
	}
	for _, c := range tests {
		if got := xpr.Describe(c.x); got != c.want {
			t.Fatalf("Describe = %q, want %q", got, c.want)
		}
	}
}

func TestTraverseOrder(t *testing.T) {
	tree := &xpr.Binary{
		Op:    xpr.OpAdd,
		Left:  &xpr.Binary{Op: xpr.OpMul, Left: ident("a"), Right: ident("b")},
		Right: ident("c"),
	}

	pre := []string(nil)
	post := []string(nil)
	xpr.Traverse(tree,
		func(x xpr.Expression) bool {
			pre = append(pre, xpr.Describe(x))
			return true
		},
		func(x xpr.Expression) {
			post = append(post, xpr.Describe(x))
		})

	wantPre := []string{"((a * b) + c)", "(a * b)", "a", "b", "c"}
	wantPost := []string{"a", "b", "(a * b)", "c", "((a * b) + c)"}
	if len(pre) != len(wantPre) || len(post) != len(wantPost) {
		t.Fatalf("%v\n%v\n", pre, post)
	}
	for i := range wantPre {
		if pre[i] != wantPre[i] {
			t.Fatalf("pre[%d] = %q, want %q", i, pre[i], wantPre[i])
		}
	}
	for i := range wantPost {
		if post[i] != wantPost[i] {
			t.Fatalf("post[%d] = %q, want %q", i, post[i], wantPost[i])
		}
	}
}

func TestTraversePrunes(t *testing.T) {
	tree := &xpr.Binary{
		Op:    xpr.OpAdd,
		Left:  &xpr.Binary{Op: xpr.OpMul, Left: ident("a"), Right: ident("b")},
		Right: ident("c"),
	}
	seen := 0
	xpr.Traverse(tree,
		func(x xpr.Expression) bool {
			seen++
			_, descend := x.(*xpr.Binary)
			return descend
		},
		nil)
	if seen != 5 {
		t.Fatalf("seen %d nodes", seen)
	}

	seen = 0
	xpr.Traverse(tree, func(x xpr.Expression) bool { seen++; return false }, nil)
	if seen != 1 {
		t.Fatalf("root-only traversal saw %d nodes", seen)
	}
}
