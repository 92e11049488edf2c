// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package tvm

import (
	"fmt"
	"strings"
	"time"

	"net/netip"

	"tapir.run/tvm/err"
	"tapir.run/tvm/val"
	"tapir.run/tvm/xpr"
)

// normalize folds counter values into the count domain. Counters differ
// from counts only at construction time (bitwise rejection); their
// runtime arithmetic is plain unsigned arithmetic.
func normalize(v val.Value) val.Value {
	if c, ok := v.(val.Counter); ok {
		return val.Count(c)
	}
	return v
}

// foldBinary computes op over two scalar operands already in the
// promoted domain. Coercion nodes inserted at construction guarantee
// matching domains; a mismatch here is a logic defect.
func (m *VM) foldBinary(x xpr.Expression, op xpr.Op, l, r val.Value) (val.Value, err.Error) {
	l, r = normalize(l), normalize(r)

	switch op {
	case xpr.OpAdd:
		switch l := l.(type) {
		case val.Int:
			return l + r.(val.Int), nil
		case val.Count:
			return l + r.(val.Count), nil
		case val.Double:
			return l + r.(val.Double), nil
		case val.String:
			return l + r.(val.String), nil
		case val.Time:
			return val.Time{Time: l.Time.Add(time.Duration(r.(val.Interval)))}, nil
		case val.Interval:
			if t, ok := r.(val.Time); ok {
				return val.Time{Time: t.Time.Add(time.Duration(l))}, nil
			}
			return l + r.(val.Interval), nil
		}

	case xpr.OpSub:
		switch l := l.(type) {
		case val.Int:
			return l - r.(val.Int), nil
		case val.Count:
			rc := r.(val.Count)
			if rc > l {
				return nil, m.runtimeError(x, "count underflow")
			}
			return l - rc, nil
		case val.Double:
			return l - r.(val.Double), nil
		case val.Time:
			if t, ok := r.(val.Time); ok {
				return val.Interval(l.Time.Sub(t.Time)), nil
			}
			return val.Time{Time: l.Time.Add(-time.Duration(r.(val.Interval)))}, nil
		case val.Interval:
			return l - r.(val.Interval), nil
		}

	case xpr.OpMul:
		switch l := l.(type) {
		case val.Int:
			return l * r.(val.Int), nil
		case val.Count:
			return l * r.(val.Count), nil
		case val.Double:
			return l * r.(val.Double), nil
		case val.Interval:
			return scaleInterval(l, r), nil
		default:
			if i, ok := r.(val.Interval); ok {
				return scaleInterval(i, l), nil
			}
		}

	case xpr.OpDiv:
		switch l := l.(type) {
		case val.Int:
			if r.(val.Int) == 0 {
				return nil, m.runtimeError(x, "division by zero")
			}
			return l / r.(val.Int), nil
		case val.Count:
			if r.(val.Count) == 0 {
				return nil, m.runtimeError(x, "division by zero")
			}
			return l / r.(val.Count), nil
		case val.Double:
			if r.(val.Double) == 0 {
				return nil, m.runtimeError(x, "division by zero")
			}
			return l / r.(val.Double), nil
		case val.Addr:
			return m.foldSubnet(x, l, r)
		case val.Interval:
			if i, ok := r.(val.Interval); ok {
				if i == 0 {
					return nil, m.runtimeError(x, "division by zero")
				}
				return val.Double(float64(l) / float64(i)), nil
			}
			if val.IsZero(normalize(r)) {
				return nil, m.runtimeError(x, "division by zero")
			}
			return divInterval(l, r), nil
		}

	case xpr.OpMod:
		switch l := l.(type) {
		case val.Int:
			if r.(val.Int) == 0 {
				return nil, m.runtimeError(x, "modulo by zero")
			}
			return l % r.(val.Int), nil
		case val.Count:
			if r.(val.Count) == 0 {
				return nil, m.runtimeError(x, "modulo by zero")
			}
			return l % r.(val.Count), nil
		}

	case xpr.OpBitAnd:
		switch l := l.(type) {
		case val.Count:
			return l & r.(val.Count), nil
		case *val.Pattern:
			return val.Conjoin(l, r.(*val.Pattern)), nil
		}

	case xpr.OpBitOr:
		switch l := l.(type) {
		case val.Count:
			return l | r.(val.Count), nil
		case *val.Pattern:
			p, e := val.Disjoin(l, r.(*val.Pattern))
			if e != nil {
				return nil, m.runtimeError(x, "bad pattern disjunction: %v", e)
			}
			return p, nil
		}

	case xpr.OpBitXor:
		if l, ok := l.(val.Count); ok {
			return l ^ r.(val.Count), nil
		}

	case xpr.OpEq, xpr.OpNe:
		eq, e := m.foldEquals(x, l, r)
		if e != nil {
			return nil, e
		}
		if op == xpr.OpNe {
			eq = !eq
		}
		return val.Bool(eq), nil

	case xpr.OpLt, xpr.OpLe:
		less, eq, e := m.foldCompare(x, l, r)
		if e != nil {
			return nil, e
		}
		if op == xpr.OpLt {
			return val.Bool(less), nil
		}
		return val.Bool(less || eq), nil

	case xpr.OpIn:
		return m.foldIn(x, l, r)
	}

	panic(fmt.Sprintf("unhandled fold: %v over %T, %T", op, l, r))
}

func scaleInterval(i val.Interval, by val.Value) val.Interval {
	switch by := by.(type) {
	case val.Int:
		return i * val.Interval(by)
	case val.Count:
		return i * val.Interval(by)
	case val.Double:
		return val.Interval(float64(i) * float64(by))
	}
	panic(fmt.Sprintf("unhandled interval scale: %T", by))
}

func divInterval(i val.Interval, by val.Value) val.Interval {
	switch by := by.(type) {
	case val.Int:
		return i / val.Interval(by)
	case val.Count:
		return i / val.Interval(by)
	case val.Double:
		return val.Interval(float64(i) / float64(by))
	}
	panic(fmt.Sprintf("unhandled interval divisor: %T", by))
}

// foldSubnet builds addr/len, validating the prefix length against the
// address family's bit width.
func (m *VM) foldSubnet(x xpr.Expression, a val.Addr, r val.Value) (val.Value, err.Error) {
	n := 0
	switch r := normalize(r).(type) {
	case val.Count:
		n = int(r)
	case val.Int:
		n = int(r)
	default:
		panic(fmt.Sprintf("unhandled prefix length: %T", r))
	}
	if n < 0 || n > a.Width() {
		if a.Width() == 32 {
			return nil, m.runtimeError(x, "bad IPv4 subnet prefix length: %d", n)
		}
		return nil, m.runtimeError(x, "bad IPv6 subnet prefix length: %d", n)
	}
	p, e := a.Addr.Prefix(n)
	if e != nil {
		return nil, m.runtimeError(x, "bad subnet: %v", e)
	}
	return val.Subnet{Prefix: netip.PrefixFrom(p.Addr(), n)}, nil
}

// foldEquals handles == after canonicalization put any pattern operand
// on the left. Pattern equality means exact full-string match.
func (m *VM) foldEquals(x xpr.Expression, l, r val.Value) (bool, err.Error) {
	if p, ok := l.(*val.Pattern); ok {
		if s, ok := r.(val.String); ok {
			return p.MatchExactly(string(s)), nil
		}
	}
	return l.Equals(r), nil
}

// foldCompare returns (l < r, l == r) for ordered scalar domains.
func (m *VM) foldCompare(x xpr.Expression, l, r val.Value) (less, eq bool, e err.Error) {
	switch l := l.(type) {
	case val.Int:
		q := r.(val.Int)
		return l < q, l == q, nil
	case val.Count:
		q := r.(val.Count)
		return l < q, l == q, nil
	case val.Double:
		q := r.(val.Double)
		return l < q, l == q, nil
	case val.String:
		q := r.(val.String)
		return l < q, l == q, nil
	case val.Time:
		q := r.(val.Time)
		return l.Time.Before(q.Time), l.Time.Equal(q.Time), nil
	case val.Interval:
		q := r.(val.Interval)
		return l < q, l == q, nil
	case val.Port:
		q := r.(val.Port)
		return l.Less(q), l == q, nil
	case val.Addr:
		q := r.(val.Addr)
		return l.Less(q), l == q, nil
	case *val.Table:
		// subset relations, already restricted to sets at construction
		q := r.(*val.Table)
		sub := l.SubsetOf(q)
		eq := l.Equals(q)
		return sub && !eq, eq, nil
	}
	panic(fmt.Sprintf("unhandled comparison: %T", l))
}

// foldIn implements the membership operator across its operand families.
func (m *VM) foldIn(x xpr.Expression, l, r val.Value) (val.Value, err.Error) {
	switch r := r.(type) {
	case val.String:
		switch l := l.(type) {
		case val.String:
			return val.Bool(strings.Contains(string(r), string(l))), nil
		case *val.Pattern:
			return val.Bool(l.MatchAnywhere(string(r))), nil
		}
	case val.Subnet:
		if a, ok := l.(val.Addr); ok {
			return val.Bool(r.ContainsAddr(a)), nil
		}
	case *val.Table:
		return val.Bool(r.Contains(l)), nil
	case *val.Vector:
		for i, n := 0, r.Len(); i < n; i++ {
			if w := r.Lookup(i); w != nil && w.Equals(l) {
				return val.Bool(true), nil
			}
		}
		return val.Bool(false), nil
	}
	panic(fmt.Sprintf("unhandled membership: %T in %T", l, r))
}

// foldUnary computes op over one scalar operand.
func (m *VM) foldUnary(x xpr.Expression, op xpr.Op, v val.Value) (val.Value, err.Error) {
	v = normalize(v)
	switch op {
	case xpr.OpNot:
		return val.Bool(val.IsZero(v)), nil
	case xpr.OpComplement:
		return ^v.(val.Count), nil
	case xpr.OpPos:
		return v, nil
	case xpr.OpNeg:
		switch v := v.(type) {
		case val.Int:
			return -v, nil
		case val.Double:
			return -v, nil
		case val.Interval:
			return -v, nil
		}
	case xpr.OpSize:
		switch v := v.(type) {
		case val.String:
			return val.Count(len(v)), nil
		case val.List:
			return val.Count(len(v)), nil
		case *val.Vector:
			return val.Count(v.Len()), nil
		case *val.Table:
			return val.Count(v.Len()), nil
		case *val.Record:
			return val.Count(v.NumFields()), nil
		case val.Int:
			if v < 0 {
				return val.Count(-v), nil
			}
			return val.Count(v), nil
		case val.Count:
			return v, nil
		case val.Double:
			if v < 0 {
				return -v, nil
			}
			return v, nil
		case val.Interval:
			if v < 0 {
				return -v, nil
			}
			return v, nil
		}
	case xpr.OpClone:
		return v.Copy(), nil
	}
	panic(fmt.Sprintf("unhandled fold: %v over %T", op, v))
}

// step computes the next value for ++/--. Decrementing a zero count is
// a runtime error, not a wrap.
func (m *VM) step(x xpr.Expression, op xpr.Op, v val.Value) (val.Value, err.Error) {
	switch v := normalize(v).(type) {
	case val.Int:
		if op == xpr.OpIncr {
			return v + 1, nil
		}
		return v - 1, nil
	case val.Count:
		if op == xpr.OpIncr {
			return v + 1, nil
		}
		if v == 0 {
			return nil, m.runtimeError(x, "count underflow")
		}
		return v - 1, nil
	case val.Double:
		if op == xpr.OpIncr {
			return v + 1, nil
		}
		return v - 1, nil
	}
	panic(fmt.Sprintf("unhandled step: %T", v))
}
