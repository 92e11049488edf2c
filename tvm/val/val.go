// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package val

import (
	"net/netip"
	"time"
)

// Value is a runtime value produced by expression evaluation. Scalars are
// immutable Go values; aggregates (Record, Vector, Table) are pointers so
// that aliasing through frames and container cells behaves as shared state.
// A nil Value means "no value": an undefined vector element or the result
// of a failed evaluation.
type Value interface {
	Copy() Value
	Equals(Value) bool
	Primitive() bool
	Type() Type
}

type Bool bool

func (x Bool) Copy() Value {
	return x
}

func (b Bool) Equals(v Value) bool {
	return b == v
}

func (Bool) Primitive() bool {
	return true
}

type Int int64

func (x Int) Copy() Value {
	return x
}

func (i Int) Equals(v Value) bool {
	return i == v
}

func (Int) Primitive() bool {
	return true
}

type Count uint64

func (x Count) Copy() Value {
	return x
}

func (c Count) Equals(v Value) bool {
	return c == v
}

func (Count) Primitive() bool {
	return true
}

// Counter is a non-negative monotonic counter. It folds like Count
// everywhere except bitwise operators, which reject counter pairs.
type Counter uint64

func (x Counter) Copy() Value {
	return x
}

func (c Counter) Equals(v Value) bool {
	return c == v
}

func (Counter) Primitive() bool {
	return true
}

type Double float64

func (x Double) Copy() Value {
	return x
}

func (d Double) Equals(v Value) bool {
	return d == v
}

func (Double) Primitive() bool {
	return true
}

type Time struct {
	time.Time
}

func (x Time) Copy() Value {
	return x
}

func (t Time) Equals(v Value) bool {
	q, ok := v.(Time)
	return ok && t.Time.Equal(q.Time)
}

func (Time) Primitive() bool {
	return true
}

type Interval time.Duration

func (x Interval) Copy() Value {
	return x
}

func (i Interval) Equals(v Value) bool {
	return i == v
}

func (Interval) Primitive() bool {
	return true
}

type String string

func (x String) Copy() Value {
	return x
}

func (s String) Equals(v Value) bool {
	q, ok := v.(String)
	return ok && s == q
}

func (s String) String() string {
	return string(s)
}

func (String) Primitive() bool {
	return true
}

type Enum struct {
	Name string
	Ord  int64
}

func (x Enum) Copy() Value {
	return x
}

func (e Enum) Equals(v Value) bool {
	q, ok := v.(Enum)
	return ok && e.Name == q.Name
}

func (Enum) Primitive() bool {
	return true
}

type Proto uint8

const (
	ProtoUnknown Proto = iota
	ProtoTCP
	ProtoUDP
	ProtoICMP
)

func (p Proto) String() string {
	switch p {
	case ProtoTCP:
		return "tcp"
	case ProtoUDP:
		return "udp"
	case ProtoICMP:
		return "icmp"
	}
	return "unknown"
}

type Port struct {
	Num   uint32
	Proto Proto
}

func (x Port) Copy() Value {
	return x
}

func (p Port) Equals(v Value) bool {
	return p == v
}

func (Port) Primitive() bool {
	return true
}

// Less orders ports by number, breaking ties by protocol.
func (p Port) Less(q Port) bool {
	if p.Num != q.Num {
		return p.Num < q.Num
	}
	return p.Proto < q.Proto
}

type Addr struct {
	netip.Addr
}

func (x Addr) Copy() Value {
	return x
}

func (a Addr) Equals(v Value) bool {
	q, ok := v.(Addr)
	return ok && a.Addr == q.Addr
}

func (Addr) Primitive() bool {
	return true
}

func (a Addr) Less(q Addr) bool {
	return a.Addr.Compare(q.Addr) < 0
}

// Width returns the bit width of the address family.
func (a Addr) Width() int {
	if a.Is4() {
		return 32
	}
	return 128
}

type Subnet struct {
	netip.Prefix
}

func (x Subnet) Copy() Value {
	return x
}

func (s Subnet) Equals(v Value) bool {
	q, ok := v.(Subnet)
	return ok && s.Prefix == q.Prefix
}

func (Subnet) Primitive() bool {
	return true
}

func (s Subnet) ContainsAddr(a Addr) bool {
	return s.Prefix.Contains(a.Addr)
}

// Func references an invokable function. Impl is nil for host-registered
// functions resolved by name; lambdas store their definition here.
type Func struct {
	Name string
	Impl interface{}
}

func (x Func) Copy() Value {
	return x
}

func (f Func) Equals(v Value) bool {
	q, ok := v.(Func)
	return ok && f.Name == q.Name && f.Impl == q.Impl
}

func (Func) Primitive() bool {
	return true
}

// List is a transient tuple of values, produced by list expressions:
// composite table indices, call argument lists, destructuring sources.
type List []Value

func (l List) Copy() Value {
	c := make(List, len(l))
	for i, w := range l {
		if w != nil {
			c[i] = w.Copy()
		}
	}
	return c
}

func (l List) Equals(v Value) bool {
	q, ok := v.(List)
	if !ok || len(l) != len(q) {
		return false
	}
	for i := range l {
		if l[i] == nil || q[i] == nil {
			if l[i] != q[i] {
				return false
			}
			continue
		}
		if !l[i].Equals(q[i]) {
			return false
		}
	}
	return true
}

func (List) Primitive() bool {
	return false
}

// IsZero reports whether v is the false/zero scalar of its domain.
// Boolean contexts treat zero as false.
func IsZero(v Value) bool {
	switch v := v.(type) {
	case Bool:
		return !bool(v)
	case Int:
		return v == 0
	case Count:
		return v == 0
	case Counter:
		return v == 0
	case Double:
		return v == 0
	}
	return false
}
