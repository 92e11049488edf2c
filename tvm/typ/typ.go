// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package typ

import (
	"fmt"
	"strings"

	"tapir.run/tvm/val"
)

// Type is a static type descriptor attached to every expression node.
// Two composite types are the same only under recursive structural
// comparison; that comparison gates whether a coercion must be synthesized.
type Type interface {
	ValueType() val.Type
	Equals(Type) bool
	String() string
}

type Bool struct{}

func (Bool) ValueType() val.Type { return val.TypeBool }
func (Bool) Equals(t Type) bool  { return t == Bool{} }
func (Bool) String() string      { return "bool" }

type Int struct{}

func (Int) ValueType() val.Type { return val.TypeInt }
func (Int) Equals(t Type) bool  { return t == Int{} }
func (Int) String() string      { return "int" }

type Count struct{}

func (Count) ValueType() val.Type { return val.TypeCount }
func (Count) Equals(t Type) bool  { return t == Count{} }
func (Count) String() string      { return "count" }

type Counter struct{}

func (Counter) ValueType() val.Type { return val.TypeCounter }
func (Counter) Equals(t Type) bool  { return t == Counter{} }
func (Counter) String() string      { return "counter" }

type Double struct{}

func (Double) ValueType() val.Type { return val.TypeDouble }
func (Double) Equals(t Type) bool  { return t == Double{} }
func (Double) String() string      { return "double" }

type Time struct{}

func (Time) ValueType() val.Type { return val.TypeTime }
func (Time) Equals(t Type) bool  { return t == Time{} }
func (Time) String() string      { return "time" }

type Interval struct{}

func (Interval) ValueType() val.Type { return val.TypeInterval }
func (Interval) Equals(t Type) bool  { return t == Interval{} }
func (Interval) String() string      { return "interval" }

type String struct{}

func (String) ValueType() val.Type { return val.TypeString }
func (String) Equals(t Type) bool  { return t == String{} }
func (String) String() string      { return "string" }

type Pattern struct{}

func (Pattern) ValueType() val.Type { return val.TypePattern }
func (Pattern) Equals(t Type) bool  { return t == Pattern{} }
func (Pattern) String() string      { return "pattern" }

// Enum is a named enumeration. Two enum types compare by name;
// comparing values of differently named enums is a static error.
type Enum struct {
	Name string
}

func (Enum) ValueType() val.Type { return val.TypeEnum }
func (e Enum) Equals(t Type) bool {
	q, ok := t.(Enum)
	return ok && e.Name == q.Name
}
func (e Enum) String() string { return "enum " + e.Name }

type Port struct{}

func (Port) ValueType() val.Type { return val.TypePort }
func (Port) Equals(t Type) bool  { return t == Port{} }
func (Port) String() string      { return "port" }

type Addr struct{}

func (Addr) ValueType() val.Type { return val.TypeAddr }
func (Addr) Equals(t Type) bool  { return t == Addr{} }
func (Addr) String() string      { return "addr" }

type Subnet struct{}

func (Subnet) ValueType() val.Type { return val.TypeSubnet }
func (Subnet) Equals(t Type) bool  { return t == Subnet{} }
func (Subnet) String() string      { return "subnet" }

type Any struct{}

func (Any) ValueType() val.Type { return val.TypeAny }
func (Any) Equals(t Type) bool  { return t == Any{} }
func (Any) String() string      { return "any" }

type Void struct{}

func (Void) ValueType() val.Type { return val.TypeVoid }
func (Void) Equals(t Type) bool  { return t == Void{} }
func (Void) String() string      { return "void" }

type Timer struct{}

func (Timer) ValueType() val.Type { return val.TypeTimer }
func (Timer) Equals(t Type) bool  { return t == Timer{} }
func (Timer) String() string      { return "timer" }

// Error is the type of permanently erroneous expressions. It compares
// equal to nothing, including itself, so no further checks succeed
// against it and no fresh diagnostics are produced for its users.
type Error struct{}

func (Error) ValueType() val.Type { return val.TypeError }
func (Error) Equals(Type) bool    { return false }
func (Error) String() string      { return "error" }

// Field declares one record field. Optional fields may stay unset;
// a non-nil Default fills the field when no source value is present.
type Field struct {
	Name     string
	Type     Type
	Optional bool
	Default  val.Value
}

func (f Field) compatible(g Field) bool {
	if f.Name != g.Name || !f.Type.Equals(g.Type) {
		return false
	}
	if f.Optional != g.Optional {
		return false
	}
	if (f.Default == nil) != (g.Default == nil) {
		return false
	}
	return f.Default == nil || f.Default.Equals(g.Default)
}

type Record struct {
	Fields []Field
}

func (Record) ValueType() val.Type { return val.TypeRecord }

func (r Record) Equals(t Type) bool {
	q, ok := t.(Record)
	if !ok || len(r.Fields) != len(q.Fields) {
		return false
	}
	for i, f := range r.Fields {
		if !f.compatible(q.Fields[i]) {
			return false
		}
	}
	return true
}

func (r Record) String() string {
	fs := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		fs[i] = f.Name + ": " + f.Type.String()
	}
	return "record { " + strings.Join(fs, "; ") + " }"
}

// FieldIndex returns the position of the named field, or -1.
func (r Record) FieldIndex(name string) int {
	for i, f := range r.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Table indexes a list of types to an optional yield. A nil Yield makes
// it a set. The zero Table (no index types) is the unspecified
// placeholder produced by empty literals, resolved later by coercion.
type Table struct {
	Index []Type
	Yield Type
}

func (Table) ValueType() val.Type { return val.TypeTable }

func (t Table) Equals(u Type) bool {
	q, ok := u.(Table)
	if !ok || len(t.Index) != len(q.Index) {
		return false
	}
	for i, x := range t.Index {
		if !x.Equals(q.Index[i]) {
			return false
		}
	}
	if (t.Yield == nil) != (q.Yield == nil) {
		return false
	}
	return t.Yield == nil || t.Yield.Equals(q.Yield)
}

func (t Table) String() string {
	is := make([]string, len(t.Index))
	for i, x := range t.Index {
		is[i] = x.String()
	}
	if t.Yield == nil {
		return "set[" + strings.Join(is, ", ") + "]"
	}
	return "table[" + strings.Join(is, ", ") + "] of " + t.Yield.String()
}

func (t Table) IsSet() bool {
	return t.Yield == nil
}

func (t Table) Unspecified() bool {
	return len(t.Index) == 0
}

// Vector holds a single yield type. A nil Yield is the unspecified
// placeholder produced by the empty vector literal.
type Vector struct {
	Yield Type
}

func (Vector) ValueType() val.Type { return val.TypeVector }

func (v Vector) Equals(t Type) bool {
	q, ok := t.(Vector)
	if !ok || (v.Yield == nil) != (q.Yield == nil) {
		return false
	}
	return v.Yield == nil || v.Yield.Equals(q.Yield)
}

func (v Vector) String() string {
	if v.Yield == nil {
		return "vector of void"
	}
	return "vector of " + v.Yield.String()
}

func (v Vector) Unspecified() bool {
	return v.Yield == nil
}

// List types transient value tuples: composite indexes, argument lists.
type List struct {
	Elems []Type
}

func (List) ValueType() val.Type { return val.TypeList }

func (l List) Equals(t Type) bool {
	q, ok := t.(List)
	if !ok || len(l.Elems) != len(q.Elems) {
		return false
	}
	for i, x := range l.Elems {
		if !x.Equals(q.Elems[i]) {
			return false
		}
	}
	return true
}

func (l List) String() string {
	es := make([]string, len(l.Elems))
	for i, x := range l.Elems {
		es[i] = x.String()
	}
	return "list(" + strings.Join(es, ", ") + ")"
}

// Func describes an invokable. Event handler signatures are Funcs with
// Event set and no yield.
type Func struct {
	Params []Type
	Yield  Type // nil for events and void functions
	Event  bool
}

func (Func) ValueType() val.Type { return val.TypeFunc }

func (f Func) Equals(t Type) bool {
	q, ok := t.(Func)
	if !ok || f.Event != q.Event || len(f.Params) != len(q.Params) {
		return false
	}
	for i, p := range f.Params {
		if !p.Equals(q.Params[i]) {
			return false
		}
	}
	if (f.Yield == nil) != (q.Yield == nil) {
		return false
	}
	return f.Yield == nil || f.Yield.Equals(q.Yield)
}

func (f Func) String() string {
	ps := make([]string, len(f.Params))
	for i, p := range f.Params {
		ps[i] = p.String()
	}
	kind := "function"
	if f.Event {
		kind = "event"
	}
	out := kind + "(" + strings.Join(ps, ", ") + ")"
	if f.Yield != nil {
		out += ": " + f.Yield.String()
	}
	return out
}

// Scalar returns the singleton descriptor for a scalar value tag.
func Scalar(vt val.Type) Type {
	switch vt {
	case val.TypeBool:
		return Bool{}
	case val.TypeInt:
		return Int{}
	case val.TypeCount:
		return Count{}
	case val.TypeCounter:
		return Counter{}
	case val.TypeDouble:
		return Double{}
	case val.TypeTime:
		return Time{}
	case val.TypeInterval:
		return Interval{}
	case val.TypeString:
		return String{}
	case val.TypePattern:
		return Pattern{}
	case val.TypePort:
		return Port{}
	case val.TypeAddr:
		return Addr{}
	case val.TypeSubnet:
		return Subnet{}
	case val.TypeAny:
		return Any{}
	case val.TypeVoid:
		return Void{}
	case val.TypeTimer:
		return Timer{}
	case val.TypeError:
		return Error{}
	}
	panic(fmt.Sprintf("no scalar descriptor for %v", vt))
}

// Base returns the value tag of t, unwrapping vectors to their yield tag
// the way operator type checks do.
func Base(t Type) val.Type {
	if v, ok := t.(Vector); ok {
		if v.Yield == nil {
			return val.TypeVoid
		}
		return v.Yield.ValueType()
	}
	return t.ValueType()
}

// IsVector reports whether t is a vector type.
func IsVector(t Type) bool {
	_, ok := t.(Vector)
	return ok
}
