// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package xpr

import (
	"fmt"

	"tapir.run/tvm/err"
	"tapir.run/tvm/typ"
	"tapir.run/tvm/val"
)

// Expression is an immutable-after-construction tree node. Construction
// (in package tvm) resolves the static type and purity; a node that
// failed its checks is permanently erroneous and evaluates to no value.
type Expression interface {
	Type() typ.Type
	IsError() bool
	IsPure() bool
	Loc() err.Location
	Children() []Expression
}

// Base carries the state shared by every node kind. Nodes embed it and
// are always handled through pointers.
type Base struct {
	T      typ.Type
	Bad    bool
	Pure   bool
	Source err.Location
}

func (b *Base) Type() typ.Type {
	if b.Bad {
		return typ.Error{}
	}
	return b.T
}

func (b *Base) IsError() bool {
	return b.Bad
}

func (b *Base) IsPure() bool {
	return b.Pure
}

func (b *Base) Loc() err.Location {
	return b.Source
}

// MarkError flags the node permanently erroneous. The flag never clears.
func (b *Base) MarkError() {
	b.Bad = true
	b.T = typ.Error{}
}

type Op int

const (
	// unary
	OpNot Op = iota
	OpComplement
	OpPos
	OpNeg
	OpIncr
	OpDecr
	OpSize
	OpClone

	// binary
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpBitAnd
	OpBitOr
	OpBitXor
	OpAndAnd
	OpOrOr
	OpLt
	OpLe
	OpEq
	OpNe
	OpGt
	OpGe
	OpIn
)

func (o Op) String() string {
	switch o {
	case OpNot:
		return "!"
	case OpComplement:
		return "~"
	case OpPos:
		return "+"
	case OpNeg:
		return "-"
	case OpIncr:
		return "++"
	case OpDecr:
		return "--"
	case OpSize:
		return "|…|"
	case OpClone:
		return "copy"
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpBitAnd:
		return "&"
	case OpBitOr:
		return "|"
	case OpBitXor:
		return "^"
	case OpAndAnd:
		return "&&"
	case OpOrOr:
		return "||"
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpIn:
		return "in"
	}
	panic(fmt.Sprintf("unhandled op: %d", int(o)))
}

// Commutative reports whether operand order is irrelevant to the fold,
// which permits moving constants to the right during canonicalization.
func (o Op) Commutative() bool {
	switch o {
	case OpAdd, OpMul, OpBitAnd, OpBitOr, OpBitXor, OpEq, OpNe:
		return true
	}
	return false
}

type Constant struct {
	Base
	Value val.Value
}

func (x *Constant) Children() []Expression { return nil }

// Name resolves an identifier in the evaluation context. Const names and
// option names refuse assignment (options only outside initializers).
type Name struct {
	Base
	Ident  string
	Const  val.Value // non-nil when the binding folded to a constant
	Option bool
}

func (x *Name) Children() []Expression { return nil }

// Ref marks an already-assignable subexpression as an lvalue. It changes
// neither evaluation nor assignment, both forward to the operand.
type Ref struct {
	Base
	Operand Expression
}

func (x *Ref) Children() []Expression { return []Expression{x.Operand} }

type Unary struct {
	Base
	Op      Op
	Operand Expression
}

func (x *Unary) Children() []Expression { return []Expression{x.Operand} }

type Binary struct {
	Base
	Op    Op
	Left  Expression
	Right Expression
}

func (x *Binary) Children() []Expression { return []Expression{x.Left, x.Right} }

type Cond struct {
	Base
	Cond Expression
	Then Expression
	Else Expression
}

func (x *Cond) Children() []Expression { return []Expression{x.Cond, x.Then, x.Else} }

// Assign commits Rhs into the lvalue Lhs. Init marks an initializer
// context, where option names remain assignable.
type Assign struct {
	Base
	Lhs  Expression
	Rhs  Expression
	Init bool
}

func (x *Assign) Children() []Expression { return []Expression{x.Lhs, x.Rhs} }

// Index reads (or, as an lvalue, writes) Root at the given index list.
// Slice marks the two-endpoint form over vectors and strings.
type Index struct {
	Base
	Root  Expression
	Args  []Expression
	Slice bool
}

func (x *Index) Children() []Expression {
	return append([]Expression{x.Root}, x.Args...)
}

// Field reads a record field. Pos is resolved at construction; a nil
// field slot falls back to Default when present.
type Field struct {
	Base
	Root    Expression
	Name    string
	Pos     int
	Default val.Value
}

func (x *Field) Children() []Expression { return []Expression{x.Root} }

// HasField tests whether a record field is set.
type HasField struct {
	Base
	Root Expression
	Name string
	Pos  int
}

func (x *HasField) Children() []Expression { return []Expression{x.Root} }

// List is a transient tuple: composite table indexes, destructuring
// targets, argument lists in expression position.
type List struct {
	Base
	Exprs []Expression
}

func (x *List) Children() []Expression { return x.Exprs }

type FieldAssign struct {
	Base
	Name  string
	Value Expression
}

func (x *FieldAssign) Children() []Expression { return []Expression{x.Value} }

type RecordCtor struct {
	Base
	Fields []*FieldAssign
}

func (x *RecordCtor) Children() []Expression {
	cs := make([]Expression, len(x.Fields))
	for i, f := range x.Fields {
		cs[i] = f
	}
	return cs
}

type TableEntry struct {
	Index []Expression
	Yield Expression
}

type TableCtor struct {
	Base
	Entries []TableEntry
}

func (x *TableCtor) Children() []Expression {
	cs := []Expression(nil)
	for _, e := range x.Entries {
		cs = append(cs, e.Index...)
		cs = append(cs, e.Yield)
	}
	return cs
}

type SetCtor struct {
	Base
	Elems []Expression
}

func (x *SetCtor) Children() []Expression { return x.Elems }

type VectorCtor struct {
	Base
	Elems []Expression
}

func (x *VectorCtor) Children() []Expression { return x.Elems }

// ArithCoerce widens its operand to the arithmetic tag To. Over vector
// operands it widens every defined element.
type ArithCoerce struct {
	Base
	Operand Expression
	To      val.Type
}

func (x *ArithCoerce) Children() []Expression { return []Expression{x.Operand} }

// RecordCoerce re-shapes a record value into the destination record
// type. Mapping holds, per destination field, the source field position
// or -1 for fields sourced from defaults or left unset.
type RecordCoerce struct {
	Base
	Operand Expression
	Mapping []int
}

func (x *RecordCoerce) Children() []Expression { return []Expression{x.Operand} }

// TableCoerce resolves an unspecified empty table/set literal to the
// destination type. Folding a non-empty operand is a runtime error.
type TableCoerce struct {
	Base
	Operand Expression
}

func (x *TableCoerce) Children() []Expression { return []Expression{x.Operand} }

// VectorCoerce is TableCoerce for the empty vector literal.
type VectorCoerce struct {
	Base
	Operand Expression
}

func (x *VectorCoerce) Children() []Expression { return []Expression{x.Operand} }

// Is tests the dynamic type of an any-typed operand.
type Is struct {
	Base
	Operand Expression
	Target  typ.Type
}

func (x *Is) Children() []Expression { return []Expression{x.Operand} }

type Call struct {
	Base
	Fn   Expression
	Args []Expression
}

func (x *Call) Children() []Expression {
	return append([]Expression{x.Fn}, x.Args...)
}

// Event enqueues a handler invocation, fire and forget.
type Event struct {
	Base
	Name string
	Args []Expression
}

func (x *Event) Children() []Expression { return x.Args }

// Schedule registers a timer that raises Ev at (or after) When.
type Schedule struct {
	Base
	When Expression
	Ev   *Event
}

func (x *Schedule) Children() []Expression { return []Expression{x.When, x.Ev} }

// Lambda captures a function body as a value.
type Lambda struct {
	Base
	Params []string
	Sig    typ.Func
	Body   Expression
}

func (x *Lambda) Children() []Expression { return []Expression{x.Body} }
