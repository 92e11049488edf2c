// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package tvm

import (
	"fmt"

	"tapir.run/tvm/err"
	"tapir.run/tvm/typ"
	"tapir.run/tvm/val"
	"tapir.run/tvm/xpr"
)

// Decl is one identifier binding visible to expression construction.
type Decl struct {
	Type   typ.Type
	Const  val.Value // non-nil for compile-time constants
	Option bool
}

// Scope resolves identifiers during construction, chained to a parent.
type Scope struct {
	parent *Scope
	decls  map[string]Decl
}

func NewScope(parent *Scope) *Scope {
	return &Scope{parent, make(map[string]Decl)}
}

func (s *Scope) Define(name string, d Decl) {
	s.decls[name] = d
}

func (s *Scope) Resolve(name string) (Decl, bool) {
	for c := s; c != nil; c = c.parent {
		if d, ok := c.decls[name]; ok {
			return d, true
		}
	}
	return Decl{}, false
}

// Builder constructs typed expression nodes. Every constructor performs
// all checks possible without a runtime value; on failure it marks the
// node permanently erroneous, records one diagnostic, and still returns
// a usable degenerate node so construction can continue.
type Builder struct {
	Report *err.Reporter
	Scope  *Scope
	Calls  Caller
	Events map[string]typ.Func
}

type errNode interface {
	xpr.Expression
	MarkError()
}

// fail marks n erroneous. The diagnostic is suppressed when a child is
// already erroneous: one defect reports once, not once per ancestor.
func (b *Builder) fail(n errNode, format string, args ...interface{}) {
	if n.IsError() {
		return
	}
	for _, c := range n.Children() {
		if c != nil && c.IsError() {
			n.MarkError()
			return
		}
	}
	problem := fmt.Sprintf(format, args...)
	loc := n.Loc()
	n.MarkError()
	b.Report.ReportStatic(err.ExprError{Problem: problem, Expr: xpr.Describe(n), Loc: loc})
}

func anyError(xs ...xpr.Expression) bool {
	for _, x := range xs {
		if x != nil && x.IsError() {
			return true
		}
	}
	return false
}

func allPure(xs ...xpr.Expression) bool {
	for _, x := range xs {
		if x != nil && !x.IsPure() {
			return false
		}
	}
	return true
}

// tagOf unwraps vectors to their yield tag and folds counter into the
// count domain, the view operator checks take of an operand type.
func tagOf(t typ.Type) val.Type {
	bt := typ.Base(t)
	if bt == val.TypeCounter {
		return val.TypeCount
	}
	return bt
}

func isSet(t typ.Type) bool {
	tt, ok := t.(typ.Table)
	return ok && tt.IsSet()
}

func (b *Builder) Constant(v val.Value, loc err.Location) *xpr.Constant {
	n := &xpr.Constant{Value: v}
	n.Source = loc
	n.Pure = true
	n.T = typeOfValue(v)
	return n
}

func typeOfValue(v val.Value) typ.Type {
	switch v := v.(type) {
	case nil:
		return typ.Void{}
	case val.Func:
		return typ.Func{}
	case val.Enum:
		return typ.Enum{Name: v.Name}
	case *val.Record:
		return recordTypeOfValue(v, typ.Record{})
	case *val.Vector:
		for i, n := 0, v.Len(); i < n; i++ {
			if w := v.Lookup(i); w != nil {
				return typ.Vector{Yield: typeOfValue(w)}
			}
		}
		return typ.Vector{}
	case *val.Table:
		out := typ.Table{}
		v.ForEach(func(index, yield val.Value) bool {
			if l, ok := index.(val.List); ok {
				for _, w := range l {
					out.Index = append(out.Index, typeOfValue(w))
				}
			} else {
				out.Index = []typ.Type{typeOfValue(index)}
			}
			if yield != nil {
				out.Yield = typeOfValue(yield)
			}
			return false
		})
		return out
	case val.List:
		es := make([]typ.Type, len(v))
		for i, w := range v {
			es[i] = typeOfValue(w)
		}
		return typ.List{Elems: es}
	}
	return typ.Scalar(v.Type())
}

func (b *Builder) Name(ident string, loc err.Location) *xpr.Name {
	n := &xpr.Name{Ident: ident}
	n.Source = loc
	n.Pure = true
	d, ok := b.Scope.Resolve(ident)
	if !ok {
		b.fail(n, "unknown identifier %q", ident)
		return n
	}
	n.T = d.Type
	n.Const = d.Const
	n.Option = d.Option
	return n
}

func (b *Builder) Unary(op xpr.Op, operand xpr.Expression, loc err.Location) *xpr.Unary {
	n := &xpr.Unary{Op: op, Operand: operand}
	n.Source = loc
	n.Pure = operand.IsPure()

	if operand.IsError() {
		n.MarkError()
		return n
	}

	t := operand.Type()
	bt := tagOf(t)
	vec := typ.IsVector(t)

	wrap := func(res typ.Type) {
		if vec {
			n.T = typ.Vector{Yield: res}
		} else {
			n.T = res
		}
	}

	switch op {
	case xpr.OpNot:
		if bt != val.TypeBool {
			b.fail(n, "operator %q requires a boolean operand", "!")
			return n
		}
		wrap(typ.Bool{})

	case xpr.OpComplement:
		if bt != val.TypeCount {
			b.fail(n, "operator %q requires a count operand", "~")
			return n
		}
		wrap(typ.Count{})

	case xpr.OpPos, xpr.OpNeg:
		switch {
		case bt == val.TypeInt || bt == val.TypeDouble:
			wrap(typ.Scalar(bt))
		case bt == val.TypeCount:
			// negation leaves the unsigned domain
			n.Operand = b.coerceArithTo(operand, val.TypeInt)
			wrap(typ.Int{})
		case bt == val.TypeInterval:
			wrap(typ.Interval{})
		default:
			b.fail(n, "operator %q requires a numeric operand", op)
			return n
		}

	case xpr.OpIncr, xpr.OpDecr:
		n.Pure = false
		if !bt.IsArithmetic() {
			b.fail(n, "operator %q requires a numeric operand", op)
			return n
		}
		n.Operand = b.MakeLvalue(operand, false)
		if n.Operand.IsError() {
			n.MarkError()
			return n
		}
		n.T = t

	case xpr.OpSize:
		switch {
		case bt == val.TypeString || t.ValueType() == val.TypeVector ||
			t.ValueType() == val.TypeTable || t.ValueType() == val.TypeList ||
			t.ValueType() == val.TypeRecord:
			n.T = typ.Count{}
		case bt == val.TypeInt || bt == val.TypeCount:
			n.T = typ.Count{}
		case bt == val.TypeDouble:
			n.T = typ.Double{}
		case bt == val.TypeInterval:
			n.T = typ.Interval{}
		default:
			b.fail(n, "operator %q is not defined for this operand", "| |")
			return n
		}

	case xpr.OpClone:
		n.T = t

	default:
		panic(fmt.Sprintf("unhandled unary op: %v", op))
	}

	return n
}

func (b *Builder) Binary(op xpr.Op, l, r xpr.Expression, loc err.Location) *xpr.Binary {
	n := &xpr.Binary{Op: op, Left: l, Right: r}
	n.Source = loc
	n.Pure = allPure(l, r)

	if anyError(l, r) {
		n.MarkError()
		return n
	}

	// canonicalization: >/>= become swapped </<=; a pattern operand of
	// an equality moves to the left; commutative arithmetic orders
	// constants last. Swaps only move pure subtrees, so the observable
	// left-to-right evaluation order is unaffected.
	switch op {
	case xpr.OpGt, xpr.OpGe:
		if isSet(l.Type()) || isSet(r.Type()) {
			b.fail(n, "sets support only <, <=, == and != comparisons")
			return n
		}
		n.Left, n.Right = r, l
		if op == xpr.OpGt {
			n.Op = xpr.OpLt
		} else {
			n.Op = xpr.OpLe
		}
	case xpr.OpEq, xpr.OpNe:
		if tagOf(r.Type()) == val.TypePattern && tagOf(l.Type()) != val.TypePattern {
			n.Left, n.Right = r, l
		}
	default:
		if op.Commutative() {
			if _, lc := n.Left.(*xpr.Constant); lc {
				if _, rc := n.Right.(*xpr.Constant); !rc {
					n.Left, n.Right = n.Right, n.Left
				}
			}
		}
	}
	l, r, op = n.Left, n.Right, n.Op

	lt, rt := tagOf(l.Type()), tagOf(r.Type())
	vec := typ.IsVector(l.Type()) || typ.IsVector(r.Type())

	wrap := func(res typ.Type) {
		if vec {
			n.T = typ.Vector{Yield: res}
		} else {
			n.T = res
		}
	}

	switch op {

	case xpr.OpAdd:
		switch {
		case lt == val.TypeString && rt == val.TypeString:
			wrap(typ.String{})
		case lt == val.TypeTime && rt == val.TypeInterval,
			lt == val.TypeInterval && rt == val.TypeTime:
			wrap(typ.Time{})
		case lt == val.TypeInterval && rt == val.TypeInterval:
			wrap(typ.Interval{})
		case typ.BothArithmetic(lt, rt):
			wrap(b.promoteOperands(n))
		default:
			b.fail(n, "operands of %q are not addable", "+")
		}

	case xpr.OpSub:
		switch {
		case lt == val.TypeTime && rt == val.TypeTime:
			wrap(typ.Interval{})
		case lt == val.TypeTime && rt == val.TypeInterval:
			wrap(typ.Time{})
		case lt == val.TypeInterval && rt == val.TypeInterval:
			wrap(typ.Interval{})
		case isSet(l.Type()) && isSet(r.Type()):
			if !l.Type().Equals(r.Type()) {
				b.fail(n, "set difference requires sets of the same type")
				return n
			}
			n.T = l.Type()
		case typ.BothArithmetic(lt, rt):
			wrap(b.promoteOperands(n))
		default:
			b.fail(n, "operands of %q are not subtractable", "-")
		}

	case xpr.OpMul:
		switch {
		case lt == val.TypeInterval && rt.IsArithmetic(),
			lt.IsArithmetic() && rt == val.TypeInterval:
			wrap(typ.Interval{})
		case typ.BothArithmetic(lt, rt):
			wrap(b.promoteOperands(n))
		default:
			b.fail(n, "operands of %q are not multipliable", "*")
		}

	case xpr.OpDiv:
		switch {
		case lt == val.TypeAddr && rt.IsIntegral():
			wrap(typ.Subnet{})
		case lt == val.TypeInterval && rt == val.TypeInterval:
			wrap(typ.Double{})
		case lt == val.TypeInterval && rt.IsArithmetic():
			wrap(typ.Interval{})
		case typ.BothArithmetic(lt, rt):
			wrap(b.promoteOperands(n))
		default:
			b.fail(n, "operands of %q are not divisible", "/")
		}

	case xpr.OpMod:
		if !lt.IsIntegral() || !rt.IsIntegral() {
			b.fail(n, "operator %q requires integral operands", "%")
			return n
		}
		wrap(b.promoteOperands(n))

	case xpr.OpBitAnd, xpr.OpBitOr, xpr.OpBitXor:
		switch {
		case lt == val.TypePattern && rt == val.TypePattern && op != xpr.OpBitXor:
			wrap(typ.Pattern{})
		case isSet(l.Type()) && isSet(r.Type()) && op != xpr.OpBitXor:
			if !l.Type().Equals(r.Type()) {
				b.fail(n, "set operation requires sets of the same type")
				return n
			}
			n.T = l.Type()
		case lt == val.TypeCount && rt == val.TypeCount:
			if typ.Base(l.Type()) == val.TypeCounter && typ.Base(r.Type()) == val.TypeCounter {
				b.fail(n, "bitwise operation on two counter operands")
				return n
			}
			wrap(typ.Count{})
		default:
			b.fail(n, "operator %q requires count operands", op)
		}

	case xpr.OpAndAnd, xpr.OpOrOr:
		if lt != val.TypeBool || rt != val.TypeBool {
			b.fail(n, "operator %q requires boolean operands", op)
			return n
		}
		wrap(typ.Bool{})

	case xpr.OpLt, xpr.OpLe:
		switch {
		case typ.BothArithmetic(lt, rt):
			b.promoteOperands(n)
			wrap(typ.Bool{})
		case lt == rt && orderedTag(lt):
			wrap(typ.Bool{})
		case isSet(l.Type()) && isSet(r.Type()) && l.Type().Equals(r.Type()):
			n.T = typ.Bool{}
		default:
			b.fail(n, "operands of %q are not comparable", op)
		}

	case xpr.OpEq, xpr.OpNe:
		switch {
		case typ.BothArithmetic(lt, rt):
			b.promoteOperands(n)
			wrap(typ.Bool{})
		case lt == val.TypePattern && rt == val.TypeString,
			lt == val.TypePattern && rt == val.TypePattern:
			wrap(typ.Bool{})
		case lt == rt && equatableTag(lt):
			if lt == val.TypeEnum && !l.Type().Equals(r.Type()) {
				b.fail(n, "comparison of distinct enum types")
				return n
			}
			wrap(typ.Bool{})
		case isSet(l.Type()) && isSet(r.Type()) && l.Type().Equals(r.Type()):
			n.T = typ.Bool{}
		default:
			b.fail(n, "operands of %q are not comparable", op)
		}

	case xpr.OpIn:
		n.T = typ.Bool{}
		switch {
		case (lt == val.TypeString || lt == val.TypePattern) && rt == val.TypeString:
		case lt == val.TypeAddr && rt == val.TypeSubnet:
		case r.Type().ValueType() == val.TypeTable:
		case typ.IsVector(r.Type()):
		default:
			b.fail(n, "illegal membership test")
		}

	default:
		panic(fmt.Sprintf("unhandled binary op: %v", op))
	}

	return n
}

func orderedTag(t val.Type) bool {
	switch t {
	case val.TypeString, val.TypeTime, val.TypeInterval, val.TypePort, val.TypeAddr:
		return true
	}
	return false
}

func equatableTag(t val.Type) bool {
	if orderedTag(t) {
		return true
	}
	switch t {
	case val.TypeBool, val.TypeEnum, val.TypeSubnet, val.TypePattern:
		return true
	}
	return false
}

// promoteOperands joins both operand domains and wraps the narrower
// side in an arithmetic coercion.
func (b *Builder) promoteOperands(n *xpr.Binary) typ.Type {
	t := typ.MaxType(tagOf(n.Left.Type()), tagOf(n.Right.Type()))
	n.Left = b.coerceArithTo(n.Left, t)
	n.Right = b.coerceArithTo(n.Right, t)
	return typ.Scalar(t)
}

func (b *Builder) coerceArithTo(x xpr.Expression, to val.Type) xpr.Expression {
	if tagOf(x.Type()) == to {
		return x
	}
	n := &xpr.ArithCoerce{Operand: x, To: to}
	n.Source = x.Loc()
	n.Pure = x.IsPure()
	if typ.IsVector(x.Type()) {
		n.T = typ.Vector{Yield: typ.Scalar(to)}
	} else {
		n.T = typ.Scalar(to)
	}
	if x.IsError() {
		n.MarkError()
	}
	return n
}

func (b *Builder) Cond(c, t, e xpr.Expression, loc err.Location) *xpr.Cond {
	n := &xpr.Cond{Cond: c, Then: t, Else: e}
	n.Source = loc
	n.Pure = allPure(c, t, e)

	if anyError(c, t, e) {
		n.MarkError()
		return n
	}
	if tagOf(c.Type()) != val.TypeBool {
		b.fail(n, "conditional requires a boolean condition")
		return n
	}
	if typ.IsVector(c.Type()) {
		if !typ.IsVector(t.Type()) || !t.Type().Equals(e.Type()) {
			b.fail(n, "vector conditional requires matching vector branches")
			return n
		}
		n.T = t.Type()
		return n
	}
	switch {
	case t.Type().Equals(e.Type()):
		n.T = t.Type()
	case typ.BothArithmetic(tagOf(t.Type()), tagOf(e.Type())):
		mt := typ.MaxType(tagOf(t.Type()), tagOf(e.Type()))
		n.Then = b.coerceArithTo(t, mt)
		n.Else = b.coerceArithTo(e, mt)
		n.T = typ.Scalar(mt)
	default:
		b.fail(n, "conditional branches have incompatible types")
	}
	return n
}

func (b *Builder) Assign(lhs, rhs xpr.Expression, init bool, loc err.Location) *xpr.Assign {
	lv := b.MakeLvalue(lhs, init)
	n := &xpr.Assign{Lhs: lv, Rhs: rhs, Init: init}
	n.Source = loc
	n.Pure = false

	if anyError(lv, rhs) {
		n.MarkError()
		return n
	}
	if _, ok := lv.Type().(typ.List); ok {
		n.T = lv.Type()
		return n
	}
	coerced, ok := b.coerceTo(lv.Type(), rhs)
	if !ok {
		b.fail(n, "type clash in assignment")
		return n
	}
	n.Rhs = coerced
	n.T = lv.Type()
	return n
}

// coerceTo bridges rhs into the destination type, inserting a coercion
// node when a legal one exists.
func (b *Builder) coerceTo(to typ.Type, x xpr.Expression) (xpr.Expression, bool) {
	from := x.Type()
	if to == nil || to.Equals(from) {
		return x, true
	}
	if _, ok := to.(typ.Any); ok {
		return x, true
	}
	if tr, ok := to.(typ.Record); ok {
		if fr, ok := from.(typ.Record); ok && typ.RecordPromotable(tr, fr) {
			return b.RecordCoerce(tr, x), true
		}
		return x, false
	}
	if tt, ok := to.(typ.Table); ok {
		if ft, ok := from.(typ.Table); ok && ft.Unspecified() {
			n := &xpr.TableCoerce{Operand: x}
			n.Source = x.Loc()
			n.Pure = x.IsPure()
			n.T = tt
			return n, true
		}
		return x, false
	}
	if tv, ok := to.(typ.Vector); ok {
		if fv, ok := from.(typ.Vector); ok {
			if fv.Unspecified() {
				n := &xpr.VectorCoerce{Operand: x}
				n.Source = x.Loc()
				n.Pure = x.IsPure()
				n.T = tv
				return n, true
			}
			if tv.Yield != nil && typ.ArithPromotable(tagOf(tv), tagOf(fv)) {
				return b.coerceArithTo(x, tagOf(tv)), true
			}
		}
		return x, false
	}
	if typ.ArithPromotable(to.ValueType(), from.ValueType()) {
		return b.coerceArithTo(x, tagOf(to)), true
	}
	return x, false
}

// MakeLvalue converts an expression into an assignable one. Most forms
// refuse; the accepted ones are mutable names, table/vector index
// expressions, record fields, and lists of assignable names.
func (b *Builder) MakeLvalue(x xpr.Expression, init bool) xpr.Expression {
	ref := func() *xpr.Ref {
		n := &xpr.Ref{Operand: x}
		n.Source = x.Loc()
		n.Pure = x.IsPure()
		n.T = x.Type()
		if x.IsError() {
			n.MarkError()
		}
		return n
	}

	switch x := x.(type) {

	case *xpr.Ref:
		return x

	case *xpr.Name:
		n := ref()
		if x.Const != nil {
			b.fail(n, "constant %q is not assignable", x.Ident)
		} else if x.Option && !init {
			b.fail(n, "option %q can only be assigned at initialization", x.Ident)
		}
		return n

	case *xpr.Index:
		n := ref()
		switch x.Root.Type().ValueType() {
		case val.TypeTable, val.TypeVector:
		case val.TypeString:
			b.fail(n, "cannot assign to string index expression")
		default:
			b.fail(n, "this type does not support index assignment")
		}
		return n

	case *xpr.Field:
		return ref()

	case *xpr.List:
		n := ref()
		for _, c := range x.Exprs {
			nm, ok := c.(*xpr.Name)
			if !ok {
				b.fail(n, "can only assign to list of identifiers")
				return n
			}
			if nm.Const != nil || (nm.Option && !init) {
				b.fail(n, "can only assign to list of identifiers")
				return n
			}
		}
		return n
	}

	n := ref()
	b.fail(n, "illegal assignment target")
	return n
}

func (b *Builder) Index(root xpr.Expression, args []xpr.Expression, slice bool, loc err.Location) *xpr.Index {
	n := &xpr.Index{Root: root, Args: args, Slice: slice}
	n.Source = loc
	n.Pure = allPure(append([]xpr.Expression{root}, args...)...)

	if root.IsError() || anyError(args...) {
		n.MarkError()
		return n
	}

	switch rt := root.Type().(type) {

	case typ.Vector:
		if slice {
			if len(args) != 2 || !tagOf(args[0].Type()).IsIntegral() || !tagOf(args[1].Type()).IsIntegral() {
				b.fail(n, "slice requires two integral endpoints")
				return n
			}
			n.T = rt
			return n
		}
		if len(args) != 1 {
			b.fail(n, "vector index requires a single argument")
			return n
		}
		at := args[0].Type()
		switch {
		case typ.IsVector(at) && typ.Base(at) == val.TypeBool:
			n.T = rt
		case typ.IsVector(at) && tagOf(at).IsIntegral():
			n.T = rt
		case tagOf(at).IsIntegral():
			if rt.Yield == nil {
				b.fail(n, "indexing an empty untyped vector")
				return n
			}
			n.T = rt.Yield
		default:
			b.fail(n, "vector index must be integral")
		}
		return n

	case typ.Table:
		if slice {
			b.fail(n, "tables do not support slicing")
			return n
		}
		if rt.Unspecified() {
			b.fail(n, "indexing an empty untyped table")
			return n
		}
		if len(args) != len(rt.Index) {
			b.fail(n, "wrong number of index arguments")
			return n
		}
		for i, a := range args {
			c, ok := b.coerceTo(rt.Index[i], a)
			if !ok {
				b.fail(n, "index argument type clash")
				return n
			}
			args[i] = c
		}
		n.Args = args
		if rt.IsSet() {
			n.T = typ.Bool{}
		} else {
			n.T = rt.Yield
		}
		return n

	case typ.String:
		if slice {
			if len(args) != 2 || !tagOf(args[0].Type()).IsIntegral() || !tagOf(args[1].Type()).IsIntegral() {
				b.fail(n, "slice requires two integral endpoints")
				return n
			}
		} else if len(args) != 1 || !tagOf(args[0].Type()).IsIntegral() {
			b.fail(n, "string index must be integral")
			return n
		}
		n.T = typ.String{}
		return n
	}

	b.fail(n, "this type does not support indexing")
	return n
}

func (b *Builder) Field(root xpr.Expression, name string, loc err.Location) *xpr.Field {
	n := &xpr.Field{Root: root, Name: name, Pos: -1}
	n.Source = loc
	n.Pure = root.IsPure()

	if root.IsError() {
		n.MarkError()
		return n
	}
	rt, ok := root.Type().(typ.Record)
	if !ok {
		b.fail(n, "field access on non-record type")
		return n
	}
	pos := rt.FieldIndex(name)
	if pos < 0 {
		b.fail(n, "no such field in record")
		return n
	}
	n.Pos = pos
	n.Default = rt.Fields[pos].Default
	n.T = rt.Fields[pos].Type
	return n
}

func (b *Builder) HasField(root xpr.Expression, name string, loc err.Location) *xpr.HasField {
	n := &xpr.HasField{Root: root, Name: name, Pos: -1}
	n.Source = loc
	n.Pure = root.IsPure()

	if root.IsError() {
		n.MarkError()
		return n
	}
	rt, ok := root.Type().(typ.Record)
	if !ok {
		b.fail(n, "field access on non-record type")
		return n
	}
	pos := rt.FieldIndex(name)
	if pos < 0 {
		b.fail(n, "no such field in record")
		return n
	}
	n.Pos = pos
	n.T = typ.Bool{}
	return n
}

func (b *Builder) List(exprs []xpr.Expression, loc err.Location) *xpr.List {
	n := &xpr.List{Exprs: exprs}
	n.Source = loc
	n.Pure = allPure(exprs...)
	if anyError(exprs...) {
		n.MarkError()
		return n
	}
	es := make([]typ.Type, len(exprs))
	for i, x := range exprs {
		es[i] = x.Type()
	}
	n.T = typ.List{Elems: es}
	return n
}

func (b *Builder) FieldAssign(name string, value xpr.Expression, loc err.Location) *xpr.FieldAssign {
	n := &xpr.FieldAssign{Name: name, Value: value}
	n.Source = loc
	n.Pure = value.IsPure()
	if value.IsError() {
		n.MarkError()
		return n
	}
	n.T = value.Type()
	return n
}

// RecordCtor synthesizes the record type from the field assignments,
// order preserving.
func (b *Builder) RecordCtor(fields []*xpr.FieldAssign, loc err.Location) *xpr.RecordCtor {
	n := &xpr.RecordCtor{Fields: fields}
	n.Source = loc
	pure := true
	bad := false
	fs := make([]typ.Field, len(fields))
	for i, f := range fields {
		pure = pure && f.IsPure()
		bad = bad || f.IsError()
		fs[i] = typ.Field{Name: f.Name, Type: f.Type()}
	}
	n.Pure = pure
	if bad {
		n.MarkError()
		return n
	}
	n.T = typ.Record{Fields: fs}
	return n
}

// TableCtor infers the table type from the first entry; later entries
// must coerce to it. The empty literal stays an unspecified placeholder
// for a later coercion to resolve.
func (b *Builder) TableCtor(entries []xpr.TableEntry, loc err.Location) *xpr.TableCtor {
	n := &xpr.TableCtor{Entries: entries}
	n.Source = loc
	pure := true
	for _, e := range entries {
		pure = pure && allPure(e.Index...) && e.Yield.IsPure()
		if anyError(e.Index...) || e.Yield.IsError() {
			n.Pure = pure
			n.MarkError()
			return n
		}
	}
	n.Pure = pure

	if len(entries) == 0 {
		n.T = typ.Table{}
		return n
	}

	first := entries[0]
	index := make([]typ.Type, len(first.Index))
	for i, ix := range first.Index {
		index[i] = ix.Type()
	}
	yield := first.Yield.Type()

	for ei, e := range entries {
		if len(e.Index) != len(index) {
			b.fail(n, "mismatch in list lengths")
			return n
		}
		for i, ix := range e.Index {
			c, ok := b.coerceTo(index[i], ix)
			if !ok {
				b.fail(n, "type clash in table constructor")
				return n
			}
			entries[ei].Index[i] = c
		}
		c, ok := b.coerceTo(yield, e.Yield)
		if !ok {
			b.fail(n, "type clash in table constructor")
			return n
		}
		entries[ei].Yield = c
	}
	n.Entries = entries
	n.T = typ.Table{Index: index, Yield: yield}
	return n
}

func (b *Builder) SetCtor(elems []xpr.Expression, loc err.Location) *xpr.SetCtor {
	n := &xpr.SetCtor{Elems: elems}
	n.Source = loc
	n.Pure = allPure(elems...)
	if anyError(elems...) {
		n.MarkError()
		return n
	}
	if len(elems) == 0 {
		n.T = typ.Table{}
		return n
	}
	index := elems[0].Type()
	for i, c := range elems {
		cc, ok := b.coerceTo(index, c)
		if !ok {
			b.fail(n, "type clash in set constructor")
			return n
		}
		elems[i] = cc
	}
	n.Elems = elems
	n.T = typ.Table{Index: []typ.Type{index}}
	return n
}

// VectorCtor merges all element types into the yield type, inserting
// arithmetic widenings where the merge requires them.
func (b *Builder) VectorCtor(elems []xpr.Expression, loc err.Location) *xpr.VectorCtor {
	n := &xpr.VectorCtor{Elems: elems}
	n.Source = loc
	n.Pure = allPure(elems...)
	if anyError(elems...) {
		n.MarkError()
		return n
	}
	if len(elems) == 0 {
		n.T = typ.Vector{}
		return n
	}
	yield := elems[0].Type()
	for _, c := range elems[1:] {
		if yield.Equals(c.Type()) {
			continue
		}
		if typ.BothArithmetic(tagOf(yield), tagOf(c.Type())) {
			yield = typ.Scalar(typ.MaxType(tagOf(yield), tagOf(c.Type())))
			continue
		}
		b.fail(n, "vector constructor requires uniform element types")
		return n
	}
	if yield.ValueType().IsArithmetic() {
		for i, c := range elems {
			if tagOf(c.Type()) != yield.ValueType() {
				elems[i] = b.coerceArithTo(c, yield.ValueType())
			}
		}
		n.Elems = elems
	}
	n.T = typ.Vector{Yield: yield}
	return n
}

// RecordCoerce builds the field mapping once; a mapping failure is a
// static error reported here and never re-checked at fold time.
func (b *Builder) RecordCoerce(to typ.Record, operand xpr.Expression) *xpr.RecordCoerce {
	n := &xpr.RecordCoerce{Operand: operand}
	n.Source = operand.Loc()
	n.Pure = operand.IsPure()

	if operand.IsError() {
		n.MarkError()
		return n
	}
	from, ok := operand.Type().(typ.Record)
	if !ok {
		b.fail(n, "record coercion of non-record expression")
		return n
	}
	mapping, problem := buildRecordMapping(to, from)
	if problem != "" {
		b.fail(n, "%s", problem)
		return n
	}
	n.Mapping = mapping
	n.T = to
	return n
}

func (b *Builder) TableCoerce(to typ.Table, operand xpr.Expression) *xpr.TableCoerce {
	n := &xpr.TableCoerce{Operand: operand}
	n.Source = operand.Loc()
	n.Pure = operand.IsPure()
	if operand.IsError() {
		n.MarkError()
		return n
	}
	ft, ok := operand.Type().(typ.Table)
	if !ok || (!ft.Unspecified() && !to.Equals(ft)) {
		b.fail(n, "illegal table coercion")
		return n
	}
	n.T = to
	return n
}

func (b *Builder) VectorCoerce(to typ.Vector, operand xpr.Expression) *xpr.VectorCoerce {
	n := &xpr.VectorCoerce{Operand: operand}
	n.Source = operand.Loc()
	n.Pure = operand.IsPure()
	if operand.IsError() {
		n.MarkError()
		return n
	}
	fv, ok := operand.Type().(typ.Vector)
	if !ok || (!fv.Unspecified() && !to.Equals(fv)) {
		b.fail(n, "illegal vector coercion")
		return n
	}
	n.T = to
	return n
}

func (b *Builder) Is(operand xpr.Expression, target typ.Type, loc err.Location) *xpr.Is {
	n := &xpr.Is{Operand: operand, Target: target}
	n.Source = loc
	n.Pure = operand.IsPure()
	if operand.IsError() {
		n.MarkError()
		return n
	}
	n.T = typ.Bool{}
	return n
}

func (b *Builder) Call(fn xpr.Expression, args []xpr.Expression, loc err.Location) *xpr.Call {
	n := &xpr.Call{Fn: fn, Args: args}
	n.Source = loc
	n.Pure = false

	if fn.IsError() || anyError(args...) {
		n.MarkError()
		return n
	}

	sig, ok := fn.Type().(typ.Func)
	if !ok {
		b.fail(n, "expression is not a function")
		return n
	}
	if sig.Event {
		b.fail(n, "event handlers cannot be called directly")
		return n
	}
	if sig.Params != nil {
		if len(args) != len(sig.Params) {
			b.fail(n, "wrong number of arguments")
			return n
		}
		for i, a := range args {
			c, ok := b.coerceTo(sig.Params[i], a)
			if !ok {
				b.fail(n, "argument type clash")
				return n
			}
			args[i] = c
		}
		n.Args = args
	}

	// built-ins expose a construction-time argument-shape validator
	if c, ok := fn.(*xpr.Name); ok && c.Const != nil && b.Calls != nil {
		if fv, ok := c.Const.(val.Func); ok {
			if e := b.Calls.Validate(fv, args); e != nil {
				b.fail(n, "%s", e.String())
				return n
			}
			n.Pure = b.Calls.IsPure(fv) && allPure(args...) && fn.IsPure()
		}
	}

	if sig.Yield != nil {
		n.T = sig.Yield
	} else {
		n.T = typ.Void{}
	}
	return n
}

func (b *Builder) Event(name string, args []xpr.Expression, loc err.Location) *xpr.Event {
	n := &xpr.Event{Name: name, Args: args}
	n.Source = loc
	n.Pure = false

	if anyError(args...) {
		n.MarkError()
		return n
	}
	sig, ok := b.Events[name]
	if !ok {
		b.fail(n, "unknown event handler %q", name)
		return n
	}
	if len(args) != len(sig.Params) {
		b.fail(n, "wrong number of arguments")
		return n
	}
	for i, a := range args {
		c, ok := b.coerceTo(sig.Params[i], a)
		if !ok {
			b.fail(n, "argument type clash")
			return n
		}
		args[i] = c
	}
	n.Args = args
	n.T = typ.Void{}
	return n
}

func (b *Builder) Schedule(when xpr.Expression, ev *xpr.Event, loc err.Location) *xpr.Schedule {
	n := &xpr.Schedule{When: when, Ev: ev}
	n.Source = loc
	n.Pure = false

	if when.IsError() || ev.IsError() {
		n.MarkError()
		return n
	}
	if wt := tagOf(when.Type()); wt != val.TypeTime && wt != val.TypeInterval {
		b.fail(n, "schedule requires a time or interval")
		return n
	}
	n.T = typ.Timer{}
	return n
}

func (b *Builder) Lambda(params []string, sig typ.Func, body xpr.Expression, loc err.Location) *xpr.Lambda {
	n := &xpr.Lambda{Params: params, Sig: sig, Body: body}
	n.Source = loc
	n.Pure = true
	if body.IsError() {
		n.MarkError()
		return n
	}
	if len(params) != len(sig.Params) {
		b.fail(n, "wrong number of parameters")
		return n
	}
	n.T = sig
	return n
}
