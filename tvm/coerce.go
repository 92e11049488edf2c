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

// buildRecordMapping computes, once at construction, the source field
// position for every destination field (-1 when sourced from defaults
// or left unset). A non-empty problem string is a static error.
func buildRecordMapping(to, from typ.Record) ([]int, string) {
	mapping := make([]int, len(to.Fields))
	for i, tf := range to.Fields {
		si := from.FieldIndex(tf.Name)
		if si < 0 {
			if !tf.Optional && tf.Default == nil {
				return nil, fmt.Sprintf("non-optional field %q missing", tf.Name)
			}
			mapping[i] = -1
			continue
		}
		if !typ.Promotable(tf.Type, from.Fields[si].Type) {
			return nil, fmt.Sprintf("type clash for field %q", tf.Name)
		}
		mapping[i] = si
	}
	return mapping, ""
}

// coerceRecord materializes the destination record. Each field fills
// from its mapped source value, the source field's own default, the
// destination default, or stays unset when optional.
func (m *VM) coerceRecord(x *xpr.RecordCoerce, rv *val.Record) (val.Value, err.Error) {
	to := x.Type().(typ.Record)
	from, _ := x.Operand.Type().(typ.Record)
	return m.coerceRecordValue(x, to, from, x.Mapping, rv)
}

func (m *VM) coerceRecordValue(x xpr.Expression, to, from typ.Record, mapping []int, rv *val.Record) (val.Value, err.Error) {
	names := make([]string, len(to.Fields))
	for i, f := range to.Fields {
		names[i] = f.Name
	}
	out := val.NewRecord(names)
	for i, tf := range to.Fields {
		v := val.Value(nil)
		if si := mapping[i]; si >= 0 {
			v = rv.Lookup(si)
			if v == nil && si < len(from.Fields) {
				v = from.Fields[si].Default
			}
		}
		if v == nil {
			v = tf.Default
		}
		if v == nil {
			if !tf.Optional {
				return nil, m.runtimeError(x, "field value missing")
			}
			continue
		}
		w, e := m.coerceValue(x, tf.Type, v)
		if e != nil {
			return nil, e
		}
		out.Assign(i, w)
	}
	return out, nil
}

// coerceValue widens a single value to the destination field type.
// Narrowing was rejected when the mapping was built.
func (m *VM) coerceValue(x xpr.Expression, to typ.Type, v val.Value) (val.Value, err.Error) {
	if tr, ok := to.(typ.Record); ok {
		rv, ok := v.(*val.Record)
		if !ok {
			return v, nil
		}
		fr := recordTypeOfValue(rv, tr)
		if tr.Equals(fr) {
			return v, nil
		}
		mapping, problem := buildRecordMapping(tr, fr)
		if problem != "" {
			return nil, m.runtimeError(x, problem)
		}
		return m.coerceRecordValue(x, tr, fr, mapping, rv)
	}
	if to.ValueType().IsArithmetic() {
		return convertArith(to.ValueType(), v), nil
	}
	return v, nil
}

// recordTypeOfValue reconstructs a structural record type for a value,
// borrowing field types from the destination where names line up so
// that same-named compatible fields map through.
func recordTypeOfValue(rv *val.Record, hint typ.Record) typ.Record {
	fields := make([]typ.Field, rv.NumFields())
	for i := range fields {
		name := rv.Name(i)
		fields[i] = typ.Field{Name: name, Optional: true}
		if v := rv.Lookup(i); v != nil {
			if r, ok := v.(*val.Record); ok {
				hr := typ.Record{}
				if hi := hint.FieldIndex(name); hi >= 0 {
					if h, ok := hint.Fields[hi].Type.(typ.Record); ok {
						hr = h
					}
				}
				fields[i].Type = recordTypeOfValue(r, hr)
			} else {
				fields[i].Type = typeOfValue(v)
			}
		} else if hi := hint.FieldIndex(name); hi >= 0 {
			fields[i].Type = hint.Fields[hi].Type
		} else {
			fields[i].Type = typ.Any{}
		}
	}
	return typ.Record{Fields: fields}
}

// convertArith widens a numeric value into the target domain.
func convertArith(to val.Type, v val.Value) val.Value {
	v = normalize(v)
	switch to {
	case val.TypeInt:
		switch v := v.(type) {
		case val.Int:
			return v
		case val.Count:
			return val.Int(v)
		}
	case val.TypeCount, val.TypeCounter:
		switch v := v.(type) {
		case val.Count:
			return v
		case val.Int:
			return val.Count(v)
		}
	case val.TypeDouble:
		switch v := v.(type) {
		case val.Double:
			return v
		case val.Int:
			return val.Double(v)
		case val.Count:
			return val.Double(v)
		}
	case val.TypeBool:
		if b, ok := v.(val.Bool); ok {
			return b
		}
	}
	panic(fmt.Sprintf("unhandled arithmetic conversion: %T to %v", v, to))
}

// coerceTable resolves an unspecified empty table/set literal to its
// destination type. Only the empty aggregate passes through.
func (m *VM) coerceTable(x *xpr.TableCoerce, tv *val.Table) (val.Value, err.Error) {
	if tv.Len() > 0 {
		return nil, m.runtimeError(x, "coercion of non-empty table/set")
	}
	return val.NewTable(0), nil
}

func (m *VM) coerceVector(x *xpr.VectorCoerce, vv *val.Vector) (val.Value, err.Error) {
	if vv.Len() > 0 {
		return nil, m.runtimeError(x, "coercion of non-empty vector")
	}
	return val.NewVector(0), nil
}

// coerceArith folds an arithmetic coercion node, widening every defined
// element when the operand is a vector.
func (m *VM) coerceArith(x *xpr.ArithCoerce, v val.Value) (val.Value, err.Error) {
	if vec, ok := v.(*val.Vector); ok {
		out := val.NewVector(vec.Len())
		for i, n := 0, vec.Len(); i < n; i++ {
			w := vec.Lookup(i)
			if w == nil {
				out.Append(nil)
				continue
			}
			out.Append(convertArith(x.To, w))
		}
		return out, nil
	}
	return convertArith(x.To, v), nil
}
