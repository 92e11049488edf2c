// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package typ

import (
	"tapir.run/tvm/val"
)

// MaxType joins two arithmetic value tags. Double dominates everything,
// int dominates the unsigned tags, counter folds into count. The result
// of joining two non-arithmetic tags is TypeError.
func MaxType(a, b val.Type) val.Type {
	if a == val.TypeCounter {
		a = val.TypeCount
	}
	if b == val.TypeCounter {
		b = val.TypeCount
	}
	if !a.IsArithmetic() || !b.IsArithmetic() {
		return val.TypeError
	}
	if a == val.TypeDouble || b == val.TypeDouble {
		return val.TypeDouble
	}
	if a == val.TypeInt || b == val.TypeInt {
		return val.TypeInt
	}
	return val.TypeCount
}

// BothArithmetic reports whether both tags admit numeric promotion.
func BothArithmetic(a, b val.Type) bool {
	return a.IsArithmetic() && b.IsArithmetic()
}

// ArithPromotable reports whether a value of tag from may be silently
// widened to tag to. Narrowing is never silent: double never promotes
// to an integral tag and a signed int never promotes to count.
func ArithPromotable(to, from val.Type) bool {
	if to == val.TypeCounter {
		to = val.TypeCount
	}
	if from == val.TypeCounter {
		from = val.TypeCount
	}
	if !to.IsArithmetic() || !from.IsArithmetic() {
		return false
	}
	if to == from {
		return true
	}
	switch to {
	case val.TypeDouble:
		return true
	case val.TypeInt:
		return from == val.TypeCount
	case val.TypeCount:
		return false
	}
	return false
}

// Promotable reports whether a value of type from can be coerced to
// type to, either trivially (structural equality), by arithmetic
// widening, or by recursive record coercion.
func Promotable(to, from Type) bool {
	if to.Equals(from) {
		return true
	}
	if _, ok := to.(Any); ok {
		return true
	}
	if tr, ok := to.(Record); ok {
		if fr, ok := from.(Record); ok {
			return RecordPromotable(tr, fr)
		}
		return false
	}
	return ArithPromotable(to.ValueType(), from.ValueType())
}

// RecordPromotable reports whether every field required by to can be
// sourced from a same-named field of from (or a default) at a
// promotable type. It mirrors the mapping built for record coercions.
func RecordPromotable(to, from Record) bool {
	for _, tf := range to.Fields {
		si := from.FieldIndex(tf.Name)
		if si < 0 {
			if !tf.Optional && tf.Default == nil {
				return false
			}
			continue
		}
		if !Promotable(tf.Type, from.Fields[si].Type) {
			return false
		}
	}
	return true
}
