// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package val

// Vector is a growable sequence of values. A nil element is "undefined":
// distinct from any present value, it propagates through elementwise
// operations instead of raising errors.
type Vector struct {
	elems []Value
}

func NewVector(capacity int) *Vector {
	return &Vector{make([]Value, 0, capacity)}
}

func VectorOf(vs ...Value) *Vector {
	return &Vector{vs}
}

func (v *Vector) Len() int {
	return len(v.elems)
}

// Lookup returns the element at position i, nil when i is out of range or
// the element is undefined.
func (v *Vector) Lookup(i int) Value {
	if i < 0 || i >= len(v.elems) {
		return nil
	}
	return v.elems[i]
}

// Assign sets position i, growing the vector with undefined holes if i is
// past the current length. Negative positions are rejected by the caller.
func (v *Vector) Assign(i int, w Value) {
	for i >= len(v.elems) {
		v.elems = append(v.elems, nil)
	}
	v.elems[i] = w
}

func (v *Vector) Append(w Value) {
	v.elems = append(v.elems, w)
}

// Splice removes elements in [first,last) and inserts repl in their place.
func (v *Vector) Splice(first, last int, repl *Vector) {
	rest := append([]Value(nil), v.elems[last:]...)
	v.elems = append(v.elems[:first], repl.elems...)
	v.elems = append(v.elems, rest...)
}

func (v *Vector) Copy() Value {
	c := make([]Value, len(v.elems))
	for i, w := range v.elems {
		if w != nil {
			c[i] = w.Copy()
		}
	}
	return &Vector{c}
}

func (v *Vector) Equals(w Value) bool {
	q, ok := w.(*Vector)
	if !ok || len(v.elems) != len(q.elems) {
		return false
	}
	for i, a := range v.elems {
		b := q.elems[i]
		if a == nil || b == nil {
			if a != nil || b != nil {
				return false
			}
			continue
		}
		if !a.Equals(b) {
			return false
		}
	}
	return true
}

func (*Vector) Primitive() bool {
	return false
}

// SliceIndex maps a possibly negative slice endpoint into [0,len]:
// endpoints beyond the length clamp to 0 or len depending on sign,
// negative endpoints count back from the end.
func SliceIndex(idx, length int) int {
	if idx > length || -idx > length {
		if idx > 0 {
			return length
		}
		return 0
	}
	if idx < 0 {
		return idx + length
	}
	return idx
}
