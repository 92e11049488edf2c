// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package val

// Record is an ordered collection of named fields. A nil field slot means
// the field is unset, which is legal only for optional fields.
type Record struct {
	names  []string
	fields []Value
}

func NewRecord(names []string) *Record {
	return &Record{names, make([]Value, len(names))}
}

func (r *Record) NumFields() int {
	return len(r.names)
}

func (r *Record) Name(i int) string {
	return r.names[i]
}

func (r *Record) Names() []string {
	return r.names
}

// FieldIndex returns the position of the named field, or -1.
func (r *Record) FieldIndex(name string) int {
	for i, n := range r.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Lookup returns the value at field position i, nil if unset.
func (r *Record) Lookup(i int) Value {
	return r.fields[i]
}

func (r *Record) LookupField(name string) Value {
	i := r.FieldIndex(name)
	if i < 0 {
		return nil
	}
	return r.fields[i]
}

// Assign sets field position i. A nil value unsets the field.
func (r *Record) Assign(i int, v Value) {
	r.fields[i] = v
}

func (r *Record) Copy() Value {
	c := NewRecord(r.names)
	for i, v := range r.fields {
		if v != nil {
			c.fields[i] = v.Copy()
		}
	}
	return c
}

func (r *Record) Equals(v Value) bool {
	q, ok := v.(*Record)
	if !ok || len(r.names) != len(q.names) {
		return false
	}
	for i, n := range r.names {
		if n != q.names[i] {
			return false
		}
		a, b := r.fields[i], q.fields[i]
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

func (*Record) Primitive() bool {
	return false
}
