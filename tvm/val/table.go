// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package val

type tableEntry struct {
	Index Value
	Yield Value // nil for sets
}

// Table maps index values to yield values. A set is a table whose entries
// carry no yield. Indexes are identified by their hash; composite indexes
// are List values.
type Table struct {
	entries map[uint64]tableEntry
}

func NewTable(capacity int) *Table {
	return &Table{make(map[uint64]tableEntry, capacity)}
}

func (t *Table) Len() int {
	return len(t.entries)
}

// Assign upserts index -> yield. It reports success so callers can fail
// soft instead of throwing; a nil index is the only rejection.
func (t *Table) Assign(index, yield Value) bool {
	if index == nil {
		return false
	}
	t.entries[Hash(index, nil).Sum64()] = tableEntry{index, yield}
	return true
}

func (t *Table) Get(index Value) (Value, bool) {
	e, ok := t.entries[Hash(index, nil).Sum64()]
	return e.Yield, ok
}

func (t *Table) Contains(index Value) bool {
	_, ok := t.entries[Hash(index, nil).Sum64()]
	return ok
}

func (t *Table) Delete(index Value) bool {
	h := Hash(index, nil).Sum64()
	if _, ok := t.entries[h]; !ok {
		return false
	}
	delete(t.entries, h)
	return true
}

// ForEach visits every entry until f returns false. Iteration order is
// unspecified.
func (t *Table) ForEach(f func(index, yield Value) bool) {
	for _, e := range t.entries {
		if !f(e.Index, e.Yield) {
			return
		}
	}
}

func (t *Table) Copy() Value {
	c := NewTable(len(t.entries))
	for h, e := range t.entries {
		ce := tableEntry{e.Index.Copy(), nil}
		if e.Yield != nil {
			ce.Yield = e.Yield.Copy()
		}
		c.entries[h] = ce
	}
	return c
}

// Equals compares by index membership. Like the value hash, it identifies
// set members by their index only.
func (t *Table) Equals(v Value) bool {
	q, ok := v.(*Table)
	if !ok || len(t.entries) != len(q.entries) {
		return false
	}
	for h := range t.entries {
		if _, ok := q.entries[h]; !ok {
			return false
		}
	}
	return true
}

func (*Table) Primitive() bool {
	return false
}

func (t *Table) Intersect(q *Table) *Table {
	out := NewTable(0)
	for h, e := range t.entries {
		if _, ok := q.entries[h]; ok {
			out.entries[h] = tableEntry{e.Index.Copy(), nil}
		}
	}
	return out
}

func (t *Table) Union(q *Table) *Table {
	out := t.Copy().(*Table)
	for h, e := range q.entries {
		if _, ok := out.entries[h]; !ok {
			out.entries[h] = tableEntry{e.Index.Copy(), nil}
		}
	}
	return out
}

func (t *Table) Difference(q *Table) *Table {
	out := NewTable(0)
	for h, e := range t.entries {
		if _, ok := q.entries[h]; !ok {
			out.entries[h] = tableEntry{e.Index.Copy(), nil}
		}
	}
	return out
}

func (t *Table) SubsetOf(q *Table) bool {
	for h := range t.entries {
		if _, ok := q.entries[h]; !ok {
			return false
		}
	}
	return true
}
