// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package val

import (
	"fmt"
	"hash"
	"hash/fnv"
	"sort"
	"unsafe"
)

// Hash identifies a value for table/set membership. Structurally equal
// values hash equally; table members hash by index only.
func Hash(v Value, h hash.Hash64) hash.Hash64 {
	if h == nil {
		h = fnv.New64()
	}
	switch v := v.(type) {
	case Bool:
		h.Write([]byte(`bool`))
		if v {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
		return h
	case Int:
		h.Write([]byte(`int`))
		writeUint64(h, uint64(v))
		return h
	case Count:
		h.Write([]byte(`count`))
		writeUint64(h, uint64(v))
		return h
	case Counter:
		h.Write([]byte(`counter`))
		writeUint64(h, uint64(v))
		return h
	case Double:
		h.Write([]byte(`double`))
		x := float64(v)
		b := *(*[8]byte)((unsafe.Pointer)(&x))
		h.Write(b[:])
		return h
	case Time:
		h.Write([]byte(`time`))
		h.Write([]byte(v.Time.String()))
		return h
	case Interval:
		h.Write([]byte(`interval`))
		writeUint64(h, uint64(v))
		return h
	case String:
		h.Write([]byte(`string`))
		h.Write([]byte(v))
		return h
	case *Pattern:
		h.Write([]byte(`pattern`))
		h.Write([]byte(v.Src))
		return h
	case Enum:
		h.Write([]byte(`enum`))
		h.Write([]byte(v.Name))
		return h
	case Port:
		h.Write([]byte(`port`))
		writeUint64(h, uint64(v.Num)<<8|uint64(v.Proto))
		return h
	case Addr:
		h.Write([]byte(`addr`))
		b, _ := v.Addr.MarshalBinary()
		h.Write(b)
		return h
	case Subnet:
		h.Write([]byte(`subnet`))
		b, _ := v.Prefix.MarshalBinary()
		h.Write(b)
		return h
	case Func:
		h.Write([]byte(`func`))
		h.Write([]byte(v.Name))
		return h
	case List:
		h.Write([]byte(`list`))
		for _, w := range v {
			h = Hash(w, h)
		}
		return h
	case *Record:
		h.Write([]byte(`record`))
		for i, n := range v.names {
			h.Write([]byte(n))
			if f := v.fields[i]; f != nil {
				h = Hash(f, h)
			} else {
				h.Write([]byte(`?`))
			}
		}
		return h
	case *Vector:
		h.Write([]byte(`vector`))
		for _, w := range v.elems {
			if w != nil {
				h = Hash(w, h)
			} else {
				h.Write([]byte(`?`))
			}
		}
		return h
	case *Table:
		h.Write([]byte(`table`))
		ks := make([]uint64, 0, len(v.entries))
		for k := range v.entries {
			ks = append(ks, k)
		}
		sort.Slice(ks, func(i, j int) bool {
			return ks[i] < ks[j]
		})
		for _, k := range ks {
			writeUint64(h, k)
		}
		return h
	}
	panic(fmt.Sprintf("unhandled type: %T", v))
}

func writeUint64(h hash.Hash64, v uint64) {
	h.Write([]byte{
		byte(v >> 56), byte(v >> 48), byte(v >> 40), byte(v >> 32),
		byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v),
	})
}
