// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package binary

import (
	"fmt"
	"math"
	"net/netip"
	"time"

	"tapir.run/tvm/err"
	"tapir.run/tvm/val"
)

type Type byte

const (
	TypeNull     Type = 0
	TypeBool     Type = 1
	TypeInt      Type = 2
	TypeCount    Type = 3
	TypeCounter  Type = 4
	TypeDouble   Type = 5
	TypeTime     Type = 6
	TypeInterval Type = 7
	TypeString   Type = 8
	TypePattern  Type = 9
	TypeEnum     Type = 10
	TypePort     Type = 11
	TypeAddr     Type = 12
	TypeSubnet   Type = 13
	TypeFunc     Type = 14
	TypeList     Type = 15
	TypeRecord   Type = 16
	TypeVector   Type = 17
	TypeTable    Type = 18
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeCount:
		return "count"
	case TypeCounter:
		return "counter"
	case TypeDouble:
		return "double"
	case TypeTime:
		return "time"
	case TypeInterval:
		return "interval"
	case TypeString:
		return "string"
	case TypePattern:
		return "pattern"
	case TypeEnum:
		return "enum"
	case TypePort:
		return "port"
	case TypeAddr:
		return "addr"
	case TypeSubnet:
		return "subnet"
	case TypeFunc:
		return "func"
	case TypeList:
		return "list"
	case TypeRecord:
		return "record"
	case TypeVector:
		return "vector"
	case TypeTable:
		return "table"
	}
	return "unknown"
}

// Encode serializes a value, nil included, into a self-describing byte
// string. Table entries round-trip by index and yield; iteration order
// is not part of the encoding contract.
func Encode(v val.Value) []byte {
	buf := make([]byte, 0, 1024)
	return encode(v, buf)
}

func encode(v val.Value, buf []byte) []byte {
	switch v := v.(type) {

	case nil:
		return append(buf, byte(TypeNull))

	case val.Bool:
		buf = append(buf, byte(TypeBool))
		if v {
			return append(buf, 't')
		}
		return append(buf, 'f')

	case val.Int:
		buf = append(buf, byte(TypeInt))
		return writeUint64(uint64(v), buf)

	case val.Count:
		buf = append(buf, byte(TypeCount))
		return writeUint64(uint64(v), buf)

	case val.Counter:
		buf = append(buf, byte(TypeCounter))
		return writeUint64(uint64(v), buf)

	case val.Double:
		buf = append(buf, byte(TypeDouble))
		return writeUint64(math.Float64bits(float64(v)), buf)

	case val.Time:
		buf = append(buf, byte(TypeTime))
		return writeString(v.Time.Format(time.RFC3339Nano), buf)

	case val.Interval:
		buf = append(buf, byte(TypeInterval))
		return writeUint64(uint64(v), buf)

	case val.String:
		buf = append(buf, byte(TypeString))
		return writeString(string(v), buf)

	case *val.Pattern:
		buf = append(buf, byte(TypePattern))
		return writeString(v.Src, buf)

	case val.Enum:
		buf = append(buf, byte(TypeEnum))
		buf = writeString(v.Name, buf)
		return writeUint64(uint64(v.Ord), buf)

	case val.Port:
		buf = append(buf, byte(TypePort))
		buf = writeUint32(v.Num, buf)
		return append(buf, byte(v.Proto))

	case val.Addr:
		buf = append(buf, byte(TypeAddr))
		bs, _ := v.Addr.MarshalBinary()
		return writeBytes(bs, buf)

	case val.Subnet:
		buf = append(buf, byte(TypeSubnet))
		bs, _ := v.Prefix.Addr().MarshalBinary()
		buf = writeBytes(bs, buf)
		return append(buf, byte(v.Prefix.Bits()))

	case val.Func:
		buf = append(buf, byte(TypeFunc))
		return writeString(v.Name, buf)

	case val.List:
		buf = append(buf, byte(TypeList))
		buf = writeLength(len(v), buf)
		for _, w := range v {
			buf = encode(w, buf)
		}
		return buf

	case *val.Record:
		buf = append(buf, byte(TypeRecord))
		buf = writeLength(v.NumFields(), buf)
		for i, n := 0, v.NumFields(); i < n; i++ {
			buf = writeString(v.Name(i), buf)
			if w := v.Lookup(i); w != nil {
				buf = append(buf, 1)
				buf = encode(w, buf)
			} else {
				buf = append(buf, 0)
			}
		}
		return buf

	case *val.Vector:
		buf = append(buf, byte(TypeVector))
		buf = writeLength(v.Len(), buf)
		for i, n := 0, v.Len(); i < n; i++ {
			if w := v.Lookup(i); w != nil {
				buf = append(buf, 1)
				buf = encode(w, buf)
			} else {
				buf = append(buf, 0)
			}
		}
		return buf

	case *val.Table:
		buf = append(buf, byte(TypeTable))
		buf = writeLength(v.Len(), buf)
		v.ForEach(func(index, yield val.Value) bool {
			buf = encode(index, buf)
			if yield != nil {
				buf = append(buf, 1)
				buf = encode(yield, buf)
			} else {
				buf = append(buf, 0)
			}
			return true
		})
		return buf
	}

	panic(fmt.Sprintf(`unhandled value: %T`, v))
}

func Decode(data []byte) (val.Value, err.Error) {
	v, d, e := decode(data)
	if e != nil {
		return nil, err.CodecError{Codec: "binary", Offset: len(data) - len(d), Child_: e}
	}
	return v, nil
}

func decode(data []byte) (val.Value, []byte, err.Error) {

	r, data, e := readBytes(1, data)
	if e != nil {
		return nil, data, e
	}

	switch t := Type(r[0]); t {

	case TypeNull:
		return nil, data, nil

	case TypeBool:
		b, data, e := readBytes(1, data)
		if e != nil {
			return nil, data, e
		}
		return val.Bool(b[0] == 't'), data, nil

	case TypeInt:
		u, data, e := readUint64(data)
		if e != nil {
			return nil, data, e
		}
		return val.Int(u), data, nil

	case TypeCount:
		u, data, e := readUint64(data)
		if e != nil {
			return nil, data, e
		}
		return val.Count(u), data, nil

	case TypeCounter:
		u, data, e := readUint64(data)
		if e != nil {
			return nil, data, e
		}
		return val.Counter(u), data, nil

	case TypeDouble:
		u, data, e := readUint64(data)
		if e != nil {
			return nil, data, e
		}
		return val.Double(math.Float64frombits(u)), data, nil

	case TypeTime:
		s, data, e := readString(data)
		if e != nil {
			return nil, data, e
		}
		t, pe := time.Parse(time.RFC3339Nano, s)
		if pe != nil {
			return nil, data, err.InputParsingError{Problem: pe.Error(), Input: data}
		}
		return val.Time{Time: t}, data, nil

	case TypeInterval:
		u, data, e := readUint64(data)
		if e != nil {
			return nil, data, e
		}
		return val.Interval(u), data, nil

	case TypeString:
		s, data, e := readString(data)
		if e != nil {
			return nil, data, e
		}
		return val.String(s), data, nil

	case TypePattern:
		s, data, e := readString(data)
		if e != nil {
			return nil, data, e
		}
		p, pe := val.NewPattern(s)
		if pe != nil {
			return nil, data, err.InputParsingError{Problem: pe.Error(), Input: data}
		}
		return p, data, nil

	case TypeEnum:
		name, data, e := readString(data)
		if e != nil {
			return nil, data, e
		}
		ord, data, e := readUint64(data)
		if e != nil {
			return nil, data, e
		}
		return val.Enum{Name: name, Ord: int64(ord)}, data, nil

	case TypePort:
		num, data, e := readUint32(data)
		if e != nil {
			return nil, data, e
		}
		p, data, e := readBytes(1, data)
		if e != nil {
			return nil, data, e
		}
		return val.Port{Num: num, Proto: val.Proto(p[0])}, data, nil

	case TypeAddr:
		bs, data, e := readLengthPrefixedBytes(data)
		if e != nil {
			return nil, data, e
		}
		a, ok := netip.AddrFromSlice(bs)
		if !ok {
			return nil, data, err.InputParsingError{Problem: "bad address encoding", Input: data}
		}
		return val.Addr{Addr: a}, data, nil

	case TypeSubnet:
		bs, data, e := readLengthPrefixedBytes(data)
		if e != nil {
			return nil, data, e
		}
		a, ok := netip.AddrFromSlice(bs)
		if !ok {
			return nil, data, err.InputParsingError{Problem: "bad address encoding", Input: data}
		}
		b, data, e := readBytes(1, data)
		if e != nil {
			return nil, data, e
		}
		return val.Subnet{Prefix: netip.PrefixFrom(a, int(b[0]))}, data, nil

	case TypeFunc:
		name, data, e := readString(data)
		if e != nil {
			return nil, data, e
		}
		return val.Func{Name: name}, data, nil

	case TypeList:
		l, data, e := readLength(data)
		if e != nil {
			return nil, data, e
		}
		v := make(val.List, l)
		for i := 0; i < l; i++ {
			w, d, e := decode(data)
			if e != nil {
				return nil, d, e
			}
			v[i], data = w, d
		}
		return v, data, nil

	case TypeRecord:
		l, data, e := readLength(data)
		if e != nil {
			return nil, data, e
		}
		names := make([]string, l)
		values := make([]val.Value, l)
		for i := 0; i < l; i++ {
			name, d, e := readString(data)
			if e != nil {
				return nil, d, e
			}
			data = d
			flag, d, e := readBytes(1, data)
			if e != nil {
				return nil, d, e
			}
			data = d
			names[i] = name
			if flag[0] == 1 {
				w, d, e := decode(data)
				if e != nil {
					return nil, d, e
				}
				values[i], data = w, d
			}
		}
		v := val.NewRecord(names)
		for i, w := range values {
			v.Assign(i, w)
		}
		return v, data, nil

	case TypeVector:
		l, data, e := readLength(data)
		if e != nil {
			return nil, data, e
		}
		v := val.NewVector(l)
		for i := 0; i < l; i++ {
			flag, d, e := readBytes(1, data)
			if e != nil {
				return nil, d, e
			}
			data = d
			if flag[0] != 1 {
				v.Append(nil)
				continue
			}
			w, d, e := decode(data)
			if e != nil {
				return nil, d, e
			}
			v.Append(w)
			data = d
		}
		return v, data, nil

	case TypeTable:
		l, data, e := readLength(data)
		if e != nil {
			return nil, data, e
		}
		v := val.NewTable(l)
		for i := 0; i < l; i++ {
			index, d, e := decode(data)
			if e != nil {
				return nil, d, e
			}
			data = d
			flag, d, e := readBytes(1, data)
			if e != nil {
				return nil, d, e
			}
			data = d
			yield := val.Value(nil)
			if flag[0] == 1 {
				w, d, e := decode(data)
				if e != nil {
					return nil, d, e
				}
				yield, data = w, d
			}
			v.Assign(index, yield)
		}
		return v, data, nil
	}

	return nil, data, err.InputParsingError{Problem: fmt.Sprintf(`invalid type specifier: %d`, r[0]), Input: data}
}

func readBytes(n int, data []byte) ([]byte, []byte, err.Error) {
	if len(data) < n {
		return nil, data, err.InputParsingError{Problem: `unexpected EOF`, Input: data}
	}
	return data[:n], data[n:], nil
}

func readLength(data []byte) (int, []byte, err.Error) {
	r, data, e := readUint32(data)
	if e != nil {
		return 0, data, e
	}
	l := int(r)
	if l > len(data) {
		return 0, data, err.InputParsingError{Problem: fmt.Sprintf(`length exceeds input bounds: %d`, l), Input: data}
	}
	return l, data, nil
}

func readLengthPrefixedBytes(data []byte) ([]byte, []byte, err.Error) {
	l, data, e := readLength(data)
	if e != nil {
		return nil, data, e
	}
	return readBytes(l, data)
}

func readString(data []byte) (string, []byte, err.Error) {
	bs, data, e := readLengthPrefixedBytes(data)
	if e != nil {
		return "", data, e
	}
	return string(bs), data, nil
}

func writeBytes(bs []byte, buf []byte) []byte {
	return append(writeLength(len(bs), buf), bs...)
}

func writeString(s string, buf []byte) []byte {
	return writeBytes([]byte(s), buf)
}

func writeLength(l int, buf []byte) []byte {
	return writeUint32(uint32(l), buf)
}

func writeUint64(u uint64, buf []byte) []byte {
	return append(buf,
		byte(u>>56), byte(u>>48), byte(u>>40), byte(u>>32),
		byte(u>>24), byte(u>>16), byte(u>>8), byte(u),
	)
}

func writeUint32(u uint32, buf []byte) []byte {
	return append(buf, byte(u>>24), byte(u>>16), byte(u>>8), byte(u))
}

func readUint64(data []byte) (uint64, []byte, err.Error) {
	bs, data, e := readBytes(8, data)
	if e != nil {
		return 0, data, e
	}
	return uint64(bs[0])<<56 |
		uint64(bs[1])<<48 |
		uint64(bs[2])<<40 |
		uint64(bs[3])<<32 |
		uint64(bs[4])<<24 |
		uint64(bs[5])<<16 |
		uint64(bs[6])<<8 |
		uint64(bs[7]), data, nil
}

func readUint32(data []byte) (uint32, []byte, err.Error) {
	bs, data, e := readBytes(4, data)
	if e != nil {
		return 0, data, e
	}
	return uint32(bs[0])<<24 |
		uint32(bs[1])<<16 |
		uint32(bs[2])<<8 |
		uint32(bs[3]), data, nil
}
