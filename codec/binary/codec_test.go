// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package binary_test

import (
	"net/netip"
	"testing"
	"time"

	"tapir.run/codec/binary"
	"tapir.run/tvm/err"
	"tapir.run/tvm/val"
)

func roundtrip(t *testing.T, v val.Value) val.Value {
	t.Helper()
	w, e := binary.Decode(binary.Encode(v))
	if e != nil {
		t.Fatalf("%v\n", e)
	}
	return w
}

func TestRoundtrip(t *testing.T) {
	p, _ := val.NewPattern("fo+")
	rec := val.NewRecord([]string{"host", "hits", "note"})
	rec.Assign(0, val.Addr{Addr: netip.MustParseAddr("10.0.0.1")})
	rec.Assign(1, val.Count(3))
	// note stays unset

	tbl := val.NewTable(0)
	tbl.Assign(val.String("a"), val.Count(1))
	tbl.Assign(val.List{val.String("b"), val.Count(2)}, nil)

	values := []val.Value{
		val.Bool(true),
		val.Int(-42),
		val.Count(42),
		val.Counter(7),
		val.Double(3.25),
		val.Time{Time: time.Date(2019, 4, 1, 12, 0, 0, 123456789, time.UTC)},
		val.Interval(90 * time.Second),
		val.String("payload"),
		p,
		val.Enum{Name: "tcp", Ord: 1},
		val.Port{Num: 443, Proto: val.ProtoTCP},
		val.Addr{Addr: netip.MustParseAddr("2001:db8::1")},
		val.Subnet{Prefix: netip.MustParsePrefix("192.168.0.0/16")},
		val.Func{Name: "lookup_host"},
		val.List{val.Int(1), nil, val.String("x")},
		rec,
		val.VectorOf(val.Int(1), nil, val.Int(3)),
		tbl,
	}
	for _, v := range values {
		w := roundtrip(t, v)
		if w == nil || !v.Equals(w) {
			t.Fatalf("roundtrip changed %#v into %#v\n", v, w)
		}
	}
}

func TestRoundtripNil(t *testing.T) {
	if w := roundtrip(t, nil); w != nil {
		t.Fatalf("%#v\n", w)
	}
}

func TestRecordUnsetFieldSurvives(t *testing.T) {
	rec := val.NewRecord([]string{"x", "y"})
	rec.Assign(0, val.Int(1))
	out := roundtrip(t, rec).(*val.Record)
	if out.Lookup(0) != val.Int(1) || out.Lookup(1) != nil {
		t.Fatalf("%#v\n", out)
	}
	if out.Name(1) != "y" {
		t.Fatal("unset fields must keep their name")
	}
}

func TestVectorHoleSurvives(t *testing.T) {
	out := roundtrip(t, val.VectorOf(val.Int(1), nil, val.Int(3))).(*val.Vector)
	if out.Len() != 3 || out.Lookup(1) != nil {
		t.Fatalf("%#v\n", out)
	}
}

func TestDecodeTruncatedInput(t *testing.T) {
	enc := binary.Encode(val.String("hello"))
	_, e := binary.Decode(enc[:len(enc)-2])
	if e == nil {
		t.Fatal("truncated input must fail")
	}
	ce, ok := e.(err.CodecError)
	if !ok || ce.Codec != "binary" || ce.Child() == nil {
		t.Fatalf("%#v\n", e)
	}
}

func TestDecodeBadTypeTag(t *testing.T) {
	_, e := binary.Decode([]byte{0xff})
	if e == nil {
		t.Fatal("unknown type specifier must fail")
	}
}

func TestDecodeOversizedLength(t *testing.T) {
	// a string claiming more bytes than remain in the input
	data := []byte{byte(binary.TypeString), 0xff, 0xff, 0xff, 0xff, 'x'}
	_, e := binary.Decode(data)
	if e == nil {
		t.Fatal("length past input bounds must fail")
	}
}
