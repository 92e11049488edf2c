// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package xpr

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"tapir.run/tvm/val"
)

// Describe renders a node as readable source-like text for diagnostics.
func Describe(x Expression) string {
	switch x := x.(type) {
	case *Constant:
		return DescribeValue(x.Value)
	case *Name:
		return x.Ident
	case *Ref:
		return Describe(x.Operand)
	case *Unary:
		switch x.Op {
		case OpSize:
			return "|" + Describe(x.Operand) + "|"
		case OpIncr, OpDecr:
			return x.Op.String() + Describe(x.Operand)
		case OpClone:
			return "copy(" + Describe(x.Operand) + ")"
		}
		return x.Op.String() + Describe(x.Operand)
	case *Binary:
		return "(" + Describe(x.Left) + " " + x.Op.String() + " " + Describe(x.Right) + ")"
	case *Cond:
		return "(" + Describe(x.Cond) + " ? " + Describe(x.Then) + " : " + Describe(x.Else) + ")"
	case *Assign:
		return Describe(x.Lhs) + " = " + Describe(x.Rhs)
	case *Index:
		sep := ", "
		if x.Slice {
			sep = ":"
		}
		return Describe(x.Root) + "[" + describeList(x.Args, sep) + "]"
	case *Field:
		return Describe(x.Root) + "$" + x.Name
	case *HasField:
		return Describe(x.Root) + "?$" + x.Name
	case *List:
		return describeList(x.Exprs, ", ")
	case *FieldAssign:
		return "$" + x.Name + " = " + Describe(x.Value)
	case *RecordCtor:
		fs := make([]string, len(x.Fields))
		for i, f := range x.Fields {
			fs[i] = Describe(f)
		}
		return "[" + strings.Join(fs, ", ") + "]"
	case *TableCtor:
		es := make([]string, len(x.Entries))
		for i, e := range x.Entries {
			es[i] = "[" + describeList(e.Index, ", ") + "] = " + Describe(e.Yield)
		}
		return "table(" + strings.Join(es, ", ") + ")"
	case *SetCtor:
		return "set(" + describeList(x.Elems, ", ") + ")"
	case *VectorCtor:
		return "vector(" + describeList(x.Elems, ", ") + ")"
	case *ArithCoerce:
		return "(coerce " + Describe(x.Operand) + " to " + x.To.String() + ")"
	case *RecordCoerce:
		return "(coerce " + Describe(x.Operand) + " to " + x.T.String() + ")"
	case *TableCoerce:
		return "(coerce " + Describe(x.Operand) + " to " + x.T.String() + ")"
	case *VectorCoerce:
		return "(coerce " + Describe(x.Operand) + " to " + x.T.String() + ")"
	case *Is:
		return "(" + Describe(x.Operand) + " is " + x.Target.String() + ")"
	case *Call:
		return Describe(x.Fn) + "(" + describeList(x.Args, ", ") + ")"
	case *Event:
		return "event " + x.Name + "(" + describeList(x.Args, ", ") + ")"
	case *Schedule:
		return "schedule " + Describe(x.When) + " { " + Describe(x.Ev) + " }"
	case *Lambda:
		return "function(" + strings.Join(x.Params, ", ") + ") { … }"
	}
	panic(fmt.Sprintf("unhandled expression: %T", x))
}

func describeList(xs []Expression, sep string) string {
	ss := make([]string, len(xs))
	for i, x := range xs {
		ss[i] = Describe(x)
	}
	return strings.Join(ss, sep)
}

// DescribeValue renders a runtime value for diagnostics.
func DescribeValue(v val.Value) string {
	switch v := v.(type) {
	case nil:
		return "<no value>"
	case val.Bool:
		if v {
			return "T"
		}
		return "F"
	case val.Int:
		return strconv.FormatInt(int64(v), 10)
	case val.Count:
		return strconv.FormatUint(uint64(v), 10)
	case val.Counter:
		return strconv.FormatUint(uint64(v), 10)
	case val.Double:
		return strconv.FormatFloat(float64(v), 'g', -1, 64)
	case val.Time:
		return v.Time.String()
	case val.Interval:
		return time.Duration(v).String()
	case val.String:
		return strconv.Quote(string(v))
	case *val.Pattern:
		return "/" + v.Src + "/"
	case val.Enum:
		return v.Name
	case val.Port:
		return fmt.Sprintf("%d/%v", v.Num, v.Proto)
	case val.Addr:
		return v.Addr.String()
	case val.Subnet:
		return v.Prefix.String()
	case val.Func:
		return v.Name
	case val.List:
		ss := make([]string, len(v))
		for i, w := range v {
			ss[i] = DescribeValue(w)
		}
		return strings.Join(ss, ", ")
	case *val.Record:
		ss := make([]string, v.NumFields())
		for i := range ss {
			ss[i] = "$" + v.Name(i) + "=" + DescribeValue(v.Lookup(i))
		}
		return "[" + strings.Join(ss, ", ") + "]"
	case *val.Vector:
		ss := make([]string, v.Len())
		for i := range ss {
			ss[i] = DescribeValue(v.Lookup(i))
		}
		return "[" + strings.Join(ss, ", ") + "]"
	case *val.Table:
		ss := []string(nil)
		v.ForEach(func(index, yield val.Value) bool {
			s := DescribeValue(index)
			if yield != nil {
				s += " -> " + DescribeValue(yield)
			}
			ss = append(ss, s)
			return true
		})
		return "{" + strings.Join(ss, ", ") + "}"
	}
	panic(fmt.Sprintf("unhandled value: %T", v))
}
