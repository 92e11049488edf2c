// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package val

import (
	"fmt"
	"strings"
)

type Type uint64

const (
	TypeBool Type = 1 << iota
	TypeInt
	TypeCount
	TypeCounter
	TypeDouble
	TypeTime
	TypeInterval
	TypeString
	TypePattern
	TypeEnum
	TypePort
	TypeAddr
	TypeSubnet
	TypeRecord
	TypeTable
	TypeVector
	TypeList
	TypeFunc
	TypeAny
	TypeVoid
	TypeTimer
	TypeError
	lastType // internal marker
)

const ArithmeticType = TypeInt | TypeCount | TypeCounter | TypeDouble

const IntegralType = TypeInt | TypeCount | TypeCounter

func (t Type) IsArithmetic() bool {
	return t&ArithmeticType != 0 && t&^ArithmeticType == 0
}

func (t Type) IsIntegral() bool {
	return t&IntegralType != 0 && t&^IntegralType == 0
}

func (t Type) String() string {
	if t == 0 {
		return "unknown"
	}
	buf := make([]string, 0, 8)
	for i := Type(0); (Type(1) << i) < lastType; i++ {
		q := (Type(1) << i) & t
		if q != 0 {
			buf = append(buf, typeToString(q))
		}
	}
	return strings.Join(buf, "|")
}

func typeToString(t Type) string {
	switch t {
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
	case TypeRecord:
		return "record"
	case TypeTable:
		return "table"
	case TypeVector:
		return "vector"
	case TypeList:
		return "list"
	case TypeFunc:
		return "func"
	case TypeAny:
		return "any"
	case TypeVoid:
		return "void"
	case TypeTimer:
		return "timer"
	case TypeError:
		return "error"
	}
	panic(fmt.Sprintf("unhandled Type: %b", uint64(t)))
}

func (Bool) Type() Type {
	return TypeBool
}

func (Int) Type() Type {
	return TypeInt
}

func (Count) Type() Type {
	return TypeCount
}

func (Counter) Type() Type {
	return TypeCounter
}

func (Double) Type() Type {
	return TypeDouble
}

func (Time) Type() Type {
	return TypeTime
}

func (Interval) Type() Type {
	return TypeInterval
}

func (String) Type() Type {
	return TypeString
}

func (*Pattern) Type() Type {
	return TypePattern
}

func (Enum) Type() Type {
	return TypeEnum
}

func (Port) Type() Type {
	return TypePort
}

func (Addr) Type() Type {
	return TypeAddr
}

func (Subnet) Type() Type {
	return TypeSubnet
}

func (*Record) Type() Type {
	return TypeRecord
}

func (*Table) Type() Type {
	return TypeTable
}

func (*Vector) Type() Type {
	return TypeVector
}

func (List) Type() Type {
	return TypeList
}

func (Func) Type() Type {
	return TypeFunc
}
