// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package err

import (
	"fmt"
)

type Error interface {
	Error() string  // should be proxy to String() (to implement error interface)
	String() string // human readable string
	Child() Error   // may be nil
}

// Location identifies the script source a diagnostic refers to.
type Location struct {
	File string
	Line int
	Col  int
}

func (l Location) String() string {
	if l.File == "" {
		return "(unknown location)"
	}
	if l.Col > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// ExprError is a static (construction-time) type error. It is reported
// once, when the offending node is built, and never again.
type ExprError struct {
	Problem string
	Expr    string // rendering of the offending expression
	Loc     Location
}

var _ Error = ExprError{}

func (e ExprError) Error() string {
	return e.String()
}
func (e ExprError) String() string {
	out := "Expression Error\n"
	out += "================\n"
	out += e.Loc.String() + ": " + e.Problem + "\n"
	if e.Expr != "" {
		out += "in: " + e.Expr + "\n"
	}
	return out
}
func (e ExprError) Child() Error {
	return nil
}

// ExecutionError is a runtime error raised during evaluation. The failing
// subexpression yields no value; the error propagates to the statement level.
type ExecutionError struct {
	Problem   string
	Loc       Location
	CallStack []string // innermost first, may be nil
	Child_    Error
}

var _ Error = ExecutionError{}

func (e ExecutionError) Error() string {
	return e.String()
}
func (e ExecutionError) String() string {
	out := "Execution Error\n"
	out += "===============\n"
	out += e.Loc.String() + ": " + e.Problem + "\n"
	for _, c := range e.CallStack {
		out += "  called from: " + c + "\n"
	}
	if e.Child_ != nil {
		out += e.Child_.String()
	}
	return out
}
func (e ExecutionError) Child() Error {
	return e.Child_
}

// InputParsingError reports malformed encoded input, with the
// remaining undecoded bytes for context.
type InputParsingError struct {
	Problem string
	Input   []byte
}

var _ Error = InputParsingError{}

func (e InputParsingError) Error() string {
	return e.String()
}
func (e InputParsingError) String() string {
	return fmt.Sprintf("input parsing error: %s (%d bytes remaining)", e.Problem, len(e.Input))
}
func (e InputParsingError) Child() Error {
	return nil
}

// CodecError wraps a decode failure with the codec name and the byte
// offset the decoder reached.
type CodecError struct {
	Codec  string
	Offset int
	Child_ Error
}

var _ Error = CodecError{}

func (e CodecError) Error() string {
	return e.String()
}
func (e CodecError) String() string {
	out := fmt.Sprintf("codec error (%s) at offset %d", e.Codec, e.Offset)
	if e.Child_ != nil {
		out += ": " + e.Child_.String()
	}
	return out
}
func (e CodecError) Child() Error {
	return e.Child_
}

type ErrorList []Error

var _ Error = (ErrorList)(nil)

func (l ErrorList) Error() string {
	return l.String()
}
func (l ErrorList) String() string {
	out := ""
	for _, e := range l {
		out += e.String() + "\n"
	}
	return out
}
func (l ErrorList) Child() Error {
	if len(l) == 0 {
		return nil
	}
	return l[0]
}
