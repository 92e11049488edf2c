// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package tvm

import (
	"time"

	"tapir.run/tvm/err"
	"tapir.run/tvm/val"
	"tapir.run/tvm/xpr"
)

// Frame is the evaluation context: identifier slots plus access to the
// deferred-result cache active during asynchronous condition re-entry.
type Frame interface {
	Lookup(ident string) val.Value
	Assign(ident string, v val.Value)
	Deferred() DeferredCache // nil outside trigger re-evaluation
}

// DeferredCache memoizes call results keyed by expression identity, so
// that re-entering an asynchronous condition reuses completed calls
// instead of re-invoking them.
type DeferredCache interface {
	Lookup(x xpr.Expression) (val.Value, bool)
	Store(x xpr.Expression, v val.Value)
}

// Caller is the function-dispatch contract. Validate runs at
// construction time against the argument expressions; built-ins use it
// to enforce their argument shape before any evaluation happens.
type Caller interface {
	Call(fn val.Func, args []val.Value, frame Frame) (val.Value, err.Error)
	Validate(fn val.Func, args []xpr.Expression) err.Error
	IsPure(fn val.Func) bool
}

// EventQueue receives fire-and-forget event invocations.
type EventQueue interface {
	Enqueue(name string, args []val.Value)
}

// TimerRegistry receives scheduled event descriptors.
type TimerRegistry interface {
	Schedule(fire time.Time, event string, args []val.Value)
}

// VM evaluates constructed expression trees. Evaluation is synchronous
// and single-threaded; asynchronous behavior happens by yielding no
// value now and being re-invoked by the host later.
type VM struct {
	Calls  Caller
	Events EventQueue
	Timers TimerRegistry
	Report *err.Reporter
	Now    func() time.Time

	terminating bool
}

// Terminate stops new timers from being registered. In-flight
// evaluation is not interrupted.
func (m *VM) Terminate() {
	m.terminating = true
}

func (m *VM) Terminating() bool {
	return m.terminating
}

func (m *VM) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}
