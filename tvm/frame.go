// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package tvm

import (
	"tapir.run/tvm/val"
	"tapir.run/tvm/xpr"
)

// MapFrame is the standard Frame: named slots chained to a parent scope,
// with an optional deferred cache for trigger re-entry.
type MapFrame struct {
	parent *MapFrame
	slots  map[string]val.Value
	memo   DeferredCache
}

func NewFrame(parent *MapFrame) *MapFrame {
	return &MapFrame{parent, make(map[string]val.Value), nil}
}

func (f *MapFrame) Lookup(ident string) val.Value {
	for s := f; s != nil; s = s.parent {
		if v, ok := s.slots[ident]; ok {
			return v
		}
	}
	return nil
}

// Assign writes into the innermost scope that already binds the
// identifier, or creates the binding locally.
func (f *MapFrame) Assign(ident string, v val.Value) {
	for s := f; s != nil; s = s.parent {
		if _, ok := s.slots[ident]; ok {
			s.slots[ident] = v
			return
		}
	}
	f.slots[ident] = v
}

func (f *MapFrame) Deferred() DeferredCache {
	for s := f; s != nil; s = s.parent {
		if s.memo != nil {
			return s.memo
		}
	}
	return nil
}

// SetDeferred installs the trigger cache for this frame and its children.
func (f *MapFrame) SetDeferred(c DeferredCache) {
	f.memo = c
}

// MemoCache is the standard DeferredCache, keyed by node identity.
// Invalidate at the boundary of each top-level statement by dropping it.
type MemoCache struct {
	results map[xpr.Expression]val.Value
}

func NewMemoCache() *MemoCache {
	return &MemoCache{make(map[xpr.Expression]val.Value)}
}

func (c *MemoCache) Lookup(x xpr.Expression) (val.Value, bool) {
	v, ok := c.results[x]
	return v, ok
}

func (c *MemoCache) Store(x xpr.Expression, v val.Value) {
	c.results[x] = v
}
