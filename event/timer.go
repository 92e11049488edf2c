// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package event

import (
	"container/heap"
	"time"

	"tapir.run/tvm/val"
)

type timer struct {
	fire  time.Time
	event string
	args  []val.Value
	seq   uint64 // insertion order breaks fire-time ties
}

type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if !h[i].fire.Equal(h[j].fire) {
		return h[i].fire.Before(h[j].fire)
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x interface{}) {
	*h = append(*h, x.(*timer))
}
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// Registry holds scheduled events ordered by fire time and feeds due
// ones into the event queue when the host advances the clock.
type Registry struct {
	timers timerHeap
	sink   *Manager
	seq    uint64
}

func NewRegistry(sink *Manager) *Registry {
	return &Registry{sink: sink}
}

func (r *Registry) Schedule(fire time.Time, event string, args []val.Value) {
	r.seq++
	heap.Push(&r.timers, &timer{fire, event, args, r.seq})
}

func (r *Registry) Len() int {
	return len(r.timers)
}

// Advance dispatches every timer due at or before now into the event
// queue, in fire-time order, and returns how many fired.
func (r *Registry) Advance(now time.Time) int {
	n := 0
	for len(r.timers) > 0 && !r.timers[0].fire.After(now) {
		t := heap.Pop(&r.timers).(*timer)
		r.sink.Enqueue(t.event, t.args)
		n++
	}
	return n
}
