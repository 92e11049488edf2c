// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package event

import (
	"log"

	"tapir.run/tvm/val"
)

// Handler consumes the argument values of one raised event.
type Handler func(args []val.Value)

type queued struct {
	name string
	args []val.Value
}

// Manager is the in-process event queue. Raising an event is fire and
// forget; delivery happens later, FIFO, when the host drains the queue.
// Everything runs on the evaluation thread.
type Manager struct {
	handlers map[string][]Handler
	queue    []queued
	pending  bool
}

func NewManager() *Manager {
	return &Manager{handlers: make(map[string][]Handler)}
}

func (m *Manager) Register(name string, h Handler) {
	m.handlers[name] = append(m.handlers[name], h)
}

// Enqueue queues one event invocation. Events without any registered
// handler are dropped silently, matching fire-and-forget semantics.
func (m *Manager) Enqueue(name string, args []val.Value) {
	if len(m.handlers[name]) == 0 {
		return
	}
	m.queue = append(m.queue, queued{name, args})
	m.pending = true
}

// Pending reports whether a drain would dispatch anything.
func (m *Manager) Pending() bool {
	return m.pending
}

// Drain dispatches queued events in order until the queue is empty,
// including events raised by handlers during the drain. It returns the
// number of dispatched events.
func (m *Manager) Drain() int {
	n := 0
	for len(m.queue) > 0 {
		q := m.queue[0]
		m.queue = m.queue[1:]
		hs := m.handlers[q.name]
		if len(hs) == 0 {
			log.Println("dropping event without handler:", q.name)
			continue
		}
		for _, h := range hs {
			h(q.args)
		}
		n++
	}
	m.pending = false
	return n
}
