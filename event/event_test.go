// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package event_test

import (
	"testing"
	"time"

	"tapir.run/event"
	"tapir.run/tvm/val"
)

func TestDrainDispatchesInOrder(t *testing.T) {
	m := event.NewManager()
	got := []string(nil)
	m.Register("a", func(args []val.Value) {
		got = append(got, "a:"+string(args[0].(val.String)))
	})
	m.Register("b", func(args []val.Value) {
		got = append(got, "b")
	})

	m.Enqueue("a", []val.Value{val.String("1")})
	m.Enqueue("b", nil)
	m.Enqueue("a", []val.Value{val.String("2")})

	if !m.Pending() {
		t.Fatal("queue must be pending")
	}
	if n := m.Drain(); n != 3 {
		t.Fatalf("dispatched %d events", n)
	}
	want := []string{"a:1", "b", "a:2"}
	if len(got) != len(want) {
		t.Fatalf("%v\n", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%v\n", got)
		}
	}
	if m.Pending() {
		t.Fatal("drained queue must not be pending")
	}
}

func TestDrainIncludesEventsRaisedDuringDrain(t *testing.T) {
	m := event.NewManager()
	got := []string(nil)
	m.Register("second", func([]val.Value) {
		got = append(got, "second")
	})
	m.Register("first", func([]val.Value) {
		got = append(got, "first")
		m.Enqueue("second", nil)
	})

	m.Enqueue("first", nil)
	if n := m.Drain(); n != 2 {
		t.Fatalf("dispatched %d events", n)
	}
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Fatalf("%v\n", got)
	}
}

func TestEnqueueWithoutHandlerDrops(t *testing.T) {
	m := event.NewManager()
	m.Enqueue("nonesuch", nil)
	if m.Pending() {
		t.Fatal("event without handler must be dropped on enqueue")
	}
	if n := m.Drain(); n != 0 {
		t.Fatalf("dispatched %d events", n)
	}
}

func TestMultipleHandlersPerEvent(t *testing.T) {
	m := event.NewManager()
	calls := 0
	m.Register("x", func([]val.Value) { calls++ })
	m.Register("x", func([]val.Value) { calls++ })
	m.Enqueue("x", nil)
	if n := m.Drain(); n != 1 || calls != 2 {
		t.Fatalf("dispatched %d events to %d handlers", n, calls)
	}
}

func TestRegistryAdvance(t *testing.T) {
	m := event.NewManager()
	got := []string(nil)
	m.Register("t", func(args []val.Value) {
		got = append(got, string(args[0].(val.String)))
	})

	r := event.NewRegistry(m)
	base := time.Date(2019, 4, 1, 12, 0, 0, 0, time.UTC)
	r.Schedule(base.Add(3*time.Second), "t", []val.Value{val.String("late")})
	r.Schedule(base.Add(1*time.Second), "t", []val.Value{val.String("early")})
	r.Schedule(base.Add(5*time.Second), "t", []val.Value{val.String("never")})

	if n := r.Advance(base.Add(3 * time.Second)); n != 2 {
		t.Fatalf("fired %d timers", n)
	}
	if r.Len() != 1 {
		t.Fatalf("%d timers left", r.Len())
	}
	m.Drain()
	if len(got) != 2 || got[0] != "early" || got[1] != "late" {
		t.Fatalf("%v\n", got)
	}
}

func TestRegistryTieBreaksByInsertionOrder(t *testing.T) {
	m := event.NewManager()
	got := []string(nil)
	m.Register("t", func(args []val.Value) {
		got = append(got, string(args[0].(val.String)))
	})

	r := event.NewRegistry(m)
	at := time.Date(2019, 4, 1, 12, 0, 0, 0, time.UTC)
	r.Schedule(at, "t", []val.Value{val.String("one")})
	r.Schedule(at, "t", []val.Value{val.String("two")})
	r.Schedule(at, "t", []val.Value{val.String("three")})

	r.Advance(at)
	m.Drain()
	want := []string{"one", "two", "three"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%v\n", got)
		}
	}
}
