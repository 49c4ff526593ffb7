// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow_test

import (
	"testing"

	"code.hybscloud.com/flow"
	"code.hybscloud.com/kont"
)

func TestSignalWakesOneWaiterFIFO(t *testing.T) {
	s := flow.New()
	ev := flow.NewEvent[int](s)
	w1 := flow.Spawn(s, ev.Await())
	w2 := flow.Spawn(s, ev.Await())
	s.Flush() // both parked, w1 first

	flow.Run(s, ev.Signal(100))
	s.Flush()
	if v, ok := w1.Await().Get(); !ok || v != 100 {
		t.Fatalf("first waiter got %v, want Succeeded(100)", w1.Await())
	}
	if w2.State() != flow.StateActive {
		t.Fatalf("second waiter state got %v, want %v", w2.State(), flow.StateActive)
	}

	flow.Run(s, ev.Signal(200))
	s.Flush()
	if v, ok := w2.Await().Get(); !ok || v != 200 {
		t.Fatalf("second waiter got %v, want Succeeded(200)", w2.Await())
	}
}

func TestSignalWithoutWaiterIsDropped(t *testing.T) {
	s := flow.New()
	ev := flow.NewEvent[int](s)
	flow.Run(s, ev.Signal(7)) // nobody parked: dropped, not buffered

	w := flow.Spawn(s, ev.Await())
	s.Flush()
	if w.State() != flow.StateActive {
		t.Fatalf("waiter state got %v, want %v: dropped signal must not be replayed", w.State(), flow.StateActive)
	}

	flow.Run(s, ev.Signal(8))
	s.Flush()
	if v, ok := w.Await().Get(); !ok || v != 8 {
		t.Fatalf("waiter got %v, want Succeeded(8)", w.Await())
	}
}

func TestSignalAllWakesOnlyParkedWaiters(t *testing.T) {
	s := flow.New()
	ev := flow.NewEvent[int](s)
	w1 := flow.Spawn(s, ev.Await())
	w2 := flow.Spawn(s, ev.Await())
	w3 := flow.Spawn(s, ev.Await())
	s.Flush() // all three parked

	// The late waiter is queued but not parked when the broadcast runs.
	flow.Spawn(s, ev.SignalAll(5))
	late := flow.Spawn(s, ev.Await())
	s.Flush()

	for i, w := range []flow.Task[int]{w1, w2, w3} {
		if v, ok := w.Await().Get(); !ok || v != 5 {
			t.Fatalf("waiter %d got %v, want Succeeded(5)", i+1, w.Await())
		}
	}
	if late.State() != flow.StateActive {
		t.Fatalf("late waiter state got %v, want %v", late.State(), flow.StateActive)
	}
}

func TestCanceledWaiterConsumesSignal(t *testing.T) {
	// Delivery targeted the canceled waiter, and cancellation wins:
	// the signal is consumed without its payload being delivered, and
	// it is not re-delivered to the next waiter.
	s := flow.New()
	ev := flow.NewEvent[int](s)
	w1 := flow.Spawn(s, ev.Await())
	w2 := flow.Spawn(s, ev.Await())
	s.Flush() // both parked

	// Cancel w1 and signal within the same pass, before the sweep
	// between passes can fold the flag in.
	flow.Spawn(s, flow.Lazy(func() kont.Expr[flow.Unit] {
		w1.Cancel()
		return ev.Signal(9)
	}))
	s.Flush()

	if w1.State() != flow.StateCanceled {
		t.Fatalf("canceled waiter state got %v, want %v", w1.State(), flow.StateCanceled)
	}
	if w2.State() != flow.StateActive {
		t.Fatalf("second waiter state got %v, want %v: consumed signal must not pass on", w2.State(), flow.StateActive)
	}

	flow.Run(s, ev.Signal(10))
	s.Flush()
	if v, ok := w2.Await().Get(); !ok || v != 10 {
		t.Fatalf("second waiter got %v, want Succeeded(10)", w2.Await())
	}
}

func TestStaleWaiterEntryPassesSignalOn(t *testing.T) {
	// A waiter that settled before the signal leaves a stale queue
	// entry behind; delivery skips it and wakes the next waiter.
	s := flow.New()
	ev := flow.NewEvent[int](s)
	w1 := flow.Spawn(s, ev.Await())
	w2 := flow.Spawn(s, ev.Await())
	s.Flush() // both parked

	w1.Cancel()
	s.Flush() // w1 swept and settled; its queue entry is now stale
	if w1.State() != flow.StateCanceled {
		t.Fatalf("first waiter state got %v, want %v", w1.State(), flow.StateCanceled)
	}

	flow.Run(s, ev.Signal(11))
	s.Flush()
	if v, ok := w2.Await().Get(); !ok || v != 11 {
		t.Fatalf("second waiter got %v, want Succeeded(11)", w2.Await())
	}
}

func TestEventBoundToAnotherSchedulerPanics(t *testing.T) {
	s1 := flow.New()
	s2 := flow.New()
	ev := flow.NewEvent[int](s1)
	flow.Spawn(s2, ev.Await())
	mustPanic(t, "flow: event bound to another scheduler", func() { s2.Flush() })
}

func TestEventDeliversTypedPayload(t *testing.T) {
	type msg struct {
		id   int
		body string
	}
	s := flow.New()
	ev := flow.NewEvent[msg](s)
	w := flow.Spawn(s, kont.ExprBind(ev.Await(), func(m msg) kont.Expr[string] {
		return kont.ExprReturn(m.body)
	}))
	s.Flush()

	flow.Run(s, ev.Signal(msg{id: 7, body: "hi"}))
	s.Flush()
	if v, ok := w.Await().Get(); !ok || v != "hi" {
		t.Fatalf("waiter got %v, want Succeeded(hi)", w.Await())
	}
}
