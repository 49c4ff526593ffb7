// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import (
	"code.hybscloud.com/kont"
)

// eventCore is the untyped half of an Event: the owning scheduler and
// the FIFO ring of parked waiter ids.
type eventCore struct {
	s       *Scheduler
	waiters *ring[TaskID]
}

func (e *eventCore) bind(s *Scheduler) {
	if e.s != s {
		panic("flow: event bound to another scheduler")
	}
}

// deliver wakes the first waiter still parked, FIFO. A cancel-flagged
// waiter consumes the signal without receiving the payload: delivery
// targeted it, and cancellation wins. Stale entries pass the signal
// on. With nobody parked the payload is dropped.
func (e *eventCore) deliver(s *Scheduler, payload Value) {
	for {
		id, ok := e.waiters.dequeue()
		if !ok {
			return
		}
		t := s.lookup(id)
		if t == nil || t.phase != phaseParked {
			continue
		}
		if cancelFlagged(t.rec) {
			s.wakeForUnwind(t)
			return
		}
		s.wake(t, wakeBox{v: payload})
		return
	}
}

// broadcast delivers to every waiter parked before the signal.
func (e *eventCore) broadcast(s *Scheduler, payload Value) {
	for n := e.waiters.count(); n > 0; n-- {
		id, ok := e.waiters.dequeue()
		if !ok {
			return
		}
		t := s.lookup(id)
		if t == nil || t.phase != phaseParked {
			continue
		}
		if cancelFlagged(t.rec) {
			s.wakeForUnwind(t)
			continue
		}
		s.wake(t, wakeBox{v: payload})
	}
}

// Event is a typed rendezvous point between tasks of one scheduler:
// Await parks, Signal wakes exactly one parked waiter FIFO with the
// payload, SignalAll wakes everyone parked before it. Signals are
// never buffered; with no waiter parked the payload is dropped.
type Event[T any] struct {
	core eventCore
}

// NewEvent creates an event bound to s.
func NewEvent[T any](s *Scheduler) *Event[T] {
	return &Event[T]{core: eventCore{s: s, waiters: newRing[TaskID]()}}
}

// Await parks the calling task until a signal delivers a payload.
func (e *Event[T]) Await() kont.Expr[T] {
	return parkExpr[T](awaitEventOp[T]{core: &e.core})
}

// Signal wakes the longest-parked waiter with v.
func (e *Event[T]) Signal(v T) kont.Expr[Unit] {
	return performExpr[Unit](signalOp{core: &e.core, payload: v})
}

// SignalAll wakes every waiter parked before the signal with v.
func (e *Event[T]) SignalAll(v T) kont.Expr[Unit] {
	return performExpr[Unit](signalOp{core: &e.core, payload: v, all: true})
}
