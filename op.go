// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// Pre-allocated erased frames and resume values to eliminate heap
// escapes when boxing empty structs during Expr-world construction.
var (
	exprReturnFrame kont.Frame   = kont.ReturnFrame{}
	unitValue       kont.Resumed = Unit{}
)

// identityResume is the identity resume function for EffectFrame construction.
// Named function produces a static function value, consistent with kont convention.
func identityResume(v kont.Erased) kont.Erased { return v }

// wakeBox wraps every value delivered across a park boundary. kont's
// stepping treats a nil resume value as completion with the zero value,
// so nil task results and nil event payloads must arrive boxed.
type wakeBox struct{ v kont.Resumed }

// unboxResume unwraps the wake value delivered to a parked task.
func unboxResume(v kont.Erased) kont.Erased { return v.(wakeBox).v }

// performExpr suspends on an immediate operation and completes with the
// dispatcher's answer. Fuses ExprPerform(op) + ExprReturn.
func performExpr[T any](op kont.Erased) kont.Expr[T] {
	ef := kont.AcquireEffectFrame()
	ef.Operation = op
	ef.Resume = identityResume
	ef.Next = exprReturnFrame
	return kont.ExprSuspend[T](ef)
}

// parkExpr suspends on a parking operation and completes with the
// unboxed wake value. Fuses ExprPerform(op) + ExprReturn.
func parkExpr[T any](op kont.Erased) kont.Expr[T] {
	ef := kont.AcquireEffectFrame()
	ef.Operation = op
	ef.Resume = unboxResume
	ef.Next = exprReturnFrame
	return kont.ExprSuspend[T](ef)
}

// taskContext carries the dispatch target: the scheduler and the task
// whose pending operation is being handled.
type taskContext struct {
	s *Scheduler
	t *task
}

// taskDispatcher handles immediate operations: bookkeeping effects that
// complete without yielding control. Immediate operations are not
// suspension points; the task keeps running in the same slice of its
// scheduling pass and never observes cancellation across one.
type taskDispatcher interface {
	DispatchTask(ctx *taskContext) (kont.Resumed, error)
}

// taskParker handles suspension points. Park either answers immediately
// with a boxed resume value (the condition already holds), or registers
// a wake source and returns iox.ErrWouldBlock with the task parked.
// The scheduler checks cancellation before every Park.
type taskParker interface {
	ParkTask(ctx *taskContext) (kont.Resumed, error)
}

// pauseOp is the explicit reschedule point: the task re-queues behind
// everything already ready and resumes on the next pass.
type pauseOp struct{ kont.Phantom[Unit] }

// ParkTask re-queues the task with a unit wake. Always would-block:
// pausing exists to give every other ready task a turn first.
func (pauseOp) ParkTask(ctx *taskContext) (kont.Resumed, error) {
	ctx.t.wake = wakeBox{v: unitValue}
	ctx.t.phase = phaseReady
	ctx.s.enqueue(ctx.t)
	return nil, iox.ErrWouldBlock
}

// awaitOp parks the caller until target settles. A completed target
// delivers its result; a canceled target cancels the caller instead of
// resuming it.
type awaitOp[V any] struct {
	kont.Phantom[V]
	target Task[V]
}

func (op awaitOp[V]) ParkTask(ctx *taskContext) (kont.Resumed, error) {
	rec := op.target.rec
	if rec == nil {
		panic("flow: await on zero task handle")
	}
	if op.target.s != ctx.s {
		panic("flow: task bound to another scheduler")
	}
	switch stateOf(rec) {
	case StateCompleted:
		return wakeBox{v: rec.result}, nil
	case StateCanceled:
		raiseCancel(ctx.t.rec)
		ctx.s.selfWakeForUnwind(ctx.t)
		return nil, iox.ErrWouldBlock
	}
	target := ctx.s.lookup(op.target.id)
	if target == nil {
		panic("flow: await on invalid task handle")
	}
	if target == ctx.t {
		panic("flow: task awaits itself")
	}
	target.waiters = append(target.waiters, ctx.t.id)
	ctx.t.phase = phaseParked
	return nil, iox.ErrWouldBlock
}

// awaitEventOp parks the caller on the event's FIFO waiter queue.
type awaitEventOp[T any] struct {
	kont.Phantom[T]
	core *eventCore
}

func (op awaitEventOp[T]) ParkTask(ctx *taskContext) (kont.Resumed, error) {
	op.core.bind(ctx.s)
	op.core.waiters.enqueue(ctx.t.id)
	ctx.t.phase = phaseParked
	return nil, iox.ErrWouldBlock
}

// signalOp wakes one parked waiter (FIFO) or, with all set, every task
// parked before the signal. No buffering: with nobody parked the
// payload is dropped.
type signalOp struct {
	kont.Phantom[Unit]
	core    *eventCore
	payload Value
	all     bool
}

func (op signalOp) DispatchTask(ctx *taskContext) (kont.Resumed, error) {
	op.core.bind(ctx.s)
	if op.all {
		op.core.broadcast(ctx.s, op.payload)
	} else {
		op.core.deliver(ctx.s, op.payload)
	}
	return unitValue, nil
}

// deferOp pushes a finalizer onto the current frame. Finalizers are
// plain functions: they cannot perform effects, so they cannot suspend.
type deferOp struct {
	kont.Phantom[Unit]
	fn func()
}

func (op deferOp) DispatchTask(ctx *taskContext) (kont.Resumed, error) {
	if op.fn == nil {
		panic("flow: defer of nil finalizer")
	}
	ctx.t.pushFinalizer(op.fn)
	return unitValue, nil
}

// framePushOp opens a finalizer frame; framePopOp closes the innermost
// one, running its finalizers in reverse registration order. Scoped
// pairs them around a body; unwinding pops whatever remains.
type framePushOp struct{ kont.Phantom[Unit] }

func (framePushOp) DispatchTask(ctx *taskContext) (kont.Resumed, error) {
	ctx.t.pushFrame()
	return unitValue, nil
}

type framePopOp struct{ kont.Phantom[Unit] }

func (framePopOp) DispatchTask(ctx *taskContext) (kont.Resumed, error) {
	ctx.t.popFrame()
	return unitValue, nil
}

// spawnOp registers an independent task. The child is owned by the
// scheduler, not the spawner: it keeps running after the spawner
// settles and is reachable only through the returned handle.
type spawnOp[V any] struct {
	kont.Phantom[Task[V]]
	body kont.Expr[kont.Erased]
}

func (op spawnOp[V]) DispatchTask(ctx *taskContext) (kont.Resumed, error) {
	t := ctx.s.create(op.body, nil)
	ctx.s.enqueue(t)
	return Task[V]{s: ctx.s, id: t.id, rec: t.rec}, nil
}

// branchOp creates one structurally-owned child, resumes it once, and
// returns control to the caller. The child's result is discarded; the
// child is canceled when the owning task settles.
type branchOp struct {
	kont.Phantom[Unit]
	child kont.Expr[kont.Erased]
}

func (op branchOp) DispatchTask(ctx *taskContext) (kont.Resumed, error) {
	c := ctx.s.create(op.child, ctx.t)
	ctx.s.stepTask(c)
	return unitValue, nil
}

// abortOp is the unrecoverable exit: the task unwinds its entire frame
// stack, running finalizers along the way, bypassing all outcome
// handling, and settles Canceled with the abort reason recorded.
type abortOp struct {
	kont.Phantom[Unit]
	reason Value
}

func (op abortOp) DispatchTask(ctx *taskContext) (kont.Resumed, error) {
	ctx.t.rec.aborted = true
	ctx.t.rec.abortReason = op.reason
	raiseCancel(ctx.t.rec)
	ctx.s.unwind(ctx.t)
	return nil, iox.ErrWouldBlock
}

// syncOp parks the caller until all children settle, delivering their
// results in declaration order.
type syncOp struct {
	kont.Phantom[[]kont.Erased]
	children []kont.Expr[kont.Erased]
}

func (op syncOp) ParkTask(ctx *taskContext) (kont.Resumed, error) {
	return ctx.s.launchGroup(ctx.t, groupSync, op.children)
}

// raceOp parks the caller until the first child completes, canceling
// the rest; the winner's value arrives once every child has settled.
type raceOp[V any] struct {
	kont.Phantom[V]
	children []kont.Expr[kont.Erased]
}

func (op raceOp[V]) ParkTask(ctx *taskContext) (kont.Resumed, error) {
	return ctx.s.launchGroup(ctx.t, groupRace, op.children)
}

// rushOp parks the caller until the first child completes. Losers are
// not canceled: they stay owned by the caller and keep running until
// it settles.
type rushOp[V any] struct {
	kont.Phantom[V]
	children []kont.Expr[kont.Erased]
}

func (op rushOp[V]) ParkTask(ctx *taskContext) (kont.Resumed, error) {
	return ctx.s.launchGroup(ctx.t, groupRush, op.children)
}
