// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import (
	"code.hybscloud.com/kont"
)

// Pre-allocated erased operations shared by every use site. The ops
// are empty structs; boxing them once keeps construction allocation-free.
var (
	exprPause     kont.Erased = pauseOp{}
	exprFramePush kont.Erased = framePushOp{}
	exprFramePop  kont.Erased = framePopOp{}
)

// Pause yields the processor: the task re-queues behind every other
// ready task and resumes on the next pass. A suspension point.
func Pause() kont.Expr[Unit] {
	return parkExpr[Unit](exprPause)
}

// PauseThen pauses and then continues with next.
// Fuses Pause + ExprThen.
func PauseThen[B any](next kont.Expr[B]) kont.Expr[B] {
	tf := kont.AcquireThenFrame()
	tf.Second = kont.Expr[kont.Erased]{Value: kont.Erased(next.Value), Frame: next.Frame}
	tf.Next = exprReturnFrame
	ef := kont.AcquireEffectFrame()
	ef.Operation = exprPause
	ef.Resume = unboxResume
	ef.Next = tf
	return kont.ExprSuspend[B](ef)
}

// Defer registers a finalizer on the current frame. Finalizers run in
// reverse registration order when the frame exits, on every exit path:
// completion, cancellation, abort. They are plain functions and cannot
// suspend. An immediate effect, not a suspension point.
func Defer(fn func()) kont.Expr[Unit] {
	return performExpr[Unit](deferOp{fn: fn})
}

// DeferThen registers a finalizer and continues with next.
// Fuses Defer + ExprThen.
func DeferThen[B any](fn func(), next kont.Expr[B]) kont.Expr[B] {
	tf := kont.AcquireThenFrame()
	tf.Second = kont.Expr[kont.Erased]{Value: kont.Erased(next.Value), Frame: next.Frame}
	tf.Next = exprReturnFrame
	ef := kont.AcquireEffectFrame()
	ef.Operation = deferOp{fn: fn}
	ef.Resume = identityResume
	ef.Next = tf
	return kont.ExprSuspend[B](ef)
}

// Await parks the calling task until t settles. A completed t resumes
// the caller with t's result; a canceled t cancels the caller. A
// suspension point; awaiting an already settled task still checks
// cancellation but resumes in the same step.
func Await[V any](t Task[V]) kont.Expr[V] {
	return parkExpr[V](awaitOp[V]{target: t})
}

func awaitBindUnwind[V, B any](data, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	f := data.(func(V) kont.Expr[B])
	result := f(asResult[V](current))
	return kont.Erased(result.Value), result.Frame
}

// AwaitBind awaits t and passes its result to f.
// Fuses Await + ExprBind.
func AwaitBind[V, B any](t Task[V], f func(V) kont.Expr[B]) kont.Expr[B] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = f
	bf.Unwind = awaitBindUnwind[V, B]
	ef := kont.AcquireEffectFrame()
	ef.Operation = awaitOp[V]{target: t}
	ef.Resume = unboxResume
	ef.Next = bf
	return kont.ExprSuspend[B](ef)
}

// SpawnIn registers body as an independent task from inside a task.
// The child is owned by the scheduler, not the spawner: it keeps
// running after the spawner settles and is reachable only through the
// returned handle. An immediate effect; the child starts on the next
// pass.
func SpawnIn[V any](body kont.Expr[V]) kont.Expr[Task[V]] {
	return performExpr[Task[V]](spawnOp[V]{body: Erase(body)})
}

func spawnBindUnwind[V, B any](data, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	f := data.(func(Task[V]) kont.Expr[B])
	result := f(current.(Task[V]))
	return kont.Erased(result.Value), result.Frame
}

// SpawnBind spawns body and passes its handle to f.
// Fuses SpawnIn + ExprBind.
func SpawnBind[V, B any](body kont.Expr[V], f func(Task[V]) kont.Expr[B]) kont.Expr[B] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = f
	bf.Unwind = spawnBindUnwind[V, B]
	ef := kont.AcquireEffectFrame()
	ef.Operation = spawnOp[V]{body: Erase(body)}
	ef.Resume = identityResume
	ef.Next = bf
	return kont.ExprSuspend[B](ef)
}

// Abort terminates the whole task unrecoverably: the pending
// continuation is discarded, every live frame's finalizers run, and
// the task settles Canceled with reason recorded on its handle. No
// outcome handling observes an abort. At top level Run repanics with
// the reason.
func Abort(reason Value) kont.Expr[Unit] {
	return performExpr[Unit](abortOp{reason: reason})
}

// Scoped delimits a finalizer frame around body: the frame opens
// before body runs and closes on every exit, running its finalizers in
// reverse registration order exactly once. Cancellation and abort pop
// whatever frames remain, innermost first.
func Scoped[V any](body kont.Expr[V]) kont.Expr[V] {
	return kont.ExprThen(
		performExpr[Unit](exprFramePush),
		kont.ExprBind(body, closeScope[V]),
	)
}

func closeScope[V any](v V) kont.Expr[V] {
	return kont.ExprThen(performExpr[Unit](exprFramePop), kont.ExprReturn(v))
}

// Lazy defers constructing a computation until execution reaches it.
// Recursive definitions use it to avoid building their whole frame
// chain up front.
func Lazy[B any](f func() kont.Expr[B]) kont.Expr[B] {
	bf := kont.AcquireBindFrame()
	bf.F = func(kont.Erased) kont.Expr[kont.Erased] {
		m := f()
		return kont.Expr[kont.Erased]{Value: kont.Erased(m.Value), Frame: m.Frame}
	}
	bf.Next = exprReturnFrame
	var zero B
	return kont.Expr[B]{Value: zero, Frame: bf}
}
