// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import (
	"fmt"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// TaskState is the public lifecycle of a task. A task is Active from
// creation until it settles, exactly once, to Completed or Canceled.
type TaskState uint32

const (
	StateActive TaskState = iota
	StateCompleted
	StateCanceled
)

// String renders the state name.
func (st TaskState) String() string {
	switch st {
	case StateActive:
		return "Active"
	case StateCompleted:
		return "Completed"
	case StateCanceled:
		return "Canceled"
	}
	return fmt.Sprintf("TaskState(%d)", uint32(st))
}

// Terminal reports whether the state is Completed or Canceled.
func (st TaskState) Terminal() bool { return st != StateActive }

// TaskID identifies a task slot: table index plus generation. Settling
// bumps the slot generation, so a stale id never resolves to a task
// that reused the slot.
//
// The zero TaskID is invalid.
type TaskID struct {
	index uint32
	gen   uint32
}

// Valid reports whether the id was issued by a scheduler.
func (id TaskID) Valid() bool { return id.gen != 0 }

// String renders "t<index>.<generation>".
func (id TaskID) String() string { return fmt.Sprintf("t%d.%d", id.index, id.gen) }

// taskRecord is the part of a task that outlives its table slot.
// Handles hold the record, so state queries and cached results stay
// answerable after the slot is reclaimed.
//
// state and cancelRequested are atomix counters written through Add
// only: state moves once, from zero (Active) to the terminal value, on
// the driver goroutine; Add(0) reads either field from any goroutine.
// result, aborted, and abortReason are written by the driver before the
// state transition publishes them.
type taskRecord struct {
	state           atomix.Uint32
	cancelRequested atomix.Uint32
	result          Value
	aborted         bool
	abortReason     Value
}

func stateOf(rec *taskRecord) TaskState { return TaskState(rec.state.Add(0)) }

// raiseCancel raises the monotonic cancellation flag. Never cleared;
// raising it again is a no-op in effect.
func raiseCancel(rec *taskRecord) { rec.cancelRequested.Add(1) }

func cancelFlagged(rec *taskRecord) bool { return rec.cancelRequested.Add(0) != 0 }

// phase is the driver-private run state of a live task. The public
// TaskState collapses every phase before settling into Active.
type phase uint8

const (
	phaseReady    phase = iota // queued for the next resume
	phaseRunning               // being stepped right now
	phaseParked                // suspension pending, waiting for a wake
	phaseWinddown              // terminal step done, waiting on children
	phaseSettled
)

// frame is one finalizer frame: functions registered by Defer, run in
// reverse registration order when the frame exits.
type frame struct {
	fns []func()
}

// task is the explicit resumable state machine behind one computation:
// either the not-yet-started body or the pending suspension, plus the
// wake value that whatever unparked it delivered. No goroutine, no
// stack; parking stores the suspension, resuming invokes it.
type task struct {
	id  TaskID
	rec *taskRecord

	body    kont.Expr[kont.Erased]
	started bool
	susp    *kont.Suspension[kont.Erased]
	wake    kont.Resumed
	queued  bool
	phase   phase

	parent   TaskID
	owned    bool
	children []TaskID
	liveKids int

	group      *joinGroup
	groupIndex int

	frames  []frame
	waiters []TaskID

	result   Value
	terminal TaskState
}

func (t *task) pushFrame() { t.frames = append(t.frames, frame{}) }

func (t *task) pushFinalizer(fn func()) {
	f := &t.frames[len(t.frames)-1]
	f.fns = append(f.fns, fn)
}

// popFrame closes the innermost frame, running its finalizers in
// reverse registration order. The root frame only closes at settle.
func (t *task) popFrame() {
	n := len(t.frames)
	if n <= 1 {
		panic("flow: frame pop without matching push")
	}
	fns := t.frames[n-1].fns
	t.frames = t.frames[:n-1]
	runFinalizers(fns)
}

// unwindFrames runs every remaining frame's finalizers, innermost
// frame first. Frames are discarded as they run, so each finalizer
// runs exactly once on any exit path.
func (t *task) unwindFrames() {
	frames := t.frames
	t.frames = nil
	for i := len(frames) - 1; i >= 0; i-- {
		runFinalizers(frames[i].fns)
	}
}

func runFinalizers(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

// Task is a weak, typed handle to a spawned task. It never extends the
// task's lifetime and never resurrects it: scheduling identity is the
// id, and once the task settles the handle answers from its cached
// record.
//
// Cancel, State, Settled, and Wait are safe from any goroutine. Await
// drives the scheduler and so belongs to the driver goroutine.
//
// The zero Task is invalid; methods on it panic.
type Task[V any] struct {
	s   *Scheduler
	id  TaskID
	rec *taskRecord
}

func (t Task[V]) record() *taskRecord {
	if t.rec == nil {
		panic("flow: zero task handle")
	}
	return t.rec
}

// ID returns the task's scheduling identity.
func (t Task[V]) ID() TaskID { return t.id }

// State returns the task's current public state.
func (t Task[V]) State() TaskState { return stateOf(t.record()) }

// Settled reports whether the task has reached a terminal state.
func (t Task[V]) Settled() bool { return t.State().Terminal() }

// Cancel requests cancellation: a monotonic flag the task observes at
// its next suspension point. Idempotent; a no-op on settled tasks.
func (t Task[V]) Cancel() {
	raiseCancel(t.record())
	t.s.noteCancel()
}

// Aborted reports whether the task was terminated by Abort.
// Meaningful once the task has settled.
func (t Task[V]) Aborted() bool {
	return t.record().aborted
}

// AbortReason returns the value passed to Abort, or nil.
// Meaningful once the task has settled.
func (t Task[V]) AbortReason() Value {
	return t.record().abortReason
}

// Await drives the scheduler on the calling goroutine until the task
// settles: Succeeded(result) for a completed task, Failed for a
// canceled one. Awaiting a settled task returns the cached outcome
// without running anything. Panics on deadlock: no runnable task while
// the target is still active.
//
// Inside a task body use the Await effect instead.
func (t Task[V]) Await() Outcome[V] {
	t.s.driveUntil(t.record())
	return t.outcome()
}

// Wait blocks until the task settles, without driving the scheduler:
// an adaptive-backoff poll of the published state, for observer
// goroutines watching a scheduler driven elsewhere.
func (t Task[V]) Wait() Outcome[V] {
	rec := t.record()
	var bo iox.Backoff
	for stateOf(rec) == StateActive {
		bo.Wait()
	}
	return t.outcome()
}

func (t Task[V]) outcome() Outcome[V] {
	if stateOf(t.rec) != StateCompleted {
		return Fail[V]()
	}
	if v, ok := t.rec.result.(V); ok {
		return Succeed(v)
	}
	var zero V
	return Succeed(zero)
}
