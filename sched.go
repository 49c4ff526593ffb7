// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import (
	"fmt"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/kont"
)

const defaultTableCapacity = 16

type schedulerConfig struct {
	store    *Store
	probe    Probe
	capacity int
}

// SchedulerOption configures a scheduler at construction.
type SchedulerOption func(*schedulerConfig)

// WithStore runs the scheduler against an existing store instead of a
// fresh one.
func WithStore(st *Store) SchedulerOption {
	return func(cfg *schedulerConfig) { cfg.store = st }
}

// WithProbe installs a probe receiving task lifecycle hooks. A probe
// that also implements JournalObserver receives scope hooks as well.
func WithProbe(p Probe) SchedulerOption {
	return func(cfg *schedulerConfig) { cfg.probe = p }
}

// WithCapacity pre-sizes the task table.
func WithCapacity(n int) SchedulerOption {
	return func(cfg *schedulerConfig) { cfg.capacity = n }
}

type taskSlot struct {
	gen uint32
	t   *task
}

// Scheduler runs tasks single-threaded and cooperatively: one driving
// goroutine resumes ready tasks round-robin, each until its next
// suspension point. Tasks live in a flat slot table addressed by
// TaskID; settling a task bumps its slot generation.
//
// All scheduler state except the cancellation flags belongs to the
// driving goroutine. Cancel requests arrive from any goroutine through
// the record flags and are folded in between passes.
type Scheduler struct {
	slots []taskSlot
	free  []uint32
	ready *ring[TaskID]

	journal *Journal
	probe   Probe

	driving    atomix.Uint32
	cancelNote atomix.Uint32
	cancelSeen uint32
	depthBase  int
}

// New creates a scheduler with its own journal over the configured
// store.
func New(opts ...SchedulerOption) *Scheduler {
	cfg := schedulerConfig{capacity: defaultTableCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.store == nil {
		cfg.store = NewStore()
	}
	if cfg.probe == nil {
		cfg.probe = nopProbe{}
	}
	s := &Scheduler{
		slots:   make([]taskSlot, 0, cfg.capacity),
		ready:   newRing[TaskID](),
		journal: NewJournal(cfg.store),
		probe:   cfg.probe,
	}
	if obs, ok := cfg.probe.(JournalObserver); ok {
		s.journal.Observe(obs)
	}
	return s
}

// Journal returns the scheduler's transaction journal.
func (s *Scheduler) Journal() *Journal { return s.journal }

// Store returns the store the scheduler's journal runs against.
func (s *Scheduler) Store() *Store { return s.journal.Store() }

// create allocates a task slot for body. A nil parent makes the task
// unstructured: owned by nobody, reachable only through its handle.
func (s *Scheduler) create(body kont.Expr[kont.Erased], parent *task) *task {
	var idx uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		s.slots = append(s.slots, taskSlot{gen: 1})
		idx = uint32(len(s.slots) - 1)
	}
	slot := &s.slots[idx]
	t := &task{
		id:     TaskID{index: idx, gen: slot.gen},
		rec:    &taskRecord{},
		body:   body,
		frames: []frame{{}},
	}
	slot.t = t
	if parent != nil {
		t.parent = parent.id
		t.owned = true
		parent.children = append(parent.children, t.id)
		parent.liveKids++
	}
	s.probe.TaskSpawned(t.id)
	return t
}

// lookup resolves an id to its live task, or nil if the id is stale.
func (s *Scheduler) lookup(id TaskID) *task {
	if !id.Valid() || id.index >= uint32(len(s.slots)) {
		return nil
	}
	slot := &s.slots[id.index]
	if slot.gen != id.gen || slot.t == nil {
		return nil
	}
	return slot.t
}

func (s *Scheduler) freeSlot(id TaskID) {
	slot := &s.slots[id.index]
	slot.t = nil
	slot.gen++
	s.free = append(s.free, id.index)
}

// enqueue queues a task for the next pass. Idempotent per queue stay;
// winding-down and settled tasks never re-queue.
func (s *Scheduler) enqueue(t *task) {
	if t.queued || t.phase == phaseWinddown || t.phase == phaseSettled {
		return
	}
	t.queued = true
	s.ready.enqueue(t.id)
}

// wake resumes a parked task with v on its next step. Only parked
// tasks accept a wake; every other phase already has a pending resume.
// v must be a wakeBox.
func (s *Scheduler) wake(t *task, v kont.Resumed) {
	if t.phase != phaseParked {
		return
	}
	t.wake = v
	t.phase = phaseReady
	s.enqueue(t)
}

// wakeForUnwind re-queues a parked, cancel-flagged task so the step
// entry check unwinds it. The wake value is never delivered.
func (s *Scheduler) wakeForUnwind(t *task) {
	if t.phase != phaseParked {
		return
	}
	t.wake = wakeBox{v: unitValue}
	t.phase = phaseReady
	s.enqueue(t)
}

// selfWakeForUnwind re-queues the currently running task so the next
// pass unwinds it. Parkers call it when they find, mid-park, that the
// task must cancel instead of parking.
func (s *Scheduler) selfWakeForUnwind(t *task) {
	t.wake = wakeBox{v: unitValue}
	t.phase = phaseReady
	s.enqueue(t)
}

// noteCancel records that a cancellation flag was raised off-driver.
func (s *Scheduler) noteCancel() { s.cancelNote.Add(1) }

// sweepCancels folds externally raised cancellation flags into the
// ready queue: parked flagged tasks are re-queued to unwind.
func (s *Scheduler) sweepCancels() {
	seen := s.cancelNote.Add(0)
	if seen == s.cancelSeen {
		return
	}
	s.cancelSeen = seen
	for i := range s.slots {
		t := s.slots[i].t
		if t != nil && t.phase == phaseParked && cancelFlagged(t.rec) {
			s.wakeForUnwind(t)
		}
	}
}

// pass runs one scheduling pass: every task ready at the start of the
// pass gets exactly one step. Tasks queued during the pass wait for
// the next one. Reports whether anything was stepped.
func (s *Scheduler) pass() bool {
	s.sweepCancels()
	n := s.ready.count()
	if n == 0 {
		return false
	}
	for ; n > 0; n-- {
		id, ok := s.ready.dequeue()
		if !ok {
			break
		}
		t := s.lookup(id)
		if t == nil {
			continue
		}
		t.queued = false
		s.stepTask(t)
	}
	return true
}

// stepTask resumes one task and handles its effects until it parks,
// finishes, or unwinds. Cancellation is observed here and only here:
// once at entry, then before every suspension point.
func (s *Scheduler) stepTask(t *task) {
	if t.phase == phaseWinddown || t.phase == phaseSettled {
		return
	}
	if cancelFlagged(t.rec) {
		s.unwind(t)
		return
	}
	t.phase = phaseRunning
	var (
		current kont.Erased
		susp    *kont.Suspension[kont.Erased]
	)
	if !t.started {
		t.started = true
		body := t.body
		t.body = kont.Expr[kont.Erased]{}
		current, susp = kont.StepExpr(body)
	} else {
		resume := t.susp
		wake := t.wake
		t.susp, t.wake = nil, nil
		current, susp = resume.Resume(wake)
	}
	ctx := taskContext{s: s, t: t}
	for {
		if susp == nil {
			s.finish(t, current)
			return
		}
		t.susp = susp
		var (
			v   kont.Resumed
			err error
		)
		switch op := susp.Op().(type) {
		case taskParker:
			if cancelFlagged(t.rec) {
				s.unwind(t)
				return
			}
			if s.journal.Depth() != s.depthBase {
				panic("flow: suspension point inside open journal scope")
			}
			v, err = op.ParkTask(&ctx)
		case taskDispatcher:
			v, err = op.DispatchTask(&ctx)
		default:
			panic(fmt.Sprintf("flow: unhandled effect %T in task step", susp.Op()))
		}
		if err != nil {
			return
		}
		t.susp = nil
		current, susp = susp.Resume(v)
	}
}

// finish lands a task's terminal value on the completion path:
// leftover children are canceled, scopes the body left open are rolled
// back, then finalizers run, then the task winds down Completed.
func (s *Scheduler) finish(t *task, result kont.Erased) {
	s.cancelChildren(t)
	s.journal.rollbackTo(s.depthBase)
	t.unwindFrames()
	t.result = result
	s.winddown(t, StateCompleted)
}

// unwind tears a task down on the cancellation path: the pending
// suspension is discarded, children are canceled, scopes the body left
// open are rolled back, finalizers run, and the task winds down
// Canceled. Idempotent past the terminal step.
func (s *Scheduler) unwind(t *task) {
	if t.phase == phaseWinddown || t.phase == phaseSettled {
		return
	}
	if t.susp != nil {
		t.susp.Discard()
		t.susp = nil
	}
	t.wake = nil
	t.body = kont.Expr[kont.Erased]{}
	s.cancelChildren(t)
	s.journal.rollbackTo(s.depthBase)
	t.unwindFrames()
	s.winddown(t, StateCanceled)
}

func (s *Scheduler) cancelChildren(t *task) {
	for _, id := range t.children {
		c := s.lookup(id)
		if c == nil {
			continue
		}
		raiseCancel(c.rec)
		if c.phase == phaseParked {
			s.wakeForUnwind(c)
		} else {
			s.enqueue(c)
		}
	}
}

// winddown parks the task in its terminal phase until every owned
// child has settled. With no live children it settles at once.
func (s *Scheduler) winddown(t *task, terminal TaskState) {
	t.terminal = terminal
	t.phase = phaseWinddown
	if t.liveKids == 0 {
		s.settle(t)
	}
}

// settle publishes the terminal state, releases waiters, notifies the
// join group, unblocks a winding-down parent, and frees the slot. The
// record stays behind for handles.
func (s *Scheduler) settle(t *task) {
	t.phase = phaseSettled
	if t.terminal == StateCompleted {
		t.rec.result = t.result
	}
	t.rec.state.Add(uint32(t.terminal))
	s.probe.TaskTransition(t.id, StateActive, t.terminal)
	waiters := t.waiters
	t.waiters = nil
	for _, id := range waiters {
		w := s.lookup(id)
		if w == nil {
			continue
		}
		if t.terminal == StateCompleted {
			s.wake(w, wakeBox{v: t.rec.result})
		} else {
			raiseCancel(w.rec)
			s.wakeForUnwind(w)
		}
	}
	if t.group != nil {
		s.groupChildSettled(t)
	}
	if t.owned {
		if p := s.lookup(t.parent); p != nil {
			p.liveKids--
			if p.phase == phaseWinddown && p.liveKids == 0 {
				s.settle(p)
			}
		}
	}
	s.freeSlot(t.id)
}

// acquire claims the driver role for the calling goroutine and
// snapshots the journal depth suspension points are checked against.
func (s *Scheduler) acquire() func() {
	if s.driving.Add(1) != 1 {
		s.driving.Add(^uint32(0))
		panic("flow: scheduler already driving")
	}
	s.depthBase = s.journal.Depth()
	return func() { s.driving.Add(^uint32(0)) }
}

// driveUntil runs passes until rec settles. Panics when every task is
// parked with the target still active: nothing left that could wake
// anything.
func (s *Scheduler) driveUntil(rec *taskRecord) {
	release := s.acquire()
	defer release()
	for stateOf(rec) == StateActive {
		if s.pass() {
			continue
		}
		s.sweepCancels()
		if s.ready.count() == 0 {
			panic("flow: deadlock: every task parked while awaited task is active")
		}
	}
}

// Flush drives the scheduler until no task is ready. Parked tasks stay
// parked; use Await to detect deadlock instead.
func (s *Scheduler) Flush() {
	release := s.acquire()
	defer release()
	for s.pass() {
	}
}

// Pass runs exactly one scheduling pass: every task ready at the call
// gets one step. Reports whether anything was stepped. The incremental
// form of Flush, for callers interleaving scheduling with other work.
func (s *Scheduler) Pass() bool {
	release := s.acquire()
	defer release()
	return s.pass()
}
