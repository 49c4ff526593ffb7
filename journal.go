// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

// Scope identifies one open journal scope. Scopes form a stack: each
// Open pushes a child of the currently-innermost scope, and only the
// innermost scope may be committed or rolled back.
//
// The zero Scope is invalid.
type Scope struct {
	serial Serial
}

// undoEntry records the value a cell held before its first write in a
// scope. Later writes to the same cell in the same scope record
// nothing; the oldest value wins.
type undoEntry struct {
	ref  Ref
	prev Value
}

type scopeFrame struct {
	id      Scope
	entries []undoEntry
	seen    map[Ref]struct{}
}

func (f *scopeFrame) records(ref Ref) bool {
	_, ok := f.seen[ref]
	return ok
}

func (f *scopeFrame) record(ref Ref, prev Value) {
	if f.seen == nil {
		f.seen = make(map[Ref]struct{})
	}
	f.seen[ref] = struct{}{}
	f.entries = append(f.entries, undoEntry{ref: ref, prev: prev})
}

// JournalObserver receives commit and rollback notifications together
// with the refs the closed scope touched. This is the integration point
// for reactive invalidation: the journal reports what changed or was
// restored, and never schedules anything itself.
type JournalObserver interface {
	ScopeCommitted(scope Scope, touched []Ref)
	ScopeRolledBack(scope Scope, touched []Ref)
}

// Journal tracks provisional writes to one Store as a stack of scopes,
// so that a failed speculation can restore every cell it touched.
//
// The write discipline is single-path: every mutation while any scope
// is open must go through Set, which records the cell's pre-image in
// the innermost scope before writing through. Scopes close strictly
// LIFO; closing out of order is a programming error and panics.
//
// A committed scope merges its undo log into the parent scope, so the
// parent's rollback still covers everything the child wrote. Committing
// the outermost scope discards the log: committed state is final and is
// never rolled back afterwards.
type Journal struct {
	store    *Store
	scopes   []scopeFrame
	observer JournalObserver
}

// NewJournal returns a journal guarding store.
func NewJournal(store *Store) *Journal {
	return &Journal{store: store}
}

// Store returns the guarded store.
func (j *Journal) Store() *Store { return j.store }

// Observe attaches obs to commit and rollback notifications.
// A nil obs detaches.
func (j *Journal) Observe(obs JournalObserver) { j.observer = obs }

// Depth returns the number of open scopes.
func (j *Journal) Depth() int { return len(j.scopes) }

// Open pushes a new innermost scope and returns its handle.
func (j *Journal) Open() Scope {
	id := Scope{serial: nextScopeSerial()}
	j.scopes = append(j.scopes, scopeFrame{id: id})
	return id
}

// Get returns the current value of the cell at ref.
func (j *Journal) Get(ref Ref) Value { return j.store.Get(ref) }

// Set writes v to the cell at ref. With a scope open, the cell's
// current value is recorded in the innermost scope first, so a later
// rollback restores it; only the first write per cell per scope
// records. With no scope open the write is direct and unjournaled.
func (j *Journal) Set(ref Ref, v Value) {
	if n := len(j.scopes); n > 0 {
		inner := &j.scopes[n-1]
		if !inner.records(ref) {
			inner.record(ref, j.store.Get(ref))
		}
	}
	j.store.set(ref, v)
}

// Commit closes scope, keeping its writes. Its undo entries merge into
// the parent scope, except entries for cells the parent already
// records, whose older pre-images win. Committing the outermost scope
// discards the undo log. Returns the refs the scope touched, in
// first-write order.
func (j *Journal) Commit(scope Scope) []Ref {
	frame := j.pop(scope, "commit")
	touched := touchedRefs(frame.entries)
	if n := len(j.scopes); n > 0 {
		parent := &j.scopes[n-1]
		for _, e := range frame.entries {
			if !parent.records(e.ref) {
				parent.record(e.ref, e.prev)
			}
		}
	}
	if j.observer != nil {
		j.observer.ScopeCommitted(scope, touched)
	}
	return touched
}

// Rollback closes scope, restoring every cell it touched to its
// pre-image, in reverse recording order. Returns the touched refs in
// first-write order. Rolling back a scope with no writes restores
// nothing.
func (j *Journal) Rollback(scope Scope) []Ref {
	frame := j.pop(scope, "rollback")
	touched := touchedRefs(frame.entries)
	for i := len(frame.entries) - 1; i >= 0; i-- {
		e := frame.entries[i]
		j.store.set(e.ref, e.prev)
	}
	if j.observer != nil {
		j.observer.ScopeRolledBack(scope, touched)
	}
	return touched
}

// rollbackTo closes scopes innermost-first until at most depth remain,
// rolling each back. Task teardown reconciles scopes a dying body left
// open: an undecided speculation is abandoned, never committed.
func (j *Journal) rollbackTo(depth int) {
	for len(j.scopes) > depth {
		j.Rollback(j.scopes[len(j.scopes)-1].id)
	}
}

func (j *Journal) pop(scope Scope, op string) scopeFrame {
	n := len(j.scopes)
	if n == 0 {
		panic("flow: " + op + " with no open scope")
	}
	frame := j.scopes[n-1]
	if frame.id != scope {
		panic("flow: " + op + " of non-innermost scope")
	}
	j.scopes = j.scopes[:n-1]
	return frame
}

func touchedRefs(entries []undoEntry) []Ref {
	if len(entries) == 0 {
		return nil
	}
	touched := make([]Ref, len(entries))
	for i, e := range entries {
		touched[i] = e.ref
	}
	return touched
}
