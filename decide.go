// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

// Failure contexts: the single auditable path that ties the Outcome
// model to the Journal. Each context runs a body speculatively inside
// its own scope — commit on success, rollback on failure — so a failed
// attempt leaves no trace in the store.
//
// Context bodies are synchronous. Suspension and failure are mutually
// exclusive effects: a body never parks, awaits, or yields, so a
// context opened during a task step always closes within that step.

// Decide runs body in its own journal scope: a succeeded outcome
// commits the scope, a failed one rolls it back. Either way the
// returned outcome is the body's.
func Decide[V any](j *Journal, body func() Outcome[V]) Outcome[V] {
	scope := j.Open()
	o := body()
	if o.IsSuccess() {
		j.Commit(scope)
	} else {
		j.Rollback(scope)
	}
	return o
}

// Or attempts a speculatively; on success its writes commit and b is
// never evaluated. On failure a's provisional writes are rolled back
// before b begins, then b runs as its own speculation. Both arms are
// scoped: since failure here is a value the caller keeps running with,
// a failed Or must leave the store as it found it.
func Or[V any](j *Journal, a, b func() Outcome[V]) Outcome[V] {
	if o := Decide(j, a); o.IsSuccess() {
		return o
	}
	return Decide(j, b)
}

// Not runs a speculatively and inverts the result. The attempt's scope
// is ALWAYS rolled back, success included: nothing a binds or writes
// escapes a negation. An inverted success carries Unit, not a's value.
func Not[V any](j *Journal, a func() Outcome[V]) Outcome[Unit] {
	scope := j.Open()
	o := a()
	j.Rollback(scope)
	return NotOutcome(o)
}

// All runs checks left to right in one shared scope, short-circuiting
// on the first failure, which rolls back the writes of every check
// before it. All checks succeeding commits them together.
func All(j *Journal, checks ...func() Outcome[Unit]) Outcome[Unit] {
	return Decide(j, func() Outcome[Unit] {
		for _, check := range checks {
			if o := check(); o.IsFailure() {
				return o
			}
		}
		return Succeed(Unit{})
	})
}
