// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import "fmt"

// Unit is the empty result type used by effects and checks that
// succeed without producing a value.
type Unit = struct{}

// Outcome is the result of a fallible computation: Succeeded carrying a
// value, or Failed carrying nothing. Failure is a control-flow signal,
// not an error value; it has no payload, no message, and no code, and it
// never converts to a Go error.
//
// The zero value is Failed.
type Outcome[V any] struct {
	value V
	ok    bool
}

// Succeed returns a succeeded outcome carrying v.
func Succeed[V any](v V) Outcome[V] {
	return Outcome[V]{value: v, ok: true}
}

// Fail returns the failed outcome. It carries no payload.
func Fail[V any]() Outcome[V] {
	return Outcome[V]{}
}

// IsSuccess reports whether the outcome succeeded.
func (o Outcome[V]) IsSuccess() bool { return o.ok }

// IsFailure reports whether the outcome failed.
func (o Outcome[V]) IsFailure() bool { return !o.ok }

// Get returns the carried value and whether the outcome succeeded.
func (o Outcome[V]) Get() (V, bool) { return o.value, o.ok }

// Must returns the carried value, panicking on a failed outcome.
func (o Outcome[V]) Must() V {
	if !o.ok {
		panic("flow: Must on failed outcome")
	}
	return o.value
}

// String renders "Succeeded(v)" or "Failed".
func (o Outcome[V]) String() string {
	if o.ok {
		return fmt.Sprintf("Succeeded(%v)", o.value)
	}
	return "Failed"
}

// outcomeTag marks every Outcome instantiation so async entry points can
// reject deciding computations at construction time.
func (Outcome[V]) outcomeTag() {}

type outcomeMarker interface{ outcomeTag() }

// rejectDeciding panics when V is itself an Outcome type. Failure
// contexts are synchronous: an outcome is consumed where it runs and
// never crosses a suspension point, so a task body must not settle to
// one. Tasks settle Completed or Canceled, never "failed".
func rejectDeciding[V any]() {
	var zero V
	if _, ok := any(zero).(outcomeMarker); ok {
		panic("flow: deciding computation crosses an async boundary")
	}
}

// MatchOutcome eliminates an outcome into R by case.
func MatchOutcome[V, R any](o Outcome[V], onSuccess func(V) R, onFailure func() R) R {
	if o.ok {
		return onSuccess(o.value)
	}
	return onFailure()
}

// MapOutcome applies f to the carried value of a succeeded outcome.
// Failure passes through untouched.
func MapOutcome[V, W any](o Outcome[V], f func(V) W) Outcome[W] {
	if !o.ok {
		return Fail[W]()
	}
	return Succeed(f(o.value))
}

// AndThen sequences two fallible steps: f runs only when o succeeded,
// and a failed o short-circuits. This is the value-level "and"; the
// speculative, journal-backed form is All.
func AndThen[V, W any](o Outcome[V], f func(V) Outcome[W]) Outcome[W] {
	if !o.ok {
		return Fail[W]()
	}
	return f(o.value)
}

// OrElse returns o when it succeeded and otherwise evaluates alt.
// alt is not evaluated on success. This is the value-level "or": it
// assumes the failed attempt left no provisional writes behind. When
// the attempt mutates journaled storage, use Journal-backed Or, which
// rolls the first arm back before the second starts.
func OrElse[V any](o Outcome[V], alt func() Outcome[V]) Outcome[V] {
	if o.ok {
		return o
	}
	return alt()
}

// NotOutcome inverts success and failure. The carried value is dropped:
// an inverted success yields Unit, so nothing bound inside the attempt
// escapes it. The journal-backed form is Not, which also rolls back the
// attempt's writes.
func NotOutcome[V any](o Outcome[V]) Outcome[Unit] {
	if o.ok {
		return Fail[Unit]()
	}
	return Succeed(Unit{})
}
