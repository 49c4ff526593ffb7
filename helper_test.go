// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow_test

import (
	"strings"
	"testing"

	"code.hybscloud.com/flow"
	"code.hybscloud.com/kont"
)

// mustPanic runs fn and checks it panics with a string containing want.
func mustPanic(t *testing.T, want string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("no panic, want %q", want)
		}
		msg, ok := r.(string)
		if !ok {
			t.Fatalf("panic %v (%T), want string containing %q", r, r, want)
		}
		if !strings.Contains(msg, want) {
			t.Fatalf("panic %q, want substring %q", msg, want)
		}
	}()
	fn()
}

// pausing returns a body that pauses n times and then completes with v.
func pausing[V any](n int, v V) kont.Expr[V] {
	return flow.Loop(n, func(i int) kont.Expr[kont.Either[int, V]] {
		if i == 0 {
			return kont.ExprReturn(kont.Right[int, V](v))
		}
		return flow.PauseThen(kont.ExprReturn(kont.Left[int, V](i - 1)))
	})
}

// forever returns a body that pauses on every pass and never completes.
func forever() kont.Expr[flow.Unit] {
	return never[flow.Unit]()
}

// never is forever with a caller-chosen result type, for bodies that
// must type-check against a combinator but lose every time.
func never[V any]() kont.Expr[V] {
	return flow.Loop(0, func(int) kont.Expr[kont.Either[int, V]] {
		return flow.PauseThen(kont.ExprReturn(kont.Left[int, V](0)))
	})
}
