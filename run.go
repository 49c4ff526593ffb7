// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import (
	"fmt"

	"code.hybscloud.com/kont"
)

// Spawn registers body as an independent task, ready for the next
// pass. The external counterpart of SpawnIn: call it from the driver
// goroutine, not from inside a task. Nothing runs until the scheduler
// is driven.
func Spawn[V any](s *Scheduler, body kont.Expr[V]) Task[V] {
	t := s.create(Erase(body), nil)
	s.enqueue(t)
	return Task[V]{s: s, id: t.id, rec: t.rec}
}

// Run spawns body and drives the scheduler on the calling goroutine
// until it settles, returning its result. A canceled top-level task
// panics: with the abort reason when an abort took it down, plainly
// otherwise. Interleaves every ready task; does not spawn goroutines
// or create channels.
func Run[V any](s *Scheduler, body kont.Expr[V]) V {
	t := Spawn(s, body)
	out := t.Await()
	if v, ok := out.Get(); ok {
		return v
	}
	if t.Aborted() {
		panic(fmt.Sprintf("flow: aborted: %v", t.AbortReason()))
	}
	panic("flow: task canceled")
}
