// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package flow provides a speculative, cooperatively scheduled
// execution core via algebraic effects on [code.hybscloud.com/kont]:
// fallible computations with transactional state, and suspendable
// tasks with structured concurrency and guaranteed cleanup.
//
// # Architecture
//
//   - Outcomes: [Outcome] is Succeeded-carrying-a-value or Failed-carrying-nothing.
//     Failure is control flow, not a Go error; it never carries a payload.
//   - Speculation: [Journal] records pre-images of every cell written in a scope;
//     [Decide] commits the scope on success and rolls it back on failure, so a
//     failed computation leaves no trace in the [Store]. Committed state is final.
//   - Tasks: [Spawn], [SpawnIn] register explicit resumable state machines; no
//     goroutines, no stacks. A [Scheduler] resumes ready tasks round-robin on one
//     driving goroutine, each until its next suspension point.
//   - Cancellation: [Task.Cancel] raises a monotonic flag from any goroutine;
//     the task observes it at its next suspension point, unwinds its finalizer
//     frames, and settles Canceled.
//   - Cleanup: [Defer] registers finalizers on the current frame; [Scoped]
//     delimits frames. Finalizers run in reverse registration order, exactly
//     once, on every exit path.
//
// # API Topologies
//
//   - Failure contexts: [Decide], [Or], [Not], [All] over [Outcome]; comparisons
//     [Lt], [Le], [Gt], [Ge], [Eq], [Ne]; option bridging [ToOption], [FromOption].
//   - Task effects: [Pause], [Await], [SpawnIn], [Defer], [Scoped], [Abort],
//     fused variants [PauseThen], [AwaitBind], [SpawnBind], [DeferThen].
//   - Structured concurrency: [Sync], [Race], [Rush], [Branch]; typed joins
//     [Sync2], [Sync3]; rendezvous [Event].
//   - Recursive: [Loop] for trampoline-based iterative computations.
//
// # Integration
//
//   - Driving: [Run] spawns and drives to completion; [Task.Await] drives until
//     one task settles; [Scheduler.Flush] and [Scheduler.Pass] drive incrementally.
//   - Observation: [Task.Wait] polls the published state with adaptive backoff
//     from non-driver goroutines; [Probe] and [Trace] record deterministic
//     scheduling and journal transitions.
//
// # Example
//
//	s := flow.New()
//	t := flow.Spawn(s, kont.ExprReturn(21))
//	n := flow.Run(s, flow.AwaitBind(t, func(n int) kont.Expr[int] {
//		return kont.ExprReturn(n * 2)
//	}))
//	// n == 42
package flow
