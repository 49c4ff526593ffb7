// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow_test

import (
	"testing"

	"code.hybscloud.com/flow"
	"code.hybscloud.com/kont"
)

func TestPauseThenContinues(t *testing.T) {
	s := flow.New()
	got := flow.Run(s, flow.PauseThen(kont.ExprReturn(5)))
	if got != 5 {
		t.Fatalf("got %d, want 5", got)
	}
}

func TestDeferThenRunsFinalizerAfterBody(t *testing.T) {
	s := flow.New()
	var log []string
	got := flow.Run(s, flow.DeferThen(func() { log = append(log, "final") },
		flow.Lazy(func() kont.Expr[int] {
			log = append(log, "body")
			return kont.ExprReturn(3)
		})))
	if got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
	if len(log) != 2 || log[0] != "body" || log[1] != "final" {
		t.Fatalf("order got %v, want [body final]", log)
	}
}

func TestDeferNilFinalizerPanics(t *testing.T) {
	s := flow.New()
	flow.Spawn(s, flow.Defer(nil))
	mustPanic(t, "flow: defer of nil finalizer", func() { s.Flush() })
}

func TestScopedClosesFrameBeforeContinuation(t *testing.T) {
	s := flow.New()
	var log []string
	scoped := flow.Scoped(flow.DeferThen(func() { log = append(log, "inner") },
		flow.Lazy(func() kont.Expr[int] {
			log = append(log, "body")
			return kont.ExprReturn(1)
		})))
	got := flow.Run(s, kont.ExprBind(scoped, func(v int) kont.Expr[int] {
		log = append(log, "after")
		return kont.ExprReturn(v)
	}))
	if got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
	want := []string{"body", "inner", "after"}
	for i := range want {
		if i >= len(log) || log[i] != want[i] {
			t.Fatalf("order got %v, want %v", log, want)
		}
	}
}

func TestScopedNestedClosesInnermostFirst(t *testing.T) {
	s := flow.New()
	var log []string
	inner := flow.Scoped(flow.DeferThen(func() { log = append(log, "b") },
		kont.ExprReturn(flow.Unit{})))
	outer := flow.Scoped(flow.DeferThen(func() { log = append(log, "a") },
		kont.ExprThen(inner, flow.Lazy(func() kont.Expr[int] {
			log = append(log, "mid")
			return kont.ExprReturn(1)
		}))))

	flow.Run(s, outer)
	want := "b mid a"
	got := ""
	for i, e := range log {
		if i > 0 {
			got += " "
		}
		got += e
	}
	if got != want {
		t.Fatalf("order got %q, want %q", got, want)
	}
}

func TestUnwindPopsRemainingFrames(t *testing.T) {
	// Cancellation pops every open frame, innermost first.
	s := flow.New()
	ev := flow.NewEvent[flow.Unit](s)
	var log []string
	body := flow.Scoped(flow.DeferThen(func() { log = append(log, "outer") },
		flow.Scoped(flow.DeferThen(func() { log = append(log, "inner") },
			ev.Await()))))

	tk := flow.Spawn(s, body)
	s.Flush() // parked on the event inside both scopes
	tk.Cancel()
	s.Flush()

	if tk.State() != flow.StateCanceled {
		t.Fatalf("state got %v, want %v", tk.State(), flow.StateCanceled)
	}
	if len(log) != 2 || log[0] != "inner" || log[1] != "outer" {
		t.Fatalf("order got %v, want [inner outer]", log)
	}
}

func TestAwaitBindChains(t *testing.T) {
	s := flow.New()
	p := flow.Spawn(s, pausing(2, 10))
	got := flow.Run(s, flow.AwaitBind(p, func(v int) kont.Expr[int] {
		return kont.ExprReturn(v + 1)
	}))
	if got != 11 {
		t.Fatalf("got %d, want 11", got)
	}
}

func TestAwaitSettledResumesInSameStep(t *testing.T) {
	s := flow.New()
	p := flow.Spawn(s, pausing(1, 10))
	if v, ok := p.Await().Get(); !ok || v != 10 {
		t.Fatalf("producer got %v, want Succeeded(10)", p.Await())
	}

	// The target settled long ago: the await answers inline and the
	// consumer finishes within a single pass.
	c := flow.Spawn(s, flow.AwaitBind(p, func(v int) kont.Expr[int] {
		return kont.ExprReturn(v * 3)
	}))
	s.Pass()
	if !c.Settled() {
		t.Fatal("consumer did not settle in one pass")
	}
	if v, ok := c.Await().Get(); !ok || v != 30 {
		t.Fatalf("consumer got %v, want Succeeded(30)", c.Await())
	}
}

func TestSpawnBindPassesHandle(t *testing.T) {
	s := flow.New()
	got := flow.Run(s, flow.SpawnBind(pausing(1, 3), func(c flow.Task[int]) kont.Expr[int] {
		return flow.AwaitBind(c, func(v int) kont.Expr[int] {
			return kont.ExprReturn(v * 10)
		})
	}))
	if got != 30 {
		t.Fatalf("got %d, want 30", got)
	}
}

func TestSpawnedTaskOutlivesSpawner(t *testing.T) {
	// SpawnIn creates an independent task: the spawner settling does
	// not cancel it.
	s := flow.New()
	var child flow.Task[int]
	parent := flow.Spawn(s, flow.SpawnBind(pausing(3, 77), func(c flow.Task[int]) kont.Expr[string] {
		child = c
		return kont.ExprReturn("parent-done")
	}))

	if v, ok := parent.Await().Get(); !ok || v != "parent-done" {
		t.Fatalf("parent got %v, want Succeeded(parent-done)", parent.Await())
	}
	if v, ok := child.Await().Get(); !ok || v != 77 {
		t.Fatalf("child got %v, want Succeeded(77)", child.Await())
	}
}

func TestLazyDefersConstruction(t *testing.T) {
	s := flow.New()
	built := false
	body := flow.Lazy(func() kont.Expr[int] {
		built = true
		return kont.ExprReturn(1)
	})
	if built {
		t.Fatal("thunk ran at construction")
	}
	if got := flow.Run(s, body); got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
	if !built {
		t.Fatal("thunk never ran")
	}
}
