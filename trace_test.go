// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow_test

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"

	"code.hybscloud.com/flow"
	"code.hybscloud.com/kont"
)

var update = flag.Bool("update", false, "rewrite golden trace fixtures")

// traceFixture drives a program that touches every trace hook: a
// failed speculation rolls back, then a race commits in one child and
// cancels the other.
func traceFixture(t *testing.T, tr *flow.Trace) {
	t.Helper()
	s := flow.New(flow.WithProbe(tr))
	r0 := s.Store().Alloc(0)
	j := s.Journal()

	body := flow.Lazy(func() kont.Expr[int] {
		flow.Decide(j, func() flow.Outcome[int] {
			j.Set(r0, 1)
			return flow.Fail[int]()
		})
		return flow.Race(
			flow.Lazy(func() kont.Expr[int] {
				flow.Decide(j, func() flow.Outcome[int] {
					j.Set(r0, 2)
					return flow.Succeed(2)
				})
				return kont.ExprReturn(1)
			}),
			never[int](),
		)
	})
	if got := flow.Run(s, body); got != 1 {
		t.Fatalf("fixture result got %d, want 1", got)
	}
}

// TestTraceMatchesGolden pins the fixture's full event log against
// testdata/trace_race.yaml. Run with -update to rewrite the fixture
// from current behavior.
func TestTraceMatchesGolden(t *testing.T) {
	tr := flow.NewTrace()
	traceFixture(t, tr)

	golden := filepath.Join("testdata", "trace_race.yaml")
	if *update {
		dump, err := tr.Dump()
		if err != nil {
			t.Fatalf("dump: %v", err)
		}
		if err := os.WriteFile(golden, dump, 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}

	raw, err := os.ReadFile(golden)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	var want []flow.TraceEvent
	if err := yaml.Unmarshal(raw, &want); err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	if got := tr.Events(); !reflect.DeepEqual(got, want) {
		t.Fatalf("trace diverged from fixture\ngot:  %+v\nwant: %+v", got, want)
	}
}

// TestTraceDeterministicAcrossRuns proves the fixture dumps
// byte-identical traces on fresh schedulers, and again after Reset.
func TestTraceDeterministicAcrossRuns(t *testing.T) {
	tr1 := flow.NewTrace()
	traceFixture(t, tr1)
	dump1, err := tr1.Dump()
	if err != nil {
		t.Fatalf("dump: %v", err)
	}

	tr2 := flow.NewTrace()
	traceFixture(t, tr2)
	dump2, err := tr2.Dump()
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !bytes.Equal(dump1, dump2) {
		t.Fatalf("fresh runs diverged\nfirst:\n%s\nsecond:\n%s", dump1, dump2)
	}

	tr2.Reset()
	if tr2.Len() != 0 {
		t.Fatalf("events after reset got %d, want 0", tr2.Len())
	}
	traceFixture(t, tr2)
	dump3, err := tr2.Dump()
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !bytes.Equal(dump1, dump3) {
		t.Fatalf("rerun after reset diverged\nfirst:\n%s\nrerun:\n%s", dump1, dump3)
	}
}
