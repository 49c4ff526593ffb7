// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// TraceEvent is one recorded scheduler or journal transition.
type TraceEvent struct {
	Seq   int      `yaml:"seq"`
	Kind  string   `yaml:"kind"`
	Task  string   `yaml:"task,omitempty"`
	Scope string   `yaml:"scope,omitempty"`
	Refs  []string `yaml:"refs,omitempty"`
	From  string   `yaml:"from,omitempty"`
	To    string   `yaml:"to,omitempty"`
}

// Trace is a Probe and JournalObserver that records every event in
// order. Scheduling is deterministic, so the same program produces the
// same trace on every run; tests pin behavior against YAML fixtures.
//
// Scope serials are process-global and vary run to run; the trace
// renames scopes s1, s2, ... in order of first appearance. Task ids
// and cell indices are per-scheduler and recorded as they are.
//
// Driver-goroutine only, like the hooks that feed it.
type Trace struct {
	events []TraceEvent
	scopes map[Serial]int
}

// NewTrace returns an empty trace.
func NewTrace() *Trace {
	return &Trace{scopes: make(map[Serial]int)}
}

// TaskSpawned implements Probe.
func (tr *Trace) TaskSpawned(id TaskID) {
	tr.add(TraceEvent{Kind: "spawn", Task: id.String()})
}

// TaskTransition implements Probe.
func (tr *Trace) TaskTransition(id TaskID, from, to TaskState) {
	tr.add(TraceEvent{Kind: "transition", Task: id.String(), From: from.String(), To: to.String()})
}

// ScopeCommitted implements JournalObserver.
func (tr *Trace) ScopeCommitted(scope Scope, touched []Ref) {
	tr.add(TraceEvent{Kind: "commit", Scope: tr.scopeName(scope), Refs: refNames(touched)})
}

// ScopeRolledBack implements JournalObserver.
func (tr *Trace) ScopeRolledBack(scope Scope, touched []Ref) {
	tr.add(TraceEvent{Kind: "rollback", Scope: tr.scopeName(scope), Refs: refNames(touched)})
}

func (tr *Trace) add(ev TraceEvent) {
	ev.Seq = len(tr.events)
	tr.events = append(tr.events, ev)
}

func (tr *Trace) scopeName(scope Scope) string {
	n, ok := tr.scopes[scope.serial]
	if !ok {
		n = len(tr.scopes) + 1
		tr.scopes[scope.serial] = n
	}
	return fmt.Sprintf("s%d", n)
}

func refNames(refs []Ref) []string {
	if len(refs) == 0 {
		return nil
	}
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = fmt.Sprintf("r%d", r.index)
	}
	return out
}

// Events returns the recorded log.
func (tr *Trace) Events() []TraceEvent { return tr.events }

// Len returns the number of recorded events.
func (tr *Trace) Len() int { return len(tr.events) }

// Reset clears the log and the scope renaming table.
func (tr *Trace) Reset() {
	tr.events = nil
	tr.scopes = make(map[Serial]int)
}

// Dump marshals the log as YAML, one document listing every event.
func (tr *Trace) Dump() ([]byte, error) {
	return yaml.Marshal(tr.events)
}
