// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

// Probe observes task lifecycle events on the driver goroutine.
// Install one with WithProbe; a probe that also implements
// JournalObserver receives scope commit and rollback hooks as well.
//
// Probes observe, they never steer: a probe must not call back into
// the scheduler or the journal.
type Probe interface {
	TaskSpawned(id TaskID)
	TaskTransition(id TaskID, from, to TaskState)
}

type nopProbe struct{}

func (nopProbe) TaskSpawned(TaskID)                          {}
func (nopProbe) TaskTransition(TaskID, TaskState, TaskState) {}
