// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// ringCapacity is the initial bounded capacity for scheduler queues.
// 4 keeps a fresh ring buffer within a single cache line; rings double
// when full, so the constant only prices the first growth.
const ringCapacity = 4

// ring is a FIFO queue over a bounded lock-free SPSC ring buffer that
// grows instead of rejecting when full. Both ends are operated from the
// driver goroutine, which satisfies the single-producer single-consumer
// contract trivially.
type ring[T any] struct {
	q    *lfq.SPSC[T]
	size int
	n    int
	slot T
}

func newRing[T any]() *ring[T] {
	r := &ring[T]{size: ringCapacity}
	r.q = new(lfq.SPSC[T])
	r.q.Init(ringCapacity)
	return r
}

// count returns the number of queued elements.
func (r *ring[T]) count() int { return r.n }

// enqueue appends v, doubling the ring when full.
func (r *ring[T]) enqueue(v T) {
	r.slot = v
	if err := r.q.Enqueue(&r.slot); err != nil {
		if !iox.IsWouldBlock(err) {
			panic("flow: ring enqueue: " + err.Error())
		}
		r.grow()
		r.slot = v
		if err := r.q.Enqueue(&r.slot); err != nil {
			panic("flow: ring enqueue after grow: " + err.Error())
		}
	}
	r.n++
}

// dequeue removes and returns the oldest element.
func (r *ring[T]) dequeue() (T, bool) {
	v, err := r.q.Dequeue()
	if err != nil {
		var zero T
		return zero, false
	}
	r.n--
	return v, true
}

// grow drains the full ring into one with twice the capacity. Safe on
// the driver goroutine: no concurrent producer or consumer exists.
func (r *ring[T]) grow() {
	bigger := new(lfq.SPSC[T])
	bigger.Init(r.size * 2)
	for {
		v, err := r.q.Dequeue()
		if err != nil {
			break
		}
		r.slot = v
		if err := bigger.Enqueue(&r.slot); err != nil {
			panic("flow: ring grow: " + err.Error())
		}
	}
	r.q = bigger
	r.size *= 2
}
