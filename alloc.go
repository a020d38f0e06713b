// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package exio

import (
	"sync"

	"code.hybscloud.com/lfq"
)

// Allocator provides storage for unit frames. The handle at the root of
// a launch outlives the whole chain: frames release back to the
// allocator they were acquired from, after their continuation has been
// notified.
//
// Resolution precedence for a new unit: an explicit allocator at the
// launch boundary or on the invoking operation, then the inherited
// allocation window, then DefaultAllocator. There is no later-bound
// source; storage is resolved before the unit's body begins.
type Allocator interface {
	// AcquireFrame returns a zeroed frame or fails with
	// ErrAllocExhausted. A denial fails the invocation before any body
	// code runs.
	AcquireFrame() (*Frame, error)

	// ReleaseFrame returns a finalized frame to the allocator.
	ReleaseFrame(fr *Frame)
}

// DefaultAllocator is the process-wide frame allocator used when neither
// a launch option nor the allocation window supplies one.
var DefaultAllocator Allocator = &PoolAllocator{}

// PoolAllocator is the unbounded default: frames come from a sync.Pool
// and acquisition never fails. The zero value is ready to use.
type PoolAllocator struct {
	pool sync.Pool
}

func (a *PoolAllocator) AcquireFrame() (*Frame, error) {
	if v := a.pool.Get(); v != nil {
		return v.(*Frame), nil
	}
	return new(Frame), nil
}

func (a *PoolAllocator) ReleaseFrame(fr *Frame) {
	fr.reset()
	a.pool.Put(fr)
}

// ArenaAllocator is a bounded allocator: n frames allocated up front,
// recycled through a lock-free free ring. Acquisition fails with
// ErrAllocExhausted once all frames are live.
//
// Acquire and release both happen on the owning chain's thread of
// execution — one unit actively running at a time — so the SPSC ring
// runs within its single-producer single-consumer discipline.
type ArenaAllocator struct {
	frames []Frame
	free   lfq.SPSC[any]
}

// NewArenaAllocator creates an arena holding n frames.
func NewArenaAllocator(n int) *ArenaAllocator {
	a := &ArenaAllocator{frames: make([]Frame, n)}
	a.free.Init(ringCapacity(n))
	for i := range a.frames {
		slot := any(&a.frames[i])
		if err := a.free.Enqueue(&slot); err != nil {
			protocolViolation("arena free ring smaller than frame count")
		}
	}
	return a
}

// Cap returns the arena's frame capacity.
func (a *ArenaAllocator) Cap() int { return len(a.frames) }

func (a *ArenaAllocator) AcquireFrame() (*Frame, error) {
	v, err := a.free.Dequeue()
	if err != nil {
		return nil, ErrAllocExhausted
	}
	return v.(*Frame), nil
}

func (a *ArenaAllocator) ReleaseFrame(fr *Frame) {
	fr.reset()
	slot := any(fr)
	if err := a.free.Enqueue(&slot); err != nil {
		protocolViolation("frame released to a full arena")
	}
}

// ringCapacity rounds n up to a power of two so the free ring can hold
// every frame regardless of the ring's internal sizing. Floored at 2,
// the smallest capacity lfq accepts.
func ringCapacity(n int) int {
	c := 2
	for c < n {
		c <<= 1
	}
	return c
}
