// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package exio

import (
	"code.hybscloud.com/iox"
)

// Context run-loop lifecycle. Blocking variants wait past empty-queue
// boundaries using adaptive backoff (iox.Backoff), without spawning
// goroutines or creating channels.

// PollOne runs at most one ready continuation without blocking.
// Reports whether one ran. Returns false when the context is stopped,
// the queue is empty, or another caller holds the active slot.
func (ctx *Context) PollOne() bool {
	if ctx.Stopped() {
		return false
	}
	if !ctx.tryAcquire() {
		return false
	}
	c, err := ctx.dequeue()
	if err != nil {
		ctx.release()
		return false
	}
	ctx.drive(Directive{next: c})
	return true
}

// Poll runs ready continuations without blocking until none remain.
// Returns the number executed, counting one per ready-queue entry
// (inline symmetric-transfer chains count as part of their entry).
func (ctx *Context) Poll() int {
	n := 0
	for ctx.PollOne() {
		n++
	}
	return n
}

// RunOne blocks until one continuation runs, no work remains, or the
// context is stopped. Reports whether one ran.
func (ctx *Context) RunOne() bool {
	var bo iox.Backoff
	for {
		if ctx.Stopped() {
			return false
		}
		if ctx.PollOne() {
			return true
		}
		if ctx.idle() {
			return false
		}
		bo.Wait()
	}
}

// Run processes continuations until the context is stopped or until no
// work remains: the ready queue is empty and the work counter — pending
// launches and in-flight asynchronous operations — is zero. Returns the
// number of ready-queue entries executed.
func (ctx *Context) Run() int {
	n := 0
	var bo iox.Backoff
	for {
		if ctx.Stopped() {
			return n
		}
		if k := ctx.Poll(); k > 0 {
			n += k
			bo.Reset()
			continue
		}
		if ctx.idle() {
			return n
		}
		bo.Wait()
	}
}

// idle reports run-until-idle termination: no tracked work and nothing
// queued.
func (ctx *Context) idle() bool {
	return ctx.work.Load() == 0 && ctx.Queued() == 0
}
