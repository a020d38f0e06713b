// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package exio

import (
	"sync/atomic"
)

// Directive is the symmetric-transfer result of scheduling a resumption.
// Completing code returns a Directive instead of invoking the next
// continuation recursively; the driving loop tail-calls it, so a chain
// of inline resumptions runs in constant stack space.
//
// The zero Directive means nothing further to run on this slice.
type Directive struct {
	next *Continuation
}

// Next returns the continuation to tail-call, or nil.
func (d Directive) Next() *Continuation { return d.next }

// Continuation is an opaque one-shot resumption handle: "who to resume
// next". It supports exactly two capabilities — resumption and identity
// comparison (pointer equality).
//
// The continuation carries no payload at handshake time. A completer
// binds the outcome with Settle or TrySettle, then hands the
// continuation to a Dispatcher. Resumption is affine: a second Resume
// panics, kont-style.
type Continuation struct {
	used    atomic.Uint32
	settled atomic.Uint32
	val     any
	err     error
	home    Dispatcher
	owner   any
	fn      func(val any, err error) Directive
}

func newContinuation(owner any, home Dispatcher, fn func(any, error) Directive) *Continuation {
	return &Continuation{owner: owner, home: home, fn: fn}
}

// NewContinuation wraps a plain handler as a one-shot continuation homed
// on d, for application work submitted through Dispatch or Post outside
// any suspension chain. The handler observes no operation outcome and
// schedules nothing further on its slice.
func NewContinuation(d Dispatcher, fn func()) *Continuation {
	return newContinuation(nil, d, func(any, error) Directive {
		fn()
		return Directive{}
	})
}

// Owner returns the identity of the frame or adapter this continuation
// resumes. It exists for identity comparison only.
func (c *Continuation) Owner() any { return c.owner }

// TrySettle binds the operation outcome. The first settle wins; the
// loser must not dispatch the continuation. This is the explicit
// either/or resolution of a cancellation racing a natural completion.
func (c *Continuation) TrySettle(v any, err error) bool {
	if c.settled.Add(1) != 1 {
		return false
	}
	c.val, c.err = v, err
	return true
}

// Settle binds the operation outcome. Settling twice is a protocol
// violation; completers that may race cancellation use TrySettle.
func (c *Continuation) Settle(v any, err error) {
	if !c.TrySettle(v, err) {
		protocolViolation("continuation settled twice")
	}
}

// Resume consumes the continuation and returns the next directive.
// Only scheduling machinery calls Resume; everything else delivers
// continuations through a Dispatcher. Panics on reuse.
func (c *Continuation) Resume() Directive {
	if c.used.Add(1) != 1 {
		protocolViolation("continuation resumed twice")
	}
	fn := c.fn
	c.fn = nil
	return fn(c.val, c.err)
}

// Discard marks the continuation consumed without resuming it.
func (c *Continuation) Discard() {
	c.used.Store(1)
	c.fn = nil
}

// Dispatcher is an opaque, copyable handle controlling where a
// resumption runs. Copies compare equal when they target the same
// serialization domain (Go interface equality).
//
// Implementations in this package: the value handle returned by
// (*Context).Dispatcher, and *Strand.
type Dispatcher interface {
	// Dispatch runs c inline iff no other work is currently active under
	// this dispatcher's serialization domain; otherwise it behaves
	// identically to Post. The inline path performs zero queue
	// insertions and never fails except via panics propagated from the
	// continuation itself.
	Dispatch(c *Continuation) error

	// Post always enqueues: c never begins running before Post returns.
	// Correctness-critical under held locks and for detached-launch
	// completion delivery. Fails with ErrUnavailable when the context is
	// stopped or its bounded ready queue is full.
	Post(c *Continuation) error

	// Transfer returns the symmetric-transfer directive for c. Only the
	// actively running unit of this dispatcher's domain may call it; the
	// directive must be tail-called before control leaves the slice.
	Transfer(c *Continuation) Directive

	// Context returns the execution context this dispatcher targets.
	Context() *Context
}

// contextDispatcher is the plain value handle onto a Context.
// Copies are cheap and compare equal per target context.
type contextDispatcher struct {
	ctx *Context
}

func (d contextDispatcher) Dispatch(c *Continuation) error {
	if d.ctx.tryAcquire() {
		d.ctx.drive(Directive{next: c})
		return nil
	}
	return d.ctx.enqueue(c)
}

func (d contextDispatcher) Post(c *Continuation) error {
	return d.ctx.enqueue(c)
}

func (d contextDispatcher) Transfer(c *Continuation) Directive {
	return Directive{next: c}
}

func (d contextDispatcher) Context() *Context { return d.ctx }
