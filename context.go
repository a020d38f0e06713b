// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package exio

import (
	"sync"
	"sync/atomic"

	"code.hybscloud.com/iox"
	"github.com/eapache/queue"
	"golang.org/x/sys/cpu"
)

// Context is an execution context: the single serialization domain a
// dispatcher targets. Within one Context at most one suspendable unit is
// actively running at any instant; Run/Poll callers and inline Dispatch
// contend for the same active slot.
//
// The Context also owns the allocation window (CurrentAllocator) and the
// work-tracking counter that gives Run its run-until-idle semantics.
type Context struct {
	// running is the active slot: 1 while a unit runs under this domain.
	running atomic.Uint32
	_       cpu.CacheLinePad

	// stopped is the lifecycle flag: Stop sets it, Restart clears it.
	stopped atomic.Uint32
	// work counts outstanding asynchronous operations and launches.
	work atomic.Uint32
	_    cpu.CacheLinePad

	mu     sync.Mutex
	readyQ *queue.Queue
	cap    int

	// window is the allocation window: the allocator observed by units
	// constructed during the currently active slice. Mutated only by the
	// actively running unit of this domain.
	window Allocator
}

// ContextOption configures a Context at construction.
type ContextOption func(*Context)

// WithQueueCapacity bounds the ready queue. Post fails with
// ErrUnavailable once n continuations are pending. Zero means unbounded.
func WithQueueCapacity(n int) ContextOption {
	return func(ctx *Context) { ctx.cap = n }
}

// NewContext creates an execution context with an empty ready queue.
func NewContext(opts ...ContextOption) *Context {
	ctx := &Context{readyQ: queue.New()}
	for _, opt := range opts {
		opt(ctx)
	}
	return ctx
}

// Dispatcher returns a lightweight handle onto ctx. All copies compare
// equal.
func (ctx *Context) Dispatcher() Dispatcher {
	return contextDispatcher{ctx: ctx}
}

// OnWorkStarted records one outstanding unit of work. Paired with
// OnWorkFinished, it keeps Run from returning while asynchronous
// operations are pending outside the ready queue.
func (ctx *Context) OnWorkStarted() {
	ctx.work.Add(1)
}

// OnWorkFinished balances a prior OnWorkStarted.
func (ctx *Context) OnWorkFinished() {
	ctx.work.Add(^uint32(0))
}

// Stop makes the context refuse further work: Post fails with
// ErrUnavailable and Run/Poll return without executing more handlers.
func (ctx *Context) Stop() {
	ctx.stopped.Store(1)
}

// Stopped reports whether Stop has been called without a later Restart.
func (ctx *Context) Stopped() bool {
	return ctx.stopped.Load() != 0
}

// Restart clears the stopped state so the context can be run again.
func (ctx *Context) Restart() {
	ctx.stopped.Store(0)
}

// Queued returns the number of continuations pending in the ready queue.
func (ctx *Context) Queued() int {
	ctx.mu.Lock()
	n := ctx.readyQ.Length()
	ctx.mu.Unlock()
	return n
}

// CurrentAllocator returns the allocation window value: the allocator a
// unit constructed right now would receive. Outside any active slice it
// is DefaultAllocator.
func (ctx *Context) CurrentAllocator() Allocator {
	if ctx.window == nil {
		return DefaultAllocator
	}
	return ctx.window
}

// SetAllocator sets the allocation window. Only the actively running
// unit of this domain may call it; each unit sets the window to its own
// allocator on every resumption, before any body code runs.
func (ctx *Context) SetAllocator(a Allocator) {
	ctx.window = a
}

// enqueue appends c to the ready queue.
// Non-blocking; ErrUnavailable when stopped or over capacity.
func (ctx *Context) enqueue(c *Continuation) error {
	if ctx.Stopped() {
		return ErrUnavailable
	}
	ctx.mu.Lock()
	if ctx.cap > 0 && ctx.readyQ.Length() >= ctx.cap {
		ctx.mu.Unlock()
		return ErrUnavailable
	}
	ctx.readyQ.Add(c)
	ctx.mu.Unlock()
	return nil
}

// dequeue removes the oldest ready continuation.
// Returns iox.ErrWouldBlock when the queue is empty.
func (ctx *Context) dequeue() (*Continuation, error) {
	ctx.mu.Lock()
	if ctx.readyQ.Length() == 0 {
		ctx.mu.Unlock()
		return nil, iox.ErrWouldBlock
	}
	c := ctx.readyQ.Remove().(*Continuation)
	ctx.mu.Unlock()
	return c, nil
}

// tryAcquire claims the active slot: "no other work is active under this
// serialization domain".
func (ctx *Context) tryAcquire() bool {
	return ctx.running.CompareAndSwap(0, 1)
}

func (ctx *Context) release() {
	ctx.running.Store(0)
}

// drive tail-calls the directive chain to exhaustion, then releases the
// active slot. The caller must hold the slot. Iterative: a chain of
// inline resumptions of any length runs in constant stack space.
func (ctx *Context) drive(d Directive) {
	defer func() {
		// The slice is over: the window belongs to no unit now.
		ctx.window = nil
		ctx.release()
	}()
	for d.next != nil {
		c := d.next
		d = c.Resume()
	}
}
