// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package exio

import (
	"sync"
	"time"

	"code.hybscloud.com/kont"
)

// Timer is the reference I/O object: it owns a context binding, turns a
// suspension into a native asynchronous call (a std time.AfterFunc), and
// exercises the full boundary contract — store the triple, register one
// cancellation callback, initiate, and on completion settle and dispatch.
type Timer struct {
	ctx *Context
}

// NewTimer creates a timer bound to ctx. Completions dispatch on ctx
// regardless of the awaiting unit's own dispatcher — the intrinsic
// binding of the awaitable handshake.
func NewTimer(ctx *Context) *Timer {
	return &Timer{ctx: ctx}
}

// Context returns the owning execution context.
func (t *Timer) Context() *Context { return t.ctx }

// After returns an awaitable that completes with the fire time after d
// elapses. Cancellation aborts the wait: the pending operation completes
// with ErrAborted through the normal completion path.
func (t *Timer) After(d time.Duration) kont.Expr[time.Time] {
	return kont.ExprPerform(timerWait{t: t, d: d})
}

// timerWait is the timer's awaitable operation.
type timerWait struct {
	kont.Phantom[time.Time]
	t *Timer
	d time.Duration
}

func (w timerWait) AwaitContext() *Context { return w.t.ctx }

// DispatchAwait implements the I/O-object side of the handshake.
// Order matters: continuation stored, cancellation callback registered,
// then the native call initiated. Completion and cancellation race
// through TrySettle; whichever settles first delivers the continuation,
// the loser stands down.
func (w timerWait) DispatchAwait(c *Continuation, d Dispatcher, t CancelToken) (Directive, error) {
	ctx := w.t.ctx
	ctx.OnWorkStarted()

	p := &timerPending{c: c, d: d, ctx: ctx}
	p.reg = t.OnRequested(p.cancel)
	if !p.done() {
		p.mu.Lock()
		p.native = time.AfterFunc(w.d, p.fire)
		p.mu.Unlock()
	}
	return Directive{}, nil
}

// timerPending is the per-operation state of one in-flight wait.
type timerPending struct {
	c   *Continuation
	d   Dispatcher
	ctx *Context
	reg *CancelRegistration

	mu     sync.Mutex
	native *time.Timer
}

// fire is the native completion path.
func (p *timerPending) fire() {
	if !p.c.TrySettle(time.Now(), nil) {
		return
	}
	p.reg.Stop()
	p.deliver()
}

// cancel is the cancellation callback: at most one per pending
// operation. It stops the native timer best-effort; if the natural
// completion is already in flight, that completion wins.
func (p *timerPending) cancel() {
	p.mu.Lock()
	native := p.native
	p.mu.Unlock()
	if native != nil && !native.Stop() {
		return
	}
	if !p.c.TrySettle(time.Time{}, ErrAborted) {
		return
	}
	p.deliver()
}

// done reports whether the operation settled before the native call was
// initiated (a token already requested at registration time).
func (p *timerPending) done() bool {
	return p.c.settled.Load() != 0
}

func (p *timerPending) deliver() {
	if err := p.d.Dispatch(p.c); err != nil {
		p.c.Discard()
	}
	p.ctx.OnWorkFinished()
}
