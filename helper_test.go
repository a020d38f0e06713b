// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package exio_test

import (
	"sync"

	"code.hybscloud.com/exio"
	"code.hybscloud.com/kont"
)

// fakeIO is an in-test I/O object: an operation stays pending until the
// test fires or aborts it. It exercises the boundary contract the way a
// real I/O object would: store the triple, register one cancellation
// callback, settle with TrySettle, deliver through the dispatcher.
type fakeIO struct {
	mu        sync.Mutex
	c         *exio.Continuation
	d         exio.Dispatcher
	reg       *exio.CancelRegistration
	started   int
	cancelled int
}

type fakeWait struct {
	kont.Phantom[int]
	f *fakeIO
}

// wait returns an awaitable expression completing with the fired value.
func (f *fakeIO) wait() kont.Expr[int] {
	return kont.ExprPerform(f.op())
}

func (f *fakeIO) op() fakeWait { return fakeWait{f: f} }

func (w fakeWait) DispatchAwait(c *exio.Continuation, d exio.Dispatcher, t exio.CancelToken) (exio.Directive, error) {
	f := w.f
	f.mu.Lock()
	f.c, f.d = c, d
	f.started++
	f.mu.Unlock()
	d.Context().OnWorkStarted()
	f.reg = t.OnRequested(func() {
		f.mu.Lock()
		f.cancelled++
		f.mu.Unlock()
		f.abort()
	})
	return exio.Directive{}, nil
}

// fire completes the pending operation with v. Losing the settle race
// against a cancellation stands down without delivering.
func (f *fakeIO) fire(v int) {
	if !f.c.TrySettle(v, nil) {
		return
	}
	f.reg.Stop()
	f.deliver()
}

func (f *fakeIO) abort() {
	if !f.c.TrySettle(0, exio.ErrAborted) {
		return
	}
	f.deliver()
}

func (f *fakeIO) deliver() {
	d := f.d
	if err := d.Dispatch(f.c); err != nil {
		f.c.Discard()
	}
	d.Context().OnWorkFinished()
}

func (f *fakeIO) startedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

func (f *fakeIO) cancelledCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}
