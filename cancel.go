// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package exio

import (
	"sync"
	"sync/atomic"
	"time"
)

// cancelState is the shared stop flag: a monotonic requested counter and
// an observer list. The flag only ever transitions one way; the Request
// winner drains the observer list exactly once.
type cancelState struct {
	requested atomic.Uint32

	mu        sync.Mutex
	seq       uint64
	observers map[uint64]func()
}

// CancelSource owns a cancellation signal. It is created at the root of
// a launch; tokens derived from it are distributed down the chain.
type CancelSource struct {
	s *cancelState
}

// NewCancelSource creates an unrequested cancellation source.
func NewCancelSource() *CancelSource {
	return &CancelSource{s: &cancelState{}}
}

// Request transitions the source to the requested state. Idempotent:
// repeated requests are no-ops, and observers fire at most once per
// registration. Requesting does not synchronously abort anything; it
// only triggers the registered best-effort cancel callbacks, whose
// results are observed later through the normal completion channel.
func (cs *CancelSource) Request() {
	s := cs.s
	if s.requested.Add(1) != 1 {
		return
	}
	s.mu.Lock()
	obs := s.observers
	s.observers = nil
	s.mu.Unlock()
	for _, f := range obs {
		f()
	}
}

// Requested reports whether Request has been called.
func (cs *CancelSource) Requested() bool {
	return cs.s.requested.Load() != 0
}

// Token returns a read-only view of the source's state.
func (cs *CancelSource) Token() CancelToken {
	return CancelToken{s: cs.s}
}

// CancelToken is a read-only view of a cancellation source. Tokens are
// copied down the chain; they never mutate state, only observe it and
// register callbacks. The zero token is never cancelled.
type CancelToken struct {
	s *cancelState
}

// Requested reports whether cancellation has been requested.
func (t CancelToken) Requested() bool {
	return t.s != nil && t.s.requested.Load() != 0
}

// OnRequested registers f to run when cancellation is requested.
// If the source is already requested, f runs immediately, still at most
// once. The returned registration is never nil; Stop deregisters it.
func (t CancelToken) OnRequested(f func()) *CancelRegistration {
	if t.s == nil {
		return &CancelRegistration{}
	}
	s := t.s
	s.mu.Lock()
	if s.requested.Load() != 0 {
		s.mu.Unlock()
		f()
		return &CancelRegistration{}
	}
	s.seq++
	id := s.seq
	if s.observers == nil {
		s.observers = make(map[uint64]func())
	}
	s.observers[id] = f
	s.mu.Unlock()
	return &CancelRegistration{s: s, id: id}
}

// CancelRegistration is the handle for one OnRequested observer.
// I/O objects hold at most one live registration per pending operation
// and stop it when the operation completes naturally.
type CancelRegistration struct {
	s  *cancelState
	id uint64
}

// Stop deregisters the observer. Reports whether the callback was still
// pending (true means it will never fire).
func (r *CancelRegistration) Stop() bool {
	if r.s == nil {
		return false
	}
	r.s.mu.Lock()
	_, pending := r.s.observers[r.id]
	if pending {
		delete(r.s.observers, r.id)
	}
	r.s.mu.Unlock()
	r.s = nil
	return pending
}

// CancelAfter schedules Request on cs after d: a timeout is simply a
// deferred cancellation request layered on the same token mechanism.
// Stop the returned timer to withdraw an unexpired timeout.
func CancelAfter(cs *CancelSource, d time.Duration) *time.Timer {
	return time.AfterFunc(d, cs.Request)
}
