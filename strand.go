// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package exio

import (
	"sync"

	"github.com/eapache/queue"
)

// Strand wraps another dispatcher to add an ordering guarantee: among
// continuations delivered through the strand, at most one runs at a
// time and queued ones run in FIFO order. Queuing itself is delegated to
// the wrapped dispatcher, so both Dispatch and Post keep their
// contracts.
type Strand struct {
	inner Dispatcher

	mu   sync.Mutex
	q    *queue.Queue
	busy bool
}

// NewStrand creates a serializing wrapper around d.
func NewStrand(d Dispatcher) *Strand {
	return &Strand{inner: d, q: queue.New()}
}

// Context returns the wrapped dispatcher's execution context.
func (s *Strand) Context() *Context { return s.inner.Context() }

// Dispatch runs c inline iff the strand is idle and the wrapped
// dispatcher permits inline execution; otherwise c joins the strand's
// FIFO.
func (s *Strand) Dispatch(c *Continuation) error {
	s.mu.Lock()
	if s.busy {
		s.q.Add(c)
		s.mu.Unlock()
		return nil
	}
	s.busy = true
	s.mu.Unlock()
	if err := s.inner.Dispatch(s.runner(c)); err != nil {
		s.fail()
		return err
	}
	return nil
}

// Post enqueues c for serialized execution; c never runs before Post
// returns.
func (s *Strand) Post(c *Continuation) error {
	s.mu.Lock()
	if s.busy {
		s.q.Add(c)
		s.mu.Unlock()
		return nil
	}
	s.busy = true
	s.mu.Unlock()
	if err := s.inner.Post(s.runner(c)); err != nil {
		s.fail()
		return err
	}
	return nil
}

// Transfer returns the symmetric-transfer directive for c. Only valid
// from within a continuation the strand is currently running: the
// directive executes under the exclusivity the runner already holds.
func (s *Strand) Transfer(c *Continuation) Directive {
	return Directive{next: c}
}

// runner wraps the first claimed continuation into one inner-dispatcher
// entry that drains the strand FIFO to empty, holding exclusivity
// throughout. Directive chains of each item are driven iteratively, so
// the runner is stack-bounded.
func (s *Strand) runner(first *Continuation) *Continuation {
	return newContinuation(s, s.inner, func(any, error) Directive {
		c := first
		for {
			d := Directive{next: c}
			for d.next != nil {
				n := d.next
				d = n.Resume()
			}
			s.mu.Lock()
			if s.q.Length() == 0 {
				s.busy = false
				s.mu.Unlock()
				return Directive{}
			}
			c = s.q.Remove().(*Continuation)
			s.mu.Unlock()
		}
	})
}

// fail releases exclusivity after the inner dispatcher refused the
// runner. Continuations queued behind the failed claim stay pending for
// the next delivery attempt.
func (s *Strand) fail() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}
