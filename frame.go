// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package exio

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/kont"
)

// FrameState enumerates the suspendable-unit lifecycle:
// Created → Running → Suspended ⇄ Running → Completed → Finalized.
type FrameState uint32

const (
	// StateCreated: frame allocated, body not yet started.
	StateCreated FrameState = iota
	// StateRunning: the unit is the actively executing unit of its
	// domain; the allocation window holds its allocator.
	StateRunning
	// StateSuspended: the unit handed its continuation to an awaitable
	// and returned control to its resumer.
	StateSuspended
	// StateCompleted: the result-or-error slot is populated; the
	// continuation is being notified.
	StateCompleted
	// StateFinalized: the continuation has been notified and the frame
	// is released; no further access is possible.
	StateFinalized
)

// Frame is the persistent per-invocation state of a suspendable unit:
// its computation, its copies of dispatcher and cancellation token, its
// allocator, and its result-or-error slot. A frame is mutated only by
// its own resumption.
type Frame struct {
	state  atomix.Uint32
	serial Serial

	// disp is the unit's associated dispatcher, copied forward at
	// invocation. resumeOn is the dispatcher of the current slice: the
	// one resolved at the latest handshake, where the next resumption
	// will run.
	disp     Dispatcher
	resumeOn Dispatcher
	token    CancelToken
	alloc    Allocator

	expr kont.Expr[kont.Erased]
	susp *kont.Suspension[kont.Erased]

	// cont is set once, at construction, and consumed exactly once at
	// completion. A missing continuation at completion time is fatal.
	cont *Continuation

	result kont.Resumed
	err    error
}

// State returns the frame's lifecycle state.
func (fr *Frame) State() FrameState { return FrameState(fr.state.Load()) }

// Serial returns the frame's monotonic identifier.
func (fr *Frame) Serial() Serial { return fr.serial }

// Dispatcher returns the unit's associated dispatcher.
func (fr *Frame) Dispatcher() Dispatcher { return fr.disp }

// Token returns the unit's cancellation token copy.
func (fr *Frame) Token() CancelToken { return fr.token }

// reset zeroes the frame for reuse by its allocator.
func (fr *Frame) reset() {
	*fr = Frame{}
}

// newFrame resolves storage using the allocator current at the moment of
// invocation and builds the frame in state Created. The body has not
// run; a denied allocation fails here, synchronously, and no partial
// frame exists.
//
// Window resolution happens at the call sites: the caller passes the
// allocator already resolved against the invoking slice. A nil alloc
// here falls back to DefaultAllocator.
func newFrame(body kont.Expr[kont.Erased], d Dispatcher, t CancelToken, alloc Allocator, cont *Continuation) (*Frame, error) {
	if alloc == nil {
		alloc = DefaultAllocator
	}
	fr, err := alloc.AcquireFrame()
	if err != nil {
		return nil, err
	}
	fr.serial = nextSerial()
	fr.disp = d
	fr.resumeOn = d
	fr.token = t
	fr.alloc = alloc
	fr.expr = body
	fr.cont = cont
	fr.state.Store(uint32(StateCreated))
	return fr, nil
}

// start returns the continuation whose resumption performs the frame's
// first Created → Running transition.
func (fr *Frame) start() *Continuation {
	return newContinuation(fr, fr.disp, func(any, error) Directive {
		if fr.State() != StateCreated {
			protocolViolation("frame started twice")
		}
		return fr.step(nil, true)
	})
}

// resumeStep is the resumption path for a suspended frame: the one-shot
// continuation handed out at the handshake lands here with the
// operation's outcome.
func (fr *Frame) resumeStep(v any, err error) Directive {
	if fr.State() != StateSuspended {
		protocolViolation("frame resumed outside the suspended state")
	}
	if err != nil {
		// The pending operation aborted or failed: the stored kont
		// suspension will never be resumed. Recover the failure into the
		// unit's own result channel.
		fr.susp.Discard()
		fr.susp = nil
		return fr.complete(nil, err)
	}
	return fr.step(v, false)
}

// step drives the unit from one resumption point until it completes or
// reaches an awaitable suspension. Eager frame-local operations are
// dispatched inline in the same loop, so fused chains do not grow the
// stack. On entry the unit becomes the actively executing unit of its
// slice and opens the allocation window with its own allocator.
func (fr *Frame) step(v kont.Resumed, first bool) Directive {
	// invoker is the domain driving this slice: the only one under which
	// a returned directive may legally be tail-called.
	invoker := fr.resumeOn
	fr.state.Store(uint32(StateRunning))
	invoker.Context().SetAllocator(fr.alloc)

	var (
		value kont.Erased
		next  *kont.Suspension[kont.Erased]
		err   error
	)
	if first {
		value, next, err = stepBody(fr.expr)
		fr.expr = kont.Expr[kont.Erased]{}
	} else {
		value, next, err = resumeBody(fr.susp, v)
	}

	for {
		if err != nil {
			fr.susp = nil
			return fr.complete(nil, err)
		}
		if next == nil {
			fr.susp = nil
			return fr.complete(value, nil)
		}
		fr.susp = next
		op := next.Op()

		// Unwrap explicit Via/WithCancel overrides. The outermost wrapper
		// of each kind wins; what remains is the operand itself.
		var (
			overD Dispatcher
			overT CancelToken
			hasT  bool
		)
		for {
			if w, ok := op.(dispatcherOverride); ok {
				if overD == nil {
					overD = w.overrideDispatcher()
				}
				op = w.wrappedOp()
				continue
			}
			if w, ok := op.(tokenOverride); ok {
				if !hasT {
					overT, hasT = w.overrideToken(), true
				}
				op = w.wrappedOp()
				continue
			}
			break
		}

		// Eager frame-local operations: no suspension handshake.
		if fop, ok := op.(frameDispatcher); ok {
			var fv kont.Resumed
			fv, err = fop.DispatchFrame(fr)
			if err != nil {
				next.Discard()
				continue
			}
			value, next, err = resumeBody(next, fv)
			continue
		}

		aw, ok := op.(Awaitable)
		if !ok {
			protocolViolation("operand does not implement the awaitable handshake")
		}

		// Handshake resolution, lowest to highest precedence: inherited
		// dispatcher, the operand's intrinsic binding (an I/O object's
		// owning context), explicit Via. Tokens: inherited, then explicit
		// WithCancel.
		d, t := fr.disp, fr.token
		if ib, ok := op.(intrinsicBinding); ok {
			d = ib.AwaitContext().Dispatcher()
		}
		if overD != nil {
			d = overD
		}
		if hasT {
			t = overT
		}

		fr.state.Store(uint32(StateSuspended))
		fr.resumeOn = d
		c := newContinuation(fr, d, fr.resumeStep)
		var dir Directive
		var herr error
		if ci, ok := op.(callDispatcher); ok {
			// Composing operations inherit the allocation window of the
			// invoking unit, not of the handshake dispatcher's domain.
			dir, herr = ci.dispatchCall(c, d, t, fr.alloc)
		} else {
			dir, herr = aw.DispatchAwait(c, d, t)
		}
		if herr != nil {
			// The operation failed to start: the continuation will never
			// fire. Propagate synchronously through the unit's error path,
			// still on the invoking slice.
			c.Discard()
			fr.susp.Discard()
			fr.susp = nil
			fr.resumeOn = invoker
			return fr.complete(nil, herr)
		}
		if dir.next != nil && d != invoker {
			// The handshake wants inline progress under a foreign domain:
			// deliver through its dispatcher instead of tail-calling here.
			if err := d.Dispatch(dir.next); err != nil {
				dir.next.Discard()
			}
			return Directive{}
		}
		return dir
	}
}

// complete populates the result-or-error slot, notifies the continuation
// exactly once, finalizes the frame, and releases its storage. Exactly
// one terminal error surfaces: either the stored failure or the value.
func (fr *Frame) complete(v kont.Resumed, err error) Directive {
	fr.result, fr.err = v, err
	fr.state.Store(uint32(StateCompleted))

	c := fr.cont
	if c == nil {
		protocolViolation("frame completed without a continuation")
	}
	fr.cont = nil
	c.Settle(v, err)

	home := c.home
	inline := home == fr.resumeOn
	alloc := fr.alloc
	fr.state.Store(uint32(StateFinalized))
	alloc.ReleaseFrame(fr)

	if inline {
		// Same serialization domain: symmetric transfer. The driving
		// loop tail-calls the parent resumption without stack growth.
		return home.Transfer(c)
	}
	if derr := home.Dispatch(c); derr != nil {
		c.Discard()
	}
	return Directive{}
}

// discard releases a frame that was constructed but never started, for
// launch paths that fail after construction.
func (fr *Frame) discard() {
	if c := fr.cont; c != nil {
		c.Discard()
		fr.cont = nil
	}
	alloc := fr.alloc
	alloc.ReleaseFrame(fr)
}

// stepBody runs the first evaluation step of a unit body, capturing an
// escaping failure into the unit's result channel. Protocol violations
// pass through unrecovered.
func stepBody(e kont.Expr[kont.Erased]) (v kont.Erased, s *kont.Suspension[kont.Erased], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = capturePanic(r)
		}
	}()
	v, s = kont.StepExpr(e)
	return v, s, nil
}

// resumeBody advances a suspended body with the operation outcome,
// capturing escaping failures like stepBody.
func resumeBody(susp *kont.Suspension[kont.Erased], rv kont.Resumed) (v kont.Erased, s *kont.Suspension[kont.Erased], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = capturePanic(r)
		}
	}()
	v, s = susp.Resume(rv)
	return v, s, nil
}

// eraseBody converts a typed unit body into the type-erased form the
// frame machinery evaluates. The concrete type is recovered at the
// launch adapter's boundary.
func eraseBody[A any](e kont.Expr[A]) kont.Expr[kont.Erased] {
	return kont.Expr[kont.Erased]{Value: kont.Erased(e.Value), Frame: e.Frame}
}
