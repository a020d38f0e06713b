// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package exio

import (
	"code.hybscloud.com/kont"
)

// Awaitable is the handshake contract for every suspending operand: it
// receives the caller's triple — continuation, dispatcher, cancellation
// token — and either consumes the operation itself (leaf/I/O case) or
// forwards the triple to whatever it further suspends on (composing
// case).
//
// DispatchAwait must store the continuation before initiating anything
// asynchronous, may register at most one cancellation callback with the
// token for the pending operation, and on completion must settle the
// continuation (TrySettle when racing cancellation) and deliver it
// through the dispatcher. A non-nil directive is inline progress for the
// caller's slice; a non-nil error means the operation never started and
// propagates synchronously through the caller's error path.
type Awaitable interface {
	DispatchAwait(c *Continuation, d Dispatcher, t CancelToken) (Directive, error)
}

// intrinsicBinding is implemented by operands carrying their own
// execution-context binding, e.g. an I/O object owned by a context. The
// binding overrides the inherited dispatcher but is itself overridden by
// an explicit Via wrapper.
type intrinsicBinding interface {
	AwaitContext() *Context
}

// frameDispatcher is the structural interface for eager frame-local
// operations: introspection of the running unit's triple and error
// raising. Dispatched inline by the frame loop, without a suspension
// handshake. A non-nil error completes the unit through its error path.
type frameDispatcher interface {
	DispatchFrame(fr *Frame) (kont.Resumed, error)
}

// callDispatcher is the composing-operation extension of the awaitable
// handshake: the frame loop supplies the invoking unit's allocator as
// the allocation window, so inheritance resolves on the invoking slice
// even when the handshake dispatcher was overridden to a foreign
// domain.
type callDispatcher interface {
	dispatchCall(c *Continuation, d Dispatcher, t CancelToken, window Allocator) (Directive, error)
}

// Call invokes a child unit, forwarding the caller's dispatcher and
// token. The child's storage is resolved before its body begins: from
// the explicit Allocator field when set, otherwise from the allocation
// window — the invoking unit's allocator, supplied by the frame loop at
// the handshake.
type Call[A any] struct {
	kont.Phantom[A]
	Body kont.Expr[A]

	// Allocator optionally pins the child's storage; nil inherits the
	// window.
	Allocator Allocator
}

// DispatchAwait constructs the child frame and starts it by symmetric
// transfer: the returned directive runs the child inline on the caller's
// slice. Allocation denial fails the invocation here, before any child
// body code.
func (op Call[A]) DispatchAwait(c *Continuation, d Dispatcher, t CancelToken) (Directive, error) {
	return op.dispatchCall(c, d, t, d.Context().CurrentAllocator())
}

func (op Call[A]) dispatchCall(c *Continuation, d Dispatcher, t CancelToken, window Allocator) (Directive, error) {
	alloc := op.Allocator
	if alloc == nil {
		alloc = window
	}
	child, err := newFrame(eraseBody(op.Body), d, t, alloc, c)
	if err != nil {
		return Directive{}, err
	}
	return Directive{next: child.start()}, nil
}

// dispatcherOverride and tokenOverride are the structural interfaces of
// the explicit wrappers. The frame loop unwraps them before the
// handshake so that the resolved dispatcher is also the one the frame
// records as its resumption domain. The outermost override wins.
type dispatcherOverride interface {
	overrideDispatcher() Dispatcher
	wrappedOp() kont.Operation
}

type tokenOverride interface {
	overrideToken() CancelToken
	wrappedOp() kont.Operation
}

// Via overrides the dispatcher forwarded to Op at the handshake.
// Explicit override takes precedence over both the operand's intrinsic
// binding and the inherited dispatcher.
type Via[A any] struct {
	kont.Phantom[A]
	Op kont.Operation
	D  Dispatcher
}

func (op Via[A]) overrideDispatcher() Dispatcher { return op.D }
func (op Via[A]) wrappedOp() kont.Operation      { return op.Op }

// WithCancel overrides the cancellation token forwarded to Op at the
// handshake, detaching the operand from the caller's signal or attaching
// a narrower one.
type WithCancel[A any] struct {
	kont.Phantom[A]
	Op kont.Operation
	T  CancelToken
}

func (op WithCancel[A]) overrideToken() CancelToken { return op.T }
func (op WithCancel[A]) wrappedOp() kont.Operation  { return op.Op }

// OwnDispatcher yields the running unit's dispatcher copy.
type OwnDispatcher struct {
	kont.Phantom[Dispatcher]
}

func (OwnDispatcher) DispatchFrame(fr *Frame) (kont.Resumed, error) {
	return fr.disp, nil
}

// OwnToken yields the running unit's cancellation token copy.
type OwnToken struct {
	kont.Phantom[CancelToken]
}

func (OwnToken) DispatchFrame(fr *Frame) (kont.Resumed, error) {
	return fr.token, nil
}

// OwnAllocator yields the allocator the running unit's frame lives in.
type OwnAllocator struct {
	kont.Phantom[Allocator]
}

func (OwnAllocator) DispatchFrame(fr *Frame) (kont.Resumed, error) {
	return fr.alloc, nil
}

// CancelRequested reports whether the running unit's token has been
// requested, for cooperative cancellation points between suspensions.
type CancelRequested struct {
	kont.Phantom[bool]
}

func (CancelRequested) DispatchFrame(fr *Frame) (kont.Resumed, error) {
	return fr.token.Requested(), nil
}

// Fail aborts the running unit, storing Err in its result slot. The
// resumption after Fail never runs; the failure surfaces to the
// continuation when it retrieves the result.
type Fail struct {
	kont.Phantom[struct{}]
	Err error
}

func (op Fail) DispatchFrame(fr *Frame) (kont.Resumed, error) {
	err := op.Err
	if err == nil {
		err = ErrAborted
	}
	return nil, err
}
