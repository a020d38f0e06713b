// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package exio

import (
	"sync/atomic"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// launchConfig is the launch-site configuration surface:
// {dispatcher required, token, allocator, on_success, on_error}.
type launchConfig[A any] struct {
	token     CancelToken
	alloc     Allocator
	onSuccess func(A)
	onError   func(error)
}

// LaunchOption configures a launch.
type LaunchOption[A any] func(*launchConfig[A])

// WithToken attaches a cancellation token to the launched chain.
// Default: the zero token, never cancelled.
func WithToken[A any](t CancelToken) LaunchOption[A] {
	return func(cfg *launchConfig[A]) { cfg.token = t }
}

// WithAllocator supplies the root allocator for the launched chain.
// This is the single entry point where the allocator is resolved from
// typed application code rather than inherited; the handle's lifetime
// covers the entire chain. Default: DefaultAllocator.
func WithAllocator[A any](a Allocator) LaunchOption[A] {
	return func(cfg *launchConfig[A]) { cfg.alloc = a }
}

// WithOnSuccess registers a completion callback. It is delivered via the
// launch dispatcher's Post, never inline: control returns to the launch
// site before the callback begins.
func WithOnSuccess[A any](f func(A)) LaunchOption[A] {
	return func(cfg *launchConfig[A]) { cfg.onSuccess = f }
}

// WithOnError registers a failure callback, delivered like WithOnSuccess.
// A failed chain surfaces exactly one terminal error here.
func WithOnError[A any](f func(error)) LaunchOption[A] {
	return func(cfg *launchConfig[A]) { cfg.onError = f }
}

// Handle is the launch adapter's trampoline: it bridges ordinary code
// into the suspension chain, owns the root continuation, and brackets
// the launched unit's lifetime — constructed before the unit frame,
// torn down after the unit has been notified.
type Handle[A any] struct {
	done atomic.Uint32
	val  A
	err  error
	disp Dispatcher
	cfg  launchConfig[A]
}

// Launch starts body as a detached suspendable unit on d. The root
// triple is established here: the dispatcher is d, the token and
// allocator come from options or their defaults. Launch returns before
// the body begins running; drive the context (Run/Poll) or Join the
// handle to make progress.
//
// Errors: ErrAllocExhausted when the root frame is denied storage,
// ErrUnavailable when d's context refuses the initial post. Both are
// synchronous; no unit exists afterwards.
func Launch[A any](d Dispatcher, body kont.Expr[A], opts ...LaunchOption[A]) (*Handle[A], error) {
	var cfg launchConfig[A]
	for _, opt := range opts {
		opt(&cfg)
	}
	h := &Handle[A]{disp: d, cfg: cfg}

	alloc := cfg.alloc
	if alloc == nil {
		alloc = DefaultAllocator
	}
	c := newContinuation(h, d, h.finish)
	fr, err := newFrame(eraseBody(body), d, cfg.token, alloc, c)
	if err != nil {
		c.Discard()
		return nil, err
	}

	ctx := d.Context()
	ctx.OnWorkStarted()
	if err := d.Post(fr.start()); err != nil {
		ctx.OnWorkFinished()
		fr.discard()
		return nil, err
	}
	return h, nil
}

// LaunchEff is Launch for closure-world bodies, bridged via Reify.
func LaunchEff[A any](d Dispatcher, body kont.Eff[A], opts ...LaunchOption[A]) (*Handle[A], error) {
	return Launch(d, kont.Reify(body), opts...)
}

// finish is the trampoline resumption: the launched unit settles its
// outcome here exactly once. Callbacks are posted, never run inline, so
// detached completion observes the same control-returns-first contract
// as the launch itself.
func (h *Handle[A]) finish(v any, err error) Directive {
	if err != nil {
		h.err = err
	} else if v != nil {
		h.val = v.(A)
	}
	h.done.Store(1)

	ctx := h.disp.Context()
	if h.err != nil {
		if f := h.cfg.onError; f != nil {
			e := h.err
			// Post failure means the context is gone; the terminal error
			// remains observable through the handle.
			_ = h.disp.Post(newContinuation(h, h.disp, func(any, error) Directive {
				f(e)
				return Directive{}
			}))
		}
	} else if f := h.cfg.onSuccess; f != nil {
		val := h.val
		_ = h.disp.Post(newContinuation(h, h.disp, func(any, error) Directive {
			f(val)
			return Directive{}
		}))
	}
	ctx.OnWorkFinished()
	return Directive{}
}

// Done reports whether the launched unit has completed.
func (h *Handle[A]) Done() bool { return h.done.Load() != 0 }

// Result returns the unit's result-or-error slot. Before completion it
// reports iox.ErrWouldBlock.
func (h *Handle[A]) Result() (A, error) {
	if !h.Done() {
		var zero A
		return zero, iox.ErrWouldBlock
	}
	return h.val, h.err
}

// Join drives the launch context on the calling goroutine until the unit
// completes, waiting past empty-queue boundaries with adaptive backoff.
// No goroutines are spawned and no channels are created.
func (h *Handle[A]) Join() (A, error) {
	var bo iox.Backoff
	ctx := h.disp.Context()
	for !h.Done() {
		if ctx.Poll() > 0 {
			bo.Reset()
			continue
		}
		bo.Wait()
	}
	return h.val, h.err
}
