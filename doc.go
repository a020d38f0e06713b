// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package exio provides a forward-propagating execution-context protocol
// for suspendable computations performing asynchronous I/O, built on
// [code.hybscloud.com/kont] continuations.
//
// Every suspendable unit is associated with three resources: a
// dispatcher (where it resumes), an allocator (where its frame lives),
// and a cancellation token (whether it should stop). The triple travels
// forward through the chain of suspension points — caller to callee at
// creation and suspension time, never queried back from a later-bound
// consumer — down to the boundary where a native asynchronous operation
// is issued.
//
// # Architecture
//
//   - Dispatch: [Dispatcher] exposes Dispatch (run-now-if-safe-else-
//     queue), Post (always-queue), and Transfer (symmetric transfer).
//     Inline chains run through [Directive] tail-calls in constant stack
//     space. [Strand] wraps any dispatcher with FIFO exclusivity.
//   - Execution: [Context] owns the ready queue, the work counter, and
//     the single-active serialization domain. Run/RunOne block past
//     empty-queue boundaries with adaptive backoff
//     ([code.hybscloud.com/iox.Backoff]); Poll/PollOne never block.
//   - Cancellation: [CancelSource] owns a monotonic stop flag;
//     [CancelToken] views are copied down the chain and register
//     at-most-once callbacks. [CancelAfter] layers timeouts on the same
//     mechanism. Cancellation is asynchronous: a pending operation
//     completes with [ErrAborted] through its normal completion path.
//   - Allocation: [Allocator] handles resolve before a unit's body
//     begins — explicit at the launch boundary, otherwise inherited
//     through the per-context allocation window each unit opens on
//     resumption. [PoolAllocator] never denies; [ArenaAllocator] is
//     bounded over a lock-free free ring ([code.hybscloud.com/lfq]).
//   - Units: [Frame] is the per-invocation state machine
//     (Created → Running → Suspended ⇄ Running → Completed → Finalized)
//     over a [code.hybscloud.com/kont.Expr] body. Escaping failures are
//     captured into the result slot as [PanicError]; protocol violations
//     panic and must not be caught.
//   - Launch: [Launch] and [LaunchEff] bridge ordinary call sites into
//     the chain, establish the root triple, and own the [Handle]
//     trampoline. Completion callbacks are posted, never inline.
//
// # Awaitable Handshake
//
// Every suspending operand implements [Awaitable]: it receives
// (continuation, dispatcher, token) from its caller and either consumes
// the operation itself (the leaf case — [Timer] is the reference I/O
// object) or forwards the triple to whatever it further suspends on
// (the composing case — [Call] spawns a child unit). Resolution
// precedence at each handshake: explicit [Via]/[WithCancel] override,
// then the operand's intrinsic context binding, then inheritance from
// the caller.
//
// Eager frame-local operations — [OwnDispatcher], [OwnToken],
// [OwnAllocator], [CancelRequested], [Fail] — dispatch against the
// running frame without a suspension handshake.
//
// # API Topologies
//
//   - Cont-world: [CallEff], [CallBind], [CallThen], [FailWith],
//     [Cancelled], [Self], [Token]; launch with [LaunchEff].
//   - Expr-world: [ExprCall], [ExprCallBind], [ExprCallThen],
//     [ExprFail], [ExprCancelled], [ExprSelf], [ExprToken], [ExprLoop];
//     launch with [Launch]. Bridge via [Reify] and [Reflect].
//
// # Example
//
//	ctx := exio.NewContext()
//	tm := exio.NewTimer(ctx)
//	src := exio.NewCancelSource()
//
//	body := exio.ExprCallBind(tm.After(time.Millisecond),
//		func(at time.Time) kont.Expr[string] {
//			return kont.ExprReturn(at.Format(time.RFC3339))
//		})
//
//	h, err := exio.Launch(ctx.Dispatcher(), body,
//		exio.WithToken[string](src.Token()))
//	if err != nil {
//		// context unavailable or allocation exhausted
//	}
//	ctx.Run()
//	stamp, err := h.Result()
package exio
