// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package exio

import (
	"errors"
	"fmt"
)

// exio distinguishes three recoverable error classes and one fatal one.
//
// Mental model:
//   - ErrAborted: cancellation reached the pending operation; the chain
//     unwinds through normal error paths.
//   - ErrUnavailable: the execution context cannot accept work (stopped,
//     or bounded ready queue full).
//   - ErrAllocExhausted: frame storage was denied before the unit body
//     began; no partial frame exists.
//   - protocol violations: panics, never errors. A malformed participant
//     (missing continuation, double resume, operand without the
//     handshake) must not be caught and continued past.

// ErrAborted is stored in a unit's result slot when cancellation caused
// a pending operation to abort. Recoverable by the unit's error path.
var ErrAborted = errors.New("exio: operation aborted")

// ErrUnavailable reports a failed enqueue: the target context is stopped
// or its bounded ready queue is full. Inline dispatch never produces it.
var ErrUnavailable = errors.New("exio: context unavailable")

// ErrAllocExhausted reports a denied frame allocation. It is returned
// synchronously to the invoking unit, before any body code runs.
var ErrAllocExhausted = errors.New("exio: allocation exhausted")

// IsAborted reports whether err is (or wraps) ErrAborted.
func IsAborted(err error) bool { return errors.Is(err, ErrAborted) }

// IsUnavailable reports whether err is (or wraps) ErrUnavailable.
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }

// PanicError wraps a panic recovered at a unit boundary.
// The failure is captured into the unit's result slot and delivered to
// the continuation on resumption; it is not process-fatal.
type PanicError struct {
	Value any
}

func (e PanicError) Error() string {
	return fmt.Sprintf("exio: unit panicked: %v", e.Value)
}

// violation is the payload of protocol-violation panics. capturePanic
// re-raises it so that boundary recovery never swallows a violation.
type violation struct {
	msg string
}

func (v violation) Error() string { return v.msg }

// protocolViolation aborts on a contract breach. Extracted as a noinline
// function so the frame stepping loop remains inlineable.
//
//go:noinline
func protocolViolation(msg string) {
	panic(violation{msg: "exio: protocol violation: " + msg})
}

// capturePanic converts a recovered panic into a stored unit failure.
// Protocol violations pass through unrecovered.
func capturePanic(r any) error {
	if v, ok := r.(violation); ok {
		panic(v)
	}
	return PanicError{Value: r}
}
