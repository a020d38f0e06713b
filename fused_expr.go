// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package exio

import (
	"code.hybscloud.com/kont"
)

// Expr-world fused constructors for unit bodies: defunctionalized
// counterparts of the helpers in fused.go.

// ExprCall invokes body as a child unit and continues with its result.
func ExprCall[A any](body kont.Expr[A]) kont.Expr[A] {
	return kont.ExprPerform(Call[A]{Body: body})
}

// ExprCallBind invokes body as a child unit and passes its result to f.
func ExprCallBind[A, B any](body kont.Expr[A], f func(A) kont.Expr[B]) kont.Expr[B] {
	return kont.ExprBind(ExprCall(body), f)
}

// ExprCallThen invokes body as a child unit, discards its result, and
// continues with next.
func ExprCallThen[A, B any](body kont.Expr[A], next kont.Expr[B]) kont.Expr[B] {
	return kont.ExprThen(ExprCall(body), next)
}

// ExprFail aborts the unit with err. Constructs the effect frame
// directly: Fail's resumption never runs, so the result type is free.
func ExprFail[A any](err error) kont.Expr[A] {
	return kont.ExprSuspend[A](&kont.EffectFrame[kont.Erased]{
		Operation: Fail{Err: err},
		Resume:    func(v kont.Erased) kont.Erased { return v },
		Next:      kont.ReturnFrame{},
	})
}

// ExprCancelled reports whether the unit's token has been requested.
func ExprCancelled() kont.Expr[bool] {
	return kont.ExprPerform(CancelRequested{})
}

// ExprSelf yields the unit's own dispatcher copy.
func ExprSelf() kont.Expr[Dispatcher] {
	return kont.ExprPerform(OwnDispatcher{})
}

// ExprToken yields the unit's own cancellation token copy.
func ExprToken() kont.Expr[CancelToken] {
	return kont.ExprPerform(OwnToken{})
}

// ExprLoop runs an iterative unit body: step returns Left(nextState) to
// continue or Right(result) to finish. Long chains evaluate through the
// frame trampoline without stack growth as long as each iteration
// suspends at least once.
func ExprLoop[S, A any](initial S, step func(S) kont.Expr[kont.Either[S, A]]) kont.Expr[A] {
	return kont.ExprBind(step(initial), func(e kont.Either[S, A]) kont.Expr[A] {
		if s, ok := e.GetLeft(); ok {
			return ExprLoop(s, step)
		}
		a, _ := e.GetRight()
		return kont.ExprReturn(a)
	})
}
