// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package exio

import (
	"code.hybscloud.com/kont"
)

// Cont-world convenience constructors for unit bodies. Expr-world
// variants live in fused_expr.go; bridge with Reify and Reflect.

// CallEff invokes body as a child unit and continues with its result.
// Fuses Perform(Call) over a reified body.
func CallEff[A any](body kont.Eff[A]) kont.Eff[A] {
	return kont.Perform(Call[A]{Body: kont.Reify(body)})
}

// CallBind invokes body as a child unit and passes its result to f.
func CallBind[A, B any](body kont.Eff[A], f func(A) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(CallEff(body), f)
}

// CallThen invokes body as a child unit, discards its result, and
// continues with next.
func CallThen[A, B any](body kont.Eff[A], next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(CallEff(body), next)
}

// FailWith aborts the unit with err. The continuation after the failure
// point never runs; err surfaces at the launch site's error path.
func FailWith[A any](err error) kont.Eff[A] {
	return kont.Then(kont.Perform(Fail{Err: err}), kont.Pure(*new(A)))
}

// Cancelled reports whether the unit's cancellation token has been
// requested, for cooperative cancellation points between suspensions.
func Cancelled() kont.Eff[bool] {
	return kont.Perform(CancelRequested{})
}

// Self yields the unit's own dispatcher copy.
func Self() kont.Eff[Dispatcher] {
	return kont.Perform(OwnDispatcher{})
}

// Token yields the unit's own cancellation token copy.
func Token() kont.Eff[CancelToken] {
	return kont.Perform(OwnToken{})
}
