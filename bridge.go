// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package exio

import (
	"code.hybscloud.com/kont"
)

// Reify converts a Cont-world unit body to Expr-world. The resulting
// Expr can be launched with Launch or composed with the Expr fused
// constructors.
func Reify[A any](m kont.Eff[A]) kont.Expr[A] {
	return kont.Reify(m)
}

// Reflect converts an Expr-world unit body to Cont-world, for
// composition with the closure-based fused constructors and LaunchEff.
func Reflect[A any](m kont.Expr[A]) kont.Eff[A] {
	return kont.Reflect(m)
}
