// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import (
	"code.hybscloud.com/kont"
)

// Erase converts a typed computation to the erased form tasks run.
// The value and pending frame chain are reused as-is; only the static
// result type is widened. Panics when V is itself an Outcome type:
// deciding computations are synchronous and never become task bodies.
func Erase[V any](m kont.Expr[V]) kont.Expr[kont.Erased] {
	rejectDeciding[V]()
	return kont.Expr[kont.Erased]{Value: kont.Erased(m.Value), Frame: m.Frame}
}

func eraseAll[V any](ms []kont.Expr[V]) []kont.Expr[kont.Erased] {
	rejectDeciding[V]()
	out := make([]kont.Expr[kont.Erased], len(ms))
	for i, m := range ms {
		out[i] = kont.Expr[kont.Erased]{Value: kont.Erased(m.Value), Frame: m.Frame}
	}
	return out
}

// asResult narrows an erased task result back to its typed form. A
// child that settled to a nil interface value narrows to the zero V.
func asResult[V any](v kont.Erased) V {
	if t, ok := v.(V); ok {
		return t
	}
	var zero V
	return zero
}
