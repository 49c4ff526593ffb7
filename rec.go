// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import (
	"code.hybscloud.com/kont"
)

// Loop runs a state-machine computation: step returns Left(nextState)
// to continue or Right(result) to finish. Pure iterations collapse in
// place without growing the frame chain; an effectful iteration fuses
// the recursion into a single bind frame, so suspension points inside
// step park the task as usual.
func Loop[S, A any](initial S, step func(S) kont.Expr[kont.Either[S, A]]) kont.Expr[A] {
	state := initial
	for {
		m := step(state)
		if _, ok := m.Frame.(kont.ReturnFrame); ok {
			if left, ok := m.Value.GetLeft(); ok {
				state = left
				continue
			}
			right, _ := m.Value.GetRight()
			return kont.ExprReturn(right)
		}
		bf := kont.AcquireBindFrame()
		bf.F = func(a kont.Erased) kont.Expr[kont.Erased] {
			e := a.(kont.Either[S, A])
			if left, ok := e.GetLeft(); ok {
				result := Loop(left, step)
				return kont.Expr[kont.Erased]{Value: kont.Erased(result.Value), Frame: result.Frame}
			}
			right, _ := e.GetRight()
			return kont.Expr[kont.Erased]{Value: kont.Erased(right), Frame: kont.ReturnFrame{}}
		}
		bf.Next = kont.ReturnFrame{}
		var zero A
		return kont.Expr[A]{
			Value: zero,
			Frame: kont.ChainFrames(m.Frame, bf),
		}
	}
}
