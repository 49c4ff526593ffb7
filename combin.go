// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import (
	"code.hybscloud.com/kont"
)

// Sync runs the children as structurally-owned tasks, started in
// declaration order, and parks the caller until all of them settle.
// Results arrive as a slice in declaration order. If any child
// cancels, the remaining children are canceled and the caller's own
// cancellation path runs once every child has settled.
//
// Sync of no children completes immediately with an empty slice.
func Sync(children ...kont.Expr[kont.Erased]) kont.Expr[[]kont.Erased] {
	return parkExpr[[]kont.Erased](syncOp{children: children})
}

// Race runs the children and parks the caller until the first one
// completes; the rest are canceled. The winner's value arrives only
// after every child has settled, so no loser outlives the race. If
// every child cancels, the caller cancels. Race of no children panics
// at construction.
func Race[V any](children ...kont.Expr[V]) kont.Expr[V] {
	if len(children) == 0 {
		panic("flow: race of no children")
	}
	return parkExpr[V](raceOp[V]{children: eraseAll(children)})
}

// Rush parks the caller until the first child completes, delivering
// its value immediately. Losers are not canceled: they keep running as
// structurally-owned children of the caller and are canceled when the
// caller settles. Because every loser lives until then, a rush must
// not be constructed per iteration of an unbounded loop. Rush of no
// children panics at construction.
func Rush[V any](children ...kont.Expr[V]) kont.Expr[V] {
	if len(children) == 0 {
		panic("flow: rush of no children")
	}
	return parkExpr[V](rushOp[V]{children: eraseAll(children)})
}

// Branch starts one structurally-owned child, resumes it once, and
// returns to the caller. The child's result is discarded; if it is
// still active when the caller settles, it is canceled. Like Rush,
// a branch per iteration of an unbounded loop accumulates children
// until the enclosing task settles.
func Branch(child kont.Expr[kont.Erased]) kont.Expr[Unit] {
	return performExpr[Unit](branchOp{child: child})
}

// Tuple2 is an ordered pair, fields in declaration order.
type Tuple2[A, B any] struct {
	First  A
	Second B
}

// Tuple3 is an ordered triple, fields in declaration order.
type Tuple3[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// Sync2 is Sync over two differently-typed children.
func Sync2[A, B any](a kont.Expr[A], b kont.Expr[B]) kont.Expr[Tuple2[A, B]] {
	return kont.ExprMap(Sync(Erase(a), Erase(b)), func(rs []kont.Erased) Tuple2[A, B] {
		return Tuple2[A, B]{First: asResult[A](rs[0]), Second: asResult[B](rs[1])}
	})
}

// Sync3 is Sync over three differently-typed children.
func Sync3[A, B, C any](a kont.Expr[A], b kont.Expr[B], c kont.Expr[C]) kont.Expr[Tuple3[A, B, C]] {
	return kont.ExprMap(Sync(Erase(a), Erase(b), Erase(c)), func(rs []kont.Erased) Tuple3[A, B, C] {
		return Tuple3[A, B, C]{
			First:  asResult[A](rs[0]),
			Second: asResult[B](rs[1]),
			Third:  asResult[C](rs[2]),
		}
	})
}
