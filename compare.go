// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import "cmp"

// Comparisons are failure-context checks: the check either holds,
// succeeding with the LEFT operand so comparisons chain as guards, or
// fails. Lt(3, 5) is Succeeded(3); Lt(5, 3) is Failed.

// Lt succeeds with a when a < b.
func Lt[V cmp.Ordered](a, b V) Outcome[V] {
	if a < b {
		return Succeed(a)
	}
	return Fail[V]()
}

// Le succeeds with a when a <= b.
func Le[V cmp.Ordered](a, b V) Outcome[V] {
	if a <= b {
		return Succeed(a)
	}
	return Fail[V]()
}

// Gt succeeds with a when a > b.
func Gt[V cmp.Ordered](a, b V) Outcome[V] {
	if a > b {
		return Succeed(a)
	}
	return Fail[V]()
}

// Ge succeeds with a when a >= b.
func Ge[V cmp.Ordered](a, b V) Outcome[V] {
	if a >= b {
		return Succeed(a)
	}
	return Fail[V]()
}

// Eq succeeds with a when a == b.
func Eq[V comparable](a, b V) Outcome[V] {
	if a == b {
		return Succeed(a)
	}
	return Fail[V]()
}

// Ne succeeds with a when a != b.
func Ne[V comparable](a, b V) Outcome[V] {
	if a != b {
		return Succeed(a)
	}
	return Fail[V]()
}
