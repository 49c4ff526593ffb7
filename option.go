// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import "fmt"

// Option is an optional value: Some carrying a value, or None.
// It is the reified, storable form of an Outcome; ToOption and
// FromOption convert between the two without loss.
//
// The zero value is None.
type Option[V any] struct {
	value V
	some  bool
}

// Some returns an option carrying v.
func Some[V any](v V) Option[V] {
	return Option[V]{value: v, some: true}
}

// None returns the empty option.
func None[V any]() Option[V] {
	return Option[V]{}
}

// IsSome reports whether the option carries a value.
func (o Option[V]) IsSome() bool { return o.some }

// IsNone reports whether the option is empty.
func (o Option[V]) IsNone() bool { return !o.some }

// Get returns the carried value and whether it is present.
func (o Option[V]) Get() (V, bool) { return o.value, o.some }

// Must returns the carried value, panicking on an empty option.
func (o Option[V]) Must() V {
	if !o.some {
		panic("flow: Must on empty option")
	}
	return o.value
}

// String renders "Some(v)" or "None".
func (o Option[V]) String() string {
	if o.some {
		return fmt.Sprintf("Some(%v)", o.value)
	}
	return "None"
}

// ToOption reifies an outcome: Succeeded(v) becomes Some(v), Failed
// becomes None. Nesting is preserved exactly; an Outcome[Option[V]]
// maps to Option[Option[V]] without collapsing.
func ToOption[V any](o Outcome[V]) Option[V] {
	if v, ok := o.Get(); ok {
		return Some(v)
	}
	return None[V]()
}

// FromOption queries an option as a failure-context check: Some(v)
// becomes Succeeded(v), None becomes Failed. Exact inverse of ToOption.
func FromOption[V any](o Option[V]) Outcome[V] {
	if v, ok := o.Get(); ok {
		return Succeed(v)
	}
	return Fail[V]()
}
