// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import "code.hybscloud.com/kont"

// Value is the erased content type of a storage cell.
type Value = kont.Erased

// Ref is a stable handle to one storage cell. It names the location,
// not the value: a Ref stays valid across any number of writes and
// rollbacks of its cell. Refs are comparable and usable as map keys.
//
// The zero Ref is invalid.
type Ref struct {
	store Serial
	index uint32
}

// Store is the shared mutable storage a Journal guards: a flat table of
// cells addressed by Ref. A Store itself knows nothing about scopes or
// rollback; all journaled mutation goes through Journal.Set.
type Store struct {
	serial Serial
	cells  []Value
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{serial: nextStoreSerial()}
}

// Alloc creates a cell holding initial and returns its Ref.
func (s *Store) Alloc(initial Value) Ref {
	s.cells = append(s.cells, initial)
	return Ref{store: s.serial, index: uint32(len(s.cells) - 1)}
}

// Get returns the current value of the cell at ref.
func (s *Store) Get(ref Ref) Value {
	return s.cells[s.cellIndex(ref)]
}

// Len returns the number of allocated cells.
func (s *Store) Len() int { return len(s.cells) }

// set writes through to the cell, bypassing any journal. Callers that
// hold an open scope must go through Journal.Set instead.
func (s *Store) set(ref Ref, v Value) {
	s.cells[s.cellIndex(ref)] = v
}

func (s *Store) cellIndex(ref Ref) uint32 {
	if ref.store != s.serial {
		panic("flow: ref belongs to another store")
	}
	return ref.index
}

// Load returns the cell value at ref asserted to T.
func Load[T any](s *Store, ref Ref) T {
	return s.Get(ref).(T)
}
