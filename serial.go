// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flow

import "code.hybscloud.com/atomix"

// Serial is a monotonically increasing identifier.
// Stores and journal scopes each draw from their own counter,
// so a Ref or Scope is never equal across unrelated owners.
type Serial = uint32

// storeCounter numbers stores; scopeCounter numbers journal scopes.
var (
	storeCounter atomix.Uint32
	scopeCounter atomix.Uint32
)

// nextStoreSerial returns the next store serial.
func nextStoreSerial() Serial {
	return storeCounter.Add(1)
}

// nextScopeSerial returns the next journal scope serial.
func nextScopeSerial() Serial {
	return scopeCounter.Add(1)
}
