// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"math"
	"math/bits"
)

// MultiplyCheckOverflow returns op1*op2, saturating at math.MaxUint64 if the
// product does not fit in 64 bits. A non-positive op2 is an unset multiplier
// and leaves op1 unchanged.
func MultiplyCheckOverflow(op1 uint64, op2 int) uint64 {
	if op2 <= 0 {
		return op1
	}
	hi, lo := bits.Mul64(op1, uint64(op2))
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}
