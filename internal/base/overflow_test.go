// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"math"
	"math/big"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMultiplyCheckOverflow(t *testing.T) {
	testCases := []struct {
		op1      uint64
		op2      int
		expected uint64
	}{
		{0, 0, 0},
		{0, 10, 0},
		{7, 0, 7},
		{7, -1, 7},
		{7, math.MinInt, 7},
		{1, 1, 1},
		{1_000_000, 10, 10_000_000},
		{math.MaxUint64, 1, math.MaxUint64},
		{math.MaxUint64, 2, math.MaxUint64},
		{math.MaxUint64 / 2, 2, math.MaxUint64 - 1},
		{math.MaxUint64/2 + 1, 2, math.MaxUint64},
		{1 << 32, 1 << 31, 1 << 63},
		{1 << 33, 1 << 31, math.MaxUint64},
		{1 << 63, math.MaxInt, math.MaxUint64},
	}
	for _, c := range testCases {
		require.Equalf(t, c.expected, MultiplyCheckOverflow(c.op1, c.op2),
			"MultiplyCheckOverflow(%d, %d)", c.op1, c.op2)
	}
}

func TestMultiplyCheckOverflowRandomized(t *testing.T) {
	seed := uint64(time.Now().UnixNano())
	t.Logf("seed %d", seed)
	rng := rand.New(rand.NewPCG(0, seed))

	maxUint64 := new(big.Int).SetUint64(math.MaxUint64)
	for i := 0; i < 10000; i++ {
		// Mix small and large magnitudes so both branches are exercised.
		op1 := rng.Uint64() >> rng.UintN(64)
		op2 := int(rng.Int64() >> rng.UintN(64))
		if rng.IntN(4) == 0 {
			op2 = -op2
		}

		got := MultiplyCheckOverflow(op1, op2)
		if op2 <= 0 {
			require.Equal(t, op1, got)
			continue
		}
		product := new(big.Int).Mul(new(big.Int).SetUint64(op1), big.NewInt(int64(op2)))
		if product.Cmp(maxUint64) > 0 {
			require.Equalf(t, uint64(math.MaxUint64), got, "%d * %d", op1, op2)
		} else {
			require.Equalf(t, product.Uint64(), got, "%d * %d", op1, op2)
		}
	}
}
