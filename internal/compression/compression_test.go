// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package compression

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/cockroachdb/crlib/testutils/leaktest"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/lsmkit/cfopts/internal/base"
	"github.com/stretchr/testify/require"
)

var allAlgorithms = []Algorithm{NoCompression, Snappy, Zstd, MinLZ}

func TestCompressionRoundtrip(t *testing.T) {
	defer leaktest.AfterTest(t)()

	seed := uint64(time.Now().UnixNano())
	t.Logf("seed %d", seed)
	rng := rand.New(rand.NewPCG(0, seed))

	for _, a := range allAlgorithms {
		t.Run(a.String(), func(t *testing.T) {
			payload := make([]byte, 1+rng.IntN(10<<10 /* 10 KiB */))
			for i := range payload {
				payload[i] = byte(rng.Uint32())
			}
			// Create a randomly-sized buffer to house the compressed output. If it's
			// not sufficient, Compress should allocate one that is.
			compressedBuf := make([]byte, 1+rng.IntN(1<<10 /* 1 KiB */))
			compressor := GetCompressor(a)
			defer compressor.Close()
			require.Equal(t, a, compressor.Algorithm())
			compressed := compressor.Compress(compressedBuf, payload)
			got, err := Decompress(a, compressed)
			require.NoError(t, err)
			require.Equal(t, payload, got)
		})
	}
}

// TestDecompressionError tests that decompressing a value that does not
// decompress returns an error.
func TestDecompressionError(t *testing.T) {
	defer leaktest.AfterTest(t)()
	rng := rand.New(rand.NewPCG(0, 1 /* fixed seed */))

	// Create a buffer to represent a faux zstd compressed block. It's prefixed
	// with a uvarint of the appropriate length, followed by garbage.
	fauxCompressed := make([]byte, 100+rng.IntN(10<<10 /* 10 KiB */))
	compressedPayloadLen := len(fauxCompressed) - binary.MaxVarintLen64
	n := binary.PutUvarint(fauxCompressed, uint64(compressedPayloadLen))
	fauxCompressed = fauxCompressed[:n+compressedPayloadLen]
	for i := range fauxCompressed[n:] {
		fauxCompressed[n+i] = byte(rng.Uint32())
	}

	v, err := Decompress(Zstd, fauxCompressed)
	t.Log(err)
	require.Error(t, err)
	require.Nil(t, v)

	_, err = Decompress(Zstd, nil)
	require.True(t, errors.Is(err, base.ErrCorruption))
}

func TestSupported(t *testing.T) {
	defer leaktest.AfterTest(t)()

	for _, a := range allAlgorithms {
		require.NoError(t, ProbeError(a), "%s", a)
		require.True(t, Supported(a), "%s", a)
	}
	require.False(t, Supported(nAlgorithms))
	require.Error(t, ProbeError(Algorithm(200)))
}

func TestParseAlgorithm(t *testing.T) {
	for _, a := range allAlgorithms {
		got, err := ParseAlgorithm(a.String())
		require.NoError(t, err)
		require.Equal(t, a, got)
	}
	got, err := ParseAlgorithm("kSnappyCompression")
	require.NoError(t, err)
	require.Equal(t, Snappy, got)

	_, err = ParseAlgorithm("lz4")
	require.Regexp(t, `unknown compression algorithm "lz4"`, err)
}

func TestAlgorithmFormat(t *testing.T) {
	require.Equal(t, "ZSTD", fmt.Sprint(Zstd))
	require.Equal(t, "Unknown(9)", Algorithm(9).String())
	// Algorithm names are safe to print in redactable logs.
	require.Equal(t, "compression=Snappy", string(redact.Sprintf("compression=%s", Snappy)))
}
