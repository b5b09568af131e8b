// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build cgo

package compression

import (
	"encoding/binary"
	"sync"

	"github.com/DataDog/zstd"
	"github.com/cockroachdb/errors"
	"github.com/lsmkit/cfopts/internal/base"
)

// UseStandardZstdLib indicates whether the zstd implementation is a port of the
// official one in the facebook/zstd repository.
const UseStandardZstdLib = true

type zstdCompressor struct {
	level int
	ctx   zstd.Ctx
}

var _ Compressor = (*zstdCompressor)(nil)

var zstdCompressorPool = sync.Pool{
	New: func() any {
		return &zstdCompressor{ctx: zstd.NewCtx()}
	},
}

func getZstdCompressor(level int) *zstdCompressor {
	z := zstdCompressorPool.Get().(*zstdCompressor)
	z.level = level
	return z
}

func (z *zstdCompressor) Algorithm() Algorithm { return Zstd }

// Compress prefixes the payload with a varint encoding the length of the
// decompressed block.
func (z *zstdCompressor) Compress(dst, src []byte) []byte {
	// Size the buffer from CompressBound up front so the varint prefix never
	// has to be moved.
	bound := zstd.CompressBound(len(src))
	if cap(dst) < binary.MaxVarintLen64+bound {
		dst = make([]byte, binary.MaxVarintLen64, binary.MaxVarintLen64+bound)
	}
	dst = dst[:binary.MaxVarintLen64]
	varIntLen := binary.PutUvarint(dst, uint64(len(src)))
	result, err := z.ctx.CompressLevel(dst[varIntLen:varIntLen+bound], src, z.level)
	if err != nil {
		panic(errors.Wrap(err, "zstd compression"))
	}
	if len(result) > 0 && &result[0] != &dst[varIntLen] {
		panic(errors.AssertionFailedf("zstd allocated a new buffer despite CompressBound"))
	}
	return dst[:varIntLen+len(result)]
}

func (z *zstdCompressor) Close() {
	zstdCompressorPool.Put(z)
}

type zstdDecompressor struct {
	ctx zstd.Ctx
}

var _ Decompressor = (*zstdDecompressor)(nil)

var zstdDecompressorPool = sync.Pool{
	New: func() any {
		return &zstdDecompressor{ctx: zstd.NewCtx()}
	},
}

func getZstdDecompressor() *zstdDecompressor {
	return zstdDecompressorPool.Get().(*zstdDecompressor)
}

// DecompressInto decompresses src with the Zstandard algorithm. The destination
// buffer must already be sufficiently sized, otherwise DecompressInto may error.
func (z *zstdDecompressor) DecompressInto(dst, src []byte) error {
	_, prefixLen := binary.Uvarint(src)
	if prefixLen <= 0 {
		return base.CorruptionErrorf("cfopts: zstd block has invalid length")
	}
	src = src[prefixLen:]
	if len(src) == 0 {
		return errors.Errorf("decodeZstd: empty src buffer")
	}
	if len(dst) == 0 {
		return errors.Errorf("decodeZstd: empty dst buffer")
	}
	_, err := z.ctx.DecompressInto(dst, src)
	return err
}

func (*zstdDecompressor) DecompressedLen(b []byte) (decompressedLen int, err error) {
	decodedLenU64, varIntLen := binary.Uvarint(b)
	if varIntLen <= 0 {
		return 0, base.CorruptionErrorf("cfopts: zstd block has invalid length")
	}
	return int(decodedLenU64), nil
}

func (z *zstdDecompressor) Close() {
	zstdDecompressorPool.Put(z)
}
