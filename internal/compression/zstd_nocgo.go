// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build !cgo

package compression

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
	"github.com/lsmkit/cfopts/internal/base"
)

// UseStandardZstdLib indicates whether the zstd implementation is a port of the
// official one in the facebook/zstd repository. Without cgo the pure Go
// implementation is used, and it does not produce byte-identical output.
const UseStandardZstdLib = false

type zstdCompressor struct {
	enc *zstd.Encoder
}

var _ Compressor = (*zstdCompressor)(nil)

func getZstdCompressor(level int) *zstdCompressor {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithEncoderConcurrency(1))
	if err != nil {
		panic(errors.Wrap(err, "zstd compressor"))
	}
	return &zstdCompressor{enc: enc}
}

func (z *zstdCompressor) Algorithm() Algorithm { return Zstd }

// Compress prefixes the payload with a varint encoding the length of the
// decompressed block.
func (z *zstdCompressor) Compress(dst, src []byte) []byte {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(src)))
	dst = append(dst[:0], lenBuf[:n]...)
	return z.enc.EncodeAll(src, dst)
}

func (z *zstdCompressor) Close() {
	if err := z.enc.Close(); err != nil {
		panic(err)
	}
}

type zstdDecompressor struct {
	dec *zstd.Decoder
}

var _ Decompressor = (*zstdDecompressor)(nil)

func getZstdDecompressor() *zstdDecompressor {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		panic(errors.Wrap(err, "zstd decompressor"))
	}
	return &zstdDecompressor{dec: dec}
}

func (z *zstdDecompressor) DecompressInto(dst, src []byte) error {
	_, prefixLen := binary.Uvarint(src)
	if prefixLen <= 0 {
		return base.CorruptionErrorf("cfopts: zstd block has invalid length")
	}
	result, err := z.dec.DecodeAll(src[prefixLen:], dst[:0])
	if err != nil {
		return err
	}
	if len(result) != len(dst) || (len(result) > 0 && &result[0] != &dst[0]) {
		return base.CorruptionErrorf("cfopts: decompressed into unexpected buffer: %p != %p",
			errors.Safe(result), errors.Safe(dst))
	}
	return nil
}

func (z *zstdDecompressor) DecompressedLen(b []byte) (decompressedLen int, err error) {
	decodedLenU64, varIntLen := binary.Uvarint(b)
	if varIntLen <= 0 {
		return 0, base.CorruptionErrorf("cfopts: zstd block has invalid length")
	}
	return int(decodedLenU64), nil
}

func (z *zstdDecompressor) Close() {
	z.dec.Close()
}
