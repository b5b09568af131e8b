// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package compression implements the block compression algorithms a column
// family can be configured with, and probes which of them are usable in the
// running binary.
package compression

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

// Algorithm identifies a compression algorithm.
type Algorithm uint8

// The available compression algorithms.
const (
	NoCompression Algorithm = iota
	Snappy
	Zstd
	MinLZ
	nAlgorithms
)

// zstdDefaultLevel is the zstd level used for blocks.
const zstdDefaultLevel = 3

// String implements fmt.Stringer.
func (a Algorithm) String() string {
	switch a {
	case NoCompression:
		return "NoCompression"
	case Snappy:
		return "Snappy"
	case Zstd:
		return "ZSTD"
	case MinLZ:
		return "MinLZ"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(a))
	}
}

// SafeFormat implements redact.SafeFormatter.
func (a Algorithm) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(a.String()))
}

// ParseAlgorithm returns the Algorithm with the given name. Both the String()
// form and the RocksDB-style constant names (e.g. "kSnappyCompression") are
// accepted.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "NoCompression", "none", "kNoCompression":
		return NoCompression, nil
	case "Snappy", "snappy", "kSnappyCompression":
		return Snappy, nil
	case "ZSTD", "zstd", "kZSTD":
		return Zstd, nil
	case "MinLZ", "minlz":
		return MinLZ, nil
	}
	return 0, errors.Newf("unknown compression algorithm %q", errors.Safe(s))
}

// Compressor compresses blocks with a fixed algorithm.
type Compressor interface {
	Algorithm() Algorithm
	// Compress appends the compressed form of src to dst[:0] and returns it.
	Compress(dst, src []byte) []byte
	// Close must be called when the Compressor is no longer needed.
	Close()
}

// Decompressor decompresses blocks produced by the matching Compressor.
type Decompressor interface {
	// DecompressInto decompresses src into dst. dst must be exactly
	// DecompressedLen(src) bytes long.
	DecompressInto(dst, src []byte) error
	// DecompressedLen returns the length of the decompressed form of b.
	DecompressedLen(b []byte) (decompressedLen int, err error)
	// Close must be called when the Decompressor is no longer needed.
	Close()
}

// GetCompressor returns a Compressor for the given algorithm.
func GetCompressor(a Algorithm) Compressor {
	switch a {
	case NoCompression:
		return noopCompressor{}
	case Snappy:
		return snappyCompressor{}
	case Zstd:
		return getZstdCompressor(zstdDefaultLevel)
	case MinLZ:
		return minlzCompressorFastest
	default:
		panic(errors.AssertionFailedf("invalid compression algorithm %d", a))
	}
}

// GetDecompressor returns a Decompressor for the given algorithm.
func GetDecompressor(a Algorithm) Decompressor {
	switch a {
	case NoCompression:
		return noopDecompressor{}
	case Snappy:
		return snappyDecompressor{}
	case Zstd:
		return getZstdDecompressor()
	case MinLZ:
		return minlzDecompressor{}
	default:
		panic(errors.AssertionFailedf("invalid compression algorithm %d", a))
	}
}

// Decompress is a convenience wrapper that allocates the destination buffer
// and decompresses b into it.
func Decompress(a Algorithm, b []byte) ([]byte, error) {
	d := GetDecompressor(a)
	defer d.Close()
	n, err := d.DecompressedLen(b)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if err := d.DecompressInto(buf, b); err != nil {
		return nil, err
	}
	return buf, nil
}

var probes [nAlgorithms]struct {
	once sync.Once
	err  error
}

// probePayload is compressible, so a codec that silently stores blocks
// uncompressed is still exercised through its encoder.
var probePayload = bytes.Repeat([]byte("cfopts compression probe "), 64)

// Supported reports whether the algorithm is usable in this binary. The first
// call for each algorithm round-trips a small payload through its codec; the
// result is cached for the lifetime of the process.
func Supported(a Algorithm) bool {
	return ProbeError(a) == nil
}

// ProbeError returns the reason the algorithm is unusable, or nil if it is
// usable.
func ProbeError(a Algorithm) error {
	if a >= nAlgorithms {
		return errors.Newf("unknown compression algorithm %d", errors.Safe(uint8(a)))
	}
	p := &probes[a]
	p.once.Do(func() { p.err = probe(a) })
	return p.err
}

func probe(a Algorithm) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("compression: %s probe panicked: %v", a, r)
		}
	}()
	c := GetCompressor(a)
	defer c.Close()
	compressed := c.Compress(nil, probePayload)
	got, err := Decompress(a, compressed)
	if err != nil {
		return errors.Wrapf(err, "compression: %s probe", a)
	}
	if !bytes.Equal(got, probePayload) {
		return errors.Newf("compression: %s probe round trip mismatch", a)
	}
	return nil
}
