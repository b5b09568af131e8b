// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package cfopts

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/lsmkit/cfopts/internal/base"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, opts.Validate())

	require.Equal(t, uint64(64<<20), opts.WriteBufferSize)
	require.Equal(t, uint64(8<<20), opts.ArenaBlockSize)
	require.Equal(t, 2, opts.MaxWriteBufferNumber)
	require.Equal(t, uint64(64<<30), opts.SoftPendingCompactionBytesLimit)
	require.Equal(t, uint64(256<<30), opts.HardPendingCompactionBytesLimit)
	require.Equal(t, 4, opts.Level0FileNumCompactionTrigger)
	require.Equal(t, 20, opts.Level0SlowdownWritesTrigger)
	require.Equal(t, 24, opts.Level0StopWritesTrigger)
	require.Equal(t, uint64(2<<20), opts.TargetFileSizeBase)
	require.Equal(t, uint64(10<<20), opts.MaxBytesForLevelBase)
	require.Equal(t, 10, opts.MaxBytesForLevelMultiplier)
	require.Equal(t, 7, opts.NumLevels)
	require.Equal(t, CompactionStyleLevel, opts.CompactionStyle)
	require.Equal(t, uint64(1<<30), opts.CompactionOptionsFIFO.MaxTableFilesSize)
	require.True(t, opts.VerifyChecksumsInCompaction)
	require.Equal(t, SnappyCompression, opts.Compression)
	require.NotNil(t, opts.Logger)
}

func TestEnsureDefaults(t *testing.T) {
	opts := &Options{}
	opts.EnsureDefaults()
	// Fields whose zero value is a valid setting are left alone.
	require.Equal(t, NoCompression, opts.Compression)
	require.Zero(t, opts.SoftPendingCompactionBytesLimit)
	require.Zero(t, opts.HardPendingCompactionBytesLimit)
	require.False(t, opts.VerifyChecksumsInCompaction)
	require.NoError(t, opts.Validate())

	// The arena block size is derived from the write buffer size and rounded
	// up to a multiple of 4 KB.
	opts = &Options{WriteBufferSize: 1000000}
	opts.EnsureDefaults()
	require.Equal(t, uint64(126976), opts.ArenaBlockSize)

	opts = &Options{ArenaBlockSize: 1234}
	opts.EnsureDefaults()
	require.Equal(t, uint64(1234), opts.ArenaBlockSize)
}

func TestOptionsValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(o *Options)
		want   string
	}{
		{
			name:   "stop-before-slowdown",
			modify: func(o *Options) { o.Level0StopWritesTrigger = 2 },
			want:   "Level0StopWritesTrigger (2) must be >= Level0SlowdownWritesTrigger (20)\n",
		},
		{
			name:   "slowdown-before-compaction",
			modify: func(o *Options) { o.Level0SlowdownWritesTrigger = 1; o.Level0StopWritesTrigger = 1 },
			want:   "Level0SlowdownWritesTrigger (1) must be >= Level0FileNumCompactionTrigger (4)\n",
		},
		{
			name:   "hard-below-soft",
			modify: func(o *Options) { o.HardPendingCompactionBytesLimit = 1 },
			want:   "HardPendingCompactionBytesLimit (1) must be >= SoftPendingCompactionBytesLimit (68719476736)\n",
		},
		{
			name:   "hard-disabled",
			modify: func(o *Options) { o.HardPendingCompactionBytesLimit = 0 },
		},
		{
			name:   "bloom-ratio",
			modify: func(o *Options) { o.MemtablePrefixBloomSizeRatio = 1.5 },
			want:   "MemtablePrefixBloomSizeRatio (1.5) must be in [0, 1]\n",
		},
		{
			name:   "negative-additional",
			modify: func(o *Options) { o.MaxBytesForLevelMultiplierAdditional = []int{1, -1} },
			want:   "MaxBytesForLevelMultiplierAdditional[1] (-1) must be >= 0\n",
		},
		{
			name:   "one-level-leveled",
			modify: func(o *Options) { o.NumLevels = 1 },
			want:   "NumLevels (1) must be >= 2 for level compaction\n",
		},
		{
			name:   "one-level-universal",
			modify: func(o *Options) { o.NumLevels = 1; o.CompactionStyle = CompactionStyleUniversal },
		},
		{
			name:   "bad-style",
			modify: func(o *Options) { o.CompactionStyle = 9 },
			want:   "CompactionStyle (9) is invalid\n",
		},
		{
			name: "multiple",
			modify: func(o *Options) {
				o.MaxWriteBufferNumber = 0
				o.MaxSubcompactions = -1
			},
			want: "MaxWriteBufferNumber (0) must be >= 1\nMaxSubcompactions (-1) must be >= 1\n",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			tc.modify(opts)
			err := opts.Validate()
			if tc.want == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Equal(t, tc.want, err.Error())
		})
	}
}

func TestOptionsClone(t *testing.T) {
	var nilOpts *Options
	require.Equal(t, &Options{}, nilOpts.Clone())

	opts := DefaultOptions()
	opts.MaxBytesForLevelMultiplierAdditional = []int{1, 2}
	c := opts.Clone()
	require.Equal(t, opts, c)
	c.MaxBytesForLevelMultiplierAdditional[0] = 5
	require.Equal(t, 1, opts.MaxBytesForLevelMultiplierAdditional[0])
}

func TestOptionsStringParseRoundTrip(t *testing.T) {
	opts := DefaultOptions()
	opts.WriteBufferSize = 128 << 20
	opts.MemtablePrefixBloomSizeRatio = 0.125
	opts.FilterDeletes = true
	opts.CompactionPri = MinOverlappingRatio
	opts.MaxBytesForLevelMultiplierAdditional = []int{1, 2, 3}
	opts.Compression = ZstdCompression
	opts.NumLevels = 5
	opts.CompactionStyle = CompactionStyleFIFO
	opts.CompactionOptionsFIFO = FIFOCompactionOptions{
		MaxTableFilesSize: 4 << 30,
		TTL:               90 * time.Minute,
		AllowCompaction:   true,
	}

	s := opts.String()
	require.Contains(t, s, "  compaction_pri=min-overlapping-ratio\n")
	require.Contains(t, s, "  max_bytes_for_level_multiplier_additional=1:2:3\n")
	require.Contains(t, s, "  ttl=1h30m0s\n")

	parsed := &Options{}
	require.NoError(t, parsed.Parse(s, nil))
	parsed.Logger = opts.Logger
	require.Equal(t, opts, parsed)
	require.Equal(t, s, parsed.String())
}

func TestOptionsParseRocksDB(t *testing.T) {
	const rocksdbOptions = `
# This is a RocksDB option file.
[Version]
  rocksdb_version=4.3.0

[DBOptions]
  max_background_compactions=1

[CFOptions "default"]
  comparator=leveldb.BytewiseComparator
  write_buffer_size=134217728
  compression=kZSTD
  compaction_style=kCompactionStyleUniversal
  compaction_pri=kOldestSmallestSeqFirst
  compaction_options_fifo={max_table_files_size=1073741824;}
  num_levels=5
  max_bytes_for_level_multiplier_additional=1:1:1:1:1:1:1

[TableOptions/BlockBasedTable "default"]
  block_size=4096
`
	opts := DefaultOptions()
	err := opts.Parse(rocksdbOptions, nil)
	require.True(t, errors.Is(err, ErrUnknownOption), "%v", err)
	require.Contains(t, err.Error(), "Version.rocksdb_version")

	var skipped []string
	hooks := &ParseHooks{
		SkipUnknown: func(name, value string) bool {
			skipped = append(skipped, name)
			return true
		},
	}
	opts = DefaultOptions()
	require.NoError(t, opts.Parse(rocksdbOptions, hooks))
	require.Equal(t, []string{
		"Version.rocksdb_version",
		"DBOptions.max_background_compactions",
		"Options.comparator",
		"Options.compaction_options_fifo",
		"TableOptions/BlockBasedTable \"default\".block_size",
	}, skipped)

	require.Equal(t, uint64(128<<20), opts.WriteBufferSize)
	require.Equal(t, ZstdCompression, opts.Compression)
	require.Equal(t, CompactionStyleUniversal, opts.CompactionStyle)
	require.Equal(t, OldestSmallestSeqFirst, opts.CompactionPri)
	require.Equal(t, 5, opts.NumLevels)
	require.Equal(t, []int{1, 1, 1, 1, 1, 1, 1}, opts.MaxBytesForLevelMultiplierAdditional)
	// Options not present keep their values.
	require.Equal(t, 24, opts.Level0StopWritesTrigger)
}

func TestOptionsParseErrors(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"[Options]\n  no_equals_sign\n", `invalid key=value syntax: "no_equals_sign"`},
		{"[Options]\n  write_buffer_size=big\n", "cfopts: invalid value for write_buffer_size"},
		{"[Options]\n  num_levels=x\n", "cfopts: invalid value for num_levels"},
		{"[Options]\n  compaction_style=sideways\n", `unknown compaction style "sideways"`},
		{"[FIFO Compaction]\n  ttl=soon\n", "cfopts: invalid value for FIFO Compaction.ttl"},
		{"[FIFO Compaction]\n  size=1\n", "cfopts: unknown option: FIFO Compaction.size"},
	}
	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			opts := DefaultOptions()
			err := opts.Parse(tc.in, nil)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}

	err := DefaultOptions().Parse("[Options]\n  garbage\n", nil)
	require.True(t, errors.Is(err, base.ErrCorruption), "%v", err)
}

func TestCheckCompatibility(t *testing.T) {
	opts := DefaultOptions()
	s := opts.String()
	require.NoError(t, opts.CheckCompatibility(s))

	// Mutable options may differ.
	other := opts.Clone()
	other.WriteBufferSize = 1 << 20
	require.NoError(t, other.CheckCompatibility(s))

	other.NumLevels = 5
	err := other.CheckCompatibility(s)
	require.Error(t, err)
	require.Contains(t, err.Error(), "num_levels from file 7 != num_levels from options 5")

	other = opts.Clone()
	other.CompactionStyle = CompactionStyleUniversal
	err = other.CheckCompatibility(s)
	require.Error(t, err)
	require.Contains(t, err.Error(), "compaction_style from file level != compaction_style from options universal")

	// Unknown keys written by other versions are ignored.
	require.NoError(t, opts.CheckCompatibility(s+"[Options]\n  future_option=1\n"))
}

func TestCompactionEnums(t *testing.T) {
	for s := CompactionStyleLevel; s <= CompactionStyleNone; s++ {
		parsed, err := ParseCompactionStyle(s.String())
		require.NoError(t, err)
		require.Equal(t, s, parsed)
		require.Equal(t, s.String(), string(redact.Sprintf("%s", s)))
	}
	require.Equal(t, "unknown(9)", CompactionStyle(9).String())
	_, err := ParseCompactionStyle("unknown(9)")
	require.Error(t, err)

	for p := ByCompensatedSize; p <= MinOverlappingRatio; p++ {
		parsed, err := ParseCompactionPri(p.String())
		require.NoError(t, err)
		require.Equal(t, p, parsed)
		require.Equal(t, p.String(), string(redact.Sprintf("%s", p)))
	}
	parsed, err := ParseCompactionPri("kMinOverlappingRatio")
	require.NoError(t, err)
	require.Equal(t, MinOverlappingRatio, parsed)
	require.Equal(t, "unknown(-1)", CompactionPri(-1).String())
}

func TestMakeImmutableOptions(t *testing.T) {
	opts := &Options{NumLevels: 3, CompactionStyle: CompactionStyleUniversal}
	iopts := MakeImmutableOptions(opts)
	require.Equal(t, 3, iopts.NumLevels)
	require.Equal(t, CompactionStyleUniversal, iopts.CompactionStyle)
	require.NotNil(t, iopts.Logger)
	require.True(t, iopts.CompressionSupported(NoCompression))

	var logger base.InMemLogger
	opts.Logger = &logger
	iopts = MakeImmutableOptions(opts)
	iopts.Logger.Infof("levels=%d", iopts.NumLevels)
	require.Equal(t, "levels=3\n", logger.String())
}
