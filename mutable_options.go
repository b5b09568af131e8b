// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package cfopts

import (
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/crlib/crstrings"
	"github.com/cockroachdb/errors"
	"github.com/lsmkit/cfopts/internal/base"
	"github.com/lsmkit/cfopts/internal/compression"
	"github.com/lsmkit/cfopts/internal/invariants"
)

// MutableOptions holds the column family options that may be changed while
// the column family is open, along with the per-level limits derived from
// them.
//
// A MutableOptions is a snapshot: once it has been published (see
// ColumnFamily.Current) it must not be modified. Applying an options change
// builds a new MutableOptions via Clone and publishes that instead.
type MutableOptions struct {
	// Memtable related options.

	// WriteBufferSize is the number of bytes to accumulate in a memtable before
	// it is flushed.
	WriteBufferSize uint64
	// MaxWriteBufferNumber is the maximum number of memtables, active and
	// immutable, before writes stall.
	MaxWriteBufferNumber int
	// ArenaBlockSize is the size of the blocks the memtable arena allocates.
	ArenaBlockSize uint64
	// MemtablePrefixBloomSizeRatio is the fraction of WriteBufferSize used for
	// the memtable prefix bloom filter. Must be in [0, 1]; 0 disables the filter.
	MemtablePrefixBloomSizeRatio float64
	// MemtablePrefixBloomHugePageTLBSize is the page size used to allocate the
	// memtable prefix bloom filter from huge pages. 0 disables huge pages.
	MemtablePrefixBloomHugePageTLBSize uint64
	// MaxSuccessiveMerges bounds the number of merge operands for a key kept in
	// the memtable before a read-modify-write is performed. 0 means unlimited.
	MaxSuccessiveMerges uint64
	// FilterDeletes skips deletes of keys that are known not to exist.
	FilterDeletes bool
	// InplaceUpdateNumLocks is the number of locks used for in-place updates.
	InplaceUpdateNumLocks uint64

	// Compaction related options.

	DisableAutoCompactions          bool
	SoftPendingCompactionBytesLimit uint64
	HardPendingCompactionBytesLimit uint64
	// Level0FileNumCompactionTrigger, Level0SlowdownWritesTrigger and
	// Level0StopWritesTrigger are L0 file counts. They are only meaningful when
	// ordered: compaction <= slowdown <= stop.
	Level0FileNumCompactionTrigger int
	Level0SlowdownWritesTrigger    int
	Level0StopWritesTrigger        int
	CompactionPri                  CompactionPri
	// MaxGrandparentOverlapFactor scales MaxFileSizeForLevel into
	// MaxGrandParentOverlapBytes.
	MaxGrandparentOverlapFactor int
	// ExpandedCompactionFactor scales MaxFileSizeForLevel into
	// ExpandedCompactionByteSizeLimit.
	ExpandedCompactionFactor int
	// SourceCompactionFactor scales MaxFileSizeForLevel into
	// MaxSourceCompactionBytes.
	SourceCompactionFactor int
	// TargetFileSizeBase is the maximum file size of L1. L0 uses the same value
	// unless the compaction style is universal.
	TargetFileSizeBase uint64
	// TargetFileSizeMultiplier is the growth of the maximum file size from one
	// level to the next, starting at L2. Values <= 0 mean no growth.
	TargetFileSizeMultiplier int
	// MaxBytesForLevelBase is the byte-size target of L1.
	MaxBytesForLevelBase uint64
	// MaxBytesForLevelMultiplier is the growth of the byte-size target from one
	// level to the next.
	MaxBytesForLevelMultiplier int
	// MaxBytesForLevelMultiplierAdditional holds extra per-level multipliers
	// applied on top of MaxBytesForLevelMultiplier. Levels past the end of the
	// slice use 1.
	MaxBytesForLevelMultiplierAdditional []int
	VerifyChecksumsInCompaction          bool
	// MaxSubcompactions is the maximum number of threads a single compaction
	// may be split across.
	MaxSubcompactions int

	// Misc options.

	MaxSequentialSkipInIterations uint64
	ParanoidFileChecks            bool
	ReportBGIOStats               bool
	Compression                   Compression
	MinPartialMergeOperands       uint32
	// CompactionOptionsFIFO is copied from the ImmutableOptions; it cannot be
	// changed through SetOptions.
	CompactionOptionsFIFO FIFOCompactionOptions

	// Derived options. These are populated by RefreshDerivedOptions.

	// MaxFileSize holds the maximum file size for each level.
	MaxFileSize []uint64
	// LevelMaxBytes holds the byte-size target for each level.
	LevelMaxBytes []uint64
}

// MakeMutableOptions extracts the mutable options from opts and the FIFO
// compaction parameters from iopts, and computes the derived per-level limits
// for iopts.NumLevels levels.
func MakeMutableOptions(opts *Options, iopts *ImmutableOptions) *MutableOptions {
	m := opts.mutableOptions()
	m.CompactionOptionsFIFO = iopts.CompactionOptionsFIFO
	m.RefreshDerivedOptions(iopts)
	return m
}

// DefaultMutableOptions returns a MutableOptions with zero values for most
// fields. The derived per-level tables are left empty; RefreshDerivedOptions
// must be called before the per-level accessors are used.
func DefaultMutableOptions() *MutableOptions {
	return &MutableOptions{
		CompactionPri:           ByCompensatedSize,
		MaxSubcompactions:       1,
		Compression:             defaultCompression(compression.Supported),
		MinPartialMergeOperands: 2,
	}
}

func defaultCompression(supported func(Compression) bool) Compression {
	if supported(SnappyCompression) {
		return SnappyCompression
	}
	return NoCompression
}

// RefreshDerivedOptions recomputes the per-level limits. It must be called
// after any change to the fields they derive from, and whenever the number of
// levels in iopts changes.
//
// The maximum file size of L0 is unbounded for universal compaction and
// TargetFileSizeBase otherwise. L1 is TargetFileSizeBase, and every further
// level multiplies the previous one by TargetFileSizeMultiplier, saturating
// at math.MaxUint64.
func (m *MutableOptions) RefreshDerivedOptions(iopts *ImmutableOptions) {
	numLevels := iopts.NumLevels
	m.MaxFileSize = make([]uint64, numLevels)
	m.LevelMaxBytes = make([]uint64, numLevels)
	for i := 0; i < numLevels; i++ {
		switch {
		case i == 0 && iopts.CompactionStyle == CompactionStyleUniversal:
			m.MaxFileSize[i] = math.MaxUint64
		case i > 1:
			m.MaxFileSize[i] = base.MultiplyCheckOverflow(m.MaxFileSize[i-1], m.TargetFileSizeMultiplier)
		default:
			m.MaxFileSize[i] = m.TargetFileSizeBase
		}

		if i > 1 {
			m.LevelMaxBytes[i] = base.MultiplyCheckOverflow(
				base.MultiplyCheckOverflow(m.LevelMaxBytes[i-1], m.MaxBytesForLevelMultiplier),
				m.MaxBytesMultiplierAdditional(i-1))
		} else {
			m.LevelMaxBytes[i] = m.MaxBytesForLevelBase
		}
	}
}

// NumLevels returns the number of levels the derived tables were last
// computed for.
func (m *MutableOptions) NumLevels() int {
	return len(m.MaxFileSize)
}

// MaxFileSizeForLevel returns the maximum size of a file written to the given
// level. The level must be in [0, NumLevels()).
func (m *MutableOptions) MaxFileSizeForLevel(level int) uint64 {
	invariants.CheckBounds(level, len(m.MaxFileSize))
	return m.MaxFileSize[level]
}

// MaxBytesForLevel returns the byte-size target of the given level. The level
// must be in [0, NumLevels()).
func (m *MutableOptions) MaxBytesForLevel(level int) uint64 {
	invariants.CheckBounds(level, len(m.LevelMaxBytes))
	return m.LevelMaxBytes[level]
}

// MaxGrandParentOverlapBytes returns the maximum number of bytes a file being
// written by a level->level+1 compaction may overlap in the grandparent level
// (level+2) before the compaction cuts the file.
func (m *MutableOptions) MaxGrandParentOverlapBytes(level int) uint64 {
	return base.MultiplyCheckOverflow(m.MaxFileSizeForLevel(level), m.MaxGrandparentOverlapFactor)
}

// ExpandedCompactionByteSizeLimit returns the maximum number of bytes a
// compaction out of the given level may cover once it has been expanded with
// additional overlapping inputs.
func (m *MutableOptions) ExpandedCompactionByteSizeLimit(level int) uint64 {
	return base.MultiplyCheckOverflow(m.MaxFileSizeForLevel(level), m.ExpandedCompactionFactor)
}

// MaxSourceCompactionBytes returns the maximum number of bytes a compaction
// may read from its source level.
func (m *MutableOptions) MaxSourceCompactionBytes(level int) uint64 {
	return base.MultiplyCheckOverflow(m.MaxFileSizeForLevel(level), m.SourceCompactionFactor)
}

// MaxBytesMultiplierAdditional returns the additional byte-size multiplier for
// the given level, or 1 if none is configured.
func (m *MutableOptions) MaxBytesMultiplierAdditional(level int) int {
	if level < 0 || level >= len(m.MaxBytesForLevelMultiplierAdditional) {
		return 1
	}
	return m.MaxBytesForLevelMultiplierAdditional[level]
}

// Clone returns a deep copy of m. The clone does not share any slices with m,
// so it may be modified and published independently.
func (m *MutableOptions) Clone() *MutableOptions {
	n := *m
	n.MaxBytesForLevelMultiplierAdditional = slices.Clone(m.MaxBytesForLevelMultiplierAdditional)
	n.MaxFileSize = slices.Clone(m.MaxFileSize)
	n.LevelMaxBytes = slices.Clone(m.LevelMaxBytes)
	return &n
}

// String returns a textual dump of every option and of the derived per-level
// tables. The format is meant for humans and is not stable.
func (m *MutableOptions) String() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "[Options]\n")
	m.writeOptions(&buf)
	fmt.Fprintf(&buf, "\n")
	m.CompactionOptionsFIFO.writeSection(&buf)
	for i := range m.MaxFileSize {
		fmt.Fprintf(&buf, "\n")
		fmt.Fprintf(&buf, "[Level \"%d\"]\n", i)
		fmt.Fprintf(&buf, "  max_file_size=%d\n", m.MaxFileSize[i])
		if i < len(m.LevelMaxBytes) {
			fmt.Fprintf(&buf, "  max_bytes=%d\n", m.LevelMaxBytes[i])
		}
	}
	return buf.String()
}

// Dump writes every option and the derived per-level tables to the logger,
// one line per message.
func (m *MutableOptions) Dump(logger Logger) {
	for _, line := range crstrings.Lines(m.String()) {
		if line == "" {
			continue
		}
		logger.Infof("%s", line)
	}
}

// Fingerprint returns a hash of String(). Two MutableOptions with equal
// fingerprints configure the column family identically.
func (m *MutableOptions) Fingerprint() uint64 {
	return xxhash.Sum64String(m.String())
}

// writeOptions writes the mutable options as key=value lines, sorted by key.
func (m *MutableOptions) writeOptions(w io.Writer) {
	fmt.Fprintf(w, "  arena_block_size=%d\n", m.ArenaBlockSize)
	fmt.Fprintf(w, "  compaction_pri=%s\n", m.CompactionPri)
	fmt.Fprintf(w, "  compression=%s\n", m.Compression)
	fmt.Fprintf(w, "  disable_auto_compactions=%t\n", m.DisableAutoCompactions)
	fmt.Fprintf(w, "  expanded_compaction_factor=%d\n", m.ExpandedCompactionFactor)
	fmt.Fprintf(w, "  filter_deletes=%t\n", m.FilterDeletes)
	fmt.Fprintf(w, "  hard_pending_compaction_bytes_limit=%d\n", m.HardPendingCompactionBytesLimit)
	fmt.Fprintf(w, "  inplace_update_num_locks=%d\n", m.InplaceUpdateNumLocks)
	fmt.Fprintf(w, "  level0_file_num_compaction_trigger=%d\n", m.Level0FileNumCompactionTrigger)
	fmt.Fprintf(w, "  level0_slowdown_writes_trigger=%d\n", m.Level0SlowdownWritesTrigger)
	fmt.Fprintf(w, "  level0_stop_writes_trigger=%d\n", m.Level0StopWritesTrigger)
	fmt.Fprintf(w, "  max_bytes_for_level_base=%d\n", m.MaxBytesForLevelBase)
	fmt.Fprintf(w, "  max_bytes_for_level_multiplier=%d\n", m.MaxBytesForLevelMultiplier)
	fmt.Fprintf(w, "  max_bytes_for_level_multiplier_additional=%s\n",
		formatMultipliers(m.MaxBytesForLevelMultiplierAdditional))
	fmt.Fprintf(w, "  max_grandparent_overlap_factor=%d\n", m.MaxGrandparentOverlapFactor)
	fmt.Fprintf(w, "  max_sequential_skip_in_iterations=%d\n", m.MaxSequentialSkipInIterations)
	fmt.Fprintf(w, "  max_subcompactions=%d\n", m.MaxSubcompactions)
	fmt.Fprintf(w, "  max_successive_merges=%d\n", m.MaxSuccessiveMerges)
	fmt.Fprintf(w, "  max_write_buffer_number=%d\n", m.MaxWriteBufferNumber)
	fmt.Fprintf(w, "  memtable_prefix_bloom_huge_page_tlb_size=%d\n", m.MemtablePrefixBloomHugePageTLBSize)
	fmt.Fprintf(w, "  memtable_prefix_bloom_size_ratio=%s\n",
		strconv.FormatFloat(m.MemtablePrefixBloomSizeRatio, 'g', -1, 64))
	fmt.Fprintf(w, "  min_partial_merge_operands=%d\n", m.MinPartialMergeOperands)
	fmt.Fprintf(w, "  paranoid_file_checks=%t\n", m.ParanoidFileChecks)
	fmt.Fprintf(w, "  report_bg_io_stats=%t\n", m.ReportBGIOStats)
	fmt.Fprintf(w, "  soft_pending_compaction_bytes_limit=%d\n", m.SoftPendingCompactionBytesLimit)
	fmt.Fprintf(w, "  source_compaction_factor=%d\n", m.SourceCompactionFactor)
	fmt.Fprintf(w, "  target_file_size_base=%d\n", m.TargetFileSizeBase)
	fmt.Fprintf(w, "  target_file_size_multiplier=%d\n", m.TargetFileSizeMultiplier)
	fmt.Fprintf(w, "  verify_checksums_in_compaction=%t\n", m.VerifyChecksumsInCompaction)
	fmt.Fprintf(w, "  write_buffer_size=%d\n", m.WriteBufferSize)
}

// setOption parses value into the mutable option named key. Keys naming
// options that are fixed at open return an error marked with
// ErrImmutableOption; any other unrecognized key returns an error marked with
// ErrUnknownOption. The derived tables are not refreshed.
func (m *MutableOptions) setOption(key, value string) error {
	var err error
	switch key {
	case "arena_block_size":
		m.ArenaBlockSize, err = parseSize(value)
	case "compaction_pri":
		m.CompactionPri, err = ParseCompactionPri(value)
	case "compression":
		m.Compression, err = compression.ParseAlgorithm(value)
	case "disable_auto_compactions":
		m.DisableAutoCompactions, err = strconv.ParseBool(value)
	case "expanded_compaction_factor":
		m.ExpandedCompactionFactor, err = strconv.Atoi(value)
	case "filter_deletes":
		m.FilterDeletes, err = strconv.ParseBool(value)
	case "hard_pending_compaction_bytes_limit":
		m.HardPendingCompactionBytesLimit, err = parseSize(value)
	case "inplace_update_num_locks":
		m.InplaceUpdateNumLocks, err = parseSize(value)
	case "level0_file_num_compaction_trigger":
		m.Level0FileNumCompactionTrigger, err = strconv.Atoi(value)
	case "level0_slowdown_writes_trigger":
		m.Level0SlowdownWritesTrigger, err = strconv.Atoi(value)
	case "level0_stop_writes_trigger":
		m.Level0StopWritesTrigger, err = strconv.Atoi(value)
	case "max_bytes_for_level_base":
		m.MaxBytesForLevelBase, err = parseSize(value)
	case "max_bytes_for_level_multiplier":
		m.MaxBytesForLevelMultiplier, err = strconv.Atoi(value)
	case "max_bytes_for_level_multiplier_additional":
		m.MaxBytesForLevelMultiplierAdditional, err = parseMultipliers(value)
	case "max_grandparent_overlap_factor":
		m.MaxGrandparentOverlapFactor, err = strconv.Atoi(value)
	case "max_sequential_skip_in_iterations":
		m.MaxSequentialSkipInIterations, err = parseSize(value)
	case "max_subcompactions":
		m.MaxSubcompactions, err = strconv.Atoi(value)
	case "max_successive_merges":
		m.MaxSuccessiveMerges, err = parseSize(value)
	case "max_write_buffer_number":
		m.MaxWriteBufferNumber, err = strconv.Atoi(value)
	case "memtable_prefix_bloom_huge_page_tlb_size":
		m.MemtablePrefixBloomHugePageTLBSize, err = parseSize(value)
	case "memtable_prefix_bloom_size_ratio":
		m.MemtablePrefixBloomSizeRatio, err = strconv.ParseFloat(value, 64)
	case "min_partial_merge_operands":
		var v uint64
		v, err = strconv.ParseUint(value, 10, 32)
		m.MinPartialMergeOperands = uint32(v)
	case "paranoid_file_checks":
		m.ParanoidFileChecks, err = strconv.ParseBool(value)
	case "report_bg_io_stats":
		m.ReportBGIOStats, err = strconv.ParseBool(value)
	case "soft_pending_compaction_bytes_limit":
		m.SoftPendingCompactionBytesLimit, err = parseSize(value)
	case "source_compaction_factor":
		m.SourceCompactionFactor, err = strconv.Atoi(value)
	case "target_file_size_base":
		m.TargetFileSizeBase, err = parseSize(value)
	case "target_file_size_multiplier":
		m.TargetFileSizeMultiplier, err = strconv.Atoi(value)
	case "verify_checksums_in_compaction":
		m.VerifyChecksumsInCompaction, err = strconv.ParseBool(value)
	case "write_buffer_size":
		m.WriteBufferSize, err = parseSize(value)
	default:
		if _, ok := immutableOptionNames[key]; ok {
			return errors.Mark(errors.Newf("cfopts: option %s is fixed when the column family is opened",
				errors.Safe(key)), ErrImmutableOption)
		}
		return errors.Mark(errors.Newf("cfopts: unknown option: %s", errors.Safe(key)), ErrUnknownOption)
	}
	if err != nil {
		return errors.Wrapf(err, "cfopts: invalid value for %s", errors.Safe(key))
	}
	return nil
}

// validate verifies that the mutable options are mutually consistent, writing
// a line to buf for every violation. supported reports whether a compression
// algorithm is usable.
func (m *MutableOptions) validate(buf *strings.Builder, supported func(Compression) bool) {
	if m.WriteBufferSize == 0 {
		fmt.Fprintf(buf, "WriteBufferSize must be > 0\n")
	}
	if m.MaxWriteBufferNumber < 1 {
		fmt.Fprintf(buf, "MaxWriteBufferNumber (%d) must be >= 1\n", m.MaxWriteBufferNumber)
	}
	if r := m.MemtablePrefixBloomSizeRatio; math.IsNaN(r) || r < 0 || r > 1 {
		fmt.Fprintf(buf, "MemtablePrefixBloomSizeRatio (%g) must be in [0, 1]\n", r)
	}
	if m.Level0SlowdownWritesTrigger < m.Level0FileNumCompactionTrigger {
		fmt.Fprintf(buf, "Level0SlowdownWritesTrigger (%d) must be >= Level0FileNumCompactionTrigger (%d)\n",
			m.Level0SlowdownWritesTrigger, m.Level0FileNumCompactionTrigger)
	}
	if m.Level0StopWritesTrigger < m.Level0SlowdownWritesTrigger {
		fmt.Fprintf(buf, "Level0StopWritesTrigger (%d) must be >= Level0SlowdownWritesTrigger (%d)\n",
			m.Level0StopWritesTrigger, m.Level0SlowdownWritesTrigger)
	}
	if m.SoftPendingCompactionBytesLimit > 0 && m.HardPendingCompactionBytesLimit > 0 &&
		m.HardPendingCompactionBytesLimit < m.SoftPendingCompactionBytesLimit {
		fmt.Fprintf(buf, "HardPendingCompactionBytesLimit (%d) must be >= SoftPendingCompactionBytesLimit (%d)\n",
			m.HardPendingCompactionBytesLimit, m.SoftPendingCompactionBytesLimit)
	}
	if m.TargetFileSizeBase == 0 {
		fmt.Fprintf(buf, "TargetFileSizeBase must be > 0\n")
	}
	if m.MaxBytesForLevelBase == 0 {
		fmt.Fprintf(buf, "MaxBytesForLevelBase must be > 0\n")
	}
	for i, v := range m.MaxBytesForLevelMultiplierAdditional {
		if v < 0 {
			fmt.Fprintf(buf, "MaxBytesForLevelMultiplierAdditional[%d] (%d) must be >= 0\n", i, v)
		}
	}
	if m.MaxSubcompactions < 1 {
		fmt.Fprintf(buf, "MaxSubcompactions (%d) must be >= 1\n", m.MaxSubcompactions)
	}
	if !supported(m.Compression) {
		fmt.Fprintf(buf, "Compression (%s) is not supported by this build\n", m.Compression)
	}
}

// parseSize parses an unsigned byte size or count. A single k, m, g or t
// suffix (either case) scales the value by the corresponding power of 1024.
func parseSize(s string) (uint64, error) {
	var shift uint
	if n := len(s); n > 0 {
		switch s[n-1] {
		case 'k', 'K':
			shift = 10
		case 'm', 'M':
			shift = 20
		case 'g', 'G':
			shift = 30
		case 't', 'T':
			shift = 40
		}
		if shift > 0 {
			s = s[:n-1]
		}
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint64>>shift {
		return 0, errors.Newf("value %s overflows uint64", errors.Safe(s))
	}
	return v << shift, nil
}

// parseMultipliers parses a colon separated list of integers. The empty string
// yields a nil slice.
func parseMultipliers(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ":")
	res := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		res[i] = v
	}
	return res, nil
}

func formatMultipliers(v []int) string {
	parts := make([]string, len(v))
	for i := range v {
		parts[i] = strconv.Itoa(v[i])
	}
	return strings.Join(parts, ":")
}
