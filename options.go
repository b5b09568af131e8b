// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package cfopts

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/lsmkit/cfopts/internal/base"
	"github.com/lsmkit/cfopts/internal/compression"
)

const (
	defaultNumLevels                       = 7
	defaultWriteBufferSize                 = 64 << 20 // 64 MB
	defaultMaxWriteBufferNumber            = 2
	defaultInplaceUpdateNumLocks           = 10000
	defaultSoftPendingCompactionBytesLimit = 64 << 30  // 64 GB
	defaultHardPendingCompactionBytesLimit = 256 << 30 // 256 GB
	defaultL0CompactionTrigger             = 4
	defaultL0SlowdownWritesTrigger         = 20
	defaultL0StopWritesTrigger             = 24
	defaultMaxGrandparentOverlapFactor     = 10
	defaultExpandedCompactionFactor        = 25
	defaultSourceCompactionFactor          = 1
	defaultTargetFileSizeBase              = 2 << 20 // 2 MB
	defaultTargetFileSizeMultiplier        = 1
	defaultMaxBytesForLevelBase            = 10 << 20 // 10 MB
	defaultMaxBytesForLevelMultiplier      = 10
	defaultMaxSequentialSkipInIterations   = 8
	defaultMinPartialMergeOperands         = 2
	defaultFIFOMaxTableFilesSize           = 1 << 30 // 1 GB
)

// Logger exports the base.Logger type.
type Logger = base.Logger

// DefaultLogger logs to the Go stdlib logs.
var DefaultLogger = base.DefaultLogger{}

// Compression exports the compression.Algorithm type.
type Compression = compression.Algorithm

// Exported Compression constants.
const (
	NoCompression     = compression.NoCompression
	SnappyCompression = compression.Snappy
	ZstdCompression   = compression.Zstd
	MinLZCompression  = compression.MinLZ
)

// ErrUnknownOption is returned (marked, use errors.Is) when an option name is
// not recognized.
var ErrUnknownOption = base.ErrUnknownOption

// ErrImmutableOption is returned (marked, use errors.Is) when SetOptions is
// asked to change an option that is fixed when the column family is opened.
var ErrImmutableOption = base.ErrImmutableOption

// CompactionStyle selects the compaction strategy of a column family. It is
// fixed when the column family is opened.
type CompactionStyle int8

const (
	// CompactionStyleLevel is leveled compaction: every level has a byte-size
	// target and files are compacted into the next level when it is exceeded.
	CompactionStyleLevel CompactionStyle = iota
	// CompactionStyleUniversal keeps data in sorted runs that are merged when
	// their size ratio is exceeded. L0 files are not size capped.
	CompactionStyleUniversal
	// CompactionStyleFIFO deletes the oldest files once the total size or age
	// limit of CompactionOptionsFIFO is exceeded.
	CompactionStyleFIFO
	// CompactionStyleNone disables background compactions.
	CompactionStyleNone
)

// String implements fmt.Stringer.
func (s CompactionStyle) String() string {
	switch s {
	case CompactionStyleLevel:
		return "level"
	case CompactionStyleUniversal:
		return "universal"
	case CompactionStyleFIFO:
		return "fifo"
	case CompactionStyleNone:
		return "none"
	default:
		return fmt.Sprintf("unknown(%d)", int8(s))
	}
}

// SafeFormat implements redact.SafeFormatter.
func (s CompactionStyle) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(s.String()))
}

// ParseCompactionStyle parses the String() form of a CompactionStyle. The
// RocksDB constant names (e.g. "kCompactionStyleLevel") are also accepted.
func ParseCompactionStyle(s string) (CompactionStyle, error) {
	switch s {
	case "level", "kCompactionStyleLevel":
		return CompactionStyleLevel, nil
	case "universal", "kCompactionStyleUniversal":
		return CompactionStyleUniversal, nil
	case "fifo", "kCompactionStyleFIFO":
		return CompactionStyleFIFO, nil
	case "none", "kCompactionStyleNone":
		return CompactionStyleNone, nil
	}
	return 0, errors.Newf("unknown compaction style %q", errors.Safe(s))
}

// CompactionPri selects which file of a level is compacted first.
type CompactionPri int8

const (
	// ByCompensatedSize picks the largest file, with the size of deletions
	// weighted up.
	ByCompensatedSize CompactionPri = iota
	// OldestLargestSeqFirst picks the file whose latest update is oldest.
	OldestLargestSeqFirst
	// OldestSmallestSeqFirst picks the file whose key range has not been
	// compacted for the longest time.
	OldestSmallestSeqFirst
	// MinOverlappingRatio picks the file with the smallest ratio of overlapping
	// bytes in the next level to its own size.
	MinOverlappingRatio
)

// String implements fmt.Stringer.
func (p CompactionPri) String() string {
	switch p {
	case ByCompensatedSize:
		return "by-compensated-size"
	case OldestLargestSeqFirst:
		return "oldest-largest-seq-first"
	case OldestSmallestSeqFirst:
		return "oldest-smallest-seq-first"
	case MinOverlappingRatio:
		return "min-overlapping-ratio"
	default:
		return fmt.Sprintf("unknown(%d)", int8(p))
	}
}

// SafeFormat implements redact.SafeFormatter.
func (p CompactionPri) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(p.String()))
}

// ParseCompactionPri parses the String() form of a CompactionPri. The RocksDB
// constant names (e.g. "kByCompensatedSize") are also accepted.
func ParseCompactionPri(s string) (CompactionPri, error) {
	switch s {
	case "by-compensated-size", "kByCompensatedSize":
		return ByCompensatedSize, nil
	case "oldest-largest-seq-first", "kOldestLargestSeqFirst":
		return OldestLargestSeqFirst, nil
	case "oldest-smallest-seq-first", "kOldestSmallestSeqFirst":
		return OldestSmallestSeqFirst, nil
	case "min-overlapping-ratio", "kMinOverlappingRatio":
		return MinOverlappingRatio, nil
	}
	return 0, errors.Newf("unknown compaction priority %q", errors.Safe(s))
}

// FIFOCompactionOptions configures CompactionStyleFIFO.
type FIFOCompactionOptions struct {
	// MaxTableFilesSize is the total size of table files above which the oldest
	// files are deleted.
	//
	// The default value is 1 GB.
	MaxTableFilesSize uint64
	// TTL deletes files older than this. 0 disables age based deletion.
	TTL time.Duration
	// AllowCompaction permits intra-L0 compactions to reduce the file count.
	AllowCompaction bool
}

// EnsureDefaults ensures that the default values for the FIFO options are set
// if a valid value was not already specified.
func (o *FIFOCompactionOptions) EnsureDefaults() {
	if o.MaxTableFilesSize == 0 {
		o.MaxTableFilesSize = defaultFIFOMaxTableFilesSize
	}
}

func (o FIFOCompactionOptions) writeSection(w io.Writer) {
	fmt.Fprintf(w, "[FIFO Compaction]\n")
	fmt.Fprintf(w, "  allow_compaction=%t\n", o.AllowCompaction)
	fmt.Fprintf(w, "  max_table_files_size=%d\n", o.MaxTableFilesSize)
	fmt.Fprintf(w, "  ttl=%s\n", o.TTL)
}

// immutableOptionNames are the [Options] keys that are fixed when the column
// family is opened.
var immutableOptionNames = map[string]struct{}{
	"compaction_options_fifo": {},
	"compaction_style":        {},
	"num_levels":              {},
}

// Options holds the parameters for configuring a column family. The fields
// mirror MutableOptions, plus the options that are fixed when the column
// family is opened (NumLevels, CompactionStyle, CompactionOptionsFIFO and
// Logger).
//
// Zero values of numeric fields are replaced by defaults in EnsureDefaults.
// Boolean fields, Compression, and the pending compaction byte limits treat
// the zero value as a valid setting; DefaultOptions sets their defaults.
type Options struct {
	// WriteBufferSize is the number of bytes to accumulate in a memtable before
	// it is flushed.
	//
	// The default value is 64 MB.
	WriteBufferSize uint64

	// MaxWriteBufferNumber is the maximum number of memtables, active and
	// immutable, before writes stall.
	//
	// The default value is 2.
	MaxWriteBufferNumber int

	// ArenaBlockSize is the size of the blocks the memtable arena allocates.
	//
	// The default value is WriteBufferSize/8, rounded up to a multiple of 4 KB.
	ArenaBlockSize uint64

	// MemtablePrefixBloomSizeRatio is the fraction of WriteBufferSize used for
	// the memtable prefix bloom filter. 0 disables the filter.
	MemtablePrefixBloomSizeRatio float64

	// MemtablePrefixBloomHugePageTLBSize is the page size used to allocate the
	// memtable prefix bloom filter from huge pages. 0 disables huge pages.
	MemtablePrefixBloomHugePageTLBSize uint64

	// MaxSuccessiveMerges bounds the number of merge operands for a key kept in
	// the memtable. 0 means unlimited.
	MaxSuccessiveMerges uint64

	// FilterDeletes skips deletes of keys that are known not to exist.
	FilterDeletes bool

	// InplaceUpdateNumLocks is the number of locks used for in-place updates.
	//
	// The default value is 10000.
	InplaceUpdateNumLocks uint64

	// DisableAutoCompactions stops automatic compactions. Manual compactions are
	// still possible.
	DisableAutoCompactions bool

	// SoftPendingCompactionBytesLimit slows writes down once the estimated
	// number of bytes awaiting compaction exceeds it. 0 disables the limit.
	//
	// The default value (via DefaultOptions) is 64 GB.
	SoftPendingCompactionBytesLimit uint64

	// HardPendingCompactionBytesLimit stops writes once the estimated number of
	// bytes awaiting compaction exceeds it. 0 disables the limit.
	//
	// The default value (via DefaultOptions) is 256 GB.
	HardPendingCompactionBytesLimit uint64

	// Level0FileNumCompactionTrigger is the number of L0 files that triggers an
	// L0 compaction.
	//
	// The default value is 4.
	Level0FileNumCompactionTrigger int

	// Level0SlowdownWritesTrigger is the number of L0 files at which writes are
	// slowed down.
	//
	// The default value is 20.
	Level0SlowdownWritesTrigger int

	// Level0StopWritesTrigger is the number of L0 files at which writes stop.
	//
	// The default value is 24.
	Level0StopWritesTrigger int

	// CompactionPri selects which file of a level is compacted first.
	CompactionPri CompactionPri

	// MaxGrandparentOverlapFactor bounds the grandparent overlap of a
	// compaction output file, as a multiple of the level's maximum file size.
	//
	// The default value is 10.
	MaxGrandparentOverlapFactor int

	// ExpandedCompactionFactor bounds the total size of an expanded
	// compaction, as a multiple of the level's maximum file size.
	//
	// The default value is 25.
	ExpandedCompactionFactor int

	// SourceCompactionFactor bounds the bytes read from the source level of a
	// compaction, as a multiple of the level's maximum file size.
	//
	// The default value is 1.
	SourceCompactionFactor int

	// TargetFileSizeBase is the maximum file size of L1.
	//
	// The default value is 2 MB.
	TargetFileSizeBase uint64

	// TargetFileSizeMultiplier is the growth of the maximum file size from one
	// level to the next.
	//
	// The default value is 1.
	TargetFileSizeMultiplier int

	// MaxBytesForLevelBase is the byte-size target of L1.
	//
	// The default value is 10 MB.
	MaxBytesForLevelBase uint64

	// MaxBytesForLevelMultiplier is the growth of the byte-size target from one
	// level to the next.
	//
	// The default value is 10.
	MaxBytesForLevelMultiplier int

	// MaxBytesForLevelMultiplierAdditional holds extra per-level multipliers.
	// Levels past the end of the slice use 1.
	MaxBytesForLevelMultiplierAdditional []int

	// VerifyChecksumsInCompaction verifies block checksums of compaction
	// inputs.
	//
	// The default value (via DefaultOptions) is true.
	VerifyChecksumsInCompaction bool

	// MaxSubcompactions is the maximum number of threads a single compaction
	// may be split across.
	//
	// The default value is 1.
	MaxSubcompactions int

	// MaxSequentialSkipInIterations is the number of keys an iterator skips
	// sequentially before reseeking.
	//
	// The default value is 8.
	MaxSequentialSkipInIterations uint64

	// ParanoidFileChecks reads back every file written by a flush or
	// compaction.
	ParanoidFileChecks bool

	// ReportBGIOStats reports IO stats of flushes and compactions.
	ReportBGIOStats bool

	// Compression is the block compression algorithm.
	//
	// The default value (via DefaultOptions) is Snappy if this build supports
	// it, and NoCompression otherwise.
	Compression Compression

	// MinPartialMergeOperands is the minimum number of operands before a
	// partial merge is attempted.
	//
	// The default value is 2.
	MinPartialMergeOperands uint32

	// NumLevels is the number of levels of the LSM. Fixed at open.
	//
	// The default value is 7.
	NumLevels int

	// CompactionStyle is the compaction strategy. Fixed at open.
	CompactionStyle CompactionStyle

	// CompactionOptionsFIFO configures CompactionStyleFIFO. Fixed at open.
	CompactionOptionsFIFO FIFOCompactionOptions

	// Logger used to write log messages.
	//
	// The default logger uses the Go standard library log package.
	Logger Logger
}

// DefaultOptions returns a new Options object with the default values set.
func DefaultOptions() *Options {
	o := &Options{
		SoftPendingCompactionBytesLimit: defaultSoftPendingCompactionBytesLimit,
		HardPendingCompactionBytesLimit: defaultHardPendingCompactionBytesLimit,
		VerifyChecksumsInCompaction:     true,
		Compression:                     defaultCompression(compression.Supported),
	}
	o.EnsureDefaults()
	return o
}

// EnsureDefaults ensures that the default values for all options are set if a
// valid value was not already specified.
func (o *Options) EnsureDefaults() {
	if o.WriteBufferSize == 0 {
		o.WriteBufferSize = defaultWriteBufferSize
	}
	if o.MaxWriteBufferNumber <= 0 {
		o.MaxWriteBufferNumber = defaultMaxWriteBufferNumber
	}
	if o.ArenaBlockSize == 0 {
		// Round up to a multiple of 4 KB.
		const align = 4 << 10
		o.ArenaBlockSize = (o.WriteBufferSize/8 + align - 1) / align * align
	}
	if o.InplaceUpdateNumLocks == 0 {
		o.InplaceUpdateNumLocks = defaultInplaceUpdateNumLocks
	}
	if o.Level0FileNumCompactionTrigger <= 0 {
		o.Level0FileNumCompactionTrigger = defaultL0CompactionTrigger
	}
	if o.Level0SlowdownWritesTrigger <= 0 {
		o.Level0SlowdownWritesTrigger = defaultL0SlowdownWritesTrigger
	}
	if o.Level0StopWritesTrigger <= 0 {
		o.Level0StopWritesTrigger = defaultL0StopWritesTrigger
	}
	if o.MaxGrandparentOverlapFactor <= 0 {
		o.MaxGrandparentOverlapFactor = defaultMaxGrandparentOverlapFactor
	}
	if o.ExpandedCompactionFactor <= 0 {
		o.ExpandedCompactionFactor = defaultExpandedCompactionFactor
	}
	if o.SourceCompactionFactor <= 0 {
		o.SourceCompactionFactor = defaultSourceCompactionFactor
	}
	if o.TargetFileSizeBase == 0 {
		o.TargetFileSizeBase = defaultTargetFileSizeBase
	}
	if o.TargetFileSizeMultiplier <= 0 {
		o.TargetFileSizeMultiplier = defaultTargetFileSizeMultiplier
	}
	if o.MaxBytesForLevelBase == 0 {
		o.MaxBytesForLevelBase = defaultMaxBytesForLevelBase
	}
	if o.MaxBytesForLevelMultiplier <= 0 {
		o.MaxBytesForLevelMultiplier = defaultMaxBytesForLevelMultiplier
	}
	if o.MaxSubcompactions <= 0 {
		o.MaxSubcompactions = 1
	}
	if o.MaxSequentialSkipInIterations == 0 {
		o.MaxSequentialSkipInIterations = defaultMaxSequentialSkipInIterations
	}
	if o.MinPartialMergeOperands == 0 {
		o.MinPartialMergeOperands = defaultMinPartialMergeOperands
	}
	if o.NumLevels <= 0 {
		o.NumLevels = defaultNumLevels
	}
	o.CompactionOptionsFIFO.EnsureDefaults()
	if o.Logger == nil {
		o.Logger = DefaultLogger
	}
}

// Clone creates a copy of the supplied options. The copy does not share the
// additional multiplier slice with the original.
func (o *Options) Clone() *Options {
	if o == nil {
		return &Options{}
	}
	n := *o
	n.MaxBytesForLevelMultiplierAdditional = slices.Clone(o.MaxBytesForLevelMultiplierAdditional)
	return &n
}

// Validate verifies that the options are mutually consistent. For example,
// Level0StopWritesTrigger must be >= Level0SlowdownWritesTrigger, otherwise
// writes would stop before they are slowed down.
func (o *Options) Validate() error {
	var buf strings.Builder
	m := o.mutableOptions()
	m.validate(&buf, compression.Supported)
	if o.NumLevels < 1 {
		fmt.Fprintf(&buf, "NumLevels (%d) must be >= 1\n", o.NumLevels)
	} else if o.NumLevels < 2 && o.CompactionStyle == CompactionStyleLevel {
		fmt.Fprintf(&buf, "NumLevels (%d) must be >= 2 for %s compaction\n",
			o.NumLevels, o.CompactionStyle)
	}
	if o.CompactionStyle < CompactionStyleLevel || o.CompactionStyle > CompactionStyleNone {
		fmt.Fprintf(&buf, "CompactionStyle (%d) is invalid\n", int8(o.CompactionStyle))
	}
	if buf.Len() == 0 {
		return nil
	}
	return errors.New(buf.String())
}

// mutableOptions copies the mutable fields of o into a new MutableOptions. The
// FIFO options and the derived tables are left unset.
func (o *Options) mutableOptions() *MutableOptions {
	return &MutableOptions{
		WriteBufferSize:                      o.WriteBufferSize,
		MaxWriteBufferNumber:                 o.MaxWriteBufferNumber,
		ArenaBlockSize:                       o.ArenaBlockSize,
		MemtablePrefixBloomSizeRatio:         o.MemtablePrefixBloomSizeRatio,
		MemtablePrefixBloomHugePageTLBSize:   o.MemtablePrefixBloomHugePageTLBSize,
		MaxSuccessiveMerges:                  o.MaxSuccessiveMerges,
		FilterDeletes:                        o.FilterDeletes,
		InplaceUpdateNumLocks:                o.InplaceUpdateNumLocks,
		DisableAutoCompactions:               o.DisableAutoCompactions,
		SoftPendingCompactionBytesLimit:      o.SoftPendingCompactionBytesLimit,
		HardPendingCompactionBytesLimit:      o.HardPendingCompactionBytesLimit,
		Level0FileNumCompactionTrigger:       o.Level0FileNumCompactionTrigger,
		Level0SlowdownWritesTrigger:          o.Level0SlowdownWritesTrigger,
		Level0StopWritesTrigger:              o.Level0StopWritesTrigger,
		CompactionPri:                        o.CompactionPri,
		MaxGrandparentOverlapFactor:          o.MaxGrandparentOverlapFactor,
		ExpandedCompactionFactor:             o.ExpandedCompactionFactor,
		SourceCompactionFactor:               o.SourceCompactionFactor,
		TargetFileSizeBase:                   o.TargetFileSizeBase,
		TargetFileSizeMultiplier:             o.TargetFileSizeMultiplier,
		MaxBytesForLevelBase:                 o.MaxBytesForLevelBase,
		MaxBytesForLevelMultiplier:           o.MaxBytesForLevelMultiplier,
		MaxBytesForLevelMultiplierAdditional: slices.Clone(o.MaxBytesForLevelMultiplierAdditional),
		VerifyChecksumsInCompaction:          o.VerifyChecksumsInCompaction,
		MaxSubcompactions:                    o.MaxSubcompactions,
		MaxSequentialSkipInIterations:        o.MaxSequentialSkipInIterations,
		ParanoidFileChecks:                   o.ParanoidFileChecks,
		ReportBGIOStats:                      o.ReportBGIOStats,
		Compression:                          o.Compression,
		MinPartialMergeOperands:              o.MinPartialMergeOperands,
	}
}

// setMutableOptions is the inverse of mutableOptions.
func (o *Options) setMutableOptions(m *MutableOptions) {
	o.WriteBufferSize = m.WriteBufferSize
	o.MaxWriteBufferNumber = m.MaxWriteBufferNumber
	o.ArenaBlockSize = m.ArenaBlockSize
	o.MemtablePrefixBloomSizeRatio = m.MemtablePrefixBloomSizeRatio
	o.MemtablePrefixBloomHugePageTLBSize = m.MemtablePrefixBloomHugePageTLBSize
	o.MaxSuccessiveMerges = m.MaxSuccessiveMerges
	o.FilterDeletes = m.FilterDeletes
	o.InplaceUpdateNumLocks = m.InplaceUpdateNumLocks
	o.DisableAutoCompactions = m.DisableAutoCompactions
	o.SoftPendingCompactionBytesLimit = m.SoftPendingCompactionBytesLimit
	o.HardPendingCompactionBytesLimit = m.HardPendingCompactionBytesLimit
	o.Level0FileNumCompactionTrigger = m.Level0FileNumCompactionTrigger
	o.Level0SlowdownWritesTrigger = m.Level0SlowdownWritesTrigger
	o.Level0StopWritesTrigger = m.Level0StopWritesTrigger
	o.CompactionPri = m.CompactionPri
	o.MaxGrandparentOverlapFactor = m.MaxGrandparentOverlapFactor
	o.ExpandedCompactionFactor = m.ExpandedCompactionFactor
	o.SourceCompactionFactor = m.SourceCompactionFactor
	o.TargetFileSizeBase = m.TargetFileSizeBase
	o.TargetFileSizeMultiplier = m.TargetFileSizeMultiplier
	o.MaxBytesForLevelBase = m.MaxBytesForLevelBase
	o.MaxBytesForLevelMultiplier = m.MaxBytesForLevelMultiplier
	o.MaxBytesForLevelMultiplierAdditional = slices.Clone(m.MaxBytesForLevelMultiplierAdditional)
	o.VerifyChecksumsInCompaction = m.VerifyChecksumsInCompaction
	o.MaxSubcompactions = m.MaxSubcompactions
	o.MaxSequentialSkipInIterations = m.MaxSequentialSkipInIterations
	o.ParanoidFileChecks = m.ParanoidFileChecks
	o.ReportBGIOStats = m.ReportBGIOStats
	o.Compression = m.Compression
	o.MinPartialMergeOperands = m.MinPartialMergeOperands
}

// ImmutableOptions holds the parts of the column family configuration that
// are fixed when the column family is opened.
type ImmutableOptions struct {
	NumLevels             int
	CompactionStyle       CompactionStyle
	CompactionOptionsFIFO FIFOCompactionOptions
	Logger                Logger
	// CompressionSupported reports whether a compression algorithm is usable in
	// this process.
	CompressionSupported func(Compression) bool
}

// MakeImmutableOptions extracts the options that are fixed at open from opts.
func MakeImmutableOptions(opts *Options) *ImmutableOptions {
	logger := opts.Logger
	if logger == nil {
		logger = DefaultLogger
	}
	return &ImmutableOptions{
		NumLevels:             opts.NumLevels,
		CompactionStyle:       opts.CompactionStyle,
		CompactionOptionsFIFO: opts.CompactionOptionsFIFO,
		Logger:                logger,
		CompressionSupported:  compression.Supported,
	}
}

// String returns the options in the INI format understood by Parse.
func (o *Options) String() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "[Version]\n")
	fmt.Fprintf(&buf, "  cfopts_version=0.1\n")
	fmt.Fprintf(&buf, "\n")
	fmt.Fprintf(&buf, "[Options]\n")
	o.mutableOptions().writeOptions(&buf)
	fmt.Fprintf(&buf, "  compaction_style=%s\n", o.CompactionStyle)
	fmt.Fprintf(&buf, "  num_levels=%d\n", o.NumLevels)
	fmt.Fprintf(&buf, "\n")
	o.CompactionOptionsFIFO.writeSection(&buf)
	return buf.String()
}

type parseOptionsFuncs struct {
	visitNewSection func(i, j int, section string) error
	visitKeyValue   func(i, j int, section, key, value string) error
}

// parseOptions takes options serialized by Options.String() and parses them
// into keys and values. It calls fns.visitNewSection for the beginning of each
// new section and fns.visitKeyValue for each key-value pair.
func parseOptions(s string, fns parseOptionsFuncs) error {
	var section string
	i := 0
	for i < len(s) {
		rem := s[i:]
		j := strings.IndexByte(rem, '\n')
		if j < 0 {
			j = len(rem)
		} else {
			j += 1 // Include the newline.
		}
		line := strings.TrimSpace(s[i : i+j])
		startOff, endOff := i, i+j
		i += j

		if len(line) == 0 || line[0] == ';' || line[0] == '#' {
			// Skip blank lines and comments.
			continue
		}
		n := len(line)
		if line[0] == '[' && line[n-1] == ']' {
			section = line[1 : n-1]
			// RocksDB writes the column family options of the default column
			// family under this section name.
			if section == `CFOptions "default"` {
				section = "Options"
			}
			if fns.visitNewSection != nil {
				if err := fns.visitNewSection(startOff, endOff, section); err != nil {
					return err
				}
			}
			continue
		}

		pos := strings.Index(line, "=")
		if pos < 0 {
			const maxLen = 50
			if len(line) > maxLen {
				line = line[:maxLen-3] + "..."
			}
			return base.CorruptionErrorf("invalid key=value syntax: %q", errors.Safe(line))
		}

		key := strings.TrimSpace(line[:pos])
		value := strings.TrimSpace(line[pos+1:])
		if fns.visitKeyValue != nil {
			if err := fns.visitKeyValue(startOff, endOff, section, key, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// ParseHooks contains callbacks to customize Parse.
type ParseHooks struct {
	// SkipUnknown is called for keys Parse does not recognize. If it returns
	// true the key is ignored, otherwise Parse fails.
	SkipUnknown func(name, value string) bool
}

// Parse parses the options from the specified string, as written by String.
// Options not present in s keep their current values.
func (o *Options) Parse(s string, hooks *ParseHooks) error {
	m := o.mutableOptions()

	unknown := func(section, key, value string) error {
		if hooks != nil && hooks.SkipUnknown != nil && hooks.SkipUnknown(section+"."+key, value) {
			return nil
		}
		return errors.Mark(errors.Newf("cfopts: unknown option: %s.%s",
			errors.Safe(section), errors.Safe(key)), ErrUnknownOption)
	}

	visitKeyValue := func(i, j int, section, key, value string) error {
		// WARNING: DO NOT remove entries from the switches below because doing so
		// causes a key previously written to the OPTIONS file to be considered
		// unknown, a backwards incompatible change.
		switch section {
		case "Version":
			switch key {
			case "cfopts_version":
				return nil
			}
			return unknown(section, key, value)

		case "Options":
			var err error
			switch key {
			case "compaction_style":
				o.CompactionStyle, err = ParseCompactionStyle(value)
			case "num_levels":
				o.NumLevels, err = strconv.Atoi(value)
			default:
				err = m.setOption(key, value)
				if errors.Is(err, ErrUnknownOption) || errors.Is(err, ErrImmutableOption) {
					return unknown(section, key, value)
				}
				return err
			}
			if err != nil {
				return errors.Wrapf(err, "cfopts: invalid value for %s", errors.Safe(key))
			}
			return nil

		case "FIFO Compaction":
			var err error
			switch key {
			case "allow_compaction":
				o.CompactionOptionsFIFO.AllowCompaction, err = strconv.ParseBool(value)
			case "max_table_files_size":
				o.CompactionOptionsFIFO.MaxTableFilesSize, err = parseSize(value)
			case "ttl":
				o.CompactionOptionsFIFO.TTL, err = time.ParseDuration(value)
			default:
				return unknown(section, key, value)
			}
			if err != nil {
				return errors.Wrapf(err, "cfopts: invalid value for %s.%s",
					errors.Safe(section), errors.Safe(key))
			}
			return nil

		default:
			return unknown(section, key, value)
		}
	}
	if err := parseOptions(s, parseOptionsFuncs{visitKeyValue: visitKeyValue}); err != nil {
		return err
	}
	o.setMutableOptions(m)
	return nil
}

// CheckCompatibility verifies that the options fixed at open match the ones
// serialized in previousOptions by Options.String(). A column family cannot be
// reopened with a different number of levels or compaction style.
//
// Unknown keys are ignored, so that options written by newer versions can be
// checked.
func (o *Options) CheckCompatibility(previousOptions string) error {
	visitKeyValue := func(i, j int, section, key, value string) error {
		switch section + "." + key {
		case "Options.num_levels":
			n, err := strconv.Atoi(value)
			if err != nil {
				return errors.Wrapf(err, "cfopts: invalid value for num_levels")
			}
			if n != o.NumLevels {
				return errors.Errorf("cfopts: num_levels from file %d != num_levels from options %d",
					errors.Safe(n), errors.Safe(o.NumLevels))
			}
		case "Options.compaction_style":
			style, err := ParseCompactionStyle(value)
			if err != nil {
				return err
			}
			if style != o.CompactionStyle {
				return errors.Errorf("cfopts: compaction_style from file %s != compaction_style from options %s",
					style, o.CompactionStyle)
			}
		}
		return nil
	}
	return parseOptions(previousOptions, parseOptionsFuncs{visitKeyValue: visitKeyValue})
}
