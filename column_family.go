// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package cfopts

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

// ColumnFamily publishes the MutableOptions of a single column family.
//
// Readers call Current, which is a single atomic load and never blocks. Every
// change builds a complete new snapshot, derived tables included, before it
// is made visible, so a reader never observes a partially applied change or a
// stale per-level table.
type ColumnFamily struct {
	name string

	// iopts is replaced, never modified, by RefreshLevels. Protected by mu.
	iopts *ImmutableOptions

	current    atomic.Pointer[MutableOptions]
	generation atomic.Uint64

	// mu serializes writers. Readers do not acquire it.
	mu sync.Mutex
}

// NewColumnFamily validates opts and publishes the first snapshot built from
// it. opts is not retained.
func NewColumnFamily(name string, opts *Options) (*ColumnFamily, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrapf(err, "cfopts: column family %q", errors.Safe(name))
	}
	iopts := MakeImmutableOptions(opts)
	cf := &ColumnFamily{name: name, iopts: iopts}
	cf.publishLocked(MakeMutableOptions(opts, iopts))
	return cf, nil
}

// Name returns the name of the column family.
func (cf *ColumnFamily) Name() string {
	return cf.name
}

// ImmutableOptions returns the options fixed when the column family was
// created. The returned value must not be modified.
func (cf *ColumnFamily) ImmutableOptions() *ImmutableOptions {
	cf.mu.Lock()
	defer cf.mu.Unlock()
	return cf.iopts
}

// Current returns the current snapshot. The returned MutableOptions must not
// be modified.
func (cf *ColumnFamily) Current() *MutableOptions {
	return cf.current.Load()
}

// Generation returns the number of snapshots published so far. It is 1 right
// after NewColumnFamily.
func (cf *ColumnFamily) Generation() uint64 {
	return cf.generation.Load()
}

// SetOptions applies changes, a map from option name to value in the format
// used by Options.String, and publishes the result. Either every change is
// applied or none is: an unknown or immutable option name, a malformed value
// or a combination that fails validation leaves the current snapshot in
// place.
//
// A change that leaves every option as it was does not publish a new
// snapshot.
func (cf *ColumnFamily) SetOptions(changes map[string]string) error {
	if len(changes) == 0 {
		return errors.New("cfopts: no options to set")
	}
	cf.mu.Lock()
	defer cf.mu.Unlock()

	cur := cf.current.Load()
	next := cur.Clone()
	// Apply in a deterministic order so that the first failing key is stable.
	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := next.setOption(k, changes[k]); err != nil {
			cf.iopts.Logger.Errorf("[%s] SetOptions failed: %v", cf.name, err)
			return err
		}
	}

	var buf strings.Builder
	next.validate(&buf, cf.iopts.CompressionSupported)
	if buf.Len() > 0 {
		err := errors.Newf("cfopts: invalid options for column family %q:\n%s",
			errors.Safe(cf.name), buf.String())
		cf.iopts.Logger.Errorf("[%s] SetOptions failed: %v", cf.name, err)
		return err
	}
	next.RefreshDerivedOptions(cf.iopts)

	if next.Fingerprint() == cur.Fingerprint() {
		return nil
	}
	cf.publishLocked(next)
	cf.iopts.Logger.Infof("[%s] SetOptions succeeded: %s", cf.name, formatChanges(keys, changes))
	next.Dump(cf.iopts.Logger)
	return nil
}

// SetOptionsFromString applies a semicolon separated list of key=value pairs,
// e.g. "write_buffer_size=128m;level0_stop_writes_trigger=36". See
// SetOptions.
func (cf *ColumnFamily) SetOptionsFromString(s string) error {
	changes := make(map[string]string)
	for _, kv := range strings.Split(s, ";") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return errors.Newf("cfopts: malformed option %q, expected key=value", errors.Safe(kv))
		}
		k = strings.TrimSpace(k)
		if _, dup := changes[k]; dup {
			return errors.Newf("cfopts: option %s specified more than once", errors.Safe(k))
		}
		changes[k] = strings.TrimSpace(v)
	}
	return cf.SetOptions(changes)
}

// RefreshLevels publishes a snapshot whose derived per-level tables cover
// numLevels levels. The option values are unchanged.
func (cf *ColumnFamily) RefreshLevels(numLevels int) error {
	if numLevels < 1 {
		return errors.Newf("cfopts: number of levels (%d) must be >= 1", errors.Safe(numLevels))
	}
	cf.mu.Lock()
	defer cf.mu.Unlock()

	if numLevels == cf.iopts.NumLevels {
		return nil
	}
	iopts := *cf.iopts
	iopts.NumLevels = numLevels
	next := cf.current.Load().Clone()
	next.RefreshDerivedOptions(&iopts)
	cf.iopts = &iopts
	cf.publishLocked(next)
	cf.iopts.Logger.Infof("[%s] refreshed derived options for %d levels", cf.name, numLevels)
	return nil
}

// publishLocked makes m the current snapshot. Requires cf.mu is held, or that
// cf is not yet shared.
func (cf *ColumnFamily) publishLocked(m *MutableOptions) {
	if m.NumLevels() != cf.iopts.NumLevels {
		panic(errors.AssertionFailedf("cfopts: snapshot has %d levels, column family has %d",
			m.NumLevels(), cf.iopts.NumLevels))
	}
	cf.current.Store(m)
	cf.generation.Add(1)
}

func formatChanges(keys []string, changes map[string]string) string {
	var buf strings.Builder
	for i, k := range keys {
		if i > 0 {
			buf.WriteString(";")
		}
		buf.WriteString(k)
		buf.WriteString("=")
		buf.WriteString(changes[k])
	}
	return buf.String()
}
