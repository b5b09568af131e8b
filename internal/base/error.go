// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "github.com/cockroachdb/errors"

// ErrUnknownOption is returned when an option name is not recognized.
var ErrUnknownOption = errors.New("cfopts: unknown option")

// ErrImmutableOption is returned when an option that is fixed when the column
// family is opened is passed to SetOptions.
var ErrImmutableOption = errors.New("cfopts: option cannot be changed at runtime")

// ErrCorruption is a marker to indicate that data in a file (OPTIONS file or
// compressed block) is corrupted.
var ErrCorruption = errors.New("cfopts: corruption")

// CorruptionErrorf formats according to a format specifier and returns
// the string as an error value that is marked as a corruption error.
func CorruptionErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrCorruption)
}
