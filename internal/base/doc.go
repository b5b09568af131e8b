// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package base defines fundamental types used across cfopts: the Logger
// interface, sentinel errors, and the saturating arithmetic used when deriving
// per-level size limits from option multipliers.
package base
