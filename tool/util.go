// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/cockroachdb/crlib/crhumanize"
)

var stdout = io.Writer(os.Stdout)
var stderr = io.Writer(os.Stderr)
var osExit = os.Exit

// writerLogger implements cfopts.Logger on top of an io.Writer, one line per
// message.
type writerLogger struct {
	w io.Writer
}

func (l writerLogger) Infof(format string, args ...interface{}) {
	l.printf(format, args...)
}

func (l writerLogger) Errorf(format string, args ...interface{}) {
	l.printf(format, args...)
}

func (l writerLogger) Fatalf(format string, args ...interface{}) {
	l.printf(format, args...)
	osExit(1)
}

func (l writerLogger) printf(format string, args ...interface{}) {
	s := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, _ = io.WriteString(l.w, s)
}

// formatBytes formats a per-level limit as its raw value followed by the
// humanized value. A saturated limit is formatted as "unbounded".
func formatBytes(v uint64) string {
	if v == math.MaxUint64 {
		return "unbounded"
	}
	return fmt.Sprintf("%d (%s)", v, crhumanize.Bytes(v, crhumanize.Compact, crhumanize.OmitI))
}
