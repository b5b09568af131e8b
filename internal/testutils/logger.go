// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package testutils holds helpers shared by tests.
package testutils

import (
	"testing"

	"github.com/lsmkit/cfopts/internal/base"
)

// Logger is a base.Logger that writes to a testing.TB. Info and error
// messages go to the test log; Fatalf fails the test.
type Logger struct {
	T testing.TB
}

var _ base.Logger = Logger{}

// Infof implements base.Logger.
func (l Logger) Infof(format string, args ...interface{}) {
	l.T.Helper()
	l.T.Logf(format, args...)
}

// Errorf implements base.Logger.
func (l Logger) Errorf(format string, args ...interface{}) {
	l.T.Helper()
	l.T.Logf("error: "+format, args...)
}

// Fatalf implements base.Logger.
func (l Logger) Fatalf(format string, args ...interface{}) {
	l.T.Helper()
	l.T.Fatalf(format, args...)
}
