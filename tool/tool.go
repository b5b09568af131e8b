// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"github.com/lsmkit/cfopts"
	"github.com/spf13/cobra"
)

// T is the container for all of the introspection tools.
type T struct {
	Commands []*cobra.Command
	options  *optionsT
}

// New creates a new introspection tool.
func New() *T {
	t := &T{}
	t.options = newOptions(cfopts.DefaultOptions)
	t.Commands = []*cobra.Command{
		t.options.Root,
	}
	return t
}
