// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lsmkit/cfopts"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// optionsT implements OPTIONS file tools, including both configuration state
// and the commands themselves.
type optionsT struct {
	Root   *cobra.Command
	Levels *cobra.Command
	Dump   *cobra.Command
	Set    *cobra.Command

	defaultOpts func() *cfopts.Options
	name        string
	strict      bool
	numLevels   int
}

func newOptions(defaultOpts func() *cfopts.Options) *optionsT {
	o := &optionsT{defaultOpts: defaultOpts}

	o.Root = &cobra.Command{
		Use:   "options",
		Short: "OPTIONS file introspection tools",
	}
	o.Levels = &cobra.Command{
		Use:   "levels <options-file>",
		Short: "print the per-level limits",
		Long: `
Print the per-level limits derived from the options in the OPTIONS
file: the maximum file size, the level byte-size target, the
grandparent overlap at which compaction output files are cut and the
expanded compaction limit.
`,
		Args: cobra.ExactArgs(1),
		Run:  o.runLevels,
	}
	o.Dump = &cobra.Command{
		Use:   "dump <options-file>",
		Short: "print the options",
		Long: `
Print every option in the OPTIONS file, after defaults have been
applied, along with the derived per-level limits.
`,
		Args: cobra.ExactArgs(1),
		Run:  o.runDump,
	}
	o.Set = &cobra.Command{
		Use:   "set <options-file> <key=value>...",
		Short: "apply option changes",
		Long: `
Apply option changes to the options in the OPTIONS file as a running
column family would, and print the resulting options. Options that are
fixed when the column family is opened cannot be changed.
`,
		Args: cobra.MinimumNArgs(2),
		Run:  o.runSet,
	}

	o.Root.AddCommand(o.Levels, o.Dump, o.Set)
	o.Root.PersistentFlags().StringVar(
		&o.name, "name", "default", "column family name")
	o.Root.PersistentFlags().BoolVar(
		&o.strict, "strict", false, "fail on unknown options instead of ignoring them")
	o.Levels.Flags().IntVar(
		&o.numLevels, "num-levels", 0, "override the number of levels (0 uses the OPTIONS file)")
	return o
}

// load parses the OPTIONS file at path on top of the default options and
// creates a column family from the result.
func (o *optionsT) load(path string) (*cfopts.ColumnFamily, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	opts := o.defaultOpts()
	opts.Logger = writerLogger{w: stdout}
	hooks := &cfopts.ParseHooks{
		SkipUnknown: func(name, value string) bool {
			return !o.strict
		},
	}
	if err := opts.Parse(string(data), hooks); err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	opts.EnsureDefaults()
	return cfopts.NewColumnFamily(o.name, opts)
}

func (o *optionsT) runLevels(cmd *cobra.Command, args []string) {
	cf, err := o.load(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	if o.numLevels > 0 {
		if err := cf.RefreshLevels(o.numLevels); err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
			return
		}
	}
	m := cf.Current()

	tbl := tablewriter.NewWriter(stdout)
	tbl.SetHeader([]string{"Level", "Max file size", "Max bytes", "Grandparent overlap", "Expanded compaction"})
	tbl.SetAutoWrapText(false)
	for level := 0; level < m.NumLevels(); level++ {
		tbl.Append([]string{
			"L" + strconv.Itoa(level),
			formatBytes(m.MaxFileSizeForLevel(level)),
			formatBytes(m.MaxBytesForLevel(level)),
			formatBytes(m.MaxGrandParentOverlapBytes(level)),
			formatBytes(m.ExpandedCompactionByteSizeLimit(level)),
		})
	}
	tbl.Render()
}

func (o *optionsT) runDump(cmd *cobra.Command, args []string) {
	cf, err := o.load(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	cf.Current().Dump(writerLogger{w: stdout})
}

func (o *optionsT) runSet(cmd *cobra.Command, args []string) {
	cf, err := o.load(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	changes := make(map[string]string, len(args)-1)
	for _, arg := range args[1:] {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			fmt.Fprintf(stderr, "malformed option %q, expected key=value\n", arg)
			return
		}
		changes[k] = v
	}
	gen := cf.Generation()
	if err := cf.SetOptions(changes); err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	if cf.Generation() == gen {
		fmt.Fprintf(stdout, "options unchanged\n")
	}
}
