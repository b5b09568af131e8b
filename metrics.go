// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package cfopts

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	maxFileSizeDesc = prometheus.NewDesc(
		"cfopts_max_file_size_bytes",
		"Maximum size of a file written to the level.",
		[]string{"cf", "level"}, nil)
	levelMaxBytesDesc = prometheus.NewDesc(
		"cfopts_level_max_bytes",
		"Byte-size target of the level.",
		[]string{"cf", "level"}, nil)
	maxGrandparentOverlapDesc = prometheus.NewDesc(
		"cfopts_max_grandparent_overlap_bytes",
		"Grandparent overlap at which a compaction out of the level cuts its output file.",
		[]string{"cf", "level"}, nil)
	expandedCompactionDesc = prometheus.NewDesc(
		"cfopts_expanded_compaction_bytes",
		"Maximum size of an expanded compaction out of the level.",
		[]string{"cf", "level"}, nil)
	generationDesc = prometheus.NewDesc(
		"cfopts_options_generation",
		"Number of option snapshots published for the column family.",
		[]string{"cf"}, nil)
)

// collector exports the derived per-level limits of a set of column families.
// Values are read from the current snapshot at scrape time.
type collector struct {
	cfs []*ColumnFamily
}

var _ prometheus.Collector = (*collector)(nil)

// NewCollector returns a prometheus.Collector exporting the per-level limits
// and the snapshot generation of the given column families.
func NewCollector(cfs ...*ColumnFamily) prometheus.Collector {
	return &collector{cfs: cfs}
}

// Describe implements prometheus.Collector.
func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- maxFileSizeDesc
	ch <- levelMaxBytesDesc
	ch <- maxGrandparentOverlapDesc
	ch <- expandedCompactionDesc
	ch <- generationDesc
}

// Collect implements prometheus.Collector.
func (c *collector) Collect(ch chan<- prometheus.Metric) {
	for _, cf := range c.cfs {
		m := cf.Current()
		for level := 0; level < m.NumLevels(); level++ {
			l := strconv.Itoa(level)
			gauge := func(desc *prometheus.Desc, v uint64) {
				ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(v), cf.name, l)
			}
			gauge(maxFileSizeDesc, m.MaxFileSizeForLevel(level))
			gauge(levelMaxBytesDesc, m.MaxBytesForLevel(level))
			gauge(maxGrandparentOverlapDesc, m.MaxGrandParentOverlapBytes(level))
			gauge(expandedCompactionDesc, m.ExpandedCompactionByteSizeLimit(level))
		}
		ch <- prometheus.MustNewConstMetric(generationDesc, prometheus.CounterValue,
			float64(cf.Generation()), cf.name)
	}
}
