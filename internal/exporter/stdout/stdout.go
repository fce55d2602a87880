// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package stdout

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/sustainable-computing-io/harvester/internal/exporter"
	"github.com/sustainable-computing-io/harvester/internal/processor"
)

// NewExporter creates an exporter printing a summary of the output of p
func NewExporter(p exporter.Provider, applyOpts ...exporter.OptionFn) *exporter.Exporter {
	return exporter.New("stdout", p, Encode, applyOpts...)
}

type summary struct {
	typ, program string
	count        int
	sum          float64
	min, max     float64
}

// Encode writes one table row per entry type and program
func Encode(w io.Writer, out processor.Output) error {
	type key struct{ typ, program string }
	groups := map[key]*summary{}
	for _, e := range out {
		k := key{e.Type, e.Program}
		s, ok := groups[k]
		if !ok {
			s = &summary{typ: e.Type, program: e.Program, min: math.Inf(1), max: math.Inf(-1)}
			groups[k] = s
		}
		s.count++
		s.sum += e.Value
		s.min = math.Min(s.min, e.Value)
		s.max = math.Max(s.max, e.Value)
	}

	summaries := make([]*summary, 0, len(groups))
	for _, s := range groups {
		summaries = append(summaries, s)
	}
	// copying to a slice, to sort based on type then program
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].typ != summaries[j].typ {
			return summaries[i].typ < summaries[j].typ
		}
		return summaries[i].program < summaries[j].program
	})

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.typ,
			s.program,
			fmt.Sprintf("%d", s.count),
			fmt.Sprintf("%.2f", s.sum),
			fmt.Sprintf("%.2f", s.min),
			fmt.Sprintf("%.2f", s.max),
		})
	}

	table := tablewriter.NewWriter(w)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Formatting.Alignment = tw.AlignRight
	})
	table.Header([]string{"Type", "Program", "Entries", "Sum", "Min", "Max"})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
