// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package csv

import (
	stdcsv "encoding/csv"
	"io"

	"github.com/jszwec/csvutil"

	"github.com/sustainable-computing-io/harvester/internal/exporter"
	"github.com/sustainable-computing-io/harvester/internal/processor"
)

// Separator is the field separator of the exported file
const Separator = ';'

// NewExporter creates an exporter writing the output of p as CSV
func NewExporter(p exporter.Provider, applyOpts ...exporter.OptionFn) *exporter.Exporter {
	return exporter.New("csv", p, Encode, applyOpts...)
}

// Encode writes a header followed by one row per entry
func Encode(w io.Writer, out processor.Output) error {
	cw := stdcsv.NewWriter(w)
	cw.Comma = Separator

	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(processor.Entry{}); err != nil {
		return err
	}
	for _, e := range out {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
