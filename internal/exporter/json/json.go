// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package json

import (
	stdjson "encoding/json"
	"io"

	"github.com/sustainable-computing-io/harvester/internal/exporter"
	"github.com/sustainable-computing-io/harvester/internal/processor"
)

// NewExporter creates an exporter writing the output of p as a JSON array
func NewExporter(p exporter.Provider, applyOpts ...exporter.OptionFn) *exporter.Exporter {
	return exporter.New("json", p, Encode, applyOpts...)
}

// Encode writes out as an indented JSON array, empty output included
func Encode(w io.Writer, out processor.Output) error {
	if out == nil {
		out = processor.Output{}
	}
	enc := stdjson.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
