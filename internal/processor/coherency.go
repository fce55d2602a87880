// SPDX-FileCopyrightText: 2025 The Harvester Authors
// SPDX-License-Identifier: Apache-2.0

package processor

import (
	"math"

	"github.com/sustainable-computing-io/harvester/internal/analysis"
)

type coherencyProcessor struct{}

func (coherencyProcessor) Name() string {
	return Coherency
}

func (coherencyProcessor) Process(res *analysis.Result) Output {
	var out Output
	eachThread(res, func(f *analysis.Frame, id analysis.ThreadIdentity) {
		cn := f.Counters
		m := onCoreRatio(f, id)

		out.addFrame(res, "l1Invalidations", f, id, math.Round(m*cn.L1Invalidations))
		out.addFrame(res, "l2Invalidations", f, id, math.Round(m*cn.L2Invalidations))
		out.addFrame(res, "l1miss", f, id, math.Round(m*cn.L1Misses))
		out.addFrame(res, "l2miss", f, id, math.Round(m*cn.L2Misses))
	})
	return out
}
