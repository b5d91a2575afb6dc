package metrics

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Drawdown 一段回撤：从前高到最低点，再到重新创新高
type Drawdown struct {
	Peak     time.Time
	Valley   time.Time
	Recovery *time.Time // 尚未修复时为 nil
	Drawdown float64

	BarsToValley   int
	BarsToRecovery int // 尚未修复时为 -1
	GapToNewHigh   int // 前高到修复（或序列末尾）的间隔
}

// TopDrawdowns 按回撤幅度从大到小返回前 top 段回撤，top <= 0 返回全部
func TopDrawdowns(points []Point, top int) []Drawdown {
	if len(points) == 0 {
		return nil
	}
	cum := floats.CumSum(make([]float64, len(points)), values(points))

	var (
		out       []Drawdown
		peakIdx   int
		valleyIdx int
		inDD      bool
	)
	record := func(recovery int) {
		d := Drawdown{
			Peak:           points[peakIdx].Date,
			Valley:         points[valleyIdx].Date,
			Drawdown:       Round(cum[peakIdx]-cum[valleyIdx], 4),
			BarsToValley:   valleyIdx - peakIdx,
			BarsToRecovery: -1,
			GapToNewHigh:   len(points) - 1 - peakIdx,
		}
		if recovery >= 0 {
			dt := points[recovery].Date
			d.Recovery = &dt
			d.BarsToRecovery = recovery - valleyIdx
			d.GapToNewHigh = recovery - peakIdx
		}
		out = append(out, d)
	}

	for i := 1; i < len(cum); i++ {
		if cum[i] >= cum[peakIdx] {
			if inDD {
				record(i)
				inDD = false
			}
			peakIdx = i
			continue
		}
		if !inDD {
			inDD = true
			valleyIdx = i
		}
		if cum[i] < cum[valleyIdx] {
			valleyIdx = i
		}
	}
	if inDD {
		record(-1)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Drawdown > out[j].Drawdown
	})
	if top > 0 && len(out) > top {
		out = out[:top]
	}
	return out
}
