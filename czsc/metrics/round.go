package metrics

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"
)

// Round 十进制四舍五入，避免二进制浮点在 .5 附近的误差
func Round[T constraints.Float](x T, places int32) T {
	f := float64(x)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return x
	}
	return T(decimal.NewFromFloat(f).Round(places).InexactFloat64())
}

// Clip 把 x 限制在 [lo, hi]
func Clip[T constraints.Ordered](x, lo, hi T) T {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func mean[T constraints.Float](xs []T) T {
	if len(xs) == 0 {
		return 0
	}
	var s T
	for _, x := range xs {
		s += x
	}
	return s / T(len(xs))
}
