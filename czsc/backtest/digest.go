package backtest

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"
)

// Digest 输入权重与参数的摘要，行顺序不影响结果，可作为缓存键
func Digest(rows []WeightRow, opts Options) string {
	sorted := make([]WeightRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Symbol != sorted[j].Symbol {
			return sorted[i].Symbol < sorted[j].Symbol
		}
		return sorted[i].Dt.Before(sorted[j].Dt)
	})

	h := sha256.New()
	var buf [8]byte
	putFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	putInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}

	putInt(int64(opts.Digits))
	putFloat(opts.FeeRate)
	h.Write([]byte(opts.WeightType))
	putInt(int64(opts.YearlyDays))
	if opts.IncludeOpenPairs {
		putInt(1)
	} else {
		putInt(0)
	}
	for _, r := range sorted {
		h.Write([]byte(r.Symbol))
		h.Write([]byte{0})
		putInt(r.Dt.UnixNano())
		putFloat(r.Weight)
		putFloat(r.Price)
	}
	return hex.EncodeToString(h.Sum(nil))
}
