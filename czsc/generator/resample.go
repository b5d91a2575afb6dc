package generator

import (
	"fmt"

	"github.com/ezquant/czsc/czsc/calendar"
	"github.com/ezquant/czsc/czsc/model"
)

// ResampleBars 把同一周期的K线批量合成为 target 周期。
// 每个桶以目标K线结束时间为键，开盘取第一根、收盘取最后一根，量额求和；
// 最后一个桶只有在已经收盘时才输出。
func ResampleBars(bars []model.RawBar, target model.Freq, market calendar.Market) ([]model.RawBar, error) {
	if len(bars) == 0 {
		return nil, nil
	}
	base := bars[0].Freq
	for i, b := range bars {
		if b.Freq != base {
			return nil, &model.RowError{Row: i, Key: b.Dt.String(),
				Err: fmt.Errorf("%w: %s in a %s series", model.ErrFreqMismatch, b.Freq, base)}
		}
		if i > 0 && !b.Dt.After(bars[i-1].Dt) {
			return nil, &model.RowError{Row: i, Key: b.Dt.String(), Err: model.ErrOrdering}
		}
	}
	if target == base {
		out := make([]model.RawBar, len(bars))
		copy(out, bars)
		return out, nil
	}
	if target < base {
		return nil, fmt.Errorf("%w: cannot resample %s into %s", model.ErrFreqMismatch, base, target)
	}

	var (
		out []model.RawBar
		cur *model.RawBar
	)
	for _, b := range bars {
		end := calendar.BucketEnd(b.Dt, base, target, market)
		if cur != nil && !cur.Dt.Equal(end) {
			out = append(out, *cur)
			cur = nil
		}
		if cur == nil {
			cur = &model.RawBar{
				Symbol: b.Symbol,
				Dt:     end,
				Freq:   target,
				Open:   b.Open,
				Close:  b.Close,
				High:   b.High,
				Low:    b.Low,
				Vol:    b.Vol,
				Amount: b.Amount,
			}
			continue
		}
		cur.Close = b.Close
		cur.High = max(cur.High, b.High)
		cur.Low = min(cur.Low, b.Low)
		cur.Vol += b.Vol
		cur.Amount += b.Amount
	}
	if cur != nil && calendar.IsBucketClose(bars[len(bars)-1].Dt, base, target, market) {
		out = append(out, *cur)
	}
	for i := range out {
		out[i].ID = i
	}
	return out, nil
}
