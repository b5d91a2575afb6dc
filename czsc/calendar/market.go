package calendar

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ezquant/czsc/czsc/model"
	"github.com/samber/lo"
)

// Market 决定分钟K线的切分方式与交易日归属
type Market int

const (
	Default Market = iota
	AShare
	Futures
	Crypto
)

func (m Market) String() string {
	switch m {
	case AShare:
		return "A股"
	case Futures:
		return "期货"
	case Crypto:
		return "数字货币"
	default:
		return "默认"
	}
}

// ParseMarket 支持中文名与 ashare/futures/crypto/default
func ParseMarket(s string) (Market, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default", "默认":
		return Default, nil
	case "ashare", "a股", "stock", "index", "cffex":
		return AShare, nil
	case "futures", "期货":
		return Futures, nil
	case "crypto", "数字货币":
		return Crypto, nil
	}
	return Default, fmt.Errorf("%w: unknown market %q", model.ErrInputFormat, s)
}

type session struct {
	start, end int
}

// 交易时段，以K线结束时间的分钟数表示，闭区间
var sessions = map[Market][]session{
	AShare: {
		{hm(9, 31), hm(11, 30)},
		{hm(13, 1), hm(15, 0)},
	},
	Futures: {
		{hm(21, 1), hm(23, 0)},
		{hm(9, 1), hm(10, 15)},
		{hm(10, 31), hm(11, 30)},
		{hm(13, 31), hm(15, 0)},
	},
}

// 开盘集合竞价等时点并入下一分钟
var openAlias = map[Market]map[int]int{
	AShare: {
		hm(9, 30): hm(9, 31),
		hm(13, 0): hm(13, 1),
	},
	Futures: {
		hm(21, 0):  hm(21, 1),
		hm(9, 0):   hm(9, 1),
		hm(10, 30): hm(10, 31),
		hm(13, 30): hm(13, 31),
	},
}

var sessionClose = map[Market]int{
	AShare:  hm(15, 0),
	Futures: hm(15, 0),
	Crypto:  0,
	Default: 0,
}

func hm(h, m int) int {
	return h*60 + m
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func formatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60%24, m%60)
}

var (
	splitOnce  sync.Once
	splitTable map[Market]map[int]map[model.Freq]int
)

// buildSplit 按交易时段内的分钟序号切分：第 k 分钟属于 ceil(k/N)*N，最后一段截断到收盘
func buildSplit() map[Market]map[int]map[model.Freq]int {
	splitOnce.Do(func() {
		splitTable = map[Market]map[int]map[model.Freq]int{}
		for market, ss := range sessions {
			var minutes []int
			for _, s := range ss {
				for m := s.start; m <= s.end; m++ {
					minutes = append(minutes, m)
				}
			}
			table := map[int]map[model.Freq]int{}
			for i, m := range minutes {
				k := i + 1
				ends := map[model.Freq]int{}
				for _, f := range model.Freqs {
					if !f.Intraday() {
						continue
					}
					n := f.Minutes()
					idx := (k + n - 1) / n * n
					if idx > len(minutes) {
						idx = len(minutes)
					}
					ends[f] = minutes[idx-1]
				}
				table[m] = ends
			}
			for alias, target := range openAlias[market] {
				table[alias] = table[target]
			}
			splitTable[market] = table
		}
	})
	return splitTable
}

// MinuteSplit 查询某市场某一分钟在各分钟周期下的结束时间，不在交易时段内返回 false
func MinuteSplit(market Market, hhmm string) (map[model.Freq]string, bool) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return nil, false
	}
	ends, ok := buildSplit()[market][minuteOfDay(t)]
	if !ok {
		return nil, false
	}
	out := make(map[model.Freq]string, len(ends))
	for f, m := range ends {
		out[f] = formatMinute(m)
	}
	return out, true
}

func inTable(market Market, m int) bool {
	_, ok := buildSplit()[market][m]
	return ok
}

// InferMarket 根据K线时间中出现过的不同时刻推断市场
func InferMarket(dts []time.Time) Market {
	times := lo.Uniq(lo.Map(dts, func(dt time.Time, _ int) int {
		return minuteOfDay(dt)
	}))
	if len(times) == 0 {
		return Default
	}
	if len(times) > 600 {
		return Crypto
	}

	outside := lo.Filter(times, func(m int, _ int) bool {
		return !inTable(AShare, m) && !inTable(Futures, m)
	})
	if len(outside) > 0 {
		early := lo.ContainsBy(outside, func(m int) bool {
			return m > 0 && m < hm(9, 0)
		})
		if early {
			return Crypto
		}
		return Default
	}

	futuresOnly := lo.ContainsBy(times, func(m int) bool {
		return inTable(Futures, m) && !inTable(AShare, m)
	})
	if futuresOnly {
		return Futures
	}
	return AShare
}
