package backtest

import (
	"strconv"
	"time"

	"github.com/ezquant/czsc/czsc/metrics"
	"github.com/ezquant/czsc/czsc/tools/log"
	"github.com/samber/lo"
)

// Stats 日收益绩效加上交易对统计
type Stats struct {
	metrics.Performance

	StartDate time.Time // 开始日期
	EndDate   time.Time // 结束日期
	Symbols   int       // 品种数量
	LongRate  float64   // 多头占比
	ShortRate float64   // 空头占比

	Trades      int     // 交易次数
	PairPnl     float64 // 单笔收益，单位 bp
	PairWinRate float64 // 交易胜率
	AvgBars     float64 // 持仓K线数
	AvgHoldDays float64 // 持仓天数
}

// Item 一个指标的名称与展示值
type Item struct {
	Key   string
	Value string
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Items 按固定顺序输出全部指标
func (s Stats) Items() []Item {
	items := []Item{
		{"开始日期", formatDate(s.StartDate)},
		{"结束日期", formatDate(s.EndDate)},
	}
	for i, v := range s.Performance.Values() {
		items = append(items, Item{metrics.Keys[i], formatFloat(v)})
	}
	return append(items,
		Item{"交易次数", strconv.Itoa(s.Trades)},
		Item{"单笔收益", formatFloat(s.PairPnl)},
		Item{"交易胜率", formatFloat(s.PairWinRate)},
		Item{"持仓K线数", formatFloat(s.AvgBars)},
		Item{"持仓天数", formatFloat(s.AvgHoldDays)},
		Item{"品种数量", strconv.Itoa(s.Symbols)},
		Item{"多头占比", formatFloat(s.LongRate)},
		Item{"空头占比", formatFloat(s.ShortRate)},
	)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

type statsBase struct {
	symbols   int
	longRate  float64
	shortRate float64
}

func buildStats(daily []DailyReturn, pick func(DailyReturn) float64, pairs []Pair, base statsBase, opts Options, logger log.FieldLogger) (Stats, error) {
	returns := lo.Map(daily, func(d DailyReturn, _ int) float64 { return pick(d) })
	perf, err := metrics.DailyPerformance(returns, metrics.WithYearlyDays(opts.YearlyDays), metrics.WithLogger(logger))
	if err != nil {
		return Stats{}, err
	}
	s := Stats{
		Performance: perf,
		Symbols:     base.symbols,
		LongRate:    metrics.Round(base.longRate, 4),
		ShortRate:   metrics.Round(base.shortRate, 4),
		Trades:      len(pairs),
	}
	if len(daily) > 0 {
		s.StartDate = daily[0].Date
		s.EndDate = daily[len(daily)-1].Date
	}
	if len(pairs) == 0 {
		return s, nil
	}

	var pnl, bars, days float64
	var wins int
	for _, p := range pairs {
		pnl += p.PnlBp
		bars += float64(p.BarCount)
		days += float64(p.HoldDays)
		if p.PnlBp > 0 {
			wins++
		}
	}
	n := float64(len(pairs))
	s.PairPnl = metrics.Round(pnl/n, 2)
	s.PairWinRate = metrics.Round(float64(wins)/n, 4)
	s.AvgBars = metrics.Round(bars/n, 2)
	s.AvgHoldDays = metrics.Round(days/n, 2)
	return s, nil
}
