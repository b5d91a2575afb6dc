package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/ezquant/czsc/czsc/metrics"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// Summary 以表格输出全部、多头、空头三组统计
func (r *Result) Summary(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"指标", "全部", "多头", "空头"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	all, long, short := r.Stats.Items(), r.LongStats.Items(), r.ShortStats.Items()
	for i := range all {
		table.Append([]string{all[i].Key, all[i].Value, long[i].Value, short[i].Value})
	}
	table.Render()
}

// PairsTable 以表格输出交易对
func (r *Result) PairsTable(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"品种", "方向", "开仓时间", "平仓时间", "开仓价", "平仓价", "持仓K线数", "持仓天数", "收益(bp)", "事件序列"})
	for _, p := range r.Pairs {
		closeDt := p.CloseDt.Format("2006-01-02 15:04")
		if p.Open {
			closeDt += " *"
		}
		table.Append([]string{
			p.Symbol, p.Direction,
			p.OpenDt.Format("2006-01-02 15:04"), closeDt,
			formatFloat(p.OpenPrice), formatFloat(p.ClosePrice),
			fmt.Sprint(p.BarCount), fmt.Sprint(p.HoldDays),
			formatFloat(p.PnlBp), p.EventSeq,
		})
	}
	table.Render()
}

// ClosedPairs 已平仓的交易对
func (r *Result) ClosedPairs() []Pair {
	return lo.Filter(r.Pairs, func(p Pair, _ int) bool { return !p.Open })
}

// TotalReturns 组合日收益序列
func (r *Result) TotalReturns() []metrics.Point {
	return lo.Map(r.DailyReturns, func(d DailyReturn, _ int) metrics.Point {
		return metrics.Point{Date: d.Date, Value: d.Total}
	})
}

// SymbolReturns 单个品种的日收益序列
func (r *Result) SymbolReturns(symbol string) []metrics.Point {
	return lo.FilterMap(r.SymbolDaily, func(d SymbolDaily, _ int) (metrics.Point, bool) {
		return metrics.Point{Date: d.Date, Value: d.Return}, d.Symbol == symbol
	})
}

// Period 回测覆盖的日期范围
func (r *Result) Period() (time.Time, time.Time) {
	if len(r.DailyReturns) == 0 {
		return time.Time{}, time.Time{}
	}
	return r.DailyReturns[0].Date, r.DailyReturns[len(r.DailyReturns)-1].Date
}
