package backtest

import (
	"math"
	"sort"
	"time"

	"github.com/ezquant/czsc/czsc/config"
)

// SymbolDaily 单品种单日的收益拆分
type SymbolDaily struct {
	Date     time.Time
	Symbol   string
	Edge     float64 // 毛收益
	Cost     float64 // 手续费
	Return   float64 // 净收益 = Edge - Cost
	Turnover float64

	LongEdge    float64
	LongCost    float64
	LongReturn  float64
	ShortEdge   float64
	ShortCost   float64
	ShortReturn float64

	Bars int
}

// DailyReturn 日收益透视表的一行，Returns 与 Result.Symbols 对齐，当日没有数据的品种为 0
type DailyReturn struct {
	Date    time.Time
	Returns []float64
	Total   float64
	Long    float64
	Short   float64
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// simulate 第 i 行的持仓 w_i 作用在 (dt_i, dt_{i+1}] 上，收益与换手成本记在区间终点所在的日期
func simulate(symbol string, rows []row, fee float64) []SymbolDaily {
	var out []SymbolDaily
	var prevW, prevP float64
	for i, r := range rows {
		var ret float64
		if i > 0 {
			ret = r.Price/prevP - 1
		}
		w := r.Weight
		longPrev, shortPrev := math.Max(prevW, 0), math.Min(prevW, 0)
		longW, shortW := math.Max(w, 0), math.Min(w, 0)

		date := dateOf(r.Dt)
		if len(out) == 0 || !out[len(out)-1].Date.Equal(date) {
			out = append(out, SymbolDaily{Date: date, Symbol: symbol})
		}
		d := &out[len(out)-1]
		d.Edge += prevW * ret
		d.Cost += fee * math.Abs(w-prevW)
		d.Turnover += math.Abs(w - prevW)
		d.LongEdge += longPrev * ret
		d.LongCost += fee * math.Abs(longW-longPrev)
		d.ShortEdge += shortPrev * ret
		d.ShortCost += fee * math.Abs(shortW-shortPrev)
		d.Bars++

		prevW, prevP = w, r.Price
	}
	for i := range out {
		d := &out[i]
		d.Return = d.Edge - d.Cost
		d.LongReturn = d.LongEdge - d.LongCost
		d.ShortReturn = d.ShortEdge - d.ShortCost
	}
	return out
}

// pivot 按日期汇总各品种日收益；ts 模式取等权平均，cs 模式直接求和
func pivot(daily []SymbolDaily, symbols []string, weightType string) []DailyReturn {
	col := make(map[string]int, len(symbols))
	for i, s := range symbols {
		col[s] = i
	}
	type acc struct {
		returns     []float64
		long, short float64
	}
	byDate := make(map[time.Time]*acc)
	var dates []time.Time
	for _, d := range daily {
		a, ok := byDate[d.Date]
		if !ok {
			a = &acc{returns: make([]float64, len(symbols))}
			byDate[d.Date] = a
			dates = append(dates, d.Date)
		}
		a.returns[col[d.Symbol]] = d.Return
		a.long += d.LongReturn
		a.short += d.ShortReturn
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	n := float64(len(symbols))
	out := make([]DailyReturn, 0, len(dates))
	for _, date := range dates {
		a := byDate[date]
		var total float64
		for _, v := range a.returns {
			total += v
		}
		long, short := a.long, a.short
		if weightType != config.WeightTypeCS {
			total, long, short = total/n, long/n, short/n
		}
		out = append(out, DailyReturn{Date: date, Returns: a.returns, Total: total, Long: long, Short: short})
	}
	return out
}

func totalOf(d DailyReturn) float64 { return d.Total }
func longOf(d DailyReturn) float64  { return d.Long }
func shortOf(d DailyReturn) float64 { return d.Short }
