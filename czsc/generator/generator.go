// Package generator 把基础周期K线合成为更高周期的K线。
package generator

import (
	"fmt"
	"sort"

	"github.com/ezquant/czsc/czsc/calendar"
	"github.com/ezquant/czsc/czsc/model"
	"github.com/ezquant/czsc/czsc/tools/log"
)

const DefaultMaxCount = 5000

// BarGenerator 接收基础周期K线，按周期维护已完成的K线与正在合成中的K线。
// 单个实例只能由一个数据流使用，不支持并发调用 Update。
type BarGenerator struct {
	base     model.Freq
	freqs    []model.Freq
	maxCount int
	market   calendar.Market
	logger   log.FieldLogger

	symbol  string
	last    *model.RawBar
	bars    map[model.Freq][]model.RawBar
	pending map[model.Freq]*model.RawBar
	nextID  map[model.Freq]int
}

type Option func(*BarGenerator)

// WithMaxCount 每个周期最多保留的K线数量，默认 5000
func WithMaxCount(n int) Option {
	return func(g *BarGenerator) {
		g.maxCount = n
	}
}

// WithMarket 指定市场，决定分钟切分与交易日归属
func WithMarket(m calendar.Market) Option {
	return func(g *BarGenerator) {
		g.market = m
	}
}

func WithLogger(l log.FieldLogger) Option {
	return func(g *BarGenerator) {
		g.logger = l
	}
}

// New 创建K线生成器，freqs 必须都大于 base
func New(base model.Freq, freqs []model.Freq, options ...Option) (*BarGenerator, error) {
	g := &BarGenerator{
		base:     base,
		maxCount: DefaultMaxCount,
		market:   calendar.Default,
		bars:     map[model.Freq][]model.RawBar{},
		pending:  map[model.Freq]*model.RawBar{},
		nextID:   map[model.Freq]int{},
	}
	for _, option := range options {
		option(g)
	}
	g.logger = log.OrStandard(g.logger)

	if !base.Valid() {
		return nil, fmt.Errorf("%w: invalid base freq %d", model.ErrConfigOutOfRange, int(base))
	}
	if g.maxCount <= 0 {
		return nil, fmt.Errorf("%w: max_count must be positive, got %d", model.ErrConfigOutOfRange, g.maxCount)
	}

	seen := map[model.Freq]bool{}
	for _, f := range freqs {
		if !f.Valid() || f <= base {
			return nil, fmt.Errorf("%w: freq %s must be greater than base %s", model.ErrConfigOutOfRange, f, base)
		}
		if !seen[f] {
			seen[f] = true
			g.freqs = append(g.freqs, f)
		}
	}
	sort.Slice(g.freqs, func(i, j int) bool { return g.freqs[i] < g.freqs[j] })
	return g, nil
}

func (g *BarGenerator) Base() model.Freq {
	return g.base
}

// Freqs 基础周期加上所有目标周期
func (g *BarGenerator) Freqs() []model.Freq {
	return append([]model.Freq{g.base}, g.freqs...)
}

func (g *BarGenerator) Market() calendar.Market {
	return g.market
}

func (g *BarGenerator) Symbol() string {
	return g.symbol
}

// Bars 返回某周期已完成的K线，调用方不应修改返回的切片
func (g *BarGenerator) Bars(f model.Freq) []model.RawBar {
	bars := g.bars[f]
	if len(bars) > g.maxCount {
		bars = bars[len(bars)-g.maxCount:]
	}
	return bars
}

// Pending 返回某周期尚未完成的K线
func (g *BarGenerator) Pending(f model.Freq) (model.RawBar, bool) {
	p, ok := g.pending[f]
	if !ok || p == nil {
		return model.RawBar{}, false
	}
	return *p, true
}

// Last 最近一根基础周期K线
func (g *BarGenerator) Last() (model.RawBar, bool) {
	if g.last == nil {
		return model.RawBar{}, false
	}
	return *g.last, true
}

// Update 输入一根基础周期K线，返回本次产生了新K线的周期（含基础周期）
func (g *BarGenerator) Update(bar model.RawBar) ([]model.Freq, error) {
	if bar.Freq != g.base {
		return nil, fmt.Errorf("%w: got %s, base is %s (%s %s)", model.ErrFreqMismatch, bar.Freq, g.base, bar.Symbol, bar.Dt)
	}
	if g.last != nil {
		if bar.Symbol != g.symbol {
			return nil, fmt.Errorf("%w: symbol %s, generator is bound to %s", model.ErrInputFormat, bar.Symbol, g.symbol)
		}
		if bar.Dt.Equal(g.last.Dt) {
			g.logger.WithFields(log.Fields{"symbol": bar.Symbol, "dt": bar.Dt}).Warn("duplicate bar ignored")
			return nil, nil
		}
		if bar.Dt.Before(g.last.Dt) {
			return nil, fmt.Errorf("%w: %s %s is earlier than %s", model.ErrOrdering, bar.Symbol, bar.Dt, g.last.Dt)
		}
	}
	g.symbol = bar.Symbol

	bar.ID = g.nextID[g.base]
	g.nextID[g.base]++
	g.last = &bar
	g.push(g.base, bar)
	finished := []model.Freq{g.base}

	for _, f := range g.freqs {
		end := calendar.BucketEnd(bar.Dt, g.base, f, g.market)
		if p := g.pending[f]; p != nil && !p.Dt.Equal(end) {
			g.finalize(f)
			finished = append(finished, f)
		}

		if p := g.pending[f]; p == nil {
			g.pending[f] = &model.RawBar{
				Symbol: bar.Symbol,
				Dt:     end,
				Freq:   f,
				Open:   bar.Open,
				Close:  bar.Close,
				High:   bar.High,
				Low:    bar.Low,
				Vol:    bar.Vol,
				Amount: bar.Amount,
			}
		} else {
			p.Close = bar.Close
			p.High = max(p.High, bar.High)
			p.Low = min(p.Low, bar.Low)
			p.Vol += bar.Vol
			p.Amount += bar.Amount
		}

		if calendar.IsBucketClose(bar.Dt, g.base, f, g.market) {
			g.finalize(f)
			if len(finished) == 0 || finished[len(finished)-1] != f {
				finished = append(finished, f)
			}
		}
	}
	return finished, nil
}

func (g *BarGenerator) finalize(f model.Freq) {
	p := g.pending[f]
	if p == nil {
		return
	}
	bar := *p
	bar.ID = g.nextID[f]
	g.nextID[f]++
	g.push(f, bar)
	g.pending[f] = nil
}

func (g *BarGenerator) push(f model.Freq, bar model.RawBar) {
	bars := append(g.bars[f], bar)
	// 超过两倍容量时才整体搬移，均摊 O(1)
	if len(bars) > 2*g.maxCount {
		bars = append(bars[:0:0], bars[len(bars)-g.maxCount:]...)
	}
	g.bars[f] = bars
}
