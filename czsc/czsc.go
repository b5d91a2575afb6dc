// Package czsc 实现缠论的K线包含处理、分型识别与笔的识别，并提供多周期的交易者封装。
package czsc

import (
	"fmt"
	"sort"

	"github.com/ezquant/czsc/czsc/config"
	"github.com/ezquant/czsc/czsc/model"
	"github.com/ezquant/czsc/czsc/tools/log"
)

// CZSC 单个 (symbol, freq) 的分析引擎，逐根K线增量更新。
// 一个实例只能由一个数据流使用，并发调用 Update 属于误用。
type CZSC struct {
	symbol string
	freq   model.Freq
	cfg    config.Config
	logger log.FieldLogger

	barsRaw []model.RawBar
	barsUBI []model.NewBar
	biList  []model.BI

	signals     *SignalCache
	signalFuncs []SignalsFunc
}

type Option func(*CZSC)

// WithConfig 使用配置中的 min_bi_len、change_th、max_bi_num
func WithConfig(cfg config.Config) Option {
	return func(c *CZSC) {
		c.cfg = cfg
	}
}

func WithMinBiLen(n int) Option {
	return func(c *CZSC) {
		c.cfg.MinBiLen = n
	}
}

func WithMaxBiNum(n int) Option {
	return func(c *CZSC) {
		c.cfg.MaxBiNum = n
	}
}

// WithChangeTh 成笔的最小涨跌幅，<= 0 表示不启用
func WithChangeTh(th float64) Option {
	return func(c *CZSC) {
		c.cfg.ChangeTh = th
	}
}

// WithSignals 注册信号计算函数，每次 Update 之后执行
func WithSignals(fns ...SignalsFunc) Option {
	return func(c *CZSC) {
		c.signalFuncs = append(c.signalFuncs, fns...)
	}
}

func WithLogger(l log.FieldLogger) Option {
	return func(c *CZSC) {
		c.logger = l
	}
}

// NewCZSC 创建引擎并按顺序回放 bars
func NewCZSC(bars []model.RawBar, options ...Option) (*CZSC, error) {
	c := &CZSC{
		cfg:     config.Default(),
		signals: NewSignalCache(),
	}
	for _, option := range options {
		option(c)
	}
	c.logger = log.OrStandard(c.logger)

	if c.cfg.MinBiLen < 3 || c.cfg.MaxBiNum <= 0 {
		return nil, fmt.Errorf("%w: min_bi_len=%d max_bi_num=%d", model.ErrConfigOutOfRange, c.cfg.MinBiLen, c.cfg.MaxBiNum)
	}

	for _, bar := range bars {
		if err := c.Update(bar); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *CZSC) Symbol() string {
	return c.symbol
}

func (c *CZSC) Freq() model.Freq {
	return c.freq
}

func (c *CZSC) Config() config.Config {
	return c.cfg
}

// Update 输入一根K线；时间戳必须严格递增，周期必须一致
func (c *CZSC) Update(bar model.RawBar) error {
	if err := bar.Validate(); err != nil {
		return err
	}
	if n := len(c.barsRaw); n > 0 {
		last := c.barsRaw[n-1]
		if bar.Symbol != c.symbol {
			return fmt.Errorf("%w: symbol %s, engine is bound to %s", model.ErrInputFormat, bar.Symbol, c.symbol)
		}
		if bar.Freq != c.freq {
			return fmt.Errorf("%w: got %s, engine freq is %s", model.ErrFreqMismatch, bar.Freq, c.freq)
		}
		if !bar.Dt.After(last.Dt) {
			return fmt.Errorf("%w: %s %s is not after %s", model.ErrOrdering, bar.Symbol, bar.Dt, last.Dt)
		}
	} else {
		c.symbol, c.freq = bar.Symbol, bar.Freq
	}

	c.barsRaw = append(c.barsRaw, bar)
	c.merge(bar)
	c.updateBI()
	c.trimRaw()

	for _, fn := range c.signalFuncs {
		for _, sig := range fn(c) {
			c.signals.Set(sig)
		}
	}
	return nil
}

func (c *CZSC) merge(bar model.RawBar) {
	n := len(c.barsUBI)
	if n == 0 {
		c.barsUBI = append(c.barsUBI, model.NewBarFrom(bar, model.NoDirection))
		return
	}
	nb, included := removeInclude(c.barsUBI[n-1], bar)
	if included {
		c.barsUBI[n-1] = nb
		return
	}
	c.barsUBI = append(c.barsUBI, nb)
}

// trimRaw 原始K线只保留第一笔开始之后的部分
func (c *CZSC) trimRaw() {
	if len(c.biList) == 0 {
		return
	}
	first := c.biList[0].FxA.Elements[0].Elements[0].Dt
	i := sort.Search(len(c.barsRaw), func(i int) bool {
		return !c.barsRaw[i].Dt.Before(first)
	})
	if i == 0 {
		return
	}
	if i > len(c.barsRaw)/2 {
		c.barsRaw = append(c.barsRaw[:0:0], c.barsRaw[i:]...)
		return
	}
	c.barsRaw = c.barsRaw[i:]
}

// BarsRaw 保留的原始K线
func (c *CZSC) BarsRaw() []model.RawBar {
	return c.barsRaw
}

// BarsUBI 最后一笔终点分型左侧K线开始的无包含K线
func (c *CZSC) BarsUBI() []model.NewBar {
	return c.barsUBI
}

// BiList 已确认的笔，最多 max_bi_num 个
func (c *CZSC) BiList() []model.BI {
	return c.biList
}

// LastBar 最后一根原始K线
func (c *CZSC) LastBar() (model.RawBar, bool) {
	if len(c.barsRaw) == 0 {
		return model.RawBar{}, false
	}
	return c.barsRaw[len(c.barsRaw)-1], true
}

// FinishedBis 未完成部分不足 5 根无包含K线时，最后一笔仍可能延伸，不算完成
func (c *CZSC) FinishedBis() []model.BI {
	if len(c.biList) == 0 {
		return nil
	}
	if len(c.barsUBI) < 5 {
		return c.biList[:len(c.biList)-1]
	}
	return c.biList
}

// LastBiExtend 未完成部分的价格是否已经越过最后一笔的极值
func (c *CZSC) LastBiExtend() bool {
	if len(c.biList) == 0 || len(c.barsUBI) == 0 {
		return false
	}
	last := c.biList[len(c.biList)-1]
	for _, nb := range c.barsUBI {
		if last.Direction == model.Up && nb.High > last.High() {
			return true
		}
		if last.Direction == model.Down && nb.Low < last.Low() {
			return true
		}
	}
	return false
}

// FxList 笔内与未完成部分的全部分型，顶底交替
func (c *CZSC) FxList() []model.FX {
	var fxs []model.FX
	for i, bi := range c.biList {
		if i == 0 {
			fxs = append(fxs, bi.Fxs...)
			continue
		}
		for _, fx := range bi.Fxs {
			if len(fxs) == 0 || fx.Dt.After(fxs[len(fxs)-1].Dt) {
				fxs = append(fxs, fx)
			}
		}
	}
	for _, fx := range CheckFXs(c.barsUBI) {
		if len(fxs) == 0 || fx.Dt.After(fxs[len(fxs)-1].Dt) {
			fxs = append(fxs, fx)
		}
	}
	return alternate(fxs)
}

// Signals 引擎的信号缓存
func (c *CZSC) Signals() *SignalCache {
	return c.signals
}
