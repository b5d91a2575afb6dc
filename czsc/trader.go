package czsc

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ezquant/czsc/czsc/backtest"
	"github.com/ezquant/czsc/czsc/calendar"
	"github.com/ezquant/czsc/czsc/config"
	"github.com/ezquant/czsc/czsc/generator"
	"github.com/ezquant/czsc/czsc/model"
	"github.com/ezquant/czsc/czsc/tools/log"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
)

// 推断市场时最多看的K线数量
const inferSample = 5000

// Strategy 多周期策略。Freqs 声明需要分析的高级别周期，
// OnBar 在每根基础周期K线处理完之后被调用，返回目标持仓权重。
type Strategy interface {
	Freqs() []model.Freq
	OnBar(t *Trader) float64
}

// BarSubscriber 订阅某个周期新完成的K线
type BarSubscriber interface {
	OnBar(bar model.RawBar)
}

// Trader 单品种多周期交易者：基础周期K线 -> K线生成器 -> 各周期 CZSC -> 策略 -> 持仓权重
type Trader struct {
	base     model.Freq
	strategy Strategy
	cfg      config.Config
	logger   log.FieldLogger

	market    calendar.Market
	marketSet bool
	progress  bool

	engineOptions []Option
	subscribers   map[model.Freq][]BarSubscriber

	generator *generator.BarGenerator
	engines   map[model.Freq]*CZSC
	positions []backtest.WeightRow
}

type TraderOption func(*Trader)

// WithTraderConfig 引擎参数、生成器容量与回测参数都取自 cfg
func WithTraderConfig(cfg config.Config) TraderOption {
	return func(t *Trader) {
		t.cfg = cfg
	}
}

// WithMarket 指定市场；不指定时 Replay 根据K线时间推断
func WithMarket(m calendar.Market) TraderOption {
	return func(t *Trader) {
		t.market = m
		t.marketSet = true
	}
}

// WithProgress Replay 时在终端显示进度条
func WithProgress(show bool) TraderOption {
	return func(t *Trader) {
		t.progress = show
	}
}

func WithTraderLogger(l log.FieldLogger) TraderOption {
	return func(t *Trader) {
		t.logger = l
	}
}

// WithEngineOptions 追加到每个周期 CZSC 的选项，例如信号函数
func WithEngineOptions(options ...Option) TraderOption {
	return func(t *Trader) {
		t.engineOptions = append(t.engineOptions, options...)
	}
}

// WithBarSubscription subscribes a given struct to the finished bars of freq
func WithBarSubscription(freq model.Freq, subscriber BarSubscriber) TraderOption {
	return func(t *Trader) {
		t.subscribers[freq] = append(t.subscribers[freq], subscriber)
	}
}

func NewTrader(base model.Freq, strategy Strategy, options ...TraderOption) (*Trader, error) {
	if strategy == nil {
		return nil, fmt.Errorf("%w: strategy is nil", model.ErrInputFormat)
	}
	t := &Trader{
		base:        base,
		strategy:    strategy,
		cfg:         config.Default(),
		subscribers: make(map[model.Freq][]BarSubscriber),
		engines:     make(map[model.Freq]*CZSC),
	}
	for _, option := range options {
		option(t)
	}
	t.logger = log.OrStandard(t.logger)

	if err := t.cfg.Validate(); err != nil {
		return nil, err
	}
	if !base.Valid() {
		return nil, fmt.Errorf("%w: invalid base freq %d", model.ErrConfigOutOfRange, int(base))
	}
	// 提前校验周期，生成器在第一根K线到来时才创建
	if _, err := generator.New(base, strategy.Freqs()); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Trader) setup() error {
	g, err := generator.New(t.base, t.strategy.Freqs(),
		generator.WithMaxCount(t.cfg.MaxCount),
		generator.WithMarket(t.market),
		generator.WithLogger(t.logger),
	)
	if err != nil {
		return err
	}
	t.generator = g
	for _, f := range g.Freqs() {
		options := append([]Option{WithConfig(t.cfg), WithLogger(t.logger)}, t.engineOptions...)
		c, err := NewCZSC(nil, options...)
		if err != nil {
			return err
		}
		t.engines[f] = c
	}
	t.logger.WithFields(log.Fields{
		"base":   t.base,
		"freqs":  g.Freqs(),
		"market": t.market,
	}).Debug("trader ready")
	return nil
}

// Update 输入一根基础周期K线
func (t *Trader) Update(bar model.RawBar) error {
	if err := bar.Validate(); err != nil {
		return err
	}
	if t.generator == nil {
		if err := t.setup(); err != nil {
			return err
		}
	}

	finished, err := t.generator.Update(bar)
	if err != nil {
		return err
	}
	if len(finished) == 0 {
		return nil
	}

	for _, f := range finished {
		if err := t.feed(f); err != nil {
			return err
		}
	}

	weight := t.strategy.OnBar(t)
	t.positions = append(t.positions, backtest.WeightRow{
		Dt:     bar.Dt,
		Symbol: bar.Symbol,
		Weight: weight,
		Price:  bar.Close,
	})
	return nil
}

// feed 把生成器中尚未送入引擎的K线依次送入对应周期的 CZSC
func (t *Trader) feed(f model.Freq) error {
	c := t.engines[f]
	last, ok := c.LastBar()
	bars := t.generator.Bars(f)
	start := 0
	if ok {
		start = len(bars)
		for start > 0 && bars[start-1].Dt.After(last.Dt) {
			start--
		}
	}
	for _, b := range bars[start:] {
		if err := c.Update(b); err != nil {
			return err
		}
		for _, sub := range t.subscribers[f] {
			sub.OnBar(b)
		}
	}
	return nil
}

// Replay 按顺序回放一组基础周期K线；未指定市场时先根据K线时间推断
func (t *Trader) Replay(ctx context.Context, bars []model.RawBar) error {
	if len(bars) == 0 {
		return nil
	}
	if t.generator == nil && !t.marketSet {
		sample := bars[:min(len(bars), inferSample)]
		t.market = calendar.InferMarket(lo.Map(sample, func(b model.RawBar, _ int) time.Time { return b.Dt }))
		t.logger.WithField("market", t.market).Debug("market inferred")
	}

	var bar *progressbar.ProgressBar
	if t.progress {
		bar = progressbar.Default(int64(len(bars)))
	}
	for _, b := range bars {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := t.Update(b); err != nil {
			return err
		}
		if bar != nil {
			if err := bar.Add(1); err != nil {
				log.Warnf("update progressbar fail: %v", err)
			}
		}
	}
	return nil
}

func (t *Trader) Base() model.Freq {
	return t.base
}

// Freqs 基础周期加策略声明的周期
func (t *Trader) Freqs() []model.Freq {
	if t.generator != nil {
		return t.generator.Freqs()
	}
	return append([]model.Freq{t.base}, t.strategy.Freqs()...)
}

func (t *Trader) Market() calendar.Market {
	return t.market
}

// CZSC 指定周期的分析引擎，周期未注册或尚未收到K线时返回 nil
func (t *Trader) CZSC(f model.Freq) *CZSC {
	return t.engines[f]
}

// Bars 生成器中指定周期已完成的K线
func (t *Trader) Bars(f model.Freq) []model.RawBar {
	if t.generator == nil {
		return nil
	}
	return t.generator.Bars(f)
}

// Position 当前目标权重
func (t *Trader) Position() float64 {
	if len(t.positions) == 0 {
		return 0
	}
	return t.positions[len(t.positions)-1].Weight
}

// Positions 每根基础周期K线对应的目标权重，可直接用于回测
func (t *Trader) Positions() []backtest.WeightRow {
	out := make([]backtest.WeightRow, len(t.positions))
	copy(out, t.positions)
	return out
}

// Backtest 用配置中的回测参数回测持仓权重
func (t *Trader) Backtest() (*backtest.Result, error) {
	opts := backtest.OptionsFromConfig(t.cfg)
	opts.Logger = t.logger
	return backtest.New(t.positions, opts)
}

// Summary function displays backtest metrics of the positions
func (t *Trader) Summary(w io.Writer) error {
	res, err := t.Backtest()
	if err != nil {
		return err
	}
	res.Summary(w)
	return nil
}
