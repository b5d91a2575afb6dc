// Package backtest 把 (dt, symbol, weight, price) 持仓权重序列模拟成日收益、交易对与绩效统计。
//
// 回测是一个纯函数：读入权重、输出结果，内部没有 I/O。
package backtest

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ezquant/czsc/czsc/config"
	"github.com/ezquant/czsc/czsc/model"
	"github.com/ezquant/czsc/czsc/tools/log"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// WeightRow 某一时刻某个品种的目标持仓权重，正数为多头，负数为空头，0 为空仓
type WeightRow struct {
	Dt     time.Time
	Symbol string
	Weight float64
	Price  float64
}

type Options struct {
	Digits           int
	FeeRate          float64
	WeightType       string
	YearlyDays       int
	IncludeOpenPairs bool

	// Strict 要求输入已经按品种内时间递增排列，否则返回 ErrOrdering
	Strict bool
	Logger log.FieldLogger `json:"-"`
}

// DefaultOptions 取默认配置
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Digits:           cfg.Digits,
		FeeRate:          cfg.FeeRate,
		WeightType:       cfg.WeightType,
		YearlyDays:       cfg.YearlyDays,
		IncludeOpenPairs: cfg.IncludeOpenPairs,
	}
}

func (o Options) validate() error {
	cfg := config.Default()
	cfg.Digits = o.Digits
	cfg.FeeRate = o.FeeRate
	cfg.WeightType = o.WeightType
	cfg.YearlyDays = o.YearlyDays
	return cfg.Validate()
}

// row 内部使用，记录原始行号便于报错
type row struct {
	WeightRow
	idx int
}

// Result 回测结果，所有切片按 (symbol, dt) 或日期升序排列
type Result struct {
	Options Options
	Symbols []string

	SymbolDaily  []SymbolDaily
	DailyReturns []DailyReturn
	Pairs        []Pair

	Stats      Stats
	LongStats  Stats
	ShortStats Stats
}

// New 执行回测
func New(rows []WeightRow, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty weights", model.ErrInputFormat)
	}
	logger := log.OrStandard(opts.Logger)

	data, err := prepare(rows, opts)
	if err != nil {
		return nil, err
	}

	res := &Result{Options: opts}
	res.Symbols = lo.Uniq(lo.Map(data, func(r row, _ int) string { return r.Symbol }))

	var longRows, shortRows int
	for _, symbol := range res.Symbols {
		group := lo.Filter(data, func(r row, _ int) bool { return r.Symbol == symbol })
		res.SymbolDaily = append(res.SymbolDaily, simulate(symbol, group, opts.FeeRate)...)
		res.Pairs = append(res.Pairs, extractPairs(symbol, group, opts.Digits, opts.FeeRate)...)
		for _, r := range group {
			if r.Weight > 0 {
				longRows++
			} else if r.Weight < 0 {
				shortRows++
			}
		}
	}
	if !opts.IncludeOpenPairs {
		res.Pairs = lo.Filter(res.Pairs, func(p Pair, _ int) bool { return !p.Open })
	}

	res.DailyReturns = pivot(res.SymbolDaily, res.Symbols, opts.WeightType)

	closed := lo.Filter(res.Pairs, func(p Pair, _ int) bool { return !p.Open })
	base := statsBase{
		symbols:   len(res.Symbols),
		longRate:  float64(longRows) / float64(len(data)),
		shortRate: float64(shortRows) / float64(len(data)),
	}
	res.Stats, err = buildStats(res.DailyReturns, totalOf, closed, base, opts, logger)
	if err != nil {
		return nil, err
	}
	res.LongStats, err = buildStats(res.DailyReturns, longOf, lo.Filter(closed, func(p Pair, _ int) bool {
		return p.Direction == Long
	}), base, opts, logger)
	if err != nil {
		return nil, err
	}
	res.ShortStats, err = buildStats(res.DailyReturns, shortOf, lo.Filter(closed, func(p Pair, _ int) bool {
		return p.Direction == Short
	}), base, opts, logger)
	if err != nil {
		return nil, err
	}

	logger.WithFields(log.Fields{
		"symbols": len(res.Symbols),
		"rows":    len(data),
		"pairs":   len(res.Pairs),
		"days":    len(res.DailyReturns),
	}).Debug("weight backtest finished")
	return res, nil
}

// prepare 校验、四舍五入权重并按 (symbol, dt) 稳定排序
func prepare(rows []WeightRow, opts Options) ([]row, error) {
	data := make([]row, len(rows))
	last := make(map[string]time.Time)
	for i, r := range rows {
		if err := checkRow(i, r); err != nil {
			return nil, err
		}
		if opts.Strict {
			if prev, ok := last[r.Symbol]; ok && !r.Dt.After(prev) {
				return nil, &model.RowError{Row: i, Key: key(r), Err: model.ErrOrdering}
			}
			last[r.Symbol] = r.Dt
		}
		r.Weight = decimal.NewFromFloat(r.Weight).Round(int32(opts.Digits)).InexactFloat64()
		data[i] = row{WeightRow: r, idx: i}
	}

	sort.SliceStable(data, func(i, j int) bool {
		if data[i].Symbol != data[j].Symbol {
			return data[i].Symbol < data[j].Symbol
		}
		return data[i].Dt.Before(data[j].Dt)
	})
	for i := 1; i < len(data); i++ {
		if data[i].Symbol == data[i-1].Symbol && data[i].Dt.Equal(data[i-1].Dt) {
			return nil, &model.RowError{Row: data[i].idx, Key: key(data[i].WeightRow), Err: model.ErrDuplicateKey}
		}
	}
	return data, nil
}

func checkRow(i int, r WeightRow) error {
	missing := func(field string) error {
		return &model.RowError{Row: i, Key: key(r), Err: fmt.Errorf("%w: %s", model.ErrMissingField, field)}
	}
	switch {
	case r.Symbol == "":
		return missing("symbol")
	case r.Dt.IsZero():
		return missing("dt")
	case math.IsNaN(r.Weight):
		return missing("weight")
	case math.IsNaN(r.Price):
		return missing("price")
	case math.IsInf(r.Weight, 0) || math.IsInf(r.Price, 0) || r.Price <= 0:
		return &model.RowError{Row: i, Key: key(r), Err: fmt.Errorf("%w: weight=%v price=%v", model.ErrInputFormat, r.Weight, r.Price)}
	}
	return nil
}

func key(r WeightRow) string {
	if r.Dt.IsZero() {
		return r.Symbol
	}
	return r.Symbol + "@" + r.Dt.Format("2006-01-02 15:04:05")
}
