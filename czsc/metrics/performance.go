// Package metrics 计算日收益序列的绩效指标。
package metrics

import (
	"fmt"
	"math"
	"time"

	"github.com/ezquant/czsc/czsc/model"
	"github.com/ezquant/czsc/czsc/tools/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const DefaultYearlyDays = 252

// Performance 日收益绩效指标，字段顺序与 Keys 一致
type Performance struct {
	AbsoluteReturn     float64 // 绝对收益
	AnnualReturn       float64 // 年化
	Sharpe             float64 // 夏普
	MaxDrawdown        float64 // 最大回撤
	Calmar             float64 // 卡玛
	WinRate            float64 // 日胜率
	ProfitLossRatio    float64 // 日盈亏比
	WinExpectancy      float64 // 日赢面
	AnnualVolatility   float64 // 年化波动率
	DownsideVolatility float64 // 下行波动率
	NonZeroCover       float64 // 非零覆盖
	BreakEven          float64 // 盈亏平衡点
	NewHighInterval    int     // 新高间隔
	NewHighRatio       float64 // 新高占比
	DrawdownRisk       float64 // 回撤风险
}

// Keys 指标的中文名，按输出顺序排列
var Keys = []string{
	"绝对收益", "年化", "夏普", "最大回撤", "卡玛", "日胜率", "日盈亏比", "日赢面",
	"年化波动率", "下行波动率", "非零覆盖", "盈亏平衡点", "新高间隔", "新高占比", "回撤风险",
}

// Values 与 Keys 一一对应
func (p Performance) Values() []float64 {
	return []float64{
		p.AbsoluteReturn, p.AnnualReturn, p.Sharpe, p.MaxDrawdown, p.Calmar, p.WinRate,
		p.ProfitLossRatio, p.WinExpectancy, p.AnnualVolatility, p.DownsideVolatility,
		p.NonZeroCover, p.BreakEven, float64(p.NewHighInterval), p.NewHighRatio, p.DrawdownRisk,
	}
}

func (p Performance) ToMap() map[string]float64 {
	values := p.Values()
	m := make(map[string]float64, len(Keys))
	for i, k := range Keys {
		m[k] = values[i]
	}
	return m
}

// IsZero 退化输入的结果
func (p Performance) IsZero() bool {
	return p == Performance{}
}

type options struct {
	yearlyDays int
	logger     log.FieldLogger
}

type Option func(*options)

// WithYearlyDays 年化天数，默认 252
func WithYearlyDays(n int) Option {
	return func(o *options) {
		o.yearlyDays = n
	}
}

// WithLogger 退化输入时输出一行诊断信息
func WithLogger(l log.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func newOptions(opts []Option) (options, error) {
	o := options{yearlyDays: DefaultYearlyDays}
	for _, opt := range opts {
		opt(&o)
	}
	if o.yearlyDays <= 0 {
		return o, fmt.Errorf("%w: yearly_days must be positive, got %d", model.ErrConfigOutOfRange, o.yearlyDays)
	}
	return o, nil
}

// DailyPerformance 计算日收益序列的绩效；空序列、全零或标准差为零时返回全零结果
func DailyPerformance(returns []float64, opts ...Option) (Performance, error) {
	o, err := newOptions(opts)
	if err != nil {
		return Performance{}, err
	}
	return dailyPerformance(returns, o), nil
}

func dailyPerformance(returns []float64, o options) Performance {
	n := len(returns)
	if n == 0 {
		diagnose(o, "empty returns")
		return Performance{}
	}
	if floats.Norm(returns, 1) == 0 {
		diagnose(o, "all returns are zero")
		return Performance{}
	}
	avg, std := stat.PopMeanStdDev(returns, nil)
	if std == 0 || math.IsNaN(std) {
		diagnose(o, "zero standard deviation")
		return Performance{}
	}

	yd := float64(o.yearlyDays)
	annual := avg * yd
	sharpe := avg / std * math.Sqrt(yd)

	cum := floats.CumSum(make([]float64, n), returns)
	var (
		maxDD       float64
		peak        = cum[0]
		zeroDD      int
		run, maxRun int
	)
	for _, c := range cum {
		if c > peak {
			peak = c
			run = 0
		}
		run++
		maxRun = max(maxRun, run)
		dd := peak - c
		if dd == 0 {
			zeroDD++
		}
		maxDD = max(maxDD, dd)
	}

	calmar := 10.0
	if maxDD != 0 {
		calmar = Clip(annual/maxDD, -10, 10)
	}

	var wins, losses, nonZero []float64
	for _, r := range returns {
		if r >= 0 {
			wins = append(wins, r)
		} else {
			losses = append(losses, r)
		}
		if r != 0 {
			nonZero = append(nonZero, r)
		}
	}
	winRate := float64(len(wins)) / float64(n)
	plRatio := 5.0
	if len(losses) > 0 {
		plRatio = math.Abs(mean(wins) / mean(losses))
	}
	downside := 0.0
	if len(losses) > 0 {
		_, lossStd := stat.PopMeanStdDev(losses, nil)
		downside = lossStd * math.Sqrt(yd)
	}
	annualVol := std * math.Sqrt(yd)

	return Performance{
		AbsoluteReturn:     Round(floats.Sum(returns), 4),
		AnnualReturn:       Round(annual, 4),
		Sharpe:             Round(Clip(sharpe, -5, 5), 2),
		MaxDrawdown:        Round(maxDD, 4),
		Calmar:             Round(calmar, 2),
		WinRate:            Round(winRate, 4),
		ProfitLossRatio:    Round(plRatio, 4),
		WinExpectancy:      Round(winRate*plRatio-(1-winRate), 4),
		AnnualVolatility:   Round(annualVol, 4),
		DownsideVolatility: Round(downside, 4),
		NonZeroCover:       Round(float64(len(nonZero))/float64(n), 4),
		BreakEven:          BreakEvenPoint(returns),
		NewHighInterval:    maxRun,
		NewHighRatio:       Round(float64(zeroDD)/float64(n), 4),
		DrawdownRisk:       Round(maxDD/annualVol, 4),
	}
}

func diagnose(o options, reason string) {
	if o.logger != nil {
		o.logger.WithField("reason", reason).Debug("degenerate returns, performance set to zero")
	}
}

// BreakEvenPoint 盈利日统一乘以系数 k 后总收益仍不小于零的最小 k；
// 总收益为负时返回 1，没有亏损日时返回 0
func BreakEvenPoint(returns []float64) float64 {
	var pos, neg float64
	for _, r := range returns {
		if r > 0 {
			pos += r
		} else {
			neg += r
		}
	}
	if pos+neg < 0 {
		return 1
	}
	if neg == 0 || pos == 0 {
		return 0
	}
	return Round(math.Min(1, -neg/pos), 4)
}

// Point 带日期的收益
type Point struct {
	Date  time.Time
	Value float64
}

func values(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}
