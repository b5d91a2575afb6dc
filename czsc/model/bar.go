package model

import (
	"fmt"
	"math"
	"time"
)

// RawBar 原始K线，构造后不再修改
type RawBar struct {
	Symbol string    `json:"symbol"`
	ID     int       `json:"id"`
	Dt     time.Time `json:"dt"`
	Freq   Freq      `json:"freq"`
	Open   float64   `json:"open"`
	Close  float64   `json:"close"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Vol    float64   `json:"vol"`
	Amount float64   `json:"amount"`
}

// Validate 检查必填字段与 OHLC 关系
func (b RawBar) Validate() error {
	switch {
	case b.Symbol == "":
		return fmt.Errorf("%w: symbol", ErrMissingField)
	case b.Dt.IsZero():
		return fmt.Errorf("%w: dt", ErrMissingField)
	case !b.Freq.Valid():
		return fmt.Errorf("%w: invalid freq %d", ErrInputFormat, int(b.Freq))
	}
	for _, v := range []float64{b.Open, b.Close, b.High, b.Low, b.Vol, b.Amount} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value at %s", ErrInputFormat, b.Dt)
		}
	}
	if b.Low > math.Min(b.Open, b.Close) || math.Max(b.Open, b.Close) > b.High {
		return fmt.Errorf("%w: ohlc out of order at %s (o=%v c=%v h=%v l=%v)",
			ErrInputFormat, b.Dt, b.Open, b.Close, b.High, b.Low)
	}
	if b.Vol < 0 || b.Amount < 0 {
		return fmt.Errorf("%w: negative vol/amount at %s", ErrInputFormat, b.Dt)
	}
	return nil
}

// Upper 上影线
func (b RawBar) Upper() float64 {
	return b.High - math.Max(b.Open, b.Close)
}

// Lower 下影线
func (b RawBar) Lower() float64 {
	return math.Min(b.Open, b.Close) - b.Low
}

// Solid 实体
func (b RawBar) Solid() float64 {
	return math.Abs(b.Open - b.Close)
}

// NewBar 去除包含关系后的K线，Elements 为合并进来的原始K线
type NewBar struct {
	Symbol    string
	ID        int
	Dt        time.Time
	Freq      Freq
	Open      float64
	Close     float64
	High      float64
	Low       float64
	Vol       float64
	Amount    float64
	Elements  []RawBar
	Direction Direction
}

// NewBarFrom 用一根原始K线创建无包含K线
func NewBarFrom(b RawBar, dir Direction) NewBar {
	return NewBar{
		Symbol:    b.Symbol,
		ID:        b.ID,
		Dt:        b.Dt,
		Freq:      b.Freq,
		Open:      b.Open,
		Close:     b.Close,
		High:      b.High,
		Low:       b.Low,
		Vol:       b.Vol,
		Amount:    b.Amount,
		Elements:  []RawBar{b},
		Direction: dir,
	}
}

// RawBars 返回底层原始K线
func (b NewBar) RawBars() []RawBar {
	return b.Elements
}

// Includes 两根K线之间是否存在包含关系
func Includes(a, b NewBar) bool {
	return (a.High >= b.High && a.Low <= b.Low) || (a.High <= b.High && a.Low >= b.Low)
}
