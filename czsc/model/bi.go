package model

import (
	"math"
	"time"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// BI 笔，从分型 FxA 到反向分型 FxB
type BI struct {
	Symbol    string
	FxA       FX
	FxB       FX
	Fxs       []FX
	Direction Direction
	Bars      []NewBar
}

func (b BI) High() float64 {
	return math.Max(b.FxA.Fx, b.FxB.Fx)
}

func (b BI) Low() float64 {
	return math.Min(b.FxA.Fx, b.FxB.Fx)
}

func (b BI) Sdt() time.Time {
	return b.FxA.Dt
}

func (b BI) Edt() time.Time {
	return b.FxB.Dt
}

// Length 笔覆盖的无包含K线数量
func (b BI) Length() int {
	return len(b.Bars)
}

// PowerPrice 价差力度
func (b BI) PowerPrice() float64 {
	return math.Abs(b.FxB.Fx - b.FxA.Fx)
}

// Change 笔的涨跌幅
func (b BI) Change() float64 {
	if b.FxA.Fx == 0 {
		return 0
	}
	return (b.FxB.Fx - b.FxA.Fx) / b.FxA.Fx
}

// RawBars 笔内部的原始K线，不含首尾两根无包含K线
func (b BI) RawBars() []RawBar {
	if len(b.Bars) < 3 {
		return nil
	}
	var bars []RawBar
	for _, nb := range b.Bars[1 : len(b.Bars)-1] {
		bars = append(bars, nb.Elements...)
	}
	return bars
}

// PowerVolume 成交量力度
func (b BI) PowerVolume() float64 {
	var v float64
	for _, x := range b.RawBars() {
		v += x.Vol
	}
	return v
}

func (b BI) closes() []float64 {
	raw := b.RawBars()
	closes := make([]float64, len(raw))
	for i, x := range raw {
		closes[i] = x.Close
	}
	return closes
}

// Rsq 笔内收盘价对序号做线性回归的拟合优度
func (b BI) Rsq() float64 {
	y := b.closes()
	if len(y) < 2 {
		return 0
	}
	x := make([]float64, len(y))
	for i := range x {
		x[i] = float64(i)
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	r2 := stat.RSquared(x, y, nil, alpha, beta)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		return 0
	}
	return r2
}

// Slope 笔内收盘价的线性回归斜率
func (b BI) Slope() float64 {
	y := b.closes()
	if len(y) < 2 {
		return 0
	}
	out := talib.LinearRegSlope(y, len(y))
	return out[len(out)-1]
}
