package model

import (
	"math"
	"time"
)

// FX 分型，由三根相邻的无包含K线构成
type FX struct {
	Symbol   string
	Dt       time.Time
	Mark     Mark
	High     float64
	Low      float64
	Fx       float64
	Elements []NewBar
}

// Price 分型价格，顶分型取高点，底分型取低点
func (f FX) Price() float64 {
	return f.Fx
}

// RawBars 构成分型的原始K线
func (f FX) RawBars() []RawBar {
	var bars []RawBar
	for _, nb := range f.Elements {
		bars = append(bars, nb.Elements...)
	}
	return bars
}

// Power 分型力度：最后一根原始K线收盘价与第一根开盘价之差的绝对值
func (f FX) Power() float64 {
	raw := f.RawBars()
	if len(raw) == 0 {
		return 0
	}
	return math.Abs(raw[len(raw)-1].Close - raw[0].Open)
}

// MoreExtreme 同类分型中 f 是否比 other 更极端（顶更高、底更低）
func (f FX) MoreExtreme(other FX) bool {
	if f.Mark == G {
		return f.Fx > other.Fx
	}
	return f.Fx < other.Fx
}
