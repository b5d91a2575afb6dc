package czsc

import (
	"github.com/ezquant/czsc/czsc/model"
)

// UBI 最后一笔之后尚未成笔的部分，只读
type UBI struct {
	Symbol    string
	Direction model.Direction
	High      float64
	Low       float64
	HighBar   model.RawBar
	LowBar    model.RawBar
	Bars      []model.NewBar
	RawBars   []model.RawBar
	Fxs       []model.FX
}

// FxA 未完成部分的第一个分型
func (u UBI) FxA() (model.FX, bool) {
	if len(u.Fxs) == 0 {
		return model.FX{}, false
	}
	return u.Fxs[0], true
}

// UBI 返回最后一笔终点之后的K线与分型；还没有笔时返回全部无包含K线，方向为无方向
func (c *CZSC) UBI() (UBI, bool) {
	bars := c.barsUBI
	fxs := CheckFXs(c.barsUBI)
	dir := model.NoDirection
	if n := len(c.biList); n > 0 {
		last := c.biList[n-1]
		dir = last.Direction.Opposite()

		var after []model.NewBar
		for _, nb := range bars {
			if nb.Dt.After(last.FxB.Dt) {
				after = append(after, nb)
			}
		}
		bars = after

		var tail []model.FX
		for _, fx := range fxs {
			if fx.Dt.After(last.FxB.Dt) {
				tail = append(tail, fx)
			}
		}
		fxs = tail
	}
	if len(bars) == 0 {
		return UBI{}, false
	}

	u := UBI{Symbol: c.symbol, Direction: dir, Bars: bars, Fxs: fxs}
	for _, nb := range bars {
		u.RawBars = append(u.RawBars, nb.Elements...)
	}
	u.HighBar, u.LowBar = u.RawBars[0], u.RawBars[0]
	for _, b := range u.RawBars[1:] {
		if b.High > u.HighBar.High {
			u.HighBar = b
		}
		if b.Low < u.LowBar.Low {
			u.LowBar = b
		}
	}
	u.High, u.Low = u.HighBar.High, u.LowBar.Low
	return u, true
}
