package czsc

import (
	"math"

	"github.com/ezquant/czsc/czsc/model"
	"github.com/ezquant/czsc/czsc/tools/log"
)

func indexOfDt(bars []model.NewBar, fx model.FX, element int) int {
	dt := fx.Elements[element].Dt
	for i := len(bars) - 1; i >= 0; i-- {
		if bars[i].Dt.Equal(dt) {
			return i
		}
	}
	return -1
}

func fxsBetween(fxs []model.FX, a, b model.FX) []model.FX {
	var out []model.FX
	for _, fx := range fxs {
		if !fx.Dt.Before(a.Dt) && !fx.Dt.After(b.Dt) {
			out = append(out, fx)
		}
	}
	return out
}

func cloneBars(bars []model.NewBar) []model.NewBar {
	out := make([]model.NewBar, len(bars))
	copy(out, bars)
	return out
}

func biDirection(fxA model.FX) model.Direction {
	if fxA.Mark == model.D {
		return model.Up
	}
	return model.Down
}

// beyond 候选终点分型是否越过起点分型的价格
func beyond(fxB, fxA model.FX) bool {
	if fxA.Mark == model.D {
		return fxB.Fx > fxA.Fx
	}
	return fxB.Fx < fxA.Fx
}

// checkBI 以 fxA 为起点在 bars 中寻找成笔的终点分型。
// 成笔时返回新笔以及从终点分型左侧K线开始的剩余序列。
func (c *CZSC) checkBI(bars []model.NewBar, fxA model.FX) (model.BI, []model.NewBar, bool) {
	fxs := CheckFXs(bars)

	var (
		fxB   model.FX
		found bool
	)
	for _, fx := range fxs {
		if fx.Mark != fxA.Mark.Opposite() || !fx.Dt.After(fxA.Dt) || !beyond(fx, fxA) {
			continue
		}
		// 同价取最早出现的一个
		if !found || fx.MoreExtreme(fxB) {
			fxB, found = fx, true
		}
	}
	if !found {
		return model.BI{}, nil, false
	}

	start := indexOfDt(bars, fxA, 0)
	end := indexOfDt(bars, fxB, 2)
	if start < 0 || end < 0 || end-start+1 < c.cfg.MinBiLen {
		return model.BI{}, nil, false
	}

	if c.cfg.ChangeThEnabled() && fxA.Fx != 0 {
		if math.Abs(fxB.Fx-fxA.Fx)/math.Abs(fxA.Fx) < c.cfg.ChangeTh {
			return model.BI{}, nil, false
		}
	}

	inner := fxsBetween(fxs, fxA, fxB)
	for _, fx := range inner {
		if fx.Mark == fxB.Mark && fx.Dt.Before(fxB.Dt) && !fxB.MoreExtreme(fx) {
			return model.BI{}, nil, false
		}
	}

	bi := model.BI{
		Symbol:    fxA.Symbol,
		FxA:       fxA,
		FxB:       fxB,
		Fxs:       inner,
		Direction: biDirection(fxA),
		Bars:      cloneBars(bars[start : end+1]),
	}
	return bi, cloneBars(bars[end-2:]), true
}

// extendLastBI 未完成部分出现比最后一笔终点更极端的同类分型时，把终点移到新分型上
func (c *CZSC) extendLastBI() bool {
	last := c.biList[len(c.biList)-1]

	var (
		best  model.FX
		found bool
	)
	for _, fx := range CheckFXs(c.barsUBI) {
		if fx.Mark != last.FxB.Mark || !fx.Dt.After(last.FxB.Dt) || !fx.MoreExtreme(last.FxB) {
			continue
		}
		if !found || fx.MoreExtreme(best) {
			best, found = fx, true
		}
	}
	if !found {
		return false
	}

	cut := indexOfDt(last.Bars, last.FxB, 0)
	end := indexOfDt(c.barsUBI, best, 2)
	if cut < 0 || end < 2 {
		return false
	}

	bars := make([]model.NewBar, 0, cut+end+1)
	bars = append(bars, last.Bars[:cut]...)
	bars = append(bars, c.barsUBI[:end+1]...)

	c.biList[len(c.biList)-1] = model.BI{
		Symbol:    last.Symbol,
		FxA:       last.FxA,
		FxB:       best,
		Fxs:       fxsBetween(CheckFXs(bars), last.FxA, best),
		Direction: last.Direction,
		Bars:      bars,
	}
	c.barsUBI = cloneBars(c.barsUBI[end-2:])
	return true
}

func atLeastAsExtreme(fx, ref model.FX) bool {
	if fx.Mark == model.G {
		return fx.Fx >= ref.Fx
	}
	return fx.Fx <= ref.Fx
}

func (c *CZSC) updateBI() {
	if len(c.barsUBI) < 3 {
		return
	}

	if len(c.biList) == 0 {
		fxs := CheckFXs(c.barsUBI)
		if len(fxs) == 0 {
			return
		}
		// 起点取同类分型中最极端的，同价取最后一个
		fxA := fxs[0]
		for _, fx := range fxs {
			if fx.Mark == fxA.Mark && atLeastAsExtreme(fx, fxA) {
				fxA = fx
			}
		}
		if i := indexOfDt(c.barsUBI, fxA, 0); i > 0 {
			c.barsUBI = cloneBars(c.barsUBI[i:])
		}
		if bi, rest, ok := c.checkBI(c.barsUBI, fxA); ok {
			c.appendBI(bi)
			c.barsUBI = rest
		}
		return
	}

	c.extendLastBI()
	last := c.biList[len(c.biList)-1]
	if bi, rest, ok := c.checkBI(c.barsUBI, last.FxB); ok {
		c.appendBI(bi)
		c.barsUBI = rest
	}
}

func (c *CZSC) appendBI(bi model.BI) {
	c.logger.WithFields(log.Fields{
		"symbol":    bi.Symbol,
		"freq":      bi.FxA.Elements[1].Freq.String(),
		"direction": bi.Direction.String(),
		"sdt":       bi.Sdt(),
		"edt":       bi.Edt(),
	}).Debug("new bi")

	c.biList = append(c.biList, bi)
	if n := len(c.biList); n > c.cfg.MaxBiNum {
		c.biList = c.biList[n-c.cfg.MaxBiNum:]
	}
}
