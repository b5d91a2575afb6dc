package czsc

import (
	"github.com/ezquant/czsc/czsc/model"
)

// CheckFX 检查三根相邻无包含K线是否构成分型
func CheckFX(k1, k2, k3 model.NewBar) (model.FX, bool) {
	var mark model.Mark
	var price float64
	switch {
	case k2.High > k1.High && k2.High > k3.High:
		mark, price = model.G, k2.High
	case k2.Low < k1.Low && k2.Low < k3.Low:
		mark, price = model.D, k2.Low
	default:
		return model.FX{}, false
	}
	return model.FX{
		Symbol:   k2.Symbol,
		Dt:       k2.Dt,
		Mark:     mark,
		High:     k2.High,
		Low:      k2.Low,
		Fx:       price,
		Elements: []model.NewBar{k1, k2, k3},
	}, true
}

// CheckFXs 查找序列中的全部分型，相邻同类分型只保留更极端的一个，保证顶底交替
func CheckFXs(bars []model.NewBar) []model.FX {
	var fxs []model.FX
	for i := 1; i < len(bars)-1; i++ {
		if fx, ok := CheckFX(bars[i-1], bars[i], bars[i+1]); ok {
			fxs = append(fxs, fx)
		}
	}
	return alternate(fxs)
}

// alternate 相邻同类分型只保留更极端的一个
func alternate(fxs []model.FX) []model.FX {
	var out []model.FX
	for _, fx := range fxs {
		if n := len(out); n > 0 && out[n-1].Mark == fx.Mark {
			if fx.MoreExtreme(out[n-1]) {
				out[n-1] = fx
			}
			continue
		}
		out = append(out, fx)
	}
	return out
}
