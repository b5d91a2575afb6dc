package czsc

import (
	"github.com/ezquant/czsc/czsc/model"
)

// removeInclude 处理新K线与最后一根无包含K线之间的包含关系。
// 存在包含时返回合并后的K线与 true，否则返回由新K线构造的无包含K线与 false。
func removeInclude(last model.NewBar, bar model.RawBar) (model.NewBar, bool) {
	cand := model.NewBarFrom(bar, model.NoDirection)
	if !model.Includes(last, cand) {
		if cand.High > last.High {
			cand.Direction = model.Up
		} else {
			cand.Direction = model.Down
		}
		return cand, false
	}

	// 方向由前两根无包含K线决定，只有一根时默认向上
	dir := last.Direction
	if dir == model.NoDirection {
		dir = model.Up
	}

	var high, low, open, close float64
	if dir == model.Up {
		high = max(last.High, bar.High)
		low = max(last.Low, bar.Low)
		open, close = low, high
	} else {
		high = min(last.High, bar.High)
		low = min(last.Low, bar.Low)
		open, close = high, low
	}

	elements := make([]model.RawBar, 0, len(last.Elements)+1)
	elements = append(elements, last.Elements...)
	elements = append(elements, bar)

	return model.NewBar{
		Symbol:    last.Symbol,
		ID:        last.ID,
		Dt:        bar.Dt,
		Freq:      last.Freq,
		Open:      open,
		Close:     close,
		High:      high,
		Low:       low,
		Vol:       last.Vol + bar.Vol,
		Amount:    last.Amount + bar.Amount,
		Elements:  elements,
		Direction: dir,
	}, true
}
