package tools

import (
	"testing"
	"time"

	"github.com/ezquant/czsc/czsc"
	"github.com/ezquant/czsc/czsc/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closeAbove(level float64) Condition {
	return func(t *czsc.Trader) bool {
		bar, ok := t.CZSC(model.F1).LastBar()
		return ok && bar.Close > level
	}
}

func closeBelow(level float64) Condition {
	return func(t *czsc.Trader) bool {
		bar, ok := t.CZSC(model.F1).LastBar()
		return ok && bar.Close < level
	}
}

func replay(t *testing.T, s *Scheduler, closes []float64) []float64 {
	trader, err := czsc.NewTrader(model.F1, s)
	require.NoError(t, err)
	start := time.Date(2024, 1, 2, 9, 31, 0, 0, time.Local)
	for i, c := range closes {
		require.NoError(t, trader.Update(model.RawBar{
			Symbol: "A", Dt: start.Add(time.Duration(i) * time.Minute), Freq: model.F1,
			Open: c, Close: c, High: c + 0.1, Low: c - 0.1, Vol: 1,
		}))
	}
	var weights []float64
	for _, p := range trader.Positions() {
		weights = append(weights, p.Weight)
	}
	return weights
}

func TestScheduler(t *testing.T) {
	s := NewScheduler()
	s.LongWhen(0.5, closeAbove(10.5))
	s.FlatWhen(closeBelow(10.3))
	s.ShortWhen(1, closeBelow(10))

	weights := replay(t, s, []float64{10, 10.4, 10.6, 10.8, 10.2, 9.8})
	assert.Equal(t, []float64{0, 0, 0.5, 0.5, 0, -1}, weights)
	assert.Equal(t, 3, s.Pending())
}

func TestSchedulerOnce(t *testing.T) {
	s := NewScheduler()
	s.When(1, closeAbove(10.5), true)
	s.FlatWhen(closeBelow(10.3))

	weights := replay(t, s, []float64{10.6, 10.2, 10.7})
	assert.Equal(t, []float64{1, 0, 0}, weights)
	assert.Equal(t, 1, s.Pending())
}

func TestConditions(t *testing.T) {
	key := model.SignalKey{K1: "1分钟", K2: "收盘", K3: "方向"}
	up := func(c *czsc.CZSC) []model.Signal {
		bar, _ := c.LastBar()
		v := "向下"
		if bar.Close >= bar.Open {
			v = "向上"
		}
		return []model.Signal{model.NewSignal(key, v, "", "", 0)}
	}

	s := NewScheduler()
	s.LongWhen(1, SignalIs(model.F1, model.NewSignal(key, "向上", "", "", 0)))
	s.FlatWhen(LastBiIs(model.F5, model.Up))

	trader, err := czsc.NewTrader(model.F1, s, czsc.WithEngineOptions(czsc.WithSignals(up)))
	require.NoError(t, err)
	start := time.Date(2024, 1, 2, 9, 31, 0, 0, time.Local)
	require.NoError(t, trader.Update(model.RawBar{
		Symbol: "A", Dt: start, Freq: model.F1, Open: 10, Close: 10.2, High: 10.3, Low: 9.9, Vol: 1,
	}))
	assert.Equal(t, 1.0, trader.Position())
}
