package czsc

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/ezquant/czsc/czsc/config"
	"github.com/ezquant/czsc/czsc/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 2, 9, 31, 0, 0, time.Local)

// barsFromHL 根据 (high, low) 构造1分钟K线，上涨K线开低收高，下跌K线开高收低
func barsFromHL(hl [][2]float64) []model.RawBar {
	bars := make([]model.RawBar, len(hl))
	for i, x := range hl {
		high, low := x[0], x[1]
		open, close := low, high
		if i > 0 && high < hl[i-1][0] {
			open, close = high, low
		}
		bars[i] = model.RawBar{
			Symbol: "000001.SZ", ID: i, Dt: t0.Add(time.Duration(i) * time.Minute), Freq: model.F1,
			Open: open, Close: close, High: high, Low: low, Vol: 1000, Amount: 1000 * close,
		}
	}
	return bars
}

var s2 = [][2]float64{
	{105, 101}, {103, 99}, {101, 98}, {104, 100}, {106, 102}, {108, 103}, {110, 105},
	{111, 106}, {113, 108}, {114, 110}, {115, 112}, {113, 109}, {111, 107},
}

var s3 = [][2]float64{
	{114, 109}, {116, 111}, {118, 113}, {117, 112}, {115, 110},
}

func randomWalk(n int, seed int64) []model.RawBar {
	rng := rand.New(rand.NewSource(seed))
	bars := make([]model.RawBar, n)
	price := 100.0
	for i := range bars {
		open := price
		close := open + rng.NormFloat64()*0.8
		high := math.Max(open, close) + math.Abs(rng.NormFloat64())*0.4
		low := math.Min(open, close) - math.Abs(rng.NormFloat64())*0.4
		bars[i] = model.RawBar{
			Symbol: "RW", ID: i, Dt: t0.Add(time.Duration(i) * time.Minute), Freq: model.F1,
			Open: open, Close: close, High: high, Low: low, Vol: 100 + float64(rng.Intn(100)),
		}
		price = close
	}
	return bars
}

// 高低点不变的K线相互包含，合并为一根无包含K线
func TestAllIncludedBars(t *testing.T) {
	var bars []model.RawBar
	for i := 0; i < 10; i++ {
		bars = append(bars, model.RawBar{
			Symbol: "000001.SZ", ID: i, Dt: t0.Add(time.Duration(i) * time.Minute), Freq: model.F1,
			Open: 100, Close: 100 + float64(i), High: 110, Low: 99, Vol: 10,
		})
	}
	c, err := NewCZSC(bars)
	require.NoError(t, err)

	require.Len(t, c.BarsUBI(), 1)
	assert.Len(t, c.BarsUBI()[0].Elements, 10)
	assert.InDelta(t, 100, c.BarsUBI()[0].Vol, 1e-9)
	assert.Empty(t, c.FxList())
	assert.Empty(t, c.BiList())
	assert.Len(t, c.BarsRaw(), 10)
}

// 收盘价 100..109 单调上涨，高低点同步抬升，不存在包含关系
func TestMonotonicRise(t *testing.T) {
	var bars []model.RawBar
	for i := 0; i < 10; i++ {
		c := 100 + float64(i)
		bars = append(bars, model.RawBar{
			Symbol: "000001.SZ", ID: i, Dt: t0.Add(time.Duration(i) * time.Minute), Freq: model.F1,
			Open: c - 0.5, Close: c, High: c + 0.5, Low: c - 1, Vol: 10,
		})
	}
	c, err := NewCZSC(bars)
	require.NoError(t, err)

	ubi := c.BarsUBI()
	require.Len(t, ubi, 10)
	for i := 1; i < len(ubi); i++ {
		assert.Equal(t, model.Up, ubi[i].Direction)
		assert.Len(t, ubi[i].Elements, 1)
	}
	assert.Empty(t, c.FxList())
	assert.Empty(t, c.BiList())
}

func TestMinimalUpStroke(t *testing.T) {
	bars := barsFromHL(s2)

	c, err := NewCZSC(bars[:11])
	require.NoError(t, err)
	assert.Empty(t, c.BiList(), "top fractal needs its right bar")

	require.NoError(t, c.Update(bars[11]))
	require.Len(t, c.BiList(), 1)
	require.NoError(t, c.Update(bars[12]))
	require.Len(t, c.BiList(), 1)

	bi := c.BiList()[0]
	assert.Equal(t, model.Up, bi.Direction)
	assert.Equal(t, model.D, bi.FxA.Mark)
	assert.Equal(t, model.G, bi.FxB.Mark)
	assert.Equal(t, 98.0, bi.Low())
	assert.Equal(t, 115.0, bi.High())
	assert.Equal(t, bars[2].Dt, bi.Sdt())
	assert.Equal(t, bars[10].Dt, bi.Edt())
	assert.Equal(t, 11, bi.Length())
	assert.InDelta(t, 17, bi.PowerPrice(), 1e-9)

	fxs := c.FxList()
	require.Len(t, fxs, 2)
	assert.Equal(t, model.D, fxs[0].Mark)
	assert.Equal(t, model.G, fxs[1].Mark)

	u, ok := c.UBI()
	require.True(t, ok)
	assert.Equal(t, model.Down, u.Direction)
	assert.Len(t, u.Bars, 2)
	assert.Equal(t, 113.0, u.High)
	assert.Equal(t, 107.0, u.Low)
	assert.Empty(t, u.Fxs)
	assert.False(t, c.LastBiExtend())
	assert.Empty(t, c.FinishedBis())

	assert.Equal(t, bars[1].Dt, c.BarsRaw()[0].Dt)
}

func TestStrokeExtension(t *testing.T) {
	bars := barsFromHL(append(append([][2]float64{}, s2...), s3...))

	c, err := NewCZSC(bars[:15])
	require.NoError(t, err)
	require.Len(t, c.BiList(), 1)
	assert.Equal(t, 115.0, c.BiList()[0].High())
	assert.True(t, c.LastBiExtend())

	require.NoError(t, c.Update(bars[15]))
	require.NoError(t, c.Update(bars[16]))
	require.Len(t, c.BiList(), 1)
	bi := c.BiList()[0]
	assert.Equal(t, 118.0, bi.High())
	assert.Equal(t, 98.0, bi.Low())
	assert.Equal(t, bars[15].Dt, bi.Edt())
	assert.Equal(t, 16, bi.Length())

	require.NoError(t, c.Update(bars[17]))
	require.Len(t, c.BiList(), 1)
	assert.Equal(t, 118.0, c.BiList()[0].High())
	assertInvariants(t, c)
}

func TestFewBars(t *testing.T) {
	c, err := NewCZSC(barsFromHL(s2[:5]))
	require.NoError(t, err)
	assert.Empty(t, c.BiList())
	_, ok := c.UBI()
	assert.True(t, ok)
}

func TestChangeThreshold(t *testing.T) {
	bars := barsFromHL(s2)

	c, err := NewCZSC(bars, WithChangeTh(0.2))
	require.NoError(t, err)
	assert.Empty(t, c.BiList())

	c, err = NewCZSC(bars, WithChangeTh(0.1))
	require.NoError(t, err)
	assert.Len(t, c.BiList(), 1)

	c, err = NewCZSC(bars, WithMinBiLen(12))
	require.NoError(t, err)
	assert.Empty(t, c.BiList())
}

func TestUpdateErrors(t *testing.T) {
	bars := barsFromHL(s2)
	c, err := NewCZSC(bars[:3])
	require.NoError(t, err)

	assert.ErrorIs(t, c.Update(bars[2]), model.ErrOrdering)
	assert.ErrorIs(t, c.Update(bars[1]), model.ErrOrdering)

	wrong := bars[3]
	wrong.Freq = model.F5
	assert.ErrorIs(t, c.Update(wrong), model.ErrFreqMismatch)

	bad := bars[3]
	bad.Low = bad.High + 1
	assert.ErrorIs(t, c.Update(bad), model.ErrInputFormat)

	require.NoError(t, c.Update(bars[3]))

	_, err = NewCZSC(nil, WithMinBiLen(1))
	assert.ErrorIs(t, err, model.ErrConfigOutOfRange)
}

func assertInvariants(t *testing.T, c *CZSC) {
	t.Helper()
	cfg := c.Config()

	raw := c.BarsRaw()
	for i := 1; i < len(raw); i++ {
		require.True(t, raw[i].Dt.After(raw[i-1].Dt))
	}

	noInclusion := func(bars []model.NewBar) {
		for i := 1; i < len(bars); i++ {
			require.False(t, model.Includes(bars[i-1], bars[i]), "inclusion at %s", bars[i].Dt)
		}
	}
	noInclusion(c.BarsUBI())

	fxs := c.FxList()
	for i := 1; i < len(fxs); i++ {
		require.NotEqual(t, fxs[i-1].Mark, fxs[i].Mark)
	}

	bis := c.BiList()
	require.LessOrEqual(t, len(bis), cfg.MaxBiNum)
	for i, bi := range bis {
		noInclusion(bi.Bars)
		require.NotEqual(t, bi.FxA.Mark, bi.FxB.Mark)
		if bi.Direction == model.Up {
			require.Equal(t, model.D, bi.FxA.Mark)
			require.Less(t, bi.FxA.Fx, bi.FxB.Fx)
		} else {
			require.Equal(t, model.G, bi.FxA.Mark)
			require.Greater(t, bi.FxA.Fx, bi.FxB.Fx)
		}
		require.GreaterOrEqual(t, bi.Length(), cfg.MinBiLen)

		for _, fx := range bi.Fxs {
			if fx.Mark != bi.FxB.Mark || !fx.Dt.Before(bi.FxB.Dt) || !fx.Dt.After(bi.FxA.Dt) {
				continue
			}
			if bi.FxB.Mark == model.G {
				require.Less(t, fx.Fx, bi.FxB.Fx)
			} else {
				require.Greater(t, fx.Fx, bi.FxB.Fx)
			}
		}
		if i > 0 {
			require.Equal(t, bis[i-1].FxB.Dt, bi.FxA.Dt)
		}
	}
}

func TestInvariantsEveryUpdate(t *testing.T) {
	bars := randomWalk(3000, 7)
	c, err := NewCZSC(nil, WithMaxBiNum(20))
	require.NoError(t, err)

	var prevFirst time.Time
	for _, b := range bars {
		require.NoError(t, c.Update(b))
		assertInvariants(t, c)
		if bis := c.BiList(); len(bis) > 0 {
			require.False(t, bis[0].Sdt().Before(prevFirst), "eviction must drop the oldest stroke first")
			prevFirst = bis[0].Sdt()
		}
	}
	assert.Len(t, c.BiList(), 20, "a 3000 bar random walk fills the stroke capacity")
}

func TestReplayEquivalence(t *testing.T) {
	bars := randomWalk(1500, 11)
	cfg := config.Default()
	cfg.MaxBiNum = 30

	batch, err := NewCZSC(bars, WithConfig(cfg))
	require.NoError(t, err)

	stream, err := NewCZSC(bars[:700], WithConfig(cfg))
	require.NoError(t, err)
	for _, b := range bars[700:] {
		require.NoError(t, stream.Update(b))
	}

	assert.Equal(t, batch.BiList(), stream.BiList())
	assert.Equal(t, batch.BarsUBI(), stream.BarsUBI())
	assert.Equal(t, batch.BarsRaw(), stream.BarsRaw())
	assert.Equal(t, batch.FxList(), stream.FxList())
}

func TestSignals(t *testing.T) {
	key := model.SignalKey{K1: "1分钟", K2: "D0", K3: "笔方向"}
	dirSignal := func(c *CZSC) []model.Signal {
		v := "无笔"
		if bis := c.BiList(); len(bis) > 0 {
			v = bis[len(bis)-1].Direction.String()
		}
		return []model.Signal{model.NewSignal(key, v, "", "", 0)}
	}

	bars := barsFromHL(s2)
	c, err := NewCZSC(bars[:5], WithSignals(dirSignal))
	require.NoError(t, err)
	sig, ok := c.Signals().Get(key)
	require.True(t, ok)
	assert.Equal(t, "无笔", sig.V1)

	for _, b := range bars[5:] {
		require.NoError(t, c.Update(b))
	}
	assert.True(t, c.Signals().Match(model.NewSignal(key, "向上", "", "", 0)))
	assert.Equal(t, 1, c.Signals().Len())
	assert.Equal(t, "1分钟_D0_笔方向_向上_任意_任意_0", c.Signals().All()[0].String())
}

func TestRemoveInclude(t *testing.T) {
	bars := barsFromHL([][2]float64{{10, 8}, {12, 9}, {11.5, 9.5}, {11, 8.5}})
	c, err := NewCZSC(bars)
	require.NoError(t, err)

	nbs := c.BarsUBI()
	require.Len(t, nbs, 3)
	merged := nbs[1]
	assert.Equal(t, model.Up, merged.Direction)
	assert.Equal(t, 12.0, merged.High)
	assert.Equal(t, 9.5, merged.Low)
	assert.Equal(t, merged.Low, merged.Open)
	assert.Equal(t, merged.High, merged.Close)
	assert.Equal(t, bars[2].Dt, merged.Dt)
	assert.Len(t, merged.Elements, 2)
	assert.Equal(t, model.Down, nbs[2].Direction)
}
