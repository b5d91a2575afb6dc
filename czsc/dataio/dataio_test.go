package dataio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ezquant/czsc/czsc/backtest"
	"github.com/ezquant/czsc/czsc/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBars() []model.RawBar {
	start := time.Date(2024, 1, 2, 9, 31, 0, 0, time.Local)
	var bars []model.RawBar
	for i := 0; i < 5; i++ {
		p := 10 + float64(i)*0.1
		bars = append(bars, model.RawBar{
			Symbol: "000001.SH", ID: i, Dt: start.Add(time.Duration(i) * time.Minute), Freq: model.F1,
			Open: p, Close: p + 0.05, High: p + 0.1, Low: p - 0.1, Vol: 100, Amount: 1000 * p,
		})
	}
	return bars
}

func sampleWeights() []backtest.WeightRow {
	start := time.Date(2024, 1, 2, 15, 0, 0, 0, time.Local)
	return []backtest.WeightRow{
		{Dt: start, Symbol: "A", Weight: 0, Price: 100},
		{Dt: start.AddDate(0, 0, 1), Symbol: "A", Weight: 0.5, Price: 101},
		{Dt: start.AddDate(0, 0, 2), Symbol: "A", Weight: -1, Price: 99.5},
	}
}

func TestFormatOf(t *testing.T) {
	assert.IsType(t, CSV{}, FormatOf("bars.csv"))
	assert.IsType(t, Parquet{}, FormatOf("/tmp/bars.parquet"))
	assert.Nil(t, FormatOf("bars.xlsx"))
	assert.Nil(t, NewFormat("json"))
}

func TestBarsRoundTrip(t *testing.T) {
	for _, format := range []Format{CSV{}, Parquet{}} {
		t.Run(format.Extension(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bars."+format.Extension())
			want := sampleBars()
			require.NoError(t, format.WriteBars(path, want))

			got, err := format.ReadBars(path)
			require.NoError(t, err)
			require.Len(t, got, len(want))
			for i := range want {
				assert.True(t, want[i].Dt.Equal(got[i].Dt))
				assert.Equal(t, want[i].Symbol, got[i].Symbol)
				assert.Equal(t, want[i].Freq, got[i].Freq)
				assert.Equal(t, want[i].Close, got[i].Close)
				assert.Equal(t, want[i].Amount, got[i].Amount)
				assert.Equal(t, i, got[i].ID)
			}
		})
	}
}

func TestWeightsRoundTrip(t *testing.T) {
	for _, format := range []Format{CSV{}, Parquet{}} {
		t.Run(format.Extension(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "weights."+format.Extension())
			want := sampleWeights()
			require.NoError(t, format.WriteWeights(path, want))

			got, err := format.ReadWeights(path)
			require.NoError(t, err)
			require.Len(t, got, len(want))
			for i := range want {
				assert.True(t, want[i].Dt.Equal(got[i].Dt))
				assert.Equal(t, want[i].Weight, got[i].Weight)
				assert.Equal(t, want[i].Price, got[i].Price)
			}
		})
	}
}

func TestWriteResults(t *testing.T) {
	res, err := backtest.New(sampleWeights(), backtest.DefaultOptions())
	require.NoError(t, err)

	dir := t.TempDir()
	for _, format := range []Format{CSV{}, Parquet{}} {
		pairs := filepath.Join(dir, "pairs."+format.Extension())
		daily := filepath.Join(dir, "daily."+format.Extension())
		require.NoError(t, format.WritePairs(pairs, res.Pairs))
		require.NoError(t, format.WriteDaily(daily, res.DailyReturns))
		assert.FileExists(t, pairs)
		assert.FileExists(t, daily)
	}

	b, err := os.ReadFile(filepath.Join(dir, "pairs.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "开多 -> 平多")
}

func TestReadBarsErrors(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.csv")
	require.NoError(t, os.WriteFile(missing, []byte("symbol,dt,open,close,high,low,vol\n"), 0o644))
	_, err := CSV{}.ReadBars(missing)
	assert.ErrorIs(t, err, model.ErrMissingField)

	bad := filepath.Join(dir, "bad.csv")
	content := "Symbol,DT,Freq,Open,Close,High,Low,Vol\n" +
		"A,2024-01-02 09:31,1分钟,10,10.1,10.2,9.9,100\n" +
		"A,2024-01-02 09:32,1分钟,10,10.5,10.2,9.9,100\n"
	require.NoError(t, os.WriteFile(bad, []byte(content), 0o644))
	_, err = CSV{}.ReadBars(bad)
	assert.ErrorIs(t, err, model.ErrInputFormat)
	var rowErr *model.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 1, rowErr.Row)

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = CSV{}.ReadBars(empty)
	assert.ErrorIs(t, err, model.ErrInputFormat)
}

func TestReadWeightsMissingPrice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.csv")
	require.NoError(t, os.WriteFile(path, []byte("dt,symbol,weight,price\n2024-01-02,A,1,\n"), 0o644))
	_, err := CSV{}.ReadWeights(path)
	assert.ErrorIs(t, err, model.ErrMissingField)
}
