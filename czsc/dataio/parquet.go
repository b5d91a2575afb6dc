package dataio

import (
	"fmt"

	"github.com/ezquant/czsc/czsc/backtest"
	"github.com/ezquant/czsc/czsc/model"
	"github.com/parquet-go/parquet-go"
	"github.com/samber/lo"
)

// Parquet 列式存储
type Parquet struct{}

func (Parquet) Extension() string { return "parquet" }

func (Parquet) ReadBars(path string) ([]model.RawBar, error) {
	records, err := parquet.ReadFile[BarRecord](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	bars := make([]model.RawBar, 0, len(records))
	for i, r := range records {
		b, err := r.bar(i)
		if err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func (Parquet) WriteBars(path string, bars []model.RawBar) error {
	return parquet.WriteFile(path, lo.Map(bars, func(b model.RawBar, _ int) BarRecord { return barRecord(b) }))
}

func (Parquet) ReadWeights(path string) ([]backtest.WeightRow, error) {
	records, err := parquet.ReadFile[WeightRecord](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lo.Map(records, func(r WeightRecord, _ int) backtest.WeightRow { return r.row() }), nil
}

func (Parquet) WriteWeights(path string, rows []backtest.WeightRow) error {
	return parquet.WriteFile(path, lo.Map(rows, func(w backtest.WeightRow, _ int) WeightRecord { return weightRecord(w) }))
}

func (Parquet) WritePairs(path string, pairs []backtest.Pair) error {
	return parquet.WriteFile(path, lo.Map(pairs, func(p backtest.Pair, _ int) PairRecord { return pairRecord(p) }))
}

func (Parquet) WriteDaily(path string, daily []backtest.DailyReturn) error {
	return parquet.WriteFile(path, dailyRecords(daily))
}
