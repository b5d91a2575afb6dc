// Package dataio 读写K线、权重、交易对与日收益文件，支持 csv 与 parquet。
package dataio

import (
	"path/filepath"
	"strings"

	"github.com/ezquant/czsc/czsc/backtest"
	"github.com/ezquant/czsc/czsc/model"
)

// Format 一种文件格式的读写实现
type Format interface {
	Extension() string

	ReadBars(path string) ([]model.RawBar, error)
	WriteBars(path string, bars []model.RawBar) error

	ReadWeights(path string) ([]backtest.WeightRow, error)
	WriteWeights(path string, rows []backtest.WeightRow) error

	WritePairs(path string, pairs []backtest.Pair) error
	WriteDaily(path string, daily []backtest.DailyReturn) error
}

// NewFormat 按名称创建格式（csv, parquet），不支持时返回 nil
func NewFormat(name string) Format {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return CSV{}
	case "parquet", "pq":
		return Parquet{}
	default:
		return nil
	}
}

// FormatOf 按文件扩展名选择格式
func FormatOf(path string) Format {
	return NewFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}
