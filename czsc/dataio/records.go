package dataio

import (
	"fmt"
	"time"

	"github.com/ezquant/czsc/czsc/backtest"
	"github.com/ezquant/czsc/czsc/model"
)

const (
	dtLayout   = "2006-01-02 15:04:05"
	dateLayout = "2006-01-02"
)

// BarRecord K线的存储格式，dt 为毫秒时间戳
type BarRecord struct {
	Symbol string  `parquet:"symbol"`
	Dt     int64   `parquet:"dt"`
	Freq   string  `parquet:"freq"`
	Open   float64 `parquet:"open"`
	Close  float64 `parquet:"close"`
	High   float64 `parquet:"high"`
	Low    float64 `parquet:"low"`
	Vol    float64 `parquet:"vol"`
	Amount float64 `parquet:"amount,optional"`
}

type WeightRecord struct {
	Dt     int64   `parquet:"dt"`
	Symbol string  `parquet:"symbol"`
	Weight float64 `parquet:"weight"`
	Price  float64 `parquet:"price"`
}

type PairRecord struct {
	Symbol     string  `parquet:"symbol"`
	Direction  string  `parquet:"direction"`
	OpenDt     int64   `parquet:"open_dt"`
	CloseDt    int64   `parquet:"close_dt"`
	OpenPrice  float64 `parquet:"open_price"`
	ClosePrice float64 `parquet:"close_price"`
	BarCount   int64   `parquet:"bar_count"`
	EventSeq   string  `parquet:"event_seq"`
	HoldDays   int64   `parquet:"hold_days"`
	PnlBp      float64 `parquet:"pnl_bp"`
	Open       bool    `parquet:"open"`
}

// DailyRecord 日收益的长表形式，Symbol 为 total/long/short 时表示组合
type DailyRecord struct {
	Date   string  `parquet:"date"`
	Symbol string  `parquet:"symbol"`
	Return float64 `parquet:"return"`
}

func barRecord(b model.RawBar) BarRecord {
	return BarRecord{
		Symbol: b.Symbol, Dt: b.Dt.UnixMilli(), Freq: b.Freq.String(),
		Open: b.Open, Close: b.Close, High: b.High, Low: b.Low, Vol: b.Vol, Amount: b.Amount,
	}
}

func (r BarRecord) bar(row int) (model.RawBar, error) {
	f, err := model.ParseFreq(r.Freq)
	if err != nil {
		return model.RawBar{}, &model.RowError{Row: row, Key: r.Symbol, Err: err}
	}
	b := model.RawBar{
		Symbol: r.Symbol, ID: row, Dt: time.UnixMilli(r.Dt), Freq: f,
		Open: r.Open, Close: r.Close, High: r.High, Low: r.Low, Vol: r.Vol, Amount: r.Amount,
	}
	if err := b.Validate(); err != nil {
		return model.RawBar{}, &model.RowError{Row: row, Key: r.Symbol, Err: err}
	}
	return b, nil
}

func weightRecord(w backtest.WeightRow) WeightRecord {
	return WeightRecord{Dt: w.Dt.UnixMilli(), Symbol: w.Symbol, Weight: w.Weight, Price: w.Price}
}

func (r WeightRecord) row() backtest.WeightRow {
	return backtest.WeightRow{Dt: time.UnixMilli(r.Dt), Symbol: r.Symbol, Weight: r.Weight, Price: r.Price}
}

func pairRecord(p backtest.Pair) PairRecord {
	return PairRecord{
		Symbol: p.Symbol, Direction: p.Direction,
		OpenDt: p.OpenDt.UnixMilli(), CloseDt: p.CloseDt.UnixMilli(),
		OpenPrice: p.OpenPrice, ClosePrice: p.ClosePrice,
		BarCount: int64(p.BarCount), EventSeq: p.EventSeq, HoldDays: int64(p.HoldDays),
		PnlBp: p.PnlBp, Open: p.Open,
	}
}

func dailyRecords(daily []backtest.DailyReturn) []DailyRecord {
	out := make([]DailyRecord, 0, len(daily)*3)
	for _, d := range daily {
		date := d.Date.Format(dateLayout)
		out = append(out,
			DailyRecord{Date: date, Symbol: "total", Return: d.Total},
			DailyRecord{Date: date, Symbol: "long", Return: d.Long},
			DailyRecord{Date: date, Symbol: "short", Return: d.Short},
		)
	}
	return out
}

var dtLayouts = []string{dtLayout, "2006-01-02 15:04", "2006/01/02 15:04:05", dateLayout, time.RFC3339}

func parseDt(s string) (time.Time, error) {
	for _, layout := range dtLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: bad dt %q", model.ErrInputFormat, s)
}
