package dataio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ezquant/czsc/czsc/backtest"
	"github.com/ezquant/czsc/czsc/model"
)

// CSV 带表头的逗号分隔文件，列顺序不限，列名不区分大小写
type CSV struct{}

func (CSV) Extension() string { return "csv" }

var (
	barColumns    = []string{"symbol", "dt", "freq", "open", "close", "high", "low", "vol"}
	weightColumns = []string{"dt", "symbol", "weight", "price"}
)

// table 按列名取值
type table struct {
	index map[string]int
	row   []string
	line  int
}

func (t *table) str(col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(t.row) {
		return ""
	}
	return strings.TrimSpace(t.row[i])
}

func (t *table) float(col string) (float64, error) {
	s := t.str(col)
	if s == "" {
		if _, ok := t.index[col]; ok {
			return 0, fmt.Errorf("%w: %s", model.ErrMissingField, col)
		}
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", model.ErrInputFormat, col, s)
	}
	return v, nil
}

// readTable 读取表头并校验必需列，对每一行调用 fn
func readTable(path string, required []string, fn func(t *table) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s is empty", model.ErrInputFormat, path)
	}
	if err != nil {
		return err
	}
	t := &table{index: make(map[string]int, len(header))}
	for i, h := range header {
		t.index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range required {
		if _, ok := t.index[col]; !ok {
			return fmt.Errorf("%w: column %s", model.ErrMissingField, col)
		}
	}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		t.row = row
		if err := fn(t); err != nil {
			return err
		}
		t.line++
	}
}

func (CSV) ReadBars(path string) ([]model.RawBar, error) {
	var bars []model.RawBar
	err := readTable(path, barColumns, func(t *table) error {
		b, err := parseBar(t)
		if err != nil {
			return &model.RowError{Row: t.line, Key: t.str("symbol") + "@" + t.str("dt"), Err: err}
		}
		b.ID = t.line
		bars = append(bars, b)
		return nil
	})
	return bars, err
}

func parseBar(t *table) (model.RawBar, error) {
	b := model.RawBar{Symbol: t.str("symbol")}
	var err error
	if s := t.str("dt"); s == "" {
		return b, fmt.Errorf("%w: dt", model.ErrMissingField)
	} else if b.Dt, err = parseDt(s); err != nil {
		return b, err
	}
	if b.Freq, err = model.ParseFreq(t.str("freq")); err != nil {
		return b, err
	}
	for _, f := range []struct {
		col string
		dst *float64
	}{
		{"open", &b.Open}, {"close", &b.Close}, {"high", &b.High}, {"low", &b.Low},
		{"vol", &b.Vol}, {"amount", &b.Amount},
	} {
		if *f.dst, err = t.float(f.col); err != nil {
			return b, err
		}
	}
	return b, b.Validate()
}

func (CSV) WriteBars(path string, bars []model.RawBar) error {
	return writeTable(path, append(barColumns, "amount"), len(bars), func(i int) []string {
		b := bars[i]
		return []string{
			b.Symbol, b.Dt.Format(dtLayout), b.Freq.String(),
			floatStr(b.Open), floatStr(b.Close), floatStr(b.High), floatStr(b.Low),
			floatStr(b.Vol), floatStr(b.Amount),
		}
	})
}

func (CSV) ReadWeights(path string) ([]backtest.WeightRow, error) {
	var rows []backtest.WeightRow
	err := readTable(path, weightColumns, func(t *table) error {
		w := backtest.WeightRow{Symbol: t.str("symbol")}
		fail := func(err error) error {
			return &model.RowError{Row: t.line, Key: w.Symbol + "@" + t.str("dt"), Err: err}
		}
		var err error
		if w.Dt, err = parseDt(t.str("dt")); err != nil {
			return fail(err)
		}
		if w.Weight, err = t.float("weight"); err != nil {
			return fail(err)
		}
		if w.Price, err = t.float("price"); err != nil {
			return fail(err)
		}
		rows = append(rows, w)
		return nil
	})
	return rows, err
}

func (CSV) WriteWeights(path string, rows []backtest.WeightRow) error {
	return writeTable(path, weightColumns, len(rows), func(i int) []string {
		w := rows[i]
		return []string{w.Dt.Format(dtLayout), w.Symbol, floatStr(w.Weight), floatStr(w.Price)}
	})
}

func (CSV) WritePairs(path string, pairs []backtest.Pair) error {
	header := []string{"symbol", "direction", "open_dt", "close_dt", "open_price", "close_price",
		"bar_count", "event_seq", "hold_days", "pnl_bp", "open"}
	return writeTable(path, header, len(pairs), func(i int) []string {
		p := pairs[i]
		return []string{
			p.Symbol, p.Direction, p.OpenDt.Format(dtLayout), p.CloseDt.Format(dtLayout),
			floatStr(p.OpenPrice), floatStr(p.ClosePrice), strconv.Itoa(p.BarCount),
			p.EventSeq, strconv.Itoa(p.HoldDays), floatStr(p.PnlBp), strconv.FormatBool(p.Open),
		}
	})
}

func (CSV) WriteDaily(path string, daily []backtest.DailyReturn) error {
	records := dailyRecords(daily)
	return writeTable(path, []string{"date", "symbol", "return"}, len(records), func(i int) []string {
		r := records[i]
		return []string{r.Date, r.Symbol, floatStr(r.Return)}
	})
}

func writeTable(path string, header []string, n int, row func(i int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
