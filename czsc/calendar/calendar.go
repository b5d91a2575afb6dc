// Package calendar 提供交易日历、市场识别与K线结束时间的计算。
package calendar

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

//go:embed holidays.yaml
var holidaysYAML []byte

type tradingCalendar struct {
	holidays map[string]struct{}
	years    []int
}

var (
	calOnce sync.Once
	cal     *tradingCalendar
)

func loadCalendar() *tradingCalendar {
	calOnce.Do(func() {
		raw := map[int][]string{}
		if err := yaml.Unmarshal(holidaysYAML, &raw); err != nil {
			panic(fmt.Sprintf("calendar: invalid embedded holidays: %v", err))
		}
		c := &tradingCalendar{holidays: map[string]struct{}{}}
		for year, days := range raw {
			c.years = append(c.years, year)
			for _, d := range days {
				c.holidays[d] = struct{}{}
			}
		}
		sort.Ints(c.years)
		cal = c
	})
	return cal
}

// CoveredYears 内置日历覆盖的年份，其余年份按周一至周五视为交易日
func CoveredYears() []int {
	years := loadCalendar().years
	out := make([]int, len(years))
	copy(out, years)
	return out
}

// DateOf 取日期部分，保留时区
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDate(a, b time.Time) bool {
	ya, ma, da := a.Date()
	yb, mb, db := b.Date()
	return ya == yb && ma == mb && da == db
}

// IsTradingDay A股交易日判断
func IsTradingDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := loadCalendar().holidays[t.Format(dateLayout)]
	return !holiday
}

// NextTradingDay 严格晚于 t 的下一个交易日
func NextTradingDay(t time.Time) time.Time {
	d := DateOf(t).AddDate(0, 0, 1)
	for !IsTradingDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// PrevTradingDay 严格早于 t 的上一个交易日
func PrevTradingDay(t time.Time) time.Time {
	d := DateOf(t).AddDate(0, 0, -1)
	for !IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// TradingDays 返回 [start, end] 区间内的交易日
func TradingDays(start, end time.Time) []time.Time {
	var days []time.Time
	for d := DateOf(start); !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsTradingDay(d) {
			days = append(days, d)
		}
	}
	return days
}

func nextOrSameTradingDay(t time.Time) time.Time {
	d := DateOf(t)
	if IsTradingDay(d) {
		return d
	}
	return NextTradingDay(d)
}
