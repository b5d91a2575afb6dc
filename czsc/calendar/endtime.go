package calendar

import (
	"time"

	"github.com/ezquant/czsc/czsc/model"
)

func atMinute(day time.Time, m int) time.Time {
	d := DateOf(day)
	return d.Add(time.Duration(m) * time.Minute)
}

// minuteEnd 分钟周期的结束时间；不在交易时段内的时刻按自然时间向上取整
func minuteEnd(dt time.Time, f model.Freq, market Market) time.Time {
	m := minuteOfDay(dt)
	if ends, ok := buildSplit()[market][m]; ok {
		return atMinute(dt, ends[f])
	}
	if m == 0 {
		return atMinute(dt, 0)
	}
	n := f.Minutes()
	return atMinute(dt, (m+n-1)/n*n)
}

// TradeDate K线所属交易日；期货夜盘归属下一个交易日
func TradeDate(dt time.Time, market Market) time.Time {
	if market == Futures {
		m := minuteOfDay(dt)
		if m >= hm(21, 0) {
			return NextTradingDay(dt)
		}
		if m > 0 && m <= hm(3, 0) {
			return nextOrSameTradingDay(dt)
		}
	}
	return DateOf(dt)
}

func periodBounds(day time.Time, f model.Freq) (time.Time, time.Time) {
	y, mo, _ := day.Date()
	loc := day.Location()
	switch f {
	case model.Week:
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 6)
	case model.Month:
		start := time.Date(y, mo, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, -1)
	case model.Season:
		q := (int(mo) - 1) / 3
		start := time.Date(y, time.Month(q*3+1), 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 3, -1)
	default:
		start := time.Date(y, 1, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(1, 0, -1)
	}
}

func periodEnd(day time.Time, f model.Freq, market Market) time.Time {
	start, end := periodBounds(day, f)
	if market != AShare && market != Futures {
		return end
	}
	for d := end; !d.Before(start); d = d.AddDate(0, 0, -1) {
		if IsTradingDay(d) {
			return d
		}
	}
	for d := end; !d.Before(start); d = d.AddDate(0, 0, -1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			return d
		}
	}
	return end
}

// FreqEndTime 计算 dt 所在 freq 周期K线的结束时间。
// 分钟周期查切分表；日线返回交易日零点；周、月、季、年线在A股与期货市场返回周期内最后一个交易日，
// 其他市场返回自然周期的最后一天。
func FreqEndTime(dt time.Time, f model.Freq, market Market) time.Time {
	dt = dt.Truncate(time.Minute)
	if f.Intraday() {
		return minuteEnd(dt, f, market)
	}
	day := TradeDate(dt, market)
	if f == model.Day {
		return day
	}
	return periodEnd(day, f, market)
}

// BucketEnd 与 FreqEndTime 相同，但分钟K线在零点结束时归属前一天
func BucketEnd(dt time.Time, base, target model.Freq, market Market) time.Time {
	if !target.Intraday() && base.Intraday() && minuteOfDay(dt) == 0 {
		dt = dt.Add(-time.Minute)
	}
	return FreqEndTime(dt, target, market)
}

// IsSessionClose 是否为当日最后一根分钟K线
func IsSessionClose(dt time.Time, market Market) bool {
	return minuteOfDay(dt) == sessionClose[market]
}

// IsBucketClose 一根 base 周期K线收盘后，target 周期的当前K线是否已经完成
func IsBucketClose(dt time.Time, base, target model.Freq, market Market) bool {
	end := BucketEnd(dt, base, target, market)
	if dt.Equal(end) {
		return true
	}
	if target.Intraday() {
		return false
	}
	if !base.Intraday() {
		return sameDate(dt, end)
	}
	if !IsSessionClose(dt, market) {
		return false
	}
	return sameDate(BucketEnd(dt, base, model.Day, market), end)
}
