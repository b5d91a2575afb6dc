package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xhit/go-str2duration/v2"
)

// Freq K线周期，取值有序，可以直接比较大小
type Freq int

const (
	F1 Freq = iota + 1
	F2
	F3
	F4
	F5
	F6
	F10
	F12
	F15
	F20
	F30
	F60
	F120
	Day
	Week
	Month
	Season
	Year
)

var freqMinutes = map[Freq]int{
	F1: 1, F2: 2, F3: 3, F4: 4, F5: 5, F6: 6, F10: 10, F12: 12,
	F15: 15, F20: 20, F30: 30, F60: 60, F120: 120,
}

var freqNames = map[Freq]string{
	Day:    "日线",
	Week:   "周线",
	Month:  "月线",
	Season: "季线",
	Year:   "年线",
}

// Freqs 全部周期，按从小到大排列
var Freqs = []Freq{F1, F2, F3, F4, F5, F6, F10, F12, F15, F20, F30, F60, F120, Day, Week, Month, Season, Year}

// Minutes 分钟周期返回分钟数，日线及以上返回 0
func (f Freq) Minutes() int {
	return freqMinutes[f]
}

// Intraday 是否分钟级周期
func (f Freq) Intraday() bool {
	return f >= F1 && f <= F120
}

func (f Freq) Valid() bool {
	return f >= F1 && f <= Year
}

func (f Freq) String() string {
	if m, ok := freqMinutes[f]; ok {
		return strconv.Itoa(m) + "分钟"
	}
	if name, ok := freqNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Freq(%d)", int(f))
}

// MarshalText 以中文名序列化，便于 yaml/csv 输出
func (f Freq) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: invalid freq %d", ErrInputFormat, int(f))
	}
	return []byte(f.String()), nil
}

func (f *Freq) UnmarshalText(text []byte) error {
	v, err := ParseFreq(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// ParseFreq 支持 "1分钟"、"日线"、"5m"、"5min"、"1h"、"D"、"day"、"1d"、"W"、"M"、"S"、"Y" 等写法
func ParseFreq(s string) (Freq, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, fmt.Errorf("%w: empty freq", ErrMissingField)
	}
	for f, name := range freqNames {
		if raw == name {
			return f, nil
		}
	}
	if strings.HasSuffix(raw, "分钟") {
		n, err := strconv.Atoi(strings.TrimSuffix(raw, "分钟"))
		if err == nil {
			if f, ok := fromMinutes(n); ok {
				return f, nil
			}
		}
		return 0, fmt.Errorf("%w: unknown freq %q", ErrInputFormat, s)
	}

	switch strings.ToLower(raw) {
	case "d", "day", "daily", "1d":
		return Day, nil
	case "w", "week", "weekly", "1w":
		return Week, nil
	case "m", "month", "monthly":
		return Month, nil
	case "s", "season", "quarter", "q":
		return Season, nil
	case "y", "year", "yearly", "1y":
		return Year, nil
	}

	lower := strings.ToLower(raw)
	if strings.HasSuffix(lower, "min") {
		lower = strings.TrimSuffix(lower, "in")
	}
	d, err := str2duration.ParseDuration(lower)
	if err != nil {
		return 0, fmt.Errorf("%w: unknown freq %q", ErrInputFormat, s)
	}
	if d == 24*time.Hour {
		return Day, nil
	}
	if d == 7*24*time.Hour {
		return Week, nil
	}
	if d%time.Minute == 0 {
		if f, ok := fromMinutes(int(d / time.Minute)); ok {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: unsupported freq %q", ErrInputFormat, s)
}

func fromMinutes(n int) (Freq, bool) {
	for f, m := range freqMinutes {
		if m == n {
			return f, true
		}
	}
	return 0, false
}
