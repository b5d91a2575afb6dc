package calendar

import (
	"testing"
	"time"

	"github.com/ezquant/czsc/czsc/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func at(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func TestTradingDays(t *testing.T) {
	assert.False(t, IsTradingDay(day("2024-10-01")))
	assert.False(t, IsTradingDay(day("2024-10-05")))
	assert.True(t, IsTradingDay(day("2024-10-08")))
	assert.True(t, IsTradingDay(day("2030-01-01")), "years outside the table fall back to weekdays")

	assert.Equal(t, day("2024-10-08"), NextTradingDay(day("2024-09-30")))
	assert.Equal(t, day("2024-09-30"), PrevTradingDay(day("2024-10-08")))
	assert.Equal(t, day("2024-02-08"), PrevTradingDay(day("2024-02-19")))

	days := TradingDays(day("2024-09-27"), day("2024-10-09"))
	require.Len(t, days, 4)
	assert.Equal(t, day("2024-09-27"), days[0])
	assert.Equal(t, day("2024-10-09"), days[3])

	assert.Equal(t, []int{2023, 2024, 2025}, CoveredYears())
}

func TestMinuteSplit(t *testing.T) {
	cases := []struct {
		market Market
		hhmm   string
		freq   model.Freq
		want   string
	}{
		{AShare, "09:30", model.F60, "10:30"},
		{AShare, "09:31", model.F5, "09:35"},
		{AShare, "10:31", model.F60, "11:30"},
		{AShare, "13:01", model.F60, "14:00"},
		{AShare, "14:59", model.F30, "15:00"},
		{AShare, "11:30", model.F120, "11:30"},
		{AShare, "13:00", model.F120, "15:00"},
		{Futures, "21:00", model.F5, "21:05"},
		{Futures, "09:01", model.F60, "10:00"},
		{Futures, "10:15", model.F30, "10:45"},
		{Futures, "15:00", model.F60, "15:00"},
	}
	for _, c := range cases {
		ends, ok := MinuteSplit(c.market, c.hhmm)
		require.True(t, ok, "%s %s", c.market, c.hhmm)
		assert.Equal(t, c.want, ends[c.freq], "%s %s %s", c.market, c.hhmm, c.freq)
	}

	_, ok := MinuteSplit(AShare, "12:00")
	assert.False(t, ok)
	_, ok = MinuteSplit(Crypto, "12:00")
	assert.False(t, ok)
}

func minutesBetween(d time.Time, from, to string) []time.Time {
	var out []time.Time
	start := at(d.Format("2006-01-02") + " " + from)
	end := at(d.Format("2006-01-02") + " " + to)
	for x := start; !x.After(end); x = x.Add(time.Minute) {
		out = append(out, x)
	}
	return out
}

func TestInferMarket(t *testing.T) {
	d := day("2024-01-02")
	ashare := append(minutesBetween(d, "09:31", "11:30"), minutesBetween(d, "13:01", "15:00")...)
	assert.Equal(t, AShare, InferMarket(ashare))

	futures := append(minutesBetween(d, "21:01", "23:00"), minutesBetween(d, "09:01", "10:15")...)
	assert.Equal(t, Futures, InferMarket(futures))

	assert.Equal(t, Crypto, InferMarket(minutesBetween(d, "00:00", "23:59")))
	assert.Equal(t, Crypto, InferMarket([]time.Time{at("2024-01-02 01:00"), at("2024-01-02 02:00")}))
	assert.Equal(t, Default, InferMarket([]time.Time{d, d.AddDate(0, 0, 1)}))
	assert.Equal(t, Default, InferMarket(nil))
}

func TestParseMarket(t *testing.T) {
	m, err := ParseMarket("A股")
	require.NoError(t, err)
	assert.Equal(t, AShare, m)
	m, err = ParseMarket("crypto")
	require.NoError(t, err)
	assert.Equal(t, Crypto, m)
	_, err = ParseMarket("nasdaq")
	assert.ErrorIs(t, err, model.ErrInputFormat)
}

func TestFreqEndTime(t *testing.T) {
	cases := []struct {
		dt     time.Time
		freq   model.Freq
		market Market
		want   time.Time
	}{
		{at("2024-01-02 09:35"), model.F5, AShare, at("2024-01-02 09:35")},
		{at("2024-01-02 09:36"), model.F5, AShare, at("2024-01-02 09:40")},
		{at("2024-01-02 23:58"), model.F5, Crypto, at("2024-01-03 00:00")},
		{at("2024-01-02 00:00"), model.F60, Crypto, at("2024-01-02 00:00")},
		{at("2024-01-02 14:00"), model.Day, AShare, day("2024-01-02")},
		{at("2024-09-30 10:00"), model.Week, AShare, day("2024-09-30")},
		{at("2024-10-08 10:00"), model.Week, AShare, day("2024-10-11")},
		{at("2024-02-05 10:00"), model.Month, AShare, day("2024-02-29")},
		{at("2024-08-01 10:00"), model.Season, AShare, day("2024-09-30")},
		{at("2024-03-01 10:00"), model.Year, AShare, day("2024-12-31")},
		{at("2024-01-03 10:00"), model.Week, Crypto, day("2024-01-07")},
		{at("2024-01-05 21:30"), model.Day, Futures, day("2024-01-08")},
		{at("2024-01-05 10:00"), model.Day, Futures, day("2024-01-05")},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FreqEndTime(c.dt, c.freq, c.market), "%s %s %s", c.dt, c.freq, c.market)
	}
}

func TestBucketClose(t *testing.T) {
	assert.Equal(t, day("2024-01-02"), BucketEnd(at("2024-01-03 00:00"), model.F1, model.Day, Crypto))
	assert.True(t, IsBucketClose(at("2024-01-03 00:00"), model.F1, model.Day, Crypto))

	assert.True(t, IsBucketClose(at("2024-01-02 15:00"), model.F1, model.Day, AShare))
	assert.False(t, IsBucketClose(at("2024-01-02 14:59"), model.F1, model.Day, AShare))
	assert.True(t, IsBucketClose(at("2024-01-02 10:30"), model.F1, model.F60, AShare))
	assert.False(t, IsBucketClose(at("2024-01-02 10:29"), model.F1, model.F60, AShare))

	assert.True(t, IsBucketClose(at("2024-01-05 15:00"), model.F1, model.Week, AShare))
	assert.False(t, IsBucketClose(at("2024-01-04 15:00"), model.F1, model.Week, AShare))

	assert.True(t, IsBucketClose(day("2024-01-05"), model.Day, model.Week, AShare))
	assert.False(t, IsBucketClose(day("2024-01-04"), model.Day, model.Week, AShare))
}
