package collector

import (
	"time"

	"CycleSentinel/internal/model"
)

// bar is a timestamped candle as returned by a quote provider.
type bar struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

func toCandles(bars []bar) []model.Candle {
	candles := make([]model.Candle, len(bars))
	for i, b := range bars {
		candles[i] = model.Candle{High: b.High, Low: b.Low, Close: b.Close}
	}
	return candles
}

// fixedBuckets groups bars into epoch-aligned slots of length d.
func fixedBuckets(d time.Duration) func(time.Time) int64 {
	return func(t time.Time) int64 {
		return t.Unix() / int64(d/time.Second)
	}
}

// isoWeekBuckets groups bars by ISO week (Mon-Sun).
func isoWeekBuckets(t time.Time) int64 {
	year, week := t.ISOWeek()
	return int64(year*100 + week)
}

// resample merges chronologically ordered bars that share a bucket key.
func resample(bars []bar, bucket func(time.Time) int64) []bar {
	if len(bars) == 0 {
		return nil
	}
	var out []bar
	cur := bars[0]
	curKey := bucket(cur.Time)

	for _, b := range bars[1:] {
		key := bucket(b.Time)
		if key != curKey {
			out = append(out, cur)
			cur, curKey = b, key
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
	}
	return append(out, cur)
}
