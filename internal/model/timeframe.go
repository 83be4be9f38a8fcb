package model

import "time"

// DefaultBarDuration applies to any timeframe not listed in barDurations.
const DefaultBarDuration = time.Minute

var barDurations = map[string]time.Duration{
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
	"1w":  7 * 24 * time.Hour,
}

// BarDuration maps a chart timeframe label to the length of one bar.
func BarDuration(timeframe string) time.Duration {
	if d, ok := barDurations[timeframe]; ok {
		return d
	}
	return DefaultBarDuration
}

// KnownTimeframe reports whether timeframe has its own bar duration.
func KnownTimeframe(timeframe string) bool {
	_, ok := barDurations[timeframe]
	return ok
}
