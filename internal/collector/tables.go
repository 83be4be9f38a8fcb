package collector

// symbolMap translates chart instrument names into quote provider tickers.
var symbolMap = map[string]string{
	"GOLD":     "GC=F",
	"SILVER":   "SI=F",
	"PLATINUM": "PL=F",
	"COPPER":   "HG=F",
	"BTC":      "BTC-USD",
	"ETH":      "ETH-USD",
}

// intervalMap translates chart timeframes into provider bar intervals.
var intervalMap = map[string]string{
	"1m":  "1m",
	"5m":  "5m",
	"15m": "15m",
	"30m": "30m",
	"1h":  "60m",
	"4h":  "240m",
	"1d":  "1d",
	"1w":  "1wk",
}

// rangeMap sizes the history request so at least 128 bars come back for each timeframe.
var rangeMap = map[string]string{
	"1m":  "5d",
	"5m":  "15d",
	"15m": "60d",
	"30m": "60d",
	"1h":  "60d",
	"4h":  "730d",
	"1d":  "1y",
	"1w":  "5y",
}

const defaultRange = "30d"

// ProviderSymbol returns the provider ticker for symbol; unmapped symbols pass through.
func ProviderSymbol(symbol string) string {
	if mapped, ok := symbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// ProviderInterval returns the provider interval for a timeframe; unmapped values pass through.
func ProviderInterval(timeframe string) string {
	if mapped, ok := intervalMap[timeframe]; ok {
		return mapped
	}
	return timeframe
}

// HistoryRange returns the lookback requested when (re)loading a timeframe.
func HistoryRange(timeframe string) string {
	if r, ok := rangeMap[timeframe]; ok {
		return r
	}
	return defaultRange
}
