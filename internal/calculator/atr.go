package calculator

import (
	"fmt"
	"math"

	"CycleSentinel/internal/model"
)

// DefaultATRPeriod is the number of True Range values averaged by the panel.
const DefaultATRPeriod = 14

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|).
func TrueRange(cur, prev model.Candle) float64 {
	highLow := cur.High - cur.Low
	highClose := math.Abs(cur.High - prev.Close)
	lowClose := math.Abs(cur.Low - prev.Close)
	return math.Max(highLow, math.Max(highClose, lowClose))
}

// CalculateATR averages the last `period` True Range values, which needs period+1 candles.
// This is a plain arithmetic mean, not Wilder's smoothing.
func CalculateATR(candles []model.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(candles) < period+1 {
		return 0, fmt.Errorf("%w: ATR(%d) needs %d candles, got %d", ErrInsufficientData, period, period+1, len(candles))
	}

	tail := candles[len(candles)-period-1:]
	trueRanges := make([]float64, period)
	for i := 1; i < len(tail); i++ {
		trueRanges[i-1] = TrueRange(tail[i], tail[i-1])
	}
	return CalculateSMA(trueRanges, period)
}

// CashRisk converts an ATR into money at risk for a position of investment*leverage
// bought at price. Invalid investment or leverage counts as 0; a non-positive price yields 0.
func CashRisk(investment, leverage, price, atr float64) float64 {
	investment = nonNegative(investment)
	leverage = nonNegative(leverage)
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0
	}
	return (investment * leverage / price) * atr
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
