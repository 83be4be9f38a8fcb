package model

import "time"

// Candle is one completed bar. Only the fields the indicators read are kept.
type Candle struct {
	High  float64
	Low   float64
	Close float64
}

// Observation is a raw OHLC snapshot of the instrument currently on screen.
// A zero Close means the source had nothing new this tick.
type Observation struct {
	Symbol    string
	Timeframe string
	Open      float64
	High      float64
	Low       float64
	Close     float64
}

// HasClose reports whether the observation carries a usable close.
func (o Observation) HasClose() bool {
	return o.Close != 0
}

// Candle converts the observation into a bar.
func (o Observation) Candle() Candle {
	return Candle{High: o.High, Low: o.Low, Close: o.Close}
}

// RiskParams are the user supplied inputs of the cash risk figure.
type RiskParams struct {
	Investment float64   `json:"investment"`
	Leverage   float64   `json:"leverage"`
	UpdatedAt  time.Time `json:"updated_at"`
}
