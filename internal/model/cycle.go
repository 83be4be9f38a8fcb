package model

// Direction is the expected turn at the next half-cycle.
type Direction string

const (
	DirectionUp   Direction = "up"   // price below window mean, turning bullish
	DirectionDown Direction = "down" // price above window mean, turning bearish
)

// Arrow returns the glyph used by the text panels.
func (d Direction) Arrow() string {
	if d == DirectionDown {
		return "▼"
	}
	return "▲"
}

// TrendClass classifies the last four countdown values of a cycle.
type TrendClass string

const (
	TrendFlat    TrendClass = "flat"
	TrendRising  TrendClass = "rising"  // v0 > v1 > v2 > v3, topping out
	TrendFalling TrendClass = "falling" // v0 < v1 < v2 < v3
	TrendMixed   TrendClass = "mixed"
)

// FrequencyBin is one sub-Nyquist bin of a spectrum of size N.
type FrequencyBin struct {
	K         int
	Magnitude float64
}

// CycleForecast is the phase view of a single frequency bin.
type CycleForecast struct {
	Bin        FrequencyBin
	Period     float64 // bars, N/k
	HalfPeriod float64
	Direction  Direction
	Trend      TrendClass

	// Countdown holds bars until the next half-cycle turn for now and the three prior bars.
	Countdown [4]int
}

// CycleAnalysis is everything the panel shows about the spectrum of one window.
type CycleAnalysis struct {
	WindowSize   int
	CurrentIndex int
	Top          []CycleForecast // six strongest bins
	First        []CycleForecast // bins k=1..6
	Dominant     CycleForecast
	DominantTurn int // bars to the next turn of the dominant cycle

	// Magnitudes holds |X[k]| for k=1..N/2-1; DominantIndex points into it.
	Magnitudes    []float64
	DominantIndex int
}
