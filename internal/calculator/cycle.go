package calculator

import (
	"fmt"
	"math"
	"sort"

	"CycleSentinel/internal/model"
)

// DefaultWindowSize is the number of closes fed to the spectral pipeline.
const DefaultWindowSize = 128

// binsPerList is the length of the "strongest" and "longest" cycle lists.
const binsPerList = 6

// Magnitudes returns |X[k]| for every bin 1 <= k < N/2. DC and Nyquist are excluded.
func Magnitudes(spectrum []complex128) []model.FrequencyBin {
	n := len(spectrum)
	if n < 4 {
		return nil
	}
	bins := make([]model.FrequencyBin, 0, n/2-1)
	for k := 1; k < n/2; k++ {
		re, im := real(spectrum[k]), imag(spectrum[k])
		bins = append(bins, model.FrequencyBin{K: k, Magnitude: math.Sqrt(re*re + im*im)})
	}
	return bins
}

// Countdown returns the bars left until the next half-cycle turn at bar idx.
// The result is always in [1, ceil(halfPeriod)], also for idx < 0.
func Countdown(halfPeriod float64, idx int) int {
	phase := math.Mod(float64(idx), halfPeriod)
	if phase < 0 {
		phase += halfPeriod
	}
	v := int(math.Ceil(halfPeriod - phase))
	if v <= 0 {
		v = int(math.Ceil(halfPeriod))
	}
	return v
}

// ClassifyTrend labels a countdown sequence ordered now, -1, -2, -3 bars.
func ClassifyTrend(v [4]int) model.TrendClass {
	switch {
	case v[0] == v[1] && v[1] == v[2] && v[2] == v[3]:
		return model.TrendFlat
	case v[0] > v[1] && v[1] > v[2] && v[2] > v[3]:
		return model.TrendRising
	case v[0] < v[1] && v[1] < v[2] && v[2] < v[3]:
		return model.TrendFalling
	default:
		return model.TrendMixed
	}
}

// Forecast derives the phase view of one bin of an n-point spectrum.
func Forecast(bin model.FrequencyBin, n, currentIndex int, dir model.Direction) model.CycleForecast {
	period := float64(n) / float64(bin.K)
	half := period / 2
	f := model.CycleForecast{
		Bin:        bin,
		Period:     period,
		HalfPeriod: half,
		Direction:  dir,
	}
	for j := range f.Countdown {
		f.Countdown[j] = Countdown(half, currentIndex-j)
	}
	f.Trend = ClassifyTrend(f.Countdown)
	return f
}

// Analyze ranks the bins of spectrum and forecasts the strongest and the longest cycles.
// window is the price series the spectrum was computed from (before detrending) and
// currentIndex is the bar number of its last element. Analyze keeps no state.
func Analyze(spectrum []complex128, window []float64, currentIndex int) model.CycleAnalysis {
	n := len(spectrum)
	bins := Magnitudes(spectrum)

	dir := model.DirectionUp
	if mean, err := Mean(window); err == nil && window[len(window)-1] > mean {
		dir = model.DirectionDown
	}

	top := make([]model.FrequencyBin, len(bins))
	copy(top, bins)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Magnitude > top[j].Magnitude })

	count := binsPerList
	if len(bins) < count {
		count = len(bins)
	}

	a := model.CycleAnalysis{
		WindowSize:   n,
		CurrentIndex: currentIndex,
		Top:          make([]model.CycleForecast, count),
		First:        make([]model.CycleForecast, count),
		Magnitudes:   make([]float64, len(bins)),
	}
	for i := 0; i < count; i++ {
		a.Top[i] = Forecast(top[i], n, currentIndex, dir)
		a.First[i] = Forecast(bins[i], n, currentIndex, dir)
	}
	for i, b := range bins {
		a.Magnitudes[i] = b.Magnitude
	}
	if count > 0 {
		a.Dominant = a.Top[0]
		a.DominantIndex = a.Dominant.Bin.K - 1
		a.DominantTurn = int(math.Ceil(a.Dominant.HalfPeriod - math.Mod(float64(currentIndex), a.Dominant.HalfPeriod)))
	}
	return a
}

// SpectralAnalyzer runs detrend, transform and Analyze over windows of a fixed size,
// reusing its plan and scratch buffer between calls. It is not safe for concurrent use.
type SpectralAnalyzer struct {
	plan    *Plan
	scratch []complex128
}

// NewSpectralAnalyzer prepares an analyzer for windows of n closes.
func NewSpectralAnalyzer(n int) (*SpectralAnalyzer, error) {
	if n < 4 {
		return nil, fmt.Errorf("%w: spectral window needs at least 4 points, got %d", ErrInsufficientData, n)
	}
	plan, err := NewPlan(n)
	if err != nil {
		return nil, err
	}
	return &SpectralAnalyzer{plan: plan, scratch: make([]complex128, n)}, nil
}

// WindowSize returns the number of closes Analyze expects.
func (s *SpectralAnalyzer) WindowSize() int { return s.plan.Size() }

// Analyze runs the full pipeline over exactly WindowSize closes.
func (s *SpectralAnalyzer) Analyze(closes []float64, currentIndex int) (*model.CycleAnalysis, error) {
	n := s.plan.Size()
	if len(closes) != n {
		return nil, fmt.Errorf("%w: spectral window needs %d closes, got %d", ErrInsufficientData, n, len(closes))
	}
	if err := checkWindow(closes); err != nil {
		return nil, err
	}

	residuals, err := Detrend(closes)
	if err != nil {
		return nil, err
	}
	for i, v := range residuals {
		s.scratch[i] = complex(v, 0)
	}
	if err := s.plan.Execute(s.scratch); err != nil {
		return nil, err
	}
	for _, c := range s.scratch[:n/2] {
		if math.IsNaN(real(c)) || math.IsNaN(imag(c)) || math.IsInf(real(c), 0) || math.IsInf(imag(c), 0) {
			return nil, ErrDegenerateWindow
		}
	}

	a := Analyze(s.scratch, closes, currentIndex)
	return &a, nil
}

// AnalyzeWindow is a one-off SpectralAnalyzer run.
func AnalyzeWindow(closes []float64, currentIndex int) (*model.CycleAnalysis, error) {
	s, err := NewSpectralAnalyzer(len(closes))
	if err != nil {
		return nil, err
	}
	return s.Analyze(closes, currentIndex)
}

// checkWindow rejects windows with non-finite values or no variance at all.
func checkWindow(closes []float64) error {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range closes {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrDegenerateWindow
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		return ErrDegenerateWindow
	}
	return nil
}
