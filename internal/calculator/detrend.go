package calculator

import "fmt"

// LinearFit returns the ordinary least squares line y = slope*x + intercept over x = 0..n-1.
func LinearFit(series []float64) (slope, intercept float64, err error) {
	n := len(series)
	if n < 2 {
		return 0, 0, fmt.Errorf("%w: linear fit needs 2 points, got %d", ErrInsufficientData, n)
	}
	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	nf := float64(n)
	slope = (nf*sumXY - sumX*sumY) / (nf*sumX2 - sumX*sumX)
	intercept = (sumY - slope*sumX) / nf
	return slope, intercept, nil
}

// Detrend removes the least squares line from the series and returns the residuals.
func Detrend(series []float64) ([]float64, error) {
	slope, intercept, err := LinearFit(series)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(series))
	for x, y := range series {
		out[x] = y - (slope*float64(x) + intercept)
	}
	return out, nil
}
