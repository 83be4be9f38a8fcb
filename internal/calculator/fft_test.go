package calculator

import (
	"errors"
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// naiveDFT is the O(N²) reference transform.
func naiveDFT(series []float64) []complex128 {
	n := len(series)
	out := make([]complex128, n)
	for k := 0; k < n; k++ {
		var sum complex128
		for t, v := range series {
			angle := -2 * math.Pi * float64(k*t) / float64(n)
			sum += complex(v, 0) * cmplx.Exp(complex(0, angle))
		}
		out[k] = sum
	}
	return out
}

func TestTransform_MatchesNaiveDFT(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 2; n <= 128; n *= 2 {
		series := make([]float64, n)
		for i := range series {
			series[i] = rng.NormFloat64() * 10
		}
		got, err := Transform(series)
		require.NoError(t, err)
		want := naiveDFT(series)
		for k := range want {
			assert.InDelta(t, real(want[k]), real(got[k]), 1e-8, "n=%d k=%d real", n, k)
			assert.InDelta(t, imag(want[k]), imag(got[k]), 1e-8, "n=%d k=%d imag", n, k)
		}
	}
}

func TestTransform_SingleSample(t *testing.T) {
	got, err := Transform([]float64{3.5})
	require.NoError(t, err)
	assert.Equal(t, []complex128{complex(3.5, 0)}, got)
}

func TestTransform_RejectsNonPowerOfTwo(t *testing.T) {
	for _, n := range []int{0, 3, 6, 100} {
		_, err := Transform(make([]float64, n))
		require.Error(t, err, "n=%d", n)
		assert.True(t, errors.Is(err, ErrNotPowerOfTwo))
	}
}

func TestTransform_PureToneLandsInItsBin(t *testing.T) {
	n := DefaultWindowSize
	series := make([]float64, n)
	for i := range series {
		series[i] = math.Cos(2 * math.Pi * 5 * float64(i) / float64(n))
	}
	got, err := Transform(series)
	require.NoError(t, err)

	assert.InDelta(t, float64(n)/2, cmplx.Abs(got[5]), 1e-9)
	assert.InDelta(t, float64(n)/2, cmplx.Abs(got[n-5]), 1e-9)
	assert.InDelta(t, 0, cmplx.Abs(got[6]), 1e-9)
}

func TestPlan_ReusableAndDeterministic(t *testing.T) {
	plan, err := NewPlan(16)
	require.NoError(t, err)

	series := []float64{1, 4, 2, 8, 5, 7, 1, 0, 3, 3, 9, 2, 6, 1, 4, 4}
	run := func() []complex128 {
		x := make([]complex128, len(series))
		for i, v := range series {
			x[i] = complex(v, 0)
		}
		require.NoError(t, plan.Execute(x))
		return x
	}
	first := run()
	second := run()
	assert.Equal(t, first, second)

	assert.Error(t, plan.Execute(make([]complex128, 8)))
}
