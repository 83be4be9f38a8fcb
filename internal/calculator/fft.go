package calculator

import (
	"fmt"
	"math"
	"math/bits"
)

// Plan holds the bit-reversal permutation and twiddle factors for one transform size,
// so repeated transforms of a sliding window do not recompute them.
type Plan struct {
	n       int
	rev     []int
	twiddle []complex128 // exp(-2πij/n) for j < n/2
}

// NewPlan prepares a radix-2 transform of n points.
func NewPlan(n int) (*Plan, error) {
	if n <= 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("fft of %d points: %w", n, ErrNotPowerOfTwo)
	}
	p := &Plan{
		n:       n,
		rev:     make([]int, n),
		twiddle: make([]complex128, n/2),
	}
	shift := bits.UintSize - bits.TrailingZeros(uint(n))
	for i := range p.rev {
		if n > 1 {
			p.rev[i] = int(bits.Reverse(uint(i)) >> shift)
		}
	}
	for j := range p.twiddle {
		sin, cos := math.Sincos(-2 * math.Pi * float64(j) / float64(n))
		p.twiddle[j] = complex(cos, sin)
	}
	return p, nil
}

// Size returns the number of points the plan transforms.
func (p *Plan) Size() int { return p.n }

// Execute transforms x in place. The output is in natural bin order: x[0] is DC,
// x[n/2] Nyquist, and bins above n/2 mirror the lower half.
func (p *Plan) Execute(x []complex128) error {
	if len(x) != p.n {
		return fmt.Errorf("fft plan for %d points got %d", p.n, len(x))
	}
	for i, j := range p.rev {
		if i < j {
			x[i], x[j] = x[j], x[i]
		}
	}
	for size := 2; size <= p.n; size <<= 1 {
		half := size >> 1
		stride := p.n / size
		for k := 0; k < half; k++ {
			w := p.twiddle[k*stride]
			for start := 0; start < p.n; start += size {
				even := x[start+k]
				odd := w * x[start+k+half]
				x[start+k] = even + odd
				x[start+k+half] = even - odd
			}
		}
	}
	return nil
}

// FFT transforms x in place with a one-off plan.
func FFT(x []complex128) error {
	p, err := NewPlan(len(x))
	if err != nil {
		return err
	}
	return p.Execute(x)
}

// Transform returns the discrete Fourier transform of a real series.
func Transform(series []float64) ([]complex128, error) {
	x := make([]complex128, len(series))
	for i, v := range series {
		x[i] = complex(v, 0)
	}
	if err := FFT(x); err != nil {
		return nil, err
	}
	return x, nil
}
