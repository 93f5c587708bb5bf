package interp

import "math"

// Mode selects the interpolation algorithm a delay line uses for
// fractional reads.
type Mode int

const (
	Hermite Mode = iota
	Linear
	Lagrange3
	Lanczos3
	Sinc
	Allpass
)

// LagrangeInterpolator provides configurable fractional interpolation.
type LagrangeInterpolator struct {
	order int
}

// NewLagrangeInterpolator creates an interpolator.
// order: 1 = linear, 3 = cubic (Hermite-style 4-point interpolation).
func NewLagrangeInterpolator(order int) *LagrangeInterpolator {
	return &LagrangeInterpolator{order: order}
}

// Interpolate interpolates around frac in [0,1].
// For order 1, samples must contain at least 2 values.
// For order 3, samples must contain at least 4 values and interpolates between samples[1] and samples[2].
func (l *LagrangeInterpolator) Interpolate(samples []float64, frac float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	if l.order == 1 {
		if len(samples) < 2 {
			return samples[0]
		}
		return samples[0] + frac*(samples[1]-samples[0])
	}
	if l.order == 3 {
		if len(samples) < 4 {
			if len(samples) < 2 {
				return samples[0]
			}
			return samples[0] + frac*(samples[1]-samples[0])
		}
		return Hermite4(frac, samples[0], samples[1], samples[2], samples[3])
	}
	if len(samples) < 2 {
		return samples[0]
	}
	return samples[0] + frac*(samples[1]-samples[0])
}

// Hermite4 computes cubic 4-point interpolation.
// It interpolates from x0 to x1 using neighbor points xm1 and x2.
func Hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c0 := x0
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)
	return ((c3*t+c2)*t+c1)*t + c0
}

// Linear2 interpolates linearly between x0 and x1 at fraction t in [0,1].
func Linear2(t, x0, x1 float64) float64 {
	return x0 + t*(x1-x0)
}

// Lagrange4 computes 4-point cubic Lagrange interpolation between x0 and
// x1, using neighbor points xm1 and x2 at relative offsets -1, 0, 1, 2.
func Lagrange4(t, xm1, x0, x1, x2 float64) float64 {
	c0 := -t * (t - 1) * (t - 2) / 6
	c1 := (t + 1) * (t - 1) * (t - 2) / 2
	c2 := -(t + 1) * t * (t - 2) / 2
	c3 := (t + 1) * t * (t - 1) / 6
	return c0*xm1 + c1*x0 + c2*x1 + c3*x2
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

func lanczosWindow(x, a float64) float64 {
	if x < -a || x > a {
		return 0
	}
	return sinc(x / a)
}

// Lanczos6 computes 6-point Lanczos windowed-sinc interpolation (a=3) over
// samples at relative offsets -2..3, at fractional offset t in [0,1).
func Lanczos6(t float64, samples [6]float64) float64 {
	return LanczosN(t, samples[:], 3)
}

// LanczosN computes Lanczos windowed-sinc interpolation with window
// half-width a. samples[a-1] is the sample at relative offset 0 and
// samples[a] is at offset 1; t is the fractional offset in [0,1). The
// result is normalized by the kernel weight sum so a constant input
// reproduces exactly.
func LanczosN(t float64, samples []float64, a int) float64 {
	var sum, wsum float64
	for i, s := range samples {
		offset := float64(i-(a-1)) - t
		w := lanczosWindow(offset, float64(a)) * sinc(offset)
		sum += s * w
		wsum += w
	}
	if wsum == 0 {
		return 0
	}
	return sum / wsum
}

func blackman(x, half float64) float64 {
	if x < -half || x > half {
		return 0
	}
	pos := (x + half) / (2 * half)
	return 0.42 - 0.5*math.Cos(2*math.Pi*pos) + 0.08*math.Cos(4*math.Pi*pos)
}

// SincInterp computes Blackman-windowed sinc interpolation over samples,
// where samples[halfN-1] is at relative offset 0 and samples[halfN] is at
// offset 1, and t is the fractional offset in [0,1). Normalized by the
// kernel weight sum so a constant input reproduces exactly.
func SincInterp(t float64, samples []float64, halfN int) float64 {
	var sum, wsum float64
	for i, s := range samples {
		offset := float64(i-(halfN-1)) - t
		w := sinc(offset) * blackman(offset, float64(halfN))
		sum += s * w
		wsum += w
	}
	if wsum == 0 {
		return 0
	}
	return sum / wsum
}

// AllpassTick applies one step of a first-order allpass fractional-delay
// filter (Thiran order 1). frac is the fractional delay in [0,1); prevX
// and prevY are the filter's previous input and output. It returns the
// new output plus the values to carry forward as the next call's
// prevX/prevY.
func AllpassTick(frac, x, prevX, prevY float64) (y, nextX, nextY float64) {
	a := (1 - frac) / (1 + frac)
	y = a*x + prevX - a*prevY
	return y, x, y
}
