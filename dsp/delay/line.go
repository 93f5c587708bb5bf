package delay

import (
	"fmt"
	"math"

	"github.com/davidste/openbts-multi-arfcn/dsp/interp"
)

// Line is a circular delay line supporting integer and fractional reads.
// The fractional interpolation algorithm is selected at construction time
// via Option.
type Line struct {
	buffer   []float64
	writePos int

	mode      interp.Mode
	sincHalfN int

	allpassPrevX float64
	allpassPrevY float64
}

// Option configures a Line at construction time.
type Option func(*Line)

// WithMode selects the fractional-read interpolation algorithm. The
// default is interp.Hermite.
func WithMode(m interp.Mode) Option {
	return func(d *Line) {
		d.mode = m
	}
}

// WithSincN sets the half-width (in samples) of the windowed-sinc kernel
// used by interp.Sinc mode. Non-positive values are ignored, leaving the
// default of 8.
func WithSincN(halfN int) Option {
	return func(d *Line) {
		if halfN > 0 {
			d.sincHalfN = halfN
		}
	}
}

// New returns a delay line of fixed size.
func New(size int, opts ...Option) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay size must be > 0: %d", size)
	}

	d := &Line{
		buffer:    make([]float64, size),
		mode:      interp.Hermite,
		sincHalfN: 8,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Len returns internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// Write writes one sample.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample
	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read reads an integer delay in samples; delay=1 is the most recently
// written sample.
func (d *Line) Read(delay int) float64 {
	size := len(d.buffer)
	if size == 0 {
		return 0
	}
	readPos := (d.writePos - delay + size) % size
	return d.buffer[readPos]
}

// ReadFractional reads at a fractional delay using the line's configured
// interpolation mode.
func (d *Line) ReadFractional(delay float64) float64 {
	if len(d.buffer) == 0 {
		return 0
	}
	if delay < 0 {
		delay = 0
	}

	switch d.mode {
	case interp.Linear:
		return d.readLinear(delay)
	case interp.Lagrange3:
		return d.readLagrange3(delay)
	case interp.Lanczos3:
		return d.readLanczos3(delay)
	case interp.Sinc:
		return d.readSinc(delay)
	case interp.Allpass:
		return d.readAllpass(delay)
	default:
		return d.readHermite(delay)
	}
}

func clampDelay(delay, maxDelay float64) (float64, int, float64) {
	if maxDelay < 0 {
		maxDelay = 0
	}
	if delay > maxDelay {
		delay = maxDelay
	}
	p := int(math.Floor(delay))
	return delay, p, delay - float64(p)
}

func (d *Line) readHermite(delay float64) float64 {
	_, p, t := clampDelay(delay, float64(len(d.buffer)-3))

	xm1 := d.Read(maxInt(0, p-1))
	x0 := d.Read(p)
	x1 := d.Read(p + 1)
	x2 := d.Read(p + 2)
	return interp.Hermite4(t, xm1, x0, x1, x2)
}

func (d *Line) readLinear(delay float64) float64 {
	_, p, t := clampDelay(delay, float64(len(d.buffer)-2))

	x0 := d.Read(p)
	x1 := d.Read(p + 1)
	return interp.Linear2(t, x0, x1)
}

func (d *Line) readLagrange3(delay float64) float64 {
	_, p, t := clampDelay(delay, float64(len(d.buffer)-3))

	xm1 := d.Read(maxInt(0, p-1))
	x0 := d.Read(p)
	x1 := d.Read(p + 1)
	x2 := d.Read(p + 2)
	return interp.Lagrange4(t, xm1, x0, x1, x2)
}

func (d *Line) readLanczos3(delay float64) float64 {
	_, p, t := clampDelay(delay, float64(len(d.buffer)-4))

	var samples [6]float64
	for i := range samples {
		samples[i] = d.Read(maxInt(0, p-2+i))
	}
	return interp.Lanczos6(t, samples)
}

func (d *Line) readSinc(delay float64) float64 {
	halfN := d.sincHalfN
	if halfN <= 0 {
		halfN = 8
	}

	_, p, t := clampDelay(delay, float64(len(d.buffer)-halfN-1))

	samples := make([]float64, 2*halfN)
	for i := range samples {
		samples[i] = d.Read(maxInt(0, p-(halfN-1)+i))
	}
	return interp.SincInterp(t, samples, halfN)
}

func (d *Line) readAllpass(delay float64) float64 {
	_, p, t := clampDelay(delay, float64(len(d.buffer)-2))

	x := d.Read(p)
	y, nextX, nextY := interp.AllpassTick(t, x, d.allpassPrevX, d.allpassPrevY)
	d.allpassPrevX = nextX
	d.allpassPrevY = nextY

	return y
}

// Reset clears line state.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
	d.allpassPrevX = 0
	d.allpassPrevY = 0
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
