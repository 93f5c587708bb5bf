// Package dftplan wraps an M-point DFT for the channelizer/synthesis path:
// a per-instance plan executed in batched form over an interleaved M*chunk
// complex buffer. A single package-level plan (the source's original
// sigproc/fft.c design) is deliberately avoided; each channelizer owns its
// own Plan.
package dftplan

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Direction selects a forward or inverse transform.
type Direction int

const (
	Forward Direction = iota
	Inverse
)

// Plan executes a length-M DFT, batched over chunk positions of an
// interleaved M*chunk complex64 buffer. The only verified-present plan type
// in the corpus operates on complex128, so Plan holds a small complex128
// scratch buffer and converts at the Execute boundary.
type Plan struct {
	m       int
	chunk   int
	inner   *algofft.Plan[complex128]
	scratch []complex128
}

// NewPlan constructs a plan for an M-point DFT batched over chunk positions.
func NewPlan(m, chunk int) (*Plan, error) {
	if m <= 0 {
		return nil, fmt.Errorf("dftplan: m must be > 0: %d", m)
	}

	if chunk <= 0 {
		return nil, fmt.Errorf("dftplan: chunk must be > 0: %d", chunk)
	}

	inner, err := algofft.NewPlan64(m)
	if err != nil {
		return nil, fmt.Errorf("dftplan: failed to create FFT plan: %w", err)
	}

	return &Plan{
		m:       m,
		chunk:   chunk,
		inner:   inner,
		scratch: make([]complex128, m),
	}, nil
}

// M returns the transform size.
func (p *Plan) M() int { return p.m }

// Chunk returns the number of batched positions per Execute call.
func (p *Plan) Chunk() int { return p.chunk }

// Execute transforms buf in place. buf must have length M*chunk, laid out
// as chunk consecutive groups of M interleaved complex samples.
func (p *Plan) Execute(buf []complex64, dir Direction) error {
	want := p.m * p.chunk
	if len(buf) != want {
		return fmt.Errorf("dftplan: buffer length %d, want %d", len(buf), want)
	}

	for c := 0; c < p.chunk; c++ {
		group := buf[c*p.m : (c+1)*p.m]

		for i, v := range group {
			p.scratch[i] = complex(float64(real(v)), float64(imag(v)))
		}

		var err error
		if dir == Forward {
			err = p.inner.Forward(p.scratch, p.scratch)
		} else {
			err = p.inner.Inverse(p.scratch, p.scratch)
		}

		if err != nil {
			return fmt.Errorf("dftplan: execute: %w", err)
		}

		for i, v := range p.scratch {
			group[i] = complex(float32(real(v)), float32(imag(v)))
		}
	}

	return nil
}
