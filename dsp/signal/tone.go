package signal

import (
	"fmt"
	"math"
)

// ComplexTone generates a complex exponential test tone at freqHz offset
// from baseband, sampled at the generator's configured rate. It is used to
// probe a channelizer's per-channel frequency response: feed the tone into
// one analysis channel and verify the detected power lands at freqHz.
func (g *Generator) ComplexTone(freqHz, amplitude float64, samples int) ([]complex64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("complex tone samples must be > 0: %d", samples)
	}
	if g.cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("complex tone sample rate must be > 0: %f", g.cfg.SampleRate)
	}

	out := make([]complex64, samples)
	step := 2 * math.Pi * freqHz / g.cfg.SampleRate

	for i := range out {
		theta := step * float64(i)
		out[i] = complex(float32(amplitude*math.Cos(theta)), float32(amplitude*math.Sin(theta)))
	}

	return out, nil
}
