package channelizer

import (
	"fmt"

	"github.com/davidste/openbts-multi-arfcn/dsp/cxvec"
	"github.com/davidste/openbts-multi-arfcn/dsp/dftplan"
)

// Synthesis is the transmit-side polyphase combiner: it multiplexes chanM
// per-channel baseband blocks into one interleaved channel-rate block.
type Synthesis struct {
	Base
}

// NewSynthesis constructs a synthesis combiner with chanM channels, filtLen
// taps per branch, converting at ratio p/q with the given block multiplier.
// One chunk is chunkLen = p*mul samples per channel per Rotate call.
func NewSynthesis(chanM, filtLen, p, q, mul int) (*Synthesis, error) {
	base, err := newBase(chanM, filtLen, p, q, mul, p*mul)
	if err != nil {
		return nil, err
	}

	return &Synthesis{Base: base}, nil
}

// Rotate multiplexes chanM per-channel inputs (length mul*q each) into one
// interleaved output block of ChunkLen()*ChanM() samples. Inactive channels
// contribute silence. Each active channel's input must carry at least
// FiltLen() samples of headroom, which the internal resampler overwrites
// with that channel's history.
func (s *Synthesis) Rotate(inputs []cxvec.Vector, output cxvec.Vector) (int, error) {
	if len(inputs) != s.chanM {
		return -1, fmt.Errorf("channelizer: expected %d inputs, got %d", s.chanM, len(inputs))
	}

	if output.Len() != s.chunkLen*s.chanM {
		return -1, fmt.Errorf("channelizer: output length %d, want %d", output.Len(), s.chunkLen*s.chanM)
	}

	for ch := 0; ch < s.chanM; ch++ {
		if !s.resampler.IsActive(ch) {
			s.resamp[ch].Reset()
			continue
		}

		if _, err := s.resampler.Rotate(ch, inputs[ch], s.resamp[ch]); err != nil {
			return -1, fmt.Errorf("channelizer: channel %d resample: %w", ch, err)
		}
	}

	if _, err := cxvec.Interleave(s.dftBuf, s.resamp); err != nil {
		return -1, fmt.Errorf("channelizer: interleave: %w", err)
	}

	if err := s.plan.Execute(s.dftBuf.Data(), dftplan.Forward); err != nil {
		return -1, fmt.Errorf("channelizer: dft: %w", err)
	}

	if _, err := cxvec.DeinterleaveForward(s.filtIn, s.dftBuf, s.chanM); err != nil {
		return -1, fmt.Errorf("channelizer: post-dft deinterleave: %w", err)
	}

	for ch := 0; ch < s.chanM; ch++ {
		if err := s.filterChannel(ch); err != nil {
			return -1, err
		}
	}

	if _, err := cxvec.Interleave(output, s.filtOut); err != nil {
		return -1, fmt.Errorf("channelizer: output interleave: %w", err)
	}

	return output.Len(), nil
}
