package channelizer

import (
	"errors"
	"fmt"

	"github.com/davidste/openbts-multi-arfcn/dsp/cxvec"
	"github.com/davidste/openbts-multi-arfcn/dsp/dftplan"
	"github.com/davidste/openbts-multi-arfcn/dsp/resample"
)

// Analysis is the receive-side polyphase channelizer: it demultiplexes one
// interleaved channel-rate block into chanM decimated per-channel baseband
// blocks.
type Analysis struct {
	Base
}

// NewAnalysis constructs an analysis channelizer with chanM channels, filtLen
// taps per branch, converting at ratio p/q with the given block multiplier.
// Its internal resampler demultiplexes at the channel rate's mul-th
// multiple; one chunk is chunkLen = q*mul samples per channel per Rotate call.
func NewAnalysis(chanM, filtLen, p, q, mul int) (*Analysis, error) {
	base, err := newBase(chanM, filtLen, p, q, mul, q*mul)
	if err != nil {
		return nil, err
	}

	return &Analysis{Base: base}, nil
}

// Rotate demultiplexes one interleaved block of ChunkLen()*ChanM() samples
// into chanM decimated per-channel outputs. outputs[n] is only written when
// channel n is active; its required length is mul*p.
func (a *Analysis) Rotate(input cxvec.Vector, outputs []cxvec.Vector) (int, error) {
	if input.Len() != a.chunkLen*a.chanM {
		return -1, fmt.Errorf("channelizer: input length %d, want %d", input.Len(), a.chunkLen*a.chanM)
	}

	if len(outputs) != a.chanM {
		return -1, fmt.Errorf("channelizer: expected %d outputs, got %d", a.chanM, len(outputs))
	}

	if _, err := cxvec.DeinterleaveReverse(a.filtIn, input, a.chanM); err != nil {
		return -1, fmt.Errorf("channelizer: deinterleave: %w", err)
	}

	for ch := 0; ch < a.chanM; ch++ {
		if err := a.filterChannel(ch); err != nil {
			return -1, err
		}
	}

	if _, err := cxvec.Interleave(a.dftBuf, a.filtOut); err != nil {
		return -1, fmt.Errorf("channelizer: interleave: %w", err)
	}

	if err := a.plan.Execute(a.dftBuf.Data(), dftplan.Forward); err != nil {
		return -1, fmt.Errorf("channelizer: dft: %w", err)
	}

	if _, err := cxvec.DeinterleaveForward(a.resamp, a.dftBuf, a.chanM); err != nil {
		return -1, fmt.Errorf("channelizer: post-dft deinterleave: %w", err)
	}

	n := 0

	for ch := 0; ch < a.chanM; ch++ {
		if !a.resampler.IsActive(ch) {
			continue
		}

		count, err := a.resampler.Rotate(ch, a.resamp[ch], outputs[ch])
		if err != nil && !errors.Is(err, resample.ErrChannelInactive) {
			return -1, fmt.Errorf("channelizer: channel %d resample: %w", ch, err)
		}

		n += count
	}

	return n, nil
}
