// Package channelizer implements the M-path polyphase analysis channelizer
// and synthesis combiner: a per-channel filterbank stage coupled through an
// M-point DFT to an internal rational resampler, following the commutator
// model from harris, "Multirate Signal Processing" (Prentice Hall, 2006).
package channelizer

import (
	"fmt"

	"github.com/davidste/openbts-multi-arfcn/dsp/cxvec"
	"github.com/davidste/openbts-multi-arfcn/dsp/dftplan"
	"github.com/davidste/openbts-multi-arfcn/dsp/kernel"
	"github.com/davidste/openbts-multi-arfcn/dsp/resample"
	"github.com/davidste/openbts-multi-arfcn/dsp/window"
)

// Base holds the filterbank, DFT plan, and internal resampler shared by
// Analysis and Synthesis. It processes one chunk of chunkLen*chanM samples
// per Rotate call; callers loop externally for multi-chunk blocks.
type Base struct {
	p, q, mul    int
	chanM        int
	filtLen      int
	chunkLen     int

	bank kernel.Bank

	history []cxvec.Vector
	filtIn  []cxvec.Vector
	filtOut []cxvec.Vector

	dftBuf  cxvec.Vector
	plan    *dftplan.Plan
	resamp  []cxvec.Vector

	resampler *resample.Resampler
}

func newBase(chanM, filtLen, p, q, mul, chunkLen int) (Base, error) {
	if chanM <= 0 || filtLen <= 0 {
		return Base{}, fmt.Errorf("channelizer: chanM and filtLen must be > 0: %d, %d", chanM, filtLen)
	}

	if p <= 0 || q <= 0 || mul <= 0 {
		return Base{}, fmt.Errorf("channelizer: p, q, and mul must be > 0: %d, %d, %d", p, q, mul)
	}

	proto, err := buildPrototype(chanM, filtLen)
	if err != nil {
		return Base{}, err
	}

	bank, err := kernel.NewBank(proto, chanM, filtLen)
	if err != nil {
		return Base{}, err
	}

	history := make([]cxvec.Vector, chanM)
	filtIn := make([]cxvec.Vector, chanM)
	filtOut := make([]cxvec.Vector, chanM)
	resamp := make([]cxvec.Vector, chanM)

	for i := 0; i < chanM; i++ {
		history[i], err = cxvec.New(filtLen)
		if err != nil {
			return Base{}, err
		}

		filtIn[i], err = cxvec.New(chunkLen, cxvec.WithHeadroom(filtLen))
		if err != nil {
			return Base{}, err
		}

		filtOut[i], err = cxvec.New(chunkLen)
		if err != nil {
			return Base{}, err
		}

		resamp[i], err = cxvec.New(chunkLen, cxvec.WithHeadroom(filtLen))
		if err != nil {
			return Base{}, err
		}
	}

	dftBuf, err := cxvec.New(chunkLen * chanM)
	if err != nil {
		return Base{}, err
	}

	plan, err := dftplan.NewPlan(chanM, chunkLen)
	if err != nil {
		return Base{}, err
	}

	resampler, err := resample.New(p, q, filtLen, chanM, resample.WithPolicy(resample.PolicyWindowed))
	if err != nil {
		return Base{}, err
	}

	return Base{
		p:         p,
		q:         q,
		mul:       mul,
		chanM:     chanM,
		filtLen:   filtLen,
		chunkLen:  chunkLen,
		bank:      bank,
		history:   history,
		filtIn:    filtIn,
		filtOut:   filtOut,
		dftBuf:    dftBuf,
		plan:      plan,
		resamp:    resamp,
		resampler: resampler,
	}, nil
}

// buildPrototype constructs the channelizer's own filterbank prototype: a
// Blackman-Harris windowed sinc, normalized so its coefficients sum to chanM
// (unity DC gain per branch).
func buildPrototype(chanM, filtLen int) ([]float32, error) {
	l := chanM * filtLen
	midpt := float64(l) / 2

	proto := make([]float32, l)
	for i := range proto {
		proto[i] = float32(cxvec.Sinc((float64(i) - midpt) / float64(chanM)))
	}

	w := window.Generate(window.TypeBlackmanHarris4Term, l)
	for i := range proto {
		proto[i] *= float32(w[i])
	}

	var sum float64
	for _, v := range proto {
		sum += float64(v)
	}

	if sum == 0 {
		return nil, fmt.Errorf("channelizer: degenerate prototype filter, zero gain")
	}

	scale := float64(chanM) / sum
	for i := range proto {
		proto[i] = float32(float64(proto[i]) * scale)
	}

	return proto, nil
}

// ChanM returns the number of channel lanes.
func (b *Base) ChanM() int { return b.chanM }

// FiltLen returns the per-branch filterbank tap count.
func (b *Base) FiltLen() int { return b.filtLen }

// ChunkLen returns the fixed chunk length this instance processes per Rotate call.
func (b *Base) ChunkLen() int { return b.chunkLen }

// ActivateChannel activates the internal resampler's channel n.
func (b *Base) ActivateChannel(n int) error {
	return b.resampler.Activate(n)
}

// DeactivateChannel deactivates the internal resampler's channel n.
func (b *Base) DeactivateChannel(n int) error {
	return b.resampler.Deactivate(n)
}

// IsActiveChannel reports whether the internal resampler's channel n is active.
func (b *Base) IsActiveChannel(n int) bool {
	return b.resampler.IsActive(n)
}

// filterChannel convolves one channel's staged input through its filterbank
// branch, carrying history, and writes the result into b.filtOut[ch].
func (b *Base) filterChannel(ch int) error {
	headroomData := b.filtIn[ch].HeadroomData()
	copy(headroomData[len(headroomData)-b.filtLen:], b.history[ch].Data())

	if _, err := kernel.Convolve(b.filtIn[ch], b.filtOut[ch], b.bank.Partition(ch)); err != nil {
		return fmt.Errorf("channelizer: channel %d: %w", ch, err)
	}

	// The last filtLen slots of headroom plus data are the new history; this
	// also holds when the chunk is shorter than filtLen.
	buf := b.filtIn[ch].Buf()
	copy(b.history[ch].Data(), buf[len(buf)-b.filtLen:])

	return nil
}
