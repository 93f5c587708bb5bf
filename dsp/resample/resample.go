package resample

import (
	"errors"
	"fmt"

	"github.com/davidste/openbts-multi-arfcn/dsp/cxvec"
	"github.com/davidste/openbts-multi-arfcn/dsp/kernel"
	"github.com/davidste/openbts-multi-arfcn/dsp/window"
)

// MaxOutputBlock bounds the precomputed commutator tables and therefore the
// largest single Rotate call.
const MaxOutputBlock = 4096

// Policy selects prototype-filter generation.
type Policy int

const (
	// PolicyBoxcar uses an unwindowed sinc prototype. Default for a bare
	// Resampler.
	PolicyBoxcar Policy = iota
	// PolicyWindowed applies a Blackman-Harris window to the sinc
	// prototype. Default for a channelizer's internal resampler.
	PolicyWindowed
)

// ErrChannelInactive is returned by Rotate when the requested channel has
// not been activated; its output contents must not be consumed.
var ErrChannelInactive = errors.New("resample: channel inactive")

// ErrInvalidChannel is returned by Activate, Deactivate, and Rotate when the
// requested channel index is outside [0, NumChannels()).
var ErrInvalidChannel = errors.New("resample: invalid channel index")

// Option configures Resampler construction.
type Option func(*config)

type config struct {
	policy Policy
}

// WithPolicy selects the prototype-filter generation policy.
func WithPolicy(p Policy) Option {
	return func(c *config) {
		c.policy = p
	}
}

// Resampler converts between rates P/Q via a polyphase filter bank, serving
// up to M independent channel lanes. Not safe for concurrent use; all
// Rotate calls on one instance must be sequential.
type Resampler struct {
	p, q         int
	partitionLen int
	m            int

	bank kernel.Bank

	history []cxvec.Vector
	active  []bool

	inputIndex []int
	outputPath []int
}

// New constructs a resampler converting at ratio P/Q with the given
// per-branch tap count, serving m independent channel lanes.
func New(p, q, partitionLen, m int, opts ...Option) (*Resampler, error) {
	if p <= 0 || q <= 0 {
		return nil, fmt.Errorf("resample: p and q must be > 0: %d, %d", p, q)
	}

	if partitionLen <= 0 {
		return nil, fmt.Errorf("resample: partitionLen must be > 0: %d", partitionLen)
	}

	if m <= 0 {
		return nil, fmt.Errorf("resample: m must be > 0: %d", m)
	}

	cfg := config{policy: PolicyBoxcar}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	proto, err := buildPrototype(p, partitionLen, cfg.policy)
	if err != nil {
		return nil, err
	}

	bank, err := kernel.NewBank(proto, p, partitionLen)
	if err != nil {
		return nil, err
	}

	history := make([]cxvec.Vector, m)
	for i := range history {
		history[i], err = cxvec.New(partitionLen)
		if err != nil {
			return nil, err
		}
	}

	inputIndex := make([]int, MaxOutputBlock)
	outputPath := make([]int, MaxOutputBlock)

	for i := 0; i < MaxOutputBlock; i++ {
		inputIndex[i] = (q * i) / p
		outputPath[i] = (q * i) % p
	}

	return &Resampler{
		p:            p,
		q:            q,
		partitionLen: partitionLen,
		m:            m,
		bank:         bank,
		history:      history,
		active:       make([]bool, m),
		inputIndex:   inputIndex,
		outputPath:   outputPath,
	}, nil
}

// buildPrototype constructs a length P*partitionLen prototype filter,
// normalized so the summed gain equals P (unity DC gain per branch).
func buildPrototype(p, partitionLen int, policy Policy) ([]float32, error) {
	l := p * partitionLen
	midpt := float64(l) / 2

	proto := make([]float32, l)
	for i := range proto {
		proto[i] = float32(cxvec.Sinc((float64(i) - midpt) / float64(p)))
	}

	if policy == PolicyWindowed {
		w := window.Generate(window.TypeBlackmanHarris4Term, l)
		for i := range proto {
			proto[i] *= float32(w[i])
		}
	}

	var sum float64
	for _, v := range proto {
		sum += float64(v)
	}

	if sum == 0 {
		return nil, fmt.Errorf("resample: degenerate prototype filter, zero gain")
	}

	scale := float64(p) / sum
	for i := range proto {
		proto[i] = float32(float64(proto[i]) * scale)
	}

	return proto, nil
}

// P returns the output-rate numerator.
func (r *Resampler) P() int { return r.p }

// Q returns the input-rate denominator.
func (r *Resampler) Q() int { return r.q }

// PartitionLen returns the tap count per polyphase branch.
func (r *Resampler) PartitionLen() int { return r.partitionLen }

// NumChannels returns the number of channel lanes this resampler serves.
func (r *Resampler) NumChannels() int { return r.m }

// IsActive reports whether channel n is active.
func (r *Resampler) IsActive(n int) bool {
	return n >= 0 && n < r.m && r.active[n]
}

// History returns channel n's saved history, for inspection and testing.
func (r *Resampler) History(n int) cxvec.Vector { return r.history[n] }

// Activate marks channel n as live.
func (r *Resampler) Activate(n int) error {
	if n < 0 || n >= r.m {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, n)
	}

	r.active[n] = true

	return nil
}

// Deactivate marks channel n as inactive. History is retained, not reset.
func (r *Resampler) Deactivate(n int) error {
	if n < 0 || n >= r.m {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, n)
	}

	r.active[n] = false

	return nil
}

// Rotate resamples one block for channel n. input.Len() must be a multiple
// of Q; output.Len() must equal input.Len()*P/Q and must not exceed
// MaxOutputBlock. input must carry at least PartitionLen() samples of
// headroom, which Rotate overwrites with the channel's saved history.
func (r *Resampler) Rotate(n int, input, output cxvec.Vector) (int, error) {
	if n < 0 || n >= r.m {
		return -1, fmt.Errorf("%w: %d", ErrInvalidChannel, n)
	}

	if !r.active[n] {
		return -1, fmt.Errorf("resample: channel %d: %w", n, ErrChannelInactive)
	}

	if input.Len()%r.q != 0 {
		return -1, fmt.Errorf("resample: input length %d not a multiple of q=%d", input.Len(), r.q)
	}

	mult := input.Len() / r.q
	wantOut := mult * r.p

	if output.Len() != wantOut {
		return -1, fmt.Errorf("resample: output length %d, want %d", output.Len(), wantOut)
	}

	if wantOut > MaxOutputBlock {
		return -1, fmt.Errorf("resample: output length %d exceeds MaxOutputBlock %d", wantOut, MaxOutputBlock)
	}

	if input.Headroom() < r.partitionLen {
		return -1, fmt.Errorf("resample: input headroom %d insufficient for partition length %d", input.Headroom(), r.partitionLen)
	}

	headroomData := input.HeadroomData()
	copy(headroomData[len(headroomData)-r.partitionLen:], r.history[n].Data())

	buf := input.Buf()
	headroom := input.Headroom()
	out := output.Data()

	for i := 0; i < wantOut; i++ {
		branch := r.bank.Partition(r.outputPath[i])
		windowStart := headroom + r.inputIndex[i] - (r.partitionLen - 1)

		sample, err := kernel.SingleConvolve(buf[windowStart:windowStart+r.partitionLen], branch)
		if err != nil {
			return -1, err
		}

		out[i] = sample
	}

	// The new history is the last partitionLen samples of headroom history
	// plus input, so an input shorter than partitionLen keeps the older tail.
	end := headroom + input.Len()
	copy(r.history[n].Data(), buf[end-r.partitionLen:end])

	return wantOut, nil
}
