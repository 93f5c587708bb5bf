// Package cxvec implements the complex-sample vector primitive shared by the
// convolution kernels, resampler, and channelizer: an owned buffer with
// headroom for causal convolution history, sub-view aliasing, and the
// interleave/deinterleave operations the polyphase commutator needs.
//
// A Vector is not safe for concurrent use; callers coordinate access the
// same way the owning resampler/channelizer instance is single-threaded.
package cxvec

import (
	"fmt"
	"math"
)

// Vector is a buffer of complex64 samples with a headroom region preceding
// the logical data, used to hold convolution history without a bounds
// check on every tap read.
type Vector struct {
	buf      []complex64
	startIdx int
	length   int
	realOnly bool
	aligned  bool
}

// Option configures Vector construction.
type Option func(*config)

type config struct {
	headroom int
	realOnly bool
	aligned  bool
}

// WithHeadroom reserves n slots before the logical data for convolution history.
func WithHeadroom(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.headroom = n
		}
	}
}

// WithRealOnly declares that the imaginary components are always zero, so
// kernels operating on this vector may skip them.
func WithRealOnly() Option {
	return func(c *config) {
		c.realOnly = true
	}
}

// WithAligned declares the backing allocation as SIMD-alignment-satisfying.
// Go slices carry no byte-alignment guarantee; this flag is advisory and is
// only ever consulted by kernel dispatch heuristics, never used to justify
// unsafe pointer arithmetic.
func WithAligned() Option {
	return func(c *config) {
		c.aligned = true
	}
}

// New allocates a vector of the given logical length with optional headroom.
func New(length int, opts ...Option) (Vector, error) {
	if length < 0 {
		return Vector{}, fmt.Errorf("cxvec: length must be >= 0: %d", length)
	}

	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	buf := make([]complex64, cfg.headroom+length)

	return Vector{
		buf:      buf,
		startIdx: cfg.headroom,
		length:   length,
		realOnly: cfg.realOnly,
		aligned:  cfg.aligned,
	}, nil
}

// FromSlice wraps an existing slice as the vector's full buffer, with no headroom.
func FromSlice(data []complex64, opts ...Option) Vector {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return Vector{
		buf:      data,
		startIdx: 0,
		length:   len(data),
		realOnly: cfg.realOnly,
		aligned:  cfg.aligned,
	}
}

// Len returns the logical length (excludes headroom).
func (v Vector) Len() int { return v.length }

// Cap returns the total backing buffer capacity, including headroom.
func (v Vector) Cap() int { return len(v.buf) }

// Headroom returns the number of slots reserved before the logical data.
func (v Vector) Headroom() int { return v.startIdx }

// RealOnly reports whether imaginary components are declared zero.
func (v Vector) RealOnly() bool { return v.realOnly }

// Aligned reports whether the backing allocation is declared SIMD-aligned.
func (v Vector) Aligned() bool { return v.aligned }

// Data returns the logical live region of the buffer.
func (v Vector) Data() []complex64 {
	return v.buf[v.startIdx : v.startIdx+v.length]
}

// HeadroomData returns the headroom region preceding the logical data.
func (v Vector) HeadroomData() []complex64 {
	return v.buf[:v.startIdx]
}

// Buf returns the entire backing buffer, headroom included.
func (v Vector) Buf() []complex64 {
	return v.buf
}

// SubView returns a non-owning vector aliasing this vector's backing buffer,
// whose logical data is [offset, offset+length) of v's logical data.
// headroom is the number of slots the caller needs before that start; it is
// only bounds-checked, and the view's Headroom() is every backing slot
// before its start. Negative parameters are rejected. The returned vector
// must not outlive v.
func (v Vector) SubView(offset, length, headroom int) (Vector, error) {
	if offset < 0 || length < 0 || headroom < 0 {
		return Vector{}, fmt.Errorf("cxvec: negative subview parameter offset=%d length=%d headroom=%d", offset, length, headroom)
	}

	absStart := v.startIdx + offset
	if absStart-headroom < 0 || absStart+length > len(v.buf) {
		return Vector{}, fmt.Errorf("cxvec: subview out of bounds: buf_len=%d start=%d headroom=%d length=%d", len(v.buf), absStart, headroom, length)
	}

	return Vector{
		buf:      v.buf,
		startIdx: absStart,
		length:   length,
		realOnly: v.realOnly,
		aligned:  v.aligned,
	}, nil
}

// Reset zeros the entire buffer, headroom included.
func (v Vector) Reset() {
	for i := range v.buf {
		v.buf[i] = 0
	}
}

// Shift moves the logical start by a signed offset, growing or shrinking
// the headroom accordingly. It fails if the result would violate headroom
// or capacity bounds.
func (v *Vector) Shift(offset int) error {
	newStart := v.startIdx + offset
	if newStart < 0 || newStart+v.length > len(v.buf) {
		return fmt.Errorf("cxvec: shift by %d violates bounds (start=%d len=%d cap=%d)", offset, v.startIdx, v.length, len(v.buf))
	}

	v.startIdx = newStart

	return nil
}

// CopyInto copies src's samples into dst and returns the count copied, or a
// negative count and an error if dst.Len() != src.Len().
func CopyInto(dst, src Vector) (int, error) {
	if dst.Len() != src.Len() {
		return -1, fmt.Errorf("cxvec: copy length mismatch: dst=%d src=%d", dst.Len(), src.Len())
	}

	copy(dst.Data(), src.Data())

	return src.Len(), nil
}

// Sub computes dst = a - b element-wise and returns the count, or a
// negative count and an error on length mismatch.
func Sub(dst, a, b Vector) (int, error) {
	if dst.Len() != a.Len() || a.Len() != b.Len() {
		return -1, fmt.Errorf("cxvec: sub length mismatch: dst=%d a=%d b=%d", dst.Len(), a.Len(), b.Len())
	}

	dd, da, db := dst.Data(), a.Data(), b.Data()
	for i := range dd {
		dd[i] = da[i] - db[i]
	}

	return a.Len(), nil
}

// Decimate keeps every decim-th sample starting at phase and writes it into
// dst. It fails if decim <= 0, phase is outside [0, decim), or src's length
// is not a multiple of decim.
func Decimate(dst, src Vector, decim, phase int) (int, error) {
	if decim <= 0 {
		return -1, fmt.Errorf("cxvec: decim must be > 0: %d", decim)
	}

	if phase < 0 || phase >= decim {
		return -1, fmt.Errorf("cxvec: phase must be in [0, %d): %d", decim, phase)
	}

	if src.Len()%decim != 0 {
		return -1, fmt.Errorf("cxvec: src length %d not a multiple of decim %d", src.Len(), decim)
	}

	want := src.Len() / decim
	if dst.Len() != want {
		return -1, fmt.Errorf("cxvec: dst length %d, want %d", dst.Len(), want)
	}

	sd, dd := src.Data(), dst.Data()
	for i := 0; i < want; i++ {
		dd[i] = sd[i*decim+phase]
	}

	return want, nil
}

// Reverse reverses v's samples in place.
func Reverse(v Vector) {
	d := v.Data()
	for i, j := 0, len(d)-1; i < j; i, j = i+1, j-1 {
		d[i], d[j] = d[j], d[i]
	}
}

// ReverseConjugate reverses v's samples in place and conjugates each one.
// For a real-only vector this is identical to Reverse.
func ReverseConjugate(v Vector) {
	d := v.Data()
	for i, j := 0, len(d)-1; i <= j; i, j = i+1, j-1 {
		ci, cj := complex(real(d[i]), -imag(d[i])), complex(real(d[j]), -imag(d[j]))
		d[i], d[j] = cj, ci
	}
}

// Interleave writes len(vectors) channels into dst in round-robin order:
// dst[i*m+n] = vectors[n][i]. All input vectors must share the same length
// and dst.Len() must equal that length times len(vectors).
func Interleave(dst Vector, vectors []Vector) (int, error) {
	m := len(vectors)
	if m == 0 {
		return 0, nil
	}

	n := vectors[0].Len()
	for _, v := range vectors {
		if v.Len() != n {
			return -1, fmt.Errorf("cxvec: interleave channel length mismatch")
		}
	}

	if dst.Len() != n*m {
		return -1, fmt.Errorf("cxvec: interleave dst length %d, want %d", dst.Len(), n*m)
	}

	dd := dst.Data()
	for i := 0; i < n; i++ {
		for ch := 0; ch < m; ch++ {
			dd[i*m+ch] = vectors[ch].Data()[i]
		}
	}

	return n * m, nil
}

// DeinterleaveForward splits src into m channels in natural order:
// out[n][i] = src[i*m+n].
func DeinterleaveForward(outs []Vector, src Vector, m int) (int, error) {
	return deinterleave(outs, src, m, false)
}

// DeinterleaveReverse splits src into m channels in reversed channel order:
// out[m-1-n][i] = src[i*m+n]. This is the form the analysis channelizer
// uses so channel indices align with the forward DFT's aliasing convention.
func DeinterleaveReverse(outs []Vector, src Vector, m int) (int, error) {
	return deinterleave(outs, src, m, true)
}

func deinterleave(outs []Vector, src Vector, m int, reverse bool) (int, error) {
	if m <= 0 {
		return -1, fmt.Errorf("cxvec: deinterleave m must be > 0: %d", m)
	}

	if len(outs) != m {
		return -1, fmt.Errorf("cxvec: deinterleave expects %d outputs, got %d", m, len(outs))
	}

	if src.Len()%m != 0 {
		return -1, fmt.Errorf("cxvec: deinterleave src length %d not a multiple of %d", src.Len(), m)
	}

	n := src.Len() / m
	for _, o := range outs {
		if o.Len() != n {
			return -1, fmt.Errorf("cxvec: deinterleave output length mismatch: got %d, want %d", o.Len(), n)
		}
	}

	sd := src.Data()
	for i := 0; i < n; i++ {
		for ch := 0; ch < m; ch++ {
			dstCh := ch
			if reverse {
				dstCh = m - 1 - ch
			}

			outs[dstCh].Data()[i] = sd[i*m+ch]
		}
	}

	return n, nil
}

// Sinc returns sin(pi*x)/(pi*x), with the value 1 at x == 0 approximated as
// 0.9999999999, returned by an explicit x == 0 check.
func Sinc(x float64) float64 {
	if x == 0 {
		return 0.9999999999
	}

	px := math.Pi * x

	return math.Sin(px) / px
}
