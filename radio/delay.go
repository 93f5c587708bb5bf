package radio

import (
	"fmt"

	"github.com/davidste/openbts-multi-arfcn/dsp/delay"
)

// calOffset applies a fixed, sub-sample receive timing correction derived
// from calib.Lookup to a stream of complex samples. It wraps a pair of
// real-valued delay lines, one per rail, since dsp/delay.Line only carries
// float64 samples.
type calOffset struct {
	re, im *delay.Line
	frac   float64
}

// newCalOffset builds a calibration delay sized to cover fracDelay samples
// of sub-sample correction plus the interpolator's lookahead.
func newCalOffset(fracDelay float64) (*calOffset, error) {
	if fracDelay < 0 {
		return nil, fmt.Errorf("radio: negative calibration delay %v", fracDelay)
	}

	size := int(fracDelay) + 8
	re, err := delay.New(size)
	if err != nil {
		return nil, err
	}

	im, err := delay.New(size)
	if err != nil {
		return nil, err
	}

	return &calOffset{re: re, im: im, frac: fracDelay}, nil
}

// Apply corrects in-place, sample by sample: writes each input sample into
// the delay lines, then reads back the calibration-offset sample.
func (c *calOffset) Apply(buf []complex64) {
	for i, s := range buf {
		c.re.Write(float64(real(s)))
		c.im.Write(float64(imag(s)))

		buf[i] = complex(
			float32(c.re.ReadFractional(c.frac)),
			float32(c.im.ReadFractional(c.frac)),
		)
	}
}

// Reset clears both rails, dropping any buffered history.
func (c *calOffset) Reset() {
	c.re.Reset()
	c.im.Reset()
}
