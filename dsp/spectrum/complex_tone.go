package spectrum

import "fmt"

// ComplexTonePower estimates the power of a complex baseband signal at
// freqHz by running independent Goertzel analyzers over the real and
// imaginary rails and summing their power. For a single complex exponential
// this tracks the true single-bin DFT power; it is intended for diagnostic
// tone detection, not general spectral analysis of arbitrary complex
// signals where positive and negative frequency content can alias together.
func ComplexTonePower(samples []complex64, freqHz, sampleRate float64) (float64, error) {
	if len(samples) == 0 {
		return 0, fmt.Errorf("complex tone power: empty input")
	}

	re, err := NewGoertzel(freqHz, sampleRate)
	if err != nil {
		return 0, err
	}

	im, err := NewGoertzel(freqHz, sampleRate)
	if err != nil {
		return 0, err
	}

	reBuf := make([]float64, len(samples))
	imBuf := make([]float64, len(samples))

	for i, s := range samples {
		reBuf[i] = float64(real(s))
		imBuf[i] = float64(imag(s))
	}

	re.ProcessBlock(reBuf)
	im.ProcessBlock(imBuf)

	return re.Power() + im.Power(), nil
}
