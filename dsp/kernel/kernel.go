// Package kernel implements the complex x real FIR convolution kernels used
// by the resampler and channelizer polyphase branches, dispatched by tap
// count through a priority-sorted implementation registry.
package kernel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/davidste/openbts-multi-arfcn/dsp/cxvec"
	"github.com/davidste/openbts-multi-arfcn/internal/cpu"
)

// maxTapLen bounds the specialized kernel set {4, 8, 12, 16, 20}; taps
// beyond this fall through to the generic dispatch path.
const maxTapLen = 20

// ErrLengthMismatch is returned when a caller-supplied window, tap, or
// headroom length contract is violated. Callers can errors.Is against it
// without parsing the accompanying detail.
var ErrLengthMismatch = errors.New("kernel: length mismatch")

var (
	dispatchMu    sync.Mutex
	dispatchCache = map[int]SingleFunc{}
)

func dispatch(tapLen int) (SingleFunc, error) {
	dispatchMu.Lock()
	defer dispatchMu.Unlock()

	if fn, ok := dispatchCache[tapLen]; ok {
		return fn, nil
	}

	entry := Global.Lookup(tapLen, cpu.DetectFeatures())
	if entry == nil {
		return nil, fmt.Errorf("kernel: no implementation registered for tap length %d", tapLen)
	}

	dispatchCache[tapLen] = entry.Single

	return entry.Single, nil
}

// realTaps extracts the real components of a RealOnly tap vector into dst,
// reusing the caller's scratch buffer to keep the hot path allocation-free.
func realTaps(dst []float32, taps []complex64) []float32 {
	out := dst[:len(taps)]
	for i, c := range taps {
		out[i] = real(c)
	}

	return out
}

// SingleConvolve computes one output sample as the dot product of a
// taps-length window of complex input against a real-valued, time-reversed
// tap vector. taps must be declared RealOnly.
func SingleConvolve(window []complex64, taps cxvec.Vector) (complex64, error) {
	if !taps.RealOnly() {
		return 0, fmt.Errorf("kernel: taps must be declared real-only")
	}

	tapData := taps.Data()
	if len(window) != len(tapData) {
		return 0, fmt.Errorf("%w: window length %d does not match tap length %d", ErrLengthMismatch, len(window), len(tapData))
	}

	fn, err := dispatch(len(tapData))
	if err != nil {
		return 0, err
	}

	var scratch [maxTapLen]float32

	taps32 := realTaps(scratch[:], tapData)
	if len(tapData) > maxTapLen {
		taps32 = realTaps(make([]float32, len(tapData)), tapData)
	}

	return fn(window, taps32), nil
}

// Convolve runs SingleConvolve across an entire output block. input must
// carry at least len(taps)-1 samples of headroom ahead of its logical data
// (the caller's saved history); output is fully written and input is never
// modified. Returns a negative count and an error if input.Len() <
// output.Len() or taps is not real-only.
func Convolve(input, output, taps cxvec.Vector) (int, error) {
	if !taps.RealOnly() {
		return -1, fmt.Errorf("kernel: taps must be declared real-only")
	}

	if input.Len() < output.Len() {
		return -1, fmt.Errorf("%w: input length %d shorter than output length %d", ErrLengthMismatch, input.Len(), output.Len())
	}

	tapData := taps.Data()
	tapLen := len(tapData)

	if input.Headroom() < tapLen-1 {
		return -1, fmt.Errorf("%w: input headroom %d insufficient for %d taps", ErrLengthMismatch, input.Headroom(), tapLen)
	}

	fn, err := dispatch(tapLen)
	if err != nil {
		return -1, err
	}

	var scratch [maxTapLen]float32

	taps32 := realTaps(scratch[:], tapData)
	if tapLen > maxTapLen {
		taps32 = realTaps(make([]float32, tapLen), tapData)
	}

	buf := input.Buf()
	headroom := input.Headroom()
	out := output.Data()

	for i := 0; i < output.Len(); i++ {
		start := headroom + i - (tapLen - 1)
		out[i] = fn(buf[start:start+tapLen], taps32)
	}

	return output.Len(), nil
}
