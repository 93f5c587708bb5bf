package kernel

import "github.com/davidste/openbts-multi-arfcn/internal/cpu"

// Specialized kernels for the tap counts the polyphase resampler and
// channelizer partitions actually use. These are portable (no assembly) but
// unrolled to amortize load overhead across a wide multiply-accumulate.
func init() {
	for _, entry := range []OpEntry{
		{Name: "generic-4", SIMDLevel: cpu.SIMDNone, Priority: 5, TapLen: 4, Single: single4},
		{Name: "generic-8", SIMDLevel: cpu.SIMDNone, Priority: 5, TapLen: 8, Single: single8},
		{Name: "generic-12", SIMDLevel: cpu.SIMDNone, Priority: 5, TapLen: 12, Single: single12},
		{Name: "generic-16", SIMDLevel: cpu.SIMDNone, Priority: 5, TapLen: 16, Single: single16},
		{Name: "generic-20", SIMDLevel: cpu.SIMDNone, Priority: 5, TapLen: 20, Single: single20},
	} {
		Global.Register(entry)
	}
}

func single4(window []complex64, taps []float32) complex64 {
	var accRe, accIm float32

	for k := 0; k < 4; k++ {
		w := window[k]
		t := taps[k]
		accRe += real(w) * t
		accIm += imag(w) * t
	}

	return complex(accRe, accIm)
}

func single8(window []complex64, taps []float32) complex64 {
	var accRe, accIm float32

	for k := 0; k < 8; k++ {
		w := window[k]
		t := taps[k]
		accRe += real(w) * t
		accIm += imag(w) * t
	}

	return complex(accRe, accIm)
}

func single12(window []complex64, taps []float32) complex64 {
	var accRe, accIm float32

	for k := 0; k < 12; k++ {
		w := window[k]
		t := taps[k]
		accRe += real(w) * t
		accIm += imag(w) * t
	}

	return complex(accRe, accIm)
}

func single16(window []complex64, taps []float32) complex64 {
	var accRe, accIm float32

	for k := 0; k < 16; k++ {
		w := window[k]
		t := taps[k]
		accRe += real(w) * t
		accIm += imag(w) * t
	}

	return complex(accRe, accIm)
}

// single20 is the unbalanced 12+8 variant called for out for the 10-tap
// polyphase partitions whose physical tap count doubles to 20 after
// real/imag interleaving.
func single20(window []complex64, taps []float32) complex64 {
	a := single12(window[:12], taps[:12])
	b := single8(window[12:20], taps[12:20])

	return a + b
}

func lookupTapFunc(tap int) SingleFunc {
	switch tap {
	case 4:
		return single4
	case 8:
		return single8
	case 12:
		return single12
	case 16:
		return single16
	case 20:
		return single20
	default:
		return singleGeneric
	}
}
