package kernel

import "github.com/davidste/openbts-multi-arfcn/internal/cpu"

func init() {
	Global.Register(OpEntry{
		Name:      "generic",
		SIMDLevel: cpu.SIMDNone,
		Priority:  0,
		TapLen:    TapLenAny,
		Single:    singleGeneric,
	})
}

func singleGeneric(window []complex64, taps []float32) complex64 {
	var accRe, accIm float32

	for k, t := range taps {
		w := window[k]
		accRe += real(w) * t
		accIm += imag(w) * t
	}

	return complex(accRe, accIm)
}
