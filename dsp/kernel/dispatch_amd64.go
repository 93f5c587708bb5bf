//go:build amd64

package kernel

import "github.com/davidste/openbts-multi-arfcn/internal/cpu"

// amd64 registrations reuse the portable unrolled kernels under the AVX2 and
// SSE2 labels: a labeled entry backed by a plain Go implementation rather
// than hand-written assembly. No verified AVX2 kernel for complex64
// multiply-accumulate is available, so none is fabricated here; the label
// only affects dispatch priority on amd64 hosts.
func init() {
	for _, tap := range []int{4, 8, 12, 16, 20} {
		fn := lookupTapFunc(tap)

		Global.Register(OpEntry{Name: "avx2", SIMDLevel: cpu.SIMDAVX2, Priority: 20, TapLen: tap, Single: fn})
		Global.Register(OpEntry{Name: "sse2", SIMDLevel: cpu.SIMDSSE2, Priority: 10, TapLen: tap, Single: fn})
	}
}
