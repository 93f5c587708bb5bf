//go:build arm64

package kernel

import "github.com/davidste/openbts-multi-arfcn/internal/cpu"

// arm64 registrations reuse the portable unrolled kernels under the NEON
// label: a labeled entry backed by the generic Go implementation, not
// hand-written NEON assembly.
func init() {
	for _, tap := range []int{4, 8, 12, 16, 20} {
		Global.Register(OpEntry{Name: "neon", SIMDLevel: cpu.SIMDNEON, Priority: 15, TapLen: tap, Single: lookupTapFunc(tap)})
	}
}
