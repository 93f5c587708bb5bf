// Package resample provides rational P/Q sample-rate conversion over
// complex64 vectors using a polyphase FIR filter bank, grounded on the
// cxvec/kernel convolution primitives.
//
// Workflow:
//   - New(p, q, partitionLen, m, opts...) builds a resampler serving m
//     independent channel lanes
//   - Activate(n) / Deactivate(n) control which lanes Rotate will serve
//   - Rotate(n, input, output) resamples one block for channel n, carrying
//     convolution history across calls
package resample
