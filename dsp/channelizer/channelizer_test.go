package channelizer

import (
	"math"
	"testing"

	"github.com/davidste/openbts-multi-arfcn/dsp/core"
	"github.com/davidste/openbts-multi-arfcn/dsp/cxvec"
)

// gsmChanM, gsmFiltLen, gsmResampP/Q/Mul mirror the GSM channelizer
// parameters radio.ChanResampP/Q/Mul and GSM_CHAN_FILT_LEN are built from,
// reproduced locally since dsp/channelizer cannot import radio (radio
// imports this package).
const (
	gsmChanM     = 8
	gsmFiltLen   = 12
	gsmResampP   = 96
	gsmResampQ   = 65
	gsmResampMul = 8
)

func rmsOf(samples []complex64) float64 {
	var sum float64
	for _, v := range samples {
		sum += float64(real(v))*float64(real(v)) + float64(imag(v))*float64(imag(v))
	}

	return math.Sqrt(sum / float64(len(samples)))
}

func complexTone(n int, cyclesPerSample float64) []complex64 {
	return complexToneFrom(n, cyclesPerSample, 0)
}

func complexToneFrom(n int, cyclesPerSample float64, startIndex int) []complex64 {
	theta := 2 * math.Pi * cyclesPerSample

	out := make([]complex64, n)
	for i := range out {
		angle := theta * float64(i+startIndex)
		out[i] = complex(float32(math.Cos(angle)), float32(math.Sin(angle)))
	}

	return out
}

const (
	testChanM   = 4
	testFiltLen = 3
	testP       = 1
	testQ       = 1
	testMul     = 2
)

func TestNewAnalysisValidation(t *testing.T) {
	if _, err := NewAnalysis(0, testFiltLen, testP, testQ, testMul); err == nil {
		t.Fatal("expected error for chanM=0")
	}

	if _, err := NewAnalysis(testChanM, 0, testP, testQ, testMul); err == nil {
		t.Fatal("expected error for filtLen=0")
	}

	if _, err := NewAnalysis(testChanM, testFiltLen, 0, testQ, testMul); err == nil {
		t.Fatal("expected error for p=0")
	}
}

func TestAnalysisRejectsWrongInputLength(t *testing.T) {
	a, err := NewAnalysis(testChanM, testFiltLen, testP, testQ, testMul)
	if err != nil {
		t.Fatal(err)
	}

	input, _ := cxvec.New(3)
	outputs := make([]cxvec.Vector, testChanM)

	if _, err := a.Rotate(input, outputs); err == nil {
		t.Fatal("expected error for wrong input length")
	}
}

func TestAnalysisInactiveChannelLeftUntouched(t *testing.T) {
	a, err := NewAnalysis(testChanM, testFiltLen, testP, testQ, testMul)
	if err != nil {
		t.Fatal(err)
	}

	for ch := 0; ch < testChanM; ch++ {
		if ch == 1 {
			continue
		}

		if err := a.ActivateChannel(ch); err != nil {
			t.Fatal(err)
		}
	}

	input, _ := cxvec.New(a.ChunkLen() * a.ChanM())
	for i := range input.Data() {
		input.Data()[i] = complex(float32(i%3), 0)
	}

	outputs := make([]cxvec.Vector, testChanM)
	for ch := range outputs {
		outputs[ch], _ = cxvec.New(testMul * testP)
	}

	if _, err := a.Rotate(input, outputs); err != nil {
		t.Fatal(err)
	}

	for _, v := range outputs[1].Data() {
		if v != 0 {
			t.Fatalf("inactive channel 1 output should remain zero, got %v", v)
		}
	}
}

func TestAnalysisProducesFiniteOutput(t *testing.T) {
	a, err := NewAnalysis(testChanM, testFiltLen, testP, testQ, testMul)
	if err != nil {
		t.Fatal(err)
	}

	for ch := 0; ch < testChanM; ch++ {
		if err := a.ActivateChannel(ch); err != nil {
			t.Fatal(err)
		}
	}

	input, _ := cxvec.New(a.ChunkLen() * a.ChanM())
	for i := range input.Data() {
		input.Data()[i] = complex(float32(math.Sin(float64(i))), float32(math.Cos(float64(i))))
	}

	outputs := make([]cxvec.Vector, testChanM)
	for ch := range outputs {
		outputs[ch], _ = cxvec.New(testMul * testP)
	}

	if _, err := a.Rotate(input, outputs); err != nil {
		t.Fatal(err)
	}

	for ch, out := range outputs {
		for i, v := range out.Data() {
			if math.IsNaN(float64(real(v))) || math.IsInf(float64(real(v)), 0) {
				t.Fatalf("channel %d index %d: non-finite output %v", ch, i, v)
			}
		}
	}
}

func TestSynthesisRejectsWrongShapes(t *testing.T) {
	s, err := NewSynthesis(testChanM, testFiltLen, testP, testQ, testMul)
	if err != nil {
		t.Fatal(err)
	}

	output, _ := cxvec.New(s.ChunkLen() * s.ChanM())

	if _, err := s.Rotate(make([]cxvec.Vector, testChanM-1), output); err == nil {
		t.Fatal("expected error for wrong input count")
	}

	inputs := make([]cxvec.Vector, testChanM)
	for ch := range inputs {
		inputs[ch], _ = cxvec.New(testMul * testQ)
	}

	badOutput, _ := cxvec.New(3)
	if _, err := s.Rotate(inputs, badOutput); err == nil {
		t.Fatal("expected error for wrong output length")
	}
}

func TestSynthesisProducesFiniteOutput(t *testing.T) {
	s, err := NewSynthesis(testChanM, testFiltLen, testP, testQ, testMul)
	if err != nil {
		t.Fatal(err)
	}

	for ch := 0; ch < testChanM; ch++ {
		if err := s.ActivateChannel(ch); err != nil {
			t.Fatal(err)
		}
	}

	inputs := make([]cxvec.Vector, testChanM)
	for ch := range inputs {
		v, _ := cxvec.New(testMul*testQ, cxvec.WithHeadroom(testFiltLen))
		for i := range v.Data() {
			v.Data()[i] = complex(float32(ch+1), float32(-i))
		}

		inputs[ch] = v
	}

	output, _ := cxvec.New(s.ChunkLen() * s.ChanM())

	n, err := s.Rotate(inputs, output)
	if err != nil {
		t.Fatal(err)
	}

	if n != output.Len() {
		t.Fatalf("n=%d, want %d", n, output.Len())
	}

	for i, v := range output.Data() {
		if math.IsNaN(float64(real(v))) || math.IsInf(float64(real(v)), 0) {
			t.Fatalf("index %d: non-finite output %v", i, v)
		}
	}
}

func TestSynthesisInactiveChannelResampScratchStaysZero(t *testing.T) {
	s, err := NewSynthesis(testChanM, testFiltLen, testP, testQ, testMul)
	if err != nil {
		t.Fatal(err)
	}

	for ch := 0; ch < testChanM; ch++ {
		if ch == 2 {
			continue
		}

		if err := s.ActivateChannel(ch); err != nil {
			t.Fatal(err)
		}
	}

	inputs := make([]cxvec.Vector, testChanM)
	for ch := range inputs {
		v, _ := cxvec.New(testMul*testQ, cxvec.WithHeadroom(testFiltLen))
		for i := range v.Data() {
			v.Data()[i] = complex(float32(ch+1), 0)
		}

		inputs[ch] = v
	}

	output, _ := cxvec.New(s.ChunkLen() * s.ChanM())

	if _, err := s.Rotate(inputs, output); err != nil {
		t.Fatal(err)
	}

	for i, v := range s.resamp[2].Data() {
		if v != 0 {
			t.Fatalf("inactive channel 2 resample scratch index %d should be zero, got %v", i, v)
		}
	}
}

func TestAnalysisEnergyPartition(t *testing.T) {
	a, err := NewAnalysis(gsmChanM, gsmFiltLen, gsmResampP, gsmResampQ, gsmResampMul)
	if err != nil {
		t.Fatal(err)
	}

	for ch := 0; ch < gsmChanM; ch++ {
		if err := a.ActivateChannel(ch); err != nil {
			t.Fatal(err)
		}
	}

	const targetCh = 3

	inLen := a.ChunkLen() * a.ChanM()

	outputs := make([]cxvec.Vector, gsmChanM)
	for ch := range outputs {
		outputs[ch], _ = cxvec.New(gsmResampMul * gsmResampP)
	}

	input, _ := cxvec.New(inLen)

	// First pass flushes the filterbank's startup transient; the second is
	// measured in steady state.
	copy(input.Data(), complexTone(inLen, float64(targetCh)/float64(gsmChanM)))
	if _, err := a.Rotate(input, outputs); err != nil {
		t.Fatal(err)
	}

	copy(input.Data(), complexToneFrom(inLen, float64(targetCh)/float64(gsmChanM), inLen))
	if _, err := a.Rotate(input, outputs); err != nil {
		t.Fatal(err)
	}

	targetDB := core.LinearToDB(rmsOf(outputs[targetCh].Data()))
	if math.Abs(targetDB) > 1 {
		t.Fatalf("channel %d RMS %.3f dB, want within 1 dB of unity", targetCh, targetDB)
	}

	for ch := 0; ch < gsmChanM; ch++ {
		if ch == targetCh {
			continue
		}

		otherDB := core.LinearToDB(rmsOf(outputs[ch].Data()))
		if otherDB > targetDB-30 {
			t.Fatalf("channel %d RMS %.3f dB, want at least 30 dB below channel %d (%.3f dB)", ch, otherDB, targetCh, targetDB)
		}
	}
}

func TestAnalysisActivationIsolation(t *testing.T) {
	a, err := NewAnalysis(gsmChanM, gsmFiltLen, gsmResampP, gsmResampQ, gsmResampMul)
	if err != nil {
		t.Fatal(err)
	}

	for _, ch := range []int{0, 4} {
		if err := a.ActivateChannel(ch); err != nil {
			t.Fatal(err)
		}
	}

	const injectCh = 2

	inLen := a.ChunkLen() * a.ChanM()

	outputs := make([]cxvec.Vector, gsmChanM)
	for ch := range outputs {
		outputs[ch], _ = cxvec.New(gsmResampMul * gsmResampP)
	}

	input, _ := cxvec.New(inLen)

	copy(input.Data(), complexTone(inLen, float64(injectCh)/float64(gsmChanM)))
	if _, err := a.Rotate(input, outputs); err != nil {
		t.Fatal(err)
	}

	copy(input.Data(), complexToneFrom(inLen, float64(injectCh)/float64(gsmChanM), inLen))
	if _, err := a.Rotate(input, outputs); err != nil {
		t.Fatal(err)
	}

	for _, ch := range []int{0, 4} {
		db := core.LinearToDB(rmsOf(outputs[ch].Data()))
		if db > -40 {
			t.Fatalf("active channel %d RMS %.3f dBFS, want <= -40 dBFS with energy injected only at channel %d", ch, db, injectCh)
		}
	}
}

func TestSynthesisAnalysisReciprocityWithinMinus30dB(t *testing.T) {
	a, err := NewAnalysis(gsmChanM, gsmFiltLen, gsmResampP, gsmResampQ, gsmResampMul)
	if err != nil {
		t.Fatal(err)
	}

	// Swapping p/q reconstructs the wideband stream from the analysis
	// channelizer's per-channel baseband output: its length (mul*p) matches
	// what a synthesis combiner built with q'=p expects as input.
	s, err := NewSynthesis(gsmChanM, gsmFiltLen, gsmResampQ, gsmResampP, gsmResampMul)
	if err != nil {
		t.Fatal(err)
	}

	for ch := 0; ch < gsmChanM; ch++ {
		if err := a.ActivateChannel(ch); err != nil {
			t.Fatal(err)
		}

		if err := s.ActivateChannel(ch); err != nil {
			t.Fatal(err)
		}
	}

	wideLen := a.ChunkLen() * a.ChanM()
	if wideLen != s.ChunkLen()*s.ChanM() {
		t.Fatalf("analysis/synthesis wideband chunk length mismatch: %d vs %d", wideLen, s.ChunkLen()*s.ChanM())
	}

	const cyclesPerSample = 0.15 // an arbitrary wideband frequency within the covered band

	input, _ := cxvec.New(wideLen)

	// The analysis outputs are fed straight into synthesis, whose resampler
	// needs gsmFiltLen samples of headroom on each input.
	chanOutputs := make([]cxvec.Vector, gsmChanM)
	for ch := range chanOutputs {
		chanOutputs[ch], _ = cxvec.New(gsmResampMul*gsmResampP, cxvec.WithHeadroom(gsmFiltLen))
	}

	recon, _ := cxvec.New(wideLen)

	// First pass flushes both filterbanks' startup transients.
	copy(input.Data(), complexTone(wideLen, cyclesPerSample))
	if _, err := a.Rotate(input, chanOutputs); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Rotate(chanOutputs, recon); err != nil {
		t.Fatal(err)
	}

	wide := complexToneFrom(wideLen, cyclesPerSample, wideLen)
	copy(input.Data(), wide)

	if _, err := a.Rotate(input, chanOutputs); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Rotate(chanOutputs, recon); err != nil {
		t.Fatal(err)
	}

	errDB := bestAlignmentErrorDB(wide, recon.Data(), 8*gsmFiltLen)
	if errDB > -30 {
		t.Fatalf("reciprocity RMS error %.2f dB, want <= -30 dB", errDB)
	}
}

// rmsErrorDB returns 10*log10(power(a-b)/power(a)), equal to the RMS
// reconstruction error in dB. a and b must be the same length.
func rmsErrorDB(a, b []complex64) float64 {
	var errSum, refSum float64

	for i := range a {
		dr := float64(real(a[i])) - float64(real(b[i]))
		di := float64(imag(a[i])) - float64(imag(b[i]))
		errSum += dr*dr + di*di
		refSum += float64(real(a[i]))*float64(real(a[i])) + float64(imag(a[i]))*float64(imag(a[i]))
	}

	if refSum == 0 {
		return math.Inf(-1)
	}

	return 10 * math.Log10(errSum/refSum)
}

// bestAlignmentErrorDB finds the integer sample shift of recon relative to
// original, within [0, maxShift], that minimizes the RMS reconstruction
// error, and returns that minimal error in dB. The analysis/synthesis
// chain's exact group delay isn't asserted directly; searching a bounded
// window around the expected delay avoids pinning the test to that figure.
func bestAlignmentErrorDB(original, recon []complex64, maxShift int) float64 {
	best := math.Inf(1)

	for shift := 0; shift <= maxShift && shift < len(recon); shift++ {
		n := len(original) - shift
		if n > len(recon)-shift {
			n = len(recon) - shift
		}
		if n <= 0 {
			continue
		}

		if e := rmsErrorDB(original[:n], recon[shift:shift+n]); e < best {
			best = e
		}
	}

	return best
}
