// Command chanprobe prints the resolved channelizer, resampler, and
// calibration configuration for a given channel count.
//
// Usage:
//
//	chanprobe [flags] [chanM ...]
//
// Without arguments it prints info for the known channel counts (1-8).
//
// Examples:
//
//	chanprobe 4
//	chanprobe -sps 1 4 8
//	chanprobe -all
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/davidste/openbts-multi-arfcn/calib"
	"github.com/davidste/openbts-multi-arfcn/dsp/channelizer"
	"github.com/davidste/openbts-multi-arfcn/dsp/core"
	"github.com/davidste/openbts-multi-arfcn/dsp/signal"
	"github.com/davidste/openbts-multi-arfcn/dsp/spectrum"
	"github.com/davidste/openbts-multi-arfcn/radio"
)

func main() {
	sps := flag.Int("sps", 1, "samples per symbol, for calibration table lookup")
	all := flag.Bool("all", false, "probe channel counts 1 through 8")
	toneHz := flag.Float64("tone", 0, "if nonzero, also report detected power of a test tone at this offset (Hz) from baseband, sampled at the channel rate")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: chanprobe [flags] [chanM ...]\n\n")
		fmt.Fprintf(os.Stderr, "Prints channelizer/resampler/calibration configuration for chanM channels.\n")
		fmt.Fprintf(os.Stderr, "Without arguments or with -all, probes channel counts 1 through 8.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	chanMs := parseChanMs(flag.Args(), *all)
	if len(chanMs) == 0 {
		fmt.Fprintf(os.Stderr, "error: no channel counts given\n")
		os.Exit(1)
	}

	printProbe(chanMs, *sps)

	if *toneHz != 0 {
		if err := printTonePower(*toneHz); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
}

// printTonePower generates a complex test tone at the channel rate and
// reports the power detected at toneHz, a quick sanity check that a signal
// injected at a known offset frequency is where a downstream Goertzel scan
// would expect to find it.
func printTonePower(toneHz float64) error {
	gen := signal.NewGenerator(core.WithSampleRate(calib.ChanRate))

	tone, err := gen.ComplexTone(toneHz, 1.0, 4096)
	if err != nil {
		return fmt.Errorf("generate test tone: %w", err)
	}

	power, err := spectrum.ComplexTonePower(tone, toneHz, calib.ChanRate)
	if err != nil {
		return fmt.Errorf("measure tone power: %w", err)
	}

	fmt.Printf("\ntone @ %.1f Hz (chan rate %.0f Hz): power=%.3f magnitude=%.3f\n",
		toneHz, calib.ChanRate, power, math.Sqrt(power))

	return nil
}

func parseChanMs(args []string, all bool) []int {
	if len(args) == 0 || all {
		return []int{1, 2, 3, 4, 5, 6, 7, 8}
	}

	var out []int

	for _, a := range args {
		var n int
		if _, err := fmt.Sscanf(a, "%d", &n); err != nil || n <= 0 {
			fmt.Fprintf(os.Stderr, "warning: skipping invalid channel count %q\n", a)
			continue
		}

		out = append(out, n)
	}

	return out
}

func printProbe(chanMs []int, sps int) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "ChanM\tPaths\tChanFiltLen\tChunkLen (rx)\tChunkLen (tx)\tCal Offset\n"); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}

	if _, err := fmt.Fprintf(tw, "-----\t-----\t-----------\t-------------\t-------------\t----------\n"); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}

	for _, m := range chanMs {
		cfg := radio.DefaultConfig(m)

		paths, err := calib.ChanPaths(m)
		if err != nil {
			fmt.Fprintf(tw, "%d\terror: %v\n", m, err)
			continue
		}

		analysis, err := channelizer.NewAnalysis(m, cfg.ChanFiltLen, radio.ChanResampP, radio.ChanResampQ, radio.ChanResampMul)
		if err != nil {
			fmt.Fprintf(tw, "%d\terror: %v\n", m, err)
			continue
		}

		synthesis, err := channelizer.NewSynthesis(m, cfg.ChanFiltLen, radio.ChanResampP, radio.ChanResampQ, radio.ChanResampMul)
		if err != nil {
			fmt.Fprintf(tw, "%d\terror: %v\n", m, err)
			continue
		}

		calCfg := calib.Config{
			NumChans:      m,
			ChanRate:      calib.ChanRate,
			Sps:           sps,
			ResampFiltLen: cfg.DevResampFiltLen,
			ChanFiltLen:   cfg.ChanFiltLen,
		}

		offset, ok := calib.Lookup(calCfg)

		offsetStr := "none"
		if ok {
			offsetStr = formatOffset(offset)
		}

		if _, err := fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%s\n",
			m, paths, cfg.ChanFiltLen, analysis.ChunkLen(), synthesis.ChunkLen(), offsetStr,
		); err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to write output row: %v\n", err)
			return
		}
	}

	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}

func formatOffset(d time.Duration) string {
	return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
}
