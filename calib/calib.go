// Package calib maps a radio channelizer configuration to a known receive
// timing offset and to the device's allotted channel-path count, looked up
// from a small table of measured calibration points.
package calib

import (
	"fmt"
	"log/slog"
	"time"
)

// GSM base-station rate constants, shared with the channelizer and resampler
// packages.
const (
	GSMRate          = 1_625_000.0 / 6
	ChanRate         = 400_000.0
	ChanFiltLen      = 12
	DevResampFiltLen = 12
)

// Config identifies one radio configuration point: channel count, channel
// rate, samples per symbol, and the filter lengths of the two resampling
// stages that contribute timing skew.
type Config struct {
	NumChans      int
	ChanRate      float64
	Sps           int
	ResampFiltLen int
	ChanFiltLen   int
}

// normalize applies the source's zeroing rules: a single-channel
// configuration never passes through the channelizer filter, and a
// configuration running at the native GSM rate never passes through the
// device resampler, so those filter lengths don't participate in matching.
func (c Config) normalize() Config {
	if c.NumChans == 1 {
		c.ChanFiltLen = 0
	}

	if c.ChanRate == GSMRate {
		c.ResampFiltLen = 0
	}

	return c
}

func (a Config) matches(b Config) bool {
	a = a.normalize()

	return a.NumChans == b.NumChans &&
		a.Sps == b.Sps &&
		a.ChanFiltLen == b.ChanFiltLen &&
		a.ResampFiltLen == b.ResampFiltLen
}

type offsetEntry struct {
	param  Config
	offset time.Duration
}

// offsetTable holds the measured receive timing offsets for each known
// radio configuration. Entries are seconds converted to time.Duration.
var offsetTable = []offsetEntry{
	// 4 channels at 400 kHz spacing
	{Config{4, 400e3, 1, 12, 12}, durationFromSeconds(5.7373e-5)},
	{Config{4, 400e3, 1, 16, 16}, durationFromSeconds(6.7214e-5)},

	// 8 channels at 400 kHz spacing
	{Config{8, 400e3, 1, 12, 12}, durationFromSeconds(4.4136e-5)},
	{Config{8, 400e3, 1, 16, 16}, durationFromSeconds(5.4869e-5)},
}

func durationFromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Lookup returns the known receive timing offset for cfg, matching against
// the offset table after applying the zeroing rules. A miss returns 0 and
// ok == false; it logs at debug level so an unrecognized configuration is
// visible without treating it as an error.
func Lookup(cfg Config) (offset time.Duration, ok bool) {
	norm := cfg.normalize()

	for _, e := range offsetTable {
		if norm.matches(e.param) {
			return e.offset, true
		}
	}

	slog.Debug("calib: no matching offset table entry", "config", norm)

	return 0, false
}

// ChanPaths returns the number of RF paths a device must expose to support
// num channelizer lanes. It returns an error for channel counts with no
// known path mapping.
func ChanPaths(num int) (int, error) {
	switch {
	case num >= 1 && num <= 3:
		return 4, nil
	case num >= 4 && num <= 7:
		return 8, nil
	default:
		return 0, fmt.Errorf("calib: no known path count for %d channels", num)
	}
}
