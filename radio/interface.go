// Package radio stages sample blocks between a radio device and the
// channelizer, converting device rate to channel rate (and back) through an
// internal outer resampler, and fanning the channelizer's per-channel
// baseband streams out to (and in from) per-ARFCN consumers.
package radio

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/davidste/openbts-multi-arfcn/calib"
	"github.com/davidste/openbts-multi-arfcn/dsp/buffer"
	"github.com/davidste/openbts-multi-arfcn/dsp/channelizer"
	"github.com/davidste/openbts-multi-arfcn/dsp/cxvec"
	"github.com/davidste/openbts-multi-arfcn/dsp/resample"
)

// Outer (device-rate) and channelizer-branch resampler ratios, shared by
// every Interface. The receive direction upsamples device rate by
// DevResampP/DevResampQ; transmit applies the inverse ratio. Block sizes
// are fixed, independent of channel count.
const (
	DevResampP   = 65
	DevResampQ   = 64
	DevResampMul = 3 * 4

	ChanResampP   = 96
	ChanResampQ   = 65
	ChanResampMul = 2 * 4
)

// Config parameterizes one Interface: channel count and the filterbank/
// resample ratios of both rate-conversion stages.
type Config struct {
	ChanM            int
	ChanFiltLen      int
	DevResampFiltLen int
	SampsPerSymbol   int
	FIFOCapacity     int
}

// DefaultConfig returns the GSM base-station configuration for chanM
// channels: channelizer filter length and device resampler filter length
// from calib, the resample ratios above, samples-per-symbol of 1.
func DefaultConfig(chanM int) Config {
	return Config{
		ChanM:            chanM,
		ChanFiltLen:      calib.ChanFiltLen,
		DevResampFiltLen: calib.DevResampFiltLen,
		SampsPerSymbol:   1,
		FIFOCapacity:     8,
	}
}

// Option configures Interface construction.
type Option func(*ifaceConfig)

type ifaceConfig struct {
	logger *slog.Logger
}

// WithLogger overrides the default logger (slog.Default()) used to report
// calibration misses and device overrun/underrun.
func WithLogger(l *slog.Logger) Option {
	return func(c *ifaceConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Interface couples a Device to a channelizer, staging samples through an
// outer resampler and accumulator buffers at each rate boundary. It is not
// safe for concurrent use: one goroutine drives Pull and Push.
type Interface struct {
	cfg    Config
	dev    Device
	logger *slog.Logger

	analysis  *channelizer.Analysis
	synthesis *channelizer.Synthesis

	outerRx *resample.Resampler
	outerTx *resample.Resampler

	rxCal *calOffset

	rxMiddle *buffer.Buffer
	txMiddle *buffer.Buffer
	txDev    *buffer.Buffer

	rxInPool       *buffer.VectorPool
	rxOuterOutPool *buffer.VectorPool
	rxMidPool      *buffer.VectorPool
	txInputPool    *buffer.VectorPool
	txMidPool      *buffer.VectorPool
	txOuterInPool  *buffer.VectorPool
	txOuterOutPool *buffer.VectorPool

	txRing  [][]complex64
	rxFIFOs []*FIFO

	writeTimestamp int64
	readTimestamp  int64

	overrun  bool
	underrun bool

	closed atomic.Bool
}

// NewInterface constructs an Interface bound to dev for its lifetime.
func NewInterface(cfg Config, dev Device, opts ...Option) (*Interface, error) {
	if cfg.ChanM <= 0 {
		return nil, fmt.Errorf("radio: ChanM must be > 0: %d", cfg.ChanM)
	}

	if dev == nil {
		return nil, fmt.Errorf("radio: device must not be nil")
	}

	ic := ifaceConfig{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&ic)
		}
	}

	analysis, err := channelizer.NewAnalysis(cfg.ChanM, cfg.ChanFiltLen, ChanResampP, ChanResampQ, ChanResampMul)
	if err != nil {
		return nil, fmt.Errorf("radio: analysis channelizer: %w", err)
	}

	synthesis, err := channelizer.NewSynthesis(cfg.ChanM, cfg.ChanFiltLen, ChanResampP, ChanResampQ, ChanResampMul)
	if err != nil {
		return nil, fmt.Errorf("radio: synthesis channelizer: %w", err)
	}

	outerRx, err := resample.New(DevResampP, DevResampQ, cfg.DevResampFiltLen, 1, resample.WithPolicy(resample.PolicyWindowed))
	if err != nil {
		return nil, fmt.Errorf("radio: outer rx resampler: %w", err)
	}

	outerTx, err := resample.New(DevResampQ, DevResampP, cfg.DevResampFiltLen, 1, resample.WithPolicy(resample.PolicyWindowed))
	if err != nil {
		return nil, fmt.Errorf("radio: outer tx resampler: %w", err)
	}

	if err := outerRx.Activate(0); err != nil {
		return nil, err
	}

	if err := outerTx.Activate(0); err != nil {
		return nil, err
	}

	calCfg := calib.Config{
		NumChans:      cfg.ChanM,
		ChanRate:      calib.ChanRate,
		Sps:           cfg.SampsPerSymbol,
		ResampFiltLen: cfg.DevResampFiltLen,
		ChanFiltLen:   cfg.ChanFiltLen,
	}

	offset, ok := calib.Lookup(calCfg)
	if !ok {
		ic.logger.Warn("radio: no calibration offset for configuration", "config", calCfg)
	}

	rxCal, err := newCalOffset(offset.Seconds() * devSampleRate(cfg))
	if err != nil {
		return nil, fmt.Errorf("radio: calibration delay: %w", err)
	}

	fifoCap := cfg.FIFOCapacity
	if fifoCap <= 0 {
		fifoCap = 8
	}

	rxFIFOs := make([]*FIFO, cfg.ChanM)
	txRing := make([][]complex64, cfg.ChanM)

	for ch := range rxFIFOs {
		rxFIFOs[ch] = NewFIFO(fifoCap)
	}

	rxChunkLen := analysis.ChunkLen() * analysis.ChanM()
	txChunkLen := synthesis.ChunkLen() * synthesis.ChanM()

	return &Interface{
		cfg:       cfg,
		dev:       dev,
		logger:    ic.logger,
		analysis:  analysis,
		synthesis: synthesis,
		outerRx:   outerRx,
		outerTx:   outerTx,
		rxCal:     rxCal,
		rxMiddle:  buffer.New(0),
		txMiddle:  buffer.New(0),
		txDev:     buffer.New(0),

		// Every staging vector below is scratch with a Pull/Push-local
		// lifetime: its data is consumed by a Rotate call or copied into an
		// accumulator buffer before the call returns, so the backing array
		// is safe to recycle. The one exception is the per-channel receive
		// output in Pull, which is handed to a FIFO and read by a separate
		// goroutine, so it is never pooled.
		rxInPool:       buffer.NewVectorPool(DevResampQ*DevResampMul, cfg.DevResampFiltLen),
		rxOuterOutPool: buffer.NewVectorPool(DevResampP*DevResampMul, 0),
		rxMidPool:      buffer.NewVectorPool(rxChunkLen, 0),
		txInputPool:    buffer.NewVectorPool(ChanResampMul*ChanResampQ, cfg.ChanFiltLen),
		txMidPool:      buffer.NewVectorPool(txChunkLen, 0),
		txOuterInPool:  buffer.NewVectorPool(DevResampP*DevResampMul, cfg.DevResampFiltLen),
		txOuterOutPool: buffer.NewVectorPool(DevResampQ*DevResampMul, 0),

		rxFIFOs: rxFIFOs,
		txRing:  txRing,
	}, nil
}

// devSampleRate returns the nominal device-rate sample rate used to convert
// the calibration offset from seconds into a fractional-sample delay.
func devSampleRate(cfg Config) float64 {
	return calib.ChanRate * float64(cfg.ChanM) * DevResampQ / DevResampP
}

// ActivateChannel activates channel n on both the receive and transmit
// channelizers.
func (ifc *Interface) ActivateChannel(n int) error {
	if err := ifc.analysis.ActivateChannel(n); err != nil {
		return err
	}

	return ifc.synthesis.ActivateChannel(n)
}

// DeactivateChannel deactivates channel n on both channelizers.
func (ifc *Interface) DeactivateChannel(n int) error {
	if err := ifc.analysis.DeactivateChannel(n); err != nil {
		return err
	}

	return ifc.synthesis.DeactivateChannel(n)
}

// ReceiveFIFO returns the queue that Pull populates with channel n's
// decoded baseband blocks.
func (ifc *Interface) ReceiveFIFO(n int) (*FIFO, error) {
	if n < 0 || n >= len(ifc.rxFIFOs) {
		return nil, fmt.Errorf("radio: channel index out of range: %d", n)
	}

	return ifc.rxFIFOs[n], nil
}

// QueueTransmit appends samples to channel n's outbound ring, consumed by
// subsequent Push calls.
func (ifc *Interface) QueueTransmit(n int, samples []complex64) error {
	if n < 0 || n >= len(ifc.txRing) {
		return fmt.Errorf("radio: channel index out of range: %d", n)
	}

	ifc.txRing[n] = append(ifc.txRing[n], samples...)

	return nil
}

// ReadTimestamp returns the device-rate tick count of samples read so far.
func (ifc *Interface) ReadTimestamp() int64 { return ifc.readTimestamp }

// WriteTimestamp returns the device-rate tick count of samples written so far.
func (ifc *Interface) WriteTimestamp() int64 { return ifc.writeTimestamp }

// Overrun reports and clears the accumulated receive overrun latch.
func (ifc *Interface) Overrun() bool {
	v := ifc.overrun
	ifc.overrun = false

	return v
}

// Underrun reports and clears the accumulated transmit underrun latch.
func (ifc *Interface) Underrun() bool {
	v := ifc.underrun
	ifc.underrun = false

	return v
}

// Close signals cooperative shutdown and releases the device handle once
// any in-flight Pull/Push call returns.
func (ifc *Interface) Close() error {
	ifc.closed.Store(true)

	return ifc.dev.Close()
}

// closing reports whether Close has been called.
func (ifc *Interface) closing() bool { return ifc.closed.Load() }

// Pull reads one fixed-size block at device rate, converts it through the
// outer resampler, and channelizes every complete middle-rate chunk that
// accumulates, pushing each active channel's decoded block onto its
// ReceiveFIFO. It returns the number of device-rate samples read.
func (ifc *Interface) Pull(ctx context.Context) (int, error) {
	if ifc.closing() {
		return 0, fmt.Errorf("radio: interface closed")
	}

	in := ifc.rxInPool.Get()
	defer ifc.rxInPool.Put(in)

	n, overrun, err := ifc.dev.Read(ctx, in.Data())
	if err != nil {
		return 0, fmt.Errorf("radio: device read: %w", err)
	}

	if overrun {
		ifc.overrun = true
		ifc.logger.Warn("radio: device overrun")
	}

	ifc.rxCal.Apply(in.Data())

	out := ifc.rxOuterOutPool.Get()
	defer ifc.rxOuterOutPool.Put(out)

	if _, err := ifc.outerRx.Rotate(0, in, out); err != nil {
		return 0, fmt.Errorf("radio: outer rx resample: %w", err)
	}

	ifc.rxMiddle.Append(out.Data()...)

	chunkLen := ifc.analysis.ChunkLen() * ifc.analysis.ChanM()

	for ifc.rxMiddle.Len() >= chunkLen {
		mid := ifc.rxMidPool.Get()

		copy(mid.Data(), ifc.rxMiddle.Drain(chunkLen))

		perChanLen := ChanResampMul * ChanResampP

		// Unlike the pooled scratch above, these per-channel outputs are
		// handed to ReceiveFIFO and read by a different goroutine, so a
		// fresh allocation per chunk is required here.
		outputs := make([]cxvec.Vector, ifc.cfg.ChanM)
		for ch := range outputs {
			outputs[ch], err = cxvec.New(perChanLen)
			if err != nil {
				ifc.rxMidPool.Put(mid)
				return 0, err
			}
		}

		if _, err := ifc.analysis.Rotate(mid, outputs); err != nil {
			ifc.rxMidPool.Put(mid)
			return 0, fmt.Errorf("radio: analysis: %w", err)
		}

		ifc.rxMidPool.Put(mid)

		for ch, v := range outputs {
			if !ifc.analysis.IsActiveChannel(ch) {
				continue
			}

			if err := ifc.rxFIFOs[ch].Push(ctx, v.Data()); err != nil {
				return 0, err
			}
		}
	}

	ifc.readTimestamp += int64(n)

	return n, nil
}

// Push drains every channel's transmit ring by one synthesis chunk once
// all active channels have enough buffered, synthesizes, converts through
// the outer resampler, and writes complete device-rate blocks. It returns
// the number of device-rate samples written.
func (ifc *Interface) Push(ctx context.Context) (int, error) {
	if ifc.closing() {
		return 0, fmt.Errorf("radio: interface closed")
	}

	synChunk := ChanResampMul * ChanResampQ

	ready := true

	for ch := 0; ch < ifc.cfg.ChanM; ch++ {
		if !ifc.synthesis.IsActiveChannel(ch) {
			continue
		}

		if len(ifc.txRing[ch]) < synChunk {
			ready = false
			break
		}
	}

	if ready {
		inputs := make([]cxvec.Vector, ifc.cfg.ChanM)

		for ch := 0; ch < ifc.cfg.ChanM; ch++ {
			v := ifc.txInputPool.Get()

			if ifc.synthesis.IsActiveChannel(ch) {
				copy(v.Data(), ifc.txRing[ch][:synChunk])
			}

			inputs[ch] = v
		}

		mid := ifc.txMidPool.Get()

		if _, err := ifc.synthesis.Rotate(inputs, mid); err != nil {
			for _, v := range inputs {
				ifc.txInputPool.Put(v)
			}
			ifc.txMidPool.Put(mid)
			return 0, fmt.Errorf("radio: synthesis: %w", err)
		}

		ifc.txMiddle.Append(mid.Data()...)

		for _, v := range inputs {
			ifc.txInputPool.Put(v)
		}
		ifc.txMidPool.Put(mid)

		for ch := 0; ch < ifc.cfg.ChanM; ch++ {
			if !ifc.synthesis.IsActiveChannel(ch) {
				continue
			}

			copy(ifc.txRing[ch], ifc.txRing[ch][synChunk:])
			ifc.txRing[ch] = ifc.txRing[ch][:len(ifc.txRing[ch])-synChunk]
		}
	}

	outerInChunk := DevResampP * DevResampMul
	outerOutChunk := DevResampQ * DevResampMul

	for ifc.txMiddle.Len() >= outerInChunk {
		in := ifc.txOuterInPool.Get()

		copy(in.Data(), ifc.txMiddle.Drain(outerInChunk))

		out := ifc.txOuterOutPool.Get()

		if _, err := ifc.outerTx.Rotate(0, in, out); err != nil {
			ifc.txOuterInPool.Put(in)
			ifc.txOuterOutPool.Put(out)
			return 0, fmt.Errorf("radio: outer tx resample: %w", err)
		}

		ifc.txDev.Append(out.Data()...)

		ifc.txOuterInPool.Put(in)
		ifc.txOuterOutPool.Put(out)
	}

	written := 0

	for ifc.txDev.Len() >= outerOutChunk {
		block := ifc.txDev.Drain(outerOutChunk)

		n, underrun, err := ifc.dev.Write(ctx, block)
		if err != nil {
			return written, fmt.Errorf("radio: device write: %w", err)
		}

		if underrun {
			ifc.underrun = true
			ifc.logger.Warn("radio: device underrun")
		}

		written += n
		ifc.writeTimestamp += int64(n)
	}

	return written, nil
}
