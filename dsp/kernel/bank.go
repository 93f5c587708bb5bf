package kernel

import (
	"fmt"

	"github.com/davidste/openbts-multi-arfcn/dsp/cxvec"
)

// Bank is a fixed-size ordered collection of polyphase partition filters
// decomposed from a single prototype low-pass filter.
type Bank struct {
	partitions []cxvec.Vector
}

// NewBank decomposes prototype (length numPartitions*partitionLen) into
// numPartitions real-only, time-reversed partition filters: partition n
// receives prototype[k*numPartitions+n] for k in [0, partitionLen).
func NewBank(prototype []float32, numPartitions, partitionLen int) (Bank, error) {
	if numPartitions <= 0 || partitionLen <= 0 {
		return Bank{}, fmt.Errorf("kernel: numPartitions and partitionLen must be > 0: %d, %d", numPartitions, partitionLen)
	}

	if len(prototype) != numPartitions*partitionLen {
		return Bank{}, fmt.Errorf("kernel: prototype length %d, want %d", len(prototype), numPartitions*partitionLen)
	}

	partitions := make([]cxvec.Vector, numPartitions)

	for n := 0; n < numPartitions; n++ {
		v, err := cxvec.New(partitionLen, cxvec.WithRealOnly())
		if err != nil {
			return Bank{}, err
		}

		data := v.Data()
		for k := 0; k < partitionLen; k++ {
			data[k] = complex(prototype[k*numPartitions+n], 0)
		}

		cxvec.Reverse(v)

		partitions[n] = v
	}

	return Bank{partitions: partitions}, nil
}

// Len returns the number of partitions (the channel count M for a
// channelizer/synthesis bank, or the numerator P for a resampler bank).
func (b Bank) Len() int { return len(b.partitions) }

// PartitionLen returns the tap count per partition.
func (b Bank) PartitionLen() int {
	if len(b.partitions) == 0 {
		return 0
	}

	return b.partitions[0].Len()
}

// Partition returns the n-th partition filter, a real-only, time-reversed
// vector of PartitionLen() coefficients.
func (b Bank) Partition(n int) cxvec.Vector { return b.partitions[n] }

// Sum returns the coefficient-wise sum of all (time-reversed) partitions:
// element i is the sum of prototype[(partitionLen-1-i)*numPartitions+n]
// over every partition n. No scaling is applied.
func (b Bank) Sum() (cxvec.Vector, error) {
	if len(b.partitions) == 0 {
		return cxvec.Vector{}, fmt.Errorf("kernel: bank has no partitions")
	}

	l := b.PartitionLen()

	sum, err := cxvec.New(l, cxvec.WithRealOnly())
	if err != nil {
		return cxvec.Vector{}, err
	}

	dst := sum.Data()

	for _, p := range b.partitions {
		pd := p.Data()
		for i := 0; i < l; i++ {
			dst[i] += pd[i]
		}
	}

	return sum, nil
}
