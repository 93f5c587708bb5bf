package radio

import "context"

// FIFO is a bounded, thread-safe queue of sample blocks, the sole
// cross-goroutine contract the DSP core publishes: a radio-I/O goroutine
// drives Interface.Pull and pushes per-channel output here, and per-ARFCN
// goroutines consume it independently.
type FIFO struct {
	ch chan []complex64
}

// NewFIFO constructs a FIFO with room for capacity pending blocks.
func NewFIFO(capacity int) *FIFO {
	if capacity <= 0 {
		capacity = 1
	}

	return &FIFO{ch: make(chan []complex64, capacity)}
}

// Push enqueues block, blocking if the FIFO is full or ctx is canceled.
func (f *FIFO) Push(ctx context.Context, block []complex64) error {
	select {
	case f.ch <- block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pop dequeues the next block, blocking until one is available or ctx is
// canceled.
func (f *FIFO) Pop(ctx context.Context) ([]complex64, error) {
	select {
	case block := <-f.ch:
		return block, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of blocks currently queued.
func (f *FIFO) Len() int {
	return len(f.ch)
}
