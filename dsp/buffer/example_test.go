package buffer_test

import (
	"fmt"

	"github.com/davidste/openbts-multi-arfcn/dsp/buffer"
)

func ExampleBuffer_drain() {
	b := buffer.New(0)
	b.Append(1, 2, 3, 4, 5)

	chunk := b.Drain(3)

	fmt.Println(chunk)
	fmt.Println(b.Samples())

	// Output:
	// [(1+0i) (2+0i) (3+0i)]
	// [(4+0i) (5+0i)]
}
