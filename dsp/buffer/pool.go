package buffer

import (
	"sync"

	"github.com/davidste/openbts-multi-arfcn/dsp/cxvec"
)

// VectorPool provides sync.Pool-based cxvec.Vector reuse for a fixed
// (length, headroom) shape, to avoid a fresh heap allocation on every
// staging block in a Pull/Push-style hot loop. Vectors of differing shapes
// need separate pools; Get always returns a vector matching the shape the
// pool was constructed with.
type VectorPool struct {
	length   int
	headroom int
	pool     sync.Pool
}

// NewVectorPool returns a pool producing vectors of the given logical
// length and headroom.
func NewVectorPool(length, headroom int) *VectorPool {
	p := &VectorPool{length: length, headroom: headroom}

	p.pool.New = func() any {
		v, err := cxvec.New(length, cxvec.WithHeadroom(headroom))
		if err != nil {
			panic(err)
		}

		return &v
	}

	return p
}

// Get returns a vector of the pool's configured shape, its logical data
// zeroed. Headroom contents are left as-is: every caller in this codebase
// overwrites headroom from saved history before reading it.
func (p *VectorPool) Get() cxvec.Vector {
	v := p.pool.Get().(*cxvec.Vector)

	data := v.Data()
	for i := range data {
		data[i] = 0
	}

	return *v
}

// Put returns v to the pool for reuse. The caller must not retain v, or any
// slice derived from it, after calling Put.
func (p *VectorPool) Put(v cxvec.Vector) {
	p.pool.Put(&v)
}
