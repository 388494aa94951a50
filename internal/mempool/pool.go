package mempool

import (
	"sync"
)

// Sized pools for []float32 and []bool buffers used on the per-image hot
// paths (probability map data, binary masks) to reduce allocations.

var (
	float32Pools sync.Map // key: size class (int), value: *sync.Pool
	boolPools    sync.Map // key: size class (int), value: *sync.Pool
)

// sizeClass rounds n up to the next multiple of 1024 to reduce churn.
func sizeClass(n int) int {
	if n <= 1024 {
		return 1024
	}
	const step = 1024
	r := (n + step - 1) / step
	return r * step
}

// GetFloat32 retrieves a []float32 buffer of at least n elements from the
// pool. The returned slice has length n but may have larger capacity. The
// caller must return it via PutFloat32 when done.
func GetFloat32(n int) []float32 {
	cls := sizeClass(n)
	pAny, _ := float32Pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]float32, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return make([]float32, n)
	}
	buf, ok := p.Get().([]float32)
	if !ok || cap(buf) < cls {
		buf = make([]float32, cls)
	}
	return buf[:n]
}

// PutFloat32 returns a buffer to the pool. Safe to pass nil.
func PutFloat32(buf []float32) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	pAny, _ := float32Pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]float32, cls) }})
	if p, ok := pAny.(*sync.Pool); ok {
		p.Put(buf[:cap(buf)]) //nolint:staticcheck
	}
}

// GetBool retrieves a zeroed []bool buffer of at least n elements from the
// pool. The caller must return it via PutBool when done.
func GetBool(n int) []bool {
	cls := sizeClass(n)
	pAny, _ := boolPools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]bool, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return make([]bool, n)
	}
	buf, ok := p.Get().([]bool)
	if !ok || cap(buf) < cls {
		buf = make([]bool, cls)
	}
	buf = buf[:n]
	// Pools reuse buffers; masks need a clean state.
	for i := range buf {
		buf[i] = false
	}
	return buf
}

// PutBool returns a buffer to the pool. Safe to pass nil.
func PutBool(buf []bool) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	pAny, _ := boolPools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]bool, cls) }})
	if p, ok := pAny.(*sync.Pool); ok {
		p.Put(buf[:cap(buf)]) //nolint:staticcheck
	}
}
