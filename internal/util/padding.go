package util

import (
	"sync/atomic"
	"unsafe"
)

// CacheLineSize is the assumed CPU cache line size.
const CacheLineSize = 64

// Counter is an atomic uint64 that occupies a whole cache line, so counters
// of neighbouring shards do not share one.
type Counter struct {
	atomic.Uint64
	_ [CacheLineSize - 8]byte
}

var _ [CacheLineSize - int(unsafe.Sizeof(Counter{}))]byte
