// Package util contains internal helpers (hashing, sharding, padding).
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

import (
	"encoding/binary"
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
)

// seed is fixed per process; only used for key types xxhash has no fast
// path for.
var seed = maphash.MakeSeed()

// Hash returns a 64-bit hash of k for shard selection.
// Strings, byte slices and byte arrays go through xxhash, integer keys are
// hashed from their 8 little-endian bytes. Any other comparable type falls
// back to maphash.Comparable.
func Hash[K comparable](k K) uint64 {
	switch v := any(k).(type) {
	case string:
		return xxhash.Sum64String(v)
	case []byte:
		return xxhash.Sum64(v)
	case [16]byte:
		return xxhash.Sum64(v[:])
	case [32]byte:
		return xxhash.Sum64(v[:])

	case int:
		return hashUint64(uint64(v))
	case int64:
		return hashUint64(uint64(v))
	case int32:
		return hashUint64(uint64(uint32(v)))
	case int16:
		return hashUint64(uint64(uint16(v)))
	case int8:
		return hashUint64(uint64(uint8(v)))
	case uint:
		return hashUint64(uint64(v))
	case uint64:
		return hashUint64(v)
	case uint32:
		return hashUint64(uint64(v))
	case uint16:
		return hashUint64(uint64(v))
	case uint8:
		return hashUint64(uint64(v))
	case uintptr:
		return hashUint64(uint64(v))
	default:
		return maphash.Comparable(seed, k)
	}
}

func hashUint64(u uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], u)
	return xxhash.Sum64(b[:])
}
