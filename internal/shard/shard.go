// Package shard provides stable hashing of routing keys onto a fixed
// number of shards. Shard assignment must be reproducible across process
// restarts, so only explicit hash functions are used (never Go's
// runtime map hashing).
package shard

import (
	"encoding/binary"
	"hash/fnv"

	"golang.org/x/crypto/blake2b"
)

type Func func(key string) int

// ForKey maps key onto [0, shardCount) using FNV-1a. The result is
// always non-negative.
func ForKey(key string, shardCount int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(shardCount))
}

// SeededForKey maps key onto [0, shardCount) using an 8-byte BLAKE2b
// digest personalized with seed. Use this when multiple pools must not
// collide on the same key space.
func SeededForKey(key string, shardCount int, seed string) int {
	h, _ := blake2b.New(8, nil)
	if seed != "" {
		h.Write([]byte(seed))
		h.Write([]byte{0})
	}
	h.Write([]byte(key))
	sum := h.Sum(nil)
	return int(binary.BigEndian.Uint64(sum) % uint64(shardCount))
}

type Sharder interface {
	GetShardForKey(key string) int
}

type fnSharder struct {
	fn Func
}

func NewSharder(fn Func) Sharder {
	return &fnSharder{fn: fn}
}

func (s *fnSharder) GetShardForKey(key string) int { return s.fn(key) }

// Distributed shards keys uniformly over count shards via FNV-1a.
func Distributed(count int) Sharder {
	return &fnSharder{
		fn: func(key string) int {
			return ForKey(key, count)
		},
	}
}

// Seeded shards keys over count shards via seeded BLAKE2b.
func Seeded(count int, seed string) Sharder {
	return &fnSharder{
		fn: func(key string) int {
			return SeededForKey(key, count, seed)
		},
	}
}

// Const routes every key to the same shard. Useful in tests to force
// strict global ordering.
func Const(shard int) Sharder {
	return &fnSharder{
		fn: func(key string) int {
			return shard
		},
	}
}
