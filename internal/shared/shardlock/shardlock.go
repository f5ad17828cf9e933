// Package shardlock provides a fixed set of mutexes selected by key hash.
// Callers that guard per-key state with it get independent progress for
// unrelated keys without allocating a lock per key.
package shardlock

import (
	"hash/fnv"
	"sync"
)

const DefaultShards = 32

// Set is a fixed-size array of mutexes.
type Set struct {
	shards []sync.Mutex
}

// New creates a Set with n shards; n <= 0 uses DefaultShards.
func New(n int) *Set {
	if n <= 0 {
		n = DefaultShards
	}
	return &Set{shards: make([]sync.Mutex, n)}
}

// Len returns the number of shards.
func (s *Set) Len() int {
	return len(s.shards)
}

// Index returns the shard index for key.
func (s *Set) Index(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(s.shards)))
}

// Lock locks the shard owning key and returns its unlock func.
func (s *Set) Lock(key string) func() {
	m := &s.shards[s.Index(key)]
	m.Lock()
	return m.Unlock
}

// LockIndex locks shard i directly. Used by sweeps that walk every shard.
func (s *Set) LockIndex(i int) func() {
	m := &s.shards[i]
	m.Lock()
	return m.Unlock
}
