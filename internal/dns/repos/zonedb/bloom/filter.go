// Package bloom is a concurrency-safe Bloom filter of zone apex keys, used to
// skip table reads for apexes the backing store has never held.
package bloom

import (
	"sync"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"
)

// Filter answers "definitely absent" or "maybe present" for apex keys.
// Keys can be added but never removed; a deleted apex stays a false positive
// until the filter is rebuilt.
type Filter struct {
	mu       sync.RWMutex
	bf       *bitsbloom.BloomFilter
	capacity uint64
	added    uint64
}

// New returns an empty filter sized for capacity keys at fpRate.
func New(capacity uint64, fpRate float64) *Filter {
	m, k := Size(capacity, fpRate)
	return &Filter{
		bf:       bitsbloom.New(uint(m), uint(k)),
		capacity: capacity,
	}
}

func (f *Filter) Add(key []byte) {
	f.mu.Lock()
	f.bf.Add(key)
	f.added++
	f.mu.Unlock()
}

func (f *Filter) MightContain(key []byte) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.Test(key)
}

// Saturated reports whether more keys were added than the filter was sized
// for, meaning its false-positive rate is above target.
func (f *Filter) Saturated() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.added > f.capacity
}

// Added returns the number of Add calls.
func (f *Filter) Added() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.added
}
