// Package bloom provides exact content deduplication with a Bloom filter
// prefilter.
package bloom

import (
	"encoding/binary"

	"github.com/bits-and-blooms/bloom/v3"
)

// Filter remembers content hashes and the index of the first item seen with
// each. The exact index is authoritative and never reports a false
// duplicate; the Bloom filter is only a prefilter that lets lookups for new
// content skip the map. A Filter is not safe for concurrent use.
type Filter struct {
	f     *bloom.BloomFilter
	first map[uint64]int
}

// NewFilter creates a Filter sized for n expected items with the given
// false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f:     bloom.NewWithEstimates(max(n, 1), fpRate),
		first: make(map[uint64]int),
	}
}

// Add records hash as seen at index unless it was seen before, and reports
// the index of its first occurrence and whether it was a duplicate.
func (f *Filter) Add(hash uint64, index int) (int, bool) {
	key := keyOf(hash)
	if f.f.Test(key) {
		if prev, ok := f.first[hash]; ok {
			return prev, true
		}
	}
	f.f.Add(key)
	f.first[hash] = index
	return index, false
}

// Contains reports whether hash was added.
func (f *Filter) Contains(hash uint64) bool {
	if !f.f.Test(keyOf(hash)) {
		return false
	}
	_, ok := f.first[hash]
	return ok
}

// Len returns the number of distinct hashes added.
func (f *Filter) Len() int {
	return len(f.first)
}

// EstimatedCount returns the Bloom filter's estimate of distinct items.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}

func keyOf(hash uint64) []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, 8), hash)
}
