package frontier

import (
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Dedup strategies accepted by NewVisitedSet.
const (
	DedupExact = "exact"
	DedupBloom = "bloom"
)

const defaultBloomFalsePositive = 0.001

// VisitedSet records URL keys that have been claimed by the crawl.
type VisitedSet interface {
	// TestAndAdd adds key and reports whether it was already present.
	TestAndAdd(key string) bool
	Contains(key string) bool
	Len() int
}

// NewVisitedSet builds the strategy named by dedup. capacity sizes the
// bloom filter; it is ignored by the exact set.
func NewVisitedSet(dedup string, capacity int) (VisitedSet, error) {
	switch dedup {
	case "", DedupExact:
		return NewExactSet(), nil
	case DedupBloom:
		return NewBloomSet(capacity, defaultBloomFalsePositive), nil
	default:
		return nil, fmt.Errorf("unknown dedup strategy %q", dedup)
	}
}

// ExactSet is a mutex-guarded map.
type ExactSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewExactSet creates an empty ExactSet.
func NewExactSet() *ExactSet {
	return &ExactSet{seen: make(map[string]struct{})}
}

func (s *ExactSet) TestAndAdd(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[key]; ok {
		return true
	}
	s.seen[key] = struct{}{}
	return false
}

func (s *ExactSet) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[key]
	return ok
}

func (s *ExactSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// BloomSet trades exactness for bounded memory. A false positive makes the
// crawl skip a URL it never fetched; it can never cause a double fetch.
type BloomSet struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
	n      int
}

// NewBloomSet sizes the filter for capacity keys at the given false
// positive rate.
func NewBloomSet(capacity int, falsePositive float64) *BloomSet {
	if capacity <= 0 {
		capacity = 10000
	}
	return &BloomSet{filter: bloom.NewWithEstimates(uint(capacity), falsePositive)}
}

func (s *BloomSet) TestAndAdd(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	present := s.filter.TestAndAddString(key)
	if !present {
		s.n++
	}
	return present
}

func (s *BloomSet) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.TestString(key)
}

func (s *BloomSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}
