// internal/chunkstore/store.go
package chunkstore

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/creativeyann17/go-chunkflate/internal/codec"
)

// Entry is the remembered outcome of a strategy selection for one chunk content
type Entry struct {
	Strategy       codec.Strategy
	OriginalSize   uint64
	CompressedSize uint64
}

// lruEntry ties an Entry to its position in the LRU list
type lruEntry struct {
	hash    [32]byte
	entry   Entry
	lruNode *list.Element
}

// Store is a thread-safe, optionally bounded LRU cache of selection outcomes
// keyed by the BLAKE3 digest of the chunk content. A codec is deterministic,
// so a chunk seen before compresses to the same winner without new trials.
type Store struct {
	mu         sync.Mutex
	entries    map[[32]byte]*lruEntry
	lruList    *list.List
	maxEntries int // 0 = unlimited

	// Statistics
	lookups   atomic.Uint64
	hits      atomic.Uint64
	evictions atomic.Uint64
}

// NewStore creates a store with unlimited capacity
func NewStore() *Store {
	return NewStoreWithCapacity(0)
}

// NewStoreWithCapacity creates a store keeping at most maxEntries outcomes
// maxEntries: maximum number of entries to keep (0 = unlimited)
func NewStoreWithCapacity(maxEntries int) *Store {
	return &Store{
		entries:    make(map[[32]byte]*lruEntry),
		lruList:    list.New(),
		maxEntries: maxEntries,
	}
}

// GetOrAdd returns the cached outcome for hash, or calls selectFunc to compute
// and store it. Returns (Entry, isNew, error); isNew=false means a cache hit.
func (s *Store) GetOrAdd(hash [32]byte, selectFunc func() (Entry, error)) (Entry, bool, error) {
	s.lookups.Add(1)

	if entry, ok := s.lookup(hash); ok {
		s.hits.Add(1)
		return entry, false, nil
	}

	// Selection runs without the lock; concurrent misses on the same
	// content compute the same deterministic outcome.
	entry, err := selectFunc()
	if err != nil {
		return Entry{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have stored it meanwhile
	if existing, ok := s.entries[hash]; ok {
		s.lruList.MoveToFront(existing.lruNode)
		return existing.entry, true, nil
	}

	if s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		s.evictLRU()
	}

	e := &lruEntry{hash: hash, entry: entry}
	e.lruNode = s.lruList.PushFront(e)
	s.entries[hash] = e
	return entry, true, nil
}

func (s *Store) lookup(hash [32]byte) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[hash]
	if !ok {
		return Entry{}, false
	}
	s.lruList.MoveToFront(e.lruNode)
	return e.entry, true
}

// evictLRU removes the least recently used entry
// Must be called with the lock held
func (s *Store) evictLRU() {
	back := s.lruList.Back()
	if back == nil {
		return
	}
	e := back.Value.(*lruEntry)
	delete(s.entries, e.hash)
	s.lruList.Remove(back)
	s.evictions.Add(1)
}

// Count returns the number of cached entries
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats returns cache statistics
func (s *Store) Stats() Stats {
	lookups := s.lookups.Load()
	hits := s.hits.Load()
	return Stats{
		Lookups:   lookups,
		Hits:      hits,
		Misses:    lookups - hits,
		Evictions: s.evictions.Load(),
		Entries:   s.Count(),
	}
}

// Stats contains selection cache statistics
type Stats struct {
	Lookups   uint64 // Total lookups
	Hits      uint64 // Lookups answered from the cache
	Misses    uint64 // Lookups that ran a full selection
	Evictions uint64 // Entries evicted due to capacity limit
	Entries   int    // Entries held when the stats were taken
}

// HitRatio returns the cache hit ratio as a percentage
func (s Stats) HitRatio() float64 {
	if s.Lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Lookups) * 100
}
