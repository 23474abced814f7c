// internal/chunkstore/store_test.go
package chunkstore

import (
	"errors"
	"sync"
	"testing"

	"github.com/creativeyann17/go-chunkflate/internal/codec"
)

func entryFor(i int) Entry {
	return Entry{Strategy: codec.StrategyDefault, OriginalSize: 100, CompressedSize: uint64(10 + i)}
}

func TestStoreGetOrAdd(t *testing.T) {
	store := NewStore()
	hash := [32]byte{1}
	calls := 0

	selectFunc := func() (Entry, error) {
		calls++
		return Entry{Strategy: codec.StrategyRLE, OriginalSize: 4096, CompressedSize: 20}, nil
	}

	entry, isNew, err := store.GetOrAdd(hash, selectFunc)
	if err != nil {
		t.Fatalf("GetOrAdd failed: %v", err)
	}
	if !isNew {
		t.Error("First lookup should be new")
	}
	if entry.Strategy != codec.StrategyRLE || entry.CompressedSize != 20 {
		t.Errorf("Unexpected entry: %+v", entry)
	}

	entry2, isNew, err := store.GetOrAdd(hash, selectFunc)
	if err != nil {
		t.Fatalf("GetOrAdd failed: %v", err)
	}
	if isNew {
		t.Error("Second lookup should be a hit")
	}
	if entry2 != entry {
		t.Errorf("Cached entry differs: %+v vs %+v", entry2, entry)
	}
	if calls != 1 {
		t.Errorf("Expected selectFunc to run once, ran %d times", calls)
	}

	stats := store.Stats()
	if stats.Lookups != 2 || stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
	if stats.HitRatio() != 50 {
		t.Errorf("Expected 50%% hit ratio, got %.1f", stats.HitRatio())
	}
}

// cached reports whether hash is held without touching LRU order or stats
func cached(s *Store, hash [32]byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[hash]
	return ok
}

func TestStoreErrorNotCached(t *testing.T) {
	store := NewStore()
	hash := [32]byte{2}
	boom := errors.New("boom")

	if _, _, err := store.GetOrAdd(hash, func() (Entry, error) { return Entry{}, boom }); !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}
	if store.Count() != 0 {
		t.Errorf("Failed selections must not be cached, got %d entries", store.Count())
	}
}

func TestBoundedStoreCapacity(t *testing.T) {
	store := NewStoreWithCapacity(3)

	for i := 0; i < 4; i++ {
		hash := [32]byte{byte(i)}
		if _, _, err := store.GetOrAdd(hash, func() (Entry, error) { return entryFor(i), nil }); err != nil {
			t.Fatal(err)
		}
	}

	if store.Count() != 3 {
		t.Errorf("Expected 3 entries after eviction, got %d", store.Count())
	}
	if store.Stats().Evictions != 1 {
		t.Errorf("Expected 1 eviction, got %d", store.Stats().Evictions)
	}
	if store.Stats().Entries != 3 {
		t.Errorf("Expected stats to report 3 entries, got %d", store.Stats().Entries)
	}
	if exists := cached(store, [32]byte{0}); exists {
		t.Error("Entry 0 should have been evicted")
	}
	for i := 1; i <= 3; i++ {
		if exists := cached(store, [32]byte{byte(i)}); !exists {
			t.Errorf("Entry %d should still exist", i)
		}
	}
}

func TestBoundedStoreLRU(t *testing.T) {
	store := NewStoreWithCapacity(2)
	add := func(i int) {
		if _, _, err := store.GetOrAdd([32]byte{byte(i)}, func() (Entry, error) { return entryFor(i), nil }); err != nil {
			t.Fatal(err)
		}
	}

	add(0)
	add(1)
	add(0) // touch 0, making 1 the least recently used
	add(2)

	if exists := cached(store, [32]byte{1}); exists {
		t.Error("Entry 1 should have been evicted")
	}
	if exists := cached(store, [32]byte{0}); !exists {
		t.Error("Entry 0 was recently used and should remain")
	}
}

func TestStoreConcurrent(t *testing.T) {
	store := NewStoreWithCapacity(16)
	var wg sync.WaitGroup

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				hash := [32]byte{byte(i % 32)}
				entry, _, err := store.GetOrAdd(hash, func() (Entry, error) { return entryFor(i % 32), nil })
				if err != nil {
					t.Error(err)
					return
				}
				if entry.CompressedSize != uint64(10+i%32) {
					t.Errorf("Wrong entry for hash %d: %+v", i%32, entry)
					return
				}
			}
		}()
	}
	wg.Wait()

	if store.Count() > 16 {
		t.Errorf("Store exceeded capacity: %d", store.Count())
	}
	if store.Stats().Lookups != 800 {
		t.Errorf("Expected 800 lookups, got %d", store.Stats().Lookups)
	}
}
