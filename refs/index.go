package refs

import "sync"

// ReferenceIndex memoizes search records by identifier. Entries never expire;
// only Clear removes them. Empty results are cached like any other.
type ReferenceIndex struct {
	mu      sync.Mutex
	records map[string]SearchRecord
	hits    int
	misses  int
}

// IndexStats is a snapshot of cache usage.
type IndexStats struct {
	Entries int
	Hits    int
	Misses  int
}

// NewReferenceIndex creates an empty reference cache.
func NewReferenceIndex() *ReferenceIndex {
	return &ReferenceIndex{
		records: make(map[string]SearchRecord),
	}
}

// Lookup returns the cached record for identifier, or runs compute and stores
// its result. The lock is held during compute so a concurrent Clear cannot
// interleave with the insert.
func (ri *ReferenceIndex) Lookup(identifier string, compute func() SearchRecord) SearchRecord {
	ri.mu.Lock()
	defer ri.mu.Unlock()

	if record, ok := ri.records[identifier]; ok {
		ri.hits++
		return record
	}

	ri.misses++
	record := compute()
	ri.records[identifier] = record
	return record
}

// Clear evicts every cached record.
func (ri *ReferenceIndex) Clear() {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	ri.records = make(map[string]SearchRecord)
}

// Stats returns the current entry count and hit/miss counters.
func (ri *ReferenceIndex) Stats() IndexStats {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	return IndexStats{
		Entries: len(ri.records),
		Hits:    ri.hits,
		Misses:  ri.misses,
	}
}
