// Package stats implements the statistics counters described in spec §4.7.
// Rather than the original's process-wide singleton, a Collector is
// injected per engine instance (see Design Notes: "Global statistics
// singleton → injected collector"), which removes process-global state
// while keeping the same read API.
package stats

import "sync"

// Snapshot is a point-in-time, read-only copy of the counters.
type Snapshot struct {
	TotalKeys   uint64
	MemoryBytes uint64
	NumPuts     uint64
	NumGets     uint64
	NumDeletes  uint64
}

// locker lets a Collector run lockless in single-threaded mode and
// mutex-guarded in thread-safe mode, mirroring the engine's own locking
// discipline one level in. It must never be taken while an engine's own
// lock could deadlock against it; callers only ever invoke Collector
// methods from within an already-held engine lock, so this lock is
// strictly inner.
type locker interface {
	Lock()
	Unlock()
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// Collector accumulates the process counters for one engine.
type Collector struct {
	mu          locker
	totalKeys   uint64
	memoryBytes uint64
	numPuts     uint64
	numGets     uint64
	numDeletes  uint64
}

// NewCollector creates a Collector. threadSafe selects whether the
// collector's inner lock is a real mutex or a no-op.
func NewCollector(threadSafe bool) *Collector {
	if threadSafe {
		return &Collector{mu: &sync.Mutex{}}
	}
	return &Collector{mu: noopLocker{}}
}

// IncEntries records the creation of a new live entry.
func (c *Collector) IncEntries() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalKeys++
}

// DecEntries records the removal of a live entry, floored at zero.
func (c *Collector) DecEntries() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.totalKeys > 0 {
		c.totalKeys--
	}
}

// IncPut records a successful put: the operation counter always advances,
// and memory_bytes grows by the new record's len(key)+len(value), on both
// insertion and update (see spec §4.7 — this is a user-visible
// approximation, not tied to real allocator usage).
func (c *Collector) IncPut(bytes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.numPuts++
	c.memoryBytes += uint64(bytes)
}

// IncGet records a get operation. The keydir calls it only when a get
// finds a live entry; misses and passively expired entries are not
// counted.
func (c *Collector) IncGet() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.numGets++
}

// IncDelete records an explicit deletion: the delete counter advances and
// memory_bytes shrinks by the removed entry's size, floored at zero.
func (c *Collector) IncDelete(bytes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.numDeletes++
	c.memoryBytes = floorSub(c.memoryBytes, bytes)
}

// OnExpire records passive or swept expiration: memory_bytes shrinks the
// same way a delete would, but the delete counter is not touched — an
// expiration is not a delete.
func (c *Collector) OnExpire(bytes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memoryBytes = floorSub(c.memoryBytes, bytes)
}

// Snapshot returns a consistent copy of the current counters.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		TotalKeys:   c.totalKeys,
		MemoryBytes: c.memoryBytes,
		NumPuts:     c.numPuts,
		NumGets:     c.numGets,
		NumDeletes:  c.numDeletes,
	}
}

func floorSub(total uint64, n int) uint64 {
	if n < 0 {
		return total
	}
	if uint64(n) >= total {
		return 0
	}
	return total - uint64(n)
}
