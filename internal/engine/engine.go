// Package engine exposes casky's public operations: open, close, put, get,
// delete, compact and expire, plus the locking discipline that makes them
// safe under concurrent callers when the engine is opened in thread-safe
// mode. See spec §4.6 and §5.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/casky-db/casky/internal/caskyerr"
	"github.com/casky-db/casky/internal/config"
	"github.com/casky-db/casky/internal/keydir"
	"github.com/casky-db/casky/internal/logstore"
	"github.com/casky-db/casky/internal/stats"
)

// locker abstracts the two build modes from spec §5: lockless
// (single-threaded, Bitcask-faithful) and mutex-guarded (thread-safe). Both
// satisfy this interface so the facade's code doesn't need to branch on
// mode at every call site.
type locker interface {
	Lock()
	Unlock()
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// Engine is the storage engine facade. It owns the keydir, the log
// manager, the statistics collector, and (in thread-safe mode) the mutex
// guarding all three.
type Engine struct {
	cfg       *config.Config
	kd        *keydir.Keydir
	log       *logstore.LogStore
	stats     *stats.Collector
	mu        locker
	corrupted bool
}

// nowFn exists so tests can stub wall-clock time; production code never
// overrides it.
var nowFn = func() uint64 { return uint64(time.Now().Unix()) }

// Open allocates the keydir, recovers it from the log at path
// cfg.DataDir/cfg.LogFileName, and returns a ready-to-use Engine. A
// corrupted log does not fail Open — the engine is usable on whatever
// entries loaded before the corruption (spec §4.5, §4.8).
func Open(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		caskyerr.Track(caskyerr.InvalidPointer)
		return nil, caskyerr.InvalidPointer
	}
	if cfg.DataDir == "" {
		caskyerr.Track(caskyerr.InvalidPath)
		return nil, caskyerr.InvalidPath
	}

	path := cfg.DataDir + "/" + cfg.LogFileName
	ls, err := logstore.Open(path, cfg.SyncOnWrite)
	if err != nil {
		caskyerr.Track(caskyerr.IO)
		return nil, fmt.Errorf("%w: %v", caskyerr.IO, err)
	}

	collector := stats.NewCollector(cfg.ThreadSafe)
	kd := keydir.New(cfg.NumBuckets, collector)

	now := nowFn()
	corrupted, err := ls.Recover(kd, now)
	if err != nil {
		caskyerr.Track(caskyerr.IO)
		return nil, fmt.Errorf("%w: %v", caskyerr.IO, err)
	}

	if err := ls.OpenAppend(); err != nil {
		caskyerr.Track(caskyerr.IO)
		return nil, fmt.Errorf("%w: %v", caskyerr.IO, err)
	}

	var l locker
	if cfg.ThreadSafe {
		l = &sync.Mutex{}
	} else {
		l = noopLocker{}
	}

	e := &Engine{cfg: cfg, kd: kd, log: ls, stats: collector, mu: l, corrupted: corrupted}

	if corrupted {
		caskyerr.Track(caskyerr.Corrupt)
		slog.Warn("engine: opened with a corrupted log; compact is recommended", "path", path)
	} else {
		caskyerr.Track(caskyerr.OK)
		slog.Info("engine: opened", "path", path, "keys", kd.NumEntries())
	}

	return e, nil
}

// Put stores key/value, expiring after ttlSeconds (0 means never). The
// in-memory index is updated before the record is appended; a failing
// append surfaces an I/O error but leaves the memory update in place
// (spec §4.6, §9 — documented best-effort, not rolled back).
func (e *Engine) Put(key, value []byte, ttlSeconds uint64) error {
	if e == nil {
		return caskyerr.InvalidPointer
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(key) == 0 || len(value) == 0 {
		caskyerr.Track(caskyerr.InvalidKey)
		return caskyerr.InvalidKey
	}

	now := nowFn()
	var expiration uint64
	if ttlSeconds > 0 {
		expiration = now + ttlSeconds
	}

	e.kd.PutInMemory(key, value, now, expiration)

	if err := e.log.Append(key, value, now, expiration); err != nil {
		caskyerr.Track(caskyerr.IO)
		return fmt.Errorf("%w: %v", caskyerr.IO, err)
	}

	caskyerr.Track(caskyerr.OK)
	slog.Debug("engine: put", "key", string(key), "value_size", len(value), "ttl", ttlSeconds)
	return nil
}

// Get retrieves the value for key, or caskyerr.KeyNotFound if it is
// absent or has expired.
func (e *Engine) Get(key []byte) ([]byte, error) {
	if e == nil {
		return nil, caskyerr.InvalidPointer
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(key) == 0 {
		caskyerr.Track(caskyerr.InvalidKey)
		return nil, caskyerr.InvalidKey
	}

	value, ok := e.kd.GetFromMemory(key, nowFn())
	if !ok {
		caskyerr.Track(caskyerr.KeyNotFound)
		return nil, caskyerr.KeyNotFound
	}

	caskyerr.Track(caskyerr.OK)
	return value, nil
}

// Delete removes key, appending a tombstone record. Deleting an absent
// key is reported as caskyerr.KeyNotFound and nothing is written to the
// log.
func (e *Engine) Delete(key []byte) error {
	if e == nil {
		return caskyerr.InvalidPointer
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(key) == 0 {
		caskyerr.Track(caskyerr.InvalidKey)
		return caskyerr.InvalidKey
	}

	if !e.kd.DeleteFromMemory(key) {
		caskyerr.Track(caskyerr.KeyNotFound)
		return caskyerr.KeyNotFound
	}

	if err := e.log.Append(key, nil, nowFn(), 0); err != nil {
		caskyerr.Track(caskyerr.IO)
		return fmt.Errorf("%w: %v", caskyerr.IO, err)
	}

	caskyerr.Track(caskyerr.OK)
	slog.Debug("engine: delete", "key", string(key))
	return nil
}

// Compact rewrites the log to contain exactly one PUT per live entry and
// no tombstones. It holds the engine lock for its entire duration: no
// writer can interleave, no reader can observe a half-compacted state.
func (e *Engine) Compact() error {
	if e == nil {
		return caskyerr.InvalidPointer
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	entries := e.kd.Entries()
	if err := e.log.Compact(entries); err != nil {
		caskyerr.Track(caskyerr.IO)
		return fmt.Errorf("%w: %v", caskyerr.IO, err)
	}

	e.corrupted = false
	caskyerr.Track(caskyerr.OK)
	slog.Info("engine: compacted", "live_entries", len(entries))
	return nil
}

// Expire sweeps every bucket, unlinking and freeing entries whose
// expiration has passed. No tombstones are written — the removed records
// become irrelevant at the next compaction (spec §4.6, §9).
func (e *Engine) Expire() {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	removed := e.kd.ExpireSweep(nowFn())
	if removed > 0 {
		slog.Debug("engine: expire sweep", "removed", removed)
	}
}

// Close flushes the log's user-space buffer and closes the file handle.
// It does not fsync (spec §9 Design Notes: preserved as-is from the
// original's casky_close).
func (e *Engine) Close() error {
	if e == nil {
		return caskyerr.InvalidPointer
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.log.Close(false); err != nil {
		caskyerr.Track(caskyerr.IO)
		return fmt.Errorf("%w: %v", caskyerr.IO, err)
	}
	caskyerr.Track(caskyerr.OK)
	return nil
}

// NumEntries returns the current number of live keys.
func (e *Engine) NumEntries() int {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.kd.NumEntries()
}

// Stats returns a snapshot of the engine's statistics counters.
func (e *Engine) Stats() stats.Snapshot {
	if e == nil {
		return stats.Snapshot{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats.Snapshot()
}

// Corrupted reports whether recovery stopped early on a CRC mismatch.
func (e *Engine) Corrupted() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.corrupted
}

// ThreadSafe reports whether this engine was opened in thread-safe mode.
func (e *Engine) ThreadSafe() bool {
	if e == nil {
		return false
	}
	return e.cfg.ThreadSafe
}
