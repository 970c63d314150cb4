// Package casky is an embeddable, Bitcask-style log-structured key-value
// store: an append-only log on disk plus an in-memory hash index (the
// keydir) mapping each live key straight to its record. See internal/engine
// for the implementation; this package is a thin, stable embedding surface.
package casky

import (
	"github.com/casky-db/casky/internal/caskyerr"
	"github.com/casky-db/casky/internal/config"
	"github.com/casky-db/casky/internal/engine"
	"github.com/casky-db/casky/internal/stats"
	"github.com/casky-db/casky/internal/version"
)

// DB is an open casky store.
type DB = engine.Engine

// Stats is a point-in-time snapshot of a DB's counters.
type Stats = stats.Snapshot

// ErrorCode is casky's closed error enumeration. Use errors.Is against
// the package-level sentinels below to classify a returned error.
type ErrorCode = caskyerr.Code

// Sentinel error codes, comparable with errors.Is against any error
// returned by a DB method.
var (
	ErrInvalidPath    = caskyerr.InvalidPath
	ErrInvalidPointer = caskyerr.InvalidPointer
	ErrIO             = caskyerr.IO
	ErrMemory         = caskyerr.Memory
	ErrCorrupt        = caskyerr.Corrupt
	ErrInvalidKey     = caskyerr.InvalidKey
	ErrKeyNotFound    = caskyerr.KeyNotFound
)

// Option configures Open.
type Option func(*config.Config)

// WithThreadSafe guards every DB operation with a mutex, for concurrent
// callers. Off by default, matching the original Bitcask-style library's
// single-threaded assumption.
func WithThreadSafe(enabled bool) Option {
	return func(cfg *config.Config) { cfg.ThreadSafe = enabled }
}

// WithSyncOnWrite fsyncs the log file after every append, trading write
// throughput for durability against an OS crash (not just a process
// crash).
func WithSyncOnWrite(enabled bool) Option {
	return func(cfg *config.Config) { cfg.SyncOnWrite = enabled }
}

// WithNumBuckets sets the keydir's fixed bucket count. Larger values
// shorten collision chains at the cost of more resident memory; the
// default is 1024.
func WithNumBuckets(n int) Option {
	return func(cfg *config.Config) { cfg.NumBuckets = n }
}

// WithLogFileName overrides the log file's name within dataDir (default
// "active.log").
func WithLogFileName(name string) Option {
	return func(cfg *config.Config) { cfg.LogFileName = name }
}

// Open opens (creating if necessary) a store rooted at dataDir, recovering
// its keydir from the log file within. A corrupted log does not fail
// Open — the store is usable on whatever entries loaded before the
// corruption; call DB.Corrupted to check, and DB.Compact to repair.
func Open(dataDir string, opts ...Option) (*DB, error) {
	cfg := config.New(dataDir)
	for _, opt := range opts {
		opt(cfg)
	}
	return engine.Open(cfg)
}

// Version returns casky's semantic version string.
func Version() string {
	return version.String()
}
