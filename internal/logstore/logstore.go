// Package logstore owns the append-only log file: opening, crash recovery,
// the write path (with its durability policy), and compaction. See spec
// §4.5.
package logstore

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/casky-db/casky/internal/format"
	"github.com/casky-db/casky/internal/keydir"
)

// LogStore is the append-only log file backing one engine.
type LogStore struct {
	path        string
	syncOnWrite bool
	file        *os.File
	writer      *bufio.Writer
}

// Open ensures the parent directory and the log file itself exist. It does
// not yet hold an append handle — call Recover then OpenAppend to bring
// the store to a writable state.
func Open(path string, syncOnWrite bool) (*LogStore, error) {
	if path == "" {
		return nil, fmt.Errorf("logstore: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logstore: create data dir: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logstore: create log file: %w", err)
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("logstore: close newly created log file: %w", err)
		}
	}

	return &LogStore{path: path, syncOnWrite: syncOnWrite}, nil
}

// Recover streams every record in the log, validating each with the CRC
// codec and handing surviving entries to kd. It stops scanning at the
// first corrupted record (Bitcask-style) and reports corrupted=true in
// that case, without returning an error — entries accepted before the bad
// record remain in kd.
func (ls *LogStore) Recover(kd *keydir.Keydir, now uint64) (corrupted bool, err error) {
	f, err := os.Open(ls.path)
	if err != nil {
		return false, fmt.Errorf("logstore: open for recovery: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		rec, derr := format.Decode(r)
		if derr == io.EOF {
			break
		}
		if derr == format.ErrCorrupt {
			slog.Warn("logstore: corrupt record during recovery, stopping scan", "path", ls.path)
			return true, nil
		}
		if derr != nil {
			return false, fmt.Errorf("logstore: decode record: %w", derr)
		}

		if rec.IsTombstone() {
			kd.DeleteFromMemory(rec.Key)
			continue
		}
		if rec.Expiration == 0 || rec.Expiration > now {
			kd.PutInMemory(rec.Key, rec.Value, rec.Timestamp, rec.Expiration)
		}
	}
	return false, nil
}

// OpenAppend (re)opens the live append handle used by Append.
func (ls *LogStore) OpenAppend() error {
	if ls.file != nil {
		ls.file.Close()
	}
	f, err := os.OpenFile(ls.path, os.O_APPEND|os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("logstore: open append handle: %w", err)
	}
	ls.file = f
	ls.writer = bufio.NewWriter(f)
	return nil
}

// Append encodes one record and writes it to the log, flushing the
// user-space buffer, and fsyncing the descriptor if sync_on_write is set.
func (ls *LogStore) Append(key, value []byte, timestamp, expiration uint64) error {
	data := format.Encode(key, value, timestamp, expiration)

	if _, err := ls.writer.Write(data); err != nil {
		return fmt.Errorf("logstore: write record: %w", err)
	}
	if err := ls.writer.Flush(); err != nil {
		return fmt.Errorf("logstore: flush record: %w", err)
	}
	if ls.syncOnWrite {
		if err := ls.file.Sync(); err != nil {
			return fmt.Errorf("logstore: fsync record: %w", err)
		}
	}
	return nil
}

// Compact rewrites the log to contain exactly one PUT per entry (no
// tombstones), atomically, then reopens the append handle on the new
// file. It builds the replacement log in memory and commits it via
// natefinch/atomic, the Go-ecosystem equivalent of the original's
// mkstemp+rename dance.
func (ls *LogStore) Compact(entries []keydir.Entry) error {
	var buf bytes.Buffer
	for _, e := range entries {
		buf.Write(format.Encode(e.Key, e.Value, e.Timestamp, e.Expiration))
	}

	if err := atomic.WriteFile(ls.path, bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("logstore: compact write: %w", err)
	}

	return ls.OpenAppend()
}

// Close flushes the user-space buffer and closes the file handle. It does
// not fsync unless fsync is true — see Design Notes on casky_close's
// non-syncing default, preserved here with an explicit opt-in.
func (ls *LogStore) Close(fsync bool) error {
	if ls.writer != nil {
		if err := ls.writer.Flush(); err != nil {
			return fmt.Errorf("logstore: flush on close: %w", err)
		}
	}
	if fsync && ls.file != nil {
		if err := ls.file.Sync(); err != nil {
			return fmt.Errorf("logstore: fsync on close: %w", err)
		}
	}
	if ls.file != nil {
		if err := ls.file.Close(); err != nil {
			return fmt.Errorf("logstore: close: %w", err)
		}
	}
	return nil
}

// Path returns the underlying log file path.
func (ls *LogStore) Path() string {
	return ls.path
}
