package logstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/casky-db/casky/internal/keydir"
	"github.com/casky-db/casky/internal/stats"
)

func newTestStore(t *testing.T) (*LogStore, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "active.log")

	ls, err := Open(path, false)
	require.NoError(t, err)
	require.NoError(t, ls.OpenAppend())
	return ls, path
}

func TestAppendAndRecover(t *testing.T) {
	ls, path := newTestStore(t)

	require.NoError(t, ls.Append([]byte("a"), []byte("1"), 1, 0))
	require.NoError(t, ls.Append([]byte("b"), []byte("2"), 2, 0))
	require.NoError(t, ls.Close(false))

	ls2, err := Open(path, false)
	require.NoError(t, err)

	kd := keydir.New(16, stats.NewCollector(false))
	corrupted, err := ls2.Recover(kd, 100)
	require.NoError(t, err)
	require.False(t, corrupted)
	require.Equal(t, 2, kd.NumEntries())

	v, ok := kd.GetFromMemory([]byte("a"), 100)
	require.True(t, ok)
	require.Equal(t, "1", string(v))
}

func TestRecoverReplaysTombstone(t *testing.T) {
	ls, path := newTestStore(t)

	require.NoError(t, ls.Append([]byte("a"), []byte("1"), 1, 0))
	require.NoError(t, ls.Append([]byte("a"), nil, 2, 0)) // tombstone
	require.NoError(t, ls.Close(false))

	ls2, err := Open(path, false)
	require.NoError(t, err)
	kd := keydir.New(16, stats.NewCollector(false))

	corrupted, err := ls2.Recover(kd, 100)
	require.NoError(t, err)
	require.False(t, corrupted)
	require.Equal(t, 0, kd.NumEntries())
}

func TestRecoverDropsAlreadyExpiredRecord(t *testing.T) {
	ls, path := newTestStore(t)

	require.NoError(t, ls.Append([]byte("a"), []byte("1"), 1, 5)) // expires at t=5
	require.NoError(t, ls.Close(false))

	ls2, err := Open(path, false)
	require.NoError(t, err)
	kd := keydir.New(16, stats.NewCollector(false))

	_, err = ls2.Recover(kd, 100) // now=100, well past expiration
	require.NoError(t, err)
	require.Equal(t, 0, kd.NumEntries())
}

func TestRecoverStopsAtCorruptRecord(t *testing.T) {
	ls, path := newTestStore(t)

	require.NoError(t, ls.Append([]byte("a"), []byte("1"), 1, 0))
	require.NoError(t, ls.Append([]byte("b"), []byte("2"), 2, 0))
	require.NoError(t, ls.Close(false))

	// Corrupt a byte inside the first record's CRC-covered region.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[10] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o644))

	ls2, err := Open(path, false)
	require.NoError(t, err)
	kd := keydir.New(16, stats.NewCollector(false))

	corrupted, err := ls2.Recover(kd, 100)
	require.NoError(t, err)
	require.True(t, corrupted)
	require.Equal(t, 0, kd.NumEntries(), "no entries should load before the corrupt record in this layout")
}

func TestCompactFidelity(t *testing.T) {
	ls, path := newTestStore(t)

	require.NoError(t, ls.Append([]byte("a"), []byte("1"), 1, 0))
	require.NoError(t, ls.Append([]byte("b"), []byte("2"), 2, 0))
	require.NoError(t, ls.Append([]byte("c"), []byte("3"), 3, 0))
	require.NoError(t, ls.Append([]byte("a"), nil, 4, 0)) // delete "a"

	kd := keydir.New(16, stats.NewCollector(false))
	_, err := ls.Recover(kd, 100)
	require.NoError(t, err)
	require.Equal(t, 2, kd.NumEntries())

	require.NoError(t, ls.Compact(kd.Entries()))

	kd2 := keydir.New(16, stats.NewCollector(false))
	ls3, err := Open(path, false)
	require.NoError(t, err)
	corrupted, err := ls3.Recover(kd2, 100)
	require.NoError(t, err)
	require.False(t, corrupted)
	require.Equal(t, 2, kd2.NumEntries())

	v, ok := kd2.GetFromMemory([]byte("b"), 100)
	require.True(t, ok)
	require.Equal(t, "2", string(v))

	_, ok = kd2.GetFromMemory([]byte("a"), 100)
	require.False(t, ok)
}

func TestOpenCreatesMissingLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "active.log")

	ls, err := Open(path, false)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Equal(t, path, ls.Path())
}
