package keydir

import (
	"fmt"
	"testing"

	"github.com/casky-db/casky/internal/stats"
)

func TestPutAndGet(t *testing.T) {
	kd := New(16, stats.NewCollector(false))

	kd.PutInMemory([]byte("foo"), []byte("bar"), 1, 0)

	got, ok := kd.GetFromMemory([]byte("foo"), 2)
	if !ok {
		t.Fatal("expected key to be found")
	}
	if string(got) != "bar" {
		t.Errorf("value = %q, want %q", got, "bar")
	}
	if kd.NumEntries() != 1 {
		t.Errorf("NumEntries() = %d, want 1", kd.NumEntries())
	}
}

func TestPutOverwriteDoesNotChangeCount(t *testing.T) {
	kd := New(16, stats.NewCollector(false))

	kd.PutInMemory([]byte("k"), []byte("a"), 1, 0)
	kd.PutInMemory([]byte("k"), []byte("b"), 2, 0)

	if kd.NumEntries() != 1 {
		t.Fatalf("NumEntries() = %d, want 1", kd.NumEntries())
	}

	got, ok := kd.GetFromMemory([]byte("k"), 3)
	if !ok || string(got) != "b" {
		t.Errorf("GetFromMemory() = (%q, %v), want (\"b\", true)", got, ok)
	}
}

func TestGetUnknownKey(t *testing.T) {
	kd := New(16, stats.NewCollector(false))
	_, ok := kd.GetFromMemory([]byte("missing"), 1)
	if ok {
		t.Error("expected unknown key to be absent")
	}
}

func TestDeleteFromMemory(t *testing.T) {
	kd := New(16, stats.NewCollector(false))
	kd.PutInMemory([]byte("k"), []byte("v"), 1, 0)

	if !kd.DeleteFromMemory([]byte("k")) {
		t.Fatal("expected delete to report found")
	}
	if kd.NumEntries() != 0 {
		t.Errorf("NumEntries() = %d, want 0", kd.NumEntries())
	}
	if kd.DeleteFromMemory([]byte("k")) {
		t.Error("expected second delete to report not found")
	}
}

func TestGetPassiveExpiration(t *testing.T) {
	kd := New(16, stats.NewCollector(false))
	kd.PutInMemory([]byte("k"), []byte("v"), 1, 10)

	if _, ok := kd.GetFromMemory([]byte("k"), 10); ok {
		t.Error("expected expired entry to be absent")
	}
	if kd.NumEntries() != 0 {
		t.Errorf("NumEntries() = %d, want 0 after passive expiration", kd.NumEntries())
	}
}

func TestGetNeverExpiresWhenExpirationZero(t *testing.T) {
	kd := New(16, stats.NewCollector(false))
	kd.PutInMemory([]byte("k"), []byte("v"), 1, 0)

	if _, ok := kd.GetFromMemory([]byte("k"), 1<<40); !ok {
		t.Error("expected entry with expiration=0 to never expire")
	}
}

func TestExpireSweep(t *testing.T) {
	kd := New(16, stats.NewCollector(false))
	kd.PutInMemory([]byte("a"), []byte("1"), 1, 5)
	kd.PutInMemory([]byte("b"), []byte("2"), 1, 0)
	kd.PutInMemory([]byte("c"), []byte("3"), 1, 100)

	removed := kd.ExpireSweep(10)
	if removed != 1 {
		t.Errorf("ExpireSweep() removed = %d, want 1", removed)
	}
	if kd.NumEntries() != 2 {
		t.Errorf("NumEntries() = %d, want 2", kd.NumEntries())
	}
	if _, ok := kd.GetFromMemory([]byte("a"), 10); ok {
		t.Error("expected \"a\" to be expired")
	}
	if _, ok := kd.GetFromMemory([]byte("b"), 10); !ok {
		t.Error("expected \"b\" to survive (never expires)")
	}
	if _, ok := kd.GetFromMemory([]byte("c"), 10); !ok {
		t.Error("expected \"c\" to survive (not yet expired)")
	}
}

func TestNumEntriesMatchesBucketWalk(t *testing.T) {
	kd := New(4, stats.NewCollector(false))
	for i := 0; i < 50; i++ {
		kd.PutInMemory([]byte(fmt.Sprintf("key-%d", i)), []byte("v"), 1, 0)
	}
	kd.DeleteFromMemory([]byte("key-0"))
	kd.DeleteFromMemory([]byte("key-1"))

	walked := 0
	for _, e := range kd.Entries() {
		_ = e
		walked++
	}

	if walked != kd.NumEntries() {
		t.Errorf("walked %d entries, NumEntries() = %d", walked, kd.NumEntries())
	}
	if kd.NumEntries() != 48 {
		t.Errorf("NumEntries() = %d, want 48", kd.NumEntries())
	}
}

func TestEntriesSnapshotIsIndependentCopy(t *testing.T) {
	kd := New(16, stats.NewCollector(false))
	kd.PutInMemory([]byte("k"), []byte("v"), 1, 0)

	entries := kd.Entries()
	entries[0].Value[0] = 'X'

	got, _ := kd.GetFromMemory([]byte("k"), 1)
	if string(got) != "v" {
		t.Errorf("mutating snapshot leaked into keydir: value = %q", got)
	}
}
