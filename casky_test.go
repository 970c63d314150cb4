package casky

import (
	"errors"
	"testing"
)

func TestOpenPutGetDelete(t *testing.T) {
	db, err := Open(t.TempDir(), WithThreadSafe(true))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if err := db.Put([]byte("hello"), []byte("world"), 0); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := db.Get([]byte("hello"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "world" {
		t.Errorf("Get = %q, want %q", got, "world")
	}

	if err := db.Delete([]byte("hello")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := db.Get([]byte("hello")); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get after delete: err = %v, want ErrKeyNotFound", err)
	}
}

func TestOpenWithOptions(t *testing.T) {
	db, err := Open(t.TempDir(),
		WithThreadSafe(true),
		WithSyncOnWrite(true),
		WithNumBuckets(32),
		WithLogFileName("custom.log"),
	)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if !db.ThreadSafe() {
		t.Error("expected ThreadSafe to be true")
	}
}

func TestVersion(t *testing.T) {
	if Version() == "" {
		t.Error("expected a non-empty version string")
	}
}
