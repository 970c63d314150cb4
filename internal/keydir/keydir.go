// Package keydir implements the in-memory index: a fixed-size array of
// collision-chained buckets mapping each live key to its current value,
// timestamp and expiration. See spec §3 and §4.4.
package keydir

import (
	"bytes"

	"github.com/casky-db/casky/internal/hash"
	"github.com/casky-db/casky/internal/stats"
)

type node struct {
	key        []byte
	value      []byte
	timestamp  uint64
	expiration uint64
	next       *node
}

// Entry is a snapshot of one live keydir entry, used by compaction.
type Entry struct {
	Key        []byte
	Value      []byte
	Timestamp  uint64
	Expiration uint64
}

// Keydir is the top-level in-memory index.
type Keydir struct {
	buckets []*node
	entries int
	stats   *stats.Collector
}

// New allocates a Keydir with the given number of buckets. A nil collector
// is accepted for tests that don't care about stats.
func New(numBuckets int, collector *stats.Collector) *Keydir {
	if numBuckets <= 0 {
		numBuckets = 1024
	}
	return &Keydir{
		buckets: make([]*node, numBuckets),
		stats:   collector,
	}
}

func (kd *Keydir) bucketIndex(key []byte) int {
	return int(hash.DJB2XOR(key) % uint64(len(kd.buckets)))
}

// PutInMemory inserts a new entry or, if the key already exists in its
// chain, replaces its value and timestamps in place. It never changes
// num_entries on an overwrite.
func (kd *Keydir) PutInMemory(key, value []byte, timestamp, expiration uint64) {
	idx := kd.bucketIndex(key)

	for n := kd.buckets[idx]; n != nil; n = n.next {
		if bytes.Equal(n.key, key) {
			n.value = append([]byte(nil), value...)
			n.timestamp = timestamp
			n.expiration = expiration
			if kd.stats != nil {
				kd.stats.IncPut(len(key) + len(value))
			}
			return
		}
	}

	n := &node{
		key:        append([]byte(nil), key...),
		value:      append([]byte(nil), value...),
		timestamp:  timestamp,
		expiration: expiration,
		next:       kd.buckets[idx],
	}
	kd.buckets[idx] = n
	kd.entries++
	if kd.stats != nil {
		kd.stats.IncEntries()
		kd.stats.IncPut(len(key) + len(value))
	}
}

// DeleteFromMemory unlinks the node matching key, if any, and reports
// whether a node was removed.
func (kd *Keydir) DeleteFromMemory(key []byte) bool {
	idx := kd.bucketIndex(key)

	var prev *node
	for n := kd.buckets[idx]; n != nil; n = n.next {
		if bytes.Equal(n.key, key) {
			if prev == nil {
				kd.buckets[idx] = n.next
			} else {
				prev.next = n.next
			}
			kd.entries--
			if kd.stats != nil {
				kd.stats.DecEntries()
				kd.stats.IncDelete(len(n.key) + len(n.value))
			}
			return true
		}
		prev = n
	}
	return false
}

// GetFromMemory looks up key and returns a fresh copy of its value. An
// entry whose expiration has passed is treated as absent and removed
// passively (without writing a tombstone — see spec §4.4).
func (kd *Keydir) GetFromMemory(key []byte, now uint64) ([]byte, bool) {
	idx := kd.bucketIndex(key)

	var prev *node
	for n := kd.buckets[idx]; n != nil; n = n.next {
		if bytes.Equal(n.key, key) {
			if n.expiration > 0 && n.expiration <= now {
				if prev == nil {
					kd.buckets[idx] = n.next
				} else {
					prev.next = n.next
				}
				kd.entries--
				if kd.stats != nil {
					kd.stats.DecEntries()
					kd.stats.OnExpire(len(n.key) + len(n.value))
				}
				return nil, false
			}
			if kd.stats != nil {
				kd.stats.IncGet()
			}
			return append([]byte(nil), n.value...), true
		}
		prev = n
	}
	return nil, false
}

// NumEntries returns the total count of live nodes across all buckets.
func (kd *Keydir) NumEntries() int {
	return kd.entries
}

// Entries returns a snapshot of every live entry, used by compaction. The
// returned slices are fresh copies.
func (kd *Keydir) Entries() []Entry {
	out := make([]Entry, 0, kd.entries)
	for _, head := range kd.buckets {
		for n := head; n != nil; n = n.next {
			out = append(out, Entry{
				Key:        append([]byte(nil), n.key...),
				Value:      append([]byte(nil), n.value...),
				Timestamp:  n.timestamp,
				Expiration: n.expiration,
			})
		}
	}
	return out
}

// ExpireSweep unlinks and frees every node whose expiration has passed,
// returning the number of entries removed. It does not write tombstones
// to the log (see spec §4.6 Expire and Design Notes).
func (kd *Keydir) ExpireSweep(now uint64) int {
	removed := 0
	for idx, head := range kd.buckets {
		var prev *node
		n := head
		for n != nil {
			if n.expiration > 0 && n.expiration <= now {
				next := n.next
				if prev == nil {
					kd.buckets[idx] = next
				} else {
					prev.next = next
				}
				kd.entries--
				removed++
				if kd.stats != nil {
					kd.stats.DecEntries()
					kd.stats.OnExpire(len(n.key) + len(n.value))
				}
				n = next
				continue
			}
			prev = n
			n = n.next
		}
	}
	return removed
}
