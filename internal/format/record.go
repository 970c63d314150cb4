// Package format implements the on-disk record framing for the append-only
// log: a fixed header followed by the key and value bytes. Every record,
// in order: crc32 (u32 LE) over everything from the timestamp field
// onward, timestamp (u64 LE), expiration (u64 LE), key_len (u32 LE),
// value_len (u32 LE, zero means a DELETE tombstone), key bytes, value
// bytes.
package format

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/casky-db/casky/internal/crc"
)

// HeaderSize is the fixed size, in bytes, of every record's header.
const HeaderSize = 4 + 8 + 8 + 4 + 4

// Record is a single decoded log entry.
type Record struct {
	CRC        uint32
	Timestamp  uint64
	Expiration uint64
	Key        []byte
	Value      []byte
}

// IsTombstone reports whether this record represents a deletion.
func (r *Record) IsTombstone() bool {
	return len(r.Value) == 0
}

// Encode serializes key, value, timestamp and expiration into one record's
// bytes, ready to append to the log. A nil or empty value encodes a
// tombstone.
func Encode(key, value []byte, timestamp, expiration uint64) []byte {
	keyLen := len(key)
	valLen := len(value)

	buf := make([]byte, HeaderSize+keyLen+valLen)
	binary.LittleEndian.PutUint64(buf[4:12], timestamp)
	binary.LittleEndian.PutUint64(buf[12:20], expiration)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(keyLen))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(valLen))
	copy(buf[HeaderSize:HeaderSize+keyLen], key)
	copy(buf[HeaderSize+keyLen:], value)

	sum := crc.Checksum(buf[4:])
	binary.LittleEndian.PutUint32(buf[0:4], sum)

	return buf
}

// ErrCorrupt is returned by Decode when a record's stored CRC disagrees
// with the freshly computed one. Callers (the log manager during recovery)
// treat this distinctly from io.EOF: it stops the scan and marks the
// keydir corrupted rather than silently ending it.
var ErrCorrupt = errCorrupt{}

type errCorrupt struct{}

func (errCorrupt) Error() string { return "crc mismatch" }

// Decode reads exactly one record from r. End-of-stream while reading the
// header is reported as io.EOF ("no more records"). A truncated payload
// (header read fully, but the key/value body is short) is also treated as
// io.EOF, per spec: decoding fails softly and discards the partial bytes.
// A CRC mismatch returns ErrCorrupt.
func Decode(r io.Reader) (*Record, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, io.EOF
	}

	storedCRC := binary.LittleEndian.Uint32(header[0:4])
	timestamp := binary.LittleEndian.Uint64(header[4:12])
	expiration := binary.LittleEndian.Uint64(header[12:20])
	keyLen := binary.LittleEndian.Uint32(header[20:24])
	valLen := binary.LittleEndian.Uint32(header[24:28])

	body := make([]byte, int(keyLen)+int(valLen))
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, io.EOF
	}

	combined := make([]byte, 0, len(header)-4+len(body))
	combined = append(combined, header[4:]...)
	combined = append(combined, body...)

	if crc.Checksum(combined) != storedCRC {
		return nil, ErrCorrupt
	}

	rec := &Record{
		CRC:        storedCRC,
		Timestamp:  timestamp,
		Expiration: expiration,
		Key:        bytes.Clone(body[:keyLen]),
		Value:      bytes.Clone(body[keyLen:]),
	}
	return rec, nil
}

// DecodeUnchecked reads exactly one record like Decode, but never fails on
// a CRC mismatch — it returns the record regardless, along with whether
// its stored CRC matched the recomputed one. Used by the log-dump tool,
// which must report a mismatch rather than stop at it.
func DecodeUnchecked(r io.Reader) (rec *Record, ok bool, err error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, false, io.EOF
	}

	storedCRC := binary.LittleEndian.Uint32(header[0:4])
	timestamp := binary.LittleEndian.Uint64(header[4:12])
	expiration := binary.LittleEndian.Uint64(header[12:20])
	keyLen := binary.LittleEndian.Uint32(header[20:24])
	valLen := binary.LittleEndian.Uint32(header[24:28])

	body := make([]byte, int(keyLen)+int(valLen))
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, false, io.EOF
	}

	combined := make([]byte, 0, len(header)-4+len(body))
	combined = append(combined, header[4:]...)
	combined = append(combined, body...)

	rec = &Record{
		CRC:        storedCRC,
		Timestamp:  timestamp,
		Expiration: expiration,
		Key:        bytes.Clone(body[:keyLen]),
		Value:      bytes.Clone(body[keyLen:]),
	}
	return rec, crc.Checksum(combined) == storedCRC, nil
}
