// Package caskyerr defines the closed error enumeration returned by the
// storage engine. Every operation returns one of these codes wrapped as a
// Go error; a package-level last-error value is kept only as a thin
// compatibility shim for callers embedding casky the way the original C
// library's errno-style global worked.
package caskyerr

import "sync/atomic"

// Code is a member of the closed error enumeration described in spec §6/§7.
type Code int

const (
	OK Code = iota
	InvalidPath
	InvalidPointer
	IO
	Memory
	Corrupt
	InvalidKey
	KeyNotFound
)

// Error satisfies the error interface, so a Code can be returned directly
// and compared with errors.Is.
func (c Code) Error() string {
	return Strerror(c)
}

// Strerror returns a human-readable description of an error code.
func Strerror(c Code) string {
	switch c {
	case OK:
		return "OK"
	case InvalidPath:
		return "invalid path"
	case InvalidPointer:
		return "invalid pointer"
	case IO:
		return "I/O error"
	case Memory:
		return "out of memory"
	case Corrupt:
		return "data corrupt"
	case InvalidKey:
		return "invalid key"
	case KeyNotFound:
		return "key not found"
	default:
		return "unknown error"
	}
}

var last atomic.Value // stores Code

// Track records the most recent error code in the process-global
// compatibility shim. Library callers should prefer the returned error from
// each operation; this exists only for code embedding casky in the style of
// the original errno-based API.
func Track(c Code) {
	last.Store(c)
}

// LastError returns the most recently tracked error code, OK if none has
// been tracked yet.
func LastError() Code {
	v := last.Load()
	if v == nil {
		return OK
	}
	return v.(Code)
}
