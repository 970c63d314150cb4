package caskyerr

import "testing"

func TestStrerror(t *testing.T) {
	tests := []struct {
		name string
		code Code
		want string
	}{
		{"ok", OK, "OK"},
		{"invalid path", InvalidPath, "invalid path"},
		{"invalid pointer", InvalidPointer, "invalid pointer"},
		{"io", IO, "I/O error"},
		{"memory", Memory, "out of memory"},
		{"corrupt", Corrupt, "data corrupt"},
		{"invalid key", InvalidKey, "invalid key"},
		{"key not found", KeyNotFound, "key not found"},
		{"unknown", Code(99), "unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strerror(tt.code); got != tt.want {
				t.Errorf("Strerror(%v) = %q, want %q", tt.code, got, tt.want)
			}
			if got := tt.code.Error(); got != tt.want {
				t.Errorf("Code.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLastErrorTracking(t *testing.T) {
	Track(KeyNotFound)
	if got := LastError(); got != KeyNotFound {
		t.Errorf("LastError() = %v, want %v", got, KeyNotFound)
	}

	Track(OK)
	if got := LastError(); got != OK {
		t.Errorf("LastError() = %v, want %v", got, OK)
	}
}
