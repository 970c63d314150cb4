package config

import "testing"

func TestNewAppliesDefaults(t *testing.T) {
	cfg := New("/tmp/casky-test")

	if cfg.DataDir != "/tmp/casky-test" {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, "/tmp/casky-test")
	}
	if cfg.LogFileName != defaultLogFileName {
		t.Errorf("LogFileName = %q, want %q", cfg.LogFileName, defaultLogFileName)
	}
	if cfg.NumBuckets != defaultNumBuckets {
		t.Errorf("NumBuckets = %d, want %d", cfg.NumBuckets, defaultNumBuckets)
	}
	if cfg.TCPPort != defaultTCPPort {
		t.Errorf("TCPPort = %d, want %d", cfg.TCPPort, defaultTCPPort)
	}
}

func TestNewEmptyDataDirDefaults(t *testing.T) {
	cfg := New("")
	if cfg.DataDir == "" {
		t.Error("expected a non-empty default data dir")
	}
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{DataDir: "/x", LogFileName: "custom.log", NumBuckets: 64, TCPPort: 9999}
	applyDefaults(cfg)

	if cfg.LogFileName != "custom.log" {
		t.Errorf("LogFileName = %q, want %q", cfg.LogFileName, "custom.log")
	}
	if cfg.NumBuckets != 64 {
		t.Errorf("NumBuckets = %d, want 64", cfg.NumBuckets)
	}
	if cfg.TCPPort != 9999 {
		t.Errorf("TCPPort = %d, want 9999", cfg.TCPPort)
	}
}
