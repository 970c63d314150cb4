// Package config provides configuration management for casky. It loads
// settings from a YAML file and environment variables, with thread-safe
// singleton access, in the same style as the teacher this repo is built
// from: godotenv for an optional .env file, yaml.v2 for the file itself,
// os.ExpandEnv for variable interpolation.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config holds every tunable of the storage engine and its companion
// daemon.
type Config struct {
	DataDir      string `yaml:"DATA_DIR"`      // directory holding the log file
	LogFileName  string `yaml:"LOG_FILE_NAME"` // log file name within DataDir
	NumBuckets   int    `yaml:"NUM_BUCKETS"`   // keydir bucket count
	SyncOnWrite  bool   `yaml:"SYNC_ON_WRITE"` // fsync after every append
	ThreadSafe   bool   `yaml:"THREAD_SAFE"`   // guard every operation with a mutex
	TCPPort      int    `yaml:"TCP_PORT"`      // port for the line-protocol daemon
}

const (
	defaultLogFileName = "active.log"
	defaultNumBuckets  = 1024
	defaultTCPPort     = 5050
)

var (
	appConfig *Config
	once      sync.Once
	initErr   error
)

// LoadConfig reads configuration from internal/config/config.yml,
// expanding environment variables in its values with os.ExpandEnv, and
// optionally loads a .env file first. It is idempotent: later calls
// return the result of the first call.
func LoadConfig() (*Config, error) {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			slog.Debug("config: no .env file found or error loading it", "error", err)
		} else {
			slog.Debug("config: .env file loaded successfully")
		}

		file, err := os.ReadFile("internal/config/config.yml")
		if err != nil {
			initErr = fmt.Errorf("config: read config.yml: %w", err)
			return
		}

		var cfg Config
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(file))), &cfg); err != nil {
			initErr = fmt.Errorf("config: parse config.yml: %w", err)
			return
		}

		applyDefaults(&cfg)
		appConfig = &cfg
	})
	return appConfig, initErr
}

// GetConfig returns the singleton configuration. Panics if LoadConfig has
// not yet succeeded.
func GetConfig() *Config {
	if appConfig == nil {
		panic("config: not loaded - call LoadConfig() first")
	}
	return appConfig
}

// applyDefaults fills in zero-valued fields with casky's defaults, the
// same role the teacher's config played implicitly via its YAML file.
func applyDefaults(cfg *Config) {
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.LogFileName == "" {
		cfg.LogFileName = defaultLogFileName
	}
	if cfg.NumBuckets <= 0 {
		cfg.NumBuckets = defaultNumBuckets
	}
	if cfg.TCPPort <= 0 {
		cfg.TCPPort = defaultTCPPort
	}
}

// New builds a Config directly (bypassing the YAML file), for embedding
// and for tests. Defaults are applied the same way LoadConfig does.
func New(dataDir string) *Config {
	cfg := &Config{DataDir: dataDir}
	applyDefaults(cfg)
	return cfg
}
