// Command casky runs casky's interactive shell over an embedded engine.
package main

import (
	"log"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/casky-db/casky/internal/cli"
	"github.com/casky-db/casky/internal/config"
	"github.com/casky-db/casky/internal/engine"
)

func main() {
	var (
		dataDir    = flag.StringP("data-dir", "d", "", "directory holding the log file (defaults to config.yml's DATA_DIR)")
		threadSafe = flag.Bool("thread-safe", false, "guard every operation with a mutex (overrides config.yml)")
	)
	flag.Parse()

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(handler))

	slog.Info("casky: loading configuration")
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("casky: failed to load configuration", "error", err)
		log.Fatalf("failed to load config: %v", err)
	}

	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if flag.Lookup("thread-safe").Changed {
		cfg.ThreadSafe = *threadSafe
	}

	eng, err := engine.Open(cfg)
	if err != nil {
		slog.Error("casky: failed to open engine", "error", err)
		log.Fatalf("failed to open engine: %v", err)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			slog.Error("casky: error closing engine", "error", err)
		}
	}()

	if eng.Corrupted() {
		slog.Warn("casky: log was corrupted, recovered up to the first bad record")
	}

	handlerCLI := cli.NewHandler(eng)
	if err := handlerCLI.Run(); err != nil {
		slog.Error("casky: cli error", "error", err)
		log.Fatalf("cli error: %v", err)
	}
}
