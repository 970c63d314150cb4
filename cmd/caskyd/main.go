// Command caskyd runs casky's TCP line-protocol daemon.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/casky-db/casky/internal/config"
	"github.com/casky-db/casky/internal/engine"
	"github.com/casky-db/casky/internal/server"
)

func main() {
	var (
		dataDir     = flag.StringP("data-dir", "d", "", "directory holding the log file (defaults to config.yml's DATA_DIR)")
		port        = flag.IntP("port", "p", 0, "TCP port to listen on (defaults to config.yml's TCP_PORT)")
		threadSafe  = flag.Bool("thread-safe", false, "guard every operation with a mutex (overrides config.yml)")
		syncOnWrite = flag.Bool("sync-on-write", false, "fsync after every append (overrides config.yml)")
	)
	flag.Parse()

	setupLogging()

	slog.Info("caskyd: loading configuration")
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("caskyd: failed to load configuration", "error", err)
		log.Fatalf("failed to load config: %v", err)
	}

	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *port != 0 {
		cfg.TCPPort = *port
	}
	if flag.Lookup("thread-safe").Changed {
		cfg.ThreadSafe = *threadSafe
	}
	if flag.Lookup("sync-on-write").Changed {
		cfg.SyncOnWrite = *syncOnWrite
	}

	eng, err := engine.Open(cfg)
	if err != nil {
		slog.Error("caskyd: failed to open engine", "error", err)
		log.Fatalf("failed to open engine: %v", err)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			slog.Error("caskyd: error closing engine", "error", err)
		}
	}()

	if eng.Corrupted() {
		slog.Warn("caskyd: log was corrupted, recovered up to the first bad record")
	}

	srv := server.New(eng)
	addr := ":" + strconv.Itoa(cfg.TCPPort)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		slog.Info("caskyd: shutdown signal received")
		srv.Close()
	}()

	slog.Info("caskyd: starting", "addr", addr, "thread_safe", cfg.ThreadSafe)
	if err := srv.ListenAndServe(addr); err != nil {
		slog.Error("caskyd: server error", "error", err)
		log.Fatal(err)
	}
}

// setupLogging configures slog's level from CASKYD_LOG_LEVEL, defaulting
// to INFO (spec §6).
func setupLogging() {
	level := slog.LevelInfo
	switch os.Getenv("CASKYD_LOG_LEVEL") {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	case "":
	default:
		fmt.Fprintf(os.Stderr, "caskyd: unrecognized CASKYD_LOG_LEVEL, defaulting to INFO\n")
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
