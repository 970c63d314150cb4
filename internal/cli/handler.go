// Package cli provides an interactive command-line shell over an
// embedded engine, adapted from the teacher's byte-slice-free handler to
// casky's []byte-keyed operations and closed error codes.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/casky-db/casky/internal/caskyerr"
	"github.com/casky-db/casky/internal/engine"
)

// Handler manages the interactive command-line interface.
type Handler struct {
	engine  *engine.Engine
	scanner *bufio.Scanner
}

// NewHandler creates a new CLI handler over an already-open engine.
func NewHandler(e *engine.Engine) *Handler {
	return &Handler{
		engine:  e,
		scanner: bufio.NewScanner(os.Stdin),
	}
}

// Run starts the interactive command loop, processing user input until
// an exit command is received or an error occurs.
func (h *Handler) Run() error {
	fmt.Println("casky - embeddable key-value store")
	fmt.Println("Commands: PUT <key> <value> [ttl_seconds], GET <key>, DELETE <key>, COMPACT, STATS, EXIT")
	fmt.Print("> ")

	for h.scanner.Scan() {
		line := strings.TrimSpace(h.scanner.Text())
		if line == "" {
			fmt.Print("> ")
			continue
		}

		parts := strings.Fields(line)
		command := strings.ToUpper(parts[0])

		switch command {
		case "PUT":
			h.handlePut(parts)
		case "GET":
			h.handleGet(parts)
		case "DELETE", "DEL":
			h.handleDelete(parts)
		case "COMPACT":
			h.handleCompact()
		case "STATS":
			h.handleStats()
		case "EXIT", "QUIT":
			slog.Info("cli: shutdown requested by user")
			fmt.Println("Goodbye!")
			return nil
		default:
			slog.Warn("cli: unknown command received", "command", command)
			fmt.Printf("Unknown command: %s\n", command)
		}

		fmt.Print("> ")
	}

	if err := h.scanner.Err(); err != nil {
		return fmt.Errorf("cli: read input: %w", err)
	}
	return nil
}

func (h *Handler) handlePut(parts []string) {
	if len(parts) < 3 {
		fmt.Println("Usage: PUT <key> <value> [ttl_seconds]")
		return
	}

	key := parts[1]
	value := parts[2]
	var ttl uint64
	if len(parts) >= 4 {
		if n, err := strconv.ParseUint(parts[3], 10, 64); err == nil {
			ttl = n
			value = strings.Join(parts[2:len(parts)-1], " ")
		} else {
			value = strings.Join(parts[2:], " ")
		}
	}

	slog.Debug("cli: put", "key", key, "value_size", len(value), "ttl", ttl)
	if err := h.engine.Put([]byte(key), []byte(value), ttl); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("OK")
}

func (h *Handler) handleGet(parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: GET <key>")
		return
	}

	value, err := h.engine.Get([]byte(parts[1]))
	if errors.Is(err, caskyerr.KeyNotFound) {
		fmt.Println("NOT_FOUND")
		return
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("%s\n", value)
}

func (h *Handler) handleDelete(parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: DELETE <key>")
		return
	}

	err := h.engine.Delete([]byte(parts[1]))
	if errors.Is(err, caskyerr.KeyNotFound) {
		fmt.Println("NOT_FOUND")
		return
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("OK")
}

func (h *Handler) handleCompact() {
	if err := h.engine.Compact(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("OK")
}

func (h *Handler) handleStats() {
	snap := h.engine.Stats()
	fmt.Printf("total_keys %d\n", snap.TotalKeys)
	fmt.Printf("memory_bytes %d\n", snap.MemoryBytes)
	fmt.Printf("num_puts %d\n", snap.NumPuts)
	fmt.Printf("num_gets %d\n", snap.NumGets)
	fmt.Printf("num_deletes %d\n", snap.NumDeletes)
}
