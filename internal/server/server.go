// Package server implements casky's TCP line protocol, the daemon's one
// and only external collaborator. See spec §6.
package server

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/casky-db/casky/internal/caskyerr"
	"github.com/casky-db/casky/internal/engine"
	"github.com/casky-db/casky/internal/version"
)

// Server wraps an Engine and serves the line protocol over TCP.
type Server struct {
	eng *engine.Engine
	ln  net.Listener
}

// New wraps an already-open engine.
func New(eng *engine.Engine) *Server {
	return &Server{eng: eng}
}

// ListenAndServe binds addr and serves connections until Close is called
// or Accept fails permanently.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	s.ln = ln
	slog.Info("server: listening", "addr", addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			slog.Warn("server: accept failed", "error", err)
			continue
		}
		go s.handleConn(conn)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	addr := conn.RemoteAddr().String()
	slog.Info("server: client connected", "addr", addr)

	w := bufio.NewWriter(conn)
	banner := fmt.Sprintf("CASKY %s READY", version.String())
	if s.eng.ThreadSafe() {
		banner += " (thread-safe)"
	}
	writeLine(w, banner)

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			writeLine(w, "ERROR invalid command")
			continue
		}

		fields := strings.Fields(line)
		verb := strings.ToUpper(fields[0])
		args := fields[1:]

		switch verb {
		case "PUT":
			s.handlePut(w, args)
		case "GET":
			s.handleGet(w, args)
		case "DEL":
			s.handleDel(w, args)
		case "COMPACT":
			s.handleCompact(w)
		case "STATS":
			s.handleStats(w)
		case "VER":
			s.handleVer(w)
		case "QUIT":
			writeLine(w, "BYE")
			return
		default:
			writeLine(w, "ERROR unknown command")
		}
	}

	if err := scanner.Err(); err != nil {
		slog.Warn("server: connection read error", "addr", addr, "error", err)
	}
	slog.Info("server: client disconnected", "addr", addr)
}

func (s *Server) handlePut(w *bufio.Writer, args []string) {
	if len(args) < 2 {
		writeLine(w, "ERROR usage: PUT <key> <value>")
		return
	}
	key, value := args[0], strings.Join(args[1:], " ")

	if err := s.eng.Put([]byte(key), []byte(value), 0); err != nil {
		writeLine(w, "ERROR "+errCode(err))
		return
	}
	writeLine(w, "OK")
}

func (s *Server) handleGet(w *bufio.Writer, args []string) {
	if len(args) != 1 {
		writeLine(w, "ERROR usage: GET <key>")
		return
	}

	value, err := s.eng.Get([]byte(args[0]))
	if errors.Is(err, caskyerr.KeyNotFound) {
		writeLine(w, "NOT_FOUND")
		return
	}
	if err != nil {
		writeLine(w, "ERROR "+errCode(err))
		return
	}
	writeLine(w, "VALUE "+string(value))
}

func (s *Server) handleDel(w *bufio.Writer, args []string) {
	if len(args) != 1 {
		writeLine(w, "ERROR usage: DEL <key>")
		return
	}

	err := s.eng.Delete([]byte(args[0]))
	if errors.Is(err, caskyerr.KeyNotFound) {
		writeLine(w, "NOT_FOUND")
		return
	}
	if err != nil {
		writeLine(w, "ERROR "+errCode(err))
		return
	}
	writeLine(w, "OK")
}

func (s *Server) handleCompact(w *bufio.Writer) {
	if !s.eng.ThreadSafe() {
		writeLine(w, "ERROR not supported")
		return
	}
	if err := s.eng.Compact(); err != nil {
		writeLine(w, "ERROR "+errCode(err))
		return
	}
	writeLine(w, "OK")
}

func (s *Server) handleStats(w *bufio.Writer) {
	snap := s.eng.Stats()
	writeLine(w, "total_keys "+strconv.FormatUint(snap.TotalKeys, 10))
	writeLine(w, "memory_bytes "+strconv.FormatUint(snap.MemoryBytes, 10))
	writeLine(w, "num_puts "+strconv.FormatUint(snap.NumPuts, 10))
	writeLine(w, "num_gets "+strconv.FormatUint(snap.NumGets, 10))
	writeLine(w, "num_deletes "+strconv.FormatUint(snap.NumDeletes, 10))
}

func (s *Server) handleVer(w *bufio.Writer) {
	line := version.String()
	if s.eng.ThreadSafe() {
		line += " (thread-safe)"
	}
	writeLine(w, line)
}

func writeLine(w *bufio.Writer, line string) {
	w.WriteString(line)
	w.WriteString("\n")
	w.Flush()
}

// errCode renders an error as the §6 closed-enumeration code string the
// protocol expects after "ERROR ".
func errCode(err error) string {
	var code caskyerr.Code
	if errors.As(err, &code) {
		return caskyerr.Strerror(code)
	}
	return caskyerr.Strerror(caskyerr.IO)
}
