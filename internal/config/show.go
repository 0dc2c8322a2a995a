package config

import (
	"fmt"
	"io"
)

// RenderEffective writes the resolved configuration as a human-readable
// annotated summary to w. This powers the "config show" command, giving
// users visibility into the effective values after all four override layers
// (defaults -> file -> env -> CLI) have been applied.
func RenderEffective(cfg *Config, w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("# Effective configuration\n\n")

	renderEngineSection(ew, &cfg.Engine)
	renderSessionSection(ew, &cfg.Session)
	renderTransfersSection(ew, &cfg.Transfers)
	renderStreamingSection(ew, &cfg.Streaming)
	renderJournalSection(ew, &cfg.Journal)
	renderLoggingSection(ew, &cfg.Logging)

	return ew.err
}

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops, so callers can chain
// printf calls without checking each one individually.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func renderEngineSection(ew *errWriter, e *EngineConfig) {
	ew.printf("[engine]\n")
	ew.printf("  provider = %q\n", e.Provider)

	if e.DSN != "" {
		ew.printf("  dsn      = %q\n", e.DSN)
	}

	ew.printf("\n")
}

func renderSessionSection(ew *errWriter, s *SessionConfig) {
	ew.printf("[session]\n")
	ew.printf("  email = %q\n", s.Email)
	ew.printf("\n")
}

func renderTransfersSection(ew *errWriter, t *TransfersConfig) {
	ew.printf("[transfers]\n")
	ew.printf("  parallel = %d\n", t.Parallel)
	ew.printf("\n")
}

func renderStreamingSection(ew *errWriter, s *StreamingConfig) {
	ew.printf("[streaming]\n")
	ew.printf("  chunk_size = %q\n", s.ChunkSize)
	ew.printf("\n")
}

func renderJournalSection(ew *errWriter, j *JournalConfig) {
	ew.printf("[journal]\n")
	ew.printf("  enabled = %t\n", j.Enabled)

	if j.Path != "" {
		ew.printf("  path    = %q\n", j.Path)
	}

	ew.printf("\n")
}

func renderLoggingSection(ew *errWriter, l *LoggingConfig) {
	ew.printf("[logging]\n")
	ew.printf("  level  = %q\n", l.Level)
	ew.printf("  format = %q\n", l.Format)

	if l.File != "" {
		ew.printf("  file   = %q\n", l.File)
	}
}
