// Package runlog provides the diagnostic logger and progress banners
// blobpack/blobunpack write to standard error (spec.md §6).
//
// Adapted from the teacher's internal/logging package: same slog-backed
// structured logger and the same per-operation correlation-id pattern
// (there: WithRequestID/RequestIDKey on an HTTP context; here: a per-run
// UUID attached once at startup), trimmed to what a single-shot batch CLI
// needs instead of a long-lived server.
package runlog

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Logger is the diagnostic logger for one pack/unpack run. Every
// diagnostic record carries the run's id so that interleaved invocations
// in a shared log stream (e.g. piped through a supervisor) can be told
// apart; the user-facing progress banners bypass it entirely and go to
// stderr as plain lines, matching spec.md §6's exact wording.
type Logger struct {
	slog   *slog.Logger
	banner io.Writer
}

// New creates a Logger that writes structured diagnostics as text to w
// (normally os.Stderr) and tags every record with a fresh run id.
func New(w io.Writer) *Logger {
	runID := uuid.NewString()
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	base := slog.New(handler).With("run_id", runID)
	return &Logger{slog: base, banner: w}
}

// Banner writes a progress-banner line (e.g. spec.md §6's "Generating
// fragments...", or blobunpack's "Reconstructing blobs...") verbatim to
// the banner stream.
func (l *Logger) Banner(msg string) {
	fmt.Fprintln(l.banner, msg)
}

// Info logs a structured diagnostic at info level.
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// Error logs a structured diagnostic at error level.
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// Bytes renders n as a humanized byte count for diagnostic messages
// (e.g. "142 kB" instead of a bare integer), matching the teacher's
// general preference for humanized units in CLI-facing output.
func Bytes(n int64) string {
	if n < 0 {
		return humanize.Bytes(0)
	}
	return humanize.Bytes(uint64(n))
}
