// Package logger provides verbose logging for the camdeck CLI.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to help users follow indexing and playback.
//
// A Logger is created once by the entry point and handed to every
// component that logs. There is no package-level logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Logger writes prefixed diagnostic lines when verbose mode is on.
// The zero value is not usable; use New or Nop.
type Logger struct {
	mu      sync.RWMutex
	verbose bool
	output  io.Writer
}

// New creates a logger writing to w. A nil writer defaults to os.Stderr.
func New(w io.Writer, verbose bool) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{verbose: verbose, output: w}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{output: io.Discard}
}

// SetVerbose enables or disables verbose logging.
func (l *Logger) SetVerbose(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func (l *Logger) IsVerbose() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.verbose
}

// SetOutput sets the output writer for verbose logs.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

// Writer returns the current output, for libraries that log to an
// io.Writer. It ignores the verbose setting.
func (l *Logger) Writer() io.Writer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.output
}

// Debug prints a message if verbose mode is enabled.
func (l *Logger) Debug(format string, args ...any) {
	l.printf("[DEBUG] ", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func (l *Logger) Section(name string) {
	if l == nil {
		return
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.verbose {
		fmt.Fprintf(l.output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func (l *Logger) Info(format string, args ...any) {
	l.printf("[INFO] ", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func (l *Logger) Warn(format string, args ...any) {
	l.printf("[WARN] ", format, args...)
}

func (l *Logger) printf(prefix, format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.verbose {
		fmt.Fprintf(l.output, prefix+format+"\n", args...)
	}
}
