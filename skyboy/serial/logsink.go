package serial

import (
	"bytes"
	"log/slog"
	"sync"
)

// LogSink is a serial device that logs outgoing bytes as text, one slog record
// per line. Handy for test roms that report over serial.
//
// Everything transferred is also kept in a transcript that can be inspected later.
type LogSink struct {
	mu         sync.Mutex
	logger     *slog.Logger
	line       []byte
	transcript bytes.Buffer
	quiet      bool
}

type LogSinkOption func(*LogSink)

// WithLogger sets the logger receiving completed lines.
func WithLogger(logger *slog.Logger) LogSinkOption {
	return func(s *LogSink) { s.logger = logger }
}

// Quiet disables line logging, only the transcript is kept.
func Quiet() LogSinkOption {
	return func(s *LogSink) { s.quiet = true }
}

// NewLogSink creates a new logging serial device.
func NewLogSink(opts ...LogSinkOption) *LogSink {
	s := &LogSink{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transfer receives one byte written to SB.
func (s *LogSink) Transfer(value byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcript.WriteByte(value)

	// buffer until newline for readability
	if value == 0 || value == '\n' || value == '\r' {
		s.flushLocked()
		return
	}
	s.line = append(s.line, value)
}

// Flush logs any partial line.
func (s *LogSink) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
}

// Output returns everything transferred so far.
func (s *LogSink) Output() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.String()
}

// Reset drops the transcript and any pending line.
func (s *LogSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript.Reset()
	s.line = s.line[:0]
}

func (s *LogSink) flushLocked() {
	if len(s.line) == 0 {
		return
	}
	if !s.quiet {
		s.logger.Info("serial", "line", string(s.line))
	}
	s.line = s.line[:0]
}
