package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// Global logger instance. Component loggers derive from it at package init,
	// so its output is a swappable writer rather than a fixed one.
	Logger zerolog.Logger

	output = &swapWriter{w: os.Stdout}
)

func init() {
	Logger = zerolog.New(output).With().Timestamp().Logger()
}

// swapWriter lets Initialize redirect loggers that were created before it ran.
type swapWriter struct {
	mu sync.RWMutex
	w  io.Writer
}

func (s *swapWriter) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w.Write(p)
}

func (s *swapWriter) set(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
}

// Initialize sets up the global logger with appropriate configuration
func Initialize(logLevel string) {
	zerolog.TimeFieldFormat = time.RFC3339

	output.set(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    false,
	})

	Logger = zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger()

	SetLevel(logLevel)

	// Replace standard log with zerolog
	log.Logger = Logger
}

// SetLevel sets the global level; unknown names fall back to info.
func SetLevel(logLevel string) {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil || logLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// SetOutput redirects every logger, component loggers included.
func SetOutput(w io.Writer) {
	output.set(w)
}

// Get returns the global logger instance
func Get() *zerolog.Logger {
	return &Logger
}

// GetForComponent returns a logger with a component field for better filtering
func GetForComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// FileWriter opens path for appending log lines.
func FileWriter(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// TeeToFile copies every log line to path alongside the current output. The
// caller closes the returned file on shutdown.
func TeeToFile(path string) (io.Closer, error) {
	file, err := FileWriter(path)
	if err != nil {
		return nil, err
	}

	output.mu.Lock()
	output.w = io.MultiWriter(output.w, file)
	output.mu.Unlock()
	return file, nil
}
