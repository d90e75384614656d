package log

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides structured logging capabilities.
type Logger interface {
	// Debug logs a debug-level message with fields.
	Debug(msg string, fields ...Field)

	// Info logs an info-level message with fields.
	Info(msg string, fields ...Field)

	// Warn logs a warning-level message with fields.
	Warn(msg string, fields ...Field)

	// Error logs an error-level message with fields.
	Error(msg string, fields ...Field)
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field.
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Float64 creates a float64 field.
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field with key "error".
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// Any creates a field with any value.
func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Backend names a logging backend.
type Backend string

const (
	BackendZerolog Backend = "zerolog"
	BackendZap     Backend = "zap"
	BackendNop     Backend = "nop"
)

// Options configures [New].
type Options struct {
	// Backend selects the implementation. Empty means zerolog.
	Backend Backend
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// JSON switches zerolog from console to JSON output and zap from the
	// development to the production encoder.
	JSON bool
}

// New builds a Logger writing to stderr.
func New(opts Options) (Logger, error) {
	level := strings.ToLower(strings.TrimSpace(opts.Level))
	if level == "" {
		level = "info"
	}

	switch opts.Backend {
	case "", BackendZerolog:
		lvl, err := zerolog.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log: invalid level %q: %w", opts.Level, err)
		}
		var logger zerolog.Logger
		if opts.JSON {
			logger = zerolog.New(os.Stderr)
		} else {
			logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		}
		return NewZerologAdapterWithLogger(logger.Level(lvl).With().Timestamp().Logger()), nil

	case BackendZap:
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log: invalid level %q: %w", opts.Level, err)
		}
		cfg := zap.NewDevelopmentConfig()
		if opts.JSON {
			cfg = zap.NewProductionConfig()
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		logger, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("log: build zap logger: %w", err)
		}
		return NewZapAdapter(logger), nil

	case BackendNop:
		return NewNoopLogger(), nil

	default:
		return nil, fmt.Errorf("log: unknown backend %q", opts.Backend)
	}
}

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger
)

// Default returns the process-wide logger. Until SetDefault is called it is
// a zerolog console logger at info level.
func Default() Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewZerologAdapter()
	}
	return defaultLogger
}

// SetDefault replaces the process-wide logger. Pass nil to restore the
// zerolog default.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}
