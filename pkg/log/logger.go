package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger = NewSlogLogger(slog.Default())
)

// GetLogger returns the process-wide default logger.
func GetLogger() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetLogger replaces the process-wide default logger.
func SetLogger(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// SetupLogger installs a JSON slog handler writing to stdout as both the slog
// default and the package default.
func SetupLogger(loglevel string) error {
	return SetupLoggerTo(os.Stdout, loglevel)
}

// SetupLoggerTo is SetupLogger with an explicit destination.
func SetupLoggerTo(w io.Writer, loglevel string) error {
	level, err := ToLogLevel(loglevel)
	if err != nil {
		return err
	}
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr.Key = "severity"
			case slog.MessageKey:
				attr.Key = "message"
			}
			return attr
		},
	}
	handler := slog.NewJSONHandler(w, &ops)
	logger := slog.New(WrapByErrFmtHandler(handler))
	slog.SetDefault(logger)
	SetLogger(NewSlogLogger(logger))
	return nil
}

// ToLogLevel parses a level name.
func ToLogLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", level)
	}
}

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// SlogLogger adapts *slog.Logger to Logger.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps l.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

func (s *SlogLogger) Debug(msg string, fields ...any) { s.l.Debug(msg, fields...) }
func (s *SlogLogger) Info(msg string, fields ...any)  { s.l.Info(msg, fields...) }
func (s *SlogLogger) Warn(msg string, fields ...any)  { s.l.Warn(msg, fields...) }
func (s *SlogLogger) Error(msg string, fields ...any) { s.l.Error(msg, fields...) }

func (s *SlogLogger) With(fields ...any) Logger {
	return &SlogLogger{l: s.l.With(fields...)}
}

func (s *SlogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.l.Enabled(ctx, slog.Level(level))
}
