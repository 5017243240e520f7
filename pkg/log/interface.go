// Package log provides the structured logging interface used by autoprice.
//
// Library packages log through Logger so the backend can be switched: the
// CLI and HTTP server install a zerolog-backed logger, tests install a
// TestLogger, and the default is log/slog with a JSON handler.
//
// Example usage:
//
//	logger := log.GetLogger().With(log.ModelNameKey, "LinearRegression")
//	logger.Info("Training started",
//	    log.OperationKey, log.OperationFit,
//	    log.SamplesKey, 153,
//	    log.FeaturesKey, 8,
//	)

package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with log/slog.
// Fields are alternating key/value pairs.
type Logger interface {
	// Debug logs detailed diagnostic information.
	Debug(msg string, fields ...any)

	// Info logs general operational information.
	Info(msg string, fields ...any)

	// Warn logs conditions that do not stop execution, such as a
	// rank-deficient design matrix.
	Warn(msg string, fields ...any)

	// Error logs error conditions. Pass the error under the "error" key
	// so handlers can attach its stack trace.
	Error(msg string, fields ...any)

	// With returns a Logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether records at level are emitted.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
