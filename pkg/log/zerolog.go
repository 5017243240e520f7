package log

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/autoprice/pkg/errors"
)

// Output formats accepted by NewZerolog.
const (
	FormatJSON   = "json"
	FormatPretty = "pretty"
)

// NewZerolog builds the zerolog logger used by the server and CLI. The pretty
// format uses a console writer; anything else emits JSON lines.
func NewZerolog(w io.Writer, format, level string) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stdout
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	if level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339

	out := w
	if format == FormatPretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05"}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// ZerologLogger adapts zerolog.Logger to Logger.
type ZerologLogger struct {
	l zerolog.Logger
}

// NewZerologLogger wraps l.
func NewZerologLogger(l zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{l: l}
}

// Zerolog returns the underlying zerolog logger.
func (z *ZerologLogger) Zerolog() zerolog.Logger {
	return z.l
}

func (z *ZerologLogger) Debug(msg string, fields ...any) { z.emit(z.l.Debug(), msg, fields) }
func (z *ZerologLogger) Info(msg string, fields ...any)  { z.emit(z.l.Info(), msg, fields) }
func (z *ZerologLogger) Warn(msg string, fields ...any)  { z.emit(z.l.Warn(), msg, fields) }
func (z *ZerologLogger) Error(msg string, fields ...any) { z.emit(z.l.Error(), msg, fields) }

func (z *ZerologLogger) emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	if len(fields) > 0 {
		e = e.Fields(fields)
	}
	e.Msg(msg)
}

func (z *ZerologLogger) With(fields ...any) Logger {
	return &ZerologLogger{l: z.l.With().Fields(fields).Logger()}
}

func (z *ZerologLogger) Enabled(ctx context.Context, level Level) bool {
	return toZerologLevel(level) >= z.l.GetLevel() && toZerologLevel(level) >= zerolog.GlobalLevel()
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level < LevelInfo:
		return zerolog.DebugLevel
	case level < LevelWarn:
		return zerolog.InfoLevel
	case level < LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// InstallWarnings routes errors.Warn through l. Warnings that implement
// zerolog.LogObjectMarshaler are logged with their structured fields.
func InstallWarnings(l zerolog.Logger) {
	errors.SetZerologWarnFunc(func(w error) {
		e := l.Warn()
		if obj, ok := w.(zerolog.LogObjectMarshaler); ok {
			e = e.Object("warning", obj)
		}
		e.Msg(w.Error())
	})
}
