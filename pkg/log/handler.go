package log

import (
	"context"
	"log/slog"

	crdb "github.com/cockroachdb/errors"

	"github.com/YuminosukeSato/autoprice/pkg/errors"
)

// ErrFmtHandler decorates records carrying an "error" attribute with the
// error's stable code and, for cockroachdb errors, its stack trace.
type ErrFmtHandler struct {
	next slog.Handler
}

// WrapByErrFmtHandler wraps next with error decoration.
func WrapByErrFmtHandler(next slog.Handler) slog.Handler {
	return &ErrFmtHandler{next: next}
}

func (h *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.next.Enabled(ctx, l)
}

func (h *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var found error
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key != ErrAttrKey {
			return true
		}
		found, _ = attr.Value.Any().(error)
		return false
	})
	if found == nil {
		return h.next.Handle(ctx, r)
	}

	r.AddAttrs(slog.String(ErrorCodeKey, errors.Kind(found)))
	if details := crdb.GetSafeDetails(found).SafeDetails; len(details) > 0 && details[0] != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, details[0]))
	}
	return h.next.Handle(ctx, r)
}

func (h *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{next: h.next.WithGroup(g)}
}
