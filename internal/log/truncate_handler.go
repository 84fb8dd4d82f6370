package log

import (
	"context"
	"log/slog"
	"unicode/utf8"
)

// DefaultMaxAttrLen is the default maximum length for logged attribute
// values. Scraped pages routinely exceed this by orders of magnitude.
const DefaultMaxAttrLen = 256

// truncationMarker is appended to values that were cut short.
const truncationMarker = "...(truncated)"

// TruncateHandler wraps an slog.Handler and truncates string attribute
// values longer than a configured limit before passing records on.
//
// Design decision: We use a handler wrapper rather than trimming at each
// call site because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Call sites stay readable; nobody has to remember to trim
type TruncateHandler struct {
	// handler is the underlying slog handler that receives trimmed records.
	handler slog.Handler

	// maxLen is the maximum attribute value length in bytes.
	maxLen int
}

// TruncateHandlerOption configures a TruncateHandler.
type TruncateHandlerOption func(*TruncateHandler)

// WithMaxAttrLen sets the maximum attribute value length.
// Non-positive values fall back to DefaultMaxAttrLen.
func WithMaxAttrLen(n int) TruncateHandlerOption {
	return func(h *TruncateHandler) {
		if n > 0 {
			h.maxLen = n
		}
	}
}

// NewTruncateHandler creates a TruncateHandler wrapping the given handler.
// If handler is nil, the returned TruncateHandler uses slog.Default()'s
// handler.
func NewTruncateHandler(handler slog.Handler, opts ...TruncateHandlerOption) *TruncateHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	h := &TruncateHandler{
		handler: handler,
		maxLen:  DefaultMaxAttrLen,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *TruncateHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle truncates the record's attributes and passes it to the underlying
// handler.
func (h *TruncateHandler) Handle(ctx context.Context, r slog.Record) error {
	trimmed := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		trimmed.AddAttrs(h.truncateAttr(a))
		return true
	})
	return h.handler.Handle(ctx, trimmed)
}

// WithAttrs returns a new TruncateHandler whose underlying handler has the
// given (truncated) attributes.
func (h *TruncateHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	trimmed := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		trimmed = append(trimmed, h.truncateAttr(a))
	}
	return &TruncateHandler{
		handler: h.handler.WithAttrs(trimmed),
		maxLen:  h.maxLen,
	}
}

// WithGroup returns a new TruncateHandler with the given group name.
func (h *TruncateHandler) WithGroup(name string) slog.Handler {
	return &TruncateHandler{
		handler: h.handler.WithGroup(name),
		maxLen:  h.maxLen,
	}
}

// truncateAttr returns the attribute with its value cut to maxLen bytes
// when it is an oversized string. Group attributes are truncated member by
// member; non-string values pass through untouched.
func (h *TruncateHandler) truncateAttr(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if len(s) > h.maxLen {
			a.Value = slog.StringValue(truncate(s, h.maxLen) + truncationMarker)
		}
	case slog.KindGroup:
		members := a.Value.Group()
		trimmed := make([]any, 0, len(members))
		for _, m := range members {
			trimmed = append(trimmed, h.truncateAttr(m))
		}
		a.Value = slog.GroupValue(attrsOf(trimmed)...)
	default:
		// Numeric and time values never need trimming.
	}
	return a
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// attrsOf converts a []any of slog.Attr back to []slog.Attr.
func attrsOf(values []any) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(values))
	for _, v := range values {
		if a, ok := v.(slog.Attr); ok {
			attrs = append(attrs, a)
		}
	}
	return attrs
}
