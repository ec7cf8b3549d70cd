package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// MaskValue replaces the value of a masked attribute.
const MaskValue = "***REDACTED***"

// sensitiveKeys are attribute keys whose values never reach the log.
var sensitiveKeys = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
	"password":      true,
	"passwd":        true,
	"secret":        true,
	"token":         true,
	"session":       true,
	"sid":           true,
	// hidden anti-forgery value of the login form
	"code": true,
	// phpBB session cookies
	"phpbb2mysql_sid":  true,
	"phpbb2mysql_data": true,
}

// sensitiveKeywords mask any key that contains them, e.g. "account.password".
var sensitiveKeywords = []string{"password", "cookie", "secret", "token", "phpbb2mysql"}

// sidParam matches a phpBB session id appended to a URL query.
var sidParam = regexp.MustCompile(`([?&]sid=)[0-9A-Za-z]+`)

// SecureHandler masks credentials and session identifiers before the record
// reaches the wrapped handler. Values of sensitive keys are replaced with
// MaskValue and session ids embedded in URLs are cut out of string values.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler wraps handler. A nil handler wraps slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled implements slog.Handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	clean := slog.NewRecord(r.Time, r.Level, scrubString(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, clean)
}

// WithAttrs implements slog.Handler.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(clean)}
}

// WithGroup implements slog.Handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func sanitizeAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		group := v.Group()
		clean := make([]any, len(group))
		for i, ga := range group {
			clean[i] = sanitizeAttr(ga)
		}
		return slog.Group(a.Key, clean...)
	}
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}
	if v.Kind() == slog.KindString {
		return slog.String(a.Key, scrubString(v.String()))
	}
	if v.Kind() == slog.KindAny {
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, scrubString(err.Error()))
		}
	}
	return slog.Attr{Key: a.Key, Value: v}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	if sensitiveKeys[lower] {
		return true
	}
	for _, kw := range sensitiveKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// scrubString removes session ids from URLs found in s.
func scrubString(s string) string {
	if !strings.Contains(s, "sid=") {
		return s
	}
	return sidParam.ReplaceAllString(s, "${1}"+MaskValue)
}

// NewSecureLogger returns a text logger writing to w through a SecureHandler.
// The level is Debug when verbose is set and Info otherwise.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	text := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewSecureHandler(text))
}
