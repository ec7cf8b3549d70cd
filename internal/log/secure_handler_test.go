package log

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestSecureHandler_MasksSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{name: "password", key: "password", value: "hunter2", wantMask: true},
		{name: "password upper case", key: "PASSWORD", value: "hunter2", wantMask: true},
		{name: "cookie", key: "cookie", value: "ssl=enable_ssl", wantMask: true},
		{name: "set-cookie", key: "Set-Cookie", value: "phpbb2mysql_sid=abc", wantMask: true},
		{name: "login form code", key: "code", value: "58f1c0", wantMask: true},
		{name: "session id", key: "sid", value: "0123456789abcdef", wantMask: true},
		{name: "phpbb cookie name", key: "phpbb2mysql_data", value: "a:2:{}", wantMask: true},
		{name: "key containing password", key: "account_password", value: "hunter2", wantMask: true},
		{name: "user is visible", key: "user", value: "alice", wantMask: false},
		{name: "topic is visible", key: "topic", value: "12345", wantMask: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, false)
			logger.Info("event", tt.key, tt.value)
			out := buf.String()

			if tt.wantMask {
				if strings.Contains(out, tt.value) {
					t.Errorf("value %q leaked: %s", tt.value, out)
				}
				if !strings.Contains(out, MaskValue) {
					t.Errorf("expected mask in output: %s", out)
				}
				return
			}
			if !strings.Contains(out, tt.value) {
				t.Errorf("value %q missing: %s", tt.value, out)
			}
		})
	}
}

func TestSecureHandler_ScrubsSessionIDFromURLs(t *testing.T) {
	t.Parallel()

	const sid = "9f86d081884c7d659a2feaa0c55ad015"
	tests := []struct {
		name string
		log  func(l *slog.Logger)
	}{
		{
			name: "string attribute",
			log: func(l *slog.Logger) {
				l.Info("fetch", "url", "https://nnmclub.to/forum/viewforum.php?f=10&sid="+sid)
			},
		},
		{
			name: "message",
			log: func(l *slog.Logger) {
				l.Info("redirected to https://nnmclub.to/forum/index.php?sid=" + sid)
			},
		},
		{
			name: "error attribute",
			log: func(l *slog.Logger) {
				l.Warn("fetch failed", "err", errors.New("GET https://nnmclub.to/forum/login.php?sid="+sid+": EOF"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			tt.log(NewSecureLogger(&buf, false))
			out := buf.String()
			if strings.Contains(out, sid) {
				t.Errorf("session id leaked: %s", out)
			}
			if !strings.Contains(out, "sid="+MaskValue) {
				t.Errorf("expected masked sid parameter: %s", out)
			}
		})
	}
}

func TestNewSecureLogger_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{name: "default hides debug", verbose: false, wantDebug: false},
		{name: "verbose shows debug", verbose: true, wantDebug: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, tt.verbose)
			logger.Debug("page parsed")
			logger.Info("category updated")

			out := buf.String()
			if got := strings.Contains(out, "page parsed"); got != tt.wantDebug {
				t.Errorf("debug shown = %v, want %v: %s", got, tt.wantDebug, out)
			}
			if !strings.Contains(out, "category updated") {
				t.Errorf("info record missing: %s", out)
			}
		})
	}
}

func TestSecureHandler_WithAttrsAndGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true).
		With("password", "hunter2").
		WithGroup("request")
	logger.Info("login", "user", "alice", slog.Group("form", "code", "58f1c0", "redirect", "index.php"))

	out := buf.String()
	for _, leaked := range []string{"hunter2", "58f1c0"} {
		if strings.Contains(out, leaked) {
			t.Errorf("%q leaked: %s", leaked, out)
		}
	}
	for _, kept := range []string{"request.user=alice", "request.form.redirect=index.php"} {
		if !strings.Contains(out, kept) {
			t.Errorf("%q missing: %s", kept, out)
		}
	}
}

func TestNewSecureHandler_NilUsesDefault(t *testing.T) {
	t.Parallel()

	h := NewSecureHandler(nil)
	if h.handler == nil {
		t.Fatal("expected default handler")
	}
}
