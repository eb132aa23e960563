package log

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

type capturedRecord struct {
	level slog.Level
	msg   string
	attrs map[string]any
}

// captureHandler records every log record, including attributes attached via
// Logger.With, so tests can assert on structured fields.
type captureHandler struct {
	records *[]capturedRecord
	attrs   []slog.Attr
}

func newCaptureHandler() (*[]capturedRecord, slog.Handler) {
	records := &[]capturedRecord{}
	return records, captureHandler{records: records}
}

func (h captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h captureHandler) Handle(_ context.Context, r slog.Record) error {
	rec := capturedRecord{level: r.Level, msg: r.Message, attrs: map[string]any{}}
	for _, a := range h.attrs {
		rec.attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		rec.attrs[a.Key] = a.Value.Any()
		return true
	})
	*h.records = append(*h.records, rec)
	return nil
}

func (h captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return captureHandler{records: h.records, attrs: merged}
}

func (h captureHandler) WithGroup(string) slog.Handler { return h }

func TestMiddlewareInjectsContextLogger(t *testing.T) {
	records, handler := newCaptureHandler()
	logger := New(Config{Component: ComponentHTTP, Handler: handler})

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).InfoContext(r.Context(), "inside")
	})
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	Middleware(logger)(inner).ServeHTTP(httptest.NewRecorder(), req)

	if len(*records) != 1 {
		t.Fatalf("records = %d, want 1", len(*records))
	}
	rec := (*records)[0]
	if rec.msg != "inside" {
		t.Fatalf("msg = %q", rec.msg)
	}
	if rec.attrs[FieldComponent] != ComponentHTTP {
		t.Fatalf("component = %v", rec.attrs[FieldComponent])
	}
}

func TestRequestIDMiddlewareTagsContextLogger(t *testing.T) {
	records, handler := newCaptureHandler()
	logger := New(Config{Component: ComponentHTTP, Handler: handler})

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).InfoContext(r.Context(), "tagged")
	})
	chain := Middleware(logger)(
		RequestIDMiddleware(func(*http.Request) string { return "req_fixed" })(inner))
	chain.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	if len(*records) != 1 {
		t.Fatalf("records = %d, want 1", len(*records))
	}
	if got := (*records)[0].attrs[FieldRequestID]; got != "req_fixed" {
		t.Fatalf("request id = %v", got)
	}
}

func TestFromContextFallback(t *testing.T) {
	logger := FromContext(context.Background())
	if logger == nil {
		t.Fatal("nil fallback logger")
	}
	if logger.Component() != ComponentApp {
		t.Fatalf("fallback component = %q", logger.Component())
	}
}

func TestLogHTTPEnd(t *testing.T) {
	cases := []struct {
		status int
		want   slog.Level
	}{
		{http.StatusOK, slog.LevelInfo},
		{http.StatusFound, slog.LevelInfo},
		{http.StatusNotFound, slog.LevelWarn},
		{http.StatusInternalServerError, slog.LevelError},
	}
	for _, tc := range cases {
		records, handler := newCaptureHandler()
		logger := New(Config{Component: ComponentHTTP, Handler: handler})
		req := httptest.NewRequest(http.MethodGet, "/api/expenses/list?token=abc", nil)

		LogHTTPEnd(context.Background(), logger, req, tc.status, 12, "1.2.3.4")

		if len(*records) != 1 {
			t.Fatalf("status %d: records = %d, want 1", tc.status, len(*records))
		}
		rec := (*records)[0]
		if rec.level != tc.want {
			t.Fatalf("status %d: level = %v, want %v", tc.status, rec.level, tc.want)
		}
		if rec.attrs[FieldStatusCode] != int64(tc.status) {
			t.Fatalf("status %d: status_code attr = %v", tc.status, rec.attrs[FieldStatusCode])
		}
		if rec.attrs[FieldSuccess] != (tc.status < 400) {
			t.Fatalf("status %d: success attr = %v", tc.status, rec.attrs[FieldSuccess])
		}
		if rec.attrs[FieldPath] != "/api/expenses/list" || rec.attrs[FieldQuery] != "token=abc" {
			t.Fatalf("status %d: request attrs = %v", tc.status, rec.attrs)
		}
		if rec.attrs[FieldClientIP] != "1.2.3.4" {
			t.Fatalf("status %d: client_ip attr = %v", tc.status, rec.attrs[FieldClientIP])
		}
	}
}
