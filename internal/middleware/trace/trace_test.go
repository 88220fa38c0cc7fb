package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tally/internal/log"
)

func TestMiddlewareLogsAndCounts(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Handler: slog.NewTextHandler(&buf, nil), Component: log.ComponentHTTP})
	m := NewMiddleware(log.NewStructuredLogger(logger), func(*http.Request) string { return "198.51.100.1" })

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))

	for _, path := range []string{"/profiles", "/boom"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	got := m.GetMetrics()
	if got.TotalRequests != 2 || got.ServerErrors != 1 {
		t.Fatalf("unexpected metrics %+v", got)
	}
	out := buf.String()
	if !strings.Contains(out, "status_code=500") || !strings.Contains(out, "client_ip=198.51.100.1") {
		t.Fatalf("log output missing fields:\n%s", out)
	}
	if !strings.Contains(out, "level=ERROR") {
		t.Errorf("5xx should log at error level:\n%s", out)
	}
}
