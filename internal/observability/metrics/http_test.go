package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/files/12":          "/files/{id}",
		"/files/12/download": "/files/{id}/download",
		"/summary/single":    "/summary/single",
		"/":                  "/",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMiddlewareAndPipelineMetricsAreExposed(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/files/7", nil))
	m.ObserveSummary("multi", "success", 2*time.Second)
	m.ObserveUpload(1024)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	text := string(body)

	for _, want := range []string{
		`pdfsum_http_requests_total{method="GET",path="/files/{id}",service="api",status="418"} 1`,
		`pdfsum_summary_requests_total{mode="multi",outcome="success",service="api"} 1`,
		`pdfsum_upload_bytes_total{service="api"} 1024`,
		`pdfsum_http_in_flight_requests{service="api"} 0`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected metrics output to contain %q", want)
		}
	}
}
