package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

type stubChecker struct {
	err error
}

func (s stubChecker) Ping(context.Context) error {
	return s.err
}

func serve(t *testing.T, deps Dependencies, path string) *httptest.ResponseRecorder {
	t.Helper()

	logger, _ := logtest.NewNullLogger()
	server := NewServer(0, deps, logrus.NewEntry(logger))

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name string
		deps Dependencies
		body string
	}{
		{
			name: "ok",
			deps: Dependencies{Mongo: stubChecker{}},
			body: `{"status":"ok"}`,
		},
		{
			name: "mongo error",
			deps: Dependencies{Mongo: stubChecker{err: errors.New("mongo down")}},
			body: `{"status":"degraded","mongo":"error"}`,
		},
		{
			name: "missing mongo checker",
			deps: Dependencies{},
			body: `{"status":"degraded","mongo":"error"}`,
		},
		{
			name: "session store ok",
			deps: Dependencies{Mongo: stubChecker{}, Sessions: stubChecker{}},
			body: `{"status":"ok"}`,
		},
		{
			name: "session store error",
			deps: Dependencies{Mongo: stubChecker{}, Sessions: stubChecker{err: errors.New("redis down")}},
			body: `{"status":"degraded","sessions":"error"}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, tt.deps, "/healthz")

			if rr.Code != http.StatusOK {
				t.Fatalf("expected HTTP 200, got %d", rr.Code)
			}
			if body := strings.TrimSpace(rr.Body.String()); body != tt.body {
				t.Fatalf("unexpected body: %s", body)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("expected content-type application/json, got %s", ct)
			}
		})
	}
}

func TestMetricsEndpointServesGatherer(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "catalog_bot_probe_total", Help: "probe"})
	reg.MustRegister(counter)
	counter.Inc()

	rr := serve(t, Dependencies{Mongo: stubChecker{}, Gatherer: reg}, "/metrics")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected HTTP 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "catalog_bot_probe_total 1") {
		t.Fatalf("expected counter in scrape output, got:\n%s", rr.Body.String())
	}
}

func TestMetricsEndpointAbsentWithoutGatherer(t *testing.T) {
	rr := serve(t, Dependencies{Mongo: stubChecker{}}, "/metrics")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected HTTP 404 without gatherer, got %d", rr.Code)
	}
}
