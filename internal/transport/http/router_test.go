package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"idproof/internal/platform/queue/memory"
	"idproof/internal/proofing/async"
	"idproof/internal/proofing/handler"
	"idproof/internal/proofing/metrics"
	"idproof/internal/proofing/session"
	"idproof/internal/proofing/store"
	"idproof/pkg/domain"
	"idproof/pkg/testutil"

	"github.com/prometheus/client_golang/prometheus"
)

func newRouter(t *testing.T, checks map[string]HealthCheck) http.Handler {
	t.Helper()
	m := metrics.NewWith(prometheus.NewRegistry())
	submitter := async.NewSubmitter(memory.New(4), session.NewInMemoryStore(), "proofing.jobs", m, nil, slog.Default())
	proofing := handler.New(store.NewInMemoryStore(), submitter, slog.Default())
	return NewRouter(slog.Default(), proofing, checks)
}

func TestHealthz(t *testing.T) {
	testutil.Given(t, "every dependency is reachable", func(t *testing.T) {
		router := newRouter(t, map[string]HealthCheck{
			"redis": func(context.Context) error { return nil },
			"kafka": func(context.Context) error { return nil },
		})

		testutil.When(t, "the health endpoint is polled", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))

			testutil.Then(t, "the service reports ok per dependency", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				testutil.AssertJSONContains(t, rr, "status", "ok")
				testutil.AssertJSONContains(t, rr, "dependencies", map[string]any{"redis": "ok", "kafka": "ok"})
			})
		})
	})

	testutil.Given(t, "one dependency is down", func(t *testing.T) {
		router := newRouter(t, map[string]HealthCheck{
			"redis": func(context.Context) error { return nil },
			"kafka": func(context.Context) error { return errors.New("broker unreachable") },
		})

		testutil.When(t, "the health endpoint is polled", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))

			testutil.Then(t, "the service degrades without hiding the healthy deps", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
				testutil.AssertJSONContains(t, rr, "status", "degraded")
				testutil.AssertJSONContains(t, rr, "dependencies", map[string]any{
					"redis": "ok",
					"kafka": "broker unreachable",
				})
			})
		})
	})
}

func TestRequestIDPropagation(t *testing.T) {
	router := newRouter(t, nil)

	t.Run("honors an upstream request id", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/proofing/results/"+domain.NewResultID().String())
		req = testutil.WithRequestID(req, "upstream-id")
		req.Header.Set("X-Request-ID", "upstream-id")

		rr := testutil.DoRequest(router, req)
		assert.Equal(t, "upstream-id", rr.Header().Get("X-Request-ID"))
	})

	t.Run("mints one when the proxy sends none", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})
}

func TestMetricsEndpoint(t *testing.T) {
	router := newRouter(t, nil)
	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(t, rr)
}

func TestUnknownRouteIs404(t *testing.T) {
	router := newRouter(t, nil)
	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/nope"))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}
