package routes

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/debate-tab/handlers"
	"github.com/Dosada05/debate-tab/live"
	"github.com/Dosada05/debate-tab/metrics"
	"github.com/Dosada05/debate-tab/models"
	"github.com/Dosada05/debate-tab/services"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBallotService answers every call with ErrBallotNotFound except
// ListDebateBallots, which returns an empty list.
type stubBallotService struct{}

func (stubBallotService) SubmitBallot(context.Context, int, services.SubmitBallotInput) (*services.BallotView, error) {
	return nil, services.ErrDebateNotFound
}

func (stubBallotService) ConfirmBallot(context.Context, int) (*services.BallotView, error) {
	return nil, services.ErrBallotNotFound
}

func (stubBallotService) GetBallot(context.Context, int) (*services.BallotView, error) {
	return nil, services.ErrBallotNotFound
}

func (stubBallotService) GetDebateResult(context.Context, int) (*services.BallotView, error) {
	return nil, services.ErrNoConfirmedBallot
}

func (stubBallotService) ListDebateBallots(context.Context, int) ([]*models.BallotSubmission, error) {
	return []*models.BallotSubmission{}, nil
}

func (stubBallotService) ExportBallot(context.Context, int) (*services.BallotExport, error) {
	return nil, services.ErrBallotNotFound
}

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func newRouter(t *testing.T, rateLimit int) http.Handler {
	t.Helper()
	return newRouterWithOptions(t, Options{BallotRateLimit: rateLimit})
}

func newRouterWithOptions(t *testing.T, opts Options) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.BallotConfirmed()

	router := chi.NewRouter()
	opts.AllowedOrigins = []string{"*"}
	opts.Gatherer = reg
	opts.Logger = logger
	SetupRoutes(router, opts,
		handlers.NewBallotHandler(stubBallotService{}),
		handlers.NewWebSocketHandler(live.NewHub(logger), nil),
		handlers.NewHealthHandler(okPinger{}),
	)
	return router
}

func TestRoutes(t *testing.T) {
	router := newRouter(t, 10)

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/debates/1/ballots", http.StatusOK},
		{http.MethodGet, "/debates/1/result", http.StatusNotFound},
		{http.MethodPost, "/debates/1/ballots", http.StatusNotFound},
		{http.MethodGet, "/ballots/3", http.StatusNotFound},
		{http.MethodPost, "/ballots/3/confirm", http.StatusNotFound},
		{http.MethodGet, "/ballots/3/export", http.StatusNotFound},
		{http.MethodGet, "/ws/debates/x", http.StatusBadRequest},
		{http.MethodDelete, "/ballots/3", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var body io.Reader
			if tt.method == http.MethodPost {
				body = strings.NewReader(`{}`)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, body))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(t, 10).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ballot_confirmations_total 1")
}

func TestSubmitIsRateLimited(t *testing.T) {
	router := newRouter(t, 1)

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/debates/1/ballots", strings.NewReader(`{}`))
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNotFound, post())
	assert.Equal(t, http.StatusTooManyRequests, post())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debates/1/ballots", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "reads are not limited")
}

func TestSubmitRateLimitIgnoresForwardedHeaders(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		want       []int
	}{
		{"direct clients", false, []int{http.StatusNotFound, http.StatusTooManyRequests}},
		{"behind a proxy", true, []int{http.StatusNotFound, http.StatusNotFound}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouterWithOptions(t, Options{BallotRateLimit: 1, TrustProxy: tt.trustProxy})

			for i, forwarded := range []string{"198.51.100.1", "198.51.100.2"} {
				req := httptest.NewRequest(http.MethodPost, "/debates/1/ballots", strings.NewReader(`{}`))
				req.RemoteAddr = "192.0.2.1:1234"
				req.Header.Set("X-Forwarded-For", forwarded)
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, req)
				assert.Equal(t, tt.want[i], rec.Code, "request %d", i)
			}
		})
	}
}
