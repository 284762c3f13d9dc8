// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// nolint:gochecknoglobals
var (
	GamesApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rallyrank_games_total",
			Help: "Rating operations applied to games, by kind (applied, reapplied, reversed)",
		},
		[]string{"kind"},
	)

	RatingDelta = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rallyrank_rating_delta_abs",
			Help:    "Absolute rating change applied to a player by a game",
			Buckets: []float64{0, 1, 2, 5, 10, 15, 20, 25, 30, 40},
		},
	)

	ActivePlayers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rallyrank_active_players",
			Help: "Number of active players",
		},
	)

	StoredGames = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rallyrank_games_stored",
			Help: "Number of games stored",
		},
	)

	RatingDrift = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rallyrank_rating_drift_players",
			Help: "Players whose rating does not match their initial rating plus game deltas, as of the last check",
		},
	)

	TransactionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rallyrank_storage_errors_total",
			Help: "Storage failures that caused a transaction to be rolled back",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rallyrank_http_requests_total",
			Help: "HTTP requests by route, method, and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rallyrank_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)
)

// Middleware records HTTP metrics labelled by chi route pattern, so ids in
// paths do not explode the cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
