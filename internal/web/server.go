// Package web serves the RallyRank JSON API.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/leonelquinteros/gotext"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/text/language"

	"rallyrank/internal/back"
	"rallyrank/internal/config"
	"rallyrank/internal/logging"
	"rallyrank/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(logging.With("http")))
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type"},
		MaxAge:         86400,
	}))
	if s.cfg.RateLimit > 0 {
		r.Use(httprate.Limit(
			s.cfg.RateLimit, s.cfg.RateWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(s.tooManyRequests),
		))
	}
	r.Use(metrics.Middleware)
	r.Use(s.localeMiddleware)

	r.Get("/", s.index)
	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/rankings", s.getRankings)

		r.Route("/players", func(r chi.Router) {
			r.Get("/", s.getPlayers)
			r.Post("/", s.createPlayer)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getPlayer)
				r.Delete("/", s.deactivatePlayer)
				r.Post("/reactivate", s.reactivatePlayer)
				r.Delete("/purge", s.purgePlayer)
				r.Get("/stats", s.getPlayerStats)
				r.Get("/history", s.getPlayerHistory)
				r.Get("/games", s.getPlayerGames)
				r.Get("/charts/rating.svg", s.getPlayerRatingChart)
				r.Get("/charts/results.svg", s.getPlayerResultsChart)
			})
		})

		r.Route("/games", func(r chi.Router) {
			r.Get("/", s.getGames)
			r.Post("/", s.createGame)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getGame)
				r.Put("/", s.updateGame)
				r.Patch("/", s.patchGame)
				r.Delete("/", s.deleteGame)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.error(w, r, fmt.Errorf("%w: no route for %s", back.ErrNotFound, r.URL.Path))
	})

	return r
}

type Server struct {
	http *http.Server
	back *back.Back
	cfg  config.HTTPConfig

	locales map[string]*gotext.Po
	matcher language.Matcher
	tags    []language.Tag
}

func NewServer(b *back.Back, cfg config.HTTPConfig) (*Server, error) {
	locales, tags, err := loadLocales()
	if err != nil {
		return nil, fmt.Errorf("unable to load locales: %w", err)
	}

	s := &Server{
		back:    b,
		cfg:     cfg,
		locales: locales,
		tags:    tags,
		matcher: language.NewMatcher(tags),
	}

	s.http = &http.Server{
		Addr:         cfg.Addr,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		Handler:      s.setupRouter(),
	}

	return s, nil
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Serve runs the HTTP server until ctx is done. It implements
// suture.Service.
func (s *Server) Serve(ctx context.Context) error {
	logging.Info().Str("addr", s.http.Addr).Msg("starting HTTP server")

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("webserver crashed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("unable to close webserver: %w", err)
		}

		<-errCh
		logging.Info().Msg("HTTP server closed")
		return ctx.Err()
	}
}

func (s *Server) String() string {
	return "http-server"
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("took", duration).
		Msg("request")
}

func (s *Server) response(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	response, err := json.Marshal(data)
	if err != nil {
		logging.Error().Err(err).Msg("unable to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(code)

	if _, err := w.Write(response); err != nil {
		logging.Error().Err(err).Msg("unable to send response")
	}
}

func (s *Server) svg(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/svg+xml")
	s.cache(w, "public", 1*time.Minute)

	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("unable to send response")
	}
}

func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) cache(w http.ResponseWriter, scope string, d time.Duration) {
	w.Header().Set("Cache-Control", fmt.Sprintf("%s,max-age=%d", scope, d/time.Second))
}
