// Package api serves the journal as read-only JSON for dashboards.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"trade-journal/internal/analysis/stats"
	"trade-journal/internal/models"
	"trade-journal/internal/performance"
	"trade-journal/internal/store"
)

// Journal is the part of the journal service the API reads from.
type Journal interface {
	Trades(ctx context.Context, filter store.TradeFilter) ([]models.Trade, error)
	Trade(ctx context.Context, id string) (*models.Trade, error)
	Journals(ctx context.Context) ([]string, error)
	Summary(ctx context.Context, name string) (stats.Summary, error)
	Groups(ctx context.Context, name string, grouping stats.Grouping) ([]models.GroupMetrics, error)
	Progress(ctx context.Context, name string) (models.GamificationState, error)
	Settings() models.AppSettings
	PoolStats() performance.PoolStats
}

// Config configures the HTTP server.
type Config struct {
	Addr           string
	AllowedOrigins []string
	Metrics        bool
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// Server is the HTTP API server.
type Server struct {
	journal    Journal
	logger     zerolog.Logger
	cfg        Config
	router     *mux.Router
	httpServer *http.Server
	registry   *prometheus.Registry
	metrics    *metrics
	started    time.Time
	version    string
}

// NewServer creates a server and registers its routes.
func NewServer(j Journal, cfg Config, version string, logger zerolog.Logger) *Server {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}

	s := &Server{
		journal: j,
		logger:  logger.With().Str("component", "api").Logger(),
		cfg:     cfg,
		router:  mux.NewRouter(),
		started: time.Now(),
		version: version,
	}
	if cfg.Metrics {
		s.registry = prometheus.NewRegistry()
		s.metrics = newMetrics(s.registry)
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestMiddleware)

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	v1.HandleFunc("/journals", s.handleJournals).Methods(http.MethodGet)
	v1.HandleFunc("/trades", s.handleTrades).Methods(http.MethodGet)
	v1.HandleFunc("/trades/{id}", s.handleTrade).Methods(http.MethodGet)
	v1.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	v1.HandleFunc("/groups", s.handleGroups).Methods(http.MethodGet)
	v1.HandleFunc("/progress", s.handleProgress).Methods(http.MethodGet)
	v1.HandleFunc("/leaderboard", s.handleLeaderboard).Methods(http.MethodGet)

	if s.registry != nil {
		s.router.Handle("/metrics", metricsHandler(s.registry)).Methods(http.MethodGet)
	}
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "route not found"})
	})
}

// Handler returns the router wrapped with CORS.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	}).Handler(s.router)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("Starting API server")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info().Msg("Stopping API server")
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
