// Package server serves the report data, forecasts and the chart dashboard over HTTP and refreshes
// the data on a cron schedule.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/aouyang1/go-macroforecast/config"
	"github.com/aouyang1/go-macroforecast/metrics"
	"github.com/aouyang1/go-macroforecast/pipeline"
	"github.com/aouyang1/go-macroforecast/report"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultShutdownTimeout = 10 * time.Second
	DefaultRefreshTimeout  = 5 * time.Minute

	maxBodyBytes = 1 << 16
)

var ErrInvalidRequest = errors.New("invalid request")

// Options holds the optional collaborators of a Server
type Options struct {
	Metrics  *metrics.Exporter
	Gatherer prometheus.Gatherer

	ShutdownTimeout time.Duration
	RefreshTimeout  time.Duration
}

// Server holds the current pipeline and the last report it produced
type Server struct {
	mu       sync.RWMutex
	pipeline *pipeline.Pipeline
	report   *pipeline.Report

	// serializes refreshes so concurrent requests do not fetch twice
	refreshMu sync.Mutex

	metrics  *metrics.Exporter
	gatherer prometheus.Gatherer
	opts     Options
	logger   zerolog.Logger
}

// New creates a server around a pipeline
func New(p *pipeline.Pipeline, opts Options) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = DefaultRefreshTimeout
	}
	return &Server{
		pipeline: p,
		metrics:  opts.Metrics,
		gatherer: opts.Gatherer,
		opts:     opts,
		logger:   log.With().Str("component", "server").Logger(),
	}
}

// Handler routes the api endpoints through the request id, logging and cors middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /config", s.handleConfig)
	mux.HandleFunc("GET /data", s.handleData)
	mux.HandleFunc("POST /refresh", s.handleRefresh)
	mux.HandleFunc("GET /forecast", s.handleForecast)
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return s.withRequestID(s.withLogging(withCORS(mux)))
}

// Pipeline returns the pipeline currently serving requests
func (s *Server) Pipeline() *pipeline.Pipeline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipeline
}

// Report returns the last report, building one if none exists yet
func (s *Server) Report(ctx context.Context) (*pipeline.Report, error) {
	s.mu.RLock()
	rep := s.report
	s.mu.RUnlock()
	if rep != nil {
		return rep, nil
	}
	return s.Refresh(ctx, nil)
}

// Refresh drops cached series and rebuilds the report. A non nil cfg replaces the configuration
// for this and every later request.
func (s *Server) Refresh(ctx context.Context, cfg *config.Config) (*pipeline.Report, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	p := s.Pipeline()
	if cfg != nil {
		var err error
		if p, err = p.WithConfig(cfg); err != nil {
			return nil, fmt.Errorf("%w, %w", ErrInvalidRequest, err)
		}
	}
	p.Invalidate()

	rep, err := p.Run(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.pipeline = p
	s.report = rep
	s.mu.Unlock()
	return rep, nil
}

// Run serves until ctx is canceled, refreshing on the configured cron schedule, then shuts down
// gracefully
func (s *Server) Run(ctx context.Context) error {
	cfg := s.Pipeline().Config()

	var scheduler *cron.Cron
	if cfg.RefreshSchedule != "" {
		scheduler = cron.New()
		if _, err := scheduler.AddFunc(cfg.RefreshSchedule, func() { s.scheduledRefresh(ctx) }); err != nil {
			return fmt.Errorf("unable to schedule refresh, %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", cfg.ListenAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// warm the report so the first dashboard request is fast
	go s.scheduledRefresh(ctx)

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) scheduledRefresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.RefreshTimeout)
	defer cancel()
	if _, err := s.Refresh(ctx, nil); err != nil {
		s.logger.Error().Err(err).Msg("scheduled refresh failed")
		return
	}
	s.logger.Info().Msg("data refreshed")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.Pipeline().Config())
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	rep, err := s.Report(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, rep)
}

// RefreshRequest optionally overrides the countries and analysis dates
type RefreshRequest struct {
	Countries           []string `json:"countries"`
	AnalysisStartDate   string   `json:"analysis_start_date"`
	HistoricalStartDate string   `json:"historical_start_date"`
}

func (req RefreshRequest) empty() bool {
	return len(req.Countries) == 0 && req.AnalysisStartDate == "" && req.HistoricalStartDate == ""
}

// apply returns cfg with the overrides of the request
func (req RefreshRequest) apply(cfg *config.Config) (*config.Config, error) {
	var err error
	if len(req.Countries) > 0 {
		if cfg, err = cfg.WithCountries(req.Countries); err != nil {
			return nil, err
		}
	}
	var analysis, historical config.Date
	if req.AnalysisStartDate != "" {
		if analysis, err = config.ParseDate(req.AnalysisStartDate); err != nil {
			return nil, err
		}
	}
	if req.HistoricalStartDate != "" {
		if historical, err = config.ParseDate(req.HistoricalStartDate); err != nil {
			return nil, err
		}
	}
	return cfg.WithDates(analysis, historical)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if r.ContentLength != 0 {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			s.writeError(w, r, fmt.Errorf("unable to decode body, %w, %w", ErrInvalidRequest, err))
			return
		}
	}

	var cfg *config.Config
	if !req.empty() {
		var err error
		if cfg, err = req.apply(s.Pipeline().Config()); err != nil {
			s.writeError(w, r, fmt.Errorf("%w, %w", ErrInvalidRequest, err))
			return
		}
	}

	rep, err := s.Refresh(r.Context(), cfg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, rep)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	p := s.Pipeline()
	q := r.URL.Query()

	region := q.Get("region")
	if region == "" {
		region = p.Config().Countries[0]
	}
	indicator := q.Get("indicator")
	if indicator == "" {
		indicator = p.Config().Indicator
	}
	horizon := 0
	if h := q.Get("horizon"); h != "" {
		var err error
		if horizon, err = strconv.Atoi(h); err != nil {
			s.writeError(w, r, fmt.Errorf("horizon %q, %w", h, ErrInvalidRequest))
			return
		}
	}

	res, err := p.Forecast(r.Context(), region, indicator, horizon)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	rep, err := s.Report(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.WriteHTML(w, rep); err != nil {
		s.logger.Error().Err(err).Msg("unable to render dashboard")
	}
}
