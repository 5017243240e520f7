// Package server serves the car price dashboard over HTTP.
package server

import (
	"context"
	"embed"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/YuminosukeSato/autoprice/dataset"
	"github.com/YuminosukeSato/autoprice/pkg/errors"
	"github.com/YuminosukeSato/autoprice/training"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

//go:embed templates/index.html
var templateFS embed.FS

// Options configures a Server.
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Table is the cleaned dataset behind the charts and the car filter.
	Table    *dataset.Table
	Features []string
	// Result is the trained model and its report.
	Result    *training.Result
	Predictor training.Predictor

	Logger zerolog.Logger
}

// Server is the dashboard HTTP server.
type Server struct {
	opts    Options
	router  *mux.Router
	metrics *Metrics
	index   *template.Template
	logger  zerolog.Logger

	fuelTypes  []string
	bodyStyles []string
}

// New builds the router. The table, result and predictor must be set.
func New(opts Options) (*Server, error) {
	if opts.Table == nil || opts.Result == nil || opts.Predictor == nil {
		return nil, errors.NewValidationError("server.Options", "table, result and predictor are required", nil)
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	index, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, errors.Wrap(err, "parsing dashboard template")
	}
	fuelTypes, err := opts.Table.Distinct("fuel_type")
	if err != nil {
		return nil, err
	}
	bodyStyles, err := opts.Table.Distinct("body_style")
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:       opts,
		router:     mux.NewRouter(),
		metrics:    NewMetrics(),
		index:      index,
		logger:     opts.Logger.With().Str("component", "server").Logger(),
		fuelTypes:  fuelTypes,
		bodyStyles: bodyStyles,
	}

	report := opts.Result.Report
	if report.Evaluated {
		s.metrics.modelR2.Set(report.R2)
	}
	s.metrics.modelRank.Set(float64(opts.Result.Model.Rank()))
	s.metrics.modelFeatures.Set(float64(len(opts.Result.Model.FeatureNames())))

	s.router.Use(logging(s.logger), s.metrics.Middleware)
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/predict", s.handlePredict).Methods(http.MethodPost)
	api.HandleFunc("/model", s.handleModel).Methods(http.MethodGet)
	api.HandleFunc("/charts", s.handleChartList).Methods(http.MethodGet)
	api.HandleFunc("/charts/{kind}", s.handleChart).Methods(http.MethodGet)
	api.HandleFunc("/cars", s.handleCars).Methods(http.MethodGet)
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", s.opts.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("Dashboard listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "serving dashboard")
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down dashboard")
	}
	return nil
}
