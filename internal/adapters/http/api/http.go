// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	service "github.com/okian/drawcast/internal/app"
	"github.com/okian/drawcast/internal/domain/backtest"
	"github.com/okian/drawcast/internal/domain/ensemble"
	"github.com/okian/drawcast/internal/domain/strategy"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Predictor
	Backtester
	StatsProvider
}

// Option configures the Server.
type Option func(*serverOptions)

type serverOptions struct {
	backtestPerMinute int
	maxWindow         int
}

// WithBacktestRate admits perMinute backtest runs per minute.
func WithBacktestRate(perMinute int) Option {
	return func(o *serverOptions) {
		if perMinute > 0 {
			o.backtestPerMinute = perMinute
		}
	}
}

// WithMaxWindow caps POST /backtest?window.
func WithMaxWindow(n int) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxWindow = n
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	predictionHandler *PredictionHandler
	backtestHandler   *BacktestHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	o := serverOptions{backtestPerMinute: 6, maxWindow: 500}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(deps),
		predictionHandler: NewPredictionHandler(deps),
		backtestHandler:   NewBacktestHandler(deps, o.backtestPerMinute, o.maxWindow),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r *mux.Router) {
	r.Use(MetricsMiddleware)
	r.HandleFunc("/healthz", s.healthHandler.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.healthHandler.HandleMetrics).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.statsHandler.HandleStats).Methods(http.MethodGet)
	r.HandleFunc("/prediction", s.predictionHandler.HandleGetPrediction).Methods(http.MethodGet)
	r.HandleFunc("/backtest", s.backtestHandler.HandlePostBacktest).Methods(http.MethodPost)
}

// Router returns a new router with every route registered.
func (s *Server) Router(ctx context.Context) *mux.Router {
	r := mux.NewRouter()
	s.Register(ctx, r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps service and domain errors onto status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownStrategy):
		writeError(w, http.StatusBadRequest, "unknown_strategy", err)
	case errors.Is(err, service.ErrNoHistory):
		writeError(w, http.StatusNotFound, "no_history", err)
	case errors.Is(err, backtest.ErrInsufficientData), errors.Is(err, strategy.ErrInsufficientData):
		writeError(w, http.StatusUnprocessableEntity, "insufficient_data", err)
	case errors.Is(err, ensemble.ErrLabelDegenerate):
		writeError(w, http.StatusUnprocessableEntity, "label_degenerate", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_started", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "cancelled", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
