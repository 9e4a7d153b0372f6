package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/drawcast/internal/domain/model"
)

// Backtester runs a walk-forward backtest over the stored history.
type Backtester interface {
	Backtest(ctx context.Context, window int, strategy string) (*model.BacktestReport, error)
}

// BacktestHandler handles backtest requests. Runs are expensive, so they
// are admitted through a token bucket.
type BacktestHandler struct {
	backtester Backtester
	limiter    *rate.Limiter
	maxWindow  int
}

// NewBacktestHandler creates a handler admitting perMinute runs per minute.
func NewBacktestHandler(b Backtester, perMinute, maxWindow int) *BacktestHandler {
	if perMinute < 1 {
		perMinute = 1
	}
	return &BacktestHandler{
		backtester: b,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		maxWindow:  maxWindow,
	}
}

// HandlePostBacktest handles POST /backtest?window=N&strategy=name.
func (h *BacktestHandler) HandlePostBacktest(w http.ResponseWriter, r *http.Request) {
	window := 0
	if raw := r.URL.Query().Get("window"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: window must be a positive integer", ErrBadRequest))
			return
		}
		if h.maxWindow > 0 && n > h.maxWindow {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: window above %d", ErrBadRequest, h.maxWindow))
			return
		}
		window = n
	}

	if !h.limiter.Allow() {
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "rate_limited", ErrRateLimited)
		return
	}

	report, err := h.backtester.Backtest(r.Context(), window, r.URL.Query().Get("strategy"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
