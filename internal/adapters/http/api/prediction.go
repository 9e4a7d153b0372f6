package api

import (
	"context"
	"net/http"

	service "github.com/okian/drawcast/internal/app"
)

// Predictor runs a prediction over the stored history.
type Predictor interface {
	Predict(ctx context.Context) (*service.PredictionResult, error)
}

// PredictionHandler handles prediction requests.
type PredictionHandler struct {
	predictor Predictor
}

// NewPredictionHandler creates a new prediction handler.
func NewPredictionHandler(p Predictor) *PredictionHandler {
	return &PredictionHandler{predictor: p}
}

// HandleGetPrediction handles GET /prediction requests.
func (h *PredictionHandler) HandleGetPrediction(w http.ResponseWriter, r *http.Request) {
	res, err := h.predictor.Predict(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
