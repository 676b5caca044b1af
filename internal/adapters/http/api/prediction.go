package api

import "net/http"

// PredictionHandler serves the latest live prediction.
type PredictionHandler struct {
	deps Dependencies
}

// NewPredictionHandler creates a new prediction handler.
func NewPredictionHandler(deps Dependencies) *PredictionHandler {
	return &PredictionHandler{deps: deps}
}

// HandleGetPrediction handles GET /prediction requests.
func (h *PredictionHandler) HandleGetPrediction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	p, ok := h.deps.LatestPrediction()
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", ErrNoPrediction)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
