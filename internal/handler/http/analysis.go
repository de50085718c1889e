package http

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/podiumlabs/orator_service/internal/errors"
	"github.com/podiumlabs/orator_service/internal/repository"
	"github.com/podiumlabs/orator_service/internal/service"
)

// AnalysisHandler handles the speech analysis endpoint.
type AnalysisHandler struct {
	log             zerolog.Logger
	analysisService *service.AnalysisService
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(log zerolog.Logger, analysisService *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		log:             log,
		analysisService: analysisService,
	}
}

// analyzeResponse is the wire envelope for a completed analysis. Strengths
// and improvements ride on the feedback object itself.
type analyzeResponse struct {
	Success    bool                 `json:"success"`
	Transcript string               `json:"transcript"`
	Feedback   *repository.Feedback `json:"feedback"`
}

// analyzeError is the wire envelope for a failed analysis.
type analyzeError struct {
	Error string `json:"error"`
}

// Analyze handles POST /api/v1/speech/analyze
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.Validation("invalid request body"))
		return
	}

	result, err := h.analysisService.Analyze(ctx, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(analyzeResponse{
		Success:    true,
		Transcript: result.Transcript,
		Feedback:   result.Feedback,
	})
}

// writeError maps any pipeline error onto the failure envelope. The status
// comes from the error kind; unknown errors read as a plain 500.
func (h *AnalysisHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Analysis failed"

	if appErr, ok := err.(*errors.AppError); ok {
		status = appErr.HTTPStatus()
		message = appErr.Message
	} else {
		h.log.Error().Err(err).Msg("Unexpected analysis error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(analyzeError{Error: message})
}
