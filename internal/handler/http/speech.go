package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/podiumlabs/orator_service/internal/errors"
	"github.com/podiumlabs/orator_service/internal/service"
	"github.com/podiumlabs/orator_service/pkg/response"
)

// SpeechHandler handles speech registration and lookup endpoints.
type SpeechHandler struct {
	log           zerolog.Logger
	speechService *service.SpeechService
}

// NewSpeechHandler creates a new speech handler.
func NewSpeechHandler(log zerolog.Logger, speechService *service.SpeechService) *SpeechHandler {
	return &SpeechHandler{
		log:           log,
		speechService: speechService,
	}
}

// Create handles POST /api/v1/speeches
func (h *SpeechHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.CreateSpeechReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleError(w, errors.Validation("invalid request body"))
		return
	}

	speech, err := h.speechService.CreateSpeech(ctx, req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, speech)
}

// List handles GET /api/v1/speeches?user_id=...
func (h *SpeechHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	speeches, err := h.speechService.ListSpeeches(ctx, r.URL.Query().Get("user_id"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, speeches)
}

// GetFeedback handles GET /api/v1/speeches/{speechID}/feedback
func (h *SpeechHandler) GetFeedback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fb, err := h.speechService.GetFeedback(ctx, chi.URLParam(r, "speechID"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, fb)
}

// GetProfile handles GET /api/v1/profiles/{userID}
func (h *SpeechHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := h.speechService.GetProfile(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, profile)
}

// RandomPrompt handles GET /api/v1/prompts/random
func (h *SpeechHandler) RandomPrompt(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"prompt": h.speechService.RandomPrompt(),
	})
}

func (h *SpeechHandler) handleError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		response.Error(w, appErr.HTTPStatus(), &response.ErrorBody{
			Code:    string(appErr.Code),
			Message: appErr.Message,
			Details: appErr.Details,
		})
		return
	}
	h.log.Error().Err(err).Msg("Internal server error")
	response.InternalError(w, "internal server error")
}
