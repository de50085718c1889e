package service

import (
	"context"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/podiumlabs/orator_service/internal/errors"
	"github.com/podiumlabs/orator_service/internal/repository"
)

// practicePrompts is the fixed prompt pool offered to users before recording.
var practicePrompts = []string{
	"Describe a moment that changed your perspective on life",
	"Explain why communication matters in today's world",
	"Share a story about overcoming fear or doubt",
	"Teach us something you're passionate about",
	"Discuss a book, movie, or idea that inspired you",
}

// CreateSpeechReq registers one uploaded recording.
type CreateSpeechReq struct {
	UserID       string `json:"user_id"`
	Title        string `json:"title"`
	AudioURL     string `json:"audio_url"`
	PromptUsed   string `json:"prompt_used"`
	IsAssessment bool   `json:"is_assessment"`
}

// SpeechService handles speech registration and lookups around the analysis
// pipeline.
type SpeechService struct {
	speechRepo   repository.SpeechRepository
	feedbackRepo repository.FeedbackRepository
	profileRepo  repository.ProfileRepository
	cache        FeedbackCache
	log          zerolog.Logger
}

// NewSpeechService creates a new speech service. cache may be nil.
func NewSpeechService(
	speechRepo repository.SpeechRepository,
	feedbackRepo repository.FeedbackRepository,
	profileRepo repository.ProfileRepository,
	cache FeedbackCache,
	log zerolog.Logger,
) *SpeechService {
	return &SpeechService{
		speechRepo:   speechRepo,
		feedbackRepo: feedbackRepo,
		profileRepo:  profileRepo,
		cache:        cache,
		log:          log,
	}
}

// CreateSpeech inserts a speech row for an already-uploaded recording and
// bumps the owner's upload counter.
func (s *SpeechService) CreateSpeech(ctx context.Context, req CreateSpeechReq) (*repository.Speech, error) {
	if req.UserID == "" || req.AudioURL == "" {
		return nil, errors.Validation("user_id and audio_url are required")
	}
	if req.Title == "" {
		return nil, errors.Validation("title is required")
	}

	speech := &repository.Speech{
		UserID:       req.UserID,
		Title:        req.Title,
		AudioURL:     req.AudioURL,
		PromptUsed:   req.PromptUsed,
		IsAssessment: req.IsAssessment,
	}
	if err := s.speechRepo.Create(ctx, speech); err != nil {
		return nil, err
	}

	// The counter is a convenience stat, not part of the speech record; a
	// failed bump must not fail the upload.
	if err := s.profileRepo.IncrementTotalSpeeches(ctx, req.UserID); err != nil {
		s.log.Warn().Err(err).Str("user_id", req.UserID).Msg("Failed to increment total speeches")
	}

	return speech, nil
}

// ListSpeeches returns a user's speeches, newest first.
func (s *SpeechService) ListSpeeches(ctx context.Context, userID string) ([]repository.Speech, error) {
	if userID == "" {
		return nil, errors.Validation("user_id is required")
	}
	return s.speechRepo.ListByUser(ctx, userID)
}

// GetFeedback returns the latest feedback for a speech, read through the
// cache when one is configured. A speech that exists but has no feedback yet
// (transcript-only partial progress) reads as feedback NotFound, not as an
// error on the speech.
func (s *SpeechService) GetFeedback(ctx context.Context, speechID string) (*repository.Feedback, error) {
	if speechID == "" {
		return nil, errors.Validation("speech_id is required")
	}

	if s.cache != nil {
		var cached repository.Feedback
		hit, err := s.cache.GetJSON(ctx, feedbackCacheKeyPrefix+speechID, &cached)
		if err != nil {
			s.log.Warn().Err(err).Str("speech_id", speechID).Msg("Feedback cache read failed")
		} else if hit {
			return &cached, nil
		}
	}

	fb, err := s.feedbackRepo.GetBySpeech(ctx, speechID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			// Distinguish a missing speech from a speech still waiting on
			// its feedback.
			if _, speechErr := s.speechRepo.GetByID(ctx, speechID); speechErr != nil {
				return nil, speechErr
			}
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, feedbackCacheKeyPrefix+speechID, fb, feedbackCacheTTL); err != nil {
			s.log.Warn().Err(err).Str("speech_id", speechID).Msg("Feedback cache write failed")
		}
	}

	return fb, nil
}

// GetProfile returns a user's profile stats row.
func (s *SpeechService) GetProfile(ctx context.Context, userID string) (*repository.Profile, error) {
	if userID == "" {
		return nil, errors.Validation("user_id is required")
	}
	return s.profileRepo.GetByID(ctx, userID)
}

// RandomPrompt picks one practice prompt from the fixed pool.
func (s *SpeechService) RandomPrompt() string {
	return practicePrompts[rand.Intn(len(practicePrompts))]
}
