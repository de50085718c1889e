package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/podiumlabs/orator_service/internal/errors"
	"github.com/podiumlabs/orator_service/internal/repository"
)

// Stage names the steps of one analysis run. Transitions are strictly
// sequential; any stage failure short-circuits straight to the failure
// response with the originating error.
type Stage string

const (
	StageReceived     Stage = "received"
	StageDownloading  Stage = "downloading"
	StageTranscribing Stage = "transcribing"
	StagePrompting    Stage = "prompting"
	StageParsing      Stage = "parsing_response"
	StagePersisting   Stage = "persisting"
)

// BlobStore downloads uploaded audio objects by key.
type BlobStore interface {
	Download(ctx context.Context, objectKey string) ([]byte, error)
}

// Transcriber turns raw audio bytes into plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, language string) (string, error)
}

// FeedbackModel produces a free-form reply for a system+user prompt pair.
type FeedbackModel interface {
	ChatWithSystem(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error)
}

// EventPublisher emits analysis lifecycle events. Optional.
type EventPublisher interface {
	PublishWithAttributes(ctx context.Context, data interface{}, attrs map[string]string) error
}

// FeedbackCache caches completed feedback for cheap lookups. Optional.
type FeedbackCache interface {
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
}

const (
	feedbackCacheKeyPrefix = "feedback:speech:"
	feedbackCacheTTL       = 10 * time.Minute

	// The upload widget records webm; the transcription provider needs the
	// container named in the filename.
	audioFilename = "audio.webm"

	feedbackTemperature = 0.7
)

// AnalysisConfig carries the pipeline's injected settings.
type AnalysisConfig struct {
	Bucket   string
	Language string
}

// AnalyzeRequest is one inbound analysis request.
type AnalyzeRequest struct {
	AudioURL   string `json:"audio_url"`
	SpeechID   string `json:"speech_id"`
	PromptUsed string `json:"prompt_used"`
}

// AnalyzeResult is returned on a completed run. Strengths and improvements on
// the feedback are echoed from the parsed analysis rather than re-read from
// storage, so the caller always sees the lists in model order.
type AnalyzeResult struct {
	Transcript string
	Feedback   *repository.Feedback
}

// AnalysisService sequences download, transcription, feedback generation and
// persistence for one speech. Each request runs the stages strictly in order
// with no retries: every external provider is metered, so a failed call is
// terminal rather than re-billed. The transcript is written back before the
// model call, which makes "transcript but no feedback" an expected,
// recoverable state whenever a later stage fails.
type AnalysisService struct {
	cfg          AnalysisConfig
	blobs        BlobStore
	transcriber  Transcriber
	model        FeedbackModel
	speechRepo   repository.SpeechRepository
	feedbackRepo repository.FeedbackRepository
	events       EventPublisher
	cache        FeedbackCache
	log          zerolog.Logger
}

// NewAnalysisService creates a new analysis service. events and cache may be
// nil; everything else is required.
func NewAnalysisService(
	cfg AnalysisConfig,
	blobs BlobStore,
	transcriber Transcriber,
	model FeedbackModel,
	speechRepo repository.SpeechRepository,
	feedbackRepo repository.FeedbackRepository,
	events EventPublisher,
	cache FeedbackCache,
	log zerolog.Logger,
) *AnalysisService {
	return &AnalysisService{
		cfg:          cfg,
		blobs:        blobs,
		transcriber:  transcriber,
		model:        model,
		speechRepo:   speechRepo,
		feedbackRepo: feedbackRepo,
		events:       events,
		cache:        cache,
		log:          log,
	}
}

// Analyze runs the full pipeline for one request.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	log := s.log.With().Str("speech_id", req.SpeechID).Logger()
	log.Info().Str("audio_url", req.AudioURL).Msg("Analyzing speech")

	// Received: reject invalid requests before any external call.
	if req.AudioURL == "" || req.SpeechID == "" {
		return nil, errors.Validation("audio_url and speech_id are required")
	}

	// Downloading
	objectKey, err := ObjectKeyFromURL(req.AudioURL, s.cfg.Bucket)
	if err != nil {
		return nil, s.fail(log, StageDownloading, err)
	}
	log.Debug().Str("object_key", objectKey).Msg("Downloading audio from storage")

	audio, err := s.blobs.Download(ctx, objectKey)
	if err != nil {
		return nil, s.fail(log, StageDownloading, err)
	}

	// Transcribing
	transcript, err := s.transcriber.Transcribe(ctx, audio, audioFilename, s.cfg.Language)
	if err != nil {
		return nil, s.fail(log, StageTranscribing, err)
	}
	log.Info().Int("transcript_len", len(transcript)).Msg("Audio transcribed")

	// The transcript is persisted before the model call so it survives any
	// later-stage failure.
	if err := s.speechRepo.AttachTranscript(ctx, req.SpeechID, transcript); err != nil {
		return nil, s.fail(log, StageTranscribing, err)
	}

	// Prompting
	userPrompt := BuildAnalysisPrompt(transcript, req.PromptUsed)
	reply, err := s.model.ChatWithSystem(ctx, analysisSystemPrompt, userPrompt, feedbackTemperature)
	if err != nil {
		return nil, s.fail(log, StagePrompting, err)
	}

	// ParsingResponse
	analysis, err := ParseAnalysis(reply)
	if err != nil {
		log.Error().Str("reply", reply).Msg("Failed to parse AI response")
		return nil, s.fail(log, StageParsing, err)
	}

	// Persisting
	userID, err := s.speechRepo.GetOwner(ctx, req.SpeechID)
	if err != nil {
		return nil, s.fail(log, StagePersisting, err)
	}

	fb := &repository.Feedback{
		SpeechID:         req.SpeechID,
		UserID:           userID,
		ConfidenceScore:  analysis.ConfidenceScore,
		PaceRating:       analysis.PaceRating,
		ClarityRating:    analysis.ClarityRating,
		FillerWordsCount: analysis.FillerWordsCount,
		Strengths:        analysis.Strengths,
		Improvements:     analysis.Improvements,
		AISummary:        analysis.AISummary,
	}
	if err := s.feedbackRepo.Insert(ctx, fb); err != nil {
		return nil, s.fail(log, StagePersisting, err)
	}

	log.Info().Str("feedback_id", fb.ID).Msg("Feedback saved")

	s.publishCompleted(ctx, log, fb)
	s.cacheFeedback(ctx, log, fb)

	return &AnalyzeResult{
		Transcript: transcript,
		Feedback:   fb,
	}, nil
}

// fail logs a stage failure with its originating error and passes the error
// through unchanged.
func (s *AnalysisService) fail(log zerolog.Logger, stage Stage, err error) error {
	log.Error().Err(err).Str("stage", string(stage)).Msg("Analysis stage failed")
	return err
}

// publishCompleted emits an analysis.completed event. Best effort: the
// feedback row is already committed, so a publish failure is only logged.
func (s *AnalysisService) publishCompleted(ctx context.Context, log zerolog.Logger, fb *repository.Feedback) {
	if s.events == nil {
		return
	}

	event := map[string]string{
		"speech_id":   fb.SpeechID,
		"user_id":     fb.UserID,
		"feedback_id": fb.ID,
	}
	attrs := map[string]string{
		"event": "analysis.completed",
		// Pub/Sub may redeliver; the id lets consumers dedupe.
		"event_id": uuid.NewString(),
	}
	if err := s.events.PublishWithAttributes(ctx, event, attrs); err != nil {
		log.Warn().Err(err).Msg("Failed to publish analysis.completed event")
	}
}

// cacheFeedback stores the fresh feedback for the lookup endpoint.
func (s *AnalysisService) cacheFeedback(ctx context.Context, log zerolog.Logger, fb *repository.Feedback) {
	if s.cache == nil {
		return
	}

	if err := s.cache.SetJSON(ctx, feedbackCacheKeyPrefix+fb.SpeechID, fb, feedbackCacheTTL); err != nil {
		log.Warn().Err(err).Msg("Failed to cache feedback")
	}
}
