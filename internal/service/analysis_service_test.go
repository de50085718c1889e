package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/podiumlabs/orator_service/internal/errors"
	"github.com/podiumlabs/orator_service/internal/logger"
	"github.com/podiumlabs/orator_service/internal/repository"
	"github.com/podiumlabs/orator_service/internal/service"
)

// fakeBlobStore serves a single object and records every download.
type fakeBlobStore struct {
	objects   map[string][]byte
	downloads []string
}

func (f *fakeBlobStore) Download(_ context.Context, objectKey string) ([]byte, error) {
	f.downloads = append(f.downloads, objectKey)
	data, ok := f.objects[objectKey]
	if !ok {
		return nil, errors.New(errors.ErrBlobNotFound, "audio file not found in storage")
	}
	return data, nil
}

type fakeTranscriber struct {
	transcript string
	err        error
	calls      int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.transcript, nil
}

type fakeModel struct {
	reply       string
	err         error
	calls       int
	lastUserMsg string
}

func (f *fakeModel) ChatWithSystem(_ context.Context, _, userPrompt string, _ float32) (string, error) {
	f.calls++
	f.lastUserMsg = userPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// fakeSpeechRepo keeps speeches in a map keyed by id.
type fakeSpeechRepo struct {
	speeches    map[string]*repository.Speech
	transcripts map[string]string
}

func newFakeSpeechRepo(speeches ...*repository.Speech) *fakeSpeechRepo {
	r := &fakeSpeechRepo{
		speeches:    map[string]*repository.Speech{},
		transcripts: map[string]string{},
	}
	for _, s := range speeches {
		r.speeches[s.ID] = s
	}
	return r
}

func (f *fakeSpeechRepo) Create(_ context.Context, speech *repository.Speech) error {
	if speech.ID == "" {
		speech.ID = fmt.Sprintf("speech-%d", len(f.speeches)+1)
	}
	f.speeches[speech.ID] = speech
	return nil
}

func (f *fakeSpeechRepo) GetByID(_ context.Context, speechID string) (*repository.Speech, error) {
	s, ok := f.speeches[speechID]
	if !ok {
		return nil, errors.SpeechNotFound(speechID)
	}
	return s, nil
}

func (f *fakeSpeechRepo) ListByUser(_ context.Context, userID string) ([]repository.Speech, error) {
	var out []repository.Speech
	for _, s := range f.speeches {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSpeechRepo) AttachTranscript(_ context.Context, speechID, transcript string) error {
	f.transcripts[speechID] = transcript
	return nil
}

func (f *fakeSpeechRepo) GetOwner(_ context.Context, speechID string) (string, error) {
	s, ok := f.speeches[speechID]
	if !ok {
		return "", errors.SpeechNotFound(speechID)
	}
	return s.UserID, nil
}

// fakeFeedbackRepo appends rows like the real table does; nothing is
// deduplicated by speech id.
type fakeFeedbackRepo struct {
	rows      []repository.Feedback
	insertErr error
}

func (f *fakeFeedbackRepo) Insert(_ context.Context, fb *repository.Feedback) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	fb.ID = fmt.Sprintf("fb-%d", len(f.rows)+1)
	fb.CreatedAt = time.Now()
	f.rows = append(f.rows, *fb)
	return nil
}

func (f *fakeFeedbackRepo) GetBySpeech(_ context.Context, speechID string) (*repository.Feedback, error) {
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].SpeechID == speechID {
			fb := f.rows[i]
			return &fb, nil
		}
	}
	return nil, errors.NotFound("feedback")
}

func (f *fakeFeedbackRepo) ListBySpeech(_ context.Context, speechID string) ([]repository.Feedback, error) {
	var out []repository.Feedback
	for _, fb := range f.rows {
		if fb.SpeechID == speechID {
			out = append(out, fb)
		}
	}
	return out, nil
}

type fakeCache struct {
	store map[string]interface{}
}

func (f *fakeCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if f.store == nil {
		f.store = map[string]interface{}{}
	}
	f.store[key] = value
	return nil
}

func (f *fakeCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	v, ok := f.store[key]
	if !ok {
		return false, nil
	}
	if fb, ok := v.(*repository.Feedback); ok {
		if d, ok := dest.(*repository.Feedback); ok {
			*d = *fb
		}
	}
	return true, nil
}

type fakeEvents struct {
	published []map[string]string
}

func (f *fakeEvents) PublishWithAttributes(_ context.Context, _ interface{}, attrs map[string]string) error {
	f.published = append(f.published, attrs)
	return nil
}

const modelReply = "```json\n" + sampleAnalysisJSON + "\n```"

type analysisFixture struct {
	blobs        *fakeBlobStore
	transcriber  *fakeTranscriber
	model        *fakeModel
	speechRepo   *fakeSpeechRepo
	feedbackRepo *fakeFeedbackRepo
	events       *fakeEvents
	cache        *fakeCache
	svc          *service.AnalysisService
}

func newAnalysisFixture() *analysisFixture {
	f := &analysisFixture{
		blobs: &fakeBlobStore{objects: map[string][]byte{
			"u1/take-1.webm": []byte("webm-bytes"),
		}},
		transcriber:  &fakeTranscriber{transcript: "Um, hi, I am, uh, testing."},
		model:        &fakeModel{reply: modelReply},
		speechRepo:   newFakeSpeechRepo(&repository.Speech{ID: "s1", UserID: "u1", Title: "First try"}),
		feedbackRepo: &fakeFeedbackRepo{},
		events:       &fakeEvents{},
		cache:        &fakeCache{},
	}
	f.svc = service.NewAnalysisService(
		service.AnalysisConfig{Bucket: "speeches", Language: "en"},
		f.blobs, f.transcriber, f.model,
		f.speechRepo, f.feedbackRepo,
		f.events, f.cache,
		logger.NewNop(),
	)
	return f
}

func TestAnalysisService_Analyze(t *testing.T) {
	ctx := context.Background()
	req := service.AnalyzeRequest{
		AudioURL:   "https://storage.example.com/speeches/u1/take-1.webm",
		SpeechID:   "s1",
		PromptUsed: "Tell us about your day",
	}

	convey.Convey("Given a healthy pipeline", t, func() {
		f := newAnalysisFixture()

		convey.Convey("When a speech is analyzed end to end", func() {
			result, err := f.svc.Analyze(ctx, req)

			convey.So(err, convey.ShouldBeNil)
			convey.So(result.Transcript, convey.ShouldEqual, "Um, hi, I am, uh, testing.")

			convey.Convey("Then the feedback carries the parsed analysis", func() {
				convey.So(result.Feedback.SpeechID, convey.ShouldEqual, "s1")
				convey.So(result.Feedback.UserID, convey.ShouldEqual, "u1")
				convey.So(result.Feedback.ConfidenceScore, convey.ShouldEqual, 72)
				convey.So(result.Feedback.FillerWordsCount, convey.ShouldEqual, 2)
				convey.So(result.Feedback.Strengths, convey.ShouldResemble, []string{"Clear opening", "Friendly tone"})
				convey.So(result.Feedback.Improvements, convey.ShouldResemble, []string{"Reduce filler words", "Add a closing statement"})
			})

			convey.Convey("Then the transcript was written back to the speech row", func() {
				convey.So(f.speechRepo.transcripts["s1"], convey.ShouldEqual, "Um, hi, I am, uh, testing.")
			})

			convey.Convey("Then the model saw the transcript inside the user prompt", func() {
				convey.So(f.model.lastUserMsg, convey.ShouldContainSubstring, "Um, hi, I am, uh, testing.")
				convey.So(f.model.lastUserMsg, convey.ShouldContainSubstring, "Tell us about your day")
			})

			convey.Convey("Then one feedback row was persisted", func() {
				convey.So(f.feedbackRepo.rows, convey.ShouldHaveLength, 1)
			})

			convey.Convey("Then a completion event was published and the cache primed", func() {
				convey.So(f.events.published, convey.ShouldHaveLength, 1)
				convey.So(f.events.published[0]["event"], convey.ShouldEqual, "analysis.completed")
				convey.So(f.events.published[0]["event_id"], convey.ShouldNotBeEmpty)
				convey.So(f.cache.store, convey.ShouldContainKey, "feedback:speech:s1")
			})
		})

		convey.Convey("When the same speech is analyzed twice", func() {
			_, err1 := f.svc.Analyze(ctx, req)
			_, err2 := f.svc.Analyze(ctx, req)

			convey.So(err1, convey.ShouldBeNil)
			convey.So(err2, convey.ShouldBeNil)

			convey.Convey("Then a second feedback row is appended, not replaced", func() {
				convey.So(f.feedbackRepo.rows, convey.ShouldHaveLength, 2)
			})
		})

		convey.Convey("When events and cache are not configured", func() {
			svc := service.NewAnalysisService(
				service.AnalysisConfig{Bucket: "speeches", Language: "en"},
				f.blobs, f.transcriber, f.model,
				f.speechRepo, f.feedbackRepo,
				nil, nil,
				logger.NewNop(),
			)
			result, err := svc.Analyze(ctx, req)

			convey.So(err, convey.ShouldBeNil)
			convey.So(result.Feedback, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given invalid requests", t, func() {
		f := newAnalysisFixture()

		convey.Convey("When audio_url is missing", func() {
			_, err := f.svc.Analyze(ctx, service.AnalyzeRequest{SpeechID: "s1"})

			convey.So(errors.Is(err, errors.ErrValidation), convey.ShouldBeTrue)
			convey.So(f.blobs.downloads, convey.ShouldBeEmpty)
		})

		convey.Convey("When speech_id is missing", func() {
			_, err := f.svc.Analyze(ctx, service.AnalyzeRequest{AudioURL: "https://host/speeches/x.webm"})

			convey.So(errors.Is(err, errors.ErrValidation), convey.ShouldBeTrue)
		})

		convey.Convey("When the audio_url does not mention the bucket", func() {
			_, err := f.svc.Analyze(ctx, service.AnalyzeRequest{
				AudioURL: "https://host/elsewhere/x.webm",
				SpeechID: "s1",
			})

			convey.So(errors.Is(err, errors.ErrMalformedReference), convey.ShouldBeTrue)

			convey.Convey("Then no provider was contacted", func() {
				convey.So(f.blobs.downloads, convey.ShouldBeEmpty)
				convey.So(f.transcriber.calls, convey.ShouldEqual, 0)
				convey.So(f.model.calls, convey.ShouldEqual, 0)
			})
		})
	})

	convey.Convey("Given failing stages", t, func() {
		convey.Convey("When the audio object is gone from storage", func() {
			f := newAnalysisFixture()
			_, err := f.svc.Analyze(ctx, service.AnalyzeRequest{
				AudioURL: "https://host/speeches/u1/missing.webm",
				SpeechID: "s1",
			})

			convey.So(errors.Is(err, errors.ErrBlobNotFound), convey.ShouldBeTrue)
			convey.So(f.transcriber.calls, convey.ShouldEqual, 0)
		})

		convey.Convey("When transcription fails", func() {
			f := newAnalysisFixture()
			f.transcriber.err = errors.TranscriptionFailed(500, "upstream error")

			_, err := f.svc.Analyze(ctx, req)

			convey.So(errors.Is(err, errors.ErrTranscription), convey.ShouldBeTrue)
			convey.So(f.model.calls, convey.ShouldEqual, 0)
			convey.So(f.speechRepo.transcripts, convey.ShouldNotContainKey, "s1")
		})

		convey.Convey("When the model is rate limited after transcription", func() {
			f := newAnalysisFixture()
			f.model.err = errors.ProviderError(429, "too many requests")

			_, err := f.svc.Analyze(ctx, req)

			convey.So(errors.Is(err, errors.ErrRateLimited), convey.ShouldBeTrue)

			convey.Convey("Then the transcript survives even though feedback does not", func() {
				convey.So(f.speechRepo.transcripts["s1"], convey.ShouldEqual, "Um, hi, I am, uh, testing.")
				convey.So(f.feedbackRepo.rows, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the provider reports exhausted credits", func() {
			f := newAnalysisFixture()
			f.model.err = errors.ProviderError(402, "payment required")

			_, err := f.svc.Analyze(ctx, req)

			convey.So(errors.Is(err, errors.ErrBillingRequired), convey.ShouldBeTrue)
		})

		convey.Convey("When the model reply cannot be parsed", func() {
			f := newAnalysisFixture()
			f.model.reply = "I cannot produce JSON today."

			_, err := f.svc.Analyze(ctx, req)

			convey.So(errors.Is(err, errors.ErrUnparsableAnalysis), convey.ShouldBeTrue)

			convey.Convey("Then the transcript was still persisted", func() {
				convey.So(f.speechRepo.transcripts["s1"], convey.ShouldEqual, "Um, hi, I am, uh, testing.")
			})
		})

		convey.Convey("When the speech row vanished before persistence", func() {
			f := newAnalysisFixture()
			_, err := f.svc.Analyze(ctx, service.AnalyzeRequest{
				AudioURL: req.AudioURL,
				SpeechID: "ghost",
			})

			convey.So(errors.Is(err, errors.ErrSpeechNotFound), convey.ShouldBeTrue)
			convey.So(f.feedbackRepo.rows, convey.ShouldBeEmpty)
		})

		convey.Convey("When the feedback insert fails", func() {
			f := newAnalysisFixture()
			f.feedbackRepo.insertErr = errors.New(errors.ErrPersistence, "insert failed")

			_, err := f.svc.Analyze(ctx, req)

			convey.So(errors.Is(err, errors.ErrPersistence), convey.ShouldBeTrue)
			convey.So(f.events.published, convey.ShouldBeEmpty)
		})
	})
}
