package service_test

import (
	"context"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/podiumlabs/orator_service/internal/errors"
	"github.com/podiumlabs/orator_service/internal/logger"
	"github.com/podiumlabs/orator_service/internal/repository"
	"github.com/podiumlabs/orator_service/internal/service"
)

type fakeProfileRepo struct {
	profiles     map[string]*repository.Profile
	increments   map[string]int
	incrementErr error
}

func newFakeProfileRepo(profiles ...*repository.Profile) *fakeProfileRepo {
	r := &fakeProfileRepo{
		profiles:   map[string]*repository.Profile{},
		increments: map[string]int{},
	}
	for _, p := range profiles {
		r.profiles[p.ID] = p
	}
	return r
}

func (f *fakeProfileRepo) GetByID(_ context.Context, userID string) (*repository.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, errors.NotFound("profile")
	}
	return p, nil
}

func (f *fakeProfileRepo) IncrementTotalSpeeches(_ context.Context, userID string) error {
	if f.incrementErr != nil {
		return f.incrementErr
	}
	f.increments[userID]++
	return nil
}

func TestSpeechService_CreateSpeech(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a speech service", t, func() {
		speechRepo := newFakeSpeechRepo()
		profileRepo := newFakeProfileRepo(&repository.Profile{ID: "u1"})
		svc := service.NewSpeechService(speechRepo, &fakeFeedbackRepo{}, profileRepo, nil, logger.NewNop())

		convey.Convey("When a valid speech is registered", func() {
			speech, err := svc.CreateSpeech(ctx, service.CreateSpeechReq{
				UserID:   "u1",
				Title:    "First try",
				AudioURL: "https://host/speeches/u1/take-1.webm",
			})

			convey.So(err, convey.ShouldBeNil)
			convey.So(speech.ID, convey.ShouldNotBeEmpty)
			convey.So(speechRepo.speeches, convey.ShouldContainKey, speech.ID)

			convey.Convey("Then the owner's upload counter was bumped", func() {
				convey.So(profileRepo.increments["u1"], convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the counter bump fails the upload still succeeds", func() {
			profileRepo.incrementErr = errors.Internal("db down")

			speech, err := svc.CreateSpeech(ctx, service.CreateSpeechReq{
				UserID:   "u1",
				Title:    "First try",
				AudioURL: "https://host/speeches/u1/take-1.webm",
			})

			convey.So(err, convey.ShouldBeNil)
			convey.So(speech, convey.ShouldNotBeNil)
		})

		convey.Convey("When required fields are missing", func() {
			_, err := svc.CreateSpeech(ctx, service.CreateSpeechReq{Title: "no owner"})
			convey.So(errors.Is(err, errors.ErrValidation), convey.ShouldBeTrue)

			_, err = svc.CreateSpeech(ctx, service.CreateSpeechReq{
				UserID:   "u1",
				AudioURL: "https://host/speeches/x.webm",
			})
			convey.So(errors.Is(err, errors.ErrValidation), convey.ShouldBeTrue)
		})
	})
}

func TestSpeechService_GetFeedback(t *testing.T) {
	ctx := context.Background()
	stored := repository.Feedback{
		ID:              "fb-1",
		SpeechID:        "s1",
		UserID:          "u1",
		ConfidenceScore: 72,
		AISummary:       "Nice work.",
	}

	convey.Convey("Given a speech with persisted feedback", t, func() {
		speechRepo := newFakeSpeechRepo(&repository.Speech{ID: "s1", UserID: "u1"})
		feedbackRepo := &fakeFeedbackRepo{rows: []repository.Feedback{stored}}

		convey.Convey("When no cache is configured", func() {
			svc := service.NewSpeechService(speechRepo, feedbackRepo, newFakeProfileRepo(), nil, logger.NewNop())

			fb, err := svc.GetFeedback(ctx, "s1")

			convey.So(err, convey.ShouldBeNil)
			convey.So(fb.ID, convey.ShouldEqual, "fb-1")
		})

		convey.Convey("When a cache is configured", func() {
			cache := &fakeCache{}
			svc := service.NewSpeechService(speechRepo, feedbackRepo, newFakeProfileRepo(), cache, logger.NewNop())

			fb, err := svc.GetFeedback(ctx, "s1")

			convey.So(err, convey.ShouldBeNil)
			convey.So(fb.ID, convey.ShouldEqual, "fb-1")

			convey.Convey("Then the read primed the cache", func() {
				convey.So(cache.store, convey.ShouldContainKey, "feedback:speech:s1")
			})
		})

		convey.Convey("When several rows exist the most recent wins", func() {
			feedbackRepo.rows = append(feedbackRepo.rows, repository.Feedback{
				ID:       "fb-2",
				SpeechID: "s1",
				UserID:   "u1",
			})
			svc := service.NewSpeechService(speechRepo, feedbackRepo, newFakeProfileRepo(), nil, logger.NewNop())

			fb, err := svc.GetFeedback(ctx, "s1")

			convey.So(err, convey.ShouldBeNil)
			convey.So(fb.ID, convey.ShouldEqual, "fb-2")
		})
	})

	convey.Convey("Given a speech still waiting on analysis", t, func() {
		speechRepo := newFakeSpeechRepo(&repository.Speech{ID: "s1", UserID: "u1"})
		svc := service.NewSpeechService(speechRepo, &fakeFeedbackRepo{}, newFakeProfileRepo(), nil, logger.NewNop())

		convey.Convey("Then the lookup reads as feedback not found", func() {
			_, err := svc.GetFeedback(ctx, "s1")

			convey.So(errors.Is(err, errors.ErrNotFound), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a speech id that does not exist", t, func() {
		svc := service.NewSpeechService(newFakeSpeechRepo(), &fakeFeedbackRepo{}, newFakeProfileRepo(), nil, logger.NewNop())

		convey.Convey("Then the lookup reads as a missing speech", func() {
			_, err := svc.GetFeedback(ctx, "ghost")

			convey.So(errors.Is(err, errors.ErrSpeechNotFound), convey.ShouldBeTrue)
		})
	})
}

func TestSpeechService_RandomPrompt(t *testing.T) {
	convey.Convey("Given the fixed prompt pool", t, func() {
		svc := service.NewSpeechService(newFakeSpeechRepo(), &fakeFeedbackRepo{}, newFakeProfileRepo(), nil, logger.NewNop())

		convey.Convey("Then every draw returns a non-empty prompt", func() {
			for i := 0; i < 20; i++ {
				convey.So(svc.RandomPrompt(), convey.ShouldNotBeEmpty)
			}
		})
	})
}
