package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hackforge-api/internal/dto"
	"github.com/noah-isme/hackforge-api/internal/models"
	"github.com/noah-isme/hackforge-api/internal/service"
)

type stubLifecycleService struct {
	transitionErr error
	openErr       error
	closeErr      error
	submission    dto.SubmissionResponse
	leaderboard   dto.LeaderboardResponse
}

func (s *stubLifecycleService) Transition(context.Context, uint, dto.TransitionRequest) (dto.SubmissionResponse, error) {
	if s.transitionErr != nil {
		return dto.SubmissionResponse{}, s.transitionErr
	}
	return s.submission, nil
}

func (s *stubLifecycleService) OpenJudging(context.Context, uint) error {
	return s.openErr
}

func (s *stubLifecycleService) CloseJudging(context.Context, uint) (dto.LeaderboardResponse, error) {
	if s.closeErr != nil {
		return dto.LeaderboardResponse{}, s.closeErr
	}
	return s.leaderboard, nil
}

type stubDigestService struct {
	err    error
	digest dto.FeedbackDigestResponse
}

func (s *stubDigestService) FeedbackDigest(context.Context, uint) (dto.FeedbackDigestResponse, error) {
	if s.err != nil {
		return dto.FeedbackDigestResponse{}, s.err
	}
	return s.digest, nil
}

func newSubmissionApp(lifecycle service.LifecycleService, digest service.DigestService) *fiber.App {
	app := fiber.New()
	NewSubmissionHandler(lifecycle, digest, testLogger()).Register(app.Group("/api/v2/submissions"))
	return app
}

func TestTransitionReturnsUpdatedSubmission(t *testing.T) {
	stub := &stubLifecycleService{submission: dto.SubmissionResponse{ID: 7, Status: models.SubmissionStatusWinner}}
	app := newSubmissionApp(stub, nil)

	req := jsonRequest(t, http.MethodPost, "/api/v2/submissions/7/transition", dto.TransitionRequest{
		TargetStatus: models.SubmissionStatusWinner,
	})
	resp, envelope := performRequest(t, app, req)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, envelope.Success)
}

func TestTransitionStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", service.ErrSubmissionNotFound, fiber.StatusNotFound},
		{"finalized", service.ErrSubmissionFinalized, fiber.StatusConflict},
		{"invalid edge", service.ErrInvalidTransition, fiber.StatusUnprocessableEntity},
		{"rank mismatch", service.ErrRankMismatch, fiber.StatusUnprocessableEntity},
		{"deadline passed", service.ErrDeadlinePassed, fiber.StatusUnprocessableEntity},
		{"judging closed", service.ErrJudgingClosed, fiber.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newSubmissionApp(&stubLifecycleService{transitionErr: tc.err}, nil)

			req := jsonRequest(t, http.MethodPost, "/api/v2/submissions/7/transition", dto.TransitionRequest{
				TargetStatus: models.SubmissionStatusWinner,
			})
			resp, envelope := performRequest(t, app, req)

			require.Equal(t, tc.want, resp.StatusCode)
			require.False(t, envelope.Success)
		})
	}
}

func TestTransitionRejectsBadIdentifier(t *testing.T) {
	app := newSubmissionApp(&stubLifecycleService{}, nil)

	req := jsonRequest(t, http.MethodPost, "/api/v2/submissions/abc/transition", dto.TransitionRequest{
		TargetStatus: models.SubmissionStatusSubmitted,
	})
	resp, _ := performRequest(t, app, req)

	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestFeedbackDigestReturnsSummary(t *testing.T) {
	digest := &stubDigestService{digest: dto.FeedbackDigestResponse{
		SubmissionID: 7,
		Summary:      "Consistent praise for the demo.",
		JudgeCount:   3,
		GeneratedAt:  time.Now().UTC(),
	}}
	app := newSubmissionApp(&stubLifecycleService{}, digest)

	resp, envelope := performRequest(t, app,
		jsonRequest(t, http.MethodGet, "/api/v2/submissions/7/feedback-digest", nil))

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, envelope.Success)
}

func TestFeedbackDigestUnavailable(t *testing.T) {
	// No digest service configured at all.
	app := newSubmissionApp(&stubLifecycleService{}, nil)
	resp, _ := performRequest(t, app,
		jsonRequest(t, http.MethodGet, "/api/v2/submissions/7/feedback-digest", nil))
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	// Configured but unable to produce a digest.
	app = newSubmissionApp(&stubLifecycleService{}, &stubDigestService{err: service.ErrDigestUnavailable})
	resp, _ = performRequest(t, app,
		jsonRequest(t, http.MethodGet, "/api/v2/submissions/7/feedback-digest", nil))
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestFeedbackDigestUnknownSubmission(t *testing.T) {
	app := newSubmissionApp(&stubLifecycleService{}, &stubDigestService{err: service.ErrSubmissionNotFound})

	resp, _ := performRequest(t, app,
		jsonRequest(t, http.MethodGet, "/api/v2/submissions/7/feedback-digest", nil))

	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
