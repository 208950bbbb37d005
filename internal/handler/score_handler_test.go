package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hackforge-api/internal/dto"
	"github.com/noah-isme/hackforge-api/internal/service"
)

type stubScoreService struct {
	recordErr  error
	historyErr error
	aggregate  dto.AggregateResponse
	history    []dto.ScoreResponse
	lastScore  dto.ScoreCreateRequest
}

func (s *stubScoreService) RecordScore(_ context.Context, payload dto.ScoreCreateRequest) (dto.AggregateResponse, error) {
	s.lastScore = payload
	if s.recordErr != nil {
		return dto.AggregateResponse{}, s.recordErr
	}
	return s.aggregate, nil
}

func (s *stubScoreService) History(context.Context, uint, uint) ([]dto.ScoreResponse, error) {
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return s.history, nil
}

func newScoreApp(stub *stubScoreService) *fiber.App {
	app := fiber.New()
	NewScoreHandler(stub, testLogger()).Register(app.Group("/api/v2/judging/scores"))
	return app
}

func TestScoreRecordReturnsCreated(t *testing.T) {
	score := 7.0
	stub := &stubScoreService{aggregate: dto.AggregateResponse{
		SubmissionID:   3,
		AggregateScore: &score,
		JudgeCount:     1,
	}}
	app := newScoreApp(stub)

	req := jsonRequest(t, http.MethodPost, "/api/v2/judging/scores", dto.ScoreCreateRequest{
		JudgeID:      1,
		SubmissionID: 3,
		Criteria:     map[string]float64{"innovation": 8, "technical": 6},
	})
	resp, envelope := performRequest(t, app, req)

	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.True(t, envelope.Success)
	require.Equal(t, "score recorded", envelope.Message)
	require.Equal(t, uint(1), stub.lastScore.JudgeID)
	require.Equal(t, uint(3), stub.lastScore.SubmissionID)
}

func TestScoreRecordStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"out of range", service.ErrOutOfRange, fiber.StatusBadRequest},
		{"unknown criterion", service.ErrInvalidCriterion, fiber.StatusBadRequest},
		{"missing criterion", service.ErrMissingCriterion, fiber.StatusBadRequest},
		{"rubric missing", service.ErrRubricNotFound, fiber.StatusNotFound},
		{"submission missing", service.ErrSubmissionNotFound, fiber.StatusNotFound},
		{"stale revision", service.ErrStaleRevision, fiber.StatusConflict},
		{"conflict of interest", service.ErrConflictOfInterest, fiber.StatusConflict},
		{"finalized", service.ErrSubmissionFinalized, fiber.StatusConflict},
		{"not assigned", service.ErrJudgeNotAssigned, fiber.StatusUnprocessableEntity},
		{"not judgeable", service.ErrSubmissionNotJudgeable, fiber.StatusUnprocessableEntity},
		{"judging closed", service.ErrJudgingClosed, fiber.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newScoreApp(&stubScoreService{recordErr: tc.err})

			req := jsonRequest(t, http.MethodPost, "/api/v2/judging/scores", dto.ScoreCreateRequest{
				JudgeID:      1,
				SubmissionID: 3,
				Criteria:     map[string]float64{"innovation": 8},
			})
			resp, envelope := performRequest(t, app, req)

			require.Equal(t, tc.want, resp.StatusCode)
			require.False(t, envelope.Success)
		})
	}
}

func TestScoreRecordRejectsMalformedBody(t *testing.T) {
	app := newScoreApp(&stubScoreService{})

	req := jsonRequest(t, http.MethodPost, "/api/v2/judging/scores", nil)
	req.Header.Set("Content-Type", "application/json")
	resp, _ := performRequest(t, app, req)

	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestScoreHistoryRequiresIdentifiers(t *testing.T) {
	app := newScoreApp(&stubScoreService{})

	resp, _ := performRequest(t, app, jsonRequest(t, http.MethodGet, "/api/v2/judging/scores/history?submission_id=3", nil))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = performRequest(t, app, jsonRequest(t, http.MethodGet, "/api/v2/judging/scores/history?judge_id=1", nil))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestScoreHistoryReturnsRecords(t *testing.T) {
	stub := &stubScoreService{history: []dto.ScoreResponse{
		{ID: 1, Revision: 1},
		{ID: 2, Revision: 2},
	}}
	app := newScoreApp(stub)

	resp, envelope := performRequest(t, app,
		jsonRequest(t, http.MethodGet, "/api/v2/judging/scores/history?judge_id=1&submission_id=3", nil))

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, envelope.Success)
	require.NotNil(t, envelope.Data)
}
