package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/hackforge-api/internal/dto"
	"github.com/noah-isme/hackforge-api/internal/models"
	"github.com/noah-isme/hackforge-api/internal/repository"
)

// AssignmentService maintains the judge↔submission assignment graph.
// Conflicts of interest are rejected at assignment time, not discovered at
// scoring time.
type AssignmentService interface {
	Assign(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Unassign(ctx context.Context, assignmentID uint, force bool) error
	List(ctx context.Context, hackathonID uint) ([]dto.AssignmentResponse, error)
	AutoAssign(ctx context.Context, payload dto.AutoAssignRequest) (dto.AutoAssignResponse, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	roster      repository.RosterRepository
	hackathons  repository.HackathonRepository
	scores      repository.ScoreRepository
	aggregation AggregationService
	ranking     RankingService
	progress    ProgressService
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer

	overlapFactor float64
	minJudges     int
	now           func() time.Time
}

// NewAssignmentService constructs the assignment manager. overlapFactor and
// minJudges are the auto-assignment defaults; requests may override them.
func NewAssignmentService(
	assignments repository.AssignmentRepository,
	submissions repository.SubmissionRepository,
	roster repository.RosterRepository,
	hackathons repository.HackathonRepository,
	scores repository.ScoreRepository,
	aggregation AggregationService,
	ranking RankingService,
	progress ProgressService,
	validate *validator.Validate,
	overlapFactor float64,
	minJudges int,
	logger zerolog.Logger,
) AssignmentService {
	if overlapFactor <= 0 {
		overlapFactor = 3
	}
	if minJudges <= 0 {
		minJudges = 2
	}

	return &assignmentService{
		assignments:   assignments,
		submissions:   submissions,
		roster:        roster,
		hackathons:    hackathons,
		scores:        scores,
		aggregation:   aggregation,
		ranking:       ranking,
		progress:      progress,
		validator:     validate,
		logger:        logger.With().Str("component", "assignment_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/hackforge-api/internal/service/assignment"),
		overlapFactor: overlapFactor,
		minJudges:     minJudges,
		now:           time.Now,
	}
}

func (s *assignmentService) Assign(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assignments.create", trace.WithAttributes(
		attribute.Int64("assignment.judge_id", int64(payload.JudgeID)),
		attribute.Int64("assignment.hackathon_id", int64(payload.HackathonID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}

	hackathon, err := s.hackathons.GetByID(ctx, payload.HackathonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrHackathonNotFound
		}
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}
	if hackathon.Status == models.HackathonStatusClosed {
		return dto.AssignmentResponse{}, ErrJudgingClosed
	}

	judge, err := s.roster.GetUser(ctx, payload.JudgeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrJudgeNotFound
		}
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}
	if !judge.CanJudge() {
		return dto.AssignmentResponse{}, ErrNotAJudge
	}

	exists, err := s.assignments.Exists(ctx, payload.JudgeID, payload.HackathonID, payload.TrackID, payload.SubmissionID)
	if err != nil {
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}
	if exists {
		return dto.AssignmentResponse{}, ErrDuplicateAssignment
	}

	scoped, err := s.scopedSubmissions(ctx, payload.HackathonID, payload.TrackID, payload.SubmissionID)
	if err != nil {
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}

	judgeTeams, err := s.roster.TeamIDsForUser(ctx, payload.JudgeID)
	if err != nil {
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}
	if hasConflict(judgeTeams, scoped) {
		return dto.AssignmentResponse{}, ErrConflictOfInterest
	}

	assignment := models.JudgeAssignment{
		JudgeID:      payload.JudgeID,
		HackathonID:  payload.HackathonID,
		TrackID:      payload.TrackID,
		SubmissionID: payload.SubmissionID,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}

	if s.progress != nil {
		s.progress.Invalidate(ctx, payload.HackathonID)
	}

	s.logger.Info().
		Uint("assignment_id", assignment.ID).
		Uint("judge_id", payload.JudgeID).
		Uint("hackathon_id", payload.HackathonID).
		Msg("judge assigned")

	return s.withCompletion(ctx, assignment)
}

// Unassign removes an assignment. When the judge already has active scores
// in the scope the call fails unless forced; forcing supersedes those
// records (never deletes them) and recomputes the affected aggregates.
func (s *assignmentService) Unassign(ctx context.Context, assignmentID uint, force bool) error {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	records, err := s.scores.ActiveByJudgeAndHackathon(ctx, assignment.JudgeID, assignment.HackathonID)
	if err != nil {
		return err
	}

	var coveredIDs []uint
	var affectedSubmissions []uint
	for _, record := range records {
		submission, err := s.submissions.GetByID(ctx, record.SubmissionID)
		if err != nil {
			return err
		}
		if assignment.Covers(submission) {
			coveredIDs = append(coveredIDs, record.ID)
			affectedSubmissions = append(affectedSubmissions, submission.ID)
		}
	}

	if len(coveredIDs) > 0 && !force {
		return ErrHasActiveScores
	}

	if len(coveredIDs) > 0 {
		superseded, err := s.scores.SupersedeByIDs(ctx, coveredIDs, s.now().UTC())
		if err != nil {
			return err
		}
		s.logger.Warn().
			Uint("assignment_id", assignmentID).
			Int64("superseded", superseded).
			Msg("forced unassignment superseded active scores")
	}

	if err := s.assignments.Delete(ctx, assignmentID); err != nil {
		return err
	}

	for _, submissionID := range affectedSubmissions {
		if _, err := s.aggregation.Aggregate(ctx, submissionID); err != nil {
			return err
		}
	}

	if s.progress != nil {
		s.progress.Invalidate(ctx, assignment.HackathonID)
	}
	if len(affectedSubmissions) > 0 && s.ranking != nil {
		s.ranking.Schedule(assignment.HackathonID)
	}

	return nil
}

func (s *assignmentService) List(ctx context.Context, hackathonID uint) ([]dto.AssignmentResponse, error) {
	assignments, err := s.assignments.ListByHackathon(ctx, hackathonID)
	if err != nil {
		return nil, err
	}

	// Completion counts are delegated to the progress tracker and cached per
	// judge across the loop.
	progressByJudge := make(map[uint]dto.JudgeProgressResponse, len(assignments))

	responses := make([]dto.AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		response := dto.NewAssignmentResponse(assignment)

		if s.progress != nil {
			judgeProgress, cached := progressByJudge[assignment.JudgeID]
			if !cached {
				judgeProgress, err = s.progress.JudgeProgress(ctx, assignment.JudgeID, hackathonID)
				if err != nil {
					return nil, err
				}
				progressByJudge[assignment.JudgeID] = judgeProgress
			}
			response.Assigned = judgeProgress.Assigned
			response.Scored = judgeProgress.Scored
			response.Pending = judgeProgress.Pending
		}

		responses = append(responses, response)
	}

	return responses, nil
}

// AutoAssign distributes judges over the hackathon's submissions. Every
// submission targets at least minJudges eligible judges and no judge
// receives more than ceil(totalSubmissions*overlapFactor/judgeCount)
// submissions. Submissions that cannot reach the minimum are flagged in the
// response rather than silently under-assigned.
func (s *assignmentService) AutoAssign(ctx context.Context, payload dto.AutoAssignRequest) (dto.AutoAssignResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assignments.auto",
		trace.WithAttributes(attribute.Int64("assignment.hackathon_id", int64(payload.HackathonID))))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.AutoAssignResponse{}, err
	}

	if _, err := s.hackathons.GetByID(ctx, payload.HackathonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AutoAssignResponse{}, ErrHackathonNotFound
		}
		span.RecordError(err)
		return dto.AutoAssignResponse{}, err
	}

	overlap := payload.OverlapFactor
	if overlap <= 0 {
		overlap = s.overlapFactor
	}
	minJudges := payload.MinJudges
	if minJudges <= 0 {
		minJudges = s.minJudges
	}

	submissions, err := s.scopedSubmissions(ctx, payload.HackathonID, nil, nil)
	if err != nil {
		span.RecordError(err)
		return dto.AutoAssignResponse{}, err
	}

	judgeTeams := make(map[uint]map[uint]struct{}, len(payload.JudgeIDs))
	for _, judgeID := range payload.JudgeIDs {
		judge, err := s.roster.GetUser(ctx, judgeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.AutoAssignResponse{}, ErrJudgeNotFound
			}
			span.RecordError(err)
			return dto.AutoAssignResponse{}, err
		}
		if !judge.CanJudge() {
			return dto.AutoAssignResponse{}, ErrNotAJudge
		}

		teams, err := s.roster.TeamIDsForUser(ctx, judgeID)
		if err != nil {
			span.RecordError(err)
			return dto.AutoAssignResponse{}, err
		}
		teamSet := make(map[uint]struct{}, len(teams))
		for _, teamID := range teams {
			teamSet[teamID] = struct{}{}
		}
		judgeTeams[judgeID] = teamSet
	}

	existing, err := s.assignments.ListByHackathon(ctx, payload.HackathonID)
	if err != nil {
		span.RecordError(err)
		return dto.AutoAssignResponse{}, err
	}

	load := make(map[uint]int, len(payload.JudgeIDs))
	coverage := make(map[uint]map[uint]struct{}, len(submissions))
	for _, submission := range submissions {
		coverage[submission.ID] = make(map[uint]struct{})
		for _, assignment := range existing {
			if assignment.Covers(submission) {
				coverage[submission.ID][assignment.JudgeID] = struct{}{}
				load[assignment.JudgeID]++
			}
		}
	}

	maxLoad := int(math.Ceil(float64(len(submissions)) * overlap / float64(len(payload.JudgeIDs))))
	if maxLoad < minJudges {
		maxLoad = minJudges
	}

	var created []models.JudgeAssignment
	var underAssigned []dto.UnderAssignedSubmission

	for _, submission := range submissions {
		assigned := coverage[submission.ID]
		eligible := 0

		candidates := make([]uint, 0, len(payload.JudgeIDs))
		for _, judgeID := range payload.JudgeIDs {
			if _, conflicted := judgeTeams[judgeID][submission.TeamID]; conflicted {
				continue
			}
			eligible++
			if _, already := assigned[judgeID]; already {
				continue
			}
			candidates = append(candidates, judgeID)
		}

		// Least-loaded first, judge id as the stable tie-break so reruns
		// are deterministic.
		sort.SliceStable(candidates, func(i, j int) bool {
			if load[candidates[i]] != load[candidates[j]] {
				return load[candidates[i]] < load[candidates[j]]
			}
			return candidates[i] < candidates[j]
		})

		for _, judgeID := range candidates {
			if len(assigned) >= minJudges {
				break
			}
			if load[judgeID] >= maxLoad {
				continue
			}

			submissionID := submission.ID
			created = append(created, models.JudgeAssignment{
				JudgeID:      judgeID,
				HackathonID:  payload.HackathonID,
				SubmissionID: &submissionID,
				CreatedAt:    s.now().UTC(),
			})
			assigned[judgeID] = struct{}{}
			load[judgeID]++
		}

		if len(assigned) < minJudges {
			underAssigned = append(underAssigned, dto.UnderAssignedSubmission{
				SubmissionID:   submission.ID,
				EligibleJudges: eligible,
				RequiredJudges: minJudges,
			})
		}
	}

	if err := s.assignments.CreateBatch(ctx, created); err != nil {
		span.RecordError(err)
		return dto.AutoAssignResponse{}, err
	}

	if s.progress != nil {
		s.progress.Invalidate(ctx, payload.HackathonID)
	}

	response := dto.AutoAssignResponse{
		HackathonID:   payload.HackathonID,
		Created:       make([]dto.AssignmentResponse, 0, len(created)),
		UnderAssigned: underAssigned,
	}
	for _, assignment := range created {
		response.Created = append(response.Created, dto.NewAssignmentResponse(assignment))
	}

	s.logger.Info().
		Uint("hackathon_id", payload.HackathonID).
		Int("created", len(created)).
		Int("under_assigned", len(underAssigned)).
		Msg("auto-assignment completed")

	return response, nil
}

// scopedSubmissions lists submissions the assignment scope covers,
// excluding drafts and disqualified entries.
func (s *assignmentService) scopedSubmissions(ctx context.Context, hackathonID uint, trackID, submissionID *uint) ([]models.Submission, error) {
	if submissionID != nil {
		submission, err := s.submissions.GetByID(ctx, *submissionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSubmissionNotFound
			}
			return nil, err
		}
		return []models.Submission{submission}, nil
	}

	filter := repository.SubmissionFilter{HackathonID: &hackathonID, TrackID: trackID}
	all, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	scoped := make([]models.Submission, 0, len(all))
	for _, submission := range all {
		if submission.Status == models.SubmissionStatusDraft || submission.Status == models.SubmissionStatusDisqualified {
			continue
		}
		scoped = append(scoped, submission)
	}

	return scoped, nil
}

func (s *assignmentService) withCompletion(ctx context.Context, assignment models.JudgeAssignment) (dto.AssignmentResponse, error) {
	response := dto.NewAssignmentResponse(assignment)

	if s.progress != nil {
		judgeProgress, err := s.progress.JudgeProgress(ctx, assignment.JudgeID, assignment.HackathonID)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		response.Assigned = judgeProgress.Assigned
		response.Scored = judgeProgress.Scored
		response.Pending = judgeProgress.Pending
	}

	return response, nil
}

func hasConflict(judgeTeams []uint, submissions []models.Submission) bool {
	if len(judgeTeams) == 0 {
		return false
	}

	teamSet := make(map[uint]struct{}, len(judgeTeams))
	for _, teamID := range judgeTeams {
		teamSet[teamID] = struct{}{}
	}

	for _, submission := range submissions {
		if _, conflicted := teamSet[submission.TeamID]; conflicted {
			return true
		}
	}

	return false
}
