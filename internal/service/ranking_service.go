package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/hackforge-api/internal/dto"
	"github.com/noah-isme/hackforge-api/internal/models"
	"github.com/noah-isme/hackforge-api/internal/observability"
	"github.com/noah-isme/hackforge-api/internal/repository"
)

const leaderboardBufferSize = 8

// RankingService orders submissions within a comparison scope and maintains
// the persisted hackathon-wide rank. Rank is the only submission field it
// writes. Recomputation is deterministic and idempotent, so the debounced
// trigger may fire redundantly without harm.
type RankingService interface {
	Leaderboard(ctx context.Context, hackathonID uint, trackID *uint) (dto.LeaderboardResponse, error)
	Recompute(ctx context.Context, hackathonID uint) (dto.LeaderboardResponse, error)
	Schedule(hackathonID uint)
	Subscribe(hackathonID uint) (<-chan dto.LeaderboardResponse, func())
	Start(ctx context.Context)
}

type rankingService struct {
	submissions repository.SubmissionRepository
	hackathons  repository.HackathonRepository
	publisher   EventPublisher
	debounce    time.Duration
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time

	timerMu sync.Mutex
	timers  map[uint]*time.Timer

	broker *leaderboardBroker
}

type leaderboardBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan dto.LeaderboardResponse]struct{}
}

// NewRankingService constructs the ranking engine.
func NewRankingService(submissions repository.SubmissionRepository, hackathons repository.HackathonRepository, publisher EventPublisher, debounce time.Duration, logger zerolog.Logger) RankingService {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	return &rankingService{
		submissions: submissions,
		hackathons:  hackathons,
		publisher:   publisher,
		debounce:    debounce,
		logger:      logger.With().Str("component", "ranking_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/hackforge-api/internal/service/ranking"),
		now:         time.Now,
		timers:      make(map[uint]*time.Timer),
		broker: &leaderboardBroker{
			subscribers: make(map[uint]map[chan dto.LeaderboardResponse]struct{}),
		},
	}
}

// Start registers the cross-node listener: RankingUpdated events from other
// nodes trigger a local leaderboard rebuild so websocket subscribers on this
// node stay current.
func (s *rankingService) Start(ctx context.Context) {
	if s.publisher == nil {
		return
	}

	s.publisher.Subscribe(func(event DomainEvent) {
		if event.Type != EventRankingUpdated {
			return
		}

		go func() {
			readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			leaderboard, err := s.Leaderboard(readCtx, event.EntityID, nil)
			if err != nil {
				s.logger.Warn().Err(err).Uint("hackathon_id", event.EntityID).Msg("failed to rebuild leaderboard for stream")
				return
			}
			s.broker.broadcast(event.EntityID, leaderboard)
		}()
	})
}

// Leaderboard returns the current ordering for the scope. For track scopes
// the dense rank is computed over the track's subset using the same
// comparator that produced the persisted hackathon-wide ranks.
func (s *rankingService) Leaderboard(ctx context.Context, hackathonID uint, trackID *uint) (dto.LeaderboardResponse, error) {
	hackathon, err := s.hackathons.GetByID(ctx, hackathonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LeaderboardResponse{}, ErrHackathonNotFound
		}
		return dto.LeaderboardResponse{}, err
	}

	filter := repository.SubmissionFilter{HackathonID: &hackathonID}
	if trackID != nil {
		filter.TrackID = trackID
	}

	submissions, err := s.submissions.List(ctx, filter)
	if err != nil {
		return dto.LeaderboardResponse{}, err
	}

	ranked := rankableSubmissions(submissions)
	sortByScore(ranked)

	entries := make([]dto.LeaderboardEntry, 0, len(ranked))
	total := len(ranked)
	for position, submission := range ranked {
		rank := position + 1
		entries = append(entries, dto.LeaderboardEntry{
			SubmissionID:   submission.ID,
			Title:          submission.Title,
			TeamID:         submission.TeamID,
			Rank:           rank,
			AggregateScore: *submission.AggregateScore,
			JudgeCount:     submission.JudgeCount,
			Percentile:     percentile(rank, total),
		})
	}

	return dto.LeaderboardResponse{
		HackathonID: hackathonID,
		TrackID:     trackID,
		Version:     hackathon.RankingVersion,
		GeneratedAt: s.now().UTC(),
		Entries:     entries,
	}, nil
}

// Recompute reorders the whole hackathon, persists dense hackathon-wide
// ranks, bumps the ranking version and emits RankingUpdated.
func (s *rankingService) Recompute(ctx context.Context, hackathonID uint) (dto.LeaderboardResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ranking.recompute",
		trace.WithAttributes(attribute.Int64("ranking.hackathon_id", int64(hackathonID))))
	defer span.End()

	start := s.now()

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{HackathonID: &hackathonID})
	if err != nil {
		span.RecordError(err)
		return dto.LeaderboardResponse{}, err
	}

	ranked := rankableSubmissions(submissions)
	sortByScore(ranked)

	positions := make(map[uint]int, len(ranked))
	for position, submission := range ranked {
		positions[submission.ID] = position + 1
	}

	for _, submission := range submissions {
		rank, ok := positions[submission.ID]
		if !ok {
			if submission.Rank != nil {
				if err := s.submissions.UpdateRank(ctx, submission.ID, nil); err != nil {
					span.RecordError(err)
					return dto.LeaderboardResponse{}, err
				}
			}
			continue
		}

		if submission.Rank == nil || *submission.Rank != rank {
			if err := s.submissions.UpdateRank(ctx, submission.ID, &rank); err != nil {
				span.RecordError(err)
				return dto.LeaderboardResponse{}, err
			}
		}
	}

	version, err := s.hackathons.BumpRankingVersion(ctx, hackathonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LeaderboardResponse{}, ErrHackathonNotFound
		}
		span.RecordError(err)
		return dto.LeaderboardResponse{}, err
	}

	entries := make([]dto.LeaderboardEntry, 0, len(ranked))
	total := len(ranked)
	for position, submission := range ranked {
		rank := position + 1
		entries = append(entries, dto.LeaderboardEntry{
			SubmissionID:   submission.ID,
			Title:          submission.Title,
			TeamID:         submission.TeamID,
			Rank:           rank,
			AggregateScore: *submission.AggregateScore,
			JudgeCount:     submission.JudgeCount,
			Percentile:     percentile(rank, total),
		})
	}

	leaderboard := dto.LeaderboardResponse{
		HackathonID: hackathonID,
		Version:     version,
		GeneratedAt: s.now().UTC(),
		Entries:     entries,
	}

	observability.RankingRecomputes().Inc()
	observability.RankingDuration().Observe(s.now().Sub(start).Seconds())

	if s.publisher != nil {
		s.publisher.Publish(ctx, DomainEvent{
			Type:     EventRankingUpdated,
			EntityID: hackathonID,
			Version:  version,
			Payload: map[string]interface{}{
				"submissions_ranked": total,
			},
		})
	}

	s.logger.Info().
		Uint("hackathon_id", hackathonID).
		Uint("version", version).
		Int("ranked", total).
		Msg("leaderboard recomputed")

	return leaderboard, nil
}

// Schedule queues a debounced recomputation: a burst of score writes inside
// the window results in a single full re-ranking.
func (s *rankingService) Schedule(hackathonID uint) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	if timer, exists := s.timers[hackathonID]; exists {
		timer.Reset(s.debounce)
		return
	}

	s.timers[hackathonID] = time.AfterFunc(s.debounce, func() {
		s.timerMu.Lock()
		delete(s.timers, hackathonID)
		s.timerMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := s.Recompute(ctx, hackathonID); err != nil {
			s.logger.Error().Err(err).Uint("hackathon_id", hackathonID).Msg("debounced ranking recompute failed")
		}
	})
}

func (s *rankingService) Subscribe(hackathonID uint) (<-chan dto.LeaderboardResponse, func()) {
	channel := make(chan dto.LeaderboardResponse, leaderboardBufferSize)

	s.broker.subscribe(hackathonID, channel)
	observability.LeaderboardStreamClients().Inc()

	cleanup := func() {
		s.broker.unsubscribe(hackathonID, channel)
		observability.LeaderboardStreamClients().Dec()
	}

	return channel, cleanup
}

// rankableSubmissions filters to entries that participate in the
// leaderboard: a comparable aggregate exists and the status allows ranking.
func rankableSubmissions(submissions []models.Submission) []models.Submission {
	ranked := make([]models.Submission, 0, len(submissions))
	for _, submission := range submissions {
		if submission.AggregateScore == nil || !submission.Rankable() {
			continue
		}
		ranked = append(ranked, submission)
	}
	return ranked
}

// sortByScore orders descending by aggregate, then by judge count (more
// corroborated scores first), then by submission time (promptness), then by
// id for a guaranteed total order.
func sortByScore(submissions []models.Submission) {
	sort.SliceStable(submissions, func(i, j int) bool {
		a, b := submissions[i], submissions[j]

		if *a.AggregateScore != *b.AggregateScore {
			return *a.AggregateScore > *b.AggregateScore
		}
		if a.JudgeCount != b.JudgeCount {
			return a.JudgeCount > b.JudgeCount
		}

		aTime := submissionTime(a)
		bTime := submissionTime(b)
		if !aTime.Equal(bTime) {
			return aTime.Before(bTime)
		}

		return a.ID < b.ID
	})
}

func submissionTime(submission models.Submission) time.Time {
	if submission.SubmittedAt != nil {
		return *submission.SubmittedAt
	}
	return submission.CreatedAt
}

func percentile(rank, total int) *float64 {
	if total <= 1 {
		return nil
	}

	value := float64(total-rank) / float64(total-1)
	return &value
}

func (b *leaderboardBroker) subscribe(hackathonID uint, ch chan dto.LeaderboardResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[hackathonID]; !exists {
		b.subscribers[hackathonID] = make(map[chan dto.LeaderboardResponse]struct{})
	}
	b.subscribers[hackathonID][ch] = struct{}{}
}

func (b *leaderboardBroker) unsubscribe(hackathonID uint, ch chan dto.LeaderboardResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[hackathonID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, hackathonID)
		}
	}
}

func (b *leaderboardBroker) broadcast(hackathonID uint, leaderboard dto.LeaderboardResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[hackathonID] {
		select {
		case ch <- leaderboard:
		default:
		}
	}
}
