package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/hackforge-api/internal/observability"
)

// Domain event types consumed by notification and gamification collaborators.
const (
	EventScoreRecorded       = "judging.score.recorded"
	EventSubmissionFinalized = "judging.submission.finalized"
	EventRankingUpdated      = "judging.ranking.updated"
)

// DomainEvent is the envelope emitted at the judging core's boundary. Every
// event carries the affected entity id and a version so consumers can
// deduplicate redeliveries.
type DomainEvent struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	EntityID   uint                   `json:"entity_id"`
	Version    uint                   `json:"version"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// EventPublisher fans domain events out to collaborators and to in-process
// subscribers such as the leaderboard stream.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent)
	Subscribe(handler func(DomainEvent)) func()
	Start(ctx context.Context)
}

type brokerEvent struct {
	Source string      `json:"source"`
	Event  DomainEvent `json:"event"`
	SentAt time.Time   `json:"sent_at"`
}

type eventPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	nodeID       string

	mu       sync.RWMutex
	handlers map[uint64]func(DomainEvent)
	nextID   uint64
}

// NewEventPublisher constructs the boundary publisher. Either broker may be
// nil; single-node deployments still get in-process delivery.
func NewEventPublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) EventPublisher {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":events"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".events"
	}

	return &eventPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "event_publisher").Logger(),
		nodeID:       uuid.NewString(),
		handlers:     make(map[uint64]func(DomainEvent)),
	}
}

func (p *eventPublisher) Start(ctx context.Context) {
	if p.redis != nil && p.redisChannel != "" {
		go p.consumeRedis(ctx)
	}
	if p.nats != nil && p.natsSubject != "" {
		go p.consumeNATS(ctx)
	}
}

// Publish delivers the event locally and to both brokers. Broker failures
// are logged, not propagated: the write that produced the event has already
// committed and must not be rolled back by a flaky broker.
func (p *eventPublisher) Publish(ctx context.Context, event DomainEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	p.dispatch(event)
	observability.EventsPublished().WithLabelValues(event.Type).Inc()

	envelope := brokerEvent{Source: p.nodeID, Event: event, SentAt: time.Now().UTC()}
	payload, err := json.Marshal(envelope)
	if err != nil {
		p.logger.Error().Err(err).Str("event_type", event.Type).Msg("failed to marshal domain event")
		return
	}

	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			p.logger.Warn().Err(err).Str("event_type", event.Type).Msg("failed to publish event to redis")
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			p.logger.Warn().Err(err).Str("event_type", event.Type).Msg("failed to publish event to nats")
		}
	}
}

func (p *eventPublisher) Subscribe(handler func(DomainEvent)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.handlers[id] = handler

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.handlers, id)
	}
}

func (p *eventPublisher) dispatch(event DomainEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, handler := range p.handlers {
		handler(event)
	}
}

func (p *eventPublisher) consumeRedis(ctx context.Context) {
	pubsub := p.redis.Subscribe(ctx, p.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			p.logger.Error().Err(err).Msg("event redis subscription closed")
			return
		}
		p.handleRemote([]byte(msg.Payload))
	}
}

func (p *eventPublisher) consumeNATS(ctx context.Context) {
	sub, err := p.nats.QueueSubscribe(p.natsSubject, "hackforge-judging", func(msg *nats.Msg) {
		p.handleRemote(msg.Data)
	})
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to subscribe to nats events subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			p.logger.Warn().Err(err).Msg("failed to drain nats event subscription")
		}
	}()
}

func (p *eventPublisher) handleRemote(payload []byte) {
	var envelope brokerEvent
	if err := json.Unmarshal(payload, &envelope); err != nil {
		p.logger.Warn().Err(err).Msg("invalid domain event payload")
		return
	}

	if envelope.Source == p.nodeID {
		return
	}

	p.dispatch(envelope.Event)
}
