package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hackforge",
		Subsystem: "ai",
		Name:      "digest_duration_seconds",
		Help:      "Duration of AI digest requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hackforge",
		Subsystem: "ai",
		Name:      "digest_failures_total",
		Help:      "Number of AI digest failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI summarizer.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAISummarizer implements Summarizer against the OpenAI chat completion API.
type OpenAISummarizer struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAISummarizer builds a new summarizer using the provided configuration.
func NewOpenAISummarizer(cfg OpenAIConfig) (*OpenAISummarizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	tracer := otel.Tracer("github.com/noah-isme/hackforge-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAISummarizer{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Summarize sends the digest request to OpenAI and parses the response.
func (s *OpenAISummarizer) Summarize(parent context.Context, input DigestInput) (DigestResult, error) {
	ctx, span := s.tracer.Start(parent, "openai.summarize", trace.WithAttributes(
		attribute.String("model", s.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: digestSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildDigestPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := s.client.CreateChatCompletion(ctx, request)
	duration := time.Since(start)
	aiDuration.WithLabelValues(s.cfg.Model).Observe(duration.Seconds())
	if err != nil {
		aiFailures.WithLabelValues(s.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return DigestResult{}, fmt.Errorf("openai summarize: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(s.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return DigestResult{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result, err := parseDigestResponse(content)
	if err != nil {
		aiFailures.WithLabelValues(s.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return DigestResult{}, err
	}

	result.Model = s.cfg.Model
	result.Raw = map[string]interface{}{
		"usage": resp.Usage,
	}

	return result, nil
}

func digestSystemPrompt() string {
	return "You are an assistant for hackathon organizers. You receive the written feedback every judge left for one submiss" +
		"ion. Respond with a JSON object containing a single summary field: a neutral, concise digest of the recurring praise" +
		" and criticism. Never invent points no judge made and never identify individual judges."
}

func buildDigestPrompt(input DigestInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Submission\n")
	builder.WriteString(input.SubmissionTitle)
	builder.WriteString("\n\n## Event\n")
	builder.WriteString(input.HackathonName)
	builder.WriteString("\n\n## Judge Feedback\n")
	for index, comment := range input.Comments {
		builder.WriteString(fmt.Sprintf("\n### Judge %d\n", index+1))
		builder.WriteString(comment.Feedback)
	}
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseDigestResponse(content string) (DigestResult, error) {
	type payload struct {
		Summary string `json:"summary"`
	}

	var data payload
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return DigestResult{}, fmt.Errorf("parse digest json: %w", err)
	}

	if strings.TrimSpace(data.Summary) == "" {
		return DigestResult{}, fmt.Errorf("empty summary returned")
	}

	return DigestResult{Summary: data.Summary}, nil
}
