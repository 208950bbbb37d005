package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AggregationMean is the only aggregation method the scoring core supports.
// The knob exists so an unsupported configuration fails loudly at startup
// instead of silently producing a different ordering than operators expect.
const AggregationMean = "mean"

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	EventChannelBase       string
	ProgressCacheTTL       time.Duration
	RankingDebounce        time.Duration
	MinJudgesPerSubmission int
	OverlapFactor          float64
	ScoreRateLimit         int
	ScoreRateWindow        time.Duration
	AggregationMethod      string
	AIProvider             string
	OpenAIAPIKey           string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("FORGE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "HackForge API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("events.channel_base", "hackforge:judging")
	v.SetDefault("progress.cache_ttl", "2m")
	v.SetDefault("ranking.debounce", "2s")
	v.SetDefault("judging.min_judges", 2)
	v.SetDefault("judging.overlap_factor", 3.0)
	v.SetDefault("judging.aggregation", AggregationMean)
	v.SetDefault("judging.score_rate_limit", 30)
	v.SetDefault("judging.score_rate_window", "1m")
	v.SetDefault("ai.provider", "openai")

	ttl, err := time.ParseDuration(v.GetString("progress.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid progress cache ttl: %w", err)
	}

	debounce, err := time.ParseDuration(v.GetString("ranking.debounce"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ranking debounce: %w", err)
	}

	scoreWindow, err := time.ParseDuration(v.GetString("judging.score_rate_window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid score rate window: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		EventChannelBase:       v.GetString("events.channel_base"),
		ProgressCacheTTL:       ttl,
		RankingDebounce:        debounce,
		MinJudgesPerSubmission: v.GetInt("judging.min_judges"),
		OverlapFactor:          v.GetFloat64("judging.overlap_factor"),
		ScoreRateLimit:         v.GetInt("judging.score_rate_limit"),
		ScoreRateWindow:        scoreWindow,
		AggregationMethod:      strings.ToLower(v.GetString("judging.aggregation")),
		AIProvider:             strings.ToLower(v.GetString("ai.provider")),
		OpenAIAPIKey:           v.GetString("openai_api_key"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.AggregationMethod != AggregationMean {
		return Config{}, fmt.Errorf("unsupported aggregation method %q", cfg.AggregationMethod)
	}

	if cfg.MinJudgesPerSubmission <= 0 {
		cfg.MinJudgesPerSubmission = 2
	}

	if cfg.OverlapFactor <= 0 {
		cfg.OverlapFactor = 3
	}

	return cfg, nil
}
