package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce             sync.Once
	judgingRequestsTotal     *prometheus.CounterVec
	judgingLatencySeconds    *prometheus.HistogramVec
	judgingErrorsTotal       *prometheus.CounterVec
	scoresRecordedTotal      *prometheus.CounterVec
	rankingRecomputesTotal   prometheus.Counter
	rankingDurationSeconds   prometheus.Histogram
	eventsPublishedTotal     *prometheus.CounterVec
	leaderboardStreamClients prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors for the judging core.
func RegisterMetrics() {
	registerOnce.Do(func() {
		judgingRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "judging_requests_total",
			Help: "Total number of judging API requests served.",
		}, []string{"method", "route", "status"})

		judgingLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "judging_latency_seconds",
			Help:    "Latency distribution for judging API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		judgingErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "judging_errors_total",
			Help: "Total number of error responses returned by judging endpoints.",
		}, []string{"method", "route", "status"})

		scoresRecordedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "judging_scores_recorded_total",
			Help: "Total number of score records written to the ledger.",
		}, []string{"kind"})

		rankingRecomputesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "judging_ranking_recomputes_total",
			Help: "Total number of leaderboard recomputations.",
		})

		rankingDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "judging_ranking_duration_seconds",
			Help:    "Duration of leaderboard recomputations.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		})

		eventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "judging_events_published_total",
			Help: "Total number of domain events published to collaborators.",
		}, []string{"type"})

		leaderboardStreamClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "leaderboard_stream_clients",
			Help: "Number of websocket clients subscribed to leaderboard updates.",
		})

		prometheus.MustRegister(
			judgingRequestsTotal,
			judgingLatencySeconds,
			judgingErrorsTotal,
			scoresRecordedTotal,
			rankingRecomputesTotal,
			rankingDurationSeconds,
			eventsPublishedTotal,
			leaderboardStreamClients,
		)
	})
}

// JudgingRequests exposes the counter for judging API requests.
func JudgingRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return judgingRequestsTotal
}

// JudgingLatency exposes the latency histogram for judging API requests.
func JudgingLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return judgingLatencySeconds
}

// JudgingErrors exposes the counter for judging error responses.
func JudgingErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return judgingErrorsTotal
}

// ScoresRecorded exposes the ledger write counter. Kind is "initial" for a
// judge's first record on a submission and "revision" for re-scores.
func ScoresRecorded() *prometheus.CounterVec {
	RegisterMetrics()
	return scoresRecordedTotal
}

// RankingRecomputes exposes the leaderboard recomputation counter.
func RankingRecomputes() prometheus.Counter {
	RegisterMetrics()
	return rankingRecomputesTotal
}

// RankingDuration exposes the leaderboard recomputation histogram.
func RankingDuration() prometheus.Histogram {
	RegisterMetrics()
	return rankingDurationSeconds
}

// EventsPublished exposes the domain event counter.
func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishedTotal
}

// LeaderboardStreamClients exposes the websocket subscriber gauge.
func LeaderboardStreamClients() prometheus.Gauge {
	RegisterMetrics()
	return leaderboardStreamClients
}
