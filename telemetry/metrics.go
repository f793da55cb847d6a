// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	EventsConsumed         prometheus.Counter
	CommandsHandled        *prometheus.CounterVec
	RepliesEmitted         prometheus.Counter
	FetchFailures          *prometheus.CounterVec
	NotificationsDelivered prometheus.Counter
	HangmanGames           *prometheus.CounterVec

	// Histograms (seconds)
	FetchDuration *prometheus.HistogramVec

	// Gauges
	ReplyBacklogGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		EventsConsumed = promauto.NewCounter(prometheus.CounterOpts{Name: "boot_events_consumed_total", Help: "Number of chat events consumed from the transport"})
		CommandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{Name: "boot_commands_handled_total", Help: "Number of commands dispatched, by command kind"}, []string{"kind"})
		RepliesEmitted = promauto.NewCounter(prometheus.CounterOpts{Name: "boot_replies_emitted_total", Help: "Number of replies pushed to the reply sink"})
		FetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{Name: "boot_fetch_failures_total", Help: "Number of fetcher failures, by fetcher and failure class"}, []string{"fetcher", "class"})
		NotificationsDelivered = promauto.NewCounter(prometheus.CounterOpts{Name: "boot_notifications_delivered_total", Help: "Number of tell notifications delivered"})
		HangmanGames = promauto.NewCounterVec(prometheus.CounterOpts{Name: "boot_hangman_games_total", Help: "Number of hangman games finished, by outcome"}, []string{"outcome"})
		FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{Name: "boot_fetch_duration_seconds", Help: "Fetcher call duration seconds", Buckets: prometheus.DefBuckets}, []string{"fetcher"})
		ReplyBacklogGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "boot_reply_backlog", Help: "Current number of replies queued in the sink"})
	})
}

// CountFetchFailure records a fetcher failure; class distinguishes transport
// errors from empty results so dashboards can tell "down" from "not found".
func CountFetchFailure(fetcher, class string) {
	if FetchFailures != nil {
		FetchFailures.WithLabelValues(fetcher, class).Inc()
	}
}

// SetReplyBacklog records the current reply sink depth.
func SetReplyBacklog(n int) {
	if ReplyBacklogGauge != nil {
		ReplyBacklogGauge.Set(float64(n))
	}
}

// ObserveFetch records the duration of one fetcher call.
func ObserveFetch(fetcher string, start time.Time) {
	if FetchDuration != nil {
		FetchDuration.WithLabelValues(fetcher).Observe(time.Since(start).Seconds())
	}
}

// Correlation ID helpers ----------------------------------------------------

type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
