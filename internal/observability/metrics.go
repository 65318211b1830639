package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Channel labels.
const (
	ChannelPeer     = "peer"
	ChannelObserver = "observer"
)

// Job outcome labels.
const (
	OutcomeDone    = "done"
	OutcomeStopped = "stopped"
	OutcomeFailed  = "failed"
)

var (
	mailSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amas_mail_sent_total",
			Help: "Total number of mails sent by an agent",
		},
		[]string{"agent", "channel"},
	)

	mailReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amas_mail_received_total",
			Help: "Total number of mails received by an agent",
		},
		[]string{"agent", "channel"},
	)

	sleepInterruptedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amas_sleep_interrupted_total",
			Help: "Total number of sleeps aborted because the agent stopped working",
		},
		[]string{"agent"},
	)

	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amas_jobs_total",
			Help: "Total number of finished agent jobs by outcome",
		},
		[]string{"agent", "outcome"},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "amas_job_duration_seconds",
			Help:    "Agent job duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"agent"},
	)

	runningEnvironments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "amas_running_environments",
			Help: "Number of environments currently running",
		},
	)

	initOnce sync.Once
)

// InitMetrics registers the collectors with the default registry.
// Recording works without it; the values are just not exported.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			mailSentTotal,
			mailReceivedTotal,
			sleepInterruptedTotal,
			jobsTotal,
			jobDuration,
			runningEnvironments,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordMailSent records one mail sent by agent on channel
func RecordMailSent(agent, channel string) {
	mailSentTotal.WithLabelValues(agent, channel).Inc()
}

// RecordMailReceived records one mail received by agent on channel
func RecordMailReceived(agent, channel string) {
	mailReceivedTotal.WithLabelValues(agent, channel).Inc()
}

// RecordSleepInterrupted records a sleep aborted by a stopped agent
func RecordSleepInterrupted(agent string) {
	sleepInterruptedTotal.WithLabelValues(agent).Inc()
}

// RecordJob records the outcome and duration of one job
func RecordJob(agent, outcome string, duration time.Duration) {
	jobsTotal.WithLabelValues(agent, outcome).Inc()
	jobDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

// EnvironmentStarted increments the running environments gauge
func EnvironmentStarted() {
	runningEnvironments.Inc()
}

// EnvironmentStopped decrements the running environments gauge
func EnvironmentStopped() {
	runningEnvironments.Dec()
}
