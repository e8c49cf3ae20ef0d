// Package metrics exposes Prometheus collectors for tutoring sessions and
// turns. A Recorder satisfies both session.Listener and dialogue.Observer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/abhisek/socratic/internal/completion"
)

const namespace = "socratic"

// Recorder holds the collectors. Methods never block.
type Recorder struct {
	turns               *prometheus.CounterVec
	turnDuration        prometheus.Histogram
	completions         *prometheus.CounterVec
	stuckLevel          prometheus.Histogram
	sessionsActive      prometheus.Gauge
	evictions           *prometheus.CounterVec
	persistenceFailures *prometheus.CounterVec
	providerErrors      *prometheus.CounterVec
}

// New registers the collectors with reg. Passing prometheus.DefaultRegisterer
// exposes them on the default /metrics handler.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		// Labels: outcome (ok, provider_error, session_error)
		turns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Tutoring turns by outcome",
		}, []string{"outcome"}),

		turnDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Wall time of a tutoring turn including the provider call",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		}),

		// Labels: confidence (low, medium, high)
		completions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Turns whose verdict was completed, by confidence",
		}, []string{"confidence"}),

		stuckLevel: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stuck_level",
			Help:      "Stuck level computed per turn",
			Buckets:   []float64{0, 1, 2, 3},
		}),

		sessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions held in memory",
		}),

		// Labels: reason (expired, swept, deleted)
		evictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_evictions_total",
			Help:      "Sessions removed from memory, by reason",
		}, []string{"reason"}),

		// Labels: op (save, delete, load, purge, enqueue)
		persistenceFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Durable tier operations that failed and were degraded",
		}, []string{"op"}),

		// Labels: class (auth, rate_limited, quota_exceeded, timeout, unknown)
		providerErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Tutor reply generation failures by error class",
		}, []string{"class"}),
	}
}

func (r *Recorder) SessionsActive(n int) {
	r.sessionsActive.Set(float64(n))
}

func (r *Recorder) SessionEvicted(reason string) {
	r.evictions.WithLabelValues(reason).Inc()
}

func (r *Recorder) PersistenceFailed(op string) {
	r.persistenceFailures.WithLabelValues(op).Inc()
}

func (r *Recorder) TurnFinished(outcome string, seconds float64) {
	r.turns.WithLabelValues(outcome).Inc()
	r.turnDuration.Observe(seconds)
}

func (r *Recorder) StuckLevel(level int) {
	r.stuckLevel.Observe(float64(level))
}

// Verdict counts completed verdicts only.
func (r *Recorder) Verdict(score completion.Score) {
	if score.IsCompleted {
		r.completions.WithLabelValues(string(score.Confidence)).Inc()
	}
}

func (r *Recorder) ProviderError(class string) {
	r.providerErrors.WithLabelValues(class).Inc()
}
