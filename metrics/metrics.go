// Package metrics exposes Prometheus collectors for ballot operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ballotsSubmitted *prometheus.CounterVec
	ballotsRejected  *prometheus.CounterVec
	ballotsConfirmed prometheus.Counter
	saveLatency      *prometheus.HistogramVec
	archiveFailures  prometheus.Counter
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ballotsSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ballot_submissions_total",
				Help: "Ballot submissions saved, by submitter type.",
			},
			[]string{"submitter_type"},
		),
		ballotsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ballot_submissions_rejected_total",
				Help: "Ballot submissions refused before anything was persisted.",
			},
			[]string{"reason"},
		),
		ballotsConfirmed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ballot_confirmations_total",
				Help: "Ballots confirmed as a debate's result.",
			},
		),
		saveLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ballot_save_duration_seconds",
				Help:    "Time spent saving a ballot inside its transaction.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		archiveFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ballot_archive_failures_total",
				Help: "Confirmed ballots that could not be archived to object storage.",
			},
		),
	}
}

func (m *Metrics) BallotSubmitted(submitterType string) {
	m.ballotsSubmitted.WithLabelValues(submitterType).Inc()
}

func (m *Metrics) BallotRejected(reason string) {
	m.ballotsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) BallotConfirmed() { m.ballotsConfirmed.Inc() }

func (m *Metrics) ArchiveFailed() { m.archiveFailures.Inc() }

func (m *Metrics) ObserveSave(operation string, d time.Duration) {
	m.saveLatency.WithLabelValues(operation).Observe(d.Seconds())
}
