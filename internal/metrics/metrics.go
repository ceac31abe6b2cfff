package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/ephemeris"
	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/sidereal"
)

// Outcome labels for nirayana_computations_total.
const (
	OutcomeOK           = "ok"
	OutcomeInvalidInput = "invalid_input"
	OutcomeOutOfRange   = "out_of_range"
	OutcomeError        = "error"
)

var (
	computationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nirayana_computations_total",
			Help: "Total number of sidereal position computations by outcome.",
		},
		[]string{"result"},
	)

	ephemerisErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nirayana_ephemeris_errors_total",
			Help: "Total number of ephemeris lookups that failed, by kind.",
		},
		[]string{"kind"},
	)

	sweepDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nirayana_sweep_duration_seconds",
			Help:    "Wall time of a sweep over a time range.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)

	sweepSamplesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nirayana_sweep_samples_total",
			Help: "Total number of samples evaluated by sweeps.",
		},
	)

	statesVisited = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nirayana_states_visited",
			Help: "Distinct nakshatra-tithi states visited by the most recent sweep.",
		},
	)

	transitsFoundTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nirayana_transits_found_total",
			Help: "Total number of state transitions located, by kind.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(computationsTotal)
	prometheus.MustRegister(ephemerisErrorsTotal)
	prometheus.MustRegister(sweepDurationSeconds)
	prometheus.MustRegister(sweepSamplesTotal)
	prometheus.MustRegister(statesVisited)
	prometheus.MustRegister(transitsFoundTotal)
}

// Outcome classifies a Compute error into a bounded label set.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ephemeris.ErrOutOfRange):
		return OutcomeOutOfRange
	case errors.Is(err, sidereal.ErrInvalidInput):
		return OutcomeInvalidInput
	default:
		return OutcomeError
	}
}

// RecordComputation counts one Compute call by outcome. Ephemeris failures
// are also counted under nirayana_ephemeris_errors_total.
func RecordComputation(err error) {
	outcome := Outcome(err)
	computationsTotal.WithLabelValues(outcome).Inc()

	switch {
	case outcome == OutcomeOutOfRange:
		ephemerisErrorsTotal.WithLabelValues("out_of_range").Inc()
	case errors.Is(err, ephemeris.ErrUnknownBody):
		ephemerisErrorsTotal.WithLabelValues("unknown_body").Inc()
	}
}

// RecordSweep records the size and duration of a completed sweep.
func RecordSweep(duration time.Duration, samples, visited int) {
	sweepDurationSeconds.Observe(duration.Seconds())
	sweepSamplesTotal.Add(float64(samples))
	statesVisited.Set(float64(visited))
}

// RecordTransits counts transitions located for kind.
func RecordTransits(kind string, n int) {
	transitsFoundTotal.WithLabelValues(kind).Add(float64(n))
}

// WriteTextfile writes every registered metric to path in the Prometheus text
// format, for collection by node_exporter's textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
