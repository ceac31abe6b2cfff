package metrics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/ephemeris"
	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/sidereal"
)

func TestOutcome(t *testing.T) {
	rangeErr := &ephemeris.RangeError{Time: time.Date(1700, 1, 1, 0, 0, 0, 0, time.UTC), Range: ephemeris.DefaultInterval}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, OutcomeOK},
		{"range error", rangeErr, OutcomeOutOfRange},
		{"wrapped range error", fmt.Errorf("moon longitude: %w", rangeErr), OutcomeOutOfRange},
		{"invalid input", &sidereal.InvalidInputError{Reason: "zero timestamp"}, OutcomeInvalidInput},
		{"other", errors.New("disk on fire"), OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Outcome(tt.err); got != tt.want {
				t.Errorf("Outcome(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestRecordComputation(t *testing.T) {
	okBefore := testutil.ToFloat64(computationsTotal.WithLabelValues(OutcomeOK))
	rangeBefore := testutil.ToFloat64(ephemerisErrorsTotal.WithLabelValues("out_of_range"))

	RecordComputation(nil)
	RecordComputation(nil)
	RecordComputation(&ephemeris.RangeError{})

	if got := testutil.ToFloat64(computationsTotal.WithLabelValues(OutcomeOK)) - okBefore; got != 2 {
		t.Errorf("ok computations delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(ephemerisErrorsTotal.WithLabelValues("out_of_range")) - rangeBefore; got != 1 {
		t.Errorf("out_of_range ephemeris errors delta = %v, want 1", got)
	}
}

// TestOutcomeCardinality verifies arbitrary error messages collapse into the
// fixed label set.
func TestOutcomeCardinality(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[Outcome(fmt.Errorf("failure %d", i))] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 label for distinct errors, got %d: %v", len(seen), seen)
	}
}

func TestRecordSweepAndTransits(t *testing.T) {
	samplesBefore := testutil.ToFloat64(sweepSamplesTotal)

	RecordSweep(250*time.Millisecond, 2190, 404)
	RecordTransits("tithi", 3)

	if got := testutil.ToFloat64(sweepSamplesTotal) - samplesBefore; got != 2190 {
		t.Errorf("samples delta = %v, want 2190", got)
	}
	if got := testutil.ToFloat64(statesVisited); got != 404 {
		t.Errorf("states visited = %v, want 404", got)
	}
	if got := testutil.ToFloat64(transitsFoundTotal.WithLabelValues("tithi")); got < 3 {
		t.Errorf("tithi transits = %v, want >= 3", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	RecordComputation(nil)
	path := filepath.Join(t.TempDir(), "nirayana.prom")

	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "nirayana_computations_total") {
		t.Errorf("textfile missing nirayana_computations_total:\n%s", data)
	}
}
