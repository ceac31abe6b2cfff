package sweep

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/sidereal"
)

// MaxSamples bounds the number of samples a single Request may produce.
const MaxSamples = 1_000_000

// StateCount is the number of distinct nakshatra-tithi states.
const StateCount = sidereal.NakshatraCount * sidereal.TithiCount

// Computer evaluates the sidereal position at an instant.
// *sidereal.Calculator implements it.
type Computer interface {
	Compute(t time.Time) (sidereal.Position, error)
}

// Request describes the sample times of a sweep.
//
// With Samples > 0, exactly Samples instants are spaced evenly over
// [Start, End] inclusive. Otherwise instants start at Start and advance by
// Step while before End.
type Request struct {
	Start   time.Time
	End     time.Time
	Step    time.Duration
	Samples int
}

// YearRequest covers the calendar year in UTC, January 1 inclusive to the
// next January 1 exclusive.
func YearRequest(year int, step time.Duration) Request {
	return Request{
		Start: time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year+1, 1, 1, 0, 0, 0, 0, time.UTC),
		Step:  step,
	}
}

// WindowRequest covers center±half with n evenly spaced samples, both ends
// included.
func WindowRequest(center time.Time, half time.Duration, n int) Request {
	return Request{
		Start:   center.Add(-half),
		End:     center.Add(half),
		Samples: n,
	}
}

// Validate checks the request is well-formed and within MaxSamples.
func (r Request) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return errors.New("sweep start and end are required")
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("sweep end %s is before start %s",
			r.End.UTC().Format(time.RFC3339), r.Start.UTC().Format(time.RFC3339))
	}
	if r.Samples < 0 {
		return fmt.Errorf("sweep samples must be non-negative, got %d", r.Samples)
	}
	if r.Samples > 0 {
		if r.Samples > MaxSamples {
			return fmt.Errorf("sweep samples %d exceeds limit %d", r.Samples, MaxSamples)
		}
		return nil
	}
	if r.Step <= 0 {
		return fmt.Errorf("sweep step must be positive, got %s", r.Step)
	}
	if n := r.End.Sub(r.Start) / r.Step; n > MaxSamples {
		return fmt.Errorf("sweep of %s at step %s exceeds %d samples", r.End.Sub(r.Start), r.Step, MaxSamples)
	}
	return nil
}

// Times returns the sample instants of a valid request in ascending order.
func (r Request) Times() ([]time.Time, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	if r.Samples > 0 {
		times := make([]time.Time, r.Samples)
		if r.Samples == 1 {
			times[0] = r.Start
			return times, nil
		}
		step := float64(r.End.Sub(r.Start)) / float64(r.Samples-1)
		for i := range times {
			times[i] = r.Start.Add(time.Duration(math.Round(step * float64(i))))
		}
		times[len(times)-1] = r.End
		return times, nil
	}

	var times []time.Time
	for t := r.Start; t.Before(r.End); t = t.Add(r.Step) {
		times = append(times, t)
	}
	return times, nil
}

// State is a point in the 27×30 nakshatra-tithi grid.
type State struct {
	Nakshatra int `json:"nakshatra"`
	Tithi     int `json:"tithi"`
}

// StateOf returns the grid state of a position.
func StateOf(p sidereal.Position) State {
	return State{Nakshatra: p.NakshatraIndex, Tithi: p.TithiIndex}
}

// Result is the outcome of a sweep.
type Result struct {
	Request  Request             `json:"-"`
	Samples  []sidereal.Position `json:"samples"`
	Visited  []State             `json:"visited"`
	Errors   int                 `json:"errors"`
	Duration time.Duration       `json:"duration_ns"`
	// Transitions counts consecutive samples whose state differs.
	Transitions int `json:"transitions"`
}

// Coverage returns the visited share of all states as a percentage.
func (r *Result) Coverage() float64 {
	return float64(len(r.Visited)) / StateCount * 100
}

// Polar maps a position onto the spirograph plane: the angle follows the
// nakshatra and the radius the tithi, offset by 10 so the first tithi does not
// collapse onto the origin.
func Polar(p sidereal.Position) (theta, r float64) {
	theta = float64(p.NakshatraIndex) * 2 * math.Pi / sidereal.NakshatraCount
	r = float64(p.TithiIndex) + 10
	return theta, r
}
