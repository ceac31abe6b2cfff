// Package ephemeris supplies geocentric apparent ecliptic longitudes of the Sun
// and Moon in the tropical frame.
//
// Two providers are available: Meeus computes positions analytically from the
// algorithms in Meeus, "Astronomical Algorithms" (2nd ed.), and Table
// interpolates a sampled ephemeris file. Both reject times outside their valid
// interval with a *RangeError.
package ephemeris

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Body identifies a celestial body known to a Provider.
type Body int

const (
	Sun Body = iota
	Moon
)

// String returns the lower-case body name.
func (b Body) String() string {
	switch b {
	case Sun:
		return "sun"
	case Moon:
		return "moon"
	default:
		return fmt.Sprintf("body(%d)", int(b))
	}
}

// ParseBody maps "sun" or "moon" (case-insensitive) to a Body.
func ParseBody(s string) (Body, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sun":
		return Sun, nil
	case "moon":
		return Moon, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownBody, s)
	}
}

// ErrUnknownBody is returned for a Body the provider cannot compute.
var ErrUnknownBody = errors.New("unknown body")

// ErrOutOfRange matches every *RangeError via errors.Is.
var ErrOutOfRange = errors.New("time outside ephemeris range")

// Provider returns the geocentric apparent ecliptic longitude of a body, in
// degrees, tropical frame. The value may be un-normalized.
type Provider interface {
	Longitude(body Body, t time.Time) (float64, error)
}

// Ranger is implemented by providers with a bounded valid interval.
type Ranger interface {
	Range() Interval
}

// Distancer is implemented by providers that also know geocentric distance.
// Distances are in astronomical units.
type Distancer interface {
	Distance(body Body, t time.Time) (float64, error)
}

// Interval is a closed time interval [Min, Max].
type Interval struct {
	Min time.Time
	Max time.Time
}

// DefaultInterval is the span of the JPL DE440s ephemeris file.
var DefaultInterval = Interval{
	Min: time.Date(1849, 12, 26, 0, 0, 0, 0, time.UTC),
	Max: time.Date(2150, 1, 22, 0, 0, 0, 0, time.UTC),
}

// Contains reports whether t lies inside the interval, bounds included.
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Min) && !t.After(i.Max)
}

// Validate checks that Min is not after Max and neither bound is zero.
func (i Interval) Validate() error {
	if i.Min.IsZero() || i.Max.IsZero() {
		return errors.New("ephemeris interval bounds must be set")
	}
	if i.Min.After(i.Max) {
		return fmt.Errorf("ephemeris interval min %s is after max %s",
			i.Min.UTC().Format(time.RFC3339), i.Max.UTC().Format(time.RFC3339))
	}
	return nil
}

// RangeError reports a request outside a provider's valid interval.
type RangeError struct {
	Time  time.Time
	Range Interval
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("ephemeris: %s outside supported range [%s, %s]",
		e.Time.UTC().Format(time.RFC3339),
		e.Range.Min.UTC().Format(time.RFC3339),
		e.Range.Max.UTC().Format(time.RFC3339),
	)
}

// Is makes errors.Is(err, ErrOutOfRange) true for any *RangeError.
func (e *RangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// checkRange returns a *RangeError when t falls outside iv.
func checkRange(iv Interval, t time.Time) error {
	if !iv.Contains(t) {
		return &RangeError{Time: t, Range: iv}
	}
	return nil
}
