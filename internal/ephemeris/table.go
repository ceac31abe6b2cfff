package ephemeris

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/astro"
)

// tableHeader is written as the first line of every exported table.
const tableHeader = "# nirayana ephemeris table v1: time,sun_lon_deg,sun_dist_au,moon_lon_deg,moon_dist_au"

// Sample is one row of a sampled ephemeris table.
type Sample struct {
	Time     time.Time
	SunLon   float64 // degrees, tropical
	SunDist  float64 // AU
	MoonLon  float64 // degrees, tropical
	MoonDist float64 // AU
}

// Table interpolates Sun and Moon positions from time-ordered samples.
// Immutable after construction; safe for concurrent reads.
type Table struct {
	samples  []Sample
	interval Interval
}

// NewTable builds a Table from samples. Samples are sorted by time and
// duplicate timestamps keep the first occurrence. At least two distinct
// samples are required.
func NewTable(samples []Sample) (*Table, error) {
	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	deduped := sorted[:0]
	for _, s := range sorted {
		if n := len(deduped); n > 0 && deduped[n-1].Time.Equal(s.Time) {
			continue
		}
		deduped = append(deduped, s)
	}

	if len(deduped) < 2 {
		return nil, fmt.Errorf("ephemeris table needs at least 2 samples, got %d", len(deduped))
	}

	return &Table{
		samples: deduped,
		interval: Interval{
			Min: deduped[0].Time,
			Max: deduped[len(deduped)-1].Time,
		},
	}, nil
}

// Len returns the number of samples.
func (t *Table) Len() int {
	return len(t.samples)
}

// Range returns the span between the first and last sample.
func (t *Table) Range() Interval {
	return t.interval
}

// Longitude interpolates the body's longitude at. Interpolation follows the
// shortest arc, so a Moon crossing 360°→0° between samples is handled.
func (t *Table) Longitude(body Body, at time.Time) (float64, error) {
	lon := func(s Sample) float64 { return s.SunLon }
	switch body {
	case Sun:
	case Moon:
		lon = func(s Sample) float64 { return s.MoonLon }
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownBody, body)
	}

	a, b, frac, err := t.bracket(at)
	if err != nil {
		return 0, err
	}
	la, lb := lon(a), lon(b)
	return astro.Normalize360(la + frac*astro.Wrap180(lb-la)), nil
}

// Distance linearly interpolates the body's distance in AU.
func (t *Table) Distance(body Body, at time.Time) (float64, error) {
	dist := func(s Sample) float64 { return s.SunDist }
	switch body {
	case Sun:
	case Moon:
		dist = func(s Sample) float64 { return s.MoonDist }
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownBody, body)
	}

	a, b, frac, err := t.bracket(at)
	if err != nil {
		return 0, err
	}
	return dist(a) + frac*(dist(b)-dist(a)), nil
}

// bracket finds the samples surrounding at and the interpolation fraction.
func (t *Table) bracket(at time.Time) (Sample, Sample, float64, error) {
	if err := checkRange(t.interval, at); err != nil {
		return Sample{}, Sample{}, 0, err
	}

	i := sort.Search(len(t.samples), func(i int) bool {
		return !t.samples[i].Time.Before(at)
	})
	if i == 0 {
		return t.samples[0], t.samples[0], 0, nil
	}

	a, b := t.samples[i-1], t.samples[i]
	frac := float64(at.Sub(a.Time)) / float64(b.Time.Sub(a.Time))
	return a, b, frac, nil
}

// ParseTable reads a table in the format written by Encode. Blank lines and
// lines starting with '#' are ignored. Malformed rows are skipped with a
// warning log.
func ParseTable(r io.Reader, logger *slog.Logger) (*Table, error) {
	scanner := bufio.NewScanner(r)
	var samples []Sample
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		s, err := parseRow(line)
		if err != nil {
			logger.Warn("skipping malformed ephemeris row", "line", lineNo, "error", err)
			continue
		}
		samples = append(samples, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ephemeris table: %w", err)
	}

	return NewTable(samples)
}

// parseRow parses "time,sun_lon,sun_dist,moon_lon,moon_dist".
func parseRow(line string) (Sample, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 5 {
		return Sample{}, fmt.Errorf("expected 5 fields, got %d", len(fields))
	}

	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(fields[0]))
	if err != nil {
		return Sample{}, fmt.Errorf("invalid time %q: %w", fields[0], err)
	}

	var vals [4]float64
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Sample{}, fmt.Errorf("invalid number %q: %w", f, err)
		}
		if !astro.IsFinite(v) {
			return Sample{}, fmt.Errorf("non-finite value %q", f)
		}
		vals[i] = v
	}

	return Sample{
		Time:     ts.UTC(),
		SunLon:   vals[0],
		SunDist:  vals[1],
		MoonLon:  vals[2],
		MoonDist: vals[3],
	}, nil
}

// SampleProvider evaluates p from start to end (inclusive) every step and
// returns the samples as a Table. Distances are 0 when p does not implement
// Distancer.
func SampleProvider(p Provider, start, end time.Time, step time.Duration) (*Table, error) {
	if step <= 0 {
		return nil, errors.New("export step must be positive")
	}
	if end.Before(start) {
		return nil, fmt.Errorf("export end %s is before start %s",
			end.UTC().Format(time.RFC3339), start.UTC().Format(time.RFC3339))
	}

	dist, _ := p.(Distancer)
	var samples []Sample
	for t := start.UTC(); !t.After(end); t = t.Add(step) {
		s := Sample{Time: t}
		var err error
		if s.SunLon, err = p.Longitude(Sun, t); err != nil {
			return nil, fmt.Errorf("sun longitude at %s: %w", t.Format(time.RFC3339), err)
		}
		if s.MoonLon, err = p.Longitude(Moon, t); err != nil {
			return nil, fmt.Errorf("moon longitude at %s: %w", t.Format(time.RFC3339), err)
		}
		if dist != nil {
			if s.SunDist, err = dist.Distance(Sun, t); err != nil {
				return nil, fmt.Errorf("sun distance at %s: %w", t.Format(time.RFC3339), err)
			}
			if s.MoonDist, err = dist.Distance(Moon, t); err != nil {
				return nil, fmt.Errorf("moon distance at %s: %w", t.Format(time.RFC3339), err)
			}
		}
		s.SunLon, s.MoonLon = astro.Normalize360(s.SunLon), astro.Normalize360(s.MoonLon)
		samples = append(samples, s)
	}

	return NewTable(samples)
}

// Encode writes the table in the format ParseTable reads.
func (t *Table) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, tableHeader); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, s := range t.samples {
		if _, err := fmt.Fprintf(bw, "%s,%.9f,%.9f,%.9f,%.9f\n",
			s.Time.UTC().Format(time.RFC3339),
			s.SunLon, s.SunDist,
			s.MoonLon, s.MoonDist,
		); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	return nil
}
