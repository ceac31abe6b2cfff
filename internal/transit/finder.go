// Package transit locates the instants at which the Moon enters a new
// nakshatra, tithi or raasi.
package transit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/metrics"
	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/sidereal"
)

// Kind selects which index a search follows.
type Kind int

const (
	Nakshatra Kind = iota
	Tithi
	Raasi
)

// AllKinds lists every Kind in display order.
var AllKinds = []Kind{Nakshatra, Tithi, Raasi}

func (k Kind) String() string {
	switch k {
	case Nakshatra:
		return "nakshatra"
	case Tithi:
		return "tithi"
	case Raasi:
		return "raasi"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText encodes the kind as its String form.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes any name ParseKind accepts.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ParseKind maps a kind name (case-insensitive) to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nakshatra", "star":
		return Nakshatra, nil
	case "tithi":
		return Tithi, nil
	case "raasi", "rasi", "sign":
		return Raasi, nil
	default:
		return 0, fmt.Errorf("unknown transit kind %q", s)
	}
}

// index extracts the followed index from a position.
func (k Kind) index(p sidereal.Position) int {
	switch k {
	case Tithi:
		return p.TithiIndex
	case Raasi:
		return p.RaasiIndex
	default:
		return p.NakshatraIndex
	}
}

// name labels index i of kind k.
func (k Kind) name(t sidereal.Tables, i int) string {
	switch k {
	case Tithi:
		return t.Tithi(i)
	case Raasi:
		return t.Raasi(i)
	default:
		return t.Nakshatra(i)
	}
}

// Event is a single index change.
type Event struct {
	Kind     Kind      `json:"kind"`
	Time     time.Time `json:"time"`
	From     int       `json:"from"`
	To       int       `json:"to"`
	FromName string    `json:"from_name"`
	ToName   string    `json:"to_name"`
}

// Request holds the parameters of a transit search.
type Request struct {
	Start time.Time
	End   time.Time
	Kinds []Kind // empty means all kinds
}

// MaxSpan bounds the length of a single search.
const MaxSpan = 10 * 366 * 24 * time.Hour

const (
	coarseStep = time.Hour   // shorter than any nakshatra, tithi or raasi
	fineStep   = time.Second // bisection resolution
)

// Computer evaluates positions and supplies the names to label them.
// *sidereal.Calculator implements it.
type Computer interface {
	Compute(t time.Time) (sidereal.Position, error)
	Tables() sidereal.Tables
}

// Finder searches for index changes with a coarse scan refined by bisection.
type Finder struct {
	computer Computer
	logger   *slog.Logger
}

// NewFinder creates a Finder over computer.
func NewFinder(computer Computer, logger *slog.Logger) *Finder {
	return &Finder{computer: computer, logger: logger}
}

// Find returns every change of the requested kinds in [Start, End], ordered
// by time. Each kind is searched in its own goroutine, at most NumCPU at once.
// Both ends of the range must be computable; failures in between are logged
// and the affected hour is skipped.
func (f *Finder) Find(ctx context.Context, req Request) ([]Event, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	for _, at := range []time.Time{req.Start, req.End} {
		if _, err := f.computer.Compute(at); err != nil {
			return nil, fmt.Errorf("transit search bound %s: %w", at.UTC().Format(time.RFC3339), err)
		}
	}

	kinds := req.Kinds
	if len(kinds) == 0 {
		kinds = AllKinds
	}

	results := make([][]Event, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, kind := range kinds {
		g.Go(func() error {
			results[i] = f.findKind(gctx, req, kind)
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("transit search cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("transit search cancelled: %w", err)
	}

	var events []Event
	for i, evs := range results {
		metrics.RecordTransits(kinds[i].String(), len(evs))
		events = append(events, evs...)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Time.Equal(events[j].Time) {
			return events[i].Time.Before(events[j].Time)
		}
		return events[i].Kind < events[j].Kind
	})

	f.logger.Debug("transit search complete",
		"start", req.Start.UTC().Format(time.RFC3339),
		"end", req.End.UTC().Format(time.RFC3339),
		"kinds", len(kinds),
		"events", len(events),
	)
	return events, nil
}

func validate(req Request) error {
	if req.Start.IsZero() || req.End.IsZero() {
		return errors.New("transit search start and end are required")
	}
	if !req.End.After(req.Start) {
		return fmt.Errorf("transit search end %s must be after start %s",
			req.End.UTC().Format(time.RFC3339), req.Start.UTC().Format(time.RFC3339))
	}
	if span := req.End.Sub(req.Start); span > MaxSpan {
		return fmt.Errorf("transit search span %s exceeds %s", span, MaxSpan)
	}
	for _, k := range req.Kinds {
		if k < Nakshatra || k > Raasi {
			return fmt.Errorf("unknown transit kind %d", int(k))
		}
	}
	return nil
}

// findKind scans [Start, End] in coarse steps and refines every change.
func (f *Finder) findKind(ctx context.Context, req Request, kind Kind) []Event {
	tables := f.computer.Tables()
	var (
		events   []Event
		prevT    time.Time
		prevIdx  int
		havePrev bool
	)

	t := req.Start
	for {
		if ctx.Err() != nil {
			return events
		}

		pos, err := f.computer.Compute(t)
		if err != nil {
			f.logger.Warn("transit sample failed",
				"kind", kind.String(),
				"timestamp", t.UTC().Format(time.RFC3339),
				"error", err,
			)
			havePrev = false
		} else {
			idx := kind.index(pos)
			if havePrev && idx != prevIdx {
				at, to := f.refine(kind, prevT, t, prevIdx, idx)
				events = append(events, Event{
					Kind:     kind,
					Time:     at,
					From:     prevIdx,
					To:       to,
					FromName: kind.name(tables, prevIdx),
					ToName:   kind.name(tables, to),
				})
			}
			prevT, prevIdx, havePrev = t, idx, true
		}

		if !t.Before(req.End) {
			return events
		}
		t = t.Add(coarseStep)
		if t.After(req.End) {
			t = req.End
		}
	}
}

// refine bisects (lo, hi] down to fineStep. lo has index from, hi has a
// different index. Returns the first fine-resolution instant showing the new
// index and that index.
func (f *Finder) refine(kind Kind, lo, hi time.Time, from, toHint int) (time.Time, int) {
	to := toHint
	for hi.Sub(lo) > fineStep {
		mid := lo.Add(hi.Sub(lo) / 2)
		pos, err := f.computer.Compute(mid)
		if err != nil {
			// Stop refining; hi is still a valid upper bound.
			break
		}
		if idx := kind.index(pos); idx == from {
			lo = mid
		} else {
			hi, to = mid, idx
		}
	}
	return hi, to
}
