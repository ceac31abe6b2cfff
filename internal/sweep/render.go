package sweep

import (
	"fmt"
	"strings"
	"time"

	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/sidereal"
)

// Summary is the compact form of a Result used for JSON output.
type Summary struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Samples     int       `json:"samples"`
	Errors      int       `json:"errors"`
	Visited     int       `json:"visited"`
	Total       int       `json:"total_states"`
	Coverage    float64   `json:"coverage_pct"`
	Transitions int       `json:"transitions"`
	First       *State    `json:"first,omitempty"`
	Last        *State    `json:"last,omitempty"`
}

// Summarize builds the Summary of r.
func (r *Result) Summarize() Summary {
	s := Summary{
		Start:       r.Request.Start.UTC(),
		End:         r.Request.End.UTC(),
		Samples:     len(r.Samples),
		Errors:      r.Errors,
		Visited:     len(r.Visited),
		Total:       StateCount,
		Coverage:    r.Coverage(),
		Transitions: r.Transitions,
	}
	if n := len(r.Samples); n > 0 {
		first, last := StateOf(r.Samples[0]), StateOf(r.Samples[n-1])
		s.First, s.Last = &first, &last
	}
	return s
}

// RenderCSV renders one row per sample, including the spirograph mapping.
func RenderCSV(r *Result) string {
	var sb strings.Builder

	sb.WriteString("time,sun_lon,moon_lon,phase_angle,nakshatra,tithi,raasi,theta,r\n")
	for _, p := range r.Samples {
		theta, rad := Polar(p)
		sb.WriteString(fmt.Sprintf("%s,%.6f,%.6f,%.6f,%d,%d,%d,%.6f,%.0f\n",
			p.Time.UTC().Format(time.RFC3339),
			p.SunLongitude,
			p.MoonLongitude,
			p.PhaseAngle,
			p.NakshatraIndex,
			p.TithiIndex,
			p.RaasiIndex,
			theta,
			rad,
		))
	}

	return sb.String()
}

// RenderMarkdown renders a sweep report. Names come from tables.
func RenderMarkdown(r *Result, tables sidereal.Tables) string {
	var sb strings.Builder
	s := r.Summarize()

	sb.WriteString("# Nakshatra–Tithi Sweep\n\n")
	sb.WriteString(fmt.Sprintf("Range: %s → %s\n\n", s.Start.Format(time.RFC3339), s.End.Format(time.RFC3339)))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Samples | %d |\n", s.Samples))
	sb.WriteString(fmt.Sprintf("| Failed Samples | %d |\n", s.Errors))
	sb.WriteString(fmt.Sprintf("| States Visited | %d / %d |\n", s.Visited, s.Total))
	sb.WriteString(fmt.Sprintf("| Coverage | %.1f%% |\n", s.Coverage))
	sb.WriteString(fmt.Sprintf("| Transitions | %d |\n", s.Transitions))
	if s.First != nil {
		sb.WriteString(fmt.Sprintf("| Start State | %s / %s |\n",
			tables.Nakshatra(s.First.Nakshatra), tables.Tithi(s.First.Tithi)))
		sb.WriteString(fmt.Sprintf("| End State | %s / %s |\n",
			tables.Nakshatra(s.Last.Nakshatra), tables.Tithi(s.Last.Tithi)))
	}
	sb.WriteString("\n")

	sb.WriteString("## Visits by Nakshatra\n\n")
	if len(r.Visited) == 0 {
		sb.WriteString("No states visited.\n")
		return sb.String()
	}

	var perNak [sidereal.NakshatraCount][]int
	for _, st := range r.Visited {
		perNak[st.Nakshatra] = append(perNak[st.Nakshatra], st.Tithi+1)
	}

	sb.WriteString("| # | Nakshatra | Tithis Visited | Count |\n")
	sb.WriteString("|---|-----------|----------------|-------|\n")
	for i, tithis := range perNak {
		nums := make([]string, len(tithis))
		for j, n := range tithis {
			nums[j] = fmt.Sprint(n)
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %d |\n",
			i+1, tables.Nakshatra(i), strings.Join(nums, " "), len(tithis)))
	}
	sb.WriteString("\n")

	return sb.String()
}
