package orbit

import (
	"fmt"
	"strings"
	"time"
)

// RenderCSV renders one row per track point.
func RenderCSV(tr *Track) string {
	var sb strings.Builder

	sb.WriteString("time,moon_lon,moon_dist_au,sun_lon,sun_dist_au,moon_x,moon_y,sun_x,sun_y\n")
	for _, p := range tr.Points {
		sb.WriteString(fmt.Sprintf("%s,%.6f,%.9f,%.6f,%.9f,%.6f,%.6f,%.6f,%.6f\n",
			p.Time.UTC().Format(time.RFC3339),
			p.MoonLongitude,
			p.MoonDistance,
			p.SunLongitude,
			p.SunDistance,
			p.MoonX,
			p.MoonY,
			p.SunX,
			p.SunY,
		))
	}

	return sb.String()
}
