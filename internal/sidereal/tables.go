package sidereal

import (
	"errors"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
)

// Tables holds the ordered name lists used to label computed positions.
// A Tables value is immutable: fields are fixed-size arrays copied on
// assignment, and slice accessors return copies.
type Tables struct {
	nakshatras [NakshatraCount]string
	tithiRoots [TithiCount]string
	raasis     [RaasiCount]string
	months     [RaasiCount]string

	waxing   string
	waning   string
	fullMoon string
	newMoon  string

	// waxing early/late, waning early/late
	phases [4]string
}

var tamilTables = Tables{
	nakshatras: [NakshatraCount]string{
		"அஸ்வினி", "பரணி", "கார்த்திகை",
		"ரோகிணி", "மிருகசீரிடம்", "திருவாதிரை",
		"புனர்பூசம்", "பூசம்", "ஆயில்யம்",
		"மகம்", "பூரம்", "உத்திரம்",
		"ஹஸ்தம்", "சித்திரை", "சுவாதி",
		"விசாகம்", "அனுஷம்", "கேட்டை",
		"மூலம்", "பூராடம்", "உத்திராடம்",
		"திருவோணம்", "அவிட்டம்", "சதயம்",
		"பூரட்டாதி", "உத்திரட்டாதி", "ரேவதி",
	},
	tithiRoots: [TithiCount]string{
		"பிரதமை", "துவிதியை", "திருதியை", "சதுர்த்தி", "பஞ்சமி",
		"சஷ்டி", "சப்தமி", "அஷ்டமி", "நவமி", "தசமி",
		"ஏகாதசி", "துவாதசி", "திரயோதசி", "சதுர்த்தசி", "பௌர்ணமி",
		"பிரதமை", "துவிதியை", "திருதியை", "சதுர்த்தி", "பஞ்சமி",
		"சஷ்டி", "சப்தமி", "அஷ்டமி", "நவமி", "தசமி",
		"ஏகாதசி", "துவாதசி", "திரயோதசி", "சதுர்த்தசி", "அமாவாசை",
	},
	raasis: [RaasiCount]string{
		"மேஷம்", "ரிஷபம்", "மிதுனம்", "கடகம்",
		"சிம்மம்", "கன்னி", "துலாம்", "விருச்சிகம்",
		"தனுசு", "மகரம்", "கும்பம்", "மீனம்",
	},
	months: [RaasiCount]string{
		"சித்திரை", "வைகாசி", "ஆனி", "ஆடி",
		"ஆவணி", "புரட்டாசி", "ஐப்பசி", "கார்த்திகை",
		"மார்கழி", "தை", "மாசி", "பங்குனி",
	},
	waxing:   "வளர்பிறை",
	waning:   "தேய்பிறை",
	fullMoon: "பௌர்ணமி",
	newMoon:  "அமாவாசை",
	phases: [4]string{
		"வளர்பிறை (ஆரம்பம்)",
		"வளர்பிறை (முடிவு)",
		"தேய்பிறை (ஆரம்பம்)",
		"தேய்பிறை (முடிவு)",
	},
}

var englishTables = Tables{
	nakshatras: [NakshatraCount]string{
		"Ashwini", "Bharani", "Krittika",
		"Rohini", "Mrigashira", "Ardra",
		"Punarvasu", "Pushya", "Ashlesha",
		"Magha", "Purva Phalguni", "Uttara Phalguni",
		"Hasta", "Chitra", "Swati",
		"Vishakha", "Anuradha", "Jyeshtha",
		"Mula", "Purva Ashadha", "Uttara Ashadha",
		"Shravana", "Dhanishta", "Shatabhisha",
		"Purva Bhadrapada", "Uttara Bhadrapada", "Revati",
	},
	tithiRoots: [TithiCount]string{
		"Pratipada", "Dwitiya", "Tritiya", "Chaturthi", "Panchami",
		"Shashthi", "Saptami", "Ashtami", "Navami", "Dashami",
		"Ekadashi", "Dwadashi", "Trayodashi", "Chaturdashi", "Purnima",
		"Pratipada", "Dwitiya", "Tritiya", "Chaturthi", "Panchami",
		"Shashthi", "Saptami", "Ashtami", "Navami", "Dashami",
		"Ekadashi", "Dwadashi", "Trayodashi", "Chaturdashi", "Amavasya",
	},
	raasis: [RaasiCount]string{
		"Mesha", "Vrishabha", "Mithuna", "Karka",
		"Simha", "Kanya", "Tula", "Vrishchika",
		"Dhanu", "Makara", "Kumbha", "Meena",
	},
	months: [RaasiCount]string{
		"Chithirai", "Vaikasi", "Aani", "Aadi",
		"Avani", "Purattasi", "Aippasi", "Karthigai",
		"Margazhi", "Thai", "Maasi", "Panguni",
	},
	waxing:   "Shukla",
	waning:   "Krishna",
	fullMoon: "Purnima",
	newMoon:  "Amavasya",
	phases: [4]string{
		"Waxing (early)",
		"Waxing (late)",
		"Waning (early)",
		"Waning (late)",
	},
}

// DefaultTables returns the Tamil name tables.
func DefaultTables() Tables {
	return tamilTables
}

// EnglishTables returns transliterated Sanskrit names with English phase labels.
func EnglishTables() Tables {
	return englishTables
}

// BuiltinTables returns the built-in tables registered under name
// ("tamil" or "english").
func BuiltinTables(name string) (Tables, bool) {
	switch name {
	case "", "tamil", "ta":
		return tamilTables, true
	case "english", "en":
		return englishTables, true
	default:
		return Tables{}, false
	}
}

// Nakshatra returns the name of nakshatra i. Out-of-range indices are clamped.
func (t Tables) Nakshatra(i int) string {
	return t.nakshatras[clampIndex(i, NakshatraCount)]
}

// Raasi returns the name of raasi (sign) i.
func (t Tables) Raasi(i int) string {
	return t.raasis[clampIndex(i, RaasiCount)]
}

// SolarMonth returns the name of the solar month whose sign index is i.
func (t Tables) SolarMonth(i int) string {
	return t.months[clampIndex(i, RaasiCount)]
}

// TithiRoot returns the bare tithi name without the paksha prefix.
func (t Tables) TithiRoot(i int) string {
	return t.tithiRoots[clampIndex(i, TithiCount)]
}

// Tithi returns the full tithi name for 0-based index i: the paksha prefix
// followed by the root, or the full/new moon name for indices 14 and 29.
func (t Tables) Tithi(i int) string {
	i = clampIndex(i, TithiCount)
	switch i {
	case fullMoonIndex:
		return t.fullMoon
	case newMoonIndex:
		return t.newMoon
	}
	return t.PakshaName(PakshaOf(i)) + " " + t.tithiRoots[i]
}

// PakshaName returns the label for a lunar fortnight.
func (t Tables) PakshaName(p Paksha) string {
	if p == Waning {
		return t.waning
	}
	return t.waxing
}

// MoonPhase classifies a 0-based tithi index into one of six labels:
// new moon, full moon, or early/late in the waxing or waning fortnight.
func (t Tables) MoonPhase(i int) string {
	n := clampIndex(i, TithiCount) + 1
	switch {
	case n == 30:
		return t.newMoon
	case n == 15:
		return t.fullMoon
	case n <= 7:
		return t.phases[0]
	case n <= 14:
		return t.phases[1]
	case n <= 22:
		return t.phases[2]
	default:
		return t.phases[3]
	}
}

// Nakshatras returns a copy of the nakshatra names in order.
func (t Tables) Nakshatras() []string { return append([]string(nil), t.nakshatras[:]...) }

// Raasis returns a copy of the raasi names in order.
func (t Tables) Raasis() []string { return append([]string(nil), t.raasis[:]...) }

// SolarMonths returns a copy of the solar month names in order.
func (t Tables) SolarMonths() []string { return append([]string(nil), t.months[:]...) }

// Tithis returns the full names of all 30 tithis in order.
func (t Tables) Tithis() []string {
	out := make([]string, TithiCount)
	for i := range out {
		out[i] = t.Tithi(i)
	}
	return out
}

// tablesFile is the TOML layout accepted by LoadTables. Omitted keys keep
// the Tamil defaults.
type tablesFile struct {
	Nakshatras  []string `toml:"nakshatras"`
	TithiRoots  []string `toml:"tithi_roots"`
	Raasis      []string `toml:"raasis"`
	SolarMonths []string `toml:"solar_months"`
	Paksha      struct {
		Waxing string `toml:"waxing"`
		Waning string `toml:"waning"`
	} `toml:"paksha"`
	Moon struct {
		Full string `toml:"full"`
		New  string `toml:"new"`
	} `toml:"moon"`
	Phases struct {
		WaxingEarly string `toml:"waxing_early"`
		WaxingLate  string `toml:"waxing_late"`
		WaningEarly string `toml:"waning_early"`
		WaningLate  string `toml:"waning_late"`
	} `toml:"phases"`
}

// LoadTables reads name tables from TOML. Unknown keys are rejected and
// every list that is present must have exactly the expected length.
func LoadTables(r io.Reader) (Tables, error) {
	var f tablesFile
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return Tables{}, fmt.Errorf("decoding name tables: %w", err)
	}

	t := tamilTables
	var errs []error
	errs = append(errs,
		fillList(t.nakshatras[:], f.Nakshatras, "nakshatras"),
		fillList(t.tithiRoots[:], f.TithiRoots, "tithi_roots"),
		fillList(t.raasis[:], f.Raasis, "raasis"),
		fillList(t.months[:], f.SolarMonths, "solar_months"),
	)
	if err := errors.Join(errs...); err != nil {
		return Tables{}, err
	}

	setIf(&t.waxing, f.Paksha.Waxing)
	setIf(&t.waning, f.Paksha.Waning)
	setIf(&t.fullMoon, f.Moon.Full)
	setIf(&t.newMoon, f.Moon.New)
	setIf(&t.phases[0], f.Phases.WaxingEarly)
	setIf(&t.phases[1], f.Phases.WaxingLate)
	setIf(&t.phases[2], f.Phases.WaningEarly)
	setIf(&t.phases[3], f.Phases.WaningLate)

	return t, nil
}

func fillList(dst, src []string, key string) error {
	if len(src) == 0 {
		return nil
	}
	if len(src) != len(dst) {
		return fmt.Errorf("%s: expected %d names, got %d", key, len(dst), len(src))
	}
	for i, name := range src {
		if name == "" {
			return fmt.Errorf("%s[%d]: empty name", key, i)
		}
	}
	copy(dst, src)
	return nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
