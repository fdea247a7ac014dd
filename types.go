package tremor

import (
	"strings"
	"time"
)

type (
	// EventID identifies an Event for the lifetime of a session. Views key
	// their animations off it
	EventID int64

	// Event is a single normalized earthquake record
	Event struct {
		Timestamp time.Time `json:"timestamp"`
		Location  string    `json:"location,omitempty"`
		Intensity Intensity `json:"intensity,omitempty"`
		ID        EventID   `json:"id"`
		Latitude  float64   `json:"latitude"`
		Longitude float64   `json:"longitude"`
		Magnitude float64   `json:"magnitude"`
	}

	// Intensity is a JMA seismic intensity (shindo) class. The zero value
	// means the intensity was not reported
	Intensity string

	// Extent is the closed playback interval [Start, End]
	Extent struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	}
)

const (
	IntensityNone   Intensity = ""
	Intensity1      Intensity = "1"
	Intensity2      Intensity = "2"
	Intensity3      Intensity = "3"
	Intensity4      Intensity = "4"
	Intensity5Lower Intensity = "5-"
	Intensity5Upper Intensity = "5+"
	Intensity6Lower Intensity = "6-"
	Intensity6Upper Intensity = "6+"
	Intensity7      Intensity = "7"
)

var intensities = []Intensity{
	IntensityNone,
	Intensity1, Intensity2, Intensity3, Intensity4,
	Intensity5Lower, Intensity5Upper,
	Intensity6Lower, Intensity6Upper,
	Intensity7,
}

var intensityLabels = map[Intensity]string{
	IntensityNone:   "",
	Intensity1:      "震度１",
	Intensity2:      "震度２",
	Intensity3:      "震度３",
	Intensity4:      "震度４",
	Intensity5Lower: "震度５弱",
	Intensity5Upper: "震度５強",
	Intensity6Lower: "震度６弱",
	Intensity6Upper: "震度６強",
	Intensity7:      "震度７",
}

var widthFolder = strings.NewReplacer(
	"０", "0", "１", "1", "２", "2", "３", "3", "４", "4",
	"５", "5", "６", "6", "７", "7", "８", "8", "９", "9",
	"＋", "+", "－", "-", "　", "",
)

// Intensities returns the closed set of intensity classes in ascending order
func Intensities() []Intensity {
	res := make([]Intensity, len(intensities))
	copy(res, intensities)
	return res
}

// ParseIntensity normalizes a reported intensity. It accepts the JMA labels
// (震度６弱, with full or half-width digits) as well as the short forms
// ("6-", "6+", "6 lower", "6 upper"). Anything else yields IntensityNone and
// false
func ParseIntensity(str string) (Intensity, bool) {
	s := widthFolder.Replace(strings.TrimSpace(str))
	s = strings.TrimPrefix(s, "震度")
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return IntensityNone, false
	}

	switch {
	case strings.HasSuffix(s, "弱"), strings.HasSuffix(s, "lower"):
		s = strings.TrimSpace(strings.TrimRight(s, "弱lower")) + "-"
	case strings.HasSuffix(s, "強"), strings.HasSuffix(s, "upper"):
		s = strings.TrimSpace(strings.TrimRight(s, "強upper")) + "+"
	}

	res := Intensity(s)
	if _, ok := intensityLabels[res]; !ok {
		return IntensityNone, false
	}
	return res, true
}

// Rank orders intensities; IntensityNone ranks lowest at zero
func (i Intensity) Rank() int {
	for r, in := range intensities {
		if in == i {
			return r
		}
	}
	return 0
}

// AtLeast reports whether i is reported and at or above other
func (i Intensity) AtLeast(other Intensity) bool {
	return i != IntensityNone && i.Rank() >= other.Rank()
}

// Label returns the JMA label for the intensity (震度６弱)
func (i Intensity) Label() string {
	return intensityLabels[i]
}

func (i Intensity) String() string {
	if i == IntensityNone {
		return "-"
	}
	return string(i)
}

// NewExtent returns the interval [start, end]
func NewExtent(start, end time.Time) Extent {
	return Extent{Start: start, End: end}
}

// Duration returns the length of the extent
func (e Extent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Equal reports whether both extents cover the same instants
func (e Extent) Equal(other Extent) bool {
	return e.Start.Equal(other.Start) && e.End.Equal(other.End)
}

// Valid reports whether the extent ends after it starts
func (e Extent) Valid() bool {
	return e.End.After(e.Start)
}

// Contains reports whether t lies within [Start, End]
func (e Extent) Contains(t time.Time) bool {
	return !t.Before(e.Start) && !t.After(e.End)
}

// Clamp returns t limited to [Start, End]
func (e Extent) Clamp(t time.Time) time.Time {
	if t.Before(e.Start) {
		return e.Start
	}
	if t.After(e.End) {
		return e.End
	}
	return t
}

// At maps a fraction of the extent onto an instant. The fraction is clamped
// to [0, 1]
func (e Extent) At(fraction float64) time.Time {
	fraction = clampFraction(fraction)
	if fraction == 1 {
		return e.End
	}
	offset := time.Duration(float64(e.Duration()) * fraction)
	return e.Start.Add(offset)
}

// Fraction returns how far t lies through the extent, clamped to [0, 1]
func (e Extent) Fraction(t time.Time) float64 {
	total := e.Duration()
	if total <= 0 {
		return 0
	}
	return clampFraction(float64(t.Sub(e.Start)) / float64(total))
}

func clampFraction(f float64) float64 {
	switch {
	case f != f, f < 0: // NaN clamps low
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
