package views

import (
	"math"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kode4food/tremor"
)

// Marker timings
const (
	GrowDuration   = 200 * time.Millisecond
	HoldDuration   = 500 * time.Millisecond
	FadeDuration   = 300 * time.Millisecond
	ResumeDuration = 500 * time.Millisecond

	// Lifetime is how long an undisturbed marker stays on the map
	Lifetime = GrowDuration + HoldDuration + FadeDuration
)

const defaultColor = lipgloss.Color("#CFD8DC")

var intensityColors = map[tremor.Intensity]lipgloss.Color{
	tremor.Intensity4:      "#81D4FA",
	tremor.Intensity5Lower: "#FFF176",
	tremor.Intensity5Upper: "#FFB74D",
	tremor.Intensity6Lower: "#E57373",
	tremor.Intensity6Upper: "#C62828",
	tremor.Intensity7:      "#9C27B0",
}

// IntensityColor returns the marker color for an intensity class. Classes
// below 4 share a neutral grey
func IntensityColor(i tremor.Intensity) lipgloss.Color {
	if c, ok := intensityColors[i]; ok {
		return c
	}
	return defaultColor
}

// Radius is the full marker size for a magnitude, in screen pixels. Large
// events grow quadratically
func Radius(m float64) float64 {
	if m > 2 {
		return 2*math.Pow(m-2, 2) + 2
	}
	return math.Max(1, 1.5*m)
}
