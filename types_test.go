package tremor_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/tremor"
)

func TestParseIntensity(t *testing.T) {
	for in, want := range map[string]tremor.Intensity{
		"震度１":      tremor.Intensity1,
		"震度４":      tremor.Intensity4,
		"震度５弱":     tremor.Intensity5Lower,
		"震度５強":     tremor.Intensity5Upper,
		"震度６弱":     tremor.Intensity6Lower,
		"震度6強":     tremor.Intensity6Upper,
		"震度７":      tremor.Intensity7,
		"6-":       tremor.Intensity6Lower,
		"5+":       tremor.Intensity5Upper,
		" 6 lower": tremor.Intensity6Lower,
		"5 Upper":  tremor.Intensity5Upper,
		"3":        tremor.Intensity3,
	} {
		got, ok := tremor.ParseIntensity(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "震度", "8", "strong", "震度不明"} {
		got, ok := tremor.ParseIntensity(in)
		assert.False(t, ok, in)
		assert.Equal(t, tremor.IntensityNone, got, in)
	}
}

func TestIntensityOrdering(t *testing.T) {
	all := tremor.Intensities()
	assert.Len(t, all, 10)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].Rank(), all[i-1].Rank())
	}

	assert.True(t, tremor.Intensity7.AtLeast(tremor.Intensity6Lower))
	assert.True(t, tremor.Intensity6Lower.AtLeast(tremor.Intensity6Lower))
	assert.False(t, tremor.Intensity5Upper.AtLeast(tremor.Intensity6Lower))
	assert.False(t, tremor.IntensityNone.AtLeast(tremor.IntensityNone))
}

func TestIntensityLabels(t *testing.T) {
	assert.Equal(t, "震度６弱", tremor.Intensity6Lower.Label())
	assert.Equal(t, "6-", tremor.Intensity6Lower.String())
	assert.Equal(t, "-", tremor.IntensityNone.String())
	assert.Equal(t, "", tremor.IntensityNone.Label())
}

func TestExtent(t *testing.T) {
	ext := minuteExtent(0, 100)

	assert.True(t, ext.Valid())
	assert.Equal(t, 100*time.Minute, ext.Duration())
	assert.True(t, ext.Contains(minutes(0)))
	assert.True(t, ext.Contains(minutes(100)))
	assert.False(t, ext.Contains(minutes(101)))

	assert.Equal(t, minutes(0), ext.Clamp(minutes(-3)))
	assert.Equal(t, minutes(100), ext.Clamp(minutes(300)))
	assert.Equal(t, minutes(42), ext.Clamp(minutes(42)))

	assert.Equal(t, minutes(25), ext.At(0.25))
	assert.Equal(t, minutes(0), ext.At(-1))
	assert.Equal(t, minutes(100), ext.At(2))
	assert.Equal(t, minutes(0), ext.At(math.NaN()))

	assert.Equal(t, 0.5, ext.Fraction(minutes(50)))
	assert.Equal(t, 0.0, ext.Fraction(minutes(-50)))
	assert.Equal(t, 1.0, ext.Fraction(minutes(500)))
}

func TestDefaultExtent(t *testing.T) {
	ext := tremor.DefaultExtent()
	assert.Equal(t, 2006, ext.Start.Year())
	assert.Equal(t, time.January, ext.End.Month())
	assert.Equal(t, 31, ext.End.Day())
	assert.Equal(t, 23, ext.End.Hour())

	_, offset := ext.Start.Zone()
	assert.Equal(t, 9*60*60, offset)
}
