package ingest

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kode4food/tremor"
)

// Error messages
var (
	ErrBadCoordinate = errors.New("unparseable coordinate")
	ErrBadTimestamp  = errors.New("unparseable timestamp")
)

var coordNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

var timestampLayouts = []string{
	"2006/1/2 15:04:05",
	"2006-1-2 15:04:05",
	"2006/1/2 15:04",
	"2006-1-2 15:04",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006/1/2",
	"2006-1-2",
}

var numberFolder = strings.NewReplacer(
	"０", "0", "１", "1", "２", "2", "３", "3", "４", "4",
	"５", "5", "６", "6", "７", "7", "８", "8", "９", "9",
	"．", ".", "－", "-", "：", ":", "／", "/",
)

// ParseCoordinate reads a decimal or JMA degree-minute coordinate such as
// "38°26.9′N". Southern and western hemispheres are negative
func ParseCoordinate(s string) (float64, error) {
	s = strings.TrimSpace(numberFolder.Replace(s))
	parts := coordNumber.FindAllString(s, 3)
	if len(parts) == 0 {
		return 0, ErrBadCoordinate
	}

	var res float64
	scale := 1.0
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, ErrBadCoordinate
		}
		res += v / scale
		scale *= 60
	}

	upper := strings.ToUpper(s)
	if strings.HasPrefix(s, "-") || strings.ContainsAny(upper, "SW") ||
		strings.ContainsAny(s, "南西") {
		res = -res
	}
	return res, nil
}

// ParseTimestamp joins a date and time-of-day and interprets the result in
// loc unless it carries its own offset. A time of the form "mm:ss" is
// treated as being within the first hour of the day
func ParseTimestamp(date, clock string, loc *time.Location) (time.Time, error) {
	date = strings.TrimSpace(numberFolder.Replace(date))
	clock = strings.TrimSpace(numberFolder.Replace(clock))
	if strings.Count(clock, ":") == 1 && !strings.Contains(clock, " ") {
		clock = "00:" + clock
	}

	var s string
	switch {
	case date == "":
		s = clock
	case clock == "":
		s = date
	default:
		s = date + " " + clock
	}
	if s == "" {
		return time.Time{}, ErrBadTimestamp
	}
	if loc == nil {
		loc = tremor.JST
	}

	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, ErrBadTimestamp
}

// ParseMagnitude returns zero for anything that is not a non-negative
// finite number
func ParseMagnitude(s string) float64 {
	s = strings.TrimSpace(numberFolder.Replace(s))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
