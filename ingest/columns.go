package ingest

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

type (
	// Field is a logical column of an earthquake record
	Field int

	// Columns maps each identified field to its header index
	Columns map[Field]int

	fieldTerms struct {
		aliases []string // exact, or as whole words when long enough
		native  []string // JMA header fragments, matched as substrings
	}
)

const (
	FieldDate Field = iota
	FieldTime
	FieldLatitude
	FieldLongitude
	FieldMagnitude
	FieldLocation
	FieldIntensity
)

const (
	minWordAlias     = 3
	minFuzzyAlias    = 6
	maxFuzzyDistance = 2
)

var fields = []Field{
	FieldDate, FieldTime, FieldLatitude, FieldLongitude,
	FieldMagnitude, FieldLocation, FieldIntensity,
}

var terms = map[Field]fieldTerms{
	FieldDate: {
		aliases: []string{"date", "day", "origin date"},
		native:  []string{"発生日"},
	},
	FieldTime: {
		aliases: []string{"time", "origin time", "datetime"},
		native:  []string{"時刻"},
	},
	FieldLatitude: {
		aliases: []string{"latitude", "lat"},
		native:  []string{"緯度"},
	},
	FieldLongitude: {
		aliases: []string{"longitude", "lon", "lng", "long"},
		native:  []string{"経度"},
	},
	FieldMagnitude: {
		aliases: []string{"magnitude", "mag", "m"},
		native:  []string{"Ｍ", "マグニチュード"},
	},
	FieldLocation: {
		aliases: []string{"location", "place", "epicenter", "region"},
		native:  []string{"震央"},
	},
	FieldIntensity: {
		aliases: []string{"intensity", "max intensity", "shindo"},
		native:  []string{"震度"},
	},
}

// IdentifyColumns resolves header names to fields. Exact alias matches win
// over substring matches, which win over near misses by edit distance. Each
// header is claimed by at most one field
func IdentifyColumns(header []string) Columns {
	res := Columns{}
	claimed := map[int]bool{}
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = normalizeHeader(h)
	}

	passes := []func(Field, string, string) bool{
		matchExact, matchSubstring, matchFuzzy,
	}
	for _, match := range passes {
		for _, f := range fields {
			if _, ok := res[f]; ok {
				continue
			}
			for i, h := range header {
				if claimed[i] || !match(f, h, norm[i]) {
					continue
				}
				res[f] = i
				claimed[i] = true
				break
			}
		}
	}
	return res
}

// Has reports whether the field was identified
func (c Columns) Has(f Field) bool {
	_, ok := c[f]
	return ok
}

func (c Columns) value(rec []string, f Field) string {
	i, ok := c[f]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (f Field) String() string {
	switch f {
	case FieldDate:
		return "date"
	case FieldTime:
		return "time"
	case FieldLatitude:
		return "latitude"
	case FieldLongitude:
		return "longitude"
	case FieldMagnitude:
		return "magnitude"
	case FieldLocation:
		return "location"
	case FieldIntensity:
		return "intensity"
	default:
		return "unknown"
	}
}

func matchExact(f Field, raw, norm string) bool {
	for _, a := range terms[f].aliases {
		if norm == a {
			return true
		}
	}
	for _, n := range terms[f].native {
		if strings.TrimSpace(raw) == n {
			return true
		}
	}
	return false
}

func matchSubstring(f Field, raw, norm string) bool {
	for _, n := range terms[f].native {
		if strings.Contains(raw, n) {
			return true
		}
	}
	padded := " " + norm + " "
	for _, a := range terms[f].aliases {
		if len(a) >= minWordAlias && strings.Contains(padded, " "+a+" ") {
			return true
		}
	}
	return false
}

func matchFuzzy(f Field, _, norm string) bool {
	for _, a := range terms[f].aliases {
		if len(a) < minFuzzyAlias {
			continue
		}
		if levenshtein.ComputeDistance(norm, a) <= maxFuzzyDistance {
			return true
		}
	}
	return false
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer("_", " ", "-", " ").Replace(h)
}
