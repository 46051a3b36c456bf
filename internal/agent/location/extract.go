// Package location pulls a place name out of a user query.
//
// The heuristic is deliberately simple: it captures every letter and space
// after the first "in ", so "weather in Paris today" yields "Paris today".
// Tightening the pattern changes which city the weather tool is asked about,
// so the over-capture is kept as is.
package location

import (
	"regexp"
	"strings"
)

var inPattern = regexp.MustCompile(`(?i)in\s+([a-zA-Z\s]+)`)

// Memory is the part of conversation memory the extractor reads and writes.
type Memory interface {
	LastLocation() string
	SetLastLocation(location string)
}

// Extract returns the location mentioned in text, recording it into mem.
// Without an explicit mention it falls back to mem's remembered location,
// and returns "" when there is none. mem may be nil.
func Extract(text string, mem Memory) string {
	if m := inPattern.FindStringSubmatch(text); m != nil {
		if city := strings.TrimSpace(m[1]); city != "" {
			if mem != nil {
				mem.SetLastLocation(city)
			}
			return city
		}
	}

	if mem != nil {
		return mem.LastLocation()
	}
	return ""
}
