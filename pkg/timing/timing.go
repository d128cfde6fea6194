// pkg/timing/timing.go - timestamp parsing, local display and duration math for setup telemetry.

package timing

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// DisplayLayout is the local-time format written to reports (millisecond precision).
const DisplayLayout = "2006-01-02 15:04:05.000"

// Accepted ISO-8601 layouts. Fractional seconds are accepted by time.Parse
// after the seconds field even when the layout does not name them.
var offsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
}

// Layouts without an offset are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Zone is a fixed-offset display time zone.
type Zone struct {
	Name   string
	Offset time.Duration
	loc    *time.Location
}

// PST is the fixed UTC-8 zone the reports have always used. Daylight saving is not applied.
var PST = NewZone("PST", -8*time.Hour)

// NewZone returns a fixed-offset zone.
func NewZone(name string, offset time.Duration) Zone {
	return Zone{
		Name:   name,
		Offset: offset,
		loc:    time.FixedZone(name, int(offset/time.Second)),
	}
}

// Location returns the zone as a *time.Location.
func (z Zone) Location() *time.Location {
	if z.loc == nil {
		return time.FixedZone(z.Name, int(z.Offset/time.Second))
	}
	return z.loc
}

// Display converts a UTC instant to the zone and formats it with DisplayLayout.
// Milliseconds are truncated. A zero instant yields nil.
func (z Zone) Display(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.In(z.Location()).Format(DisplayLayout)
	return &s
}

// ParseTimestamp parses an ISO-8601 string into a UTC instant.
// It returns false for empty input or anything it cannot parse.
func ParseTimestamp(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ComputeDuration returns the elapsed time between start and end as
// (seconds rounded to 6 places, milliseconds rounded to 3 places).
// Both results are nil unless both instants are present.
func ComputeDuration(start, end time.Time) (seconds, milliseconds *float64) {
	if start.IsZero() || end.IsZero() {
		return nil, nil
	}
	s := Round(end.Sub(start).Seconds(), 6)
	ms := Round(s*1000.0, 3)
	return &s, &ms
}

// ComputeTick interprets a raw tick counter value as milliseconds.
// It returns (ms, seconds) where ms is the parsed value unrounded and seconds
// is ms/1000 rounded to 6 places. Non-numeric input yields (nil, nil).
func ComputeTick(raw any) (milliseconds, seconds *float64) {
	ms, ok := toFloat(raw)
	if !ok {
		return nil, nil
	}
	s := Round(ms/1000.0, 6)
	return &ms, &s
}

// FromMilliseconds builds a (seconds, milliseconds) pair from a bare millisecond value.
func FromMilliseconds(ms float64) (seconds, milliseconds *float64) {
	s := Round(ms/1000.0, 6)
	m := Round(ms, 3)
	return &s, &m
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// toFloat rejects NaN and infinities so they never reach a numeric cell or a total.
func toFloat(raw any) (float64, bool) {
	f, ok := parseFloat(raw)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
