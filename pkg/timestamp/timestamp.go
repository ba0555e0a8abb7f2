// Package timestamp parses loosely formatted timestamps and normalizes them
// to the canonical UTC representation used for interval comparison.
package timestamp

import (
	"strconv"
	"strings"
	"time"
)

// Instant is a parsed point in time.
type Instant struct {
	// Time is the parsed value. Naive values carry their wall clock in UTC.
	Time time.Time

	// Naive is true when the source text carried no zone or offset.
	Naive bool
}

var defaultFormats = DefaultFormats()

// Parse parses text into an Instant. It never panics; ok is false when no
// strict or permissive layout accepts the text.
func Parse(text string) (Instant, bool) {
	in, _, ok := Detect(text)
	return in, ok
}

// Detect is Parse that also reports the name of the format that matched.
func Detect(text string) (Instant, string, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Instant{}, "", false
	}

	iso := s
	if strings.HasSuffix(iso, "Z") {
		iso = iso[:len(iso)-1] + "+00:00"
	}
	for _, l := range isoLayouts {
		if ts, err := time.Parse(l.layout, iso); err == nil {
			return Instant{Time: ts, Naive: !l.zoned}, FormatISO8601, true
		}
	}

	for _, f := range defaultFormats {
		if ts, ok := parseLayout(s, f.Layout); ok {
			return Instant{Time: ts, Naive: !f.Zoned}, f.Name, true
		}
	}
	return Instant{}, "", false
}

// parseLayout parses a timestamp string using the given layout.
// Handles special cases like Unix timestamps.
func parseLayout(s, layout string) (time.Time, bool) {
	switch layout {
	case LayoutUnixSeconds:
		if len(s) != 10 {
			return time.Time{}, false
		}
		secs, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		// Sanity check: reasonable Unix timestamp range (1970-2100)
		if secs < 0 || secs > 4102444800 {
			return time.Time{}, false
		}
		return time.Unix(secs, 0).UTC(), true

	case LayoutUnixMillis:
		if len(s) != 13 {
			return time.Time{}, false
		}
		millis, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		if millis < 0 || millis/1000 > 4102444800 {
			return time.Time{}, false
		}
		return time.UnixMilli(millis).UTC(), true

	default:
		t, err := time.Parse(layout, s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
}

// Normalizer converts instants to canonical UTC.
type Normalizer struct {
	// AssumeUTCForNaive reads the wall clock of naive instants as UTC.
	AssumeUTCForNaive bool

	// NaiveLocation is the zone naive instants are read in when
	// AssumeUTCForNaive is false. Nil means time.Local.
	NaiveLocation *time.Location
}

// DefaultNormalizer treats naive instants as UTC.
func DefaultNormalizer() Normalizer {
	return Normalizer{AssumeUTCForNaive: true}
}

// ToUTCNaive returns the instant as a UTC time.Time. Zone-aware instants are
// converted; naive ones are placed in UTC or NaiveLocation first.
func (n Normalizer) ToUTCNaive(in Instant) time.Time {
	t := in.Time
	if !in.Naive {
		return t.UTC()
	}

	loc := time.UTC
	if !n.AssumeUTCForNaive {
		loc = n.NaiveLocation
		if loc == nil {
			loc = time.Local
		}
	}
	return time.Date(t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc).UTC()
}

// ToUTCNaive normalizes with DefaultNormalizer.
func ToUTCNaive(in Instant) time.Time {
	return DefaultNormalizer().ToUTCNaive(in)
}
