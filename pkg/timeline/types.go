// Package timeline builds an interval index over a location-history export
// and answers "where was I at time T" queries against it.
package timeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Kind is the type of a timeline record.
type Kind string

const (
	KindUnknown  Kind = ""
	KindVisit    Kind = "visit"
	KindActivity Kind = "activity"
	KindPath     Kind = "path"
)

// Record is one entry of the export, kept as its original JSON.
type Record struct {
	Raw  json.RawMessage
	Kind Kind
}

// RecordKind reports which location-bearing payload raw carries.
// Records with none of visit, activity or timelinePath are KindUnknown.
func RecordKind(raw []byte) Kind {
	switch {
	case gjson.GetBytes(raw, KeyVisit).Exists():
		return KindVisit
	case gjson.GetBytes(raw, KeyActivity).Exists():
		return KindActivity
	case gjson.GetBytes(raw, KeyTimelinePath).Exists():
		return KindPath
	default:
		return KindUnknown
	}
}

// Top-level keys that mark a location-bearing record.
const (
	KeyVisit        = "visit"
	KeyActivity     = "activity"
	KeyTimelinePath = "timelinePath"
)

// Interval is a closed time range. Start and End are UTC and Start <= End.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies in the interval, endpoints included.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && !t.After(iv.End)
}

// Distance is the absolute time from t to the nearer endpoint.
func (iv Interval) Distance(t time.Time) time.Duration {
	left := t.Sub(iv.Start).Abs()
	right := iv.End.Sub(t).Abs()
	return min(left, right)
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s]", iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
}

// Entry binds an interval to the record that produced it.
type Entry struct {
	// Key is stable for a given source file and record position.
	Key      uuid.UUID
	Interval Interval
	Record   Record
}

// keyNamespace scopes entry keys to this package.
var keyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/ccollicutt/wherewas/timeline"))

// EntryKey derives the key of the record at position pos of a source file
// with the given content hash.
func EntryKey(sourceHash string, pos int) uuid.UUID {
	return uuid.NewSHA1(keyNamespace, []byte(fmt.Sprintf("%s:%d", sourceHash, pos)))
}
