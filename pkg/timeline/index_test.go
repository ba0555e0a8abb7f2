package timeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/wherewas/pkg/extract"
	"github.com/ccollicutt/wherewas/pkg/timestamp"
)

func at(h, m int) time.Time {
	return time.Date(2021, 1, 15, h, m, 0, 0, time.UTC)
}

func indexOf(ivs ...Interval) *Index {
	entries := make([]Entry, len(ivs))
	for i, iv := range ivs {
		entries[i] = Entry{Key: EntryKey("test", i), Interval: iv}
	}
	return NewIndex(entries)
}

func TestIndex_Locate(t *testing.T) {
	ix := indexOf(
		Interval{Start: at(10, 0), End: at(11, 0)},
		Interval{Start: at(10, 30), End: at(12, 0)}, // overlaps the first
		Interval{Start: at(14, 0), End: at(15, 0)},
		Interval{Start: at(8, 0), End: at(9, 0)}, // out of chronological order
	)

	tests := []struct {
		name      string
		t         time.Time
		wantPos   int
		wantExact bool
	}{
		{"inside first", at(10, 15), 0, true},
		{"overlap prefers first in source order", at(10, 45), 0, true},
		{"only second", at(11, 30), 1, true},
		{"left endpoint", at(14, 0), 2, true},
		{"right endpoint", at(15, 0), 2, true},
		{"unsorted entry", at(8, 30), 3, true},
		{"nearest right endpoint", at(12, 20), 1, false},
		{"nearest left endpoint", at(13, 50), 2, false},
		{"before everything", at(6, 0), 3, false},
		{"after everything", at(20, 0), 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, exact := ix.Locate(tt.t)
			assert.Equal(t, tt.wantPos, pos)
			assert.Equal(t, tt.wantExact, exact)
		})
	}
}

func TestIndex_LocateNearestTieTakesLowestPosition(t *testing.T) {
	ix := indexOf(
		Interval{Start: at(14, 0), End: at(15, 0)},
		Interval{Start: at(10, 0), End: at(11, 0)},
		Interval{Start: at(14, 0), End: at(16, 0)},
	)

	// 12:30 is 90 minutes from both 11:00 and 14:00.
	pos, exact := ix.Locate(at(12, 30))
	assert.False(t, exact)
	assert.Equal(t, 0, pos)
}

func TestIndex_LocateEmpty(t *testing.T) {
	pos, exact := NewIndex(nil).Locate(at(12, 0))
	assert.Equal(t, -1, pos)
	assert.False(t, exact)

	var nilIndex *Index
	pos, _ = nilIndex.Locate(at(12, 0))
	assert.Equal(t, -1, pos)
}

func TestIndex_LocateNormalizesZone(t *testing.T) {
	ix := indexOf(Interval{Start: at(10, 0), End: at(11, 0)})
	est := time.FixedZone("EST", -5*60*60)

	_, exact := ix.Locate(time.Date(2021, 1, 15, 5, 30, 0, 0, est))
	assert.True(t, exact)
}

func TestIndex_Span(t *testing.T) {
	ix := indexOf(
		Interval{Start: at(10, 0), End: at(11, 0)},
		Interval{Start: at(8, 0), End: at(9, 0)},
		Interval{Start: at(12, 0), End: at(13, 0)},
	)
	span, ok := ix.Span()
	require.True(t, ok)
	assert.Equal(t, at(8, 0), span.Start)
	assert.Equal(t, at(13, 0), span.End)

	_, ok = NewIndex(nil).Span()
	assert.False(t, ok)
}

func TestBuild(t *testing.T) {
	records := []json.RawMessage{
		json.RawMessage(`{"visit": {}, "startTime": "2021-01-15T16:30:00Z", "endTime": "2021-01-15T15:30:00Z"}`),
		json.RawMessage(`{"somethingElse": {}, "startTime": "2021-01-15T15:30:00Z", "endTime": "2021-01-15T16:30:00Z"}`),
		json.RawMessage(`{"activity": {}, "startTime": "2021-01-15T15:30:00Z"}`),
		json.RawMessage(`{"timelinePath": [], "start_time": "2021-01-15T10:30:00-05:00", "end_time": "2021-01-15T16:00:00"}`),
		json.RawMessage(`"not an object"`),
	}

	ix, stats := Build(records, BuildOptions{Normalizer: timestamp.DefaultNormalizer(), SourceHash: "h"})

	require.Equal(t, 2, ix.Len())
	assert.Equal(t, 5, stats.Records)
	assert.Equal(t, 2, stats.Indexed)
	assert.Equal(t, 2, stats.SkippedUntyped)
	assert.Equal(t, 1, stats.SkippedNoInterval)
	assert.Equal(t, 1, stats.Swapped)
	assert.Equal(t, 1, stats.Kinds[KindVisit])
	assert.Equal(t, 1, stats.Kinds[KindPath])
	assert.Equal(t, 4, stats.Layers[extract.LayerMapping])
	assert.Equal(t, 2, stats.Mappings[extract.SyntaxJSON])

	swapped := ix.Entry(0)
	assert.Equal(t, at(15, 30), swapped.Interval.Start)
	assert.Equal(t, at(16, 30), swapped.Interval.End)
	assert.Equal(t, EntryKey("h", 0), swapped.Key)

	mixed := ix.Entry(1)
	assert.Equal(t, at(15, 30), mixed.Interval.Start, "offset converted to UTC")
	assert.Equal(t, at(16, 0), mixed.Interval.End, "naive treated as UTC")
	assert.Equal(t, EntryKey("h", 3), mixed.Key, "key follows source position")
	assert.Equal(t, time.UTC, mixed.Interval.Start.Location())
}

func TestEntryKey_Stable(t *testing.T) {
	assert.Equal(t, EntryKey("abc", 7), EntryKey("abc", 7))
	assert.NotEqual(t, EntryKey("abc", 7), EntryKey("abc", 8))
	assert.NotEqual(t, EntryKey("abc", 7), EntryKey("abd", 7))
}

func TestLocationFromRecord(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		found bool
		lat   float64
		lng   float64
	}{
		{"visit geo uri", `{"visit": {"topCandidate": {"placeLocation": "geo:37.7749,-122.4194"}}}`, true, 37.7749, -122.4194},
		{"visit object", `{"visit": {"topCandidate": {"placeLocation": {"latitude": 1.5, "longitude": 2.5}}}}`, true, 1.5, 2.5},
		{"visit latLng", `{"visit": {"topCandidate": {"placeLocation": {"latLng": "48.8584°, 2.2945°"}}}}`, true, 48.8584, 2.2945},
		{"visit E7", `{"visit": {"topCandidate": {"placeLocation": {"latitudeE7": 377749000, "longitudeE7": -1224194000}}}}`, true, 37.7749, -122.4194},
		{"activity start only", `{"activity": {"start": "geo:1.000000,2.000000", "end": "geo:3,4"}}`, true, 1, 2},
		{"activity without start", `{"activity": {"end": "geo:3,4"}}`, false, 0, 0},
		{"visit missing candidate", `{"visit": {}}`, false, 0, 0},
		{"bad geo uri", `{"visit": {"topCandidate": {"placeLocation": "geo:north"}}}`, false, 0, 0},
		{"path", `{"timelinePath": [{"point": "geo:1,2"}]}`, false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := json.RawMessage(tt.raw)
			got := LocationFromRecord(Record{Raw: raw, Kind: RecordKind(raw)})
			require.Equal(t, tt.found, got.Found())
			if tt.found {
				assert.InDelta(t, tt.lat, *got.Latitude, 1e-9)
				assert.InDelta(t, tt.lng, *got.Longitude, 1e-9)
			}
		})
	}
}

func TestLocation_JSON(t *testing.T) {
	data, err := json.Marshal(NotFound())
	require.NoError(t, err)
	assert.JSONEq(t, `{"latitude": null, "longitude": null}`, string(data))

	data, err = json.Marshal(At(37.7749, -122.4194))
	require.NoError(t, err)
	assert.JSONEq(t, `{"latitude": 37.7749, "longitude": -122.4194}`, string(data))
}
