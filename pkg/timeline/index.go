package timeline

import (
	"encoding/json"
	"time"

	"github.com/ccollicutt/wherewas/pkg/cache"
	"github.com/ccollicutt/wherewas/pkg/extract"
	"github.com/ccollicutt/wherewas/pkg/timestamp"
)

// Index is an ordered, read-only sequence of entries. Order follows the
// source file and is not sorted by time.
type Index struct {
	entries []Entry
}

// NewIndex wraps entries, which must not be modified afterwards.
func NewIndex(entries []Entry) *Index {
	return &Index{entries: entries}
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}

// Entry returns the entry at pos.
func (ix *Index) Entry(pos int) Entry {
	return ix.entries[pos]
}

// Entries returns the backing slice. Callers must not modify it.
func (ix *Index) Entries() []Entry {
	if ix == nil {
		return nil
	}
	return ix.entries
}

// Locate finds the entry for t. When some interval contains t it returns
// the lowest such position and exact=true. Otherwise it returns the
// position whose nearer endpoint is closest to t, lowest position on ties,
// and exact=false. An empty index returns (-1, false).
func (ix *Index) Locate(t time.Time) (pos int, exact bool) {
	if ix.Len() == 0 {
		return -1, false
	}
	t = t.UTC()

	for i, e := range ix.entries {
		if e.Interval.Contains(t) {
			return i, true
		}
	}

	best := 0
	bestDist := ix.entries[0].Interval.Distance(t)
	for i := 1; i < len(ix.entries); i++ {
		if d := ix.entries[i].Interval.Distance(t); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, false
}

// Span returns the earliest start and latest end across all entries.
func (ix *Index) Span() (Interval, bool) {
	if ix.Len() == 0 {
		return Interval{}, false
	}
	span := ix.entries[0].Interval
	for _, e := range ix.entries[1:] {
		if e.Interval.Start.Before(span.Start) {
			span.Start = e.Interval.Start
		}
		if e.Interval.End.After(span.End) {
			span.End = e.Interval.End
		}
	}
	return span, true
}

// BuildOptions controls Build.
type BuildOptions struct {
	Normalizer timestamp.Normalizer

	// SourceHash seeds entry keys.
	SourceHash string
}

// BuildStats counts what happened to each record during Build.
type BuildStats struct {
	Records           int
	Indexed           int
	SkippedUntyped    int
	SkippedNoInterval int
	Swapped           int

	Kinds    map[Kind]int
	Layers   map[extract.Layer]int
	Mappings map[extract.Syntax]int
	Formats  map[string]int
}

func newBuildStats() BuildStats {
	return BuildStats{
		Kinds:    make(map[Kind]int),
		Layers:   make(map[extract.Layer]int),
		Mappings: make(map[extract.Syntax]int),
		Formats:  make(map[string]int),
	}
}

// Build extracts an interval from every location-bearing record and
// returns the resulting index. Records that are untyped or have no
// recoverable interval are skipped and counted.
func Build(records []json.RawMessage, opts BuildOptions) (*Index, BuildStats) {
	stats := newBuildStats()
	stats.Records = len(records)
	entries := make([]Entry, 0, len(records))

	for pos, raw := range records {
		kind := RecordKind(raw)
		if kind == KindUnknown {
			stats.SkippedUntyped++
			continue
		}

		res := extract.Interval(string(raw))
		if !res.Complete() {
			stats.SkippedNoInterval++
			continue
		}

		start := opts.Normalizer.ToUTCNaive(*res.Start)
		end := opts.Normalizer.ToUTCNaive(*res.End)
		if start.After(end) {
			start, end = end, start
			stats.Swapped++
		}

		entries = append(entries, Entry{
			Key:      EntryKey(opts.SourceHash, pos),
			Interval: Interval{Start: start, End: end},
			Record:   Record{Raw: raw, Kind: kind},
		})

		stats.Kinds[kind]++
		stats.Layers[res.Meta.StartLayer]++
		stats.Layers[res.Meta.EndLayer]++
		if res.Meta.Mapping != extract.SyntaxNone {
			stats.Mappings[res.Meta.Mapping]++
		}
		stats.Formats[res.Meta.StartFormat]++
		stats.Formats[res.Meta.EndFormat]++
	}

	stats.Indexed = len(entries)
	return NewIndex(entries), stats
}

// Snapshot converts the index to its cache form.
func (ix *Index) Snapshot() *cache.Snapshot {
	snap := &cache.Snapshot{Entries: make([]cache.SnapshotEntry, ix.Len())}
	for i, e := range ix.Entries() {
		snap.Entries[i] = cache.SnapshotEntry{
			Key:     e.Key,
			StartNS: e.Interval.Start.UnixNano(),
			EndNS:   e.Interval.End.UnixNano(),
			Record:  e.Record.Raw,
		}
	}
	return snap
}

// IndexFromSnapshot rebuilds an index from its cache form.
func IndexFromSnapshot(snap *cache.Snapshot) *Index {
	entries := make([]Entry, len(snap.Entries))
	for i, se := range snap.Entries {
		entries[i] = Entry{
			Key: se.Key,
			Interval: Interval{
				Start: time.Unix(0, se.StartNS).UTC(),
				End:   time.Unix(0, se.EndNS).UTC(),
			},
			Record: Record{Raw: se.Record, Kind: RecordKind(se.Record)},
		}
	}
	return NewIndex(entries)
}
