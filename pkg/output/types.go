// Package output provides formatting and output generation for query,
// inspection and coverage results.
package output

import (
	"time"

	"github.com/ccollicutt/wherewas/pkg/analyzer"
	"github.com/ccollicutt/wherewas/pkg/extract"
	"github.com/ccollicutt/wherewas/pkg/timeline"
)

// Report is the complete output of one command run.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary

	// Queries holds one result per resolved time, in request order.
	Queries []QueryResult `json:",omitempty"`

	// Coverage is set when a coverage analysis ran.
	Coverage *analyzer.CoverageResult `json:",omitempty"`

	// Index is set by inspect.
	Index *IndexInfo `json:",omitempty"`

	// Metadata provides context about the run.
	Metadata Metadata
}

// Summary provides aggregate statistics.
type Summary struct {
	Entries        int
	Queries        int
	Found          int
	NotFound       int
	CoverageIssues int
}

// Metadata provides context about the run.
type Metadata struct {
	// ConfigFile is the path to the configuration file used, if any.
	ConfigFile string `json:",omitempty"`

	Source     string
	SourceHash string

	// CacheDir is empty when caching was disabled.
	CacheDir  string `json:",omitempty"`
	FromCache bool

	// GeneratedAt is when the report was finished.
	GeneratedAt time.Time

	// Duration is how long the run took, including loading the index.
	Duration time.Duration
}

// QueryResult is the answer for one requested time.
type QueryResult struct {
	// Query is the time as the user wrote it.
	Query string

	// Time is the UTC instant that was resolved.
	Time     time.Time
	Location timeline.Location
	Found    bool

	// Match describes the entry that answered, or for misses the nearest
	// entry. Nil when the index is empty.
	Match *MatchInfo `json:",omitempty"`
}

// MatchInfo describes an index entry relative to a query.
type MatchInfo struct {
	Position int
	Key      string
	Kind     timeline.Kind
	Start    time.Time
	End      time.Time
	Exact    bool

	// Distance is zero for exact matches.
	Distance time.Duration
}

// IndexInfo summarizes how the index was built.
type IndexInfo struct {
	Stats timeline.BuildStats
	Span  *timeline.Interval `json:",omitempty"`

	// Samples shows how the first few entries were extracted.
	Samples []Sample `json:",omitempty"`
}

// Sample is the extraction trace of one indexed record.
type Sample struct {
	Position   int
	Kind       timeline.Kind
	Start      time.Time
	End        time.Time
	StartRaw   string
	EndRaw     string
	StartLayer extract.Layer
	EndLayer   extract.Layer
	Mapping    extract.Syntax `json:",omitempty"`
}

// NewReport creates an empty Report describing store. configFile may be
// empty.
func NewReport(store *timeline.Store, configFile string) *Report {
	report := &Report{
		Queries: make([]QueryResult, 0),
		Metadata: Metadata{
			ConfigFile: configFile,
		},
	}
	if store != nil {
		report.Metadata.Source = store.Source()
		report.Metadata.SourceHash = store.SourceHash()
		report.Metadata.CacheDir = store.CacheDir()
		report.Metadata.FromCache = store.FromCache()
		report.Summary.Entries = store.Index().Len()
	}
	return report
}

// Resolve answers t against store and returns the result. query is the
// text the user supplied for t.
func Resolve(store *timeline.Store, query string, t time.Time) QueryResult {
	t = t.UTC()
	qr := QueryResult{
		Query:    query,
		Time:     t,
		Location: store.LocationAtTime(t),
	}
	qr.Found = qr.Location.Found()

	if m, ok := store.Match(t); ok {
		qr.Match = &MatchInfo{
			Position: m.Position,
			Key:      m.Entry.Key.String(),
			Kind:     m.Entry.Record.Kind,
			Start:    m.Entry.Interval.Start,
			End:      m.Entry.Interval.End,
			Exact:    m.Exact,
			Distance: m.Distance,
		}
	}
	return qr
}

// AddQuery appends a query result and updates the summary.
func (r *Report) AddQuery(qr QueryResult) {
	r.Queries = append(r.Queries, qr)
	r.Summary.Queries++
	if qr.Found {
		r.Summary.Found++
	} else {
		r.Summary.NotFound++
	}
}

// SetCoverage attaches a coverage result and updates the summary.
func (r *Report) SetCoverage(c *analyzer.CoverageResult) {
	r.Coverage = c
	r.Summary.CoverageIssues = 0
	if c != nil {
		r.Summary.CoverageIssues = len(c.Issues)
	}
}

// SetIndex attaches build statistics and extraction samples for the first
// maxSamples entries of store.
func (r *Report) SetIndex(store *timeline.Store, maxSamples int) {
	info := &IndexInfo{Stats: store.Stats()}
	ix := store.Index()
	if span, ok := ix.Span(); ok {
		info.Span = &span
	}

	for pos, e := range ix.Entries() {
		if pos >= maxSamples {
			break
		}
		res := extract.Interval(string(e.Record.Raw))
		info.Samples = append(info.Samples, Sample{
			Position:   pos,
			Kind:       e.Record.Kind,
			Start:      e.Interval.Start,
			End:        e.Interval.End,
			StartRaw:   res.Meta.StartRaw,
			EndRaw:     res.Meta.EndRaw,
			StartLayer: res.Meta.StartLayer,
			EndLayer:   res.Meta.EndLayer,
			Mapping:    res.Meta.Mapping,
		})
	}
	r.Index = info
}

// Finish stamps the report with the completion time and the duration
// since started.
func (r *Report) Finish(started time.Time) {
	r.Metadata.GeneratedAt = time.Now().UTC()
	r.Metadata.Duration = r.Metadata.GeneratedAt.Sub(started)
}

// HasIssues returns true if any query found nothing or the coverage
// analysis reported problems.
func (r *Report) HasIssues() bool {
	return r.Summary.NotFound > 0 || r.Summary.CoverageIssues > 0
}
