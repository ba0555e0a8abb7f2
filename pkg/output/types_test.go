package output

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ccollicutt/wherewas/pkg/analyzer"
	"github.com/ccollicutt/wherewas/pkg/extract"
	"github.com/ccollicutt/wherewas/pkg/timeline"
)

const testTimeline = `[
  {
    "visit": {"topCandidate": {"placeLocation": "geo:37.774900,-122.419400"}},
    "startTime": "2021-01-15T15:30:00Z",
    "endTime": "2021-01-15T16:30:00Z"
  },
  {
    "timelinePath": [],
    "startTime": "2021-01-15T16:30:00Z",
    "endTime": "2021-01-15T17:00:00Z"
  }
]`

func openTestStore(t *testing.T) *timeline.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Timeline.json")
	if err := os.WriteFile(path, []byte(testTimeline), 0644); err != nil {
		t.Fatalf("Failed to write timeline: %v", err)
	}
	store, err := timeline.Open(context.Background(), path, timeline.WithoutCache())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return store
}

func TestResolve(t *testing.T) {
	store := openTestStore(t)

	tests := []struct {
		name      string
		t         time.Time
		wantFound bool
		wantExact bool
		wantPos   int
	}{
		{"visit", time.Date(2021, 1, 15, 15, 45, 0, 0, time.UTC), true, true, 0},
		{"shared endpoint resolves to first entry", time.Date(2021, 1, 15, 16, 30, 0, 0, time.UTC), true, true, 0},
		{"path has no location", time.Date(2021, 1, 15, 16, 45, 0, 0, time.UTC), false, true, 1},
		{"outside every interval", time.Date(2021, 1, 15, 20, 0, 0, 0, time.UTC), false, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qr := Resolve(store, tt.name, tt.t)
			if qr.Found != tt.wantFound {
				t.Errorf("Found = %v, want %v", qr.Found, tt.wantFound)
			}
			if qr.Match == nil {
				t.Fatal("Match = nil")
			}
			if qr.Match.Exact != tt.wantExact || qr.Match.Position != tt.wantPos {
				t.Errorf("Match = %+v, want exact=%v position=%d", qr.Match, tt.wantExact, tt.wantPos)
			}
		})
	}
}

func TestResolve_DistanceForMiss(t *testing.T) {
	store := openTestStore(t)

	qr := Resolve(store, "late", time.Date(2021, 1, 15, 18, 0, 0, 0, time.UTC))
	if qr.Match == nil || qr.Match.Distance != time.Hour {
		t.Errorf("Match = %+v, want distance 1h", qr.Match)
	}
}

func TestResolve_NilStore(t *testing.T) {
	qr := Resolve(nil, "x", time.Now())
	if qr.Found || qr.Match != nil {
		t.Errorf("Resolve(nil) = %+v, want not found without match", qr)
	}
}

func TestReport_Summary(t *testing.T) {
	store := openTestStore(t)
	report := NewReport(store, "wherewas.yaml")

	if report.Summary.Entries != 2 {
		t.Errorf("Entries = %d, want 2", report.Summary.Entries)
	}
	if report.Metadata.Source != store.Source() || report.Metadata.SourceHash != store.SourceHash() {
		t.Errorf("Metadata = %+v", report.Metadata)
	}
	if report.HasIssues() {
		t.Error("HasIssues() = true for an empty report")
	}

	report.AddQuery(Resolve(store, "a", time.Date(2021, 1, 15, 15, 45, 0, 0, time.UTC)))
	if report.HasIssues() {
		t.Error("HasIssues() = true with only found queries")
	}

	report.AddQuery(Resolve(store, "b", time.Date(2021, 1, 15, 20, 0, 0, 0, time.UTC)))
	if report.Summary.Queries != 2 || report.Summary.Found != 1 || report.Summary.NotFound != 1 {
		t.Errorf("Summary = %+v", report.Summary)
	}
	if !report.HasIssues() {
		t.Error("HasIssues() = false with a not-found query")
	}
}

func TestReport_SetCoverage(t *testing.T) {
	report := NewReport(nil, "")
	report.SetCoverage(&analyzer.CoverageResult{Issues: []analyzer.Issue{{Type: analyzer.IssueTypeOverlap}}})
	if report.Summary.CoverageIssues != 1 || !report.HasIssues() {
		t.Errorf("Summary = %+v, want one coverage issue", report.Summary)
	}

	report.SetCoverage(nil)
	if report.Summary.CoverageIssues != 0 {
		t.Errorf("CoverageIssues = %d after clearing, want 0", report.Summary.CoverageIssues)
	}
}

func TestReport_SetIndex(t *testing.T) {
	store := openTestStore(t)
	report := NewReport(store, "")
	report.SetIndex(store, 1)

	if report.Index == nil {
		t.Fatal("Index = nil")
	}
	if report.Index.Stats.Indexed != 2 {
		t.Errorf("Indexed = %d, want 2", report.Index.Stats.Indexed)
	}
	if report.Index.Span == nil {
		t.Fatal("Span = nil")
	}
	if len(report.Index.Samples) != 1 {
		t.Fatalf("Samples = %d, want 1", len(report.Index.Samples))
	}
	s := report.Index.Samples[0]
	if s.StartRaw != "2021-01-15T15:30:00Z" || s.StartLayer != extract.LayerMapping {
		t.Errorf("Sample = %+v", s)
	}
	if s.Kind != timeline.KindVisit {
		t.Errorf("Kind = %q, want visit", s.Kind)
	}
}

func TestReport_Finish(t *testing.T) {
	report := NewReport(nil, "")
	started := time.Now().Add(-time.Second)
	report.Finish(started)

	if report.Metadata.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
	if report.Metadata.Duration < time.Second {
		t.Errorf("Duration = %v, want at least 1s", report.Metadata.Duration)
	}
}

func TestNewFormatter(t *testing.T) {
	for _, name := range []string{"", "text", "json"} {
		if _, err := NewFormatter(name, FormatOptions{}); err != nil {
			t.Errorf("NewFormatter(%q) error = %v", name, err)
		}
	}
	if _, err := NewFormatter("xml", FormatOptions{}); err == nil {
		t.Error("NewFormatter(xml) expected error")
	}
}
