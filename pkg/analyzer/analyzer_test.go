package analyzer

import (
	"context"
	"testing"
	"time"

	"github.com/ccollicutt/wherewas/pkg/config"
	"github.com/ccollicutt/wherewas/pkg/timeline"
)

func TestNewAnalyzer(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
		opts []AnalyzerOption
		want time.Duration
	}{
		{"nil config", nil, nil, config.DefaultMaxGap},
		{"configured", &config.Config{Coverage: config.CoverageConfig{MaxGap: 2 * time.Hour}}, nil, 2 * time.Hour},
		{"option wins", &config.Config{Coverage: config.CoverageConfig{MaxGap: 2 * time.Hour}},
			[]AnalyzerOption{WithMaxGap(30 * time.Minute)}, 30 * time.Minute},
		{"zero option ignored", nil, []AnalyzerOption{WithMaxGap(0)}, config.DefaultMaxGap},
		{"all gaps", &config.Config{Coverage: config.CoverageConfig{MaxGap: 2 * time.Hour}},
			[]AnalyzerOption{WithAllGaps()}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAnalyzer(tt.cfg, tt.opts...)
			if err != nil {
				t.Fatalf("NewAnalyzer() error = %v", err)
			}
			if a.MaxGap() != tt.want {
				t.Errorf("MaxGap() = %v, want %v", a.MaxGap(), tt.want)
			}
		})
	}
}

func TestNewAnalyzer_ReversedTimeRange(t *testing.T) {
	_, err := NewAnalyzer(nil, WithTimeRange(hours(12), hours(10)))
	if err == nil {
		t.Error("NewAnalyzer() expected error for reversed time range")
	}
}

func TestAnalyzer_Analyze(t *testing.T) {
	a, err := NewAnalyzer(nil, WithMaxGap(6*time.Hour))
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}

	result, err := a.Analyze(context.Background(), testIndex())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if result.Stats.EntriesProcessed != 5 || result.Stats.EntriesAnalyzed != 5 {
		t.Errorf("Stats = %+v, want 5 processed and analyzed", result.Stats)
	}
	if len(result.Issues) != 2 {
		t.Errorf("Issues = %d, want 2", len(result.Issues))
	}
}

func TestAnalyzer_WithTimeRange(t *testing.T) {
	a, err := NewAnalyzer(nil, WithMaxGap(time.Hour), WithTimeRange(hours(19), hours(23)))
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}

	result, err := a.Analyze(context.Background(), testIndex())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if result.Stats.EntriesProcessed != 5 {
		t.Errorf("EntriesProcessed = %d, want 5", result.Stats.EntriesProcessed)
	}
	if result.Stats.EntriesAnalyzed != 2 {
		t.Errorf("EntriesAnalyzed = %d, want 2", result.Stats.EntriesAnalyzed)
	}
	if result.HasIssues() {
		t.Errorf("Issues = %+v, want none inside the range", result.Issues)
	}
	if result.Covered != 2*time.Hour {
		t.Errorf("Covered = %v, want 2h", result.Covered)
	}
}

func TestAnalyzer_EmptyIndex(t *testing.T) {
	a, err := NewAnalyzer(nil)
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}

	var ix *timeline.Index
	result, err := a.Analyze(context.Background(), ix)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.Span != nil || result.HasIssues() {
		t.Errorf("result = %+v, want empty", result)
	}
}

func TestAnalyzer_ContextCancellation(t *testing.T) {
	a, err := NewAnalyzer(nil)
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.Analyze(ctx, testIndex()); err == nil {
		t.Error("Analyze() expected error for cancelled context")
	}
}

func TestTimeRange_Intersects(t *testing.T) {
	tr := &TimeRange{Start: hours(10), End: hours(12)}

	tests := []struct {
		name       string
		start, end float64
		want       bool
	}{
		{"inside", 10.5, 11, true},
		{"touches start", 9, 10, true},
		{"touches end", 12, 13, true},
		{"covers", 8, 14, true},
		{"before", 8, 9.5, false},
		{"after", 12.5, 13, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv := timeline.Interval{Start: hours(tt.start), End: hours(tt.end)}
			if got := tr.Intersects(iv); got != tt.want {
				t.Errorf("Intersects() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeRange_OpenEnd(t *testing.T) {
	tr := &TimeRange{Start: hours(10)}

	if !tr.Intersects(timeline.Interval{Start: hours(20), End: hours(21)}) {
		t.Error("Intersects() = false for entry after open start")
	}
	if tr.Intersects(timeline.Interval{Start: hours(8), End: hours(9)}) {
		t.Error("Intersects() = true for entry before start")
	}

	if _, err := NewAnalyzer(nil, WithTimeRange(hours(10), time.Time{})); err != nil {
		t.Errorf("NewAnalyzer() with open end error = %v", err)
	}
}
