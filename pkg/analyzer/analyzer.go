package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/ccollicutt/wherewas/pkg/config"
	"github.com/ccollicutt/wherewas/pkg/timeline"
)

// Analyzer runs coverage analysis over a timeline index.
type Analyzer struct {
	maxGap time.Duration

	// Options
	timeRange *TimeRange
}

// TimeRange limits analysis to entries that intersect it. A zero End
// leaves the range open.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Intersects reports whether iv shares at least one instant with the range.
func (tr *TimeRange) Intersects(iv timeline.Interval) bool {
	if iv.End.Before(tr.Start) {
		return false
	}
	return tr.End.IsZero() || !iv.Start.After(tr.End)
}

// AnalyzerOption configures analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithTimeRange limits analysis to entries within the given time range.
func WithTimeRange(start, end time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		a.timeRange = &TimeRange{Start: start.UTC(), End: end.UTC()}
	}
}

// WithMaxGap overrides the configured gap threshold.
func WithMaxGap(d time.Duration) AnalyzerOption {
	return func(a *Analyzer) {
		if d > 0 {
			a.maxGap = d
		}
	}
}

// WithAllGaps reports every uncovered stretch, however short. It replaces
// any configured threshold.
func WithAllGaps() AnalyzerOption {
	return func(a *Analyzer) {
		a.maxGap = 0
	}
}

// NewAnalyzer creates a new analyzer from configuration.
func NewAnalyzer(cfg *config.Config, opts ...AnalyzerOption) (*Analyzer, error) {
	a := &Analyzer{maxGap: config.DefaultMaxGap}
	if cfg != nil && cfg.Coverage.MaxGap > 0 {
		a.maxGap = cfg.Coverage.MaxGap
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.timeRange != nil && !a.timeRange.End.IsZero() && a.timeRange.End.Before(a.timeRange.Start) {
		return nil, fmt.Errorf("time range ends (%s) before it starts (%s)",
			a.timeRange.End.Format(time.RFC3339), a.timeRange.Start.Format(time.RFC3339))
	}

	return a, nil
}

// MaxGap returns the gap threshold in effect.
func (a *Analyzer) MaxGap() time.Duration {
	return a.maxGap
}

// Analyze examines every entry of ix and returns the coverage result.
func (a *Analyzer) Analyze(ctx context.Context, ix *timeline.Index) (*CoverageResult, error) {
	engine := NewCoverageEngine(a.maxGap)
	processed := 0

	for pos, entry := range ix.Entries() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		processed++

		if a.timeRange != nil && !a.timeRange.Intersects(entry.Interval) {
			continue
		}

		if err := engine.Process(ctx, pos, entry); err != nil {
			return nil, fmt.Errorf("processing entry %d: %w", pos, err)
		}
	}

	result, err := engine.Finalize(ctx)
	if err != nil {
		return nil, fmt.Errorf("finalizing coverage: %w", err)
	}
	result.Stats.EntriesProcessed = processed

	return result, nil
}
