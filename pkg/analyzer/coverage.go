package analyzer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ccollicutt/wherewas/pkg/timeline"
)

// coverageEntry tracks a single entry for coverage analysis.
type coverageEntry struct {
	position int
	start    time.Time
	end      time.Time
}

// CoverageEngine collects index entries and reports gaps exceeding the
// threshold and overlapping entries.
type CoverageEngine struct {
	maxGap time.Duration

	// State
	mu      sync.Mutex
	entries []coverageEntry
	stats   CoverageStats
}

// NewCoverageEngine creates a coverage engine. A non-positive maxGap
// reports every gap; Analyzer reaches that through WithAllGaps.
func NewCoverageEngine(maxGap time.Duration) *CoverageEngine {
	return &CoverageEngine{
		maxGap:  maxGap,
		entries: make([]coverageEntry, 0),
	}
}

// MaxGap returns the gap threshold.
func (e *CoverageEngine) MaxGap() time.Duration {
	return e.maxGap
}

// Process records the entry at position pos.
func (e *CoverageEngine) Process(_ context.Context, pos int, entry timeline.Entry) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stats.StartTime.IsZero() {
		e.stats.StartTime = time.Now()
	}
	e.stats.EntriesAnalyzed++
	e.entries = append(e.entries, coverageEntry{
		position: pos,
		start:    entry.Interval.Start,
		end:      entry.Interval.End,
	})

	return nil
}

// Finalize completes analysis and returns detected issues.
func (e *CoverageEngine) Finalize(_ context.Context) (*CoverageResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.EndTime = time.Now()

	result := &CoverageResult{
		MaxGap: e.maxGap,
		Issues: make([]Issue, 0),
		Stats:  e.stats,
	}
	if len(e.entries) == 0 {
		return result, nil
	}

	sorted := make([]coverageEntry, len(e.entries))
	copy(sorted, e.entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].start.Equal(sorted[j].start) {
			return sorted[i].start.Before(sorted[j].start)
		}
		return sorted[i].position < sorted[j].position
	})

	// reach is the entry whose end is furthest so far; segStart opens the
	// current covered stretch. active holds the entries that may still
	// overlap a later start.
	reach := sorted[0]
	segStart := reach.start
	result.Segments = 1
	span := timeline.Interval{Start: reach.start, End: reach.end}
	active := []coverageEntry{reach}

	for _, curr := range sorted[1:] {
		if curr.end.After(span.End) {
			span.End = curr.end
		}

		kept := active[:0]
		for _, a := range active {
			if a.end.After(curr.start) {
				kept = append(kept, a)
			}
		}
		active = kept

		for _, a := range active {
			overlapEnd := curr.end
			if a.end.Before(overlapEnd) {
				overlapEnd = a.end
			}
			overlap := overlapEnd.Sub(curr.start)
			if overlap <= 0 {
				continue
			}
			winner, loser := a.position, curr.position
			if loser < winner {
				winner, loser = loser, winner
			}
			result.Issues = append(result.Issues, Issue{
				Type: IssueTypeOverlap,
				Description: fmt.Sprintf("Entries %d and %d overlap for %s; entry %d takes precedence over entry %d",
					winner, loser, overlap.Round(time.Second), winner, loser),
				Context: IssueContext{
					StartTime:     curr.start,
					EndTime:       overlapEnd,
					Position:      winner,
					OtherPosition: loser,
					Overlap:       overlap,
				},
			})
		}
		active = append(active, curr)

		if curr.start.After(reach.end) {
			gap := curr.start.Sub(reach.end)
			if gap > e.maxGap {
				result.Issues = append(result.Issues, Issue{
					Type: IssueTypeGapExceeded,
					Description: fmt.Sprintf("Gap of %s with no recorded location (max allowed: %s)",
						gap.Round(time.Second), e.maxGap),
					Context: IssueContext{
						StartTime:     reach.end,
						EndTime:       curr.start,
						Position:      reach.position,
						OtherPosition: curr.position,
						ActualGap:     gap,
						ExpectedGap:   e.maxGap,
					},
				})
			}
			result.Covered += reach.end.Sub(segStart)
			result.Segments++
			segStart = curr.start
			reach = curr
			continue
		}
		if curr.end.After(reach.end) {
			reach = curr
		}
	}
	result.Covered += reach.end.Sub(segStart)
	result.Span = &span

	return result, nil
}

// Reset clears internal state for reuse.
func (e *CoverageEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.entries = make([]coverageEntry, 0)
	e.stats = CoverageStats{}
}
