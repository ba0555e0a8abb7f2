// Package analyzer reports how well a timeline covers time: stretches with
// no recorded interval and intervals that overlap one another.
package analyzer

import (
	"time"

	"github.com/ccollicutt/wherewas/pkg/timeline"
)

// IssueType categorizes detected issues.
type IssueType string

const (
	// IssueTypeGapExceeded indicates an uncovered stretch longer than the
	// allowed maximum. Queries inside it return not found.
	IssueTypeGapExceeded IssueType = "gap_exceeded"

	// IssueTypeOverlap indicates two entries share more than an endpoint.
	// Queries inside the overlap resolve to the earlier entry in source order.
	IssueTypeOverlap IssueType = "overlap"
)

// CoverageResult contains the findings of one coverage analysis.
type CoverageResult struct {
	// MaxGap is the threshold gaps were compared against.
	MaxGap time.Duration

	// Span is the earliest start and latest end of the analyzed entries.
	// Nil when no entries were analyzed.
	Span *timeline.Interval

	// Covered is the total time inside at least one entry.
	Covered time.Duration

	// Segments is the number of disjoint covered stretches.
	Segments int

	// Issues contains all detected problems, ordered by time.
	Issues []Issue

	// Stats provides execution statistics.
	Stats CoverageStats
}

// CoverageStats contains execution statistics for an analysis.
type CoverageStats struct {
	// EntriesProcessed is the number of index entries examined.
	EntriesProcessed int

	// EntriesAnalyzed is the number inside the time range, if any.
	EntriesAnalyzed int

	StartTime time.Time
	EndTime   time.Time
}

// HasIssues returns true if any issues were detected.
func (r *CoverageResult) HasIssues() bool {
	return r != nil && len(r.Issues) > 0
}

// CountByType returns how many issues have type t.
func (r *CoverageResult) CountByType(t IssueType) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, issue := range r.Issues {
		if issue.Type == t {
			n++
		}
	}
	return n
}

// CoverageRatio is Covered divided by the length of Span, or 0 for an
// empty or zero-length span.
func (r *CoverageResult) CoverageRatio() float64 {
	if r == nil || r.Span == nil || r.Span.Duration() <= 0 {
		return 0
	}
	return float64(r.Covered) / float64(r.Span.Duration())
}

// Issue represents a single detected problem.
type Issue struct {
	// Type categorizes the issue.
	Type IssueType

	// Description is a human-readable summary of the issue.
	Description string

	// Context provides details about where/when the issue occurred.
	Context IssueContext
}

// IssueContext provides detailed information about an issue.
type IssueContext struct {
	// StartTime and EndTime bound the gap or the overlapping stretch.
	StartTime time.Time
	EndTime   time.Time

	// Position is the index position of the entry before the gap, or the
	// entry that wins the overlap.
	Position int

	// OtherPosition is the entry after the gap, or the entry that loses
	// the overlap.
	OtherPosition int

	// ActualGap is the uncovered duration (gap_exceeded only).
	ActualGap time.Duration

	// ExpectedGap is the maximum allowed gap (gap_exceeded only).
	ExpectedGap time.Duration

	// Overlap is the shared duration (overlap only).
	Overlap time.Duration
}
