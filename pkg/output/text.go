package output

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ccollicutt/wherewas/pkg/analyzer"
)

// timeLayout is used for every instant in text output.
const timeLayout = "2006-01-02 15:04"

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	fmt.Fprintf(w, "wherewas: %d queries, %d found, %d not found, %d coverage issues\n",
		report.Summary.Queries,
		report.Summary.Found,
		report.Summary.NotFound,
		report.Summary.CoverageIssues)
	return nil
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	// Header
	fmt.Fprintln(w, "=== wherewas report ===")
	source := report.Metadata.Source
	if report.Metadata.FromCache {
		source += " (cached index)"
	}
	fmt.Fprintf(w, "Source: %s, %d entries\n", source, report.Summary.Entries)
	fmt.Fprintln(w)

	for i := range report.Queries {
		f.formatQuery(&report.Queries[i], w)
	}

	if report.Index != nil {
		f.formatIndex(report.Index, w)
	}

	if report.Coverage != nil {
		f.formatCoverage(report.Coverage, w)
	}

	// Summary
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d queries, %d found, %d not found, %d coverage issues\n",
		report.Summary.Queries,
		report.Summary.Found,
		report.Summary.NotFound,
		report.Summary.CoverageIssues)

	if f.opts.Verbose {
		fmt.Fprintf(w, "Source hash: %s\n", report.Metadata.SourceHash)
		if report.Metadata.CacheDir != "" {
			fmt.Fprintf(w, "Cache: %s\n", report.Metadata.CacheDir)
		}
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(time.Millisecond))
	}

	return nil
}

func (f *TextFormatter) formatQuery(qr *QueryResult, w io.Writer) {
	fmt.Fprintf(w, "[QUERY] %s\n", qr.Query)

	if qr.Found {
		fmt.Fprintf(w, "  %s\n", qr.Location)
		if m := qr.Match; m != nil {
			fmt.Fprintf(w, "  %s entry %d, %s to %s\n",
				m.Kind, m.Position, m.Start.Format(timeLayout), m.End.Format(timeLayout))
		}
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintln(w, "  Location not found")
	if m := qr.Match; m != nil {
		if m.Exact {
			// Contained in a record that carries no coordinates.
			fmt.Fprintf(w, "  %s entry %d covers this time but has no location\n", m.Kind, m.Position)
		} else if f.opts.Verbose {
			fmt.Fprintf(w, "  Nearest: %s entry %d, %s to %s (%s away)\n",
				m.Kind, m.Position,
				m.Start.Format(timeLayout), m.End.Format(timeLayout),
				m.Distance.Round(time.Minute))
		}
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatIndex(info *IndexInfo, w io.Writer) {
	stats := info.Stats
	fmt.Fprintln(w, "[INDEX]")
	fmt.Fprintf(w, "  Records: %d, indexed: %d\n", stats.Records, stats.Indexed)
	fmt.Fprintf(w, "  Skipped: %d without location payload, %d without interval\n",
		stats.SkippedUntyped, stats.SkippedNoInterval)
	fmt.Fprintf(w, "  Swapped start/end: %d\n", stats.Swapped)
	if info.Span != nil {
		fmt.Fprintf(w, "  Span: %s to %s\n",
			info.Span.Start.Format(timeLayout), info.Span.End.Format(timeLayout))
	}

	writeCounts(w, "Kinds", stringKeys(stats.Kinds))
	writeCounts(w, "Layers", stringKeys(stats.Layers))
	writeCounts(w, "Mappings", stringKeys(stats.Mappings))
	writeCounts(w, "Formats", stats.Formats)

	if f.opts.Verbose {
		for _, s := range info.Samples {
			fmt.Fprintf(w, "  - entry %d (%s): %q [%s] -> %q [%s]\n",
				s.Position, s.Kind, s.StartRaw, s.StartLayer, s.EndRaw, s.EndLayer)
		}
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatCoverage(c *analyzer.CoverageResult, w io.Writer) {
	fmt.Fprintf(w, "[COVERAGE] max gap %s\n", c.MaxGap)

	if c.Span == nil {
		fmt.Fprintln(w, "  No entries to analyze")
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintf(w, "  Span: %s to %s, %d segment(s), %.1f%% covered\n",
		c.Span.Start.Format(timeLayout), c.Span.End.Format(timeLayout),
		c.Segments, c.CoverageRatio()*100)

	if !c.HasIssues() {
		fmt.Fprintln(w, "  No issues detected")
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintf(w, "  Issues: %d gap(s), %d overlap(s)\n",
		c.CountByType(analyzer.IssueTypeGapExceeded),
		c.CountByType(analyzer.IssueTypeOverlap))

	for i := range c.Issues {
		f.formatIssue(&c.Issues[i], w)
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatIssue(issue *analyzer.Issue, w io.Writer) {
	ctx := issue.Context
	switch issue.Type {
	case analyzer.IssueTypeGapExceeded:
		fmt.Fprintf(w, "  - Gap of %s between %s and %s (max allowed: %s)\n",
			ctx.ActualGap.Round(time.Second),
			ctx.StartTime.Format(timeLayout),
			ctx.EndTime.Format(timeLayout),
			ctx.ExpectedGap)
	case analyzer.IssueTypeOverlap:
		fmt.Fprintf(w, "  - Overlap of %s at %s: entry %d wins over entry %d\n",
			ctx.Overlap.Round(time.Second),
			ctx.StartTime.Format(timeLayout),
			ctx.Position, ctx.OtherPosition)
	default:
		fmt.Fprintf(w, "  - %s\n", issue.Description)
	}

	if f.opts.Verbose && issue.Type == analyzer.IssueTypeGapExceeded {
		fmt.Fprintf(w, "    Entries: %d -> %d\n", ctx.Position, ctx.OtherPosition)
	}
}

func stringKeys[K ~string](m map[K]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

// writeCounts prints counts as "name=n" pairs sorted by name. Empty names
// are skipped.
func writeCounts(w io.Writer, label string, counts map[string]int) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		if name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%d", name, counts[name])
	}
	fmt.Fprintf(w, "  %s: %s\n", label, strings.Join(parts, ", "))
}
