package output

import (
	"context"
	"encoding/json"
	"io"
)

// JSONFormatter formats reports as JSON.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// quietReport is the quiet-mode document: the counts plus which history was
// read and which queries missed, without per-query locations.
type quietReport struct {
	Summary
	Source     string
	SourceHash string
	FromCache  bool
	Missed     []string `json:",omitempty"`
}

// Format renders the report as JSON.
func (f *JSONFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if f.opts.Quiet {
		return encoder.Encode(newQuietReport(report))
	}

	return encoder.Encode(report)
}

func newQuietReport(report *Report) quietReport {
	q := quietReport{
		Summary:    report.Summary,
		Source:     report.Metadata.Source,
		SourceHash: report.Metadata.SourceHash,
		FromCache:  report.Metadata.FromCache,
	}
	for _, r := range report.Queries {
		if !r.Found {
			q.Missed = append(q.Missed, r.Query)
		}
	}
	return q
}
