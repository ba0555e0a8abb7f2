package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/wherewas/pkg/analyzer"
	"github.com/ccollicutt/wherewas/pkg/output"
	"github.com/ccollicutt/wherewas/pkg/timestamp"
)

// GapsOptions holds command-line options for the gaps command.
type GapsOptions struct {
	ReportOptions
	MaxGap   time.Duration
	AllGaps  bool
	Since    string
	Until    string
	Webhooks WebhookOptions
}

// NewGapsCommand creates the gaps command.
func NewGapsCommand(global *GlobalOptions) *cobra.Command {
	opts := &GapsOptions{}

	cmd := &cobra.Command{
		Use:   "gaps",
		Short: "Find stretches of time the location history does not cover",
		Long: `Analyze the coverage of the location history.

Reports:
  - Gaps: uncovered stretches longer than the maximum gap
  - Overlaps: every pair of records whose intervals overlap, naming the
    earlier record in the file as taking precedence

Exit codes:
  0 - No coverage issues
  1 - Coverage issues found
  2 - Configuration or runtime error`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGaps(cmd, global, opts)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().DurationVar(&opts.MaxGap, "max-gap", 0, "Largest uncovered stretch not reported (default from config, 6h)")
	cmd.Flags().BoolVar(&opts.AllGaps, "all-gaps", false, "Report every uncovered stretch, however short")
	cmd.MarkFlagsMutuallyExclusive("max-gap", "all-gaps")
	cmd.Flags().StringVar(&opts.Since, "since", "", "Only analyze records ending at or after this time")
	cmd.Flags().StringVar(&opts.Until, "until", "", "Only analyze records starting at or before this time")
	opts.Webhooks.addFlags(cmd)

	return cmd
}

func runGaps(cmd *cobra.Command, global *GlobalOptions, opts *GapsOptions) error {
	started := time.Now()
	ctx := commandContext(cmd)

	cfg, err := global.ResolveConfig(ctx)
	if err != nil {
		return err
	}

	analyzerOpts, err := gapsAnalyzerOptions(opts, cfg.Normalizer())
	if err != nil {
		return err
	}
	a, err := analyzer.NewAnalyzer(cfg, analyzerOpts...)
	if err != nil {
		return fmt.Errorf("creating analyzer: %w", err)
	}

	s, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}

	result, err := a.Analyze(ctx, s.store.Index())
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	s.logger.Debug("coverage analyzed",
		"entries", result.Stats.EntriesAnalyzed, "issues", len(result.Issues), "max_gap", result.MaxGap)

	report := output.NewReport(s.store, global.ConfigFile)
	report.SetCoverage(result)
	report.Finish(started)

	if err := opts.writeReport(cmd, report); err != nil {
		return err
	}

	sendWebhooks(ctx, cmd.ErrOrStderr(), s.logger, s.cfg, &opts.Webhooks, report)

	if report.HasIssues() {
		ExitCode = 1
	}
	return nil
}

func gapsAnalyzerOptions(opts *GapsOptions, norm timestamp.Normalizer) ([]analyzer.AnalyzerOption, error) {
	var out []analyzer.AnalyzerOption
	if opts.MaxGap < 0 {
		return nil, fmt.Errorf("invalid max-gap %s: must not be negative", opts.MaxGap)
	}
	switch {
	case opts.AllGaps:
		out = append(out, analyzer.WithAllGaps())
	case opts.MaxGap > 0:
		out = append(out, analyzer.WithMaxGap(opts.MaxGap))
	}

	if opts.Since == "" && opts.Until == "" {
		return out, nil
	}

	var start, end time.Time
	if opts.Since != "" {
		in, ok := timestamp.Parse(opts.Since)
		if !ok {
			return nil, fmt.Errorf("invalid since %q", opts.Since)
		}
		start = norm.ToUTCNaive(in)
	}
	if opts.Until != "" {
		in, ok := timestamp.Parse(opts.Until)
		if !ok {
			return nil, fmt.Errorf("invalid until %q", opts.Until)
		}
		end = norm.ToUTCNaive(in)
	}
	return append(out, analyzer.WithTimeRange(start, end)), nil
}
