package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/wherewas/pkg/output"
	"github.com/ccollicutt/wherewas/pkg/timestamp"
)

// QueryOptions holds command-line options for the query command.
type QueryOptions struct {
	ReportOptions
	Webhooks WebhookOptions
}

// NewQueryCommand creates the query command.
func NewQueryCommand(global *GlobalOptions) *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query <time>...",
		Short: "Show where you were at the given times",
		Long: `Resolve each time against the location history and print the location
recorded for it. Times are read like record timestamps, for example
2021-01-15T15:45, 2021-01-15 15:45:00 or 2021-01-15T07:45:00-08:00.
Times without a zone follow the timestamps settings in the configuration.

A time is only answered when a record's interval covers it. Use --verbose
to see the nearest record for times that are not covered.

Exit codes:
  0 - Every time was found
  1 - At least one time was not found
  2 - Configuration or runtime error`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, global, opts)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().BoolVar(&opts.Verbose, "explain", false, "Alias for --verbose")
	opts.Webhooks.addFlags(cmd)

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, global *GlobalOptions, opts *QueryOptions) error {
	started := time.Now()
	ctx := commandContext(cmd)

	cfg, err := global.ResolveConfig(ctx)
	if err != nil {
		return err
	}

	// Reject bad input before paying for the index.
	times, err := parseQueryTimes(args, cfg.Normalizer())
	if err != nil {
		return err
	}

	s, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}

	report := output.NewReport(s.store, global.ConfigFile)
	for i, t := range times {
		qr := output.Resolve(s.store, args[i], t)
		s.logger.Debug("resolved query", "query", args[i], "time", qr.Time, "found", qr.Found)
		report.AddQuery(qr)
	}
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

// parseQueryTimes parses each argument and normalizes it to UTC.
func parseQueryTimes(args []string, norm timestamp.Normalizer) ([]time.Time, error) {
	times := make([]time.Time, 0, len(args))
	for _, arg := range args {
		in, ok := timestamp.Parse(arg)
		if !ok {
			return nil, fmt.Errorf("invalid time %q (try YYYY-MM-DDTHH:MM)", arg)
		}
		times = append(times, norm.ToUTCNaive(in))
	}
	return times, nil
}
