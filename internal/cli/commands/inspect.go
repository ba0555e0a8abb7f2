package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/wherewas/pkg/output"
	"github.com/ccollicutt/wherewas/pkg/timeline"
)

// DefaultSamples is how many extraction traces inspect shows.
const DefaultSamples = 5

// InspectOptions holds command-line options for the inspect command.
type InspectOptions struct {
	ReportOptions
	Samples  int
	UseCache bool
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(global *GlobalOptions) *cobra.Command {
	opts := &InspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show how the location history was indexed",
		Long: `Parse the location history and report how its records were indexed:
how many were skipped and why, which extraction layer recovered each
timestamp, which timestamp formats were seen and the time span covered.

The source is parsed again even when a valid cache exists, since the cache
does not keep extraction statistics. Use --use-cache to load the cache
instead. With --verbose the raw timestamps of the first entries are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, global, opts)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().IntVar(&opts.Samples, "samples", DefaultSamples, "Number of entries to trace with --verbose")
	cmd.Flags().BoolVar(&opts.UseCache, "use-cache", false, "Load the index from a valid cache instead of parsing")

	return cmd
}

func runInspect(cmd *cobra.Command, global *GlobalOptions, opts *InspectOptions) error {
	started := time.Now()

	var extra []timeline.Option
	if !opts.UseCache {
		extra = append(extra, timeline.WithoutCache())
	}

	s, err := global.openSession(cmd, extra...)
	if err != nil {
		return err
	}

	report := output.NewReport(s.store, global.ConfigFile)
	report.SetIndex(s.store, opts.Samples)
	report.Finish(started)

	return opts.writeReport(cmd, report)
}
