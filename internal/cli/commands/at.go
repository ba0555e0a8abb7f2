package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// AtOptions holds the five integer fields of a location request.
type AtOptions struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
}

// NewAtCommand creates the at command.
func NewAtCommand(global *GlobalOptions) *cobra.Command {
	opts := &AtOptions{}

	cmd := &cobra.Command{
		Use:   "at",
		Short: "Look up a location from year, month, day, hour and minute",
		Long: `Look up the location for a UTC minute given as five integers and print
it as JSON, for example {"latitude":37.7749,"longitude":-122.4194}.
Both fields are null when no record covers the time.

Exit codes:
  0 - Location found
  1 - No location recorded for that time
  2 - Invalid arguments, configuration or runtime error`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAt(cmd, global, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Year, "year", 0, "Year")
	cmd.Flags().IntVar(&opts.Month, "month", 0, "Month (1-12)")
	cmd.Flags().IntVar(&opts.Day, "day", 0, "Day of month (1-31)")
	cmd.Flags().IntVar(&opts.Hour, "hour", 0, "Hour (0-23)")
	cmd.Flags().IntVar(&opts.Minute, "minute", 0, "Minute (0-59)")
	for _, name := range []string{"year", "month", "day", "hour", "minute"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runAt(cmd *cobra.Command, global *GlobalOptions, opts *AtOptions) error {
	args, err := json.Marshal(map[string]int{
		"year":   opts.Year,
		"month":  opts.Month,
		"day":    opts.Day,
		"hour":   opts.Hour,
		"minute": opts.Minute,
	})
	if err != nil {
		return fmt.Errorf("encoding arguments: %w", err)
	}

	s, err := global.openSession(cmd)
	if err != nil {
		return err
	}
	return callTool(cmd, s, args)
}
