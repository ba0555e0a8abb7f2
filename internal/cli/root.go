// Package cli provides the command-line interface for wherewas.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/wherewas/internal/cli/commands"
	"github.com/ccollicutt/wherewas/internal/cli/plugins"
)

// Execute runs the root command with the process arguments and returns the
// exit code.
func Execute() int {
	return Run(context.Background(), os.Args[1:], plugins.StdStreams())
}

// Run executes args and returns the exit code: 0 on success, 1 when a
// query or analysis reported missing data and 2 on errors.
func Run(ctx context.Context, args []string, streams plugins.Streams) int {
	commands.ExitCode = 0
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(streams.In)
	rootCmd.SetOut(streams.Out)
	rootCmd.SetErr(streams.Err)

	// Unknown commands may be plugins.
	if name, ok := pluginCandidate(rootCmd, args); ok {
		if pluginPath, err := plugins.FindPlugin(name); err == nil {
			return plugins.Execute(ctx, pluginPath, args[1:], streams)
		}
	}

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if name, ok := pluginCandidate(rootCmd, args); ok {
			_, _ = fmt.Fprintln(streams.Err, plugins.FormatNotFoundError(name))
			return 2
		}
		// SilenceErrors prevents Cobra from printing this.
		_, _ = fmt.Fprintf(streams.Err, "Error: %v\n", err)
		return 2
	}
	return commands.ExitCode
}

// pluginCandidate returns the first argument when it names a command the
// root does not define.
func pluginCandidate(rootCmd *cobra.Command, args []string) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	name := args[0]
	if name == "" || name[0] == '-' || isBuiltinCommand(rootCmd, name) {
		return "", false
	}
	return name, true
}

// isBuiltinCommand checks if a command name is a built-in cobra command.
func isBuiltinCommand(rootCmd *cobra.Command, name string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name || cmd.HasAlias(name) {
			return true
		}
	}
	return name == "help" || name == "completion"
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	global := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "wherewas",
		Short: "Find where you were from your location history",
		Long: `wherewas answers "where was I at this time?" from a location history
export (Timeline.json or location-history.json).

Records are indexed by their start and end times. A time is answered only
when a record's interval covers it; the index is cached next to the
history in .timeline_cache and rebuilt when the file changes.

The history file is taken from --source, the config file, or the
WHEREWAS_SOURCE and LOCATION_HISTORY_PATH environment variables. A .env
file in the working directory is loaded first.

PLUGINS:
  Unknown commands run a wherewas-<command> binary found in
  $WHEREWAS_PLUGIN_DIR, next to wherewas, in ~/.wherewas/plugins/ or in PATH.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return global.LoadEnv()
		},
	}
	global.AddFlags(rootCmd)

	rootCmd.AddCommand(commands.NewQueryCommand(global))
	rootCmd.AddCommand(commands.NewAtCommand(global))
	rootCmd.AddCommand(commands.NewInspectCommand(global))
	rootCmd.AddCommand(commands.NewGapsCommand(global))
	rootCmd.AddCommand(commands.NewCacheCommand(global))
	rootCmd.AddCommand(commands.NewToolCommand(global))
	rootCmd.AddCommand(commands.NewDiagnoseCommand(global))
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
