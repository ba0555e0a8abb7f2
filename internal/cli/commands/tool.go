package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/wherewas/pkg/tool"
)

// NewToolCommand creates the tool command and its subcommands.
func NewToolCommand(global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool",
		Short: "Call the location lookup the way an agent would",
		Long: `The ` + tool.Name + ` tool answers a location request given as a JSON
object with integer year, month, day, hour and minute fields.

  schema  Print the tool name, description and JSON schema
  call    Execute the tool with a JSON argument object`,
	}

	cmd.AddCommand(newToolSchemaCommand())
	cmd.AddCommand(newToolCallCommand(global))
	return cmd
}

func newToolSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the tool definition as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := tool.NewLocationTool(nil)
			def := map[string]interface{}{
				"name":        t.Name(),
				"description": t.Description(),
				"parameters":  t.Schema(),
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(def)
		},
	}
}

func newToolCallCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "call <arguments-json|->",
		Short: "Execute the tool with a JSON argument object",
		Long: `Execute the tool and print the resulting location JSON. Pass - to read
the arguments from standard input.

Example:
  wherewas tool call '{"year":2021,"month":1,"day":15,"hour":15,"minute":45}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			argsJSON := []byte(args[0])
			if args[0] == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading arguments: %w", err)
				}
				argsJSON = []byte(strings.TrimSpace(string(data)))
			}

			s, err := global.openSession(cmd)
			if err != nil {
				return err
			}
			return callTool(cmd, s, argsJSON)
		},
	}
}

// callTool executes the location tool against the session's store and
// prints the result. A location that was not found sets exit code 1.
func callTool(cmd *cobra.Command, s *session, argsJSON []byte) error {
	t := tool.NewLocationTool(s.store)

	result, meta, err := t.Execute(commandContext(cmd), argsJSON)
	if err != nil {
		return err
	}
	s.logger.Debug("tool executed", "tool", t.Name(), "time", meta["time"], "found", meta["found"])

	fmt.Fprintln(cmd.OutOrStdout(), result)

	if found, _ := meta["found"].(bool); !found {
		ExitCode = 1
	}
	return nil
}
