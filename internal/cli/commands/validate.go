package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/wherewas/pkg/cache"
	"github.com/ccollicutt/wherewas/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a wherewas configuration file without loading the history.

Checks:
  - YAML syntax
  - A location history source is set (file or environment)
  - Timezone, max gap and logging settings
  - Webhook URLs and triggers
  - Location history existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(commandContext(cmd), configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	cacheDir := "disabled"
	if cfg.Cache.Enabled {
		cacheDir = valueOr(cfg.Cache.Dir, cache.DefaultDir(cfg.Source))
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Source:    %s\n", cfg.Source)
	fmt.Fprintf(w, "  Cache:     %s\n", cacheDir)
	fmt.Fprintf(w, "  Naive:     %s\n", naiveZone(cfg))
	fmt.Fprintf(w, "  Max gap:   %s\n", cfg.Coverage.MaxGap)
	fmt.Fprintf(w, "  Logging:   %s (%s)\n", cfg.Logging.Level, cfg.Logging.Format)
	fmt.Fprintf(w, "  Webhooks:  %d\n", len(cfg.Webhooks))

	for i, wh := range cfg.Webhooks {
		fmt.Fprintf(w, "  %d. [%s] %s\n", i+1, wh.Trigger, webhookName(wh))
	}

	if _, err := os.Stat(cfg.Source); err != nil {
		fmt.Fprintf(w, "\nWarning: location history not readable: %v\n", err)
	}

	return nil
}
