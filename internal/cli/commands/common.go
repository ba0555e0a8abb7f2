package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/wherewas/pkg/config"
	"github.com/ccollicutt/wherewas/pkg/output"
	"github.com/ccollicutt/wherewas/pkg/timeline"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// DefaultEnvFile is loaded before configuration is resolved.
const DefaultEnvFile = ".env"

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigFile string
	Source     string
	LogLevel   string
	NoCache    bool
	EnvFile    string
}

// AddFlags registers the persistent flags on cmd.
func (g *GlobalOptions) AddFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&g.ConfigFile, "config", "c", "", "Configuration file (YAML)")
	flags.StringVarP(&g.Source, "source", "s", "", "Location history export (overrides config and "+config.EnvSource+")")
	flags.StringVar(&g.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	flags.BoolVar(&g.NoCache, "no-cache", false, "Do not read or write the index cache")
	flags.StringVar(&g.EnvFile, "env-file", DefaultEnvFile, "Environment file loaded at startup if present")
}

// LoadEnv loads the environment file. A missing file is not an error and
// variables already set in the process win.
func (g *GlobalOptions) LoadEnv() error {
	if g.EnvFile == "" {
		return nil
	}
	if err := godotenv.Load(g.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", g.EnvFile, err)
	}
	return nil
}

// ResolveConfig combines the config file, the environment and the flags.
func (g *GlobalOptions) ResolveConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Resolve(ctx, g.ConfigFile, func(c *config.Config) {
		if g.Source != "" {
			c.Source = g.Source
		}
		if g.LogLevel != "" {
			c.Logging.Level = config.LogLevel(g.LogLevel)
		}
		if g.NoCache {
			c.Cache.Enabled = false
		}
	})
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// session is what a command needs after startup: the resolved config, a
// logger and the opened store.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *timeline.Store
}

// openSession resolves configuration and opens the store.
func (g *GlobalOptions) openSession(cmd *cobra.Command, extra ...timeline.Option) (*session, error) {
	cfg, err := g.ResolveConfig(commandContext(cmd))
	if err != nil {
		return nil, err
	}
	return openStore(cmd, cfg, extra...)
}

// openStore opens the timeline for cfg. Extra options are applied after
// the ones derived from cfg.
func openStore(cmd *cobra.Command, cfg *config.Config, extra ...timeline.Option) (*session, error) {
	logger := cfg.Logging.NewLogger(cmd.ErrOrStderr())

	opts := []timeline.Option{
		timeline.WithLogger(logger),
		timeline.WithNormalizer(cfg.Normalizer()),
	}
	if !cfg.Cache.Enabled {
		opts = append(opts, timeline.WithoutCache())
	} else if cfg.Cache.Dir != "" {
		opts = append(opts, timeline.WithCacheDir(cfg.Cache.Dir))
	}
	opts = append(opts, extra...)

	store, err := timeline.Open(commandContext(cmd), cfg.Source, opts...)
	if err != nil {
		return nil, fmt.Errorf("opening timeline: %w", err)
	}

	return &session{cfg: cfg, logger: logger, store: store}, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// ReportOptions holds the output flags shared by report-producing commands.
type ReportOptions struct {
	Output  string
	Verbose bool
	Quiet   bool
}

func (o *ReportOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVarP(&o.Verbose, "verbose", "v", false, "Show extra detail")
	cmd.Flags().BoolVarP(&o.Quiet, "quiet", "q", false, "Summary only, no details")
}

func (o *ReportOptions) formatter() (output.Formatter, error) {
	return output.NewFormatter(o.Output, output.FormatOptions{
		Verbose: o.Verbose,
		Quiet:   o.Quiet,
	})
}

// writeReport renders report to the command's output.
func (o *ReportOptions) writeReport(cmd *cobra.Command, report *output.Report) error {
	formatter, err := o.formatter()
	if err != nil {
		return err
	}
	if err := formatter.Format(commandContext(cmd), report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	return nil
}
