package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/wherewas/pkg/cache"
	"github.com/ccollicutt/wherewas/pkg/config"
)

// CacheStatus is the output of cache status.
type CacheStatus struct {
	cache.Status
	Source     string
	SourceHash string
	Enabled    bool
}

// State summarizes the status in one word.
func (s CacheStatus) State() string {
	switch {
	case s.Valid:
		return "valid"
	case s.Complete:
		return "stale"
	case s.Bytes > 0:
		return "incomplete"
	default:
		return "missing"
	}
}

// NewCacheCommand creates the cache command and its subcommands.
func NewCacheCommand(global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the index cache",
		Long: `The index cache lives in ` + cache.DirName + ` next to the location history
unless cache.dir is configured. It is rebuilt automatically when the
history file changes.`,
	}

	cmd.AddCommand(newCacheStatusCommand(global))
	cmd.AddCommand(newCacheClearCommand(global))
	return cmd
}

func newCacheStatusCommand(global *GlobalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the cache matches the location history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.ResolveConfig(commandContext(cmd))
			if err != nil {
				return err
			}

			st := CacheStatus{
				Source:  cfg.Source,
				Enabled: cfg.Cache.Enabled,
			}
			if hash, err := cache.HashFile(cfg.Source); err == nil {
				st.SourceHash = hash
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: cannot read source: %v\n", err)
			}
			st.Status = cacheManager(cfg).Status(st.SourceHash)

			switch format {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			case "text", "":
				printCacheStatus(cmd.OutOrStdout(), st)
				return nil
			default:
				return fmt.Errorf("unknown output format %q (use text or json)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "text", "Output format (text|json)")
	return cmd
}

func newCacheClearCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.ResolveConfig(commandContext(cmd))
			if err != nil {
				return err
			}

			m := cacheManager(cfg)
			if err := m.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", m.Dir())
			return nil
		},
	}
}

func cacheManager(cfg *config.Config) *cache.Manager {
	dir := cfg.Cache.Dir
	if dir == "" {
		dir = cache.DefaultDir(cfg.Source)
	}
	return cache.NewManager(dir)
}

func printCacheStatus(w io.Writer, st CacheStatus) {
	fmt.Fprintf(w, "Cache: %s\n", st.Dir)
	fmt.Fprintf(w, "  State:       %s\n", st.State())
	if !st.Enabled {
		fmt.Fprintln(w, "  Enabled:     no (cache.enabled is false)")
	}
	fmt.Fprintf(w, "  Source:      %s\n", st.Source)
	fmt.Fprintf(w, "  Source hash: %s\n", valueOr(st.SourceHash, "(unreadable)"))
	fmt.Fprintf(w, "  Stored hash: %s\n", valueOr(st.StoredHash, "(none)"))
	fmt.Fprintf(w, "  Entries:     %d\n", st.Entries)
	fmt.Fprintf(w, "  Size:        %d bytes\n", st.Bytes)
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
