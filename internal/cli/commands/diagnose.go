package commands

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/wherewas/pkg/cache"
	"github.com/ccollicutt/wherewas/pkg/config"
	"github.com/ccollicutt/wherewas/pkg/timeline"
)

// Diagnostic statuses.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
)

// minIndexedRatio is the share of location records below which extraction
// is reported as a warning.
const minIndexedRatio = 0.5

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand(global *GlobalOptions) *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Diagnose common setup issues",
		Long: `Diagnose common setup issues.

This command checks:
- Config file syntax and structure
- Location history existence and format
- How many records yield an interval
- Cache state
- Webhook configuration (and reachability with --verbose)

Example:
  wherewas diagnose --source Timeline.json
  wherewas diagnose -c wherewas.yaml -v  # verbose output`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(cmd, global, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(cmd *cobra.Command, global *GlobalOptions, opts *DiagnoseOptions) error {
	w := cmd.OutOrStdout()
	results := []DiagnosticResult{}

	finish := func() error {
		if printDiagnostics(w, results, opts) > 0 {
			ExitCode = 1
		}
		return nil
	}

	if global.ConfigFile != "" {
		result := checkConfigExists(global.ConfigFile)
		results = append(results, result)
		if result.Status == StatusError {
			return finish()
		}
	}

	cfg, result := checkConfigResolves(cmd, global)
	results = append(results, result)
	if result.Status == StatusError {
		return finish()
	}

	result = checkSourceExists(cfg.Source)
	results = append(results, result)
	if result.Status == StatusError {
		return finish()
	}

	store, result := checkSourceIndexes(cmd, cfg, opts)
	results = append(results, result)
	if store != nil {
		results = append(results, checkExtraction(store.Stats(), opts))
	}

	results = append(results, checkCache(cfg))
	results = append(results, checkWebhooks(cfg, opts)...)

	return finish()
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Omit --config to run on defaults and environment variables",
		}
		return result
	}
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = StatusError
		result.Message = "Path is a directory, not a file"
		return result
	}

	result.Status = StatusOK
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigResolves(cmd *cobra.Command, global *GlobalOptions) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Configuration",
	}

	cfg, err := global.ResolveConfig(commandContext(cmd))
	if err != nil {
		result.Status = StatusError
		result.Message = err.Error()
		switch {
		case strings.Contains(err.Error(), "yaml"):
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		case strings.Contains(err.Error(), "history file is required"):
			result.Suggests = []string{
				fmt.Sprintf("Pass --source, set %s or %s, or add source: to the config file",
					config.EnvSource, config.EnvHistory),
			}
		}
		return nil, result
	}

	result.Status = StatusOK
	result.Message = "Configuration resolved"
	result.Details = []string{
		fmt.Sprintf("Source: %s", cfg.Source),
		fmt.Sprintf("Naive timestamps: %s", naiveZone(cfg)),
		fmt.Sprintf("Max gap: %s", cfg.Coverage.MaxGap),
		fmt.Sprintf("Webhooks: %d", len(cfg.Webhooks)),
	}
	return cfg, result
}

func naiveZone(cfg *config.Config) string {
	if cfg.Timestamps.AssumeUTCForNaive {
		return "UTC"
	}
	return cfg.Timestamps.Location().String()
}

func checkSourceExists(source string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Location History",
	}

	info, err := os.Stat(source)
	switch {
	case os.IsNotExist(err):
		result.Status = StatusError
		result.Message = fmt.Sprintf("File not found: %s", source)
		result.Suggests = []string{
			"Export your timeline (Timeline.json or location-history.json) and point --source at it",
		}
	case err != nil:
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot access file: %v", err)
		result.Suggests = []string{"Check file permissions"}
	case info.IsDir():
		result.Status = StatusError
		result.Message = "Path is a directory, not a file"
	case info.Size() == 0:
		result.Status = StatusError
		result.Message = "File is empty"
	default:
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Found: %s (%d bytes)", source, info.Size())
	}
	return result
}

// checkSourceIndexes parses the source without touching the cache so the
// check reflects the file as it is now.
func checkSourceIndexes(cmd *cobra.Command, cfg *config.Config, opts *DiagnoseOptions) (*timeline.Store, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "History Format",
	}

	started := time.Now()
	s, err := openStore(cmd, cfg, timeline.WithoutCache())
	if err != nil {
		result.Status = StatusError
		result.Message = err.Error()
		if errors.Is(err, timeline.ErrInvalidSource) {
			result.Suggests = []string{
				"The file must hold a JSON array of records or an object with a semanticSegments array",
			}
		}
		return nil, result
	}

	stats := s.store.Stats()
	result.Status = StatusOK
	result.Message = fmt.Sprintf("%d records parsed in %s", stats.Records, time.Since(started).Round(time.Millisecond))
	if span, ok := s.store.Index().Span(); ok {
		result.Details = append(result.Details, fmt.Sprintf("Span: %s", span))
	}
	if opts.Verbose {
		result.Details = append(result.Details, countDetails("Kind", stringCounts(stats.Kinds))...)
	}
	return s.store, result
}

func checkExtraction(stats timeline.BuildStats, opts *DiagnoseOptions) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Interval Extraction",
	}

	candidates := stats.Indexed + stats.SkippedNoInterval
	result.Message = fmt.Sprintf("%d of %d location records indexed", stats.Indexed, candidates)
	result.Details = []string{
		fmt.Sprintf("Records without a visit, activity or path payload: %d", stats.SkippedUntyped),
		fmt.Sprintf("Records without a recoverable interval: %d", stats.SkippedNoInterval),
	}
	if stats.Swapped > 0 {
		result.Details = append(result.Details, fmt.Sprintf("Start after end, swapped: %d", stats.Swapped))
	}
	if opts.Verbose {
		result.Details = append(result.Details, countDetails("Layer", stringCounts(stats.Layers))...)
		result.Details = append(result.Details, countDetails("Format", stats.Formats)...)
	}

	switch {
	case candidates == 0:
		result.Status = StatusWarning
		result.Message = "No location records found"
		result.Suggests = []string{"Queries will always answer not found"}
	case stats.Indexed == 0:
		result.Status = StatusError
		result.Suggests = []string{"Check that records carry startTime and endTime values"}
	case float64(stats.Indexed)/float64(candidates) < minIndexedRatio:
		result.Status = StatusWarning
		result.Suggests = []string{"Run 'wherewas inspect -v' to see how timestamps were recovered"}
	default:
		result.Status = StatusOK
	}
	return result
}

func checkCache(cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Cache",
	}

	if !cfg.Cache.Enabled {
		result.Status = StatusOK
		result.Message = "Disabled; every run parses the history"
		return result
	}

	hash, _ := cache.HashFile(cfg.Source)
	st := CacheStatus{Status: cacheManager(cfg).Status(hash), Source: cfg.Source, SourceHash: hash, Enabled: true}
	result.Details = []string{fmt.Sprintf("Directory: %s", st.Dir)}

	switch st.State() {
	case "valid":
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Valid, %d entries", st.Entries)
	case "missing":
		result.Status = StatusOK
		result.Message = "Not built yet; written on the next query"
	default:
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cache is %s and will be rebuilt on the next query", st.State())
		result.Suggests = []string{"Run 'wherewas cache clear' if the directory is not writable"}
	}
	return result
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) int {
	fmt.Fprintln(w, "=== wherewas diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case StatusOK:
			icon = "PASS"
			okCount++
		case StatusWarning:
			icon = "WARN"
			warnCount++
		case StatusError:
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != StatusOK {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before running queries.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nSetup is usable but has warnings.")
	} else {
		fmt.Fprintln(w, "\nSetup looks good!")
	}
	return errCount
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  StatusOK,
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := webhookName(wh)
		result := DiagnosticResult{
			Check: fmt.Sprintf("Webhook: %s", name),
		}

		issues := []string{}
		warnings := []string{}

		if u, err := url.Parse(wh.URL); err != nil || u.Host == "" {
			issues = append(issues, fmt.Sprintf("Invalid URL %q", wh.URL))
		}

		if wh.Trigger == config.WebhookTriggerNever {
			warnings = append(warnings, "Trigger is never; this webhook will not fire")
		}

		if len(issues) > 0 {
			result.Status = StatusError
			result.Message = fmt.Sprintf("%d configuration issue(s)", len(issues))
			result.Details = issues
		} else if len(warnings) > 0 {
			result.Status = StatusWarning
			result.Message = fmt.Sprintf("%d warning(s)", len(warnings))
			result.Details = warnings
		} else {
			result.Status = StatusOK
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
			if opts.Verbose {
				result.Details = []string{
					fmt.Sprintf("URL: %s", wh.URL),
					fmt.Sprintf("Timeout: %s", wh.Timeout),
				}
				if wh.Token != "" {
					result.Details = append(result.Details, "Token: configured")
				}
			}
		}

		results = append(results, result)
	}

	if opts.Verbose {
		for _, wh := range cfg.Webhooks {
			result := checkWebhookConnectivity(wh)
			result.Check = fmt.Sprintf("Webhook Connectivity: %s", webhookName(wh))
			results = append(results, result)
		}
	}

	return results
}

func webhookName(wh config.WebhookConfig) string {
	if wh.Name != "" {
		return wh.Name
	}
	return wh.URL
}

func checkWebhookConnectivity(wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	req := resty.New().SetTimeout(5 * time.Second).R()
	if wh.Token != "" {
		req.SetAuthToken(wh.Token)
	}

	resp, err := req.Head(wh.URL)
	if err != nil {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}

	if resp.StatusCode() >= 200 && resp.StatusCode() < 400 {
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode())
	} else {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode())
		result.Suggests = []string{
			"The endpoint may require POST method (will work during actual webhook send)",
			"Check authentication if using a token",
		}
	}

	return result
}

func stringCounts[K ~string](m map[K]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

func countDetails(label string, counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	details := make([]string, 0, len(keys))
	for _, k := range keys {
		details = append(details, fmt.Sprintf("%s %s: %d", label, k, counts[k]))
	}
	return details
}
