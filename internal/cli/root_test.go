package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/ccollicutt/wherewas/internal/cli/plugins"
	"github.com/ccollicutt/wherewas/pkg/config"
)

const history = `{"semanticSegments": [
  {
    "startTime": "2021-01-15T07:30:00.000-08:00",
    "endTime": "2021-01-15T08:30:00.000-08:00",
    "visit": {"topCandidate": {"placeLocation": {"latLng": "37.7749°, -122.4194°"}}}
  },
  {
    "startTime": "2021-01-15T09:30:00.000-08:00",
    "endTime": "2021-01-15T10:30:00.000-08:00",
    "activity": {"start": {"latLng": "37.7849°, -122.4294°"}, "end": {"latLng": "37.7949°, -122.4394°"}}
  }
]}`

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{config.EnvSource, config.EnvHistory, config.EnvLogLevel, config.EnvCacheDir, plugins.EnvPluginDir} {
		t.Setenv(name, "")
	}
}

func writeHistory(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Timeline.json")
	if err := os.WriteFile(path, []byte(history), 0644); err != nil {
		t.Fatalf("failed to write history: %v", err)
	}
	return path
}

func run(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = Run(context.Background(), args, plugins.Streams{
		In:  strings.NewReader(""),
		Out: &out,
		Err: &errOut,
	})
	return code, out.String(), errOut.String()
}

func TestRun_ExitCodes(t *testing.T) {
	clearEnv(t)
	source := writeHistory(t)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{"found", []string{"query", "2021-01-15T15:45"}, 0, "37.774900,-122.419400"},
		{"activity start", []string{"query", "2021-01-15T17:45"}, 0, "37.784900,-122.429400"},
		{"not found", []string{"query", "2021-01-15T17:00"}, 1, "Location not found"},
		{"at", []string{"at", "--year", "2021", "--month", "1", "--day", "15", "--hour", "15", "--minute", "30"}, 0, `"latitude":37.7749`},
		{"invalid time", []string{"query", "later"}, 2, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--source", source, "--no-cache", "--log-level", "error"}, tt.args...)
			code, out, stderr := run(args...)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, stderr)
			}
			if !strings.Contains(out, tt.wantOut) {
				t.Errorf("output missing %q:\n%s", tt.wantOut, out)
			}
			if tt.wantCode == 2 && !strings.HasPrefix(stderr, "Error: ") {
				t.Errorf("stderr = %q, want Error: prefix", stderr)
			}
		})
	}
}

func TestRun_CacheReuse(t *testing.T) {
	clearEnv(t)
	source := writeHistory(t)

	code, _, stderr := run("--source", source, "query", "-q", "2021-01-15T15:45")
	if code != 0 {
		t.Fatalf("first run exit code = %d (stderr: %s)", code, stderr)
	}
	if !strings.Contains(stderr, "saved timeline cache") {
		t.Errorf("first run should save the cache:\n%s", stderr)
	}

	code, out, stderr := run("--source", source, "query", "2021-01-15T15:45")
	if code != 0 {
		t.Fatalf("second run exit code = %d (stderr: %s)", code, stderr)
	}
	if !strings.Contains(stderr, "loaded timeline data from cache") {
		t.Errorf("second run should hit the cache:\n%s", stderr)
	}
	if !strings.Contains(out, "(cached index)") {
		t.Errorf("report should mention the cached index:\n%s", out)
	}
}

func TestRun_SourceFromEnvFile(t *testing.T) {
	clearEnv(t)
	source := writeHistory(t)
	os.Unsetenv(config.EnvHistory)

	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte(config.EnvHistory+"="+source+"\n"), 0644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	code, out, stderr := run("--env-file", envFile, "--no-cache", "query", "-q", "2021-01-15T15:45")
	if code != 0 {
		t.Fatalf("exit code = %d (stderr: %s)", code, stderr)
	}
	if !strings.Contains(out, "1 found") {
		t.Errorf("output = %q", out)
	}
}

func TestRun_NoSource(t *testing.T) {
	clearEnv(t)

	code, _, stderr := run("--env-file", "", "query", "2021-01-15T15:45")
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr, config.EnvSource) {
		t.Errorf("stderr should name %s: %s", config.EnvSource, stderr)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	clearEnv(t)
	t.Setenv(plugins.EnvPluginDir, t.TempDir())

	code, _, stderr := run("no-such-command-xyz")
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr, "wherewas-no-such-command-xyz") {
		t.Errorf("stderr should explain plugin install:\n%s", stderr)
	}
}

func TestRun_Plugin(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script plugins need a POSIX shell")
	}
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv(plugins.EnvPluginDir, dir)

	script := "#!/bin/sh\necho \"hello $1\"\nexit 4\n"
	if err := os.WriteFile(filepath.Join(dir, plugins.Prefix+"hello"), []byte(script), 0755); err != nil {
		t.Fatalf("failed to write plugin: %v", err)
	}

	code, out, _ := run("hello", "world")
	if code != 4 {
		t.Errorf("exit code = %d, want plugin's 4", code)
	}
	if out != "hello world\n" {
		t.Errorf("output = %q", out)
	}
}

func TestNewRootCommand_Commands(t *testing.T) {
	root := NewRootCommand()

	for _, name := range []string{"query", "at", "inspect", "gaps", "cache", "tool", "diagnose", "validate", "version"} {
		if !isBuiltinCommand(root, name) {
			t.Errorf("missing command %q", name)
		}
	}
	for _, flag := range []string{"config", "source", "log-level", "no-cache", "env-file"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
}
