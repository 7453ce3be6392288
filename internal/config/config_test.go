package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Archive.Root != "." || cfg.Archive.Prefix != "sites" {
		t.Fatalf("unexpected archive defaults: %+v", cfg.Archive)
	}
	if cfg.Archive.RegistryFile != "url_patterns.json" || cfg.Archive.MaxSlugLength != 120 {
		t.Fatalf("unexpected registry defaults: %+v", cfg.Archive)
	}
	if got := cfg.FetchTimeout(); got != 30*time.Second {
		t.Fatalf("expected 30s fetch timeout, got %v", got)
	}
	if !cfg.Fetcher.Headless || !cfg.Fetcher.AbsolutizeResources || !cfg.Fetcher.HideWebdriver {
		t.Fatalf("expected browser defaults on: %+v", cfg.Fetcher)
	}
	if cfg.Fetcher.WindowWidth != 1920 || cfg.Fetcher.WindowHeight != 1080 {
		t.Fatalf("unexpected window size: %dx%d", cfg.Fetcher.WindowWidth, cfg.Fetcher.WindowHeight)
	}
	if cfg.Commit.Enabled {
		t.Fatal("commit should be disabled by default")
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
archive:
  root: /srv/archive
  prefix: pages
  registry_file: meta/patterns.json
  max_slug_length: 64
fetcher:
  timeout_seconds: 45
  user_agent: real-agent
  exec_path: /usr/bin/chromium
  headless: false
  settle_delay_ms: 1500
  allow_error_status: true
  absolutize_resources: false
commit:
  enabled: true
  author_name: Archive Bot
  author_email: bot@example.com
  push: true
metrics:
  textfile_path: /var/lib/node_exporter/archiver.prom
logging:
  development: true
  level: debug
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Archive.Root != "/srv/archive" || cfg.Archive.Prefix != "pages" {
		t.Fatalf("expected archive overrides, got %+v", cfg.Archive)
	}
	if cfg.Archive.RegistryFile != "meta/patterns.json" || cfg.Archive.MaxSlugLength != 64 {
		t.Fatalf("expected registry overrides, got %+v", cfg.Archive)
	}
	if cfg.Fetcher.Headless || !cfg.Fetcher.AllowErrorStatus || cfg.Fetcher.AbsolutizeResources {
		t.Fatalf("expected fetcher booleans to apply: %+v", cfg.Fetcher)
	}
	if cfg.Fetcher.UserAgent != "real-agent" || cfg.Fetcher.ExecPath != "/usr/bin/chromium" {
		t.Fatalf("expected fetcher strings to apply: %+v", cfg.Fetcher)
	}
	if got := cfg.FetchTimeout(); got != 45*time.Second {
		t.Fatalf("expected fetch timeout 45s, got %v", got)
	}
	if got := cfg.SettleDelay(); got != 1500*time.Millisecond {
		t.Fatalf("expected settle delay 1.5s, got %v", got)
	}
	if !cfg.Commit.Enabled || !cfg.Commit.Push || cfg.Commit.AuthorName != "Archive Bot" {
		t.Fatalf("expected commit overrides: %+v", cfg.Commit)
	}
	if cfg.Commit.GitBinary != "git" {
		t.Fatalf("expected default git binary, got %q", cfg.Commit.GitBinary)
	}
	if cfg.Metrics.TextfilePath == "" || !cfg.Logging.Development || cfg.Logging.Level != "debug" {
		t.Fatalf("expected metrics/logging overrides: %+v %+v", cfg.Metrics, cfg.Logging)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ARCHIVER_ARCHIVE_ROOT", "/tmp/archive")
	t.Setenv("ARCHIVER_FETCHER_TIMEOUT_SECONDS", "12")
	t.Setenv("ARCHIVER_COMMIT_ENABLED", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Archive.Root != "/tmp/archive" {
		t.Fatalf("expected env root override, got %q", cfg.Archive.Root)
	}
	if got := cfg.FetchTimeout(); got != 12*time.Second {
		t.Fatalf("expected 12s timeout, got %v", got)
	}
	if !cfg.Commit.Enabled {
		t.Fatal("expected commit enabled from env")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Archive: ArchiveConfig{Root: ".", Prefix: "sites", RegistryFile: "url_patterns.json", MaxSlugLength: 120},
		Fetcher: FetcherConfig{TimeoutSeconds: 30},
		Commit:  CommitConfig{GitBinary: "git"},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "missing root",
			cfg: func() Config {
				c := base
				c.Archive.Root = " "
				return c
			}(),
			want: "archive.root",
		},
		{
			name: "absolute prefix",
			cfg: func() Config {
				c := base
				c.Archive.Prefix = "/sites"
				return c
			}(),
			want: "archive.prefix",
		},
		{
			name: "escaping registry file",
			cfg: func() Config {
				c := base
				c.Archive.RegistryFile = "../patterns.json"
				return c
			}(),
			want: "archive.registry_file",
		},
		{
			name: "tiny slug length",
			cfg: func() Config {
				c := base
				c.Archive.MaxSlugLength = 4
				return c
			}(),
			want: "archive.max_slug_length",
		},
		{
			name: "invalid timeout",
			cfg: func() Config {
				c := base
				c.Fetcher.TimeoutSeconds = 0
				return c
			}(),
			want: "fetcher.timeout_seconds",
		},
		{
			name: "negative settle delay",
			cfg: func() Config {
				c := base
				c.Fetcher.SettleDelayMs = -1
				return c
			}(),
			want: "fetcher.settle_delay_ms",
		},
		{
			name: "commit missing git binary",
			cfg: func() Config {
				c := base
				c.Commit.Enabled = true
				c.Commit.GitBinary = ""
				return c
			}(),
			want: "commit.git_binary",
		},
		{
			name: "push without commit",
			cfg: func() Config {
				c := base
				c.Commit.Push = true
				return c
			}(),
			want: "commit.push",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
