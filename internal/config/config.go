// Package config loads and validates archiver configuration via Viper.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. ARCHIVER_ARCHIVE_ROOT.
const EnvPrefix = "ARCHIVER"

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Archive ArchiveConfig `mapstructure:"archive"`
	Fetcher FetcherConfig `mapstructure:"fetcher"`
	Commit  CommitConfig  `mapstructure:"commit"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ArchiveConfig locates the archive working tree and its registry.
type ArchiveConfig struct {
	Root          string `mapstructure:"root"`
	Prefix        string `mapstructure:"prefix"`
	RegistryFile  string `mapstructure:"registry_file"`
	MaxSlugLength int    `mapstructure:"max_slug_length"`
}

// FetcherConfig configures the headless browser session.
type FetcherConfig struct {
	TimeoutSeconds      int    `mapstructure:"timeout_seconds"`
	UserAgent           string `mapstructure:"user_agent"`
	ExecPath            string `mapstructure:"exec_path"`
	Headless            bool   `mapstructure:"headless"`
	NoSandbox           bool   `mapstructure:"no_sandbox"`
	WindowWidth         int    `mapstructure:"window_width"`
	WindowHeight        int    `mapstructure:"window_height"`
	SettleDelayMs       int    `mapstructure:"settle_delay_ms"`
	AllowErrorStatus    bool   `mapstructure:"allow_error_status"`
	AbsolutizeResources bool   `mapstructure:"absolutize_resources"`
	HideWebdriver       bool   `mapstructure:"hide_webdriver"`
}

// CommitConfig controls how changed files are recorded in git.
type CommitConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	GitBinary   string `mapstructure:"git_binary"`
	AuthorName  string `mapstructure:"author_name"`
	AuthorEmail string `mapstructure:"author_email"`
	Push        bool   `mapstructure:"push"`
}

// MetricsConfig selects where run metrics are flushed. Both are optional.
type MetricsConfig struct {
	TextfilePath   string `mapstructure:"textfile_path"`
	PushgatewayURL string `mapstructure:"pushgateway_url"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("archive.root", ".")
	v.SetDefault("archive.prefix", "sites")
	v.SetDefault("archive.registry_file", "url_patterns.json")
	v.SetDefault("archive.max_slug_length", 120)
	v.SetDefault("fetcher.timeout_seconds", 30)
	v.SetDefault("fetcher.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 "+
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("fetcher.exec_path", "")
	v.SetDefault("fetcher.headless", true)
	v.SetDefault("fetcher.no_sandbox", true)
	v.SetDefault("fetcher.window_width", 1920)
	v.SetDefault("fetcher.window_height", 1080)
	v.SetDefault("fetcher.settle_delay_ms", 500)
	v.SetDefault("fetcher.allow_error_status", false)
	v.SetDefault("fetcher.absolutize_resources", true)
	v.SetDefault("fetcher.hide_webdriver", true)
	v.SetDefault("commit.enabled", false)
	v.SetDefault("commit.git_binary", "git")
	v.SetDefault("commit.author_name", "page-archiver")
	v.SetDefault("commit.author_email", "page-archiver@users.noreply.github.com")
	v.SetDefault("commit.push", false)
	v.SetDefault("metrics.textfile_path", "")
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Archive.Root) == "" {
		return fmt.Errorf("archive.root must be set")
	}
	if err := relative("archive.prefix", c.Archive.Prefix); err != nil {
		return err
	}
	if strings.TrimSpace(c.Archive.RegistryFile) == "" {
		return fmt.Errorf("archive.registry_file must be set")
	}
	if err := relative("archive.registry_file", c.Archive.RegistryFile); err != nil {
		return err
	}
	if c.Archive.MaxSlugLength < 16 {
		return fmt.Errorf("archive.max_slug_length must be >= 16")
	}
	if c.Fetcher.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetcher.timeout_seconds must be > 0")
	}
	if c.Fetcher.SettleDelayMs < 0 {
		return fmt.Errorf("fetcher.settle_delay_ms must be >= 0")
	}
	if c.Fetcher.WindowWidth < 0 || c.Fetcher.WindowHeight < 0 {
		return fmt.Errorf("fetcher window size must be >= 0")
	}
	if c.Commit.Enabled && strings.TrimSpace(c.Commit.GitBinary) == "" {
		return fmt.Errorf("commit.git_binary must be set when commit is enabled")
	}
	if c.Commit.Push && !c.Commit.Enabled {
		return fmt.Errorf("commit.push requires commit.enabled")
	}
	return nil
}

// FetchTimeout converts the fetcher timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetcher.TimeoutSeconds) * time.Second
}

// SettleDelay converts the post-idle settle delay into a duration.
func (c Config) SettleDelay() time.Duration {
	return time.Duration(c.Fetcher.SettleDelayMs) * time.Millisecond
}

func relative(name, p string) error {
	if p == "" {
		return nil
	}
	if filepath.IsAbs(p) {
		return fmt.Errorf("%s must be relative to archive.root", name)
	}
	clean := filepath.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%s must stay inside archive.root", name)
	}
	return nil
}
