package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
)

// DirName is the per-user configuration directory below os.UserConfigDir.
const DirName = "updatesnap"

// Config is the tool configuration loaded from updatesnap.yaml.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Retry   RetryConfig   `yaml:"retry"`
	History HistoryConfig `yaml:"history"`
	Notify  NotifyConfig  `yaml:"notify"`
	Watch   WatchConfig   `yaml:"watch"`
	Metrics MetricsConfig `yaml:"metrics"`

	// Secrets is loaded separately from updatesnap.secrets and the environment.
	Secrets Secrets `yaml:"-"`
}

// HistoryConfig configures the SQLite store of seen update candidates.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// NotifyConfig configures publishing of new candidates to NATS.
type NotifyConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Stream  string `yaml:"stream"`
}

// Enabled reports whether a NATS server was configured.
func (n NotifyConfig) Enabled() bool { return n.URL != "" }

// WatchConfig configures the long-running watch mode.
type WatchConfig struct {
	Interval time.Duration `yaml:"interval"`
	Debounce time.Duration `yaml:"debounce"`
	Addr     string        `yaml:"addr"`
}

// MetricsConfig configures metrics export for one-shot runs.
type MetricsConfig struct {
	// Textfile, when set, receives the registry in Prometheus text format
	// after each run (node_exporter textfile collector).
	Textfile string `yaml:"textfile"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))

	if mode := NormalizeRetryBackoff(string(c.Retry.Backoff)); mode != "" {
		c.Retry.Backoff = mode
	} else {
		c.Retry.Backoff = RetryBackoffLinear
	}
	if c.Retry.Initial <= 0 {
		c.Retry.Initial = time.Second
	}
	if c.Retry.Max <= 0 {
		c.Retry.Max = 30 * time.Second
	}
	if c.Retry.MaxRetries < 0 {
		c.Retry.MaxRetries = 0
	}

	if c.Notify.Subject == "" {
		c.Notify.Subject = "updatesnap.candidates"
	}
	if c.Watch.Interval <= 0 {
		c.Watch.Interval = 6 * time.Hour
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = 2 * time.Second
	}
	if c.Watch.Addr == "" {
		c.Watch.Addr = "127.0.0.1:9417"
	}
}

// Validate reports configuration values that cannot be applied.
func (c *Config) Validate() error {
	if c.Retry.Initial > c.Retry.Max {
		return ferrors.ConfigError("retry.initial must not exceed retry.max").
			WithContext("initial", c.Retry.Initial.String()).
			WithContext("max", c.Retry.Max.String()).
			Build()
	}
	if c.Notify.Stream != "" && !c.Notify.Enabled() {
		return ferrors.ConfigError("notify.stream requires notify.url").Build()
	}
	return nil
}

// DefaultPath returns ~/.config/updatesnap/updatesnap.yaml (or the platform equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, DirName, "updatesnap.yaml")
}

// Load reads the configuration at path. A missing file at the default
// location is not an error; an explicitly requested missing file is.
// Env files are loaded from the working directory and secrets are resolved
// from the user config directory, then from secretsDir.
func Load(path, secretsDir string) (*Config, error) {
	loadEnvFiles("")

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
				return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse configuration").
					Fatal().
					WithContext("path", path).
					Build()
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read configuration").
				Fatal().
				WithContext("path", path).
				Build()
		}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	secrets, err := LoadSecrets(secretsSearchPath(secretsDir)...)
	if err != nil {
		return nil, err
	}
	cfg.Secrets = *secrets
	return cfg, nil
}

func secretsSearchPath(extraDir string) []string {
	var paths []string
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, DirName, SecretsFile))
	}
	if extraDir != "" {
		paths = append(paths, filepath.Join(extraDir, SecretsFile))
	}
	return paths
}

// String renders the non-secret configuration for debug logs.
func (c *Config) String() string {
	return fmt.Sprintf("log=%s/%s retry=%s(%s..%s,x%d) history=%q notify=%q watch=%s@%s",
		c.Logging.Level, c.Logging.Format,
		c.Retry.Backoff, c.Retry.Initial, c.Retry.Max, c.Retry.MaxRetries,
		c.History.Path, c.Notify.URL, c.Watch.Interval, c.Watch.Addr)
}
