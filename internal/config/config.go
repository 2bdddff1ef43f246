package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Default locations
	DefaultConfigFile = "/etc/linuxmon/linuxmon.yml"
	EnvFilePath       = "/etc/linuxmon/env"

	// Network settings
	Timeout = 10 * time.Second
)

// Agent info (injected at build time via ldflags)
var (
	Version   = "1.0.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Metric names accepted in the metrics list of the settings document
const (
	MetricLoadAvg     = "load_avg"
	MetricUptime      = "uptime"
	MetricCPU         = "cpu"
	MetricMemory      = "memory"
	MetricSwap        = "swap"
	MetricFilesystems = "filesystems"
)

// KnownMetrics lists every collection operation, in default run order
var KnownMetrics = []string{
	MetricLoadAvg,
	MetricUptime,
	MetricCPU,
	MetricMemory,
	MetricSwap,
	MetricFilesystems,
}

// ErrUnknownMetric is returned when the metrics list names an operation that does not exist
var ErrUnknownMetric = errors.New("unknown metric")

// Config is the parsed settings document
type Config struct {
	Settings Settings `yaml:"settings"`
	Metrics  []string `yaml:"metrics"`

	// Debug is only settable from the environment
	Debug bool `yaml:"-"`
}

// Settings holds the plain parameters consumed by the collectors
type Settings struct {
	ConfigDir          string        `yaml:"config_dir"`
	FSConfigFileName   string        `yaml:"fs_config_file_name"`
	FSConfigBaseURL    string        `yaml:"fs_config_base_url"`
	FSConfigFileMaxAge float64       `yaml:"fs_config_file_max_age"` // seconds
	LogFile            string        `yaml:"log_file"`
	LogLevel           string        `yaml:"log_level"`
	FetchTimeout       time.Duration `yaml:"fetch_timeout"`
	CPUSampleInterval  time.Duration `yaml:"cpu_sample_interval"`
	PushURL            string        `yaml:"push_url"`
	PushToken          string        `yaml:"push_token"`
}

// Default returns a configuration with every optional value filled in
func Default() Config {
	return Config{
		Settings: Settings{
			ConfigDir:          "/etc/linuxmon/",
			FSConfigFileName:   "fs_config.json",
			FSConfigFileMaxAge: 3600,
			LogFile:            "/var/log/linux_monitor.log",
			LogLevel:           "info",
			FetchTimeout:       Timeout,
			CPUSampleInterval:  1 * time.Second,
		},
		Metrics: append([]string(nil), KnownMetrics...),
	}
}

// Load merges: defaults <- yaml <- env, then validates the result
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not open %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("could not parse %s: %w", path, err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the metrics list against the known operations and the
// settings the enabled operations depend on. Duplicate metric names are dropped.
func (c *Config) Validate() error {
	known := make(map[string]bool, len(KnownMetrics))
	for _, m := range KnownMetrics {
		known[m] = true
	}

	seen := make(map[string]bool, len(c.Metrics))
	metrics := make([]string, 0, len(c.Metrics))
	for _, m := range c.Metrics {
		m = strings.TrimSpace(m)
		if !known[m] {
			return fmt.Errorf("%w: %q", ErrUnknownMetric, m)
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		metrics = append(metrics, m)
	}
	c.Metrics = metrics

	s := c.Settings
	if s.FSConfigFileMaxAge < 0 {
		return errors.New("settings.fs_config_file_max_age must not be negative")
	}
	if s.FetchTimeout <= 0 {
		c.Settings.FetchTimeout = Timeout
	}
	if s.CPUSampleInterval <= 0 {
		c.Settings.CPUSampleInterval = time.Second
	}

	if c.Enabled(MetricFilesystems) {
		if s.FSConfigBaseURL == "" {
			return errors.New("settings.fs_config_base_url is required when filesystems are collected")
		}
		if s.FSConfigFileName == "" {
			return errors.New("settings.fs_config_file_name is required when filesystems are collected")
		}
		if s.ConfigDir == "" {
			return errors.New("settings.config_dir is required when filesystems are collected")
		}
	}
	return nil
}

// Enabled reports whether the named operation is in the metrics list
func (c *Config) Enabled(metric string) bool {
	for _, m := range c.Metrics {
		if m == metric {
			return true
		}
	}
	return false
}

// RulesFilePath returns the location of the cached rule document
func (s Settings) RulesFilePath() string {
	return filepath.Join(s.ConfigDir, s.FSConfigFileName)
}

// RulesURL returns the remote location of the rule document
func (s Settings) RulesURL() string {
	return s.FSConfigBaseURL + s.FSConfigFileName
}

// RulesMaxAge returns the cache freshness window
func (s Settings) RulesMaxAge() time.Duration {
	return time.Duration(s.FSConfigFileMaxAge * float64(time.Second))
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LINUXMON_CONFIG_DIR"); v != "" {
		cfg.Settings.ConfigDir = v
	}
	if v := os.Getenv("LINUXMON_FS_CONFIG_BASE_URL"); v != "" {
		cfg.Settings.FSConfigBaseURL = v
	}
	if v := os.Getenv("LINUXMON_LOG_FILE"); v != "" {
		cfg.Settings.LogFile = v
	}
	if v := os.Getenv("LINUXMON_LOG_LEVEL"); v != "" {
		cfg.Settings.LogLevel = v
	}
	if v := os.Getenv("LINUXMON_PUSH_URL"); v != "" {
		cfg.Settings.PushURL = v
	}
	if v := os.Getenv("LINUXMON_PUSH_TOKEN"); v != "" {
		cfg.Settings.PushToken = v
	}
	cfg.Debug = IsDebugMode()
}

// LoadEnvFile loads environment variables from /etc/linuxmon/env
func LoadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist is not an error
		}
		return err
	}

	// Parse each line as KEY=VALUE
	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			// Only set if not already set in environment
			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	}

	return nil
}

// IsDebugMode checks if debug mode is enabled
func IsDebugMode() bool {
	debug := os.Getenv("LINUXMON_DEBUG")
	return debug == "true" || debug == "1"
}
