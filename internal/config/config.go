package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Channels []Channel `yaml:"channels"`
	YouTube  YouTube   `yaml:"youtube"`
	Quota    Quota     `yaml:"quota"`
	Refresh  Refresh   `yaml:"refresh"`
	Ranking  Ranking   `yaml:"ranking"`
	Output   Output    `yaml:"output"`
	Server   Server    `yaml:"server"`
	Logging  Logging   `yaml:"logging"`
}

// Channel is a tracked channel seeded from config.
type Channel struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type YouTube struct {
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
}

type Quota struct {
	DailyLimit       int `yaml:"daily_limit"`
	WarningThreshold int `yaml:"warning_threshold"`
}

type Refresh struct {
	Interval      Duration `yaml:"interval"`
	MaxCandidates int      `yaml:"max_candidates"`
	BatchSize     int      `yaml:"batch_size"`
	BatchDelay    Duration `yaml:"batch_delay"`
}

type Ranking struct {
	Interval Duration `yaml:"interval"`
	TopN     int      `yaml:"top_n"`
}

// Duration wraps time.Duration so YAML values like "1h" parse.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for tuberank.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "tuberank")
}

// DataDir returns the XDG data directory for tuberank.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "tuberank")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/tuberank/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'tuberank init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		YouTube: YouTube{
			APIKeyEnv: "YOUTUBE_API_KEY",
			BaseURL:   "https://www.googleapis.com/youtube/v3",
		},
		Quota: Quota{
			DailyLimit:       10000,
			WarningThreshold: 8000,
		},
		Refresh: Refresh{
			Interval:      Duration(time.Hour),
			MaxCandidates: 200,
			BatchSize:     50,
			BatchDelay:    Duration(time.Second),
		},
		Ranking: Ranking{
			Interval: Duration(6 * time.Hour),
			TopN:     50,
		},
		Server:  Server{Port: 3000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Quota.WarningThreshold <= 0 || cfg.Quota.WarningThreshold > cfg.Quota.DailyLimit {
		cfg.Quota.WarningThreshold = cfg.Quota.DailyLimit * 8 / 10
	}
	if cfg.Refresh.BatchSize > 50 {
		// videos.list accepts at most 50 ids per call
		cfg.Refresh.BatchSize = 50
	}

	return cfg, nil
}

// APIKey resolves the YouTube API key from the configured env var.
func (c *Config) APIKey() string {
	return os.Getenv(c.YouTube.APIKeyEnv)
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
