// Package config loads fincast settings from TOML, .env files and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Source kinds.
const (
	SourceHTTP   = "http"
	SourceFile   = "file"
	SourceStatic = "static"
)

// Advisor and predictor modes.
const (
	AdvisorCanned      = "canned"
	AdvisorLLM         = "llm"
	PredictorSimulated = "simulated"
	PredictorHTTP      = "http"
)

// Config holds all fincast configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Source     SourceConfig     `toml:"source"`
	Advisor    AdvisorConfig    `toml:"advisor"`
	Predictor  PredictorConfig  `toml:"predictor"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	RefreshSeconds int  `toml:"refresh_seconds"`
	HistoryKeep    int  `toml:"history_keep"`
	RecordHistory  bool `toml:"record_history"`
}

// SourceConfig selects where the prediction log is read from.
type SourceConfig struct {
	Kind string `toml:"kind"`
	URL  string `toml:"url,omitempty"`
	File string `toml:"file,omitempty"`
}

// AdvisorConfig holds chat advisor settings.
type AdvisorConfig struct {
	Mode    string `toml:"mode"`
	BaseURL string `toml:"base_url,omitempty"`
	APIKey  string `toml:"api_key,omitempty"`
	Model   string `toml:"model,omitempty"`
}

// PredictorConfig holds report predictor settings.
type PredictorConfig struct {
	Mode string `toml:"mode"`
	URL  string `toml:"url,omitempty"`
}

// DaemonConfig holds background service settings.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	EventsBuffer int    `toml:"events_buffer"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			RefreshSeconds: 30,
			HistoryKeep:    500,
			RecordHistory:  true,
		},
		Source: SourceConfig{
			Kind: SourceHTTP,
			URL:  "http://127.0.0.1:5000/user_data.json",
		},
		Advisor: AdvisorConfig{
			Mode:  AdvisorCanned,
			Model: "gpt-4o-mini",
		},
		Predictor: PredictorConfig{
			Mode: PredictorSimulated,
			URL:  "http://127.0.0.1:5000",
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8788",
			EventsBuffer: 200,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// RefreshInterval returns the poll interval, never below 2s.
func (c Config) RefreshInterval() time.Duration {
	d := time.Duration(c.General.RefreshSeconds) * time.Second
	if d < 2*time.Second {
		return 30 * time.Second
	}
	return d
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fincast")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "fincast")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the directory for the local prediction log.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "fincast")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "fincast")
}

// DefaultLogFile is the FileSource path used when none is configured.
func DefaultLogFile() string {
	return filepath.Join(DataDir(), "user_data.json")
}

// Load reads .env and the config file, then applies environment overrides.
// A missing config file yields defaults.
func Load() (Config, error) {
	_ = godotenv.Load()
	cfg, err := LoadFrom(ConfigPath())
	if err != nil {
		return cfg, err
	}
	ApplyEnv(&cfg)
	return cfg, nil
}

// LoadFrom reads the config file at path over the defaults.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's config file
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides file values with FINCAST_* environment variables.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("FINCAST_SOURCE_URL"); v != "" {
		cfg.Source.URL = v
	}
	if v := os.Getenv("FINCAST_SOURCE_FILE"); v != "" {
		cfg.Source.File = v
	}
	if v := os.Getenv("FINCAST_PREDICTOR_URL"); v != "" {
		cfg.Predictor.URL = v
	}
	if v := os.Getenv("FINCAST_ADVISOR_BASE_URL"); v != "" {
		cfg.Advisor.BaseURL = v
	}
	cfg.Advisor.APIKey = AdvisorAPIKey(*cfg)
}

// AdvisorAPIKey returns the advisor key from env var or config, in that order.
func AdvisorAPIKey(cfg Config) string {
	if key := os.Getenv("FINCAST_ADVISOR_API_KEY"); key != "" {
		return key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.Advisor.APIKey == "" {
		return key
	}
	return cfg.Advisor.APIKey
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: creating dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // path is the user's config file
	if err != nil {
		return fmt.Errorf("config: creating file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
