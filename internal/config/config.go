package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all flightrec configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Tracker    TrackerConfig    `toml:"tracker"`
	Trajectory TrajectoryConfig `toml:"trajectory"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Appearance AppearanceConfig `toml:"appearance"`
	Pricing    PricingOverrides `toml:"pricing"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DefaultDays int    `toml:"default_days"`
	DataDir     string `toml:"data_dir,omitempty"`
}

// TrackerConfig holds cost/speed tracker settings.
type TrackerConfig struct {
	Model              string  `toml:"model"`
	CostThresholdUSD   float64 `toml:"cost_threshold_usd"`
	SpeedThresholdSecs float64 `toml:"speed_threshold_secs"`
	InjectFrequency    int     `toml:"inject_frequency"`
}

// TrajectoryConfig holds phase detector settings.
type TrajectoryConfig struct {
	WindowSize      int `toml:"window_size"`
	InjectFrequency int `toml:"inject_frequency"`
}

// DaemonConfig holds live daemon settings.
type DaemonConfig struct {
	Addr         string `toml:"addr,omitempty"`
	EventsBuffer int    `toml:"events_buffer,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// PricingOverrides allows user-defined pricing for specific models.
type PricingOverrides struct {
	DefaultModel string                          `toml:"default_model,omitempty"`
	Overrides    map[string]ModelPricingOverride `toml:"overrides,omitempty"`
}

// ModelPricingOverride holds per-model pricing overrides.
type ModelPricingOverride struct {
	InputPerMTok  *float64 `toml:"input_per_mtok,omitempty"`
	OutputPerMTok *float64 `toml:"output_per_mtok,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultDays: 30,
		},
		Tracker: TrackerConfig{
			Model:              "claude-sonnet-4-5",
			CostThresholdUSD:   1.0,
			SpeedThresholdSecs: 10.0,
			InjectFrequency:    5,
		},
		Trajectory: TrajectoryConfig{
			WindowSize:      10,
			InjectFrequency: 3,
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8790",
			EventsBuffer: 200,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// BuildPricingTable merges config overrides on top of the built-in table.
func (c Config) BuildPricingTable() *PricingTable {
	table := DefaultPricingTable()

	if c.Pricing.DefaultModel != "" {
		if _, ok := table.Models[c.Pricing.DefaultModel]; ok {
			table.DefaultModel = c.Pricing.DefaultModel
		}
	}

	for model, ov := range c.Pricing.Overrides {
		p := table.Models[model]
		if ov.InputPerMTok != nil {
			p.InputPerMTok = *ov.InputPerMTok
		}
		if ov.OutputPerMTok != nil {
			p.OutputPerMTok = *ov.OutputPerMTok
		}
		table.Models[model] = p
	}

	return table
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "flightrec")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "flightrec")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the directory holding recorded session logs.
func DataDir(cfg Config) string {
	if cfg.General.DataDir != "" {
		return cfg.General.DataDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".flightrec")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
