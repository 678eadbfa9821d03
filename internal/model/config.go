package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DataConfig holds local storage locations.
type DataConfig struct {
	DBPath  string `mapstructure:"db_path" yaml:"db_path"`
	LogPath string `mapstructure:"log_path" yaml:"log_path"`
}

// CanvasConfig holds note creation defaults.
type CanvasConfig struct {
	DefaultWidth  float64 `mapstructure:"default_width" yaml:"default_width"`
	DefaultHeight float64 `mapstructure:"default_height" yaml:"default_height"`

	// Jitter bounds the random placement of new notes on both axes.
	Jitter float64 `mapstructure:"jitter" yaml:"jitter"`
}

// GestureConfig holds the thresholds of the note gesture state machine.
type GestureConfig struct {
	LongPressMs   int     `mapstructure:"long_press_ms" yaml:"long_press_ms"`
	DoubleTapMs   int     `mapstructure:"double_tap_ms" yaml:"double_tap_ms"`
	DragThreshold float64 `mapstructure:"drag_threshold" yaml:"drag_threshold"`
}

// SyncConfig holds change feed settings.
type SyncConfig struct {
	// RefreshIntervalSec triggers a periodic full reload; 0 disables it.
	RefreshIntervalSec int `mapstructure:"refresh_interval_sec" yaml:"refresh_interval_sec"`
	EventBuffer        int `mapstructure:"event_buffer" yaml:"event_buffer"`
}

// AIConfig holds settings for the AI assistant integration.
type AIConfig struct {
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Data    DataConfig    `mapstructure:"data" yaml:"data"`
	Canvas  CanvasConfig  `mapstructure:"canvas" yaml:"canvas"`
	Gesture GestureConfig `mapstructure:"gesture" yaml:"gesture"`
	Sync    SyncConfig    `mapstructure:"sync" yaml:"sync"`
	AI      AIConfig      `mapstructure:"ai" yaml:"ai"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/plotta/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "plotta", "config.yaml")
}

// defaultDataDir returns ~/.local/share/plotta.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "plotta")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	dataDir := defaultDataDir()
	return &AppConfig{
		Data: DataConfig{
			DBPath:  filepath.Join(dataDir, "plotta.db"),
			LogPath: filepath.Join(dataDir, "plotta.log"),
		},
		Canvas: CanvasConfig{
			DefaultWidth:  DefaultNoteWidth,
			DefaultHeight: DefaultNoteHeight,
			Jitter:        300,
		},
		Gesture: GestureConfig{
			LongPressMs:   500,
			DoubleTapMs:   300,
			DragThreshold: 10,
		},
		Sync: SyncConfig{
			RefreshIntervalSec: 0,
			EventBuffer:        64,
		},
		AI: AIConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 1024,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// setDefaults mirrors DefaultAppConfig on a viper instance so that
// partially written files still resolve every key.
func setDefaults(v *viper.Viper, d *AppConfig) {
	v.SetDefault("data.db_path", d.Data.DBPath)
	v.SetDefault("data.log_path", d.Data.LogPath)
	v.SetDefault("canvas.default_width", d.Canvas.DefaultWidth)
	v.SetDefault("canvas.default_height", d.Canvas.DefaultHeight)
	v.SetDefault("canvas.jitter", d.Canvas.Jitter)
	v.SetDefault("gesture.long_press_ms", d.Gesture.LongPressMs)
	v.SetDefault("gesture.double_tap_ms", d.Gesture.DoubleTapMs)
	v.SetDefault("gesture.drag_threshold", d.Gesture.DragThreshold)
	v.SetDefault("sync.refresh_interval_sec", d.Sync.RefreshIntervalSec)
	v.SetDefault("sync.event_buffer", d.Sync.EventBuffer)
	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("ai.max_tokens", d.AI.MaxTokens)
	v.SetDefault("display.theme", d.Display.Theme)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("plotta")
	v.AutomaticEnv()

	defaults := DefaultAppConfig()
	setDefaults(v, defaults)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaults, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Sync.EventBuffer <= 0 {
		cfg.Sync.EventBuffer = defaults.Sync.EventBuffer
	}
	if cfg.Canvas.DefaultWidth <= 0 {
		cfg.Canvas.DefaultWidth = DefaultNoteWidth
	}
	if cfg.Canvas.DefaultHeight <= 0 {
		cfg.Canvas.DefaultHeight = DefaultNoteHeight
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("data", cfg.Data)
	v.Set("canvas", cfg.Canvas)
	v.Set("gesture", cfg.Gesture)
	v.Set("sync", cfg.Sync)
	v.Set("ai", cfg.AI)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
