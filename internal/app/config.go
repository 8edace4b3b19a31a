package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"blunderboard/internal/widget"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "BLUNDERBOARD_"

// Config controls runtime behavior for the TUI app.
type Config struct {
	Dev          bool          `yaml:"dev" env:"DEV"`
	DevHTTP      string        `yaml:"dev_http" env:"DEV_HTTP"`
	LogPath      string        `yaml:"log_path" env:"LOG_PATH"`
	DebugLayout  bool          `yaml:"debug_layout" env:"DEBUG_LAYOUT"`
	DemoScenario string        `yaml:"demo" env:"DEMO"`
	ASCIIOnly    bool          `yaml:"ascii_only" env:"ASCII_ONLY"`
	DataDir      string        `yaml:"data_dir" env:"DATA_DIR"`
	Puzzles      PuzzlesConfig `yaml:"puzzles" envPrefix:"PUZZLES_"`
	Timing       TimingConfig  `yaml:"timing" envPrefix:"TIMING_"`
	UI           UIConfig      `yaml:"ui" envPrefix:"UI_"`
}

type PuzzlesConfig struct {
	// Location is a file path or http(s) URL. Empty means the built-in sample set.
	Location  string `yaml:"location" env:"LOCATION"`
	TimeoutMS int    `yaml:"timeout_ms" env:"TIMEOUT_MS"`
	Seed      int64  `yaml:"seed" env:"SEED"`
}

type TimingConfig struct {
	PreBlunderHoldMS int `yaml:"pre_blunder_hold_ms" env:"PRE_BLUNDER_HOLD_MS"`
	BlunderSettleMS  int `yaml:"blunder_settle_ms" env:"BLUNDER_SETTLE_MS"`
	FailedRevertMS   int `yaml:"failed_revert_ms" env:"FAILED_REVERT_MS"`
}

type UIConfig struct {
	StyleVariant string `yaml:"style" env:"STYLE"`
	MotionLevel  string `yaml:"motion" env:"MOTION"`
}

func DefaultConfig() Config {
	return Config{
		DevHTTP: "127.0.0.1:17321",
		Puzzles: PuzzlesConfig{
			TimeoutMS: 10000,
		},
		Timing: TimingConfig{
			PreBlunderHoldMS: 1000,
			BlunderSettleMS:  1500,
			FailedRevertMS:   1500,
		},
		UI: UIConfig{
			StyleVariant: "modern_arcade",
			MotionLevel:  "full",
		},
	}
}

// LoadFile overlays the YAML file at path onto c. A missing path is not an error.
func (c *Config) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// LoadEnv overlays BLUNDERBOARD_* environment variables onto c.
func (c *Config) LoadEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.UI.StyleVariant {
	case "", "modern_arcade", "cozy_clean", "retro_terminal":
	default:
		return fmt.Errorf("invalid ui style variant %q", c.UI.StyleVariant)
	}
	if c.UI.StyleVariant == "" {
		c.UI.StyleVariant = "modern_arcade"
	}
	switch c.UI.MotionLevel {
	case "", "off", "reduced", "full":
	default:
		return fmt.Errorf("invalid ui motion level %q", c.UI.MotionLevel)
	}
	if c.UI.MotionLevel == "" {
		c.UI.MotionLevel = "full"
	}
	if c.Timing.PreBlunderHoldMS < 0 || c.Timing.BlunderSettleMS < 0 || c.Timing.FailedRevertMS < 0 {
		return errors.New("timing values must not be negative")
	}
	if c.Puzzles.TimeoutMS <= 0 {
		c.Puzzles.TimeoutMS = 10000
	}
	if c.Dev && c.DevHTTP == "" {
		c.DevHTTP = "127.0.0.1:17321"
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "blunderboard")
	}
	return nil
}

func (c Config) widgetTiming() widget.Timing {
	return widget.Timing{
		PreBlunderHold: time.Duration(c.Timing.PreBlunderHoldMS) * time.Millisecond,
		BlunderSettle:  time.Duration(c.Timing.BlunderSettleMS) * time.Millisecond,
		FailedRevert:   time.Duration(c.Timing.FailedRevertMS) * time.Millisecond,
	}
}

func (c Config) fetchTimeout() time.Duration {
	return time.Duration(c.Puzzles.TimeoutMS) * time.Millisecond
}
