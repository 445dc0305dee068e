package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

const appName = "volume-overlay"

type Config struct {
	LogLevel string        `mapstructure:"log_level"`
	Audio    AudioConfig   `mapstructure:"audio"`
	Meter    MeterConfig   `mapstructure:"meter"`
	Overlay  OverlayConfig `mapstructure:"overlay"`
	Hotkey   HotkeyConfig  `mapstructure:"hotkey"`
	Tray     TrayConfig    `mapstructure:"tray"`

	path string
}

type AudioConfig struct {
	Device      string `mapstructure:"device"`       // name or index, empty prompts
	DeviceIndex int    `mapstructure:"device_index"` // index Device had when remembered, -1 if unknown
	Channels    int    `mapstructure:"channels"`
	SampleRate  int    `mapstructure:"sample_rate"`
	BlockSize   int    `mapstructure:"block_size"`
}

type MeterConfig struct {
	Gain    float64 `mapstructure:"gain"`
	Ceiling int     `mapstructure:"ceiling"`
}

type OverlayConfig struct {
	BarWidth  int     `mapstructure:"bar_width"`
	BarHeight int     `mapstructure:"bar_height"`
	TPS       int     `mapstructure:"tps"`
	Opacity   float64 `mapstructure:"opacity"`
}

type HotkeyConfig struct {
	Toggle string `mapstructure:"toggle"` // e.g. "Alt+Shift+V", empty disables
}

type TrayConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("audio.device", "")
	v.SetDefault("audio.device_index", -1)
	v.SetDefault("audio.channels", 2)
	v.SetDefault("audio.sample_rate", 44100)
	v.SetDefault("audio.block_size", 2048)
	v.SetDefault("meter.gain", 15.0)
	v.SetDefault("meter.ceiling", 100)
	v.SetDefault("overlay.bar_width", 100)
	v.SetDefault("overlay.bar_height", 300)
	v.SetDefault("overlay.tps", 60)
	v.SetDefault("overlay.opacity", 0.85)
	v.SetDefault("hotkey.toggle", "Alt+Shift+V")
	v.SetDefault("tray.enabled", true)
}

// Default returns the built-in configuration
func Default() *Config {
	cfg, _ := decode(newViper(), "")
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("VOLUME_OVERLAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file at path, or config.json in the platform
// config directory when path is empty. Only the default file may be
// missing, in which case defaults apply. VOLUME_OVERLAY_* environment
// variables override file values.
func Load(path string) (*Config, error) {
	v := newViper()

	explicit := path != ""
	if explicit {
		v.SetConfigFile(path)
	} else {
		path = defaultPath()
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(configDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if explicit || !missing {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := decode(v, path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(v *viper.Viper, path string) (*Config, error) {
	cfg := &Config{path: path}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the capture pipeline cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.Audio.Channels < 1 {
		errs = append(errs, fmt.Errorf("audio.channels must be at least 1, got %d", c.Audio.Channels))
	}
	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate))
	}
	if c.Audio.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("audio.block_size must be positive, got %d", c.Audio.BlockSize))
	}
	if c.Meter.Gain <= 0 {
		errs = append(errs, fmt.Errorf("meter.gain must be positive, got %g", c.Meter.Gain))
	}
	if c.Meter.Ceiling <= 0 {
		errs = append(errs, fmt.Errorf("meter.ceiling must be positive, got %d", c.Meter.Ceiling))
	}
	if c.Overlay.BarWidth <= 0 || c.Overlay.BarHeight <= 0 {
		errs = append(errs, fmt.Errorf("overlay bar size must be positive, got %dx%d", c.Overlay.BarWidth, c.Overlay.BarHeight))
	}
	if c.Overlay.TPS <= 0 {
		errs = append(errs, fmt.Errorf("overlay.tps must be positive, got %d", c.Overlay.TPS))
	}
	if c.Overlay.Opacity < 0 || c.Overlay.Opacity > 1 {
		errs = append(errs, fmt.Errorf("overlay.opacity must be within [0,1], got %g", c.Overlay.Opacity))
	}
	return errors.Join(errs...)
}

// RememberDevice records the chosen capture device in the config file.
// Only the device keys are written. Everything else in the file stays as
// it was, and environment or flag overrides held in c are never saved.
func (c *Config) RememberDevice(name string, index int) error {
	c.Audio.Device = name
	c.Audio.DeviceIndex = index
	if c.path == "" {
		c.path = defaultPath()
	}

	v := viper.New()
	v.SetConfigFile(c.path)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read config: %w", err)
	}
	v.Set("audio.device", name)
	v.Set("audio.device_index", index)

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return err
	}
	return v.WriteConfigAs(c.path)
}

// Path returns the file the config is loaded from and saved to
func (c *Config) Path() string {
	return c.path
}

func defaultPath() string {
	return filepath.Join(configDir(), "config.json")
}

// configDir returns the platform-specific config directory
func configDir() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, appName)
}
