package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Audio.Channels != 2 || cfg.Audio.SampleRate != 44100 || cfg.Audio.BlockSize != 2048 {
		t.Errorf("unexpected audio defaults %+v", cfg.Audio)
	}
	if cfg.Meter.Gain != 15 || cfg.Meter.Ceiling != 100 {
		t.Errorf("unexpected meter defaults %+v", cfg.Meter)
	}
	if cfg.Overlay.BarWidth != 100 || cfg.Overlay.BarHeight != 300 {
		t.Errorf("unexpected overlay defaults %+v", cfg.Overlay)
	}
	if !cfg.Tray.Enabled {
		t.Error("tray should be enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

// isolateConfigDir points the platform config directory at a temp dir
func isolateConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("APPDATA", dir)
	return filepath.Join(configDir(), "config.json")
}

func TestLoadMissingDefaultFileUsesDefaults(t *testing.T) {
	path := isolateConfigDir(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("missing default file should not be an error: %v", err)
	}
	if cfg.Meter.Gain != 15 {
		t.Errorf("expected default gain, got %g", cfg.Meter.Gain)
	}
	if cfg.Audio.DeviceIndex != -1 {
		t.Errorf("expected unknown device index, got %d", cfg.Audio.DeviceIndex)
	}
	if cfg.Path() != path {
		t.Errorf("expected path %s, got %s", path, cfg.Path())
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.json")

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "read config") {
		t.Errorf("expected read error for missing %s, got %v", path, err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
  "log_level": "debug",
  "audio": {"device": "USB Mic"},
  "meter": {"gain": 22.5},
  "overlay": {"bar_width": 60}
}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" || cfg.Audio.Device != "USB Mic" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Meter.Gain != 22.5 || cfg.Meter.Ceiling != 100 {
		t.Errorf("unexpected meter config %+v", cfg.Meter)
	}
	if cfg.Overlay.BarWidth != 60 || cfg.Overlay.BarHeight != 300 {
		t.Errorf("unexpected overlay config %+v", cfg.Overlay)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("VOLUME_OVERLAY_METER_CEILING", "80")
	t.Setenv("VOLUME_OVERLAY_AUDIO_DEVICE", "2")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Meter.Ceiling != 80 {
		t.Errorf("expected ceiling 80, got %d", cfg.Meter.Ceiling)
	}
	if cfg.Audio.Device != "2" {
		t.Errorf("expected device 2, got %q", cfg.Audio.Device)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"zero channels", `{"audio": {"channels": 0}}`, "audio.channels"},
		{"negative gain", `{"meter": {"gain": -1}}`, "meter.gain"},
		{"opacity", `{"overlay": {"opacity": 2}}`, "overlay.opacity"},
		{"malformed", `{"audio": `, "read config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}

			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRememberDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"meter": {"gain": 22.5}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.LogLevel = "debug"
	if err := cfg.RememberDevice("Built-in Microphone", 3); err != nil {
		t.Fatalf("remember: %v", err)
	}
	if cfg.Audio.Device != "Built-in Microphone" || cfg.Audio.DeviceIndex != 3 {
		t.Errorf("in-memory config not updated: %+v", cfg.Audio)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Audio.Device != "Built-in Microphone" || reloaded.Audio.DeviceIndex != 3 {
		t.Errorf("expected saved device, got %+v", reloaded.Audio)
	}
	if reloaded.Meter.Gain != 22.5 {
		t.Errorf("file gain lost across save, got %g", reloaded.Meter.Gain)
	}
	if reloaded.LogLevel != "info" {
		t.Errorf("log level override should not be saved, got %q", reloaded.LogLevel)
	}
}

func TestRememberDeviceSkipsEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VOLUME_OVERLAY_METER_GAIN", "40")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Meter.Gain != 40 {
		t.Fatalf("expected env gain 40, got %g", cfg.Meter.Gain)
	}
	if err := cfg.RememberDevice("USB Mic", 1); err != nil {
		t.Fatalf("remember: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var saved map[string]any
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("saved file is not json: %v", err)
	}
	if _, ok := saved["meter"]; ok {
		t.Errorf("env override written to file: %s", data)
	}
	if _, ok := saved["log_level"]; ok {
		t.Errorf("unrelated key written to file: %s", data)
	}
	audio, _ := saved["audio"].(map[string]any)
	if audio["device"] != "USB Mic" {
		t.Errorf("expected device in file, got %s", data)
	}
}

func TestConfigDirXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup only applies on linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	if got := configDir(); got != filepath.Join("/tmp/xdg", appName) {
		t.Errorf("unexpected config dir %s", got)
	}
}
