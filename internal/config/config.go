// Package config loads the host configuration from a JSON file stored next
// to the host executable.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the name of the config file beside the executable.
const FileName = "config.json"

// Environment variables that override values from the file.
const (
	EnvPlayer   = "VLC_OPENER_PLAYER"
	EnvMpvIPC   = "VLC_OPENER_MPV_IPC"
	EnvLogFile  = "VLC_OPENER_LOG_FILE"
	EnvLogLevel = "VLC_OPENER_LOG_LEVEL"
)

type Config struct {
	Player    string `json:"player"`            // path to the player executable; empty means auto-detect
	MpvIPC    string `json:"mpv_ipc,omitempty"` // mpv JSON IPC pipe or socket; empty disables enqueueing
	LogFile   string `json:"log_file,omitempty"`
	LogLevel  string `json:"log_level,omitempty"`  // "debug", "info", "warn" or "error"
	LogFormat string `json:"log_format,omitempty"` // "text" or "json"
}

func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// DefaultPath returns config.json in the directory of the running executable.
func DefaultPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), FileName), nil
}

// Load reads the config at path and applies environment overrides. A missing
// file yields the defaults; the host never creates one.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	ApplyEnv(&cfg, os.Getenv)
	return cfg, nil
}

// ApplyEnv overrides cfg with any non-empty variables returned by getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvPlayer); v != "" {
		cfg.Player = v
	}
	if v := getenv(EnvMpvIPC); v != "" {
		cfg.MpvIPC = v
	}
	if v := getenv(EnvLogFile); v != "" {
		cfg.LogFile = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
}

// Save writes cfg to path as indented JSON.
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
