package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// ServerURL is the base URL of the backend, e.g. "https://music.example.com".
	ServerURL string `koanf:"server_url"`
	// WebsocketURL overrides the push-channel endpoint. When empty it is
	// derived from server_url.
	WebsocketURL string `koanf:"websocket_url"`
	// UserID and Token override the persisted session when set.
	UserID int    `koanf:"user_id"`
	Token  string `koanf:"token"`

	Volume   int    `koanf:"volume"`    // startup volume 0-100 (default: 80)
	LogLevel string `koanf:"log_level"` // "debug", "info", "warn", "error"
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	configPaths := getConfigPaths()

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		Volume:   80,
		LogLevel: "info",
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.ServerURL = strings.TrimSuffix(cfg.ServerURL, "/")
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("server_url is not configured")
	}

	if cfg.WebsocketURL == "" {
		cfg.WebsocketURL = deriveWebsocketURL(cfg.ServerURL)
	}

	if cfg.Volume < 0 || cfg.Volume > 100 {
		cfg.Volume = 80
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/cadenza/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "cadenza", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

// deriveWebsocketURL maps the HTTP base URL to the push endpoint.
func deriveWebsocketURL(serverURL string) string {
	ws := serverURL
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return ws + "/ws/player"
}
