package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gap "github.com/muesli/go-app-paths"
	"gopkg.in/yaml.v3"
)

const (
	appName        = "pronounce"
	configFileName = "pronounce.yaml"
)

// userScope locates per-user config and cache directories.
var userScope = gap.NewScope(gap.User, appName)

// Config is the client configuration file. Values may reference the
// environment as ${VAR}.
type Config struct {
	Gateway   string        `yaml:"gateway"`
	Timeout   time.Duration `yaml:"timeout"`
	StorePath string        `yaml:"store_path"`
	StoreTTL  time.Duration `yaml:"store_ttl"`
	LogLevel  string        `yaml:"log_level"`
	Player    PlayerConfig  `yaml:"player"`
}

type PlayerConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// DefaultConfig is used for anything the file leaves out.
func DefaultConfig() *Config {
	store := "pronounce-cache.db"
	if dir, err := userScope.CacheDir(); err == nil {
		store = filepath.Join(dir, "audio.db")
	}
	return &Config{
		Gateway:   "http://localhost:8080",
		Timeout:   20 * time.Second,
		StorePath: store,
		StoreTTL:  30 * 24 * time.Hour,
		LogLevel:  "warn",
	}
}

// configSearchDirs lists where a config file is looked for, most specific
// first: $PRONOUNCE_CONFIG_HOME, $XDG_CONFIG_HOME/pronounce, then the
// platform's user config dirs.
func configSearchDirs() []string {
	dirs, err := userScope.ConfigDirs()
	if err != nil {
		dirs = nil
	}
	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, appName)}, dirs...)
	}
	if c := os.Getenv("PRONOUNCE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}
	return dirs
}

// findConfig returns the first existing config file in dirs, or "".
func findConfig(dirs []string) string {
	for _, dir := range dirs {
		path := filepath.Join(dir, configFileName)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// LoadConfig reads path over the defaults. An empty path searches the user
// config dirs. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = findConfig(configSearchDirs())
	}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
