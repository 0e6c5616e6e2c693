package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Feed modes.
const (
	FeedHTTP      = "http"
	FeedWebsocket = "websocket"
	FeedFile      = "file"
)

// Config is wayfinder's runtime configuration.
type Config struct {
	World      string       `mapstructure:"world"`
	Feed       FeedConfig   `mapstructure:"feed"`
	Export     ExportConfig `mapstructure:"export"`
	ImportPath string       `mapstructure:"import_path"`
	Log        LogConfig    `mapstructure:"log"`
}

// FeedConfig selects where waypoint pushes come from.
type FeedConfig struct {
	Mode         string        `mapstructure:"mode"`
	URL          string        `mapstructure:"url"`
	Path         string        `mapstructure:"path"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// ExportConfig configures the archive used by export and import.
type ExportConfig struct {
	Format   string `mapstructure:"format"`
	Dir      string `mapstructure:"dir"`
	DSN      string `mapstructure:"dsn"`
	Compress bool   `mapstructure:"compress"`
}

// LogConfig configures logging outputs.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	File    string `mapstructure:"file"`
	Graylog string `mapstructure:"graylog"`
}

const (
	envPrefix         = "WAYFINDER"
	defaultConfigPath = "~/.config/wayfinder/config.toml"
	defaultLogFile    = "~/.local/share/wayfinder/logs/wayfinder.log"
	defaultExportDir  = "~/.local/share/wayfinder/exports"
	defaultFeedURL    = "http://127.0.0.1:7480"
	defaultWorld      = "default"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("world", defaultWorld)
	v.SetDefault("feed.mode", FeedHTTP)
	v.SetDefault("feed.url", defaultFeedURL)
	v.SetDefault("feed.path", "")
	v.SetDefault("feed.poll_interval", "2s")
	v.SetDefault("export.format", "json")
	v.SetDefault("export.dir", defaultExportDir)
	v.SetDefault("export.dsn", "")
	v.SetDefault("export.compress", false)
	v.SetDefault("import_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", defaultLogFile)
	v.SetDefault("log.graylog", "")
}

// Load reads the config file at path (or the default location), applies
// WAYFINDER_* environment overrides, and falls back to defaults when the file
// is missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(resolved)
	v.SetConfigType("toml")

	if _, err := os.Stat(resolved); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.World = strings.TrimSpace(c.World)
	if c.World == "" {
		c.World = defaultWorld
	}

	c.Feed.Mode = strings.ToLower(strings.TrimSpace(c.Feed.Mode))
	switch c.Feed.Mode {
	case "":
		c.Feed.Mode = FeedHTTP
	case FeedHTTP, FeedWebsocket, FeedFile:
	default:
		return fmt.Errorf("feed.mode %q: want http, websocket or file", c.Feed.Mode)
	}
	c.Feed.URL = strings.TrimSpace(c.Feed.URL)
	if c.Feed.URL == "" {
		c.Feed.URL = defaultFeedURL
	}
	c.Feed.Path = mustExpandOptional(c.Feed.Path)
	if c.Feed.Mode == FeedFile && c.Feed.Path == "" {
		return fmt.Errorf("feed.path is required in file mode")
	}
	if c.Feed.PollInterval <= 0 {
		c.Feed.PollInterval = 2 * time.Second
	}

	c.Export.Format = strings.ToLower(strings.TrimSpace(c.Export.Format))
	if c.Export.Format == "" {
		c.Export.Format = "json"
	}
	if strings.TrimSpace(c.Export.Dir) == "" {
		c.Export.Dir = defaultExportDir
	}
	c.Export.Dir = mustExpand(c.Export.Dir)
	c.Export.DSN = strings.TrimSpace(c.Export.DSN)

	c.ImportPath = mustExpandOptional(c.ImportPath)

	c.Log.Level = strings.TrimSpace(c.Log.Level)
	c.Log.File = mustExpandOptional(c.Log.File)
	c.Log.Graylog = strings.TrimSpace(c.Log.Graylog)
	return nil
}

// LogPath returns the log file path, or the default when logging to a file
// was left unset.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.Log.File) == "" {
		return mustExpand(defaultLogFile)
	}
	return c.Log.File
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpandOptional(path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	return mustExpand(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and makes the path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
