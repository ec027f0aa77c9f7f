package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hermes-app/hermes/internal/env"
	"github.com/hermes-app/hermes/internal/logger"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. HERMES_SIDECAR_PORT.
const EnvPrefix = "HERMES"

const (
	PlatformDesktop = "desktop"
	PlatformMobile  = "mobile"

	DebugToolsEnabled  = "enabled"
	DebugToolsDisabled = "disabled"
)

// Config represents the TOML file merged with defaults and HERMES_*
// environment overrides.
type Config struct {
	App      AppConfig      `toml:"app" mapstructure:"app"`
	DeepLink DeepLinkConfig `toml:"deeplink" mapstructure:"deeplink"`
	Sidecar  SidecarConfig  `toml:"sidecar" mapstructure:"sidecar"`
	Store    StoreConfig    `toml:"store" mapstructure:"store"`
	Debug    DebugConfig    `toml:"debug" mapstructure:"debug"`
	Log      LogConfig      `toml:"log" mapstructure:"log"`
}

type AppConfig struct {
	Title      string `toml:"title" mapstructure:"title"`
	Window     string `toml:"window" mapstructure:"window"`
	Identifier string `toml:"identifier" mapstructure:"identifier"`
	// Platform is desktop or mobile; empty derives it from GOOS.
	Platform string `toml:"platform" mapstructure:"platform"`
	// DebugTools may only disable tooling compiled into the build.
	DebugTools  string `toml:"debug_tools" mapstructure:"debug_tools"`
	FrontendDir string `toml:"frontend_dir" mapstructure:"frontend_dir"`
}

type DeepLinkConfig struct {
	Scheme string `toml:"scheme" mapstructure:"scheme"`
	// Register installs the scheme handler with the OS on startup.
	Register bool `toml:"register" mapstructure:"register"`
}

type SidecarConfig struct {
	Name        string   `toml:"name" mapstructure:"name"`
	BinariesDir string   `toml:"binaries_dir" mapstructure:"binaries_dir"`
	WorkDir     string   `toml:"workdir" mapstructure:"workdir"`
	Env         []string `toml:"env" mapstructure:"env"`
	EnvFiles    []string `toml:"env_files" mapstructure:"env_files"`
	Port        int      `toml:"port" mapstructure:"port"`
	Host        string   `toml:"host" mapstructure:"host"`
}

type StoreConfig struct {
	Path string `toml:"path" mapstructure:"path"`
}

// DebugConfig controls the local diagnostics server; empty Addr disables it.
type DebugConfig struct {
	Addr string `toml:"addr" mapstructure:"addr"`
}

type LogConfig struct {
	Level      string `toml:"level" mapstructure:"level"`
	Format     string `toml:"format" mapstructure:"format"`
	Color      bool   `toml:"color" mapstructure:"color"`
	TimeStamps bool   `toml:"timestamps" mapstructure:"timestamps"`
	Source     bool   `toml:"source" mapstructure:"source"`
	Dir        string `toml:"dir" mapstructure:"dir"`
	File       string `toml:"file" mapstructure:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.title", "Hermes")
	v.SetDefault("app.window", "main")
	v.SetDefault("app.identifier", "app.hermes.desktop")
	v.SetDefault("app.platform", "")
	v.SetDefault("app.debug_tools", "")
	v.SetDefault("app.frontend_dir", "")

	v.SetDefault("deeplink.scheme", "hermes")
	v.SetDefault("deeplink.register", true)

	v.SetDefault("sidecar.name", "hermes-server")
	v.SetDefault("sidecar.binaries_dir", "")
	v.SetDefault("sidecar.workdir", "")
	v.SetDefault("sidecar.env", []string{})
	v.SetDefault("sidecar.env_files", []string{})
	v.SetDefault("sidecar.port", 3003)
	v.SetDefault("sidecar.host", "127.0.0.1")

	v.SetDefault("store.path", "")
	v.SetDefault("debug.addr", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.color", true)
	v.SetDefault("log.timestamps", true)
	v.SetDefault("log.source", false)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", logger.DefaultMaxSizeMB)
	v.SetDefault("log.max_backups", logger.DefaultMaxBackups)
	v.SetDefault("log.max_age_days", logger.DefaultMaxAgeDays)
	v.SetDefault("log.compress", false)
}

// Load reads the optional TOML file at path (empty means defaults only),
// applies HERMES_* environment overrides and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(filepath.Clean(path))
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) normalize() {
	c.App.Platform = strings.ToLower(strings.TrimSpace(c.App.Platform))
	c.App.DebugTools = strings.ToLower(strings.TrimSpace(c.App.DebugTools))
	c.DeepLink.Scheme = strings.ToLower(strings.TrimSpace(c.DeepLink.Scheme))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Store.Path == "" {
		c.Store.Path = DefaultStorePath()
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.App.Title) == "" {
		return fmt.Errorf("app.title must not be empty")
	}
	if strings.TrimSpace(c.App.Window) == "" {
		return fmt.Errorf("app.window must not be empty")
	}
	switch c.App.Platform {
	case "", PlatformDesktop, PlatformMobile:
	default:
		return fmt.Errorf("app.platform must be %q or %q, got %q", PlatformDesktop, PlatformMobile, c.App.Platform)
	}
	switch c.App.DebugTools {
	case "", DebugToolsEnabled, DebugToolsDisabled:
	default:
		return fmt.Errorf("app.debug_tools must be %q or %q, got %q", DebugToolsEnabled, DebugToolsDisabled, c.App.DebugTools)
	}
	if !validScheme(c.DeepLink.Scheme) {
		return fmt.Errorf("deeplink.scheme %q is not a valid URL scheme", c.DeepLink.Scheme)
	}
	if strings.TrimSpace(c.Sidecar.Name) == "" {
		return fmt.Errorf("sidecar.name must not be empty")
	}
	if c.Sidecar.Port <= 0 || c.Sidecar.Port > 65535 {
		return fmt.Errorf("sidecar.port out of range: %d", c.Sidecar.Port)
	}
	for _, kv := range c.Sidecar.Env {
		if i := strings.IndexByte(kv, '='); i <= 0 {
			return fmt.Errorf("sidecar.env entry %q must be KEY=VALUE", kv)
		}
	}
	switch c.Log.Format {
	case "", string(logger.FormatText), string(logger.FormatJSON):
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// validScheme follows RFC 3986: ALPHA *( ALPHA / DIGIT / "+" / "-" / "." ).
func validScheme(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// DefaultStorePath places the key-value database in the user config dir,
// falling back to the temp dir when it cannot be determined.
func DefaultStorePath() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, "hermes", "hermes-store.db")
}

// SidecarEnv composes the sidecar environment. Precedence, lowest first:
// OS environment, PORT/HOST, env_files in order, then sidecar.env.
func (c *Config) SidecarEnv() ([]string, error) {
	e := env.New()
	e.FromOS()
	e.Set("PORT", strconv.Itoa(c.Sidecar.Port))
	e.Set("HOST", c.Sidecar.Host)

	var extra []string
	for _, f := range c.Sidecar.EnvFiles {
		kvs, err := env.LoadFile(f)
		if err != nil {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
		extra = append(extra, kvs...)
	}
	extra = append(extra, c.Sidecar.Env...)
	return e.Merge(extra), nil
}

// LoggerConfig maps the log section onto the logger package.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Slog: logger.SlogConfig{
			Level:      logger.Level(strings.ToLower(c.Log.Level)),
			Format:     logger.Format(c.Log.Format),
			Color:      c.Log.Color,
			TimeStamps: c.Log.TimeStamps,
			Source:     c.Log.Source,
		},
		File: logger.FileConfig{
			Dir:        c.Log.Dir,
			Path:       c.Log.File,
			MaxSizeMB:  c.Log.MaxSizeMB,
			MaxBackups: c.Log.MaxBackups,
			MaxAgeDays: c.Log.MaxAgeDays,
			Compress:   c.Log.Compress,
		},
	}
}
