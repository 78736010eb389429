package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"koken/internal/logging"
	"koken/internal/recipe"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultSnapshotName   = "snapshot.db"
	DefaultLogName        = "koken.log"
	DefaultSourceURL      = "https://api.github.com/repos/StanKwast/koken/contents/recipes"
	DefaultExtension      = ".json"
	DefaultWideWidth      = 100

	appDir = "koken"
	envKey = "KOKEN_CONFIG"
)

type Keymap struct {
	Quit           string `toml:"quit"`
	Up             string `toml:"up"`
	Down           string `toml:"down"`
	Search         string `toml:"search"`
	Cancel         string `toml:"cancel"`
	Expand         string `toml:"expand"`
	ExpandAlt      string `toml:"expand_alt"`
	Pin            string `toml:"pin"`
	NextCategory   string `toml:"next_category"`
	PrevCategory   string `toml:"prev_category"`
	ToggleCategory string `toml:"toggle_category"`
	ClearFilters   string `toml:"clear_filters"`
}

type Config struct {
	SourceURL string `toml:"source_url"`
	// SourceDir, when set, is read instead of SourceURL.
	SourceDir      string `toml:"source_dir"`
	Extension      string `toml:"extension"`
	Concurrency    int    `toml:"concurrency"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	SnapshotPath   string `toml:"snapshot_path"`
	Locale         string `toml:"locale"`
	WideWidth      int    `toml:"wide_width"`
	LogPath        string `toml:"log_path"`
	LogLevel       string `toml:"log_level"`
	Keys           Keymap `toml:"keys"`
}

// Timeout is the whole-load deadline; zero means none.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ResolveConfigPath picks the config file: $KOKEN_CONFIG, then the XDG
// config directory, then ~/.config.
func ResolveConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(envKey)); p != "" {
		return p
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appDir, DefaultConfigFileName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", appDir, DefaultConfigFileName)
	}
	return DefaultConfigFileName
}

// LoadOrCreate reads the config at path, writing the defaults there first
// if the file does not exist. Relative paths inside the file are resolved
// against the file's directory.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		logging.Info().Str("path", path).Msg("config created")
		return cfg.resolve(filepath.Dir(path)), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.fillDefaults()
	cfg = cfg.resolve(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) fillDefaults() {
	d := defaultConfig()
	if c.Extension == "" {
		c.Extension = d.Extension
	}
	if c.SnapshotPath == "" {
		c.SnapshotPath = d.SnapshotPath
	}
	if c.Locale == "" {
		c.Locale = d.Locale
	}
	if c.WideWidth == 0 {
		c.WideWidth = d.WideWidth
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	fillKeys(&c.Keys, d.Keys)
}

func fillKeys(k *Keymap, d Keymap) {
	pairs := []struct {
		dst *string
		def string
	}{
		{&k.Quit, d.Quit},
		{&k.Up, d.Up},
		{&k.Down, d.Down},
		{&k.Search, d.Search},
		{&k.Cancel, d.Cancel},
		{&k.Expand, d.Expand},
		{&k.ExpandAlt, d.ExpandAlt},
		{&k.Pin, d.Pin},
		{&k.NextCategory, d.NextCategory},
		{&k.PrevCategory, d.PrevCategory},
		{&k.ToggleCategory, d.ToggleCategory},
		{&k.ClearFilters, d.ClearFilters},
	}
	for _, p := range pairs {
		if *p.dst == "" {
			*p.dst = p.def
		}
	}
}

func (c Config) resolve(dir string) Config {
	for _, p := range []*string{&c.SnapshotPath, &c.LogPath, &c.SourceDir} {
		if *p == "" || filepath.IsAbs(*p) || strings.HasPrefix(*p, "file:") {
			continue
		}
		*p = filepath.Join(dir, *p)
	}
	return c
}

func defaultConfig() Config {
	return Config{
		SourceURL:      DefaultSourceURL,
		Extension:      DefaultExtension,
		Concurrency:    8,
		TimeoutSeconds: 30,
		SnapshotPath:   DefaultSnapshotName,
		Locale:         recipe.DefaultLocale,
		WideWidth:      DefaultWideWidth,
		LogPath:        DefaultLogName,
		LogLevel:       "info",
		Keys: Keymap{
			Quit:           "q",
			Up:             "k",
			Down:           "j",
			Search:         "/",
			Cancel:         "esc",
			Expand:         "enter",
			ExpandAlt:      " ",
			Pin:            "p",
			NextCategory:   "tab",
			PrevCategory:   "shift+tab",
			ToggleCategory: "c",
			ClearFilters:   "x",
		},
	}
}

// Default returns the built-in configuration with paths relative to dir.
func Default(dir string) Config {
	return defaultConfig().resolve(dir)
}

func (c Config) Validate() error {
	var ve ValidationError

	if strings.TrimSpace(c.SourceURL) == "" && strings.TrimSpace(c.SourceDir) == "" {
		ve.Add("source_url", "must be set when source_dir is empty")
	} else if c.SourceURL != "" && !isValidAbsURL(c.SourceURL) {
		ve.Add("source_url", "must be a valid absolute http(s) URL")
	}
	if !strings.HasPrefix(c.Extension, ".") {
		ve.Add("extension", "must start with '.'")
	}
	if c.Concurrency < 0 {
		ve.Add("concurrency", "must not be negative")
	}
	if c.TimeoutSeconds < 0 {
		ve.Add("timeout_seconds", "must not be negative")
	}
	if c.WideWidth <= 0 {
		ve.Add("wide_width", "must be positive")
	}
	if _, err := language.Parse(c.Locale); err != nil {
		ve.Add("locale", "must be a BCP 47 language tag")
	}
	if !logging.ValidLevel(c.LogLevel) {
		ve.Add("log_level", "must be one of trace, debug, info, warn, error, disabled")
	}

	if ve.HasAny() {
		return ve
	}
	return nil
}

func isValidAbsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
