package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/pders01/radar/internal/validation"
)

//go:embed defaults.toml
var defaultsTOML []byte

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Filter   FilterConfig   `mapstructure:"filter"`
	Summary  SummaryConfig  `mapstructure:"summary"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Open     OpenConfig     `mapstructure:"open"`
	Sources  []Source       `mapstructure:"sources"`
}

// Source is one configured feed endpoint with its display label.
type Source struct {
	Label string `mapstructure:"label" toml:"label"`
	URL   string `mapstructure:"url" toml:"url"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
	// Retention is how many snapshots the store keeps.
	Retention int `mapstructure:"retention"`
}

type FeedConfig struct {
	HTTPTimeout   time.Duration `mapstructure:"http_timeout"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
	UserAgent     string        `mapstructure:"user_agent"`
	// AllowPrivate permits localhost and private-network sources.
	AllowPrivate bool `mapstructure:"allow_private"`
}

type FilterConfig struct {
	Exclude          []string `mapstructure:"exclude" toml:"exclude"`
	Include          []string `mapstructure:"include" toml:"include"`
	FinancingMarkers []string `mapstructure:"financing_markers" toml:"financing_markers"`
}

type SummaryConfig struct {
	MaxLength       int      `mapstructure:"max_length" toml:"max_length"`
	ReadMoreMarkers []string `mapstructure:"read_more_markers" toml:"read_more_markers"`
}

// LedgerConfig controls the persistent cross-cycle first-seen ledger.
type LedgerConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// OpenConfig selects the command used to open event links; empty means the
// platform default.
type OpenConfig struct {
	Command string `mapstructure:"command"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type builtins struct {
	Sources []Source      `toml:"sources"`
	Filter  FilterConfig  `toml:"filter"`
	Summary SummaryConfig `toml:"summary"`
}

func loadBuiltins() (*builtins, error) {
	var b builtins
	if err := toml.Unmarshal(defaultsTOML, &b); err != nil {
		return nil, fmt.Errorf("parsing defaults.toml: %w", err)
	}
	return &b, nil
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".radar")

	cfg := &Config{
		Database: DatabaseConfig{
			Path:        filepath.Join(dataDir, "radar.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(dataDir, "index.bleve"),
			Retention:   24,
		},
		Feed: FeedConfig{
			HTTPTimeout:   30 * time.Second,
			CacheTTL:      1 * time.Hour,
			MaxConcurrent: 5,
			UserAgent:     "radar/1.0 (+https://github.com/pders01/radar)",
		},
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "off"},
	}

	// defaults.toml is compiled in; a parse failure is caught by TestBuiltins.
	if b, err := loadBuiltins(); err == nil {
		cfg.Sources = b.Sources
		cfg.Filter = b.Filter
		cfg.Summary = b.Summary
	}
	return cfg
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.timeout", cfg.Database.Timeout)
	v.SetDefault("database.search_index", cfg.Database.SearchIndex)
	v.SetDefault("database.retention", cfg.Database.Retention)

	v.SetDefault("feed.http_timeout", cfg.Feed.HTTPTimeout)
	v.SetDefault("feed.cache_ttl", cfg.Feed.CacheTTL)
	v.SetDefault("feed.max_concurrent", cfg.Feed.MaxConcurrent)
	v.SetDefault("feed.user_agent", cfg.Feed.UserAgent)
	v.SetDefault("feed.allow_private", cfg.Feed.AllowPrivate)

	v.SetDefault("filter.exclude", cfg.Filter.Exclude)
	v.SetDefault("filter.include", cfg.Filter.Include)
	v.SetDefault("filter.financing_markers", cfg.Filter.FinancingMarkers)

	v.SetDefault("summary.max_length", cfg.Summary.MaxLength)
	v.SetDefault("summary.read_more_markers", cfg.Summary.ReadMoreMarkers)

	v.SetDefault("ledger.enabled", cfg.Ledger.Enabled)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("open.command", cfg.Open.Command)

	v.SetDefault("sources", sourceMaps(cfg.Sources))
}

func sourceMaps(sources []Source) []map[string]any {
	out := make([]map[string]any, 0, len(sources))
	for _, s := range sources {
		out = append(out, map[string]any{"label": s.Label, "url": s.URL})
	}
	return out
}

// DefaultPath is the config file location used when none is given.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "radar", "config.toml")
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("RADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)
	return &config, nil
}

// LoadEnvFile loads KEY=value pairs from path into the process environment
// so RADAR_* overrides can live in a .env file. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Validate checks sources and keyword sets and normalizes source URLs in place.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("no sources configured")
	}
	if len(nonEmpty(c.Filter.Exclude)) == 0 {
		return fmt.Errorf("filter.exclude must list at least one keyword")
	}

	urlValidator := validation.NewSourceURLValidator()
	if c.Feed.AllowPrivate {
		urlValidator = validation.NewPermissiveSourceURLValidator()
	}

	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		label := strings.TrimSpace(s.Label)
		if label == "" {
			return fmt.Errorf("source %d: label is required", i)
		}
		if seen[label] {
			return fmt.Errorf("source %q: duplicate label", label)
		}
		seen[label] = true

		normalized, err := urlValidator.Validate(s.URL)
		if err != nil {
			return fmt.Errorf("source %q: %w", label, err)
		}
		c.Sources[i] = Source{Label: label, URL: normalized}
	}

	if c.Feed.MaxConcurrent < 1 {
		c.Feed.MaxConcurrent = 1
	}
	return nil
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations as strings for TOML readability
	v.Set("database", map[string]any{
		"path":         config.Database.Path,
		"timeout":      config.Database.Timeout.String(),
		"search_index": config.Database.SearchIndex,
		"retention":    config.Database.Retention,
	})
	v.Set("feed", map[string]any{
		"http_timeout":   config.Feed.HTTPTimeout.String(),
		"cache_ttl":      config.Feed.CacheTTL.String(),
		"max_concurrent": config.Feed.MaxConcurrent,
		"user_agent":     config.Feed.UserAgent,
		"allow_private":  config.Feed.AllowPrivate,
	})
	v.Set("filter", map[string]any{
		"exclude":           config.Filter.Exclude,
		"include":           config.Filter.Include,
		"financing_markers": config.Filter.FinancingMarkers,
	})
	v.Set("summary", map[string]any{
		"max_length":        config.Summary.MaxLength,
		"read_more_markers": config.Summary.ReadMoreMarkers,
	})
	v.Set("ledger", map[string]any{"enabled": config.Ledger.Enabled})
	v.Set("server", map[string]any{"addr": config.Server.Addr})
	v.Set("log", map[string]any{"level": config.Log.Level, "file": config.Log.File})
	v.Set("open", map[string]any{"command": config.Open.Command})
	v.Set("sources", sourceMaps(config.Sources))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
