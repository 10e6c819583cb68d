package config

import "time"

// TestConfig returns a config suitable for testing: a single permissive
// local source slot, short timeouts and the built-in keyword sets.
func TestConfig() *Config {
	def := defaultConfig()
	return &Config{
		Database: DatabaseConfig{
			Timeout:   1 * time.Second,
			Retention: 24,
		},
		Feed: FeedConfig{
			HTTPTimeout:   2 * time.Second,
			CacheTTL:      1 * time.Hour,
			MaxConcurrent: 2,
			UserAgent:     "radar-test/1.0",
			AllowPrivate:  true,
		},
		Filter:  def.Filter,
		Summary: def.Summary,
		Server:  ServerConfig{Addr: "127.0.0.1:0"},
		Log:     LogConfig{Level: "off"},
	}
}
