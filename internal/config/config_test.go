package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltins(t *testing.T) {
	b, err := loadBuiltins()
	require.NoError(t, err)

	require.Len(t, b.Sources, 3)
	assert.Equal(t, "💡 THE BRIDGE", b.Sources[2].Label)
	assert.Contains(t, b.Filter.Exclude, "スイーツ")
	assert.Equal(t, []string{"資金調達", "増資", "第三者割当"}, b.Filter.FinancingMarkers)
	assert.Equal(t, 200, b.Summary.MaxLength)
	assert.Contains(t, b.Summary.ReadMoreMarkers, "続きを読む")
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	assert.Equal(t, 30*time.Second, cfg.Feed.HTTPTimeout)
	assert.Equal(t, time.Hour, cfg.Feed.CacheTTL)
	assert.Equal(t, 5, cfg.Feed.MaxConcurrent)
	assert.NotEmpty(t, cfg.Feed.UserAgent)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 24, cfg.Database.Retention)
	assert.False(t, cfg.Ledger.Enabled)
	assert.Len(t, cfg.Sources, 3)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "radar.toml")
	content := `
[database]
path = "/tmp/radar-test.db"
retention = 5

[feed]
http_timeout = "5s"
cache_ttl = "10m"
max_concurrent = 1

[filter]
exclude = ["大企業"]

[ledger]
enabled = true

[[sources]]
label = "Only"
url = "https://thebridge.jp/feed"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/radar-test.db", cfg.Database.Path)
	assert.Equal(t, 5, cfg.Database.Retention)
	assert.Equal(t, 5*time.Second, cfg.Feed.HTTPTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Feed.CacheTTL)
	assert.Equal(t, 1, cfg.Feed.MaxConcurrent)
	assert.True(t, cfg.Ledger.Enabled)
	assert.Equal(t, []string{"大企業"}, cfg.Filter.Exclude)
	// untouched leaves keep their defaults
	assert.Equal(t, []string{"資金調達", "増資", "第三者割当"}, cfg.Filter.FinancingMarkers)
	assert.Equal(t, 200, cfg.Summary.MaxLength)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, Source{Label: "Only", URL: "https://thebridge.jp/feed"}, cfg.Sources[0])
}

func TestLoad_EnvOverride(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "radar.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[feed]\nmax_concurrent = 3\n"), 0o644))

	t.Setenv("RADAR_FEED_CACHE_TTL", "90s")
	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.Feed.CacheTTL)
	assert.Equal(t, 3, cfg.Feed.MaxConcurrent)
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("RADAR_TEST_DOTENV=loaded\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("RADAR_TEST_DOTENV") })

	require.NoError(t, LoadEnvFile(envPath))
	assert.Equal(t, "loaded", os.Getenv("RADAR_TEST_DOTENV"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "no sources",
			mutate:  func(c *Config) { c.Sources = nil },
			wantErr: "no sources configured",
		},
		{
			name:    "empty exclusion set",
			mutate:  func(c *Config) { c.Filter.Exclude = []string{""} },
			wantErr: "filter.exclude",
		},
		{
			name: "duplicate label",
			mutate: func(c *Config) {
				c.Sources = append(c.Sources, Source{Label: c.Sources[0].Label, URL: "https://thebridge.jp/feed"})
			},
			wantErr: "duplicate label",
		},
		{
			name: "localhost rejected unless allowed",
			mutate: func(c *Config) {
				c.Sources = []Source{{Label: "local", URL: "http://localhost:9000/rss"}}
			},
			wantErr: "localhost URLs are not permitted",
		},
		{
			name: "localhost allowed with allow_private",
			mutate: func(c *Config) {
				c.Feed.AllowPrivate = true
				c.Sources = []Source{{Label: "local", URL: "http://localhost:9000/rss"}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateClampsConcurrency(t *testing.T) {
	cfg := defaultConfig()
	cfg.Feed.MaxConcurrent = 0
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Feed.MaxConcurrent)
}

func TestGenerateDefaultConfigRoundTrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "generated.toml")
	require.NoError(t, GenerateDefaultConfig(configPath))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	def := defaultConfig()
	assert.Equal(t, def.Feed.CacheTTL, cfg.Feed.CacheTTL)
	assert.Equal(t, def.Sources, cfg.Sources)
	assert.Equal(t, def.Filter.Exclude, cfg.Filter.Exclude)
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()
	assert.Equal(t, "radar-test/1.0", cfg.Feed.UserAgent)
	assert.True(t, cfg.Feed.AllowPrivate)
	assert.NotEmpty(t, cfg.Filter.Exclude)
}
