package user

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pders01/radar/internal/plugins"
	"github.com/pders01/radar/internal/radar"
)

func TestGoogleNewsPlugin_Name(t *testing.T) {
	plugin := NewGoogleNewsPlugin()
	assert.Equal(t, "googlenews", plugin.Name())
	assert.Equal(t, 50, plugin.Priority())
}

func TestGoogleNewsPlugin_CanHandle(t *testing.T) {
	plugin := NewGoogleNewsPlugin()

	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{
			name:     "search feed",
			url:      "https://news.google.com/rss/search?q=資金調達&hl=ja",
			expected: true,
		},
		{
			name:     "other host",
			url:      "https://thebridge.jp/feed",
			expected: false,
		},
		{
			name:     "google in path only",
			url:      "https://example.com/news.google.com/",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, plugin.CanHandle(tt.url))
		})
	}
}

func TestStripPublisher(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"ABC株式会社が資金調達を実施 - PR TIMES", "ABC株式会社が資金調達を実施"},
		{"シリーズA - 前編 - 日本経済新聞", "シリーズA - 前編"},
		{"区切りのない見出し", "区切りのない見出し"},
		{" - PR TIMES", " - PR TIMES"},
		{"見出し - ", "見出し - "},
		{"見出し - " + "とても長い説明文が続くのでこれは媒体名ではなく見出しの一部であると判断するべき文字列です", "見出し - とても長い説明文が続くのでこれは媒体名ではなく見出しの一部であると判断するべき文字列です"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripPublisher(tt.input))
		})
	}
}

func TestGoogleNewsPlugin_Rewrite(t *testing.T) {
	plugin := NewGoogleNewsPlugin()

	entry := plugin.Rewrite(radar.RawEntry{
		Title:       "XYZ合同会社が10億円を調達 - THE BRIDGE",
		Link:        "https://news.google.com/rss/articles/abc",
		Description: `<a href="https://news.google.com/rss/articles/abc">XYZ合同会社が10億円を調達</a>&nbsp;&nbsp;<font color="#6f6f6f">THE BRIDGE</font>`,
	})
	assert.Equal(t, "XYZ合同会社が10億円を調達", entry.Title)
	assert.Empty(t, entry.Description)
	assert.Equal(t, "https://news.google.com/rss/articles/abc", entry.Link)

	kept := plugin.Rewrite(radar.RawEntry{Title: "見出し - 媒体", Description: "別の本文"})
	assert.Equal(t, "別の本文", kept.Description)
}

func TestGoogleNewsPlugin_InRegistry(t *testing.T) {
	registry := plugins.NewRegistry(NewGoogleNewsPlugin())

	src := radar.Source{Label: "google", URL: "https://news.google.com/rss/search?q=x"}
	got := registry.Apply(src, []radar.RawEntry{{Title: "見出し - 媒体"}})
	assert.Equal(t, "見出し", got[0].Title)
}
