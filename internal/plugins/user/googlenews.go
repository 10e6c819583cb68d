package user

import (
	"strings"
	"unicode/utf8"

	"github.com/pders01/radar/internal/radar"
)

const maxPublisherRunes = 40

// GoogleNewsPlugin cleans entries of Google News search feeds, whose titles
// carry a " - Publisher" suffix and whose descriptions only repeat the
// headline as a link.
type GoogleNewsPlugin struct{}

// NewGoogleNewsPlugin creates a new Google News plugin
func NewGoogleNewsPlugin() *GoogleNewsPlugin {
	return &GoogleNewsPlugin{}
}

func (p *GoogleNewsPlugin) Name() string {
	return "googlenews"
}

func (p *GoogleNewsPlugin) CanHandle(url string) bool {
	return strings.Contains(url, "://news.google.com/")
}

func (p *GoogleNewsPlugin) Priority() int {
	return 50
}

func (p *GoogleNewsPlugin) Rewrite(entry radar.RawEntry) radar.RawEntry {
	entry.Title = StripPublisher(entry.Title)
	if entry.Title != "" && strings.Contains(entry.Description, entry.Title) {
		entry.Description = ""
	}
	return entry
}

// StripPublisher removes a trailing " - Publisher" from title. Titles that
// would be left empty, or whose suffix is too long to be a publisher name,
// are returned unchanged.
func StripPublisher(title string) string {
	idx := strings.LastIndex(title, " - ")
	if idx <= 0 {
		return title
	}
	publisher := strings.TrimSpace(title[idx+3:])
	if publisher == "" || utf8.RuneCountInString(publisher) > maxPublisherRunes {
		return title
	}
	return strings.TrimSpace(title[:idx])
}
