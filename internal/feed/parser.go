package feed

import (
	"fmt"
	"io"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/pders01/radar/internal/radar"
)

// Parser converts RSS, RDF and Atom documents into raw entries.
type Parser struct {
	parser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		parser: gofeed.NewParser(),
	}
}

func (p *Parser) Parse(reader io.Reader) ([]radar.RawEntry, error) {
	feed, err := p.parser.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	entries := make([]radar.RawEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, radar.RawEntry{
			Title:       item.Title,
			Link:        item.Link,
			GUID:        item.GUID,
			Description: description(item),
			Published:   published(item),
		})
	}
	return entries, nil
}

// published prefers the publish date and falls back to the update date
// (Atom feeds often carry only <updated>). The parsed wall clock is kept.
func published(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		t := *item.PublishedParsed
		return &t
	}
	if item.UpdatedParsed != nil {
		t := *item.UpdatedParsed
		return &t
	}
	return nil
}

func description(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}
	return item.Content
}
