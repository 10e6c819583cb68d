package radar

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pders01/radar/internal/classify"
)

const defaultSummaryLength = 200

var lineBreakPattern = regexp.MustCompile(`(?i)<br\s*/?>`)

// NormalizerOptions configures summary cleaning and categorisation.
type NormalizerOptions struct {
	FinancingMarkers []string
	ReadMoreMarkers  []string
	MaxSummaryLength int
}

// Normalizer turns a raw entry into an Event.
type Normalizer struct {
	financing  []string
	readMore   []string
	maxSummary int
}

func NewNormalizer(opts NormalizerOptions) *Normalizer {
	n := &Normalizer{
		financing:  nonEmpty(opts.FinancingMarkers),
		readMore:   nonEmpty(opts.ReadMoreMarkers),
		maxSummary: opts.MaxSummaryLength,
	}
	if n.maxSummary <= 0 {
		n.maxSummary = defaultSummaryLength
	}
	return n
}

// Normalize builds the Event for entry. It reports false when the entry
// has no title or no timestamp, since neither a label nor a date can be
// derived.
func (n *Normalizer) Normalize(src Source, entry RawEntry, company string) (Event, bool) {
	title := strings.TrimSpace(entry.Title)
	if title == "" || entry.Published == nil {
		return Event{}, false
	}
	if company == "" {
		company = classify.Prefix(title, classify.FallbackLength)
	}

	return Event{
		Title:       company,
		Headline:    title,
		PublishedAt: *entry.Published,
		URL:         entryURL(entry),
		Summary:     n.CleanSummary(entry.Description),
		SourceLabel: src.Label,
		Company:     company,
		Category:    n.Categorize(src.Label, title),
	}, true
}

// Categorize marks an entry as financing when the source label or the title
// contains a financing marker.
func (n *Normalizer) Categorize(label, title string) Category {
	for _, m := range n.financing {
		if strings.Contains(label, m) || strings.Contains(title, m) {
			return CategoryFinancing
		}
	}
	return CategoryGeneral
}

// CleanSummary drops line-break tags, keeps only the text before the first
// read-more marker, strips remaining markup and truncates.
func (n *Normalizer) CleanSummary(desc string) string {
	if desc == "" {
		return ""
	}
	s := lineBreakPattern.ReplaceAllString(desc, " ")
	s = n.cutReadMore(s)
	s = htmlText(s)
	s = n.cutReadMore(s)
	return truncate(strings.Join(strings.Fields(s), " "), n.maxSummary)
}

// PlainText strips markup from desc and collapses whitespace, keeping the
// whole text.
func (n *Normalizer) PlainText(desc string) string {
	if desc == "" {
		return ""
	}
	s := htmlText(lineBreakPattern.ReplaceAllString(desc, " "))
	return strings.Join(strings.Fields(s), " ")
}

// entryURL is the item link, or its GUID when the feed only carries a
// permalink GUID.
func entryURL(entry RawEntry) string {
	if link := strings.TrimSpace(entry.Link); link != "" {
		return link
	}
	guid := strings.TrimSpace(entry.GUID)
	if strings.HasPrefix(guid, "https://") || strings.HasPrefix(guid, "http://") {
		return guid
	}
	return ""
}

func (n *Normalizer) cutReadMore(s string) string {
	for _, m := range n.readMore {
		if before, _, found := strings.Cut(s, m); found {
			s = before
		}
	}
	return s
}

func htmlText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("script, style").Remove()
	return doc.Text()
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	return strings.TrimSpace(string(r[:limit-1])) + "…"
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
