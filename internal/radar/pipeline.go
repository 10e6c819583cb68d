package radar

import (
	"github.com/pders01/radar/internal/classify"
	"github.com/pders01/radar/internal/debuglog"
)

// Pipeline applies filtering, extraction and normalization to the entries of
// one source. It holds no mutable state and is safe for concurrent use.
type Pipeline struct {
	filter     *classify.KeywordFilter
	extractor  classify.CompanyExtractor
	normalizer *Normalizer
}

func NewPipeline(filter *classify.KeywordFilter, extractor classify.CompanyExtractor, normalizer *Normalizer) *Pipeline {
	if filter == nil {
		filter = classify.NewKeywordFilter(nil, nil)
	}
	if extractor == nil {
		extractor = classify.PatternExtractor{}
	}
	if normalizer == nil {
		normalizer = NewNormalizer(NormalizerOptions{})
	}
	return &Pipeline{filter: filter, extractor: extractor, normalizer: normalizer}
}

// Process returns the events for src in feed order. Malformed and filtered
// entries are dropped without affecting the rest.
func (p *Pipeline) Process(src Source, entries []RawEntry) []Event {
	log := debuglog.WithFields(debuglog.Fields{"source": src.Label})

	events := make([]Event, 0, len(entries))
	for _, entry := range entries {
		text := p.filterText(entry.Description)
		if kw, hit := p.filter.Excluded(entry.Title, text); hit {
			log.Debugf("excluded %q by keyword %q", entry.Title, kw)
			continue
		}
		if !p.filter.Included(entry.Title, text) {
			log.Debugf("no inclusion keyword in %q", entry.Title)
			continue
		}

		ev, ok := p.normalizer.Normalize(src, entry, p.extractor.Extract(entry.Title))
		if !ok {
			log.Debugf("dropping malformed entry %q (%s)", entry.Title, entry.Link)
			continue
		}
		events = append(events, ev)
	}
	return events
}

// filterText is the whole description as keywords see it: the raw markup
// plus its tag-stripped text, never cut at read-more markers or truncated.
func (p *Pipeline) filterText(desc string) string {
	plain := p.normalizer.PlainText(desc)
	if plain == desc {
		return desc
	}
	// keywords never span the newline
	return desc + "\n" + plain
}
