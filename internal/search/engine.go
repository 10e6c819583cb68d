package search

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/pders01/radar/internal/radar"
)

// Engine scores the events of the most recent snapshot in memory. It needs
// no index on disk and serves as the fallback when the bleve index cannot
// be opened.
type Engine struct {
	mu     sync.RWMutex
	events []radar.Event
	now    func() time.Time
}

// NewEngine creates an engine over the given snapshot, which may be nil.
func NewEngine(snap *radar.Snapshot) *Engine {
	e := &Engine{now: time.Now}
	if snap != nil {
		e.events = snap.Events
	}
	return e
}

// OnSnapshot swaps in the events of a freshly computed snapshot.
func (e *Engine) OnSnapshot(_ context.Context, snap *radar.Snapshot) error {
	e.mu.Lock()
	e.events = snap.Events
	e.mu.Unlock()
	return nil
}

func (e *Engine) DocCount() (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.events), nil
}

// Search returns events matching query ordered by relevance, highest first.
func (e *Engine) Search(query string, limit int) ([]*Result, error) {
	return e.search(query, "", limit)
}

// SearchOn is Search restricted to events published on day (YYYY-MM-DD).
func (e *Engine) SearchOn(query, day string, limit int) ([]*Result, error) {
	return e.search(query, day, limit)
}

func (e *Engine) search(query, day string, limit int) ([]*Result, error) {
	if utf8.RuneCountInString(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}

	e.mu.RLock()
	events := e.events
	e.mu.RUnlock()

	results := []*Result{}
	for _, ev := range events {
		if day != "" && ev.Date() != day {
			continue
		}
		if result := e.searchEvent(ev, terms); result != nil {
			results = append(results, result)
		}
	}

	// Sort by relevance score (highest first), stable on snapshot order
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (e *Engine) searchEvent(ev radar.Event, terms []string) *Result {
	var matches []Match
	var totalScore float64

	fields := []struct {
		name   string
		text   string
		weight float64
	}{
		{"company", ev.Company, 4.0},
		{"headline", ev.Headline, 3.0},
		{"summary", ev.Summary, 1.0},
		{"source", ev.SourceLabel, 0.5},
	}
	for _, f := range fields {
		score := scoreField(f.text, terms, f.weight)
		if score <= 0 {
			continue
		}
		text := f.text
		if f.name == "summary" {
			text = findBestSnippet(f.text, terms, 80)
		}
		matches = append(matches, Match{Field: f.name, Text: text, Weight: score})
		totalScore += score
	}

	if totalScore == 0 {
		return nil
	}

	totalScore *= 1.0 + recencyBoost(ev.PublishedAt, e.now())
	return &Result{Event: ev, Score: totalScore, Matches: matches}
}

// scoreField calculates relevance score for a field
func scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)

	var score float64
	matchedTerms := 0

	for _, term := range terms {
		// Japanese text has no word breaks, so substring hits carry most weight
		if strings.Contains(lower, term) {
			score += 2.0
			matchedTerms++
		}

		for _, word := range words {
			switch {
			case word == term:
				score += 1.5
				matchedTerms++
			case strings.HasPrefix(word, term) || strings.HasSuffix(word, term):
				score += 1.0
				matchedTerms++
			case strings.Contains(word, term):
				score += 0.5
				matchedTerms++
			}
		}
	}

	if matchedTerms == 0 {
		return 0
	}

	// Boost score if multiple terms match
	if len(terms) > 1 && matchedTerms > 1 {
		score *= 1.0 + float64(matchedTerms)/float64(len(terms))
	}

	if len(words) > 0 {
		tf := float64(matchedTerms) / float64(len(words))
		score *= 1.0 + math.Log(1.0+tf)
	}

	return score * weight
}

// findBestSnippet returns a window of maxRunes around the first term hit.
func findBestSnippet(text string, terms []string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}

	lower := strings.ToLower(text)
	start := 0
	for _, term := range terms {
		if idx := strings.Index(lower, term); idx >= 0 {
			start = utf8.RuneCountInString(lower[:idx]) - maxRunes/4
			break
		}
	}
	if start < 0 {
		start = 0
	}
	if start > len(runes)-maxRunes {
		start = len(runes) - maxRunes
	}

	snippet := string(runes[start : start+maxRunes])
	if start > 0 {
		snippet = "…" + snippet
	}
	if start+maxRunes < len(runes) {
		snippet += "…"
	}
	return snippet
}

// tokenize breaks text into lower-cased letter/number runs of two or more runes.
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}
	n := 0

	flush := func() {
		if n > 1 {
			terms = append(terms, current.String())
		}
		current.Reset()
		n = 0
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
			n++
		} else {
			flush()
		}
	}
	flush()

	return terms
}

// recencyBoost gives events from the past week up to a 10% bonus.
func recencyBoost(published, now time.Time) float64 {
	if published.IsZero() {
		return 0
	}
	age := now.Sub(published)
	if age < 0 {
		age = 0
	}
	const week = 7 * 24 * time.Hour
	if age >= week {
		return 0
	}
	return 0.1 * (1 - float64(age)/float64(week))
}
