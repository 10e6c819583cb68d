package search

import "github.com/pders01/radar/internal/radar"

// Searcher answers free-text queries over the events of the latest snapshot.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
	// SearchOn restricts matches to events published on day (YYYY-MM-DD).
	SearchOn(query, day string, limit int) ([]*Result, error)
}

// Result is one matching event with its relevance score.
type Result struct {
	Event   radar.Event
	Score   float64
	Matches []Match
}

// Match represents where text was found
type Match struct {
	Field  string // "company", "headline", "summary", "source"
	Text   string
	Weight float64
}

// DebugStatser provides lightweight stats for visibility/debugging.
// Implemented by engines that can report index doc counts, etc.
type DebugStatser interface {
	DocCount() (int, error)
}

var (
	_ Searcher               = (*Engine)(nil)
	_ Searcher               = (*Index)(nil)
	_ DebugStatser           = (*Engine)(nil)
	_ DebugStatser           = (*Index)(nil)
	_ radar.SnapshotListener = (*Engine)(nil)
	_ radar.SnapshotListener = (*Index)(nil)
)
