package radar

import (
	"sort"
	"time"
)

// Snapshot is the output of one aggregation cycle. Snapshots handed out by
// the Cache are shared and must be treated as read-only.
type Snapshot struct {
	ComputedAt time.Time        `json:"computedAt"`
	Events     []Event          `json:"events"`
	History    CompanyFirstSeen `json:"history"`
	// Ledger is the all-time first-seen map when a persistent ledger is
	// configured, nil otherwise.
	Ledger CompanyFirstSeen `json:"ledger,omitempty"`
	// Sources reports the outcome of each source fetch, in configuration order.
	Sources []SourceReport `json:"sources,omitempty"`
}

// SourceReport records how one source fared in a cycle. A failed source
// contributes no events; Error carries the reason.
type SourceReport struct {
	Label   string `json:"label"`
	Entries int    `json:"entries"`
	Events  int    `json:"events"`
	Error   string `json:"error,omitempty"`
}

// NewSnapshot runs the history tracker over events, which must already be
// in source configuration order, and classifies them.
func NewSnapshot(computedAt time.Time, events []Event) *Snapshot {
	tracker := NewTracker()
	for _, e := range events {
		tracker.Observe(e)
	}
	tracker.Classify(events)

	if events == nil {
		events = []Event{}
	}
	return &Snapshot{
		ComputedAt: computedAt,
		Events:     events,
		History:    tracker.FirstSeen(),
	}
}

// Dates returns the distinct event days in ascending order.
func (s *Snapshot) Dates() []string {
	seen := make(map[string]bool)
	var days []string
	for _, e := range s.Events {
		d := e.Date()
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Strings(days)
	return days
}

// On returns the events published on day (YYYY-MM-DD), in snapshot order.
func (s *Snapshot) On(day string) []Event {
	var out []Event
	for _, e := range s.Events {
		if e.Date() == day {
			out = append(out, e)
		}
	}
	return out
}

// ByDate partitions the events by calendar day.
func (s *Snapshot) ByDate() map[string][]Event {
	out := make(map[string][]Event)
	for _, e := range s.Events {
		d := e.Date()
		out[d] = append(out[d], e)
	}
	return out
}

// IsNewAllTime reports novelty against the persistent ledger, falling back
// to the per-cycle classification when no ledger is attached.
func (s *Snapshot) IsNewAllTime(e Event) bool {
	if s.Ledger == nil {
		return e.NewForCompany
	}
	first, ok := s.Ledger[e.Company]
	return !ok || !e.PublishedAt.After(first)
}

// Companies returns the tracked company identifiers sorted by first-seen
// time, newest first.
func (s *Snapshot) Companies() []string {
	names := make([]string, 0, len(s.History))
	for name := range s.History {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ti, tj := s.History[names[i]], s.History[names[j]]
		if ti.Equal(tj) {
			return names[i] < names[j]
		}
		return ti.After(tj)
	})
	return names
}
