package radar

import "time"

// Tracker keeps the earliest publish time per company for one aggregation
// cycle. Classification is only meaningful once every event of the cycle
// has been observed.
type Tracker struct {
	firstSeen CompanyFirstSeen
}

func NewTracker() *Tracker {
	return &Tracker{firstSeen: make(CompanyFirstSeen)}
}

// Observe folds e into the per-company minimum.
func (t *Tracker) Observe(e Event) {
	if cur, ok := t.firstSeen[e.Company]; !ok || e.PublishedAt.Before(cur) {
		t.firstSeen[e.Company] = e.PublishedAt
	}
}

// IsNew reports whether e carries the earliest timestamp seen for its
// company. Ties count as new.
func (t *Tracker) IsNew(e Event) bool {
	first, ok := t.firstSeen[e.Company]
	return !ok || !e.PublishedAt.After(first)
}

// Classify sets NewForCompany on every event in place.
func (t *Tracker) Classify(events []Event) {
	for i := range events {
		events[i].NewForCompany = t.IsNew(events[i])
	}
}

// FirstSeen returns a copy of the per-company minimum.
func (t *Tracker) FirstSeen() CompanyFirstSeen {
	return t.firstSeen.Clone()
}

// Earliest is the first-seen time for company.
func (t *Tracker) Earliest(company string) (time.Time, bool) {
	ts, ok := t.firstSeen[company]
	return ts, ok
}
