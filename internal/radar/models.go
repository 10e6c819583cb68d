package radar

import (
	"encoding/json"
	"time"
)

// DateLayout is the calendar-day format of Event.Date.
const DateLayout = "2006-01-02"

// Source is one configured feed endpoint.
type Source struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// RawEntry is one feed item as parsed, before any filtering.
// Published is nil when the item carries no usable timestamp.
type RawEntry struct {
	Title       string
	Link        string
	GUID        string
	Description string
	Published   *time.Time
}

type Category string

const (
	CategoryFinancing Category = "financing"
	CategoryGeneral   Category = "general"
)

// Color is the display colour a calendar uses for the category.
func (c Category) Color() string {
	if c == CategoryFinancing {
		return "#FF4B4B"
	}
	return "#3D5A80"
}

// Event is the normalized, filtered and classified unit handed to
// presentation layers.
type Event struct {
	// Title is the short display label, the extracted company.
	Title       string    `json:"title"`
	Headline    string    `json:"headline"`
	PublishedAt time.Time `json:"publishedAt"`
	URL         string    `json:"url"`
	Summary     string    `json:"summary"`
	SourceLabel string    `json:"sourceLabel"`
	Company     string    `json:"company"`
	Category    Category  `json:"category"`
	// NewForCompany is set when PublishedAt is the earliest timestamp seen
	// for Company in the aggregation cycle that produced the event.
	NewForCompany bool `json:"newForCompany"`
}

// Date is PublishedAt truncated to its calendar day, in the timestamp's own
// location. Feeds that encode Japan time without an offset keep their wall
// clock day.
func (e Event) Date() string {
	return DayOf(e.PublishedAt)
}

// DayOf formats t as a calendar day without converting its location.
func DayOf(t time.Time) string {
	return t.Format(DateLayout)
}

type eventJSON Event

// MarshalJSON adds the derived "date" field.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		eventJSON
		Date string `json:"date"`
	}{eventJSON(e), e.Date()})
}

// CompanyFirstSeen maps a company identifier to the earliest publish time
// observed for it.
type CompanyFirstSeen map[string]time.Time

// Clone returns an independent copy.
func (h CompanyFirstSeen) Clone() CompanyFirstSeen {
	if h == nil {
		return nil
	}
	out := make(CompanyFirstSeen, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
