package storage

import (
	"time"
)

// CompanyRecord is one row of the cross-cycle first-seen ledger.
type CompanyRecord struct {
	Name      string    `json:"name"`
	FirstSeen time.Time `json:"first_seen"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SnapshotInfo summarises a stored snapshot without loading its events.
type SnapshotInfo struct {
	ComputedAt time.Time `json:"computed_at"`
	Events     int       `json:"events"`
	Companies  int       `json:"companies"`
	Failed     []string  `json:"failed,omitempty"`
}
