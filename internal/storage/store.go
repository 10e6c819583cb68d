package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pders01/radar/internal/debuglog"
	"github.com/pders01/radar/internal/radar"
)

var (
	snapshotsBucket = []byte("snapshots")
	companiesBucket = []byte("companies")
	metaBucket      = []byte("metadata")
)

// DefaultRetention is the number of snapshots kept before the oldest are pruned.
const DefaultRetention = 24

var ErrNotFound = errors.New("not found")

// Store persists aggregation snapshots and the first-seen ledger.
type Store struct {
	db     *bolt.DB
	retain int
	now    func() time.Time
}

// Open opens or creates the database at dbPath, waiting up to timeout for
// the file lock held by another process.
func Open(dbPath string, timeout time.Duration) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{snapshotsBucket, companiesBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db, retain: DefaultRetention, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SetRetention changes how many snapshots are kept; n < 1 keeps one.
func (s *Store) SetRetention(n int) {
	if n < 1 {
		n = 1
	}
	s.retain = n
}

func snapshotKey(t time.Time) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(t.UnixNano()))
	return key
}

// SaveSnapshot stores snap keyed by its computation time and prunes
// snapshots beyond the retention limit.
func (s *Store) SaveSnapshot(snap *radar.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	info := SnapshotInfo{
		ComputedAt: snap.ComputedAt,
		Events:     len(snap.Events),
		Companies:  len(snap.History),
	}
	for _, r := range snap.Sources {
		if r.Error != "" {
			info.Failed = append(info.Failed, r.Label)
		}
	}
	meta, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encoding snapshot info: %w", err)
	}

	key := snapshotKey(snap.ComputedAt)
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(snapshotsBucket).Put(key, data); err != nil {
			return err
		}
		if err := tx.Bucket(metaBucket).Put(key, meta); err != nil {
			return err
		}
		return s.pruneLocked(tx)
	})
}

func (s *Store) pruneLocked(tx *bolt.Tx) error {
	snaps := tx.Bucket(snapshotsBucket)
	meta := tx.Bucket(metaBucket)

	var keys [][]byte
	c := snaps.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}
	if len(keys) <= s.retain {
		return nil
	}

	stale := keys[:len(keys)-s.retain]
	for _, k := range stale {
		if err := snaps.Delete(k); err != nil {
			return err
		}
		if err := meta.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// LatestSnapshot returns the most recently computed snapshot, or
// ErrNotFound when none has been stored.
func (s *Store) LatestSnapshot() (*radar.Snapshot, error) {
	var snap radar.Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		_, data := tx.Bucket(snapshotsBucket).Cursor().Last()
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &snap)
	})
	if err != nil {
		return nil, err
	}
	if snap.Events == nil {
		snap.Events = []radar.Event{}
	}
	return &snap, nil
}

// Snapshots lists stored snapshot summaries, newest first. limit <= 0
// returns all of them.
func (s *Store) Snapshots(limit int) ([]SnapshotInfo, error) {
	var infos []SnapshotInfo
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(metaBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var info SnapshotInfo
			if err := json.Unmarshal(v, &info); err != nil {
				continue
			}
			infos = append(infos, info)
			if limit > 0 && len(infos) == limit {
				break
			}
		}
		return nil
	})
	return infos, err
}

// MergeFirstSeen folds history into the companies ledger, keeping the
// earliest timestamp per company, and returns the merged all-time map.
func (s *Store) MergeFirstSeen(history radar.CompanyFirstSeen) (radar.CompanyFirstSeen, error) {
	merged := radar.CompanyFirstSeen{}
	now := s.now()

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(companiesBucket)
		for name, seen := range history {
			var rec CompanyRecord
			if data := b.Get([]byte(name)); data != nil {
				if err := json.Unmarshal(data, &rec); err != nil {
					return fmt.Errorf("decoding ledger entry %q: %w", name, err)
				}
				if !seen.Before(rec.FirstSeen) {
					continue
				}
			}
			rec = CompanyRecord{Name: name, FirstSeen: seen, UpdatedAt: now}
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(name), data); err != nil {
				return err
			}
		}

		return b.ForEach(func(_ []byte, v []byte) error {
			var rec CompanyRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			merged[rec.Name] = rec.FirstSeen
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// Companies returns the ledger sorted by first-seen time, newest first.
func (s *Store) Companies() ([]CompanyRecord, error) {
	var records []CompanyRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(companiesBucket).ForEach(func(_ []byte, v []byte) error {
			var rec CompanyRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return nil
			}
			records = append(records, rec)
			return nil
		})
	})
	sort.Slice(records, func(i, j int) bool {
		if records[i].FirstSeen.Equal(records[j].FirstSeen) {
			return records[i].Name < records[j].Name
		}
		return records[i].FirstSeen.After(records[j].FirstSeen)
	})
	return records, err
}

// OnSnapshot persists every recomputed snapshot.
func (s *Store) OnSnapshot(_ context.Context, snap *radar.Snapshot) error {
	if err := s.SaveSnapshot(snap); err != nil {
		return err
	}
	debuglog.Debugf("stored snapshot %s (%d events)", snap.ComputedAt.Format(time.RFC3339), len(snap.Events))
	return nil
}
