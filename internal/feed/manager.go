package feed

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pders01/radar/internal/classify"
	"github.com/pders01/radar/internal/config"
	"github.com/pders01/radar/internal/debuglog"
	"github.com/pders01/radar/internal/plugins"
	"github.com/pders01/radar/internal/plugins/user"
	"github.com/pders01/radar/internal/radar"
)

// Ledger persists first-seen timestamps across aggregation cycles.
type Ledger interface {
	// MergeFirstSeen folds history into the stored map, keeping the minimum
	// per company, and returns the merged all-time map.
	MergeFirstSeen(history radar.CompanyFirstSeen) (radar.CompanyFirstSeen, error)
}

// Manager runs aggregation cycles over the configured sources. It
// implements radar.Loader.
type Manager struct {
	sources  []radar.Source
	fetcher  *Fetcher
	parser   *Parser
	pipeline *radar.Pipeline
	plugins  *plugins.Registry
	workers  int
	ledger   Ledger
	now      func() time.Time
	mu       sync.RWMutex
}

func NewManager(cfg *config.Config) *Manager {
	sources := make([]radar.Source, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		sources = append(sources, radar.Source{Label: s.Label, URL: s.URL})
	}

	pipeline := radar.NewPipeline(
		classify.NewKeywordFilter(cfg.Filter.Exclude, cfg.Filter.Include),
		classify.PatternExtractor{},
		radar.NewNormalizer(radar.NormalizerOptions{
			FinancingMarkers: cfg.Filter.FinancingMarkers,
			ReadMoreMarkers:  cfg.Summary.ReadMoreMarkers,
			MaxSummaryLength: cfg.Summary.MaxLength,
		}),
	)

	workers := cfg.Feed.MaxConcurrent
	if workers < 1 {
		workers = 1
	}

	return &Manager{
		sources:  sources,
		fetcher:  NewFetcher(cfg),
		parser:   NewParser(),
		pipeline: pipeline,
		plugins:  plugins.NewRegistry(user.NewGoogleNewsPlugin()),
		workers:  workers,
		now:      time.Now,
	}
}

// SetLedger attaches a persistent first-seen ledger; nil detaches it.
func (m *Manager) SetLedger(l Ledger) {
	m.mu.Lock()
	m.ledger = l
	m.mu.Unlock()
}

// Sources returns the configured sources in order.
func (m *Manager) Sources() []radar.Source {
	return append([]radar.Source(nil), m.sources...)
}

// FetchSource fetches and parses one source and applies its host plugin.
func (m *Manager) FetchSource(ctx context.Context, src radar.Source) ([]radar.RawEntry, error) {
	body, err := m.fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	entries, err := m.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return m.plugins.Apply(src, entries), nil
}

type sourceResult struct {
	events []radar.Event
	report radar.SourceReport
}

// Load runs one full aggregation cycle. A failing source contributes no
// events and is recorded in the snapshot's source reports. Load only fails
// when ctx is done, so a cancelled cycle never replaces a cached one.
func (m *Manager) Load(ctx context.Context) (*radar.Snapshot, error) {
	results := make([]sourceResult, len(m.sources))

	// Worker pool; results are stored by source index so that configuration
	// order survives parallel fetching.
	jobs := make(chan int, len(m.sources))
	var wg sync.WaitGroup
	for i := 0; i < m.workers && i < len(m.sources); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = m.collect(ctx, m.sources[idx])
			}
		}()
	}
	for i := range m.sources {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("aggregation cancelled: %w", err)
	}

	var events []radar.Event
	reports := make([]radar.SourceReport, 0, len(results))
	for _, r := range results {
		events = append(events, r.events...)
		reports = append(reports, r.report)
	}

	snap := radar.NewSnapshot(m.now(), events)
	snap.Sources = reports

	m.mu.RLock()
	ledger := m.ledger
	m.mu.RUnlock()
	if ledger != nil {
		allTime, err := ledger.MergeFirstSeen(snap.History)
		if err != nil {
			debuglog.Warnf("merging first-seen ledger: %v", err)
		} else {
			snap.Ledger = allTime
		}
	}

	return snap, nil
}

func (m *Manager) collect(ctx context.Context, src radar.Source) sourceResult {
	report := radar.SourceReport{Label: src.Label}
	log := debuglog.WithFields(debuglog.Fields{"source": src.Label, "url": src.URL})

	entries, err := m.FetchSource(ctx, src)
	if err != nil {
		log.Warnf("skipping source: %v", err)
		report.Error = err.Error()
		return sourceResult{report: report}
	}

	events := m.pipeline.Process(src, entries)
	report.Entries = len(entries)
	report.Events = len(events)
	log.Debugf("%d of %d entries kept", len(events), len(entries))
	return sourceResult{events: events, report: report}
}
