package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pders01/radar/internal/config"
	"github.com/pders01/radar/internal/debuglog"
	"github.com/pders01/radar/internal/feed"
	"github.com/pders01/radar/internal/radar"
	"github.com/pders01/radar/internal/search"
	"github.com/pders01/radar/internal/storage"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg      *config.Config
	store    *storage.Store
	index    *search.Index
	searcher search.Searcher
	cache    *radar.Cache
}

func defaultConfigPath() string {
	return config.DefaultPath()
}

func generateConfig(path string) error {
	return config.GenerateDefaultConfig(path)
}

func loadConfig() (*config.Config, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newApp loads configuration and opens the store and search index. When
// useIndex is false the in-memory search engine is used instead of bleve.
func newApp(useIndex bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		return nil, err
	}

	store.SetRetention(cfg.Database.Retention)

	a := &app{cfg: cfg, store: store}
	var opts []radar.CacheOption
	if !offline {
		// a replayed snapshot is already stored
		opts = append(opts, radar.WithListener(store))
	}

	var indexer radar.SnapshotListener
	if useIndex && cfg.Database.SearchIndex != "" {
		idx, err := search.NewIndex(cfg.Database.SearchIndex)
		if err != nil {
			debuglog.Warnf("search index unavailable, using in-memory search: %v", err)
		} else {
			a.index = idx
			a.searcher = idx
			indexer = idx
		}
	}
	if a.searcher == nil {
		engine := search.NewEngine(nil)
		a.searcher = engine
		indexer = engine
	}
	opts = append(opts, radar.WithListener(indexer))

	if seed := a.freshSnapshot(); seed != nil {
		if err := indexer.OnSnapshot(context.Background(), seed); err != nil {
			debuglog.Warnf("indexing stored snapshot: %v", err)
		}
		opts = append(opts, radar.WithSeed(seed))
	}

	a.cache = radar.NewCache(a.loader(), cfg.Feed.CacheTTL, opts...)
	return a, nil
}

// freshSnapshot returns the stored snapshot when it is younger than the
// cache TTL, so one-shot commands do not refetch every feed.
func (a *app) freshSnapshot() *radar.Snapshot {
	if offline {
		return nil
	}
	snap, err := a.store.LatestSnapshot()
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			debuglog.Warnf("reading stored snapshot: %v", err)
		}
		return nil
	}
	ttl := a.cfg.Feed.CacheTTL
	if ttl <= 0 {
		ttl = radar.DefaultTTL
	}
	if time.Since(snap.ComputedAt) >= ttl {
		return nil
	}
	debuglog.Debugf("reusing snapshot computed at %s", snap.ComputedAt.Format(time.RFC3339))
	return snap
}

// loader fetches feeds, or replays the stored snapshot when offline.
func (a *app) loader() radar.Loader {
	if offline {
		return radar.LoaderFunc(func(context.Context) (*radar.Snapshot, error) {
			snap, err := a.store.LatestSnapshot()
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("no stored snapshot; run without --offline first")
			}
			return snap, err
		})
	}

	m := feed.NewManager(a.cfg)
	if a.cfg.Ledger.Enabled {
		m.SetLedger(a.store)
	}
	return m
}

func (a *app) Close() error {
	var errs []error
	if a.index != nil {
		errs = append(errs, a.index.Close())
	}
	errs = append(errs, a.store.Close(), debuglog.Close())
	return errors.Join(errs...)
}
