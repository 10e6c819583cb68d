package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/radar/internal/config"
	"github.com/pders01/radar/internal/radar"
)

const bridgeFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>bridge</title>
	<item>
		<title>XYZ合同会社が新サービス</title>
		<link>https://bridge.test/xyz-2</link>
		<pubDate>Sun, 03 Mar 2024 09:00:00 +0900</pubDate>
	</item>
	<item>
		<title>スイーツ専門店の新商品発表</title>
		<link>https://bridge.test/sweets</link>
		<pubDate>Sat, 02 Mar 2024 09:00:00 +0900</pubDate>
	</item>
</channel></rss>`

const fundingFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>funding</title>
	<item>
		<title>ABC株式会社が資金調達を実施</title>
		<link>https://funding.test/abc</link>
		<description>シードで1億円&lt;br&gt;続きを読む</description>
		<pubDate>Sat, 02 Mar 2024 10:00:00 +0900</pubDate>
	</item>
	<item>
		<title>XYZ合同会社がシリーズA</title>
		<link>https://funding.test/xyz-1</link>
		<pubDate>Fri, 01 Mar 2024 09:00:00 +0900</pubDate>
	</item>
</channel></rss>`

func feedServer(t *testing.T, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func testManager(t *testing.T, workers int, sources ...config.Source) *Manager {
	t.Helper()
	cfg := config.TestConfig()
	cfg.Feed.MaxConcurrent = workers
	cfg.Sources = sources
	require.NoError(t, cfg.Validate())
	return NewManager(cfg)
}

func TestManagerLoad(t *testing.T) {
	bridge := feedServer(t, bridgeFeed, nil)
	funding := feedServer(t, fundingFeed, nil)
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(broken.Close)

	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			m := testManager(t, workers,
				config.Source{Label: "💡 THE BRIDGE", URL: bridge.URL},
				config.Source{Label: "down", URL: broken.URL},
				config.Source{Label: "🚀 資金調達(Google)", URL: funding.URL},
			)

			snap, err := m.Load(context.Background())
			require.NoError(t, err)

			// configuration order, then feed order; sweets entry excluded
			require.Len(t, snap.Events, 3)
			assert.Equal(t, "https://bridge.test/xyz-2", snap.Events[0].URL)
			assert.Equal(t, "https://funding.test/abc", snap.Events[1].URL)
			assert.Equal(t, "https://funding.test/xyz-1", snap.Events[2].URL)

			abc := snap.Events[1]
			assert.Equal(t, "ABC株式会社", abc.Company)
			assert.Equal(t, radar.CategoryFinancing, abc.Category)
			assert.Equal(t, "シードで1億円", abc.Summary)
			assert.Equal(t, "2024-03-02", abc.Date())

			// XYZ appears in two sources; the minimum spans both
			assert.False(t, snap.Events[0].NewForCompany)
			assert.True(t, snap.Events[2].NewForCompany)
			assert.Equal(t, "2024-03-01", radar.DayOf(snap.History["XYZ合同会社"]))
			assert.Len(t, snap.History, 2)

			require.Len(t, snap.Sources, 3)
			assert.Equal(t, radar.SourceReport{Label: "💡 THE BRIDGE", Entries: 2, Events: 1}, snap.Sources[0])
			assert.Equal(t, "down", snap.Sources[1].Label)
			assert.Contains(t, snap.Sources[1].Error, "HTTP error: 502")
			assert.Equal(t, 2, snap.Sources[2].Events)
		})
	}
}

func TestManagerLoadAllSourcesFail(t *testing.T) {
	m := testManager(t, 2, config.Source{Label: "nowhere", URL: "http://127.0.0.1:1/feed"})

	snap, err := m.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Events)
	assert.Empty(t, snap.History)
	assert.NotEmpty(t, snap.Sources[0].Error)
}

func TestManagerLoadCancelled(t *testing.T) {
	m := testManager(t, 1, config.Source{Label: "funding", URL: feedServer(t, fundingFeed, nil).URL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type memoryLedger struct {
	mu   sync.Mutex
	seen radar.CompanyFirstSeen
}

func (l *memoryLedger) MergeFirstSeen(history radar.CompanyFirstSeen) (radar.CompanyFirstSeen, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen == nil {
		l.seen = radar.CompanyFirstSeen{}
	}
	for k, v := range history {
		if cur, ok := l.seen[k]; !ok || v.Before(cur) {
			l.seen[k] = v
		}
	}
	return l.seen.Clone(), nil
}

func TestManagerLedger(t *testing.T) {
	m := testManager(t, 1, config.Source{Label: "funding", URL: feedServer(t, fundingFeed, nil).URL})

	earlier := time.Date(2023, 12, 1, 9, 0, 0, 0, time.UTC)
	ledger := &memoryLedger{seen: radar.CompanyFirstSeen{"ABC株式会社": earlier}}
	m.SetLedger(ledger)

	snap, err := m.Load(context.Background())
	require.NoError(t, err)

	abc := snap.Events[0]
	assert.True(t, abc.NewForCompany, "new within the cycle")
	assert.False(t, snap.IsNewAllTime(abc), "but seen in an earlier cycle")
	assert.True(t, snap.Ledger["ABC株式会社"].Equal(earlier))
	assert.Contains(t, snap.Ledger, "XYZ合同会社")
}

func TestManagerWithCache(t *testing.T) {
	var hits atomic.Int32
	m := testManager(t, 2, config.Source{Label: "funding", URL: feedServer(t, fundingFeed, &hits).URL})
	cache := radar.NewCache(m, time.Hour)

	first, err := cache.Get(context.Background())
	require.NoError(t, err)
	second, err := cache.Get(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), hits.Load(), "cache hit must not refetch")

	cache.Invalidate()
	_, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestManagerSources(t *testing.T) {
	m := testManager(t, 1,
		config.Source{Label: "a", URL: "http://127.0.0.1:1/a"},
		config.Source{Label: "b", URL: "http://127.0.0.1:1/b"},
	)
	got := m.Sources()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Label)

	got[0].Label = "mutated"
	assert.Equal(t, "a", m.Sources()[0].Label)
}
