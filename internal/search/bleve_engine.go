package search

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/radar/internal/debuglog"
	"github.com/pders01/radar/internal/radar"
)

const defaultLimit = 20

// Index is a bleve full-text index over snapshot events. Japanese text is
// analysed into CJK bigrams so queries match without word segmentation.
type Index struct {
	idx bleve.Index

	mu      sync.Mutex
	indexed int
}

// NewIndex creates or opens a bleve index at indexPath.
func NewIndex(indexPath string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating index: %w", err)
		}
	}

	n, err := idx.DocCount()
	if err != nil {
		idx.Close()
		return nil, fmt.Errorf("counting documents: %w", err)
	}
	return &Index{idx: idx, indexed: int(n)}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = cjk.AnalyzerName

	dm := bleve.NewDocumentMapping()
	dm.Dynamic = false

	text := func(store bool) *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = cjk.AnalyzerName
		fm.Store = store
		return fm
	}

	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keyword.Name
	exact.IncludeInAll = false

	// the full event, returned with each hit
	raw := bleve.NewTextFieldMapping()
	raw.Index = false
	raw.Store = true
	raw.IncludeInAll = false

	dm.AddFieldMappingsAt("company", text(true))
	dm.AddFieldMappingsAt("headline", text(true))
	dm.AddFieldMappingsAt("summary", text(false))
	dm.AddFieldMappingsAt("source", text(false))
	dm.AddFieldMappingsAt("date", exact)
	dm.AddFieldMappingsAt("category", exact)
	dm.AddFieldMappingsAt("raw", raw)

	im.DefaultMapping = dm
	return im
}

func docID(i int) string { return "event:" + strconv.Itoa(i) }

// OnSnapshot replaces the indexed events with those of snap.
func (x *Index) OnSnapshot(_ context.Context, snap *radar.Snapshot) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	batch := x.idx.NewBatch()
	for i, e := range snap.Events {
		raw, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encoding event: %w", err)
		}
		if err := batch.Index(docID(i), map[string]any{
			"company":  e.Company,
			"headline": e.Headline,
			"summary":  e.Summary,
			"source":   e.SourceLabel,
			"date":     e.Date(),
			"category": string(e.Category),
			"raw":      string(raw),
		}); err != nil {
			return err
		}
	}
	for i := len(snap.Events); i < x.indexed; i++ {
		batch.Delete(docID(i))
	}
	if err := x.idx.Batch(batch); err != nil {
		return fmt.Errorf("indexing snapshot: %w", err)
	}

	x.indexed = len(snap.Events)
	debuglog.Debugf("search index holds %d events", x.indexed)
	return nil
}

// Search matches query against company, headline, summary and source,
// requiring every analysed term to appear within a field.
func (x *Index) Search(query string, limit int) ([]*Result, error) {
	return x.search(query, "", limit)
}

// SearchOn is Search restricted to events published on day (YYYY-MM-DD).
func (x *Index) SearchOn(query, day string, limit int) ([]*Result, error) {
	return x.search(query, day, limit)
}

func (x *Index) search(query, day string, limit int) ([]*Result, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < 2 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	fields := []struct {
		name  string
		boost float64
	}{
		{"company", 4.0},
		{"headline", 3.0},
		{"summary", 1.0},
		{"source", 0.5},
	}
	var qs []bleveQuery.Query
	for _, f := range fields {
		mq := bleve.NewMatchQuery(query)
		mq.SetField(f.name)
		mq.SetBoost(f.boost)
		mq.SetOperator(bleveQuery.MatchQueryOperatorAnd)
		qs = append(qs, mq)
	}

	var q bleveQuery.Query = bleve.NewDisjunctionQuery(qs...)
	if day != "" {
		tq := bleve.NewTermQuery(day)
		tq.SetField("date")
		q = bleve.NewConjunctionQuery(q, tq)
	}

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{"raw"}
	res, err := x.idx.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		raw, ok := h.Fields["raw"].(string)
		if !ok {
			continue
		}
		var e radar.Event
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			debuglog.Warnf("skipping undecodable hit %s: %v", h.ID, err)
			continue
		}
		out = append(out, &Result{Event: e, Score: h.Score})
	}
	return out, nil
}

// DocCount reports total documents in the index.
func (x *Index) DocCount() (int, error) {
	n, err := x.idx.DocCount()
	return int(n), err
}

func (x *Index) Close() error {
	return x.idx.Close()
}
