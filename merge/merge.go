// Package merge reconciles the archive with the live store.
package merge

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/pevans/newsdesk"
	"github.com/pevans/newsdesk/archive"
	"github.com/pevans/newsdesk/logger"
	"github.com/pevans/newsdesk/store"
)

// DefaultCacheTTL is how long a loaded table is served from cache.
const DefaultCacheTTL = 600 * time.Second

const cacheKey = "newsdesk:table"

// Publisher receives the archive after every advance.
type Publisher interface {
	Put(ctx context.Context, records []newsdesk.Record) error
}

// Merger produces the unified table from the archive and the live store.
type Merger struct {
	archive   *archive.Archive
	live      store.LiveStore
	log       *logger.Logger
	cache     Cache
	cacheTTL  time.Duration
	publisher Publisher
}

// Option configures a Merger.
type Option func(*Merger)

// WithCache serves Load from cache for ttl.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(m *Merger) {
		m.cache = cache
		m.cacheTTL = ttl
	}
}

// WithPublisher copies the archive to publisher after every advance.
func WithPublisher(p Publisher) Option {
	return func(m *Merger) {
		m.publisher = p
	}
}

// NewMerger creates a merger over the archive and the live store.
func NewMerger(a *archive.Archive, live store.LiveStore, log *logger.Logger, opts ...Option) *Merger {
	if log == nil {
		log = logger.Discard()
	}
	m := &Merger{
		archive:  a,
		live:     live,
		log:      log,
		cacheTTL: DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AdvanceResult describes one archive advance.
type AdvanceResult struct {
	Previous  string
	Watermark string
	// Fetched is the number of live records after the previous watermark.
	Fetched int
	// Added is the growth of the archive.
	Added int
}

// Load returns the archive plus the live records after the archive
// watermark, deduplicated by address with the live version winning. A live
// store failure degrades to the archive alone.
func (m *Merger) Load(ctx context.Context) ([]newsdesk.Record, error) {
	if m.cache != nil {
		records, ok, err := m.cache.Get(ctx, cacheKey)
		if err != nil {
			m.log.Warn("cache read failed", "error", err)
		} else if ok {
			return records, nil
		}
	}

	base, err := m.archive.Load()
	if err != nil {
		return nil, err
	}
	watermark := archive.Watermark(base)

	delta, err := m.live.After(ctx, watermark)
	if err != nil {
		m.log.Error("live store unavailable, serving archive only", "watermark", watermark, "error", err)
		return Union(base, nil), nil
	}
	delta = Since(delta, watermark)

	table := Union(base, delta)
	m.log.Info("table loaded",
		"watermark", watermark,
		"archived", len(base),
		"live", len(delta),
		"total", len(table))

	if m.cache != nil {
		if err := m.cache.Set(ctx, cacheKey, table, m.cacheTTL); err != nil {
			m.log.Warn("cache write failed", "error", err)
		}
	}

	return table, nil
}

// Advance folds the live records after the watermark into the archive and
// persists it. The watermark never moves backwards.
func (m *Merger) Advance(ctx context.Context) (*AdvanceResult, error) {
	base, err := m.archive.Load()
	if err != nil {
		return nil, err
	}
	previous := archive.Watermark(base)

	delta, err := m.live.After(ctx, previous)
	if err != nil {
		return nil, fmt.Errorf("failed to query live store: %w", err)
	}
	delta = Since(delta, previous)

	current := Union(base, nil)
	table := Union(base, delta)
	result := &AdvanceResult{
		Previous:  previous,
		Watermark: archive.Watermark(table),
		Fetched:   len(delta),
		Added:     len(table) - len(current),
	}

	if slices.EqualFunc(current, table, sameRecord) {
		m.log.Info("archive already current", "watermark", previous, "fetched", len(delta))
		return result, nil
	}

	if err := m.archive.Save(table); err != nil {
		return nil, err
	}

	if m.cache != nil {
		if err := m.cache.Delete(ctx, cacheKey); err != nil {
			m.log.Warn("cache invalidation failed", "error", err)
		}
	}

	if m.publisher != nil {
		if err := m.publisher.Put(ctx, table); err != nil {
			m.log.Error("archive publish failed", "error", err)
		}
	}

	m.log.Info("archive advanced",
		"previous", previous,
		"watermark", result.Watermark,
		"fetched", result.Fetched,
		"added", result.Added)

	return result, nil
}

// Since keeps the records dated on or after the watermark day, rewriting
// listing-style dates into DateLayout form. Stores compare date_str as text,
// so slash-dated rows of any day come back from After.
func Since(records []newsdesk.Record, watermark string) []newsdesk.Record {
	kept := make([]newsdesk.Record, 0, len(records))
	for _, r := range records {
		r.DateStr = newsdesk.NormalizeDateStr(r.DateStr)
		if day := r.Day(); day != "" && day >= watermark {
			kept = append(kept, r)
		}
	}
	return kept
}

func sameRecord(a, b newsdesk.Record) bool {
	return a.Title == b.Title &&
		a.Body == b.Body &&
		a.DateStr == b.DateStr &&
		a.Category == b.Category &&
		a.Byline == b.Byline &&
		a.Address == b.Address &&
		slices.Equal(a.Keywords, b.Keywords)
}

// Union concatenates base and delta and removes duplicate addresses. The
// last record seen for an address wins and keeps the position of the first
// occurrence. Records without an address are dropped.
func Union(base, delta []newsdesk.Record) []newsdesk.Record {
	index := make(map[string]int, len(base)+len(delta))
	table := make([]newsdesk.Record, 0, len(base)+len(delta))

	add := func(r newsdesk.Record) {
		address := newsdesk.NormalizeAddress(r.Address)
		if address == "" {
			return
		}
		if i, ok := index[address]; ok {
			table[i] = r
			return
		}
		index[address] = len(table)
		table = append(table, r)
	}

	for _, r := range base {
		add(r)
	}
	for _, r := range delta {
		add(r)
	}

	return table
}
