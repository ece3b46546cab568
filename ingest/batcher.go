// Package ingest writes records into the live store in bounded atomic
// groups.
package ingest

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/pevans/newsdesk"
	"github.com/pevans/newsdesk/logger"
	"github.com/pevans/newsdesk/store"
)

// Config holds the batcher settings.
type Config struct {
	// GroupSize is the number of records per atomic write, at most
	// store.MaxGroupSize.
	GroupSize int
	// Concurrency is the number of groups written in parallel.
	Concurrency int
}

// DefaultConfig returns full-size groups written four at a time.
func DefaultConfig() Config {
	return Config{
		GroupSize:   store.MaxGroupSize,
		Concurrency: 4,
	}
}

// GroupError reports one failed group. The group was not retried and
// earlier groups were not rolled back.
type GroupError struct {
	Index int
	Size  int
	Err   error
}

func (e GroupError) Error() string {
	return fmt.Sprintf("group %d (%d records): %v", e.Index, e.Size, e.Err)
}

func (e GroupError) Unwrap() error {
	return e.Err
}

// Result summarizes one Upsert call.
type Result struct {
	Written int
	// Skipped counts records without an address.
	Skipped int
	// Collapsed counts records replaced by a later record with the same
	// identity in the same call.
	Collapsed int
	Groups    int
	Failed    []GroupError
}

// Err joins the group failures, or returns nil.
func (r *Result) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	msgs := make([]string, len(r.Failed))
	for i, f := range r.Failed {
		msgs[i] = f.Error()
	}
	return fmt.Errorf("%d of %d groups failed: %s", len(r.Failed), r.Groups, strings.Join(msgs, "; "))
}

// Batcher partitions records and upserts each partition atomically.
type Batcher struct {
	store     store.LiveStore
	config    Config
	log       *logger.Logger
	semaphore chan struct{}
}

// NewBatcher creates a batcher writing into live.
func NewBatcher(live store.LiveStore, config Config, log *logger.Logger) *Batcher {
	if config.GroupSize <= 0 || config.GroupSize > store.MaxGroupSize {
		config.GroupSize = store.MaxGroupSize
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if log == nil {
		log = logger.Discard()
	}

	return &Batcher{
		store:     live,
		config:    config,
		log:       log,
		semaphore: make(chan struct{}, config.Concurrency),
	}
}

// Upsert writes records keyed by identity. Failed groups are reported in
// the result; the other groups are still written.
func (b *Batcher) Upsert(ctx context.Context, records []newsdesk.Record) *Result {
	unique, skipped, collapsed := collapse(records)
	groups := Partition(unique, b.config.GroupSize)

	result := &Result{
		Skipped:   skipped,
		Collapsed: collapsed,
		Groups:    len(groups),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for i, group := range groups {
		wg.Add(1)
		go func(index int, group []newsdesk.Record) {
			defer wg.Done()

			b.semaphore <- struct{}{}
			defer func() { <-b.semaphore }()

			err := b.store.UpsertGroup(ctx, group)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				b.log.Error("group write failed", "group", index, "size", len(group), "error", err)
				result.Failed = append(result.Failed, GroupError{Index: index, Size: len(group), Err: err})
				return
			}
			result.Written += len(group)
			b.log.Debug("group written", "group", index, "size", len(group))
		}(i, group)
	}

	wg.Wait()

	slices.SortFunc(result.Failed, func(a, b GroupError) int { return a.Index - b.Index })
	b.log.Info("upsert finished",
		"written", result.Written,
		"groups", result.Groups,
		"failed_groups", len(result.Failed),
		"skipped", result.Skipped)

	return result
}

// UpsertArticles converts articles to records and upserts them.
func (b *Batcher) UpsertArticles(ctx context.Context, articles []newsdesk.Article) *Result {
	records := make([]newsdesk.Record, len(articles))
	for i, a := range articles {
		records[i] = a.Record()
	}
	return b.Upsert(ctx, records)
}

// Partition splits records into consecutive groups of at most size.
func Partition(records []newsdesk.Record, size int) [][]newsdesk.Record {
	if size <= 0 {
		size = store.MaxGroupSize
	}
	groups := make([][]newsdesk.Record, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		groups = append(groups, records[start:end])
	}
	return groups
}

// collapse drops records without an address and keeps the last record per
// identity at the position of its first occurrence.
func collapse(records []newsdesk.Record) ([]newsdesk.Record, int, int) {
	index := make(map[string]int, len(records))
	unique := make([]newsdesk.Record, 0, len(records))
	skipped, collapsed := 0, 0

	for _, r := range records {
		if newsdesk.NormalizeAddress(r.Address) == "" {
			skipped++
			continue
		}
		id := r.Identity()
		if i, ok := index[id]; ok {
			unique[i] = r
			collapsed++
			continue
		}
		index[id] = len(unique)
		unique = append(unique, r)
	}

	return unique, skipped, collapsed
}

