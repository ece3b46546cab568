package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pevans/newsdesk"
	"github.com/pevans/newsdesk/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: create a test SQLite live store
func createTestLiveStore(t *testing.T) *store.SQLiteStore {
	live, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "live.db"))
	require.NoError(t, err, "should create live store")
	t.Cleanup(func() { live.Close() })
	return live
}

// Test helper: create n distinct records
func sampleRecords(n int) []newsdesk.Record {
	records := make([]newsdesk.Record, n)
	for i := range records {
		records[i] = newsdesk.Record{
			Title:    fmt.Sprintf("標題 %d", i),
			Body:     "內文",
			DateStr:  "2025-12-01 08:00",
			Category: "社會",
			Byline:   newsdesk.UnknownByline,
			Address:  fmt.Sprintf("https://www.ettoday.net/news/%d.htm", i),
			Keywords: newsdesk.Keywords{},
		}
	}
	return records
}

// recordingStore captures group sizes and fails chosen groups by their
// first address.
type recordingStore struct {
	mu       sync.Mutex
	sizes    []int
	failOn   map[string]bool
	inFlight int
	peak     int
	delay    time.Duration
}

func (s *recordingStore) UpsertGroup(ctx context.Context, records []newsdesk.Record) error {
	s.mu.Lock()
	s.inFlight++
	s.peak = max(s.peak, s.inFlight)
	s.sizes = append(s.sizes, len(records))
	fail := s.failOn[records[0].Address]
	s.mu.Unlock()

	time.Sleep(s.delay)

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()

	if fail {
		return errors.New("quota exceeded")
	}
	return nil
}

func (s *recordingStore) After(ctx context.Context, watermark string) ([]newsdesk.Record, error) {
	return nil, nil
}

func (s *recordingStore) Count(ctx context.Context) (int64, error) { return 0, nil }

func (s *recordingStore) Close() error { return nil }

// TestPartition verifies group boundaries
func TestPartition(t *testing.T) {
	records := sampleRecords(1001)

	groups := Partition(records, 400)

	require.Len(t, groups, 3)
	assert.Len(t, groups[0], 400)
	assert.Len(t, groups[1], 400)
	assert.Len(t, groups[2], 201)
	assert.Equal(t, records[400].Address, groups[1][0].Address)

	assert.Empty(t, Partition(nil, 400))
	assert.Len(t, Partition(sampleRecords(400), 400), 1)
}

// TestBatcher_Upsert verifies every record lands in the store
func TestBatcher_Upsert(t *testing.T) {
	live := createTestLiveStore(t)
	batcher := NewBatcher(live, DefaultConfig(), nil)
	ctx := context.Background()

	result := batcher.Upsert(ctx, sampleRecords(950))

	require.NoError(t, result.Err())
	assert.Equal(t, 950, result.Written)
	assert.Equal(t, 3, result.Groups)

	count, err := live.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(950), count)
}

// TestBatcher_Idempotent verifies re-ingesting identical records changes
// nothing
func TestBatcher_Idempotent(t *testing.T) {
	live := createTestLiveStore(t)
	batcher := NewBatcher(live, DefaultConfig(), nil)
	ctx := context.Background()
	records := sampleRecords(10)

	require.NoError(t, batcher.Upsert(ctx, records).Err())
	before, err := live.After(ctx, "")
	require.NoError(t, err)

	require.NoError(t, batcher.Upsert(ctx, records).Err())
	after, err := live.After(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, before, after)
}

// TestBatcher_LatestWins verifies a later upsert of the same address
// replaces the stored values
func TestBatcher_LatestWins(t *testing.T) {
	live := createTestLiveStore(t)
	batcher := NewBatcher(live, DefaultConfig(), nil)
	ctx := context.Background()

	record := sampleRecords(1)[0]
	require.NoError(t, batcher.Upsert(ctx, []newsdesk.Record{record}).Err())

	record.Title = "第二版"
	require.NoError(t, batcher.Upsert(ctx, []newsdesk.Record{record}).Err())

	got, err := live.Get(ctx, record.Identity())
	require.NoError(t, err)
	assert.Equal(t, "第二版", got.Title)
}

// TestBatcher_CollapsesDuplicates verifies duplicates within a call keep
// the last value
func TestBatcher_CollapsesDuplicates(t *testing.T) {
	live := createTestLiveStore(t)
	batcher := NewBatcher(live, DefaultConfig(), nil)
	ctx := context.Background()

	records := sampleRecords(2)
	dup := records[0]
	dup.Title = "較新"
	noAddress := records[1]
	noAddress.Address = "  "

	result := batcher.Upsert(ctx, []newsdesk.Record{records[0], records[1], dup, noAddress})

	require.NoError(t, result.Err())
	assert.Equal(t, 2, result.Written)
	assert.Equal(t, 1, result.Collapsed)
	assert.Equal(t, 1, result.Skipped)

	got, err := live.Get(ctx, records[0].Identity())
	require.NoError(t, err)
	assert.Equal(t, "較新", got.Title)
}

// TestBatcher_GroupFailure verifies a failed group is reported and the
// others are still written
func TestBatcher_GroupFailure(t *testing.T) {
	records := sampleRecords(1000)
	fake := &recordingStore{failOn: map[string]bool{records[400].Address: true}}
	batcher := NewBatcher(fake, DefaultConfig(), nil)

	result := batcher.Upsert(context.Background(), records)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, 1, result.Failed[0].Index)
	assert.Equal(t, 400, result.Failed[0].Size)
	assert.Equal(t, 600, result.Written)
	assert.Error(t, result.Err())
	assert.ElementsMatch(t, []int{400, 400, 200}, fake.sizes, "no retry of the failed group")
}

// TestBatcher_Concurrency verifies the in-flight cap
func TestBatcher_Concurrency(t *testing.T) {
	fake := &recordingStore{delay: 20 * time.Millisecond}
	batcher := NewBatcher(fake, Config{GroupSize: 10, Concurrency: 2}, nil)

	result := batcher.Upsert(context.Background(), sampleRecords(100))

	require.NoError(t, result.Err())
	assert.Equal(t, 10, result.Groups)
	assert.LessOrEqual(t, fake.peak, 2)
}

// TestNewBatcher_ClampsGroupSize verifies groups never exceed the store
// limit
func TestNewBatcher_ClampsGroupSize(t *testing.T) {
	fake := &recordingStore{}
	batcher := NewBatcher(fake, Config{GroupSize: 1000}, nil)

	batcher.Upsert(context.Background(), sampleRecords(401))

	assert.ElementsMatch(t, []int{400, 1}, fake.sizes)
}

// TestBatcher_UpsertArticles verifies articles are converted to records
func TestBatcher_UpsertArticles(t *testing.T) {
	live := createTestLiveStore(t)
	batcher := NewBatcher(live, DefaultConfig(), nil)
	ctx := context.Background()

	article := newsdesk.Article{
		ArticleStub: newsdesk.ArticleStub{
			PublishedAt: time.Date(2025, 12, 15, 12, 30, 0, 0, newsdesk.SourceZone),
			Category:    "社會",
			Title:       "標題",
			Address:     "https://www.ettoday.net/news/1.htm",
		},
		Body:     "記者王小明／台北報導",
		Byline:   "王小明",
		Keywords: newsdesk.Keywords{"王小明"},
	}

	require.NoError(t, batcher.UpsertArticles(ctx, []newsdesk.Article{article}).Err())

	got, err := live.Get(ctx, article.Identity())
	require.NoError(t, err)
	assert.Equal(t, "2025-12-15 12:30", got.DateStr)
	assert.Equal(t, "王小明", got.Byline)
}
