package merge

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/pevans/newsdesk"
	"github.com/pevans/newsdesk/archive"
	"github.com/pevans/newsdesk/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: create an archive and a live store in a temp dir
func createTestStores(t *testing.T) (*archive.Archive, *store.SQLiteStore) {
	dir := t.TempDir()
	live, err := store.NewSQLiteStore(filepath.Join(dir, "live.db"))
	require.NoError(t, err, "should create live store")
	t.Cleanup(func() { live.Close() })
	return archive.New(filepath.Join(dir, archive.DefaultFileName)), live
}

func record(n int, dateStr, title string) newsdesk.Record {
	return newsdesk.Record{
		Title:    title,
		Body:     "內文",
		DateStr:  dateStr,
		Category: "社會",
		Byline:   newsdesk.UnknownByline,
		Address:  fmt.Sprintf("https://www.ettoday.net/news/%d.htm", n),
		Keywords: newsdesk.Keywords{},
	}
}

type failingStore struct{ store.LiveStore }

func (failingStore) After(ctx context.Context, watermark string) ([]newsdesk.Record, error) {
	return nil, errors.New("unavailable")
}

type recordingPublisher struct {
	puts [][]newsdesk.Record
}

func (p *recordingPublisher) Put(ctx context.Context, records []newsdesk.Record) error {
	p.puts = append(p.puts, records)
	return nil
}

// TestUnion verifies live rows replace archived rows in place
func TestUnion(t *testing.T) {
	base := []newsdesk.Record{
		record(1, "2025-11-29 08:00", "一"),
		record(2, "2025-11-30 08:00", "二"),
		record(1, "2025-11-29 08:00", "一 重複"),
	}
	delta := []newsdesk.Record{
		record(3, "2025-12-01 08:00", "三"),
		record(2, "2025-11-30 08:00", "二 更新"),
		{Title: "沒有連結"},
	}

	table := Union(base, delta)

	require.Len(t, table, 3)
	assert.Equal(t, "一 重複", table[0].Title)
	assert.Equal(t, "二 更新", table[1].Title)
	assert.Equal(t, "三", table[2].Title)
	assert.Empty(t, Union(nil, nil))
}

// TestMerger_Load verifies the watermark-day overlap and the live version
// winning
func TestMerger_Load(t *testing.T) {
	arch, live := createTestStores(t)
	ctx := context.Background()

	require.NoError(t, arch.Save([]newsdesk.Record{
		record(1, "2025-11-29 10:00", "舊一"),
		record(2, "2025-11-30 09:00", "舊二"),
		record(3, "2025-11-30 18:00", "舊三"),
	}))
	require.NoError(t, live.UpsertGroup(ctx, []newsdesk.Record{
		record(2, "2025-11-30 09:00", "新二"),
		record(3, "2025-11-30 18:00", "新三"),
		record(4, "2025-12-01 07:00", "四"),
		record(5, "2025-12-01 08:00", "五"),
		record(6, "2025-12-01 09:00", "六"),
	}))

	table, err := NewMerger(arch, live, nil).Load(ctx)
	require.NoError(t, err)

	require.Len(t, table, 6, "archive plus the three new records")
	titles := make([]string, len(table))
	for i, r := range table {
		titles[i] = r.Title
	}
	assert.Equal(t, []string{"舊一", "新二", "新三", "四", "五", "六"}, titles)
}

// TestMerger_LoadEmptyArchive verifies the default watermark applies
func TestMerger_LoadEmptyArchive(t *testing.T) {
	arch, live := createTestStores(t)
	ctx := context.Background()

	require.NoError(t, live.UpsertGroup(ctx, []newsdesk.Record{
		record(1, "2025-10-31 23:00", "太舊"),
		record(2, "2025-11-01 00:30", "邊界"),
		record(3, "2025-11-15 12:00", "新"),
	}))

	table, err := NewMerger(arch, live, nil).Load(ctx)
	require.NoError(t, err)

	require.Len(t, table, 2)
	assert.Equal(t, "邊界", table[0].Title)
}

// TestMerger_LoadDegradesToArchive verifies a live failure serves the
// archive
func TestMerger_LoadDegradesToArchive(t *testing.T) {
	arch, live := createTestStores(t)
	require.NoError(t, arch.Save([]newsdesk.Record{record(1, "2025-11-29 10:00", "舊一")}))

	table, err := NewMerger(arch, failingStore{live}, nil).Load(context.Background())

	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, "舊一", table[0].Title)
}

// TestMerger_Advance verifies the archive absorbs the delta and the
// watermark moves forward
func TestMerger_Advance(t *testing.T) {
	arch, live := createTestStores(t)
	ctx := context.Background()
	publisher := &recordingPublisher{}
	merger := NewMerger(arch, live, nil, WithPublisher(publisher))

	require.NoError(t, arch.Save([]newsdesk.Record{record(1, "2025-11-30 10:00", "舊一")}))
	require.NoError(t, live.UpsertGroup(ctx, []newsdesk.Record{
		record(1, "2025-11-30 10:00", "新一"),
		record(2, "2025-12-02 08:00", "二"),
	}))

	result, err := merger.Advance(ctx)
	require.NoError(t, err)

	assert.Equal(t, "2025-11-30", result.Previous)
	assert.Equal(t, "2025-12-02", result.Watermark)
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 1, result.Added)

	archived, err := arch.Load()
	require.NoError(t, err)
	require.Len(t, archived, 2)
	assert.Equal(t, "新一", archived[0].Title)
	require.Len(t, publisher.puts, 1)
	assert.Len(t, publisher.puts[0], 2)
}

// TestMerger_AdvanceMonotonic verifies repeated advances never move the
// watermark back
func TestMerger_AdvanceMonotonic(t *testing.T) {
	arch, live := createTestStores(t)
	ctx := context.Background()
	merger := NewMerger(arch, live, nil)

	batches := [][]newsdesk.Record{
		{record(1, "2025-11-05 08:00", "一")},
		{record(2, "2025-11-03 08:00", "較早的補登")},
		{record(3, "2025-11-20 08:00", "三"), record(1, "2025-11-05 08:00", "一 更新")},
		{},
	}

	previous := archive.DefaultWatermark
	for i, batch := range batches {
		require.NoError(t, live.UpsertGroup(ctx, batch))

		result, err := merger.Advance(ctx)
		require.NoError(t, err, "advance %d", i)
		assert.GreaterOrEqual(t, result.Watermark, previous, "advance %d", i)
		assert.Equal(t, previous, result.Previous, "advance %d", i)
		previous = result.Watermark
	}

	assert.Equal(t, "2025-11-20", previous)
}

// TestSince verifies records before the watermark day are dropped whatever
// their date separator
func TestSince(t *testing.T) {
	records := []newsdesk.Record{
		record(1, "2025/11/05 10:00", "舊格式"),
		record(2, "2025/12/10 08:00", "舊格式當日"),
		record(3, "2025-12-11 09:00", "新"),
		record(4, "", "無日期"),
	}

	kept := Since(records, "2025-12-10")

	require.Len(t, kept, 2)
	assert.Equal(t, "2025-12-10 08:00", kept[0].DateStr)
	assert.Equal(t, "2025-12-11 09:00", kept[1].DateStr)
	assert.Equal(t, "2025/11/05 10:00", records[0].DateStr, "input untouched")
}

// TestMerger_LegacyDatesExcluded verifies slash-dated live records before
// the watermark neither join the table nor trigger archive rewrites
func TestMerger_LegacyDatesExcluded(t *testing.T) {
	arch, live := createTestStores(t)
	ctx := context.Background()
	publisher := &recordingPublisher{}
	merger := NewMerger(arch, live, nil, WithPublisher(publisher))

	require.NoError(t, arch.Save([]newsdesk.Record{record(1, "2025-12-10 08:00", "已封存")}))
	require.NoError(t, live.UpsertGroup(ctx, []newsdesk.Record{
		record(1, "2025-12-10 08:00", "已封存"),
		record(2, "2025/11/05 10:00", "舊格式"),
	}))

	table, err := merger.Load(ctx)
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, "已封存", table[0].Title)

	for i := 0; i < 2; i++ {
		result, err := merger.Advance(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Fetched, "only the watermark-day record")
		assert.Zero(t, result.Added)
		assert.Equal(t, "2025-12-10", result.Watermark)
	}
	assert.Empty(t, publisher.puts, "unchanged archive is not republished")
}

// TestMerger_AdvanceLiveFailure verifies the archive is untouched when the
// live store fails
func TestMerger_AdvanceLiveFailure(t *testing.T) {
	arch, live := createTestStores(t)
	require.NoError(t, arch.Save([]newsdesk.Record{record(1, "2025-11-30 10:00", "舊一")}))

	_, err := NewMerger(arch, failingStore{live}, nil).Advance(context.Background())
	require.Error(t, err)

	archived, err := arch.Load()
	require.NoError(t, err)
	assert.Len(t, archived, 1)
}

// TestMerger_LoadCached verifies cached tables are served until an advance
// invalidates them
func TestMerger_LoadCached(t *testing.T) {
	arch, live := createTestStores(t)
	ctx := context.Background()
	merger := NewMerger(arch, live, nil, WithCache(NewMemoryCache(), DefaultCacheTTL))

	require.NoError(t, live.UpsertGroup(ctx, []newsdesk.Record{record(1, "2025-12-01 08:00", "一")}))
	first, err := merger.Load(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	require.NoError(t, live.UpsertGroup(ctx, []newsdesk.Record{record(2, "2025-12-01 09:00", "二")}))
	cached, err := merger.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 1, "served from cache")

	_, err = merger.Advance(ctx)
	require.NoError(t, err)

	fresh, err := merger.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
}
