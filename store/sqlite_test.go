package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/pevans/newsdesk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: create a test SQLite store
func createTestSQLiteStore(t *testing.T) *SQLiteStore {
	dbPath := filepath.Join(t.TempDir(), "live.db")
	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err, "should create sqlite store")
	t.Cleanup(func() { store.Close() })
	return store
}

// Test helper: create a record dated dateStr
func sampleRecord(n int, dateStr string) newsdesk.Record {
	return newsdesk.Record{
		Title:    fmt.Sprintf("標題 %d", n),
		Body:     "內文",
		DateStr:  dateStr,
		Category: "社會",
		Byline:   "王小明",
		Address:  fmt.Sprintf("https://www.ettoday.net/news/%d.htm", n),
		Keywords: newsdesk.Keywords{"颱風"},
	}
}

// TestSQLiteStore_UpsertReplaces verifies a second write under the same
// identity replaces the first
func TestSQLiteStore_UpsertReplaces(t *testing.T) {
	store := createTestSQLiteStore(t)
	ctx := context.Background()

	first := sampleRecord(1, "2025-12-01 08:00")
	require.NoError(t, store.UpsertGroup(ctx, []newsdesk.Record{first}))

	updated := first
	updated.Title = "更新後"
	updated.Keywords = newsdesk.Keywords{"停班", "停課"}
	require.NoError(t, store.UpsertGroup(ctx, []newsdesk.Record{updated}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := store.Get(ctx, first.Identity())
	require.NoError(t, err)
	assert.Equal(t, updated, *got)
}

// TestSQLiteStore_After verifies the strict string comparison on date_str
func TestSQLiteStore_After(t *testing.T) {
	store := createTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertGroup(ctx, []newsdesk.Record{
		sampleRecord(1, "2025-11-29 23:59"),
		sampleRecord(2, "2025-11-30 00:00"),
		sampleRecord(3, "2025-12-01 08:00"),
	}))

	records, err := store.After(ctx, "2025-11-30")
	require.NoError(t, err)

	require.Len(t, records, 2, "records on the watermark day sort after the bare day")
	assert.Equal(t, "2025-11-30 00:00", records[0].DateStr)
	assert.Equal(t, "2025-12-01 08:00", records[1].DateStr)

	all, err := store.After(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// TestSQLiteStore_AfterLegacyDates verifies slash-dated rows come back in
// dash form
func TestSQLiteStore_AfterLegacyDates(t *testing.T) {
	store := createTestSQLiteStore(t)
	ctx := context.Background()

	legacy := sampleRecord(1, "2025/11/05 10:00")
	require.NoError(t, store.UpsertGroup(ctx, []newsdesk.Record{legacy}))

	records, err := store.After(ctx, "2025-12-10")
	require.NoError(t, err)
	require.Len(t, records, 1, "slash sorts after dash in text comparison")
	assert.Equal(t, "2025-11-05 10:00", records[0].DateStr)

	got, err := store.Get(ctx, legacy.Identity())
	require.NoError(t, err)
	assert.Equal(t, "2025-11-05 10:00", got.DateStr)
}

// TestSQLiteStore_GroupLimit verifies oversized groups are rejected whole
func TestSQLiteStore_GroupLimit(t *testing.T) {
	store := createTestSQLiteStore(t)
	ctx := context.Background()

	records := make([]newsdesk.Record, MaxGroupSize+1)
	for i := range records {
		records[i] = sampleRecord(i, "2025-12-01 08:00")
	}

	err := store.UpsertGroup(ctx, records)
	assert.ErrorIs(t, err, ErrGroupTooLarge)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, store.UpsertGroup(ctx, records[:MaxGroupSize]))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(MaxGroupSize), count)
}

// TestSQLiteStore_GetMissing verifies the not-found sentinel
func TestSQLiteStore_GetMissing(t *testing.T) {
	store := createTestSQLiteStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestSQLiteStore_ExistingDatabase verifies data survives reopening
func TestSQLiteStore_ExistingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "live.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.UpsertGroup(ctx, []newsdesk.Record{sampleRecord(1, "2025-12-01 08:00")}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
