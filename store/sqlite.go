package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pevans/newsdesk"
)

// SQLiteStore is a LiveStore backed by a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ LiveStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; concurrent groups queue on the connection.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the news table if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS news (
		identity TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		date_str TEXT NOT NULL,
		category TEXT NOT NULL,
		byline TEXT NOT NULL,
		address TEXT NOT NULL,
		keywords TEXT NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_news_date_str ON news(date_str);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertGroup implements LiveStore inside one transaction.
func (s *SQLiteStore) UpsertGroup(ctx context.Context, records []newsdesk.Record) error {
	if len(records) > MaxGroupSize {
		return fmt.Errorf("%w: %d records", ErrGroupTooLarge, len(records))
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO news (
			identity, title, body, date_str, category, byline, address, keywords
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		keywords, err := json.Marshal(r.Keywords)
		if err != nil {
			return fmt.Errorf("failed to marshal keywords: %w", err)
		}
		_, err = stmt.ExecContext(ctx,
			r.Identity(), r.Title, r.Body, r.DateStr, r.Category, r.Byline, r.Address, string(keywords))
		if err != nil {
			return fmt.Errorf("failed to upsert %s: %w", r.Address, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit group: %w", err)
	}
	return nil
}

// After implements LiveStore. Rows keeping a listing-style date_str compare
// after every dash-form watermark and are returned with their date rewritten.
func (s *SQLiteStore) After(ctx context.Context, watermark string) ([]newsdesk.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, body, date_str, category, byline, address, keywords
		FROM news WHERE date_str > ? ORDER BY date_str, identity
	`, watermark)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := []newsdesk.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	return records, nil
}

// Get returns the record stored under identity.
func (s *SQLiteStore) Get(ctx context.Context, identity string) (*newsdesk.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT title, body, date_str, category, byline, address, keywords
		FROM news WHERE identity = ?
	`, identity)

	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Count implements LiveStore.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM news").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (newsdesk.Record, error) {
	var r newsdesk.Record
	var keywords string
	err := row.Scan(&r.Title, &r.Body, &r.DateStr, &r.Category, &r.Byline, &r.Address, &keywords)
	if err == sql.ErrNoRows {
		return r, err
	}
	if err != nil {
		return r, fmt.Errorf("failed to scan record: %w", err)
	}
	r.DateStr = newsdesk.NormalizeDateStr(r.DateStr)
	r.Keywords = newsdesk.ParseKeywords(keywords)
	return r, nil
}
