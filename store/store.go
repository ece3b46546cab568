// Package store holds the live document stores keyed by article identity.
package store

import (
	"context"
	"errors"

	"github.com/pevans/newsdesk"
)

// Custom errors for store operations
var (
	ErrNotFound      = errors.New("record not found")
	ErrGroupTooLarge = errors.New("write group exceeds store limit")
)

// MaxGroupSize is the largest number of records one atomic write may carry.
const MaxGroupSize = 400

// LiveStore is the hot, directly updated record collection.
type LiveStore interface {
	// UpsertGroup writes records atomically, each replacing any stored
	// record with the same identity. Groups larger than MaxGroupSize are
	// rejected with ErrGroupTooLarge.
	UpsertGroup(ctx context.Context, records []newsdesk.Record) error
	// After returns the records whose date_str sorts after watermark.
	After(ctx context.Context, watermark string) ([]newsdesk.Record, error)
	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)
	Close() error
}
