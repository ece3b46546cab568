package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/pevans/newsdesk"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// DefaultCollection is the collection articles are stored in.
const DefaultCollection = "news"

// FirestoreConfig holds the connection settings of the live document
// store.
type FirestoreConfig struct {
	ProjectID       string
	Collection      string
	CredentialsJSON []byte
}

// FirestoreStore is a LiveStore backed by a Cloud Firestore collection.
// Document IDs are record identities.
type FirestoreStore struct {
	client     *firestore.Client
	collection *firestore.CollectionRef
}

var _ LiveStore = (*FirestoreStore)(nil)

// NewFirestoreStore connects to Firestore. When FIRESTORE_EMULATOR_HOST is
// set the client talks to the emulator and credentials may be empty.
func NewFirestoreStore(ctx context.Context, cfg FirestoreConfig) (*FirestoreStore, error) {
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	var opts []option.ClientOption
	if len(cfg.CredentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &FirestoreStore{
		client:     client,
		collection: client.Collection(cfg.Collection),
	}, nil
}

// Close closes the client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

// UpsertGroup implements LiveStore with one batched commit.
func (s *FirestoreStore) UpsertGroup(ctx context.Context, records []newsdesk.Record) error {
	if len(records) > MaxGroupSize {
		return fmt.Errorf("%w: %d records", ErrGroupTooLarge, len(records))
	}
	if len(records) == 0 {
		return nil
	}

	batch := s.client.Batch()
	for _, r := range records {
		batch.Set(s.collection.Doc(r.Identity()), r.Fields())
	}

	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// After implements LiveStore with a range query on date_str.
func (s *FirestoreStore) After(ctx context.Context, watermark string) ([]newsdesk.Record, error) {
	iter := s.collection.Where(newsdesk.FieldDateStr, ">", watermark).Documents(ctx)
	defer iter.Stop()

	records := []newsdesk.Record{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query records: %w", err)
		}
		records = append(records, newsdesk.RecordFromFields(doc.Data()))
	}

	return records, nil
}

// Count implements LiveStore with a server-side count aggregation.
func (s *FirestoreStore) Count(ctx context.Context) (int64, error) {
	result, err := s.collection.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}

	return countValue(result, "all")
}

func countValue(result firestore.AggregationResult, alias string) (int64, error) {
	value, ok := result[alias].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected count result type %T", result[alias])
	}
	return value.GetIntegerValue(), nil
}
