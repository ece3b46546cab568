package archive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pevans/newsdesk"
)

// ObjectPutter is the part of the S3 client the mirror uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// MirrorConfig holds the object storage settings of the archive copy.
type MirrorConfig struct {
	Bucket string
	Key    string
	Region string
	// Endpoint points the client at an S3-compatible service.
	Endpoint     string
	UsePathStyle bool
}

// Mirror uploads archive snapshots to object storage.
type Mirror struct {
	client ObjectPutter
	bucket string
	key    string
}

// NewMirror creates a mirror using the default AWS credential chain.
func NewMirror(ctx context.Context, cfg MirrorConfig) (*Mirror, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("mirror bucket is required")
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewMirrorWithClient(client, cfg.Bucket, cfg.Key), nil
}

// NewMirrorWithClient creates a mirror over an existing client. An empty
// key uses DefaultFileName.
func NewMirrorWithClient(client ObjectPutter, bucket, key string) *Mirror {
	if key == "" {
		key = DefaultFileName
	}
	return &Mirror{client: client, bucket: bucket, key: key}
}

// Put uploads records as one CSV object, replacing the previous copy.
func (m *Mirror) Put(ctx context.Context, records []newsdesk.Record) error {
	var buf bytes.Buffer
	if err := WriteRecords(&buf, records); err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}

	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(m.key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload archive to s3://%s/%s: %w", m.bucket, m.key, err)
	}
	return nil
}
