package journal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"w4-go/internal/w4"
)

// DefaultS3Key is the object key used when none is configured.
const DefaultS3Key = "upload-history.json"

// S3Options configures an S3Journal.
type S3Options struct {
	Bucket          string
	Key             string
	Region          string
	Endpoint        string // optional, for S3-compatible stores
	AccessKeyID     string // optional, the default credential chain is used when empty
	SecretAccessKey string
}

// S3Journal keeps the publish history as a single JSON object in a bucket,
// in the same format as FileJournal. Record is a read-modify-write of the
// whole object; concurrent writers can lose entries.
type S3Journal struct {
	client *s3.Client
	bucket string
	key    string
	logger w4.Logger
}

// NewS3Journal creates a journal stored at s3://bucket/key.
func NewS3Journal(opts S3Options, logger w4.Logger) (*S3Journal, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 journal requires bucket to be set")
	}
	key := opts.Key
	if key == "" {
		key = DefaultS3Key
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
		// S3-compatible stores often do not accept the default CRC32 trailers.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	return &S3Journal{client: client, bucket: opts.Bucket, key: key, logger: logger}, nil
}

// Record prepends entry and truncates the journal to w4.MaxHistoryEntries.
// A missing or corrupt object is treated as an empty journal.
func (j *S3Journal) Record(entry w4.HistoryEntry) error {
	ctx := context.Background()

	entries, err := j.read(ctx)
	if err != nil {
		return err
	}
	entries = w4.PrependBounded(entries, entry, w4.MaxHistoryEntries)

	data, err := encodeEntries(entries)
	if err != nil {
		return err
	}

	_, err = j.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(j.bucket),
		Key:         aws.String(j.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("writing history to s3://%s/%s: %w", j.bucket, j.key, err)
	}

	j.logger.Debug("history recorded", "bucket", j.bucket, "key", j.key, "entries", len(entries))
	return nil
}

// Load returns the recorded entries, newest first.
func (j *S3Journal) Load() ([]w4.HistoryEntry, error) {
	entries, err := j.read(context.Background())
	if err != nil {
		return nil, err
	}
	return capEntries(entries), nil
}

func (j *S3Journal) read(ctx context.Context) ([]w4.HistoryEntry, error) {
	out, err := j.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(j.bucket),
		Key:    aws.String(j.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return []w4.HistoryEntry{}, nil
		}
		return nil, fmt.Errorf("reading history from s3://%s/%s: %w", j.bucket, j.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading history body: %w", err)
	}
	return decodeEntries(data, j.logger, "s3://"+j.bucket+"/"+j.key), nil
}

// Compile-time check that S3Journal implements w4.Journal interface
var _ w4.Journal = (*S3Journal)(nil)
