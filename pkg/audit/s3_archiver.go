package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

// S3PutClient is the subset of the S3 API the archiver uses.
type S3PutClient interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver writes audit events to a bucket as newline-delimited JSON, one
// object per stored batch, keyed by date so lifecycle rules can expire whole
// prefixes. It satisfies long-term retention only and implements no Reader;
// pair it with the async writer so request paths never wait on S3.
type S3Archiver struct {
	client S3PutClient
	bucket string
	prefix string
	now    func() time.Time
}

// ArchiverOption configures S3Archiver behavior.
type ArchiverOption func(*S3Archiver)

// WithArchivePrefix sets the key prefix for archive objects. Defaults to
// "audit".
func WithArchivePrefix(prefix string) ArchiverOption {
	return func(a *S3Archiver) {
		if prefix != "" {
			a.prefix = prefix
		}
	}
}

// WithArchiverClock replaces the time source used for object keys. Used in
// tests.
func WithArchiverClock(now func() time.Time) ArchiverOption {
	return func(a *S3Archiver) {
		if now != nil {
			a.now = now
		}
	}
}

// NewS3Archiver creates an archiver writing to the given bucket.
func NewS3Archiver(client S3PutClient, bucket string, opts ...ArchiverOption) *S3Archiver {
	if client == nil {
		panic("audit: s3 client cannot be nil")
	}
	if bucket == "" {
		panic("audit: bucket cannot be empty")
	}

	a := &S3Archiver{
		client: client,
		bucket: bucket,
		prefix: "audit",
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

func (a *S3Archiver) Store(ctx context.Context, event Event) error {
	return a.StoreBatch(ctx, []Event{event})
}

// StoreBatch writes the whole batch as one object.
func (a *S3Archiver) StoreBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return errors.Join(ErrInvalidEvent, err)
		}
		buf.Write(payload)
		buf.WriteByte('\n')
	}

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.objectKey()),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "AccessDenied" {
			return errors.Join(ErrArchiveDenied, err)
		}
		return errors.Join(ErrStorageUnavailable, err)
	}
	return nil
}

// objectKey builds date-partitioned keys: <prefix>/2026/03/10/154500-a1b2c3d4.ndjson.
func (a *S3Archiver) objectKey() string {
	ts := a.now().UTC()
	return fmt.Sprintf("%s/%s/%s-%s.ndjson",
		a.prefix, ts.Format("2006/01/02"), ts.Format("150405"), uuid.NewString()[:8])
}
