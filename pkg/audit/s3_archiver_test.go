package audit_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankvoiceai/platform/pkg/audit"
)

type fakeS3 struct {
	mu     sync.Mutex
	inputs []*s3.PutObjectInput
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &s3.PutObjectOutput{}, nil
}

func newArchiver(t *testing.T, opts ...audit.ArchiverOption) (*audit.S3Archiver, *fakeS3) {
	t.Helper()
	client := &fakeS3{}
	opts = append([]audit.ArchiverOption{
		audit.WithArchiverClock(func() time.Time { return auditTime }),
	}, opts...)
	return audit.NewS3Archiver(client, "bankvoiceai-audit", opts...), client
}

func TestNewS3Archiver(t *testing.T) {
	t.Parallel()

	t.Run("panics on nil client", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { audit.NewS3Archiver(nil, "bucket") })
	})

	t.Run("panics on empty bucket", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { audit.NewS3Archiver(&fakeS3{}, "") })
	})
}

func TestS3ArchiverStoreBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("writes the batch as one ndjson object", func(t *testing.T) {
		t.Parallel()
		archiver, client := newArchiver(t)

		first, second := testEvent(), testEvent()
		second.ID = uuid.New()
		require.NoError(t, archiver.StoreBatch(ctx, []audit.Event{first, second}))

		require.Len(t, client.inputs, 1)
		input := client.inputs[0]
		assert.Equal(t, "bankvoiceai-audit", aws.ToString(input.Bucket))
		assert.Equal(t, "application/x-ndjson", aws.ToString(input.ContentType))

		body, err := io.ReadAll(input.Body)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(body)), "\n")
		require.Len(t, lines, 2)

		var got audit.Event
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
		assert.Equal(t, first.ID, got.ID)
		require.NoError(t, json.Unmarshal([]byte(lines[1]), &got))
		assert.Equal(t, second.ID, got.ID)
	})

	t.Run("keys are date partitioned", func(t *testing.T) {
		t.Parallel()
		archiver, client := newArchiver(t)

		require.NoError(t, archiver.Store(ctx, testEvent()))

		require.Len(t, client.inputs, 1)
		key := aws.ToString(client.inputs[0].Key)
		assert.True(t, strings.HasPrefix(key, "audit/2026/03/10/120000-"), key)
		assert.True(t, strings.HasSuffix(key, ".ndjson"), key)
	})

	t.Run("custom prefix", func(t *testing.T) {
		t.Parallel()
		archiver, client := newArchiver(t, audit.WithArchivePrefix("trail/production"))

		require.NoError(t, archiver.Store(ctx, testEvent()))

		require.Len(t, client.inputs, 1)
		assert.True(t, strings.HasPrefix(aws.ToString(client.inputs[0].Key), "trail/production/2026/"))
	})

	t.Run("empty batch writes nothing", func(t *testing.T) {
		t.Parallel()
		archiver, client := newArchiver(t)

		require.NoError(t, archiver.StoreBatch(ctx, nil))
		assert.Empty(t, client.inputs)
	})

	t.Run("upload failure is reported", func(t *testing.T) {
		t.Parallel()
		client := &fakeS3{err: errors.New("connection reset")}
		archiver := audit.NewS3Archiver(client, "bankvoiceai-audit")

		err := archiver.Store(ctx, testEvent())
		assert.ErrorIs(t, err, audit.ErrStorageUnavailable)
	})

	t.Run("denied uploads surface the permanent error", func(t *testing.T) {
		t.Parallel()
		client := &fakeS3{err: &smithy.GenericAPIError{Code: "AccessDenied", Message: "no s3:PutObject"}}
		archiver := audit.NewS3Archiver(client, "bankvoiceai-audit")

		err := archiver.Store(ctx, testEvent())
		assert.ErrorIs(t, err, audit.ErrArchiveDenied)
		assert.NotErrorIs(t, err, audit.ErrStorageUnavailable)
	})
}
