package audit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankvoiceai/platform/pkg/audit"
)

type batchRecorder struct {
	mu      sync.Mutex
	batches [][]audit.Event
	err     error
}

func (r *batchRecorder) StoreBatch(_ context.Context, events []audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	batch := make([]audit.Event, len(events))
	copy(batch, events)
	r.batches = append(r.batches, batch)
	return nil
}

func (r *batchRecorder) snapshot() [][]audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	batches := make([][]audit.Event, len(r.batches))
	copy(batches, r.batches)
	return batches
}

func TestAsyncWriter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("panics on nil writer", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { audit.NewAsyncWriter(nil, audit.AsyncOptions{}) })
	})

	t.Run("store returns after the timer flush", func(t *testing.T) {
		t.Parallel()
		recorder := &batchRecorder{}
		writer := audit.NewAsyncWriter(recorder, audit.AsyncOptions{BatchTimeout: 20 * time.Millisecond})
		defer func() { _ = writer.Close(ctx) }()

		require.NoError(t, writer.Store(ctx, testEvent()))

		batches := recorder.snapshot()
		require.Len(t, batches, 1)
		assert.Len(t, batches[0], 1)
	})

	t.Run("events accumulate into one batch", func(t *testing.T) {
		t.Parallel()
		recorder := &batchRecorder{}
		writer := audit.NewAsyncWriter(recorder, audit.AsyncOptions{
			BatchSize:    3,
			BatchTimeout: time.Minute,
		})
		defer func() { _ = writer.Close(ctx) }()

		var wg sync.WaitGroup
		for range 3 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, writer.Store(ctx, testEvent()))
			}()
		}
		wg.Wait()

		batches := recorder.snapshot()
		require.Len(t, batches, 1)
		assert.Len(t, batches[0], 3)
	})

	t.Run("storage failure reaches every caller in the batch", func(t *testing.T) {
		t.Parallel()
		recorder := &batchRecorder{err: errors.New("bulk rejected")}
		writer := audit.NewAsyncWriter(recorder, audit.AsyncOptions{BatchTimeout: 20 * time.Millisecond})
		defer func() { _ = writer.Close(ctx) }()

		err := writer.Store(ctx, testEvent())
		assert.ErrorContains(t, err, "bulk rejected")
	})

	t.Run("caller timeout does not cancel the flush", func(t *testing.T) {
		t.Parallel()
		recorder := &batchRecorder{}
		writer := audit.NewAsyncWriter(recorder, audit.AsyncOptions{BatchTimeout: 50 * time.Millisecond})
		defer func() { _ = writer.Close(ctx) }()

		expired, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, writer.Store(expired, testEvent()), context.Canceled)

		// The queued event still lands in storage on the next flush.
		assert.Eventually(t, func() bool {
			return len(recorder.snapshot()) == 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("close flushes and rejects further writes", func(t *testing.T) {
		t.Parallel()
		recorder := &batchRecorder{}
		writer := audit.NewAsyncWriter(recorder, audit.AsyncOptions{
			BatchSize:    2,
			BatchTimeout: time.Minute,
		})

		var wg sync.WaitGroup
		wg.Add(2)
		for range 2 {
			go func() {
				defer wg.Done()
				assert.NoError(t, writer.Store(ctx, testEvent()))
			}()
		}
		wg.Wait()

		require.NoError(t, writer.Close(ctx))
		require.NoError(t, writer.Close(ctx)) // idempotent

		assert.ErrorIs(t, writer.Store(ctx, testEvent()), audit.ErrStorageUnavailable)
		require.Len(t, recorder.snapshot(), 1)
	})
}
