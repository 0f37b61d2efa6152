package audit

import (
	"context"
	"sync"
	"time"
)

// AsyncOptions tunes the batching writer. Zero values fall back to defaults
// suited to a steady call-center event rate.
type AsyncOptions struct {
	BufferSize     int           // queued events before writes fall back to synchronous
	BatchSize      int           // events per storage round trip
	BatchTimeout   time.Duration // max age of a partial batch
	StorageTimeout time.Duration // per-flush storage deadline
}

// AsyncWriter batches events before handing them to the underlying storage.
// Store still reports the real persistence result: the caller blocks until
// the batch containing its event is flushed.
type AsyncWriter struct {
	writer    BatchWriter
	eventChan chan eventBatch
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	options   AsyncOptions
}

type eventBatch struct {
	events []Event
	result chan error
}

// NewAsyncWriter creates an async writer in front of a bulk-capable storage.
// Close must be called during shutdown to flush buffered events.
func NewAsyncWriter(writer BatchWriter, opts AsyncOptions) *AsyncWriter {
	if writer == nil {
		panic("audit: batch writer cannot be nil")
	}

	if opts.BufferSize == 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = 100
	}
	if opts.BatchTimeout == 0 {
		opts.BatchTimeout = 100 * time.Millisecond
	}
	if opts.StorageTimeout == 0 {
		opts.StorageTimeout = 5 * time.Second
	}

	aw := &AsyncWriter{
		writer:    writer,
		eventChan: make(chan eventBatch, opts.BufferSize),
		done:      make(chan struct{}),
		options:   opts,
	}

	aw.wg.Add(1)
	go aw.worker()
	return aw
}

// Store queues the event and waits for its batch to flush. A full buffer
// degrades to a synchronous write rather than dropping the event.
func (aw *AsyncWriter) Store(ctx context.Context, event Event) error {
	select {
	case <-aw.done:
		return ErrStorageUnavailable
	default:
	}

	result := make(chan error, 1)
	select {
	case aw.eventChan <- eventBatch{events: []Event{event}, result: result}:
		select {
		case err := <-result:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	default:
		return aw.writer.StoreBatch(ctx, []Event{event})
	}
}

func (aw *AsyncWriter) worker() {
	defer aw.wg.Done()

	batchEvents := make([]Event, 0, aw.options.BatchSize)
	pendingResults := make([]chan error, 0, aw.options.BatchSize)
	ticker := time.NewTicker(aw.options.BatchTimeout)
	defer ticker.Stop()

	// Flushes run on a fresh context so a caller timing out cannot cancel
	// the storage write for the rest of the batch.
	flush := func() {
		if len(batchEvents) == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), aw.options.StorageTimeout)
		err := aw.writer.StoreBatch(ctx, batchEvents)
		cancel()

		for _, result := range pendingResults {
			result <- err
		}

		clear(batchEvents)
		clear(pendingResults)
		batchEvents = batchEvents[:0]
		pendingResults = pendingResults[:0]
	}

	collect := func(batch eventBatch) {
		batchEvents = append(batchEvents, batch.events...)
		pendingResults = append(pendingResults, batch.result)
	}

	for {
		select {
		case batch := <-aw.eventChan:
			collect(batch)
			if len(batchEvents) >= aw.options.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-aw.done:
			// Drain whatever is buffered, then flush once and exit.
			for {
				select {
				case batch := <-aw.eventChan:
					collect(batch)
					if len(batchEvents) >= aw.options.BatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// Close stops the worker after draining buffered events. The context bounds
// the wait; on expiry some events may remain unflushed. Store calls after
// Close return ErrStorageUnavailable.
func (aw *AsyncWriter) Close(ctx context.Context) error {
	aw.closeOnce.Do(func() {
		close(aw.done)
	})

	drained := make(chan struct{})
	go func() {
		aw.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
