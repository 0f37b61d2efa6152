package audit

import (
	"context"
	"errors"
)

// fanoutStorage duplicates writes across sinks.
type fanoutStorage struct {
	sinks []Storage
}

// Fanout returns a storage that writes every event to each sink. All sinks
// are attempted even after a failure so an archive outage never keeps events
// out of the queryable store; the joined error reports every failed sink.
func Fanout(sinks ...Storage) BatchStorage {
	if len(sinks) == 0 {
		panic("audit: fanout requires at least one sink")
	}
	for _, sink := range sinks {
		if sink == nil {
			panic("audit: fanout sink cannot be nil")
		}
	}
	return &fanoutStorage{sinks: sinks}
}

func (f *fanoutStorage) Store(ctx context.Context, event Event) error {
	return f.StoreBatch(ctx, []Event{event})
}

func (f *fanoutStorage) StoreBatch(ctx context.Context, events []Event) error {
	var errs []error
	for _, sink := range f.sinks {
		if bw, ok := sink.(BatchWriter); ok {
			if err := bw.StoreBatch(ctx, events); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		for _, event := range events {
			if err := sink.Store(ctx, event); err != nil {
				errs = append(errs, err)
				break
			}
		}
	}
	return errors.Join(errs...)
}
