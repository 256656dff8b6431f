package csvingest

import (
	"context"

	"github.com/apache/arrow/go/v18/arrow"
)

// BatchConsumer receives the row batches of ParseBatches in order.
//
// The batch is released when ConsumeBatch returns; call Retain on it to keep
// it longer. Returning an error stops the iteration.
type BatchConsumer interface {
	ConsumeBatch(ctx context.Context, batch arrow.Table) error
}

// BatchConsumerFunc adapts a function to BatchConsumer
type BatchConsumerFunc func(ctx context.Context, batch arrow.Table) error

// ConsumeBatch calls f(ctx, batch).
func (f BatchConsumerFunc) ConsumeBatch(ctx context.Context, batch arrow.Table) error {
	return f(ctx, batch)
}

// ProgressObserver is notified after every delivered batch
type ProgressObserver interface {
	OnProgress(event ProgressEvent)
}

// ProgressObserverFunc adapts a function to ProgressObserver
type ProgressObserverFunc func(event ProgressEvent)

// OnProgress calls f(event).
func (f ProgressObserverFunc) OnProgress(event ProgressEvent) {
	f(event)
}
