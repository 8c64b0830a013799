package simulator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/storage"
)

type ReadingSink interface {
	BulkInsertReadings(ctx context.Context, readings []storage.ReadingRecord) error
}

// WriteBuffer accumulates readings between flush ticks. Flush atomically
// claims the current contents, so enqueues arriving mid-flush land in the
// next batch and nothing is lost or written twice. Readings are best-effort
// telemetry: a failed bulk insert drops the drained batch instead of
// requeueing it.
type WriteBuffer struct {
	mu      sync.Mutex
	pending []storage.ReadingRecord
	sink    ReadingSink
	log     *slog.Logger
}

func NewWriteBuffer(sink ReadingSink, logger *slog.Logger) *WriteBuffer {
	return &WriteBuffer{sink: sink, log: logger}
}

func (b *WriteBuffer) Enqueue(rec storage.ReadingRecord) {
	b.mu.Lock()
	b.pending = append(b.pending, rec)
	b.mu.Unlock()
}

func (b *WriteBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Flush drains the buffer and bulk-inserts the batch in enqueue order.
func (b *WriteBuffer) Flush(ctx context.Context) error {
	b.mu.Lock()
	batch := b.pending
	b.pending = nil
	b.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	if err := b.sink.BulkInsertReadings(ctx, batch); err != nil {
		b.log.Error("reading flush failed, dropping batch",
			slog.Int("count", len(batch)), slog.String("error", err.Error()))
		return err
	}
	return nil
}
