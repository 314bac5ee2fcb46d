package performance

import "sync"

// BatchProcessor buffers items and hands them to a sink in fixed-size
// batches. The sink must not retain the slice.
type BatchProcessor[T any] struct {
	size int
	sink func([]T) error

	mu   sync.Mutex
	buf  []T
	done int
}

// NewBatchProcessor creates a processor that flushes every batchSize items.
func NewBatchProcessor[T any](batchSize int, sink func([]T) error) *BatchProcessor[T] {
	if batchSize < 1 {
		batchSize = 1
	}
	return &BatchProcessor[T]{size: batchSize, sink: sink, buf: make([]T, 0, batchSize)}
}

// Add buffers an item and flushes when the batch is full. A sink error is
// returned and the failed batch is dropped.
func (b *BatchProcessor[T]) Add(item T) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, item)
	if len(b.buf) < b.size {
		return nil
	}
	return b.flushLocked()
}

// Flush hands any buffered items to the sink.
func (b *BatchProcessor[T]) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushLocked()
}

// Processed returns how many items the sink accepted.
func (b *BatchProcessor[T]) Processed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.done
}

func (b *BatchProcessor[T]) flushLocked() error {
	if len(b.buf) == 0 {
		return nil
	}
	n := len(b.buf)
	err := b.sink(b.buf)
	b.buf = b.buf[:0]
	if err != nil {
		return err
	}
	b.done += n
	return nil
}
