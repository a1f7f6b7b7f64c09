package broker

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/predatorx7/logshipper/pkg/model"
)

// MemoryBroker is an unbounded multi-producer, single-consumer FIFO.
// Publish never blocks on the consumer; the mutex is the only
// serialization point, so lines are delivered in the order it admits them.
type MemoryBroker struct {
	mu     sync.Mutex
	queue  []model.Line
	head   int
	closed bool
	// notify holds at most one pending wake-up for the consumer.
	notify chan struct{}

	publishedCount, deliveredCount atomic.Uint64
}

// NewMemoryBroker creates a new instance of MemoryBroker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		queue:  make([]model.Line, 0, 64),
		notify: make(chan struct{}, 1),
	}
}

// Publish appends a line to the queue. It fails only when the context is
// already done or the broker has been closed.
func (b *MemoryBroker) Publish(ctx context.Context, line model.Line) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.queue = append(b.queue, line)
	b.mu.Unlock()

	b.publishedCount.Add(1)
	b.wake()
	return nil
}

// Receive blocks until a line is available. After Close it keeps returning
// queued lines and then ErrClosed.
func (b *MemoryBroker) Receive(ctx context.Context) (model.Line, error) {
	for {
		b.mu.Lock()
		if b.head < len(b.queue) {
			line := b.queue[b.head]
			b.queue[b.head] = ""
			b.head++
			b.compact()
			b.mu.Unlock()
			b.deliveredCount.Add(1)
			return line, nil
		}
		closed := b.closed
		b.mu.Unlock()

		if closed {
			return "", ErrClosed
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-b.notify:
		}
	}
}

// Close stops accepting new lines. Lines already queued remain receivable.
func (b *MemoryBroker) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wake()
}

// Len returns the number of lines waiting for the consumer.
func (b *MemoryBroker) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue) - b.head
}

// Stats returns the current metrics
func (b *MemoryBroker) Stats() (published, delivered uint64) {
	return b.publishedCount.Load(), b.deliveredCount.Load()
}

// compact drops consumed slots once they make up half the slice, so the
// backing array tracks queue depth rather than lines ever published.
// Caller holds b.mu.
func (b *MemoryBroker) compact() {
	if b.head*2 < len(b.queue) {
		return
	}
	n := copy(b.queue, b.queue[b.head:])
	clear(b.queue[n:])
	b.queue = b.queue[:n]
	b.head = 0
}

func (b *MemoryBroker) wake() {
	select {
	case b.notify <- struct{}{}:
	default:
	}
}
