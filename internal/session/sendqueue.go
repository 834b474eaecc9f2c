package session

import (
	"sync"

	"github.com/pixil98/go-mmo/internal/protocol"
)

// sendQueue is the bounded outbound packet queue for one connection.
// Producers are the tick goroutine (world fan-out) and messaging
// subscription callbacks; the single consumer is the connection's write
// loop.
//
// Under sustained overflow the oldest non-critical packet is evicted to
// make room. Critical kinds are always admitted, even past the limit: a
// client that misses a movement update self-corrects on the next one,
// but a missed spawn or despawn desyncs it permanently.
type sendQueue struct {
	mu      sync.Mutex
	items   []protocol.Packet
	limit   int
	closed  bool
	dropped uint64

	wake chan struct{}
}

func newSendQueue(limit int) *sendQueue {
	return &sendQueue{
		limit: limit,
		wake:  make(chan struct{}, 1),
	}
}

// Push enqueues a packet, evicting the oldest non-critical packet if
// the queue is full. Pushing to a closed queue is a no-op.
func (q *sendQueue) Push(p protocol.Packet) {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()
		return
	}

	if len(q.items) >= q.limit {
		evicted := false
		for i, old := range q.items {
			if !protocol.Critical(old.Kind()) {
				q.items = append(q.items[:i], q.items[i+1:]...)
				q.dropped++
				evicted = true
				break
			}
		}
		if !evicted && !protocol.Critical(p.Kind()) {
			// Queue entirely critical; the newcomer loses instead.
			q.dropped++
			q.mu.Unlock()
			return
		}
	}

	q.items = append(q.items, p)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// drain blocks until packets are available or the queue is closed and
// empty. The bool result is false only when nothing will ever arrive
// again.
func (q *sendQueue) drain(done <-chan struct{}) ([]protocol.Packet, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			items := q.items
			q.items = nil
			q.mu.Unlock()
			return items, true
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, false
		}

		select {
		case <-q.wake:
		case <-done:
			return nil, false
		}
	}
}

// Close stops admission. The write loop drains what is already queued.
func (q *sendQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Dropped reports how many packets overflow has discarded.
func (q *sendQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

func (q *sendQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
