package world

import (
	"errors"
	"sync"
)

// ErrQueueFull rejects a non-critical command when the queue is at
// capacity. The session layer logs and drops; the client retries by
// resending input.
var ErrQueueFull = errors.New("command queue full")

// CommandQueue is the bounded, ordered hand-off between connection
// goroutines (producers) and the tick goroutine (sole consumer).
// Ordering is strict FIFO: commands from one connection are applied in
// arrival order, and cross-connection interleaving happens only at
// queue granularity.
type CommandQueue struct {
	mu    sync.Mutex
	items []Command
	limit int
}

// NewCommandQueue builds a queue holding at most limit pending
// commands. Cleanup commands are exempt from the limit: they must never
// be lost, and their number is bounded by the connection count.
func NewCommandQueue(limit int) *CommandQueue {
	return &CommandQueue{limit: limit}
}

// Push appends a command.
func (q *CommandQueue) Push(cmd Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.limit && cmd.Type != CommandCleanup {
		return ErrQueueFull
	}
	q.items = append(q.items, cmd)
	return nil
}

// Drain removes and returns up to max commands in FIFO order. Anything
// beyond max stays queued for the next tick: backpressure, not loss.
func (q *CommandQueue) Drain(max int) []Command {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items)
	if n == 0 {
		return nil
	}
	if n > max {
		n = max
	}

	out := make([]Command, n)
	copy(out, q.items[:n])
	q.items = append(q.items[:0], q.items[n:]...)
	return out
}

// Len reports pending commands.
func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
