package session

import (
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"github.com/pixil98/go-mmo/internal/protocol"
)

func drainNow(t *testing.T, q *sendQueue) []protocol.Packet {
	t.Helper()
	done := make(chan struct{})
	close(done)
	items, _ := q.drain(done)
	return items
}

func TestSendQueueFIFO(t *testing.T) {
	q := newSendQueue(8)
	q.Push(&protocol.EntityMoved{Entity: 1})
	q.Push(&protocol.EntityMoved{Entity: 2})
	q.Push(&protocol.EntityMoved{Entity: 3})

	items := drainNow(t, q)
	testutil.AssertEqual(t, "len", len(items), 3)
	for i, p := range items {
		testutil.AssertEqual(t, "order", p.(*protocol.EntityMoved).Entity, uint64(i+1))
	}
	testutil.AssertEqual(t, "empty", q.Len(), 0)
}

func TestSendQueueEvictsOldestNonCritical(t *testing.T) {
	q := newSendQueue(2)
	q.Push(&protocol.EntityMoved{Entity: 1})
	q.Push(&protocol.EntityMoved{Entity: 2})
	q.Push(&protocol.EntityMoved{Entity: 3})

	items := drainNow(t, q)
	testutil.AssertEqual(t, "len", len(items), 2)
	testutil.AssertEqual(t, "survivor", items[0].(*protocol.EntityMoved).Entity, uint64(2))
	testutil.AssertEqual(t, "newcomer", items[1].(*protocol.EntityMoved).Entity, uint64(3))
	testutil.AssertEqual(t, "dropped", q.Dropped(), uint64(1))
}

func TestSendQueueCriticalAlwaysAdmitted(t *testing.T) {
	q := newSendQueue(2)
	q.Push(&protocol.SpawnEntity{Entity: 1})
	q.Push(&protocol.SpawnEntity{Entity: 2})

	// A full queue of critical packets refuses a non-critical newcomer.
	q.Push(&protocol.EntityMoved{Entity: 3})
	testutil.AssertEqual(t, "len after refusal", q.Len(), 2)
	testutil.AssertEqual(t, "dropped", q.Dropped(), uint64(1))

	// But a critical newcomer goes past the limit.
	q.Push(&protocol.DespawnEntity{Entity: 1})
	testutil.AssertEqual(t, "len past limit", q.Len(), 3)

	items := drainNow(t, q)
	kinds := make([]protocol.Kind, len(items))
	for i, p := range items {
		kinds[i] = p.Kind()
	}
	testutil.AssertEqual(t, "kinds", kinds, []protocol.Kind{
		protocol.KindSpawnEntity,
		protocol.KindSpawnEntity,
		protocol.KindDespawnEntity,
	})
}

func TestSendQueueCloseSemantics(t *testing.T) {
	q := newSendQueue(8)
	q.Push(&protocol.Pong{Nonce: 7})
	q.Close()

	// Already-queued packets still drain after close.
	items := drainNow(t, q)
	testutil.AssertEqual(t, "drained after close", len(items), 1)

	// New pushes are silently ignored.
	q.Push(&protocol.Pong{Nonce: 8})
	testutil.AssertEqual(t, "push after close", q.Len(), 0)

	if _, ok := q.drain(make(chan struct{})); ok {
		t.Fatal("drain on a closed empty queue must report done")
	}
}

func TestSendQueueDrainWakes(t *testing.T) {
	q := newSendQueue(8)
	done := make(chan struct{})
	got := make(chan []protocol.Packet, 1)

	go func() {
		items, _ := q.drain(done)
		got <- items
	}()

	q.Push(&protocol.Pong{Nonce: 1})

	select {
	case items := <-got:
		testutil.AssertEqual(t, "woken with items", len(items), 1)
	case <-time.After(2 * time.Second):
		t.Fatal("drain never woke up")
	}
}
