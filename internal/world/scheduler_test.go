package world

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pixil98/go-testutil"

	"github.com/pixil98/go-mmo/internal/game"
)

type captureFanOut struct {
	batches [][]Event
}

func (c *captureFanOut) Dispatch(_ context.Context, evs []Event) {
	c.batches = append(c.batches, evs)
}

func joinCommand(session uuid.UUID, name string) Command {
	return Command{
		Type:    CommandJoin,
		Session: session,
		Join: &JoinCommand{
			Character: &game.Character{
				Name:      name,
				Account:   "acct",
				Level:     1,
				Zone:      1,
				X:         500,
				Y:         500,
				Health:    100,
				MaxHealth: 100,
			},
			CharacterKey: "acct:" + name,
			Name:         name,
		},
	}
}

func TestSchedulerAppliesCommandsInOrder(t *testing.T) {
	fanout := &captureFanOut{}
	sched := NewScheduler(New(DefaultConfig(), nil, 1), 16, 16, fanout)

	first := uuid.New()
	second := uuid.New()
	if err := sched.Enqueue(joinCommand(first, "alpha")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sched.Enqueue(joinCommand(second, "beta")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := sched.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "batches", len(fanout.batches), 1)
	var joins []uuid.UUID
	for _, ev := range fanout.batches[0] {
		if ev.Type == EventJoined {
			joins = append(joins, ev.Joined.Session)
		}
	}
	testutil.AssertEqual(t, "join order", joins, []uuid.UUID{first, second})

	tel := sched.Telemetry()
	testutil.AssertEqual(t, "ticks", tel.Ticks, uint64(1))
	testutil.AssertEqual(t, "applied", tel.CommandsApplied, uint64(2))
	testutil.AssertEqual(t, "dropped", tel.CommandsDropped, uint64(0))
}

func TestSchedulerDropsStaleActor(t *testing.T) {
	sched := NewScheduler(New(DefaultConfig(), nil, 1), 16, 16, nil)

	err := sched.Enqueue(Command{
		Type:    CommandMove,
		Session: uuid.New(),
		Actor:   EntityID{Index: 99, Generation: 1},
		Move:    &MoveCommand{TargetX: 10, TargetY: 10},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := sched.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tel := sched.Telemetry()
	testutil.AssertEqual(t, "applied", tel.CommandsApplied, uint64(0))
	testutil.AssertEqual(t, "dropped", tel.CommandsDropped, uint64(1))
}

func TestSchedulerCommandCapCarriesOver(t *testing.T) {
	sched := NewScheduler(New(DefaultConfig(), nil, 1), 16, 1, nil)

	first := uuid.New()
	second := uuid.New()
	if err := sched.Enqueue(joinCommand(first, "alpha")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sched.Enqueue(joinCommand(second, "beta")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := sched.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sched.World().SessionEntity(first); !ok {
		t.Fatal("first join should apply on the first tick")
	}
	if _, ok := sched.World().SessionEntity(second); ok {
		t.Fatal("second join should wait for the next tick")
	}

	if err := sched.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sched.World().SessionEntity(second); !ok {
		t.Fatal("second join should apply on the second tick")
	}
	testutil.AssertEqual(t, "applied", sched.Telemetry().CommandsApplied, uint64(2))
}

func TestSchedulerCleanupDespawnsOnce(t *testing.T) {
	fanout := &captureFanOut{}
	sched := NewScheduler(New(DefaultConfig(), nil, 1), 16, 16, fanout)
	session := uuid.New()

	if err := sched.Enqueue(joinCommand(session, "gamma")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sched.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, _ := sched.World().SessionEntity(session)

	cleanup := Command{
		Type:    CommandCleanup,
		Session: session,
		Cleanup: &CleanupCommand{Reason: CleanupDisconnect},
	}
	// Teardown is idempotent: the second cleanup finds nothing bound.
	for i := 0; i < 2; i++ {
		if err := sched.Enqueue(cleanup); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := sched.Tick(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	despawns, lefts := 0, 0
	for _, batch := range fanout.batches {
		for _, ev := range batch {
			switch ev.Type {
			case EventDespawned:
				despawns++
			case EventLeft:
				lefts++
			}
		}
	}
	testutil.AssertEqual(t, "despawns", despawns, 1)
	testutil.AssertEqual(t, "lefts", lefts, 2)
	testutil.AssertEqual(t, "entity dead", sched.World().Store().Alive(id), false)
	if _, ok := sched.World().SessionEntity(session); ok {
		t.Fatal("session binding should be gone")
	}
}

func TestSchedulerSetFanOut(t *testing.T) {
	sched := NewScheduler(New(DefaultConfig(), nil, 1), 16, 16, nil)
	session := uuid.New()

	// No fan-out attached yet; events from this tick are discarded.
	if err := sched.Enqueue(joinCommand(session, "delta")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sched.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fanout := &captureFanOut{}
	sched.SetFanOut(fanout)

	id, _ := sched.World().SessionEntity(session)
	if err := sched.Enqueue(Command{
		Type:    CommandMove,
		Session: session,
		Actor:   id,
		Move:    &MoveCommand{TargetX: 600, TargetY: 500},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sched.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "batches", len(fanout.batches), 1)
	testutil.AssertEqual(t, "event", fanout.batches[0][0].Type, EventMoved)
}
