package zones

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pixil98/go-testutil"

	"github.com/pixil98/go-mmo/internal/protocol"
	"github.com/pixil98/go-mmo/internal/world"
)

// recordingSink captures every delivered packet per session.
type recordingSink struct {
	deliveries []delivery
}

type delivery struct {
	session uuid.UUID
	packet  protocol.Packet
}

func (s *recordingSink) Deliver(session uuid.UUID, p protocol.Packet) {
	s.deliveries = append(s.deliveries, delivery{session: session, packet: p})
}

func (s *recordingSink) forSession(session uuid.UUID) []protocol.Packet {
	var out []protocol.Packet
	for _, d := range s.deliveries {
		if d.session == session {
			out = append(out, d.packet)
		}
	}
	return out
}

type recordingPublisher struct {
	from, text string
	calls      int
}

func (p *recordingPublisher) PublishGlobalChat(from, text string) error {
	p.calls++
	p.from = from
	p.text = text
	return nil
}

func entityID(idx uint32) world.EntityID {
	return world.EntityID{Index: idx, Generation: 1}
}

func spawnAt(name string, zone uint16, x, y float32) world.SpawnedEvent {
	return world.SpawnedEvent{
		Kind:      world.EntityCharacter,
		Name:      name,
		ZoneID:    zone,
		X:         x,
		Y:         y,
		Health:    100,
		MaxHealth: 100,
	}
}

func joinEvent(id world.EntityID, session uuid.UUID, sp world.SpawnedEvent) world.Event {
	return world.Event{
		Type:   world.EventJoined,
		Entity: id,
		Joined: &world.JoinedEvent{Session: session, Spawn: sp},
	}
}

func TestManagerJoinExchangesSpawns(t *testing.T) {
	sink := &recordingSink{}
	m := NewManager(1000, sink, nil)
	ctx := context.Background()

	sessA := uuid.New()
	sessB := uuid.New()
	a := entityID(1)
	b := entityID(2)

	m.Dispatch(ctx, []world.Event{joinEvent(a, sessA, spawnAt("alice", 1, 500, 500))})
	m.Dispatch(ctx, []world.Event{joinEvent(b, sessB, spawnAt("bob", 1, 600, 600))})

	// The first session gets its select reply, then bob's spawn once he
	// joins in range.
	aPkts := sink.forSession(sessA)
	testutil.AssertEqual(t, "packets to first session", len(aPkts), 2)
	if _, ok := aPkts[0].(*protocol.SelectCharacterReply); !ok {
		t.Errorf("expected SelectCharacterReply first, got %T", aPkts[0])
	}
	sp, ok := aPkts[1].(*protocol.SpawnEntity)
	if !ok {
		t.Fatalf("expected SpawnEntity, got %T", aPkts[1])
	}
	testutil.AssertEqual(t, "spawned name", sp.Name, "bob")

	// The second session sees alice in its own reply sequence.
	bPkts := sink.forSession(sessB)
	testutil.AssertEqual(t, "packets to second session", len(bPkts), 2)
	sp, ok = bPkts[1].(*protocol.SpawnEntity)
	if !ok {
		t.Fatalf("expected SpawnEntity, got %T", bPkts[1])
	}
	testutil.AssertEqual(t, "spawned name", sp.Name, "alice")
}

func TestManagerSpawnPrecedesUpdates(t *testing.T) {
	sink := &recordingSink{}
	m := NewManager(1000, sink, nil)
	ctx := context.Background()

	sessA := uuid.New()
	a := entityID(1)
	npc := entityID(2)

	// The NPC starts far outside the observer's interest window, then
	// walks into range. The observer must get the spawn packet before
	// any movement update.
	m.Dispatch(ctx, []world.Event{joinEvent(a, sessA, spawnAt("alice", 1, 500, 500))})
	m.Dispatch(ctx, []world.Event{{
		Type:   world.EventSpawned,
		Entity: npc,
		Spawned: &world.SpawnedEvent{
			Kind: world.EntityMonster, Name: "rat",
			ZoneID: 1, X: 9000, Y: 9000, Health: 30, MaxHealth: 30,
		},
	}})

	before := len(sink.forSession(sessA))
	testutil.AssertEqual(t, "packets before approach", before, 1) // select reply only

	m.Dispatch(ctx, []world.Event{
		{Type: world.EventMoved, Entity: npc, Moved: &world.MovedEvent{ZoneID: 1, X: 1200, Y: 1200}},
		{Type: world.EventMoved, Entity: npc, Moved: &world.MovedEvent{ZoneID: 1, X: 1180, Y: 1180}},
	})

	pkts := sink.forSession(sessA)[before:]
	if len(pkts) < 2 {
		t.Fatalf("expected spawn then move, got %d packets", len(pkts))
	}
	sp, ok := pkts[0].(*protocol.SpawnEntity)
	if !ok {
		t.Fatalf("expected SpawnEntity first, got %T", pkts[0])
	}
	testutil.AssertEqual(t, "spawn carries current position x", sp.X, float32(1200))
	if _, ok := pkts[1].(*protocol.EntityMoved); !ok {
		t.Errorf("expected EntityMoved after spawn, got %T", pkts[1])
	}
}

func TestManagerDespawnOnLeaveRange(t *testing.T) {
	sink := &recordingSink{}
	m := NewManager(1000, sink, nil)
	ctx := context.Background()

	sessA := uuid.New()
	a := entityID(1)
	npc := entityID(2)

	m.Dispatch(ctx, []world.Event{
		joinEvent(a, sessA, spawnAt("alice", 1, 500, 500)),
		{
			Type:   world.EventSpawned,
			Entity: npc,
			Spawned: &world.SpawnedEvent{
				Kind: world.EntityMonster, Name: "rat",
				ZoneID: 1, X: 600, Y: 600, Health: 30, MaxHealth: 30,
			},
		},
	})

	before := len(sink.forSession(sessA))

	// Walk the NPC far away; the observer gets exactly one despawn and
	// then silence even as the NPC keeps moving.
	m.Dispatch(ctx, []world.Event{
		{Type: world.EventMoved, Entity: npc, Moved: &world.MovedEvent{ZoneID: 1, X: 9000, Y: 9000}},
		{Type: world.EventMoved, Entity: npc, Moved: &world.MovedEvent{ZoneID: 1, X: 9100, Y: 9100}},
	})

	pkts := sink.forSession(sessA)[before:]
	testutil.AssertEqual(t, "packets after exit", len(pkts), 1)
	if _, ok := pkts[0].(*protocol.DespawnEntity); !ok {
		t.Errorf("expected DespawnEntity, got %T", pkts[0])
	}
}

func TestManagerZoneTransferTwoPhase(t *testing.T) {
	sink := &recordingSink{}
	m := NewManager(1000, sink, nil)
	ctx := context.Background()

	sessA := uuid.New()
	sessB := uuid.New()
	a := entityID(1)
	b := entityID(2)

	m.Dispatch(ctx, []world.Event{
		joinEvent(a, sessA, spawnAt("alice", 1, 500, 500)),
		joinEvent(b, sessB, spawnAt("bob", 1, 600, 600)),
	})

	beforeA := len(sink.forSession(sessA))
	beforeB := len(sink.forSession(sessB))

	// Bob transfers to zone 2. Alice sees exactly a despawn; bob sees
	// his old view torn down, then his own self-spawn in the new zone.
	m.Dispatch(ctx, []world.Event{
		{Type: world.EventZoneLeft, Entity: b, Zone: &world.ZoneEvent{ZoneID: 1}},
		{Type: world.EventZoneEnter, Entity: b, Zone: &world.ZoneEvent{
			ZoneID: 2,
			Spawn:  spawnAt("bob", 2, 100, 100),
		}},
	})

	aPkts := sink.forSession(sessA)[beforeA:]
	testutil.AssertEqual(t, "observer packets", len(aPkts), 1)
	if _, ok := aPkts[0].(*protocol.DespawnEntity); !ok {
		t.Errorf("expected DespawnEntity, got %T", aPkts[0])
	}

	bPkts := sink.forSession(sessB)[beforeB:]
	if len(bPkts) != 2 {
		t.Fatalf("expected despawn of alice then self-spawn, got %d packets", len(bPkts))
	}
	if _, ok := bPkts[0].(*protocol.DespawnEntity); !ok {
		t.Errorf("expected DespawnEntity first, got %T", bPkts[0])
	}
	sp, ok := bPkts[1].(*protocol.SpawnEntity)
	if !ok {
		t.Fatalf("expected self SpawnEntity, got %T", bPkts[1])
	}
	testutil.AssertEqual(t, "self-spawn zone position x", sp.X, float32(100))
}

func TestManagerChatChannels(t *testing.T) {
	sink := &recordingSink{}
	pub := &recordingPublisher{}
	m := NewManager(1000, sink, pub)
	ctx := context.Background()

	sessNear := uuid.New()
	sessFar := uuid.New()
	near := entityID(1)
	far := entityID(2)
	talker := entityID(3)
	sessTalker := uuid.New()

	m.Dispatch(ctx, []world.Event{
		joinEvent(near, sessNear, spawnAt("near", 1, 500, 500)),
		joinEvent(far, sessFar, spawnAt("far", 1, 9000, 9000)),
		joinEvent(talker, sessTalker, spawnAt("talker", 1, 550, 550)),
	})

	countChats := func(sess uuid.UUID) int {
		n := 0
		for _, p := range sink.forSession(sess) {
			if _, ok := p.(*protocol.ChatMessage); ok {
				n++
			}
		}
		return n
	}

	// Say reaches only adjacent sectors.
	m.Dispatch(ctx, []world.Event{{
		Type:   world.EventChat,
		Entity: talker,
		Chat: &world.ChatEvent{
			Session: sessTalker, Channel: protocol.ChatChannelSay,
			From: "talker", Text: "hello", ZoneID: 1,
		},
	}})
	testutil.AssertEqual(t, "say heard nearby", countChats(sessNear), 1)
	testutil.AssertEqual(t, "say not heard far away", countChats(sessFar), 0)

	// Zone chat reaches the whole zone.
	m.Dispatch(ctx, []world.Event{{
		Type:   world.EventChat,
		Entity: talker,
		Chat: &world.ChatEvent{
			Session: sessTalker, Channel: protocol.ChatChannelZone,
			From: "talker", Text: "zone hello", ZoneID: 1,
		},
	}})
	testutil.AssertEqual(t, "zone chat heard far away", countChats(sessFar), 1)

	// Global chat goes to the bus, not directly to sessions.
	before := len(sink.deliveries)
	m.Dispatch(ctx, []world.Event{{
		Type:   world.EventChat,
		Entity: talker,
		Chat: &world.ChatEvent{
			Session: sessTalker, Channel: protocol.ChatChannelGlobal,
			From: "talker", Text: "global hello", ZoneID: 1,
		},
	}})
	testutil.AssertEqual(t, "global chat publishes", pub.calls, 1)
	testutil.AssertEqual(t, "global chat from", pub.from, "talker")
	testutil.AssertEqual(t, "no direct deliveries for global", len(sink.deliveries), before)
}

func TestManagerDamageAndInventory(t *testing.T) {
	sink := &recordingSink{}
	m := NewManager(1000, sink, nil)
	ctx := context.Background()

	sessA := uuid.New()
	a := entityID(1)

	m.Dispatch(ctx, []world.Event{joinEvent(a, sessA, spawnAt("alice", 1, 500, 500))})
	before := len(sink.forSession(sessA))

	m.Dispatch(ctx, []world.Event{
		{
			Type:   world.EventDamaged,
			Entity: a,
			Damaged: &world.DamagedEvent{
				Attacker: entityID(9), Amount: 12, Health: 88, ZoneID: 1,
			},
		},
		{
			Type:   world.EventInventory,
			Entity: a,
			Inventory: &world.InventoryEvent{
				Session: sessA,
				Items:   nil,
			},
		},
	})

	pkts := sink.forSession(sessA)[before:]
	if len(pkts) != 2 {
		t.Fatalf("expected damage then inventory, got %d packets", len(pkts))
	}
	dmg, ok := pkts[0].(*protocol.EntityDamaged)
	if !ok {
		t.Fatalf("expected EntityDamaged, got %T", pkts[0])
	}
	testutil.AssertEqual(t, "remaining health", dmg.Health, uint32(88))
	if _, ok := pkts[1].(*protocol.InventoryUpdate); !ok {
		t.Errorf("expected InventoryUpdate, got %T", pkts[1])
	}
}

func TestManagerLeftRemovesSession(t *testing.T) {
	sink := &recordingSink{}
	m := NewManager(1000, sink, nil)
	ctx := context.Background()

	sessA := uuid.New()
	sessB := uuid.New()
	a := entityID(1)
	b := entityID(2)

	m.Dispatch(ctx, []world.Event{
		joinEvent(a, sessA, spawnAt("alice", 1, 500, 500)),
		joinEvent(b, sessB, spawnAt("bob", 1, 600, 600)),
	})
	testutil.AssertEqual(t, "sessions before leave", m.Sessions(), 2)

	beforeA := len(sink.forSession(sessA))
	m.Dispatch(ctx, []world.Event{
		{Type: world.EventDespawned, Entity: b},
		{Type: world.EventLeft, Entity: b, Left: &world.LeftEvent{
			Session: sessB, Reason: world.CleanupDisconnect,
		}},
	})

	testutil.AssertEqual(t, "sessions after leave", m.Sessions(), 1)
	aPkts := sink.forSession(sessA)[beforeA:]
	testutil.AssertEqual(t, "observer packets on leave", len(aPkts), 1)
	if _, ok := aPkts[0].(*protocol.DespawnEntity); !ok {
		t.Errorf("expected DespawnEntity, got %T", aPkts[0])
	}
}
