package zones

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pixil98/go-mmo/internal/protocol"
	"github.com/pixil98/go-mmo/internal/world"
)

// Manager computes, for every committed world event, the set of
// sessions that must observe it, and pushes the corresponding packets
// onto their send queues.
//
// It is touched only from the tick goroutine, during the fan-out phase
// after all entity mutation has finished; no locking. The invariants it
// maintains: a spawn packet always precedes any update packet for that
// entity, a despawn always precedes removal from the interest set, and
// a zone transfer never shows an entity in two zones.
type Manager struct {
	sectorSize float32
	sink       Sink
	publisher  Publisher

	entities map[world.EntityID]*entityState
	sessions map[uuid.UUID]*sessionState
}

func NewManager(sectorSize float32, sink Sink, publisher Publisher) *Manager {
	return &Manager{
		sectorSize: sectorSize,
		sink:       sink,
		publisher:  publisher,
		entities:   make(map[world.EntityID]*entityState),
		sessions:   make(map[uuid.UUID]*sessionState),
	}
}

// Dispatch fans out one tick's events in order.
func (m *Manager) Dispatch(ctx context.Context, events []world.Event) {
	for _, ev := range events {
		switch ev.Type {
		case world.EventJoined:
			m.handleJoined(ev)
		case world.EventSpawned:
			m.handleSpawned(ev)
		case world.EventDespawned:
			m.handleDespawned(ev)
		case world.EventMoved:
			m.handleMoved(ev)
		case world.EventDamaged:
			m.handleDamaged(ev)
		case world.EventDied:
			// Observers learn of death from the damage and despawn
			// packets; nothing extra to send.
		case world.EventChat:
			m.handleChat(ctx, ev)
		case world.EventInventory:
			m.handleInventory(ev)
		case world.EventZoneLeft:
			m.handleZoneLeft(ev)
		case world.EventZoneEnter:
			m.handleZoneEnter(ev)
		case world.EventLeft:
			m.handleLeft(ev)
		default:
			slog.WarnContext(ctx, "unhandled event type", "type", ev.Type)
		}
	}
}

// observers returns the sessions whose interest covers the given spot,
// excluding the entity itself.
func (m *Manager) observers(zone uint16, sec sector, except world.EntityID) []*sessionState {
	var out []*sessionState
	for _, ss := range m.sessions {
		if ss.entity == except {
			continue
		}
		if ss.zone == zone && adjacent(ss.sector, sec) {
			out = append(out, ss)
		}
	}
	return out
}

func (m *Manager) sessionFor(id world.EntityID) (uuid.UUID, *sessionState) {
	for sid, ss := range m.sessions {
		if ss.entity == id {
			return sid, ss
		}
	}
	return uuid.Nil, nil
}

func spawnPacket(id world.EntityID, sp world.SpawnedEvent) *protocol.SpawnEntity {
	return &protocol.SpawnEntity{
		Entity:     id.Packed(),
		EntityType: uint8(sp.Kind),
		Name:       sp.Name,
		X:          sp.X,
		Y:          sp.Y,
		Health:     sp.Health,
		MaxHealth:  sp.MaxHealth,
	}
}

// reveal makes an entity visible to a session: spawn packet first, then
// membership in the visible set.
func (m *Manager) reveal(sid uuid.UUID, ss *sessionState, id world.EntityID, es *entityState) {
	if ss.visible[id] {
		return
	}
	m.sink.Deliver(sid, spawnPacket(id, es.spawn))
	ss.visible[id] = true
}

// conceal hides an entity from a session: despawn packet first, then
// removal from the visible set.
func (m *Manager) conceal(sid uuid.UUID, ss *sessionState, id world.EntityID) {
	if !ss.visible[id] {
		return
	}
	m.sink.Deliver(sid, &protocol.DespawnEntity{Entity: id.Packed()})
	delete(ss.visible, id)
}

func (m *Manager) trackEntity(id world.EntityID, sp world.SpawnedEvent) *entityState {
	es := &entityState{
		zone:   sp.ZoneID,
		sector: sectorOf(sp.X, sp.Y, m.sectorSize),
		x:      sp.X,
		y:      sp.Y,
		spawn:  sp,
		inZone: true,
	}
	m.entities[id] = es
	return es
}

func (m *Manager) handleJoined(ev world.Event) {
	joined := ev.Joined
	es := m.trackEntity(ev.Entity, joined.Spawn)

	ss := &sessionState{
		entity:  ev.Entity,
		zone:    es.zone,
		sector:  es.sector,
		visible: make(map[world.EntityID]bool),
	}
	m.sessions[joined.Session] = ss

	m.sink.Deliver(joined.Session, &protocol.SelectCharacterReply{
		Result: protocol.CharacterOk,
		Entity: ev.Entity.Packed(),
		ZoneID: es.zone,
		X:      es.x,
		Y:      es.y,
	})

	// Introduce the newcomer and the existing world to each other.
	for id, other := range m.entities {
		if id == ev.Entity || !other.inZone || other.zone != es.zone || !adjacent(other.sector, es.sector) {
			continue
		}
		m.reveal(joined.Session, ss, id, other)
	}
	for _, obs := range m.observers(es.zone, es.sector, ev.Entity) {
		sid, _ := m.sessionID(obs)
		m.reveal(sid, obs, ev.Entity, es)
	}
}

func (m *Manager) handleSpawned(ev world.Event) {
	es := m.trackEntity(ev.Entity, *ev.Spawned)
	for _, obs := range m.observers(es.zone, es.sector, ev.Entity) {
		sid, _ := m.sessionID(obs)
		m.reveal(sid, obs, ev.Entity, es)
	}
}

func (m *Manager) handleDespawned(ev world.Event) {
	for sid, ss := range m.sessions {
		m.conceal(sid, ss, ev.Entity)
	}
	delete(m.entities, ev.Entity)
}

func (m *Manager) handleMoved(ev world.Event) {
	es, ok := m.entities[ev.Entity]
	if !ok || !es.inZone {
		return
	}

	es.x = ev.Moved.X
	es.y = ev.Moved.Y
	es.sector = sectorOf(es.x, es.y, m.sectorSize)
	es.spawn.X = es.x
	es.spawn.Y = es.y

	moved := &protocol.EntityMoved{Entity: ev.Entity.Packed(), X: es.x, Y: es.y}

	// Visibility shifts first (spawn before update), then the update
	// itself to everyone still watching.
	for sid, ss := range m.sessions {
		if ss.entity == ev.Entity {
			continue
		}
		inRange := ss.zone == es.zone && adjacent(ss.sector, es.sector)
		switch {
		case inRange && !ss.visible[ev.Entity]:
			m.reveal(sid, ss, ev.Entity, es)
		case !inRange && ss.visible[ev.Entity]:
			m.conceal(sid, ss, ev.Entity)
		case inRange:
			m.sink.Deliver(sid, moved)
		}
	}

	// If the mover is a player, its own interest window shifts too.
	if sid, ss := m.sessionFor(ev.Entity); ss != nil {
		ss.sector = es.sector
		m.refreshInterest(sid, ss)
		m.sink.Deliver(sid, moved)
	}
}

// refreshInterest reconciles a session's visible set against its
// current interest window.
func (m *Manager) refreshInterest(sid uuid.UUID, ss *sessionState) {
	for id := range ss.visible {
		es, ok := m.entities[id]
		if !ok || !es.inZone || es.zone != ss.zone || !adjacent(es.sector, ss.sector) {
			m.conceal(sid, ss, id)
		}
	}
	for id, es := range m.entities {
		if id == ss.entity || !es.inZone || es.zone != ss.zone || !adjacent(es.sector, ss.sector) {
			continue
		}
		m.reveal(sid, ss, id, es)
	}
}

func (m *Manager) handleDamaged(ev world.Event) {
	es, ok := m.entities[ev.Entity]
	if !ok || !es.inZone {
		return
	}
	es.spawn.Health = ev.Damaged.Health

	pkt := &protocol.EntityDamaged{
		Entity:   ev.Entity.Packed(),
		Attacker: ev.Damaged.Attacker.Packed(),
		Amount:   ev.Damaged.Amount,
		Health:   ev.Damaged.Health,
	}
	for sid, ss := range m.sessions {
		if ss.visible[ev.Entity] || ss.entity == ev.Entity {
			m.sink.Deliver(sid, pkt)
		}
	}
}

func (m *Manager) handleChat(ctx context.Context, ev world.Event) {
	chat := ev.Chat

	if chat.Channel == protocol.ChatChannelGlobal {
		// Global chat rides the message bus; every session hears it
		// through its subscription, including the sender.
		if m.publisher != nil {
			if err := m.publisher.PublishGlobalChat(chat.From, chat.Text); err != nil {
				slog.WarnContext(ctx, "publishing global chat", "error", err)
			}
		}
		return
	}

	pkt := &protocol.ChatMessage{Channel: chat.Channel, From: chat.From, Text: chat.Text}

	es, ok := m.entities[ev.Entity]
	if !ok {
		return
	}
	for sid, ss := range m.sessions {
		if ss.zone != chat.ZoneID {
			continue
		}
		if chat.Channel == protocol.ChatChannelSay && !adjacent(ss.sector, es.sector) {
			continue
		}
		m.sink.Deliver(sid, pkt)
	}
}

func (m *Manager) handleInventory(ev world.Event) {
	items := make([]protocol.ItemSlot, 0, len(ev.Inventory.Items))
	for _, it := range ev.Inventory.Items {
		items = append(items, protocol.ItemSlot{ItemID: it.ItemID, Quantity: it.Quantity})
	}
	m.sink.Deliver(ev.Inventory.Session, &protocol.InventoryUpdate{Items: items})
}

// handleZoneLeft is phase one of a zone transfer: every observer loses
// sight of the entity before anyone in the destination gains it.
func (m *Manager) handleZoneLeft(ev world.Event) {
	es, ok := m.entities[ev.Entity]
	if !ok {
		return
	}
	es.inZone = false

	for sid, ss := range m.sessions {
		m.conceal(sid, ss, ev.Entity)
	}

	// A departing player loses sight of its old zone entirely.
	if sid, ss := m.sessionFor(ev.Entity); ss != nil {
		for id := range ss.visible {
			m.conceal(sid, ss, id)
		}
	}
}

// handleZoneEnter is phase two: the entity materializes in the new
// zone.
func (m *Manager) handleZoneEnter(ev world.Event) {
	es := m.trackEntity(ev.Entity, ev.Zone.Spawn)

	for _, obs := range m.observers(es.zone, es.sector, ev.Entity) {
		sid, _ := m.sessionID(obs)
		m.reveal(sid, obs, ev.Entity, es)
	}

	if sid, ss := m.sessionFor(ev.Entity); ss != nil {
		ss.zone = es.zone
		ss.sector = es.sector
		// The self-spawn tells the client where it now stands.
		m.sink.Deliver(sid, spawnPacket(ev.Entity, es.spawn))
		m.refreshInterest(sid, ss)
	}
}

func (m *Manager) handleLeft(ev world.Event) {
	delete(m.sessions, ev.Left.Session)
}

// sessionID finds the id for a session state. The session maps are
// small enough that the reverse scan has never shown up in profiles.
func (m *Manager) sessionID(target *sessionState) (uuid.UUID, bool) {
	for sid, ss := range m.sessions {
		if ss == target {
			return sid, true
		}
	}
	return uuid.Nil, false
}

// Sessions reports the number of in-world sessions, for telemetry.
func (m *Manager) Sessions() int {
	return len(m.sessions)
}
