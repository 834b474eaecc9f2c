package world

import (
	"github.com/google/uuid"

	"github.com/pixil98/go-mmo/internal/game"
)

// EventType enumerates committed state changes.
type EventType string

const (
	EventJoined     EventType = "Joined"
	EventSpawned    EventType = "Spawned"
	EventDespawned  EventType = "Despawned"
	EventMoved      EventType = "Moved"
	EventDamaged    EventType = "Damaged"
	EventDied       EventType = "Died"
	EventChat       EventType = "Chat"
	EventInventory  EventType = "Inventory"
	EventZoneLeft   EventType = "ZoneLeft"
	EventZoneEnter  EventType = "ZoneEnter"
	EventLeft       EventType = "Left"
)

// Event is an immutable record of a committed state change, produced
// during a tick and consumed by the interest manager for fan-out. Never
// mutated after creation.
type Event struct {
	Tick   uint64
	Type   EventType
	Entity EntityID

	Joined    *JoinedEvent
	Spawned   *SpawnedEvent
	Moved     *MovedEvent
	Damaged   *DamagedEvent
	Chat      *ChatEvent
	Inventory *InventoryEvent
	Zone      *ZoneEvent
	Left      *LeftEvent
}

// JoinedEvent reports a player entity entering the world. The interest
// manager uses it both to reply to the joining session and to register
// its interest set.
type JoinedEvent struct {
	Session uuid.UUID
	Spawn   SpawnedEvent
}

// SpawnedEvent carries everything a client needs to show an entity.
type SpawnedEvent struct {
	Kind      EntityKind
	Name      string
	ZoneID    uint16
	X, Y      float32
	Health    uint32
	MaxHealth uint32
}

type MovedEvent struct {
	ZoneID uint16
	X, Y   float32
}

type DamagedEvent struct {
	Attacker EntityID
	Amount   uint32
	Health   uint32
	ZoneID   uint16
}

type ChatEvent struct {
	Session uuid.UUID
	Channel uint8
	From    string
	Text    string
	ZoneID  uint16
}

// InventoryEvent targets only the owning session.
type InventoryEvent struct {
	Session uuid.UUID
	Items   []game.ItemStack
}

// ZoneEvent is one half of a two-phase zone transfer: a ZoneLeft for
// the old zone always precedes the ZoneEnter for the new one, so no
// observer ever sees an entity in two zones.
type ZoneEvent struct {
	ZoneID uint16
	Spawn  SpawnedEvent // populated on ZoneEnter for new observers
}

// LeftEvent reports a session's world presence fully released.
type LeftEvent struct {
	Session uuid.UUID
	Reason  CleanupReason
}
