package zones

import (
	"github.com/google/uuid"

	"github.com/pixil98/go-mmo/internal/protocol"
	"github.com/pixil98/go-mmo/internal/world"
)

// Sink delivers an outbound packet to a session's send queue. The
// session layer enforces the queue's overflow policy; critical kinds
// are never dropped there.
type Sink interface {
	Deliver(session uuid.UUID, p protocol.Packet)
}

// Publisher carries chat off the tick thread for channels that span
// the whole server. Implemented by the messaging bus.
type Publisher interface {
	PublishGlobalChat(from, text string) error
}

// sector is one cell of a zone's spatial grid. Interest covers the 3x3
// neighborhood around an entity's sector.
type sector struct {
	X, Y int32
}

func sectorOf(x, y, size float32) sector {
	return sector{X: int32(x / size), Y: int32(y / size)}
}

// adjacent reports whether two sectors are within one step of each
// other on both axes.
func adjacent(a, b sector) bool {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx >= -1 && dx <= 1 && dy >= -1 && dy <= 1
}

// entityState is the interest manager's read-model of one entity,
// built entirely from events. The cached spawn data is what a late
// observer receives when the entity first enters its interest range.
type entityState struct {
	zone   uint16
	sector sector
	x, y   float32
	spawn  world.SpawnedEvent
	// inZone is false between the two phases of a zone transfer.
	inZone bool
}

// sessionState tracks one in-world session's interest.
type sessionState struct {
	entity  world.EntityID
	zone    uint16
	sector  sector
	visible map[world.EntityID]bool
}
