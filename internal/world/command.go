package world

import (
	"time"

	"github.com/google/uuid"

	"github.com/pixil98/go-mmo/internal/game"
)

// CommandType enumerates the world commands.
type CommandType string

const (
	CommandJoin    CommandType = "Join"
	CommandMove    CommandType = "Move"
	CommandAttack  CommandType = "Attack"
	CommandPickup  CommandType = "Pickup"
	CommandChat    CommandType = "Chat"
	CommandCleanup CommandType = "Cleanup"
)

// Command is an immutable, validated instruction waiting for the next
// tick. Commands are queued, never executed in place, so untrusted
// input timing can't influence simulation order.
type Command struct {
	Type     CommandType
	Session  uuid.UUID
	Actor    EntityID
	IssuedAt time.Time

	Join    *JoinCommand
	Move    *MoveCommand
	Attack  *AttackCommand
	Pickup  *PickupCommand
	Chat    *ChatCommand
	Cleanup *CleanupCommand
}

// JoinCommand spawns a player entity for a session that just selected a
// character. The character record was restored from storage by the
// session layer; the world takes ownership of the live copy.
type JoinCommand struct {
	Character    *game.Character
	CharacterKey string
	Name         string
}

type MoveCommand struct {
	TargetX, TargetY float32
}

type AttackCommand struct {
	Target EntityID
}

type PickupCommand struct {
	Target EntityID
}

type ChatCommand struct {
	Channel uint8
	Text    string
}

// CleanupReason describes why a session's world presence is torn down.
type CleanupReason uint8

const (
	CleanupDisconnect CleanupReason = iota
	CleanupLogout
	CleanupKicked
	CleanupIdle
)

// CleanupCommand releases everything a dead or departing session held.
// Exactly one is enqueued per session teardown and it is never dropped.
type CleanupCommand struct {
	Reason CleanupReason
}
