package router

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/pixil98/go-mmo/internal/protocol"
	"github.com/pixil98/go-mmo/internal/world"
)

// ErrUnauthorizedCommand means a packet tried to act through an entity
// the session does not own. The command is dropped; the connection
// stays open.
var ErrUnauthorizedCommand = errors.New("entity not owned by session")

// BadRequestError is a structurally invalid in-world request. Like an
// authorization failure it drops the command without touching the
// connection.
type BadRequestError struct {
	Kind   protocol.Kind
	Reason string
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("bad %s request: %s", e.Kind, e.Reason)
}

const maxChatLength = 256

// Router maps state-validated in-world packets onto world commands.
// It performs structural validation only and never touches world
// state; commands it returns are handed to the scheduler's queue.
type Router struct {
	zoneExtent float32
}

func New(zoneExtent float32) *Router {
	return &Router{zoneExtent: zoneExtent}
}

// Route converts one packet into exactly one command on behalf of the
// session bound to actor. Every returned error means the packet
// produced no command at all.
func (r *Router) Route(session uuid.UUID, actor world.EntityID, p protocol.Packet) (world.Command, error) {
	base := world.Command{
		Session:  session,
		Actor:    actor,
		IssuedAt: time.Now(),
	}

	switch pkt := p.(type) {
	case *protocol.MoveRequest:
		if pkt.Entity != actor.Packed() {
			return world.Command{}, ErrUnauthorizedCommand
		}
		if !finite(pkt.TargetX) || !finite(pkt.TargetY) {
			return world.Command{}, &BadRequestError{Kind: p.Kind(), Reason: "non-finite coordinates"}
		}
		if pkt.TargetX < 0 || pkt.TargetX > r.zoneExtent || pkt.TargetY < 0 || pkt.TargetY > r.zoneExtent {
			return world.Command{}, &BadRequestError{Kind: p.Kind(), Reason: "target outside zone"}
		}
		base.Type = world.CommandMove
		base.Move = &world.MoveCommand{TargetX: pkt.TargetX, TargetY: pkt.TargetY}
		return base, nil

	case *protocol.AttackRequest:
		if pkt.Entity != actor.Packed() {
			return world.Command{}, ErrUnauthorizedCommand
		}
		target := world.UnpackEntityID(pkt.Target)
		if target.IsZero() {
			return world.Command{}, &BadRequestError{Kind: p.Kind(), Reason: "zero target"}
		}
		base.Type = world.CommandAttack
		base.Attack = &world.AttackCommand{Target: target}
		return base, nil

	case *protocol.PickupRequest:
		if pkt.Entity != actor.Packed() {
			return world.Command{}, ErrUnauthorizedCommand
		}
		target := world.UnpackEntityID(pkt.Target)
		if target.IsZero() {
			return world.Command{}, &BadRequestError{Kind: p.Kind(), Reason: "zero target"}
		}
		base.Type = world.CommandPickup
		base.Pickup = &world.PickupCommand{Target: target}
		return base, nil

	case *protocol.ChatSend:
		if pkt.Channel > protocol.ChatChannelGlobal {
			return world.Command{}, &BadRequestError{Kind: p.Kind(), Reason: "unknown channel"}
		}
		if len(pkt.Text) == 0 || len(pkt.Text) > maxChatLength {
			return world.Command{}, &BadRequestError{Kind: p.Kind(), Reason: "bad text length"}
		}
		base.Type = world.CommandChat
		base.Chat = &world.ChatCommand{Channel: pkt.Channel, Text: pkt.Text}
		return base, nil

	default:
		return world.Command{}, &BadRequestError{Kind: p.Kind(), Reason: "not routable"}
	}
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
