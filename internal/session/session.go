package session

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pixil98/go-mmo/internal/game"
	"github.com/pixil98/go-mmo/internal/protocol"
	"github.com/pixil98/go-mmo/internal/world"
)

// Session is one client connection's server-side state. The read loop
// owns the state field; other goroutines touch only the send queue,
// the packed entity id, and the activity clock.
type Session struct {
	id    uuid.UUID
	conn  io.ReadWriter
	codec *protocol.Codec
	queue *sendQueue

	// codecMu serializes Encode, Decode and rekeying; the read and
	// write loops share the codec.
	codecMu sync.Mutex

	// writeMu serializes socket writes between the write loop and the
	// inline handshake reply.
	writeMu sync.Mutex

	// state is read-loop-owned except for the sweep goroutine forcing
	// Disconnecting, hence the atomic.
	state atomic.Uint32

	account    *game.Account
	accountKey string

	characterKey  string
	characterName string

	// entity is the packed bound entity id; zero until the world
	// confirms the join. Written from the tick goroutine, read from
	// the connection goroutines.
	entity atomic.Uint64

	lastActive atomic.Int64 // unix nanos
	linklessAt atomic.Int64 // unix nanos; zero while the link is up

	cleanupOnce sync.Once
}

func newSession(conn io.ReadWriter, queueLimit int) *Session {
	s := &Session{
		id:    uuid.New(),
		conn:  conn,
		codec: protocol.NewCodec(),
		queue: newSendQueue(queueLimit),
	}
	s.setState(StateAwaitingHandshake)
	s.touch()
	return s
}

// ID returns the session's identifier. World code refers to the
// session by this id only.
func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(uint32(st))
}

// Entity returns the bound world entity, or false before the world has
// confirmed the join.
func (s *Session) Entity() (world.EntityID, bool) {
	packed := s.entity.Load()
	if packed == 0 {
		return world.EntityID{}, false
	}
	return world.UnpackEntityID(packed), true
}

func (s *Session) bindEntity(id world.EntityID) {
	s.entity.Store(id.Packed())
}

// Send queues an outbound packet.
func (s *Session) Send(p protocol.Packet) {
	s.queue.Push(p)
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

func (s *Session) idleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastActive.Load()))
}

// markLinkless records the moment the connection died while the
// session was still in world; the manager's sweep reaps it after the
// grace period.
func (s *Session) markLinkless() {
	s.linklessAt.CompareAndSwap(0, time.Now().UnixNano())
}

func (s *Session) linklessFor(now time.Time) (time.Duration, bool) {
	at := s.linklessAt.Load()
	if at == 0 {
		return 0, false
	}
	return now.Sub(time.Unix(0, at)), true
}

// beginDisconnect queues a final Disconnect packet where the protocol
// state allows one and stops further sends. Safe to call more than
// once; only the first reason wins.
func (s *Session) beginDisconnect(reason uint8) {
	if s.State() != StateAwaitingHandshake {
		// Before the handshake the cipher isn't seeded, so there is
		// no legal way to send anything.
		s.queue.Push(&protocol.Disconnect{Reason: reason})
	}
	s.setState(StateDisconnecting)
	s.queue.Close()
}

// writeNow encodes and writes a packet inline, bypassing the queue.
// Used only for the handshake reply, which must leave in clear before
// the cipher is seeded.
func (s *Session) writeNow(p protocol.Packet) error {
	frame, err := s.encode(p)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err = s.conn.Write(frame)
	return err
}

func (s *Session) encode(p protocol.Packet) ([]byte, error) {
	s.codecMu.Lock()
	defer s.codecMu.Unlock()
	return s.codec.Encode(p)
}

func (s *Session) decode(buf []byte) (protocol.Packet, int, error) {
	s.codecMu.Lock()
	defer s.codecMu.Unlock()
	return s.codec.Decode(buf)
}

func (s *Session) seedCipher(clientSeed, serverSeed [16]byte) error {
	s.codecMu.Lock()
	defer s.codecMu.Unlock()
	seed := protocol.CombineSeeds(clientSeed, serverSeed)
	return s.codec.SeedServer(seed)
}

func (s *Session) rekey(seed [protocol.SeedSize]byte) error {
	s.codecMu.Lock()
	defer s.codecMu.Unlock()
	return s.codec.SeedServer(seed)
}
