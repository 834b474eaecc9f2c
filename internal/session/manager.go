package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pixil98/go-mmo/internal/game"
	"github.com/pixil98/go-mmo/internal/protocol"
	"github.com/pixil98/go-mmo/internal/router"
	"github.com/pixil98/go-mmo/internal/storage"
	"github.com/pixil98/go-mmo/internal/world"
)

// Announcer renders server announcements for delivery on world entry.
// Implemented by the messaging package's template service.
type Announcer interface {
	Motd(character string) (string, error)
}

type Config struct {
	Version       uint32
	QueueLimit    int
	MaxSessions   int
	IdleTimeout   time.Duration
	LinklessGrace time.Duration

	// Spawn point for freshly created characters.
	SpawnZone uint16
	SpawnX    float32
	SpawnY    float32
}

// Manager owns every live session. It accepts connections from the
// listeners, runs their read loops, delivers fan-out packets on behalf
// of the interest manager, and sweeps out dead sessions on each tick.
type Manager struct {
	cfg       Config
	accounts  storage.Storer[*game.Account]
	chars     storage.Storer[*game.Character]
	tokens    storage.TokenStore
	sched     *world.Scheduler
	routes    *router.Router
	announcer Announcer

	// serial numbers accepted handshakes; echoed to the client so
	// support logs on both ends name the same connection.
	serial atomic.Uint32

	mu              sync.RWMutex
	sessions        map[uuid.UUID]*Session
	accountSessions map[string]uuid.UUID
}

func NewManager(
	cfg Config,
	accounts storage.Storer[*game.Account],
	chars storage.Storer[*game.Character],
	tokens storage.TokenStore,
	sched *world.Scheduler,
	routes *router.Router,
	announcer Announcer,
) *Manager {
	return &Manager{
		cfg:             cfg,
		accounts:        accounts,
		chars:           chars,
		tokens:          tokens,
		sched:           sched,
		routes:          routes,
		announcer:       announcer,
		sessions:        map[uuid.UUID]*Session{},
		accountSessions: map[string]uuid.UUID{},
	}
}

func (m *Manager) get(id uuid.UUID) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

func (m *Manager) register(s *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sessions) >= m.cfg.MaxSessions {
		return false
	}
	m.sessions[s.id] = s
	return true
}

func (m *Manager) bindAccount(s *Session, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.accountSessions[key]; taken {
		return false
	}
	m.accountSessions[key] = s.id
	return true
}

func (m *Manager) remove(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, s.id)
	if s.accountKey != "" && m.accountSessions[s.accountKey] == s.id {
		delete(m.accountSessions, s.accountKey)
	}
}

// Deliver implements the interest manager's packet sink. A successful
// character-select reply is also where the session learns its bound
// entity, and where the MOTD goes out.
func (m *Manager) Deliver(session uuid.UUID, p protocol.Packet) {
	s := m.get(session)
	if s == nil {
		return
	}

	if reply, ok := p.(*protocol.SelectCharacterReply); ok && reply.Result == protocol.CharacterOk {
		s.bindEntity(world.UnpackEntityID(reply.Entity))
		s.Send(p)
		m.sendMotd(s)
		return
	}

	s.Send(p)
}

func (m *Manager) sendMotd(s *Session) {
	if m.announcer == nil {
		return
	}
	text, err := m.announcer.Motd(s.characterName)
	if err != nil {
		slog.Warn("rendering motd", "session", s.id, "error", err)
		return
	}
	if text != "" {
		s.Send(&protocol.Announce{Text: text})
	}
}

// BroadcastChat fans a bus chat message out to every in-world session.
// Called from messaging subscription callbacks.
func (m *Manager) BroadcastChat(channel uint8, from, text string) {
	pkt := &protocol.ChatMessage{Channel: channel, From: from, Text: text}
	m.eachInWorld(func(s *Session) {
		s.Send(pkt)
	})
}

// BroadcastAnnounce fans a server announcement out to every in-world
// session.
func (m *Manager) BroadcastAnnounce(text string) {
	pkt := &protocol.Announce{Text: text}
	m.eachInWorld(func(s *Session) {
		s.Send(pkt)
	})
}

func (m *Manager) eachInWorld(fn func(*Session)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if _, bound := s.Entity(); bound {
			fn(s)
		}
	}
}

// Tick sweeps out idle connections and linkless sessions past their
// grace period. It satisfies the driver's Manager interface and runs
// on the same cadence as the simulation.
func (m *Manager) Tick(ctx context.Context) error {
	now := time.Now()

	m.mu.RLock()
	candidates := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		candidates = append(candidates, s)
	}
	m.mu.RUnlock()

	for _, s := range candidates {
		if linkless, ok := s.linklessFor(now); ok {
			if linkless >= m.cfg.LinklessGrace {
				slog.InfoContext(ctx, "reaping linkless session", "session", s.id, "linkless", linkless)
				m.finish(ctx, s, world.CleanupDisconnect, protocol.DisconnectIdleTimeout)
			}
			continue
		}
		if m.cfg.IdleTimeout > 0 && s.idleFor(now) >= m.cfg.IdleTimeout {
			slog.InfoContext(ctx, "disconnecting idle session", "session", s.id, "idle", s.idleFor(now))
			m.finish(ctx, s, world.CleanupIdle, protocol.DisconnectIdleTimeout)
		}
	}

	return nil
}

// finish tears a session down: exactly one cleanup command to the
// world, a final Disconnect where legal, and removal from the maps.
func (m *Manager) finish(ctx context.Context, s *Session, reason world.CleanupReason, disconnectReason uint8) {
	s.cleanupOnce.Do(func() {
		cmd := world.Command{
			Type:     world.CommandCleanup,
			Session:  s.id,
			IssuedAt: time.Now(),
			Cleanup:  &world.CleanupCommand{Reason: reason},
		}
		if id, bound := s.Entity(); bound {
			cmd.Actor = id
		}
		if err := m.sched.Enqueue(cmd); err != nil {
			// Push cannot refuse cleanup commands; anything else here
			// is a programming error worth surfacing loudly.
			slog.ErrorContext(ctx, "enqueueing cleanup", "session", s.id, "error", err)
		}
	})

	s.beginDisconnect(disconnectReason)
	m.remove(s)
}

// Sessions reports the number of live sessions.
func (m *Manager) Sessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
