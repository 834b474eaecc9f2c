package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pixil98/go-mmo/internal/game"
	"github.com/pixil98/go-mmo/internal/protocol"
	"github.com/pixil98/go-mmo/internal/world"
)

// ProtocolViolationError is any inbound traffic the current state does
// not admit. It is connection-fatal.
type ProtocolViolationError struct {
	State State
	Kind  protocol.Kind
	Cause error
}

func (e *ProtocolViolationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("protocol violation in %s: %v", e.State, e.Cause)
	}
	return fmt.Sprintf("protocol violation in %s: %s not allowed", e.State, e.Kind)
}

func (e *ProtocolViolationError) Unwrap() error {
	return e.Cause
}

// RunSession owns one client connection from accept to teardown. It
// blocks until the connection is done; the listener calls it once per
// accepted conn.
func (m *Manager) RunSession(ctx context.Context, conn io.ReadWriter) error {
	s := newSession(conn, m.cfg.QueueLimit)
	if !m.register(s) {
		return fmt.Errorf("session limit %d reached", m.cfg.MaxSessions)
	}

	slog.InfoContext(ctx, "session opened", "session", s.id)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(ctx)
		if closer, ok := conn.(io.Closer); ok {
			closer.Close()
		}
	}()

	err := m.readLoop(ctx, s)

	switch {
	case err == nil:
		// Clean logout; teardown already done by the handler.

	case errors.As(err, new(*ProtocolViolationError)):
		slog.WarnContext(ctx, "session violation", "session", s.id, "error", err)
		m.finish(ctx, s, world.CleanupDisconnect, protocol.DisconnectProtocolViolation)

	case ctx.Err() != nil:
		m.finish(ctx, s, world.CleanupDisconnect, protocol.DisconnectServerShutdown)

	default:
		// The link died. An in-world session lingers for the grace
		// period in case persistence matters; anything earlier has no
		// world presence worth keeping.
		if _, bound := s.Entity(); bound {
			slog.InfoContext(ctx, "session linkless", "session", s.id, "error", err)
			s.markLinkless()
			s.queue.Close()
			return nil
		}
		m.finish(ctx, s, world.CleanupDisconnect, protocol.DisconnectProtocolViolation)
	}

	<-writerDone
	return err
}

func (s *Session) writeLoop(ctx context.Context) {
	for {
		packets, ok := s.queue.drain(ctx.Done())
		if !ok {
			return
		}
		for _, p := range packets {
			frame, err := s.encode(p)
			if err != nil {
				slog.Warn("encoding packet", "session", s.id, "kind", p.Kind(), "error", err)
				continue
			}
			s.writeMu.Lock()
			_, err = s.conn.Write(frame)
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// readLoop decodes frames off the socket and feeds them through the
// state machine until the connection ends. A nil return means the
// handler already finished the session (logout).
func (m *Manager) readLoop(ctx context.Context, s *Session) error {
	buf := make([]byte, 0, protocol.MaxFrameSize)
	chunk := make([]byte, protocol.MaxFrameSize)

	for {
		for {
			p, n, err := s.decode(buf)
			if errors.Is(err, protocol.ErrIncompleteFrame) {
				break
			}
			if err != nil {
				return &ProtocolViolationError{State: s.State(), Kind: 0, Cause: err}
			}
			buf = buf[n:]

			s.touch()
			done, err := m.handlePacket(ctx, s, p)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}

		n, err := s.conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.EOF
			}
			return err
		}
	}
}

// handlePacket runs one inbound packet through the allow-list and the
// per-state handlers. done means the session ended cleanly.
func (m *Manager) handlePacket(ctx context.Context, s *Session, p protocol.Packet) (done bool, err error) {
	if !Allowed(s.State(), p.Kind()) {
		return false, &ProtocolViolationError{State: s.State(), Kind: p.Kind()}
	}

	switch pkt := p.(type) {
	case *protocol.ConnectionRequest:
		return false, m.handleConnectionRequest(s, pkt)
	case *protocol.Ping:
		s.Send(&protocol.Pong{Nonce: pkt.Nonce})
		return false, nil
	case *protocol.LoginRequest:
		return false, m.handleLogin(ctx, s, pkt)
	case *protocol.CharacterListRequest:
		return false, m.handleCharacterList(s)
	case *protocol.CreateCharacterRequest:
		return false, m.handleCreateCharacter(s, pkt)
	case *protocol.DeleteCharacterRequest:
		return false, m.handleDeleteCharacter(s, pkt)
	case *protocol.SelectCharacterRequest:
		return false, m.handleSelectCharacter(ctx, s, pkt)
	case *protocol.Rekey:
		return false, s.rekey(pkt.Seed)
	case *protocol.LogoutRequest:
		m.finish(ctx, s, world.CleanupLogout, protocol.DisconnectLogout)
		return true, nil
	default:
		return false, m.handleInWorld(ctx, s, p)
	}
}

func (m *Manager) handleConnectionRequest(s *Session, pkt *protocol.ConnectionRequest) error {
	if pkt.Version != m.cfg.Version {
		reply := &protocol.ConnectionReply{Result: protocol.ConnectionRejected}
		if err := s.writeNow(reply); err != nil {
			return err
		}
		return &ProtocolViolationError{
			State: s.State(),
			Kind:  pkt.Kind(),
			Cause: fmt.Errorf("unsupported client version %d", pkt.Version),
		}
	}

	var serverSeed [16]byte
	if _, err := rand.Read(serverSeed[:]); err != nil {
		return fmt.Errorf("generating server seed: %w", err)
	}

	// The reply leaves in clear; everything after it is encrypted.
	serial := m.serial.Add(1)
	reply := &protocol.ConnectionReply{
		Result:     protocol.ConnectionAccepted,
		ServerSeed: serverSeed,
		SequenceID: serial,
	}
	if err := s.writeNow(reply); err != nil {
		return err
	}
	if err := s.seedCipher(pkt.ClientSeed, serverSeed); err != nil {
		return err
	}

	slog.Info("handshake complete", "session", s.id, "serial", serial)
	s.setState(StateLoggingIn)
	return nil
}

func (m *Manager) handleLogin(ctx context.Context, s *Session, pkt *protocol.LoginRequest) error {
	if !game.ValidName(pkt.Username) {
		s.Send(&protocol.LoginReply{Result: protocol.LoginFailed})
		return nil
	}

	key := game.NormalizeName(pkt.Username)
	stored := game.HashPassword(pkt.PasswordHash)

	acct := m.accounts.Get(key)
	if acct == nil {
		// First login creates the account.
		acct = &game.Account{Name: key, PasswordHash: stored}
		if err := m.accounts.Save(key, acct); err != nil {
			slog.WarnContext(ctx, "creating account", "account", key, "error", err)
			s.Send(&protocol.LoginReply{Result: protocol.LoginFailed})
			return nil
		}
	} else if acct.PasswordHash != stored {
		s.Send(&protocol.LoginReply{Result: protocol.LoginInvalidPassword})
		return nil
	}

	if !m.bindAccount(s, key) {
		s.Send(&protocol.LoginReply{Result: protocol.LoginAlreadyLoggedIn})
		return nil
	}

	if m.tokens != nil {
		if err := m.tokens.Put(ctx, s.id.String(), key); err != nil {
			slog.WarnContext(ctx, "storing login token", "account", key, "error", err)
		}
	}

	s.account = acct
	s.accountKey = key
	s.setState(StateCharacterSelect)
	s.Send(&protocol.LoginReply{Result: protocol.LoginOk})

	slog.InfoContext(ctx, "login", "session", s.id, "account", key)
	return nil
}

func (m *Manager) handleCharacterList(s *Session) error {
	reply := &protocol.CharacterListReply{}
	for i, key := range s.account.Characters {
		char := m.chars.Get(key)
		if char == nil {
			continue
		}
		reply.Characters = append(reply.Characters, protocol.CharacterSummary{
			ID:    uint32(i + 1),
			Name:  char.Name,
			Job:   char.Job,
			Level: char.Level,
		})
	}
	s.Send(reply)
	return nil
}

func (m *Manager) handleCreateCharacter(s *Session, pkt *protocol.CreateCharacterRequest) error {
	if !game.ValidName(pkt.Name) {
		s.Send(&protocol.CreateCharacterReply{Result: protocol.CharacterInvalidName})
		return nil
	}

	key := game.NormalizeName(pkt.Name)
	if m.chars.Get(key) != nil {
		s.Send(&protocol.CreateCharacterReply{Result: protocol.CharacterNameTaken})
		return nil
	}

	char := game.NewCharacter(pkt.Name, s.accountKey, pkt.Job, m.cfg.SpawnZone, m.cfg.SpawnX, m.cfg.SpawnY)
	if err := m.chars.Save(key, char); err != nil {
		return fmt.Errorf("saving new character: %w", err)
	}

	s.account.Characters = append(s.account.Characters, key)
	if err := m.accounts.Save(s.accountKey, s.account); err != nil {
		return fmt.Errorf("saving account: %w", err)
	}

	s.Send(&protocol.CreateCharacterReply{
		Result:      protocol.CharacterOk,
		CharacterID: uint32(len(s.account.Characters)),
	})
	return nil
}

func (m *Manager) handleDeleteCharacter(s *Session, pkt *protocol.DeleteCharacterRequest) error {
	key, ok := m.characterKey(s, pkt.CharacterID)
	if !ok {
		s.Send(&protocol.DeleteCharacterReply{Result: protocol.CharacterNotFound})
		return nil
	}

	// The record itself stays in storage; only the account reference
	// goes away.
	s.account.RemoveCharacter(key)
	if err := m.accounts.Save(s.accountKey, s.account); err != nil {
		return fmt.Errorf("saving account: %w", err)
	}

	s.Send(&protocol.DeleteCharacterReply{Result: protocol.CharacterOk})
	return nil
}

func (m *Manager) handleSelectCharacter(ctx context.Context, s *Session, pkt *protocol.SelectCharacterRequest) error {
	key, ok := m.characterKey(s, pkt.CharacterID)
	if !ok {
		s.Send(&protocol.SelectCharacterReply{Result: protocol.CharacterNotFound})
		return nil
	}
	char := m.chars.Get(key)
	if char == nil {
		s.Send(&protocol.SelectCharacterReply{Result: protocol.CharacterNotFound})
		return nil
	}

	cmd := world.Command{
		Type:     world.CommandJoin,
		Session:  s.id,
		IssuedAt: time.Now(),
		Join: &world.JoinCommand{
			Character:    char,
			CharacterKey: key,
			Name:         char.Name,
		},
	}
	if err := m.sched.Enqueue(cmd); err != nil {
		slog.WarnContext(ctx, "join rejected by queue", "session", s.id, "error", err)
		s.Send(&protocol.SelectCharacterReply{Result: protocol.CharacterNotFound})
		return nil
	}

	// InWorld begins now; the reply with the entity id arrives from the
	// tick fan-out once the join commits.
	s.characterKey = key
	s.characterName = char.Name
	s.setState(StateInWorld)
	return nil
}

func (m *Manager) characterKey(s *Session, id uint32) (string, bool) {
	idx := int(id) - 1
	if idx < 0 || idx >= len(s.account.Characters) {
		return "", false
	}
	return s.account.Characters[idx], true
}

func (m *Manager) handleInWorld(ctx context.Context, s *Session, p protocol.Packet) error {
	entity, bound := s.Entity()
	if !bound {
		// The join hasn't committed yet; nothing to act through.
		slog.DebugContext(ctx, "packet before join commit", "session", s.id, "kind", p.Kind())
		return nil
	}

	cmd, err := m.routes.Route(s.id, entity, p)
	if err != nil {
		// Dropped, never partially applied; the connection stays.
		slog.WarnContext(ctx, "command rejected", "session", s.id, "kind", p.Kind(), "error", err)
		return nil
	}

	if err := m.sched.Enqueue(cmd); err != nil {
		slog.WarnContext(ctx, "command queue full", "session", s.id, "kind", p.Kind())
	}
	return nil
}
