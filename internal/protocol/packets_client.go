package protocol

// Packets sent by the game client. Handshake frames travel in clear;
// everything after ConnectionReply rides the cipher stream.

// ConnectionRequest opens the handshake. The client contributes half of
// the session key material; the server's half arrives in ConnectionReply.
type ConnectionRequest struct {
	Version    uint32
	ClientSeed [16]byte
}

func (p *ConnectionRequest) Kind() Kind { return KindConnectionRequest }

func (p *ConnectionRequest) encode(w *writer) {
	w.u32(p.Version)
	w.bytes(p.ClientSeed[:])
}

func (p *ConnectionRequest) decode(r *reader) error {
	p.Version = r.u32()
	copy(p.ClientSeed[:], r.take(len(p.ClientSeed)))
	return r.err
}

type LoginRequest struct {
	Username     string
	PasswordHash string
}

func (p *LoginRequest) Kind() Kind { return KindLoginRequest }

func (p *LoginRequest) encode(w *writer) {
	w.str(p.Username)
	w.str(p.PasswordHash)
}

func (p *LoginRequest) decode(r *reader) error {
	p.Username = r.str()
	p.PasswordHash = r.str()
	return r.err
}

type CharacterListRequest struct{}

func (p *CharacterListRequest) Kind() Kind           { return KindCharacterListRequest }
func (p *CharacterListRequest) encode(*writer)       {}
func (p *CharacterListRequest) decode(*reader) error { return nil }

type CreateCharacterRequest struct {
	Name string
	Job  uint16
}

func (p *CreateCharacterRequest) Kind() Kind { return KindCreateCharacterRequest }

func (p *CreateCharacterRequest) encode(w *writer) {
	w.str(p.Name)
	w.u16(p.Job)
}

func (p *CreateCharacterRequest) decode(r *reader) error {
	p.Name = r.str()
	p.Job = r.u16()
	return r.err
}

type DeleteCharacterRequest struct {
	CharacterID uint32
}

func (p *DeleteCharacterRequest) Kind() Kind { return KindDeleteCharacterRequest }

func (p *DeleteCharacterRequest) encode(w *writer) {
	w.u32(p.CharacterID)
}

func (p *DeleteCharacterRequest) decode(r *reader) error {
	p.CharacterID = r.u32()
	return r.err
}

type SelectCharacterRequest struct {
	CharacterID uint32
}

func (p *SelectCharacterRequest) Kind() Kind { return KindSelectCharacterRequest }

func (p *SelectCharacterRequest) encode(w *writer) {
	w.u32(p.CharacterID)
}

func (p *SelectCharacterRequest) decode(r *reader) error {
	p.CharacterID = r.u32()
	return r.err
}

// MoveRequest asks the server to move an entity toward a target
// position. Entity names the acting entity and must be the session's
// own; the server is authoritative and treats this as intent only.
type MoveRequest struct {
	Entity  uint64
	TargetX float32
	TargetY float32
}

func (p *MoveRequest) Kind() Kind { return KindMoveRequest }

func (p *MoveRequest) encode(w *writer) {
	w.u64(p.Entity)
	w.f32(p.TargetX)
	w.f32(p.TargetY)
}

func (p *MoveRequest) decode(r *reader) error {
	p.Entity = r.u64()
	p.TargetX = r.f32()
	p.TargetY = r.f32()
	return r.err
}

type AttackRequest struct {
	Entity uint64 // acting entity, must be the session's own
	Target uint64
}

func (p *AttackRequest) Kind() Kind { return KindAttackRequest }

func (p *AttackRequest) encode(w *writer) {
	w.u64(p.Entity)
	w.u64(p.Target)
}

func (p *AttackRequest) decode(r *reader) error {
	p.Entity = r.u64()
	p.Target = r.u64()
	return r.err
}

type PickupRequest struct {
	Entity uint64
	Target uint64
}

func (p *PickupRequest) Kind() Kind { return KindPickupRequest }

func (p *PickupRequest) encode(w *writer) {
	w.u64(p.Entity)
	w.u64(p.Target)
}

func (p *PickupRequest) decode(r *reader) error {
	p.Entity = r.u64()
	p.Target = r.u64()
	return r.err
}

// Chat channels.
const (
	ChatChannelSay uint8 = iota
	ChatChannelZone
	ChatChannelGlobal
)

type ChatSend struct {
	Channel uint8
	Text    string
}

func (p *ChatSend) Kind() Kind { return KindChatSend }

func (p *ChatSend) encode(w *writer) {
	w.u8(p.Channel)
	w.str(p.Text)
}

func (p *ChatSend) decode(r *reader) error {
	p.Channel = r.u8()
	p.Text = r.str()
	return r.err
}

type Ping struct {
	Nonce uint32
}

func (p *Ping) Kind() Kind { return KindPing }

func (p *Ping) encode(w *writer) {
	w.u32(p.Nonce)
}

func (p *Ping) decode(r *reader) error {
	p.Nonce = r.u32()
	return r.err
}

// Rekey replaces the session key material mid-session. Both directions
// re-derive from the new seed; the old counters are abandoned, never
// reused.
type Rekey struct {
	Seed [32]byte
}

func (p *Rekey) Kind() Kind { return KindRekey }

func (p *Rekey) encode(w *writer) {
	w.bytes(p.Seed[:])
}

func (p *Rekey) decode(r *reader) error {
	copy(p.Seed[:], r.take(len(p.Seed)))
	return r.err
}

type LogoutRequest struct{}

func (p *LogoutRequest) Kind() Kind           { return KindLogoutRequest }
func (p *LogoutRequest) encode(*writer)       {}
func (p *LogoutRequest) decode(*reader) error { return nil }
