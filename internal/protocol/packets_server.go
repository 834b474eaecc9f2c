package protocol

// Packets sent by the server.

// Connection results.
const (
	ConnectionAccepted uint8 = iota
	ConnectionRejected
)

type ConnectionReply struct {
	Result     uint8
	ServerSeed [16]byte
	SequenceID uint32
}

func (p *ConnectionReply) Kind() Kind { return KindConnectionReply }

func (p *ConnectionReply) encode(w *writer) {
	w.u8(p.Result)
	w.bytes(p.ServerSeed[:])
	w.u32(p.SequenceID)
}

func (p *ConnectionReply) decode(r *reader) error {
	p.Result = r.u8()
	copy(p.ServerSeed[:], r.take(len(p.ServerSeed)))
	p.SequenceID = r.u32()
	return r.err
}

// Login results.
const (
	LoginOk uint8 = iota
	LoginInvalidPassword
	LoginAlreadyLoggedIn
	LoginFailed
)

type LoginReply struct {
	Result uint8
}

func (p *LoginReply) Kind() Kind { return KindLoginReply }

func (p *LoginReply) encode(w *writer) {
	w.u8(p.Result)
}

func (p *LoginReply) decode(r *reader) error {
	p.Result = r.u8()
	return r.err
}

// CharacterSummary is one row of the character select screen.
type CharacterSummary struct {
	ID    uint32
	Name  string
	Job   uint16
	Level uint16
}

type CharacterListReply struct {
	Characters []CharacterSummary
}

func (p *CharacterListReply) Kind() Kind { return KindCharacterListReply }

func (p *CharacterListReply) encode(w *writer) {
	w.u8(uint8(len(p.Characters)))
	for _, c := range p.Characters {
		w.u32(c.ID)
		w.str(c.Name)
		w.u16(c.Job)
		w.u16(c.Level)
	}
}

func (p *CharacterListReply) decode(r *reader) error {
	n := int(r.u8())
	for i := 0; i < n; i++ {
		c := CharacterSummary{
			ID:    r.u32(),
			Name:  r.str(),
			Job:   r.u16(),
			Level: r.u16(),
		}
		if r.err != nil {
			return r.err
		}
		p.Characters = append(p.Characters, c)
	}
	return r.err
}

// Character operation results.
const (
	CharacterOk uint8 = iota
	CharacterNameTaken
	CharacterInvalidName
	CharacterNotFound
)

type CreateCharacterReply struct {
	Result      uint8
	CharacterID uint32
}

func (p *CreateCharacterReply) Kind() Kind { return KindCreateCharacterReply }

func (p *CreateCharacterReply) encode(w *writer) {
	w.u8(p.Result)
	w.u32(p.CharacterID)
}

func (p *CreateCharacterReply) decode(r *reader) error {
	p.Result = r.u8()
	p.CharacterID = r.u32()
	return r.err
}

type DeleteCharacterReply struct {
	Result uint8
}

func (p *DeleteCharacterReply) Kind() Kind { return KindDeleteCharacterReply }

func (p *DeleteCharacterReply) encode(w *writer) {
	w.u8(p.Result)
}

func (p *DeleteCharacterReply) decode(r *reader) error {
	p.Result = r.u8()
	return r.err
}

type SelectCharacterReply struct {
	Result uint8
	Entity uint64
	ZoneID uint16
	X, Y   float32
}

func (p *SelectCharacterReply) Kind() Kind { return KindSelectCharacterReply }

func (p *SelectCharacterReply) encode(w *writer) {
	w.u8(p.Result)
	w.u64(p.Entity)
	w.u16(p.ZoneID)
	w.f32(p.X)
	w.f32(p.Y)
}

func (p *SelectCharacterReply) decode(r *reader) error {
	p.Result = r.u8()
	p.Entity = r.u64()
	p.ZoneID = r.u16()
	p.X = r.f32()
	p.Y = r.f32()
	return r.err
}

// Entity types on the wire.
const (
	EntityTypeCharacter uint8 = iota
	EntityTypeNpc
	EntityTypeMonster
	EntityTypeItemDrop
)

// SpawnEntity introduces an entity to a client. It always precedes any
// update packet referencing that entity.
type SpawnEntity struct {
	Entity     uint64
	EntityType uint8
	Name       string
	X, Y       float32
	Health     uint32
	MaxHealth  uint32
}

func (p *SpawnEntity) Kind() Kind { return KindSpawnEntity }

func (p *SpawnEntity) encode(w *writer) {
	w.u64(p.Entity)
	w.u8(p.EntityType)
	w.str(p.Name)
	w.f32(p.X)
	w.f32(p.Y)
	w.u32(p.Health)
	w.u32(p.MaxHealth)
}

func (p *SpawnEntity) decode(r *reader) error {
	p.Entity = r.u64()
	p.EntityType = r.u8()
	p.Name = r.str()
	p.X = r.f32()
	p.Y = r.f32()
	p.Health = r.u32()
	p.MaxHealth = r.u32()
	return r.err
}

type DespawnEntity struct {
	Entity uint64
}

func (p *DespawnEntity) Kind() Kind { return KindDespawnEntity }

func (p *DespawnEntity) encode(w *writer) {
	w.u64(p.Entity)
}

func (p *DespawnEntity) decode(r *reader) error {
	p.Entity = r.u64()
	return r.err
}

type EntityMoved struct {
	Entity uint64
	X, Y   float32
}

func (p *EntityMoved) Kind() Kind { return KindEntityMoved }

func (p *EntityMoved) encode(w *writer) {
	w.u64(p.Entity)
	w.f32(p.X)
	w.f32(p.Y)
}

func (p *EntityMoved) decode(r *reader) error {
	p.Entity = r.u64()
	p.X = r.f32()
	p.Y = r.f32()
	return r.err
}

type EntityDamaged struct {
	Entity   uint64
	Attacker uint64
	Amount   uint32
	Health   uint32
}

func (p *EntityDamaged) Kind() Kind { return KindEntityDamaged }

func (p *EntityDamaged) encode(w *writer) {
	w.u64(p.Entity)
	w.u64(p.Attacker)
	w.u32(p.Amount)
	w.u32(p.Health)
}

func (p *EntityDamaged) decode(r *reader) error {
	p.Entity = r.u64()
	p.Attacker = r.u64()
	p.Amount = r.u32()
	p.Health = r.u32()
	return r.err
}

// ItemSlot is one inventory stack.
type ItemSlot struct {
	ItemID   uint32
	Quantity uint16
}

type InventoryUpdate struct {
	Items []ItemSlot
}

func (p *InventoryUpdate) Kind() Kind { return KindInventoryUpdate }

func (p *InventoryUpdate) encode(w *writer) {
	w.u16(uint16(len(p.Items)))
	for _, it := range p.Items {
		w.u32(it.ItemID)
		w.u16(it.Quantity)
	}
}

func (p *InventoryUpdate) decode(r *reader) error {
	n := int(r.u16())
	for i := 0; i < n; i++ {
		it := ItemSlot{
			ItemID:   r.u32(),
			Quantity: r.u16(),
		}
		if r.err != nil {
			return r.err
		}
		p.Items = append(p.Items, it)
	}
	return r.err
}

type ChatMessage struct {
	Channel uint8
	From    string
	Text    string
}

func (p *ChatMessage) Kind() Kind { return KindChatMessage }

func (p *ChatMessage) encode(w *writer) {
	w.u8(p.Channel)
	w.str(p.From)
	w.str(p.Text)
}

func (p *ChatMessage) decode(r *reader) error {
	p.Channel = r.u8()
	p.From = r.str()
	p.Text = r.str()
	return r.err
}

type Announce struct {
	Text string
}

func (p *Announce) Kind() Kind { return KindAnnounce }

func (p *Announce) encode(w *writer) {
	w.str(p.Text)
}

func (p *Announce) decode(r *reader) error {
	p.Text = r.str()
	return r.err
}

type Pong struct {
	Nonce uint32
}

func (p *Pong) Kind() Kind { return KindPong }

func (p *Pong) encode(w *writer) {
	w.u32(p.Nonce)
}

func (p *Pong) decode(r *reader) error {
	p.Nonce = r.u32()
	return r.err
}

// Disconnect reasons.
const (
	DisconnectServerShutdown uint8 = iota
	DisconnectProtocolViolation
	DisconnectIdleTimeout
	DisconnectKicked
	DisconnectLogout
)

// Disconnect is the last packet a client receives before socket close,
// where the protocol state still allows sending one.
type Disconnect struct {
	Reason uint8
}

func (p *Disconnect) Kind() Kind { return KindDisconnect }

func (p *Disconnect) encode(w *writer) {
	w.u8(p.Reason)
}

func (p *Disconnect) decode(r *reader) error {
	p.Reason = r.u8()
	return r.err
}
