package world

import (
	"context"
	"log/slog"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/pixil98/go-mmo/internal/game"
)

// CharacterSaver persists a character snapshot. Satisfied by
// storage.Storer[*game.Character].
type CharacterSaver interface {
	Save(string, *game.Character) error
}

// Config tunes the simulation. Zone geometry lives here because the
// world clamps movement to it; sector bookkeeping belongs to the
// interest manager.
type Config struct {
	ZoneExtent     float32 // square zones, [0, extent) on both axes
	MoveSpeed      float32 // distance per tick for players
	NpcMoveSpeed   float32
	RegenDelay     uint64 // ticks since last damage before regen resumes
	ItemExpiry     uint64 // ticks an item drop survives
	RespawnZone    uint16
	RespawnX       float32
	RespawnY       float32
	AIDecisionGap  uint64 // ticks between NPC wander decisions
}

// DefaultConfig mirrors the values the original server shipped with,
// scaled to our tick length.
func DefaultConfig() Config {
	return Config{
		ZoneExtent:    10000,
		MoveSpeed:     25,
		NpcMoveSpeed:  15,
		RegenDelay:    10,
		ItemExpiry:    600,
		RespawnZone:   1,
		RespawnX:      5200,
		RespawnY:      5200,
		AIDecisionGap: 8,
	}
}

// World owns the authoritative simulation state. Every method runs on
// the tick goroutine; nothing here is safe for concurrent use.
type World struct {
	store  *Store
	cfg    Config
	saver  CharacterSaver
	rng    *rand.Rand
	tick   uint64
	events []Event

	// sessionEntities maps a live session to its bound character
	// entity; the inverse binding lives in the Owner component.
	sessionEntities map[uuid.UUID]EntityID
}

func New(cfg Config, saver CharacterSaver, seed int64) *World {
	return &World{
		store:           NewStore(),
		cfg:             cfg,
		saver:           saver,
		rng:             rand.New(rand.NewSource(seed)),
		sessionEntities: make(map[uuid.UUID]EntityID),
	}
}

// Store exposes the entity store to tests and the scheduler.
func (w *World) Store() *Store {
	return w.store
}

// Tick returns the current tick number.
func (w *World) Tick() uint64 {
	return w.tick
}

// SessionEntity resolves a session's bound entity.
func (w *World) SessionEntity(session uuid.UUID) (EntityID, bool) {
	id, ok := w.sessionEntities[session]
	return id, ok
}

func (w *World) emit(ev Event) {
	ev.Tick = w.tick
	w.events = append(w.events, ev)
}

// Apply executes one command against the store. Stale references are
// logged and dropped; they never abort the tick. The returned error is
// informational (the command was dropped), not fatal.
func (w *World) Apply(ctx context.Context, cmd Command) error {
	var err error
	switch cmd.Type {
	case CommandJoin:
		err = w.applyJoin(cmd)
	case CommandMove:
		err = w.applyMove(cmd)
	case CommandAttack:
		err = w.applyAttack(cmd)
	case CommandPickup:
		err = w.applyPickup(cmd)
	case CommandChat:
		err = w.applyChat(cmd)
	case CommandCleanup:
		err = w.applyCleanup(cmd)
	default:
		slog.WarnContext(ctx, "unknown command type", "type", cmd.Type)
		return nil
	}

	if err != nil {
		slog.WarnContext(ctx, "command dropped",
			"type", cmd.Type, "session", cmd.Session, "actor", cmd.Actor, "error", err)
	}
	return err
}

func (w *World) applyJoin(cmd Command) error {
	if prev, ok := w.sessionEntities[cmd.Session]; ok {
		// A session binds at most one character entity; a duplicate
		// join is a session-layer bug.
		slog.Warn("session already bound to entity", "session", cmd.Session, "entity", prev)
		return nil
	}

	char := cmd.Join.Character
	id := w.store.Create(EntityCharacter)
	w.store.SetPosition(id, Position{ZoneID: char.Zone, X: char.X, Y: char.Y})
	w.store.SetStats(id, Stats{
		Level:       char.Level,
		Health:      char.Health,
		MaxHealth:   char.MaxHealth,
		Regen:       1 + uint32(char.Level)/10,
		AttackPower: 5 + uint32(char.Level),
		AttackRange: 150,
	})
	w.store.SetInventory(id, Inventory{Items: append([]game.ItemStack(nil), char.Inventory...)})
	w.store.SetNamed(id, Named{Name: char.Name})
	w.store.SetOwner(id, Owner{
		SessionID:    cmd.Session,
		CharacterKey: cmd.Join.CharacterKey,
		Record:       char,
	})
	w.sessionEntities[cmd.Session] = id

	w.emit(Event{
		Type:   EventJoined,
		Entity: id,
		Joined: &JoinedEvent{
			Session: cmd.Session,
			Spawn:   w.spawnData(id),
		},
	})
	return nil
}

func (w *World) applyMove(cmd Command) error {
	pos, err := w.store.Position(cmd.Actor)
	if err != nil {
		return err
	}
	if pos == nil {
		return nil
	}

	tx := clamp(cmd.Move.TargetX, 0, w.cfg.ZoneExtent)
	ty := clamp(cmd.Move.TargetY, 0, w.cfg.ZoneExtent)

	w.store.ClearCombatTarget(cmd.Actor)
	return w.store.SetMoveIntent(cmd.Actor, MoveIntent{
		TargetX: tx,
		TargetY: ty,
		Speed:   w.cfg.MoveSpeed,
	})
}

func (w *World) applyAttack(cmd Command) error {
	if _, err := w.store.Position(cmd.Actor); err != nil {
		return err
	}
	if !w.store.Alive(cmd.Attack.Target) {
		return ErrStaleReference
	}
	if cmd.Attack.Target == cmd.Actor {
		// Self-attack is a confused client; ignore.
		return nil
	}

	w.store.ClearMoveIntent(cmd.Actor)
	return w.store.SetCombatTarget(cmd.Actor, CombatTarget{Target: cmd.Attack.Target})
}

func (w *World) applyPickup(cmd Command) error {
	pos, err := w.store.Position(cmd.Actor)
	if err != nil {
		return err
	}
	// Living NPCs carry Loot as their drop table; only a ground drop is
	// lootable.
	kind, err := w.store.Kind(cmd.Pickup.Target)
	if err != nil {
		return err
	}
	if kind != EntityItemDrop {
		return nil
	}
	loot, err := w.store.Loot(cmd.Pickup.Target)
	if err != nil {
		return err
	}
	dropPos, err := w.store.Position(cmd.Pickup.Target)
	if err != nil {
		return err
	}
	if loot == nil || pos == nil || dropPos == nil {
		return nil
	}
	if dropPos.ZoneID != pos.ZoneID || dist(pos.X, pos.Y, dropPos.X, dropPos.Y) > 200 {
		return nil // too far; client will retry closer
	}

	inv, err := w.store.Inventory(cmd.Actor)
	if err != nil {
		return err
	}
	if inv == nil {
		return nil
	}
	inv.Add(loot.ItemID, loot.Quantity)

	w.store.Destroy(cmd.Pickup.Target)
	w.emit(Event{Type: EventDespawned, Entity: cmd.Pickup.Target})

	owner, err := w.store.Owner(cmd.Actor)
	if err != nil {
		return err
	}
	if owner != nil {
		w.emit(Event{
			Type:   EventInventory,
			Entity: cmd.Actor,
			Inventory: &InventoryEvent{
				Session: owner.SessionID,
				Items:   append([]game.ItemStack(nil), inv.Items...),
			},
		})
	}
	return nil
}

func (w *World) applyChat(cmd Command) error {
	pos, err := w.store.Position(cmd.Actor)
	if err != nil {
		return err
	}
	owner, err := w.store.Owner(cmd.Actor)
	if err != nil {
		return err
	}
	if owner == nil {
		return nil
	}

	from := ""
	if named, _ := w.store.Named(cmd.Actor); named != nil {
		from = named.Name
	}

	w.emit(Event{
		Type:   EventChat,
		Entity: cmd.Actor,
		Chat: &ChatEvent{
			Session: owner.SessionID,
			Channel: cmd.Chat.Channel,
			From:    from,
			Text:    cmd.Chat.Text,
			ZoneID:  pos.ZoneID,
		},
	})
	return nil
}

func (w *World) applyCleanup(cmd Command) error {
	id, ok := w.sessionEntities[cmd.Session]
	delete(w.sessionEntities, cmd.Session)

	if ok && w.store.Alive(id) {
		w.snapshotCharacter(id)
		w.store.Destroy(id)
		w.emit(Event{Type: EventDespawned, Entity: id})
	}

	w.emit(Event{
		Type:   EventLeft,
		Entity: id,
		Left:   &LeftEvent{Session: cmd.Session, Reason: cmd.Cleanup.Reason},
	})
	return nil
}

// Snapshot writes an entity's live state back into its character
// record and persists it. Invoked at session boundaries only.
func (w *World) Snapshot(id EntityID) (*game.Character, error) {
	if !w.store.Alive(id) {
		return nil, ErrStaleReference
	}
	return w.snapshotCharacter(id), nil
}

func (w *World) snapshotCharacter(id EntityID) *game.Character {
	owner, _ := w.store.Owner(id)
	pos, _ := w.store.Position(id)
	stats, _ := w.store.Stats(id)
	inv, _ := w.store.Inventory(id)
	if owner == nil || owner.Record == nil || pos == nil || stats == nil {
		return nil
	}

	char := owner.Record
	char.Level = stats.Level
	char.Zone = pos.ZoneID
	char.X = pos.X
	char.Y = pos.Y
	char.Health = stats.Health
	char.MaxHealth = stats.MaxHealth
	if inv != nil {
		char.Inventory = append([]game.ItemStack(nil), inv.Items...)
	}

	if w.saver != nil {
		if err := w.saver.Save(owner.CharacterKey, char); err != nil {
			slog.Warn("saving character snapshot", "character", owner.CharacterKey, "error", err)
		}
	}
	return char
}

// NpcDefinition is a static-data row for seeding the world.
type NpcDefinition struct {
	Name        string
	Kind        EntityKind
	ZoneID      uint16
	X, Y        float32
	Health      uint32
	AttackPower uint32
	WanderRange float32
	LootItemID  uint32
	LootQty     uint16
}

// SpawnNpc creates a non-player entity from a static definition.
func (w *World) SpawnNpc(def NpcDefinition) EntityID {
	id := w.store.Create(def.Kind)
	w.store.SetPosition(id, Position{ZoneID: def.ZoneID, X: def.X, Y: def.Y})
	w.store.SetStats(id, Stats{
		Level:       1,
		Health:      def.Health,
		MaxHealth:   def.Health,
		Regen:       1,
		AttackPower: def.AttackPower,
		AttackRange: 120,
	})
	w.store.SetNamed(id, Named{Name: def.Name})
	w.store.SetAIState(id, AIState{
		Home:         Position{ZoneID: def.ZoneID, X: def.X, Y: def.Y},
		WanderRadius: def.WanderRange,
	})
	if def.LootItemID != 0 {
		w.store.SetLoot(id, Loot{ItemID: def.LootItemID, Quantity: def.LootQty})
	}

	w.emit(Event{
		Type:    EventSpawned,
		Entity:  id,
		Spawned: ptr(w.spawnData(id)),
	})
	return id
}

func (w *World) spawnData(id EntityID) SpawnedEvent {
	kind, _ := w.store.Kind(id)
	pos, _ := w.store.Position(id)
	stats, _ := w.store.Stats(id)

	ev := SpawnedEvent{Kind: kind}
	if named, _ := w.store.Named(id); named != nil {
		ev.Name = named.Name
	}
	if pos != nil {
		ev.ZoneID = pos.ZoneID
		ev.X = pos.X
		ev.Y = pos.Y
	}
	if stats != nil {
		ev.Health = stats.Health
		ev.MaxHealth = stats.MaxHealth
	}
	return ev
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func dist(x1, y1, x2, y2 float32) float32 {
	return float32(math.Hypot(float64(x2-x1), float64(y2-y1)))
}

func ptr[T any](v T) *T {
	return &v
}
