package world

import (
	"github.com/google/uuid"

	"github.com/pixil98/go-mmo/internal/game"
)

// Components are independent slices of entity state. The store hands
// out mutable pointers only to the tick goroutine that owns it.

// Position locates an entity within a zone.
type Position struct {
	ZoneID uint16
	X, Y   float32
}

// Stats carries combat-relevant numbers.
type Stats struct {
	Level       uint16
	Health      uint32
	MaxHealth   uint32
	Regen       uint32
	AttackPower uint32
	AttackRange float32

	// lastDamagedTick gates out-of-combat regeneration.
	lastDamagedTick uint64
}

// Inventory holds item stacks.
type Inventory struct {
	Items []game.ItemStack
}

// Add merges a stack into the inventory.
func (inv *Inventory) Add(itemID uint32, quantity uint16) {
	for i := range inv.Items {
		if inv.Items[i].ItemID == itemID {
			inv.Items[i].Quantity += quantity
			return
		}
	}
	inv.Items = append(inv.Items, game.ItemStack{ItemID: itemID, Quantity: quantity})
}

// MoveIntent is the target an entity is walking toward.
type MoveIntent struct {
	TargetX, TargetY float32
	Speed            float32
}

// AIState drives non-player behavior.
type AIState struct {
	Home             Position
	WanderRadius     float32
	nextDecisionTick uint64
}

// Owner binds a player entity back to its session. The session itself
// is a weak reference, looked up by id and never held; the character
// record is the live copy the world snapshots back into at teardown.
type Owner struct {
	SessionID    uuid.UUID
	CharacterKey string // storage key for snapshot writes
	Record       *game.Character
}

// Named gives an entity a display name for spawn packets.
type Named struct {
	Name string
}

// CombatTarget is the entity an attacker is trying to hit. Cleared
// when the target dies or goes stale.
type CombatTarget struct {
	Target EntityID
}

// Expiry destroys an entity at the given tick (item drops).
type Expiry struct {
	AtTick uint64
}

// Loot is what an item-drop entity yields on pickup.
type Loot struct {
	ItemID   uint32
	Quantity uint16
}

type components struct {
	position *Position
	stats    *Stats
	inv      *Inventory
	intent   *MoveIntent
	ai       *AIState
	owner    *Owner
	named    *Named
	combat   *CombatTarget
	expiry   *Expiry
	loot     *Loot
}

// Component accessors: each returns the mutable component or
// ErrStaleReference when the id no longer resolves. A nil component
// with a nil error means the entity simply doesn't carry it.

func (s *Store) Position(id EntityID) (*Position, error) {
	sl, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return sl.components.position, nil
}

func (s *Store) SetPosition(id EntityID, c Position) error {
	sl, err := s.resolve(id)
	if err != nil {
		return err
	}
	sl.components.position = &c
	return nil
}

func (s *Store) Stats(id EntityID) (*Stats, error) {
	sl, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return sl.components.stats, nil
}

func (s *Store) SetStats(id EntityID, c Stats) error {
	sl, err := s.resolve(id)
	if err != nil {
		return err
	}
	sl.components.stats = &c
	return nil
}

func (s *Store) Inventory(id EntityID) (*Inventory, error) {
	sl, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return sl.components.inv, nil
}

func (s *Store) SetInventory(id EntityID, c Inventory) error {
	sl, err := s.resolve(id)
	if err != nil {
		return err
	}
	sl.components.inv = &c
	return nil
}

func (s *Store) MoveIntent(id EntityID) (*MoveIntent, error) {
	sl, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return sl.components.intent, nil
}

func (s *Store) SetMoveIntent(id EntityID, c MoveIntent) error {
	sl, err := s.resolve(id)
	if err != nil {
		return err
	}
	sl.components.intent = &c
	return nil
}

func (s *Store) ClearMoveIntent(id EntityID) error {
	sl, err := s.resolve(id)
	if err != nil {
		return err
	}
	sl.components.intent = nil
	return nil
}

func (s *Store) AIState(id EntityID) (*AIState, error) {
	sl, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return sl.components.ai, nil
}

func (s *Store) SetAIState(id EntityID, c AIState) error {
	sl, err := s.resolve(id)
	if err != nil {
		return err
	}
	sl.components.ai = &c
	return nil
}

func (s *Store) Owner(id EntityID) (*Owner, error) {
	sl, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return sl.components.owner, nil
}

func (s *Store) SetOwner(id EntityID, c Owner) error {
	sl, err := s.resolve(id)
	if err != nil {
		return err
	}
	sl.components.owner = &c
	return nil
}

func (s *Store) Named(id EntityID) (*Named, error) {
	sl, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return sl.components.named, nil
}

func (s *Store) SetNamed(id EntityID, c Named) error {
	sl, err := s.resolve(id)
	if err != nil {
		return err
	}
	sl.components.named = &c
	return nil
}

func (s *Store) CombatTarget(id EntityID) (*CombatTarget, error) {
	sl, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return sl.components.combat, nil
}

func (s *Store) SetCombatTarget(id EntityID, c CombatTarget) error {
	sl, err := s.resolve(id)
	if err != nil {
		return err
	}
	sl.components.combat = &c
	return nil
}

func (s *Store) ClearCombatTarget(id EntityID) error {
	sl, err := s.resolve(id)
	if err != nil {
		return err
	}
	sl.components.combat = nil
	return nil
}

func (s *Store) Expiry(id EntityID) (*Expiry, error) {
	sl, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return sl.components.expiry, nil
}

func (s *Store) SetExpiry(id EntityID, c Expiry) error {
	sl, err := s.resolve(id)
	if err != nil {
		return err
	}
	sl.components.expiry = &c
	return nil
}

func (s *Store) Loot(id EntityID) (*Loot, error) {
	sl, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return sl.components.loot, nil
}

func (s *Store) SetLoot(id EntityID, c Loot) error {
	sl, err := s.resolve(id)
	if err != nil {
		return err
	}
	sl.components.loot = &c
	return nil
}
