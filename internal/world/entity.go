package world

import (
	"errors"
	"fmt"
)

// ErrStaleReference means an entity id outlived its entity: the slot
// was destroyed (and possibly reused under a newer generation). The
// holding command is dropped; it is never a server fault.
var ErrStaleReference = errors.New("stale entity reference")

// EntityKind classifies simulated objects.
type EntityKind uint8

const (
	EntityCharacter EntityKind = iota
	EntityNpc
	EntityMonster
	EntityItemDrop
)

// EntityID is a generation-checked index. Destroying an entity bumps
// its slot's generation, invalidating every previously handed-out id
// for that slot.
type EntityID struct {
	Index      uint32
	Generation uint32
}

// Packed flattens the id for the wire.
func (id EntityID) Packed() uint64 {
	return uint64(id.Generation)<<32 | uint64(id.Index)
}

func UnpackEntityID(v uint64) EntityID {
	return EntityID{Index: uint32(v), Generation: uint32(v >> 32)}
}

func (id EntityID) String() string {
	return fmt.Sprintf("%d@%d", id.Index, id.Generation)
}

// IsZero reports the null id: slot 0 is never allocated.
func (id EntityID) IsZero() bool {
	return id == EntityID{}
}

type slot struct {
	generation uint32
	alive      bool
	kind       EntityKind
	components components
}

// Store owns all component data. It is mutated only by the tick
// goroutine; no locking, no external aliasing of slots.
type Store struct {
	slots []slot
	free  []uint32
	alive int
}

func NewStore() *Store {
	// Slot 0 is reserved so the zero EntityID never resolves.
	return &Store{slots: make([]slot, 1)}
}

// Create allocates an entity and returns its id. Freed slots are reused
// under their bumped generation.
func (s *Store) Create(kind EntityKind) EntityID {
	var index uint32
	if n := len(s.free); n > 0 {
		index = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		s.slots = append(s.slots, slot{})
		index = uint32(len(s.slots) - 1)
	}

	sl := &s.slots[index]
	sl.alive = true
	sl.kind = kind
	sl.components = components{}
	s.alive++

	return EntityID{Index: index, Generation: sl.generation}
}

// Destroy invalidates id and frees its slot for reuse.
func (s *Store) Destroy(id EntityID) error {
	sl, err := s.resolve(id)
	if err != nil {
		return err
	}

	sl.alive = false
	sl.generation++
	sl.components = components{}
	s.free = append(s.free, id.Index)
	s.alive--
	return nil
}

// Alive reports whether id still resolves.
func (s *Store) Alive(id EntityID) bool {
	_, err := s.resolve(id)
	return err == nil
}

// Kind returns the entity's kind.
func (s *Store) Kind(id EntityID) (EntityKind, error) {
	sl, err := s.resolve(id)
	if err != nil {
		return 0, err
	}
	return sl.kind, nil
}

// Len returns the number of live entities.
func (s *Store) Len() int {
	return s.alive
}

// Each calls fn for every live entity. Created entities may or may not
// be visited within the same iteration; destroying the visited entity
// is safe.
func (s *Store) Each(fn func(EntityID)) {
	for i := range s.slots {
		if s.slots[i].alive {
			fn(EntityID{Index: uint32(i), Generation: s.slots[i].generation})
		}
	}
}

func (s *Store) resolve(id EntityID) (*slot, error) {
	if id.Index == 0 || int(id.Index) >= len(s.slots) {
		return nil, ErrStaleReference
	}
	sl := &s.slots[id.Index]
	if !sl.alive || sl.generation != id.Generation {
		return nil, ErrStaleReference
	}
	return sl, nil
}
