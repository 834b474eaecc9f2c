package game

import (
	"fmt"

	"github.com/pixil98/go-errors"
)

// ItemStack is one inventory slot in persistent form.
type ItemStack struct {
	ItemID   uint32 `json:"item_id"`
	Quantity uint16 `json:"quantity"`
}

// Character is the persistent record for a player character. The world
// restores it at character select and snapshots back into it at session
// teardown; while in the world the entity store owns the live copy.
type Character struct {
	Name    string `json:"name"`
	Account string `json:"account"`
	Job     uint16 `json:"job"`
	Level   uint16 `json:"level"`

	// Last known location, written on logout for restoring on login.
	Zone uint16  `json:"zone"`
	X    float32 `json:"x"`
	Y    float32 `json:"y"`

	Health    uint32      `json:"health"`
	MaxHealth uint32      `json:"max_health"`
	Inventory []ItemStack `json:"inventory,omitempty"`
}

func (c *Character) Validate() error {
	el := errors.NewErrorList()

	if c.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}
	if c.Account == "" {
		el.Add(fmt.Errorf("account is required"))
	}
	if c.MaxHealth == 0 {
		el.Add(fmt.Errorf("max_health must be positive"))
	}
	if c.Health > c.MaxHealth {
		el.Add(fmt.Errorf("health exceeds max_health"))
	}

	return el.Err()
}

// NewCharacter builds a fresh level-one character at the given spawn
// point.
func NewCharacter(name, account string, job uint16, zone uint16, x, y float32) *Character {
	return &Character{
		Name:      name,
		Account:   account,
		Job:       job,
		Level:     1,
		Zone:      zone,
		X:         x,
		Y:         y,
		Health:    100,
		MaxHealth: 100,
	}
}
